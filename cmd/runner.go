package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/do-hu-so/GD-Ba-Than/internal/models"
	"github.com/do-hu-so/GD-Ba-Than/internal/repositories"
	"github.com/do-hu-so/GD-Ba-Than/internal/services"
	"github.com/do-hu-so/GD-Ba-Than/internal/shared"
	"github.com/do-hu-so/GD-Ba-Than/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The store, repository and workflows are built on first use so setup commands never open the database.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	clock      func() time.Time
	browser    func(string) error

	lister     services.Lister
	uploader   services.Uploader
	downloader services.Downloader

	store     *repositories.Store
	media     *repositories.MediaRepository
	downloads *repositories.DownloadLogRepository
	workflows *tasks.Workflows
	synced    bool
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Nil collaborators are built from Config.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Clock      func() time.Time
	Browser    func(string) error
	Lister     services.Lister
	Uploader   services.Uploader
	Downloader services.Downloader
	Store      *repositories.Store
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.Browser == nil {
		opts.Browser = shared.OpenBrowser
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		clock:      opts.Clock,
		browser:    opts.Browser,
		lister:     opts.Lister,
		uploader:   opts.Uploader,
		downloader: opts.Downloader,
		store:      opts.Store,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){setupCommand, apiCommand, serveCommand, tuiCommand} {
		commands = append(commands, fn(r))
	}
	commands = append(commands, mediaCommands(r)...)
	commands = append(commands, transferCommands(r)...)

	return commands
}

// SetLogger replaces the logger used by the runner and anything it builds afterwards.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// Close releases the store. Safe to call more than once.
func (r *Runner) Close() error {
	if r.store == nil {
		return nil
	}
	err := r.store.Close()
	r.store = nil
	return err
}

// init builds the store, repository and workflows once.
func (r *Runner) init(ctx context.Context) error {
	if r.media != nil {
		return nil
	}

	if r.store == nil {
		store, err := repositories.OpenStore(ctx, r.config.Store)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		r.store = store
	}

	if r.lister == nil {
		r.lister = r.newLister()
	}
	if r.uploader == nil {
		r.uploader = services.NewCloudinaryUploader(r.config.Cloudinary, "", r.httpClient)
	}
	if r.downloader == nil {
		r.downloader = services.NewHTTPDownloader(r.httpClient)
	}

	r.media = repositories.NewMediaRepository(repositories.MediaRepositoryOpts{
		KV:         r.store.KV,
		Lister:     r.lister,
		Uploader:   r.uploader,
		Downloader: r.downloader,
		CloudName:  r.config.Cloudinary.CloudName,
		Tag:        r.config.Cloudinary.Tag,
		Logger:     r.logger,
		Clock:      r.clock,
	})

	var downloads tasks.DownloadLog
	if r.store.DB != nil {
		r.downloads = repositories.NewDownloadLogRepository(r.store.DB)
		downloads = r.downloads
	}
	r.workflows = tasks.NewWorkflows(r.media, downloads, r.logger)

	return nil
}

// ready initializes the runner for a command and, when sync.on_start is set, syncs once.
//
// A failed sync is logged and the local media is used.
func (r *Runner) ready(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}
	if err := r.init(ctx); err != nil {
		return err
	}

	if r.config.Sync.OnStart && !r.synced && !cmd.Bool("no-sync") {
		r.synced = true
		result := r.media.Sync(ctx)
		r.logger.Debug("startup sync", "added", result.Added, "total", result.Total)
	}
	return nil
}

// newLister lists directly with Admin API credentials when configured, otherwise through the proxy.
func (r *Runner) newLister() services.Lister {
	cfg := r.config
	client := &http.Client{Timeout: time.Duration(cfg.Sync.HTTPTimeoutSec) * time.Second}

	var lister services.Lister
	if admin, err := services.NewAdminLister(cfg.Cloudinary, "", client); err == nil {
		r.logger.Debug("listing with Admin API credentials")
		lister = admin
	} else {
		lister = services.NewProxyLister(services.NewAPIService(cfg.Cloudinary.ProxyURL, client))
	}

	return services.NewBreakerLister(lister, services.BreakerOpts{
		Name:        "listing",
		MaxFailures: uint32(max(cfg.Sync.MaxFailures, 0)),
		OpenTimeout: time.Duration(cfg.Sync.OpenTimeoutSec) * time.Second,
		Logger:      r.logger,
	})
}

// kindFilter parses the --kind flag; empty means both kinds.
func kindFilter(cmd *cli.Command) (*models.Kind, error) {
	value := cmd.String("kind")
	if value == "" {
		return nil, nil
	}
	kind, err := models.ParseKind(value)
	if err != nil {
		return nil, fmt.Errorf("%w: --kind %q", shared.ErrInvalidArgument, value)
	}
	return &kind, nil
}

// requireArg returns the named string argument or [shared.ErrMissingArgument].
func requireArg(cmd *cli.Command, name string) (string, error) {
	value := cmd.StringArg(name)
	if value == "" {
		return "", fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	return value, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// printProgress writes progress updates until the channel is closed, then signals done.
func (r *Runner) printProgress(progress <-chan tasks.ProgressUpdate, done chan<- struct{}) {
	defer close(done)
	for update := range progress {
		switch update.Phase {
		case tasks.Uploading:
			r.writePlain("\r⬆ %s", update.Message)
			if update.Step >= update.Total {
				r.writePlain("\n")
			}
		case tasks.Syncing:
			r.writePlain("🔄 %s\n", update.Message)
		case tasks.Downloading:
			if update.Step == 0 {
				r.writePlain("📥 %s\n", update.Message)
			} else {
				r.writePlain("   [%d/%d] %s\n", update.Step, update.Total, update.Message)
			}
		case tasks.Thumbnailing:
			r.writePlain("   🖼 %s\n", update.Message)
		case tasks.WritingManifest:
			r.writePlain("📝 %s\n", update.Message)
		}
	}
}
