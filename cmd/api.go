package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/do-hu-so/GD-Ba-Than/internal/server"
	"github.com/do-hu-so/GD-Ba-Than/internal/services"
	"github.com/do-hu-so/GD-Ba-Than/internal/shared"
)

func (r *Runner) api() *services.APIService {
	return services.NewAPIService(r.config.Cloudinary.ProxyURL, r.httpClient)
}

// APIGet makes a direct GET request to the listing proxy
func (r *Runner) APIGet(ctx context.Context, cmd *cli.Command) error {
	path, err := requireArg(cmd, "path")
	if err != nil {
		return err
	}

	r.logger.Info("GET request", "path", path)

	resp, err := r.api().Get(ctx, path)
	if err != nil {
		return err
	}

	if !resp.OK() {
		return fmt.Errorf("%w: status %d, body: %s", shared.ErrAPIRequest, resp.StatusCode, string(resp.Body))
	}

	if resp.IsJSON {
		return r.writeJSON(resp.JSONData, cmd.Bool("pretty"))
	}

	r.output.Write(resp.Body)
	r.output.Write([]byte("\n"))
	return nil
}

// APIHealth checks the listing proxy's /health endpoint.
func (r *Runner) APIHealth(ctx context.Context, cmd *cli.Command) error {
	var health struct {
		Status string `json:"status"`
	}
	if err := r.api().GetJSON(ctx, "/health", &health); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}

	return r.writePlain("✓ %s is %s\n", r.config.Cloudinary.ProxyURL, health.Status)
}

// Serve runs the listing proxy until interrupted.
//
// The proxy lists with the Admin API credentials, so they must be configured here.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	lister := r.lister
	if lister == nil {
		client := &http.Client{Timeout: time.Duration(r.config.Sync.HTTPTimeoutSec) * time.Second}
		admin, err := services.NewAdminLister(r.config.Cloudinary, "", client)
		if err != nil {
			return err
		}
		lister = services.NewBreakerLister(admin, services.BreakerOpts{
			Name:        "admin-api",
			MaxFailures: uint32(max(r.config.Sync.MaxFailures, 0)),
			OpenTimeout: time.Duration(r.config.Sync.OpenTimeoutSec) * time.Second,
			Logger:      r.logger,
		})
	}

	cfg := r.config.Server
	cfg.Host = cmd.String("host")
	cfg.Port = cmd.Int("port")

	return server.New(cfg, lister, r.logger).ListenAndServe(ctx)
}
