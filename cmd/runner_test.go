package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/do-hu-so/GD-Ba-Than/internal/models"
	"github.com/do-hu-so/GD-Ba-Than/internal/shared"
	tu "github.com/do-hu-so/GD-Ba-Than/internal/testing"
)

var testNow = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

func testLister() *tu.MockLister {
	return &tu.MockLister{
		Resources: map[models.Kind][]models.RemoteResource{
			models.KindImage: {
				tu.Resource("family/tet", "jpg", "image", "2023-01-22T08:00:00Z"),
				tu.Resource("family/beach", "png", "image", "2022-07-10T08:00:00Z"),
			},
			models.KindVideo: {
				tu.Resource("family/clip", "mp4", "video", "2023-02-01T08:00:00Z"),
			},
		},
	}
}

type testEnv struct {
	runner     *Runner
	output     *bytes.Buffer
	lister     *tu.MockLister
	uploader   *tu.MockUploader
	downloader *tu.MockDownloader
	opened     []string
}

// newTestRunner builds a runner over a temporary SQLite store and mock remotes.
func newTestRunner(t *testing.T) *testEnv {
	t.Helper()

	config := shared.DefaultConfig()
	config.Cloudinary.CloudName = "family"
	config.Store.Path = filepath.Join(t.TempDir(), "gallery.db")
	config.Download.Dir = filepath.Join(t.TempDir(), "downloads")

	env := &testEnv{
		output:     &bytes.Buffer{},
		lister:     testLister(),
		uploader:   &tu.MockUploader{},
		downloader: &tu.MockDownloader{Content: []byte("media")},
	}
	env.runner = NewRunner(RunnerOpts{
		Config:     config,
		Logger:     shared.NewLogger(&bytes.Buffer{}),
		Output:     env.output,
		Clock:      tu.FixedClock(testNow),
		Browser:    func(url string) error { env.opened = append(env.opened, url); return nil },
		Lister:     env.lister,
		Uploader:   env.uploader,
		Downloader: env.downloader,
	})
	t.Cleanup(func() { env.runner.Close() })
	return env
}

// run executes the CLI with args against the runner.
func (e *testEnv) run(args ...string) error {
	app := &cli.Command{
		Name:     "gallery",
		Flags:    rootFlags(),
		Commands: e.runner.register(),
	}
	return app.Run(context.Background(), append([]string{"gallery"}, args...))
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}
			lister := &tu.MockLister{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
				Lister:     lister,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
			if runner.lister != lister {
				t.Error("expected lister to be set")
			}
			if runner.media != nil {
				t.Error("expected the repository to be built lazily")
			}
		})

		t.Run("with nil options uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})

		t.Run("Close without a store", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})
			if err := runner.Close(); err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("writes formatted JSON successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]string{"key": "value"}, true); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			result := output.String()
			if !strings.Contains(result, `"key": "value"`) {
				t.Errorf("expected formatted JSON, got %s", result)
			}
			if !strings.HasSuffix(result, "\n") {
				t.Error("expected output to end with newline")
			}
		})

		t.Run("handles marshal error with non-serializable data", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})

			err := runner.writeJSON(make(chan int), false)
			if err == nil || !strings.Contains(err.Error(), "failed to marshal JSON") {
				t.Errorf("expected marshal error, got %v", err)
			}
		})

		t.Run("handles write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("handles newline write failure", func(t *testing.T) {
			limitedWriter := tu.NewLimitedWriter(1, 0, &bytes.Buffer{})
			runner := NewRunner(RunnerOpts{Output: &limitedWriter})

			err := runner.writeJSON(map[string]string{"key": "value"}, false)
			if err == nil || !strings.Contains(err.Error(), "failed to write newline") {
				t.Errorf("expected newline write error, got %v", err)
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		if err := runner.writePlain("hello %s", "world"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if output.String() != "hello world" {
			t.Errorf("expected 'hello world', got %q", output.String())
		}

		failing := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
		if err := failing.writePlain("test"); err == nil {
			t.Error("expected error from failing writer")
		}
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		seen := map[string]bool{}
		for i, cmd := range commands {
			if cmd == nil {
				t.Fatalf("command at index %d is nil", i)
			}
			if seen[cmd.Name] {
				t.Errorf("command %q registered twice", cmd.Name)
			}
			seen[cmd.Name] = true
		}

		for _, name := range []string{"setup", "list", "upload", "edit", "remove", "download", "download-year", "like", "likes", "sync", "export", "open", "serve", "tui"} {
			if !seen[name] {
				t.Errorf("expected command %q to be registered", name)
			}
		}
	})
}

func TestMediaCommands(t *testing.T) {
	t.Run("list syncs on start", func(t *testing.T) {
		env := newTestRunner(t)

		if err := env.run("list"); err != nil {
			t.Fatalf("list error = %v", err)
		}

		out := env.output.String()
		if !strings.HasPrefix(out, "Items: 3") {
			t.Fatalf("expected 3 items, got %q", out)
		}
		if !strings.Contains(out, "1. [video] Gia đình (2023) - family/clip") {
			t.Errorf("expected newest item first, got %q", out)
		}
	})

	t.Run("list without sync is empty", func(t *testing.T) {
		env := newTestRunner(t)

		if err := env.run("--no-sync", "list"); err != nil {
			t.Fatalf("list error = %v", err)
		}
		if env.lister.Calls != 0 {
			t.Errorf("expected no listing calls, got %d", env.lister.Calls)
		}
		if !strings.Contains(env.output.String(), "No media found") {
			t.Errorf("unexpected output %q", env.output.String())
		}
	})

	t.Run("list filters and emits JSON", func(t *testing.T) {
		env := newTestRunner(t)

		if err := env.run("list", "--year", "2023", "--kind", "photo", "--json"); err != nil {
			t.Fatalf("list error = %v", err)
		}

		var records []models.MediaRecord
		if err := json.Unmarshal(env.output.Bytes(), &records); err != nil {
			t.Fatalf("failed to decode output %q: %v", env.output.String(), err)
		}
		if len(records) != 1 || records[0].ID != "family/tet" {
			t.Errorf("expected only the 2023 photo, got %+v", records)
		}
	})

	t.Run("list rejects unknown kinds", func(t *testing.T) {
		env := newTestRunner(t)

		err := env.run("list", "--kind", "audio")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("show reports missing items", func(t *testing.T) {
		env := newTestRunner(t)

		err := env.run("show", "family/nope")
		if !errors.Is(err, shared.ErrMediaNotFound) {
			t.Errorf("expected ErrMediaNotFound, got %v", err)
		}
	})

	t.Run("years", func(t *testing.T) {
		env := newTestRunner(t)

		if err := env.run("years"); err != nil {
			t.Fatalf("years error = %v", err)
		}
		out := env.output.String()
		if !strings.HasPrefix(out, "2023  2 items") || !strings.Contains(out, "2022  1 items") {
			t.Errorf("unexpected output %q", out)
		}
	})

	t.Run("upload", func(t *testing.T) {
		env := newTestRunner(t)
		env.uploader.Result = &models.UploadResult{
			PublicID:  "family/new",
			SecureURL: "https://res.cloudinary.com/family/image/upload/family/new.jpg",
			Kind:      models.KindImage,
		}

		path := filepath.Join(t.TempDir(), "birthday.jpg")
		if err := os.WriteFile(path, []byte("jpeg"), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}

		if err := env.run("--no-sync", "upload", path, "--title", "Sinh nhật", "--year", "2024", "--by", "Ba"); err != nil {
			t.Fatalf("upload error = %v", err)
		}

		if len(env.uploader.Params) != 1 {
			t.Fatalf("expected one upload, got %d", len(env.uploader.Params))
		}
		params := env.uploader.Params[0]
		if params.MimeType != "image/jpeg" || params.Size != 4 || params.UploadedBy != "Ba" {
			t.Errorf("unexpected upload params %+v", params)
		}

		record, err := env.runner.media.Get(context.Background(), "family/new")
		if err != nil {
			t.Fatalf("expected uploaded record, got %v", err)
		}
		if record.Title != "Sinh nhật" || record.Year != 2024 {
			t.Errorf("unexpected record %+v", record)
		}
		if !strings.Contains(env.output.String(), "Added 'Sinh nhật'") {
			t.Errorf("unexpected output %q", env.output.String())
		}
	})

	t.Run("upload requires a file", func(t *testing.T) {
		env := newTestRunner(t)

		err := env.run("upload", filepath.Join(t.TempDir(), "missing.jpg"), "--title", "x", "--year", "2024")
		if !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("edit keeps the description unless given", func(t *testing.T) {
		env := newTestRunner(t)
		ctx := context.Background()

		if err := env.run("edit", "family/tet", "--title", "Tết", "--description", "Mùng một"); err != nil {
			t.Fatalf("edit error = %v", err)
		}
		if err := env.run("edit", "family/tet", "--title", "Tết 2023"); err != nil {
			t.Fatalf("edit error = %v", err)
		}

		record, _ := env.runner.media.Get(ctx, "family/tet")
		if record.Title != "Tết 2023" || record.Description != "Mùng một" {
			t.Errorf("unexpected record %+v", record)
		}
	})

	t.Run("edit rejects blank titles", func(t *testing.T) {
		env := newTestRunner(t)

		err := env.run("edit", "family/tet", "--title", "   ")
		if !errors.Is(err, shared.ErrInvalidInput) {
			t.Errorf("expected ErrInvalidInput, got %v", err)
		}
	})

	t.Run("remove is local only", func(t *testing.T) {
		env := newTestRunner(t)
		ctx := context.Background()

		if err := env.run("remove", "family/beach"); err != nil {
			t.Fatalf("remove error = %v", err)
		}
		if _, err := env.runner.media.Get(ctx, "family/beach"); !errors.Is(err, shared.ErrMediaNotFound) {
			t.Errorf("expected record to be gone, got %v", err)
		}

		err := env.run("remove", "family/tet", "--remote")
		if !errors.Is(err, shared.ErrRemoteDeleteUnsupported) {
			t.Errorf("expected ErrRemoteDeleteUnsupported, got %v", err)
		}
	})

	t.Run("like toggles and likes lists", func(t *testing.T) {
		env := newTestRunner(t)

		if err := env.run("like", "family/tet"); err != nil {
			t.Fatalf("like error = %v", err)
		}
		if !strings.Contains(env.output.String(), "♥ Liked family/tet (1 likes)") {
			t.Errorf("unexpected output %q", env.output.String())
		}

		env.output.Reset()
		if err := env.run("likes"); err != nil {
			t.Fatalf("likes error = %v", err)
		}
		if !strings.Contains(env.output.String(), "family/tet") {
			t.Errorf("expected liked item listed, got %q", env.output.String())
		}

		env.output.Reset()
		if err := env.run("like", "family/tet"); err != nil {
			t.Fatalf("like error = %v", err)
		}
		if !strings.Contains(env.output.String(), "♡ Unliked family/tet (0 likes)") {
			t.Errorf("unexpected output %q", env.output.String())
		}
	})

	t.Run("like reports unknown ids", func(t *testing.T) {
		env := newTestRunner(t)

		if err := env.run("like", "family/nope"); !errors.Is(err, shared.ErrMediaNotFound) {
			t.Errorf("expected ErrMediaNotFound, got %v", err)
		}
	})

	t.Run("open", func(t *testing.T) {
		env := newTestRunner(t)

		if err := env.run("open", "family/clip", "--thumbnail"); err != nil {
			t.Fatalf("open error = %v", err)
		}
		if len(env.opened) != 1 || !strings.HasSuffix(env.opened[0], ".jpg") {
			t.Errorf("expected video thumbnail to be opened, got %v", env.opened)
		}
	})
}

func TestTransferCommands(t *testing.T) {
	t.Run("sync reports counts", func(t *testing.T) {
		env := newTestRunner(t)

		if err := env.run("sync"); err != nil {
			t.Fatalf("sync error = %v", err)
		}
		out := env.output.String()
		if !strings.Contains(out, "New:     3") || !strings.Contains(out, "Total:   3") {
			t.Errorf("unexpected output %q", out)
		}
		if env.lister.Calls != 2 {
			t.Errorf("expected one listing per kind, got %d", env.lister.Calls)
		}
	})

	t.Run("sync failure is returned", func(t *testing.T) {
		env := newTestRunner(t)
		env.lister.Errs = map[models.Kind]error{models.KindVideo: errors.New("offline")}

		if err := env.run("sync"); !errors.Is(err, shared.ErrSyncUnavailable) {
			t.Errorf("expected ErrSyncUnavailable, got %v", err)
		}
	})

	t.Run("download saves and records", func(t *testing.T) {
		env := newTestRunner(t)
		dir := t.TempDir()

		if err := env.run("download", "family/tet", "--dir", dir); err != nil {
			t.Fatalf("download error = %v", err)
		}

		path := filepath.Join(dir, "Gia đình_2023.jpg")
		tu.AssertFileExists(t, path)

		entries, err := env.runner.downloads.List(context.Background(), "family/tet")
		if err != nil || len(entries) != 1 || entries[0].Path != path {
			t.Errorf("expected the download to be logged, got %+v (%v)", entries, err)
		}
	})

	t.Run("download-year writes a manifest", func(t *testing.T) {
		env := newTestRunner(t)
		dir := t.TempDir()

		if err := env.run("download-year", "2023", "--dir", dir); err != nil {
			t.Fatalf("download-year error = %v", err)
		}

		tu.AssertFileExists(t, filepath.Join(dir, "download_manifest.json"))
		if got := len(env.downloader.Downloaded()); got != 2 {
			t.Errorf("expected 2 downloads, got %d", got)
		}
		if !strings.Contains(env.output.String(), "Downloaded: 2/2") {
			t.Errorf("unexpected output %q", env.output.String())
		}
	})

	t.Run("download-year requires a year", func(t *testing.T) {
		env := newTestRunner(t)

		if err := env.run("download-year"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("export to stdout and file", func(t *testing.T) {
		env := newTestRunner(t)

		if err := env.run("export", "--format", "csv"); err != nil {
			t.Fatalf("export error = %v", err)
		}
		if !strings.HasPrefix(env.output.String(), "ID,Kind,Title,Year,CreatedAt,Likes,SourceURL") {
			t.Errorf("expected CSV header, got %q", env.output.String())
		}

		path := filepath.Join(t.TempDir(), "gallery.md")
		if err := env.run("export", "--output", path, "--year", "2022"); err != nil {
			t.Fatalf("export error = %v", err)
		}
		if content := tu.MustReadFile(t, path); !strings.Contains(content, "## 2022") {
			t.Errorf("expected markdown grouped by year, got %q", content)
		}
	})

	t.Run("export rejects unknown formats", func(t *testing.T) {
		env := newTestRunner(t)

		if err := env.run("export", "--format", "xml"); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}

func TestSetupCommands(t *testing.T) {
	t.Run("setup config writes defaults once", func(t *testing.T) {
		env := newTestRunner(t)
		path := filepath.Join(t.TempDir(), "config.toml")

		if err := env.run("setup", "config", "--config", path); err != nil {
			t.Fatalf("setup config error = %v", err)
		}
		if _, err := shared.LoadConfig(path); err != nil {
			t.Errorf("expected loadable config, got %v", err)
		}
		if err := env.run("setup", "config", "--config", path); err == nil {
			t.Error("expected second setup config to fail")
		}
	})

	t.Run("setup database migrates and rolls back", func(t *testing.T) {
		env := newTestRunner(t)
		dir := t.TempDir()
		configPath := filepath.Join(dir, "config.toml")
		dbPath := filepath.Join(dir, "setup.db")

		content := "[store]\ndriver = \"sqlite\"\npath = \"" + filepath.ToSlash(dbPath) + "\"\n"
		if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		if err := env.run("setup", "database", "--config", configPath); err != nil {
			t.Fatalf("setup database error = %v", err)
		}
		tu.AssertFileExists(t, dbPath)
		if !strings.Contains(env.output.String(), "2 migrations applied") {
			t.Errorf("unexpected output %q", env.output.String())
		}

		env.output.Reset()
		if err := env.run("setup", "database", "--config", configPath, "--rollback"); err != nil {
			t.Fatalf("rollback error = %v", err)
		}
		if !strings.Contains(env.output.String(), "1 migrations applied") {
			t.Errorf("unexpected output %q", env.output.String())
		}
	})
}

func TestAPICommands(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/health":
			w.Write([]byte(`{"status":"ok"}`))
		case "/api/cloudinary":
			w.Write([]byte(`{"resources":[{"public_id":"family/a"}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"Not found"}`))
		}
	}))
	defer ts.Close()

	newEnv := func(t *testing.T) *testEnv {
		env := newTestRunner(t)
		env.runner.config.Cloudinary.ProxyURL = ts.URL
		return env
	}

	t.Run("health", func(t *testing.T) {
		env := newEnv(t)

		if err := env.run("api", "health"); err != nil {
			t.Fatalf("api health error = %v", err)
		}
		if !strings.Contains(env.output.String(), "is ok") {
			t.Errorf("unexpected output %q", env.output.String())
		}
	})

	t.Run("get prints JSON", func(t *testing.T) {
		env := newEnv(t)

		if err := env.run("api", "get", "/api/cloudinary?type=image"); err != nil {
			t.Fatalf("api get error = %v", err)
		}
		if !strings.Contains(env.output.String(), `"public_id": "family/a"`) {
			t.Errorf("unexpected output %q", env.output.String())
		}
	})

	t.Run("get reports failures", func(t *testing.T) {
		env := newEnv(t)

		if err := env.run("api", "get", "/missing"); !errors.Is(err, shared.ErrAPIRequest) {
			t.Errorf("expected ErrAPIRequest, got %v", err)
		}
	})
}
