package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/do-hu-so/GD-Ba-Than/internal/shared"
)

// EnvConfigPath overrides the default config.toml location.
const EnvConfigPath = "GALLERY_CONFIG"

func main() {
	logger := shared.NewLogger(nil)

	configPath := "config.toml"
	if p := os.Getenv(EnvConfigPath); p != "" {
		configPath = p
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loadedConfig, err := shared.LoadConfig(configPath); err == nil {
			config = loadedConfig
		} else {
			logger.Warn("failed to load config, using defaults", "path", configPath, "error", err)
		}
	}

	if err := shared.ApplyEnv(config, ".env.local", ".env"); err != nil {
		logger.Warn("failed to load environment files", "error", err)
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Logger:     logger,
	})
	defer runner.Close()

	app := &cli.Command{
		Name:     "gallery",
		Usage:    "Family photo & video gallery backed by Cloudinary",
		Version:  "0.3.0",
		Flags:    rootFlags(),
		Commands: runner.register(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		switch {
		case errors.Is(err, shared.ErrNotImplemented), errors.Is(err, shared.ErrRemoteDeleteUnsupported):
			logger.Warn("unsupported operation", "error", err)
			runner.Close()
			os.Exit(0)
		case errors.Is(err, shared.ErrMissingArgument), errors.Is(err, shared.ErrInvalidArgument), errors.Is(err, shared.ErrInvalidInput):
			logger.Error(err.Error())
			runner.Close()
			os.Exit(2)
		default:
			runner.Close()
			logger.Fatalf("application error: %v", err)
		}
	}
}
