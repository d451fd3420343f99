package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/do-hu-so/GD-Ba-Than/internal/shared"
)

// SetupConfig writes config.toml from the embedded defaults.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if err := shared.CreateConfigFile(configPath); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", configPath)
	r.writePlain("✓ Wrote %s\n", configPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set cloudinary.cloud_name and cloudinary.upload_preset (or VITE_CLOUDINARY_* in .env.local)\n")
	r.writePlain("2. Run 'gallery setup database' then 'gallery sync'\n")
	return nil
}

// SetupDatabase initializes the database and runs migrations, or rolls back the latest one.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	config := r.config
	if _, err := os.Stat(configPath); err == nil {
		if config, err = shared.LoadConfig(configPath); err != nil {
			r.logger.Warn("failed to load config, using current settings", "error", err)
			config = r.config
		}
	} else {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using current settings", "error", err)
		} else {
			r.logger.Info("config file created", "path", configPath)
		}
	}

	if config.Store.Driver != "" && config.Store.Driver != "sqlite" {
		r.logger.Info("store does not use a database, nothing to migrate", "driver", config.Store.Driver)
		return nil
	}

	r.logger.Info("initializing database", "path", config.Store.Path)

	db, err := shared.NewDatabase(config.Store.Path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer db.Close()

	shared.ConfigureDatabase(db, config.Store.MaxOpenConns, config.Store.MaxIdleConns)

	if cmd.Bool("rollback") {
		r.logger.Info("rolling back latest migration")
		if err := shared.RollbackMigration(db); err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
	} else {
		r.logger.Info("running database migrations")
		if err := shared.RunMigrations(db); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	applied, err := shared.AppliedMigrations(db)
	if err != nil {
		return err
	}
	r.logger.Infof("setup complete for database: %v", config.Store.Path)
	return r.writePlain("✓ %s: %d migrations applied\n", config.Store.Path, len(applied))
}
