package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/plsplit/internal/shared"
	"github.com/desertthunder/plsplit/internal/ui"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the example configuration to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	if err := shared.CreateConfigFile(r.configPath); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
	}

	r.logger.Info("config file created", "path", r.configPath)
	r.writePlain("%s\n", ui.Styles.OK("Config written to "+r.configPath))
	r.writePlain("%s\n", ui.Styles.Help(fmt.Sprintf("Fill in [credentials.spotify] or set %s and %s, then run plsplit auth",
		shared.EnvClientID, shared.EnvClientSecret)))
	return nil
}

// SetupDatabase initializes the database and runs migrations, or rolls back the latest one.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	if _, err := os.Stat(r.configPath); err != nil {
		r.logger.Info("config file not found, creating from template", "path", r.configPath)
		if err := shared.CreateConfigFile(r.configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		}
	}

	path := r.config.Database.Path
	if path == "" {
		return fmt.Errorf("%w: [database] path is empty", shared.ErrInvalidConfig)
	}

	db := r.db
	if db == nil {
		r.logger.Info("initializing database", "path", path)
		opened, err := shared.OpenDatabase(r.config.Database)
		if err != nil {
			return fmt.Errorf("failed to create database: %w", err)
		}
		defer opened.Close()
		db = opened
	}

	if cmd.Bool("rollback") {
		r.logger.Info("rolling back latest migration")
		if err := shared.RollbackMigration(db); err != nil {
			return fmt.Errorf("failed to roll back migration: %w", err)
		}
		return r.writePlain("%s\n", ui.Styles.OK("Rolled back latest migration"))
	}

	r.logger.Info("running database migrations")
	if err := shared.RunMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	r.logger.Info("setup complete", "database", path)
	return r.writePlain("%s\n", ui.Styles.OK("Database ready at "+path))
}
