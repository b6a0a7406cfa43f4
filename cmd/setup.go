package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/reelx/internal/shared"
	"github.com/urfave/cli/v3"
)

// Setup writes the config file when it is missing and then initializes the database.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	if _, err := os.Stat(r.configPath); err != nil {
		if err := r.SetupConfig(ctx, cmd); err != nil {
			return err
		}
	} else {
		r.logger.Info("using existing config", "path", r.configPath)
	}
	return r.SetupDatabase(ctx, cmd)
}

// SetupConfig creates the config file from the embedded template and reloads it.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("creating config file from template", "path", r.configPath)
	if err := shared.CreateConfigFile(r.configPath); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
	}

	config, err := shared.LoadConfig(r.configPath)
	if err != nil {
		r.logger.Warn("failed to load created config, using defaults", "error", err)
		config = shared.DefaultConfig()
	}
	r.config = config

	r.writePlain("✓ Config file created: %s\n", r.configPath)
	r.writePlainln("Next steps:")
	r.writePlain("1. Set tmdb.api_key to browse the catalog\n")
	r.writePlain("2. Set firebase.project_id, firebase.api_key, and the google client to sync favorites\n")
	return nil
}

// SetupDatabase initializes the database and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	r.logger.Info("initializing database", "path", r.config.Database.Path)

	if _, err := r.store(); err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}

	statuses, err := shared.Migrations(r.db)
	if err != nil {
		return fmt.Errorf("failed to read migrations: %w", err)
	}

	r.writePlain("Database: %s\n", r.config.Database.Path)
	for _, s := range statuses {
		mark := "✗"
		if s.Applied {
			mark = "✓"
		}
		r.writePlain("  %s %04d %s\n", mark, s.Version, s.Name)
	}
	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	return nil
}

// SetupRollback rolls back the most recently applied migration.
func (r *Runner) SetupRollback(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.store(); err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	if err := shared.RollbackMigration(r.db); err != nil {
		return fmt.Errorf("rollback failed: %w", err)
	}

	r.logger.Warn("rolled back latest migration; run 'reelx setup db' to re-apply")
	return r.writePlain("✓ Rolled back latest migration\n")
}
