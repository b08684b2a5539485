package cmd

import (
	"context"
	"fmt"

	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/spf13/cobra"

	"eventmanager/config"
	"eventmanager/internal/repository/postgres"
)

var (
	migrateDownSteps int
	migrateSkipRiver bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Manage the database schema",
	Long: `Apply or roll back the application schema (users, events, event_registrations)
and the River job queue tables.`,
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}
		logger := config.NewLogger(cfg)

		if err := postgres.MigrateUp(cfg.DBUrl); err != nil {
			return err
		}
		logger.Info("application schema up to date")

		if migrateSkipRiver {
			return nil
		}
		if err := migrateRiver(cmd.Context(), cfg.DBUrl, rivermigrate.DirectionUp); err != nil {
			return err
		}
		logger.Info("river schema up to date")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back application migrations",
	Long:  "Roll back the last --steps application migrations. The River tables are left in place.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("config error: %w", err)
		}
		if err := postgres.MigrateDown(cfg.DBUrl, migrateDownSteps); err != nil {
			return err
		}
		config.NewLogger(cfg).Info("rolled back application migrations", "steps", migrateDownSteps)
		return nil
	},
}

func init() {
	migrateUpCmd.Flags().BoolVar(&migrateSkipRiver, "skip-river", false, "only apply the application schema")
	migrateDownCmd.Flags().IntVar(&migrateDownSteps, "steps", 1, "number of migrations to roll back")
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
}

func migrateRiver(ctx context.Context, databaseURL string, direction rivermigrate.Direction) error {
	pool, err := postgres.OpenPool(ctx, databaseURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("river migrator: %w", err)
	}
	if _, err := migrator.Migrate(ctx, direction, &rivermigrate.MigrateOpts{}); err != nil {
		return fmt.Errorf("river migrate: %w", err)
	}
	return nil
}
