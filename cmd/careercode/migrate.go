package main

import (
	"context"
	"fmt"

	"github.com/jonathan/career-code/internal/config"
	"github.com/jonathan/career-code/internal/db"
	"github.com/jonathan/career-code/internal/observability"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the jobs and applications tables",
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := observability.SetupLogging(cfg.LogLevel, cfg.LogFormat, nil); err != nil {
		return err
	}
	if cfg.StoreBackend != config.StoreBackendPostgres {
		return fmt.Errorf("migrate requires STORE_BACKEND=%s", config.StoreBackendPostgres)
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := database.EnsureSchema(ctx); err != nil {
		return err
	}
	log.Info().
		Strs("collections", []string{db.CollectionJobs, db.CollectionApplications}).
		Msg("schema ready")
	return nil
}
