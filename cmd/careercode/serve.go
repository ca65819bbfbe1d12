package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jonathan/career-code/internal/config"
	"github.com/jonathan/career-code/internal/db"
	"github.com/jonathan/career-code/internal/jobboard"
	"github.com/jonathan/career-code/internal/observability"
	"github.com/jonathan/career-code/internal/server"
	"github.com/jonathan/career-code/internal/server/middleware"
	"github.com/jonathan/career-code/internal/server/ratelimit"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var (
	serveAddr   string
	serveMemory bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the job and application endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Address to listen on (overrides SERVER_ADDRESS)")
	serveCmd.Flags().BoolVar(&serveMemory, "memory", false, "Use the in-memory store instead of PostgreSQL")
	rootCmd.AddCommand(serveCmd)
}

// collections holds the store handles the services run on
type collections struct {
	jobs         jobboard.Collection
	applications jobboard.Collection
	close        func(context.Context) error
}

func openCollections(ctx context.Context, cfg config.Config) (*collections, error) {
	if cfg.StoreBackend == config.StoreBackendMemory {
		log.Warn().Msg("using in-memory store; data is lost on shutdown")
		return &collections{
			jobs:         db.NewMemoryCollection(db.CollectionJobs),
			applications: db.NewMemoryCollection(db.CollectionApplications),
			close:        func(context.Context) error { return nil },
		}, nil
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.EnsureSchema(ctx); err != nil {
		database.Close()
		return nil, err
	}
	return &collections{
		jobs:         database.Collection(db.CollectionJobs),
		applications: database.Collection(db.CollectionApplications),
		close: func(context.Context) error {
			database.Close()
			return nil
		},
	}, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Flags override app.env through the environment so validation sees them
	if serveAddr != "" {
		if err := os.Setenv("SERVER_ADDRESS", serveAddr); err != nil {
			return err
		}
	}
	if serveMemory {
		if err := os.Setenv("STORE_BACKEND", config.StoreBackendMemory); err != nil {
			return err
		}
	}

	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := observability.SetupLogging(cfg.LogLevel, cfg.LogFormat, nil); err != nil {
		return err
	}
	shutdownTracing, err := observability.SetupTracing(ctx, observability.TraceConfig{
		Exporter:     cfg.TraceExporter,
		OTLPEndpoint: cfg.OTLPEndpoint,
		OTLPInsecure: cfg.OTLPInsecure,
	})
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}

	jwtConfig, err := cfg.JWT()
	if err != nil {
		return fmt.Errorf("invalid JWT configuration: %w", err)
	}

	store, err := openCollections(ctx, cfg)
	if err != nil {
		return err
	}

	policy := jobboard.Policy{
		RequireOwnerOnCreate:       cfg.RequireOwnerOnCreate,
		RequireOwnerOnStatusUpdate: cfg.RequireOwnerOnStatusUpdate,
		FanOut:                     cfg.EnrichmentConcurrency,
	}
	jobs := jobboard.NewJobService(store.jobs, store.applications, policy)
	applications := jobboard.NewApplicationService(store.applications, jobs, policy)

	var identities middleware.IdentityVerifier
	if cfg.GoogleClientID != "" {
		verifier, err := server.NewGoogleVerifier(ctx, cfg.GoogleClientID)
		if err != nil {
			_ = store.close(ctx)
			return fmt.Errorf("failed to create identity verifier: %w", err)
		}
		identities = verifier
	} else {
		log.Warn().Msg("GOOGLE_CLIENT_ID not set; POST /jwt and bearer authentication are disabled")
	}

	srv, err := server.New(server.Config{
		Address:        cfg.ServerAddress,
		AllowedOrigins: cfg.AllowedOrigins,
		JWT:            jwtConfig,
		RateLimit:      ratelimit.NewConfig(cfg.RateLimitEnabled, cfg.RateLimitRPS, cfg.RateLimitBurst),
		Jobs:           jobs,
		Applications:   applications,
		Identities:     identities,
	})
	if err != nil {
		_ = store.close(ctx)
		return fmt.Errorf("failed to create server: %w", err)
	}
	srv.OnShutdown(store.close)
	srv.OnShutdown(shutdownTracing)

	log.Info().
		Str("addr", cfg.ServerAddress).
		Str("store", cfg.StoreBackend).
		Str("trace_exporter", cfg.TraceExporter).
		Msg("starting server")

	return srv.Start()
}
