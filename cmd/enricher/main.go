package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/floorly/catalog-enricher/internal/api"
	"github.com/floorly/catalog-enricher/internal/browser"
	"github.com/floorly/catalog-enricher/internal/config"
	"github.com/floorly/catalog-enricher/internal/database"
	"github.com/floorly/catalog-enricher/internal/enrich"
	"github.com/floorly/catalog-enricher/internal/events"
	"github.com/floorly/catalog-enricher/internal/jobs"
	"github.com/floorly/catalog-enricher/internal/vendors"
)

func main() {
	godotenv.Load()

	root := &cobra.Command{
		Use:   "enricher",
		Short: "Vendor catalog enrichment pipeline",
	}

	root.AddCommand(newRunCmd(), newServeCmd(), newRelayCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRunCmd() *cobra.Command {
	var vendorID string

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one enrichment pass for a vendor and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()

			db, err := connectDB(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			app := buildApp(cfg, db, logger)

			job, err := app.manager.Enqueue(ctx, vendorID)
			if err != nil {
				return err
			}

			return app.manager.Execute(ctx, job)
		},
	}

	cmd.Flags().StringVar(&vendorID, "vendor", "",
		fmt.Sprintf("vendor to enrich (%s)", strings.Join(vendors.VendorIDs(), ", ")))
	cmd.MarkFlagRequired("vendor")

	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the job API, the background worker, and the outbox relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()

			db, err := connectDB(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			redisClient := newRedisClient(cfg)
			defer redisClient.Close()

			app := buildApp(cfg, db, logger)

			relay := database.NewRelay(db, redisClient, logger, database.RelayConfig{})
			worker := jobs.NewWorker(app.manager, cfg.Enrich.WorkerInterval, logger)

			server := api.NewServer(api.Params{
				Config:    cfg.Server,
				Manager:   app.manager,
				Pending:   relay,
				VendorIDs: vendors.VendorIDs(),
				Registry:  app.registry,
				Logger:    logger,
			})

			go worker.Start(ctx)
			go func() {
				if err := relay.Start(ctx); err != nil && ctx.Err() == nil {
					logger.Error("Relay stopped", "error", err)
				}
			}()

			errCh := make(chan error, 1)
			go func() {
				errCh <- server.Start()
			}()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		},
	}
}

func newRelayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "relay",
		Short: "Run only the outbox relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()

			db, err := connectDB(ctx, cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			redisClient := newRedisClient(cfg)
			defer redisClient.Close()

			relay := database.NewRelay(db, redisClient, logger, database.RelayConfig{})
			if err := relay.Start(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			return nil
		},
	}
}

// app bundles the pieces every command variant shares.
type app struct {
	manager  *jobs.Manager
	registry *prometheus.Registry
}

func buildApp(cfg *config.Config, db *database.DB, logger *slog.Logger) *app {
	catalog := database.NewCatalogStore(db)
	jobStore := database.NewJobStore(db)
	outbox := database.NewOutboxRepository(db)
	publisher := events.NewPublisher(db, outbox)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := enrich.NewMetrics(registry)

	factory := func(vendorID string) (jobs.Runner, error) {
		adapter, err := vendors.New(vendorID, vendors.Options{
			LookupTimeout: cfg.Enrich.LookupTimeout,
			PageTimeout:   cfg.Enrich.PageTimeout,
			RequestDelay:  cfg.Enrich.RequestDelay,
			Logger:        logger,
		})
		if err != nil {
			return nil, err
		}

		bopts := &browser.Options{
			Headless:       cfg.Browser.Headless,
			Timeout:        cfg.Browser.Timeout,
			UserAgent:      cfg.Browser.UserAgent,
			ViewportWidth:  cfg.Browser.ViewportWidth,
			ViewportHeight: cfg.Browser.ViewportHeight,
			Locale:         cfg.Browser.Locale,
		}

		return enrich.NewOrchestrator(enrich.OrchestratorParams{
			Adapter:     adapter,
			Catalog:     catalog,
			Jobs:        jobStore,
			OpenSession: enrich.BrowserSession(bopts, adapter.Source().Delay, cfg.Enrich.PageTimeout),
			Publisher:   publisher,
			Metrics:     metrics,
			Logger:      logger,
			Config:      cfg.Enrich,
		}), nil
	}

	return &app{
		manager:  jobs.NewManager(jobStore, factory, logger),
		registry: registry,
	}
}

func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	logger := setupLogger(cfg.Logging)
	slog.SetDefault(logger)

	return cfg, logger, nil
}

func setupLogger(cfg config.LoggingConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}

func connectDB(ctx context.Context, cfg *config.Config) (*database.DB, error) {
	return database.New(ctx, database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.DBName,
		SSLMode:  cfg.Database.SSLMode,
	})
}

func newRedisClient(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
