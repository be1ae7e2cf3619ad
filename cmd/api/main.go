package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/ajitpratap0/clinicalnlp/internal/api"
	"github.com/ajitpratap0/clinicalnlp/internal/audit"
	"github.com/ajitpratap0/clinicalnlp/internal/config"
	"github.com/ajitpratap0/clinicalnlp/internal/db"
	"github.com/ajitpratap0/clinicalnlp/internal/metrics"
	"github.com/ajitpratap0/clinicalnlp/internal/nlpcloud"
	"github.com/ajitpratap0/clinicalnlp/internal/reports"
)

const shutdownTimeout = 10 * time.Second

func main() {
	configPath := flag.String("config", "", "Path to config file (default ./configs/config.yaml)")
	strict := flag.Bool("strict", false, "Treat configuration warnings as fatal")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	config.InitLogger(cfg.App.LogLevel, cfg.App.LogFormat)
	log.Info().
		Str("version", config.GetVersion()).
		Str("environment", cfg.App.Environment).
		Msg("Starting ClinicalNLP API Server")

	validator := config.NewValidator(cfg, config.ValidatorOptions{Strict: *strict})
	if err := validator.ValidateStartup(); err != nil {
		log.Fatal().Err(err).Msg("Startup validation failed")
	}

	// Create context that is cancelled on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Error().Err(err).Msg("Server exited with error")
		os.Exit(1)
	}

	log.Info().Msg("Server stopped successfully")
}

func run(ctx context.Context, cfg *config.Config) error {
	database, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}

	var (
		store   reports.Store = reports.NewMemoryStore()
		health  api.HealthCheck
		auditDB audit.DBTX
	)
	if database != nil {
		defer database.Close()
		store = db.NewReportRepository(database.Pool())
		health = database.Health
		auditDB = database.Pool()
	}

	server := api.NewServer(api.Config{
		Host:           cfg.API.Host,
		Port:           cfg.API.Port,
		AllowedOrigins: cfg.API.AllowedOrigins,
		Gateway:        nlpcloud.New(cfg.NLPCloud.Gateway()),
		Reports:        store,
		Health:         health,
		Audit:          audit.NewLogger(auditDB, cfg.Audit.Enabled),
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(server.Start)

	var metricsServer *metrics.Server
	if cfg.Metrics.Enabled {
		metricsServer = metrics.NewServer(cfg.Metrics.GetMetricsAddr(), log.Logger)
		g.Go(metricsServer.Start)
	}

	// Graceful shutdown once a signal arrives or either server fails
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("Shutting down servers...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		var errs []error
		if err := server.Stop(shutdownCtx); err != nil {
			errs = append(errs, err)
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})

	return g.Wait()
}

// openDatabase connects to PostgreSQL when a database URL is configured.
// Without one it returns nil and reports are kept in memory.
func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*db.DB, error) {
	if !cfg.Enabled() {
		log.Warn().Msg("No database configured, patient reports are kept in memory")
		return nil, nil
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	return db.New(connectCtx, db.Options{URL: cfg.URL, PoolSize: cfg.PoolSize})
}
