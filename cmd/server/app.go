package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/minutes-api/internal/config"
	"github.com/phrazzld/minutes-api/internal/dedup"
	"github.com/phrazzld/minutes-api/internal/extraction"
	"github.com/phrazzld/minutes-api/internal/platform/gemini"
	"github.com/phrazzld/minutes-api/internal/platform/memory"
	"github.com/phrazzld/minutes-api/internal/platform/postgres"
	"github.com/phrazzld/minutes-api/internal/service"
	"github.com/phrazzld/minutes-api/internal/store"
	"github.com/phrazzld/minutes-api/internal/task"
	"github.com/prometheus/client_golang/prometheus"

	apiMiddleware "github.com/phrazzld/minutes-api/internal/api/middleware"
)

// application holds the shared dependencies of the server process.
type application struct {
	config *config.Config
	logger *slog.Logger

	// db is nil when the memory driver is configured.
	db    *sql.DB
	store store.Store

	scheduler *task.Scheduler
	service   service.TranscriptService

	metrics  *apiMiddleware.Metrics
	registry *prometheus.Registry
}

// newApplication wires every component from cfg. A nil extractor selects the
// Gemini extractor configured in cfg.LLM.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	extractor extraction.Extractor,
) (*application, error) {
	app := &application{
		config:   cfg,
		logger:   logger,
		metrics:  apiMiddleware.NewMetrics("minutes-api"),
		registry: prometheus.NewRegistry(),
	}
	app.metrics.MustRegister(app.registry)

	if err := app.openStore(ctx); err != nil {
		return nil, err
	}

	hasher, err := dedup.NewHasher(cfg.Dedup.HashAlgorithm)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("failed to create content hasher: %w", err)
	}
	gate, err := dedup.NewGate(app.store.Transcripts(), hasher, logger)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("failed to create idempotency gate: %w", err)
	}

	if extractor == nil {
		extractor, err = gemini.NewGeminiExtractor(ctx, logger.With(slog.String("component", "llm_extractor")), cfg.LLM)
		if err != nil {
			app.close()
			return nil, fmt.Errorf("failed to initialize LLM extractor: %w", err)
		}
		logger.Info("LLM extractor initialized", slog.String("model", cfg.LLM.ModelName))
	}

	processor, err := task.NewExtractionProcessor(app.store, extractor, logger)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("failed to create job processor: %w", err)
	}
	app.scheduler, err = task.NewScheduler(task.NewMemoryQueue(logger), processor, logger,
		task.WithJobRetention(cfg.Scheduler.JobRetention()))
	if err != nil {
		app.close()
		return nil, fmt.Errorf("failed to create job scheduler: %w", err)
	}

	app.service, err = service.NewTranscriptService(app.store, gate, app.scheduler, cfg.Submission, logger)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("failed to create transcript service: %w", err)
	}

	logger.Info("application initialized")
	return app, nil
}

// openStore connects the configured persistence backend. Postgres schemas
// are brought up to date before the store is used.
func (app *application) openStore(ctx context.Context) error {
	switch app.config.Database.Driver {
	case config.DriverMemory:
		app.logger.Warn("using in-memory store, data is lost on restart")
		app.store = memory.New()
		return nil

	case config.DriverPostgres:
		db, err := postgres.Open(ctx, app.config.Database, app.logger)
		if err != nil {
			return err
		}
		if err := postgres.Migrate(ctx, db, postgres.MigrateUp, app.logger); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to apply migrations: %w", err)
		}
		app.db = db
		app.store = postgres.NewStore(db, app.logger)
		return nil

	default:
		return fmt.Errorf("unsupported database driver %q", app.config.Database.Driver)
	}
}

// healthCheck pings the database when there is one.
func (app *application) healthCheck(ctx context.Context) error {
	if app.db == nil {
		return nil
	}
	return app.db.PingContext(ctx)
}

// close releases the database connection.
func (app *application) close() {
	if app.db == nil {
		return
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database connection", slog.String("error", err.Error()))
	}
	app.db = nil
}
