package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/phrazzld/minutes-api/internal/api"
	apiMiddleware "github.com/phrazzld/minutes-api/internal/api/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRouter creates the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.NewTraceMiddleware(app.logger))
	r.Use(apiMiddleware.RequestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: app.config.Server.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"X-Trace-ID"},
		MaxAge:         300,
	}))
	r.Use(app.metrics.Handler)

	transcriptHandler := api.NewTranscriptHandler(app.service, app.logger)
	taskHandler := api.NewTaskHandler(app.service, app.logger)
	healthHandler := api.NewHealthHandler(app.healthCheck, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Post("/transcripts", transcriptHandler.SubmitTranscript)
		r.Get("/jobs/{jobId}", transcriptHandler.GetJob)
		r.Get("/queue/stats", transcriptHandler.GetQueueStats)

		r.Post("/tasks/{taskId}/complete", taskHandler.CompleteTask)
		r.Patch("/tasks/{taskId}/complete", taskHandler.CompleteTask)
	})

	r.Get("/health", healthHandler.Health)

	// Scheduler metrics live on the default registry, HTTP metrics on the
	// application's own.
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(
		prometheus.Gatherers{prometheus.DefaultGatherer, app.registry},
		promhttp.HandlerOpts{},
	))

	return r
}
