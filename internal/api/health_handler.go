package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/phrazzld/minutes-api/internal/api/shared"
	"github.com/phrazzld/minutes-api/internal/platform/logger"
	"github.com/phrazzld/minutes-api/internal/redact"
)

const healthCheckTimeout = 2 * time.Second

// HealthHandler reports whether the service can reach its backing store.
type HealthHandler struct {
	check  func(ctx context.Context) error
	logger *slog.Logger
}

// NewHealthHandler creates a HealthHandler. A nil check always reports ok.
func NewHealthHandler(check func(ctx context.Context) error, logger *slog.Logger) *HealthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthHandler{check: check, logger: logger.With(slog.String("component", "health_handler"))}
}

// Health handles GET /health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if h.check != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		defer cancel()
		if err := h.check(ctx); err != nil {
			logger.FromContextOrDefault(r.Context(), h.logger).Warn("health check failed",
				slog.String("error", redact.Error(err)))
			shared.RespondWithData(w, r, http.StatusServiceUnavailable, HealthResponse{Status: "unavailable"})
			return
		}
	}
	shared.RespondWithData(w, r, http.StatusOK, HealthResponse{Status: "ok"})
}
