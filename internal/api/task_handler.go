package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/minutes-api/internal/api/shared"
	"github.com/phrazzld/minutes-api/internal/platform/logger"
	"github.com/phrazzld/minutes-api/internal/service"
)

// TaskHandler serves task completion.
type TaskHandler struct {
	service service.TranscriptService
	logger  *slog.Logger
}

// NewTaskHandler creates a TaskHandler.
func NewTaskHandler(svc service.TranscriptService, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		service: svc,
		logger:  logger.With(slog.String("component", "task_handler")),
	}
}

// CompleteTask handles POST and PATCH /api/tasks/{taskId}/complete.
func (h *TaskHandler) CompleteTask(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	taskID, err := getPathString(r, "taskId")
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	res, err := h.service.CompleteTask(r.Context(), taskID)
	if err != nil {
		log.Debug("task completion refused",
			slog.String("task_id", taskID),
			slog.String("error", err.Error()))
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, res)
}
