package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/minutes-api/internal/api/shared"
	"github.com/phrazzld/minutes-api/internal/platform/logger"
	"github.com/phrazzld/minutes-api/internal/service"
)

// TranscriptHandler serves transcript submission, job polling and queue
// statistics.
type TranscriptHandler struct {
	service service.TranscriptService
	logger  *slog.Logger
}

// NewTranscriptHandler creates a TranscriptHandler.
func NewTranscriptHandler(svc service.TranscriptService, logger *slog.Logger) *TranscriptHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TranscriptHandler{
		service: svc,
		logger:  logger.With(slog.String("component", "transcript_handler")),
	}
}

// SubmitTranscript handles POST /api/transcripts. A new job answers 202
// Accepted; a duplicate of earlier content answers 200 with the existing job.
func (h *TranscriptHandler) SubmitTranscript(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	var req SubmitTranscriptRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		log.Debug("invalid submission", slog.String("error", err.Error()))
		HandleAPIError(w, r, err)
		return
	}

	res, err := h.service.Submit(r.Context(), req.Transcript)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	status := http.StatusAccepted
	if res.IsDuplicate {
		status = http.StatusOK
	}
	shared.RespondWithData(w, r, status, SubmitTranscriptResponse(res))
}

// GetJob handles GET /api/jobs/{jobId}.
func (h *TranscriptHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	jobID, err := getPathUUID(r, "jobId")
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}

	snapshot, err := h.service.GetJob(r.Context(), jobID)
	if err != nil {
		HandleAPIError(w, r, err)
		return
	}
	shared.RespondWithData(w, r, http.StatusOK, snapshot)
}

// GetQueueStats handles GET /api/queue/stats.
func (h *TranscriptHandler) GetQueueStats(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithData(w, r, http.StatusOK, QueueStatsResponse(h.service.QueueStats()))
}
