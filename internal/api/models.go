package api

import (
	"github.com/phrazzld/minutes-api/internal/service"
	"github.com/phrazzld/minutes-api/internal/task"
)

// SubmitTranscriptRequest is the payload of POST /api/transcripts.
type SubmitTranscriptRequest struct {
	Transcript string `json:"transcript" validate:"required"`
}

// SubmitTranscriptResponse is returned by POST /api/transcripts.
type SubmitTranscriptResponse = service.SubmitResult

// JobResponse is returned by GET /api/jobs/{jobId}.
type JobResponse = service.JobSnapshot

// CompleteTaskResponse is returned by POST /api/tasks/{taskId}/complete.
type CompleteTaskResponse = service.CompletionResult

// QueueStatsResponse is returned by GET /api/queue/stats.
type QueueStatsResponse = task.Stats

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}
