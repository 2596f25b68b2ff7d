package task

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus represents the current state of a job
type JobStatus string

// Possible job status values
const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Job is one scheduled extraction. Its ID is the job id handed to clients,
// which is also stored on the transcript.
type Job struct {
	ID           uuid.UUID `json:"id"`
	TranscriptID uuid.UUID `json:"transcriptId"`
	Status       JobStatus `json:"status"`
	EnqueuedAt   time.Time `json:"enqueuedAt"`
	StartedAt    time.Time `json:"startedAt"`
	FinishedAt   time.Time `json:"finishedAt"`
	Error        string    `json:"error,omitempty"`
}

// IsTerminal reports whether the job has finished, successfully or not.
func (j Job) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// Stats summarises the scheduler's job registry.
type Stats struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	Total      int `json:"total"`
	QueueDepth int `json:"queueDepth"`
}
