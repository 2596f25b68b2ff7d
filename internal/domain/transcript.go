package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// TranscriptStatus represents the processing state of a transcript
type TranscriptStatus string

// Possible transcript status values
const (
	TranscriptStatusPending    TranscriptStatus = "pending"
	TranscriptStatusProcessing TranscriptStatus = "processing"
	TranscriptStatusCompleted  TranscriptStatus = "completed"
	TranscriptStatusFailed     TranscriptStatus = "failed"
)

// Validation errors for Transcript
var (
	ErrEmptyTranscriptID   = errors.New("transcript ID cannot be empty")
	ErrEmptyJobID          = errors.New("job ID cannot be empty")
	ErrEmptyTranscriptText = errors.New("transcript content cannot be empty")
	ErrEmptyContentHash    = errors.New("content hash cannot be empty")
)

// TranscriptMetadata holds the processing summary written when a job completes.
type TranscriptMetadata struct {
	TaskCount        int   `json:"taskCount"`
	CyclesDetected   int   `json:"cyclesDetected"`
	ProcessingTimeMs int64 `json:"processingTimeMs"`
}

// Transcript is the persisted record of submitted meeting text and the outcome
// of processing it. It is created on first-time submission, mutated only by
// the job scheduler and never deleted.
type Transcript struct {
	ID           uuid.UUID          `json:"id"`
	JobID        uuid.UUID          `json:"jobId"`
	Content      string             `json:"content"`
	ContentHash  string             `json:"contentHash"`
	Status       TranscriptStatus   `json:"status"`
	ErrorMessage string             `json:"errorMessage,omitempty"`
	Metadata     TranscriptMetadata `json:"metadata"`
	CreatedAt    time.Time          `json:"createdAt"`
	UpdatedAt    time.Time          `json:"updatedAt"`
}

// NewTranscript creates a pending Transcript for the given job.
// Returns an error if validation fails.
func NewTranscript(jobID uuid.UUID, content, contentHash string) (*Transcript, error) {
	now := time.Now().UTC()
	t := &Transcript{
		ID:          uuid.New(),
		JobID:       jobID,
		Content:     content,
		ContentHash: contentHash,
		Status:      TranscriptStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}

	return t, nil
}

// Validate checks if the Transcript has valid data.
func (t *Transcript) Validate() error {
	if t.ID == uuid.Nil {
		return ErrEmptyTranscriptID
	}

	if t.JobID == uuid.Nil {
		return ErrEmptyJobID
	}

	if t.Content == "" {
		return ErrEmptyTranscriptText
	}

	if t.ContentHash == "" {
		return ErrEmptyContentHash
	}

	if !t.Status.Valid() {
		return ErrInvalidTranscriptStatus
	}

	return nil
}

// IsTerminal reports whether the transcript has finished processing.
func (t *Transcript) IsTerminal() bool {
	return t.Status == TranscriptStatusCompleted || t.Status == TranscriptStatusFailed
}

// Valid reports whether s is a known transcript status.
func (s TranscriptStatus) Valid() bool {
	switch s {
	case TranscriptStatusPending, TranscriptStatusProcessing,
		TranscriptStatusCompleted, TranscriptStatusFailed:
		return true
	default:
		return false
	}
}
