package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/minutes-api/internal/domain"
)

// TranscriptStore defines the interface for transcript persistence.
type TranscriptStore interface {
	// Create saves a new transcript.
	// Returns ErrContentHashExists (matching ErrDuplicate) if a transcript
	// with the same content hash or job id already exists.
	Create(ctx context.Context, t *domain.Transcript) error

	// GetByID retrieves a transcript by its ID.
	// Returns ErrTranscriptNotFound if it does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Transcript, error)

	// GetByJobID retrieves the transcript processed by the given job.
	// Returns ErrTranscriptNotFound if it does not exist.
	GetByJobID(ctx context.Context, jobID uuid.UUID) (*domain.Transcript, error)

	// GetByHash retrieves the transcript with the given content hash.
	// Returns ErrTranscriptNotFound if it does not exist.
	GetByHash(ctx context.Context, contentHash string) (*domain.Transcript, error)

	// UpdateStatus sets the status and error message of a transcript.
	// An empty errorMessage clears any previous message.
	// Returns ErrTranscriptNotFound if it does not exist.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.TranscriptStatus, errorMessage string) error

	// Complete stores processing metadata and marks the transcript completed.
	// Returns ErrTranscriptNotFound if it does not exist.
	Complete(ctx context.Context, id uuid.UUID, metadata domain.TranscriptMetadata) error
}
