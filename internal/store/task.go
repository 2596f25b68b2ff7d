package store

import (
	"context"

	"github.com/google/uuid"
	"github.com/phrazzld/minutes-api/internal/domain"
)

// TaskStore defines the interface for task persistence.
type TaskStore interface {
	// CreateBatch saves all tasks extracted from one transcript.
	// Returns ErrInvalidEntity if any task fails validation, in which case
	// nothing is stored.
	CreateBatch(ctx context.Context, tasks []*domain.Task) error

	// GetByID retrieves a task by its ID.
	// Returns ErrTaskNotFound if it does not exist.
	GetByID(ctx context.Context, id string) (*domain.Task, error)

	// FindByTranscript returns every task of a transcript in creation order.
	// Returns an empty slice if there are none.
	FindByTranscript(ctx context.Context, transcriptID uuid.UUID) ([]*domain.Task, error)

	// LockByTranscript is FindByTranscript that also locks the rows until the
	// enclosing transaction ends. Outside a transaction it behaves like
	// FindByTranscript.
	LockByTranscript(ctx context.Context, transcriptID uuid.UUID) ([]*domain.Task, error)

	// UpdateStatus sets the status and error message of a task.
	// Returns ErrTaskNotFound if it does not exist.
	UpdateStatus(ctx context.Context, id string, status domain.TaskStatus, errorMessage string) error
}
