package service

import (
	"errors"
	"fmt"

	"github.com/phrazzld/minutes-api/internal/store"
)

// Common service errors. API layer maps not-found errors to 404 and
// ErrTaskTerminal to 409.
var (
	// ErrJobNotFound indicates that no transcript was submitted under the job id.
	ErrJobNotFound = errors.New("job not found")

	// ErrTaskNotFound indicates that the task does not exist.
	ErrTaskNotFound = errors.New("task not found")

	// ErrTaskTerminal indicates that the task is in the error state and can
	// never be completed.
	ErrTaskTerminal = errors.New("task is in a terminal error state")

	// ErrSchedulerUnavailable indicates that the job could not be queued,
	// usually because the server is shutting down.
	ErrSchedulerUnavailable = errors.New("job scheduler unavailable")
)

// ServiceError wraps unexpected errors from the service with context.
type ServiceError struct {
	// Operation is the operation that failed (e.g., "submit", "complete_task")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for ServiceError.
func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transcript service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("transcript service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError creates a new ServiceError. Service sentinels are returned
// unwrapped, and store not-found errors are translated to their service
// equivalents.
func NewServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, ErrJobNotFound), errors.Is(err, store.ErrTranscriptNotFound):
		return ErrJobNotFound
	case errors.Is(err, ErrTaskNotFound), errors.Is(err, store.ErrTaskNotFound):
		return ErrTaskNotFound
	case errors.Is(err, ErrTaskTerminal):
		return ErrTaskTerminal
	}

	return &ServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}
