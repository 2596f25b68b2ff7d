package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents where a task stands in its dependency graph.
type TaskStatus string

// Possible task status values. Ready and blocked are the only non-terminal
// statuses; completed and error never transition again.
const (
	TaskStatusReady     TaskStatus = "ready"
	TaskStatusBlocked   TaskStatus = "blocked"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusError     TaskStatus = "error"
)

// Priority is the urgency assigned to a task by the extractor.
type Priority string

// Possible priority values
const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Task is a unit of work extracted from a transcript. Dependencies lists the
// IDs of sibling tasks (same transcript) that must complete first.
type Task struct {
	ID           string     `json:"id"`
	Ref          string     `json:"ref,omitempty"`
	TranscriptID uuid.UUID  `json:"transcriptId"`
	Description  string     `json:"description"`
	Priority     Priority   `json:"priority"`
	Dependencies []string   `json:"dependencies"`
	Status       TaskStatus `json:"status"`
	ErrorMessage string     `json:"errorMessage,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    time.Time  `json:"updatedAt"`
}

// Clone returns a deep copy of the task.
func (t *Task) Clone() *Task {
	c := *t
	if t.Dependencies != nil {
		c.Dependencies = make([]string, len(t.Dependencies))
		copy(c.Dependencies, t.Dependencies)
	}
	return &c
}

// IsTerminal reports whether the task can no longer change status.
func (t *Task) IsTerminal() bool {
	return t.Status.IsTerminal()
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return NewValidationError("id", "cannot be empty", ErrInvalidID)
	}
	if t.TranscriptID == uuid.Nil {
		return NewValidationError("transcriptId", "cannot be empty", ErrInvalidID)
	}
	if !t.Priority.Valid() {
		return ErrInvalidPriority
	}
	if !t.Status.Valid() {
		return ErrInvalidTaskStatus
	}
	return nil
}

// Valid reports whether s is a known task status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusReady, TaskStatusBlocked, TaskStatusCompleted, TaskStatusError:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether s is completed or error.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusError
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityHigh, PriorityMedium, PriorityLow:
		return true
	default:
		return false
	}
}

// ParsePriority converts free text into a Priority, case-insensitively.
// The second return value is false if the text is not a known priority.
func ParsePriority(s string) (Priority, bool) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	return p, p.Valid()
}
