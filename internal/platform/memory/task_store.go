package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/minutes-api/internal/domain"
	"github.com/phrazzld/minutes-api/internal/store"
)

// TaskStore implements store.TaskStore on a Store.
type TaskStore struct {
	s    *Store
	inTx bool
}

var _ store.TaskStore = (*TaskStore)(nil)

// CreateBatch implements store.TaskStore.
func (ts *TaskStore) CreateBatch(ctx context.Context, tasks []*domain.Task) error {
	for _, t := range tasks {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("%w: task %q: %w", store.ErrInvalidEntity, t.ID, err)
		}
	}

	defer ts.s.lockWriter(ts.inTx)()
	s := ts.s
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{}, len(tasks))
	for _, t := range tasks {
		if _, ok := s.tasks[t.ID]; ok {
			return fmt.Errorf("%w: task id %s", store.ErrDuplicate, t.ID)
		}
		if _, ok := seen[t.ID]; ok {
			return fmt.Errorf("%w: task id %s", store.ErrDuplicate, t.ID)
		}
		seen[t.ID] = struct{}{}
	}

	for _, t := range tasks {
		s.tasks[t.ID] = t.Clone()
		s.taskOrder[t.TranscriptID] = append(s.taskOrder[t.TranscriptID], t.ID)
	}
	return nil
}

// GetByID implements store.TaskStore.
func (ts *TaskStore) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	s := ts.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return t.Clone(), nil
}

// FindByTranscript implements store.TaskStore.
func (ts *TaskStore) FindByTranscript(ctx context.Context, transcriptID uuid.UUID) ([]*domain.Task, error) {
	s := ts.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := s.taskOrder[transcriptID]
	out := make([]*domain.Task, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.tasks[id].Clone())
	}
	return out, nil
}

// LockByTranscript implements store.TaskStore. Transactions already hold the
// store's writer lock, so this is a plain read.
func (ts *TaskStore) LockByTranscript(ctx context.Context, transcriptID uuid.UUID) ([]*domain.Task, error) {
	return ts.FindByTranscript(ctx, transcriptID)
}

// UpdateStatus implements store.TaskStore.
func (ts *TaskStore) UpdateStatus(ctx context.Context, id string, status domain.TaskStatus, errorMessage string) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, domain.ErrInvalidTaskStatus)
	}

	defer ts.s.lockWriter(ts.inTx)()
	s := ts.s
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return store.ErrTaskNotFound
	}
	t.Status = status
	t.ErrorMessage = errorMessage
	t.UpdatedAt = time.Now().UTC()
	return nil
}
