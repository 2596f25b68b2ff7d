package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/minutes-api/internal/domain"
	"github.com/phrazzld/minutes-api/internal/store"
)

// TranscriptStore implements store.TranscriptStore on a Store.
type TranscriptStore struct {
	s    *Store
	inTx bool
}

var _ store.TranscriptStore = (*TranscriptStore)(nil)

// Create implements store.TranscriptStore.
func (ts *TranscriptStore) Create(ctx context.Context, t *domain.Transcript) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	defer ts.s.lockWriter(ts.inTx)()
	s := ts.s
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byHash[t.ContentHash]; ok {
		return store.ErrContentHashExists
	}
	if _, ok := s.byJob[t.JobID]; ok {
		return fmt.Errorf("%w: job id", store.ErrDuplicate)
	}
	if _, ok := s.transcripts[t.ID]; ok {
		return fmt.Errorf("%w: transcript id", store.ErrDuplicate)
	}

	s.transcripts[t.ID] = *t
	s.byHash[t.ContentHash] = t.ID
	s.byJob[t.JobID] = t.ID
	return nil
}

// GetByID implements store.TranscriptStore.
func (ts *TranscriptStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transcript, error) {
	s := ts.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.transcripts[id]
	if !ok {
		return nil, store.ErrTranscriptNotFound
	}
	return &t, nil
}

// GetByJobID implements store.TranscriptStore.
func (ts *TranscriptStore) GetByJobID(ctx context.Context, jobID uuid.UUID) (*domain.Transcript, error) {
	s := ts.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byJob[jobID]
	if !ok {
		return nil, store.ErrTranscriptNotFound
	}
	t := s.transcripts[id]
	return &t, nil
}

// GetByHash implements store.TranscriptStore.
func (ts *TranscriptStore) GetByHash(ctx context.Context, contentHash string) (*domain.Transcript, error) {
	s := ts.s
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byHash[contentHash]
	if !ok {
		return nil, store.ErrTranscriptNotFound
	}
	t := s.transcripts[id]
	return &t, nil
}

// UpdateStatus implements store.TranscriptStore.
func (ts *TranscriptStore) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.TranscriptStatus,
	errorMessage string,
) error {
	if !status.Valid() {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, domain.ErrInvalidTranscriptStatus)
	}
	return ts.update(id, func(t *domain.Transcript) {
		t.Status = status
		t.ErrorMessage = errorMessage
	})
}

// Complete implements store.TranscriptStore.
func (ts *TranscriptStore) Complete(ctx context.Context, id uuid.UUID, metadata domain.TranscriptMetadata) error {
	return ts.update(id, func(t *domain.Transcript) {
		t.Status = domain.TranscriptStatusCompleted
		t.ErrorMessage = ""
		t.Metadata = metadata
	})
}

func (ts *TranscriptStore) update(id uuid.UUID, mutate func(*domain.Transcript)) error {
	defer ts.s.lockWriter(ts.inTx)()
	s := ts.s
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.transcripts[id]
	if !ok {
		return store.ErrTranscriptNotFound
	}
	mutate(&t)
	t.UpdatedAt = time.Now().UTC()
	s.transcripts[id] = t
	return nil
}
