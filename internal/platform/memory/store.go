package memory

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/minutes-api/internal/domain"
	"github.com/phrazzld/minutes-api/internal/store"
)

// Store is an in-memory store.Store.
type Store struct {
	// txMu serialises writers; InTx holds it for the whole transaction.
	txMu sync.Mutex

	mu          sync.RWMutex
	transcripts map[uuid.UUID]domain.Transcript
	byHash      map[string]uuid.UUID
	byJob       map[uuid.UUID]uuid.UUID
	tasks       map[string]*domain.Task
	taskOrder   map[uuid.UUID][]string
}

var _ store.Store = (*Store)(nil)

// New returns an empty Store.
func New() *Store {
	return &Store{
		transcripts: make(map[uuid.UUID]domain.Transcript),
		byHash:      make(map[string]uuid.UUID),
		byJob:       make(map[uuid.UUID]uuid.UUID),
		tasks:       make(map[string]*domain.Task),
		taskOrder:   make(map[uuid.UUID][]string),
	}
}

// Transcripts implements store.Store.
func (s *Store) Transcripts() store.TranscriptStore {
	return &TranscriptStore{s: s}
}

// Tasks implements store.Store.
func (s *Store) Tasks() store.TaskStore {
	return &TaskStore{s: s}
}

// InTx implements store.Store. Nested calls on the transactional view run in
// the enclosing transaction.
func (s *Store) InTx(ctx context.Context, fn func(tx store.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return s.runTx(ctx, fn)
}

func (s *Store) runTx(ctx context.Context, fn func(tx store.Store) error) (err error) {
	snap := s.snapshot()
	defer func() {
		if p := recover(); p != nil {
			s.restore(snap)
			panic(p)
		}
		if err != nil {
			s.restore(snap)
		}
	}()

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrTransactionFailed, err)
	}
	return fn(&txStore{s: s})
}

// lockWriter acquires the writer lock unless the caller already runs inside
// InTx.
func (s *Store) lockWriter(inTx bool) func() {
	if inTx {
		return func() {}
	}
	s.txMu.Lock()
	return s.txMu.Unlock
}

type snapshot struct {
	transcripts map[uuid.UUID]domain.Transcript
	byHash      map[string]uuid.UUID
	byJob       map[uuid.UUID]uuid.UUID
	tasks       map[string]*domain.Task
	taskOrder   map[uuid.UUID][]string
}

func (s *Store) snapshot() snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make(map[string]*domain.Task, len(s.tasks))
	for id, t := range s.tasks {
		tasks[id] = t.Clone()
	}
	order := make(map[uuid.UUID][]string, len(s.taskOrder))
	for id, ids := range s.taskOrder {
		order[id] = append([]string(nil), ids...)
	}
	return snapshot{
		transcripts: maps.Clone(s.transcripts),
		byHash:      maps.Clone(s.byHash),
		byJob:       maps.Clone(s.byJob),
		tasks:       tasks,
		taskOrder:   order,
	}
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcripts = snap.transcripts
	s.byHash = snap.byHash
	s.byJob = snap.byJob
	s.tasks = snap.tasks
	s.taskOrder = snap.taskOrder
}

// txStore is the view handed to InTx callbacks.
type txStore struct {
	s *Store
}

func (t *txStore) Transcripts() store.TranscriptStore {
	return &TranscriptStore{s: t.s, inTx: true}
}

func (t *txStore) Tasks() store.TaskStore {
	return &TaskStore{s: t.s, inTx: true}
}

func (t *txStore) InTx(ctx context.Context, fn func(tx store.Store) error) error {
	return fn(t)
}
