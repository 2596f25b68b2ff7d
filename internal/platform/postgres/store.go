package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/phrazzld/minutes-api/internal/store"
)

// Store implements store.Store on a PostgreSQL connection pool.
type Store struct {
	db     *sql.DB
	q      store.DBTX
	logger *slog.Logger
}

var _ store.Store = (*Store)(nil)

// NewStore creates a Store backed by db.
func NewStore(db *sql.DB, logger *slog.Logger) *Store {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, q: db, logger: logger}
}

// Transcripts implements store.Store.
func (s *Store) Transcripts() store.TranscriptStore {
	return NewTranscriptStore(s.q, s.logger)
}

// Tasks implements store.Store.
func (s *Store) Tasks() store.TaskStore {
	return NewTaskStore(s.q, s.logger)
}

// InTx implements store.Store. Calling InTx on the Store passed to fn joins
// the enclosing transaction.
func (s *Store) InTx(ctx context.Context, fn func(tx store.Store) error) error {
	if s.db == nil {
		return fn(s)
	}
	if fn == nil {
		return errors.New("transaction function cannot be nil")
	}
	return store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return fn(&Store{q: tx, logger: s.logger})
	})
}
