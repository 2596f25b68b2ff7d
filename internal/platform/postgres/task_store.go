package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/minutes-api/internal/domain"
	"github.com/phrazzld/minutes-api/internal/platform/logger"
	"github.com/phrazzld/minutes-api/internal/store"
)

const taskColumns = `id, ref, transcript_id, description, priority, dependencies,
	status, error_message, created_at, updated_at`

// taskInsertColumns is the number of bind parameters per inserted task.
const taskInsertColumns = 11

// TaskStore implements store.TaskStore on PostgreSQL. Dependencies are kept
// in a JSONB array so a batch round-trips in one row per task.
type TaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.TaskStore = (*TaskStore)(nil)

// NewTaskStore creates a TaskStore over a connection or transaction.
func NewTaskStore(db store.DBTX, logger *slog.Logger) *TaskStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

// CreateBatch implements store.TaskStore. The batch is written with a single
// multi-row INSERT, so it lands atomically even outside a transaction.
func (s *TaskStore) CreateBatch(ctx context.Context, tasks []*domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(tasks) == 0 {
		return nil
	}
	for _, t := range tasks {
		if err := t.Validate(); err != nil {
			log.Warn("task validation failed during batch create",
				slog.String("error", err.Error()),
				slog.String("task_id", t.ID))
			return fmt.Errorf("%w: task %q: %w", store.ErrInvalidEntity, t.ID, err)
		}
	}

	var b strings.Builder
	b.WriteString(`INSERT INTO tasks (id, ref, transcript_id, position, description, priority,
		dependencies, status, error_message, created_at, updated_at) VALUES `)

	args := make([]any, 0, len(tasks)*taskInsertColumns)
	for i, t := range tasks {
		deps, err := json.Marshal(nonNil(t.Dependencies))
		if err != nil {
			return fmt.Errorf("failed to encode dependencies of task %s: %w", t.ID, err)
		}

		if i > 0 {
			b.WriteString(", ")
		}
		n := len(args)
		fmt.Fprintf(&b, "($%d, $%d, $%d, $%d, $%d, $%d, $%d::jsonb, $%d, $%d, $%d, $%d)",
			n+1, n+2, n+3, n+4, n+5, n+6, n+7, n+8, n+9, n+10, n+11)
		args = append(args,
			t.ID,
			t.Ref,
			t.TranscriptID,
			i,
			t.Description,
			t.Priority,
			string(deps),
			t.Status,
			nullString(t.ErrorMessage),
			t.CreatedAt,
			t.UpdatedAt,
		)
	}

	if _, err := s.db.ExecContext(ctx, b.String(), args...); err != nil {
		log.Error("failed to create task batch",
			slog.String("error", err.Error()),
			slog.Int("task_count", len(tasks)))
		return store.NewStoreError("task", "create_batch", "failed to insert tasks", MapError(err))
	}

	log.Debug("task batch created", slog.Int("task_count", len(tasks)))
	return nil
}

// GetByID implements store.TaskStore.
func (s *TaskStore) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	t, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.String("task_id", id))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task",
			slog.String("error", err.Error()),
			slog.String("task_id", id))
		return nil, MapError(err)
	}
	return t, nil
}

// FindByTranscript implements store.TaskStore.
func (s *TaskStore) FindByTranscript(ctx context.Context, transcriptID uuid.UUID) ([]*domain.Task, error) {
	return s.findByTranscript(ctx, transcriptID, false)
}

// LockByTranscript implements store.TaskStore with SELECT ... FOR UPDATE.
func (s *TaskStore) LockByTranscript(ctx context.Context, transcriptID uuid.UUID) ([]*domain.Task, error) {
	return s.findByTranscript(ctx, transcriptID, true)
}

func (s *TaskStore) findByTranscript(ctx context.Context, transcriptID uuid.UUID, lock bool) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + taskColumns + ` FROM tasks WHERE transcript_id = $1 ORDER BY position`
	if lock {
		query += ` FOR UPDATE`
	}

	rows, err := s.db.QueryContext(ctx, query, transcriptID)
	if err != nil {
		log.Error("failed to query tasks",
			slog.String("error", err.Error()),
			slog.String("transcript_id", transcriptID.String()))
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]*domain.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row",
				slog.String("error", err.Error()),
				slog.String("transcript_id", transcriptID.String()))
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}
	return tasks, nil
}

// UpdateStatus implements store.TaskStore.
func (s *TaskStore) UpdateStatus(ctx context.Context, id string, status domain.TaskStatus, errorMessage string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !status.Valid() {
		return fmt.Errorf("%w: %w: %q", store.ErrInvalidEntity, domain.ErrInvalidTaskStatus, status)
	}

	query := `
		UPDATE tasks
		SET status = $1, error_message = $2, updated_at = $3
		WHERE id = $4
	`
	result, err := s.db.ExecContext(ctx, query, status, nullString(errorMessage), time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to update task status",
			slog.String("error", err.Error()),
			slog.String("task_id", id))
		return store.NewStoreError("task", "update_status", "failed to update status", MapError(err))
	}
	if err := CheckRowsAffected(result, store.ErrTaskNotFound); err != nil {
		return err
	}

	log.Debug("task status updated",
		slog.String("task_id", id),
		slog.String("status", string(status)))
	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var (
		t        domain.Task
		priority string
		status   string
		deps     []byte
		errorMsg sql.NullString
	)
	err := row.Scan(
		&t.ID,
		&t.Ref,
		&t.TranscriptID,
		&t.Description,
		&priority,
		&deps,
		&status,
		&errorMsg,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(deps, &t.Dependencies); err != nil {
		return nil, fmt.Errorf("failed to decode dependencies of task %s: %w", t.ID, err)
	}
	t.Dependencies = nonNil(t.Dependencies)
	t.Priority = domain.Priority(priority)
	t.Status = domain.TaskStatus(status)
	t.ErrorMessage = errorMsg.String
	return &t, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
