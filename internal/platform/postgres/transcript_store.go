package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/minutes-api/internal/domain"
	"github.com/phrazzld/minutes-api/internal/platform/logger"
	"github.com/phrazzld/minutes-api/internal/store"
)

const transcriptColumns = `id, job_id, content, content_hash, status, error_message,
	task_count, cycles_detected, processing_time_ms, created_at, updated_at`

// TranscriptStore implements store.TranscriptStore on PostgreSQL.
type TranscriptStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.TranscriptStore = (*TranscriptStore)(nil)

// NewTranscriptStore creates a TranscriptStore over a connection or transaction.
func NewTranscriptStore(db store.DBTX, logger *slog.Logger) *TranscriptStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TranscriptStore{
		db:     db,
		logger: logger.With(slog.String("component", "transcript_store")),
	}
}

// Create implements store.TranscriptStore.
func (s *TranscriptStore) Create(ctx context.Context, t *domain.Transcript) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := t.Validate(); err != nil {
		log.Warn("transcript validation failed during create",
			slog.String("error", err.Error()),
			slog.String("transcript_id", t.ID.String()))
		return fmt.Errorf("%w: transcript: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO transcripts (id, job_id, content, content_hash, status, error_message,
			task_count, cycles_detected, processing_time_ms, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.db.ExecContext(ctx, query,
		t.ID,
		t.JobID,
		t.Content,
		t.ContentHash,
		t.Status,
		nullString(t.ErrorMessage),
		t.Metadata.TaskCount,
		t.Metadata.CyclesDetected,
		t.Metadata.ProcessingTimeMs,
		t.CreatedAt,
		t.UpdatedAt,
	)
	if err != nil {
		mapped := MapError(err)
		if errors.Is(mapped, store.ErrDuplicate) {
			log.Debug("transcript already exists",
				slog.String("content_hash", t.ContentHash))
		} else {
			log.Error("failed to create transcript",
				slog.String("error", err.Error()),
				slog.String("transcript_id", t.ID.String()))
		}
		return mapped
	}

	log.Info("transcript created",
		slog.String("transcript_id", t.ID.String()),
		slog.String("job_id", t.JobID.String()))
	return nil
}

// GetByID implements store.TranscriptStore.
func (s *TranscriptStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Transcript, error) {
	return s.getOne(ctx, "id", id)
}

// GetByJobID implements store.TranscriptStore.
func (s *TranscriptStore) GetByJobID(ctx context.Context, jobID uuid.UUID) (*domain.Transcript, error) {
	return s.getOne(ctx, "job_id", jobID)
}

// GetByHash implements store.TranscriptStore.
func (s *TranscriptStore) GetByHash(ctx context.Context, contentHash string) (*domain.Transcript, error) {
	return s.getOne(ctx, "content_hash", contentHash)
}

// getOne loads a transcript by a unique column. column is never user input.
func (s *TranscriptStore) getOne(ctx context.Context, column string, value any) (*domain.Transcript, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + transcriptColumns + ` FROM transcripts WHERE ` + column + ` = $1`

	t, err := scanTranscript(s.db.QueryRowContext(ctx, query, value))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("transcript not found", slog.String("by", column))
			return nil, store.ErrTranscriptNotFound
		}
		log.Error("failed to get transcript",
			slog.String("error", err.Error()),
			slog.String("by", column))
		return nil, MapError(err)
	}
	return t, nil
}

// UpdateStatus implements store.TranscriptStore.
func (s *TranscriptStore) UpdateStatus(
	ctx context.Context,
	id uuid.UUID,
	status domain.TranscriptStatus,
	errorMessage string,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if !status.Valid() {
		return fmt.Errorf("%w: %w: %q", store.ErrInvalidEntity, domain.ErrInvalidTranscriptStatus, status)
	}

	query := `
		UPDATE transcripts
		SET status = $1, error_message = $2, updated_at = $3
		WHERE id = $4
	`
	result, err := s.db.ExecContext(ctx, query, status, nullString(errorMessage), time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to update transcript status",
			slog.String("error", err.Error()),
			slog.String("transcript_id", id.String()))
		return store.NewStoreError("transcript", "update_status", "failed to update status", MapError(err))
	}
	if err := CheckRowsAffected(result, store.ErrTranscriptNotFound); err != nil {
		return err
	}

	log.Debug("transcript status updated",
		slog.String("transcript_id", id.String()),
		slog.String("status", string(status)))
	return nil
}

// Complete implements store.TranscriptStore.
func (s *TranscriptStore) Complete(ctx context.Context, id uuid.UUID, metadata domain.TranscriptMetadata) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE transcripts
		SET status = $1, error_message = NULL, task_count = $2, cycles_detected = $3,
			processing_time_ms = $4, updated_at = $5
		WHERE id = $6
	`
	result, err := s.db.ExecContext(ctx, query,
		domain.TranscriptStatusCompleted,
		metadata.TaskCount,
		metadata.CyclesDetected,
		metadata.ProcessingTimeMs,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		log.Error("failed to complete transcript",
			slog.String("error", err.Error()),
			slog.String("transcript_id", id.String()))
		return store.NewStoreError("transcript", "complete", "failed to store metadata", MapError(err))
	}
	return CheckRowsAffected(result, store.ErrTranscriptNotFound)
}

func scanTranscript(row *sql.Row) (*domain.Transcript, error) {
	var (
		t        domain.Transcript
		status   string
		errorMsg sql.NullString
	)
	err := row.Scan(
		&t.ID,
		&t.JobID,
		&t.Content,
		&t.ContentHash,
		&status,
		&errorMsg,
		&t.Metadata.TaskCount,
		&t.Metadata.CyclesDetected,
		&t.Metadata.ProcessingTimeMs,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Status = domain.TranscriptStatus(status)
	t.ErrorMessage = errorMsg.String
	return &t, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
