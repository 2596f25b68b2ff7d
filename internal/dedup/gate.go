package dedup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/minutes-api/internal/domain"
	"github.com/phrazzld/minutes-api/internal/store"
)

// DuplicateCheck is the result of Gate.CheckDuplicate.
type DuplicateCheck struct {
	IsDuplicate bool
	JobID       uuid.UUID
}

// Gate decides whether submitted content has been seen before and records
// first-time submissions.
type Gate struct {
	transcripts store.TranscriptStore
	hasher      *Hasher
	logger      *slog.Logger
}

// NewGate creates a Gate backed by transcripts.
func NewGate(transcripts store.TranscriptStore, hasher *Hasher, logger *slog.Logger) (*Gate, error) {
	if transcripts == nil {
		return nil, fmt.Errorf("transcript store cannot be nil")
	}
	if hasher == nil {
		return nil, fmt.Errorf("hasher cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{
		transcripts: transcripts,
		hasher:      hasher,
		logger:      logger.With(slog.String("component", "dedup_gate")),
	}, nil
}

// CheckDuplicate reports whether content (after normalisation) already has a
// transcript, and if so which job owns it.
func (g *Gate) CheckDuplicate(ctx context.Context, content string) (DuplicateCheck, error) {
	existing, err := g.transcripts.GetByHash(ctx, g.hasher.Hash(content))
	if errors.Is(err, store.ErrNotFound) {
		return DuplicateCheck{}, nil
	}
	if err != nil {
		return DuplicateCheck{}, fmt.Errorf("failed to look up content hash: %w", err)
	}
	return DuplicateCheck{IsDuplicate: true, JobID: existing.JobID}, nil
}

// CreateRecord stores a pending transcript for content under jobID. If
// another submission stored the same content first, the existing transcript
// is returned with created=false; concurrent first-time submissions therefore
// converge on a single job.
func (g *Gate) CreateRecord(
	ctx context.Context,
	jobID uuid.UUID,
	content string,
) (transcript *domain.Transcript, created bool, err error) {
	contentHash := g.hasher.Hash(content)

	t, err := domain.NewTranscript(jobID, content, contentHash)
	if err != nil {
		return nil, false, fmt.Errorf("failed to build transcript: %w", err)
	}

	err = g.transcripts.Create(ctx, t)
	if err == nil {
		return t, true, nil
	}
	if !errors.Is(err, store.ErrDuplicate) {
		return nil, false, fmt.Errorf("failed to store transcript: %w", err)
	}

	existing, lookupErr := g.transcripts.GetByHash(ctx, contentHash)
	if lookupErr != nil {
		return nil, false, fmt.Errorf("failed to load existing transcript after duplicate insert: %w", lookupErr)
	}

	g.logger.InfoContext(ctx, "concurrent duplicate submission resolved to existing job",
		slog.String("job_id", existing.JobID.String()),
		slog.String("discarded_job_id", jobID.String()))

	return existing, false, nil
}
