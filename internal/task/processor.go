package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/minutes-api/internal/domain"
	"github.com/phrazzld/minutes-api/internal/extraction"
	"github.com/phrazzld/minutes-api/internal/platform/logger"
	"github.com/phrazzld/minutes-api/internal/store"
	"github.com/phrazzld/minutes-api/internal/taskgraph"
)

// Processor performs the work of a single job.
type Processor interface {
	Process(ctx context.Context, job Job) error
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc func(ctx context.Context, job Job) error

// Process implements Processor.
func (f ProcessorFunc) Process(ctx context.Context, job Job) error {
	return f(ctx, job)
}

// Discarder is implemented by processors that need to record jobs the
// scheduler dropped without running them.
type Discarder interface {
	Discard(ctx context.Context, job Job, cause error) error
}

// Processor errors
var (
	ErrNilStore     = errors.New("store cannot be nil")
	ErrNilExtractor = errors.New("extractor cannot be nil")
)

// ExtractionProcessor turns a pending transcript into a persisted task batch.
// Any failure leaves the transcript failed with the error recorded and no
// tasks stored.
type ExtractionProcessor struct {
	store     store.Store
	extractor extraction.Extractor
	sanitizer *taskgraph.Sanitizer
	newID     func() string
	logger    *slog.Logger
}

var (
	_ Processor = (*ExtractionProcessor)(nil)
	_ Discarder = (*ExtractionProcessor)(nil)
)

// NewExtractionProcessor creates an ExtractionProcessor.
func NewExtractionProcessor(
	s store.Store,
	extractor extraction.Extractor,
	logger *slog.Logger,
) (*ExtractionProcessor, error) {
	if s == nil {
		return nil, ErrNilStore
	}
	if extractor == nil {
		return nil, ErrNilExtractor
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &ExtractionProcessor{
		store:     s,
		extractor: extractor,
		sanitizer: &taskgraph.Sanitizer{},
		logger:    logger.With(slog.String("component", "extraction_processor")),
	}, nil
}

// Process implements Processor.
func (p *ExtractionProcessor) Process(ctx context.Context, job Job) (err error) {
	log := logger.FromContextOrDefault(ctx, p.logger)
	started := time.Now()

	transcript, err := p.store.Transcripts().GetByID(ctx, job.TranscriptID)
	if err != nil {
		return fmt.Errorf("failed to load transcript %s: %w", job.TranscriptID, err)
	}

	if transcript.IsTerminal() {
		log.Warn("transcript already processed, skipping",
			slog.String("status", string(transcript.Status)))
		return nil
	}

	// From here on every failure, including the status update below, must
	// leave the transcript failed rather than pending.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic during extraction: %v", r)
		}
		if err != nil {
			p.markFailed(ctx, log, transcript, err)
		}
	}()

	if err := p.store.Transcripts().UpdateStatus(ctx, transcript.ID, domain.TranscriptStatusProcessing, ""); err != nil {
		return fmt.Errorf("failed to mark transcript processing: %w", err)
	}

	candidates, err := p.extractor.ExtractTasks(ctx, transcript.Content)
	if err != nil {
		if !errors.Is(err, extraction.ErrExtractionFailed) {
			err = fmt.Errorf("%w: %w", extraction.ErrExtractionFailed, err)
		}
		return err
	}

	result := taskgraph.BuildWith(p.sanitizer, transcript.ID, candidates)
	tasks := taskgraph.Rekey(result.Tasks, p.newID)

	if n := result.Sanitize.DroppedCount(); n > 0 {
		log.Warn("dropped invalid dependency references",
			slog.Int("dropped", n),
			slog.Any("references", result.Sanitize.DroppedDependencies))
	}
	if len(result.Sanitize.DuplicateIDs) > 0 {
		log.Warn("reassigned duplicate task ids",
			slog.Any("ids", result.Sanitize.DuplicateIDs))
	}
	if result.Cycles.HasCycles {
		log.Warn("dependency cycles detected",
			slog.Int("cycles", result.Cycles.Count),
			slog.Any("members", result.Cycles.Members))
	}

	metadata := domain.TranscriptMetadata{
		TaskCount:        len(tasks),
		CyclesDetected:   result.Cycles.Count,
		ProcessingTimeMs: time.Since(started).Milliseconds(),
	}

	err = p.store.InTx(ctx, func(tx store.Store) error {
		if err := tx.Tasks().CreateBatch(ctx, tasks); err != nil {
			return fmt.Errorf("failed to save tasks: %w", err)
		}
		if err := tx.Transcripts().Complete(ctx, transcript.ID, metadata); err != nil {
			return fmt.Errorf("failed to complete transcript: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info("transcript processed",
		slog.Int("task_count", metadata.TaskCount),
		slog.Int("cycles_detected", metadata.CyclesDetected),
		slog.Int64("processing_time_ms", metadata.ProcessingTimeMs))
	return nil
}

// Discard implements Discarder. It fails the transcript of a job that was
// dropped before it ran, so the job id never reports pending forever.
func (p *ExtractionProcessor) Discard(ctx context.Context, job Job, cause error) error {
	log := logger.FromContextOrDefault(ctx, p.logger).With(
		slog.String("job_id", job.ID.String()),
		slog.String("transcript_id", job.TranscriptID.String()))

	transcript, err := p.store.Transcripts().GetByID(ctx, job.TranscriptID)
	if err != nil {
		return fmt.Errorf("failed to load transcript %s: %w", job.TranscriptID, err)
	}
	if transcript.IsTerminal() {
		return nil
	}

	if err := p.store.Transcripts().UpdateStatus(ctx, transcript.ID, domain.TranscriptStatusFailed, cause.Error()); err != nil {
		return fmt.Errorf("failed to mark transcript failed: %w", err)
	}
	log.Warn("discarded queued job", slog.String("cause", cause.Error()))
	return nil
}

// markFailed records err on the transcript. It runs even when ctx is already
// cancelled so a shutdown never leaves the transcript stuck in processing.
func (p *ExtractionProcessor) markFailed(ctx context.Context, log *slog.Logger, transcript *domain.Transcript, cause error) {
	ctx = context.WithoutCancel(ctx)
	if err := p.store.Transcripts().UpdateStatus(ctx, transcript.ID, domain.TranscriptStatusFailed, cause.Error()); err != nil {
		log.Error("failed to mark transcript failed",
			slog.String("error", err.Error()),
			slog.String("cause", cause.Error()))
	}
}
