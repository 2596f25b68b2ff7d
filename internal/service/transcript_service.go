package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/phrazzld/minutes-api/internal/config"
	"github.com/phrazzld/minutes-api/internal/dedup"
	"github.com/phrazzld/minutes-api/internal/domain"
	"github.com/phrazzld/minutes-api/internal/platform/logger"
	"github.com/phrazzld/minutes-api/internal/store"
	"github.com/phrazzld/minutes-api/internal/task"
	"github.com/phrazzld/minutes-api/internal/taskgraph"
)

// JobScheduler is the part of task.Scheduler the service depends on.
type JobScheduler interface {
	Enqueue(ctx context.Context, jobID, transcriptID uuid.UUID) (task.Job, error)
	Status(jobID uuid.UUID) (task.Job, bool)
	Stats() task.Stats
}

// SubmitResult is the outcome of a transcript submission.
type SubmitResult struct {
	JobID       uuid.UUID `json:"jobId"`
	IsDuplicate bool      `json:"isDuplicate"`
}

// JobSnapshot is the pollable view of one job.
type JobSnapshot struct {
	JobID        uuid.UUID                 `json:"jobId"`
	TranscriptID uuid.UUID                 `json:"transcriptId"`
	Status       domain.TranscriptStatus   `json:"status"`
	ErrorMessage string                    `json:"errorMessage,omitempty"`
	Metadata     domain.TranscriptMetadata `json:"metadata"`
	Tasks        []*domain.Task            `json:"tasks"`

	// ExecutionOrder lists the ids of non-error tasks so that every task
	// comes after all of its dependencies.
	ExecutionOrder []string `json:"executionOrder"`

	// EnqueuedAt is set while the scheduler still knows the job. It is zero
	// after a restart.
	EnqueuedAt time.Time `json:"enqueuedAt"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// CompletionResult is the outcome of completing a task.
type CompletionResult struct {
	CompletedTask *domain.Task   `json:"completedTask"`
	AllTasks      []*domain.Task `json:"allTasks"`

	// Unblocked lists tasks that became ready because of this completion.
	Unblocked []string `json:"unblocked"`
}

// TranscriptService provides the submit, poll and complete use cases.
type TranscriptService interface {
	// Submit validates content and either returns the job already processing
	// the same content or creates a transcript and queues a new job.
	Submit(ctx context.Context, content string) (SubmitResult, error)

	// GetJob returns the current state of a job.
	GetJob(ctx context.Context, jobID uuid.UUID) (*JobSnapshot, error)

	// CompleteTask marks a task completed and recomputes readiness of its
	// siblings. Completing an already completed task is a no-op.
	CompleteTask(ctx context.Context, taskID string) (*CompletionResult, error)

	// QueueStats reports the scheduler's job counts.
	QueueStats() task.Stats
}

// transcriptServiceImpl implements the TranscriptService interface
type transcriptServiceImpl struct {
	store     store.Store
	gate      *dedup.Gate
	scheduler JobScheduler
	minLength int
	logger    *slog.Logger
}

var _ TranscriptService = (*transcriptServiceImpl)(nil)

// NewTranscriptService creates a new TranscriptService.
// It returns an error if any of the required dependencies are nil.
func NewTranscriptService(
	s store.Store,
	gate *dedup.Gate,
	scheduler JobScheduler,
	cfg config.SubmissionConfig,
	logger *slog.Logger,
) (TranscriptService, error) {
	if s == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "store cannot be nil"}
	}
	if gate == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "gate cannot be nil"}
	}
	if scheduler == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "scheduler cannot be nil"}
	}
	if cfg.MinLength <= 0 {
		return nil, &ServiceError{Operation: "create_service", Message: "minimum length must be positive"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &transcriptServiceImpl{
		store:     s,
		gate:      gate,
		scheduler: scheduler,
		minLength: cfg.MinLength,
		logger:    logger.With(slog.String("component", "transcript_service")),
	}, nil
}

// Submit implements TranscriptService.
func (s *transcriptServiceImpl) Submit(ctx context.Context, content string) (SubmitResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	content = strings.TrimSpace(content)
	if content == "" {
		return SubmitResult{}, domain.NewValidationError("transcript", "is required", domain.ErrEmptyContent)
	}
	if n := utf8.RuneCountInString(content); n < s.minLength {
		return SubmitResult{}, domain.NewValidationError("transcript",
			fmt.Sprintf("must be at least %d characters (got %d)", s.minLength, n),
			domain.ErrContentTooShort)
	}

	check, err := s.gate.CheckDuplicate(ctx, content)
	if err != nil {
		return SubmitResult{}, NewServiceError("submit", "failed to check for duplicate", err)
	}
	if check.IsDuplicate {
		log.Info("duplicate submission", slog.String("job_id", check.JobID.String()))
		return SubmitResult{JobID: check.JobID, IsDuplicate: true}, nil
	}

	transcript, created, err := s.gate.CreateRecord(ctx, uuid.New(), content)
	if err != nil {
		return SubmitResult{}, NewServiceError("submit", "failed to store transcript", err)
	}
	if !created {
		return SubmitResult{JobID: transcript.JobID, IsDuplicate: true}, nil
	}

	if _, err := s.scheduler.Enqueue(ctx, transcript.JobID, transcript.ID); err != nil {
		log.Error("failed to enqueue job",
			slog.String("error", err.Error()),
			slog.String("job_id", transcript.JobID.String()))

		// A pending transcript with no job would be returned to every later
		// duplicate submission without ever being processed.
		failErr := s.store.Transcripts().UpdateStatus(context.WithoutCancel(ctx), transcript.ID,
			domain.TranscriptStatusFailed, ErrSchedulerUnavailable.Error())
		if failErr != nil {
			log.Error("failed to mark unqueued transcript failed",
				slog.String("error", failErr.Error()),
				slog.String("transcript_id", transcript.ID.String()))
		}
		return SubmitResult{}, NewServiceError("submit", "failed to enqueue job",
			fmt.Errorf("%w: %w", ErrSchedulerUnavailable, err))
	}

	log.Info("transcript submitted",
		slog.String("job_id", transcript.JobID.String()),
		slog.String("transcript_id", transcript.ID.String()))
	return SubmitResult{JobID: transcript.JobID}, nil
}

// GetJob implements TranscriptService.
func (s *transcriptServiceImpl) GetJob(ctx context.Context, jobID uuid.UUID) (*JobSnapshot, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	transcript, err := s.store.Transcripts().GetByJobID(ctx, jobID)
	if err != nil {
		return nil, NewServiceError("get_job", "failed to load transcript", err)
	}

	tasks, err := s.store.Tasks().FindByTranscript(ctx, transcript.ID)
	if err != nil {
		return nil, NewServiceError("get_job", "failed to load tasks", err)
	}

	snapshot := &JobSnapshot{
		JobID:          transcript.JobID,
		TranscriptID:   transcript.ID,
		Status:         transcript.Status,
		ErrorMessage:   transcript.ErrorMessage,
		Metadata:       transcript.Metadata,
		Tasks:          tasks,
		ExecutionOrder: []string{},
		CreatedAt:      transcript.CreatedAt,
		UpdatedAt:      transcript.UpdatedAt,
	}
	if job, ok := s.scheduler.Status(jobID); ok {
		snapshot.EnqueuedAt = job.EnqueuedAt
	}

	order, err := taskgraph.TopologicalSort(schedulable(tasks))
	if err != nil {
		// Every cycle member is stored as error, so this means the stored
		// graph was modified outside the pipeline.
		log.Error("stored task graph is cyclic",
			slog.String("error", err.Error()),
			slog.String("job_id", jobID.String()))
	} else {
		snapshot.ExecutionOrder = order
	}

	return snapshot, nil
}

// CompleteTask implements TranscriptService.
func (s *transcriptServiceImpl) CompleteTask(ctx context.Context, taskID string) (*CompletionResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var result *CompletionResult
	err := s.store.InTx(ctx, func(tx store.Store) error {
		found, err := tx.Tasks().GetByID(ctx, taskID)
		if err != nil {
			return err
		}

		tasks, err := tx.Tasks().LockByTranscript(ctx, found.TranscriptID)
		if err != nil {
			return err
		}

		idx := indexOf(tasks, taskID)
		if idx < 0 {
			return ErrTaskNotFound
		}

		switch tasks[idx].Status {
		case domain.TaskStatusError:
			return ErrTaskTerminal
		case domain.TaskStatusCompleted:
			result = &CompletionResult{CompletedTask: tasks[idx], AllTasks: tasks, Unblocked: []string{}}
			return nil
		}

		marked := make([]*domain.Task, len(tasks))
		copy(marked, tasks)
		marked[idx] = tasks[idx].Clone()
		marked[idx].Status = domain.TaskStatusCompleted
		marked[idx].ErrorMessage = ""

		updated := taskgraph.RecomputeReadiness(marked, taskgraph.CompletedSet(marked))

		unblocked := []string{}
		now := time.Now().UTC()
		for _, changed := range taskgraph.StatusChanges(tasks, updated) {
			if err := tx.Tasks().UpdateStatus(ctx, changed.ID, changed.Status, changed.ErrorMessage); err != nil {
				return err
			}
			changed.UpdatedAt = now
			if changed.Status == domain.TaskStatusReady {
				unblocked = append(unblocked, changed.ID)
			}
		}

		result = &CompletionResult{CompletedTask: updated[idx], AllTasks: updated, Unblocked: unblocked}
		return nil
	})
	if err != nil {
		return nil, NewServiceError("complete_task", "failed to complete task", err)
	}

	log.Info("task completed",
		slog.String("task_id", taskID),
		slog.Int("unblocked", len(result.Unblocked)))
	return result, nil
}

// QueueStats implements TranscriptService.
func (s *transcriptServiceImpl) QueueStats() task.Stats {
	return s.scheduler.Stats()
}

// schedulable drops error tasks; they never run, so they have no place in an
// execution order.
func schedulable(tasks []*domain.Task) []*domain.Task {
	out := make([]*domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Status != domain.TaskStatusError {
			out = append(out, t)
		}
	}
	return out
}

func indexOf(tasks []*domain.Task, id string) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// IsNotFound reports whether err means the requested job or task is unknown.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrJobNotFound) || errors.Is(err, ErrTaskNotFound)
}
