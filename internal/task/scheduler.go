package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/minutes-api/internal/platform/logger"
)

// Scheduler errors
var (
	ErrSchedulerStopped = errors.New("scheduler is stopped")
	ErrJobExists        = errors.New("job already scheduled")
	ErrNilQueue         = errors.New("queue cannot be nil")
	ErrNilProcessor     = errors.New("processor cannot be nil")
)

// DefaultJobRetention is how long finished jobs stay in the registry.
const DefaultJobRetention = time.Hour

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithJobRetention sets how long completed and failed jobs are kept for
// Status and Stats. Zero or less keeps them for the life of the process.
func WithJobRetention(d time.Duration) Option {
	return func(s *Scheduler) { s.retention = d }
}

// withClock replaces the time source.
func withClock(now func() time.Time) Option {
	return func(s *Scheduler) { s.now = now }
}

// Scheduler runs jobs one at a time, in the order they were enqueued. A
// failing or panicking job is recorded as failed and never stops the worker.
type Scheduler struct {
	queue     Queue
	processor Processor
	logger    *slog.Logger
	retention time.Duration
	now       func() time.Time

	mu      sync.RWMutex
	jobs    map[uuid.UUID]*Job
	stopped bool

	startOnce sync.Once
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewScheduler creates a Scheduler. Call Start to begin processing.
func NewScheduler(queue Queue, processor Processor, logger *slog.Logger, opts ...Option) (*Scheduler, error) {
	if queue == nil {
		return nil, ErrNilQueue
	}
	if processor == nil {
		return nil, ErrNilProcessor
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Scheduler{
		queue:     queue,
		processor: processor,
		logger:    logger.With(slog.String("component", "scheduler")),
		retention: DefaultJobRetention,
		now:       func() time.Time { return time.Now().UTC() },
		jobs:      make(map[uuid.UUID]*Job),
		done:      make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Enqueue registers a pending job for the transcript and queues it behind any
// jobs already waiting.
func (s *Scheduler) Enqueue(ctx context.Context, jobID, transcriptID uuid.UUID) (Job, error) {
	if err := ctx.Err(); err != nil {
		return Job{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return Job{}, ErrSchedulerStopped
	}
	s.pruneLocked()
	if _, ok := s.jobs[jobID]; ok {
		return Job{}, fmt.Errorf("%w: %s", ErrJobExists, jobID)
	}

	job := &Job{
		ID:           jobID,
		TranscriptID: transcriptID,
		Status:       JobStatusPending,
		EnqueuedAt:   s.now(),
	}

	// Pushing under s.mu keeps registry order and queue order identical.
	if err := s.queue.Push(*job); err != nil {
		if errors.Is(err, ErrQueueClosed) {
			return Job{}, ErrSchedulerStopped
		}
		return Job{}, fmt.Errorf("failed to enqueue job: %w", err)
	}
	s.jobs[jobID] = job
	queueDepthMetric.Set(float64(s.queue.Len()))

	s.logger.Debug("job scheduled",
		slog.String("job_id", jobID.String()),
		slog.String("transcript_id", transcriptID.String()))
	return *job, nil
}

// Status returns a snapshot of the job, and false if the scheduler has never
// seen it or it finished longer ago than the retention window.
func (s *Scheduler) Status(jobID uuid.UUID) (Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok || s.expired(job, s.now()) {
		return Job{}, false
	}
	return *job, true
}

// Stats counts registered jobs by status. Finished jobs older than the
// retention window are no longer counted.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked()

	stats := Stats{Total: len(s.jobs), QueueDepth: s.queue.Len()}
	for _, job := range s.jobs {
		switch job.Status {
		case JobStatusPending:
			stats.Pending++
		case JobStatusProcessing:
			stats.Processing++
		case JobStatusCompleted:
			stats.Completed++
		case JobStatusFailed:
			stats.Failed++
		}
	}
	return stats
}

// Start launches the worker. Subsequent calls do nothing. The worker exits
// when ctx is cancelled or Stop is called.
func (s *Scheduler) Start(ctx context.Context) {
	s.startOnce.Do(func() {
		ctx, s.cancel = context.WithCancel(ctx)
		s.logger.Info("starting scheduler")
		go s.worker(ctx)
	})
}

// Stop refuses new jobs, fails queued ones and waits for the job in flight.
// If ctx ends first the in-flight job is cancelled and Stop returns ctx's
// error once the worker has exited.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	s.stopped = true
	s.mu.Unlock()

	s.discard(ctx, s.queue.Close())

	// Consuming the Once also stops a later Start from launching a worker.
	s.startOnce.Do(func() {})
	if s.cancel == nil {
		return nil
	}

	select {
	case <-s.done:
		s.logger.Info("scheduler stopped")
		return nil
	case <-ctx.Done():
		s.cancel()
		<-s.done
		s.logger.Warn("scheduler stop timed out, in-flight job cancelled")
		return ctx.Err()
	}
}

// discard marks jobs that were queued but never run as failed. The processor
// records the failure on their transcripts when it can.
func (s *Scheduler) discard(ctx context.Context, jobs []Job) {
	if len(jobs) == 0 {
		return
	}
	queueDepthMetric.Set(0)

	ctx = context.WithoutCancel(ctx)
	d, _ := s.processor.(Discarder)
	for _, job := range jobs {
		s.setStatus(job.ID, JobStatusFailed, ErrSchedulerStopped.Error())
		recordJob(JobStatusFailed)
		if d == nil {
			continue
		}
		if err := d.Discard(ctx, job, ErrSchedulerStopped); err != nil {
			s.logger.Error("failed to record discarded job",
				slog.String("job_id", job.ID.String()),
				slog.String("error", err.Error()))
		}
	}
	s.logger.Warn("discarded queued jobs", slog.Int("count", len(jobs)))
}

func (s *Scheduler) worker(ctx context.Context) {
	defer close(s.done)
	defer s.cancel()

	for {
		job, err := s.queue.Pop(ctx)
		if err != nil {
			if !errors.Is(err, ErrQueueClosed) && !errors.Is(err, context.Canceled) {
				s.logger.Error("failed to dequeue job", slog.String("error", err.Error()))
			}
			return
		}
		queueDepthMetric.Set(float64(s.queue.Len()))
		s.runJob(ctx, job)
	}
}

// runJob processes one job and records its outcome.
func (s *Scheduler) runJob(ctx context.Context, job Job) {
	jobLogger := s.logger.With(
		slog.String("job_id", job.ID.String()),
		slog.String("transcript_id", job.TranscriptID.String()),
	)
	ctx = logger.WithLogger(ctx, jobLogger)

	s.setStatus(job.ID, JobStatusProcessing, "")
	jobLogger.Info("processing job")
	started := time.Now()

	err := s.process(ctx, job)
	jobDurationMetric.Observe(time.Since(started).Seconds())

	if err != nil {
		jobLogger.Error("job failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(started)))
		s.setStatus(job.ID, JobStatusFailed, err.Error())
		recordJob(JobStatusFailed)
		return
	}

	jobLogger.Info("job completed", slog.Duration("duration", time.Since(started)))
	s.setStatus(job.ID, JobStatusCompleted, "")
	recordJob(JobStatusCompleted)
}

func (s *Scheduler) process(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in job processor: %v", r)
		}
	}()
	return s.processor.Process(ctx, job)
}

func (s *Scheduler) setStatus(jobID uuid.UUID, status JobStatus, errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[jobID]
	if !ok {
		return
	}
	now := s.now()
	job.Status = status
	job.Error = errMsg
	switch status {
	case JobStatusProcessing:
		job.StartedAt = now
	case JobStatusCompleted, JobStatusFailed:
		job.FinishedAt = now
	}
}

// pruneLocked drops finished jobs older than the retention window. The
// caller must hold s.mu for writing.
func (s *Scheduler) pruneLocked() {
	if s.retention <= 0 {
		return
	}
	now := s.now()
	for id, job := range s.jobs {
		if s.expired(job, now) {
			delete(s.jobs, id)
		}
	}
}

func (s *Scheduler) expired(job *Job, now time.Time) bool {
	return s.retention > 0 && job.IsTerminal() && now.Sub(job.FinishedAt) > s.retention
}
