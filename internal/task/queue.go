package task

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrQueueClosed is returned by Push and Pop once the queue is closed.
var ErrQueueClosed = errors.New("job queue is closed")

// Queue is the backing store for scheduled jobs. Implementations must hand
// jobs out in push order.
type Queue interface {
	// Push appends a job. Returns ErrQueueClosed after Close.
	Push(job Job) error

	// Pop blocks until a job is available, ctx is done, or the queue is
	// closed.
	Pop(ctx context.Context) (Job, error)

	// Len returns the number of queued jobs.
	Len() int

	// Close stops the queue, wakes any blocked Pop and returns the jobs that
	// were still queued. Later calls return nil.
	Close() []Job
}

// MemoryQueue is an unbounded in-process FIFO.
type MemoryQueue struct {
	mu     sync.Mutex
	items  []Job
	closed bool

	// wake holds at most one pending signal, so a Push that lands between a
	// consumer's emptiness check and its wait is never missed.
	wake chan struct{}
	done chan struct{}

	logger *slog.Logger
}

var _ Queue = (*MemoryQueue)(nil)

// NewMemoryQueue creates an empty MemoryQueue.
func NewMemoryQueue(logger *slog.Logger) *MemoryQueue {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryQueue{
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		logger: logger.With(slog.String("component", "job_queue")),
	}
}

// Push implements Queue.
func (q *MemoryQueue) Push(job Job) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	q.items = append(q.items, job)
	depth := len(q.items)
	q.mu.Unlock()

	select {
	case q.wake <- struct{}{}:
	default:
	}

	q.logger.Debug("job enqueued",
		slog.String("job_id", job.ID.String()),
		slog.Int("queue_len", depth))
	return nil
}

// Pop implements Queue.
func (q *MemoryQueue) Pop(ctx context.Context) (Job, error) {
	for {
		q.mu.Lock()
		if q.closed {
			q.mu.Unlock()
			return Job{}, ErrQueueClosed
		}
		if len(q.items) > 0 {
			job := q.items[0]
			q.items[0] = Job{}
			q.items = q.items[1:]
			q.mu.Unlock()
			return job, nil
		}
		q.mu.Unlock()

		select {
		case <-ctx.Done():
			return Job{}, ctx.Err()
		case <-q.done:
			return Job{}, ErrQueueClosed
		case <-q.wake:
		}
	}
}

// Len implements Queue.
func (q *MemoryQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Close implements Queue. It is safe to call more than once.
func (q *MemoryQueue) Close() []Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return nil
	}
	q.closed = true
	dropped := q.items
	q.items = nil
	close(q.done)
	q.logger.Info("job queue closed", slog.Int("dropped_jobs", len(dropped)))
	return dropped
}
