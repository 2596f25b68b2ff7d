package task

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/minutes-api/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T, p Processor) *Scheduler {
	t.Helper()
	log, _ := logger.NewTestLogger(t)
	s, err := NewScheduler(NewMemoryQueue(log), p, log)
	require.NoError(t, err)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.Stop(ctx)
	})
	return s
}

func waitForStatus(t *testing.T, s *Scheduler, id uuid.UUID, want JobStatus) Job {
	t.Helper()
	var job Job
	require.Eventually(t, func() bool {
		var ok bool
		job, ok = s.Status(id)
		return ok && job.Status == want
	}, 2*time.Second, 5*time.Millisecond, "job %s never reached %s", id, want)
	return job
}

func TestNewScheduler(t *testing.T) {
	t.Parallel()

	_, err := NewScheduler(nil, ProcessorFunc(func(context.Context, Job) error { return nil }), nil)
	assert.ErrorIs(t, err, ErrNilQueue)

	_, err = NewScheduler(NewMemoryQueue(nil), nil, nil)
	assert.ErrorIs(t, err, ErrNilProcessor)
}

func TestScheduler_RunsJobsInOrderOneAtATime(t *testing.T) {
	t.Parallel()

	var (
		mu       sync.Mutex
		order    []uuid.UUID
		inFlight atomic.Int32
		overlap  atomic.Bool
	)
	s := newTestScheduler(t, ProcessorFunc(func(ctx context.Context, job Job) error {
		if inFlight.Add(1) > 1 {
			overlap.Store(true)
		}
		defer inFlight.Add(-1)
		time.Sleep(2 * time.Millisecond)
		mu.Lock()
		order = append(order, job.ID)
		mu.Unlock()
		return nil
	}))

	ctx := context.Background()
	var ids []uuid.UUID
	for i := 0; i < 10; i++ {
		id := uuid.New()
		ids = append(ids, id)
		_, err := s.Enqueue(ctx, id, uuid.New())
		require.NoError(t, err)
	}
	s.Start(ctx)

	waitForStatus(t, s, ids[len(ids)-1], JobStatusCompleted)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, ids, order)
	assert.False(t, overlap.Load(), "jobs ran concurrently")
}

func TestScheduler_FailureDoesNotStopWorker(t *testing.T) {
	t.Parallel()

	failing := uuid.New()
	s := newTestScheduler(t, ProcessorFunc(func(ctx context.Context, job Job) error {
		if job.ID == failing {
			return errors.New("extractor unavailable")
		}
		return nil
	}))
	ctx := context.Background()
	s.Start(ctx)

	_, err := s.Enqueue(ctx, failing, uuid.New())
	require.NoError(t, err)
	next := uuid.New()
	_, err = s.Enqueue(ctx, next, uuid.New())
	require.NoError(t, err)

	failed := waitForStatus(t, s, failing, JobStatusFailed)
	assert.Equal(t, "extractor unavailable", failed.Error)
	assert.False(t, failed.FinishedAt.IsZero())

	done := waitForStatus(t, s, next, JobStatusCompleted)
	assert.Empty(t, done.Error)
	assert.False(t, done.StartedAt.IsZero())
}

func TestScheduler_RecoversPanics(t *testing.T) {
	t.Parallel()

	boom := uuid.New()
	s := newTestScheduler(t, ProcessorFunc(func(ctx context.Context, job Job) error {
		if job.ID == boom {
			panic("nil map")
		}
		return nil
	}))
	ctx := context.Background()
	s.Start(ctx)

	_, err := s.Enqueue(ctx, boom, uuid.New())
	require.NoError(t, err)
	next := uuid.New()
	_, err = s.Enqueue(ctx, next, uuid.New())
	require.NoError(t, err)

	failed := waitForStatus(t, s, boom, JobStatusFailed)
	assert.Contains(t, failed.Error, "panic")
	waitForStatus(t, s, next, JobStatusCompleted)
}

func TestScheduler_JobContextCarriesLogger(t *testing.T) {
	t.Parallel()

	log, buf := logger.NewTestLogger(t)
	s, err := NewScheduler(NewMemoryQueue(log), ProcessorFunc(func(ctx context.Context, job Job) error {
		logger.FromContext(ctx).Info("inside job")
		return nil
	}), log)
	require.NoError(t, err)
	ctx := context.Background()
	s.Start(ctx)
	defer func() { _ = s.Stop(ctx) }()

	id := uuid.New()
	_, err = s.Enqueue(ctx, id, uuid.New())
	require.NoError(t, err)
	waitForStatus(t, s, id, JobStatusCompleted)

	entries, err := buf.Entries()
	require.NoError(t, err)
	var found bool
	for _, e := range entries {
		if e["msg"] == "inside job" {
			found = true
			assert.Equal(t, id.String(), e["job_id"])
		}
	}
	assert.True(t, found, "job log entry missing")
}

func TestScheduler_Enqueue(t *testing.T) {
	t.Parallel()

	t.Run("duplicate job id", func(t *testing.T) {
		t.Parallel()
		s := newTestScheduler(t, ProcessorFunc(func(context.Context, Job) error { return nil }))
		id := uuid.New()

		job, err := s.Enqueue(context.Background(), id, uuid.New())
		require.NoError(t, err)
		assert.Equal(t, JobStatusPending, job.Status)

		_, err = s.Enqueue(context.Background(), id, uuid.New())
		assert.ErrorIs(t, err, ErrJobExists)
	})

	t.Run("after stop", func(t *testing.T) {
		t.Parallel()
		s := newTestScheduler(t, ProcessorFunc(func(context.Context, Job) error { return nil }))
		s.Start(context.Background())
		require.NoError(t, s.Stop(context.Background()))

		_, err := s.Enqueue(context.Background(), uuid.New(), uuid.New())
		assert.ErrorIs(t, err, ErrSchedulerStopped)
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()
		s := newTestScheduler(t, ProcessorFunc(func(context.Context, Job) error { return nil }))
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := s.Enqueue(ctx, uuid.New(), uuid.New())
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestScheduler_Stats(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	s := newTestScheduler(t, ProcessorFunc(func(ctx context.Context, job Job) error {
		select {
		case <-release:
		case <-ctx.Done():
		}
		return nil
	}))
	ctx := context.Background()

	first := uuid.New()
	_, err := s.Enqueue(ctx, first, uuid.New())
	require.NoError(t, err)
	_, err = s.Enqueue(ctx, uuid.New(), uuid.New())
	require.NoError(t, err)

	stats := s.Stats()
	assert.Equal(t, 2, stats.Pending)
	assert.Equal(t, 2, stats.QueueDepth)
	assert.Equal(t, 2, stats.Total)

	s.Start(ctx)
	waitForStatus(t, s, first, JobStatusProcessing)

	stats = s.Stats()
	assert.Equal(t, 1, stats.Processing)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 1, stats.QueueDepth)

	close(release)
	require.Eventually(t, func() bool { return s.Stats().Completed == 2 }, 2*time.Second, 5*time.Millisecond)
}

func TestScheduler_Stop(t *testing.T) {
	t.Parallel()

	t.Run("waits for in-flight job", func(t *testing.T) {
		t.Parallel()
		var finished atomic.Bool
		started := make(chan struct{})
		s := newTestScheduler(t, ProcessorFunc(func(ctx context.Context, job Job) error {
			close(started)
			time.Sleep(30 * time.Millisecond)
			finished.Store(true)
			return nil
		}))
		ctx := context.Background()
		s.Start(ctx)
		_, err := s.Enqueue(ctx, uuid.New(), uuid.New())
		require.NoError(t, err)
		<-started

		require.NoError(t, s.Stop(ctx))
		assert.True(t, finished.Load())
	})

	t.Run("cancels in-flight job on deadline", func(t *testing.T) {
		t.Parallel()
		started := make(chan struct{})
		s := newTestScheduler(t, ProcessorFunc(func(ctx context.Context, job Job) error {
			close(started)
			<-ctx.Done()
			return ctx.Err()
		}))
		s.Start(context.Background())
		id := uuid.New()
		_, err := s.Enqueue(context.Background(), id, uuid.New())
		require.NoError(t, err)
		<-started

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		assert.ErrorIs(t, s.Stop(ctx), context.DeadlineExceeded)

		job, ok := s.Status(id)
		require.True(t, ok)
		assert.Equal(t, JobStatusFailed, job.Status)
	})

	t.Run("before start", func(t *testing.T) {
		t.Parallel()
		s := newTestScheduler(t, ProcessorFunc(func(context.Context, Job) error { return nil }))
		require.NoError(t, s.Stop(context.Background()))
	})

	t.Run("fails queued jobs", func(t *testing.T) {
		t.Parallel()
		p := &recordingDiscarder{}
		s := newTestScheduler(t, p)
		ctx := context.Background()

		first, second := uuid.New(), uuid.New()
		_, err := s.Enqueue(ctx, first, uuid.New())
		require.NoError(t, err)
		_, err = s.Enqueue(ctx, second, uuid.New())
		require.NoError(t, err)

		require.NoError(t, s.Stop(ctx))

		for _, id := range []uuid.UUID{first, second} {
			job, ok := s.Status(id)
			require.True(t, ok)
			assert.Equal(t, JobStatusFailed, job.Status)
			assert.Equal(t, ErrSchedulerStopped.Error(), job.Error)
			assert.False(t, job.FinishedAt.IsZero())
		}
		assert.Equal(t, []uuid.UUID{first, second}, p.discarded())
		assert.Equal(t, 0, p.processed)

		stats := s.Stats()
		assert.Equal(t, 2, stats.Failed)
		assert.Equal(t, 0, stats.Pending)
		assert.Equal(t, 0, stats.QueueDepth)
	})
}

// recordingDiscarder never expects to run a job and remembers discarded ones.
type recordingDiscarder struct {
	mu        sync.Mutex
	ids       []uuid.UUID
	processed int
}

func (p *recordingDiscarder) Process(context.Context, Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.processed++
	return nil
}

func (p *recordingDiscarder) Discard(_ context.Context, job Job, cause error) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if errors.Is(cause, ErrSchedulerStopped) {
		p.ids = append(p.ids, job.ID)
	}
	return nil
}

func (p *recordingDiscarder) discarded() []uuid.UUID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]uuid.UUID(nil), p.ids...)
}

// fakeClock is a settable time source shared with the worker goroutine.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestScheduler_JobRetention(t *testing.T) {
	t.Parallel()

	newScheduler := func(t *testing.T, retention time.Duration) (*Scheduler, *fakeClock, chan struct{}) {
		t.Helper()
		clock := &fakeClock{now: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
		release := make(chan struct{})
		log, _ := logger.NewTestLogger(t)
		s, err := NewScheduler(NewMemoryQueue(log), ProcessorFunc(func(ctx context.Context, job Job) error {
			select {
			case <-release:
			case <-ctx.Done():
			}
			return nil
		}), log, WithJobRetention(retention), withClock(clock.Now))
		require.NoError(t, err)
		t.Cleanup(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			_ = s.Stop(ctx)
		})
		return s, clock, release
	}

	t.Run("finished jobs are evicted after the window", func(t *testing.T) {
		t.Parallel()
		s, clock, release := newScheduler(t, 10*time.Minute)
		ctx := context.Background()

		done := uuid.New()
		_, err := s.Enqueue(ctx, done, uuid.New())
		require.NoError(t, err)
		s.Start(ctx)
		release <- struct{}{}
		waitForStatus(t, s, done, JobStatusCompleted)

		// Blocks in the processor until release is closed.
		running := uuid.New()
		_, err = s.Enqueue(ctx, running, uuid.New())
		require.NoError(t, err)
		waitForStatus(t, s, running, JobStatusProcessing)
		waiting := uuid.New()
		_, err = s.Enqueue(ctx, waiting, uuid.New())
		require.NoError(t, err)

		clock.Advance(10 * time.Minute)
		_, ok := s.Status(done)
		assert.True(t, ok, "job at the edge of the window is kept")
		assert.Equal(t, 3, s.Stats().Total)

		clock.Advance(time.Second)
		_, ok = s.Status(done)
		assert.False(t, ok)

		stats := s.Stats()
		assert.Equal(t, 2, stats.Total)
		assert.Equal(t, 0, stats.Completed)
		assert.Equal(t, 1, stats.Processing)
		assert.Equal(t, 1, stats.Pending)

		clock.Advance(24 * time.Hour)
		_, ok = s.Status(running)
		assert.True(t, ok, "unfinished jobs never expire")
		_, ok = s.Status(waiting)
		assert.True(t, ok, "unfinished jobs never expire")
		close(release)
	})

	t.Run("evicted job id can be scheduled again", func(t *testing.T) {
		t.Parallel()
		s, clock, release := newScheduler(t, time.Minute)
		close(release)
		ctx := context.Background()
		s.Start(ctx)

		id := uuid.New()
		_, err := s.Enqueue(ctx, id, uuid.New())
		require.NoError(t, err)
		waitForStatus(t, s, id, JobStatusCompleted)

		_, err = s.Enqueue(ctx, id, uuid.New())
		assert.ErrorIs(t, err, ErrJobExists)

		clock.Advance(2 * time.Minute)
		job, err := s.Enqueue(ctx, id, uuid.New())
		require.NoError(t, err)
		assert.Equal(t, JobStatusPending, job.Status)
	})

	t.Run("zero retention keeps everything", func(t *testing.T) {
		t.Parallel()
		s, clock, release := newScheduler(t, 0)
		close(release)
		ctx := context.Background()
		s.Start(ctx)

		id := uuid.New()
		_, err := s.Enqueue(ctx, id, uuid.New())
		require.NoError(t, err)
		waitForStatus(t, s, id, JobStatusCompleted)

		clock.Advance(365 * 24 * time.Hour)
		_, ok := s.Status(id)
		assert.True(t, ok)
		assert.Equal(t, 1, s.Stats().Completed)
	})
}
