package dedup_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/minutes-api/internal/dedup"
	"github.com/phrazzld/minutes-api/internal/domain"
	"github.com/phrazzld/minutes-api/internal/platform/logger"
	"github.com/phrazzld/minutes-api/internal/platform/memory"
	"github.com/phrazzld/minutes-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const transcript = "Alice will draft the budget. Bob reviews it after Alice finishes."

func newGate(t *testing.T, transcripts store.TranscriptStore) *dedup.Gate {
	t.Helper()
	hasher, err := dedup.NewHasher(dedup.AlgorithmSHA256)
	require.NoError(t, err)
	log, _ := logger.NewTestLogger(t)
	gate, err := dedup.NewGate(transcripts, hasher, log)
	require.NoError(t, err)
	return gate
}

func TestNewGateValidation(t *testing.T) {
	t.Parallel()

	hasher, err := dedup.NewHasher("")
	require.NoError(t, err)

	_, err = dedup.NewGate(nil, hasher, nil)
	assert.Error(t, err)

	_, err = dedup.NewGate(memory.New().Transcripts(), nil, nil)
	assert.Error(t, err)
}

func TestGate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("first submission is new", func(t *testing.T) {
		t.Parallel()
		gate := newGate(t, memory.New().Transcripts())

		check, err := gate.CheckDuplicate(ctx, transcript)

		require.NoError(t, err)
		assert.False(t, check.IsDuplicate)
		assert.Equal(t, uuid.Nil, check.JobID)
	})

	t.Run("normalised resubmission is a duplicate", func(t *testing.T) {
		t.Parallel()
		gate := newGate(t, memory.New().Transcripts())
		jobID := uuid.New()

		tr, created, err := gate.CreateRecord(ctx, jobID, transcript)
		require.NoError(t, err)
		require.True(t, created)
		assert.Equal(t, domain.TranscriptStatusPending, tr.Status)

		check, err := gate.CheckDuplicate(ctx, "  "+strings.ToUpper(transcript)+"\n")

		require.NoError(t, err)
		assert.True(t, check.IsDuplicate)
		assert.Equal(t, jobID, check.JobID)
	})

	t.Run("losing insert returns the winner", func(t *testing.T) {
		t.Parallel()
		gate := newGate(t, memory.New().Transcripts())
		first := uuid.New()

		_, _, err := gate.CreateRecord(ctx, first, transcript)
		require.NoError(t, err)

		tr, created, err := gate.CreateRecord(ctx, uuid.New(), transcript)

		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first, tr.JobID)
	})

	t.Run("concurrent submissions converge", func(t *testing.T) {
		t.Parallel()
		s := memory.New()
		gate := newGate(t, s.Transcripts())

		const n = 20
		jobIDs := make([]uuid.UUID, n)
		createdCount := make([]bool, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				tr, created, err := gate.CreateRecord(ctx, uuid.New(), transcript)
				if !assert.NoError(t, err) {
					return
				}
				jobIDs[i] = tr.JobID
				createdCount[i] = created
			}(i)
		}
		wg.Wait()

		winners := 0
		for i := range jobIDs {
			assert.Equal(t, jobIDs[0], jobIDs[i])
			if createdCount[i] {
				winners++
			}
		}
		assert.Equal(t, 1, winners)
	})

	t.Run("store failure propagates", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("connection refused")
		gate := newGate(t, &failingTranscripts{TranscriptStore: memory.New().Transcripts(), err: boom})

		_, err := gate.CheckDuplicate(ctx, transcript)
		assert.ErrorIs(t, err, boom)

		_, _, err = gate.CreateRecord(ctx, uuid.New(), transcript)
		assert.ErrorIs(t, err, boom)
	})
}

type failingTranscripts struct {
	store.TranscriptStore
	err error
}

func (f *failingTranscripts) GetByHash(ctx context.Context, hash string) (*domain.Transcript, error) {
	return nil, f.err
}

func (f *failingTranscripts) Create(ctx context.Context, t *domain.Transcript) error {
	return f.err
}
