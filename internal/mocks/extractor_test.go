package mocks_test

import (
	"context"
	"testing"

	"github.com/phrazzld/minutes-api/internal/domain"
	"github.com/phrazzld/minutes-api/internal/extraction"
	"github.com/phrazzld/minutes-api/internal/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockExtractor(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("fixture json", func(t *testing.T) {
		t.Parallel()
		m := mocks.NewMockExtractorWithJSON(`[{"id":"1"},{"id":"2","dependencies":["1"]}]`)

		candidates, err := m.ExtractTasks(ctx, "notes")

		require.NoError(t, err)
		assert.Len(t, candidates, 2)
		assert.Equal(t, 1, m.CallCount())
		assert.Equal(t, []string{"notes"}, m.Transcripts())
	})

	t.Run("error", func(t *testing.T) {
		t.Parallel()
		m := mocks.NewMockExtractorWithError(extraction.ErrContentBlocked)

		_, err := m.ExtractTasks(ctx, "notes")

		assert.ErrorIs(t, err, extraction.ErrExtractionFailed)
	})

	t.Run("custom function and reset", func(t *testing.T) {
		t.Parallel()
		m := &mocks.MockExtractor{
			ExtractTasksFn: func(ctx context.Context, transcript string) ([]domain.CandidateTask, error) {
				return []domain.CandidateTask{}, nil
			},
		}

		candidates, err := m.ExtractTasks(ctx, "a")
		require.NoError(t, err)
		assert.Empty(t, candidates)

		m.Reset()
		assert.Zero(t, m.CallCount())
	})

	t.Run("bad fixture panics", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { mocks.NewMockExtractorWithJSON(`{`) })
	})
}
