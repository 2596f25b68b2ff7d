package mocks

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/phrazzld/minutes-api/internal/domain"
	"github.com/phrazzld/minutes-api/internal/extraction"
)

// MockExtractor implements extraction.Extractor for testing.
type MockExtractor struct {
	// ExtractTasksFn allows test cases to mock the ExtractTasks behavior
	ExtractTasksFn func(ctx context.Context, transcript string) ([]domain.CandidateTask, error)

	// Default response values, used when ExtractTasksFn is nil
	Candidates []domain.CandidateTask
	Err        error

	mu          sync.Mutex
	transcripts []string
}

var _ extraction.Extractor = (*MockExtractor)(nil)

// ExtractTasks implements extraction.Extractor.
func (m *MockExtractor) ExtractTasks(ctx context.Context, transcript string) ([]domain.CandidateTask, error) {
	m.mu.Lock()
	m.transcripts = append(m.transcripts, transcript)
	m.mu.Unlock()

	if m.ExtractTasksFn != nil {
		return m.ExtractTasksFn(ctx, transcript)
	}
	return m.Candidates, m.Err
}

// CallCount returns how many times ExtractTasks was called.
func (m *MockExtractor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.transcripts)
}

// Transcripts returns the transcripts passed to ExtractTasks, in call order.
func (m *MockExtractor) Transcripts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.transcripts...)
}

// Reset clears recorded calls.
func (m *MockExtractor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transcripts = nil
}

// NewMockExtractorWithJSON returns a MockExtractor that answers with the
// candidates encoded in raw, a JSON array of task objects. It panics if raw
// is not valid, which only happens for a broken test fixture.
func NewMockExtractorWithJSON(raw string) *MockExtractor {
	var candidates []domain.CandidateTask
	if err := json.Unmarshal([]byte(raw), &candidates); err != nil {
		panic("mocks: invalid candidate fixture: " + err.Error())
	}
	return &MockExtractor{Candidates: candidates}
}

// NewMockExtractorWithError returns a MockExtractor that always fails with err.
func NewMockExtractorWithError(err error) *MockExtractor {
	return &MockExtractor{Err: err}
}
