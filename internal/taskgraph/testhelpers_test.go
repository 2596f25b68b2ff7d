package taskgraph

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/minutes-api/internal/domain"
	"github.com/stretchr/testify/require"
)

// candidates decodes a JSON array the same way the extraction layer does.
func candidates(t *testing.T, raw string) []domain.CandidateTask {
	t.Helper()
	var out []domain.CandidateTask
	require.NoError(t, json.Unmarshal([]byte(raw), &out))
	return out
}

// task builds a non-terminal task with the given id and dependencies.
func task(id string, deps ...string) *domain.Task {
	if deps == nil {
		deps = []string{}
	}
	return &domain.Task{
		ID:           id,
		TranscriptID: uuid.New(),
		Description:  "task " + id,
		Priority:     domain.PriorityMedium,
		Dependencies: deps,
		Status:       domain.TaskStatusBlocked,
	}
}

func byID(tasks []*domain.Task) map[string]*domain.Task {
	m := make(map[string]*domain.Task, len(tasks))
	for _, t := range tasks {
		m[t.ID] = t
	}
	return m
}
