package extraction

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/phrazzld/minutes-api/internal/domain"
)

// ParseCandidates decodes a model answer into task proposals. It accepts a
// top-level JSON array or an object whose "tasks" member is an array, and
// tolerates a surrounding markdown code fence. Any other shape yields
// ErrInvalidResponse. An empty array is a valid answer.
func ParseCandidates(text string) ([]domain.CandidateTask, error) {
	body := bytes.TrimSpace([]byte(stripCodeFence(text)))
	if len(body) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrInvalidResponse)
	}

	switch body[0] {
	case '[':
		var tasks []domain.CandidateTask
		if err := json.Unmarshal(body, &tasks); err != nil {
			return nil, fmt.Errorf("%w: failed to parse task array: %v", ErrInvalidResponse, err)
		}
		return nonNil(tasks), nil

	case '{':
		var envelope struct {
			Tasks *json.RawMessage `json:"tasks"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, fmt.Errorf("%w: failed to parse response object: %v", ErrInvalidResponse, err)
		}
		if envelope.Tasks == nil {
			return nil, fmt.Errorf("%w: response object has no tasks field", ErrInvalidResponse)
		}
		var tasks []domain.CandidateTask
		if err := json.Unmarshal(*envelope.Tasks, &tasks); err != nil {
			return nil, fmt.Errorf("%w: tasks field is not a task array: %v", ErrInvalidResponse, err)
		}
		return nonNil(tasks), nil

	default:
		return nil, fmt.Errorf("%w: response is not JSON", ErrInvalidResponse)
	}
}

// stripCodeFence removes a ```json ... ``` wrapper if present.
func stripCodeFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		// Drop the info string, e.g. "json".
		s = s[i+1:]
	} else {
		s = ""
	}
	s = strings.TrimSpace(s)
	return strings.TrimSuffix(s, "```")
}

func nonNil(tasks []domain.CandidateTask) []domain.CandidateTask {
	if tasks == nil {
		return []domain.CandidateTask{}
	}
	return tasks
}
