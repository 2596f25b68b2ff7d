package taskgraph

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/minutes-api/internal/domain"
)

// SanitizeReport records every repair Sanitize made. It is diagnostic only:
// none of these repairs fail a job.
type SanitizeReport struct {
	// DroppedDependencies maps a task id to the dependency ids removed from it
	// because no task in the batch carries that id.
	DroppedDependencies map[string][]string

	// BackfilledIDs counts proposals that had no usable id.
	BackfilledIDs int

	// DuplicateIDs lists ids that appeared more than once; every occurrence
	// after the first was given a fresh id.
	DuplicateIDs []string

	// DefaultedPriorities counts proposals whose priority was missing or invalid.
	DefaultedPriorities int

	// MalformedDependencyLists counts proposals whose dependencies value was
	// present but not a list.
	MalformedDependencyLists int
}

// DroppedCount returns the total number of dangling references removed.
func (r SanitizeReport) DroppedCount() int {
	n := 0
	for _, deps := range r.DroppedDependencies {
		n += len(deps)
	}
	return n
}

// Sanitizer repairs candidate task batches. The zero value is ready to use.
type Sanitizer struct {
	// NewID generates ids for proposals without one. Defaults to uuid.NewString.
	NewID func() string

	// Now supplies timestamps. Defaults to time.Now in UTC.
	Now func() time.Time
}

// Sanitize repairs a batch with a zero-value Sanitizer.
func Sanitize(transcriptID uuid.UUID, candidates []domain.CandidateTask) ([]*domain.Task, SanitizeReport) {
	var s Sanitizer
	return s.Sanitize(transcriptID, candidates)
}

// Sanitize converts candidates into tasks owned by transcriptID. After it
// returns, every dependency of every task names another task in the returned
// batch. Tasks start out blocked until readiness is computed.
func (s *Sanitizer) Sanitize(transcriptID uuid.UUID, candidates []domain.CandidateTask) ([]*domain.Task, SanitizeReport) {
	newID := s.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now()
	}

	report := SanitizeReport{DroppedDependencies: make(map[string][]string)}

	// First pass fixes ids so the membership set is known before any
	// dependency is checked against it.
	ids := make([]string, len(candidates))
	present := make(map[string]struct{}, len(candidates))
	for i, c := range candidates {
		id, ok := decodeID(c.ID)
		if !ok {
			id = newID()
			report.BackfilledIDs++
		} else if _, dup := present[id]; dup {
			report.DuplicateIDs = append(report.DuplicateIDs, id)
			id = newID()
		}
		ids[i] = id
		present[id] = struct{}{}
	}

	tasks := make([]*domain.Task, 0, len(candidates))
	for i, c := range candidates {
		priority, ok := decodePriority(c.Priority)
		if !ok {
			report.DefaultedPriorities++
		}

		declared, malformed := decodeDependencies(c.Dependencies)
		if malformed {
			report.MalformedDependencyLists++
		}

		kept := make([]string, 0, len(declared))
		for _, dep := range declared {
			if _, ok := present[dep]; ok {
				kept = append(kept, dep)
				continue
			}
			report.DroppedDependencies[ids[i]] = append(report.DroppedDependencies[ids[i]], dep)
		}

		description, _ := decodeString(c.Description)

		tasks = append(tasks, &domain.Task{
			ID:           ids[i],
			TranscriptID: transcriptID,
			Description:  strings.TrimSpace(description),
			Priority:     priority,
			Dependencies: kept,
			Status:       domain.TaskStatusBlocked,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}

	return tasks, report
}

// decodeID accepts a non-blank JSON string or a JSON number.
func decodeID(raw json.RawMessage) (string, bool) {
	if s, ok := decodeString(raw); ok {
		s = strings.TrimSpace(s)
		return s, s != ""
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var n json.Number
	if err := dec.Decode(&n); err != nil || n == "" {
		return "", false
	}
	return n.String(), true
}

func decodeString(raw json.RawMessage) (string, bool) {
	if len(raw) == 0 {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

func decodePriority(raw json.RawMessage) (domain.Priority, bool) {
	s, ok := decodeString(raw)
	if !ok {
		return domain.PriorityMedium, false
	}
	p, ok := domain.ParsePriority(s)
	if !ok {
		return domain.PriorityMedium, false
	}
	return p, true
}

// decodeDependencies returns the id-like elements of a JSON array. A value that
// is present but not an array yields no dependencies and malformed=true;
// missing and null values yield none without being reported.
func decodeDependencies(raw json.RawMessage) (deps []string, malformed bool) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, false
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, true
	}

	deps = make([]string, 0, len(elems))
	for _, e := range elems {
		if id, ok := decodeID(e); ok {
			deps = append(deps, id)
		}
	}
	return deps, false
}
