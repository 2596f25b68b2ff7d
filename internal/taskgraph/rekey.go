package taskgraph

import (
	"github.com/google/uuid"
	"github.com/phrazzld/minutes-api/internal/domain"
)

// Rekey gives every task a globally unique id in place. The id the generator
// used is kept in Ref and every dependency reference is rewritten through the
// same mapping, so a batch that satisfied the sibling-subset rule before
// rekeying still does afterwards. newID defaults to uuid.NewString.
func Rekey(tasks []*domain.Task, newID func() string) []*domain.Task {
	if newID == nil {
		newID = uuid.NewString
	}

	mapping := make(map[string]string, len(tasks))
	for _, t := range tasks {
		if _, ok := mapping[t.ID]; !ok {
			mapping[t.ID] = newID()
		}
	}

	for _, t := range tasks {
		t.Ref = t.ID
		t.ID = mapping[t.Ref]
		deps := make([]string, 0, len(t.Dependencies))
		for _, dep := range t.Dependencies {
			if id, ok := mapping[dep]; ok {
				deps = append(deps, id)
			}
		}
		t.Dependencies = deps
	}
	return tasks
}

// Result is the outcome of running the full integrity pipeline over one
// generator response.
type Result struct {
	Tasks    []*domain.Task
	Sanitize SanitizeReport
	Cycles   CycleReport
}

// Build runs Sanitize, DetectCycles and an initial RecomputeReadiness with no
// completed tasks. The returned tasks still carry the generator's ids.
func Build(transcriptID uuid.UUID, candidates []domain.CandidateTask) Result {
	return BuildWith(&Sanitizer{}, transcriptID, candidates)
}

// BuildWith is Build with a caller-supplied Sanitizer.
func BuildWith(s *Sanitizer, transcriptID uuid.UUID, candidates []domain.CandidateTask) Result {
	tasks, report := s.Sanitize(transcriptID, candidates)
	cycles := DetectCycles(tasks)
	tasks = RecomputeReadiness(tasks, map[string]struct{}{})
	return Result{Tasks: tasks, Sanitize: report, Cycles: cycles}
}
