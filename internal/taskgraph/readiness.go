package taskgraph

import (
	"github.com/phrazzld/minutes-api/internal/domain"
)

// RecomputeReadiness returns copies of tasks with ready/blocked derived from
// completed. Terminal tasks (completed and error) are copied unchanged; every
// other task is ready when all of its dependencies are in completed and
// blocked otherwise. The input slice is not modified, and applying the
// function twice with the same completed set yields the same result.
//
// A task whose dependency is in the error state stays blocked, since that
// dependency can never complete.
func RecomputeReadiness(tasks []*domain.Task, completed map[string]struct{}) []*domain.Task {
	out := make([]*domain.Task, len(tasks))
	for i, t := range tasks {
		c := t.Clone()
		out[i] = c
		if c.IsTerminal() {
			continue
		}

		c.Status = domain.TaskStatusReady
		for _, dep := range c.Dependencies {
			if _, ok := completed[dep]; !ok {
				c.Status = domain.TaskStatusBlocked
				break
			}
		}
	}
	return out
}

// CompletedSet returns the ids of every completed task in tasks.
func CompletedSet(tasks []*domain.Task) map[string]struct{} {
	set := make(map[string]struct{})
	for _, t := range tasks {
		if t.Status == domain.TaskStatusCompleted {
			set[t.ID] = struct{}{}
		}
	}
	return set
}

// StatusChanges returns the tasks in after whose status differs from the task
// with the same id in before.
func StatusChanges(before, after []*domain.Task) []*domain.Task {
	prev := make(map[string]domain.TaskStatus, len(before))
	for _, t := range before {
		prev[t.ID] = t.Status
	}

	var changed []*domain.Task
	for _, t := range after {
		if s, ok := prev[t.ID]; !ok || s != t.Status {
			changed = append(changed, t)
		}
	}
	return changed
}
