package taskgraph

import (
	"slices"

	"github.com/phrazzld/minutes-api/internal/domain"
)

// CycleReport summarises the cycles found in one batch.
type CycleReport struct {
	HasCycles bool

	// Members lists the ids of every task on a cycle, in batch order.
	Members []string

	// Components groups Members by strongly connected component. Each group
	// is in batch order and groups are ordered by their first member.
	Components [][]string

	// Count is the number of cyclic components.
	Count int
}

// Contains reports whether id is a cycle member.
func (r CycleReport) Contains(id string) bool {
	return slices.Contains(r.Members, id)
}

type visitState uint8

const (
	unvisited visitState = iota
	onPath
	done
)

// FindCycles locates every task that lies on a dependency cycle without
// modifying the batch. A task is a member when its strongly connected
// component has more than one task or when it depends on itself. Tasks that
// merely lead into a cycle are not members.
//
// The traversal is iterative, so deep chains cannot exhaust the goroutine
// stack. References to ids outside the batch are ignored.
func FindCycles(tasks []*domain.Task) CycleReport {
	g := newGraph(tasks, false)
	n := len(g.ids)

	state := make([]visitState, n)
	disc := make([]int, n)
	low := make([]int, n)
	onStack := make([]bool, n)
	selfLoop := make([]bool, n)
	var sccStack []int
	counter := 0

	var components [][]int

	enter := func(v int) {
		state[v] = onPath
		disc[v] = counter
		low[v] = counter
		counter++
		sccStack = append(sccStack, v)
		onStack[v] = true
	}

	for root := 0; root < n; root++ {
		if state[root] != unvisited {
			continue
		}

		enter(root)
		call := []frame{{node: root}}

		for len(call) > 0 {
			top := len(call) - 1
			v := call[top].node

			if call[top].next < len(g.adj[v]) {
				w := g.adj[v][call[top].next]
				call[top].next++

				if w == v {
					selfLoop[v] = true
				}
				switch {
				case state[w] == unvisited:
					enter(w)
					call = append(call, frame{node: w})
				case onStack[w]:
					low[v] = min(low[v], disc[w])
				}
				continue
			}

			call = call[:top]
			state[v] = done
			if len(call) > 0 {
				parent := call[len(call)-1].node
				low[parent] = min(low[parent], low[v])
			}

			if low[v] != disc[v] {
				continue
			}

			var component []int
			for {
				last := len(sccStack) - 1
				w := sccStack[last]
				sccStack = sccStack[:last]
				onStack[w] = false
				component = append(component, w)
				if w == v {
					break
				}
			}
			if len(component) > 1 || selfLoop[v] {
				slices.Sort(component)
				components = append(components, component)
			}
		}
	}

	report := CycleReport{}
	if len(components) == 0 {
		return report
	}

	slices.SortFunc(components, func(a, b []int) int { return a[0] - b[0] })

	var members []int
	for _, c := range components {
		ids := make([]string, len(c))
		for i, idx := range c {
			ids[i] = g.ids[idx]
		}
		report.Components = append(report.Components, ids)
		members = append(members, c...)
	}
	slices.Sort(members)
	for _, idx := range members {
		report.Members = append(report.Members, g.ids[idx])
	}

	report.HasCycles = true
	report.Count = len(report.Components)
	return report
}

// DetectCycles finds cycle members and quarantines them in place: each member
// gets the error status and CycleErrorMessage. Readiness recomputation never
// touches an error task again, so the quarantine is permanent.
func DetectCycles(tasks []*domain.Task) CycleReport {
	report := FindCycles(tasks)
	if !report.HasCycles {
		return report
	}

	members := make(map[string]struct{}, len(report.Members))
	for _, id := range report.Members {
		members[id] = struct{}{}
	}
	for _, t := range tasks {
		if _, ok := members[t.ID]; ok {
			t.Status = domain.TaskStatusError
			t.ErrorMessage = CycleErrorMessage
		}
	}
	return report
}

// TopologicalSort returns task ids ordered so that every dependency precedes
// the tasks that depend on it. Ties follow batch order. If the graph has a
// cycle, it returns a *CycleError wrapping ErrCycleDetected.
func TopologicalSort(tasks []*domain.Task) ([]string, error) {
	// Edges point from a dependency to its dependents; reverse post-order
	// then yields dependencies first.
	g := newGraph(tasks, true)
	n := len(g.ids)

	state := make([]visitState, n)
	post := make([]int, 0, n)

	// Visit roots in reverse batch order so that, after reversal, independent
	// tasks keep their batch order.
	for root := n - 1; root >= 0; root-- {
		if state[root] != unvisited {
			continue
		}

		state[root] = onPath
		call := []frame{{node: root}}

		for len(call) > 0 {
			top := len(call) - 1
			v := call[top].node

			if call[top].next < len(g.adj[v]) {
				w := g.adj[v][call[top].next]
				call[top].next++

				switch state[w] {
				case unvisited:
					state[w] = onPath
					call = append(call, frame{node: w})
				case onPath:
					return nil, &CycleError{Path: g.witness(call, w)}
				}
				continue
			}

			call = call[:top]
			state[v] = done
			post = append(post, v)
		}
	}

	order := make([]string, n)
	for i, idx := range post {
		order[n-1-i] = g.ids[idx]
	}
	return order, nil
}

// frame is one level of an explicit depth-first traversal: the node being
// expanded and the index of its next unexplored edge.
type frame struct {
	node int
	next int
}

type graph struct {
	ids []string
	adj [][]int
}

// newGraph indexes tasks by batch position. With dependents=false an edge runs
// from a task to each of its dependencies; with dependents=true the edges are
// reversed.
func newGraph(tasks []*domain.Task, dependents bool) *graph {
	g := &graph{
		ids: make([]string, len(tasks)),
		adj: make([][]int, len(tasks)),
	}
	index := make(map[string]int, len(tasks))
	for i, t := range tasks {
		g.ids[i] = t.ID
		if _, ok := index[t.ID]; !ok {
			index[t.ID] = i
		}
	}
	for i, t := range tasks {
		for _, dep := range t.Dependencies {
			j, ok := index[dep]
			if !ok {
				continue
			}
			if dependents {
				g.adj[j] = append(g.adj[j], i)
			} else {
				g.adj[i] = append(g.adj[i], j)
			}
		}
	}
	return g
}

// witness renders the cycle closed by an edge into target, using the frames
// currently on the traversal path.
func (g *graph) witness(call []frame, target int) []string {
	start := 0
	for i, f := range call {
		if f.node == target {
			start = i
			break
		}
	}
	path := make([]string, 0, len(call)-start+1)
	for _, f := range call[start:] {
		path = append(path, g.ids[f.node])
	}
	return append(path, g.ids[target])
}
