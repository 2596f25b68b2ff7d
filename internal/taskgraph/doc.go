// Package taskgraph turns the untrusted task list proposed by an extractor into
// a consistent dependency graph.
//
// The pipeline has three stages, each usable on its own:
//
//   - Sanitize repairs the raw proposals: it backfills missing ids, defaults
//     invalid priorities, and drops dependency references that do not resolve
//     to a sibling task.
//   - DetectCycles finds every task that sits on a dependency cycle and
//     quarantines it with the terminal error status.
//   - RecomputeReadiness derives ready/blocked for every non-terminal task from
//     the set of completed task ids.
//
// TopologicalSort orders an acyclic batch so that dependencies precede their
// dependents. None of these functions perform I/O.
package taskgraph
