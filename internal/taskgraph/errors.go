package taskgraph

import (
	"errors"
	"fmt"
	"strings"
)

// ErrCycleDetected is returned by TopologicalSort when the graph is not acyclic.
var ErrCycleDetected = errors.New("dependency cycle detected")

// CycleErrorMessage is the diagnostic stored on every task quarantined because
// it participates in a dependency cycle.
const CycleErrorMessage = "Circular dependency detected: this task is part of a dependency cycle and cannot be completed"

// CycleError carries one witness cycle found while ordering a graph.
type CycleError struct {
	Path []string
}

// Error implements the error interface.
func (e *CycleError) Error() string {
	if len(e.Path) == 0 {
		return ErrCycleDetected.Error()
	}
	return fmt.Sprintf("%s: %s", ErrCycleDetected.Error(), strings.Join(e.Path, " -> "))
}

// Unwrap returns ErrCycleDetected.
func (e *CycleError) Unwrap() error { return ErrCycleDetected }
