// Package path provides grid pathfinding: A* shortest paths and bounded
// breadth-first nearest-tile searches with escalating node budgets.
package path

import "errors"

var (
	// ErrNotFound means the search space was exhausted within budget:
	// no path or matching tile exists in the reachable region.
	ErrNotFound = errors.New("path: not found")

	// ErrBudgetExceeded means the node budget ran out before the search
	// space was exhausted. Callers should retry with a larger budget per
	// the escalation policy rather than treating the target as absent.
	ErrBudgetExceeded = errors.New("path: search budget exceeded")
)
