package path

import (
	"errors"

	"github.com/talgya/hamlet/internal/world"
)

// Escalation tuning for FindNearestEscalating. A nearby target is found in
// the first round or two for a few hundred expansions; only genuinely
// distant targets pay for the full budget.
const (
	InitialNearestBudget = 64
	EscalationFactor     = 4
	DefaultNearestBudget = 10000
)

// FindNearest runs a bounded breadth-first search outward from start and
// returns the first tile for which match returns true, together with the
// BFS path to it. Expansion order is fixed (the Neighbors4 scan order), so
// among equally distant matches the result is deterministic.
//
// The start tile itself is tested first. Returns ErrBudgetExceeded if
// maxNodes tiles were expanded without exhausting the frontier, ErrNotFound
// if the reachable region was fully explored.
func (e *Engine) FindNearest(start world.Coord, match func(world.Coord) bool, maxNodes int) (world.Coord, []world.Coord, error) {
	if maxNodes <= 0 {
		maxNodes = DefaultNearestBudget
	}

	frontier := []world.Coord{start}
	cameFrom := map[world.Coord]world.Coord{}
	visited := map[world.Coord]struct{}{start: {}}
	expanded := 0

	for len(frontier) > 0 {
		current := frontier[0]
		frontier = frontier[1:]

		if match(current) {
			return current, reconstruct(cameFrom, current), nil
		}

		expanded++
		if expanded > maxNodes {
			return world.Coord{}, nil, ErrBudgetExceeded
		}

		for _, n := range current.Neighbors4() {
			if _, seen := visited[n]; seen {
				continue
			}
			if !e.Walkable(n) {
				continue
			}
			visited[n] = struct{}{}
			cameFrom[n] = current
			frontier = append(frontier, n)
		}
	}

	return world.Coord{}, nil, ErrNotFound
}

// FindNearestEscalating retries FindNearest with a geometrically growing
// budget, starting small and multiplying by EscalationFactor until maxNodes.
// A target a handful of tiles away is found almost immediately instead of
// after (or worse, instead of never, because of) a full-budget sweep.
func (e *Engine) FindNearestEscalating(start world.Coord, match func(world.Coord) bool, maxNodes int) (world.Coord, []world.Coord, error) {
	if maxNodes <= 0 {
		maxNodes = DefaultNearestBudget
	}

	budget := InitialNearestBudget
	for {
		if budget > maxNodes {
			budget = maxNodes
		}
		found, p, err := e.FindNearest(start, match, budget)
		if err == nil {
			return found, p, nil
		}
		if errors.Is(err, ErrNotFound) {
			// Frontier exhausted: growing the budget cannot help.
			return world.Coord{}, nil, ErrNotFound
		}
		if budget >= maxNodes {
			return world.Coord{}, nil, ErrBudgetExceeded
		}
		budget *= EscalationFactor
	}
}
