package path

import (
	"errors"
	"testing"

	"github.com/talgya/hamlet/internal/world"
)

func TestFindNearestReturnsClosestMatch(t *testing.T) {
	e := openGrid()
	target := world.Coord{X: 4, Y: 0}
	far := world.Coord{X: 9, Y: 0}
	match := func(c world.Coord) bool { return c == target || c == far }

	found, p, err := e.FindNearest(world.Coord{X: 0, Y: 0}, match, 0)
	if err != nil {
		t.Fatalf("find nearest: %v", err)
	}
	if found != target {
		t.Fatalf("found %v, want nearer %v", found, target)
	}
	if len(p) != 5 {
		t.Fatalf("path length = %d, want 5", len(p))
	}
}

func TestFindNearestStartTileMatches(t *testing.T) {
	e := openGrid()
	start := world.Coord{X: 1, Y: 1}
	found, p, err := e.FindNearest(start, func(c world.Coord) bool { return c == start }, 0)
	if err != nil {
		t.Fatalf("find nearest: %v", err)
	}
	if found != start || len(p) != 1 {
		t.Fatalf("found %v path %v, want start with single-tile path", found, p)
	}
}

func TestFindNearestDeterministicTieBreak(t *testing.T) {
	e := openGrid()
	// Two matches at equal distance; the fixed expansion order must always
	// pick the same one.
	a := world.Coord{X: 2, Y: 0}
	b := world.Coord{X: 0, Y: 2}
	match := func(c world.Coord) bool { return c == a || c == b }

	first, _, err := e.FindNearest(world.Coord{X: 0, Y: 0}, match, 0)
	if err != nil {
		t.Fatalf("find nearest: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, _, err := e.FindNearest(world.Coord{X: 0, Y: 0}, match, 0)
		if err != nil {
			t.Fatalf("find nearest: %v", err)
		}
		if again != first {
			t.Fatalf("run %d: found %v, want %v", i, again, first)
		}
	}
}

func TestFindNearestBudgetExceeded(t *testing.T) {
	e := openGrid()
	_, _, err := e.FindNearest(world.Coord{X: 0, Y: 0}, func(world.Coord) bool { return false }, 50)
	if !errors.Is(err, ErrBudgetExceeded) {
		t.Fatalf("err = %v, want ErrBudgetExceeded", err)
	}
}

func TestFindNearestExhaustedReturnsNotFound(t *testing.T) {
	// A 3x3 walkable pocket with nothing matching: the frontier drains well
	// inside the budget.
	e := NewEngine(func(c world.Coord) bool {
		return c.X >= 0 && c.X < 3 && c.Y >= 0 && c.Y < 3
	})
	_, _, err := e.FindNearest(world.Coord{X: 1, Y: 1}, func(world.Coord) bool { return false }, 0)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

// Regression: a resource a mere 10 tiles away must be found even though the
// global budget is in the thousands — the escalating search may not give up
// early or burn the whole budget overshooting.
func TestFindNearestEscalatingFindsNearbyTarget(t *testing.T) {
	e := openGrid()
	target := world.Coord{X: 10, Y: 0}

	found, p, err := e.FindNearestEscalating(world.Coord{X: 0, Y: 0}, func(c world.Coord) bool {
		return c == target
	}, DefaultNearestBudget)
	if err != nil {
		t.Fatalf("escalating search failed for target 10 tiles away: %v", err)
	}
	if found != target {
		t.Fatalf("found %v, want %v", found, target)
	}
	if len(p) != 11 {
		t.Fatalf("path length = %d, want 11", len(p))
	}
}

func TestFindNearestEscalatingStopsOnExhaustion(t *testing.T) {
	e := NewEngine(func(c world.Coord) bool {
		return c.X >= 0 && c.X < 4 && c.Y >= 0 && c.Y < 4
	})
	_, _, err := e.FindNearestEscalating(world.Coord{X: 0, Y: 0}, func(world.Coord) bool { return false }, DefaultNearestBudget)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestFindNearestEscalatingReportsBudgetExhausted(t *testing.T) {
	e := openGrid()
	_, _, err := e.FindNearestEscalating(world.Coord{X: 0, Y: 0}, func(world.Coord) bool { return false }, 500)
	if !errors.Is(err, ErrBudgetExceeded) {
		t.Fatalf("err = %v, want ErrBudgetExceeded", err)
	}
}
