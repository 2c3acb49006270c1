package path

import (
	"errors"
	"testing"

	"github.com/talgya/hamlet/internal/world"
)

func openGrid() *Engine {
	return NewEngine(func(world.Coord) bool { return true })
}

func TestFindPathStraightLineIsShortest(t *testing.T) {
	e := openGrid()
	start := world.Coord{X: 0, Y: 0}
	goal := world.Coord{X: 7, Y: 3}

	p, err := e.FindPath(start, goal, 0)
	if err != nil {
		t.Fatalf("find path: %v", err)
	}
	want := start.Manhattan(goal) + 1
	if len(p) != want {
		t.Fatalf("path length = %d, want %d", len(p), want)
	}
	if p[0] != start || p[len(p)-1] != goal {
		t.Fatalf("path endpoints = %v..%v, want %v..%v", p[0], p[len(p)-1], start, goal)
	}
	for i := 1; i < len(p); i++ {
		if p[i].Manhattan(p[i-1]) != 1 {
			t.Fatalf("step %d not adjacent: %v -> %v", i, p[i-1], p[i])
		}
	}
}

func TestFindPathDetoursAroundWall(t *testing.T) {
	// Vertical wall at x=5 with a single gap at y=10.
	e := NewEngine(func(c world.Coord) bool {
		if c.X == 5 && c.Y != 10 {
			return false
		}
		return true
	})

	p, err := e.FindPath(world.Coord{X: 0, Y: 0}, world.Coord{X: 10, Y: 0}, 0)
	if err != nil {
		t.Fatalf("find path: %v", err)
	}
	// Must route through the gap.
	seen := false
	for _, c := range p {
		if c == (world.Coord{X: 5, Y: 10}) {
			seen = true
		}
		if c.X == 5 && c.Y != 10 {
			t.Fatalf("path crosses wall at %v", c)
		}
	}
	if !seen {
		t.Fatal("path did not use the gap at (5,10)")
	}
}

func TestFindPathEnclosedReturnsNotFound(t *testing.T) {
	// Start is boxed in: only the start tile itself is walkable.
	start := world.Coord{X: 0, Y: 0}
	e := NewEngine(func(c world.Coord) bool { return c == start })

	_, err := e.FindPath(start, world.Coord{X: 3, Y: 0}, 0)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestFindPathBudgetExceeded(t *testing.T) {
	e := openGrid()
	_, err := e.FindPath(world.Coord{X: 0, Y: 0}, world.Coord{X: 500, Y: 500}, 10)
	if !errors.Is(err, ErrBudgetExceeded) {
		t.Fatalf("err = %v, want ErrBudgetExceeded", err)
	}
}

func TestFindPathDeterministic(t *testing.T) {
	e := openGrid()
	start := world.Coord{X: -3, Y: -3}
	goal := world.Coord{X: 4, Y: 5}

	first, err := e.FindPath(start, goal, 0)
	if err != nil {
		t.Fatalf("find path: %v", err)
	}
	for i := 0; i < 5; i++ {
		again, err := e.FindPath(start, goal, 0)
		if err != nil {
			t.Fatalf("find path: %v", err)
		}
		if len(again) != len(first) {
			t.Fatalf("run %d: length %d, want %d", i, len(again), len(first))
		}
		for j := range again {
			if again[j] != first[j] {
				t.Fatalf("run %d: step %d = %v, want %v", i, j, again[j], first[j])
			}
		}
	}
}

func TestFindPathTrivial(t *testing.T) {
	e := openGrid()
	c := world.Coord{X: 2, Y: 2}
	p, err := e.FindPath(c, c, 0)
	if err != nil {
		t.Fatalf("find path: %v", err)
	}
	if len(p) != 1 || p[0] != c {
		t.Fatalf("path = %v, want [%v]", p, c)
	}
}
