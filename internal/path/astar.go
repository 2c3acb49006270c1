package path

import (
	"container/heap"

	"github.com/talgya/hamlet/internal/world"
)

// DefaultMaxNodes bounds A* expansion on the sparse world. Large enough for
// any plausible villager trip, small enough to stop runaway searches toward
// unreachable goals.
const DefaultMaxNodes = 50000

// Engine runs searches over the world grid. Walkable is consulted for every
// candidate tile, so building footprints can be layered on top of terrain.
type Engine struct {
	Walkable func(world.Coord) bool
}

// NewEngine creates a pathfinding engine over the given passability test.
func NewEngine(walkable func(world.Coord) bool) *Engine {
	return &Engine{Walkable: walkable}
}

type pqNode struct {
	pos   world.Coord
	f     int
	order int // insertion counter; FIFO among equal f keeps results deterministic
}

type pqueue []pqNode

func (q pqueue) Len() int { return len(q) }
func (q pqueue) Less(i, j int) bool {
	if q[i].f != q[j].f {
		return q[i].f < q[j].f
	}
	return q[i].order < q[j].order
}
func (q pqueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *pqueue) Push(x any)        { *q = append(*q, x.(pqNode)) }
func (q *pqueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// FindPath computes a shortest 4-connected path from start to goal using A*
// with a Manhattan heuristic (admissible for unit step costs). The returned
// path includes both endpoints. Expansion stops with ErrBudgetExceeded once
// maxNodes tiles have been expanded; maxNodes <= 0 uses DefaultMaxNodes.
func (e *Engine) FindPath(start, goal world.Coord, maxNodes int) ([]world.Coord, error) {
	if maxNodes <= 0 {
		maxNodes = DefaultMaxNodes
	}
	if start == goal {
		return []world.Coord{start}, nil
	}

	open := &pqueue{{pos: start, f: start.Manhattan(goal)}}
	heap.Init(open)
	gScore := map[world.Coord]int{start: 0}
	cameFrom := map[world.Coord]world.Coord{}
	closed := map[world.Coord]struct{}{}
	counter := 1
	expanded := 0

	for open.Len() > 0 {
		current := heap.Pop(open).(pqNode).pos
		if current == goal {
			return reconstruct(cameFrom, current), nil
		}
		if _, done := closed[current]; done {
			continue
		}
		closed[current] = struct{}{}

		expanded++
		if expanded > maxNodes {
			return nil, ErrBudgetExceeded
		}

		g := gScore[current]
		for _, n := range current.Neighbors4() {
			if !e.Walkable(n) {
				continue
			}
			tentative := g + 1
			if prev, ok := gScore[n]; ok && tentative >= prev {
				continue
			}
			cameFrom[n] = current
			gScore[n] = tentative
			heap.Push(open, pqNode{pos: n, f: tentative + n.Manhattan(goal), order: counter})
			counter++
		}
	}

	return nil, ErrNotFound
}

func reconstruct(cameFrom map[world.Coord]world.Coord, current world.Coord) []world.Coord {
	path := []world.Coord{current}
	for {
		prev, ok := cameFrom[current]
		if !ok {
			break
		}
		current = prev
		path = append(path, current)
	}
	// Reverse in place: cameFrom chains run goal → start.
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}
