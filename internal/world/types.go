// Package world provides the tile data model, the terrain oracle, and the
// lazily-populated map the simulation runs on.
package world

// Coord is an integer tile coordinate on the world grid.
type Coord struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Manhattan returns the Manhattan distance to other.
func (c Coord) Manhattan(other Coord) int {
	return abs(c.X-other.X) + abs(c.Y-other.Y)
}

// Neighbors4 returns the four orthogonal neighbors in a fixed scan order.
// The order matters: BFS expansion relies on it for deterministic results.
func (c Coord) Neighbors4() [4]Coord {
	return [4]Coord{
		{c.X + 1, c.Y},
		{c.X - 1, c.Y},
		{c.X, c.Y + 1},
		{c.X, c.Y - 1},
	}
}

// Rect is an axis-aligned region of tiles, inclusive on all edges.
type Rect struct {
	MinX, MinY int
	MaxX, MaxY int
}

// Contains reports whether c lies inside the rectangle.
func (r Rect) Contains(c Coord) bool {
	return c.X >= r.MinX && c.X <= r.MaxX && c.Y >= r.MinY && c.Y <= r.MaxY
}

// TileKind is the terrain classification of a tile.
type TileKind uint8

const (
	TileGrass TileKind = iota
	TileForest
	TileStone
	TileWater
)

// TileKindName returns a human-readable name for a tile kind.
func TileKindName(k TileKind) string {
	switch k {
	case TileGrass:
		return "grass"
	case TileForest:
		return "forest"
	case TileStone:
		return "stone"
	case TileWater:
		return "water"
	default:
		return "unknown"
	}
}

// ResourceKind identifies a gatherable resource.
type ResourceKind uint8

const (
	ResourceNone ResourceKind = iota
	ResourceWood
	ResourceStone
	ResourceFood
)

// NumResources is the number of resource kinds, including ResourceNone.
const NumResources = 4

// ResourceName returns a human-readable name for a resource kind.
func ResourceName(r ResourceKind) string {
	switch r {
	case ResourceWood:
		return "wood"
	case ResourceStone:
		return "stone"
	case ResourceFood:
		return "food"
	default:
		return "none"
	}
}

// Tile is a single cell of the world grid.
type Tile struct {
	Kind     TileKind     `json:"kind"`
	Resource ResourceKind `json:"resource"`
	Amount   int          `json:"amount"`
	Walkable bool         `json:"walkable"`
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
