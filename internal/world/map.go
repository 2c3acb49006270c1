package world

// SectorSize is the edge length of the square sectors used to track which
// parts of the world have been generated. The first query inside a sector
// fires the discovery callback so caches covering that region can rescan.
const SectorSize = 32

// Map is the sparse world grid. Tiles are generated lazily by the terrain
// oracle on first access and cached; every later read and all mutation go
// through the cache, so agents always observe current state.
type Map struct {
	gen   *TerrainGenerator
	tiles map[Coord]Tile

	sectors map[Coord]struct{}

	// OnDiscover is invoked when a query first touches an ungenerated
	// sector. Optional; wired to the resource cluster index.
	OnDiscover func(bounds Rect)
}

// NewMap creates an empty map backed by the given generator.
func NewMap(gen *TerrainGenerator) *Map {
	return &Map{
		gen:     gen,
		tiles:   make(map[Coord]Tile),
		sectors: make(map[Coord]struct{}),
	}
}

// GetTile returns the tile at c, generating and caching it if needed.
func (m *Map) GetTile(c Coord) Tile {
	if t, ok := m.tiles[c]; ok {
		return t
	}
	m.noteSector(c)
	t := m.gen.TileAt(c.X, c.Y)
	m.tiles[c] = t
	return t
}

// SetTile overwrites the tile at c. Used for settlement bootstrap (clearing
// start areas) and building footprints.
func (m *Map) SetTile(c Coord, t Tile) {
	m.tiles[c] = t
}

// Walkable reports whether the tile at c can be traversed.
func (m *Map) Walkable(c Coord) bool {
	return m.GetTile(c).Walkable
}

// Extract removes up to amount resource units from the tile at c and
// returns the quantity actually taken. The tile's amount never goes
// negative; a drained tile keeps its kind but yields nothing further.
func (m *Map) Extract(c Coord, amount int) int {
	t := m.GetTile(c)
	if t.Resource == ResourceNone || t.Amount <= 0 || amount <= 0 {
		return 0
	}
	taken := amount
	if taken > t.Amount {
		taken = t.Amount
	}
	t.Amount -= taken
	m.tiles[c] = t
	return taken
}

// ResourceAt returns the resource kind and remaining amount at c.
func (m *Map) ResourceAt(c Coord) (ResourceKind, int) {
	t := m.GetTile(c)
	return t.Resource, t.Amount
}

// GeneratedCount returns how many tiles have been generated so far.
func (m *Map) GeneratedCount() int {
	return len(m.tiles)
}

// Tiles exposes the generated-tile cache for persistence snapshots.
func (m *Map) Tiles() map[Coord]Tile {
	return m.tiles
}

// RestoreTiles replaces the cache with previously persisted tiles. Sector
// bookkeeping is rebuilt so discovery callbacks do not re-fire for them.
func (m *Map) RestoreTiles(tiles map[Coord]Tile) {
	m.tiles = tiles
	m.sectors = make(map[Coord]struct{})
	for c := range tiles {
		m.sectors[sectorOf(c)] = struct{}{}
	}
}

func (m *Map) noteSector(c Coord) {
	s := sectorOf(c)
	if _, seen := m.sectors[s]; seen {
		return
	}
	m.sectors[s] = struct{}{}
	if m.OnDiscover != nil {
		m.OnDiscover(Rect{
			MinX: s.X * SectorSize,
			MinY: s.Y * SectorSize,
			MaxX: s.X*SectorSize + SectorSize - 1,
			MaxY: s.Y*SectorSize + SectorSize - 1,
		})
	}
}

func sectorOf(c Coord) Coord {
	return Coord{floorDiv(c.X, SectorSize), floorDiv(c.Y, SectorSize)}
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && (a < 0) != (b < 0) {
		q--
	}
	return q
}
