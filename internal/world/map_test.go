package world

import (
	"testing"
)

func TestExtractClampsAtZero(t *testing.T) {
	m := NewMap(nil)
	c := Coord{X: 1, Y: 1}
	m.SetTile(c, Tile{Kind: TileForest, Resource: ResourceWood, Amount: 5, Walkable: true})

	if got := m.Extract(c, 3); got != 3 {
		t.Fatalf("extract = %d, want 3", got)
	}
	if got := m.Extract(c, 10); got != 2 {
		t.Fatalf("extract = %d, want remaining 2", got)
	}
	if got := m.Extract(c, 1); got != 0 {
		t.Fatalf("extract from drained tile = %d, want 0", got)
	}
	if _, amt := m.ResourceAt(c); amt != 0 {
		t.Fatalf("amount = %d after draining, want 0", amt)
	}
	// The tile keeps its kind; only the yield is gone.
	if tile := m.GetTile(c); tile.Kind != TileForest {
		t.Fatalf("kind = %v after draining, want forest", tile.Kind)
	}
}

func TestSectorDiscoveryFiresOncePerSector(t *testing.T) {
	gen := NewTerrainGenerator(GenConfig{Seed: 9, SeaLevel: 0.30, MountainLvl: 0.80, ForestLvl: 0.60})
	m := NewMap(gen)

	var fired []Rect
	m.OnDiscover = func(bounds Rect) { fired = append(fired, bounds) }

	m.GetTile(Coord{X: 3, Y: 3})
	m.GetTile(Coord{X: 10, Y: 10}) // same sector
	if len(fired) != 1 {
		t.Fatalf("discovery fired %d times within one sector, want 1", len(fired))
	}
	if b := fired[0]; b.MinX != 0 || b.MaxX != SectorSize-1 {
		t.Fatalf("sector bounds = %+v", b)
	}

	m.GetTile(Coord{X: -1, Y: 0}) // negative coords map to their own sector
	if len(fired) != 2 {
		t.Fatalf("discovery fired %d times after crossing a sector edge, want 2", len(fired))
	}
	if b := fired[1]; b.MinX != -SectorSize || b.MaxX != -1 {
		t.Fatalf("negative sector bounds = %+v", b)
	}
}

func TestTerrainDeterministic(t *testing.T) {
	cfg := GenConfig{Seed: 33, SeaLevel: 0.30, MountainLvl: 0.80, ForestLvl: 0.60}
	a := NewTerrainGenerator(cfg)
	b := NewTerrainGenerator(cfg)

	for x := -20; x <= 20; x += 5 {
		for y := -20; y <= 20; y += 5 {
			if a.TileAt(x, y) != b.TileAt(x, y) {
				t.Fatalf("tile (%d,%d) differs between generators with the same seed", x, y)
			}
		}
	}
}

func TestNeighbors4Order(t *testing.T) {
	c := Coord{X: 2, Y: 7}
	got := c.Neighbors4()
	want := [4]Coord{{3, 7}, {1, 7}, {2, 8}, {2, 6}}
	if got != want {
		t.Fatalf("neighbor order = %v, want %v", got, want)
	}
}

func TestRestoreTilesSkipsRediscovery(t *testing.T) {
	gen := NewTerrainGenerator(GenConfig{Seed: 9, SeaLevel: 0.30, MountainLvl: 0.80, ForestLvl: 0.60})
	m := NewMap(gen)
	m.GetTile(Coord{X: 5, Y: 5})

	saved := m.Tiles()

	m2 := NewMap(gen)
	fired := 0
	m2.OnDiscover = func(Rect) { fired++ }
	m2.RestoreTiles(saved)

	m2.GetTile(Coord{X: 6, Y: 6}) // same sector as the restored tile
	if fired != 0 {
		t.Fatalf("discovery re-fired %d times for a restored sector", fired)
	}
}
