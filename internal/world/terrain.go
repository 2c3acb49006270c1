// Terrain generation using layered simplex noise.
// Elevation and moisture layers derive terrain kind and resource seeding.
package world

import (
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
)

// GenConfig holds terrain generation parameters.
type GenConfig struct {
	Seed        int64   // World seed; the oracle is deterministic for a given seed
	SeaLevel    float64 // Elevation below this is water
	MountainLvl float64 // Elevation above this is stone outcrop
	ForestLvl   float64 // Moisture above this grows forest
}

// DefaultGenConfig returns the standard world tuning.
func DefaultGenConfig() GenConfig {
	return GenConfig{
		Seed:        42,
		SeaLevel:    0.30,
		MountainLvl: 0.80,
		ForestLvl:   0.60,
	}
}

// TerrainGenerator answers tile queries for any coordinate. It is a pure
// function of (seed, coordinate); the Map memoizes results, not the generator.
type TerrainGenerator struct {
	cfg       GenConfig
	elevNoise opensimplex.Noise
	wetNoise  opensimplex.Noise
	seedRand  *rand.Rand
}

// NewTerrainGenerator creates a generator for the given config.
func NewTerrainGenerator(cfg GenConfig) *TerrainGenerator {
	return &TerrainGenerator{
		cfg:       cfg,
		elevNoise: opensimplex.NewNormalized(cfg.Seed),
		wetNoise:  opensimplex.NewNormalized(cfg.Seed + 1),
		seedRand:  rand.New(rand.NewSource(cfg.Seed + 100)),
	}
}

// TileAt returns the terrain at (x, y). Idempotent for a given seed.
func (g *TerrainGenerator) TileAt(x, y int) Tile {
	elev := octaveNoise(g.elevNoise, float64(x), float64(y), 4, 0.01, 0.5)
	wet := octaveNoise(g.wetNoise, float64(x)+1000, float64(y)+1000, 3, 0.01, 0.5)

	if elev < g.cfg.SeaLevel {
		return Tile{Kind: TileWater, Walkable: false}
	}
	if elev > g.cfg.MountainLvl {
		return Tile{Kind: TileStone, Resource: ResourceStone, Amount: 100, Walkable: true}
	}
	if wet > g.cfg.ForestLvl {
		// Forest tiles mostly carry harvestable wood; a few are barren scrub.
		amt := 0
		if hashNoise(g.cfg.Seed, x+1, y+1) > 0.2 {
			amt = 100
		}
		return Tile{Kind: TileForest, Resource: ResourceWood, Amount: amt, Walkable: true}
	}
	return Tile{Kind: TileGrass, Walkable: true}
}

// SampleResourceTiles draws count random coordinates within radius of the
// origin and returns those carrying a live resource. Used to prime the
// cluster index with known deposits at world start.
func (g *TerrainGenerator) SampleResourceTiles(origin Coord, radius, count int) []Coord {
	var found []Coord
	for i := 0; i < count; i++ {
		x := origin.X + g.seedRand.Intn(2*radius+1) - radius
		y := origin.Y + g.seedRand.Intn(2*radius+1) - radius
		t := g.TileAt(x, y)
		if t.Resource != ResourceNone && t.Amount > 0 {
			found = append(found, Coord{x, y})
		}
	}
	return found
}

// octaveNoise sums multiple noise octaves for natural-looking terrain.
func octaveNoise(n opensimplex.Noise, x, y float64, octaves int, freq, persistence float64) float64 {
	var total, amplitude, maxValue float64
	amplitude = 1.0
	f := freq
	for i := 0; i < octaves; i++ {
		total += n.Eval2(x*f, y*f) * amplitude
		maxValue += amplitude
		amplitude *= persistence
		f *= 2
	}
	return total / maxValue
}

// hashNoise is a cheap deterministic per-tile hash in [0, 1), used for
// sparse features where smooth noise would look too uniform.
func hashNoise(seed int64, x, y int) float64 {
	h := uint64(seed) ^ uint64(x)*0x9E3779B97F4A7C15 ^ uint64(y)*0xC2B2AE3D27D4EB4F
	h ^= h >> 33
	h *= 0xFF51AFD7ED558CCD
	h ^= h >> 33
	return float64(h%1_000_000) / 1_000_000
}
