// Villager spawning — issues IDs and rolls personality for new agents.
package villager

import (
	"math/rand"

	"github.com/talgya/hamlet/internal/world"
)

// Spawner creates villagers with deterministic, seed-derived variation.
type Spawner struct {
	rng    *rand.Rand
	nextID ID
}

// NewSpawner creates a spawner seeded from the world seed.
func NewSpawner(seed int64) *Spawner {
	return &Spawner{
		rng:    rand.New(rand.NewSource(seed + 300)),
		nextID: 1,
	}
}

// SetNextID sets the next ID to issue (used when restoring from the DB).
func (s *Spawner) SetNextID(id ID) {
	s.nextID = id
}

// NextID returns the ID the next spawn would receive.
func (s *Spawner) NextID() ID {
	return s.nextID
}

// Spawn creates one villager at the given position.
func (s *Spawner) Spawn(pos world.Coord, age uint16, tick uint64) *Villager {
	id := s.nextID
	s.nextID++

	v := &Villager{
		ID:          id,
		Position:    pos,
		State:       StateIdle,
		Capacity:    CarryCapacity,
		Personality: s.rollPersonality(),
		Mood:        MoodNeutral,
		Age:         age,
		BornTick:    tick,
	}
	v.refreshStage()
	return v
}

func (s *Spawner) rollPersonality() Personality {
	switch s.rng.Intn(4) {
	case 0:
		return PersonalityLazy
	case 1:
		return PersonalityIndustrious
	case 2:
		return PersonalitySocial
	default:
		return PersonalitySteady
	}
}
