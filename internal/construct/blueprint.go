// Package construct tracks building blueprints, in-progress construction,
// material delivery, and finalization. Completed buildings feed back into
// the wider simulation: houses spawn villagers, lumberyards bias the wood
// cluster index, farms produce food on a fixed interval.
package construct

import (
	"github.com/talgya/hamlet/internal/world"
)

// Kind enumerates building types.
type Kind uint8

const (
	KindTownHall Kind = iota
	KindStorage
	KindHouse
	KindLumberyard
	KindFarm
	KindQuarry
	KindBlacksmith
	KindMarketplace
	KindWatchtower
	KindRoad
)

// KindName returns a human-readable building name.
func KindName(k Kind) string {
	switch k {
	case KindTownHall:
		return "town hall"
	case KindStorage:
		return "storage"
	case KindHouse:
		return "house"
	case KindLumberyard:
		return "lumberyard"
	case KindFarm:
		return "farm"
	case KindQuarry:
		return "quarry"
	case KindBlacksmith:
		return "blacksmith"
	case KindMarketplace:
		return "marketplace"
	case KindWatchtower:
		return "watchtower"
	case KindRoad:
		return "road"
	default:
		return "unknown"
	}
}

// Materials maps resource kind to a quantity, indexed by world.ResourceKind.
type Materials [world.NumResources]int

// Blueprint is the template for one building type.
type Blueprint struct {
	Kind      Kind
	Effort    int           // build strokes required after materials arrive
	Footprint []world.Coord // cell offsets from the anchor position
	Cost      Materials     // required materials
	Capacity  int           // residents, for houses
	Passable  bool          // complete building can be walked over (roads)
}

// singleCell is the footprint shared by every current blueprint. Larger
// footprints work; none of the roster needs one yet.
var singleCell = []world.Coord{{X: 0, Y: 0}}

// Blueprints is the building roster with costs and build effort.
var Blueprints = map[Kind]Blueprint{
	// Town hall and storage stay walkable: villagers stand on them to
	// deliver, matching the plaza-like footprint of the settlement core.
	KindTownHall:    {Kind: KindTownHall, Effort: 30, Footprint: singleCell, Cost: costOf(40, 40), Passable: true},
	KindStorage:     {Kind: KindStorage, Effort: 12, Footprint: singleCell, Cost: costOf(20, 10), Passable: true},
	KindHouse:       {Kind: KindHouse, Effort: 15, Footprint: singleCell, Cost: costOf(15, 0), Capacity: 2},
	KindLumberyard:  {Kind: KindLumberyard, Effort: 10, Footprint: singleCell, Cost: costOf(10, 0)},
	KindFarm:        {Kind: KindFarm, Effort: 8, Footprint: singleCell, Cost: costOf(10, 5)},
	KindQuarry:      {Kind: KindQuarry, Effort: 12, Footprint: singleCell, Cost: costOf(15, 10)},
	KindBlacksmith:  {Kind: KindBlacksmith, Effort: 25, Footprint: singleCell, Cost: costOf(20, 30)},
	KindMarketplace: {Kind: KindMarketplace, Effort: 18, Footprint: singleCell, Cost: costOf(25, 20)},
	KindWatchtower:  {Kind: KindWatchtower, Effort: 20, Footprint: singleCell, Cost: costOf(10, 25)},
	KindRoad:        {Kind: KindRoad, Effort: 2, Footprint: singleCell, Cost: costOf(0, 2), Passable: true},
}

func costOf(wood, stone int) Materials {
	var m Materials
	m[world.ResourceWood] = wood
	m[world.ResourceStone] = stone
	return m
}

// Building is a placed instance: a blueprint under construction until
// Complete, then part of the world.
type Building struct {
	ID        uint64      `json:"id"`
	Kind      Kind        `json:"kind"`
	Position  world.Coord `json:"position"`
	Delivered Materials   `json:"delivered"`
	Effort    int         `json:"effort"`
	Complete  bool        `json:"complete"`
	Residents []uint64    `json:"residents,omitempty"`
}

// Blueprint returns the template this building was placed from.
func (b *Building) Blueprint() Blueprint {
	return Blueprints[b.Kind]
}

// Cells returns the world coordinates the footprint occupies.
func (b *Building) Cells() []world.Coord {
	bp := b.Blueprint()
	cells := make([]world.Coord, len(bp.Footprint))
	for i, off := range bp.Footprint {
		cells[i] = world.Coord{X: b.Position.X + off.X, Y: b.Position.Y + off.Y}
	}
	return cells
}

// Shortfall returns how many units of the given material are still missing.
func (b *Building) Shortfall(kind world.ResourceKind) int {
	need := b.Blueprint().Cost[kind] - b.Delivered[kind]
	if need < 0 {
		return 0
	}
	return need
}

// MaterialsComplete reports whether every required material has arrived.
func (b *Building) MaterialsComplete() bool {
	for kind := range b.Blueprint().Cost {
		if b.Shortfall(world.ResourceKind(kind)) > 0 {
			return false
		}
	}
	return true
}

// EffortRemaining returns the build strokes left before completion.
func (b *Building) EffortRemaining() int {
	left := b.Blueprint().Effort - b.Effort
	if left < 0 {
		return 0
	}
	return left
}
