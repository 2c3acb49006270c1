package construct

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/talgya/hamlet/internal/world"
)

// ErrPlacementFailed means no valid footprint was found within the scan
// bound. The request is deferred, not fatal: callers retry on a later tick
// or after the world changes.
var ErrPlacementFailed = errors.New("construct: no valid placement found")

// placementRadius bounds the ring scan outward from the preferred anchor.
const placementRadius = 24

// spacing keeps this many tiles between building footprints so villagers
// can always path between them.
const spacing = 2

// Manager owns blueprints under construction and finalizes buildings.
type Manager struct {
	nextID    uint64
	buildings []*Building
	byID      map[uint64]*Building
	occupied  map[world.Coord]*Building

	// OnComplete fires when a building finishes; the simulation wires
	// population and cluster side effects here.
	OnComplete func(*Building)
}

// NewManager creates an empty construction manager.
func NewManager() *Manager {
	return &Manager{
		nextID:   1,
		byID:     make(map[uint64]*Building),
		occupied: make(map[world.Coord]*Building),
	}
}

// PlaceNear places a new blueprint of the given kind at the first valid
// footprint found by a ring scan outward from anchor: every cell walkable
// and clear of other footprints (with spacing). Scan order within a ring is
// fixed, so placement is deterministic.
func (m *Manager) PlaceNear(kind Kind, anchor world.Coord, walkable func(world.Coord) bool) (*Building, error) {
	for r := 0; r <= placementRadius; r++ {
		for _, c := range ringCoords(anchor, r) {
			if m.fits(kind, c, walkable) {
				return m.place(kind, c), nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %s near %v", ErrPlacementFailed, KindName(kind), anchor)
}

// PlaceCompleted drops a finished building directly into the world,
// bypassing material and effort tracking. Used for settlement bootstrap
// and state restore.
func (m *Manager) PlaceCompleted(kind Kind, pos world.Coord) *Building {
	b := m.place(kind, pos)
	bp := b.Blueprint()
	b.Delivered = bp.Cost
	b.Effort = bp.Effort
	b.Complete = true
	return b
}

// Restore re-registers a persisted building, preserving its ID.
func (m *Manager) Restore(b *Building) {
	if b.ID >= m.nextID {
		m.nextID = b.ID + 1
	}
	m.buildings = append(m.buildings, b)
	m.byID[b.ID] = b
	for _, c := range b.Cells() {
		m.occupied[c] = b
	}
}

// Deliver transfers up to qty units of a material into the blueprint and
// returns how many were accepted (clamped to the shortfall).
func (m *Manager) Deliver(id uint64, kind world.ResourceKind, qty int) int {
	b := m.byID[id]
	if b == nil || b.Complete || qty <= 0 {
		return 0
	}
	accepted := b.Shortfall(kind)
	if accepted > qty {
		accepted = qty
	}
	b.Delivered[kind] += accepted
	return accepted
}

// Build applies construction effort. It only counts once materials are
// complete. Completion finalizes the building and fires OnComplete.
func (m *Manager) Build(id uint64, effort int, tick uint64) bool {
	b := m.byID[id]
	if b == nil || b.Complete || !b.MaterialsComplete() || effort <= 0 {
		return false
	}
	b.Effort += effort
	if b.EffortRemaining() > 0 {
		return false
	}
	b.Complete = true
	slog.Info("building complete", "kind", KindName(b.Kind), "pos", b.Position, "tick", tick)
	if m.OnComplete != nil {
		m.OnComplete(b)
	}
	return true
}

// Get returns the building with the given ID, or nil.
func (m *Manager) Get(id uint64) *Building {
	return m.byID[id]
}

// Buildings returns all placed buildings in placement order.
func (m *Manager) Buildings() []*Building {
	return m.buildings
}

// NextNeedingMaterials returns the oldest incomplete building still missing
// the given material, or nil. ResourceNone matches any missing material.
func (m *Manager) NextNeedingMaterials(kind world.ResourceKind) *Building {
	for _, b := range m.buildings {
		if b.Complete {
			continue
		}
		if kind == world.ResourceNone {
			if !b.MaterialsComplete() {
				return b
			}
			continue
		}
		if b.Shortfall(kind) > 0 {
			return b
		}
	}
	return nil
}

// NextNeedingWork returns the oldest building with materials complete and
// effort remaining, skipping IDs for which skip returns true (already has
// a build job outstanding), or nil.
func (m *Manager) NextNeedingWork(skip func(uint64) bool) *Building {
	for _, b := range m.buildings {
		if b.Complete || !b.MaterialsComplete() || b.EffortRemaining() == 0 {
			continue
		}
		if skip != nil && skip(b.ID) {
			continue
		}
		return b
	}
	return nil
}

// Blocked reports whether a complete, non-passable building occupies c.
// Construction sites stay walkable until they finish.
func (m *Manager) Blocked(c world.Coord) bool {
	b, taken := m.occupied[c]
	return taken && b.Complete && !b.Blueprint().Passable
}

// CompleteAt returns the completed building covering c, or nil.
func (m *Manager) CompleteAt(c world.Coord) *Building {
	b, taken := m.occupied[c]
	if taken && b.Complete {
		return b
	}
	return nil
}

// CompleteNear reports whether a completed building of the given kind
// exists within Chebyshev radius of pos. Drives proximity effects:
// blacksmith tool bonus, quarry gather bonus, marketplace mood lift.
func (m *Manager) CompleteNear(kind Kind, pos world.Coord, radius int) bool {
	for _, b := range m.buildings {
		if b.Kind != kind || !b.Complete {
			continue
		}
		dx := b.Position.X - pos.X
		dy := b.Position.Y - pos.Y
		if dx < 0 {
			dx = -dx
		}
		if dy < 0 {
			dy = -dy
		}
		if dx <= radius && dy <= radius {
			return true
		}
	}
	return false
}

// CountComplete returns how many completed buildings of the kind exist.
func (m *Manager) CountComplete(kind Kind) int {
	n := 0
	for _, b := range m.buildings {
		if b.Kind == kind && b.Complete {
			n++
		}
	}
	return n
}

// HousingCapacity sums resident capacity over completed houses.
func (m *Manager) HousingCapacity() int {
	total := 0
	for _, b := range m.buildings {
		if b.Kind == KindHouse && b.Complete {
			total += b.Blueprint().Capacity
		}
	}
	return total
}

func (m *Manager) place(kind Kind, pos world.Coord) *Building {
	b := &Building{ID: m.nextID, Kind: kind, Position: pos}
	m.nextID++
	m.buildings = append(m.buildings, b)
	m.byID[b.ID] = b
	for _, c := range b.Cells() {
		m.occupied[c] = b
	}
	return b
}

func (m *Manager) fits(kind Kind, anchor world.Coord, walkable func(world.Coord) bool) bool {
	bp := Blueprints[kind]
	for _, off := range bp.Footprint {
		c := world.Coord{X: anchor.X + off.X, Y: anchor.Y + off.Y}
		if !walkable(c) {
			return false
		}
		// Keep clearance around existing footprints. Roads pack tightly.
		if kind == KindRoad {
			if _, taken := m.occupied[c]; taken {
				return false
			}
			continue
		}
		for dx := -spacing; dx <= spacing; dx++ {
			for dy := -spacing; dy <= spacing; dy++ {
				n := world.Coord{X: c.X + dx, Y: c.Y + dy}
				if near, taken := m.occupied[n]; taken && near.Kind != KindRoad {
					return false
				}
			}
		}
	}
	return true
}

// ringCoords lists the tiles at Chebyshev distance r from center, in a
// fixed clockwise order starting north-west. r = 0 yields the center.
func ringCoords(center world.Coord, r int) []world.Coord {
	if r == 0 {
		return []world.Coord{center}
	}
	var out []world.Coord
	for x := center.X - r; x <= center.X+r; x++ {
		out = append(out, world.Coord{X: x, Y: center.Y - r})
	}
	for y := center.Y - r + 1; y <= center.Y+r; y++ {
		out = append(out, world.Coord{X: center.X + r, Y: y})
	}
	for x := center.X + r - 1; x >= center.X-r; x-- {
		out = append(out, world.Coord{X: x, Y: center.Y + r})
	}
	for y := center.Y + r - 1; y >= center.Y-r+1; y-- {
		out = append(out, world.Coord{X: center.X - r, Y: y})
	}
	return out
}
