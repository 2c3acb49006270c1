package sim

import (
	"github.com/talgya/hamlet/internal/construct"
	"github.com/talgya/hamlet/internal/villager"
	"github.com/talgya/hamlet/internal/world"
)

// VillagerView is the read-only projection of one villager for observers.
type VillagerView struct {
	ID       villager.ID   `json:"id"`
	Position world.Coord   `json:"position"`
	State    string        `json:"state"`
	Role     string        `json:"role"`
	Carrying int           `json:"carrying"`
	Path     []world.Coord `json:"path,omitempty"`
	Age      uint16        `json:"age"`
}

// BuildingView is the read-only projection of one building.
type BuildingView struct {
	ID       uint64      `json:"id"`
	Kind     string      `json:"kind"`
	Position world.Coord `json:"position"`
	Complete bool        `json:"complete"`
}

// Snapshot is a self-contained copy of observable state, safe to hand to
// renderers and the API: it shares no mutable memory with the simulation.
type Snapshot struct {
	Tick       uint64 `json:"tick"`
	Time       string `json:"time"`
	Night      bool   `json:"night"`
	Population int    `json:"population"`

	Storage map[string]int `json:"storage"`

	JobsPending  int `json:"jobs_pending"`
	JobsAssigned int `json:"jobs_assigned"`

	Villagers []VillagerView `json:"villagers"`
	Buildings []BuildingView `json:"buildings"`
	Events    []Event        `json:"events"`
}

// Snapshot builds a point-in-time copy of the observable state. Call it
// between ticks (or from the tick goroutine) only.
func (s *Simulation) Snapshot() *Snapshot {
	pending, assigned := s.Board.Counts()

	snap := &Snapshot{
		Tick:       s.LastTick,
		Time:       s.TimeOfDay(s.LastTick),
		Night:      s.IsNight(s.LastTick),
		Population: len(s.Villagers),
		Storage: map[string]int{
			world.ResourceName(world.ResourceWood):  s.Depot.Stock[world.ResourceWood],
			world.ResourceName(world.ResourceStone): s.Depot.Stock[world.ResourceStone],
			world.ResourceName(world.ResourceFood):  s.Depot.Stock[world.ResourceFood],
		},
		JobsPending:  pending,
		JobsAssigned: assigned,
	}

	for _, v := range s.Villagers {
		view := VillagerView{
			ID:       v.ID,
			Position: v.Position,
			State:    villager.StateName(v.State),
			Role:     villager.RoleName(v.Role),
			Carrying: v.Inventory.Total(),
			Age:      v.Age,
		}
		if rest := len(v.Path) - v.PathIndex; rest > 0 {
			view.Path = append([]world.Coord(nil), v.Path[v.PathIndex:]...)
		}
		snap.Villagers = append(snap.Villagers, view)
	}

	for _, b := range s.Construction.Buildings() {
		snap.Buildings = append(snap.Buildings, BuildingView{
			ID:       b.ID,
			Kind:     construct.KindName(b.Kind),
			Position: b.Position,
			Complete: b.Complete,
		})
	}

	snap.Events = append(snap.Events, s.Events...)
	return snap
}
