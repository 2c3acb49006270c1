// Package villager provides the agent data model: position, inventory,
// FSM state, job/path references, and the modifiers (personality, mood,
// life stage) that scale action speed. Step logic lives in the simulation
// package, which owns the world context a step needs.
package villager

import (
	"github.com/talgya/hamlet/internal/world"
)

// ID is a unique villager identifier. IDs are issued in increasing order
// and the dispatch pass iterates them ascending, which keeps assignment
// deterministic and fair.
type ID uint64

// State is the FSM state driving one villager's behavior.
type State uint8

const (
	StateIdle State = iota
	StateTraveling
	StateWorking
	StateResting
)

// StateName returns a human-readable name for an FSM state.
func StateName(s State) string {
	switch s {
	case StateIdle:
		return "idle"
	case StateTraveling:
		return "traveling"
	case StateWorking:
		return "working"
	case StateResting:
		return "resting"
	default:
		return "unknown"
	}
}

// Personality shifts how quickly a villager works.
type Personality uint8

const (
	PersonalitySteady Personality = iota
	PersonalityLazy
	PersonalityIndustrious
	PersonalitySocial
)

// Mood is a three-level morale scale nudged by events.
type Mood int8

const (
	MoodSad Mood = iota
	MoodNeutral
	MoodHappy
)

// LifeStage tracks a villager's age bracket.
type LifeStage uint8

const (
	StageChild LifeStage = iota
	StageAdult
	StageElder
	StageRetired
)

// Role is a soft occupation preference the dispatcher uses as a
// tie-breaker when several job kinds are available.
type Role uint8

const (
	RoleLabourer Role = iota
	RoleWoodcutter
	RoleMiner
	RoleBuilder
)

// RoleName returns a human-readable name for a role.
func RoleName(r Role) string {
	switch r {
	case RoleWoodcutter:
		return "woodcutter"
	case RoleMiner:
		return "miner"
	case RoleBuilder:
		return "builder"
	default:
		return "labourer"
	}
}

// CarryCapacity is the default number of resource units an adult can hold.
const CarryCapacity = 10

// Inventory is a fixed-size array of quantities per resource kind.
// Inline in the Villager struct, no heap allocation.
type Inventory [world.NumResources]int

// Total returns the combined number of carried units.
func (inv Inventory) Total() int {
	n := 0
	for _, qty := range inv {
		n += qty
	}
	return n
}

// IsEmpty reports whether nothing is carried.
func (inv Inventory) IsEmpty() bool {
	return inv.Total() == 0
}

// Clear zeroes all quantities.
func (inv *Inventory) Clear() {
	*inv = Inventory{}
}

// Villager is one autonomous agent.
type Villager struct {
	ID       ID          `json:"id"`
	Position world.Coord `json:"position"`
	State    State       `json:"state"`

	// Current work. JobID is empty when idle; Path carries the resumable
	// multi-tick route with PathIndex pointing at the next step.
	JobID     string        `json:"job_id,omitempty"`
	Path      []world.Coord `json:"path,omitempty"`
	PathIndex int           `json:"path_index,omitempty"`

	Inventory Inventory `json:"inventory"`
	Capacity  int       `json:"capacity"`

	// Cooldown is the number of ticks until the next action; one path step
	// or work stroke sets it from the action delay and modifiers.
	Cooldown int `json:"cooldown"`

	Personality Personality `json:"personality"`
	Mood        Mood        `json:"mood"`
	Role        Role        `json:"role"`

	Age       uint16      `json:"age"`
	LifeStage LifeStage   `json:"life_stage"`
	Home      *world.Coord `json:"home,omitempty"`

	BornTick  uint64 `json:"born_tick"`
	IdleTicks uint64 `json:"idle_ticks"`
}

// IsFull reports whether the inventory has reached capacity.
func (v *Villager) IsFull() bool {
	return v.Inventory.Total() >= v.Capacity
}

// AdjustMood nudges mood by delta levels, clamped to the scale.
func (v *Villager) AdjustMood(delta int) {
	m := int(v.Mood) + delta
	if m < int(MoodSad) {
		m = int(MoodSad)
	}
	if m > int(MoodHappy) {
		m = int(MoodHappy)
	}
	v.Mood = Mood(m)
}

// DelayFactor scales base action delays by personality, mood, and life
// stage. Larger is slower.
func (v *Villager) DelayFactor() float64 {
	f := 1.0
	switch v.Personality {
	case PersonalityLazy:
		f *= 1.2
	case PersonalityIndustrious:
		f *= 0.8
	}
	switch v.Mood {
	case MoodHappy:
		f *= 0.9
	case MoodSad:
		f *= 1.1
	}
	switch v.LifeStage {
	case StageChild:
		f *= 1.5
	case StageElder:
		f *= 1.2
	case StageRetired:
		f *= 2.0
	}
	return f
}

// AgeOneDay advances age by one sim-day and refreshes the life stage.
// Children and the retired carry half loads. Returns true when the stage
// changed so the caller can log it.
func (v *Villager) AgeOneDay() bool {
	v.Age++
	prev := v.LifeStage
	v.refreshStage()
	return v.LifeStage != prev
}

// RefreshDerived recomputes life stage and carry capacity from age, for
// villagers rebuilt from persisted rows.
func (v *Villager) RefreshDerived() {
	v.refreshStage()
}

func (v *Villager) refreshStage() {
	switch {
	case v.Age < 18:
		v.LifeStage = StageChild
	case v.Age < 65:
		v.LifeStage = StageAdult
	case v.Age < 80:
		v.LifeStage = StageElder
	default:
		v.LifeStage = StageRetired
	}
	if v.LifeStage == StageAdult || v.LifeStage == StageElder {
		v.Capacity = CarryCapacity
	} else {
		v.Capacity = CarryCapacity / 2
	}
}

// ClearWork drops the current job, path, and work state, returning the
// villager to Idle. Inventory is kept: whatever was gathered stays carried.
func (v *Villager) ClearWork() {
	v.JobID = ""
	v.Path = nil
	v.PathIndex = 0
	v.State = StateIdle
}
