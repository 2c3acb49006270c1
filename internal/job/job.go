// Package job provides the work-item model and the dispatcher board that
// owns outstanding jobs and resource-tile claims. Assignment policy (which
// job an idle villager gets) lives in the simulation's dispatch pass; this
// package enforces the bookkeeping invariants.
package job

import (
	"github.com/google/uuid"

	"github.com/talgya/hamlet/internal/world"
)

// Kind discriminates the job variants. Switches over Kind are kept
// exhaustive so the whole transition table stays auditable.
type Kind uint8

const (
	KindGather Kind = iota
	KindDeliver
	KindBuild
)

// KindName returns a human-readable name for a job kind.
func KindName(k Kind) string {
	switch k {
	case KindGather:
		return "gather"
	case KindDeliver:
		return "deliver"
	case KindBuild:
		return "build"
	default:
		return "unknown"
	}
}

// Status is the lifecycle state of a job.
type Status uint8

const (
	StatusPending Status = iota
	StatusAssigned
	StatusCompleted
	StatusFailed
)

// Job is a unit of dispatched work. Exactly one variant's fields are
// meaningful, selected by Kind. Tiles and buildings are referenced by
// value identifiers, never by pointer, and resolved through the world on
// each use.
type Job struct {
	ID          string
	Kind        Kind
	Status      Status
	AssignedTo  uint64 // villager id; 0 while pending
	CreatedTick uint64
	FailReason  string

	// Gather variant.
	Resource   world.ResourceKind
	TargetTile world.Coord

	// Deliver variant.
	Depot world.Coord

	// Build variant.
	BuildingID uint64
}

// NewGather creates a pending gather job claiming the given resource tile.
func NewGather(res world.ResourceKind, tile world.Coord, tick uint64) *Job {
	return &Job{
		ID:          uuid.NewString(),
		Kind:        KindGather,
		Resource:    res,
		TargetTile:  tile,
		CreatedTick: tick,
	}
}

// NewDeliver creates a pending delivery job toward the given depot tile.
func NewDeliver(depot world.Coord, tick uint64) *Job {
	return &Job{
		ID:          uuid.NewString(),
		Kind:        KindDeliver,
		Depot:       depot,
		CreatedTick: tick,
	}
}

// NewDeliverToSite creates a pending delivery job carrying materials to a
// blueprint under construction.
func NewDeliverToSite(buildingID uint64, site world.Coord, tick uint64) *Job {
	return &Job{
		ID:          uuid.NewString(),
		Kind:        KindDeliver,
		BuildingID:  buildingID,
		TargetTile:  site,
		CreatedTick: tick,
	}
}

// Destination returns the tile a job's travel leg heads for.
func (j *Job) Destination() world.Coord {
	switch j.Kind {
	case KindGather, KindBuild:
		return j.TargetTile
	case KindDeliver:
		if j.BuildingID != 0 {
			return j.TargetTile
		}
		return j.Depot
	default:
		return j.TargetTile
	}
}

// NewBuild creates a pending construction job for the given building.
func NewBuild(buildingID uint64, site world.Coord, tick uint64) *Job {
	return &Job{
		ID:          uuid.NewString(),
		Kind:        KindBuild,
		BuildingID:  buildingID,
		TargetTile:  site,
		CreatedTick: tick,
	}
}

// Active reports whether the job is still live (pending or assigned).
func (j *Job) Active() bool {
	return j.Status == StatusPending || j.Status == StatusAssigned
}
