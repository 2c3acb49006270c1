package job

import (
	"errors"
	"fmt"

	"github.com/talgya/hamlet/internal/world"
)

// ErrInvariant marks a bookkeeping violation (double claim, double assign).
// These are programming errors: callers log them loudly and must not
// swallow them, or the mutual-exclusion guarantee silently rots.
var ErrInvariant = errors.New("job: invariant violation")

// Board owns every outstanding job and the resource-tile claims that keep
// two villagers from racing to the same depleting tile. All access happens
// inside the single-threaded tick, so no locking is needed: a claim is a
// flag set synchronously before the next villager is even considered.
type Board struct {
	jobs   map[string]*Job
	queue  []string              // pending job IDs in submission order
	claims map[world.Coord]string // claimed resource tile → owning job ID
}

// NewBoard creates an empty dispatcher board.
func NewBoard() *Board {
	return &Board{
		jobs:   make(map[string]*Job),
		claims: make(map[world.Coord]string),
	}
}

// Submit registers a pending job. Gather jobs claim their target tile;
// a claim conflict rejects the job with ErrInvariant.
func (b *Board) Submit(j *Job) error {
	if j.Status != StatusPending || j.AssignedTo != 0 {
		return fmt.Errorf("%w: submitted job %s not pending/unassigned", ErrInvariant, j.ID)
	}
	if j.Kind == KindGather {
		if owner, taken := b.claims[j.TargetTile]; taken {
			return fmt.Errorf("%w: tile %v already claimed by job %s", ErrInvariant, j.TargetTile, owner)
		}
		b.claims[j.TargetTile] = j.ID
	}
	b.jobs[j.ID] = j
	b.queue = append(b.queue, j.ID)
	return nil
}

// Assign hands a pending job to a villager.
func (b *Board) Assign(j *Job, villagerID uint64) error {
	if j.Status != StatusPending {
		return fmt.Errorf("%w: assign on job %s in status %d", ErrInvariant, j.ID, j.Status)
	}
	if villagerID == 0 {
		return fmt.Errorf("%w: assign to zero villager id", ErrInvariant)
	}
	j.Status = StatusAssigned
	j.AssignedTo = villagerID
	return nil
}

// Claimed reports whether a resource tile is reserved by a live job.
func (b *Board) Claimed(tile world.Coord) bool {
	_, taken := b.claims[tile]
	return taken
}

// Get returns the job with the given ID, or nil.
func (b *Board) Get(id string) *Job {
	return b.jobs[id]
}

// NextPending returns the oldest pending job accepted by the filter, or
// nil. A nil filter accepts everything.
func (b *Board) NextPending(filter func(*Job) bool) *Job {
	b.compact()
	for _, id := range b.queue {
		j := b.jobs[id]
		if j == nil || j.Status != StatusPending {
			continue
		}
		if filter == nil || filter(j) {
			return j
		}
	}
	return nil
}

// Complete finishes a job and releases its claim.
func (b *Board) Complete(id string) {
	j := b.jobs[id]
	if j == nil {
		return
	}
	j.Status = StatusCompleted
	b.release(j)
	delete(b.jobs, id)
}

// Fail aborts a job, recording why, and releases its claim. The assigned
// villager returns to Idle and the dispatcher re-evaluates next tick.
func (b *Board) Fail(id, reason string) {
	j := b.jobs[id]
	if j == nil {
		return
	}
	j.Status = StatusFailed
	j.FailReason = reason
	b.release(j)
	delete(b.jobs, id)
}

// Counts returns (pending, assigned) job totals for the observer surface.
func (b *Board) Counts() (pending, assigned int) {
	for _, j := range b.jobs {
		switch j.Status {
		case StatusPending:
			pending++
		case StatusAssigned:
			assigned++
		}
	}
	return pending, assigned
}

func (b *Board) release(j *Job) {
	if j.Kind != KindGather {
		return
	}
	if b.claims[j.TargetTile] == j.ID {
		delete(b.claims, j.TargetTile)
	}
}

// compact drops finished IDs from the front of the queue so repeated
// NextPending scans stay cheap.
func (b *Board) compact() {
	i := 0
	for i < len(b.queue) {
		j := b.jobs[b.queue[i]]
		if j != nil && j.Active() {
			break
		}
		i++
	}
	b.queue = b.queue[i:]
}
