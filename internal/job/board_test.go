package job

import (
	"errors"
	"testing"

	"github.com/talgya/hamlet/internal/world"
)

func TestSubmitClaimsGatherTile(t *testing.T) {
	b := NewBoard()
	tile := world.Coord{X: 3, Y: 4}
	j := NewGather(world.ResourceWood, tile, 1)
	if err := b.Submit(j); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !b.Claimed(tile) {
		t.Fatal("tile not claimed after submit")
	}

	// A second gather job for the same tile violates mutual exclusion.
	dup := NewGather(world.ResourceWood, tile, 1)
	err := b.Submit(dup)
	if !errors.Is(err, ErrInvariant) {
		t.Fatalf("duplicate claim err = %v, want ErrInvariant", err)
	}
}

func TestCompleteReleasesClaim(t *testing.T) {
	b := NewBoard()
	tile := world.Coord{X: 1, Y: 1}
	j := NewGather(world.ResourceStone, tile, 1)
	if err := b.Submit(j); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := b.Assign(j, 7); err != nil {
		t.Fatalf("assign: %v", err)
	}

	b.Complete(j.ID)
	if b.Claimed(tile) {
		t.Fatal("claim not released on completion")
	}
	if b.Get(j.ID) != nil {
		t.Fatal("completed job still on the board")
	}
}

func TestFailReleasesClaimAndRecordsReason(t *testing.T) {
	b := NewBoard()
	tile := world.Coord{X: 2, Y: 2}
	j := NewGather(world.ResourceWood, tile, 5)
	if err := b.Submit(j); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := b.Assign(j, 3); err != nil {
		t.Fatalf("assign: %v", err)
	}

	b.Fail(j.ID, "resource depleted")
	if b.Claimed(tile) {
		t.Fatal("claim not released on failure")
	}
	if j.Status != StatusFailed || j.FailReason != "resource depleted" {
		t.Fatalf("status=%d reason=%q, want failed/resource depleted", j.Status, j.FailReason)
	}
}

func TestAssignInvariants(t *testing.T) {
	b := NewBoard()
	j := NewDeliver(world.Coord{X: 0, Y: 0}, 1)
	if err := b.Submit(j); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := b.Assign(j, 1); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if err := b.Assign(j, 2); !errors.Is(err, ErrInvariant) {
		t.Fatalf("double assign err = %v, want ErrInvariant", err)
	}
}

func TestNextPendingIsFIFOAndFiltered(t *testing.T) {
	b := NewBoard()
	first := NewBuild(1, world.Coord{X: 1, Y: 0}, 1)
	second := NewBuild(2, world.Coord{X: 2, Y: 0}, 2)
	for _, j := range []*Job{first, second} {
		if err := b.Submit(j); err != nil {
			t.Fatalf("submit: %v", err)
		}
	}

	if got := b.NextPending(nil); got != first {
		t.Fatalf("next pending = %v, want first submitted", got)
	}
	got := b.NextPending(func(j *Job) bool { return j.BuildingID == 2 })
	if got != second {
		t.Fatalf("filtered next = %v, want building 2 job", got)
	}

	if err := b.Assign(first, 9); err != nil {
		t.Fatalf("assign: %v", err)
	}
	if got := b.NextPending(nil); got != second {
		t.Fatalf("next pending after assign = %v, want second", got)
	}
}

func TestCounts(t *testing.T) {
	b := NewBoard()
	a := NewGather(world.ResourceWood, world.Coord{X: 0, Y: 0}, 1)
	c := NewGather(world.ResourceWood, world.Coord{X: 1, Y: 0}, 1)
	if err := b.Submit(a); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := b.Submit(c); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := b.Assign(a, 1); err != nil {
		t.Fatalf("assign: %v", err)
	}

	pending, assigned := b.Counts()
	if pending != 1 || assigned != 1 {
		t.Fatalf("counts = (%d,%d), want (1,1)", pending, assigned)
	}
}
