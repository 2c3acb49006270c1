package construct

import (
	"errors"
	"testing"

	"github.com/talgya/hamlet/internal/world"
)

func allWalkable(world.Coord) bool { return true }

func TestPlaceNearUsesFirstValidFootprint(t *testing.T) {
	m := NewManager()
	anchor := world.Coord{X: 0, Y: 0}
	b, err := m.PlaceNear(KindHouse, anchor, allWalkable)
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if b.Position != anchor {
		t.Fatalf("position = %v, want anchor %v", b.Position, anchor)
	}

	// The next house keeps its distance from the first footprint.
	b2, err := m.PlaceNear(KindHouse, anchor, allWalkable)
	if err != nil {
		t.Fatalf("second place: %v", err)
	}
	dx := b2.Position.X - b.Position.X
	dy := b2.Position.Y - b.Position.Y
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}
	if dx <= spacing && dy <= spacing {
		t.Fatalf("second house at %v too close to first at %v", b2.Position, b.Position)
	}
}

func TestPlaceNearFailsWhenNothingFits(t *testing.T) {
	m := NewManager()
	_, err := m.PlaceNear(KindHouse, world.Coord{}, func(world.Coord) bool { return false })
	if !errors.Is(err, ErrPlacementFailed) {
		t.Fatalf("err = %v, want ErrPlacementFailed", err)
	}
}

func TestPlaceNearDeterministic(t *testing.T) {
	place := func() world.Coord {
		m := NewManager()
		m.PlaceCompleted(KindTownHall, world.Coord{X: 0, Y: 0})
		b, err := m.PlaceNear(KindHouse, world.Coord{X: 0, Y: 0}, allWalkable)
		if err != nil {
			t.Fatalf("place: %v", err)
		}
		return b.Position
	}
	first := place()
	for i := 0; i < 3; i++ {
		if got := place(); got != first {
			t.Fatalf("run %d placed at %v, want %v", i, got, first)
		}
	}
}

func TestDeliverClampsToShortfall(t *testing.T) {
	m := NewManager()
	b, err := m.PlaceNear(KindHouse, world.Coord{}, allWalkable) // needs 15 wood
	if err != nil {
		t.Fatalf("place: %v", err)
	}

	if got := m.Deliver(b.ID, world.ResourceWood, 10); got != 10 {
		t.Fatalf("accepted %d, want 10", got)
	}
	if got := m.Deliver(b.ID, world.ResourceWood, 10); got != 5 {
		t.Fatalf("accepted %d, want remaining 5", got)
	}
	if got := m.Deliver(b.ID, world.ResourceWood, 10); got != 0 {
		t.Fatalf("accepted %d past requirement, want 0", got)
	}
	if !b.MaterialsComplete() {
		t.Fatal("materials should be complete")
	}
}

func TestIncompleteMaterialsNeverComplete(t *testing.T) {
	m := NewManager()
	b, err := m.PlaceNear(KindTownHall, world.Coord{}, allWalkable) // 40 wood, 40 stone
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	m.Deliver(b.ID, world.ResourceWood, 30)

	// Hammering on an under-supplied blueprint does nothing.
	for i := 0; i < 100; i++ {
		if m.Build(b.ID, 5, uint64(i)) {
			t.Fatal("build completed without materials")
		}
	}
	if b.Complete {
		t.Fatal("building reports complete with 30/40 wood delivered")
	}
	if b.Effort != 0 {
		t.Fatalf("effort = %d accumulated without materials, want 0", b.Effort)
	}
}

func TestBuildCompletesAndFiresCallback(t *testing.T) {
	m := NewManager()
	var completed *Building
	m.OnComplete = func(b *Building) { completed = b }

	b, err := m.PlaceNear(KindHouse, world.Coord{}, allWalkable)
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	m.Deliver(b.ID, world.ResourceWood, 15)

	effort := b.Blueprint().Effort
	for i := 0; i < effort-1; i++ {
		if m.Build(b.ID, 1, uint64(i)) {
			t.Fatalf("completed early at stroke %d", i)
		}
	}
	if !m.Build(b.ID, 1, 99) {
		t.Fatal("final stroke did not complete the building")
	}
	if completed != b {
		t.Fatal("OnComplete not fired with the finished building")
	}
	if !m.Blocked(b.Position) {
		t.Fatal("complete house should block its tile")
	}
}

func TestRoadsStayPassable(t *testing.T) {
	m := NewManager()
	b := m.PlaceCompleted(KindRoad, world.Coord{X: 5, Y: 5})
	if m.Blocked(b.Position) {
		t.Fatal("completed road must remain walkable")
	}
}

func TestCompleteNearRadius(t *testing.T) {
	m := NewManager()
	m.PlaceCompleted(KindBlacksmith, world.Coord{X: 10, Y: 10})

	if !m.CompleteNear(KindBlacksmith, world.Coord{X: 13, Y: 7}, 5) {
		t.Fatal("blacksmith within radius 5 not found")
	}
	if m.CompleteNear(KindBlacksmith, world.Coord{X: 20, Y: 20}, 5) {
		t.Fatal("blacksmith found outside radius")
	}
}

func TestHousingCapacityCountsCompleteHouses(t *testing.T) {
	m := NewManager()
	m.PlaceCompleted(KindHouse, world.Coord{X: 0, Y: 0})
	m.PlaceCompleted(KindHouse, world.Coord{X: 10, Y: 0})
	if _, err := m.PlaceNear(KindHouse, world.Coord{X: 20, Y: 0}, allWalkable); err != nil {
		t.Fatalf("place: %v", err)
	}

	if cap := m.HousingCapacity(); cap != 4 {
		t.Fatalf("housing capacity = %d, want 4 (incomplete house excluded)", cap)
	}
}
