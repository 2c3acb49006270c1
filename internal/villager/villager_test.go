package villager

import (
	"testing"

	"github.com/talgya/hamlet/internal/world"
)

func TestAgeOneDayTransitionsStages(t *testing.T) {
	s := NewSpawner(1)
	v := s.Spawn(world.Coord{}, 17, 0)
	if v.LifeStage != StageChild {
		t.Fatalf("stage at 17 = %d, want child", v.LifeStage)
	}
	if v.Capacity != CarryCapacity/2 {
		t.Fatalf("child capacity = %d, want %d", v.Capacity, CarryCapacity/2)
	}

	if !v.AgeOneDay() {
		t.Fatal("18th birthday should change stage")
	}
	if v.LifeStage != StageAdult || v.Capacity != CarryCapacity {
		t.Fatalf("stage=%d cap=%d, want adult with full capacity", v.LifeStage, v.Capacity)
	}

	v.Age = 79
	if !v.AgeOneDay() || v.LifeStage != StageRetired {
		t.Fatalf("stage at 80 = %d, want retired", v.LifeStage)
	}
}

func TestMoodClamps(t *testing.T) {
	v := &Villager{Mood: MoodNeutral}
	v.AdjustMood(5)
	if v.Mood != MoodHappy {
		t.Fatalf("mood = %d, want happy", v.Mood)
	}
	v.AdjustMood(-10)
	if v.Mood != MoodSad {
		t.Fatalf("mood = %d, want sad", v.Mood)
	}
}

func TestInventoryTotals(t *testing.T) {
	v := &Villager{Capacity: CarryCapacity}
	v.Inventory[world.ResourceWood] = 6
	v.Inventory[world.ResourceStone] = 4
	if !v.IsFull() {
		t.Fatalf("total %d at capacity %d should be full", v.Inventory.Total(), v.Capacity)
	}
	v.Inventory.Clear()
	if !v.Inventory.IsEmpty() {
		t.Fatal("inventory not empty after clear")
	}
}

func TestSpawnerIssuesAscendingIDs(t *testing.T) {
	s := NewSpawner(7)
	a := s.Spawn(world.Coord{}, 20, 0)
	b := s.Spawn(world.Coord{}, 20, 0)
	if b.ID != a.ID+1 {
		t.Fatalf("ids %d, %d not ascending", a.ID, b.ID)
	}
}

func TestDelayFactorModifiers(t *testing.T) {
	base := &Villager{Personality: PersonalitySteady, Mood: MoodNeutral, LifeStage: StageAdult}
	if f := base.DelayFactor(); f != 1.0 {
		t.Fatalf("baseline factor = %v, want 1.0", f)
	}
	slow := &Villager{Personality: PersonalityLazy, Mood: MoodSad, LifeStage: StageRetired}
	fast := &Villager{Personality: PersonalityIndustrious, Mood: MoodHappy, LifeStage: StageAdult}
	if slow.DelayFactor() <= base.DelayFactor() {
		t.Fatal("lazy sad retiree should be slower than baseline")
	}
	if fast.DelayFactor() >= base.DelayFactor() {
		t.Fatal("industrious happy adult should be faster than baseline")
	}
}
