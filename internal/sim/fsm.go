package sim

import (
	"fmt"
	"log/slog"

	"github.com/talgya/hamlet/internal/construct"
	"github.com/talgya/hamlet/internal/job"
	"github.com/talgya/hamlet/internal/villager"
	"github.com/talgya/hamlet/internal/world"
)

// stepVillager advances one villager's FSM by at most one action. Cooldown
// gates pacing: a move or work stroke sets it, and nothing happens until it
// runs out.
func (s *Simulation) stepVillager(v *villager.Villager, tick uint64) {
	if s.IsNight(tick) {
		s.nightStep(v, tick)
		return
	}
	if v.State == villager.StateResting {
		v.State = villager.StateIdle
	}
	if v.Cooldown > 0 {
		v.Cooldown--
		return
	}
	switch v.State {
	case villager.StateIdle:
		// Dispatch found nothing this tick.
	case villager.StateTraveling:
		s.stepTravel(v, tick)
	case villager.StateWorking:
		s.stepWork(v, tick)
	}
}

// nightStep sends the villager home. Any in-flight job fails so its claim
// releases; the dispatcher re-evaluates at dawn.
func (s *Simulation) nightStep(v *villager.Villager, tick uint64) {
	if v.JobID != "" {
		s.Board.Fail(v.JobID, "nightfall")
		v.ClearWork()
	}
	if v.State == villager.StateResting {
		return
	}
	home := v.Position
	if v.Home != nil {
		home = *v.Home
	}
	if v.Position == home {
		v.Path = nil
		v.PathIndex = 0
		v.State = villager.StateResting
		return
	}
	if v.PathIndex >= len(v.Path) {
		p, err := s.Paths.FindPath(v.Position, home, s.Cfg.AStarBudget)
		if err != nil {
			v.State = villager.StateResting // sleep rough
			return
		}
		v.Path = p
		v.PathIndex = 1
	}
	if v.Cooldown > 0 {
		v.Cooldown--
		return
	}
	if !s.advance(v) {
		v.State = villager.StateResting
	}
}

// stepTravel moves one tile along the stored path. The world may have
// changed since the path was computed: a newly blocked tile fails the job
// rather than re-planning silently, and the dispatcher starts over.
func (s *Simulation) stepTravel(v *villager.Villager, tick uint64) {
	j := s.Board.Get(v.JobID)
	if j == nil || !j.Active() {
		v.ClearWork()
		return
	}
	if v.PathIndex >= len(v.Path) {
		v.State = villager.StateWorking
		return
	}
	if !s.advance(v) {
		s.failJob(v, j, "path blocked", tick)
		return
	}
	if v.PathIndex >= len(v.Path) {
		v.State = villager.StateWorking
	}
}

// advance takes the next path step if it is still walkable and charges the
// movement cooldown. Returns false when the step is blocked.
func (s *Simulation) advance(v *villager.Villager) bool {
	next := v.Path[v.PathIndex]
	if !s.walkable(next) {
		return false
	}
	v.Position = next
	v.PathIndex++
	s.tileUsage[next]++
	v.Cooldown = s.scaleDelay(v, s.moveCost(next))
	return true
}

// moveCost is the per-tile movement delay: rough terrain slows, roads
// speed up.
func (s *Simulation) moveCost(c world.Coord) int {
	base := s.Cfg.ActionDelayTicks
	switch s.Map.GetTile(c).Kind {
	case world.TileForest:
		base *= 2
	case world.TileStone:
		base *= 3
	}
	if b := s.Construction.CompleteAt(c); b != nil && b.Kind == construct.KindRoad {
		base /= 2
	}
	if base < 1 {
		base = 1
	}
	return base
}

// scaleDelay applies the villager's personality/mood/life-stage factor to a
// base delay, never below one tick.
func (s *Simulation) scaleDelay(v *villager.Villager, base int) int {
	d := int(float64(base) * v.DelayFactor())
	if d < 1 {
		d = 1
	}
	return d
}

// workDelay is the per-stroke work cooldown. A blacksmith nearby means
// better tools.
func (s *Simulation) workDelay(v *villager.Villager) int {
	base := s.Cfg.ActionDelayTicks
	if s.Construction.CompleteNear(construct.KindBlacksmith, v.Position, blacksmithRadius) {
		base /= 2
	}
	if base < 1 {
		base = 1
	}
	return s.scaleDelay(v, base)
}

// stepWork performs one work stroke for the active job.
func (s *Simulation) stepWork(v *villager.Villager, tick uint64) {
	j := s.Board.Get(v.JobID)
	if j == nil || !j.Active() {
		v.ClearWork()
		return
	}
	switch j.Kind {
	case job.KindGather:
		s.workGather(v, j, tick)
	case job.KindDeliver:
		s.workDeliver(v, j, tick)
	case job.KindBuild:
		s.workBuild(v, j, tick)
	}
}

// workGather extracts one stroke's worth from the target tile. The tile is
// verified live here: if it drained since dispatch, the job fails (arrived
// empty-handed) or completes early (bring home what we have).
func (s *Simulation) workGather(v *villager.Villager, j *job.Job, tick uint64) {
	liveKind, amt := s.Map.ResourceAt(j.TargetTile)
	if liveKind != j.Resource || amt <= 0 {
		s.Clusters.Deplete(j.TargetTile, 0, tick)
		if v.Inventory.IsEmpty() {
			s.failJob(v, j, "resource depleted", tick)
		} else {
			s.Board.Complete(j.ID)
			v.ClearWork()
		}
		return
	}

	rate := s.Cfg.GatherRate
	if s.Construction.CompleteNear(construct.KindQuarry, v.Position, quarryRadius) &&
		j.Resource == world.ResourceStone {
		rate *= 2
	}
	if space := v.Capacity - v.Inventory.Total(); rate > space {
		rate = space
	}

	gained := s.Map.Extract(j.TargetTile, rate)
	v.Inventory[j.Resource] += gained
	_, remaining := s.Map.ResourceAt(j.TargetTile)
	s.Clusters.Deplete(j.TargetTile, remaining, tick)

	v.Cooldown = s.workDelay(v)
	if v.IsFull() || remaining == 0 {
		v.AdjustMood(1)
		s.Board.Complete(j.ID)
		v.ClearWork()
	}
}

// workDeliver unloads the inventory into a blueprint or the depot in a
// single stroke.
func (s *Simulation) workDeliver(v *villager.Villager, j *job.Job, tick uint64) {
	if j.BuildingID != 0 {
		b := s.Construction.Get(j.BuildingID)
		if b == nil || b.Complete {
			// Site vanished under us; carry the load back to the depot via
			// a fresh dispatch.
			s.failJob(v, j, "construction site gone", tick)
			return
		}
		for k, qty := range v.Inventory {
			if qty == 0 {
				continue
			}
			accepted := s.Construction.Deliver(b.ID, world.ResourceKind(k), qty)
			v.Inventory[k] -= accepted
		}
	} else {
		for k, qty := range v.Inventory {
			if qty == 0 {
				continue
			}
			accepted := s.Depot.Add(world.ResourceKind(k), qty)
			v.Inventory[k] -= accepted
			if accepted < qty {
				slog.Warn("depot full, load kept", "villager", v.ID, "kind", world.ResourceName(world.ResourceKind(k)))
				break
			}
		}
	}
	v.AdjustMood(1)
	v.Cooldown = s.workDelay(v)
	s.Board.Complete(j.ID)
	v.ClearWork()
}

// workBuild applies one stroke of construction effort.
func (s *Simulation) workBuild(v *villager.Villager, j *job.Job, tick uint64) {
	b := s.Construction.Get(j.BuildingID)
	if b == nil {
		s.failJob(v, j, "blueprint canceled", tick)
		return
	}
	if b.Complete {
		s.Board.Complete(j.ID)
		v.ClearWork()
		return
	}
	if !b.MaterialsComplete() {
		s.failJob(v, j, "materials missing", tick)
		return
	}
	done := s.Construction.Build(b.ID, s.Cfg.BuildRate, tick)
	v.Cooldown = s.workDelay(v)
	if done {
		v.AdjustMood(1)
		s.LogEvent(tick, "build", fmt.Sprintf("%s completed at %v", construct.KindName(b.Kind), b.Position))
		s.Board.Complete(j.ID)
		v.ClearWork()
	}
}

// failJob aborts the villager's job, releasing its claim, and logs why.
func (s *Simulation) failJob(v *villager.Villager, j *job.Job, reason string, tick uint64) {
	s.Board.Fail(j.ID, reason)
	v.ClearWork()
	s.LogEvent(tick, "job", fmt.Sprintf("%s job failed for villager %d: %s", job.KindName(j.Kind), v.ID, reason))
	slog.Debug("job failed", "villager", v.ID, "kind", job.KindName(j.Kind), "reason", reason, "tick", tick)
}
