package sim

import (
	"errors"
	"log/slog"

	"github.com/talgya/hamlet/internal/construct"
	"github.com/talgya/hamlet/internal/job"
	"github.com/talgya/hamlet/internal/path"
	"github.com/talgya/hamlet/internal/villager"
	"github.com/talgya/hamlet/internal/world"
)

// quarryRadius is the proximity within which a completed quarry doubles
// gather yield; blacksmithRadius halves work delays.
const (
	quarryRadius     = 5
	blacksmithRadius = 5
	marketRadius     = 8
)

// dispatchJobs walks villagers in ascending ID order and hands each idle,
// ready one at most one job. Claims are set synchronously inside this pass,
// so two villagers can never be sent to the same resource tile.
func (s *Simulation) dispatchJobs(tick uint64) {
	if s.IsNight(tick) {
		return
	}
	for _, v := range s.Villagers {
		if v.State != villager.StateIdle || v.Cooldown > 0 || v.JobID != "" {
			continue
		}
		s.assignJob(v, tick)
	}
}

// assignJob picks work for one idle villager. Priority order: unload a
// non-empty inventory, then (for builders) construction, then gathering
// toward the storage targets, then construction for everyone else.
func (s *Simulation) assignJob(v *villager.Villager, tick uint64) {
	if !v.Inventory.IsEmpty() {
		s.assignDeliver(v, tick)
		return
	}
	if v.Role == villager.RoleBuilder && s.assignBuild(v, tick) {
		return
	}
	if s.assignGather(v, tick) {
		return
	}
	if s.assignBuild(v, tick) {
		return
	}
	v.IdleTicks++
}

// assignDeliver routes carried materials to the oldest blueprint that can
// use them, or to the depot.
func (s *Simulation) assignDeliver(v *villager.Villager, tick uint64) {
	var j *job.Job
	for k, qty := range v.Inventory {
		if qty == 0 {
			continue
		}
		if b := s.Construction.NextNeedingMaterials(world.ResourceKind(k)); b != nil {
			j = job.NewDeliverToSite(b.ID, b.Position, tick)
			break
		}
	}
	if j == nil {
		j = job.NewDeliver(s.DepotPos, tick)
	}

	p, err := s.Paths.FindPath(v.Position, j.Destination(), s.Cfg.AStarBudget)
	if err != nil && j.BuildingID != 0 {
		// Site unreachable; the depot is the fallback sink.
		j = job.NewDeliver(s.DepotPos, tick)
		p, err = s.Paths.FindPath(v.Position, j.Destination(), s.Cfg.AStarBudget)
	}
	if err != nil {
		slog.Warn("villager cut off from depot", "villager", v.ID, "pos", v.Position, "err", err)
		v.IdleTicks++
		return
	}
	if err := s.Board.Submit(j); err != nil {
		slog.Error("deliver job rejected", "villager", v.ID, "err", err)
		return
	}
	s.startJob(v, j, p, tick)
}

// assignGather sends the villager to the nearest viable deposit of the most
// needed resource. The cluster index answers first; a stale or missing
// answer falls back to the escalating breadth-first sweep.
func (s *Simulation) assignGather(v *villager.Villager, tick uint64) bool {
	for _, kind := range s.gatherPriority(v) {
		if target, p, ok := s.findDeposit(v, kind); ok {
			j := job.NewGather(kind, target, tick)
			if err := s.Board.Submit(j); err != nil {
				// A claim conflict here means the exclusion bookkeeping
				// broke; surface it, never work around it.
				slog.Error("gather claim rejected", "villager", v.ID, "tile", target, "err", err)
				return false
			}
			s.startJob(v, j, p, tick)
			return true
		}
	}
	return false
}

// gatherPriority orders resource kinds by how badly the settlement needs
// them: blueprint shortfalls first, then storage deficit. Role preference
// breaks ties.
func (s *Simulation) gatherPriority(v *villager.Villager) []world.ResourceKind {
	need := func(kind world.ResourceKind, target int) int {
		n := target - s.Depot.Stock[kind]
		if b := s.Construction.NextNeedingMaterials(kind); b != nil {
			n += b.Shortfall(kind)
		}
		return n
	}
	woodNeed := need(world.ResourceWood, s.Cfg.WoodTarget)
	stoneNeed := need(world.ResourceStone, s.Cfg.StoneTarget)

	if woodNeed <= 0 && stoneNeed <= 0 {
		return nil
	}
	first, second := world.ResourceWood, world.ResourceStone
	if stoneNeed > woodNeed ||
		(stoneNeed == woodNeed && v.Role == villager.RoleMiner) {
		first, second = second, first
	}
	switch v.Role {
	case villager.RoleWoodcutter:
		first, second = world.ResourceWood, world.ResourceStone
	case villager.RoleMiner:
		first, second = world.ResourceStone, world.ResourceWood
	}

	kinds := []world.ResourceKind{}
	if (first == world.ResourceWood && woodNeed > 0) || (first == world.ResourceStone && stoneNeed > 0) {
		kinds = append(kinds, first)
	}
	if (second == world.ResourceWood && woodNeed > 0) || (second == world.ResourceStone && stoneNeed > 0) {
		kinds = append(kinds, second)
	}
	return kinds
}

// findDeposit resolves a concrete unclaimed target tile plus the path to
// it. Cluster answers are verified against the live map before committing;
// any miss drops to the bounded escalating search.
func (s *Simulation) findDeposit(v *villager.Villager, kind world.ResourceKind) (world.Coord, []world.Coord, bool) {
	if cl := s.Clusters.Nearest(v.Position, kind); cl != nil {
		if member, ok := cl.NearestMember(v.Position, s.Board.Claimed); ok {
			liveKind, amt := s.Map.ResourceAt(member)
			if liveKind == kind && amt > 0 {
				p, err := s.Paths.FindPath(v.Position, member, s.Cfg.AStarBudget)
				if err == nil {
					return member, p, true
				}
			} else {
				// Cached hint was stale: expire it and sweep instead.
				s.Clusters.Deplete(member, 0, s.LastTick)
			}
		}
	}

	found, p, err := s.Paths.FindNearestEscalating(v.Position, func(c world.Coord) bool {
		k, amt := s.Map.ResourceAt(c)
		return k == kind && amt > 0 && !s.Board.Claimed(c)
	}, s.searchBudget())
	if err != nil {
		if errors.Is(err, path.ErrBudgetExceeded) {
			slog.Debug("deposit sweep exhausted budget", "villager", v.ID, "kind", world.ResourceName(kind))
		}
		return world.Coord{}, nil, false
	}
	return found, p, true
}

// assignBuild hands out the oldest construction-ready blueprint.
func (s *Simulation) assignBuild(v *villager.Villager, tick uint64) bool {
	b := s.Construction.NextNeedingWork(func(id uint64) bool {
		jobID, busy := s.outstandingBuild[id]
		return busy && s.Board.Get(jobID) != nil
	})
	if b == nil {
		return false
	}
	site := s.nearestWalkable(b.Position)
	p, err := s.Paths.FindPath(v.Position, site, s.Cfg.AStarBudget)
	if err != nil {
		return false
	}
	j := job.NewBuild(b.ID, site, tick)
	if err := s.Board.Submit(j); err != nil {
		slog.Error("build job rejected", "building", b.ID, "err", err)
		return false
	}
	s.outstandingBuild[b.ID] = j.ID
	s.startJob(v, j, p, tick)
	return true
}

// startJob assigns an already-submitted job and puts the villager on the
// road.
func (s *Simulation) startJob(v *villager.Villager, j *job.Job, p []world.Coord, tick uint64) {
	if err := s.Board.Assign(j, uint64(v.ID)); err != nil {
		slog.Error("job assign failed", "job", j.ID, "villager", v.ID, "err", err)
		return
	}
	v.JobID = j.ID
	v.Path = p
	v.PathIndex = 1
	v.IdleTicks = 0
	if len(p) <= 1 {
		v.State = villager.StateWorking
	} else {
		v.State = villager.StateTraveling
	}
	slog.Debug("job assigned",
		"villager", v.ID,
		"kind", job.KindName(j.Kind),
		"dest", j.Destination(),
		"steps", len(p),
		"tick", tick,
	)
}

// searchBudget is the BFS cap, raised by completed watchtowers.
func (s *Simulation) searchBudget() int {
	return s.Cfg.NearestBudget + s.Cfg.WatchtowerBonus*s.Construction.CountComplete(construct.KindWatchtower)
}
