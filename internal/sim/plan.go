package sim

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/talgya/hamlet/internal/construct"
	"github.com/talgya/hamlet/internal/villager"
	"github.com/talgya/hamlet/internal/world"
)

// roadPlanInterval is how often the planner inspects traffic and paves the
// busiest tiles.
const roadPlanInterval = 500

// maxActiveSites caps concurrent blueprints so deliveries focus instead of
// trickling into a dozen half-started foundations.
const maxActiveSites = 2

// runSideEffects is the third phase of a tick: farm yields, material draws
// from the depot, road paving, and the once-a-day population pass.
func (s *Simulation) runSideEffects(tick uint64) {
	if s.Cfg.FarmFoodInterval > 0 && tick > 0 && tick%uint64(s.Cfg.FarmFoodInterval) == 0 {
		if farms := s.Construction.CountComplete(construct.KindFarm); farms > 0 {
			got := s.Depot.Add(world.ResourceFood, farms)
			if got > 0 {
				slog.Debug("farms yielded food", "farms", farms, "stored", got, "tick", tick)
			}
		}
	}

	s.drawMaterials()

	if tick > 0 && tick%roadPlanInterval == 0 {
		s.planRoads(tick)
	}
	if tick > 0 && tick%uint64(s.Cfg.DayTicks) == 0 {
		s.dailyPass(tick)
	}
}

// onBuildingComplete wires finished buildings into the wider simulation.
func (s *Simulation) onBuildingComplete(b *construct.Building) {
	delete(s.outstandingBuild, b.ID)
	switch b.Kind {
	case construct.KindHouse:
		s.houseFinished(b)
	case construct.KindLumberyard:
		s.Clusters.AddPreference(world.ResourceWood, b.Position)
	}
}

// houseFinished settles homeless villagers into the new house and, when
// there is room left under the housing cap, welcomes a newcomer.
func (s *Simulation) houseFinished(b *construct.Building) {
	cap := b.Blueprint().Capacity
	for _, v := range s.Villagers {
		if len(b.Residents) >= cap {
			break
		}
		if v.Home == nil {
			home := b.Position
			v.Home = &home
			b.Residents = append(b.Residents, uint64(v.ID))
		}
	}
	if len(b.Residents) < cap && len(s.Villagers) < s.Construction.HousingCapacity() {
		spawnAt := s.nearestWalkable(b.Position)
		nv := s.Spawner.Spawn(spawnAt, 18, s.LastTick)
		home := b.Position
		nv.Home = &home
		b.Residents = append(b.Residents, uint64(nv.ID))
		s.AddVillager(nv)
		s.LogEvent(s.LastTick, "population", fmt.Sprintf("villager %d moved into the new house at %v", nv.ID, b.Position))
	}
}

// drawMaterials moves depot stock into blueprint shortfalls directly; the
// depot and sites share the settlement core, so no courier trip is modeled
// for stock already banked.
func (s *Simulation) drawMaterials() {
	for _, b := range s.Construction.Buildings() {
		if b.Complete {
			continue
		}
		for k := 0; k < world.NumResources; k++ {
			kind := world.ResourceKind(k)
			short := b.Shortfall(kind)
			if short == 0 {
				continue
			}
			got := s.Depot.Take(kind, short)
			if got > 0 {
				s.Construction.Deliver(b.ID, kind, got)
			}
		}
	}
}

// planRoads paves the most-trafficked tiles, funding each road from stone
// already on hand.
func (s *Simulation) planRoads(tick uint64) {
	roadCost := construct.Blueprints[construct.KindRoad].Cost[world.ResourceStone]

	type usage struct {
		c world.Coord
		n int
	}
	var busy []usage
	for c, n := range s.tileUsage {
		if n < 20 || s.Construction.CompleteAt(c) != nil {
			continue
		}
		busy = append(busy, usage{c, n})
	}
	sort.Slice(busy, func(i, j int) bool {
		if busy[i].n != busy[j].n {
			return busy[i].n > busy[j].n
		}
		if busy[i].c.X != busy[j].c.X {
			return busy[i].c.X < busy[j].c.X
		}
		return busy[i].c.Y < busy[j].c.Y
	})

	paved := 0
	for _, u := range busy {
		if paved >= 3 || s.Depot.Stock[world.ResourceStone] < roadCost {
			break
		}
		b, err := s.Construction.PlaceNear(construct.KindRoad, u.c, s.walkable)
		if err != nil || b.Position != u.c {
			continue
		}
		got := s.Depot.Take(world.ResourceStone, roadCost)
		s.Construction.Deliver(b.ID, world.ResourceStone, got)
		paved++
	}
	if paved > 0 {
		s.LogEvent(tick, "build", fmt.Sprintf("planned %d road segments along busy routes", paved))
	}
	s.tileUsage = make(map[world.Coord]int)
}

// dailyPass ages the population, lifts moods near the marketplace and
// company, rebalances roles, and plans the next building.
func (s *Simulation) dailyPass(tick uint64) {
	for _, v := range s.Villagers {
		if v.AgeOneDay() {
			s.LogEvent(tick, "population", fmt.Sprintf("villager %d is now %s", v.ID, stageName(v.LifeStage)))
		}
		if s.Construction.CompleteNear(construct.KindMarketplace, v.Position, marketRadius) {
			v.AdjustMood(1)
		}
		if v.Personality == villager.PersonalitySocial && s.neighborWithin(v, 2) {
			v.AdjustMood(1)
		}
	}

	s.assignHomes()
	s.tryBirth(tick)
	s.rebalanceRoles()
	s.planConstruction(tick)

	slog.Info("daily report",
		"time", s.TimeOfDay(tick),
		"population", len(s.Villagers),
		"wood", s.Depot.Stock[world.ResourceWood],
		"stone", s.Depot.Stock[world.ResourceStone],
		"food", s.Depot.Stock[world.ResourceFood],
		"buildings", len(s.Construction.Buildings()),
	)
}

// neighborWithin reports whether another villager stands within Chebyshev
// distance r.
func (s *Simulation) neighborWithin(v *villager.Villager, r int) bool {
	for _, o := range s.Villagers {
		if o.ID == v.ID {
			continue
		}
		dx, dy := o.Position.X-v.Position.X, o.Position.Y-v.Position.Y
		if dx < 0 {
			dx = -dx
		}
		if dy < 0 {
			dy = -dy
		}
		if dx <= r && dy <= r {
			return true
		}
	}
	return false
}

// assignHomes fills spare house capacity with homeless villagers.
func (s *Simulation) assignHomes() {
	for _, b := range s.Construction.Buildings() {
		if b.Kind != construct.KindHouse || !b.Complete {
			continue
		}
		cap := b.Blueprint().Capacity
		for _, v := range s.Villagers {
			if len(b.Residents) >= cap {
				break
			}
			if v.Home == nil {
				home := b.Position
				v.Home = &home
				b.Residents = append(b.Residents, uint64(v.ID))
			}
		}
	}
}

// tryBirth spawns a child when housing and food allow it.
func (s *Simulation) tryBirth(tick uint64) {
	if len(s.Villagers) >= s.Construction.HousingCapacity() {
		return
	}
	if s.Depot.Take(world.ResourceFood, 1) == 0 {
		return
	}
	for _, b := range s.Construction.Buildings() {
		if b.Kind != construct.KindHouse || !b.Complete || len(b.Residents) >= b.Blueprint().Capacity {
			continue
		}
		child := s.Spawner.Spawn(s.nearestWalkable(b.Position), 0, tick)
		home := b.Position
		child.Home = &home
		b.Residents = append(b.Residents, uint64(child.ID))
		s.AddVillager(child)
		s.LogEvent(tick, "birth", fmt.Sprintf("villager %d born at %v", child.ID, b.Position))
		return
	}
}

// rebalanceRoles keeps the occupations the settlement needs staffed:
// everyone starts as a labourer, and adults are promoted in ID order.
func (s *Simulation) rebalanceRoles() {
	var adults []*villager.Villager
	counts := map[villager.Role]int{}
	for _, v := range s.Villagers {
		if v.LifeStage == villager.StageAdult || v.LifeStage == villager.StageElder {
			adults = append(adults, v)
			counts[v.Role]++
		}
	}
	type quota struct {
		role villager.Role
		n    int
	}
	want := []quota{
		{villager.RoleWoodcutter, 1},
		{villager.RoleMiner, 1},
		{villager.RoleBuilder, 1},
	}
	if len(adults) >= 8 {
		want[0].n = 2
		want[2].n = 2
	}
	for _, q := range want {
		role, n := q.role, q.n
		for counts[role] < n {
			promoted := false
			for _, v := range adults {
				if v.Role == villager.RoleLabourer {
					v.Role = role
					counts[role]++
					promoted = true
					break
				}
			}
			if !promoted {
				break
			}
		}
	}
}

// buildWishlist is the planner's priority order once the basics stand.
var buildWishlist = []construct.Kind{
	construct.KindLumberyard,
	construct.KindFarm,
	construct.KindQuarry,
	construct.KindHouse,
	construct.KindBlacksmith,
	construct.KindMarketplace,
	construct.KindWatchtower,
}

// planConstruction places at most one new blueprint per day, preferring
// housing pressure over the wishlist. Materials on hand are drawn
// immediately; villagers haul the rest.
func (s *Simulation) planConstruction(tick uint64) {
	active := 0
	for _, b := range s.Construction.Buildings() {
		if !b.Complete {
			active++
		}
	}
	if active >= maxActiveSites {
		return
	}

	kind, ok := s.nextWish()
	if !ok {
		return
	}
	cost := construct.Blueprints[kind].Cost

	// Only commit once roughly half the bill is banked; the rest arrives
	// by courier while the foundation waits.
	for k := 0; k < world.NumResources; k++ {
		if s.Depot.Stock[k] < cost[k]/2 {
			return
		}
	}

	b, err := s.Construction.PlaceNear(kind, s.TownHall, s.walkable)
	if err != nil {
		slog.Warn("no room for planned building", "kind", construct.KindName(kind), "err", err)
		return
	}
	s.LogEvent(tick, "build", fmt.Sprintf("%s planned at %v", construct.KindName(kind), b.Position))
	s.drawMaterials()
}

// nextWish picks the next building to plan. Housing pressure preempts the
// wishlist; wishlist entries are one-of-a-kind.
func (s *Simulation) nextWish() (construct.Kind, bool) {
	if len(s.Villagers) >= s.Construction.HousingCapacity() {
		return construct.KindHouse, true
	}
	for _, kind := range buildWishlist {
		if kind == construct.KindHouse {
			continue
		}
		if s.count(kind) == 0 {
			return kind, true
		}
	}
	return 0, false
}

// count tallies buildings of a kind, complete or not.
func (s *Simulation) count(kind construct.Kind) int {
	n := 0
	for _, b := range s.Construction.Buildings() {
		if b.Kind == kind {
			n++
		}
	}
	return n
}

func stageName(st villager.LifeStage) string {
	switch st {
	case villager.StageChild:
		return "a child"
	case villager.StageAdult:
		return "an adult"
	case villager.StageElder:
		return "an elder"
	default:
		return "retired"
	}
}
