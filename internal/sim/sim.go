// Package sim ties the world, pathfinding, cluster index, job board,
// villagers, and construction together and advances them one tick at a
// time. All mutation flows through the Simulation context: one authoritative
// pass per tick, no interleaving between agents, so tile claims need no
// locking.
package sim

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/talgya/hamlet/internal/cluster"
	"github.com/talgya/hamlet/internal/config"
	"github.com/talgya/hamlet/internal/construct"
	"github.com/talgya/hamlet/internal/job"
	"github.com/talgya/hamlet/internal/path"
	"github.com/talgya/hamlet/internal/villager"
	"github.com/talgya/hamlet/internal/world"
)

// maxEvents bounds the in-memory event ring.
const maxEvents = 256

// Event is a notable occurrence surfaced to the API and logs.
type Event struct {
	Tick        uint64 `json:"tick"`
	Category    string `json:"category"` // "job", "build", "birth", "population"
	Description string `json:"description"`
}

// Depot is the global resource store. Additions clamp to capacity.
type Depot struct {
	Stock    [world.NumResources]int
	Capacity int
}

// Add stores up to qty units and returns how many fit.
func (d *Depot) Add(kind world.ResourceKind, qty int) int {
	if qty <= 0 {
		return 0
	}
	free := d.Capacity - d.Total()
	if qty > free {
		qty = free
	}
	if qty < 0 {
		qty = 0
	}
	d.Stock[kind] += qty
	return qty
}

// Take removes up to qty units and returns how many came out.
func (d *Depot) Take(kind world.ResourceKind, qty int) int {
	if qty <= 0 {
		return 0
	}
	if qty > d.Stock[kind] {
		qty = d.Stock[kind]
	}
	d.Stock[kind] -= qty
	return qty
}

// Total returns the combined stored units.
func (d *Depot) Total() int {
	n := 0
	for _, qty := range d.Stock {
		n += qty
	}
	return n
}

// Simulation holds the complete world state and wires systems together.
type Simulation struct {
	Cfg config.Config

	Gen          *world.TerrainGenerator
	Map          *world.Map
	Clusters     *cluster.Index
	Board        *job.Board
	Construction *construct.Manager
	Paths        *path.Engine
	Spawner      *villager.Spawner

	// Villagers stays sorted by ascending ID: spawns append and IDs are
	// issued in increasing order, which the dispatch pass relies on.
	Villagers []*villager.Villager
	byID      map[villager.ID]*villager.Villager

	Depot    Depot
	TownHall world.Coord
	DepotPos world.Coord

	Events   []Event
	LastTick uint64

	// outstanding build jobs per building so the dispatcher does not
	// double-submit.
	outstandingBuild map[uint64]string

	tileUsage map[world.Coord]int
}

// New generates a fresh world and bootstraps the starting settlement: a
// town hall on the first suitable tile near the origin, a storage depot
// beside it, primed resource clusters, and one villager.
func New(cfg config.Config) *Simulation {
	gcfg := world.DefaultGenConfig()
	gcfg.Seed = cfg.Seed
	gen := world.NewTerrainGenerator(gcfg)
	s := &Simulation{
		Cfg:              cfg,
		Gen:              gen,
		Map:              world.NewMap(gen),
		Clusters:         cluster.New(cfg.ClusterLinkDistance),
		Board:            job.NewBoard(),
		Construction:     construct.NewManager(),
		Spawner:          villager.NewSpawner(cfg.Seed),
		byID:             make(map[villager.ID]*villager.Villager),
		Depot:            Depot{Capacity: cfg.StorageCapacity},
		outstandingBuild: make(map[uint64]string),
		tileUsage:        make(map[world.Coord]int),
	}
	s.Paths = path.NewEngine(s.walkable)
	s.Construction.OnComplete = s.onBuildingComplete
	s.Map.OnDiscover = s.Clusters.InvalidateRegion
	s.Clusters.Scan = s.scanRegion

	s.bootstrap()
	return s
}

// CurrentTick returns the most recently processed tick number.
func (s *Simulation) CurrentTick() uint64 {
	return s.LastTick
}

// Step advances the simulation by one tick in the fixed order: dispatch
// jobs, step every villager's FSM once, then run construction and
// population side effects.
func (s *Simulation) Step(tick uint64) {
	s.LastTick = tick
	s.dispatchJobs(tick)
	for _, v := range s.Villagers {
		s.stepVillager(v, tick)
	}
	s.runSideEffects(tick)
}

// AddVillager registers a spawned villager, keeping ID order.
func (s *Simulation) AddVillager(v *villager.Villager) {
	s.Villagers = append(s.Villagers, v)
	s.byID[v.ID] = v
}

// VillagerByID returns the villager with the given ID, or nil.
func (s *Simulation) VillagerByID(id villager.ID) *villager.Villager {
	return s.byID[id]
}

// Restore adopts persisted state wholesale, replacing the bootstrap world:
// tile cache, buildings, villagers, depot stock, and the tick counter. The
// cluster index and settlement anchors are rebuilt from the restored data;
// jobs and claims are transient and start empty.
func (s *Simulation) Restore(
	tiles map[world.Coord]world.Tile,
	buildings []*construct.Building,
	vs []*villager.Villager,
	depot [world.NumResources]int,
	tick uint64,
) {
	s.Map.RestoreTiles(tiles)

	s.Clusters = cluster.New(s.Cfg.ClusterLinkDistance)
	s.Clusters.Scan = s.scanRegion
	s.Map.OnDiscover = s.Clusters.InvalidateRegion
	// Registration order shapes cluster membership; sort so a restore
	// rebuilds the same clusters every time.
	coords := make([]world.Coord, 0, len(tiles))
	for c := range tiles {
		coords = append(coords, c)
	}
	sort.Slice(coords, func(i, j int) bool {
		if coords[i].X != coords[j].X {
			return coords[i].X < coords[j].X
		}
		return coords[i].Y < coords[j].Y
	})
	for _, c := range coords {
		if t := tiles[c]; t.Resource != world.ResourceNone && t.Amount > 0 {
			s.Clusters.RegisterTile(c, t.Resource, t.Amount)
		}
	}

	s.Construction = construct.NewManager()
	s.Construction.OnComplete = s.onBuildingComplete
	for _, b := range buildings {
		s.Construction.Restore(b)
		if !b.Complete {
			continue
		}
		switch b.Kind {
		case construct.KindTownHall:
			s.TownHall = b.Position
		case construct.KindStorage:
			s.DepotPos = b.Position
		case construct.KindLumberyard:
			s.Clusters.AddPreference(world.ResourceWood, b.Position)
		}
	}

	s.Villagers = nil
	s.byID = make(map[villager.ID]*villager.Villager)
	maxID := villager.ID(0)
	for _, v := range vs {
		v.ClearWork()
		s.AddVillager(v)
		if v.ID > maxID {
			maxID = v.ID
		}
	}
	s.Spawner.SetNextID(maxID + 1)

	s.Depot.Stock = depot
	s.LastTick = tick
	s.Board = job.NewBoard()
	s.Events = nil

	slog.Info("world restored",
		"tick", tick,
		"villagers", len(vs),
		"buildings", len(buildings),
		"tiles", len(tiles),
	)
}

// walkable is the combined passability test: terrain plus completed
// building footprints.
func (s *Simulation) walkable(c world.Coord) bool {
	return s.Map.Walkable(c) && !s.Construction.Blocked(c)
}

// scanRegion resolves tiles through the terrain oracle for cluster-index
// rescans. It reads the oracle directly so a rescan cannot trigger further
// sector discoveries.
func (s *Simulation) scanRegion(bounds world.Rect) []cluster.TileSample {
	var out []cluster.TileSample
	for y := bounds.MinY; y <= bounds.MaxY; y++ {
		for x := bounds.MinX; x <= bounds.MaxX; x++ {
			t := s.Gen.TileAt(x, y)
			if t.Resource != world.ResourceNone && t.Amount > 0 {
				out = append(out, cluster.TileSample{
					Coord:  world.Coord{X: x, Y: y},
					Kind:   t.Resource,
					Amount: t.Amount,
				})
			}
		}
	}
	return out
}

// HourOf converts a tick to the 24-hour clock. The simulation starts at
// dawn (06:00).
func (s *Simulation) HourOf(tick uint64) int {
	day := uint64(s.Cfg.DayTicks)
	return int((tick + day/4) % day * 24 / day)
}

// IsNight reports whether villagers should be heading home to sleep.
func (s *Simulation) IsNight(tick uint64) bool {
	return s.HourOf(tick) < 3
}

// TimeOfDay renders the clock as "Day N HH:MM".
func (s *Simulation) TimeOfDay(tick uint64) string {
	day := uint64(s.Cfg.DayTicks)
	adj := tick + day/4
	frac := adj % day
	hours := frac * 24 / day
	minutes := (frac*24%day)*60 / day
	return fmt.Sprintf("Day %d %02d:%02d", adj/day+1, hours, minutes)
}

// LogEvent appends to the bounded event ring.
func (s *Simulation) LogEvent(tick uint64, category, description string) {
	s.Events = append(s.Events, Event{Tick: tick, Category: category, Description: description})
	if len(s.Events) > maxEvents {
		s.Events = s.Events[len(s.Events)-maxEvents:]
	}
}

// DrainEvents returns the buffered events and empties the ring. Persistence
// calls this so each event reaches the database exactly once.
func (s *Simulation) DrainEvents() []Event {
	out := s.Events
	s.Events = nil
	return out
}

// bootstrap clears the start area and places the settlement core.
func (s *Simulation) bootstrap() {
	start := s.findStart()
	s.TownHall = start

	// Flatten the core so the first trips cannot be walled in.
	for dx := -2; dx <= 2; dx++ {
		for dy := -2; dy <= 2; dy++ {
			c := world.Coord{X: start.X + dx, Y: start.Y + dy}
			s.Map.SetTile(c, world.Tile{Kind: world.TileGrass, Walkable: true})
		}
	}

	s.Construction.PlaceCompleted(construct.KindTownHall, start)
	s.DepotPos = s.nearestWalkable(world.Coord{X: start.X + 2, Y: start.Y})
	s.Construction.PlaceCompleted(construct.KindStorage, s.DepotPos)

	// Prime the cluster index with sampled deposits around the settlement.
	for _, c := range s.Gen.SampleResourceTiles(start, 200, 500) {
		t := s.Gen.TileAt(c.X, c.Y)
		s.Clusters.RegisterTile(c, t.Resource, t.Amount)
	}

	first := s.Spawner.Spawn(start, 18, 0)
	first.Role = villager.RoleLabourer
	s.AddVillager(first)

	slog.Info("settlement founded",
		"town_hall", s.TownHall,
		"depot", s.DepotPos,
		"known_resource_tiles", s.Clusters.KnownTiles(),
	)
}

// findStart ring-scans outward from the origin for a walkable tile.
func (s *Simulation) findStart() world.Coord {
	const scanRadius = 300
	for r := 0; r <= scanRadius; r++ {
		for _, c := range ringAround(world.Coord{}, r) {
			if s.Gen.TileAt(c.X, c.Y).Walkable {
				return c
			}
		}
	}
	return world.Coord{}
}

// nearestWalkable ring-scans for the closest walkable, unoccupied tile.
func (s *Simulation) nearestWalkable(origin world.Coord) world.Coord {
	for r := 0; r <= 50; r++ {
		for _, c := range ringAround(origin, r) {
			if s.walkable(c) {
				return c
			}
		}
	}
	return origin
}

// ringAround lists tiles at Chebyshev distance r in a fixed scan order.
func ringAround(center world.Coord, r int) []world.Coord {
	if r == 0 {
		return []world.Coord{center}
	}
	var out []world.Coord
	for x := center.X - r; x <= center.X+r; x++ {
		out = append(out, world.Coord{X: x, Y: center.Y - r})
		out = append(out, world.Coord{X: x, Y: center.Y + r})
	}
	for y := center.Y - r + 1; y <= center.Y+r-1; y++ {
		out = append(out, world.Coord{X: center.X - r, Y: y})
		out = append(out, world.Coord{X: center.X + r, Y: y})
	}
	return out
}
