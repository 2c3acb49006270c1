// Package cluster maintains a spatial index of known resource tiles grouped
// into clusters, answering "nearest resource of kind X" queries without
// touching the map. The index is a soft cache: member amounts are what was
// last observed, verified lazily when a gather action actually visits a
// tile. Callers must treat answers as hints and fall back to a bounded BFS
// when a hinted tile turns out to be depleted.
package cluster

import (
	"github.com/talgya/hamlet/internal/world"
)

// DefaultLinkDistance merges same-kind tiles within this Manhattan distance
// of a cluster centroid into that cluster.
const DefaultLinkDistance = 8

// preferRadius is how close a cluster centroid must be to a preference
// anchor (a lumberyard, for wood) to receive the proximity bias.
const preferRadius = 16

// TileSample is one scanned tile, fed to the index during region rescans.
type TileSample struct {
	Coord  world.Coord
	Kind   world.ResourceKind
	Amount int
}

// Cluster is a cached group of nearby same-kind resource tiles.
type Cluster struct {
	Kind         world.ResourceKind
	Members      map[world.Coord]int // coord → last observed amount (> 0)
	LastVerified uint64              // tick of the most recent member observation

	sumX, sumY int
}

// Centroid returns the integer centroid of the member tiles.
func (c *Cluster) Centroid() world.Coord {
	n := len(c.Members)
	if n == 0 {
		return world.Coord{}
	}
	return world.Coord{X: c.sumX / n, Y: c.sumY / n}
}

// NearestMember returns the live member closest to pos for which skip
// returns false. Ties break on lower X, then lower Y, keeping the choice
// deterministic. ok is false when every member is skipped.
func (c *Cluster) NearestMember(pos world.Coord, skip func(world.Coord) bool) (world.Coord, bool) {
	var best world.Coord
	bestDist := -1
	for m := range c.Members {
		if skip != nil && skip(m) {
			continue
		}
		d := pos.Manhattan(m)
		if bestDist < 0 || d < bestDist ||
			(d == bestDist && (m.X < best.X || (m.X == best.X && m.Y < best.Y))) {
			best, bestDist = m, d
		}
	}
	return best, bestDist >= 0
}

func (c *Cluster) add(coord world.Coord, amount int) {
	if _, known := c.Members[coord]; !known {
		c.sumX += coord.X
		c.sumY += coord.Y
	}
	c.Members[coord] = amount
}

func (c *Cluster) remove(coord world.Coord) {
	if _, known := c.Members[coord]; !known {
		return
	}
	delete(c.Members, coord)
	c.sumX -= coord.X
	c.sumY -= coord.Y
}

// Index is the per-kind cluster store.
type Index struct {
	linkDist int
	clusters map[world.ResourceKind][]*Cluster
	byTile   map[world.Coord]*Cluster

	// Scan resolves tiles inside a region through the terrain oracle during
	// invalidation rescans. Live resource tiles are registered.
	Scan func(bounds world.Rect) []TileSample

	dirty []world.Rect

	preferred map[world.ResourceKind][]world.Coord
}

// New creates an empty index. linkDist <= 0 uses DefaultLinkDistance.
func New(linkDist int) *Index {
	if linkDist <= 0 {
		linkDist = DefaultLinkDistance
	}
	return &Index{
		linkDist:  linkDist,
		clusters:  make(map[world.ResourceKind][]*Cluster),
		byTile:    make(map[world.Coord]*Cluster),
		preferred: make(map[world.ResourceKind][]world.Coord),
	}
}

// RegisterTile records a resource observation. Tiles with no live resource
// are ignored; known tiles have their cached amount refreshed. New tiles
// join the cluster whose centroid is within the link distance, or start a
// cluster of their own.
func (ix *Index) RegisterTile(coord world.Coord, kind world.ResourceKind, amount int) {
	if kind == world.ResourceNone || amount <= 0 {
		return
	}
	if cl, known := ix.byTile[coord]; known {
		cl.Members[coord] = amount
		return
	}

	var target *Cluster
	bestDist := -1
	for _, cl := range ix.clusters[kind] {
		d := cl.Centroid().Manhattan(coord)
		if d <= ix.linkDist && (bestDist < 0 || d < bestDist) {
			target, bestDist = cl, d
		}
	}
	if target == nil {
		target = &Cluster{Kind: kind, Members: make(map[world.Coord]int)}
		ix.clusters[kind] = append(ix.clusters[kind], target)
	}
	target.add(coord, amount)
	ix.byTile[coord] = target
}

// Deplete records that taken units were removed from the tile at coord and
// that remaining units are left. A drained tile leaves its cluster; a
// cluster with no live members is evicted. This is the lazy verification
// point: it runs when a gather action actually touches the tile.
func (ix *Index) Deplete(coord world.Coord, remaining int, tick uint64) {
	cl, known := ix.byTile[coord]
	if !known {
		return
	}
	cl.LastVerified = tick
	if remaining > 0 {
		cl.Members[coord] = remaining
		return
	}
	cl.remove(coord)
	delete(ix.byTile, coord)
	if len(cl.Members) == 0 {
		ix.evict(cl)
	}
}

// Nearest returns the cluster of the given kind whose centroid is closest
// to pos, or nil when none is known. Clusters near a preference anchor
// (e.g. wood clusters by a lumberyard) have their effective distance
// halved. Pending region invalidations are drained first.
func (ix *Index) Nearest(pos world.Coord, kind world.ResourceKind) *Cluster {
	ix.drainDirty()

	var best *Cluster
	bestDist := -1
	for _, cl := range ix.clusters[kind] {
		if len(cl.Members) == 0 {
			continue
		}
		cen := cl.Centroid()
		d := pos.Manhattan(cen)
		if ix.nearPreferred(kind, cen) {
			d /= 2
		}
		if bestDist < 0 || d < bestDist ||
			(d == bestDist && lessCoord(cen, best.Centroid())) {
			best, bestDist = cl, d
		}
	}
	return best
}

// InvalidateRegion queues a region for rescan on the next query. Called
// when the map generates tiles in a previously unexplored sector.
func (ix *Index) InvalidateRegion(bounds world.Rect) {
	ix.dirty = append(ix.dirty, bounds)
}

// AddPreference biases future Nearest answers of the given kind toward the
// anchor. Used when a lumberyard completes.
func (ix *Index) AddPreference(kind world.ResourceKind, anchor world.Coord) {
	ix.preferred[kind] = append(ix.preferred[kind], anchor)
}

// KnownTiles returns how many live tiles the index currently tracks.
func (ix *Index) KnownTiles() int {
	return len(ix.byTile)
}

// ClusterCount returns the number of live clusters of the given kind.
func (ix *Index) ClusterCount(kind world.ResourceKind) int {
	n := 0
	for _, cl := range ix.clusters[kind] {
		if len(cl.Members) > 0 {
			n++
		}
	}
	return n
}

// drainDirty rescans a bounded number of queued regions per query so one
// burst of exploration cannot stall a dispatch pass.
func (ix *Index) drainDirty() {
	const maxPerQuery = 4
	if ix.Scan == nil {
		ix.dirty = nil
		return
	}
	n := len(ix.dirty)
	if n > maxPerQuery {
		n = maxPerQuery
	}
	for i := 0; i < n; i++ {
		for _, s := range ix.Scan(ix.dirty[i]) {
			ix.RegisterTile(s.Coord, s.Kind, s.Amount)
		}
	}
	ix.dirty = ix.dirty[n:]
}

func (ix *Index) nearPreferred(kind world.ResourceKind, cen world.Coord) bool {
	for _, a := range ix.preferred[kind] {
		if a.Manhattan(cen) <= preferRadius {
			return true
		}
	}
	return false
}

func (ix *Index) evict(dead *Cluster) {
	list := ix.clusters[dead.Kind]
	for i, cl := range list {
		if cl == dead {
			ix.clusters[dead.Kind] = append(list[:i], list[i+1:]...)
			return
		}
	}
}

func lessCoord(a, b world.Coord) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	return a.Y < b.Y
}
