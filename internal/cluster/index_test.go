package cluster

import (
	"testing"

	"github.com/talgya/hamlet/internal/world"
)

func TestRegisterMergesNearbyTiles(t *testing.T) {
	ix := New(8)
	ix.RegisterTile(world.Coord{X: 0, Y: 0}, world.ResourceWood, 100)
	ix.RegisterTile(world.Coord{X: 3, Y: 0}, world.ResourceWood, 100)
	ix.RegisterTile(world.Coord{X: 0, Y: 4}, world.ResourceWood, 100)

	if n := ix.ClusterCount(world.ResourceWood); n != 1 {
		t.Fatalf("cluster count = %d, want 1", n)
	}

	// A tile far away starts its own cluster.
	ix.RegisterTile(world.Coord{X: 50, Y: 50}, world.ResourceWood, 100)
	if n := ix.ClusterCount(world.ResourceWood); n != 2 {
		t.Fatalf("cluster count = %d, want 2", n)
	}
}

func TestRegisterIgnoresDeadTiles(t *testing.T) {
	ix := New(0)
	ix.RegisterTile(world.Coord{X: 1, Y: 1}, world.ResourceWood, 0)
	ix.RegisterTile(world.Coord{X: 2, Y: 2}, world.ResourceNone, 10)
	if ix.KnownTiles() != 0 {
		t.Fatalf("known tiles = %d, want 0", ix.KnownTiles())
	}
}

func TestNearestPrefersCloserCentroid(t *testing.T) {
	ix := New(8)
	ix.RegisterTile(world.Coord{X: 10, Y: 0}, world.ResourceStone, 50)
	ix.RegisterTile(world.Coord{X: 100, Y: 0}, world.ResourceStone, 50)

	cl := ix.Nearest(world.Coord{X: 0, Y: 0}, world.ResourceStone)
	if cl == nil {
		t.Fatal("nearest returned nil")
	}
	if cen := cl.Centroid(); cen != (world.Coord{X: 10, Y: 0}) {
		t.Fatalf("centroid = %v, want (10,0)", cen)
	}
	if ix.Nearest(world.Coord{X: 0, Y: 0}, world.ResourceWood) != nil {
		t.Fatal("nearest wood should be nil for a stone-only index")
	}
}

func TestDepleteNeverBelowZeroAndEvictsEmptyClusters(t *testing.T) {
	ix := New(8)
	a := world.Coord{X: 0, Y: 0}
	b := world.Coord{X: 2, Y: 0}
	ix.RegisterTile(a, world.ResourceWood, 10)
	ix.RegisterTile(b, world.ResourceWood, 10)

	ix.Deplete(a, 4, 1)
	cl := ix.Nearest(world.Coord{}, world.ResourceWood)
	if cl.Members[a] != 4 {
		t.Fatalf("cached amount = %d, want 4", cl.Members[a])
	}
	if cl.LastVerified != 1 {
		t.Fatalf("last verified = %d, want 1", cl.LastVerified)
	}

	// Drain both tiles; the cluster must vanish from query results.
	ix.Deplete(a, 0, 2)
	ix.Deplete(b, 0, 3)
	if got := ix.Nearest(world.Coord{}, world.ResourceWood); got != nil {
		t.Fatalf("nearest after full depletion = %+v, want nil", got)
	}
	if ix.ClusterCount(world.ResourceWood) != 0 {
		t.Fatalf("cluster count = %d, want 0", ix.ClusterCount(world.ResourceWood))
	}
}

func TestNearestMemberSkipsClaimedTiles(t *testing.T) {
	ix := New(8)
	near := world.Coord{X: 1, Y: 0}
	far := world.Coord{X: 5, Y: 0}
	ix.RegisterTile(near, world.ResourceWood, 10)
	ix.RegisterTile(far, world.ResourceWood, 10)

	cl := ix.Nearest(world.Coord{}, world.ResourceWood)
	m, ok := cl.NearestMember(world.Coord{}, nil)
	if !ok || m != near {
		t.Fatalf("nearest member = %v ok=%v, want %v", m, ok, near)
	}

	m, ok = cl.NearestMember(world.Coord{}, func(c world.Coord) bool { return c == near })
	if !ok || m != far {
		t.Fatalf("nearest unclaimed member = %v ok=%v, want %v", m, ok, far)
	}

	_, ok = cl.NearestMember(world.Coord{}, func(world.Coord) bool { return true })
	if ok {
		t.Fatal("all members skipped, want ok=false")
	}
}

func TestInvalidateRegionRescansOnNextQuery(t *testing.T) {
	ix := New(8)
	deposit := world.Coord{X: 40, Y: 40}
	scans := 0
	ix.Scan = func(bounds world.Rect) []TileSample {
		scans++
		if !bounds.Contains(deposit) {
			return nil
		}
		return []TileSample{{Coord: deposit, Kind: world.ResourceStone, Amount: 80}}
	}

	ix.InvalidateRegion(world.Rect{MinX: 32, MinY: 32, MaxX: 63, MaxY: 63})
	cl := ix.Nearest(world.Coord{}, world.ResourceStone)
	if cl == nil {
		t.Fatal("rescan did not register the new deposit")
	}
	if scans != 1 {
		t.Fatalf("scan calls = %d, want 1", scans)
	}
	if _, known := cl.Members[deposit]; !known {
		t.Fatalf("deposit %v missing from cluster members", deposit)
	}

	// Second query must not rescan the same region again.
	ix.Nearest(world.Coord{}, world.ResourceStone)
	if scans != 1 {
		t.Fatalf("scan calls after second query = %d, want 1", scans)
	}
}

func TestPreferenceBiasesNearest(t *testing.T) {
	ix := New(8)
	plain := world.Coord{X: 30, Y: 0}
	yardSide := world.Coord{X: 50, Y: 0}
	ix.RegisterTile(plain, world.ResourceWood, 100)
	ix.RegisterTile(yardSide, world.ResourceWood, 100)

	// Without a preference the closer cluster wins.
	if cen := ix.Nearest(world.Coord{}, world.ResourceWood).Centroid(); cen != plain {
		t.Fatalf("centroid = %v, want %v", cen, plain)
	}

	// A lumberyard next to the far cluster halves its effective distance:
	// 50/2 = 25 < 30.
	ix.AddPreference(world.ResourceWood, world.Coord{X: 52, Y: 0})
	if cen := ix.Nearest(world.Coord{}, world.ResourceWood).Centroid(); cen != yardSide {
		t.Fatalf("centroid with yard preference = %v, want %v", cen, yardSide)
	}
}
