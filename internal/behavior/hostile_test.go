package behavior

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"

	"github.com/valpatel/tritium-sc/internal/eventbus"
	"github.com/valpatel/tritium-sc/internal/pursuit"
	"github.com/valpatel/tritium-sc/internal/spatial"
	"github.com/valpatel/tritium-sc/internal/unit"
)

func newTestHostileBehavior(seed int64) (*HostileBehavior, *eventbus.Bus) {
	c := newTestCombat(seed)
	p := pursuit.New(rand.New(rand.NewSource(seed)))
	bus := eventbus.New(32)
	return NewHostileBehavior(c, p, bus, rand.New(rand.NewSource(seed)), 200), bus
}

func TestHostileTickSpawningDoesNothing(t *testing.T) {
	b, _ := newTestHostileBehavior(1)
	kid := unit.New("kid-1", unit.Hostile, "person", spatial.Point{X: 0, Y: 0})
	kid.FSMState = "spawning"
	before := kid.Position

	b.Tick(kid, map[uuid.UUID]*unit.Unit{}, 10.0)
	if kid.Position != before {
		t.Fatalf("expected spawning hostile to stay in place")
	}
}

func TestHostileTickBrokenMoraleSkipsCombat(t *testing.T) {
	b, _ := newTestHostileBehavior(1)
	kid := unit.New("kid-1", unit.Hostile, "person", spatial.Point{X: 0, Y: 0})
	kid.FSMState = "advancing"
	b.combat.Morale.Seed(kid.ID)
	b.combat.Morale.Set(kid.ID, 0.05)

	friendly := unit.New("person-1", unit.Friendly, "person", spatial.Point{X: 0, Y: 1})
	friendlies := map[uuid.UUID]*unit.Unit{friendly.ID: friendly}

	b.Tick(kid, friendlies, 10.0)
	if friendly.Health != friendly.MaxHealth {
		t.Fatalf("expected a broken hostile not to fire")
	}
}

func TestHostileTickFiresAtNearestFriendlyInRange(t *testing.T) {
	b, _ := newTestHostileBehavior(1)
	kid := unit.New("kid-1", unit.Hostile, "person", spatial.Point{X: 0, Y: 0})
	kid.FSMState = "advancing"
	b.combat.Morale.Seed(kid.ID)

	friendly := unit.New("person-1", unit.Friendly, "person", spatial.Point{X: 0, Y: 1})
	b.combat.Morale.Seed(friendly.ID)
	friendlies := map[uuid.UUID]*unit.Unit{friendly.ID: friendly}

	b.Tick(kid, friendlies, 10.0)
	if friendly.Health >= friendly.MaxHealth {
		t.Fatalf("expected hostile to fire on the nearest in-range friendly")
	}
}

func TestHostileTickFleeingAppliesPursuitEvasionAndSetsEscapeWaypoint(t *testing.T) {
	b, _ := newTestHostileBehavior(1)
	kid := unit.New("kid-1", unit.Hostile, "person", spatial.Point{X: 10, Y: 0})
	kid.FSMState = "fleeing"
	base := kid.Speed

	friendly := unit.New("person-1", unit.Friendly, "person", spatial.Point{X: 0, Y: 0})
	friendlies := map[uuid.UUID]*unit.Unit{friendly.ID: friendly}

	b.Tick(kid, friendlies, 10.0)

	if kid.Speed <= base {
		t.Fatalf("expected flee speed boost to raise speed above base")
	}
	if len(kid.Waypoints) != 1 {
		t.Fatalf("expected an escape waypoint to be set, got %d", len(kid.Waypoints))
	}
	// Escape should point away from the defender at the origin: +X direction.
	if kid.Waypoints[0].X <= kid.Position.X {
		t.Fatalf("expected escape waypoint to lie away from the defender, got %+v", kid.Waypoints[0])
	}
}

func TestCheckGroupRushBoostsSpeedForClusteredHostiles(t *testing.T) {
	b, _ := newTestHostileBehavior(1)
	hostiles := make(map[uuid.UUID]*unit.Unit)
	var base float64
	for i := 0; i < 3; i++ {
		h := unit.New("kid", unit.Hostile, "person", spatial.Point{X: float64(i) * 5, Y: 0})
		hostiles[h.ID] = h
		base = h.Speed
	}

	b.CheckGroupRush(hostiles)
	for _, h := range hostiles {
		if h.Speed <= base {
			t.Fatalf("expected clustered hostiles to get the group rush speed boost")
		}
	}
}

func TestCheckGroupRushRestoresSpeedWhenGroupBreaksUp(t *testing.T) {
	b, _ := newTestHostileBehavior(1)
	hostiles := make(map[uuid.UUID]*unit.Unit)
	ids := make([]uuid.UUID, 0, 3)
	var base float64
	for i := 0; i < 3; i++ {
		h := unit.New("kid", unit.Hostile, "person", spatial.Point{X: float64(i) * 5, Y: 0})
		hostiles[h.ID] = h
		ids = append(ids, h.ID)
		base = h.Speed
	}
	b.CheckGroupRush(hostiles)

	for i, id := range ids {
		hostiles[id].Position = spatial.Point{X: float64(i) * 500, Y: 0}
	}
	b.CheckGroupRush(hostiles)

	for _, h := range hostiles {
		if h.Speed != base {
			t.Fatalf("expected speed restored to %v once hostiles scattered, got %v", base, h.Speed)
		}
	}
}

func TestFleeToBuildingMovesDamagedHostileTowardNearestEdge(t *testing.T) {
	b, _ := newTestHostileBehavior(1)
	kid := unit.New("kid-1", unit.Hostile, "person", spatial.Point{X: 40, Y: 0})
	kid.Health = kid.MaxHealth * 0.2
	base := kid.Speed

	b.SetObstacles([][]spatial.Point{
		{{X: 0, Y: -5}, {X: 10, Y: -5}, {X: 10, Y: 5}, {X: 0, Y: 5}},
	})

	if !b.fleeToBuilding(kid) {
		t.Fatalf("expected a damaged hostile within range of a building to flee to it")
	}
	if kid.Speed <= base {
		t.Fatalf("expected flee-to-building speed boost")
	}
	if len(kid.Waypoints) != 1 {
		t.Fatalf("expected a single building-edge waypoint")
	}

	// Sticky: calling again should keep returning true without re-boosting speed.
	boosted := kid.Speed
	if !b.fleeToBuilding(kid) {
		t.Fatalf("expected fleeToBuilding to remain sticky once committed")
	}
	if kid.Speed != boosted {
		t.Fatalf("expected no further speed compounding on repeat calls")
	}
}

func TestFleeToBuildingRejectsWhenTooFar(t *testing.T) {
	b, _ := newTestHostileBehavior(1)
	kid := unit.New("kid-1", unit.Hostile, "person", spatial.Point{X: 500, Y: 0})
	kid.Health = kid.MaxHealth * 0.2

	b.SetObstacles([][]spatial.Point{
		{{X: 0, Y: -5}, {X: 10, Y: -5}, {X: 10, Y: 5}, {X: 0, Y: 5}},
	})

	if b.fleeToBuilding(kid) {
		t.Fatalf("expected flee-to-building to reject a building far beyond the 50m gate")
	}
}

func TestDodgeAppliesPerpendicularOffsetAfterInterval(t *testing.T) {
	b, _ := newTestHostileBehavior(1)
	kid := unit.New("kid-1", unit.Hostile, "person", spatial.Point{X: 0, Y: 0})
	start := kid.Position

	b.dodge(kid, 0.0)
	if kid.Position != start {
		t.Fatalf("expected no dodge on the very first call (interval not yet elapsed from zero)")
	}
	b.dodge(kid, 100.0)
	if kid.Position == start {
		t.Fatalf("expected a dodge offset once the interval has elapsed")
	}
}
