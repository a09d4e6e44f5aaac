package swarm

import (
	"math"
	"testing"

	"github.com/google/uuid"

	"github.com/valpatel/tritium-sc/internal/spatial"
	"github.com/valpatel/tritium-sc/internal/unit"
)

func ringOfDrones(n int, radius float64) map[uuid.UUID]*unit.Unit {
	drones := make(map[uuid.UUID]*unit.Unit, n)
	for i := 0; i < n; i++ {
		angle := 2.0 * math.Pi * float64(i) / float64(n)
		d := unit.New("swarm", unit.Hostile, "swarm_drone", spatial.Point{
			X: radius * math.Cos(angle),
			Y: radius * math.Sin(angle),
		})
		d.Status = unit.StatusActive
		drones[d.ID] = d
	}
	return drones
}

func avgDistanceTo(drones map[uuid.UUID]*unit.Unit, p spatial.Point) float64 {
	var total float64
	for _, d := range drones {
		total += math.Hypot(d.Position.X-p.X, d.Position.Y-p.Y)
	}
	return total / float64(len(drones))
}

func minPairwiseDistance(drones map[uuid.UUID]*unit.Unit) float64 {
	ids := make([]uuid.UUID, 0, len(drones))
	for id := range drones {
		ids = append(ids, id)
	}
	min := math.Inf(1)
	for i := range ids {
		for j := i + 1; j < len(ids); j++ {
			a, b := drones[ids[i]], drones[ids[j]]
			d := math.Hypot(a.Position.X-b.Position.X, a.Position.Y-b.Position.Y)
			if d < min {
				min = d
			}
		}
	}
	return min
}

func TestTickConvergesOnNearestFriendlyWithoutCollapsing(t *testing.T) {
	drones := ringOfDrones(10, 50.0)
	friendly := unit.New("defender", unit.Friendly, "turret", spatial.Point{X: 0, Y: 0})
	friendly.Status = unit.StatusActive
	friendlies := map[uuid.UUID]*unit.Unit{friendly.ID: friendly}

	before := avgDistanceTo(drones, friendly.Position)

	c := New()
	for i := 0; i < 50; i++ {
		c.Tick(0.1, drones, friendlies)
	}

	after := avgDistanceTo(drones, friendly.Position)
	if after >= before {
		t.Fatalf("expected average distance to friendly to decrease, before=%v after=%v", before, after)
	}
	if minPairwiseDistance(drones) < 1.0 {
		t.Fatalf("expected separation to keep drones at least 1m apart, got %v", minPairwiseDistance(drones))
	}
}

func TestTickSkipsNonActiveDrones(t *testing.T) {
	drones := ringOfDrones(3, 20.0)
	var frozenID uuid.UUID
	for id, d := range drones {
		d.Status = unit.StatusIdle
		frozenID = id
		break
	}
	before := drones[frozenID].Position

	friendly := unit.New("defender", unit.Friendly, "turret", spatial.Point{X: 0, Y: 0})
	friendly.Status = unit.StatusActive
	friendlies := map[uuid.UUID]*unit.Unit{friendly.ID: friendly}

	c := New()
	c.Tick(0.1, drones, friendlies)

	if drones[frozenID].Position != before {
		t.Fatalf("expected an idle drone to stay in place")
	}
}

func TestTickNoFriendliesStillAppliesSeparation(t *testing.T) {
	drones := ringOfDrones(4, 3.0)
	before := minPairwiseDistance(drones)

	c := New()
	c.Tick(0.1, drones, map[uuid.UUID]*unit.Unit{})

	after := minPairwiseDistance(drones)
	if after <= before {
		t.Fatalf("expected separation to push tightly clustered drones further apart even with no target, before=%v after=%v", before, after)
	}
}

func TestCircleStrafePositionsAreEvenlySpaced(t *testing.T) {
	target := spatial.Point{X: 10, Y: 10}
	positions := CircleStrafePositions(target, 25.0, 4)
	if len(positions) != 4 {
		t.Fatalf("expected 4 positions, got %d", len(positions))
	}
	for _, p := range positions {
		d := math.Hypot(p.X-target.X, p.Y-target.Y)
		if math.Abs(d-25.0) > 1e-9 {
			t.Fatalf("expected every position exactly 25m from target, got %v", d)
		}
	}
}

func TestDiveBombPositionsAllConvergeOnTarget(t *testing.T) {
	target := spatial.Point{X: 5, Y: 5}
	starts := []spatial.Point{{X: 0, Y: 0}, {X: 100, Y: 100}, {X: -50, Y: 20}}
	positions := DiveBombPositions(target, starts)
	for _, p := range positions {
		if p != target {
			t.Fatalf("expected every dive-bomb position to equal the target, got %+v", p)
		}
	}
}

func TestWaveAssaultPositionsFormPerpendicularLine(t *testing.T) {
	target := spatial.Point{X: 0, Y: 0}
	positions := WaveAssaultPositions(target, 0, 5, 3.0)
	if len(positions) != 5 {
		t.Fatalf("expected 5 positions, got %d", len(positions))
	}
	// Approaching due north (heading 0): the line should vary in X, be constant in Y.
	for i := 1; i < len(positions); i++ {
		if math.Abs(positions[i].Y-positions[0].Y) > 1e-9 {
			t.Fatalf("expected constant Y across the wave line, got %+v vs %+v", positions[i], positions[0])
		}
	}
	if positions[0].X == positions[len(positions)-1].X {
		t.Fatalf("expected the line to span distinct X offsets")
	}
}

func TestSplitPincerPositionsFlankOppositeSides(t *testing.T) {
	target := spatial.Point{X: 0, Y: 0}
	left, right := SplitPincerPositions(target, 0, 6, 30.0)
	if len(left) != 3 || len(right) != 3 {
		t.Fatalf("expected 3 and 3 positions, got %d and %d", len(left), len(right))
	}
	if left[0].X >= 0 || right[0].X <= 0 {
		t.Fatalf("expected left group on the negative-X side and right group on the positive-X side, got left=%+v right=%+v", left[0], right[0])
	}
}

func TestApplyAOEDamageOnlyAffectsDronesWithinRadius(t *testing.T) {
	near := unit.New("near", unit.Hostile, "swarm_drone", spatial.Point{X: 5, Y: 0})
	near.Status = unit.StatusActive
	far := unit.New("far", unit.Hostile, "swarm_drone", spatial.Point{X: 100, Y: 0})
	far.Status = unit.StatusActive
	drones := map[uuid.UUID]*unit.Unit{near.ID: near, far.ID: far}

	affected := ApplyAOEDamage(drones, spatial.Point{X: 0, Y: 0}, 15.0, 1000.0)
	if affected != 1 {
		t.Fatalf("expected exactly 1 drone affected, got %d", affected)
	}
	if near.Health != 0 {
		t.Fatalf("expected the near drone to take lethal flat damage")
	}
	if far.Health != far.MaxHealth {
		t.Fatalf("expected the far drone to be untouched")
	}
}
