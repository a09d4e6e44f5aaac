package intercept

import (
	"math"
	"testing"

	"github.com/valpatel/tritium-sc/internal/spatial"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestTargetVelocityNorthHeading(t *testing.T) {
	v := TargetVelocity(0, 10)
	if !almostEqual(v.X, 0, 1e-9) || !almostEqual(v.Y, 10, 1e-9) {
		t.Fatalf("heading 0 should be pure +Y, got %+v", v)
	}
}

func TestTargetVelocityEastHeading(t *testing.T) {
	v := TargetVelocity(90, 10)
	if !almostEqual(v.X, 10, 1e-9) || !almostEqual(v.Y, 0, 1e-6) {
		t.Fatalf("heading 90 should be pure +X, got %+v", v)
	}
}

func TestStationaryTargetIsImmediatelyCaught(t *testing.T) {
	shooter := spatial.Point{X: 0, Y: 0}
	target := spatial.Point{X: 100, Y: 0}
	tm := TimeToIntercept(shooter, target, spatial.Point{}, 10)
	want := 10.0
	if !almostEqual(tm, want, 1e-6) {
		t.Fatalf("expected %f got %f", want, tm)
	}
}

func TestFasterTargetIsUncatchable(t *testing.T) {
	shooter := spatial.Point{X: 0, Y: 0}
	target := spatial.Point{X: 100, Y: 0}
	vel := TargetVelocity(90, 50) // fleeing directly away, faster than shooter
	tm := TimeToIntercept(shooter, target, vel, 10)
	if tm != UncatchableTime {
		t.Fatalf("expected uncatchable, got %f", tm)
	}
}

func TestPredictInterceptConvergesOnHeadOnTarget(t *testing.T) {
	shooter := spatial.Point{X: 0, Y: 0}
	target := spatial.Point{X: 100, Y: 0}
	vel := TargetVelocity(270, 5) // moving toward shooter (west)
	point, tm := PredictIntercept(shooter, target, vel, 20)
	if tm >= UncatchableTime {
		t.Fatalf("expected catchable head-on target")
	}
	// Shooter and target should meet somewhere between 0 and 100 on X, Y==0.
	if point.X <= 0 || point.X >= 100 || !almostEqual(point.Y, 0, 1e-6) {
		t.Fatalf("unexpected intercept point %+v", point)
	}
}

func TestLeadTargetFallsBackToCurrentPositionWhenUncatchable(t *testing.T) {
	shooter := spatial.Point{X: 0, Y: 0}
	target := spatial.Point{X: 100, Y: 0}
	aim := LeadTarget(shooter, target, 90, 1000, 1)
	if aim != target {
		t.Fatalf("expected fallback to target position, got %+v", aim)
	}
}
