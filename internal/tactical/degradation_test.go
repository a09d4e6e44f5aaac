package tactical

import (
	"testing"

	"github.com/valpatel/tritium-sc/internal/spatial"
	"github.com/valpatel/tritium-sc/internal/unit"
)

func TestDegradationFactorAboveThresholdIsFull(t *testing.T) {
	u := unit.New("tank-1", unit.Friendly, "tank", spatial.Point{})
	u.Health = u.MaxHealth * 0.75
	if f := DegradationFactor(u); f != 1.0 {
		t.Fatalf("expected full factor above threshold, got %v", f)
	}
}

func TestDegradationFactorScalesBelowThreshold(t *testing.T) {
	u := unit.New("tank-1", unit.Friendly, "tank", spatial.Point{})
	u.Health = u.MaxHealth * 0.25 // half of the 0.5 threshold
	if f := DegradationFactor(u); f < 0.49 || f > 0.51 {
		t.Fatalf("expected factor around 0.5, got %v", f)
	}
}

func TestEffectiveSpeedFloorsAtMinFactor(t *testing.T) {
	u := unit.New("tank-1", unit.Friendly, "tank", spatial.Point{})
	u.Health = 0
	u.Status = unit.StatusActive
	speed := EffectiveSpeed(u, 10)
	if speed != 10*minSpeedFactor {
		t.Fatalf("expected speed floored at min factor, got %v", speed)
	}
}

func TestEffectiveCooldownDoublesAtZeroHealth(t *testing.T) {
	u := unit.New("tank-1", unit.Friendly, "tank", spatial.Point{})
	u.Health = 0
	cooldown := EffectiveCooldown(u, 1.0)
	if cooldown != maxCooldownFactor {
		t.Fatalf("expected cooldown scaled by max factor, got %v", cooldown)
	}
}

func TestCanFireDegradedDisablesBelowThreshold(t *testing.T) {
	u := unit.New("tank-1", unit.Friendly, "tank", spatial.Point{})
	u.Health = u.MaxHealth * 0.05
	if CanFireDegraded(u) {
		t.Fatalf("expected firing disabled below fire-disabled threshold")
	}
	u.Health = u.MaxHealth * 0.5
	if !CanFireDegraded(u) {
		t.Fatalf("expected firing enabled above fire-disabled threshold")
	}
}
