package tactical

import (
	"testing"

	"github.com/google/uuid"

	"github.com/valpatel/tritium-sc/internal/spatial"
	"github.com/valpatel/tritium-sc/internal/unit"
)

func TestCoverBonusWithinRadius(t *testing.T) {
	c := NewCoverSystem()
	c.AddCover(Object{Position: spatial.Point{X: 0, Y: 0}, Radius: 5, CoverValue: 0.6})

	u := unit.New("defender", unit.Friendly, "person", spatial.Point{X: 1, Y: 0})
	u.Status = unit.StatusActive

	c.Tick(map[uuid.UUID]*unit.Unit{u.ID: u})

	got := c.GetCoverReduction(u.ID)
	if got <= 0 || got > MaxCoverBonus {
		t.Fatalf("expected a positive cover bonus capped at %v, got %v", MaxCoverBonus, got)
	}
}

func TestCoverBonusCappedAtMax(t *testing.T) {
	c := NewCoverSystem()
	c.AddCover(Object{Position: spatial.Point{X: 0, Y: 0}, Radius: 5, CoverValue: 5.0})

	u := unit.New("defender", unit.Friendly, "person", spatial.Point{X: 0, Y: 0})
	u.Status = unit.StatusActive
	c.Tick(map[uuid.UUID]*unit.Unit{u.ID: u})

	if got := c.GetCoverReduction(u.ID); got != MaxCoverBonus {
		t.Fatalf("expected cover bonus capped at %v, got %v", MaxCoverBonus, got)
	}
}

func TestCoverBonusIgnoresCoverBehindTarget(t *testing.T) {
	c := NewCoverSystem()
	// Cover object is on the far side of the target from the attacker.
	c.AddCover(Object{Position: spatial.Point{X: -1, Y: 0}, Radius: 3, CoverValue: 0.6})

	bonus := c.GetCoverBonus(uuid.New(), spatial.Point{X: 0, Y: 0}, spatial.Point{X: 10, Y: 0})
	if bonus != 0 {
		t.Fatalf("expected zero bonus for cover behind the target, got %v", bonus)
	}
}

func TestCoverSystemResetClearsAssignments(t *testing.T) {
	c := NewCoverSystem()
	c.AddCover(Object{Position: spatial.Point{X: 0, Y: 0}, Radius: 5, CoverValue: 0.6})
	u := unit.New("defender", unit.Friendly, "person", spatial.Point{X: 0, Y: 0})
	u.Status = unit.StatusActive
	c.Tick(map[uuid.UUID]*unit.Unit{u.ID: u})

	c.Reset()
	if got := c.GetCoverReduction(u.ID); got != 0 {
		t.Fatalf("expected no cover after reset, got %v", got)
	}
}
