package behavior

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"

	"github.com/valpatel/tritium-sc/internal/combat"
	"github.com/valpatel/tritium-sc/internal/eventbus"
	"github.com/valpatel/tritium-sc/internal/spatial"
	"github.com/valpatel/tritium-sc/internal/tactical"
	"github.com/valpatel/tritium-sc/internal/unit"
	"github.com/valpatel/tritium-sc/internal/upgrades"
)

func newTestCombat(seed int64) *combat.System {
	bus := eventbus.New(16)
	cover := tactical.NewCoverSystem()
	morale := tactical.NewMoraleSystem(0)
	up := upgrades.New()
	return combat.New(bus, cover, morale, up, rand.New(rand.NewSource(seed)))
}

func TestTurretTickAimsAndFiresAtNearestHostile(t *testing.T) {
	c := newTestCombat(1)
	b := NewTurretBehavior(c)

	turret := unit.New("turret-1", unit.Friendly, "turret", spatial.Point{X: 0, Y: 0})
	turret.Status = unit.StatusActive
	turret.FSMState = "engaging"
	c.Morale.Seed(turret.ID)

	hostile := unit.New("hostile-1", unit.Hostile, "person", spatial.Point{X: 0, Y: 10})
	hostile.Status = unit.StatusActive
	c.Morale.Seed(hostile.ID)
	hostiles := map[uuid.UUID]*unit.Unit{hostile.ID: hostile}

	b.Tick(turret, hostiles, 100.0)

	if turret.Heading != 0 {
		t.Fatalf("expected turret to face due north toward the hostile, got heading %v", turret.Heading)
	}
	if hostile.Health >= hostile.MaxHealth {
		t.Fatalf("expected the turret to have fired and damaged the hostile")
	}
}

func TestTurretTickIgnoresHostilesOutOfRange(t *testing.T) {
	c := newTestCombat(1)
	b := NewTurretBehavior(c)

	turret := unit.New("turret-1", unit.Friendly, "turret", spatial.Point{X: 0, Y: 0})
	turret.Status = unit.StatusActive
	turret.FSMState = "engaging"

	hostile := unit.New("hostile-1", unit.Hostile, "person", spatial.Point{X: 0, Y: 9999})
	hostile.Status = unit.StatusActive
	hostiles := map[uuid.UUID]*unit.Unit{hostile.ID: hostile}

	b.Tick(turret, hostiles, 100.0)

	if hostile.Health != hostile.MaxHealth {
		t.Fatalf("expected no shot fired at an out-of-range hostile")
	}
}
