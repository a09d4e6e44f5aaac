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

func newTestCoordinator(seed int64) *Coordinator {
	c := newTestCombat(seed)
	p := pursuit.New(rand.New(rand.NewSource(seed)))
	bus := eventbus.New(32)
	return NewCoordinator(c, p, bus, rand.New(rand.NewSource(seed)), 200)
}

func TestCoordinatorDispatchesStationaryFriendlyToTurret(t *testing.T) {
	co := newTestCoordinator(1)
	turret := unit.New("turret-1", unit.Friendly, "turret", spatial.Point{X: 0, Y: 0})
	turret.Status = unit.StatusActive
	turret.FSMState = "engaging"
	co.Turret.combat.Morale.Seed(turret.ID)

	hostile := unit.New("hostile-1", unit.Hostile, "person", spatial.Point{X: 0, Y: 5})
	hostile.Status = unit.StatusActive
	co.Turret.combat.Morale.Seed(hostile.ID)

	units := map[uuid.UUID]*unit.Unit{turret.ID: turret, hostile.ID: hostile}
	co.Tick(units, 100.0)

	if hostile.Health >= hostile.MaxHealth {
		t.Fatalf("expected the coordinator to dispatch the stationary turret and have it fire")
	}
}

func TestCoordinatorSkipsNonCombatantAndTerminalUnits(t *testing.T) {
	co := newTestCoordinator(1)
	dead := unit.New("turret-1", unit.Friendly, "turret", spatial.Point{X: 0, Y: 0})
	dead.Status = unit.StatusEliminated
	dead.FSMState = "engaging"

	hostile := unit.New("hostile-1", unit.Hostile, "person", spatial.Point{X: 0, Y: 5})
	hostile.Status = unit.StatusActive

	units := map[uuid.UUID]*unit.Unit{dead.ID: dead, hostile.ID: hostile}
	co.Tick(units, 100.0) // should not panic or fire from an eliminated turret

	if hostile.Health != hostile.MaxHealth {
		t.Fatalf("expected an eliminated turret not to engage")
	}
}

func TestCoordinatorRunsGroupRushBeforeHostileTicks(t *testing.T) {
	co := newTestCoordinator(1)
	units := make(map[uuid.UUID]*unit.Unit)
	var base float64
	for i := 0; i < 3; i++ {
		h := unit.New("kid", unit.Hostile, "person", spatial.Point{X: float64(i) * 5, Y: 0})
		h.Status = unit.StatusActive
		units[h.ID] = h
		base = h.Speed
	}

	co.Tick(units, 10.0)

	for _, u := range units {
		if u.Speed <= base {
			t.Fatalf("expected group rush speed boost to have applied during coordinator tick")
		}
	}
}
