package behavior

import (
	"testing"

	"github.com/google/uuid"

	"github.com/valpatel/tritium-sc/internal/spatial"
	"github.com/valpatel/tritium-sc/internal/unit"
)

func TestDroneTickSkipsWhenReturningToBase(t *testing.T) {
	c := newTestCombat(1)
	b := NewDroneBehavior(c)

	drone := unit.New("drone-1", unit.Friendly, "drone", spatial.Point{X: 0, Y: 0})
	drone.Status = unit.StatusActive
	drone.FSMState = "rtb"

	hostile := unit.New("hostile-1", unit.Hostile, "person", spatial.Point{X: 0, Y: 5})
	hostile.Status = unit.StatusActive
	hostiles := map[uuid.UUID]*unit.Unit{hostile.ID: hostile}

	b.Tick(drone, hostiles, 100.0)

	if hostile.Health != hostile.MaxHealth {
		t.Fatalf("expected an rtb drone not to engage")
	}
}

func TestDroneTickEngagesWhenNotRTB(t *testing.T) {
	c := newTestCombat(1)
	b := NewDroneBehavior(c)

	drone := unit.New("drone-1", unit.Friendly, "drone", spatial.Point{X: 0, Y: 0})
	drone.Status = unit.StatusActive
	drone.FSMState = "engaging"
	c.Morale.Seed(drone.ID)

	hostile := unit.New("hostile-1", unit.Hostile, "person", spatial.Point{X: 0, Y: 5})
	hostile.Status = unit.StatusActive
	c.Morale.Seed(hostile.ID)
	hostiles := map[uuid.UUID]*unit.Unit{hostile.ID: hostile}

	b.Tick(drone, hostiles, 100.0)

	if hostile.Health >= hostile.MaxHealth {
		t.Fatalf("expected drone to fire on a hostile in range")
	}
}
