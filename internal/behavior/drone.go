package behavior

import (
	"github.com/google/uuid"

	"github.com/valpatel/tritium-sc/internal/combat"
	"github.com/valpatel/tritium-sc/internal/intercept"
	"github.com/valpatel/tritium-sc/internal/unit"
)

// DroneBehavior turns a drone toward the lead point of the nearest hostile
// in range and fires; it does nothing while the drone is in "rtb". It never
// moves the drone itself.
type DroneBehavior struct {
	combat *combat.System
}

// NewDroneBehavior creates a drone behavior wired to the shared combat
// system.
func NewDroneBehavior(c *combat.System) *DroneBehavior {
	return &DroneBehavior{combat: c}
}

// Tick runs one drone's behavior for the current simulation tick.
func (b *DroneBehavior) Tick(drone *unit.Unit, hostiles map[uuid.UUID]*unit.Unit, simTime float64) {
	if drone.FSMState == "rtb" {
		return
	}

	target := nearestInRange(drone, hostiles)
	if target == nil {
		return
	}

	aimPos := intercept.LeadTarget(drone.Position, target.Position, target.Heading, target.Speed, projectileSpeed)
	drone.Heading = headingTo(drone.Position, aimPos)

	b.combat.Fire(drone, target, aimPos, simTime)
}
