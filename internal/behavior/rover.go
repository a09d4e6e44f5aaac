package behavior

import (
	"github.com/google/uuid"

	"github.com/valpatel/tritium-sc/internal/combat"
	"github.com/valpatel/tritium-sc/internal/intercept"
	"github.com/valpatel/tritium-sc/internal/pursuit"
	"github.com/valpatel/tritium-sc/internal/unit"
)

// RoverBehavior runs a tanky ground-unit AI: move toward the nearest
// hostile (or an assigned pursuit target) and engage at range. When a
// pursuit system is attached, fleeing hostiles get elevated targeting
// priority and rovers steer toward a computed intercept waypoint instead
// of the target's raw position.
type RoverBehavior struct {
	combat    *combat.System
	pursuit   *pursuit.System
	mapBounds float64
}

// NewRoverBehavior creates a rover behavior wired to the shared combat
// and pursuit systems.
func NewRoverBehavior(c *combat.System, p *pursuit.System, mapBounds float64) *RoverBehavior {
	return &RoverBehavior{combat: c, pursuit: p, mapBounds: mapBounds}
}

// Tick runs one rover's behavior for the current simulation tick.
func (b *RoverBehavior) Tick(rover *unit.Unit, hostiles map[uuid.UUID]*unit.Unit, simTime float64) {
	if rover.FSMState == "retreating" || rover.FSMState == "rtb" {
		return
	}

	var target *unit.Unit
	if b.pursuit != nil {
		target = b.pursuit.SelectPursuitTarget(rover, hostiles)
	}
	if target == nil {
		target = nearestInRange(rover, hostiles)
	}
	if target == nil {
		return
	}

	var interceptPt = target.Position
	if b.pursuit != nil && target.FSMState == "fleeing" {
		interceptPt = b.pursuit.CalculateInterceptWaypoint(
			rover.Position, rover.Speed,
			target.Position, target.Heading, target.Speed,
			b.mapBounds,
		)
	} else {
		targetVel := intercept.TargetVelocity(target.Heading, target.Speed)
		interceptPt, _ = intercept.PredictIntercept(rover.Position, target.Position, targetVel, rover.Speed)
	}
	rover.Heading = headingTo(rover.Position, interceptPt)

	aimPos := intercept.LeadTarget(rover.Position, target.Position, target.Heading, target.Speed, projectileSpeed)
	b.combat.Fire(rover, target, aimPos, simTime)
}
