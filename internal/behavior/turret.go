package behavior

import (
	"github.com/google/uuid"

	"github.com/valpatel/tritium-sc/internal/combat"
	"github.com/valpatel/tritium-sc/internal/intercept"
	"github.com/valpatel/tritium-sc/internal/unit"
)

// TurretBehavior rotates a stationary turret toward the nearest hostile
// in range and fires when aimed. All fire-readiness gating (cooldown,
// degradation, fsm state) lives in combat.System.Fire, so this behavior
// only needs to pick a target and update aim.
type TurretBehavior struct {
	combat *combat.System
}

// NewTurretBehavior creates a turret behavior wired to the shared combat
// system.
func NewTurretBehavior(c *combat.System) *TurretBehavior {
	return &TurretBehavior{combat: c}
}

// Tick runs one turret's behavior for the current simulation tick.
func (b *TurretBehavior) Tick(turret *unit.Unit, hostiles map[uuid.UUID]*unit.Unit, simTime float64) {
	target := nearestInRange(turret, hostiles)
	if target == nil {
		return
	}

	aimPos := intercept.LeadTarget(turret.Position, target.Position, target.Heading, target.Speed, projectileSpeed)
	turret.Heading = headingTo(turret.Position, aimPos)

	b.combat.Fire(turret, target, aimPos, simTime)
}
