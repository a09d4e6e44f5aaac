// Package behavior implements the per-unit-type tick logic (turret, drone,
// rover, hostile) and the coordinator that dispatches every live unit to
// its behavior each tick.
package behavior

import (
	"math"

	"github.com/google/uuid"

	"github.com/valpatel/tritium-sc/internal/spatial"
	"github.com/valpatel/tritium-sc/internal/unit"
)

// projectileSpeed is the generic travel speed used for lead-target
// aiming; it is a property of the engagement model rather than any one
// weapon, so every behavior shares the same constant.
const projectileSpeed = 25.0

// nearestInRange returns the nearest enemy within u's weapon range, or
// nil if none qualify.
func nearestInRange(u *unit.Unit, enemies map[uuid.UUID]*unit.Unit) *unit.Unit {
	var best *unit.Unit
	bestDist := math.Inf(1)
	for _, enemy := range enemies {
		if !enemy.IsAlive() {
			continue
		}
		dist := distance(u.Position, enemy.Position)
		if dist <= u.WeaponRange && dist < bestDist {
			bestDist = dist
			best = enemy
		}
	}
	return best
}

func distance(a, b spatial.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func headingTo(from, to spatial.Point) float64 {
	dx := to.X - from.X
	dy := to.Y - from.Y
	return math.Atan2(dx, dy) * 180.0 / math.Pi
}
