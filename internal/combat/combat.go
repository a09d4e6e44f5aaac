// Package combat implements fire resolution: the hit-probability and
// damage pipeline, FSM firing gates, and the event emissions that follow
// a shot.
package combat

import (
	"math"
	"math/rand"

	"github.com/google/uuid"

	"github.com/valpatel/tritium-sc/internal/eventbus"
	"github.com/valpatel/tritium-sc/internal/spatial"
	"github.com/valpatel/tritium-sc/internal/tactical"
	"github.com/valpatel/tritium-sc/internal/unit"
	"github.com/valpatel/tritium-sc/internal/upgrades"
)

// Hit-probability curve constants.
const (
	fullProbRangeFraction = 0.3  // distance fraction below which hit probability is 1.0
	minHitProbability     = 0.25 // floor probability at max weapon_range
)

const (
	emboldenedHitBonus    = 0.1
	suppressedHitPenalty  = -0.2
	emboldenedDamageBonus = 0.2
)

// firingGates lists, per behavior category, the fsm_state values that
// permit firing. An empty fsm_state always permits firing (units that
// haven't entered a stateful FSM yet).
var firingGates = map[unit.Category]map[string]bool{
	unit.CategoryStationary: {"engaging": true, "tracking": true},
	unit.CategoryAir:        {"engaging": true, "orbiting": true, "scouting": true, "idle": true},
	unit.CategoryGround:     {"engaging": true, "pursuing": true, "patrolling": true, "idle": true},
	unit.CategoryFoot: {
		"advancing": true, "flanking": true, "engaging": true,
		"suppressing": true, "retreating_under_fire": true,
	},
}

// CanFireFSM reports whether a unit's current fsm_state permits firing
// for its behavior category.
func CanFireFSM(u *unit.Unit) bool {
	if u.FSMState == "" {
		return true
	}
	gate, ok := firingGates[u.Category()]
	if !ok {
		return true
	}
	return gate[u.FSMState]
}

// Result describes the outcome of a single fire() call, carrying enough
// information for the engine to fan out post-elimination bookkeeping
// (squad leadership, pursuit assignment cleanup) without combat needing
// to import those packages directly.
type Result struct {
	Fired      bool
	Hit        bool
	Damage     float64
	Eliminated bool
}

// System resolves fire() calls against the shared cover, degradation,
// morale, and upgrade subsystems, and publishes events to the bus.
type System struct {
	Bus      *eventbus.Bus
	Cover    *tactical.CoverSystem
	Morale   *tactical.MoraleSystem
	Upgrades *upgrades.System
	RNG      *rand.Rand
}

// New creates a combat system wired to the given subsystems and a seeded
// RNG (owned by the engine for run-to-run reproducibility).
func New(bus *eventbus.Bus, cover *tactical.CoverSystem, morale *tactical.MoraleSystem, up *upgrades.System, rng *rand.Rand) *System {
	return &System{Bus: bus, Cover: cover, Morale: morale, Upgrades: up, RNG: rng}
}

// Fire attempts to fire shooter's weapon at target, aimed at aimPos
// (normally target's predicted lead position). simTime is the current
// sim-clock value, used for morale bookkeeping and LastFired tracking.
func (s *System) Fire(shooter, target *unit.Unit, aimPos spatial.Point, simTime float64) Result {
	if !s.canFire(shooter, simTime) {
		return Result{}
	}
	dist := hypot(shooter.Position, target.Position)
	if dist > shooter.WeaponRange {
		return Result{}
	}
	if !tactical.CanFireDegraded(shooter) {
		if s.Bus != nil {
			s.Bus.Publish("weapon_jam", map[string]interface{}{
				"target_id":   shooter.ID.String(),
				"name":        shooter.Name,
				"degradation": shooter.Degradation,
			})
		}
		return Result{}
	}
	if !CanFireFSM(shooter) {
		return Result{}
	}

	shooter.LastFired = simTime

	prob := s.hitProbability(dist, shooter.WeaponRange)
	if s.Morale.IsEmboldened(shooter.ID) {
		prob += emboldenedHitBonus
	}
	if s.Morale.IsSuppressed(shooter.ID) {
		prob += suppressedHitPenalty
	}
	prob = clamp01(prob)

	aim := map[string]float64{"x": aimPos.X, "y": aimPos.Y}
	hit := s.RNG.Float64() < prob
	if !hit {
		s.publish("projectile_fired", shooter.ID, target.ID, map[string]interface{}{"hit": false, "aim": aim})
		return Result{Fired: true}
	}

	damage := s.computeDamage(shooter, target)
	target.ApplyDamage(damage)
	s.Morale.OnDamageTaken(target.ID, damage, simTime)

	result := Result{Fired: true, Hit: true, Damage: damage}

	if !target.IsAlive() {
		shooter.Kills++
		result.Eliminated = true
		s.publish("target_eliminated", shooter.ID, target.ID, map[string]interface{}{
			"by_id":      shooter.ID.String(),
			"alliance":   target.Alliance,
			"asset_type": target.AssetType,
			"position":   map[string]float64{"x": target.Position.X, "y": target.Position.Y},
		})
	}

	s.publish("projectile_fired", shooter.ID, target.ID, map[string]interface{}{"hit": true, "damage": damage, "aim": aim})
	s.publish("projectile_hit", shooter.ID, target.ID, map[string]interface{}{"damage": damage})

	return result
}

func (s *System) canFire(shooter *unit.Unit, simTime float64) bool {
	cooldown := tactical.EffectiveCooldown(shooter, shooter.WeaponCooldown) * s.Upgrades.GetStatModifier(shooter.ID, "weapon_cooldown")
	// The small tolerance absorbs float drift in the accumulated sim clock.
	return simTime-shooter.LastFired+1e-9 >= cooldown
}

// hitProbability is 1.0 at dist <=
// weaponRange*0.3, linearly falling to minHitProbability at dist ==
// weaponRange, floored beyond that.
func (s *System) hitProbability(dist, weaponRange float64) float64 {
	if weaponRange <= 0 {
		return minHitProbability
	}
	fullRange := weaponRange * fullProbRangeFraction
	if dist <= fullRange {
		return 1.0
	}
	if dist >= weaponRange {
		return minHitProbability
	}
	span := weaponRange - fullRange
	frac := (dist - fullRange) / span
	return 1.0 - frac*(1.0-minHitProbability)
}

func (s *System) computeDamage(shooter, target *unit.Unit) float64 {
	base := shooter.WeaponDamage * s.Upgrades.GetStatModifier(shooter.ID, "weapon_damage")
	emboldened := 1.0
	if s.Morale.IsEmboldened(shooter.ID) {
		emboldened = 1.0 + emboldenedDamageBonus
	}
	coverBonus := s.Cover.GetCoverBonus(target.ID, target.Position, shooter.Position)
	reduction := s.Upgrades.GetStatModifier(target.ID, "damage_reduction")
	damage := base * emboldened * (1.0 - coverBonus) * (1.0 - reduction)
	if damage < 0 {
		damage = 0
	}
	return damage
}

func (s *System) publish(eventType string, shooterID, targetID uuid.UUID, data map[string]interface{}) {
	if s.Bus == nil {
		return
	}
	data["shooter_id"] = shooterID.String()
	data["target_id"] = targetID.String()
	s.Bus.Publish(eventType, data)
}

func hypot(a, b spatial.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
