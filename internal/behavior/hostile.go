package behavior

import (
	"math"
	"math/rand"

	"github.com/google/uuid"

	"github.com/valpatel/tritium-sc/internal/combat"
	"github.com/valpatel/tritium-sc/internal/eventbus"
	"github.com/valpatel/tritium-sc/internal/pursuit"
	"github.com/valpatel/tritium-sc/internal/spatial"
	"github.com/valpatel/tritium-sc/internal/unit"
)

// Hostile tactical-layer constants (flank/dodge/cover/group rush
// parameters).
const (
	flankStep         = 1.5
	flankIntervalMin  = 3.0
	flankIntervalMax  = 5.0
	detectedFlankStep = flankStep * 2.0

	groupRushRadius           = 30.0
	groupRushMinCount         = 3
	groupRushSpeedBoost       = 1.2
	groupRushDodgeIntervalMin = 6.0
	groupRushDodgeIntervalMax = 10.0

	dodgeIntervalMin = 2.0
	dodgeIntervalMax = 4.0

	coverHealthThreshold = 0.5
	coverStep            = 2.0

	reconSpeedFactor       = 0.5
	suppressCooldownFactor = 0.5

	retreatZigzagAmplitude = 1.0
	retreatSpeedFactor     = 1.1

	detectedSpeedBoost = 1.2

	fleeToBuildingMaxDist    = 50.0
	fleeToBuildingSpeedBoost = 1.3
)

// hostileFireStates lists fsm_state values in which a hostile will
// engage a spotted target; an empty state always permits it.
var hostileFireStates = map[string]bool{
	"advancing": true, "flanking": true, "engaging": true,
	"suppressing": true, "retreating_under_fire": true,
}

// HostileBehavior runs the stateful tactical AI for foot-mobile hostiles:
// cover-seeking, flanking, dodging, group-rush detection, and the
// pursuit-evasion hooks a fleeing hostile uses once broken.
type HostileBehavior struct {
	combat  *combat.System
	pursuit *pursuit.System
	bus     *eventbus.Bus
	rng     *rand.Rand

	mapBounds float64
	obstacles [][]spatial.Point

	lastDodge         map[uuid.UUID]float64
	lastFlank         map[uuid.UUID]float64
	groupRushIDs      map[uuid.UUID]bool
	rushBaseSpeeds    map[uuid.UUID]float64
	reconIDs          map[uuid.UUID]bool
	reconBaseSpeeds   map[uuid.UUID]float64
	suppressIDs       map[uuid.UUID]bool
	suppressBaseCDs   map[uuid.UUID]float64
	detectedIDs       map[uuid.UUID]bool
	detectedBaseSpeed map[uuid.UUID]float64
	contacted         map[uuid.UUID]map[uuid.UUID]bool
	fleeingToBuilding map[uuid.UUID]bool
}

// NewHostileBehavior creates a hostile behavior wired to the shared
// combat and pursuit systems, the event bus for contact/distress/retreat
// signals, and the engine's seeded RNG for dodge/flank jitter.
func NewHostileBehavior(c *combat.System, p *pursuit.System, bus *eventbus.Bus, rng *rand.Rand, mapBounds float64) *HostileBehavior {
	return &HostileBehavior{
		combat:            c,
		pursuit:           p,
		bus:               bus,
		rng:               rng,
		mapBounds:         mapBounds,
		lastDodge:         make(map[uuid.UUID]float64),
		lastFlank:         make(map[uuid.UUID]float64),
		groupRushIDs:      make(map[uuid.UUID]bool),
		rushBaseSpeeds:    make(map[uuid.UUID]float64),
		reconIDs:          make(map[uuid.UUID]bool),
		reconBaseSpeeds:   make(map[uuid.UUID]float64),
		suppressIDs:       make(map[uuid.UUID]bool),
		suppressBaseCDs:   make(map[uuid.UUID]float64),
		detectedIDs:       make(map[uuid.UUID]bool),
		detectedBaseSpeed: make(map[uuid.UUID]float64),
		contacted:         make(map[uuid.UUID]map[uuid.UUID]bool),
		fleeingToBuilding: make(map[uuid.UUID]bool),
	}
}

// SetObstacles registers building footprints used by cover-seeking,
// building-flee, and retreat-under-fire movement.
func (b *HostileBehavior) SetObstacles(obstacles [][]spatial.Point) {
	b.obstacles = obstacles
}

// CheckGroupRush scans for clusters of groupRushMinCount+ hostiles within
// groupRushRadius meters and applies (or releases) the rush speed boost.
// Call once per tick before ticking individual hostiles.
func (b *HostileBehavior) CheckGroupRush(hostiles map[uuid.UUID]*unit.Unit) {
	rushing := make(map[uuid.UUID]bool)
	for id1, h1 := range hostiles {
		nearby := 1
		for id2, h2 := range hostiles {
			if id1 == id2 {
				continue
			}
			if distance(h1.Position, h2.Position) <= groupRushRadius {
				nearby++
			}
		}
		if nearby >= groupRushMinCount {
			rushing[id1] = true
		}
	}

	// Boost BaseSpeed, not just the Speed mirror: the engine recomputes
	// Speed from BaseSpeed on every kinematic step, so a mirror-only
	// boost would be wiped the tick after it was applied.
	for id := range rushing {
		if !b.groupRushIDs[id] {
			if h, ok := hostiles[id]; ok {
				b.rushBaseSpeeds[id] = h.BaseSpeed
				h.BaseSpeed *= groupRushSpeedBoost
				h.Speed *= groupRushSpeedBoost
			}
		}
	}
	for id := range b.groupRushIDs {
		if rushing[id] {
			continue
		}
		if h, ok := hostiles[id]; ok {
			if base, ok := b.rushBaseSpeeds[id]; ok {
				h.BaseSpeed = base
				h.Speed = base
				delete(b.rushBaseSpeeds, id)
			}
		}
	}
	b.groupRushIDs = rushing
}

// Tick runs one hostile's tactical layers for the current simulation
// tick, in priority order: spawning/fleeing/broken/suppressed early
// exits, state speed/cooldown modifiers, fire-at-nearest, then the
// movement chain (retreat zigzag, cover seek, flank, dodge).
func (b *HostileBehavior) Tick(kid *unit.Unit, friendlies map[uuid.UUID]*unit.Unit, simTime float64) {
	if kid.FSMState == "spawning" {
		b.restoreReconSpeed(kid)
		b.restoreSuppressCooldown(kid)
		return
	}

	if kid.FSMState == "fleeing" {
		b.emitRetreat(kid)
		b.restoreReconSpeed(kid)
		b.restoreSuppressCooldown(kid)
		if b.pursuit != nil {
			b.pursuit.ApplyFleeSpeedBoost(kid)
			b.pursuit.StartFleeTimer(kid)
			b.pursuit.ApplyZigzag(kid)

			defenders := make([]spatial.Point, 0, len(friendlies))
			for _, f := range friendlies {
				defenders = append(defenders, f.Position)
			}
			dx, dy := b.pursuit.FindEscapeRoute(kid.Position, kid.Heading, kid.Speed, defenders, b.mapBounds)
			edgeX := clamp(kid.Position.X+dx*b.mapBounds, -b.mapBounds, b.mapBounds)
			edgeY := clamp(kid.Position.Y+dy*b.mapBounds, -b.mapBounds, b.mapBounds)
			kid.Waypoints = []spatial.Point{{X: edgeX, Y: edgeY}}
			kid.WaypointIndex = 0
		}
		return
	}

	if b.combat.Morale.IsBroken(kid.ID) {
		b.restoreReconSpeed(kid)
		b.restoreSuppressCooldown(kid)
		return
	}
	moraleSuppressed := b.combat.Morale.IsSuppressed(kid.ID)

	b.applyReconSpeed(kid)
	b.applySuppressCooldown(kid)
	b.ApplySensorAwareness(kid)

	if !moraleSuppressed {
		if target := nearestInRange(kid, friendlies); target != nil {
			b.emitContact(kid, target)

			enemiesInRange := 0
			for _, f := range friendlies {
				if distance(f.Position, kid.Position) <= kid.WeaponRange {
					enemiesInRange++
				}
			}
			if enemiesInRange >= 2 && kid.FSMState == "engaging" {
				b.emitDistress(kid)
			}

			if kid.FSMState == "" || hostileFireStates[kid.FSMState] {
				b.combat.Fire(kid, target, target.Position, simTime)
			}
		}
	}

	if kid.FSMState == "retreating_under_fire" {
		b.retreatUnderFire(kid)
		return
	}
	if kid.FSMState == "reconning" {
		return
	}
	if moraleSuppressed {
		b.dodge(kid, simTime)
		return
	}

	if b.fleeToBuilding(kid) {
		return
	}
	if b.seekCover(kid) {
		return
	}
	if b.tryFlank(kid, friendlies, simTime) {
		return
	}
	b.dodge(kid, simTime)
}

func (b *HostileBehavior) emitDistress(kid *unit.Unit) {
	b.publish("distress_signal", kid)
}

func (b *HostileBehavior) emitRetreat(kid *unit.Unit) {
	b.publish("retreat_signal", kid)
}

func (b *HostileBehavior) emitContact(kid, enemy *unit.Unit) {
	if b.bus == nil {
		return
	}
	seen := b.contacted[kid.ID]
	if seen == nil {
		seen = make(map[uuid.UUID]bool)
		b.contacted[kid.ID] = seen
	}
	if seen[enemy.ID] {
		return
	}
	seen[enemy.ID] = true
	b.bus.Publish("contact_report", map[string]interface{}{
		"unit_id":     kid.ID.String(),
		"alliance":    kid.Alliance,
		"position_x":  kid.Position.X,
		"position_y":  kid.Position.Y,
		"enemy_pos_x": enemy.Position.X,
		"enemy_pos_y": enemy.Position.Y,
	})
}

func (b *HostileBehavior) publish(eventType string, kid *unit.Unit) {
	if b.bus == nil {
		return
	}
	b.bus.Publish(eventType, map[string]interface{}{
		"unit_id":    kid.ID.String(),
		"alliance":   kid.Alliance,
		"position_x": kid.Position.X,
		"position_y": kid.Position.Y,
	})
}

// ApplySensorAwareness applies a speed boost to a sensor-detected hostile
// and removes it once detection is lost.
func (b *HostileBehavior) ApplySensorAwareness(kid *unit.Unit) {
	if kid.Detected {
		if !b.detectedIDs[kid.ID] {
			b.detectedBaseSpeed[kid.ID] = kid.BaseSpeed
			kid.BaseSpeed *= detectedSpeedBoost
			kid.Speed *= detectedSpeedBoost
			b.detectedIDs[kid.ID] = true
		}
		return
	}
	b.RemoveSensorAwareness(kid)
}

// RemoveSensorAwareness restores a hostile's pre-detection speed.
func (b *HostileBehavior) RemoveSensorAwareness(kid *unit.Unit) {
	if b.detectedIDs[kid.ID] {
		if base, ok := b.detectedBaseSpeed[kid.ID]; ok {
			kid.BaseSpeed = base
			kid.Speed = base
			delete(b.detectedBaseSpeed, kid.ID)
		}
		delete(b.detectedIDs, kid.ID)
	}
}

func (b *HostileBehavior) applyReconSpeed(kid *unit.Unit) {
	if kid.FSMState == "reconning" {
		if !b.reconIDs[kid.ID] {
			b.reconBaseSpeeds[kid.ID] = kid.BaseSpeed
			kid.BaseSpeed *= reconSpeedFactor
			kid.Speed *= reconSpeedFactor
			b.reconIDs[kid.ID] = true
		}
		return
	}
	b.restoreReconSpeed(kid)
}

func (b *HostileBehavior) restoreReconSpeed(kid *unit.Unit) {
	if b.reconIDs[kid.ID] {
		if base, ok := b.reconBaseSpeeds[kid.ID]; ok {
			kid.BaseSpeed = base
			kid.Speed = base
			delete(b.reconBaseSpeeds, kid.ID)
		}
		delete(b.reconIDs, kid.ID)
	}
}

func (b *HostileBehavior) applySuppressCooldown(kid *unit.Unit) {
	if kid.FSMState == "suppressing" {
		if !b.suppressIDs[kid.ID] {
			b.suppressBaseCDs[kid.ID] = kid.WeaponCooldown
			kid.WeaponCooldown *= suppressCooldownFactor
			b.suppressIDs[kid.ID] = true
		}
		return
	}
	b.restoreSuppressCooldown(kid)
}

func (b *HostileBehavior) restoreSuppressCooldown(kid *unit.Unit) {
	if b.suppressIDs[kid.ID] {
		if base, ok := b.suppressBaseCDs[kid.ID]; ok {
			kid.WeaponCooldown = base
			delete(b.suppressBaseCDs, kid.ID)
		}
		delete(b.suppressIDs, kid.ID)
	}
}

func (b *HostileBehavior) dodge(kid *unit.Unit, simTime float64) {
	last := b.lastDodge[kid.ID]
	var interval float64
	if b.groupRushIDs[kid.ID] {
		interval = groupRushDodgeIntervalMin + b.rng.Float64()*(groupRushDodgeIntervalMax-groupRushDodgeIntervalMin)
	} else {
		interval = dodgeIntervalMin + b.rng.Float64()*(dodgeIntervalMax-dodgeIntervalMin)
	}
	if simTime-last <= interval {
		return
	}
	b.lastDodge[kid.ID] = simTime
	offset := (b.rng.Float64()*2 - 1) * 1.5
	headingRad := kid.Heading * math.Pi / 180.0
	kid.Position.X += math.Cos(headingRad) * offset
	kid.Position.Y -= math.Sin(headingRad) * offset
}

func (b *HostileBehavior) retreatUnderFire(kid *unit.Unit) {
	if pt, dist, ok := b.nearestBuildingEdge(kid.Position); ok && dist >= 1.0 {
		step := math.Min(coverStep*retreatSpeedFactor, dist)
		kid.Position.X += (pt.X - kid.Position.X) / dist * step
		kid.Position.Y += (pt.Y - kid.Position.Y) / dist * step
	}

	zigzag := (b.rng.Float64()*2 - 1) * retreatZigzagAmplitude
	headingRad := kid.Heading * math.Pi / 180.0
	kid.Position.X += math.Cos(headingRad) * zigzag
	kid.Position.Y -= math.Sin(headingRad) * zigzag
}

// fleeToBuilding moves a damaged hostile to the nearest building edge and
// marks it as committed to that flight once started, matching the
// original behavior's one-shot sticky waypoint assignment.
func (b *HostileBehavior) fleeToBuilding(kid *unit.Unit) bool {
	if kid.MaxHealth <= 0 || kid.HealthFraction() >= coverHealthThreshold {
		return false
	}
	if b.fleeingToBuilding[kid.ID] {
		return true
	}
	pt, dist, ok := b.nearestBuildingEdge(kid.Position)
	if !ok || dist >= fleeToBuildingMaxDist {
		return false
	}
	kid.Waypoints = []spatial.Point{pt}
	kid.WaypointIndex = 0
	b.fleeingToBuilding[kid.ID] = true
	kid.BaseSpeed *= fleeToBuildingSpeedBoost
	kid.Speed *= fleeToBuildingSpeedBoost
	return true
}

func (b *HostileBehavior) seekCover(kid *unit.Unit) bool {
	if len(b.obstacles) == 0 || kid.MaxHealth <= 0 || kid.HealthFraction() >= coverHealthThreshold {
		return false
	}
	pt, dist, ok := b.nearestBuildingEdge(kid.Position)
	if !ok || dist < 1.0 {
		return false
	}
	step := math.Min(coverStep, dist)
	kid.Position.X += (pt.X - kid.Position.X) / dist * step
	kid.Position.Y += (pt.Y - kid.Position.Y) / dist * step
	return true
}

func (b *HostileBehavior) tryFlank(kid *unit.Unit, friendlies map[uuid.UUID]*unit.Unit, simTime float64) bool {
	last := b.lastFlank[kid.ID]
	interval := flankIntervalMin + b.rng.Float64()*(flankIntervalMax-flankIntervalMin)
	if simTime-last < interval {
		return false
	}

	var best *unit.Unit
	bestDist := 50.0
	for _, f := range friendlies {
		if f.Category() != unit.CategoryStationary {
			continue
		}
		d := distance(f.Position, kid.Position)
		if d < bestDist {
			bestDist = d
			best = f
		}
	}
	if best == nil {
		return false
	}
	dx := best.Position.X - kid.Position.X
	dy := best.Position.Y - kid.Position.Y
	dist := math.Hypot(dx, dy)
	if dist < 0.1 {
		return false
	}

	b.lastFlank[kid.ID] = simTime

	approachAngle := math.Atan2(dx, dy)
	perpAngle := approachAngle + math.Pi/2
	if b.rng.Float64() < 0.5 {
		perpAngle = approachAngle - math.Pi/2
	}

	step := flankStep
	if kid.Detected {
		step = detectedFlankStep
	}
	kid.Position.X += math.Sin(perpAngle) * step
	kid.Position.Y += math.Cos(perpAngle) * step
	return true
}

func (b *HostileBehavior) nearestBuildingEdge(pos spatial.Point) (spatial.Point, float64, bool) {
	if len(b.obstacles) == 0 {
		return spatial.Point{}, 0, false
	}
	best := spatial.Point{}
	bestDist := math.Inf(1)
	found := false
	for _, poly := range b.obstacles {
		n := len(poly)
		if n < 2 {
			continue
		}
		for i := 0; i < n; i++ {
			pt := nearestPointOnSegment(pos, poly[i], poly[(i+1)%n])
			d := distance(pos, pt)
			if d < bestDist {
				bestDist = d
				best = pt
				found = true
			}
		}
	}
	return best, bestDist, found
}

func nearestPointOnSegment(p, a, c spatial.Point) spatial.Point {
	abx := c.X - a.X
	aby := c.Y - a.Y
	abSq := abx*abx + aby*aby
	if abSq < 1e-10 {
		return a
	}
	t := ((p.X-a.X)*abx + (p.Y-a.Y)*aby) / abSq
	t = clamp(t, 0, 1)
	return spatial.Point{X: a.X + t*abx, Y: a.Y + t*aby}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Reset clears all per-hostile tactical state, for scenario restarts.
func (b *HostileBehavior) Reset() {
	b.lastDodge = make(map[uuid.UUID]float64)
	b.lastFlank = make(map[uuid.UUID]float64)
	b.groupRushIDs = make(map[uuid.UUID]bool)
	b.rushBaseSpeeds = make(map[uuid.UUID]float64)
	b.reconIDs = make(map[uuid.UUID]bool)
	b.reconBaseSpeeds = make(map[uuid.UUID]float64)
	b.suppressIDs = make(map[uuid.UUID]bool)
	b.suppressBaseCDs = make(map[uuid.UUID]float64)
	b.detectedIDs = make(map[uuid.UUID]bool)
	b.detectedBaseSpeed = make(map[uuid.UUID]float64)
	b.contacted = make(map[uuid.UUID]map[uuid.UUID]bool)
	b.fleeingToBuilding = make(map[uuid.UUID]bool)
}
