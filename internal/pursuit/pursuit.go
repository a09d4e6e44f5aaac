// Package pursuit implements intercept-waypoint computation and
// anti-dogpile target assignment for mobile friendlies chasing hostiles,
// plus the flee-evasion helpers hostile units use once broken into a
// retreat.
package pursuit

import (
	"math"
	"math/rand"

	"github.com/google/uuid"

	"github.com/valpatel/tritium-sc/internal/intercept"
	"github.com/valpatel/tritium-sc/internal/spatial"
	"github.com/valpatel/tritium-sc/internal/unit"
)

const (
	predictionHorizonSec = 3.0
	maxPursuersPerTarget = 2

	fleeRallyDurationSec = 15.0
	fleeSpeedBoostFactor = 1.3
	zigzagAmplitudeM     = 1.0
	zigzagIntervalMinSec = 1.5
	zigzagIntervalMaxSec = 3.0
)

// System tracks pursuer-to-target assignments, per-hostile predicted
// intercept points, and the flee-evasion state of hostiles that have
// broken and run.
type System struct {
	rng *rand.Rand

	assignments   map[uuid.UUID]uuid.UUID // pursuer -> target
	pursuerCounts map[uuid.UUID]int       // target -> assigned pursuer count
	intercepts    map[uuid.UUID]spatial.Point

	fleeRemaining map[uuid.UUID]float64
	fleeBaseSpeed map[uuid.UUID]float64
	nextZigzagAt  map[uuid.UUID]float64
	simClock      float64
}

// New creates a pursuit system using rng for zigzag timing jitter (the
// engine's single seeded PRNG, for reproducibility).
func New(rng *rand.Rand) *System {
	return &System{
		rng:           rng,
		assignments:   make(map[uuid.UUID]uuid.UUID),
		pursuerCounts: make(map[uuid.UUID]int),
		intercepts:    make(map[uuid.UUID]spatial.Point),
		fleeRemaining: make(map[uuid.UUID]float64),
		fleeBaseSpeed: make(map[uuid.UUID]float64),
		nextZigzagAt:  make(map[uuid.UUID]float64),
	}
}

// Tick recomputes each hostile's predicted position, releases pursuer
// assignments whose target is gone, auto-assigns unassigned mobile
// friendlies to their nearest available hostile, and counts down flee
// timers. simTime is the engine's current sim-clock value.
func (s *System) Tick(dt, simTime float64, friendlies, hostiles map[uuid.UUID]*unit.Unit) {
	s.simClock = simTime

	s.intercepts = make(map[uuid.UUID]spatial.Point, len(hostiles))
	for id, h := range hostiles {
		if !h.IsAlive() {
			continue
		}
		s.intercepts[id] = predictedPosition(h, predictionHorizonSec)
	}

	for pursuer, target := range s.assignments {
		if h, ok := hostiles[target]; !ok || !h.IsAlive() {
			delete(s.assignments, pursuer)
			s.decrementPursuerCount(target)
		}
	}

	for id, f := range friendlies {
		if !f.IsAlive() || f.Category() == unit.CategoryStationary {
			continue
		}
		if _, assigned := s.assignments[id]; assigned {
			continue
		}
		if target, ok := s.nearestAvailableHostile(f, hostiles); ok {
			s.assignments[id] = target
			s.pursuerCounts[target]++
		}
	}

	for id, remaining := range s.fleeRemaining {
		remaining -= dt
		if remaining <= 0 {
			delete(s.fleeRemaining, id)
			continue
		}
		s.fleeRemaining[id] = remaining
	}
}

func (s *System) decrementPursuerCount(target uuid.UUID) {
	if s.pursuerCounts[target] <= 1 {
		delete(s.pursuerCounts, target)
		return
	}
	s.pursuerCounts[target]--
}

// nearestAvailableHostile picks the nearest hostile to f that has not
// already reached the anti-dogpile pursuer cap, preferring fleeing
// hostiles, which carry pursuit priority.
func (s *System) nearestAvailableHostile(f *unit.Unit, hostiles map[uuid.UUID]*unit.Unit) (uuid.UUID, bool) {
	var bestFleeing, best uuid.UUID
	bestFleeingDist, bestDist := math.Inf(1), math.Inf(1)
	haveFleeing, have := false, false

	for id, h := range hostiles {
		if !h.IsAlive() || s.pursuerCounts[id] >= maxPursuersPerTarget {
			continue
		}
		dist := distance(f.Position, h.Position)
		if h.FSMState == "fleeing" {
			if dist < bestFleeingDist {
				bestFleeingDist = dist
				bestFleeing = id
				haveFleeing = true
			}
			continue
		}
		if dist < bestDist {
			bestDist = dist
			best = id
			have = true
		}
	}
	if haveFleeing {
		return bestFleeing, true
	}
	if have {
		return best, true
	}
	return uuid.Nil, false
}

// SelectPursuitTarget returns the hostile pursuer is currently assigned
// to, or nil if unassigned or its target has become invalid. Callers
// fall back to a plain nearest-in-range search when this returns nil.
func (s *System) SelectPursuitTarget(pursuer *unit.Unit, hostiles map[uuid.UUID]*unit.Unit) *unit.Unit {
	targetID, ok := s.assignments[pursuer.ID]
	if !ok {
		return nil
	}
	h, ok := hostiles[targetID]
	if !ok || !h.IsAlive() {
		return nil
	}
	return h
}

// GetInterceptPoint returns the predicted position computed for a
// hostile on the most recent tick, for consumers that want the raw
// lookahead point rather than a pursuer-specific intercept.
func (s *System) GetInterceptPoint(targetID uuid.UUID) (spatial.Point, bool) {
	pt, ok := s.intercepts[targetID]
	return pt, ok
}

// ClearAssignmentsFor releases every pursuer assigned to targetID,
// called by the engine when a target is eliminated.
func (s *System) ClearAssignmentsFor(targetID uuid.UUID) {
	for pursuer, target := range s.assignments {
		if target == targetID {
			delete(s.assignments, pursuer)
		}
	}
	delete(s.pursuerCounts, targetID)
}

// CalculateInterceptWaypoint computes where a pursuer should steer to
// cut off a moving (often fleeing) target, clamped to the square map
// bounds [-mapBounds, mapBounds].
func (s *System) CalculateInterceptWaypoint(pursuerPos spatial.Point, pursuerSpeed float64, targetPos spatial.Point, targetHeading, targetSpeed, mapBounds float64) spatial.Point {
	targetVel := intercept.TargetVelocity(targetHeading, targetSpeed)
	pt, _ := intercept.PredictIntercept(pursuerPos, targetPos, targetVel, pursuerSpeed)
	return clampToBounds(pt, mapBounds)
}

// ApplyFleeSpeedBoost multiplies a hostile's speed by the flee boost
// factor exactly once per flee episode, remembering the pre-boost speed
// so it can be restored when the hostile stops fleeing.
func (s *System) ApplyFleeSpeedBoost(h *unit.Unit) {
	if _, boosted := s.fleeBaseSpeed[h.ID]; boosted {
		return
	}
	// BaseSpeed is what the engine's kinematic step reads; boosting only
	// the Speed mirror would be recomputed away next tick.
	s.fleeBaseSpeed[h.ID] = h.BaseSpeed
	h.BaseSpeed *= fleeSpeedBoostFactor
	h.Speed *= fleeSpeedBoostFactor
}

// RestoreFleeSpeed reverts a hostile's speed to its pre-flee value, for
// callers transitioning it out of the fleeing state.
func (s *System) RestoreFleeSpeed(h *unit.Unit) {
	if base, ok := s.fleeBaseSpeed[h.ID]; ok {
		h.BaseSpeed = base
		h.Speed = base
		delete(s.fleeBaseSpeed, h.ID)
	}
}

// StartFleeTimer begins (or continues) the rally countdown for a
// fleeing hostile; a hostile rallies back to advancing after
// fleeRallyDurationSec seconds of continuous fleeing.
func (s *System) StartFleeTimer(h *unit.Unit) {
	if _, started := s.fleeRemaining[h.ID]; !started {
		s.fleeRemaining[h.ID] = fleeRallyDurationSec
	}
}

// FleeTimerExpired reports whether a fleeing hostile's rally countdown
// has elapsed.
func (s *System) FleeTimerExpired(id uuid.UUID) bool {
	_, stillFleeing := s.fleeRemaining[id]
	return !stillFleeing
}

// ClearFleeTimer drops a hostile's rally countdown, for callers that
// transition it out of fleeing for reasons other than timer expiry.
func (s *System) ClearFleeTimer(id uuid.UUID) {
	delete(s.fleeRemaining, id)
}

// ApplyZigzag nudges a fleeing hostile laterally, on a randomized
// interval, to make it a harder target while it runs.
func (s *System) ApplyZigzag(h *unit.Unit) {
	next, scheduled := s.nextZigzagAt[h.ID]
	if scheduled && s.simClock < next {
		return
	}
	interval := zigzagIntervalMinSec + s.rng.Float64()*(zigzagIntervalMaxSec-zigzagIntervalMinSec)
	s.nextZigzagAt[h.ID] = s.simClock + interval

	offset := (s.rng.Float64()*2 - 1) * zigzagAmplitudeM
	headingRad := h.Heading * math.Pi / 180.0
	h.Position.X += math.Cos(headingRad) * offset
	h.Position.Y -= math.Sin(headingRad) * offset
}

// FindEscapeRoute returns a unit vector pointing away from the averaged
// position of defenders, toward the map edge farthest from them. If
// there are no defenders, it returns the hostile's current heading as a
// unit vector.
func (s *System) FindEscapeRoute(position spatial.Point, heading, speed float64, defenderPositions []spatial.Point, mapBounds float64) (float64, float64) {
	if len(defenderPositions) == 0 {
		rad := heading * math.Pi / 180.0
		return math.Sin(rad), math.Cos(rad)
	}
	var cx, cy float64
	for _, p := range defenderPositions {
		cx += p.X
		cy += p.Y
	}
	cx /= float64(len(defenderPositions))
	cy /= float64(len(defenderPositions))

	dx := position.X - cx
	dy := position.Y - cy
	mag := math.Hypot(dx, dy)
	if mag < 1e-6 {
		rad := heading * math.Pi / 180.0
		return math.Sin(rad), math.Cos(rad)
	}
	return dx / mag, dy / mag
}

// Reset clears all pursuit and flee-evasion state.
func (s *System) Reset() {
	s.assignments = make(map[uuid.UUID]uuid.UUID)
	s.pursuerCounts = make(map[uuid.UUID]int)
	s.intercepts = make(map[uuid.UUID]spatial.Point)
	s.fleeRemaining = make(map[uuid.UUID]float64)
	s.fleeBaseSpeed = make(map[uuid.UUID]float64)
	s.nextZigzagAt = make(map[uuid.UUID]float64)
}

func predictedPosition(h *unit.Unit, horizon float64) spatial.Point {
	vel := intercept.TargetVelocity(h.Heading, h.Speed)
	return spatial.Point{X: h.Position.X + vel.X*horizon, Y: h.Position.Y + vel.Y*horizon}
}

func clampToBounds(p spatial.Point, bounds float64) spatial.Point {
	return spatial.Point{X: clamp(p.X, -bounds, bounds), Y: clamp(p.Y, -bounds, bounds)}
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

func distance(a, b spatial.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
