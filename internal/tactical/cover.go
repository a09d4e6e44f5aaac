// Package tactical implements the per-unit modifier systems that feed
// combat resolution: cover, health-based degradation, and morale.
package tactical

import (
	"math"

	"github.com/google/uuid"

	"github.com/valpatel/tritium-sc/internal/spatial"
	"github.com/valpatel/tritium-sc/internal/unit"
)

// MaxCoverBonus is the hard cap on cover-derived damage reduction.
const MaxCoverBonus = 0.8

// Object is a cover-providing feature on the map (wall, vehicle, rubble).
type Object struct {
	Position   spatial.Point
	Radius     float64
	CoverValue float64
}

// NewObject creates a cover object with the conventional defaults
// (radius 2m, cover value 0.5).
func NewObject(pos spatial.Point) Object {
	return Object{Position: pos, Radius: 2.0, CoverValue: 0.5}
}

// CoverSystem tracks cover objects and the best cover bonus available to
// each unit, recomputed once per tick by proximity.
type CoverSystem struct {
	objects     []Object
	unitCover   map[uuid.UUID]float64
	assignments map[uuid.UUID]Object
}

// NewCoverSystem creates an empty cover system.
func NewCoverSystem() *CoverSystem {
	return &CoverSystem{
		unitCover:   make(map[uuid.UUID]float64),
		assignments: make(map[uuid.UUID]Object),
	}
}

// AddCover registers a cover object.
func (c *CoverSystem) AddCover(obj Object) { c.objects = append(c.objects, obj) }

// ClearCover removes every cover object and cached bonus.
func (c *CoverSystem) ClearCover() {
	c.objects = nil
	c.unitCover = make(map[uuid.UUID]float64)
	c.assignments = make(map[uuid.UUID]Object)
}

// Tick recomputes each unit's best cover bonus for the tick, by proximity
// to the nearest covering object, capped at MaxCoverBonus.
func (c *CoverSystem) Tick(units map[uuid.UUID]*unit.Unit) {
	for id, u := range units {
		if !u.IsAlive() {
			continue
		}
		bestCover := 0.0
		var bestObj Object
		haveBest := false
		for _, obj := range c.objects {
			dist := math.Hypot(u.Position.X-obj.Position.X, u.Position.Y-obj.Position.Y)
			if dist > obj.Radius {
				continue
			}
			proximity := 1.0 - dist/obj.Radius
			bonus := obj.CoverValue * proximity
			if bonus > bestCover {
				bestCover = bonus
				bestObj = obj
				haveBest = true
			}
		}
		c.unitCover[id] = math.Min(bestCover, MaxCoverBonus)
		if haveBest && bestCover > 0 {
			c.assignments[id] = bestObj
		} else {
			delete(c.assignments, id)
		}
	}
}

// GetCoverReduction returns the cached cover bonus for a unit, or 0 if
// unassigned.
func (c *CoverSystem) GetCoverReduction(id uuid.UUID) float64 {
	if _, ok := c.assignments[id]; ok {
		return c.unitCover[id]
	}
	return 0
}

// GetCoverBonus computes the cover bonus for a target being fired on from
// attackerPos, counting only cover that lies roughly between the target
// and the attacker (positive dot product test). Unlike GetCoverReduction,
// this always recomputes from the shot's actual geometry rather than the
// per-tick proximity cache: the cache has no attacker to test a direction
// against, and a target can be covered from one attacker's angle but
// exposed to another's on the same tick.
func (c *CoverSystem) GetCoverBonus(targetID uuid.UUID, targetPos, attackerPos spatial.Point) float64 {
	return c.computeCoverBonus(targetPos, attackerPos)
}

func (c *CoverSystem) computeCoverBonus(targetPos, attackerPos spatial.Point) float64 {
	best := 0.0
	for _, obj := range c.objects {
		dist := math.Hypot(targetPos.X-obj.Position.X, targetPos.Y-obj.Position.Y)
		if dist > obj.Radius {
			continue
		}
		ax := attackerPos.X - targetPos.X
		ay := attackerPos.Y - targetPos.Y
		cx := obj.Position.X - targetPos.X
		cy := obj.Position.Y - targetPos.Y
		dot := ax*cx + ay*cy
		if dot <= 0 {
			continue
		}
		proximity := 1.0 - dist/obj.Radius
		bonus := obj.CoverValue * proximity
		if bonus > best {
			best = bonus
		}
	}
	return math.Min(best, MaxCoverBonus)
}

// Reset clears all cover state.
func (c *CoverSystem) Reset() { c.ClearCover() }
