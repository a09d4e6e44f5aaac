package behavior

import (
	"math/rand"

	"github.com/google/uuid"

	"github.com/valpatel/tritium-sc/internal/combat"
	"github.com/valpatel/tritium-sc/internal/eventbus"
	"github.com/valpatel/tritium-sc/internal/pursuit"
	"github.com/valpatel/tritium-sc/internal/spatial"
	"github.com/valpatel/tritium-sc/internal/unit"
)

// Coordinator owns one behavior instance per movement category and
// dispatches every live unit to its behavior once per tick. Foot-mobile
// friendlies have no auto-engage behavior of their own; only hostiles use HostileBehavior's foot-unit tactical layers.
type Coordinator struct {
	Turret  *TurretBehavior
	Drone   *DroneBehavior
	Rover   *RoverBehavior
	Hostile *HostileBehavior
}

// NewCoordinator wires up all four per-type behaviors against the shared
// combat, pursuit, and event bus systems.
func NewCoordinator(c *combat.System, p *pursuit.System, bus *eventbus.Bus, rng *rand.Rand, mapBounds float64) *Coordinator {
	return &Coordinator{
		Turret:  NewTurretBehavior(c),
		Drone:   NewDroneBehavior(c),
		Rover:   NewRoverBehavior(c, p, mapBounds),
		Hostile: NewHostileBehavior(c, p, bus, rng, mapBounds),
	}
}

// SetObstacles registers building footprints with the hostile behavior's
// cover-seeking and retreat logic.
func (co *Coordinator) SetObstacles(obstacles [][]spatial.Point) {
	co.Hostile.SetObstacles(obstacles)
}

// Tick filters live combatants by alliance/status and dispatches each
// friendly by movement category, runs group-rush detection, then ticks
// every non-air hostile. Air-category hostiles (swarm drones) are excluded
// here; the engine drives their movement through the boids swarm
// controller instead, and the coordinator would otherwise fight that controller over the same position/heading fields.
func (co *Coordinator) Tick(units map[uuid.UUID]*unit.Unit, simTime float64) {
	friendlies := make(map[uuid.UUID]*unit.Unit)
	hostiles := make(map[uuid.UUID]*unit.Unit)

	for id, u := range units {
		if !u.IsCombatant {
			continue
		}
		switch {
		case u.Alliance == unit.Friendly && isEngageableFriendlyStatus(u.Status):
			friendlies[id] = u
		case u.Alliance == unit.Hostile && u.Status == unit.StatusActive:
			hostiles[id] = u
		}
	}

	for _, f := range friendlies {
		switch f.Category() {
		case unit.CategoryStationary:
			co.Turret.Tick(f, hostiles, simTime)
		case unit.CategoryAir:
			co.Drone.Tick(f, hostiles, simTime)
		case unit.CategoryGround:
			co.Rover.Tick(f, hostiles, simTime)
		}
	}

	footHostiles := make(map[uuid.UUID]*unit.Unit, len(hostiles))
	for id, h := range hostiles {
		if h.Category() != unit.CategoryAir {
			footHostiles[id] = h
		}
	}

	co.Hostile.CheckGroupRush(footHostiles)
	for _, h := range footHostiles {
		co.Hostile.Tick(h, friendlies, simTime)
	}
}

func isEngageableFriendlyStatus(status string) bool {
	switch status {
	case unit.StatusActive, unit.StatusIdle, unit.StatusStationary:
		return true
	default:
		return false
	}
}

// Reset clears all stateful behavior data, for scenario restarts.
func (co *Coordinator) Reset() {
	co.Hostile.Reset()
}
