package engine

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/valpatel/tritium-sc/internal/config"
	"github.com/valpatel/tritium-sc/internal/spatial"
	"github.com/valpatel/tritium-sc/internal/squad"
	"github.com/valpatel/tritium-sc/internal/unit"
)

// commandKind distinguishes the two command types deferred to the start
// of the next tick: spawn and despawn mutate the unit
// set itself, so they wait for a tick boundary to keep mid-tick iteration
// over e.units consistent. Every other external operation below mutates
// existing unit/squad/upgrade state in place and applies synchronously.
type commandKind int

const (
	cmdSpawn commandKind = iota
	cmdDespawn
)

type command struct {
	kind  commandKind
	id    uuid.UUID
	spawn config.UnitSpawn
}

// Spawn enqueues a new unit for creation at the start of the next tick
// and returns its pre-allocated ID immediately.
func (e *Engine) Spawn(def config.UnitSpawn) uuid.UUID {
	e.mu.Lock()
	defer e.mu.Unlock()

	id := uuid.New()
	e.pending = append(e.pending, command{kind: cmdSpawn, id: id, spawn: def})
	return id
}

// Despawn enqueues a unit for removal at the start of the next tick.
// Returns false if the unit does not currently exist.
func (e *Engine) Despawn(id uuid.UUID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.units[id]; !ok {
		return false
	}
	e.pending = append(e.pending, command{kind: cmdDespawn, id: id})
	return true
}

func (e *Engine) drainCommands() {
	if len(e.pending) == 0 {
		return
	}
	cmds := e.pending
	e.pending = nil

	for _, c := range cmds {
		switch c.kind {
		case cmdSpawn:
			e.instantiateSpawn(c.id, c.spawn)
		case cmdDespawn:
			if _, ok := e.units[c.id]; ok {
				delete(e.units, c.id)
				e.Spatial.Remove(c.id)
				e.Bus.Publish("unit_destroyed", map[string]interface{}{"target_id": c.id.String()})
			}
		}
	}
}

// ApplyUpgrade applies a permanent upgrade to a unit. Applies
// synchronously under lock since it only mutates existing unit/upgrade
// state, not the unit set.
func (e *Engine) ApplyUpgrade(unitID uuid.UUID, upgradeID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	u, ok := e.units[unitID]
	if !ok || !u.IsAlive() {
		return false
	}
	return e.Upgrades.ApplyUpgrade(unitID, upgradeID, u)
}

// UseAbility triggers a unit's ability against the current unit roster.
func (e *Engine) UseAbility(unitID uuid.UUID, abilityID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if u, ok := e.units[unitID]; !ok || !u.IsAlive() {
		return false
	}
	return e.Upgrades.UseAbility(unitID, abilityID, e.units)
}

// IssueOrder sets a squad's active tactical order.
func (e *Engine) IssueOrder(squadID uuid.UUID, order string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch order {
	case squad.OrderAdvance, squad.OrderHold, squad.OrderFlankLeft, squad.OrderFlankRight, squad.OrderRetreat:
	default:
		return fmt.Errorf("unknown order %q", order)
	}
	if _, ok := e.Squads.GetSquad(squadID); !ok {
		return fmt.Errorf("unknown squad %s", squadID)
	}
	e.Squads.IssueOrder(squadID, order, e.simTime)
	return nil
}

// SetWaypoints replaces a unit's waypoint list.
func (e *Engine) SetWaypoints(unitID uuid.UUID, points []config.Point) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	u, ok := e.units[unitID]
	if !ok {
		return fmt.Errorf("unknown unit %s", unitID)
	}
	pts := make([]spatial.Point, len(points))
	for i, p := range points {
		pts[i] = spatial.Point{X: p.X, Y: p.Y}
	}
	u.SetWaypoints(pts)
	return nil
}

// BeginWave force-triggers a pending wave by number immediately,
// regardless of its configured delay.
func (e *Engine) BeginWave(number int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	for i, w := range e.pendingWaves {
		if w.Number == number {
			e.triggerWave(w)
			e.pendingWaves = append(e.pendingWaves[:i], e.pendingWaves[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("wave %d not found or already triggered", number)
}

// Reset restores the engine to its initial scenario state: every unit,
// squad, and subsystem is cleared and the scenario is reloaded. The tick
// goroutine, if running, is left running.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.units = make(map[uuid.UUID]*unit.Unit)
	e.simTime = 0
	e.lastSnapshotAt = 0
	e.waveNo = 0
	e.score = 0
	e.phase = PhaseIdle
	e.pending = nil
	e.toRemove = nil
	e.pendingWaves = nil

	e.Cover.Reset()
	e.Morale.Reset()
	e.Upgrades.Reset()
	e.Pursuit.Reset()
	e.Squads.Clear(e.units)
	e.Coordinator.Reset()
	e.Terrain.Reset()

	e.loadScenario(e.cfg.Scenario)
}
