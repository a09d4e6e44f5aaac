// Package engine implements the tick-driven simulation loop: a single
// dedicated goroutine owns every mutable subsystem behind one coarse
// lock, running subsystems in a fixed order each tick
// and draining an external command queue at the start of every tick.
package engine

import (
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/valpatel/tritium-sc/internal/behavior"
	"github.com/valpatel/tritium-sc/internal/combat"
	"github.com/valpatel/tritium-sc/internal/config"
	"github.com/valpatel/tritium-sc/internal/eventbus"
	"github.com/valpatel/tritium-sc/internal/logger"
	"github.com/valpatel/tritium-sc/internal/pursuit"
	"github.com/valpatel/tritium-sc/internal/spatial"
	"github.com/valpatel/tritium-sc/internal/squad"
	"github.com/valpatel/tritium-sc/internal/swarm"
	"github.com/valpatel/tritium-sc/internal/tactical"
	"github.com/valpatel/tritium-sc/internal/terrain"
	"github.com/valpatel/tritium-sc/internal/unit"
	"github.com/valpatel/tritium-sc/internal/upgrades"
)

// Phase describes the engine's coarse lifecycle state.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseRunning Phase = "running"
	PhaseStopped Phase = "stopped"
	PhaseOver    Phase = "game_over"
)

// arrivalRadiusM is how close a unit must get to its current waypoint
// before the kinematic step advances it to the next one.
const arrivalRadiusM = 1.5

// killScore is the score awarded for each hostile elimination.
const killScore = 10

// Recorder captures periodic snapshots for replay. internal/replay.Recorder
// satisfies this; the engine depends only on the interface so it never
// needs to import the replay package.
type Recorder interface {
	RecordSnapshot(units map[uuid.UUID]*unit.Unit, simTime float64)
}

// Engine owns every mutable simulation subsystem and drives them through
// one fixed-order tick.
type Engine struct {
	mu  sync.Mutex
	cfg *config.Config
	rng *rand.Rand
	log logger.Logger

	Bus         *eventbus.Bus
	Spatial     *spatial.Grid
	Terrain     *terrain.Map
	Cover       *tactical.CoverSystem
	Morale      *tactical.MoraleSystem
	Upgrades    *upgrades.System
	Combat      *combat.System
	Pursuit     *pursuit.System
	Squads      *squad.Manager
	Swarm       *swarm.Controller
	Coordinator *behavior.Coordinator

	recorder Recorder

	units map[uuid.UUID]*unit.Unit

	dt             float64
	simTime        float64
	lastSnapshotAt float64
	waveNo         int
	score          int
	phase          Phase

	pendingWaves []config.WaveConfig
	pending      []command
	toRemove     []uuid.UUID

	stopCh  chan struct{}
	wg      sync.WaitGroup
	running bool
}

// New builds an engine from a validated configuration and loads its
// initial scenario. The engine is idle (not ticking) until Start is
// called.
func New(cfg *config.Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	seed := time.Now().UnixNano()
	if cfg.Engine.Seed != nil {
		seed = *cfg.Engine.Seed
	}
	rng := rand.New(rand.NewSource(seed))

	bus := eventbus.New(eventbus.DefaultQueueCapacity)
	cover := tactical.NewCoverSystem()
	morale := tactical.NewMoraleSystem(cfg.Engine.MoraleProximityRadiusM)
	up := upgrades.New()
	combatSys := combat.New(bus, cover, morale, up, rng)
	pursuitSys := pursuit.New(rng)
	squadMgr := squad.NewWithConfig(rng, cfg.Engine.SquadRadiusM, cfg.Engine.FormationSpacingM, cfg.Engine.OrderTimeoutS, squad.DefaultLeaderSafeRangeM)
	swarmCtrl := swarm.NewWithConfig(cfg.Engine.SwarmRadii.SeparationM, cfg.Engine.SwarmRadii.AlignmentM, cfg.Engine.SwarmRadii.CohesionM, cfg.Engine.MaxForce)
	coordinator := behavior.NewCoordinator(combatSys, pursuitSys, bus, rng, cfg.Engine.MapBounds)

	e := &Engine{
		cfg:         cfg,
		rng:         rng,
		log:         logger.New().WithPrefix("engine"),
		Bus:         bus,
		Spatial:     spatial.New(cfg.Engine.SpatialCellSizeM),
		Terrain:     terrain.New(cfg.Engine.MapBounds, cfg.Engine.TerrainResolutionM),
		Cover:       cover,
		Morale:      morale,
		Upgrades:    up,
		Combat:      combatSys,
		Pursuit:     pursuitSys,
		Squads:      squadMgr,
		Swarm:       swarmCtrl,
		Coordinator: coordinator,
		units:       make(map[uuid.UUID]*unit.Unit),
		dt:          1.0 / cfg.Engine.TickRateHz,
		phase:       PhaseIdle,
		stopCh:      make(chan struct{}),
	}

	e.loadScenario(cfg.Scenario)
	return e, nil
}

// SetRecorder wires a replay recorder into the engine's snapshot step.
// Passing nil disables snapshotting.
func (e *Engine) SetRecorder(r Recorder) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recorder = r
}

// Start launches the tick goroutine at the configured tick rate. It is a
// no-op if the engine is already running.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.phase = PhaseRunning
	e.stopCh = make(chan struct{})
	e.mu.Unlock()

	e.wg.Add(1)
	go e.run()
}

func (e *Engine) run() {
	defer e.wg.Done()
	interval := time.Duration(e.dt * float64(time.Second))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-e.stopCh:
			return
		case <-ticker.C:
			e.Step(e.dt)
		}
	}
}

// Stop halts the tick goroutine and blocks until it has exited. The
// engine's state (units, score, sim_time) is left as of the last
// completed tick.
func (e *Engine) Stop() {
	e.mu.Lock()
	if !e.running {
		e.mu.Unlock()
		return
	}
	e.running = false
	close(e.stopCh)
	e.mu.Unlock()

	e.wg.Wait()

	e.mu.Lock()
	if e.phase == PhaseRunning {
		e.phase = PhaseStopped
	}
	e.mu.Unlock()
}

// Step advances the simulation by exactly one tick, in the fixed
// subsystem order. It is exported directly so tests and tools can
// single-step without running the background goroutine.
func (e *Engine) Step(dt float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.step(dt)
}

func (e *Engine) step(dt float64) {
	if e.phase == PhaseOver || e.phase == PhaseStopped {
		return
	}

	// Step 0: apply last tick's removals and drain the command queue so
	// this tick sees a consistent snapshot of units.
	e.applyRemovals()
	e.drainCommands()
	e.maybeTriggerWave()

	// Step 1: advance sim time.
	e.simTime += dt

	// Step 2: generic kinematic step -- move every unit toward its
	// current waypoint at its effective speed. No behavior in this
	// codebase performs this move generically; per-type behaviors only
	// aim and fire, with position writes reserved for special-case
	// tactical maneuvers layered on top afterward.
	e.kinematicStep(dt)

	// Step 3: rebuild the spatial index from post-movement positions.
	e.rebuildSpatialIndex()

	// Step 4: cover, degradation, morale, upgrade/ability bookkeeping.
	// upgrades.Tick advances cooldowns and expires active effects in one
	// pass, so effect expiry has no step of its own.
	e.Cover.Tick(e.units)
	for _, u := range e.units {
		if u.IsAlive() {
			tactical.ApplyDegradation(u)
		}
	}
	e.Morale.Tick(dt, e.simTime, e.units)
	e.Upgrades.Tick(dt)

	friendlies, hostiles := e.splitByAlliance()

	// Step 5: pursuit assignment and intercept prediction.
	e.Pursuit.Tick(dt, e.simTime, friendlies, hostiles)

	// Step 6 & 7: squad membership/formation, then tactical orders.
	e.Squads.Tick(dt, e.units)
	e.Squads.TickOrders(dt, e.simTime, e.units)

	// Step 8: boids flocking for hostile swarm drones.
	e.Swarm.Tick(dt, airCategory(hostiles), friendlies)

	// Step 9: per-type behavior dispatch, including inline combat fire.
	e.Coordinator.Tick(e.units, e.simTime)

	// Step 10: detect terminal transitions, publish events, fan out
	// elimination bookkeeping to squads/pursuit/morale.
	e.detectTerminalTransitions()

	e.evaluateWaveState()

	// Step 12: snapshot at the configured rate.
	if e.recorder != nil && e.simTime-e.lastSnapshotAt >= 1.0/e.cfg.Engine.SnapshotRateHz {
		e.lastSnapshotAt = e.simTime
		e.recorder.RecordSnapshot(e.units, e.simTime)
	}
}

func (e *Engine) kinematicStep(dt float64) {
	for _, u := range e.units {
		if !u.IsAlive() || u.BaseSpeed <= 0 {
			continue
		}
		wp, ok := u.CurrentWaypoint()
		if !ok {
			continue
		}

		dx := wp.X - u.Position.X
		dy := wp.Y - u.Position.Y
		dist := math.Hypot(dx, dy)
		if dist <= arrivalRadiusM {
			u.WaypointIndex++
			continue
		}

		speed := e.effectiveSpeed(u)
		u.Speed = speed
		step := speed * dt
		if step >= dist {
			u.Position.X, u.Position.Y = wp.X, wp.Y
		} else {
			u.Position.X += dx / dist * step
			u.Position.Y += dy / dist * step
		}

		heading := math.Atan2(dx, dy) * 180.0 / math.Pi
		if heading < 0 {
			heading += 360.0
		}
		u.Heading = heading
	}
}

func (e *Engine) effectiveSpeed(u *unit.Unit) float64 {
	speed := tactical.EffectiveSpeed(u, u.BaseSpeed)
	speed *= e.Terrain.GetSpeedModifier(u.Position.X, u.Position.Y, u.AssetType, unit.IsFlying(u.AssetType))
	speed *= e.Upgrades.GetStatModifier(u.ID, "speed")
	return speed
}

func (e *Engine) rebuildSpatialIndex() {
	positions := make(map[uuid.UUID]spatial.Point, len(e.units))
	for id, u := range e.units {
		if u.IsAlive() {
			positions[id] = u.Position
		}
	}
	e.Spatial.Rebuild(positions)
}

func (e *Engine) splitByAlliance() (friendlies, hostiles map[uuid.UUID]*unit.Unit) {
	friendlies = make(map[uuid.UUID]*unit.Unit)
	hostiles = make(map[uuid.UUID]*unit.Unit)
	for id, u := range e.units {
		if !u.IsAlive() {
			continue
		}
		switch u.Alliance {
		case unit.Friendly:
			friendlies[id] = u
		case unit.Hostile:
			hostiles[id] = u
		}
	}
	return friendlies, hostiles
}

func airCategory(units map[uuid.UUID]*unit.Unit) map[uuid.UUID]*unit.Unit {
	out := make(map[uuid.UUID]*unit.Unit, len(units))
	for id, u := range units {
		if u.Category() == unit.CategoryAir {
			out[id] = u
		}
	}
	return out
}

// detectTerminalTransitions fans out the bookkeeping a freshly eliminated
// unit requires: release pursuit assignments, cascade squad leader
// succession, propagate morale to nearby units, award score, and publish
// unit_destroyed. The unit itself is left in the map for one more tick
// (it persists for exactly one tick after elimination) and queued for removal
// at the start of the next tick.
func (e *Engine) detectTerminalTransitions() {
	for _, dead := range e.units {
		if !dead.JustEliminated() {
			continue
		}
		dead.ClearEliminatedFlag()
		e.toRemove = append(e.toRemove, dead.ID)

		e.Pursuit.ClearAssignmentsFor(dead.ID)

		if dead.SquadID != nil && e.Squads.IsLeader(dead.ID) {
			e.Squads.OnLeaderEliminated(*dead.SquadID, e.simTime)
			e.Squads.PromoteNewLeader(*dead.SquadID, dead.Position, e.units)
		}

		radius := e.Morale.ProximityRadius()
		for _, u := range e.units {
			if u.ID == dead.ID || !u.IsAlive() {
				continue
			}
			if distance(u.Position, dead.Position) > radius {
				continue
			}
			if u.Alliance == dead.Alliance {
				e.Morale.OnAllyEliminated(u.ID)
			} else {
				e.Morale.OnEnemyEliminated(u.ID)
			}
		}

		if dead.Alliance == unit.Hostile {
			e.score += killScore
		}

		e.Bus.Publish("unit_destroyed", map[string]interface{}{
			"target_id":  dead.ID.String(),
			"alliance":   dead.Alliance,
			"asset_type": dead.AssetType,
			"position":   map[string]float64{"x": dead.Position.X, "y": dead.Position.Y},
		})
	}
}

func (e *Engine) applyRemovals() {
	if len(e.toRemove) == 0 {
		return
	}
	for _, id := range e.toRemove {
		delete(e.units, id)
		e.Spatial.Remove(id)
	}
	e.toRemove = nil
}

func distance(a, b spatial.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
