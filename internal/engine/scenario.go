package engine

import (
	"github.com/google/uuid"

	"github.com/valpatel/tritium-sc/internal/config"
	"github.com/valpatel/tritium-sc/internal/spatial"
	"github.com/valpatel/tritium-sc/internal/tactical"
	"github.com/valpatel/tritium-sc/internal/terrain"
	"github.com/valpatel/tritium-sc/internal/unit"
)

// loadScenario places a scenario's terrain, cover, and initial unit
// roster into the engine, and queues its wave schedule. Callers must hold
// e.mu.
func (e *Engine) loadScenario(sc config.ScenarioConfig) {
	if roads := toRoadSegments(sc.Terrain.Roads); len(roads) > 0 {
		e.Terrain.LoadRoads(roads)
	}

	if buildings := toBuildings(sc.Terrain.Buildings); len(buildings) > 0 {
		e.Terrain.LoadBuildings(buildings)
		e.Coordinator.SetObstacles(toObstacles(sc.Terrain.Buildings))
	}

	for _, cv := range sc.Cover {
		obj := tactical.NewObject(spatial.Point{X: cv.X, Y: cv.Y})
		if cv.Radius > 0 {
			obj.Radius = cv.Radius
		}
		if cv.CoverValue > 0 {
			obj.CoverValue = cv.CoverValue
		}
		e.Cover.AddCover(obj)
	}

	for _, us := range sc.Units {
		e.instantiateSpawn(uuid.New(), us)
	}

	e.pendingWaves = append([]config.WaveConfig(nil), sc.Waves...)
}

func (e *Engine) instantiateSpawn(id uuid.UUID, def config.UnitSpawn) uuid.UUID {
	u := unit.New(def.Name, def.Alliance, def.AssetType, spatial.Point{X: def.X, Y: def.Y})
	u.ID = id
	u.Heading = def.Heading

	if u.Category() == unit.CategoryStationary {
		u.Status = unit.StatusStationary
	} else {
		u.Status = unit.StatusActive
	}
	// New() seeds FSMState "spawning" as a placeholder; combat.CanFireFSM
	// treats "" as "no stateful FSM yet" and gates anything else by
	// category. Turret/drone/rover behaviors never set FSMState at all,
	// so they'd be gated shut forever if we left the placeholder in
	// place -- clear it once the unit is actually live.
	u.FSMState = ""

	if len(def.Waypoints) > 0 {
		pts := make([]spatial.Point, len(def.Waypoints))
		for i, p := range def.Waypoints {
			pts[i] = spatial.Point{X: p.X, Y: p.Y}
		}
		u.SetWaypoints(pts)
	}

	e.Morale.Seed(u.ID)
	e.units[u.ID] = u
	e.Spatial.Insert(u.ID, u.Position)
	return u.ID
}

func toRoadSegments(roads []config.RoadConfig) []terrain.Segment {
	if len(roads) == 0 {
		return nil
	}
	out := make([]terrain.Segment, len(roads))
	for i, r := range roads {
		out[i] = terrain.Segment{
			Start: terrain.Point{X: r.Start.X, Y: r.Start.Y},
			End:   terrain.Point{X: r.End.X, Y: r.End.Y},
			Width: r.Width,
		}
	}
	return out
}

func toBuildings(buildings []config.BuildingConfig) []terrain.BuildingFootprint {
	if len(buildings) == 0 {
		return nil
	}
	out := make([]terrain.BuildingFootprint, len(buildings))
	for i, b := range buildings {
		footprint := make([]terrain.Point, len(b.Footprint))
		var cx, cy float64
		for j, p := range b.Footprint {
			footprint[j] = terrain.Point{X: p.X, Y: p.Y}
			cx += p.X
			cy += p.Y
		}
		if n := len(b.Footprint); n > 0 {
			cx /= float64(n)
			cy /= float64(n)
		}
		out[i] = terrain.BuildingFootprint{Footprint: footprint, Position: terrain.Point{X: cx, Y: cy}}
	}
	return out
}

func toObstacles(buildings []config.BuildingConfig) [][]spatial.Point {
	out := make([][]spatial.Point, len(buildings))
	for i, b := range buildings {
		pts := make([]spatial.Point, len(b.Footprint))
		for j, p := range b.Footprint {
			pts[j] = spatial.Point{X: p.X, Y: p.Y}
		}
		out[i] = pts
	}
	return out
}

// maybeTriggerWave fires the next scheduled wave once sim_time reaches
// its configured delay, since the scenario's scheduled, engine-driven
// "delay" is relative to scenario start rather than to the previous wave.
func (e *Engine) maybeTriggerWave() {
	if len(e.pendingWaves) == 0 {
		return
	}
	next := e.pendingWaves[0]
	if e.simTime < next.DelayS {
		return
	}
	e.triggerWave(next)
	e.pendingWaves = e.pendingWaves[1:]
}

func (e *Engine) triggerWave(w config.WaveConfig) {
	e.waveNo = w.Number
	for _, us := range w.Units {
		e.instantiateSpawn(uuid.New(), us)
	}
	e.log.Infof("wave %d started with %d units", w.Number, len(w.Units))
	e.Bus.Publish("wave_start", map[string]interface{}{
		"wave_number": w.Number,
		"unit_count":  len(w.Units),
	})
}

// evaluateWaveState publishes wave_complete or game_over once a wave's
// hostiles are wiped, and game_over when every friendly has fallen.
func (e *Engine) evaluateWaveState() {
	if e.waveNo == 0 {
		return
	}

	var hostilesLeft, friendliesLeft int
	for _, u := range e.units {
		if !u.IsAlive() {
			continue
		}
		switch u.Alliance {
		case unit.Hostile:
			hostilesLeft++
		case unit.Friendly:
			friendliesLeft++
		}
	}

	if friendliesLeft == 0 {
		e.endGame(false)
		return
	}

	if hostilesLeft == 0 {
		if len(e.pendingWaves) > 0 {
			e.Bus.Publish("wave_complete", map[string]interface{}{"wave_number": e.waveNo})
		} else {
			e.endGame(true)
		}
	}
}

func (e *Engine) endGame(victory bool) {
	if e.phase == PhaseOver {
		return
	}
	e.phase = PhaseOver
	e.log.Infof("game over, victory=%v, score=%d", victory, e.score)
	e.Bus.Publish("game_over", map[string]interface{}{
		"victory": victory,
		"score":   e.score,
		"wave_no": e.waveNo,
	})
}
