// Package simulation adapts the tactical engine into the pkg/simulation
// plugin shape, registering itself as "tritium-sc" so the CLI can
// discover and drive it through the registry.
package simulation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/valpatel/tritium-sc/internal/config"
	"github.com/valpatel/tritium-sc/internal/engine"
	"github.com/valpatel/tritium-sc/internal/eventbus"
	"github.com/valpatel/tritium-sc/internal/replay"
	"github.com/valpatel/tritium-sc/internal/spectator"
	"github.com/valpatel/tritium-sc/pkg/logger"
	"github.com/valpatel/tritium-sc/pkg/simulation"
)

func init() {
	_ = simulation.DefaultRegistry.Register("tritium-sc", NewTritiumSimulation)
}

// pollInterval is how often Run checks for game-over while the engine
// ticks on its own goroutine.
const pollInterval = 200 * time.Millisecond

// TritiumSimulation wires the tactical engine, its replay recorder, and
// a spectator controller together behind the pkg/simulation.Simulation
// interface.
type TritiumSimulation struct {
	mu   sync.Mutex
	cfg  *config.Config
	eng  *engine.Engine
	rec  *replay.Recorder
	spec *spectator.Mode
	sub  *eventbus.Subscription
}

// NewTritiumSimulation constructs an unconfigured simulation instance.
func NewTritiumSimulation() simulation.Simulation {
	return &TritiumSimulation{}
}

func (s *TritiumSimulation) Name() string {
	return "TRITIUM-SC Tactical Simulation"
}

func (s *TritiumSimulation) Description() string {
	return "Tick-driven tactical combat simulation: squads, swarms, pursuit, cover, and morale over a terrain-aware battlespace."
}

// Configure loads a scenario configuration and applies parameter
// overrides. Recognised parameters: scenario_path (string), seed
// (int/int64), tick_rate_hz (float64), map_bounds (float64).
func (s *TritiumSimulation) Configure(params map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, _ := params["scenario_path"].(string)

	overrides := make(map[string]interface{})
	if v, ok := params["tick_rate_hz"]; ok {
		overrides["tick_rate_hz"] = toFloat(v)
	}
	if v, ok := params["map_bounds"]; ok {
		overrides["map_bounds"] = toFloat(v)
	}
	if v, ok := params["seed"]; ok {
		overrides["seed"] = toInt64(v)
	}

	cfg, err := config.LoadConfigWithOverrides(path, overrides)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	eng, err := engine.New(cfg)
	if err != nil {
		return fmt.Errorf("failed to construct engine: %w", err)
	}

	rec := replay.New(eng.Bus, cfg.Engine.ReplayMaxFrames)
	eng.SetRecorder(rec)
	rec.Start()

	s.cfg = cfg
	s.eng = eng
	s.rec = rec
	s.spec = spectator.New(rec)
	return nil
}

// Engine exposes the underlying engine for callers (e.g. the CLI) that
// need the query/command surface directly.
func (s *TritiumSimulation) Engine() *engine.Engine {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eng
}

// Recorder exposes the replay recorder for export/spectator use.
func (s *TritiumSimulation) Recorder() *replay.Recorder {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec
}

// Spectator exposes the playback controller bound to this run's replay.
func (s *TritiumSimulation) Spectator() *spectator.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.spec
}

// Run starts the engine and blocks until ctx is cancelled or the engine
// reaches game_over, logging major combat/wave events as they occur.
func (s *TritiumSimulation) Run(ctx context.Context) error {
	s.mu.Lock()
	eng := s.eng
	if eng == nil {
		s.mu.Unlock()
		return fmt.Errorf("simulation not configured")
	}
	sub := eng.Bus.Subscribe()
	s.sub = sub
	s.mu.Unlock()

	defer sub.Unsubscribe()

	eng.Start()
	logger.LogSection(fmt.Sprintf("%s: %s", s.Name(), s.cfg.Scenario.Name))

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Stop()
			return nil
		case evt := <-sub.C:
			logEvent(evt)
		case <-ticker.C:
			if state := eng.GetState(); state.Phase == engine.PhaseOver {
				logger.Successf("game over: score=%d wave=%d sim_time=%.1fs", state.Score, state.WaveNo, state.SimTime)
				s.Stop()
				return nil
			}
		}
	}
}

// Stop halts the engine and its recorder's listener goroutine.
func (s *TritiumSimulation) Stop() error {
	s.mu.Lock()
	eng := s.eng
	rec := s.rec
	s.mu.Unlock()

	if eng != nil {
		eng.Stop()
	}
	if rec != nil {
		rec.Stop()
		rec.StopListener()
	}
	return nil
}

func logEvent(evt eventbus.Event) {
	switch evt.Type {
	case "target_eliminated":
		logger.Infof("target eliminated: %v", evt.Data["target_id"])
	case "unit_destroyed":
		alliance, _ := evt.Data["alliance"].(string)
		logger.LogAllianceLine(alliance, fmt.Sprintf("%v (%v) destroyed", evt.Data["target_id"], evt.Data["asset_type"]))
	case "wave_start":
		logger.Progressf("wave %v started", evt.Data["wave_number"])
	case "wave_complete":
		logger.Successf("wave %v complete", evt.Data["wave_number"])
	case "weapon_jam":
		logger.Warnf("weapon jam: %v", evt.Data["target_id"])
	}
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}
