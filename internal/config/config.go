// Package config defines the engine's tuning knobs and the scenario
// content (unit roster, terrain, cover, wave schedule) loaded from YAML.
package config

import (
	"fmt"
)

// Config is the complete configuration for one simulation run: engine
// tuning plus the scenario it plays.
type Config struct {
	Engine   EngineConfig   `yaml:"engine"`
	Scenario ScenarioConfig `yaml:"scenario"`
}

// EngineConfig holds the engine-level tuning knobs.
type EngineConfig struct {
	TickRateHz             float64          `yaml:"tick_rate_hz"`
	SnapshotRateHz         float64          `yaml:"snapshot_rate_hz"`
	MapBounds              float64          `yaml:"map_bounds"`
	TerrainResolutionM     float64          `yaml:"terrain_resolution_m"`
	SpatialCellSizeM       float64          `yaml:"spatial_cell_size_m"`
	SquadRadiusM           float64          `yaml:"squad_radius_m"`
	FormationSpacingM      float64          `yaml:"formation_spacing_m"`
	OrderTimeoutS          float64          `yaml:"order_timeout_s"`
	SwarmRadii             SwarmRadiiConfig `yaml:"swarm_radii"`
	MaxForce               float64          `yaml:"max_force"`
	ReplayMaxFrames        int              `yaml:"replay_max_frames"`
	MoraleProximityRadiusM float64          `yaml:"morale_proximity_radius_m"`
	Seed                   *int64           `yaml:"seed,omitempty"`
}

// SwarmRadiiConfig configures the boids flocking radii.
type SwarmRadiiConfig struct {
	SeparationM float64 `yaml:"separation_m"`
	AlignmentM  float64 `yaml:"alignment_m"`
	CohesionM   float64 `yaml:"cohesion_m"`
}

// Point is a YAML-friendly 2D coordinate.
type Point struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// UnitSpawn describes one unit to place at scenario start (or wave
// start).
type UnitSpawn struct {
	Name      string  `yaml:"name"`
	Alliance  string  `yaml:"alliance"`
	AssetType string  `yaml:"asset_type"`
	X         float64 `yaml:"x"`
	Y         float64 `yaml:"y"`
	Heading   float64 `yaml:"heading,omitempty"`
	Waypoints []Point `yaml:"waypoints,omitempty"`
}

// TerrainConfig is the scenario's static map content.
type TerrainConfig struct {
	Roads     []RoadConfig     `yaml:"roads"`
	Buildings []BuildingConfig `yaml:"buildings"`
}

// RoadConfig is a road centerline with a width, in the scenario file's
// own coordinate field names (flatter than terrain.Segment).
type RoadConfig struct {
	Start Point   `yaml:"start"`
	End   Point   `yaml:"end"`
	Width float64 `yaml:"width"`
}

// BuildingConfig is a building footprint polygon.
type BuildingConfig struct {
	Footprint []Point `yaml:"footprint"`
}

// CoverSpec places a cover object (wall, rubble, vehicle) on the map.
type CoverSpec struct {
	X          float64 `yaml:"x"`
	Y          float64 `yaml:"y"`
	Radius     float64 `yaml:"radius"`
	CoverValue float64 `yaml:"cover_value"`
}

// WaveConfig schedules a batch of hostile reinforcements.
type WaveConfig struct {
	Number int         `yaml:"number"`
	DelayS float64     `yaml:"delay_s"`
	Units  []UnitSpawn `yaml:"units"`
}

// ScenarioConfig is the content of one playable scenario.
type ScenarioConfig struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description"`
	Units       []UnitSpawn   `yaml:"units"`
	Terrain     TerrainConfig `yaml:"terrain"`
	Cover       []CoverSpec   `yaml:"cover"`
	Waves       []WaveConfig  `yaml:"waves"`
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.Engine.TickRateHz <= 0 {
		return fmt.Errorf("engine.tick_rate_hz must be positive")
	}
	if c.Engine.SnapshotRateHz <= 0 {
		return fmt.Errorf("engine.snapshot_rate_hz must be positive")
	}
	if c.Engine.SnapshotRateHz > c.Engine.TickRateHz {
		return fmt.Errorf("engine.snapshot_rate_hz cannot exceed tick_rate_hz")
	}
	if c.Engine.MapBounds <= 0 {
		return fmt.Errorf("engine.map_bounds must be positive")
	}
	if c.Engine.TerrainResolutionM <= 0 {
		return fmt.Errorf("engine.terrain_resolution_m must be positive")
	}
	if c.Engine.SquadRadiusM <= 0 {
		return fmt.Errorf("engine.squad_radius_m must be positive")
	}
	if c.Engine.FormationSpacingM <= 0 {
		return fmt.Errorf("engine.formation_spacing_m must be positive")
	}
	if c.Engine.OrderTimeoutS <= 0 {
		return fmt.Errorf("engine.order_timeout_s must be positive")
	}
	if c.Engine.MaxForce <= 0 {
		return fmt.Errorf("engine.max_force must be positive")
	}
	if c.Engine.ReplayMaxFrames <= 0 {
		return fmt.Errorf("engine.replay_max_frames must be positive")
	}
	if c.Engine.MoraleProximityRadiusM <= 0 {
		return fmt.Errorf("engine.morale_proximity_radius_m must be positive")
	}
	if c.Engine.SwarmRadii.SeparationM <= 0 || c.Engine.SwarmRadii.AlignmentM <= 0 || c.Engine.SwarmRadii.CohesionM <= 0 {
		return fmt.Errorf("engine.swarm_radii entries must all be positive")
	}
	if c.Scenario.Name == "" {
		return fmt.Errorf("scenario.name is required")
	}
	for i, u := range c.Scenario.Units {
		if err := validateSpawn(u); err != nil {
			return fmt.Errorf("scenario.units[%d]: %w", i, err)
		}
	}
	for _, w := range c.Scenario.Waves {
		for i, u := range w.Units {
			if err := validateSpawn(u); err != nil {
				return fmt.Errorf("scenario.waves[wave=%d].units[%d]: %w", w.Number, i, err)
			}
		}
	}
	return nil
}

func validateSpawn(u UnitSpawn) error {
	if u.AssetType == "" {
		return fmt.Errorf("asset_type is required")
	}
	switch u.Alliance {
	case "friendly", "hostile", "neutral":
	default:
		return fmt.Errorf("alliance must be friendly, hostile, or neutral, got %q", u.Alliance)
	}
	return nil
}

// String returns a human-readable summary of the configuration.
func (c *Config) String() string {
	return fmt.Sprintf(`TRITIUM-SC Configuration:
  Scenario: %s
  Description: %s

Engine:
  Tick Rate: %.1f Hz
  Snapshot Rate: %.1f Hz
  Map Bounds: %.0f m
  Terrain Resolution: %.1f m
  Squad Radius: %.1f m
  Formation Spacing: %.1f m
  Order Timeout: %.1f s
  Swarm Radii: sep=%.1f align=%.1f coh=%.1f
  Max Force: %.1f
  Replay Max Frames: %d
  Morale Proximity Radius: %.1f m

Scenario Content:
  Units: %d
  Waves: %d
  Cover Objects: %d`,
		c.Scenario.Name,
		c.Scenario.Description,
		c.Engine.TickRateHz,
		c.Engine.SnapshotRateHz,
		c.Engine.MapBounds,
		c.Engine.TerrainResolutionM,
		c.Engine.SquadRadiusM,
		c.Engine.FormationSpacingM,
		c.Engine.OrderTimeoutS,
		c.Engine.SwarmRadii.SeparationM, c.Engine.SwarmRadii.AlignmentM, c.Engine.SwarmRadii.CohesionM,
		c.Engine.MaxForce,
		c.Engine.ReplayMaxFrames,
		c.Engine.MoraleProximityRadiusM,
		len(c.Scenario.Units),
		len(c.Scenario.Waves),
		len(c.Scenario.Cover),
	)
}

// GetDefaultConfig returns the default engine configuration with a
// default skirmish scenario of one turret vs. one hostile, using the
// standard defaults.
func GetDefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			TickRateHz:         10,
			SnapshotRateHz:     2,
			MapBounds:          200,
			TerrainResolutionM: 5,
			SpatialCellSizeM:   50,
			SquadRadiusM:       15,
			FormationSpacingM:  4,
			OrderTimeoutS:      10,
			SwarmRadii: SwarmRadiiConfig{
				SeparationM: 5,
				AlignmentM:  15,
				CohesionM:   20,
			},
			MaxForce:               3.0,
			ReplayMaxFrames:        3000,
			MoraleProximityRadiusM: 20,
		},
		Scenario: ScenarioConfig{
			Name:        "default-skirmish",
			Description: "One turret defends against a single approaching hostile.",
			Units: []UnitSpawn{
				{Name: "turret-1", Alliance: "friendly", AssetType: "turret", X: 0, Y: 0},
				{Name: "hostile-1", Alliance: "hostile", AssetType: "person", X: 0, Y: 50},
			},
		},
	}
}
