package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// LoadConfig loads and validates a configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadConfigOrDefault loads config from path, falling back to a set of
// default locations and finally to GetDefaultConfig. Environment overrides
// are always applied last.
func LoadConfigOrDefault(path string) (*Config, error) {
	var cfg *Config

	if path != "" {
		loaded, err := LoadConfig(path)
		if err != nil {
			fmt.Printf("Warning: could not load config from %s: %v\n", path, err)
		} else {
			cfg = loaded
		}
	}

	if cfg == nil {
		for _, p := range []string{"scenario.yaml", "tritium-sc.yaml", filepath.Join("scenarios", "default.yaml")} {
			if _, err := os.Stat(p); err == nil {
				if loaded, err := LoadConfig(p); err == nil {
					fmt.Printf("Loaded config from: %s\n", p)
					cfg = loaded
					break
				}
			}
		}
	}

	if cfg == nil {
		fmt.Println("Using default configuration")
		cfg = GetDefaultConfig()
	}

	MergeWithEnvironment(cfg)
	return cfg, nil
}

// SaveConfig writes a configuration to a YAML file, creating parent
// directories as needed.
func SaveConfig(cfg *Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("error creating directory: %w", err)
		}
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}
	return nil
}

// MergeWithCLIOverrides applies CLI flag overrides onto a configuration.
// Unrecognized keys and type-mismatched values are ignored.
func MergeWithCLIOverrides(cfg *Config, overrides map[string]interface{}) {
	for key, value := range overrides {
		switch key {
		case "tick_rate_hz":
			if v, ok := value.(float64); ok && v > 0 {
				cfg.Engine.TickRateHz = v
			}
		case "snapshot_rate_hz":
			if v, ok := value.(float64); ok && v > 0 {
				cfg.Engine.SnapshotRateHz = v
			}
		case "map_bounds":
			if v, ok := value.(float64); ok && v > 0 {
				cfg.Engine.MapBounds = v
			}
		case "squad_radius_m":
			if v, ok := value.(float64); ok && v > 0 {
				cfg.Engine.SquadRadiusM = v
			}
		case "formation_spacing_m":
			if v, ok := value.(float64); ok && v > 0 {
				cfg.Engine.FormationSpacingM = v
			}
		case "order_timeout_s":
			if v, ok := value.(float64); ok && v > 0 {
				cfg.Engine.OrderTimeoutS = v
			}
		case "max_force":
			if v, ok := value.(float64); ok && v > 0 {
				cfg.Engine.MaxForce = v
			}
		case "replay_max_frames":
			if v, ok := value.(int); ok && v > 0 {
				cfg.Engine.ReplayMaxFrames = v
			}
		case "morale_proximity_radius_m":
			if v, ok := value.(float64); ok && v > 0 {
				cfg.Engine.MoraleProximityRadiusM = v
			}
		case "seed":
			if v, ok := value.(int64); ok {
				cfg.Engine.Seed = &v
			}
		}
	}
}

// LoadConfigWithOverrides loads config from path (or defaults) and applies
// CLI overrides on top of environment overrides, re-validating at the end.
func LoadConfigWithOverrides(path string, cliOverrides map[string]interface{}) (*Config, error) {
	cfg, err := LoadConfigOrDefault(path)
	if err != nil {
		return nil, err
	}

	if cliOverrides != nil {
		MergeWithCLIOverrides(cfg, cliOverrides)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed after overrides: %w", err)
	}
	return cfg, nil
}

// MergeWithEnvironment applies TRITIUM_*-prefixed environment variable
// overrides onto a configuration.
func MergeWithEnvironment(cfg *Config) {
	if v := os.Getenv("TRITIUM_TICK_RATE_HZ"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Engine.TickRateHz = f
		}
	}
	if v := os.Getenv("TRITIUM_SNAPSHOT_RATE_HZ"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Engine.SnapshotRateHz = f
		}
	}
	if v := os.Getenv("TRITIUM_MAP_BOUNDS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f > 0 {
			cfg.Engine.MapBounds = f
		}
	}
	if v := os.Getenv("TRITIUM_SEED"); v != "" {
		if seed, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Engine.Seed = &seed
		}
	}
	if v := os.Getenv("TRITIUM_REPLAY_MAX_FRAMES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Engine.ReplayMaxFrames = n
		}
	}
}
