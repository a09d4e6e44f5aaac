package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config failed validation: %v", err)
	}
	if cfg.Engine.TickRateHz != 10 {
		t.Errorf("expected tick_rate_hz 10, got %v", cfg.Engine.TickRateHz)
	}
	if cfg.Engine.SnapshotRateHz != 2 {
		t.Errorf("expected snapshot_rate_hz 2, got %v", cfg.Engine.SnapshotRateHz)
	}
	if cfg.Engine.ReplayMaxFrames != 3000 {
		t.Errorf("expected replay_max_frames 3000, got %v", cfg.Engine.ReplayMaxFrames)
	}
	if len(cfg.Scenario.Units) != 2 {
		t.Errorf("expected 2 default units, got %d", len(cfg.Scenario.Units))
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero tick rate", func(c *Config) { c.Engine.TickRateHz = 0 }},
		{"snapshot exceeds tick rate", func(c *Config) { c.Engine.SnapshotRateHz = c.Engine.TickRateHz + 1 }},
		{"negative map bounds", func(c *Config) { c.Engine.MapBounds = -1 }},
		{"missing scenario name", func(c *Config) { c.Scenario.Name = "" }},
		{"bad alliance", func(c *Config) {
			c.Scenario.Units = append(c.Scenario.Units, UnitSpawn{AssetType: "turret", Alliance: "rebel"})
		}},
		{"missing asset type", func(c *Config) {
			c.Scenario.Units = append(c.Scenario.Units, UnitSpawn{Alliance: "friendly"})
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := GetDefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected validation error for %s", tc.name)
			}
		})
	}
}

func TestSaveAndLoadConfig(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Scenario.Name = "round-trip-scenario"

	path := filepath.Join(t.TempDir(), "nested", "scenario.yaml")
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Scenario.Name != "round-trip-scenario" {
		t.Errorf("expected scenario name to round-trip, got %q", loaded.Scenario.Name)
	}
	if loaded.Engine.TickRateHz != cfg.Engine.TickRateHz {
		t.Errorf("expected tick rate to round-trip, got %v", loaded.Engine.TickRateHz)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error loading a missing config file")
	}
}

func TestMergeWithEnvironment(t *testing.T) {
	t.Setenv("TRITIUM_TICK_RATE_HZ", "20")
	t.Setenv("TRITIUM_SEED", "42")
	t.Setenv("TRITIUM_MAP_BOUNDS", "500")

	cfg := GetDefaultConfig()
	MergeWithEnvironment(cfg)

	if cfg.Engine.TickRateHz != 20 {
		t.Errorf("expected tick_rate_hz overridden to 20, got %v", cfg.Engine.TickRateHz)
	}
	if cfg.Engine.MapBounds != 500 {
		t.Errorf("expected map_bounds overridden to 500, got %v", cfg.Engine.MapBounds)
	}
	if cfg.Engine.Seed == nil || *cfg.Engine.Seed != 42 {
		t.Errorf("expected seed overridden to 42, got %v", cfg.Engine.Seed)
	}
}

func TestMergeWithCLIOverrides(t *testing.T) {
	cfg := GetDefaultConfig()
	MergeWithCLIOverrides(cfg, map[string]interface{}{
		"tick_rate_hz":      30.0,
		"replay_max_frames": 500,
		"unknown_key":       "ignored",
	})

	if cfg.Engine.TickRateHz != 30 {
		t.Errorf("expected tick_rate_hz overridden to 30, got %v", cfg.Engine.TickRateHz)
	}
	if cfg.Engine.ReplayMaxFrames != 500 {
		t.Errorf("expected replay_max_frames overridden to 500, got %v", cfg.Engine.ReplayMaxFrames)
	}
}

func TestLoadConfigOrDefaultFallsBackToDefault(t *testing.T) {
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	tmp := t.TempDir()
	if err := os.Chdir(tmp); err != nil {
		t.Fatalf("Chdir failed: %v", err)
	}
	defer os.Chdir(cwd)

	cfg, err := LoadConfigOrDefault("")
	if err != nil {
		t.Fatalf("LoadConfigOrDefault failed: %v", err)
	}
	if cfg.Scenario.Name != "default-skirmish" {
		t.Errorf("expected fallback to default scenario, got %q", cfg.Scenario.Name)
	}
}
