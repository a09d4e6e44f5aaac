package simulation

// SimulationConfig represents the configuration structure for a simulation
// loaded from simulation.yaml; tritium-sc registers itself through
// Simulation.Name/Description rather than loading one of these from disk,
// but the shape is kept so a future registered simulation can.
type SimulationConfig struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Version     string      `yaml:"version"`
	Category    string      `yaml:"category"`
	Parameters  []Parameter `yaml:"parameters"`
}

// Parameter defines a single tunable the `run --interactive` flow prompts
// for (tritium-sc's seed, tick rate and map bounds; see
// cmd/tritium-sc/cmd/run.go's tuningParameters).
type Parameter struct {
	Name        string      `yaml:"name"`
	Type        string      `yaml:"type"` // integer, float, string, duration, boolean
	Description string      `yaml:"description"`
	Default     interface{} `yaml:"default"`
	Required    bool        `yaml:"required"`
	Min         interface{} `yaml:"min,omitempty"`
	Max         interface{} `yaml:"max,omitempty"`
	Options     []string    `yaml:"options,omitempty"` // For string enums
}
