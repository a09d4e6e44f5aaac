package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/valpatel/tritium-sc/pkg/logger"
	"github.com/valpatel/tritium-sc/pkg/simulation"
	"github.com/valpatel/tritium-sc/pkg/utils"

	// Import to register the tritium-sc simulation.
	_ "github.com/valpatel/tritium-sc/cmd/tritium-sc/simulation"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the tactical simulation",
	Long:  `Run the tactical simulation to completion (game over) or until interrupted.`,
	RunE:  runSimulation,
}

// tuningParameters describes the engine knobs run.go can source either
// from flags or, with --interactive, from survey prompts.
var tuningParameters = []simulation.Parameter{
	{Name: "seed", Type: "integer", Description: "PRNG seed (0 = wall-clock seed)", Default: 0},
	{Name: "tick_rate_hz", Type: "float", Description: "Engine tick rate (Hz)", Default: 10.0},
	{Name: "map_bounds", Type: "float", Description: "World half-extent (m)", Default: 200.0},
}

func init() {
	runCmd.Flags().Int64("seed", 0, "PRNG seed for reproducibility (0 = wall-clock seed)")
	runCmd.Flags().Float64("tick-rate-hz", 0, "override the engine tick rate")
	runCmd.Flags().Float64("map-bounds", 0, "override the world half-extent, in meters")
	runCmd.Flags().Bool("interactive", false, "prompt for engine tuning parameters instead of using flags")
}

func runSimulation(cmd *cobra.Command, _ []string) error {
	sim, err := simulation.DefaultRegistry.Get("tritium-sc")
	if err != nil {
		return fmt.Errorf("failed to get simulation: %w", err)
	}

	params := map[string]interface{}{"scenario_path": cfgFile}

	interactive, _ := cmd.Flags().GetBool("interactive")
	if interactive {
		answers, err := utils.PromptForParameters(tuningParameters)
		if err != nil {
			return fmt.Errorf("failed to read tuning parameters: %w", err)
		}
		for k, v := range answers {
			// As on the flag path, a zero seed leaves the engine wall-clock seeded.
			if k == "seed" && v == 0 {
				continue
			}
			params[k] = v
		}
	} else {
		if seed, _ := cmd.Flags().GetInt64("seed"); seed != 0 {
			params["seed"] = seed
		}
		if rate, _ := cmd.Flags().GetFloat64("tick-rate-hz"); rate > 0 {
			params["tick_rate_hz"] = rate
		}
		if bounds, _ := cmd.Flags().GetFloat64("map-bounds"); bounds > 0 {
			params["map_bounds"] = bounds
		}
	}

	if err := sim.Configure(params); err != nil {
		return fmt.Errorf("failed to configure simulation: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Warn("received interrupt signal, stopping simulation...")
		cancel()
	}()

	logger.LogSection(fmt.Sprintf("Starting %s", sim.Name()))
	if err := sim.Run(ctx); err != nil {
		return fmt.Errorf("simulation failed: %w", err)
	}

	logger.Success("simulation completed")
	return nil
}
