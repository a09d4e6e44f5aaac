package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/valpatel/tritium-sc/internal/replay"
	"github.com/valpatel/tritium-sc/internal/spectator"
	"github.com/valpatel/tritium-sc/pkg/logger"
	"github.com/valpatel/tritium-sc/pkg/simulation"

	// Import to register the tritium-sc simulation.
	_ "github.com/valpatel/tritium-sc/cmd/tritium-sc/simulation"
)

var replaySpeed float64

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Run a scenario, then step through its recording frame by frame",
	Long: `Run the scenario to completion and immediately spectate the
recording held by its replay recorder, printing each captured frame with
alliance-colored unit lines. Nothing is written to disk; the recording
only ever exists for the lifetime of this process.`,
	RunE: runReplay,
}

func init() {
	replayCmd.Flags().Float64Var(&replaySpeed, "speed", 1.0, "playback speed (0.25x-4x)")
}

// spectatorProvider is implemented by the tritium-sc simulation adapter;
// asserting against it keeps this command decoupled from that package's
// concrete type.
type spectatorProvider interface {
	Spectator() *spectator.Mode
}

func runReplay(cmd *cobra.Command, _ []string) error {
	sim, err := simulation.DefaultRegistry.Get("tritium-sc")
	if err != nil {
		return fmt.Errorf("failed to get simulation: %w", err)
	}

	if err := sim.Configure(map[string]interface{}{"scenario_path": cfgFile}); err != nil {
		return fmt.Errorf("failed to configure simulation: %w", err)
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	if err := sim.Run(ctx); err != nil {
		return fmt.Errorf("simulation run failed: %w", err)
	}

	provider, ok := sim.(spectatorProvider)
	if !ok {
		return fmt.Errorf("tritium-sc simulation does not expose a spectator")
	}

	spec := provider.Spectator()
	if spec.TotalFrames() == 0 {
		logger.Warn("no frames recorded; nothing to replay")
		return nil
	}

	spec.SetSpeed(replaySpeed)
	spec.Play()
	logger.LogSection(fmt.Sprintf("Replay: %d frames, %.1fs recorded", spec.TotalFrames(), spec.Duration()))

	const tickInterval = 100 * time.Millisecond
	lastIndex := -1
	for {
		frame := spec.Tick(tickInterval.Seconds())
		if frame != nil && spec.CurrentFrame() != lastIndex {
			lastIndex = spec.CurrentFrame()
			printFrame(*frame)
		}
		if !spec.IsPlaying() {
			break
		}
		time.Sleep(tickInterval)
	}

	logger.Success("replay finished")
	return nil
}

func printFrame(frame replay.Frame) {
	fmt.Printf("t=%6.2fs\n", frame.Timestamp)
	for _, t := range frame.Targets {
		logger.AllianceColor(t.Alliance).Printf(
			"  %-12s %-8s hp=%4.0f/%-4.0f pos=(%6.1f,%6.1f) state=%s\n",
			t.Name, t.Alliance, t.Health, t.MaxHealth, t.X, t.Y, t.FSMState)
	}
}
