package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/valpatel/tritium-sc/pkg/logger"
)

var (
	cfgFile  string
	logLevel string
	noColor  bool
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "tritium-sc",
	Short: "TRITIUM-SC tactical simulation CLI",
	Long: `TRITIUM-SC is a real-time, tick-driven tactical combat simulator:
turrets, rovers, drones, and squads of hostiles fight over a terrain-aware
battlespace at 10Hz, with replay recording and VCR-style spectator
playback of every run.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "scenario config file (default: scenario.yaml, tritium-sc.yaml, scenarios/default.yaml, or the built-in default)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(replayCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func initConfig() {
	logger.SetLevel(logger.ParseLevel(logLevel))
	logger.SetNoColor(noColor)

	viper.AutomaticEnv()
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		_ = viper.ReadInConfig()
	}
}
