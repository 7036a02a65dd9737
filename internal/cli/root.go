package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "breath",
	Short: "Synheart Breath - breath phase detection from a pressure sensor",
	Long: `Synheart Breath reads a barometric pressure sensor (or a simulated one),
detects inhale, exhale and hold phases, counts breaths and streams the
result to local clients and visual scenes.

Settings come from a YAML config file, a .env file and BREATH_* environment
variables; command flags override all of them.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogging(); err != nil {
			return err
		}
		return loadGlobalConfig()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		closeLogging()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		closeLogging()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&globalOpts.ConfigPath, "config", "", "Config file (default: user config dir)")
	rootCmd.PersistentFlags().StringVar(&globalOpts.LogFile, "log-file", "", "Also append logs to this file")
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.Quiet, "quiet", "q", false, "Do not log to stderr")
	rootCmd.PersistentFlags().BoolVarP(&globalOpts.Verbose, "verbose", "v", false, "Log with timestamps and source lines")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(monitorCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(calibrateCmd)
	rootCmd.AddCommand(sessionsCmd)
	rootCmd.AddCommand(listScenariosCmd)
	rootCmd.AddCommand(describeCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(versionCmd)
}
