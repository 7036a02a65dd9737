package cli

import (
	"fmt"
	"io"
	"log"

	"github.com/spf13/cobra"

	"github.com/synheart/synheart-breath/internal/config"
	"github.com/synheart/synheart-breath/internal/tui"
)

var (
	monitorDuration string
	monitorServe    bool
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Watch live breath detection in the terminal",
	Long: `Runs the same pipeline as 'run' and shows phase, normalized level and
breath count in a terminal UI. Press q to stop.`,
	RunE: runMonitor,
}

func init() {
	d := config.Default()
	addSourceFlags(monitorCmd)
	addServerFlags(monitorCmd)
	addStoreFlags(monitorCmd)
	monitorCmd.Flags().String("scene", d.Scene, "Scene to render alongside, or none")
	monitorCmd.Flags().StringVar(&monitorDuration, "duration", "", "Duration of a simulated session (e.g., 5m)")
	monitorCmd.Flags().BoolVar(&monitorServe, "serve", false, "Also start the WebSocket, SSE and UDP servers")
}

func runMonitor(cmd *cobra.Command, args []string) error {
	cfg := appCfg
	if err := applyOverrides(cmd, &cfg); err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	s, err := newBreathSession(ctx, cfg, sessionOptions{
		Duration: monitorDuration,
		Servers:  monitorServe,
	})
	if err != nil {
		return err
	}
	frames := s.Subscribe()
	if err := s.start(); err != nil {
		s.Stop()
		s.finish()
		return err
	}

	loopErr := make(chan error, 1)
	go func() { loopErr <- s.run() }()

	title := fmt.Sprintf("synheart-breath · %s", s.src.info.Type)
	if s.src.scenario != nil {
		title += " · " + s.src.scenario.Name
	}

	restore := muteLogs()
	uiErr := tui.Run(ctx, title, frames)
	restore()

	s.Stop()
	runErr := <-loopErr
	sum := s.finish()

	printSummary(sum)
	if uiErr != nil {
		return uiErr
	}
	if runErr != nil {
		return fmt.Errorf("loop error: %w", runErr)
	}
	return nil
}

// muteLogs keeps log output off the terminal while the UI owns it. Logs
// still reach --log-file.
func muteLogs() func() {
	prev := log.Writer()
	if logFile != nil {
		log.SetOutput(logFile)
	} else {
		log.SetOutput(io.Discard)
	}
	return func() { log.SetOutput(prev) }
}
