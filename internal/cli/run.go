package cli

import (
	"fmt"
	"log"

	"github.com/cli/browser"
	"github.com/spf13/cobra"

	"github.com/synheart/synheart-breath/internal/config"
	"github.com/synheart/synheart-breath/internal/scene"
)

var (
	runDuration string
	runOut      string
	runFast     bool
	runOpen     bool
	runNoServe  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Detect breath phases and stream them",
	Long: `Reads the pressure sensor at the configured rate, detects breath phases and
streams a frame per tick over WebSocket, SSE and UDP (and MQTT or NATS when
configured). The active scene is rendered alongside and can be written out
as PNG frames.

Examples:
  breath run
  breath run --sensor bmp280 --scene balloon
  breath run --scenario box --fast --out box.ndjson --no-serve
  breath run --frames-dir frames --scene diagnostic --open`,
	RunE: runRun,
}

func init() {
	d := config.Default()
	addSourceFlags(runCmd)
	addServerFlags(runCmd)
	addStoreFlags(runCmd)
	runCmd.Flags().String("scene", d.Scene, fmt.Sprintf("Scene to render: %v or none", scene.Names()))
	runCmd.Flags().String("frames-dir", "", "Write rendered scene frames as PNG files here")
	runCmd.Flags().String("mqtt", "", "MQTT broker URL to publish frames to")
	runCmd.Flags().String("nats", "", "NATS server URL to publish frames to")
	runCmd.Flags().StringVar(&runDuration, "duration", "", "Duration of a simulated session (e.g., 5m)")
	runCmd.Flags().StringVar(&runOut, "out", "", "Record frames to an NDJSON file")
	runCmd.Flags().BoolVar(&runFast, "fast", false, "Simulate as fast as possible (simulated sensor only)")
	runCmd.Flags().BoolVar(&runOpen, "open", false, "Open the browser monitor page")
	runCmd.Flags().BoolVar(&runNoServe, "no-serve", false, "Do not start the WebSocket, SSE and UDP servers")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg := appCfg
	if err := applyOverrides(cmd, &cfg); err != nil {
		return err
	}
	if runFast && runDuration == "" {
		runDuration = "5m"
	}

	ctx, cancel := signalContext()
	defer cancel()

	s, err := newBreathSession(ctx, cfg, sessionOptions{
		Duration: runDuration,
		Fast:     runFast,
		Servers:  !runNoServe && !runFast,
		Out:      runOut,
	})
	if err != nil {
		return err
	}
	if err := s.start(); err != nil {
		s.Stop()
		s.finish()
		return err
	}

	printBanner("🌬️  Synheart Breath Started", s)

	if runOpen && s.ws != nil {
		if err := browser.OpenURL(s.ws.GetPageURL()); err != nil {
			log.Printf("failed to open browser: %v", err)
		}
	}

	runErr := s.run()
	sum := s.finish()

	fmt.Println()
	printSummary(sum)
	if s.pngs != nil {
		fmt.Printf("  Frames:       %d written to %s\n", s.pngs.Written(), cfg.Frames.Dir)
	}
	if s.rec != nil {
		fmt.Printf("  Recorded:     %d frames to %s\n", s.rec.Count(), runOut)
	}
	if dropped := s.dispatcher.GetDroppedCount(); dropped > 0 {
		fmt.Printf("  Dropped:      %d frame deliveries\n", dropped)
	}

	if runErr != nil {
		return fmt.Errorf("loop error: %w", runErr)
	}
	fmt.Println("\nShutdown complete")
	return nil
}
