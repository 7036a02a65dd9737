package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var (
	recordDuration string
	recordOut      string
	recordRealtime bool
)

var recordCmd = &cobra.Command{
	Use:   "record",
	Short: "Record breath frames to a file",
	Long: `Runs detection headless and writes every frame to an NDJSON file.

Simulated sessions are generated as fast as possible unless --realtime is
given; hardware sources always record in real time until interrupted.

Examples:
  breath record --scenario box --duration 2m --out box.ndjson
  breath record --sensor bmp280 --out desk.ndjson`,
	RunE: runRecord,
}

func init() {
	addSourceFlags(recordCmd)
	addStoreFlags(recordCmd)
	recordCmd.Flags().StringVar(&recordDuration, "duration", "5m", "Duration of a simulated recording")
	recordCmd.Flags().StringVar(&recordOut, "out", "", "Output file (required)")
	recordCmd.Flags().BoolVar(&recordRealtime, "realtime", false, "Pace a simulated recording at the sensor rate")
	recordCmd.MarkFlagRequired("out")
}

func runRecord(cmd *cobra.Command, args []string) error {
	cfg := appCfg
	if err := applyOverrides(cmd, &cfg); err != nil {
		return err
	}
	cfg.Scene = "none"
	cfg.Frames.Dir = ""
	cfg.MQTT.Broker = ""
	cfg.NATS.URL = ""

	simulated := strings.EqualFold(cfg.Sensor.Kind, "simulated")
	duration := ""
	if simulated {
		duration = recordDuration
	}

	ctx, cancel := signalContext()
	defer cancel()

	frameCount := 0
	s, err := newBreathSession(ctx, cfg, sessionOptions{
		Duration: duration,
		Fast:     simulated && !recordRealtime,
		Out:      recordOut,
		OnRecord: func() {
			frameCount++
			if frameCount%1000 == 0 {
				fmt.Printf("\rRecorded ~%d frames...", frameCount)
			}
		},
	})
	if err != nil {
		return err
	}
	if err := s.start(); err != nil {
		s.Stop()
		s.finish()
		return err
	}

	printBanner("📼 Recording Session Started", s)

	runErr := s.run()
	sum := s.finish()
	if runErr != nil {
		return fmt.Errorf("loop error: %w", runErr)
	}

	fmt.Printf("\n\n✅ Recording complete: %s (%d frames)\n\n", recordOut, s.rec.Count())
	printSummary(sum)
	return nil
}
