package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/synheart/synheart-breath/internal/breath"
	"github.com/synheart/synheart-breath/internal/config"
	"github.com/synheart/synheart-breath/internal/recorder"
)

var (
	analyzeIn     string
	analyzeInhale float64
	analyzeExhale float64
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Re-run detection over a recording",
	Long: `Feeds the recorded pressure deltas through a fresh detector and prints the
breath statistics. Thresholds come from the calibration store unless
--inhale or --exhale are given, which makes it easy to try new thresholds
against an old recording.

Examples:
  breath analyze --in desk.ndjson
  breath analyze --in desk.ndjson --inhale -3 --exhale 4`,
	RunE: runAnalyze,
}

func init() {
	addStoreFlags(analyzeCmd)
	analyzeCmd.Flags().StringVar(&analyzeIn, "in", "", "Recording to analyze (required)")
	analyzeCmd.Flags().Float64Var(&analyzeInhale, "inhale", breath.DefaultInhaleThreshold, "Inhale threshold in Pa")
	analyzeCmd.Flags().Float64Var(&analyzeExhale, "exhale", breath.DefaultExhaleThreshold, "Exhale threshold in Pa")
	analyzeCmd.MarkFlagRequired("in")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg := appCfg
	if err := applyOverrides(cmd, &cfg); err != nil {
		return err
	}

	frames, err := recorder.ReadFrames(analyzeIn)
	if err != nil {
		return fmt.Errorf("failed to read recording: %w", err)
	}

	th, err := analysisThresholds(cmd, cfg, analyzeInhale, analyzeExhale)
	if err != nil {
		return err
	}

	a := recorder.Analyze(frames, th)
	printAnalysis(analyzeIn, a)
	return nil
}

// analysisThresholds returns the stored thresholds with any flag overrides
func analysisThresholds(cmd *cobra.Command, cfg config.Config, inhale, exhale float64) (breath.Thresholds, error) {
	flags := cmd.Flags()
	if flags.Changed("inhale") && flags.Changed("exhale") {
		return breath.Thresholds{Inhale: inhale, Exhale: exhale}, nil
	}

	store, err := openStore(cfg)
	if err != nil {
		return breath.Thresholds{}, err
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	th := loadThresholds(ctx, store)
	if flags.Changed("inhale") {
		th.Inhale = inhale
	}
	if flags.Changed("exhale") {
		th.Exhale = exhale
	}
	return th, nil
}

func printAnalysis(name string, a recorder.Analysis) {
	fmt.Printf("📊 Analysis of %s\n\n", name)
	fmt.Printf("Frames:       %d\n", a.Frames)
	fmt.Printf("Duration:     %s\n", (time.Duration(a.DurationMs) * time.Millisecond).Round(time.Millisecond))
	fmt.Printf("Thresholds:   inhale %.1f Pa / exhale %.1f Pa\n", a.Thresholds.Inhale, a.Thresholds.Exhale)
	fmt.Printf("Breaths:      %d\n", a.BreathCount)
	fmt.Printf("Avg cycle:    %.0f ms\n", a.AvgCycleMs)
	fmt.Printf("Rate:         %.1f breaths/min\n", a.BreathsPerMinute())
	fmt.Printf("Changes:      %d phase changes\n", a.PhaseChanges)
	fmt.Printf("Bounds:       %.1f .. %.1f Pa\n", a.Bounds.Min, a.Bounds.Max)
	if a.Mismatches > 0 {
		fmt.Printf("Mismatches:   %d frames differ from the recorded phase\n", a.Mismatches)
	}

	if a.Frames == 0 {
		return
	}
	fmt.Println("\nPhase distribution:")
	for _, p := range []breath.Phase{breath.Idle, breath.Inhale, breath.Exhale, breath.Hold} {
		share := float64(a.PhaseTicks[p]) / float64(a.Frames)
		fmt.Printf("  %-8s %s %5.1f%%\n", p, renderBar(share, 30), share*100)
	}
	fmt.Println()
}
