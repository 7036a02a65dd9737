package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cli/browser"
	"github.com/spf13/cobra"

	"github.com/synheart/synheart-breath/internal/breath"
	"github.com/synheart/synheart-breath/internal/recorder"
	"github.com/synheart/synheart-breath/internal/report"
)

var (
	reportIn     string
	reportOut    string
	reportOpen   bool
	reportInhale float64
	reportExhale float64
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render a recording as an HTML chart report",
	Long: `Writes an HTML page with the pressure delta, the normalized level and the
phase distribution of a recording.

Examples:
  breath report --in desk.ndjson
  breath report --in desk.ndjson --out desk.html --open`,
	RunE: runReport,
}

func init() {
	addStoreFlags(reportCmd)
	reportCmd.Flags().StringVar(&reportIn, "in", "", "Recording to chart (required)")
	reportCmd.Flags().StringVar(&reportOut, "out", "", "Output HTML file (default: <in>.html)")
	reportCmd.Flags().BoolVar(&reportOpen, "open", false, "Open the report in the browser")
	reportCmd.Flags().Float64Var(&reportInhale, "inhale", breath.DefaultInhaleThreshold, "Inhale threshold in Pa")
	reportCmd.Flags().Float64Var(&reportExhale, "exhale", breath.DefaultExhaleThreshold, "Exhale threshold in Pa")
	reportCmd.MarkFlagRequired("in")
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg := appCfg
	if err := applyOverrides(cmd, &cfg); err != nil {
		return err
	}

	frames, err := recorder.ReadFrames(reportIn)
	if err != nil {
		return fmt.Errorf("failed to read recording: %w", err)
	}

	th, err := analysisThresholds(cmd, cfg, reportInhale, reportExhale)
	if err != nil {
		return err
	}
	a := recorder.Analyze(frames, th)

	out := reportOut
	if out == "" {
		out = strings.TrimSuffix(reportIn, filepath.Ext(reportIn)) + ".html"
	}

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	title := filepath.Base(reportIn)
	if err := report.Write(f, title, frames, a); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	fmt.Printf("✅ Report written: %s (%d frames, %d breaths)\n", out, a.Frames, a.BreathCount)

	if reportOpen {
		abs, err := filepath.Abs(out)
		if err != nil {
			return err
		}
		if err := browser.OpenFile(abs); err != nil {
			return fmt.Errorf("failed to open browser: %w", err)
		}
	}
	return nil
}
