package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	sessionsLimit int
	sessionsJSON  bool
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List stored session summaries",
	Long:  `Lists the most recent sessions kept in the sqlite calibration store.`,
	RunE:  runSessions,
}

func init() {
	addStoreFlags(sessionsCmd)
	sessionsCmd.Flags().IntVar(&sessionsLimit, "limit", 20, "Maximum sessions to list")
	sessionsCmd.Flags().BoolVar(&sessionsJSON, "json", false, "Print the summaries as JSON")
}

func runSessions(cmd *cobra.Command, args []string) error {
	cfg := appCfg
	if err := applyOverrides(cmd, &cfg); err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	hist, ok := store.(sessionStore)
	if !ok {
		return fmt.Errorf("the %s store keeps no session history (use sqlite)", cfg.Calibration.Store)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	sessions, err := hist.ListSessions(ctx, sessionsLimit)
	if err != nil {
		return fmt.Errorf("failed to list sessions: %w", err)
	}

	if sessionsJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(sessions)
	}

	if len(sessions) == 0 {
		fmt.Println("No sessions recorded")
		return nil
	}

	fmt.Printf("  %-20s %-10s %-12s %10s %8s %10s\n", "STARTED", "SOURCE", "SCENARIO", "DURATION", "BREATHS", "RATE")
	for _, s := range sessions {
		started := s.StartedAtUTC
		if t, err := time.Parse(time.RFC3339, s.StartedAtUTC); err == nil {
			started = t.Local().Format("2006-01-02 15:04:05")
		}
		duration := (time.Duration(s.DurationMs) * time.Millisecond).Round(time.Second)
		fmt.Printf("  %-20s %-10s %-12s %10s %8d %6.1f/min\n",
			started, s.Source, s.Scenario, duration, s.BreathCount, s.BreathsPerMinute())
	}
	fmt.Println()
	return nil
}
