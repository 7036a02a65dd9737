package cli

import (
	"fmt"
	"sort"

	"github.com/spf13/cobra"
)

var listScenariosCmd = &cobra.Command{
	Use:   "list-scenarios",
	Short: "List available scenarios",
	Long: `Lists the built-in breathing scenarios and any found in ./scenarios, with
their descriptions.`,
	RunE: runListScenarios,
}

func runListScenarios(cmd *cobra.Command, args []string) error {
	registry, err := loadRegistry()
	if err != nil {
		return err
	}

	names := registry.List()
	if len(names) == 0 {
		fmt.Println("No scenarios found")
		return nil
	}
	sort.Strings(names)

	fmt.Println("Available scenarios:")
	fmt.Println()
	for _, name := range names {
		scen, err := registry.Get(name)
		if err != nil {
			continue
		}
		rate := "-"
		if scen.Breath != nil && scen.Breath.RateBPM > 0 {
			rate = fmt.Sprintf("%g bpm", scen.Breath.RateBPM)
		}
		fmt.Printf("  %-12s %-10s %-8s %s\n", name, scen.Duration, rate, scen.Description)
	}
	fmt.Println()

	return nil
}
