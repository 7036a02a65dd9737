package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/synheart/synheart-breath/internal/scenario"
)

var describeCmd = &cobra.Command{
	Use:   "describe <scenario>",
	Short: "Describe a scenario in detail",
	Long:  `Shows the breathing pattern of a scenario and how each of its phases changes it.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDescribe,
}

func runDescribe(cmd *cobra.Command, args []string) error {
	registry, err := loadRegistry()
	if err != nil {
		return err
	}

	scen, err := registry.Get(args[0])
	if err != nil {
		return fmt.Errorf("scenario not found: %w", err)
	}

	fmt.Printf("Scenario: %s\n", scen.Name)
	fmt.Printf("Description: %s\n", scen.Description)
	fmt.Printf("Duration: %s\n", scen.Duration)
	if scen.DefaultRate != "" {
		fmt.Printf("Default Rate: %s\n", scen.DefaultRate)
	}

	if scen.Breath != nil {
		fmt.Println("\nBreathing:")
		printBreathConfig("  ", scen.Breath)
	}

	if len(scen.Phases) > 0 {
		fmt.Println("\nPhases:")
		for i, phase := range scen.Phases {
			fmt.Printf("  %d. %s (duration: %s)\n", i+1, phase.Name, phase.Duration)
			if phase.Overrides != nil {
				fmt.Println("     Overrides:")
				printBreathConfig("       ", phase.Overrides)
			}
		}
	}

	fmt.Println()
	return nil
}

func printBreathConfig(indent string, c *scenario.BreathConfig) {
	field := func(name string, v float64, unit string) {
		if v != 0 {
			fmt.Printf("%s%-13s %g%s\n", indent, name+":", v, unit)
		}
	}
	field("Rate", c.RateBPM, " bpm")
	field("Inhale", c.InhalePa, " Pa")
	field("Exhale", c.ExhalePa, " Pa")
	field("Exhale ratio", c.ExhaleRatio, "")
	field("Noise", c.NoisePa, " Pa")
	field("Drift", c.DriftPa, " Pa")
	field("Add", c.Add, " Pa")
	field("Multiply", c.Multiply, "x")
	if c.Hold != nil {
		fmt.Printf("%s%-13s %v\n", indent, "Hold:", *c.Hold)
	}
}
