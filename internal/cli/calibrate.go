package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/synheart/synheart-breath/internal/breath"
	"github.com/synheart/synheart-breath/internal/calibration"
	"github.com/synheart/synheart-breath/internal/scene"
	"github.com/synheart/synheart-breath/internal/sensor"
)

var (
	calibrateInhale  float64
	calibrateExhale  float64
	calibrateSamples int
)

var calibrateCmd = &cobra.Command{
	Use:   "calibrate",
	Short: "Show or change the detection thresholds",
	Long: `Manages the inhale and exhale thresholds kept in the calibration store.
The detector reads them once when a session starts.`,
}

var calibrateShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored thresholds",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, store calibration.Store) error {
			th, err := store.Load(ctx)
			if err != nil {
				return fmt.Errorf("failed to load calibration: %w", err)
			}
			printThresholds(th)
			return nil
		})
	},
}

var calibrateSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store new thresholds",
	Long: `Stores new thresholds. Inhale must be negative and exhale positive.

Examples:
  breath calibrate set --inhale -4 --exhale 6
  breath calibrate set --exhale 3`,
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		if !flags.Changed("inhale") && !flags.Changed("exhale") {
			return fmt.Errorf("set --inhale, --exhale or both")
		}
		return withStore(cmd, func(ctx context.Context, store calibration.Store) error {
			th, err := store.Load(ctx)
			if err != nil {
				return fmt.Errorf("failed to load calibration: %w", err)
			}
			if flags.Changed("inhale") {
				th.Inhale = calibrateInhale
			}
			if flags.Changed("exhale") {
				th.Exhale = calibrateExhale
			}

			if err := store.Save(ctx, th); err != nil {
				var verr *calibration.ValidationError
				if errors.As(err, &verr) {
					return fmt.Errorf("invalid thresholds: %w", err)
				}
				return fmt.Errorf("failed to save calibration: %w", err)
			}
			fmt.Println("✅ Calibration saved")
			printThresholds(th)
			return nil
		})
	},
}

var calibrateResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Restore the default thresholds",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withStore(cmd, func(ctx context.Context, store calibration.Store) error {
			if err := store.Reset(ctx); err != nil {
				return fmt.Errorf("failed to reset calibration: %w", err)
			}
			fmt.Println("✅ Calibration reset")
			printThresholds(breath.DefaultThresholds())
			return nil
		})
	},
}

var calibrateBaselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Measure the resting pressure of a hardware sensor",
	Long: `Averages readings from the configured hardware sensor while nobody breathes
into it and prints the result. Sessions measure their own baseline at start;
use this to check the sensor and its noise.`,
	RunE: runCalibrateBaseline,
}

func init() {
	calibrateCmd.PersistentFlags().String("store", "", "Calibration store: memory|file|sqlite")
	calibrateCmd.PersistentFlags().String("db", "", "Calibration store path")

	calibrateSetCmd.Flags().Float64Var(&calibrateInhale, "inhale", breath.DefaultInhaleThreshold, "Inhale threshold in Pa")
	calibrateSetCmd.Flags().Float64Var(&calibrateExhale, "exhale", breath.DefaultExhaleThreshold, "Exhale threshold in Pa")

	calibrateBaselineCmd.Flags().String("sensor", "bmp280", "Pressure source: bmp280|serial")
	calibrateBaselineCmd.Flags().String("i2c-bus", "", "I2C bus of the BMP280 (empty for the first bus)")
	calibrateBaselineCmd.Flags().String("serial-port", "", "Serial device streaming pressure lines")
	calibrateBaselineCmd.Flags().IntVar(&calibrateSamples, "samples", sensor.DefaultBaselineSamples, "Samples to average")

	calibrateCmd.AddCommand(calibrateShowCmd)
	calibrateCmd.AddCommand(calibrateSetCmd)
	calibrateCmd.AddCommand(calibrateResetCmd)
	calibrateCmd.AddCommand(calibrateBaselineCmd)
}

func withStore(cmd *cobra.Command, fn func(ctx context.Context, store calibration.Store) error) error {
	cfg := appCfg
	if err := applyOverrides(cmd, &cfg); err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	fmt.Printf("Store:        %s %s\n", cfg.Calibration.Store, cfg.Calibration.Path)
	return fn(ctx, store)
}

func printThresholds(th breath.Thresholds) {
	fmt.Printf("Inhale:       %.2f Pa\n", th.Inhale)
	fmt.Printf("Exhale:       %.2f Pa\n", th.Exhale)
}

func runCalibrateBaseline(cmd *cobra.Command, args []string) error {
	cfg := appCfg
	if !cmd.Flags().Changed("sensor") && strings.EqualFold(cfg.Sensor.Kind, "simulated") {
		cfg.Sensor.Kind = "bmp280"
	}
	if err := applyOverrides(cmd, &cfg); err != nil {
		return err
	}
	if calibrateSamples <= 0 {
		return sensor.ErrNoSamples
	}

	var reader sensor.PressureReader
	switch strings.ToLower(cfg.Sensor.Kind) {
	case "bmp280":
		dev, err := sensor.OpenBMP280(cfg.Sensor.I2CBus)
		if err != nil {
			return err
		}
		reader = dev
	case "serial":
		port, err := sensor.OpenSerial(cfg.Sensor.SerialPort, cfg.Sensor.Baud)
		if err != nil {
			return err
		}
		reader = port
	default:
		return fmt.Errorf("baseline needs a hardware sensor, not %s", cfg.Sensor.Kind)
	}
	defer reader.Close()

	ctx, cancel := signalContext()
	defer cancel()

	fmt.Printf("Measuring %d samples, keep the sensor still...\n", calibrateSamples)
	pressures := make([]float64, 0, calibrateSamples)
	var temp float64
	ticker := time.NewTicker(sensor.DefaultBaselineInterval)
	defer ticker.Stop()
	for len(pressures) < calibrateSamples {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p, t, err := reader.Sense()
			if err != nil {
				return fmt.Errorf("failed to read sensor: %w", err)
			}
			pressures = append(pressures, p)
			temp = t
		}
	}

	mean, lo, hi := spread(pressures)
	fmt.Printf("\nBaseline:     %.1f Pa (%.2f inHg)\n", mean, scene.InHg(mean))
	fmt.Printf("Noise:        %.1f .. %+.1f Pa\n", lo-mean, hi-mean)
	fmt.Printf("Temperature:  %.1f °C\n", temp)
	if hi-mean > breath.HoldStabilityPa || mean-lo > breath.HoldStabilityPa {
		fmt.Println("⚠️  Noise exceeds the hold band; holds may be missed")
	}
	return nil
}

func spread(xs []float64) (mean, lo, hi float64) {
	if len(xs) == 0 {
		return 0, 0, 0
	}
	lo, hi = xs[0], xs[0]
	for _, x := range xs {
		mean += x
		lo = min(lo, x)
		hi = max(hi, x)
	}
	return mean / float64(len(xs)), lo, hi
}
