package cli

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/synheart/synheart-breath/internal/breath"
	"github.com/synheart/synheart-breath/internal/calibration"
	"github.com/synheart/synheart-breath/internal/config"
	"github.com/synheart/synheart-breath/internal/models"
	"github.com/synheart/synheart-breath/internal/scenario"
)

func getScenarioDir() string {
	// Try current directory first
	if _, err := os.Stat("scenarios"); err == nil {
		return "scenarios"
	}

	// Try relative to executable
	exe, err := os.Executable()
	if err == nil {
		dir := filepath.Join(filepath.Dir(exe), "scenarios")
		if _, err := os.Stat(dir); err == nil {
			return dir
		}
	}

	return "scenarios"
}

// loadRegistry returns the built-in scenarios plus any found in the
// scenarios directory, which may shadow built-ins by name.
func loadRegistry() (*scenario.Registry, error) {
	registry := scenario.NewRegistry()
	if err := registry.LoadBuiltin(); err != nil {
		return nil, fmt.Errorf("failed to load scenarios: %w", err)
	}
	dir := getScenarioDir()
	if _, err := os.Stat(dir); err == nil {
		if err := registry.LoadFromDir(dir); err != nil {
			return nil, fmt.Errorf("failed to load scenarios: %w", err)
		}
	}
	return registry, nil
}

func parseTickRate(rate string) (time.Duration, error) {
	var hz float64
	_, err := fmt.Sscanf(rate, "%fhz", &hz)
	if err != nil {
		return 0, err
	}
	if hz <= 0 {
		return 0, fmt.Errorf("rate must be positive")
	}
	return time.Duration(float64(time.Second) / hz), nil
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigChan:
			log.Println("Received interrupt signal, shutting down gracefully...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	return ctx, cancel
}

func addSourceFlags(cmd *cobra.Command) {
	d := config.Default()
	cmd.Flags().String("sensor", d.Sensor.Kind, "Pressure source: simulated|bmp280|serial")
	cmd.Flags().String("i2c-bus", "", "I2C bus of the BMP280 (empty for the first bus)")
	cmd.Flags().String("serial-port", "", "Serial device streaming pressure lines")
	cmd.Flags().String("filter", "", "Wasm sample filter applied to every delta")
	cmd.Flags().String("scenario", d.Scenario, "Scenario driving the simulated sensor")
	cmd.Flags().Int64("seed", d.Seed, "Random seed for the simulated sensor")
	cmd.Flags().String("rate", d.Rate, "Sensor sampling rate")
}

func addServerFlags(cmd *cobra.Command) {
	d := config.Default()
	cmd.Flags().String("host", d.Server.Host, "Host to bind to")
	cmd.Flags().Int("port", d.Server.Port, "WebSocket port (SSE uses port+1, UDP port+2)")
	cmd.Flags().String("format", d.Server.Format, "Frame encoding: json|protobuf")
}

func addStoreFlags(cmd *cobra.Command) {
	cmd.Flags().String("store", "", "Calibration store: memory|file|sqlite")
	cmd.Flags().String("db", "", "Calibration store path")
}

// applyOverrides copies the flags the user set onto cfg
func applyOverrides(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	strs := map[string]*string{
		"sensor":      &cfg.Sensor.Kind,
		"i2c-bus":     &cfg.Sensor.I2CBus,
		"serial-port": &cfg.Sensor.SerialPort,
		"filter":      &cfg.Sensor.Filter,
		"scenario":    &cfg.Scenario,
		"rate":        &cfg.Rate,
		"scene":       &cfg.Scene,
		"host":        &cfg.Server.Host,
		"format":      &cfg.Server.Format,
		"mqtt":        &cfg.MQTT.Broker,
		"nats":        &cfg.NATS.URL,
		"frames-dir":  &cfg.Frames.Dir,
		"store":       &cfg.Calibration.Store,
		"db":          &cfg.Calibration.Path,
	}
	for name, dst := range strs {
		if !flags.Changed(name) {
			continue
		}
		v, err := flags.GetString(name)
		if err != nil {
			return err
		}
		*dst = v
	}

	if flags.Changed("port") {
		port, err := flags.GetInt("port")
		if err != nil {
			return err
		}
		cfg.Server.Port = port
	}
	if flags.Changed("seed") {
		seed, err := flags.GetInt64("seed")
		if err != nil {
			return err
		}
		cfg.Seed = seed
	}
	return cfg.Validate()
}

func openStore(cfg config.Config) (calibration.Store, error) {
	store, err := calibration.Open(calibration.Kind(cfg.Calibration.Store), cfg.Calibration.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open calibration store: %w", err)
	}
	return store, nil
}

// loadThresholds reads the calibrated thresholds, falling back to the
// defaults when the store cannot be read
func loadThresholds(ctx context.Context, store calibration.Store) breath.Thresholds {
	th, err := store.Load(ctx)
	if err != nil {
		log.Printf("calibration: %v (using defaults)", err)
		return breath.DefaultThresholds()
	}
	return th
}

// sessionStore is implemented by stores that keep a session history
type sessionStore interface {
	SaveSession(ctx context.Context, sum models.SessionSummary) error
	ListSessions(ctx context.Context, limit int) ([]models.SessionSummary, error)
}
