package cli

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/synheart/synheart-breath/internal/config"
	"github.com/synheart/synheart-breath/internal/flux"
	"github.com/synheart/synheart-breath/internal/generator"
	"github.com/synheart/synheart-breath/internal/models"
	"github.com/synheart/synheart-breath/internal/scenario"
	"github.com/synheart/synheart-breath/internal/sensor"
)

// openedSource is a pressure source plus what frames say about it
type openedSource struct {
	source   sensor.Source
	info     models.Source
	session  models.Session
	scenario *scenario.Scenario

	// clock is set for simulated sources opened in fast mode
	clock  *scenario.ManualClock
	filter *flux.Filter
}

func (s *openedSource) Close(ctx context.Context) {
	if err := s.source.Close(); err != nil {
		log.Printf("sensor: close error: %v", err)
	}
	if s.filter != nil {
		s.filter.Close(ctx)
	}
}

// advance moves the simulated clock; it is a no-op for real sources
func (s *openedSource) advance(d time.Duration) {
	if s.clock != nil {
		s.clock.Advance(d)
	}
}

// openSource opens the configured sensor. duration overrides the scenario
// length of a simulated source. fast replaces the wall clock of a simulated
// source with a manual one and is rejected for hardware.
func openSource(ctx context.Context, cfg config.Config, duration string, fast bool) (*openedSource, error) {
	kind := strings.ToLower(cfg.Sensor.Kind)
	if fast && kind != "simulated" {
		return nil, fmt.Errorf("--fast needs the simulated sensor, not %s", kind)
	}

	var opened *openedSource
	switch kind {
	case "simulated":
		registry, err := loadRegistry()
		if err != nil {
			return nil, err
		}
		scen, err := registry.Get(cfg.Scenario)
		if err != nil {
			return nil, fmt.Errorf("failed to load scenario '%s': %w", cfg.Scenario, err)
		}
		if duration != "" {
			scen.Duration = duration
		}

		opened = &openedSource{scenario: scen}
		var engine *scenario.Engine
		if fast {
			opened.clock = scenario.NewManualClock(time.Now())
			engine = scenario.NewEngineWithClock(scen, opened.clock.Now)
		} else {
			engine = scenario.NewEngine(scen)
		}

		gen := generator.NewGenerator(engine, generator.Config{Seed: cfg.Seed})
		opened.source = sensor.NewSimulated(gen)
		opened.info = models.Source{Type: "simulated", ID: "sim-" + scen.Name}
		opened.session = models.Session{RunID: gen.GetRunID(), Scenario: scen.Name, Seed: cfg.Seed}

	case "bmp280":
		dev, err := sensor.OpenBMP280(cfg.Sensor.I2CBus)
		if err != nil {
			return nil, err
		}
		src, err := calibrateBaseline(ctx, dev, cfg.Sensor.BaselineSamples)
		if err != nil {
			return nil, err
		}
		opened = &openedSource{
			source: src,
			info:   models.Source{Type: "bmp280", ID: fmt.Sprintf("i2c-0x%02x", dev.Address())},
		}

	case "serial":
		port, err := sensor.OpenSerial(cfg.Sensor.SerialPort, cfg.Sensor.Baud)
		if err != nil {
			return nil, err
		}
		src, err := calibrateBaseline(ctx, port, cfg.Sensor.BaselineSamples)
		if err != nil {
			return nil, err
		}
		opened = &openedSource{
			source: src,
			info:   models.Source{Type: "serial", ID: port.Name()},
		}

	default:
		return nil, fmt.Errorf("unknown sensor kind %q", cfg.Sensor.Kind)
	}

	if cfg.Sensor.Filter != "" {
		f, err := flux.Load(ctx, cfg.Sensor.Filter)
		if err != nil {
			opened.source.Close()
			return nil, fmt.Errorf("failed to load filter: %w", err)
		}
		opened.filter = f
		opened.source = sensor.NewFiltered(opened.source, f)
		log.Printf("filter: %s loaded from %s", f.Name(), cfg.Sensor.Filter)
	}

	return opened, nil
}

// calibrateBaseline measures the resting pressure before the session starts
func calibrateBaseline(ctx context.Context, r sensor.PressureReader, samples int) (*sensor.BaselineSource, error) {
	src := sensor.NewBaselineSource(r)
	fmt.Printf("Measuring baseline over %d samples, breathe normally...\n", samples)
	b, err := src.Calibrate(ctx, samples, sensor.DefaultBaselineInterval)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("failed to measure baseline: %w", err)
	}
	fmt.Printf("Baseline:     %.1f Pa\n", b)
	return src, nil
}
