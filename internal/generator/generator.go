package generator

import (
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/synheart/synheart-breath/internal/scenario"
)

// Generator produces a simulated breath pressure delta following a scenario.
// The cycle position advances continuously, so rate changes between phases
// never produce a jump in the waveform.
type Generator struct {
	engine *scenario.Engine
	rng    *rand.Rand
	runID  string
	seed   int64

	cycle  float64
	last   time.Duration
	primed bool
}

// Config holds generator configuration
type Config struct {
	Seed int64
}

// NewGenerator creates a new breath generator
func NewGenerator(engine *scenario.Engine, config Config) *Generator {
	return &Generator{
		engine: engine,
		rng:    rand.New(rand.NewSource(config.Seed)),
		runID:  uuid.New().String(),
		seed:   config.Seed,
	}
}

// Next returns the delta at the engine's current elapsed time
func (g *Generator) Next() float64 {
	return g.Sample(g.engine.GetElapsed())
}

// Sample returns the delta at elapsed. Calls must use non-decreasing
// elapsed values; the output for a given seed and elapsed sequence is
// deterministic.
func (g *Generator) Sample(elapsed time.Duration) float64 {
	cfg := g.engine.GetScenario().GetEffectiveConfig(elapsed)

	var dt float64
	if g.primed && elapsed > g.last {
		dt = (elapsed - g.last).Seconds()
	}
	g.last = elapsed
	g.primed = true

	value := Drift(elapsed, cfg.DriftPa) + cfg.Add
	if cfg.NoisePa != 0 {
		value += g.rng.NormFloat64() * cfg.NoisePa
	}

	// Holding freezes the cycle so breathing resumes where it stopped
	if cfg.Holding() {
		return value
	}

	rate := orDefault(cfg.RateBPM, DefaultRateBPM)
	g.cycle = math.Mod(g.cycle+dt*rate/60, 1)
	return value + Waveform(g.cycle, cfg)
}

// CyclePosition returns the position in the current breath cycle, in [0, 1)
func (g *Generator) CyclePosition() float64 {
	return g.cycle
}

// GetRunID returns the current run ID
func (g *Generator) GetRunID() string {
	return g.runID
}

// Seed returns the seed the generator was created with
func (g *Generator) Seed() int64 {
	return g.seed
}

// Engine returns the scenario engine driving the generator
func (g *Generator) Engine() *scenario.Engine {
	return g.engine
}
