package generator

import (
	"math"
	"time"

	"github.com/synheart/synheart-breath/internal/breath"
	"github.com/synheart/synheart-breath/internal/scenario"
)

const (
	DefaultRateBPM     = 12.0
	DefaultInhalePa    = 15.0
	DefaultExhalePa    = 20.0
	DefaultExhaleRatio = 0.5

	// DriftPeriod is the period of the slow baseline wander
	DriftPeriod = 90 * time.Second
)

// Waveform returns the noiseless breath pressure at cycle position pos in
// [0, 1). A cycle is an exhale lobe followed by an inhale lobe.
func Waveform(pos float64, cfg *scenario.BreathConfig) float64 {
	exhale := orDefault(cfg.ExhalePa, DefaultExhalePa)
	inhale := orDefault(cfg.InhalePa, DefaultInhalePa)
	ratio := breath.Clamp(orDefault(cfg.ExhaleRatio, DefaultExhaleRatio), 0.1, 0.9)

	var v float64
	if pos < ratio {
		v = exhale * math.Sin(math.Pi*pos/ratio)
	} else {
		v = -inhale * math.Sin(math.Pi*(pos-ratio)/(1-ratio))
	}
	if cfg.Multiply != 0 {
		v *= cfg.Multiply
	}
	return v
}

// Drift returns the baseline wander at elapsed for amplitude amp
func Drift(elapsed time.Duration, amp float64) float64 {
	if amp == 0 {
		return 0
	}
	return amp * math.Sin(2*math.Pi*elapsed.Seconds()/DriftPeriod.Seconds())
}

func orDefault(v, def float64) float64 {
	if v == 0 {
		return def
	}
	return v
}
