package recorder

import (
	"github.com/synheart/synheart-breath/internal/breath"
	"github.com/synheart/synheart-breath/internal/models"
)

// Analysis is the result of re-running detection over a recording
type Analysis struct {
	Frames       int
	DurationMs   int64
	BreathCount  uint64
	AvgCycleMs   float64
	PhaseChanges int
	// Mismatches counts frames whose recorded phase differs from the
	// re-detected one, e.g. after changing thresholds.
	Mismatches int
	PhaseTicks map[breath.Phase]int
	Thresholds breath.Thresholds
	Bounds     breath.Bounds
}

// BreathsPerMinute derives the mean breathing rate over the recording
func (a *Analysis) BreathsPerMinute() float64 {
	if a.DurationMs <= 0 {
		return 0
	}
	return float64(a.BreathCount) * 60000 / float64(a.DurationMs)
}

// Analyze feeds the recorded deltas through a fresh detector using the
// recorded tick times. The result depends only on the frames and thresholds.
func Analyze(frames []models.Frame, th breath.Thresholds) Analysis {
	a := Analysis{
		Frames:     len(frames),
		PhaseTicks: make(map[breath.Phase]int),
		Thresholds: th,
		Bounds:     breath.DefaultBounds(),
	}
	if len(frames) == 0 {
		return a
	}

	start := frames[0].AtMs
	r := breath.New(th, start)
	previous := r.Phase()

	for _, f := range frames {
		r.Detect(f.Breath.DeltaPa, f.AtMs)
		if r.Phase() != previous {
			a.PhaseChanges++
			previous = r.Phase()
		}
		if r.Phase() != f.Breath.Phase {
			a.Mismatches++
		}
		a.PhaseTicks[r.Phase()]++
	}

	a.DurationMs = frames[len(frames)-1].AtMs - start
	a.BreathCount = r.BreathCount()
	a.AvgCycleMs = r.AvgCycleDurationMs()
	a.Bounds = r.Bounds()
	return a
}
