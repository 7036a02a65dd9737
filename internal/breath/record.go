// Package breath implements breath detection for a pressure-based breath
// sensor: adaptive normalization of the raw pressure delta and a hysteresis
// state machine that classifies the breathing phase, counts breath cycles and
// averages their duration.
//
// A Record is a plain value. The control loop owns exactly one and threads it
// through Detect once per tick; nothing in this package blocks, allocates
// timers or keeps global state. Timestamps are monotonic milliseconds from an
// arbitrary epoch chosen by the caller.
package breath

import "math"

const (
	// HoldTimeoutMs is how long the signal must stay between the thresholds
	// before the phase can become Hold.
	HoldTimeoutMs = 3000

	// HoldStabilityPa is the band |delta| must stay inside to count as a hold.
	HoldStabilityPa = 2.0

	DefaultInhaleThreshold = -5.0
	DefaultExhaleThreshold = 5.0
)

// Thresholds are the fixed calibration thresholds driving phase detection.
// Inhale < 0 < Exhale is expected but not enforced here.
type Thresholds struct {
	Inhale float64 `json:"inhale_pa" yaml:"inhale_pa"`
	Exhale float64 `json:"exhale_pa" yaml:"exhale_pa"`
}

// DefaultThresholds returns the thresholds used when nothing is stored
func DefaultThresholds() Thresholds {
	return Thresholds{Inhale: DefaultInhaleThreshold, Exhale: DefaultExhaleThreshold}
}

// Record is the mutable breath state of one device session
type Record struct {
	phase         Phase
	lastActive    Phase
	thresholds    Thresholds
	bounds        Bounds
	normalizedRaw float64

	breathCount        uint64
	avgCycleDurationMs float64

	lastPhaseChangeAt   int64
	lastCycleBoundaryAt int64
	sessionStartAt      int64
}

// New creates a record in the Idle phase with default bounds
func New(th Thresholds, now int64) *Record {
	return &Record{
		phase:               Idle,
		thresholds:          th,
		bounds:              DefaultBounds(),
		lastPhaseChangeAt:   now,
		lastCycleBoundaryAt: now,
		sessionStartAt:      now,
	}
}

// Step is the pure detection function: it returns the record that results
// from observing delta at time now. The input record is not modified.
func Step(r Record, delta float64, now int64) Record {
	previous := r.phase

	r.normalizedRaw, r.bounds = Normalize(delta, r.bounds)

	switch {
	case delta < r.thresholds.Inhale:
		r.phase = Inhale
	case delta > r.thresholds.Exhale:
		r.phase = Exhale
	case now-r.lastPhaseChangeAt > HoldTimeoutMs && math.Abs(delta) < HoldStabilityPa:
		r.phase = Hold
	default:
		r.phase = Idle
	}

	if previous == r.phase {
		return r
	}

	r.lastPhaseChangeAt = now

	// A cycle completes when inhale follows exhale, with any Idle or Hold
	// ticks in between ignored. The duration is measured from the previous
	// phase change, so passing through Idle shortens it.
	if r.phase == Inhale && r.lastActive == Exhale {
		r.breathCount++
		cycle := float64(now - r.lastCycleBoundaryAt)
		if r.breathCount == 1 {
			r.avgCycleDurationMs = cycle
		} else {
			n := float64(r.breathCount)
			r.avgCycleDurationMs = (r.avgCycleDurationMs*(n-1) + cycle) / n
		}
	}

	if r.phase == Inhale || r.phase == Exhale {
		r.lastActive = r.phase
	}
	r.lastCycleBoundaryAt = now
	return r
}

// Detect updates the record with the pressure delta observed at now
func (r *Record) Detect(delta float64, now int64) {
	*r = Step(*r, delta, now)
}

// ResetSession clears the breath counters without touching calibration
func (r *Record) ResetSession(now int64) {
	r.breathCount = 0
	r.avgCycleDurationMs = 0
	r.sessionStartAt = now
}

// ResetCalibration restores the adaptive bounds to their defaults
func (r *Record) ResetCalibration() {
	r.bounds = DefaultBounds()
}

// SetThresholds replaces the calibration thresholds
func (r *Record) SetThresholds(th Thresholds) {
	r.thresholds = th
}

func (r *Record) Phase() Phase                { return r.phase }
func (r *Record) BreathCount() uint64         { return r.breathCount }
func (r *Record) AvgCycleDurationMs() float64 { return r.avgCycleDurationMs }
func (r *Record) NormalizedRaw() float64      { return r.normalizedRaw }
func (r *Record) MinDelta() float64           { return r.bounds.Min }
func (r *Record) MaxDelta() float64           { return r.bounds.Max }
func (r *Record) Bounds() Bounds              { return r.bounds }
func (r *Record) Thresholds() Thresholds      { return r.thresholds }
func (r *Record) SessionStartAt() int64       { return r.sessionStartAt }
func (r *Record) LastPhaseChangeAt() int64    { return r.lastPhaseChangeAt }

// NormalizedClamped returns the normalized value limited to [-1, 1]:
// -1 is the strongest inhale seen so far, +1 the strongest exhale.
func (r *Record) NormalizedClamped() float64 {
	return Clamp(r.normalizedRaw, -1, 1)
}

// PushingBounds reports whether delta lies past the overage boundary of an
// established bound, i.e. whether it is currently stretching the range.
func (r *Record) PushingBounds(delta float64) (below, above bool) {
	below = delta < r.bounds.Min*OverageFactor && r.bounds.Min < -MinBoundMagnitude
	above = delta > r.bounds.Max*OverageFactor && r.bounds.Max > MinBoundMagnitude
	return below, above
}
