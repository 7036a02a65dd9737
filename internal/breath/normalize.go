package breath

const (
	// OverageFactor is how far past a bound a sample must land before the
	// bound expands. Small overshoot is treated as noise.
	OverageFactor = 1.25

	// MinBoundMagnitude is the magnitude below which a bound is considered
	// unestablished and the mapping yields 0.
	MinBoundMagnitude = 0.1

	// DefaultMinDelta and DefaultMaxDelta seed the adaptive bounds (Pa).
	DefaultMinDelta = -10.0
	DefaultMaxDelta = 10.0
)

// Bounds is the adaptive [Min, Max] pressure range used for normalization.
// Min <= 0 <= Max; magnitudes only grow until reset.
type Bounds struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// DefaultBounds returns the initial bound estimate
func DefaultBounds() Bounds {
	return Bounds{Min: DefaultMinDelta, Max: DefaultMaxDelta}
}

// Normalize maps a raw pressure delta against the adaptive bounds and returns
// the unclamped normalized value together with the (possibly expanded) bounds.
//
// A bound expands only when the sample passes it by OverageFactor, and then by
// exactly the ratio that puts the sample on the new overage boundary. There is
// no decay: a single spike widens the range for the rest of the session.
func Normalize(current float64, b Bounds) (float64, Bounds) {
	if current < b.Min*OverageFactor && b.Min < -MinBoundMagnitude {
		ratio := current / (b.Min * OverageFactor)
		b.Min *= ratio
	}
	if current > b.Max*OverageFactor && b.Max > MinBoundMagnitude {
		ratio := current / (b.Max * OverageFactor)
		b.Max *= ratio
	}

	switch {
	case current < 0 && b.Min < -MinBoundMagnitude:
		return current / -b.Min, b
	case current > 0 && b.Max > MinBoundMagnitude:
		return current / b.Max, b
	default:
		return 0, b
	}
}

// Clamp limits v to [lo, hi]
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
