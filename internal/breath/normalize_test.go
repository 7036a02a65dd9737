package breath

import (
	"math"
	"math/rand"
	"testing"
)

func approx(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestNormalize_Mapping(t *testing.T) {
	tests := []struct {
		name    string
		current float64
		bounds  Bounds
		want    float64
	}{
		{"zero", 0, DefaultBounds(), 0},
		{"half inhale", -5, DefaultBounds(), -0.5},
		{"half exhale", 5, DefaultBounds(), 0.5},
		{"full exhale", 10, DefaultBounds(), 1},
		{"past bound without expansion", 12, DefaultBounds(), 1.2},
		{"unestablished min", -3, Bounds{Min: -0.05, Max: 10}, 0},
		{"unestablished max", 3, Bounds{Min: -10, Max: 0.1}, 0},
	}

	for _, tt := range tests {
		got, _ := Normalize(tt.current, tt.bounds)
		if !approx(got, tt.want) {
			t.Errorf("%s: Normalize(%v) = %v, want %v", tt.name, tt.current, got, tt.want)
		}
	}
}

func TestNormalize_OverageExpansion(t *testing.T) {
	// -15 is past -10*1.25 = -12.5, ratio 15/12.5 = 1.2, so min becomes -12
	got, b := Normalize(-15, DefaultBounds())
	if !approx(b.Min, -12) {
		t.Errorf("min bound = %v, want -12", b.Min)
	}
	if b.Max != DefaultMaxDelta {
		t.Errorf("max bound changed to %v", b.Max)
	}
	if !approx(got, -1.25) {
		t.Errorf("normalized = %v, want -1.25 (unclamped)", got)
	}

	_, b = Normalize(25, DefaultBounds())
	if !approx(b.Max, 20) {
		t.Errorf("max bound = %v, want 20", b.Max)
	}
}

func TestNormalize_NoExpansionInsideOverage(t *testing.T) {
	_, b := Normalize(-12.4, DefaultBounds())
	if b != DefaultBounds() {
		t.Errorf("bounds = %+v, want unchanged", b)
	}
	_, b = Normalize(12.5, DefaultBounds())
	if b != DefaultBounds() {
		t.Errorf("bounds = %+v, want unchanged at exact overage boundary", b)
	}
}

func TestNormalize_UnestablishedBoundNeverExpands(t *testing.T) {
	b := Bounds{Min: -0.1, Max: 0.05}
	_, got := Normalize(-500, b)
	if got != b {
		t.Errorf("bounds = %+v, want %+v", got, b)
	}
	_, got = Normalize(500, b)
	if got != b {
		t.Errorf("bounds = %+v, want %+v", got, b)
	}
}

func TestNormalize_MonotonicBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	b := DefaultBounds()
	for i := 0; i < 5000; i++ {
		delta := rng.NormFloat64() * 20
		if i%500 == 0 {
			delta *= 5
		}
		_, next := Normalize(delta, b)
		if next.Min > b.Min {
			t.Fatalf("tick %d: min shrank from %v to %v", i, b.Min, next.Min)
		}
		if next.Max < b.Max {
			t.Fatalf("tick %d: max shrank from %v to %v", i, b.Max, next.Max)
		}
		if next.Min > 0 || next.Max < 0 {
			t.Fatalf("tick %d: bounds %+v no longer straddle zero", i, next)
		}
		b = next
	}
}

func TestNormalize_SmallSignals(t *testing.T) {
	b := DefaultBounds()
	for _, d := range []float64{0, 0.05, -0.09, 0.0, -0.01} {
		got, next := Normalize(d, b)
		if next != b {
			t.Errorf("Normalize(%v) changed bounds to %+v", d, next)
		}
		if math.Abs(got) > 0.01 {
			t.Errorf("Normalize(%v) = %v, want |v| <= 0.01", d, got)
		}
		if d == 0 && got != 0 {
			t.Errorf("Normalize(0) = %v, want 0", got)
		}
	}
}

func TestNormalize_NaN(t *testing.T) {
	got, b := Normalize(math.NaN(), DefaultBounds())
	if got != 0 {
		t.Errorf("normalized = %v, want 0", got)
	}
	if b != DefaultBounds() {
		t.Errorf("bounds = %+v, want defaults", b)
	}
}

func TestClamp(t *testing.T) {
	if Clamp(1.7, -1, 1) != 1 {
		t.Error("expected clamp to 1")
	}
	if Clamp(-3, -1, 1) != -1 {
		t.Error("expected clamp to -1")
	}
	if Clamp(0.25, -1, 1) != 0.25 {
		t.Error("expected value inside range to pass through")
	}
}
