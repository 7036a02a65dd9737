package breath

import (
	"math"
	"testing"
)

func newTestRecord() *Record {
	return New(DefaultThresholds(), 0)
}

func TestNew(t *testing.T) {
	r := New(Thresholds{Inhale: -3, Exhale: 4}, 1234)

	if r.Phase() != Idle {
		t.Errorf("phase = %v, want idle", r.Phase())
	}
	if r.MinDelta() != -10 || r.MaxDelta() != 10 {
		t.Errorf("bounds = [%v, %v], want [-10, 10]", r.MinDelta(), r.MaxDelta())
	}
	if r.SessionStartAt() != 1234 {
		t.Errorf("session start = %d, want 1234", r.SessionStartAt())
	}
	if r.Thresholds() != (Thresholds{Inhale: -3, Exhale: 4}) {
		t.Errorf("thresholds = %+v", r.Thresholds())
	}
}

func TestDetect_Thresholds(t *testing.T) {
	tests := []struct {
		delta float64
		want  Phase
	}{
		{-6, Inhale},
		{6, Exhale},
		{0, Idle},
		{-5, Idle},
		{5, Idle},
	}

	for _, tt := range tests {
		r := newTestRecord()
		r.Detect(tt.delta, 100)
		if r.Phase() != tt.want {
			t.Errorf("Detect(%v): phase = %v, want %v", tt.delta, r.Phase(), tt.want)
		}
	}
}

func TestDetect_Hold(t *testing.T) {
	r := newTestRecord()

	for now := int64(0); now <= 3000; now += 20 {
		r.Detect(0.5, now)
		if r.Phase() != Idle {
			t.Fatalf("t=%d: phase = %v, want idle before timeout", now, r.Phase())
		}
	}

	r.Detect(0.5, 3020)
	if r.Phase() != Hold {
		t.Fatalf("phase = %v, want hold after timeout", r.Phase())
	}
	if r.LastPhaseChangeAt() != 3020 {
		t.Errorf("last phase change = %d, want 3020", r.LastPhaseChangeAt())
	}

	// Leaving the stability band drops back to idle and restarts the timer.
	r.Detect(3, 3040)
	if r.Phase() != Idle {
		t.Errorf("phase = %v, want idle outside stability band", r.Phase())
	}
	r.Detect(0, 4000)
	if r.Phase() != Idle {
		t.Errorf("phase = %v, want idle until a fresh timeout elapses", r.Phase())
	}
}

func TestDetect_HoldRequiresStability(t *testing.T) {
	r := newTestRecord()
	r.Detect(3.5, 10000)
	if r.Phase() != Idle {
		t.Errorf("phase = %v, want idle when |delta| >= stability band", r.Phase())
	}
}

func TestDetect_ThresholdBeatsHold(t *testing.T) {
	r := newTestRecord()
	r.Detect(0, 5000)
	if r.Phase() != Hold {
		t.Fatalf("phase = %v, want hold", r.Phase())
	}

	r.Detect(-6, 5020)
	if r.Phase() != Inhale {
		t.Errorf("phase = %v, want inhale to override hold", r.Phase())
	}

	r2 := newTestRecord()
	r2.Detect(7, 9000)
	if r2.Phase() != Exhale {
		t.Errorf("phase = %v, want exhale even though hold timeout elapsed", r2.Phase())
	}
}

func TestDetect_CycleCounting(t *testing.T) {
	r := newTestRecord()

	r.Detect(6, 100)
	r.Detect(0, 900)
	r.Detect(-6, 1000)

	if r.BreathCount() != 1 {
		t.Fatalf("breath count = %d, want 1", r.BreathCount())
	}

	// Inhale -> exhale is not a cycle
	r.Detect(6, 2000)
	if r.BreathCount() != 1 {
		t.Errorf("breath count = %d after inhale->exhale, want 1", r.BreathCount())
	}

	// Staying in a phase never counts
	r.Detect(6, 2020)
	r.Detect(7, 2040)
	if r.BreathCount() != 1 {
		t.Errorf("breath count = %d while holding exhale, want 1", r.BreathCount())
	}
}

func TestDetect_HoldBetweenExhaleAndInhaleCounts(t *testing.T) {
	r := newTestRecord()

	r.Detect(6, 100)
	r.Detect(0.5, 200)
	r.Detect(0.5, 3300)
	if r.Phase() != Hold {
		t.Fatalf("phase = %v, want hold", r.Phase())
	}

	r.Detect(-6, 3500)
	if r.BreathCount() != 1 {
		t.Fatalf("breath count = %d after exhale->hold->inhale, want 1", r.BreathCount())
	}
	if r.AvgCycleDurationMs() != 200 {
		t.Errorf("avg = %v, want 200 (time since entering hold)", r.AvgCycleDurationMs())
	}
}

func TestNew_HoldTimerStartsAtCreation(t *testing.T) {
	const epoch = int64(1_700_000_000_000)
	r := New(DefaultThresholds(), epoch)
	if r.LastPhaseChangeAt() != epoch {
		t.Fatalf("last phase change = %d, want %d", r.LastPhaseChangeAt(), epoch)
	}

	r.Detect(0, epoch+20)
	if r.Phase() != Idle {
		t.Fatalf("phase = %v 20 ms after creation, want idle", r.Phase())
	}
	r.Detect(0, epoch+3000)
	if r.Phase() != Idle {
		t.Fatalf("phase = %v at the timeout, want idle", r.Phase())
	}
	r.Detect(0, epoch+3020)
	if r.Phase() != Hold {
		t.Errorf("phase = %v past the timeout, want hold", r.Phase())
	}
}

func TestDetect_InhaleFirstIsNotACycle(t *testing.T) {
	r := newTestRecord()
	r.Detect(-6, 100)
	r.Detect(0, 200)
	r.Detect(-6, 300)
	if r.BreathCount() != 0 {
		t.Errorf("breath count = %d, want 0 without a prior exhale", r.BreathCount())
	}
}

func TestDetect_AverageCycleDuration(t *testing.T) {
	r := newTestRecord()

	r.Detect(6, 100)
	r.Detect(-6, 600)
	if r.AvgCycleDurationMs() != 500 {
		t.Fatalf("avg = %v, want 500 after first cycle", r.AvgCycleDurationMs())
	}

	r.Detect(6, 1000)
	r.Detect(-6, 2000)
	if r.BreathCount() != 2 {
		t.Fatalf("breath count = %d, want 2", r.BreathCount())
	}
	if r.AvgCycleDurationMs() != 750 {
		t.Errorf("avg = %v, want 750 (mean of 500 and 1000)", r.AvgCycleDurationMs())
	}
}

// Cycle duration is measured from the last phase change, not from the start
// of the exhale, so an idle gap before the inhale shortens it.
func TestDetect_CycleDurationSinceLastPhaseChange(t *testing.T) {
	r := newTestRecord()

	r.Detect(6, 100)
	r.Detect(0, 900)
	r.Detect(-6, 1000)

	if r.AvgCycleDurationMs() != 100 {
		t.Errorf("avg = %v, want 100 (time since the exhale->idle change)", r.AvgCycleDurationMs())
	}
}

func TestDetect_UpdatesNormalization(t *testing.T) {
	r := newTestRecord()
	r.Detect(-15, 20)

	if math.Abs(r.MinDelta()-(-12)) > 1e-9 {
		t.Errorf("min delta = %v, want -12", r.MinDelta())
	}
	if math.Abs(r.NormalizedRaw()-(-1.25)) > 1e-9 {
		t.Errorf("normalized raw = %v, want -1.25", r.NormalizedRaw())
	}
	if r.NormalizedClamped() != -1 {
		t.Errorf("normalized clamped = %v, want -1", r.NormalizedClamped())
	}
}

func TestDetect_NaNDegradesToIdle(t *testing.T) {
	r := newTestRecord()
	r.Detect(6, 100)
	r.Detect(math.NaN(), 200)

	if r.Phase() != Idle {
		t.Errorf("phase = %v, want idle", r.Phase())
	}
	if r.NormalizedRaw() != 0 {
		t.Errorf("normalized = %v, want 0", r.NormalizedRaw())
	}
	if r.Bounds() != DefaultBounds() {
		t.Errorf("bounds = %+v, want defaults", r.Bounds())
	}
}

func TestDetect_WrongSignThresholds(t *testing.T) {
	r := New(Thresholds{Inhale: 5, Exhale: -5}, 0)
	r.Detect(0, 100)

	// 0 < 5 so the inhale check wins; counter-intuitive but accepted
	if r.Phase() != Inhale {
		t.Errorf("phase = %v, want inhale with swapped thresholds", r.Phase())
	}
}

func TestStep_IsPure(t *testing.T) {
	r := *newTestRecord()
	before := r

	next := Step(r, 20, 100)
	if r != before {
		t.Error("Step modified its input record")
	}
	if next.Phase() != Exhale {
		t.Errorf("phase = %v, want exhale", next.Phase())
	}

	again := Step(r, 20, 100)
	if again != next {
		t.Error("Step is not deterministic for identical inputs")
	}
}

func TestResetSession(t *testing.T) {
	r := newTestRecord()
	r.Detect(-30, 50)
	r.Detect(6, 100)
	r.Detect(-6, 600)
	r.SetThresholds(Thresholds{Inhale: -2, Exhale: 2})

	r.ResetSession(5000)

	if r.BreathCount() != 0 || r.AvgCycleDurationMs() != 0 {
		t.Errorf("counters = (%d, %v), want zero", r.BreathCount(), r.AvgCycleDurationMs())
	}
	if r.SessionStartAt() != 5000 {
		t.Errorf("session start = %d, want 5000", r.SessionStartAt())
	}
	if r.Thresholds() != (Thresholds{Inhale: -2, Exhale: 2}) {
		t.Errorf("thresholds changed: %+v", r.Thresholds())
	}
	if r.MinDelta() == DefaultMinDelta {
		t.Error("reset session should not touch adaptive bounds")
	}
}

func TestResetCalibration(t *testing.T) {
	r := newTestRecord()
	r.Detect(6, 100)
	r.Detect(-40, 200)
	r.Detect(60, 300)
	count := r.BreathCount()

	r.ResetCalibration()

	if r.Bounds() != DefaultBounds() {
		t.Errorf("bounds = %+v, want defaults", r.Bounds())
	}
	if r.BreathCount() != count {
		t.Errorf("breath count = %d, want %d", r.BreathCount(), count)
	}
}

func TestPushingBounds(t *testing.T) {
	r := newTestRecord()

	below, above := r.PushingBounds(-13)
	if !below || above {
		t.Errorf("PushingBounds(-13) = (%v, %v), want (true, false)", below, above)
	}
	below, above = r.PushingBounds(11)
	if below || above {
		t.Errorf("PushingBounds(11) = (%v, %v), want (false, false)", below, above)
	}
	below, above = r.PushingBounds(13)
	if below || !above {
		t.Errorf("PushingBounds(13) = (%v, %v), want (false, true)", below, above)
	}
}
