package generator

import (
	"math"
	"testing"
	"time"

	"github.com/synheart/synheart-breath/internal/breath"
	"github.com/synheart/synheart-breath/internal/scenario"
)

func newTestGenerator(s *scenario.Scenario, seed int64) *Generator {
	return NewGenerator(scenario.NewEngine(s), Config{Seed: seed})
}

func TestWaveform(t *testing.T) {
	cfg := &scenario.BreathConfig{InhalePa: 15, ExhalePa: 20}

	tests := []struct {
		pos  float64
		want float64
	}{
		{0, 0},
		{0.25, 20},
		{0.5, 0},
		{0.75, -15},
	}
	for _, tt := range tests {
		if got := Waveform(tt.pos, cfg); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Waveform(%v) = %v, want %v", tt.pos, got, tt.want)
		}
	}

	cfg.Multiply = 2
	if got := Waveform(0.25, cfg); math.Abs(got-40) > 1e-9 {
		t.Errorf("Waveform with multiply = %v, want 40", got)
	}
}

func TestWaveform_Defaults(t *testing.T) {
	cfg := &scenario.BreathConfig{}
	if got := Waveform(0.25, cfg); math.Abs(got-DefaultExhalePa) > 1e-9 {
		t.Errorf("default exhale peak = %v, want %v", got, DefaultExhalePa)
	}
}

func TestDrift(t *testing.T) {
	if Drift(10*time.Second, 0) != 0 {
		t.Error("zero amplitude should not drift")
	}
	if got := Drift(DriftPeriod/4, 3); math.Abs(got-3) > 1e-9 {
		t.Errorf("drift at quarter period = %v, want 3", got)
	}
}

func TestGenerator_DrivesDetector(t *testing.T) {
	s := &scenario.Scenario{
		Name:   "steady",
		Breath: &scenario.BreathConfig{RateBPM: 12, InhalePa: 15, ExhalePa: 20},
	}
	g := newTestGenerator(s, 1)
	r := breath.New(breath.DefaultThresholds(), 0)

	for ms := int64(0); ms <= 60000; ms += 20 {
		r.Detect(g.Sample(time.Duration(ms)*time.Millisecond), ms)
	}

	if r.BreathCount() != 12 {
		t.Errorf("breath count = %d, want 12 for one minute at 12 bpm", r.BreathCount())
	}
}

func TestGenerator_Deterministic(t *testing.T) {
	s := &scenario.Scenario{
		Name:   "noisy",
		Breath: &scenario.BreathConfig{RateBPM: 15, NoisePa: 1.5, DriftPa: 2},
	}
	a := newTestGenerator(s, 42)
	b := newTestGenerator(s, 42)
	c := newTestGenerator(s, 43)

	differs := false
	for ms := 0; ms < 5000; ms += 20 {
		elapsed := time.Duration(ms) * time.Millisecond
		va, vb, vc := a.Sample(elapsed), b.Sample(elapsed), c.Sample(elapsed)
		if va != vb {
			t.Fatalf("t=%dms: same seed produced %v and %v", ms, va, vb)
		}
		if va != vc {
			differs = true
		}
	}
	if !differs {
		t.Error("different seeds produced identical output")
	}
	if a.Seed() != 42 {
		t.Errorf("seed = %d, want 42", a.Seed())
	}
	if a.GetRunID() == "" || a.GetRunID() == b.GetRunID() {
		t.Error("expected distinct run ids")
	}
}

func TestGenerator_HoldFreezesCycle(t *testing.T) {
	hold := true
	s := &scenario.Scenario{
		Name:   "hold",
		Breath: &scenario.BreathConfig{RateBPM: 12},
		Phases: []scenario.Phase{
			{Name: "breathe", Duration: "10s"},
			{Name: "hold", Duration: "10s", Overrides: &scenario.BreathConfig{Hold: &hold}},
			{Name: "breathe-again", Duration: "unlimited"},
		},
	}
	g := newTestGenerator(s, 1)

	var frozen float64
	for ms := 0; ms < 20000; ms += 20 {
		v := g.Sample(time.Duration(ms) * time.Millisecond)
		if ms >= 10000 {
			if v != 0 {
				t.Fatalf("t=%dms: delta = %v, want 0 while holding", ms, v)
			}
			if ms == 10000 {
				frozen = g.CyclePosition()
			} else if g.CyclePosition() != frozen {
				t.Fatalf("t=%dms: cycle moved during hold", ms)
			}
		}
	}

	g.Sample(20020 * time.Millisecond)
	if g.CyclePosition() == frozen {
		t.Error("cycle should resume after the hold")
	}
}

func TestGenerator_ContinuousAcrossRateChange(t *testing.T) {
	s := &scenario.Scenario{
		Name:   "ramp",
		Breath: &scenario.BreathConfig{RateBPM: 12, InhalePa: 15, ExhalePa: 20},
		Phases: []scenario.Phase{
			{Name: "slow", Duration: "7s"},
			{Name: "fast", Duration: "unlimited", Overrides: &scenario.BreathConfig{RateBPM: 30}},
		},
	}
	g := newTestGenerator(s, 1)

	prev := g.Sample(0)
	for ms := 20; ms < 15000; ms += 20 {
		v := g.Sample(time.Duration(ms) * time.Millisecond)
		if math.Abs(v-prev) > 5 {
			t.Fatalf("t=%dms: jump of %v Pa between ticks", ms, v-prev)
		}
		prev = v
	}
}

func TestGenerator_AddOffsets(t *testing.T) {
	hold := true
	s := &scenario.Scenario{
		Name:   "offset",
		Breath: &scenario.BreathConfig{Hold: &hold, Add: 3.5},
	}
	g := newTestGenerator(s, 1)
	if got := g.Sample(time.Second); got != 3.5 {
		t.Errorf("delta = %v, want 3.5", got)
	}
}
