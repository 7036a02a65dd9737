package scene

import (
	"errors"
	"math"
	"testing"

	"github.com/synheart/synheart-breath/internal/breath"
	"github.com/synheart/synheart-breath/internal/sensor"
)

type fakeView struct {
	phase      breath.Phase
	count      uint64
	norm       float64
	raw        float64
	below      bool
	above      bool
	minD, maxD float64
}

func (v *fakeView) Phase() breath.Phase                { return v.phase }
func (v *fakeView) BreathCount() uint64                { return v.count }
func (v *fakeView) NormalizedClamped() float64         { return v.norm }
func (v *fakeView) NormalizedRaw() float64             { return v.raw }
func (v *fakeView) MinDelta() float64                  { return v.minD }
func (v *fakeView) MaxDelta() float64                  { return v.maxD }
func (v *fakeView) PushingBounds(float64) (bool, bool) { return v.below, v.above }

var _ View = (*breath.Record)(nil)

func TestNew(t *testing.T) {
	tests := []struct {
		name string
		want string
		fps  int
		ms   int64
	}{
		{"wave", "wave", 30, 33},
		{"", "wave", 30, 33},
		{"Balloon", "balloon", 50, 20},
		{"diagnostic", "diagnostic", 10, 100},
	}

	for _, tt := range tests {
		s, err := New(tt.name, &fakeView{}, 1)
		if err != nil {
			t.Fatalf("New(%q) error: %v", tt.name, err)
		}
		if s.Name() != tt.want || s.TargetFPS() != tt.fps || FrameIntervalMs(s) != tt.ms {
			t.Errorf("New(%q) = %s at %d fps (%d ms)", tt.name, s.Name(), s.TargetFPS(), FrameIntervalMs(s))
		}
	}

	if _, err := New("tetris", &fakeView{}, 1); !errors.Is(err, ErrUnknownScene) {
		t.Errorf("expected ErrUnknownScene, got %v", err)
	}
}

func TestWave_Smoothing(t *testing.T) {
	v := &fakeView{norm: 1}
	w := NewWave(v)

	w.Update(1.0 / 30)
	// target 64 - 50 = 14, one step of 0.1 from 64
	if math.Abs(w.Level()-59) > 1e-9 {
		t.Errorf("level = %v, want 59", w.Level())
	}

	for i := 0; i < 200; i++ {
		w.Update(1.0 / 30)
	}
	if math.Abs(w.Level()-14) > 0.01 {
		t.Errorf("level = %v, want to settle at 14", w.Level())
	}
}

func TestWave_Render(t *testing.T) {
	v := &fakeView{norm: 0, phase: breath.Exhale, count: 3}
	w := NewWave(v)
	w.Update(0.03)

	dst := NewCanvas()
	w.Render(dst)

	if got := dst.RGBAAt(0, Height-1); got != waterColor {
		t.Errorf("bottom-left pixel = %v, want water %v", got, waterColor)
	}
	if got := dst.RGBAAt(0, 0); got == waterColor {
		t.Error("top-left pixel should be sky")
	}
}

func TestBalloon_Smoothing(t *testing.T) {
	v := &fakeView{raw: 1}
	b := NewBalloon(v, 7)

	b.Update(0.02)
	if math.Abs(b.Smoothed()-0.5) > 1e-9 {
		t.Errorf("smoothed = %v, want 0.5", b.Smoothed())
	}
	b.Update(0.02)
	if math.Abs(b.Smoothed()-0.75) > 1e-9 {
		t.Errorf("smoothed = %v, want 0.75", b.Smoothed())
	}
}

func TestBalloon_Spawn(t *testing.T) {
	a := NewBalloon(&fakeView{}, 42)
	b := NewBalloon(&fakeView{}, 42)
	a.Update(0.02)
	b.Update(0.02)

	if a.activeCount != 1 {
		t.Fatalf("active collectibles = %d, want 1", a.activeCount)
	}
	c := a.collectible[0]
	if !c.active || c.x <= Width {
		t.Errorf("collectible = %+v, want active and right of the screen", c)
	}
	if c.y < balloonYMargin || c.y >= Height-balloonYMargin {
		t.Errorf("collectible y = %v outside margins", c.y)
	}
	if c.y != b.collectible[0].y {
		t.Error("spawn is not deterministic for equal seeds")
	}
}

func TestBalloon_Collect(t *testing.T) {
	b := NewBalloon(&fakeView{}, 1)
	b.spawnIn = 1
	b.collectible[0] = collectible{x: float64(balloonX()), y: Height / 2, active: true}
	b.activeCount = 1

	b.Update(0.02)
	if b.Score() != 1 {
		t.Fatalf("score = %d, want 1", b.Score())
	}
	if !b.collectible[0].collecting {
		t.Error("collected orb should be fading out")
	}

	b.Update(0.02)
	if b.Score() != 1 {
		t.Errorf("score = %d, a fading orb must not score twice", b.Score())
	}

	b.Update(0.3)
	if b.collectible[0].active || b.activeCount != 0 {
		t.Errorf("orb still active after fade: %+v (count %d)", b.collectible[0], b.activeCount)
	}
}

func TestBalloon_OffscreenOrbExpires(t *testing.T) {
	b := NewBalloon(&fakeView{}, 1)
	b.spawnIn = 1
	b.collectible[2] = collectible{x: -2.5, y: 20, active: true}
	b.activeCount = 1

	b.Update(0.02)
	if b.collectible[2].active || b.activeCount != 0 {
		t.Errorf("orb past the left edge should expire")
	}
	if b.Score() != 0 {
		t.Errorf("score = %d, want 0", b.Score())
	}
}

func TestBalloon_RenderSquash(t *testing.T) {
	v := &fakeView{raw: 3}
	b := NewBalloon(v, 1)
	for i := 0; i < 20; i++ {
		b.Update(0.02)
	}
	dst := NewCanvas()
	b.Render(dst)

	if b.Smoothed() <= 1 {
		t.Fatalf("smoothed = %v, want past the top of the screen", b.Smoothed())
	}
}

func TestDiagnostic(t *testing.T) {
	v := &fakeView{norm: 0.5, above: true, minD: -10, maxD: 10}
	d := NewDiagnostic(v)

	d.Observe(sensor.Reading{Delta: 14, Absolute: 101325, TemperatureC: 22})
	if d.shown.Delta != 0 {
		t.Error("reading should not show before Update")
	}
	d.Update(0.1)
	if d.shown.Delta != 14 {
		t.Errorf("shown delta = %v, want 14", d.shown.Delta)
	}

	dst := NewCanvas()
	d.Render(dst)

	if got := dst.RGBAAt(70, barY); got != cyan {
		t.Errorf("bar pixel = %v, want cyan", got)
	}
	// 0.5 of 54px puts the bar end at 91 with the arrow beyond it
	if got := dst.RGBAAt(93, barY); got != white {
		t.Errorf("arrow pixel = %v, want white", got)
	}
	if got := dst.RGBAAt(50, barY); got == magenta {
		t.Error("inhale side should not be filled for positive values")
	}
}

func TestConversions(t *testing.T) {
	if math.Abs(InHg(101325)-29.921) > 0.001 {
		t.Errorf("InHg(101325) = %v", InHg(101325))
	}
	if Fahrenheit(100) != 212 || Fahrenheit(-40) != -40 {
		t.Errorf("Fahrenheit conversion wrong")
	}
}
