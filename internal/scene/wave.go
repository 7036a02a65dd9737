package scene

import (
	"fmt"
	"image"
	"image/color"
	"math"
)

const (
	waveFPS          = 30
	waveSmoothing    = 0.1
	waveDisplacement = 50.0
	waveScrollSpeed  = 2.5
)

var (
	waterColor = hex(0x0078b4)
	foamColor  = hex(0x78b4ff)
)

// Wave is the live breath view: a water line that rises on inhale and falls
// on exhale.
type Wave struct {
	view    View
	phase   float64
	target  float64
	current float64
}

func NewWave(v View) *Wave {
	return &Wave{view: v, target: Height / 2, current: Height / 2}
}

func (w *Wave) Name() string   { return "wave" }
func (w *Wave) TargetFPS() int { return waveFPS }

// Level returns the smoothed water line in pixels from the top
func (w *Wave) Level() float64 { return w.current }

func (w *Wave) Update(dt float64) {
	w.phase += waveScrollSpeed * dt
	if w.phase > 2*math.Pi {
		w.phase -= 2 * math.Pi
	}

	w.target = Height/2 - w.view.NormalizedClamped()*waveDisplacement
	w.current += (w.target - w.current) * waveSmoothing
}

func (w *Wave) Render(dst *image.RGBA) {
	for y := 0; y < Height; y++ {
		b := uint8(60 - 40*y/Height)
		hline(dst, 0, y, Width, color.RGBA{b, b, b + 30, 255})
	}

	for x := 0; x < Width; x++ {
		fx := float64(x)
		w1 := math.Sin(fx*0.15+w.phase) * 8
		w2 := math.Sin(fx*0.08+w.phase*1.3) * 5
		w3 := math.Sin(fx*0.22-w.phase*0.7) * 3

		y := int(w.current + w1 + w2 + w3)
		y = min(max(y, 10), Height-10)

		foam := int(math.Abs(w1))/2 + 2
		vline(dst, x, y-foam, foam, foamColor)
		vline(dst, x, y, Height-y, waterColor)
	}

	text(dst, 4, 2, "LIVE", white)
	text(dst, 4, Height-14, fmt.Sprintf("Breaths: %d", w.view.BreathCount()), white)
	label := w.view.Phase().Label()
	text(dst, Width-textWidth(label)-4, 2, label, white)
}
