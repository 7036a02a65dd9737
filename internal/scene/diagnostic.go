package scene

import (
	"fmt"
	"image"
	"math"

	"github.com/synheart/synheart-breath/internal/sensor"
)

const (
	diagnosticFPS = 10
	paPerInHg     = 3386.39
	barY          = 60
)

// Diagnostic shows the raw sensor values next to the detector state
type Diagnostic struct {
	view    View
	pending sensor.Reading
	shown   sensor.Reading
}

func NewDiagnostic(v View) *Diagnostic {
	return &Diagnostic{view: v}
}

func (d *Diagnostic) Name() string   { return "diagnostic" }
func (d *Diagnostic) TargetFPS() int { return diagnosticFPS }

// Observe records the latest sensor reading; it is picked up on Update
func (d *Diagnostic) Observe(r sensor.Reading) {
	d.pending = r
}

func (d *Diagnostic) Update(dt float64) {
	d.shown = d.pending
}

// InHg converts pascals to inches of mercury
func InHg(pa float64) float64 { return pa / paPerInHg }

// Fahrenheit converts degrees Celsius to Fahrenheit
func Fahrenheit(c float64) float64 { return c*9/5 + 32 }

func (d *Diagnostic) Render(dst *image.RGBA) {
	fill(dst, black)
	text(dst, 8, 2, "DIAGNOSTIC", yellow)

	delta := d.shown.Delta
	x := text(dst, 4, 16, "Delta: ", white)
	if delta >= 0 {
		text(dst, x, 16, fmt.Sprintf("+%.2f Pa", delta), cyan)
	} else {
		text(dst, x, 16, fmt.Sprintf("%.2f Pa", delta), magenta)
	}

	norm := d.view.NormalizedClamped()
	x = text(dst, 4, 30, "Norm: ", white)
	normColor := cyan
	if norm < 0 {
		normColor = magenta
	}
	text(dst, x, 30, fmt.Sprintf("%.2f", norm), normColor)

	d.drawBar(dst, norm, delta)

	text(dst, 4, 70, "Pressure:", white)
	text(dst, 4, 84, fmt.Sprintf("%.3f inHg", InHg(d.shown.Absolute)), green)

	temp := d.shown.TemperatureC
	x = text(dst, 4, 98, "T: ", white)
	x = text(dst, x, 98, fmt.Sprintf("%.1fC ", temp), orange)
	text(dst, x, 98, fmt.Sprintf("%.1fF", Fahrenheit(temp)), yellow)

	text(dst, 4, 112, fmt.Sprintf("Min:%.0f Max:%.0f", d.view.MinDelta(), d.view.MaxDelta()), gray)
}

func (d *Diagnostic) drawBar(dst *image.RGBA, norm, delta float64) {
	center := Width / 2
	maxW := (Width - 20) / 2
	w := int(math.Abs(norm) * float64(maxW))
	below, above := d.view.PushingBounds(delta)

	hline(dst, 10, barY, Width-20, gray)
	vline(dst, center, barY-5, 10, white)

	if norm > 0 {
		fillRect(dst, image.Rect(center, barY-3, center+w, barY+3), cyan)
		if above {
			ax := center + w
			fillTriangle(dst, ax, barY-5, ax, barY+5, ax+6, barY, white)
		}
	} else {
		fillRect(dst, image.Rect(center-w, barY-3, center, barY+3), magenta)
		if below {
			ax := center - w
			fillTriangle(dst, ax, barY-5, ax, barY+5, ax-6, barY, white)
		}
	}
}
