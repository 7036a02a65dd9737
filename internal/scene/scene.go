// Package scene renders the breath signal onto a small fixed-size screen.
// Scenes read the detector through View and are driven at their own frame
// rate by the control loop.
package scene

import (
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/synheart/synheart-breath/internal/breath"
	"github.com/synheart/synheart-breath/internal/sensor"
)

// Screen size in pixels
const (
	Width  = 128
	Height = 128
)

// ErrUnknownScene is returned by New for names not in Names()
var ErrUnknownScene = errors.New("unknown scene")

// View is the read-only part of a breath record that scenes consume.
// *breath.Record satisfies it.
type View interface {
	Phase() breath.Phase
	BreathCount() uint64
	NormalizedClamped() float64
	NormalizedRaw() float64
	MinDelta() float64
	MaxDelta() float64
	PushingBounds(delta float64) (below, above bool)
}

// Scene is one full-screen visualization
type Scene interface {
	Name() string
	// Update advances animation state by dt seconds
	Update(dt float64)
	Render(dst *image.RGBA)
	TargetFPS() int
}

// Observer is implemented by scenes that show raw sensor readings
type Observer interface {
	Observe(r sensor.Reading)
}

// Names lists the available scenes
func Names() []string {
	return []string{"wave", "balloon", "diagnostic"}
}

// New creates the scene called name. seed drives any randomness.
func New(name string, v View, seed int64) (Scene, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "wave", "live", "":
		return NewWave(v), nil
	case "balloon":
		return NewBalloon(v, seed), nil
	case "diagnostic", "diag":
		return NewDiagnostic(v), nil
	default:
		return nil, fmt.Errorf("%w: %q (available: %s)", ErrUnknownScene, name, strings.Join(Names(), ", "))
	}
}

// NewCanvas allocates a screen-sized image
func NewCanvas() *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, Width, Height))
}

// FrameIntervalMs is the time between renders at the scene's target rate
func FrameIntervalMs(s Scene) int64 {
	fps := s.TargetFPS()
	if fps <= 0 {
		fps = 30
	}
	return int64(1000 / fps)
}
