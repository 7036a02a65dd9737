// Package display delivers rendered scene frames to an output device.
package display

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"golang.org/x/image/draw"
)

// Sink shows rendered frames
type Sink interface {
	Show(img image.Image) error
	Close() error
}

// Discard drops every frame
type Discard struct{}

func (Discard) Show(image.Image) error { return nil }
func (Discard) Close() error           { return nil }

// PNGSink writes every Nth frame to a numbered PNG file
type PNGSink struct {
	dir     string
	every   int
	seen    int
	written int
}

// NewPNGSink creates dir if needed. every <= 1 keeps all frames.
func NewPNGSink(dir string, every int) (*PNGSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create frame directory: %w", err)
	}
	if every < 1 {
		every = 1
	}
	return &PNGSink{dir: dir, every: every}, nil
}

func (s *PNGSink) Show(img image.Image) error {
	s.seen++
	if (s.seen-1)%s.every != 0 {
		return nil
	}

	path := filepath.Join(s.dir, fmt.Sprintf("frame_%06d.png", s.written))
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create frame file: %w", err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close frame file: %w", err)
	}
	s.written++
	return nil
}

// Written returns the number of files written
func (s *PNGSink) Written() int { return s.written }

func (s *PNGSink) Close() error { return nil }

// Scaled enlarges frames by an integer factor before passing them on.
// Nearest-neighbour keeps pixel art sharp.
type Scaled struct {
	next   Sink
	factor int
	buf    *image.RGBA
}

func NewScaled(next Sink, factor int) *Scaled {
	if factor < 1 {
		factor = 1
	}
	return &Scaled{next: next, factor: factor}
}

func (s *Scaled) Show(img image.Image) error {
	if s.factor == 1 {
		return s.next.Show(img)
	}

	b := img.Bounds()
	r := image.Rect(0, 0, b.Dx()*s.factor, b.Dy()*s.factor)
	if s.buf == nil || s.buf.Bounds() != r {
		s.buf = image.NewRGBA(r)
	}
	draw.NearestNeighbor.Scale(s.buf, r, img, b, draw.Src, nil)
	return s.next.Show(s.buf)
}

func (s *Scaled) Close() error { return s.next.Close() }
