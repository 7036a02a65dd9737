package scene

import (
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	white   = color.RGBA{255, 255, 255, 255}
	black   = color.RGBA{0, 0, 0, 255}
	gray    = color.RGBA{128, 128, 128, 255}
	cyan    = color.RGBA{0, 255, 255, 255}
	magenta = color.RGBA{255, 0, 255, 255}
	yellow  = color.RGBA{255, 255, 0, 255}
	green   = color.RGBA{0, 255, 0, 255}
	orange  = color.RGBA{255, 165, 0, 255}
)

var face = basicfont.Face7x13

func hex(c uint32) color.RGBA {
	return color.RGBA{uint8(c >> 16), uint8(c >> 8), uint8(c), 255}
}

func lerp(a, b color.RGBA, t float64) color.RGBA {
	mix := func(x, y uint8) uint8 { return uint8(float64(x)*t + float64(y)*(1-t)) }
	return color.RGBA{mix(a.R, b.R), mix(a.G, b.G), mix(a.B, b.B), 255}
}

func fillRect(dst *image.RGBA, r image.Rectangle, c color.RGBA) {
	draw.Draw(dst, r, image.NewUniform(c), image.Point{}, draw.Src)
}

func fill(dst *image.RGBA, c color.RGBA) {
	fillRect(dst, dst.Bounds(), c)
}

func hline(dst *image.RGBA, x, y, w int, c color.RGBA) {
	fillRect(dst, image.Rect(x, y, x+w, y+1), c)
}

func vline(dst *image.RGBA, x, y, h int, c color.RGBA) {
	fillRect(dst, image.Rect(x, y, x+1, y+h), c)
}

func fillEllipse(dst *image.RGBA, cx, cy, rx, ry int, c color.RGBA) {
	if rx < 0 || ry < 0 {
		return
	}
	if ry == 0 {
		hline(dst, cx-rx, cy, 2*rx+1, c)
		return
	}
	for dy := -ry; dy <= ry; dy++ {
		f := float64(dy) / float64(ry)
		half := int(math.Round(float64(rx) * math.Sqrt(1-f*f)))
		hline(dst, cx-half, cy+dy, 2*half+1, c)
	}
}

func fillCircle(dst *image.RGBA, cx, cy, r int, c color.RGBA) {
	fillEllipse(dst, cx, cy, r, r, c)
}

func fillTriangle(dst *image.RGBA, x0, y0, x1, y1, x2, y2 int, c color.RGBA) {
	minX, maxX := min(x0, x1, x2), max(x0, x1, x2)
	minY, maxY := min(y0, y1, y2), max(y0, y1, y2)
	edge := func(ax, ay, bx, by, px, py int) int {
		return (bx-ax)*(py-ay) - (by-ay)*(px-ax)
	}
	area := edge(x0, y0, x1, y1, x2, y2)
	if area == 0 {
		return
	}
	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			w0 := edge(x1, y1, x2, y2, x, y)
			w1 := edge(x2, y2, x0, y0, x, y)
			w2 := edge(x0, y0, x1, y1, x, y)
			if area > 0 && w0 >= 0 && w1 >= 0 && w2 >= 0 ||
				area < 0 && w0 <= 0 && w1 <= 0 && w2 <= 0 {
				dst.SetRGBA(x, y, c)
			}
		}
	}
}

// bezier plots a quadratic curve from (x0,y0) to (x2,y2) pulled toward (x1,y1)
func bezier(dst *image.RGBA, x0, y0, x1, y1, x2, y2 int, c color.RGBA) {
	const steps = 32
	for i := 0; i <= steps; i++ {
		t := float64(i) / steps
		u := 1 - t
		x := u*u*float64(x0) + 2*u*t*float64(x1) + t*t*float64(x2)
		y := u*u*float64(y0) + 2*u*t*float64(y1) + t*t*float64(y2)
		dst.SetRGBA(int(math.Round(x)), int(math.Round(y)), c)
	}
}

// text draws s with its top-left corner at (x, y) and returns the x after it
func text(dst *image.RGBA, x, y int, s string, c color.RGBA) int {
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y+face.Ascent),
	}
	d.DrawString(s)
	return d.Dot.X.Ceil()
}

func textWidth(s string) int {
	return font.MeasureString(face, s).Ceil()
}
