package scene

import (
	"fmt"
	"image"
	"math"
	"math/rand"
)

const (
	balloonFPS = 50

	scrollSpeed      = 20.0 // px/s
	collectibleSpeed = 40.0
	tileWidth        = 64

	collectibleRadius   = 3
	collectibleFadeTime = 0.25
	spawnDelayMin       = 0.0
	spawnDelayMax       = 0.25
	maxCollectibles     = 5

	balloonXRatio   = 0.25
	balloonYMargin  = 12
	balloonSmooth   = 0.5
	balloonWidth    = 9
	balloonHeight   = 12
	knotWidth       = 4
	knotHeight      = 4
	knotOffset      = -2
	speedSquash     = 0.5
	squashDeadband  = 0.1
	stringSeg1      = 8
	stringSeg2      = 18
	stringLagX      = 1.5
	stringLagY      = 2.0
	stringPosFactor = 0.5
	windAmplitude   = 3.0
	windSpeed       = 9.0
	windSpeedEnd    = 8.0
	stringBaseX     = -4.0
	stringSpring    = 75.0
	stringDrag      = 0.85
)

var (
	sunsetBands = []uint32{
		0x962730, 0xcc2e2b, 0xf45327, 0xfa7e38, 0xfa9c78,
		0xfa6859, 0xfb9e75, 0xfad28d, 0xf8a755,
	}
	cloudColor       = hex(0xfa946e)
	collectibleFade  = hex(0xfa9c78)
	balloonColor     = hex(0xff5050)
	balloonOutline   = hex(0x321414)
	balloonHighlight = hex(0xffc8c8)
	stringColor      = hex(0x64503c)
)

type collectible struct {
	x, y       float64
	active     bool
	collecting bool
	fade       float64
}

// Balloon is a side-scrolling game: breath moves a balloon up and down to
// collect orbs. It reads the unclamped normalized value so the balloon
// squashes against the screen edge on strong breaths.
type Balloon struct {
	view View
	rng  *rand.Rand

	elapsed     float64
	scrollX     float64
	smoothed    float64
	deltaY      float64
	stringEndY  float64
	stringEndV  float64
	spawnIn     float64
	activeCount int
	collectible [maxCollectibles]collectible
	score       int
}

func NewBalloon(v View, seed int64) *Balloon {
	return &Balloon{view: v, rng: rand.New(rand.NewSource(seed))}
}

func (b *Balloon) Name() string   { return "balloon" }
func (b *Balloon) TargetFPS() int { return balloonFPS }

// Score is the number of orbs collected
func (b *Balloon) Score() int { return b.score }

// Smoothed returns the smoothed normalized balloon height
func (b *Balloon) Smoothed() float64 { return b.smoothed }

func balloonX() int { return int(Width * balloonXRatio) }

func balloonY(normalized float64) int {
	maxDisplacement := Height/2 - balloonYMargin
	return Height/2 - int(normalized*float64(maxDisplacement))
}

func (b *Balloon) Update(dt float64) {
	b.elapsed += dt
	b.scrollX += scrollSpeed * dt
	if b.scrollX >= tileWidth {
		b.scrollX -= tileWidth
	}

	b.deltaY = b.view.NormalizedRaw() - b.smoothed
	b.smoothed += b.deltaY * balloonSmooth

	// The string end chases the balloon on a damped spring
	b.stringEndV += (b.smoothed - b.stringEndY) * stringSpring * dt
	b.stringEndV *= stringDrag
	b.stringEndY += b.stringEndV * dt

	for i := range b.collectible {
		c := &b.collectible[i]
		if !c.active {
			continue
		}
		c.x -= collectibleSpeed * dt
		if c.collecting {
			c.fade += dt
			if c.fade >= collectibleFadeTime {
				c.active = false
				b.activeCount--
			}
		}
		if c.active && !c.collecting && c.x < -collectibleRadius {
			c.active = false
			b.activeCount--
		}
	}

	if b.spawnIn > 0 {
		b.spawnIn -= dt
	} else if b.activeCount < maxCollectibles {
		for i := range b.collectible {
			if !b.collectible[i].active {
				b.spawn(i)
				break
			}
		}
	}

	b.collide(balloonX(), balloonY(b.smoothed))
}

func (b *Balloon) spawn(i int) {
	b.collectible[i] = collectible{
		x:      Width + collectibleRadius + 2,
		y:      float64(balloonYMargin + b.rng.Intn(Height-2*balloonYMargin)),
		active: true,
	}
	b.activeCount++
	b.spawnIn = spawnDelayMin + b.rng.Float64()*(spawnDelayMax-spawnDelayMin)
}

func (b *Balloon) collide(x, y int) {
	r := float64(balloonHeight + collectibleRadius)
	for i := range b.collectible {
		c := &b.collectible[i]
		if !c.active || c.collecting {
			continue
		}
		dx, dy := float64(x)-c.x, float64(y)-c.y
		if dx*dx+dy*dy < r*r {
			c.collecting = true
			c.fade = 0
			b.score++
		}
	}
}

func (b *Balloon) Render(dst *image.RGBA) {
	b.drawBackground(dst)

	var squash float64
	if b.deltaY > 0 {
		squash = math.Max(b.deltaY-squashDeadband, 0) * speedSquash
	} else {
		squash = math.Min(b.deltaY+squashDeadband, 0) * speedSquash
	}
	normalized := b.smoothed + squash

	dir := 0
	switch {
	case normalized > 1:
		squash, dir = math.Min(normalized-1, 1), 1
	case normalized < -1:
		squash, dir = math.Min(-normalized-1, 1), -1
	}

	b.drawBalloon(dst, balloonX(), balloonY(normalized), squash, dir)

	for _, c := range b.collectible {
		if !c.active {
			continue
		}
		alpha := 1.0
		if c.collecting {
			alpha = 1 - c.fade/collectibleFadeTime
		}
		drawCollectible(dst, c.x, c.y, alpha)
	}

	score := fmt.Sprintf("%d", b.score)
	text(dst, Width-textWidth(score)-4, 2, score, white)
}

func bandAt(y int) int {
	band := y / (Height / len(sunsetBands))
	return min(band, len(sunsetBands)-1)
}

func (b *Balloon) drawBackground(dst *image.RGBA) {
	for y := 0; y < Height; y++ {
		hline(dst, 0, y, Width, hex(sunsetBands[bandAt(y)]))
	}
	for tx := -int(b.scrollX); tx < Width; tx += tileWidth {
		fillEllipse(dst, tx+16, 27, 7, 4, cloudColor)
		fillEllipse(dst, tx+10, 29, 5, 3, cloudColor)
		fillEllipse(dst, tx+25, 29, 6, 3, cloudColor)
		fillEllipse(dst, tx+50, 76, 6, 4, cloudColor)
		fillEllipse(dst, tx+42, 78, 5, 3, cloudColor)
		fillEllipse(dst, tx+56, 77, 4, 3, cloudColor)
	}
	// Flat cloud bottoms
	for _, r := range [][2]int{{31, 38}, {78, 85}} {
		for y := r[0]; y < r[1]; y++ {
			hline(dst, 0, y, Width, hex(sunsetBands[bandAt(y)]))
		}
	}
}

func (b *Balloon) drawBalloon(dst *image.RGBA, x, y int, squash float64, dir int) {
	squashF := 1 - squash*2
	stretchF := 1 + squash*1.6
	h := int(balloonHeight * squashF)
	w := int(balloonWidth * stretchF)

	if squash > 0 {
		y += dir * (balloonHeight - h) / 2
	}
	knotY := y + h + knotOffset

	fillEllipse(dst, x, y, w+1, h+1, balloonOutline)
	fillTriangle(dst, x-knotWidth-1, knotY, x+knotWidth+1, knotY, x, knotY+knotHeight+3, balloonOutline)

	fillEllipse(dst, x, y, w, h, balloonColor)
	fillEllipse(dst, x-3, y+int(-4*squashF), int(2*stretchF), int(3*squashF), balloonHighlight)
	fillTriangle(dst, x-knotWidth, knotY, x+knotWidth, knotY, x, knotY+knotHeight+2, balloonColor)

	b.drawString(dst, x, knotY+knotHeight+4)
}

func (b *Balloon) drawString(dst *image.RGBA, x, y int) {
	windCtrl := math.Sin(b.elapsed*windSpeed) * windAmplitude
	windEnd := math.Sin(b.elapsed*windSpeedEnd+1.5) * windAmplitude

	v := b.stringEndV
	if v > 0 {
		v *= stringPosFactor
	}
	lagX, lagY := v*stringLagX, v*stringLagY

	ctrlX := x + int(windCtrl)
	ctrlY := y + stringSeg1
	endX := x + int(stringBaseX+lagX+windEnd)
	endY := y + stringSeg2 + int(lagY)
	bezier(dst, x, y, ctrlX, ctrlY, endX, endY, stringColor)
}

func drawCollectible(dst *image.RGBA, x, y, alpha float64) {
	if alpha <= 0.01 {
		return
	}
	cx, cy := int(x+0.5), int(y+0.5)
	r := int(collectibleRadius * (0.5 + 0.5*alpha))
	if r <= 0 {
		return
	}
	fillCircle(dst, cx, cy, r, lerp(white, collectibleFade, alpha*0.6))
	if r > 1 {
		fillCircle(dst, cx, cy, r-1, lerp(white, collectibleFade, alpha*0.8))
	}
	if r > 2 {
		fillCircle(dst, cx, cy, r-2, lerp(white, collectibleFade, alpha))
	}
}
