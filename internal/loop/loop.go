// Package loop drives one breath session: it reads the sensor every tick,
// runs detection, emits frames and paces the active scene.
package loop

import (
	"context"
	"fmt"
	"image"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/synheart/synheart-breath/internal/breath"
	"github.com/synheart/synheart-breath/internal/display"
	"github.com/synheart/synheart-breath/internal/models"
	"github.com/synheart/synheart-breath/internal/scene"
	"github.com/synheart/synheart-breath/internal/sensor"
)

// DefaultInterval is the main loop period (50 Hz)
const DefaultInterval = 20 * time.Millisecond

// Config wires a Runner. Scene, Sink and Frames are optional.
type Config struct {
	Thresholds breath.Thresholds
	Source     sensor.Source
	SourceInfo models.Source
	Session    models.Session
	SceneName  string
	Sink       display.Sink
	Frames     chan<- models.Frame

	// Advance is called with the tick interval before every simulated tick
	Advance func(d time.Duration)
}

// Runner owns the breath record of one session
type Runner struct {
	cfg    Config
	record *breath.Record
	scene  scene.Scene
	canvas *image.RGBA

	sessionID   string
	startedAt   time.Time
	sequence    int64
	lastTickAt  int64
	lastRender  int64
	rendered    bool
	lastReading sensor.Reading
	readErrors  int
}

// New creates a runner whose session starts at now (monotonic ms)
func New(cfg Config, now int64) (*Runner, error) {
	if cfg.Source == nil {
		return nil, fmt.Errorf("no sensor source configured")
	}
	if cfg.Session.RunID == "" {
		cfg.Session.RunID = uuid.New().String()
	}

	r := &Runner{
		cfg:        cfg,
		record:     breath.New(cfg.Thresholds, now),
		sessionID:  cfg.Session.RunID,
		startedAt:  time.Now().UTC(),
		lastTickAt: now,
	}

	if cfg.SceneName != "" {
		s, err := scene.New(cfg.SceneName, r.record, cfg.Session.Seed)
		if err != nil {
			return nil, err
		}
		r.scene = s
		r.canvas = scene.NewCanvas()
		if r.cfg.Sink == nil {
			r.cfg.Sink = display.Discard{}
		}
	}
	return r, nil
}

// Record exposes the breath state, read-only by convention
func (r *Runner) Record() *breath.Record { return r.record }

// Scene returns the active scene, or nil when running headless
func (r *Runner) Scene() scene.Scene { return r.scene }

// LastReading returns the most recent sensor reading
func (r *Runner) LastReading() sensor.Reading { return r.lastReading }

// Tick performs one iteration of the control loop at time now
func (r *Runner) Tick(ctx context.Context, now int64) error {
	reading, err := r.cfg.Source.Read(ctx)
	if err != nil {
		r.readErrors++
		return fmt.Errorf("failed to read sensor: %w", err)
	}
	r.lastReading = reading
	r.lastTickAt = now

	r.record.Detect(reading.Delta, now)

	if r.cfg.Frames != nil {
		b := models.BreathFromRecord(r.record, reading.Delta)
		b.AbsolutePa = reading.Absolute
		b.TemperatureC = reading.TemperatureC
		frame := models.NewFrame(uuid.New().String(), now, r.cfg.SourceInfo, r.cfg.Session, b, r.sequence)
		r.sequence++

		select {
		case r.cfg.Frames <- frame:
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	if r.scene != nil {
		r.drawScene(now, reading)
	}
	return nil
}

func (r *Runner) drawScene(now int64, reading sensor.Reading) {
	if obs, ok := r.scene.(scene.Observer); ok {
		obs.Observe(reading)
	}

	interval := scene.FrameIntervalMs(r.scene)
	if r.rendered && now-r.lastRender < interval {
		return
	}

	dt := float64(interval) / 1000
	if r.rendered {
		dt = float64(now-r.lastRender) / 1000
	}
	r.lastRender = now
	r.rendered = true

	r.scene.Update(dt)
	r.scene.Render(r.canvas)
	if err := r.cfg.Sink.Show(r.canvas); err != nil {
		log.Printf("loop: display error: %v", err)
	}
}

// Run ticks every interval until ctx is cancelled or a finite source is done
func (r *Runner) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	start := time.Now()
	base := r.lastTickAt

	for {
		select {
		case <-ctx.Done():
			return nil
		case t := <-ticker.C:
			if r.finished() {
				return nil
			}
			now := base + t.Sub(start).Milliseconds()
			if err := r.Tick(ctx, now); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				log.Printf("loop: %v", err)
			}
		}
	}
}

// Simulate ticks as fast as possible with a step of interval, calling
// Config.Advance before each tick. It stops after limit ticks (0 for no
// limit), on cancellation or when a finite source is done.
func (r *Runner) Simulate(ctx context.Context, interval time.Duration, limit int) error {
	step := interval.Milliseconds()
	for i := 0; limit == 0 || i < limit; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if r.cfg.Advance != nil {
			r.cfg.Advance(interval)
		}
		if r.finished() {
			return nil
		}
		if err := r.Tick(ctx, r.lastTickAt+step); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) finished() bool {
	f, ok := r.cfg.Source.(sensor.Finite)
	return ok && f.Done()
}

// ResetSession clears the counters and starts a new session
func (r *Runner) ResetSession() {
	r.record.ResetSession(r.lastTickAt)
	r.startedAt = time.Now().UTC()
	r.sessionID = uuid.New().String()
}

// ReadErrors counts failed sensor reads
func (r *Runner) ReadErrors() int { return r.readErrors }

// Summary describes the session so far
func (r *Runner) Summary() models.SessionSummary {
	s := models.SessionSummary{
		Schema:       models.SessionSchema,
		SessionID:    r.sessionID,
		StartedAtUTC: r.startedAt.Format(time.RFC3339),
		EndedAtUTC:   time.Now().UTC().Format(time.RFC3339),
		Source:       r.cfg.SourceInfo.Type,
		Scenario:     r.cfg.Session.Scenario,
		DurationMs:   r.lastTickAt - r.record.SessionStartAt(),
		BreathCount:  r.record.BreathCount(),
		AvgCycleMs:   r.record.AvgCycleDurationMs(),
		Thresholds:   r.record.Thresholds(),
		Bounds:       r.record.Bounds(),
	}
	if r.scene != nil {
		s.Scene = r.scene.Name()
		if b, ok := r.scene.(*scene.Balloon); ok {
			s.Score = b.Score()
		}
	}
	return s
}
