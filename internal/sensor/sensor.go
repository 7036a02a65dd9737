// Package sensor acquires pressure readings and turns absolute pressure into
// the delta against a resting baseline that the breath detector consumes.
package sensor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

const (
	// StandardPressurePa is sea-level atmospheric pressure
	StandardPressurePa = 101325.0

	DefaultBaselineSamples  = 50
	DefaultBaselineInterval = 20 * time.Millisecond
)

// ErrNoSamples is returned when a baseline is requested over zero samples
var ErrNoSamples = errors.New("baseline needs at least one sample")

// Reading is one pressure sample
type Reading struct {
	Delta        float64 // Pa relative to the baseline; inhale < 0 < exhale
	Absolute     float64 // Pa
	TemperatureC float64
}

// Source yields one Reading per tick
type Source interface {
	Read(ctx context.Context) (Reading, error)
	Close() error
}

// PressureReader is an absolute pressure sensor
type PressureReader interface {
	Sense() (pressurePa, tempC float64, err error)
	Close() error
}

// Finite is implemented by sources that run out, like scripted simulations
type Finite interface {
	Done() bool
}

// Baseline averages samples absolute readings taken interval apart
func Baseline(ctx context.Context, r PressureReader, samples int, interval time.Duration) (float64, error) {
	if samples <= 0 {
		return 0, ErrNoSamples
	}

	var sum float64
	for i := 0; i < samples; i++ {
		if i > 0 && interval > 0 {
			select {
			case <-ctx.Done():
				return 0, ctx.Err()
			case <-time.After(interval):
			}
		} else if err := ctx.Err(); err != nil {
			return 0, err
		}

		p, _, err := r.Sense()
		if err != nil {
			return 0, fmt.Errorf("failed to read baseline sample %d: %w", i, err)
		}
		sum += p
	}
	return sum / float64(samples), nil
}

// BaselineSource turns a PressureReader into a Source by subtracting a
// resting baseline from every reading.
type BaselineSource struct {
	reader   PressureReader
	mu       sync.RWMutex
	baseline float64
}

// NewBaselineSource wraps r with a baseline of standard pressure until
// Calibrate or SetBaseline is called.
func NewBaselineSource(r PressureReader) *BaselineSource {
	return &BaselineSource{reader: r, baseline: StandardPressurePa}
}

// Calibrate measures and stores a new baseline
func (s *BaselineSource) Calibrate(ctx context.Context, samples int, interval time.Duration) (float64, error) {
	b, err := Baseline(ctx, s.reader, samples, interval)
	if err != nil {
		return 0, err
	}
	s.SetBaseline(b)
	return b, nil
}

func (s *BaselineSource) SetBaseline(pa float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.baseline = pa
}

func (s *BaselineSource) Baseline() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.baseline
}

func (s *BaselineSource) Read(ctx context.Context) (Reading, error) {
	if err := ctx.Err(); err != nil {
		return Reading{}, err
	}
	p, temp, err := s.reader.Sense()
	if err != nil {
		return Reading{}, err
	}
	return Reading{
		Delta:        p - s.Baseline(),
		Absolute:     p,
		TemperatureC: temp,
	}, nil
}

func (s *BaselineSource) Close() error {
	return s.reader.Close()
}
