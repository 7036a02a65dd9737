package sensor

import (
	"context"

	"github.com/synheart/synheart-breath/internal/generator"
)

// SimulatedTemperatureC is reported by the simulated source
const SimulatedTemperatureC = 22.0

// Simulated reads from a scenario-driven breath generator
type Simulated struct {
	gen *generator.Generator
}

func NewSimulated(g *generator.Generator) *Simulated {
	return &Simulated{gen: g}
}

func (s *Simulated) Read(ctx context.Context) (Reading, error) {
	if err := ctx.Err(); err != nil {
		return Reading{}, err
	}
	d := s.gen.Next()
	return Reading{
		Delta:        d,
		Absolute:     StandardPressurePa + d,
		TemperatureC: SimulatedTemperatureC,
	}, nil
}

// Done reports whether the scenario has run its full duration
func (s *Simulated) Done() bool {
	return s.gen.Engine().IsComplete()
}

// Generator returns the underlying generator
func (s *Simulated) Generator() *generator.Generator {
	return s.gen
}

func (s *Simulated) Close() error { return nil }
