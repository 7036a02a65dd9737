package sensor

import (
	"context"
	"fmt"
)

// Filter transforms one pressure delta
type Filter interface {
	Apply(ctx context.Context, x float64) (float64, error)
}

// Filtered passes every delta of a source through a Filter. The absolute
// reading is left untouched.
type Filtered struct {
	src    Source
	filter Filter
}

func NewFiltered(src Source, f Filter) *Filtered {
	return &Filtered{src: src, filter: f}
}

func (f *Filtered) Read(ctx context.Context) (Reading, error) {
	r, err := f.src.Read(ctx)
	if err != nil {
		return Reading{}, err
	}
	r.Delta, err = f.filter.Apply(ctx, r.Delta)
	if err != nil {
		return Reading{}, fmt.Errorf("failed to filter sample: %w", err)
	}
	return r, nil
}

// Done forwards to the wrapped source when it is finite
func (f *Filtered) Done() bool {
	if fin, ok := f.src.(Finite); ok {
		return fin.Done()
	}
	return false
}

func (f *Filtered) Close() error {
	return f.src.Close()
}
