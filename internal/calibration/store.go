// Package calibration persists the inhale/exhale thresholds used by the
// breath detector. Stores validate on save so the detector itself never has
// to; loading from an empty store yields the default thresholds.
package calibration

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/synheart/synheart-breath/internal/breath"
)

// Store persists calibration thresholds
type Store interface {
	Load(ctx context.Context) (breath.Thresholds, error)
	Save(ctx context.Context, th breath.Thresholds) error
	Reset(ctx context.Context) error
	Close() error
}

// Kind selects a Store implementation
type Kind string

const (
	KindMemory Kind = "memory"
	KindFile   Kind = "file"
	KindSQLite Kind = "sqlite"
)

// ErrUnknownKind is returned by Open for an unsupported store kind
var ErrUnknownKind = errors.New("unknown calibration store")

// ValidationError reports thresholds rejected by Validate
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Validate checks that inhale < 0 < exhale and both are finite
func Validate(th breath.Thresholds) error {
	if math.IsNaN(th.Inhale) || math.IsInf(th.Inhale, 0) {
		return &ValidationError{Field: "inhale_pa", Message: "must be a finite number"}
	}
	if math.IsNaN(th.Exhale) || math.IsInf(th.Exhale, 0) {
		return &ValidationError{Field: "exhale_pa", Message: "must be a finite number"}
	}
	if th.Inhale >= 0 {
		return &ValidationError{Field: "inhale_pa", Message: "must be negative"}
	}
	if th.Exhale <= 0 {
		return &ValidationError{Field: "exhale_pa", Message: "must be positive"}
	}
	return nil
}

// Open creates the store selected by kind. path is ignored for memory stores.
func Open(kind Kind, path string) (Store, error) {
	switch Kind(strings.ToLower(string(kind))) {
	case KindMemory, "":
		return NewMemoryStore(), nil
	case KindFile:
		return NewFileStore(path), nil
	case KindSQLite:
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, kind)
	}
}

// MemoryStore keeps thresholds in process memory
type MemoryStore struct {
	mu     sync.RWMutex
	th     breath.Thresholds
	stored bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Load(ctx context.Context) (breath.Thresholds, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.stored {
		return breath.DefaultThresholds(), nil
	}
	return m.th, nil
}

func (m *MemoryStore) Save(ctx context.Context, th breath.Thresholds) error {
	if err := Validate(th); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.th = th
	m.stored = true
	return nil
}

func (m *MemoryStore) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.th = breath.Thresholds{}
	m.stored = false
	return nil
}

func (m *MemoryStore) Close() error { return nil }
