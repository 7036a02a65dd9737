package models

import (
	"time"

	"github.com/synheart/synheart-breath/internal/breath"
)

// FrameSchema is the schema version stamped on every frame
const FrameSchema = "breath.frame.v1"

// Frame is the per-tick envelope published to transports and recordings
type Frame struct {
	SchemaVersion string  `json:"schema_version"`
	FrameID       string  `json:"frame_id"`
	Timestamp     string  `json:"ts"`
	AtMs          int64   `json:"at_ms"`
	Source        Source  `json:"source"`
	Session       Session `json:"session"`
	Breath        Breath  `json:"breath"`
	Meta          Meta    `json:"meta"`
}

// Source identifies the pressure source that produced the frame
type Source struct {
	Type string `json:"type"` // "bmp280", "serial", "simulated" or "replay"
	ID   string `json:"id"`
}

// Session contains metadata about the running session
type Session struct {
	RunID    string `json:"run_id"`
	Scenario string `json:"scenario,omitempty"`
	Seed     int64  `json:"seed,omitempty"`
}

// Breath is the detector output for one tick
type Breath struct {
	Phase         breath.Phase `json:"phase"`
	Normalized    float64      `json:"normalized"`
	NormalizedRaw float64      `json:"normalized_raw"`
	DeltaPa       float64      `json:"delta_pa"`
	AbsolutePa    float64      `json:"absolute_pa,omitempty"`
	TemperatureC  float64      `json:"temperature_c,omitempty"`
	MinDelta      float64      `json:"min_delta"`
	MaxDelta      float64      `json:"max_delta"`
	BreathCount   uint64       `json:"breath_count"`
	AvgCycleMs    float64      `json:"avg_cycle_ms"`
}

// Meta contains additional frame metadata
type Meta struct {
	Sequence int64 `json:"sequence"`
}

// NewFrame creates a Frame stamped with the current wall-clock time
func NewFrame(frameID string, atMs int64, source Source, session Session, b Breath, sequence int64) Frame {
	return Frame{
		SchemaVersion: FrameSchema,
		FrameID:       frameID,
		Timestamp:     time.Now().UTC().Format(time.RFC3339Nano),
		AtMs:          atMs,
		Source:        source,
		Session:       session,
		Breath:        b,
		Meta: Meta{
			Sequence: sequence,
		},
	}
}

// BreathFromRecord snapshots the read API of a record
func BreathFromRecord(r *breath.Record, delta float64) Breath {
	return Breath{
		Phase:         r.Phase(),
		Normalized:    r.NormalizedClamped(),
		NormalizedRaw: r.NormalizedRaw(),
		DeltaPa:       delta,
		MinDelta:      r.MinDelta(),
		MaxDelta:      r.MaxDelta(),
		BreathCount:   r.BreathCount(),
		AvgCycleMs:    r.AvgCycleDurationMs(),
	}
}
