package models

import (
	"math"
	"time"

	"github.com/synheart/synheart-breath/internal/breath"
)

// SessionSchema is the schema version of a stored session summary
const SessionSchema = "breath.session.v1"

// SessionSummary is the record persisted when a session ends
type SessionSummary struct {
	Schema       string            `json:"schema"`
	SessionID    string            `json:"session_id"`
	StartedAtUTC string            `json:"started_at_utc"`
	EndedAtUTC   string            `json:"ended_at_utc"`
	Source       string            `json:"source"`
	Scenario     string            `json:"scenario,omitempty"`
	Scene        string            `json:"scene,omitempty"`
	DurationMs   int64             `json:"duration_ms"`
	BreathCount  uint64            `json:"breath_count"`
	AvgCycleMs   float64           `json:"avg_cycle_ms"`
	Thresholds   breath.Thresholds `json:"thresholds"`
	Bounds       breath.Bounds     `json:"bounds"`
	Score        int               `json:"score,omitempty"`
}

// BreathsPerMinute derives the mean breathing rate over the whole session
func (s *SessionSummary) BreathsPerMinute() float64 {
	if s.DurationMs <= 0 {
		return 0
	}
	return float64(s.BreathCount) * 60000 / float64(s.DurationMs)
}

// Validate checks the summary before it is stored or exported
func (s *SessionSummary) Validate() error {
	if s.Schema != SessionSchema {
		return &ValidationError{Field: "schema", Message: "must be '" + SessionSchema + "'"}
	}
	if s.SessionID == "" {
		return &ValidationError{Field: "session_id", Message: "is required"}
	}
	started, err := time.Parse(time.RFC3339, s.StartedAtUTC)
	if err != nil {
		return &ValidationError{Field: "started_at_utc", Message: "must be valid RFC3339 timestamp"}
	}
	ended, err := time.Parse(time.RFC3339, s.EndedAtUTC)
	if err != nil {
		return &ValidationError{Field: "ended_at_utc", Message: "must be valid RFC3339 timestamp"}
	}
	if ended.Before(started) {
		return &ValidationError{Field: "ended_at_utc", Message: "must not be before started_at_utc"}
	}
	if s.Source == "" {
		return &ValidationError{Field: "source", Message: "is required"}
	}
	if s.DurationMs < 0 {
		return &ValidationError{Field: "duration_ms", Message: "must not be negative"}
	}
	if math.IsNaN(s.AvgCycleMs) || s.AvgCycleMs < 0 {
		return &ValidationError{Field: "avg_cycle_ms", Message: "must be a non-negative number"}
	}
	return nil
}

// ValidationError represents a schema validation error
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}
