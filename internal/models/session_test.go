package models

import "testing"

func validSummary() SessionSummary {
	return SessionSummary{
		Schema:       SessionSchema,
		SessionID:    "session-1",
		StartedAtUTC: "2026-01-16T12:00:00Z",
		EndedAtUTC:   "2026-01-16T12:05:00Z",
		Source:       "simulated",
		DurationMs:   300000,
		BreathCount:  60,
		AvgCycleMs:   5000,
	}
}

func TestSessionSummary_Validate_Valid(t *testing.T) {
	s := validSummary()
	if err := s.Validate(); err != nil {
		t.Errorf("expected valid summary, got error: %v", err)
	}
}

func TestSessionSummary_Validate_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SessionSummary)
		field  string
	}{
		{"wrong schema", func(s *SessionSummary) { s.Schema = "wrong.schema" }, "schema"},
		{"missing id", func(s *SessionSummary) { s.SessionID = "" }, "session_id"},
		{"bad start", func(s *SessionSummary) { s.StartedAtUTC = "yesterday" }, "started_at_utc"},
		{"bad end", func(s *SessionSummary) { s.EndedAtUTC = "" }, "ended_at_utc"},
		{"end before start", func(s *SessionSummary) { s.EndedAtUTC = "2026-01-16T11:00:00Z" }, "ended_at_utc"},
		{"missing source", func(s *SessionSummary) { s.Source = "" }, "source"},
		{"negative duration", func(s *SessionSummary) { s.DurationMs = -1 }, "duration_ms"},
		{"negative average", func(s *SessionSummary) { s.AvgCycleMs = -5 }, "avg_cycle_ms"},
	}

	for _, tt := range tests {
		s := validSummary()
		tt.mutate(&s)

		err := s.Validate()
		if err == nil {
			t.Errorf("%s: expected error", tt.name)
			continue
		}
		valErr, ok := err.(*ValidationError)
		if !ok {
			t.Errorf("%s: expected ValidationError, got %T", tt.name, err)
			continue
		}
		if valErr.Field != tt.field {
			t.Errorf("%s: field = %q, want %q", tt.name, valErr.Field, tt.field)
		}
	}
}

func TestSessionSummary_BreathsPerMinute(t *testing.T) {
	s := validSummary()
	if got := s.BreathsPerMinute(); got != 12 {
		t.Errorf("bpm = %v, want 12", got)
	}
	s.DurationMs = 0
	if got := s.BreathsPerMinute(); got != 0 {
		t.Errorf("bpm = %v, want 0 for an empty session", got)
	}
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Field: "schema", Message: "is required"}
	if err.Error() != "schema: is required" {
		t.Errorf("error = %q", err.Error())
	}
}
