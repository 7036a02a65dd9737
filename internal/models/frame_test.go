package models

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/synheart/synheart-breath/internal/breath"
)

func TestNewFrame(t *testing.T) {
	source := Source{Type: "simulated", ID: "sim-1"}
	session := Session{RunID: "run-1", Scenario: "calm", Seed: 42}
	b := Breath{Phase: breath.Inhale, Normalized: -0.4, DeltaPa: -8}

	frame := NewFrame("frame-1", 1200, source, session, b, 7)

	if frame.SchemaVersion != FrameSchema {
		t.Errorf("schema version = %q, want %q", frame.SchemaVersion, FrameSchema)
	}
	if frame.FrameID != "frame-1" {
		t.Errorf("frame id = %q, want frame-1", frame.FrameID)
	}
	if frame.AtMs != 1200 {
		t.Errorf("at_ms = %d, want 1200", frame.AtMs)
	}
	if frame.Meta.Sequence != 7 {
		t.Errorf("sequence = %d, want 7", frame.Meta.Sequence)
	}
	if frame.Timestamp == "" {
		t.Error("expected timestamp to be set")
	}
}

func TestFrameJSONMarshaling(t *testing.T) {
	frame := NewFrame("frame-2", 40, Source{Type: "bmp280", ID: "i2c-0x76"},
		Session{RunID: "run-2"}, Breath{Phase: breath.Exhale, Normalized: 0.5, BreathCount: 3}, 2)

	data, err := json.Marshal(frame)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	s := string(data)
	for _, want := range []string{`"phase":"exhale"`, `"schema_version":"breath.frame.v1"`, `"breath_count":3`} {
		if !strings.Contains(s, want) {
			t.Errorf("json %s missing %s", s, want)
		}
	}
	if strings.Contains(s, "scenario") {
		t.Errorf("empty scenario should be omitted: %s", s)
	}

	var decoded Frame
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded.Breath.Phase != breath.Exhale {
		t.Errorf("phase = %v, want exhale", decoded.Breath.Phase)
	}
}

func TestBreathFromRecord(t *testing.T) {
	r := breath.New(breath.DefaultThresholds(), 0)
	r.Detect(-25, 20)

	b := BreathFromRecord(r, -25)

	if b.Phase != breath.Inhale {
		t.Errorf("phase = %v, want inhale", b.Phase)
	}
	if b.Normalized != -1 {
		t.Errorf("normalized = %v, want clamped -1", b.Normalized)
	}
	if b.NormalizedRaw >= -1 {
		t.Errorf("normalized raw = %v, want below -1", b.NormalizedRaw)
	}
	if b.DeltaPa != -25 {
		t.Errorf("delta = %v, want -25", b.DeltaPa)
	}
	if b.MinDelta != r.MinDelta() {
		t.Errorf("min delta = %v, want %v", b.MinDelta, r.MinDelta())
	}
}
