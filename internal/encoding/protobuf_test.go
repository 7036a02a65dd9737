package encoding

import (
	"testing"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/synheart/synheart-breath/internal/breath"
	"github.com/synheart/synheart-breath/internal/models"
)

func testFrame() models.Frame {
	return models.Frame{
		SchemaVersion: models.FrameSchema,
		FrameID:       "frame-123",
		Timestamp:     "2026-01-02T10:00:00Z",
		AtMs:          1520,
		Source:        models.Source{Type: "simulated", ID: "sim-1"},
		Session:       models.Session{RunID: "run-1", Scenario: "calm", Seed: 42},
		Breath: models.Breath{
			Phase:         breath.Inhale,
			Normalized:    -0.75,
			NormalizedRaw: -0.75,
			DeltaPa:       -9,
			AbsolutePa:    101316,
			TemperatureC:  22,
			MinDelta:      -12,
			MaxDelta:      10,
			BreathCount:   4,
			AvgCycleMs:    812.5,
		},
		Meta: models.Meta{Sequence: 77},
	}
}

func TestProtobufEncoder_Fields(t *testing.T) {
	data, err := NewProtobufEncoder().Encode(testFrame())
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	var pb structpb.Struct
	if err := proto.Unmarshal(data, &pb); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	fields := pb.GetFields()
	if fields["schema_version"].GetStringValue() != models.FrameSchema {
		t.Errorf("schema version = %q", fields["schema_version"].GetStringValue())
	}
	b := fields["breath"].GetStructValue().GetFields()
	if b["phase"].GetStringValue() != "inhale" {
		t.Errorf("breath.phase = %q, want inhale", b["phase"].GetStringValue())
	}
	if b["delta_pa"].GetNumberValue() != -9 {
		t.Errorf("breath.delta_pa = %v, want -9", b["delta_pa"].GetNumberValue())
	}
	if fields["meta"].GetStructValue().GetFields()["sequence"].GetNumberValue() != 77 {
		t.Error("meta.sequence not encoded")
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	for _, format := range []Format{FormatJSON, FormatProtobuf} {
		codec := NewEncoder(format)
		want := testFrame()

		data, err := codec.Encode(want)
		if err != nil {
			t.Fatalf("%s: encode failed: %v", format, err)
		}
		got, err := codec.Decode(data)
		if err != nil {
			t.Fatalf("%s: decode failed: %v", format, err)
		}
		if got != want {
			t.Errorf("%s: round trip = %+v, want %+v", format, got, want)
		}
	}
}

func TestProtobufEncoder_OmitsEmptyOptionalFields(t *testing.T) {
	f := testFrame()
	f.Breath.AbsolutePa = 0
	f.Session.Scenario = ""

	data, err := NewProtobufEncoder().Encode(f)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	var pb structpb.Struct
	if err := proto.Unmarshal(data, &pb); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if _, ok := pb.GetFields()["breath"].GetStructValue().GetFields()["absolute_pa"]; ok {
		t.Error("absolute_pa should be omitted when zero")
	}
	if _, ok := pb.GetFields()["session"].GetStructValue().GetFields()["scenario"]; ok {
		t.Error("scenario should be omitted when empty")
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{"": FormatJSON, "JSON": FormatJSON, "protobuf": FormatProtobuf, "pb": FormatProtobuf}
	for in, want := range tests {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %v, %v; want %v", in, got, err, want)
		}
	}
	if _, err := ParseFormat("xml"); err == nil {
		t.Error("expected error for xml")
	}
}

func TestContentTypes(t *testing.T) {
	if NewJSONEncoder().ContentType() != "application/json" {
		t.Error("unexpected JSON content type")
	}
	if NewProtobufEncoder().ContentType() != "application/x-protobuf" {
		t.Error("unexpected protobuf content type")
	}
}
