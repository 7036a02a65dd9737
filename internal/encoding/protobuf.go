package encoding

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/synheart/synheart-breath/internal/models"
)

// ProtobufEncoder encodes frames as a google.protobuf.Struct so consumers
// need no generated code to read them.
type ProtobufEncoder struct{}

func NewProtobufEncoder() *ProtobufEncoder {
	return &ProtobufEncoder{}
}

func (e *ProtobufEncoder) Encode(frame models.Frame) ([]byte, error) {
	pb, err := frameToProto(frame)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(pb)
}

func (e *ProtobufEncoder) Decode(data []byte) (models.Frame, error) {
	var pb structpb.Struct
	if err := proto.Unmarshal(data, &pb); err != nil {
		return models.Frame{}, fmt.Errorf("failed to decode protobuf frame: %w", err)
	}

	// Struct numbers are doubles; a JSON hop restores the typed fields
	raw, err := json.Marshal(pb.AsMap())
	if err != nil {
		return models.Frame{}, fmt.Errorf("failed to convert protobuf frame: %w", err)
	}
	return NewJSONEncoder().Decode(raw)
}

func (e *ProtobufEncoder) ContentType() string {
	return "application/x-protobuf"
}

func frameToProto(f models.Frame) (*structpb.Struct, error) {
	b := f.Breath
	breath := map[string]any{
		"phase":          b.Phase.String(),
		"normalized":     b.Normalized,
		"normalized_raw": b.NormalizedRaw,
		"delta_pa":       b.DeltaPa,
		"min_delta":      b.MinDelta,
		"max_delta":      b.MaxDelta,
		"breath_count":   b.BreathCount,
		"avg_cycle_ms":   b.AvgCycleMs,
	}
	if b.AbsolutePa != 0 {
		breath["absolute_pa"] = b.AbsolutePa
	}
	if b.TemperatureC != 0 {
		breath["temperature_c"] = b.TemperatureC
	}

	session := map[string]any{
		"run_id": f.Session.RunID,
	}
	if f.Session.Scenario != "" {
		session["scenario"] = f.Session.Scenario
	}
	if f.Session.Seed != 0 {
		session["seed"] = f.Session.Seed
	}

	pb, err := structpb.NewStruct(map[string]any{
		"schema_version": f.SchemaVersion,
		"frame_id":       f.FrameID,
		"ts":             f.Timestamp,
		"at_ms":          f.AtMs,
		"source": map[string]any{
			"type": f.Source.Type,
			"id":   f.Source.ID,
		},
		"session": session,
		"breath":  breath,
		"meta": map[string]any{
			"sequence": f.Meta.Sequence,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build protobuf frame: %w", err)
	}
	return pb, nil
}
