package encoding

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/synheart/synheart-breath/internal/models"
)

// Format represents the encoding format
type Format string

const (
	FormatJSON     Format = "json"
	FormatProtobuf Format = "protobuf"
)

// ParseFormat validates a user-supplied format name
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case FormatJSON, "":
		return FormatJSON, nil
	case FormatProtobuf, "proto", "pb":
		return FormatProtobuf, nil
	default:
		return "", fmt.Errorf("unknown format %q (use json or protobuf)", s)
	}
}

// Encoder encodes frames to bytes
type Encoder interface {
	Encode(frame models.Frame) ([]byte, error)
	ContentType() string
}

// Decoder decodes frames produced by the matching Encoder
type Decoder interface {
	Decode(data []byte) (models.Frame, error)
}

// Codec encodes and decodes frames
type Codec interface {
	Encoder
	Decoder
}

// JSONEncoder encodes frames as JSON
type JSONEncoder struct{}

func NewJSONEncoder() *JSONEncoder {
	return &JSONEncoder{}
}

func (e *JSONEncoder) Encode(frame models.Frame) ([]byte, error) {
	return json.Marshal(frame)
}

func (e *JSONEncoder) Decode(data []byte) (models.Frame, error) {
	var frame models.Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		return models.Frame{}, fmt.Errorf("failed to decode JSON frame: %w", err)
	}
	return frame, nil
}

func (e *JSONEncoder) ContentType() string {
	return "application/json"
}

// NewEncoder creates an encoder for the given format
func NewEncoder(format Format) Codec {
	switch format {
	case FormatProtobuf:
		return NewProtobufEncoder()
	default:
		return NewJSONEncoder()
	}
}
