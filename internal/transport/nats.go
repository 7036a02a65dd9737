package transport

import (
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/synheart/synheart-breath/internal/encoding"
	"github.com/synheart/synheart-breath/internal/models"
)

type natsConn interface {
	Publish(subj string, data []byte) error
	Drain() error
}

// NATSPublisher publishes frames on <subject>.<phase> so subscribers can
// pick phases with wildcards, e.g. "breath.frames.inhale" or "breath.frames.>".
type NATSPublisher struct {
	conn    natsConn
	subject string
	encoder encoding.Encoder
}

// ConnectNATS connects to url (e.g. nats://127.0.0.1:4222)
func ConnectNATS(url, subject string, encoder encoding.Encoder) (*NATSPublisher, error) {
	nc, err := nats.Connect(
		url,
		nats.Name("synheart-breath"),
		nats.Timeout(3*time.Second),
		nats.ReconnectWait(500*time.Millisecond),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS %s: %w", url, err)
	}
	log.Printf("nats: connected to %s, publishing on %s.>", url, subject)
	return newNATSPublisher(nc, subject, encoder), nil
}

func newNATSPublisher(conn natsConn, subject string, encoder encoding.Encoder) *NATSPublisher {
	return &NATSPublisher{conn: conn, subject: subject, encoder: encoder}
}

// SubjectFor returns the subject a frame is published on
func (p *NATSPublisher) SubjectFor(frame models.Frame) string {
	return p.subject + "." + frame.Breath.Phase.String()
}

func (p *NATSPublisher) Broadcast(frame models.Frame) error {
	data, err := p.encoder.Encode(frame)
	if err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	if err := p.conn.Publish(p.SubjectFor(frame), data); err != nil {
		return fmt.Errorf("failed to publish frame: %w", err)
	}
	return nil
}

// Close flushes pending frames and closes the connection
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
