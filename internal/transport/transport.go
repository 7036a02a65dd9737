package transport

import (
	"context"
	"log"

	"github.com/synheart/synheart-breath/internal/models"
)

// Broadcaster delivers frames to its consumers
type Broadcaster interface {
	Broadcast(frame models.Frame) error
}

// Pump broadcasts frames until the channel closes or ctx is cancelled.
// Broadcast errors are logged and do not stop the pump.
func Pump(ctx context.Context, name string, frames <-chan models.Frame, b Broadcaster) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case frame, ok := <-frames:
			if !ok {
				return nil
			}
			if err := b.Broadcast(frame); err != nil {
				log.Printf("%s: broadcast error: %v", name, err)
			}
		}
	}
}
