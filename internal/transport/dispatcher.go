package transport

import (
	"context"
	"log"
	"sync"
	"sync/atomic"

	"github.com/synheart/synheart-breath/internal/models"
)

// Dispatcher copies frames from the control loop to every subscriber.
// A subscriber whose buffer is full misses the frame; the loop never blocks
// on a slow consumer. Drops are counted and logged. Lossless subscribers,
// such as recorders, are waited for instead.
type Dispatcher struct {
	source       <-chan models.Frame
	subscribers  []subscriber
	bufferSize   int
	mu           sync.Mutex
	droppedTotal int64
}

type subscriber struct {
	ch       chan models.Frame
	lossless bool
}

func NewDispatcher(source <-chan models.Frame, bufferSize int) *Dispatcher {
	return &Dispatcher{
		source:     source,
		bufferSize: bufferSize,
	}
}

// Subscribe returns a channel that receives copies of all source frames.
// Subscribe before Run to see every frame.
func (d *Dispatcher) Subscribe() <-chan models.Frame {
	return d.subscribe(false)
}

// SubscribeLossless is like Subscribe but the dispatcher waits for room in
// the buffer instead of dropping, which slows every other subscriber.
func (d *Dispatcher) SubscribeLossless() <-chan models.Frame {
	return d.subscribe(true)
}

func (d *Dispatcher) subscribe(lossless bool) <-chan models.Frame {
	ch := make(chan models.Frame, d.bufferSize)
	d.mu.Lock()
	d.subscribers = append(d.subscribers, subscriber{ch: ch, lossless: lossless})
	d.mu.Unlock()
	return ch
}

// GetSubscriberCount returns the current number of subscribers
func (d *Dispatcher) GetSubscriberCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.subscribers)
}

// GetDroppedCount returns how many deliveries were skipped on full buffers
func (d *Dispatcher) GetDroppedCount() int64 {
	return atomic.LoadInt64(&d.droppedTotal)
}

// Run blocks until ctx is cancelled or source closes, then closes every
// subscriber channel.
func (d *Dispatcher) Run(ctx context.Context) {
	defer d.closeSubscribers()

	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-d.source:
			if !ok {
				return
			}
			d.dispatch(ctx, frame)
		}
	}
}

func (d *Dispatcher) dispatch(ctx context.Context, frame models.Frame) {
	d.mu.Lock()
	subs := d.subscribers
	d.mu.Unlock()

	dropped := 0
	for _, sub := range subs {
		if sub.lossless {
			select {
			case sub.ch <- frame:
			case <-ctx.Done():
				return
			}
			continue
		}
		select {
		case sub.ch <- frame:
		case <-ctx.Done():
			return
		default:
			dropped++
			atomic.AddInt64(&d.droppedTotal, 1)
		}
	}

	if dropped > 0 {
		log.Printf("dispatcher: dropped frame %d for %d subscriber(s) (buffer full)", frame.Meta.Sequence, dropped)
	}
}

func (d *Dispatcher) closeSubscribers() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, sub := range d.subscribers {
		close(sub.ch)
	}
}
