package transport

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/synheart/synheart-breath/internal/models"
)

func seqFrame(seq int64) models.Frame {
	return models.Frame{SchemaVersion: models.FrameSchema, Meta: models.Meta{Sequence: seq}}
}

func TestDispatcher_MultipleSubscribers(t *testing.T) {
	source := make(chan models.Frame, 10)
	dispatcher := NewDispatcher(source, 10)

	sub1 := dispatcher.Subscribe()
	sub2 := dispatcher.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go dispatcher.Run(ctx)

	numFrames := 10
	for i := 0; i < numFrames; i++ {
		source <- seqFrame(int64(i))
	}
	close(source)

	var wg sync.WaitGroup
	var got1, got2 []int64

	wg.Add(2)
	go func() {
		defer wg.Done()
		for f := range sub1 {
			got1 = append(got1, f.Meta.Sequence)
		}
	}()
	go func() {
		defer wg.Done()
		for f := range sub2 {
			got2 = append(got2, f.Meta.Sequence)
		}
	}()
	wg.Wait()

	if len(got1) != numFrames || len(got2) != numFrames {
		t.Fatalf("got %d and %d frames, want %d each", len(got1), len(got2), numFrames)
	}
	for i := 0; i < numFrames; i++ {
		if got1[i] != int64(i) || got2[i] != int64(i) {
			t.Errorf("frame %d: sub1=%d sub2=%d", i, got1[i], got2[i])
		}
	}
	if dispatcher.GetDroppedCount() != 0 {
		t.Errorf("dropped = %d, want 0", dispatcher.GetDroppedCount())
	}
}

func TestDispatcher_ContextCancellation(t *testing.T) {
	source := make(chan models.Frame)
	dispatcher := NewDispatcher(source, 10)
	sub := dispatcher.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		dispatcher.Run(ctx)
		close(done)
	}()

	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop after context cancellation")
	}

	if _, ok := <-sub; ok {
		t.Error("subscriber channel should be closed after dispatcher stops")
	}
}

func TestDispatcher_DropsWhenSubscriberIsFull(t *testing.T) {
	source := make(chan models.Frame, 20)
	dispatcher := NewDispatcher(source, 2)
	sub := dispatcher.Subscribe()

	// Nobody reads sub until the source is drained
	for i := 0; i < 20; i++ {
		source <- seqFrame(int64(i))
	}
	close(source)

	dispatcher.Run(context.Background())

	received := 0
	for range sub {
		received++
	}

	if received != 2 {
		t.Errorf("received %d frames, want buffer size 2", received)
	}
	if dispatcher.GetDroppedCount() != 18 {
		t.Errorf("dropped = %d, want 18", dispatcher.GetDroppedCount())
	}
}

func TestDispatcher_LosslessSubscriberWaits(t *testing.T) {
	source := make(chan models.Frame, 20)
	dispatcher := NewDispatcher(source, 2)
	lossy := dispatcher.Subscribe()
	lossless := dispatcher.SubscribeLossless()

	for i := 0; i < 20; i++ {
		source <- seqFrame(int64(i))
	}
	close(source)

	go dispatcher.Run(context.Background())

	var got []int64
	for f := range lossless {
		got = append(got, f.Meta.Sequence)
	}
	if len(got) != 20 {
		t.Fatalf("lossless subscriber received %d frames, want 20", len(got))
	}
	for i, seq := range got {
		if seq != int64(i) {
			t.Fatalf("frame %d has sequence %d", i, seq)
		}
	}

	received := 0
	for range lossy {
		received++
	}
	if received != 2 {
		t.Errorf("lossy subscriber received %d frames, want 2", received)
	}
	if dispatcher.GetDroppedCount() != 18 {
		t.Errorf("dropped = %d, want 18", dispatcher.GetDroppedCount())
	}
}

func TestDispatcher_GetSubscriberCount(t *testing.T) {
	dispatcher := NewDispatcher(make(chan models.Frame), 1)
	if dispatcher.GetSubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers initially, got %d", dispatcher.GetSubscriberCount())
	}
	dispatcher.Subscribe()
	dispatcher.Subscribe()
	if dispatcher.GetSubscriberCount() != 2 {
		t.Errorf("expected 2 subscribers, got %d", dispatcher.GetSubscriberCount())
	}
}

type recordingBroadcaster struct {
	mu     sync.Mutex
	frames []models.Frame
}

func (r *recordingBroadcaster) Broadcast(f models.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frames = append(r.frames, f)
	return nil
}

func TestPump(t *testing.T) {
	frames := make(chan models.Frame, 3)
	for i := 0; i < 3; i++ {
		frames <- seqFrame(int64(i))
	}
	close(frames)

	rec := &recordingBroadcaster{}
	if err := Pump(context.Background(), "test", frames, rec); err != nil {
		t.Fatalf("pump returned %v", err)
	}
	if len(rec.frames) != 3 {
		t.Errorf("broadcast %d frames, want 3", len(rec.frames))
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := Pump(ctx, "test", make(chan models.Frame), rec); err != context.Canceled {
		t.Errorf("pump on cancelled context returned %v", err)
	}
}
