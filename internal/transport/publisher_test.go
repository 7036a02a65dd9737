package transport

import (
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/synheart/synheart-breath/internal/breath"
	"github.com/synheart/synheart-breath/internal/encoding"
)

type doneToken struct {
	err error
}

func (t doneToken) Wait() bool                     { return true }
func (t doneToken) WaitTimeout(time.Duration) bool { return true }
func (t doneToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}
func (t doneToken) Error() error { return t.err }

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  interface{}
}

type fakeMQTT struct {
	messages     []published
	err          error
	disconnected bool
}

func (f *fakeMQTT) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	f.messages = append(f.messages, published{topic, qos, retained, payload})
	return doneToken{err: f.err}
}

func (f *fakeMQTT) Disconnect(quiesce uint) { f.disconnected = true }

func TestMQTTPublisher_PhaseChanges(t *testing.T) {
	client := &fakeMQTT{}
	p := newMQTTPublisher(client, "breath", encoding.NewJSONEncoder())

	phases := []breath.Phase{breath.Idle, breath.Exhale, breath.Exhale, breath.Inhale}
	for i, ph := range phases {
		if err := p.Broadcast(breathFrame(ph, int64(i))); err != nil {
			t.Fatalf("broadcast failed: %v", err)
		}
	}

	var frames, phaseMsgs []published
	for _, m := range client.messages {
		switch m.topic {
		case "breath/frames":
			frames = append(frames, m)
		case "breath/phase":
			phaseMsgs = append(phaseMsgs, m)
		default:
			t.Errorf("unexpected topic %s", m.topic)
		}
	}

	if len(frames) != 4 {
		t.Errorf("published %d frames, want 4", len(frames))
	}
	want := []string{"idle", "exhale", "inhale"}
	if len(phaseMsgs) != len(want) {
		t.Fatalf("published %d phase messages, want %d", len(phaseMsgs), len(want))
	}
	for i, m := range phaseMsgs {
		if m.payload != want[i] || !m.retained {
			t.Errorf("phase message %d = %+v, want retained %q", i, m, want[i])
		}
	}

	p.Close()
	if !client.disconnected {
		t.Error("close should disconnect the client")
	}
}

func TestMQTTPublisher_Error(t *testing.T) {
	client := &fakeMQTT{err: errors.New("not connected")}
	p := newMQTTPublisher(client, "breath", encoding.NewJSONEncoder())
	if err := p.Broadcast(breathFrame(breath.Idle, 0)); err == nil {
		t.Error("expected publish error")
	}
}

type fakeNATS struct {
	subjects []string
	drained  bool
}

func (f *fakeNATS) Publish(subj string, data []byte) error {
	f.subjects = append(f.subjects, subj)
	return nil
}

func (f *fakeNATS) Drain() error {
	f.drained = true
	return nil
}

func TestNATSPublisher_SubjectPerPhase(t *testing.T) {
	conn := &fakeNATS{}
	p := newNATSPublisher(conn, "breath.frames", encoding.NewProtobufEncoder())

	for i, ph := range []breath.Phase{breath.Inhale, breath.Hold} {
		if err := p.Broadcast(breathFrame(ph, int64(i))); err != nil {
			t.Fatalf("broadcast failed: %v", err)
		}
	}

	want := []string{"breath.frames.inhale", "breath.frames.hold"}
	for i := range want {
		if conn.subjects[i] != want[i] {
			t.Errorf("subject %d = %s, want %s", i, conn.subjects[i], want[i])
		}
	}

	p.Close()
	if !conn.drained {
		t.Error("close should drain the connection")
	}
}
