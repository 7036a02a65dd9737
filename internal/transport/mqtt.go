package transport

import (
	"fmt"
	"log"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/synheart/synheart-breath/internal/breath"
	"github.com/synheart/synheart-breath/internal/encoding"
	"github.com/synheart/synheart-breath/internal/models"
)

const mqttTimeout = 2 * time.Second

// mqttClient is the part of mqtt.Client the publisher uses
type mqttClient interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	Disconnect(quiesce uint)
}

// MQTTPublisher publishes every frame to <topic>/frames and the current
// phase, retained, to <topic>/phase whenever it changes.
type MQTTPublisher struct {
	client  mqttClient
	topic   string
	encoder encoding.Encoder

	mu        sync.Mutex
	lastPhase breath.Phase
	published bool
}

// ConnectMQTT connects to broker (e.g. tcp://localhost:1883)
func ConnectMQTT(broker, clientID, topic string, encoder encoding.Encoder) (*MQTTPublisher, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", broker, token.Error())
	}
	log.Printf("mqtt: connected to %s, publishing under %s/", broker, topic)

	return newMQTTPublisher(client, topic, encoder), nil
}

func newMQTTPublisher(client mqttClient, topic string, encoder encoding.Encoder) *MQTTPublisher {
	return &MQTTPublisher{client: client, topic: topic, encoder: encoder}
}

// FramesTopic is where every frame is published
func (p *MQTTPublisher) FramesTopic() string { return p.topic + "/frames" }

// PhaseTopic carries the retained current phase
func (p *MQTTPublisher) PhaseTopic() string { return p.topic + "/phase" }

func (p *MQTTPublisher) Broadcast(frame models.Frame) error {
	data, err := p.encoder.Encode(frame)
	if err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	if err := wait(p.client.Publish(p.FramesTopic(), 0, false, data)); err != nil {
		return fmt.Errorf("failed to publish frame: %w", err)
	}

	p.mu.Lock()
	changed := !p.published || frame.Breath.Phase != p.lastPhase
	p.lastPhase = frame.Breath.Phase
	p.published = true
	p.mu.Unlock()

	if changed {
		if err := wait(p.client.Publish(p.PhaseTopic(), 1, true, frame.Breath.Phase.String())); err != nil {
			return fmt.Errorf("failed to publish phase: %w", err)
		}
	}
	return nil
}

func wait(token mqtt.Token) error {
	if !token.WaitTimeout(mqttTimeout) {
		return fmt.Errorf("timed out after %s", mqttTimeout)
	}
	return token.Error()
}

func (p *MQTTPublisher) Close() error {
	p.client.Disconnect(250)
	return nil
}
