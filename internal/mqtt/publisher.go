package mqtt

import (
	"encoding/json"
	"fmt"
	"log"
	"math"
	"sync/atomic"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"mag3110d/internal/sensors/mag3110"
)

// Payload is the message body for one sample. x/y/z are raw counts
// (0.1 µT per LSB); norm is the field magnitude in µT.
type Payload struct {
	X    int16   `json:"x"`
	Y    int16   `json:"y"`
	Z    int16   `json:"z"`
	Norm float64 `json:"norm"`
	Time string  `json:"time"`
}

type Config struct {
	Broker   string
	ClientID string
	Topic    string
}

// client is the subset of paho.Client used after connect.
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
	Disconnect(quiesce uint)
}

// Publisher publishes samples to one topic at QoS 0.
type Publisher struct {
	client client
	topic  string

	failures atomic.Uint64
}

var newClientFn = paho.NewClient

func Connect(cfg Config) (*Publisher, error) {
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(true).
		SetConnectTimeout(5 * time.Second)
	client := newClientFn(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt: connect %s: %w", cfg.Broker, token.Error())
	}
	return &Publisher{client: client, topic: cfg.Topic}, nil
}

func (p *Publisher) Topic() string { return p.topic }

// Report implements poller.Sink. Publishing is fire-and-forget; a failed
// publish is logged from the completion goroutine.
func (p *Publisher) Report(s mag3110.Sample) {
	body, err := json.Marshal(newPayload(s, time.Now().UTC()))
	if err != nil {
		return
	}
	token := p.client.Publish(p.topic, 0, false, body)
	go func() {
		<-token.Done()
		if err := token.Error(); err != nil {
			if p.failures.Add(1) == 1 {
				log.Printf("mqtt: publish to %s failed: %v", p.topic, err)
			}
		}
	}()
}

func (p *Publisher) Failures() uint64 { return p.failures.Load() }

func (p *Publisher) Close() {
	if p == nil || p.client == nil {
		return
	}
	p.client.Disconnect(250)
}

func newPayload(s mag3110.Sample, now time.Time) Payload {
	mx := float64(s.X) / 10.0
	my := float64(s.Y) / 10.0
	mz := float64(s.Z) / 10.0
	return Payload{
		X:    s.X,
		Y:    s.Y,
		Z:    s.Z,
		Norm: math.Sqrt(mx*mx + my*my + mz*mz),
		Time: now.Format(time.RFC3339Nano),
	}
}
