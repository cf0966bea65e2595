package mqtt

import (
	"encoding/json"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"mag3110d/internal/sensors/mag3110"
)

type fakeToken struct {
	done chan struct{}
	err  error
}

func newFakeToken(err error) *fakeToken {
	t := &fakeToken{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func (t *fakeToken) Wait() bool { return true }

func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }

func (t *fakeToken) Done() <-chan struct{} { return t.done }

func (t *fakeToken) Error() error { return t.err }

type published struct {
	topic    string
	qos      byte
	retained bool
	payload  []byte
}

type fakeClient struct {
	mu           sync.Mutex
	msgs         []published
	err          error
	disconnected bool
}

func (c *fakeClient) Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, published{topic: topic, qos: qos, retained: retained, payload: payload.([]byte)})
	return newFakeToken(c.err)
}

func (c *fakeClient) Disconnect(uint) {
	c.mu.Lock()
	c.disconnected = true
	c.mu.Unlock()
}

func TestReport_PublishesJSON(t *testing.T) {
	c := &fakeClient{}
	p := &Publisher{client: c, topic: "mag3110/sample"}

	p.Report(mag3110.Sample{X: 300, Y: 400, Z: 0})

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.msgs) != 1 {
		t.Fatalf("published=%d want 1", len(c.msgs))
	}
	m := c.msgs[0]
	if m.topic != "mag3110/sample" || m.qos != 0 || m.retained {
		t.Fatalf("msg=%+v", m)
	}
	var pl Payload
	if err := json.Unmarshal(m.payload, &pl); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if pl.X != 300 || pl.Y != 400 || pl.Z != 0 {
		t.Fatalf("payload=%+v", pl)
	}
	if math.Abs(pl.Norm-50) > 1e-9 {
		t.Fatalf("norm=%v want 50", pl.Norm)
	}
}

func TestReport_CountsFailures(t *testing.T) {
	c := &fakeClient{err: errors.New("not connected")}
	p := &Publisher{client: c, topic: "t"}

	p.Report(mag3110.Sample{})
	p.Report(mag3110.Sample{})

	deadline := time.Now().Add(2 * time.Second)
	for p.Failures() != 2 {
		if time.Now().After(deadline) {
			t.Fatalf("failures=%d want 2", p.Failures())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestNewPayload(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	pl := newPayload(mag3110.Sample{X: -30, Y: 0, Z: 40}, now)
	if math.Abs(pl.Norm-5) > 1e-9 {
		t.Fatalf("norm=%v want 5", pl.Norm)
	}
	if pl.Time != "2024-05-01T12:00:00Z" {
		t.Fatalf("time=%q", pl.Time)
	}
}

func TestClose(t *testing.T) {
	c := &fakeClient{}
	p := &Publisher{client: c, topic: "t"}
	p.Close()
	if !c.disconnected {
		t.Fatalf("expected Disconnect")
	}

	var nilPub *Publisher
	nilPub.Close()
}
