package udp

import (
	"encoding/json"
	"fmt"
	"log"
	"net"
	"sync/atomic"
	"time"

	"mag3110d/internal/sensors/mag3110"
)

// Payload is the datagram body for one sample.
type Payload struct {
	X    int16  `json:"x"`
	Y    int16  `json:"y"`
	Z    int16  `json:"z"`
	Time string `json:"time"`
}

// Broadcaster sends one JSON datagram per sample to a fixed destination.
type Broadcaster struct {
	dest string
	conn *net.UDPConn

	sent    atomic.Uint64
	dropped atomic.Uint64
}

func NewBroadcaster(dest string) (*Broadcaster, error) {
	addr, err := net.ResolveUDPAddr("udp", dest)
	if err != nil {
		return nil, fmt.Errorf("resolve dest: %w", err)
	}

	// DialUDP selects a suitable local address automatically.
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return nil, fmt.Errorf("dial udp: %w", err)
	}

	return &Broadcaster{dest: dest, conn: conn}, nil
}

func (b *Broadcaster) Dest() string { return b.dest }

func (b *Broadcaster) Send(payload []byte) error {
	if len(payload) == 0 {
		return nil
	}
	_, err := b.conn.Write(payload)
	return err
}

// Report implements poller.Sink. Send failures are logged and the sample is
// dropped.
func (b *Broadcaster) Report(s mag3110.Sample) {
	p := Payload{X: s.X, Y: s.Y, Z: s.Z, Time: time.Now().UTC().Format(time.RFC3339Nano)}
	buf, err := json.Marshal(p)
	if err != nil {
		b.dropped.Add(1)
		return
	}
	if err := b.Send(buf); err != nil {
		// ICMP port unreachable surfaces here as ECONNREFUSED when nobody listens.
		if b.dropped.Add(1) == 1 {
			log.Printf("udp: send to %s failed: %v", b.dest, err)
		}
		return
	}
	b.sent.Add(1)
}

// Counters reports datagrams sent and dropped.
func (b *Broadcaster) Counters() (sent, dropped uint64) {
	return b.sent.Load(), b.dropped.Load()
}

func (b *Broadcaster) Close() error {
	if b.conn == nil {
		return nil
	}
	return b.conn.Close()
}
