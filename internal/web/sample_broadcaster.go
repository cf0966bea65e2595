package web

import (
	"sync"
	"time"

	"mag3110d/internal/sensors/mag3110"
)

// SampleEvent is one streamed sample.
type SampleEvent struct {
	X       int16  `json:"x"`
	Y       int16  `json:"y"`
	Z       int16  `json:"z"`
	TimeUTC string `json:"time_utc"`
}

// SampleBroadcaster fans out samples to stream listeners. It keeps the most
// recent value so new subscribers get an immediate sample. Slow subscribers
// miss samples rather than blocking the poller.
type SampleBroadcaster struct {
	mu       sync.RWMutex
	subs     map[int]chan SampleEvent
	nextID   int
	last     SampleEvent
	haveLast bool
}

func NewSampleBroadcaster() *SampleBroadcaster {
	return &SampleBroadcaster{
		subs: make(map[int]chan SampleEvent),
	}
}

func (b *SampleBroadcaster) Subscribe(buffer int) (int, <-chan SampleEvent) {
	if b == nil {
		return 0, nil
	}
	if buffer <= 0 {
		buffer = 2
	}
	ch := make(chan SampleEvent, buffer)
	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	last := b.last
	have := b.haveLast
	b.mu.Unlock()
	if have {
		select {
		case ch <- last:
		default:
		}
	}
	return id, ch
}

func (b *SampleBroadcaster) Unsubscribe(id int) {
	if b == nil {
		return
	}
	b.mu.Lock()
	ch, ok := b.subs[id]
	if ok {
		delete(b.subs, id)
		close(ch)
	}
	b.mu.Unlock()
}

func (b *SampleBroadcaster) Subscribers() int {
	if b == nil {
		return 0
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Report implements poller.Sink.
func (b *SampleBroadcaster) Report(s mag3110.Sample) {
	b.Publish(SampleEvent{X: s.X, Y: s.Y, Z: s.Z})
}

func (b *SampleBroadcaster) Publish(ev SampleEvent) {
	if b == nil {
		return
	}
	if ev.TimeUTC == "" {
		ev.TimeUTC = time.Now().UTC().Format(time.RFC3339Nano)
	}
	// Send under the read lock so Unsubscribe cannot close a channel mid-send.
	b.mu.RLock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	b.mu.RUnlock()

	b.mu.Lock()
	b.last = ev
	b.haveLast = true
	b.mu.Unlock()
}
