package poller

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"mag3110d/internal/sensors/mag3110"
)

const (
	DefaultInterval = 100 * time.Millisecond
	MaxInterval     = 500 * time.Millisecond
)

// Acquirer produces one sample per call, blocking until data is ready.
type Acquirer interface {
	Acquire() (mag3110.Sample, error)
}

// Sink receives delivered samples. Report must not block for long; it runs
// on the poll goroutine.
type Sink interface {
	Report(s mag3110.Sample)
}

type Config struct {
	Interval time.Duration
}

type Snapshot struct {
	Running  bool   `json:"running"`
	Interval string `json:"interval"`

	Delivered       uint64 `json:"delivered"`
	Timeouts        uint64 `json:"timeouts"`
	TransportErrors uint64 `json:"transport_errors"`

	LastSample   *mag3110.Sample `json:"last_sample,omitempty"`
	LastSampleAt time.Time       `json:"last_sample_utc,omitempty"`
	LastError    string          `json:"last_error,omitempty"`
}

// Service calls Acquire on every tick and forwards successes to the sink.
// Timeouts and transport errors skip the tick; the next tick retries.
type Service struct {
	src  Acquirer
	sink Sink

	mu       sync.RWMutex
	interval time.Duration
	snap     Snapshot

	intervalCh chan time.Duration

	wg       sync.WaitGroup
	started  bool
	stopOnce sync.Once
	stopCh   chan struct{}
}

func New(cfg Config, src Acquirer, sink Sink) *Service {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	if cfg.Interval > MaxInterval {
		cfg.Interval = MaxInterval
	}
	s := &Service{
		src:        src,
		sink:       sink,
		interval:   cfg.Interval,
		intervalCh: make(chan time.Duration, 1),
		stopCh:     make(chan struct{}),
	}
	s.snap.Interval = cfg.Interval.String()
	return s
}

func (s *Service) Interval() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.interval
}

// SetInterval changes the poll period. The running loop picks it up on its
// next tick.
func (s *Service) SetInterval(d time.Duration) error {
	if s == nil {
		return fmt.Errorf("poller: service is nil")
	}
	if d <= 0 {
		return fmt.Errorf("poller: interval must be > 0")
	}
	if d > MaxInterval {
		return fmt.Errorf("poller: interval %s exceeds %s", d, MaxInterval)
	}
	s.mu.Lock()
	s.interval = d
	s.snap.Interval = d.String()
	s.mu.Unlock()

	// Keep only the newest pending change.
	select {
	case <-s.intervalCh:
	default:
	}
	select {
	case s.intervalCh <- d:
	default:
	}
	return nil
}

func (s *Service) Snapshot() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := s.snap
	if snap.LastSample != nil {
		v := *snap.LastSample
		snap.LastSample = &v
	}
	return snap
}

func (s *Service) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("poller: service is nil")
	}
	if s.src == nil {
		return fmt.Errorf("poller: no sample source")
	}
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return fmt.Errorf("poller: already started")
	}
	s.started = true
	s.snap.Running = true
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.run(ctx)
	}()
	return nil
}

// Close stops the loop and waits for an in-flight Acquire to return.
func (s *Service) Close() {
	if s == nil {
		return
	}
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.wg.Wait()
}

func (s *Service) run(ctx context.Context) {
	defer s.setState(func(sn *Snapshot) { sn.Running = false })

	t := time.NewTicker(s.Interval())
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case d := <-s.intervalCh:
			t.Reset(d)
		case <-t.C:
			s.tick()
		}
	}
}

func (s *Service) tick() {
	sample, err := s.src.Acquire()
	if err != nil {
		first := false
		s.setState(func(sn *Snapshot) {
			first = sn.LastError == ""
			switch {
			case errors.Is(err, mag3110.ErrAcquisitionTimeout):
				sn.Timeouts++
			case errors.Is(err, mag3110.ErrTransport):
				sn.TransportErrors++
			}
			sn.LastError = err.Error()
		})
		// Log transitions only.
		if first {
			log.Printf("poller: acquire failed: %v", err)
		}
		return
	}

	now := time.Now().UTC()
	recovered := false
	s.setState(func(sn *Snapshot) {
		recovered = sn.LastError != ""
		sn.Delivered++
		sn.LastSample = &sample
		sn.LastSampleAt = now
		sn.LastError = ""
	})
	if recovered {
		log.Printf("poller: acquire recovered")
	}
	if s.sink != nil {
		s.sink.Report(sample)
	}
}

func (s *Service) setState(update func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	update(&s.snap)
}
