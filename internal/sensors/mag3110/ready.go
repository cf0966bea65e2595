package mag3110

import "time"

// ReadySignal carries the "data ready" event from the interrupt line to the
// polling goroutine.
//
// The pending flag is a one-slot channel: Signal fills it without blocking
// and Wait drains it, so a signal raised before anyone waits is kept until
// the next Wait and a single signal is consumed by exactly one waiter.
type ReadySignal struct {
	ch chan struct{}
}

func NewReadySignal() *ReadySignal {
	return &ReadySignal{ch: make(chan struct{}, 1)}
}

// Signal marks data as ready. It never blocks and never allocates, so it is
// safe to call from an edge-event handler.
func (r *ReadySignal) Signal() {
	select {
	case r.ch <- struct{}{}:
	default:
	}
}

// Wait blocks until a signal is pending or timeout elapses. It returns true
// and consumes the signal on success; on timeout it returns false and leaves
// no trace.
func (r *ReadySignal) Wait(timeout time.Duration) bool {
	select {
	case <-r.ch:
		return true
	default:
	}
	if timeout <= 0 {
		return false
	}
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-r.ch:
		return true
	case <-t.C:
		return false
	}
}

// Pending reports whether a signal is waiting to be consumed.
func (r *ReadySignal) Pending() bool {
	return len(r.ch) > 0
}
