package irq

import (
	"fmt"
	"io"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

const edgePoll = 200 * time.Millisecond

// openPeriph watches a periph pin for rising edges on a dedicated goroutine.
func openPeriph(pin string, sig Signaler) (io.Closer, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("irq: periph host init: %w", err)
	}
	p := gpioreg.ByName(pin)
	if p == nil {
		return nil, fmt.Errorf("irq: periph pin %q not found", pin)
	}
	if err := p.In(gpio.PullDown, gpio.RisingEdge); err != nil {
		return nil, fmt.Errorf("irq: periph pin %s edge setup: %w", pin, err)
	}
	return watchEdges(p, sig), nil
}

// edgeWaiter is the part of gpio.PinIn the watcher needs.
type edgeWaiter interface {
	WaitForEdge(timeout time.Duration) bool
	Halt() error
}

type edgeWatcher struct {
	pin      edgeWaiter
	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func watchEdges(pin edgeWaiter, sig Signaler) *edgeWatcher {
	w := &edgeWatcher{pin: pin, stopCh: make(chan struct{})}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		for {
			select {
			case <-w.stopCh:
				return
			default:
			}
			if pin.WaitForEdge(edgePoll) {
				sig.Signal()
			}
		}
	}()
	return w
}

func (w *edgeWatcher) Close() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopCh)
		// Halt unblocks a pending WaitForEdge.
		err = w.pin.Halt()
		w.wg.Wait()
	})
	return err
}
