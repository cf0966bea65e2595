package irq

import (
	"fmt"
	"io"
	"strings"
)

// Signaler is raised once per data-ready edge. Implementations must not
// block.
type Signaler interface {
	Signal()
}

type Config struct {
	Backend string
	Chip    string
	Line    string
	Pin     string
}

var (
	openGPIOCDevFn = openGPIOCDev
	openPeriphFn   = openPeriph
)

// Watch starts delivering rising edges on the configured line to sig until
// the returned Closer is closed. The "none" backend watches nothing.
func Watch(cfg Config, sig Signaler) (io.Closer, error) {
	if sig == nil {
		return nil, fmt.Errorf("irq: signaler is nil")
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Backend)) {
	case "", "gpiocdev":
		return openGPIOCDevFn(cfg.Chip, cfg.Line, sig)
	case "periph":
		return openPeriphFn(cfg.Pin, sig)
	case "none":
		return nopCloser{}, nil
	default:
		return nil, fmt.Errorf("irq: unknown backend %q", cfg.Backend)
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
