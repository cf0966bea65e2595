//go:build linux

package irq

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/warthog618/go-gpiocdev"
)

const consumer = "mag3110d-drdy"

// openGPIOCDev requests the line as an input with rising-edge detection.
// gpiocdev delivers edges on its own goroutine, which stands in for the
// interrupt context: the handler does nothing but Signal.
//
// line is either a numeric offset on chip, or a line name searched on chip
// first and then on every other /dev/gpiochip*.
func openGPIOCDev(chip, line string, sig Signaler) (io.Closer, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, fmt.Errorf("irq: gpio line is empty")
	}
	handler := func(gpiocdev.LineEvent) { sig.Signal() }

	if offset, err := strconv.Atoi(line); err == nil {
		l, err := gpiocdev.RequestLine(chip, offset,
			gpiocdev.AsInput,
			gpiocdev.WithRisingEdge,
			gpiocdev.WithEventHandler(handler),
			gpiocdev.WithConsumer(consumer))
		if err != nil {
			return nil, fmt.Errorf("irq: request %s offset %d: %w", chip, offset, err)
		}
		return l, nil
	}

	chips := []string{chip}
	entries, _ := os.ReadDir("/dev")
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, "gpiochip") && name != chip {
			chips = append(chips, filepath.Join("/dev", name))
		}
	}

	for _, chipName := range chips {
		c, err := gpiocdev.NewChip(chipName)
		if err != nil {
			continue
		}
		offset, err := c.FindLine(line)
		if err != nil {
			_ = c.Close()
			continue
		}
		l, err := c.RequestLine(offset,
			gpiocdev.AsInput,
			gpiocdev.WithRisingEdge,
			gpiocdev.WithEventHandler(handler),
			gpiocdev.WithConsumer(consumer))
		if err != nil {
			_ = c.Close()
			continue
		}
		return &gpiodLine{chip: c, line: l}, nil
	}
	return nil, fmt.Errorf("irq: gpio line %q not found (or busy)", line)
}

type gpiodLine struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

func (g *gpiodLine) Close() error {
	if g == nil || g.line == nil {
		return nil
	}
	err := g.line.Close()
	g.line = nil
	if g.chip != nil {
		_ = g.chip.Close()
		g.chip = nil
	}
	return err
}
