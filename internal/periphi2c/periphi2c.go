// Package periphi2c is a register transport on top of periph.io, for boards
// where periph's host drivers are preferred over raw /dev/i2c ioctls.
package periphi2c

import (
	"fmt"
	"strconv"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"
)

// Dev is one target on a periph I2C bus. It owns the bus handle.
type Dev struct {
	bus i2c.BusCloser
	dev *i2c.Dev
}

// Open initializes the periph host and opens bus number n for addr.
func Open(n int, addr uint16) (*Dev, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periphi2c: host init: %w", err)
	}
	name := strconv.Itoa(n)
	bus, err := i2creg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("periphi2c: open bus %s: %w", name, err)
	}
	return &Dev{bus: bus, dev: &i2c.Dev{Addr: addr, Bus: bus}}, nil
}

func (d *Dev) Close() error {
	if d == nil || d.bus == nil {
		return nil
	}
	err := d.bus.Close()
	d.bus = nil
	return err
}

func (d *Dev) ReadRegU8(reg byte) (byte, error) {
	var b [1]byte
	if err := d.dev.Tx([]byte{reg}, b[:]); err != nil {
		return 0, fmt.Errorf("periphi2c: read 0x%02X: %w", reg, err)
	}
	return b[0], nil
}

func (d *Dev) WriteReg(reg, value byte) error {
	if err := d.dev.Tx([]byte{reg, value}, nil); err != nil {
		return fmt.Errorf("periphi2c: write 0x%02X: %w", reg, err)
	}
	return nil
}

// ReadBlock reads len(dst) registers starting at reg in one combined
// transaction. periph reports partial transfers as errors, so a nil error
// means the whole block arrived.
func (d *Dev) ReadBlock(reg byte, dst []byte) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	if err := d.dev.Tx([]byte{reg}, dst); err != nil {
		return 0, fmt.Errorf("periphi2c: block read 0x%02X: %w", reg, err)
	}
	return len(dst), nil
}
