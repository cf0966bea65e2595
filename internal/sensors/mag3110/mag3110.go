package mag3110

import (
	"errors"
	"fmt"
	"time"

	"mag3110d/internal/i2c"
)

var sleep = time.Sleep

// Driver for the Freescale/NXP MAG3110 three-axis magnetometer.
//
// Samples are paced by the INT1 data-ready line: the line watcher calls
// Ready().Signal() and Acquire waits on it before reading the output block.

var (
	ErrTransport          = errors.New("transport error")
	ErrAcquisitionTimeout = errors.New("acquisition timeout")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrIdentityMismatch   = errors.New("identity mismatch")
)

// RegisterIO is the byte-register transport the driver runs on.
// ReadBlock returns how many of len(dst) bytes were obtained.
type RegisterIO interface {
	ReadRegU8(reg byte) (byte, error)
	WriteReg(reg, value byte) error
	ReadBlock(reg byte, dst []byte) (int, error)
}

// Device is one attached sensor.
//
// Control and lifecycle calls are not synchronized here; the owner must
// serialize them. Acquire must not be called concurrently with itself.
type Device struct {
	io    RegisterIO
	ready *ReadySignal

	// ctlReg1 is refreshed by Initialize and Suspend and restored by Resume.
	ctlReg1 byte

	timeout time.Duration

	lastResetErr error
}

// New attaches to a sensor on a Linux I2C device.
func New(dev *i2c.Dev) (*Device, error) {
	if dev == nil {
		return nil, fmt.Errorf("mag3110: dev is nil")
	}
	return Attach(dev)
}

// Attach verifies WHO_AM_I and initializes the sensor. The returned Device
// starts in standby with data-rate mode 3.
func Attach(io RegisterIO) (*Device, error) {
	if io == nil {
		return nil, fmt.Errorf("mag3110: register io is nil")
	}
	who, err := io.ReadRegU8(regWhoAmI)
	if err != nil {
		return nil, fmt.Errorf("mag3110: whoami read failed: %w: %v", ErrTransport, err)
	}
	if who != whoAmIVal {
		return nil, fmt.Errorf("mag3110: %w: whoami=0x%02X want 0x%02X", ErrIdentityMismatch, who, whoAmIVal)
	}

	d := &Device{io: io, ready: NewReadySignal(), timeout: interruptTimeout}
	if err := d.Initialize(); err != nil {
		return nil, err
	}
	return d, nil
}

// Ready returns the signal the data-ready interrupt must raise.
func (d *Device) Ready() *ReadySignal {
	return d.ready
}

// CachedControl returns the CTRL_REG1 value last captured by Initialize or
// Suspend.
func (d *Device) CachedControl() byte {
	return d.ctlReg1
}

// LastResetErr is the outcome of the CTRL_REG2 write done by the last
// Initialize. That write does not fail initialization.
func (d *Device) LastResetErr() error {
	return d.lastResetErr
}

// Acquire waits for data ready and reads one sample.
func (d *Device) Acquire() (Sample, error) {
	if d == nil {
		return Sample{}, fmt.Errorf("mag3110: device is nil")
	}
	if !d.ready.Wait(d.timeout) {
		return Sample{}, fmt.Errorf("mag3110: no data ready within %s: %w", d.timeout, ErrAcquisitionTimeout)
	}

	var buf [SampleLen]byte
	if err := d.readOutput(buf[:]); err != nil {
		return Sample{}, err
	}
	return Decode(buf), nil
}

func (d *Device) readOutput(buf []byte) error {
	n, err := d.io.ReadBlock(regOutXMSB, buf)
	if err != nil {
		return fmt.Errorf("mag3110: block read failed: %w: %v", ErrTransport, err)
	}
	if n < len(buf) {
		return fmt.Errorf("mag3110: block read returned %d of %d bytes: %w", n, len(buf), ErrTransport)
	}
	return nil
}

// clearStaleInterrupt reads and discards the output block. Reading OUT_X_MSB
// onward clears a data-ready condition latched before anyone was waiting.
func (d *Device) clearStaleInterrupt() {
	var buf [SampleLen]byte
	_ = d.readOutput(buf[:])
}

func (d *Device) readCtrl1() (byte, error) {
	v, err := d.io.ReadRegU8(regCtrl1)
	if err != nil {
		return 0, fmt.Errorf("mag3110: ctrl_reg1 read failed: %w: %v", ErrTransport, err)
	}
	return v, nil
}

func (d *Device) writeCtrl1(v byte) error {
	if err := d.io.WriteReg(regCtrl1, v); err != nil {
		return fmt.Errorf("mag3110: ctrl_reg1 write 0x%02X failed: %w: %v", v, ErrTransport, err)
	}
	return nil
}

// DieTemperature returns the on-die temperature in °C. It is uncalibrated.
func (d *Device) DieTemperature() (int8, error) {
	v, err := d.io.ReadRegU8(regDieTemp)
	if err != nil {
		return 0, fmt.Errorf("mag3110: die_temp read failed: %w: %v", ErrTransport, err)
	}
	return int8(v), nil
}

// Status returns DR_STATUS. Reading it does not clear data-ready.
func (d *Device) Status() (byte, error) {
	v, err := d.io.ReadRegU8(regDRStatus)
	if err != nil {
		return 0, fmt.Errorf("mag3110: dr_status read failed: %w: %v", ErrTransport, err)
	}
	return v, nil
}
