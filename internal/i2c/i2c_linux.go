//go:build linux

package i2c

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Register transport backed by /dev/i2c-*.
//
// Every register access is a single I2C_RDWR ioctl carrying the register
// pointer write and the data read as one combined transfer (repeated start),
// so a transfer is never split by another user of the same adapter.

const (
	flagRead  = 0x0001 // I2C_M_RD
	ioctlRdwr = 0x0707 // I2C_RDWR

	maxMsgLen = 0xFFFF
)

type i2cMsg struct {
	addr  uint16
	flags uint16
	len   uint16
	buf   uintptr
}

type rdwrIoctlData struct {
	msgs  uintptr
	nmsgs uint32
}

// Bus is an opened adapter such as /dev/i2c-1.
//
// Dev handles share the file descriptor. Each transfer is one ioctl, so
// concurrent register accesses from different goroutines do not interleave
// on the wire, but multi-step sequences need coordination by the caller.
type Bus struct {
	f    *os.File
	path string
}

// Open opens an adapter by path.
func Open(path string) (*Bus, error) {
	path = filepath.Clean(path)
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("i2c: open %s: %w", path, err)
	}
	return &Bus{f: f, path: path}, nil
}

// OpenNumber opens /dev/i2c-<n>.
func OpenNumber(n int) (*Bus, error) {
	return Open(BusPath(n))
}

func (b *Bus) Path() string {
	if b == nil {
		return ""
	}
	return b.path
}

func (b *Bus) Close() error {
	if b == nil || b.f == nil {
		return nil
	}
	err := b.f.Close()
	b.f = nil
	return err
}

func (b *Bus) Dev(addr uint16) *Dev {
	if b == nil {
		return nil
	}
	return &Dev{bus: b, addr: addr}
}

// Dev is a target at a 7-bit address on a Bus.
type Dev struct {
	bus  *Bus
	addr uint16
}

func (d *Dev) Addr() uint16 {
	if d == nil {
		return 0
	}
	return d.addr
}

func (d *Dev) Write(p []byte) error {
	_, err := d.transfer(p, nil)
	return err
}

func (d *Dev) WriteRead(w, r []byte) error {
	_, err := d.transfer(w, r)
	return err
}

// ReadReg fills dst starting at reg. A short transfer is an error.
func (d *Dev) ReadReg(reg byte, dst []byte) error {
	n, err := d.ReadBlock(reg, dst)
	if err != nil {
		return err
	}
	if n < len(dst) {
		return fmt.Errorf("i2c: short read at 0x%02X: %d/%d", reg, n, len(dst))
	}
	return nil
}

// ReadBlock reads len(dst) sequential registers starting at reg and reports
// how many bytes the adapter delivered.
func (d *Dev) ReadBlock(reg byte, dst []byte) (int, error) {
	if len(dst) == 0 {
		return 0, nil
	}
	return d.transfer([]byte{reg}, dst)
}

func (d *Dev) ReadRegU8(reg byte) (byte, error) {
	var b [1]byte
	if err := d.ReadReg(reg, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

func (d *Dev) WriteReg(reg, value byte) error {
	return d.Write([]byte{reg, value})
}

func (d *Dev) transfer(w, r []byte) (int, error) {
	if d == nil || d.bus == nil || d.bus.f == nil {
		return 0, errors.New("i2c: device is nil")
	}
	if d.addr == 0 || d.addr > 0x7F {
		return 0, fmt.Errorf("i2c: invalid addr 0x%X", d.addr)
	}
	if len(w) > maxMsgLen || len(r) > maxMsgLen {
		return 0, fmt.Errorf("i2c: transfer too long")
	}

	var msgs [2]i2cMsg
	n := 0
	if len(w) > 0 {
		msgs[n] = i2cMsg{addr: d.addr, len: uint16(len(w)), buf: uintptr(unsafe.Pointer(&w[0]))}
		n++
	}
	if len(r) > 0 {
		msgs[n] = i2cMsg{addr: d.addr, flags: flagRead, len: uint16(len(r)), buf: uintptr(unsafe.Pointer(&r[0]))}
		n++
	}
	if n == 0 {
		return 0, nil
	}

	data := rdwrIoctlData{msgs: uintptr(unsafe.Pointer(&msgs[0])), nmsgs: uint32(n)}
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, d.bus.f.Fd(), uintptr(ioctlRdwr), uintptr(unsafe.Pointer(&data)))
	if errno != 0 {
		return 0, fmt.Errorf("i2c: transfer addr=0x%02X: %w", d.addr, errno)
	}
	if len(r) > 0 {
		return len(r), nil
	}
	return len(w), nil
}
