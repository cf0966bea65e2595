//go:build linux

package i2c

import (
	"os"
	"strings"
	"testing"
)

func openNullBus(t *testing.T) *Bus {
	t.Helper()
	f, err := os.OpenFile("/dev/null", os.O_RDWR, 0)
	if err != nil {
		t.Fatalf("OpenFile /dev/null: %v", err)
	}
	t.Cleanup(func() { _ = f.Close() })
	return &Bus{f: f, path: "/dev/null"}
}

func TestTransfer_RejectsInvalidAddr(t *testing.T) {
	b := openNullBus(t)

	for _, addr := range []uint16{0, 0x80} {
		d := &Dev{bus: b, addr: addr}
		err := d.WriteReg(0x10, 0x01)
		if err == nil || !strings.Contains(err.Error(), "invalid addr") {
			t.Fatalf("addr=0x%X err=%v want invalid addr", addr, err)
		}
	}
}

func TestTransfer_EmptyIsNoop(t *testing.T) {
	b := openNullBus(t)
	d := b.Dev(0x0E)

	n, err := d.transfer(nil, nil)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if n != 0 {
		t.Fatalf("n=%d want 0", n)
	}
}

func TestReadBlock_EmptyDst(t *testing.T) {
	b := openNullBus(t)
	d := b.Dev(0x0E)

	n, err := d.ReadBlock(0x01, nil)
	if err != nil || n != 0 {
		t.Fatalf("n=%d err=%v want 0,nil", n, err)
	}
}

func TestNilDevice(t *testing.T) {
	var d *Dev
	if _, err := d.ReadRegU8(0x07); err == nil {
		t.Fatalf("expected error for nil device")
	}
	if d.Addr() != 0 {
		t.Fatalf("nil Addr()=%d want 0", d.Addr())
	}
}

func TestClosedBus(t *testing.T) {
	b := openNullBus(t)
	d := b.Dev(0x0E)
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := d.WriteReg(0x10, 0x00); err == nil {
		t.Fatalf("expected error after Close")
	}
	// Close is idempotent.
	if err := b.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}

func TestBusPath(t *testing.T) {
	if got := BusPath(1); got != "/dev/i2c-1" {
		t.Fatalf("BusPath(1)=%q", got)
	}
}
