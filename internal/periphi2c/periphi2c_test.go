package periphi2c

import (
	"testing"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2ctest"

	"mag3110d/internal/sensors/mag3110"
)

func playbackDev(ops []i2ctest.IO) (*Dev, *i2ctest.Playback) {
	pb := &i2ctest.Playback{Ops: ops, DontPanic: true}
	return &Dev{bus: pb, dev: &i2c.Dev{Addr: 0x0E, Bus: pb}}, pb
}

func TestRegisterAccess(t *testing.T) {
	d, pb := playbackDev([]i2ctest.IO{
		{Addr: 0x0E, W: []byte{0x07}, R: []byte{0xC4}},
		{Addr: 0x0E, W: []byte{0x10, 0x61}},
		{Addr: 0x0E, W: []byte{0x01}, R: []byte{1, 2, 3, 4, 5, 6}},
	})

	who, err := d.ReadRegU8(0x07)
	if err != nil || who != 0xC4 {
		t.Fatalf("ReadRegU8=0x%02X,%v", who, err)
	}
	if err := d.WriteReg(0x10, 0x61); err != nil {
		t.Fatalf("WriteReg: %v", err)
	}
	buf := make([]byte, 6)
	n, err := d.ReadBlock(0x01, buf)
	if err != nil || n != 6 {
		t.Fatalf("ReadBlock n=%d err=%v", n, err)
	}
	if buf[0] != 1 || buf[5] != 6 {
		t.Fatalf("buf=% X", buf)
	}
	if err := pb.Close(); err != nil {
		t.Fatalf("playback not fully consumed: %v", err)
	}
}

func TestReadBlock_Error(t *testing.T) {
	d, _ := playbackDev(nil)
	if _, err := d.ReadBlock(0x01, make([]byte, 6)); err == nil {
		t.Fatalf("expected error from exhausted playback")
	}
}

func TestAttachOverPeriph(t *testing.T) {
	d, pb := playbackDev([]i2ctest.IO{
		{Addr: 0x0E, W: []byte{0x07}, R: []byte{0xC4}},
		{Addr: 0x0E, W: []byte{0x11, 0x80}},
		{Addr: 0x0E, W: []byte{0x10}, R: []byte{0x00}},
		{Addr: 0x0E, W: []byte{0x10, 0x60}},
	})
	dev, err := mag3110.Attach(d)
	if err != nil {
		t.Fatalf("Attach: %v", err)
	}
	if dev.CachedControl() != 0x60 {
		t.Fatalf("cached=0x%02X want 0x60", dev.CachedControl())
	}
	if err := pb.Close(); err != nil {
		t.Fatalf("playback: %v", err)
	}
}

func TestCloseIdempotent(t *testing.T) {
	d, _ := playbackDev(nil)
	if err := d.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := d.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
}
