package web

import (
	"fmt"
	"sync/atomic"
	"time"

	"mag3110d/internal/poller"
)

type Status struct {
	startUnixNano int64
	device        atomic.Value // DeviceInfo
}

func NewStatus() *Status {
	s := &Status{}
	atomic.StoreInt64(&s.startUnixNano, time.Now().UTC().UnixNano())
	s.device.Store(DeviceInfo{})
	return s
}

// DeviceInfo describes how the sensor is wired. It is set once at startup.
type DeviceInfo struct {
	Transport string `json:"transport"`
	Bus       int    `json:"bus"`
	Addr      string `json:"addr"`
	IRQ       string `json:"irq"`
	ResetErr  string `json:"reset_error,omitempty"`
}

func (s *Status) SetDevice(info DeviceInfo) {
	s.device.Store(info)
}

type MagSnapshot struct {
	CtrlReg1  string `json:"ctrl_reg1"`
	DieTempC  *int   `json:"die_temp_c,omitempty"`
	LastError string `json:"last_error,omitempty"`
}

type StatusSnapshot struct {
	Service   string           `json:"service"`
	NowUTC    string           `json:"now_utc"`
	UptimeSec int64            `json:"uptime_sec"`
	Device    DeviceInfo       `json:"device"`
	Mag       *MagSnapshot     `json:"mag,omitempty"`
	Poll      *poller.Snapshot `json:"poll,omitempty"`
}

// Snapshot assembles the status view. mag and poll may be nil.
func (s *Status) Snapshot(nowUTC time.Time, mag MagController, poll PollController) StatusSnapshot {
	if nowUTC.IsZero() {
		nowUTC = time.Now().UTC()
	}
	start := time.Unix(0, atomic.LoadInt64(&s.startUnixNano)).UTC()

	snap := StatusSnapshot{
		Service:   "mag3110d",
		NowUTC:    nowUTC.UTC().Format(time.RFC3339Nano),
		UptimeSec: int64(nowUTC.Sub(start).Seconds()),
		Device:    s.device.Load().(DeviceInfo),
	}
	if mag != nil {
		ms := &MagSnapshot{CtrlReg1: fmt.Sprintf("0x%02X", mag.CachedControl())}
		if t, err := mag.DieTemperature(); err != nil {
			ms.LastError = err.Error()
		} else {
			v := int(t)
			ms.DieTempC = &v
		}
		snap.Mag = ms
	}
	if poll != nil {
		ps := poll.Snapshot()
		snap.Poll = &ps
	}
	return snap
}
