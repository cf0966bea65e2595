package main

import (
	"context"
	"fmt"
	"io"
	"log"

	"mag3110d/internal/config"
	"mag3110d/internal/i2c"
	"mag3110d/internal/irq"
	"mag3110d/internal/mqtt"
	"mag3110d/internal/periphi2c"
	"mag3110d/internal/poller"
	"mag3110d/internal/sensors/mag3110"
	"mag3110d/internal/udp"
	"mag3110d/internal/web"
)

// transport is a register bus bound to the sensor address.
type transport interface {
	mag3110.RegisterIO
	Close() error
}

type devTransport struct {
	*i2c.Dev
	bus *i2c.Bus
}

func (t devTransport) Close() error { return t.bus.Close() }

var (
	openTransportFn = openTransport
	watchIRQFn      = irq.Watch
)

func openTransport(cfg config.I2CConfig) (transport, error) {
	switch cfg.Backend {
	case "periph":
		d, err := periphi2c.Open(cfg.Bus, cfg.Addr)
		if err != nil {
			return nil, err
		}
		return d, nil
	default:
		bus, err := i2c.OpenNumber(cfg.Bus)
		if err != nil {
			return nil, err
		}
		return devTransport{Dev: bus.Dev(cfg.Addr), bus: bus}, nil
	}
}

type runtime struct {
	tr      transport
	dev     *mag3110.Device
	ctl     *magController
	watcher io.Closer
	poll    *poller.Service
	udp     *udp.Broadcaster
	mqtt    *mqtt.Publisher
}

func newRuntime(ctx context.Context, cfg config.Config, status *web.Status, samples *web.SampleBroadcaster) (*runtime, error) {
	c := cfg
	if err := config.DefaultAndValidate(&c); err != nil {
		return nil, err
	}
	if status == nil {
		return nil, fmt.Errorf("status is nil")
	}

	tr, err := openTransportFn(c.I2C)
	if err != nil {
		return nil, fmt.Errorf("open i2c bus %d: %w", c.I2C.Bus, err)
	}
	r := &runtime{tr: tr}

	dev, err := mag3110.Attach(tr)
	if err != nil {
		r.Close()
		return nil, err
	}
	r.dev = dev
	r.ctl = newMagController(dev)
	if err := dev.LastResetErr(); err != nil {
		log.Printf("mag3110: auto reset enable failed: %v", err)
	}
	log.Printf("mag3110: attached bus=%d addr=0x%02X backend=%s ctrl_reg1=0x%02X",
		c.I2C.Bus, c.I2C.Addr, c.I2C.Backend, dev.CachedControl())

	watcher, err := watchIRQFn(irq.Config{
		Backend: c.IRQ.Backend,
		Chip:    c.IRQ.Chip,
		Line:    c.IRQ.Line,
		Pin:     c.IRQ.Pin,
	}, dev.Ready())
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("irq watch: %w", err)
	}
	r.watcher = watcher

	if c.Mag.DRMode != nil {
		if err := r.ctl.SetDataRateMode(*c.Mag.DRMode); err != nil {
			r.Close()
			return nil, err
		}
	}
	if c.Mag.Activate {
		if err := r.ctl.SetActive(true); err != nil {
			r.Close()
			return nil, err
		}
	}

	sinks := poller.Sinks{samples}
	if c.UDP.Enable {
		b, err := udp.NewBroadcaster(c.UDP.Dest)
		if err != nil {
			// Keep sampling even if an optional sink fails to init.
			log.Printf("udp sink init failed: %v", err)
		} else {
			r.udp = b
			sinks = append(sinks, b)
			log.Printf("udp sink dest=%s", b.Dest())
		}
	}
	if c.MQTT.Enable {
		p, err := mqtt.Connect(mqtt.Config{
			Broker:   c.MQTT.Broker,
			ClientID: c.MQTT.ClientID,
			Topic:    c.MQTT.Topic,
		})
		if err != nil {
			log.Printf("mqtt sink init failed: %v", err)
		} else {
			r.mqtt = p
			sinks = append(sinks, p)
			log.Printf("mqtt sink broker=%s topic=%s", c.MQTT.Broker, p.Topic())
		}
	}

	r.poll = poller.New(poller.Config{Interval: c.Poll.Interval}, dev, sinks)
	if err := r.poll.Start(ctx); err != nil {
		r.Close()
		return nil, err
	}

	info := web.DeviceInfo{
		Transport: c.I2C.Backend,
		Bus:       c.I2C.Bus,
		Addr:      fmt.Sprintf("0x%02X", c.I2C.Addr),
		IRQ:       c.IRQ.Backend,
	}
	if err := dev.LastResetErr(); err != nil {
		info.ResetErr = err.Error()
	}
	status.SetDevice(info)

	return r, nil
}

// Close stops sampling and puts the sensor in standby before releasing the
// bus.
func (r *runtime) Close() {
	if r == nil {
		return
	}
	if r.poll != nil {
		r.poll.Close()
		r.poll = nil
	}
	if r.ctl != nil {
		if err := r.ctl.Detach(); err != nil {
			log.Printf("mag3110: detach failed: %v", err)
		}
		r.ctl = nil
	}
	if r.watcher != nil {
		_ = r.watcher.Close()
		r.watcher = nil
	}
	if r.tr != nil {
		_ = r.tr.Close()
		r.tr = nil
	}
	if r.udp != nil {
		_ = r.udp.Close()
		r.udp = nil
	}
	if r.mqtt != nil {
		r.mqtt.Close()
		r.mqtt = nil
	}
}
