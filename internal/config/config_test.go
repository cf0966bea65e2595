package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "cfg.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	return path
}

func requireErrEq(t *testing.T, err error, want string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %q, got nil", want)
	}
	if err.Error() != want {
		t.Fatalf("error=%q want %q", err.Error(), want)
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	path := writeTempConfig(t, "irq:\n  line: GPIO17\n")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.I2C.Backend != "dev" || cfg.I2C.Bus != 1 || cfg.I2C.Addr != 0x0E {
		t.Fatalf("i2c=%+v want dev bus 1 addr 0x0E", cfg.I2C)
	}
	if cfg.IRQ.Backend != "gpiocdev" || cfg.IRQ.Chip != "gpiochip0" {
		t.Fatalf("irq=%+v", cfg.IRQ)
	}
	if cfg.Poll.Interval != 100*time.Millisecond {
		t.Fatalf("interval=%s want 100ms", cfg.Poll.Interval)
	}
	if cfg.Mag.DRMode != nil {
		t.Fatalf("dr_mode=%d want unset", *cfg.Mag.DRMode)
	}
	if cfg.Web.LogLines != 2000 {
		t.Fatalf("log_lines=%d want 2000", cfg.Web.LogLines)
	}
}

func TestLoad_FullConfig(t *testing.T) {
	path := writeTempConfig(t, `
i2c:
  backend: periph
  bus: 2
  addr: 0x0f
irq:
  backend: periph
  pin: GPIO27
mag:
  activate: true
  dr_mode: 0
poll:
  interval: 250ms
udp:
  enable: true
  dest: 127.0.0.1:4000
mqtt:
  enable: true
  broker: tcp://localhost:1883
web:
  listen: ":8080"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.I2C.Backend != "periph" || cfg.I2C.Bus != 2 || cfg.I2C.Addr != 0x0F {
		t.Fatalf("i2c=%+v", cfg.I2C)
	}
	if cfg.IRQ.Pin != "GPIO27" {
		t.Fatalf("irq=%+v", cfg.IRQ)
	}
	if !cfg.Mag.Activate || cfg.Mag.DRMode == nil || *cfg.Mag.DRMode != 0 {
		t.Fatalf("mag=%+v", cfg.Mag)
	}
	if cfg.Poll.Interval != 250*time.Millisecond {
		t.Fatalf("interval=%s", cfg.Poll.Interval)
	}
	if cfg.MQTT.ClientID != "mag3110d" || cfg.MQTT.Topic != "mag3110/sample" {
		t.Fatalf("mqtt=%+v", cfg.MQTT)
	}
	if cfg.Web.Listen != ":8080" {
		t.Fatalf("web=%+v", cfg.Web)
	}
}

func TestLoad_Validation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{"BadI2CBackend", "i2c:\n  backend: spi\nirq:\n  backend: none\n", "i2c.backend must be 'dev' or 'periph'"},
		{"WideAddr", "i2c:\n  addr: 0x80\nirq:\n  backend: none\n", "i2c.addr must be a 7-bit address"},
		{"GpiocdevNeedsLine", "irq:\n  backend: gpiocdev\n", "irq.line is required when irq.backend is 'gpiocdev'"},
		{"PeriphNeedsPin", "irq:\n  backend: periph\n", "irq.pin is required when irq.backend is 'periph'"},
		{"BadIRQBackend", "irq:\n  backend: poll\n", "irq.backend must be 'gpiocdev', 'periph' or 'none'"},
		{"DRModeHigh", "irq:\n  backend: none\nmag:\n  dr_mode: 8\n", "mag.dr_mode must be in [0,7]"},
		{"DRModeNegative", "irq:\n  backend: none\nmag:\n  dr_mode: -1\n", "mag.dr_mode must be in [0,7]"},
		{"IntervalTooLong", "irq:\n  backend: none\npoll:\n  interval: 600ms\n", "poll.interval must be <= 500ms"},
		{"IntervalNegative", "irq:\n  backend: none\npoll:\n  interval: -1s\n", "poll.interval must be > 0"},
		{"UDPNeedsDest", "irq:\n  backend: none\nudp:\n  enable: true\n", "udp.dest is required when udp.enable is true"},
		{"MQTTNeedsBroker", "irq:\n  backend: none\nmqtt:\n  enable: true\n", "mqtt.broker is required when mqtt.enable is true"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeTempConfig(t, tc.yaml))
			requireErrEq(t, err, tc.want)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestDefaultAndValidate_Nil(t *testing.T) {
	requireErrEq(t, DefaultAndValidate(nil), "config is nil")
}
