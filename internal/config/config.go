package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultI2CAddr   = 0x0E
	defaultInterval  = 100 * time.Millisecond
	maxInterval      = 500 * time.Millisecond
	defaultLogLines  = 2000
	defaultMQTTTopic = "mag3110/sample"
)

type Config struct {
	I2C  I2CConfig  `yaml:"i2c"`
	IRQ  IRQConfig  `yaml:"irq"`
	Mag  MagConfig  `yaml:"mag"`
	Poll PollConfig `yaml:"poll"`
	UDP  UDPConfig  `yaml:"udp"`
	MQTT MQTTConfig `yaml:"mqtt"`
	Web  WebConfig  `yaml:"web"`
}

type I2CConfig struct {
	// Backend is "dev" (/dev/i2c-N ioctl) or "periph".
	Backend string `yaml:"backend"`
	Bus     int    `yaml:"bus"`
	Addr    uint16 `yaml:"addr"`
}

type IRQConfig struct {
	// Backend is "gpiocdev", "periph" or "none".
	Backend string `yaml:"backend"`
	// Chip and Line select the gpiocdev line. Line is a line name
	// (e.g. "GPIO17") or a numeric offset.
	Chip string `yaml:"chip"`
	Line string `yaml:"line"`
	// Pin is the periph gpioreg name.
	Pin string `yaml:"pin"`
}

type MagConfig struct {
	Activate bool `yaml:"activate"`
	// DRMode overrides the data-rate mode chosen at attach. Nil keeps 3.
	DRMode *int `yaml:"dr_mode"`
}

type PollConfig struct {
	Interval time.Duration `yaml:"interval"`
}

type UDPConfig struct {
	Enable bool   `yaml:"enable"`
	Dest   string `yaml:"dest"`
}

type MQTTConfig struct {
	Enable   bool   `yaml:"enable"`
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
}

type WebConfig struct {
	Listen   string `yaml:"listen"`
	LogLines int    `yaml:"log_lines"`
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	if err := DefaultAndValidate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultAndValidate fills unset fields and rejects inconsistent ones.
func DefaultAndValidate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	cfg.I2C.Backend = strings.ToLower(strings.TrimSpace(cfg.I2C.Backend))
	if cfg.I2C.Backend == "" {
		cfg.I2C.Backend = "dev"
	}
	if cfg.I2C.Backend != "dev" && cfg.I2C.Backend != "periph" {
		return fmt.Errorf("i2c.backend must be 'dev' or 'periph'")
	}
	if cfg.I2C.Bus < 0 {
		return fmt.Errorf("i2c.bus must be >= 0")
	}
	if cfg.I2C.Bus == 0 {
		cfg.I2C.Bus = 1
	}
	if cfg.I2C.Addr == 0 {
		cfg.I2C.Addr = defaultI2CAddr
	}
	if cfg.I2C.Addr > 0x7F {
		return fmt.Errorf("i2c.addr must be a 7-bit address")
	}

	cfg.IRQ.Backend = strings.ToLower(strings.TrimSpace(cfg.IRQ.Backend))
	if cfg.IRQ.Backend == "" {
		cfg.IRQ.Backend = "gpiocdev"
	}
	switch cfg.IRQ.Backend {
	case "gpiocdev":
		if cfg.IRQ.Chip == "" {
			cfg.IRQ.Chip = "gpiochip0"
		}
		if strings.TrimSpace(cfg.IRQ.Line) == "" {
			return fmt.Errorf("irq.line is required when irq.backend is 'gpiocdev'")
		}
	case "periph":
		if strings.TrimSpace(cfg.IRQ.Pin) == "" {
			return fmt.Errorf("irq.pin is required when irq.backend is 'periph'")
		}
	case "none":
	default:
		return fmt.Errorf("irq.backend must be 'gpiocdev', 'periph' or 'none'")
	}

	if cfg.Mag.DRMode != nil && (*cfg.Mag.DRMode < 0 || *cfg.Mag.DRMode > 7) {
		return fmt.Errorf("mag.dr_mode must be in [0,7]")
	}

	if cfg.Poll.Interval < 0 {
		return fmt.Errorf("poll.interval must be > 0")
	}
	if cfg.Poll.Interval == 0 {
		cfg.Poll.Interval = defaultInterval
	}
	if cfg.Poll.Interval > maxInterval {
		return fmt.Errorf("poll.interval must be <= %s", maxInterval)
	}

	if cfg.UDP.Enable && strings.TrimSpace(cfg.UDP.Dest) == "" {
		return fmt.Errorf("udp.dest is required when udp.enable is true")
	}

	if cfg.MQTT.Enable {
		if strings.TrimSpace(cfg.MQTT.Broker) == "" {
			return fmt.Errorf("mqtt.broker is required when mqtt.enable is true")
		}
		if cfg.MQTT.ClientID == "" {
			cfg.MQTT.ClientID = "mag3110d"
		}
		if cfg.MQTT.Topic == "" {
			cfg.MQTT.Topic = defaultMQTTTopic
		}
	}

	if cfg.Web.LogLines <= 0 {
		cfg.Web.LogLines = defaultLogLines
	}
	return nil
}
