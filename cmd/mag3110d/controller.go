package main

import (
	"log"
	"sync"

	"mag3110d/internal/sensors/mag3110"
)

// magController serializes control and lifecycle calls coming from HTTP
// handlers. Acquire is not routed through it; the poller calls the device
// directly.
type magController struct {
	mu  sync.Mutex
	dev *mag3110.Device
}

func newMagController(dev *mag3110.Device) *magController {
	return &magController{dev: dev}
}

func (c *magController) Active() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dev.Active()
}

func (c *magController) SetActive(enable bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.dev.SetActive(enable); err != nil {
		log.Printf("mag3110: set active=%v failed: %v", enable, err)
		return err
	}
	log.Printf("mag3110: active=%v", enable)
	return nil
}

func (c *magController) DataRateMode() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dev.DataRateMode()
}

func (c *magController) SetDataRateMode(mode int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.dev.SetDataRateMode(mode); err != nil {
		return err
	}
	log.Printf("mag3110: dr_mode=%d", mode)
	return nil
}

func (c *magController) Suspend() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.dev.Suspend(); err != nil {
		return err
	}
	log.Printf("mag3110: suspended ctrl_reg1=0x%02X", c.dev.CachedControl())
	return nil
}

func (c *magController) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.dev.Resume(); err != nil {
		return err
	}
	log.Printf("mag3110: resumed ctrl_reg1=0x%02X", c.dev.CachedControl())
	return nil
}

func (c *magController) Detach() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dev.Detach()
}

func (c *magController) CachedControl() byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dev.CachedControl()
}

func (c *magController) DieTemperature() (int8, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dev.DieTemperature()
}
