package mag3110

import "fmt"

// Initialize enables automatic magnetic resets and selects data-rate mode 3
// (10 Hz output, 128x oversampling).
//
// The CTRL_REG2 write result is recorded in LastResetErr but never fails
// initialization; only the CTRL_REG1 write decides the outcome.
func (d *Device) Initialize() error {
	if err := d.io.WriteReg(regCtrl2, ctrl2AutoMagReset); err != nil {
		d.lastResetErr = fmt.Errorf("mag3110: ctrl_reg2 write failed: %w: %v", ErrTransport, err)
	} else {
		d.lastResetErr = nil
	}

	v, err := d.readCtrl1()
	if err != nil {
		return err
	}
	v = withDRMode(v, defaultDRMode)
	if err := d.writeCtrl1(v); err != nil {
		return err
	}
	d.ctlReg1 = v
	return nil
}

// Suspend captures CTRL_REG1 and puts the sensor in standby.
func (d *Device) Suspend() error {
	v, err := d.readCtrl1()
	if err != nil {
		return err
	}
	d.ctlReg1 = v
	return d.writeCtrl1(v &^ ctrl1ActiveMask)
}

// Resume restores the CTRL_REG1 value captured by Suspend. When that value
// was active the output block is drained as in SetActive(true).
func (d *Device) Resume() error {
	if err := d.writeCtrl1(d.ctlReg1); err != nil {
		return err
	}
	if d.ctlReg1&ctrl1ActiveMask != 0 {
		d.clearStaleInterrupt()
	}
	return nil
}

// Detach leaves the sensor in standby. The Device must not be used after.
func (d *Device) Detach() error {
	if d == nil {
		return nil
	}
	return d.Suspend()
}
