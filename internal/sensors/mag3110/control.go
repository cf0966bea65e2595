package mag3110

import "fmt"

// Active reports CTRL_REG1 bit 0 as read from the sensor.
func (d *Device) Active() (bool, error) {
	v, err := d.readCtrl1()
	if err != nil {
		return false, err
	}
	return v&ctrl1ActiveMask != 0, nil
}

// SetActive switches between standby and active mode, leaving the data-rate
// field untouched. After activation it waits for the first conversion and
// drains the output block so a stale data-ready does not pace the next
// Acquire. A failure in that drain is ignored.
func (d *Device) SetActive(enable bool) error {
	v, err := d.readCtrl1()
	if err != nil {
		return err
	}
	if enable {
		v |= ctrl1ActiveMask
	} else {
		v &^= ctrl1ActiveMask
	}
	if err := d.writeCtrl1(v); err != nil {
		return err
	}
	if enable {
		sleep(settleDelay)
		d.clearStaleInterrupt()
	}
	return nil
}

// DataRateMode returns the CTRL_REG1 DR/OS field (0..7).
func (d *Device) DataRateMode() (int, error) {
	v, err := d.readCtrl1()
	if err != nil {
		return 0, err
	}
	return int(v&ctrl1DRModeMask) >> ctrl1DRModeShift, nil
}

// SetDataRateMode writes the DR/OS field. The datasheet requires standby for
// this change; that is left to the caller.
func (d *Device) SetDataRateMode(mode int) error {
	if mode < 0 || mode > maxDataRateMode {
		return fmt.Errorf("mag3110: data rate mode %d out of range [0,%d]: %w", mode, maxDataRateMode, ErrInvalidArgument)
	}
	v, err := d.readCtrl1()
	if err != nil {
		return err
	}
	return d.writeCtrl1(withDRMode(v, mode))
}

func withDRMode(v byte, mode int) byte {
	return v&^ctrl1DRModeMask | byte(mode)<<ctrl1DRModeShift
}
