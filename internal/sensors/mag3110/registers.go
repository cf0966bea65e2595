package mag3110

import "time"

// MAG3110 register map. Offsets 0x01..0x06 hold the X/Y/Z output pairs in
// MSB, LSB order and auto-increment on a block read.
const (
	addrDefault = 0x0E

	regDRStatus = 0x00
	regOutXMSB  = 0x01
	regOutXLSB  = 0x02
	regOutYMSB  = 0x03
	regOutYLSB  = 0x04
	regOutZMSB  = 0x05
	regOutZLSB  = 0x06
	regWhoAmI   = 0x07
	regOffXMSB  = 0x08
	regOffXLSB  = 0x09
	regOffYMSB  = 0x0A
	regOffYLSB  = 0x0B
	regOffZMSB  = 0x0C
	regOffZLSB  = 0x0D
	regDieTemp  = 0x0E
	regCtrl1    = 0x10
	regCtrl2    = 0x11

	whoAmIVal = 0xC4
)

// CTRL_REG1 fields.
const (
	ctrl1ActiveMask   = 0x01
	ctrl1DRModeShift  = 5
	ctrl1DRModeMask   = 0x07 << ctrl1DRModeShift
	maxDataRateMode   = 7
	defaultDRMode     = 3
	ctrl2AutoMagReset = 0x80
)

const (
	// SampleLen is the size of the X/Y/Z output block.
	SampleLen = 6

	settleDelay      = 100 * time.Millisecond
	interruptTimeout = 1000 * time.Millisecond
)

// DRStatus bits.
const (
	StatusXDR   = 0x01
	StatusYDR   = 0x02
	StatusZDR   = 0x04
	StatusZYXDR = 0x08
	StatusXOW   = 0x10
	StatusYOW   = 0x20
	StatusZOW   = 0x40
	StatusZYXOW = 0x80
)

func DefaultAddress() uint16 { return addrDefault }
