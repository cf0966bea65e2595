//go:build !linux

package irq

import (
	"fmt"
	"io"
)

func openGPIOCDev(chip, line string, sig Signaler) (io.Closer, error) {
	return nil, fmt.Errorf("irq: gpiocdev unsupported on this platform")
}
