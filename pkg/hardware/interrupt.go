package hardware

import (
	"fmt"

	"github.com/pkg/errors"
	"periph.io/x/periph/conn/gpio"
	"periph.io/x/periph/conn/gpio/gpioreg"
	"periph.io/x/periph/host"
)

// Lines per GPIO chip in the sysfs numbering.
const gpiosPerChip = 32

// InterruptPinName maps a chip/line pair to periph's global pin name.
func InterruptPinName(chip, pin int) string {
	return fmt.Sprintf("GPIO%d", chip*gpiosPerChip+pin)
}

// OpenInterruptPin configures the data-ready line as a rising-edge input.
func OpenInterruptPin(chip, pin int) (gpio.PinIO, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "periph init")
	}
	name := InterruptPinName(chip, pin)
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, errors.Errorf("no GPIO pin %s", name)
	}
	if err := p.In(gpio.PullNoChange, gpio.RisingEdge); err != nil {
		return nil, errors.Wrapf(err, "failed to enable edge detection on %s", name)
	}
	return p, nil
}
