package control

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"
)

// PinActuator drives a relay module through a GPIO line. Many relay
// boards trigger on a low level, hence the polarity flag.
type PinActuator struct {
	pin       gpio.PinIO
	activeLow bool
}

// NewPinActuator wraps an already resolved GPIO pin.
func NewPinActuator(pin gpio.PinIO, activeLow bool) (*PinActuator, error) {
	if pin == nil {
		return nil, fmt.Errorf("control: nil relay pin")
	}
	return &PinActuator{pin: pin, activeLow: activeLow}, nil
}

func (p *PinActuator) Set(on bool) error {
	level := gpio.Level(on)
	if p.activeLow {
		level = !level
	}
	if err := p.pin.Out(level); err != nil {
		return fmt.Errorf("control: relay pin %s: %w", p.pin.Name(), err)
	}
	return nil
}
