//go:build linux

package gpio

import (
	"fmt"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

// RealActuator drives actual hardware using the Linux GPIO character device.
type RealActuator struct {
	mu    sync.Mutex
	chip  *gpiocdev.Chip
	lines map[Channel]*gpiocdev.Line
	light *sysfsPWM
}

// NewRealActuator requests every digital channel as an output driven low and
// sets the light PWM to zero duty.
func NewRealActuator(chipName string, pins Pins, pwm PWMConfig) (*RealActuator, error) {
	chip, err := gpiocdev.NewChip(chipName)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	a := &RealActuator{
		chip:  chip,
		lines: make(map[Channel]*gpiocdev.Line, len(DigitalChannels)),
	}

	for _, ch := range DigitalChannels {
		offset, _ := pins.Offset(ch)
		line, err := chip.RequestLine(offset, gpiocdev.AsOutput(0), gpiocdev.WithConsumer("fireplace-"+string(ch)))
		if err != nil {
			a.release()
			return nil, fmt.Errorf("request %s pin %d: %w", ch, offset, err)
		}
		a.lines[ch] = line
	}

	a.light, err = openSysfsPWM(pwm)
	if err != nil {
		a.release()
		return nil, fmt.Errorf("init light pwm: %w", err)
	}

	return a, nil
}

// WriteDigital sets a digital channel.
func (a *RealActuator) WriteDigital(ch Channel, on bool) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	line, ok := a.lines[ch]
	if !ok {
		return fmt.Errorf("write %s: %w", ch, ErrUnknownChannel)
	}
	v := 0
	if on {
		v = 1
	}
	if err := line.SetValue(v); err != nil {
		return fmt.Errorf("write %s: %w", ch, err)
	}
	return nil
}

// WriteAnalog sets the light PWM level.
func (a *RealActuator) WriteAnalog(ch Channel, value uint8) error {
	if ch != ChannelLight {
		return fmt.Errorf("write %s: %w", ch, ErrUnknownChannel)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.light.set(value); err != nil {
		return fmt.Errorf("write %s: %w", ch, err)
	}
	return nil
}

// Close drives the heater stages, fire relay and light off, then releases
// the lines. The fan line keeps its current level.
func (a *RealActuator) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var errs []error
	for _, ch := range []Channel{ChannelHeaterLow, ChannelHeaterHigh, ChannelFire} {
		if line := a.lines[ch]; line != nil {
			if err := line.SetValue(0); err != nil {
				errs = append(errs, fmt.Errorf("reset %s: %w", ch, err))
			}
		}
	}
	if a.light != nil {
		if err := a.light.close(); err != nil {
			errs = append(errs, fmt.Errorf("close light pwm: %w", err))
		}
	}
	errs = append(errs, a.release()...)

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

func (a *RealActuator) release() []error {
	var errs []error
	for ch, line := range a.lines {
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s pin: %w", ch, err))
		}
	}
	a.lines = nil
	if a.chip != nil {
		if err := a.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
		a.chip = nil
	}
	return errs
}
