//go:build !linux

package gpio

import "errors"

// RealActuator is not available on non-Linux platforms.
type RealActuator struct{}

// NewRealActuator returns an error on non-Linux platforms.
func NewRealActuator(chipName string, pins Pins, pwm PWMConfig) (*RealActuator, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// WriteDigital is not implemented on non-Linux platforms.
func (a *RealActuator) WriteDigital(ch Channel, on bool) error {
	return errors.New("gpio: not supported")
}

// WriteAnalog is not implemented on non-Linux platforms.
func (a *RealActuator) WriteAnalog(ch Channel, value uint8) error {
	return errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (a *RealActuator) Close() error {
	return nil
}
