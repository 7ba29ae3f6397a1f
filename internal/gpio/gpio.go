// Package gpio drives the fireplace actuator channels with hardware abstraction.
// The real implementation uses the Linux GPIO character device for digital
// channels and sysfs PWM for the light. The fake implementation allows testing
// without hardware.
package gpio

import (
	"errors"
	"time"
)

// Channel names an actuator output.
type Channel string

const (
	ChannelFan        Channel = "fan"
	ChannelFire       Channel = "fire"
	ChannelHeaterLow  Channel = "heater_low"
	ChannelHeaterHigh Channel = "heater_high"
	ChannelLight      Channel = "light"
)

// DigitalChannels lists the on/off outputs.
var DigitalChannels = []Channel{ChannelFan, ChannelFire, ChannelHeaterLow, ChannelHeaterHigh}

// ErrUnknownChannel is returned for writes to a channel the actuator does not drive.
var ErrUnknownChannel = errors.New("unknown actuator channel")

// Actuator writes actuator channels. Writes are fire-and-forget; an error
// means the board rejected the write and is logged by the caller.
type Actuator interface {
	// WriteDigital sets a digital channel on or off.
	WriteDigital(ch Channel, on bool) error

	// WriteAnalog sets an analog (PWM) channel to 0..255.
	WriteAnalog(ch Channel, value uint8) error

	// Close releases GPIO resources.
	Close() error
}

// Pin definitions (BCM numbering)
const (
	DefaultPinFan        = 4
	DefaultPinFire       = 5
	DefaultPinHeaterLow  = 6
	DefaultPinHeaterHigh = 7
)

// Pins maps the digital channels to GPIO line offsets.
type Pins struct {
	Fan        int
	Fire       int
	HeaterLow  int
	HeaterHigh int
}

// DefaultPins returns the stock wiring.
func DefaultPins() Pins {
	return Pins{
		Fan:        DefaultPinFan,
		Fire:       DefaultPinFire,
		HeaterLow:  DefaultPinHeaterLow,
		HeaterHigh: DefaultPinHeaterHigh,
	}
}

// Offset returns the line offset for a digital channel.
func (p Pins) Offset(ch Channel) (int, bool) {
	switch ch {
	case ChannelFan:
		return p.Fan, true
	case ChannelFire:
		return p.Fire, true
	case ChannelHeaterLow:
		return p.HeaterLow, true
	case ChannelHeaterHigh:
		return p.HeaterHigh, true
	}
	return 0, false
}

// PWMConfig selects the sysfs PWM output used for the light.
type PWMConfig struct {
	// Root is the pwmchip directory, e.g. /sys/class/pwm/pwmchip0.
	Root    string
	Channel int
	Period  time.Duration
}

// DefaultPWM returns pwmchip0 channel 0 at 1kHz.
func DefaultPWM() PWMConfig {
	return PWMConfig{
		Root:    "/sys/class/pwm/pwmchip0",
		Channel: 0,
		Period:  time.Millisecond,
	}
}
