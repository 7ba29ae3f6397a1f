// Package logic contains the pure control rules for the fireplace heater and light.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import (
	"errors"
	"strings"
	"time"
)

// HeaterMode is the operating mode of the two-stage heater.
type HeaterMode string

const (
	ModeOff    HeaterMode = "OFF"
	ModeToLow  HeaterMode = "TO_LOW"
	ModeToHigh HeaterMode = "TO_HIGH"
	ModeToOff  HeaterMode = "TO_OFF"
	ModeLow    HeaterMode = "LOW"
	ModeHigh   HeaterMode = "HIGH"
)

// ErrUnknownMode is returned when a payload does not name a settled heater mode.
var ErrUnknownMode = errors.New("unknown heater mode")

// AllModes lists every heater mode, settled and transitional.
var AllModes = []HeaterMode{ModeOff, ModeToLow, ModeToHigh, ModeToOff, ModeLow, ModeHigh}

// ParseHeaterMode parses a heater command payload. Only settled modes can be
// requested; transitional modes are owned by the heater loop.
func ParseHeaterMode(s string) (HeaterMode, error) {
	switch m := HeaterMode(strings.TrimSpace(s)); m {
	case ModeOff, ModeLow, ModeHigh:
		return m, nil
	}
	return "", ErrUnknownMode
}

// Settled reports whether the mode has no pending timer.
func (m HeaterMode) Settled() bool {
	return m == ModeOff || m == ModeLow || m == ModeHigh
}

// Transitional reports whether the mode awaits a timed guard.
func (m HeaterMode) Transitional() bool {
	return m == ModeToOff || m == ModeToLow || m == ModeToHigh
}

// Target returns the settled mode a transitional mode leads to.
// Settled modes are their own target.
func (m HeaterMode) Target() HeaterMode {
	switch m {
	case ModeToOff:
		return ModeOff
	case ModeToLow:
		return ModeLow
	case ModeToHigh:
		return ModeHigh
	}
	return m
}

// Pattern is the level of the three heater actuator channels.
type Pattern struct {
	Fan  bool
	Low  bool
	High bool
}

var (
	PatternOff        = Pattern{}
	PatternTransition = Pattern{Fan: true}
	PatternLow        = Pattern{Fan: true, High: true}
	PatternHigh       = Pattern{Fan: true, Low: true, High: true}
)

// PatternFor returns the actuator pattern for a heater mode.
func PatternFor(m HeaterMode) Pattern {
	switch m {
	case ModeLow:
		return PatternLow
	case ModeHigh:
		return PatternHigh
	case ModeToOff, ModeToLow, ModeToHigh:
		return PatternTransition
	}
	return PatternOff
}

// Safe reports whether no heater stage is energized without the fan.
func (p Pattern) Safe() bool {
	return p.Fan || (!p.Low && !p.High)
}

// Hold selects the guard period started by a transition.
type Hold int

const (
	HoldNone Hold = iota
	HoldPreRoll
	HoldCooldown
)

// Timings holds the guard durations.
type Timings struct {
	PreRoll  time.Duration
	Cooldown time.Duration
}

// DefaultTimings returns the 3s pre-roll and 10s cooldown.
func DefaultTimings() Timings {
	return Timings{
		PreRoll:  3 * time.Second,
		Cooldown: 10 * time.Second,
	}
}

// Duration returns the guard period for h.
func (t Timings) Duration(h Hold) time.Duration {
	switch h {
	case HoldPreRoll:
		return t.PreRoll
	case HoldCooldown:
		return t.Cooldown
	}
	return 0
}

// HeaterState is the authoritative heater state.
// Deadline is only meaningful while Current is transitional.
type HeaterState struct {
	Current   HeaterMode
	Requested HeaterMode
	Deadline  time.Time
}

// NewHeaterState returns a heater that is OFF and wants to stay OFF.
func NewHeaterState() HeaterState {
	return HeaterState{Current: ModeOff, Requested: ModeOff}
}

// DefaultLastNonZero is the brightness restored by ON when no brightness was set yet.
const DefaultLastNonZero = 255

// LightState is the authoritative light state.
// LastNonZero is memory for re-illumination after OFF, never current state.
type LightState struct {
	Current     uint8
	Requested   uint8
	LastNonZero uint8
}

// NewLightState returns a dark light that restores to full brightness.
func NewLightState() LightState {
	return LightState{LastNonZero: DefaultLastNonZero}
}

// LightSwitch is the payload of a light state command or status.
type LightSwitch string

const (
	LightOn  LightSwitch = "ON"
	LightOff LightSwitch = "OFF"
)

// ErrUnknownLightSwitch is returned for light state payloads other than ON/OFF.
var ErrUnknownLightSwitch = errors.New("unknown light state")

// ParseLightSwitch parses a light state command payload.
func ParseLightSwitch(s string) (LightSwitch, error) {
	switch v := LightSwitch(strings.TrimSpace(s)); v {
	case LightOn, LightOff:
		return v, nil
	}
	return "", ErrUnknownLightSwitch
}

// SwitchFor derives the published light state from a brightness.
func SwitchFor(brightness uint8) LightSwitch {
	if brightness > 0 {
		return LightOn
	}
	return LightOff
}
