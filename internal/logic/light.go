package logic

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ClampBrightness limits v to 0..255.
func ClampBrightness(v int64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// ParseBrightness parses a decimal brightness payload and clamps it.
func ParseBrightness(s string) (uint8, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		// Out-of-range integers still clamp.
		if errors.Is(err, strconv.ErrRange) {
			return ClampBrightness(v), nil
		}
		return 0, fmt.Errorf("parse brightness %q: %w", s, err)
	}
	return ClampBrightness(v), nil
}

// ApplySwitch applies a light state command to the requested brightness.
// It reports whether the request changed.
func (s *LightState) ApplySwitch(sw LightSwitch) bool {
	switch sw {
	case LightOn:
		if s.Requested == 0 {
			s.Requested = s.LastNonZero
			return s.Requested != 0
		}
	case LightOff:
		if s.Requested > 0 {
			s.Requested = 0
			return true
		}
	}
	return false
}

// ApplyBrightness applies a clamped brightness command. It reports whether
// the request changed.
func (s *LightState) ApplyBrightness(b uint8) bool {
	if b == s.Requested {
		return false
	}
	s.Requested = b
	if b != 0 {
		s.LastNonZero = b
	}
	return true
}

// Pending reports whether the light needs reconciling.
func (s LightState) Pending() bool {
	return s.Current != s.Requested
}
