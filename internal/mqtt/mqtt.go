// Package mqtt provides the fireplace message bus with abstraction for testing.
package mqtt

import (
	"context"
	"errors"
	"strings"
)

// DefaultPrefix is the topic root shared by every fireplace topic.
const DefaultPrefix = "/fireplace"

// Availability payloads published on the status topic.
const (
	AvailabilityOnline  = "online"
	AvailabilityOffline = "offline"
)

// ErrClosed is returned by NextCommand after the bus has been closed.
var ErrClosed = errors.New("mqtt: bus closed")

// Message is a single inbound command or outbound status.
type Message struct {
	Topic    string
	Payload  []byte
	Retained bool
}

// Bus publishes status and delivers inbound commands in arrival order.
type Bus interface {
	// Publish sends a payload to topic.
	// Returns error if publishing fails (should not crash the process).
	Publish(topic string, payload []byte) error

	// NextCommand blocks until the next inbound command arrives, ctx is
	// done, or the bus is closed.
	NextCommand(ctx context.Context) (Message, error)

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// Topics is the topic layout under a prefix.
type Topics struct {
	Prefix string
}

// NewTopics returns the layout for prefix, without a trailing slash.
func NewTopics(prefix string) Topics {
	return Topics{Prefix: strings.TrimRight(prefix, "/")}
}

func (t Topics) join(suffix string) string { return t.Prefix + "/" + suffix }

// HeaterCommand is the inbound heater mode topic.
func (t Topics) HeaterCommand() string { return t.join("heater/state_cmd") }

// LightCommand is the inbound light ON/OFF topic.
func (t Topics) LightCommand() string { return t.join("light/state_cmd") }

// LightBrightnessCommand is the inbound light brightness topic.
func (t Topics) LightBrightnessCommand() string { return t.join("light/brightness_cmd") }

// HeaterState is the outbound heater mode topic.
func (t Topics) HeaterState() string { return t.join("heater/state") }

// LightState is the outbound light ON/OFF topic.
func (t Topics) LightState() string { return t.join("light/state") }

// LightBrightness is the outbound light brightness topic.
func (t Topics) LightBrightness() string { return t.join("light/brightness") }

// Availability is the online/offline topic, also used as last will.
func (t Topics) Availability() string { return t.join("status") }

// Commands returns every inbound topic.
func (t Topics) Commands() []string {
	return []string{t.HeaterCommand(), t.LightCommand(), t.LightBrightnessCommand()}
}
