package logic

import "time"

// EventType classifies an engine event.
type EventType string

const (
	EventHeaterMode      EventType = "HEATER_MODE"
	EventHeaterStall     EventType = "HEATER_STALL"
	EventLightBrightness EventType = "LIGHT_BRIGHTNESS"
	EventCommandAccepted EventType = "COMMAND_ACCEPTED"
	EventCommandRejected EventType = "COMMAND_REJECTED"
	EventActuatorError   EventType = "ACTUATOR_ERROR"
	EventPublishError    EventType = "PUBLISH_ERROR"
)

// Event is emitted by the engines after a change is committed or an error
// is swallowed. From/To carry mode names or brightness values.
type Event struct {
	Timestamp time.Time
	Type      EventType
	From      string
	To        string
	Topic     string
	Detail    string
}
