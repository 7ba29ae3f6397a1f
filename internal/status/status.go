// Package status provides a thread-safe status tracker for the fireplace daemon.
// It is read by the HTTP handlers.
package status

import (
	"sync"
	"time"

	"github.com/elzekool/mqtt-fireplace-control/internal/logic"
)

// NetworkInfo contains network state as reported by the host.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	Broker      string
	TopicPrefix string
	HTTPAddr    string
	PreRollMs   int64
	CooldownMs  int64
	IdleMs      int64
	JournalPath string // empty = journal disabled
}

// Counts tallies engine events since start.
type Counts struct {
	HeaterTransitions int
	HeaterStalls      int
	LightChanges      int
	CommandsAccepted  int
	CommandsRejected  int
	ActuatorErrors    int
	PublishErrors     int
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type, safe to use after the lock is released.
type Snapshot struct {
	Heater        logic.HeaterState
	Light         logic.LightState
	Ready         bool
	Counts        Counts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// Update sets the heater and light state and marks the tracker ready.
// Called periodically from the refresh loop.
func (t *Tracker) Update(heater logic.HeaterState, light logic.LightState) {
	t.mu.Lock()
	t.snap.Heater = heater
	t.snap.Light = light
	t.snap.Ready = true
	t.mu.Unlock()
}

// Observe counts an engine event.
func (t *Tracker) Observe(e logic.Event) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c := &t.snap.Counts
	switch e.Type {
	case logic.EventHeaterMode:
		c.HeaterTransitions++
	case logic.EventHeaterStall:
		c.HeaterStalls++
	case logic.EventLightBrightness:
		c.LightChanges++
	case logic.EventCommandAccepted:
		c.CommandsAccepted++
	case logic.EventCommandRejected:
		c.CommandsRejected++
	case logic.EventActuatorError:
		c.ActuatorErrors++
	case logic.EventPublishError:
		c.PublishErrors++
	}
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
