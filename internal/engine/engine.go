// Package engine runs the fireplace reconciliation loops: the command router
// and the heater and light engines that converge current state onto the
// requested state.
package engine

import (
	"time"

	"github.com/elzekool/mqtt-fireplace-control/internal/gpio"
	"github.com/elzekool/mqtt-fireplace-control/internal/logger"
	"github.com/elzekool/mqtt-fireplace-control/internal/logic"
	"github.com/elzekool/mqtt-fireplace-control/internal/mqtt"
)

// DefaultIdle is how long a converged loop waits before looking again.
const DefaultIdle = 100 * time.Millisecond

// Publisher sends status payloads.
type Publisher interface {
	Publish(topic string, payload []byte) error
}

// Observer is notified of engine events. Implementations must be safe for
// concurrent use and return quickly.
type Observer interface {
	Observe(e logic.Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(e logic.Event)

// Observe calls f(e).
func (f ObserverFunc) Observe(e logic.Event) { f(e) }

// Observers fans an event out to every observer in order.
type Observers []Observer

// Observe forwards e to each observer.
func (o Observers) Observe(e logic.Event) {
	for _, obs := range o {
		if obs != nil {
			obs.Observe(e)
		}
	}
}

// Options holds what the heater and light engines share.
type Options struct {
	Actuator gpio.Actuator
	Bus      Publisher
	Topics   mqtt.Topics
	Observer Observer
	Log      *logger.Logger

	// Timings are the heater guard periods. Zero means logic.DefaultTimings.
	Timings logic.Timings
	// Idle is the converged poll interval. Zero means DefaultIdle.
	Idle time.Duration
	// Now is the clock. Nil means time.Now.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Timings == (logic.Timings{}) {
		o.Timings = logic.DefaultTimings()
	}
	if o.Idle <= 0 {
		o.Idle = DefaultIdle
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Observer == nil {
		o.Observer = Observers(nil)
	}
	if o.Log == nil {
		o.Log = logger.Nop()
	}
	return o
}

// notify performs a non-blocking send on a 1-buffered wake channel.
func notify(wake chan struct{}) {
	select {
	case wake <- struct{}{}:
	default:
	}
}
