package engine

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/elzekool/mqtt-fireplace-control/internal/gpio"
	"github.com/elzekool/mqtt-fireplace-control/internal/logic"
)

// Light owns the light state and runs its reconciliation loop.
// The router writes Requested and LastNonZero; only the loop writes Current.
type Light struct {
	opts Options

	mu    sync.Mutex
	state logic.LightState

	wake     chan struct{}
	lastStep atomic.Int64
}

// NewLight returns a dark light that restores to full brightness.
func NewLight(opts Options) *Light {
	return &Light{
		opts:  opts.withDefaults(),
		state: logic.NewLightState(),
		wake:  make(chan struct{}, 1),
	}
}

// SetSwitch applies an ON/OFF command. It reports whether the request changed.
func (l *Light) SetSwitch(sw logic.LightSwitch) bool {
	l.mu.Lock()
	changed := l.state.ApplySwitch(sw)
	l.mu.Unlock()

	if changed {
		notify(l.wake)
	}
	return changed
}

// SetBrightness applies a clamped brightness command. It reports whether the
// request changed.
func (l *Light) SetBrightness(b uint8) bool {
	l.mu.Lock()
	changed := l.state.ApplyBrightness(b)
	l.mu.Unlock()

	if changed {
		notify(l.wake)
	}
	return changed
}

// State returns a copy of the light state.
func (l *Light) State() logic.LightState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// LastStep returns when the loop last evaluated the state.
func (l *Light) LastStep() time.Time {
	return time.Unix(0, l.lastStep.Load())
}

// Step performs one reconciliation pass. It reports whether the light was
// changed; false means the loop should idle.
func (l *Light) Step(now time.Time) bool {
	l.lastStep.Store(now.UnixNano())

	s := l.State()
	if !s.Pending() {
		return false
	}
	target := s.Requested

	if err := l.opts.Actuator.WriteDigital(gpio.ChannelFire, target > 0); err != nil {
		actuatorFailed(l.opts, gpio.ChannelFire, err, now)
	}
	if err := l.opts.Actuator.WriteAnalog(gpio.ChannelLight, target); err != nil {
		actuatorFailed(l.opts, gpio.ChannelLight, err, now)
	}

	l.mu.Lock()
	l.state.Current = target
	l.mu.Unlock()

	l.opts.Log.Infow("light changed", "from", s.Current, "to", target)
	l.publish(target, now)
	l.opts.Observer.Observe(logic.Event{
		Timestamp: now,
		Type:      logic.EventLightBrightness,
		From:      strconv.Itoa(int(s.Current)),
		To:        strconv.Itoa(int(target)),
	})
	return true
}

// PublishState publishes the current light state and brightness.
func (l *Light) PublishState(now time.Time) {
	l.publish(l.State().Current, now)
}

func (l *Light) publish(brightness uint8, now time.Time) {
	stateTopic := l.opts.Topics.LightState()
	if err := l.opts.Bus.Publish(stateTopic, []byte(logic.SwitchFor(brightness))); err != nil {
		publishFailed(l.opts, stateTopic, err, now)
	}
	brightnessTopic := l.opts.Topics.LightBrightness()
	if err := l.opts.Bus.Publish(brightnessTopic, []byte(strconv.Itoa(int(brightness)))); err != nil {
		publishFailed(l.opts, brightnessTopic, err, now)
	}
}

// Run reconciles until ctx is done.
func (l *Light) Run(ctx context.Context) error {
	return runLoop(ctx, l.opts, l.wake, l.Step)
}
