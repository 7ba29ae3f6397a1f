package engine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/elzekool/mqtt-fireplace-control/internal/gpio"
	"github.com/elzekool/mqtt-fireplace-control/internal/logic"
)

// Heater owns the heater state and runs its reconciliation loop.
// The router writes Requested through Request; only the loop writes Current
// and Deadline.
type Heater struct {
	opts Options

	mu    sync.Mutex
	state logic.HeaterState

	wake     chan struct{}
	lastStep atomic.Int64

	// stall is the pair last reported as having no rule. Loop-owned.
	stall logic.HeaterState
}

// NewHeater returns a heater that is OFF and wants to stay OFF.
func NewHeater(opts Options) *Heater {
	return &Heater{
		opts:  opts.withDefaults(),
		state: logic.NewHeaterState(),
		wake:  make(chan struct{}, 1),
	}
}

// Request sets the requested mode and wakes the loop. It reports whether
// the request changed.
func (h *Heater) Request(m logic.HeaterMode) bool {
	h.mu.Lock()
	changed := h.state.Requested != m
	h.state.Requested = m
	h.mu.Unlock()

	if changed {
		notify(h.wake)
	}
	return changed
}

// State returns a copy of the heater state.
func (h *Heater) State() logic.HeaterState {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// LastStep returns when the loop last evaluated the state.
func (h *Heater) LastStep() time.Time {
	return time.Unix(0, h.lastStep.Load())
}

// Step performs one reconciliation pass at now. It reports whether a
// transition was taken; false means the loop should idle.
func (h *Heater) Step(now time.Time) bool {
	h.lastStep.Store(now.UnixNano())

	s := h.State()
	tr, ok := logic.Decide(s, now)
	if !ok {
		h.reportStall(s, now)
		return false
	}
	h.stall = logic.HeaterState{}
	if tr.Idle {
		return false
	}

	h.apply(tr.Pattern, now)

	h.mu.Lock()
	from := h.state.Current
	changed := h.state.Apply(tr, now, h.opts.Timings)
	h.mu.Unlock()

	if changed {
		h.opts.Log.Infow("heater transition", "from", from, "to", tr.Next, "requested", s.Requested)
		h.publish(tr.Next, now)
		h.opts.Observer.Observe(logic.Event{
			Timestamp: now,
			Type:      logic.EventHeaterMode,
			From:      string(from),
			To:        string(tr.Next),
		})
	}
	return true
}

func (h *Heater) reportStall(s logic.HeaterState, now time.Time) {
	if h.stall.Current == s.Current && h.stall.Requested == s.Requested {
		return
	}
	h.stall = s
	h.opts.Log.Errorw("heater has no transition", "current", s.Current, "requested", s.Requested)
	h.opts.Observer.Observe(logic.Event{
		Timestamp: now,
		Type:      logic.EventHeaterStall,
		From:      string(s.Current),
		To:        string(s.Requested),
	})
}

// apply writes a heater pattern. Stages are only raised after the fan and
// the fan is only dropped after the stages.
func (h *Heater) apply(p logic.Pattern, now time.Time) {
	if p.Fan {
		h.write(gpio.ChannelFan, true, now)
	}
	h.write(gpio.ChannelHeaterLow, p.Low, now)
	h.write(gpio.ChannelHeaterHigh, p.High, now)
	if !p.Fan {
		h.write(gpio.ChannelFan, false, now)
	}
}

func (h *Heater) write(ch gpio.Channel, on bool, now time.Time) {
	if err := h.opts.Actuator.WriteDigital(ch, on); err != nil {
		actuatorFailed(h.opts, ch, err, now)
	}
}

// PublishState publishes the current heater mode.
func (h *Heater) PublishState(now time.Time) {
	h.publish(h.State().Current, now)
}

func (h *Heater) publish(m logic.HeaterMode, now time.Time) {
	topic := h.opts.Topics.HeaterState()
	if err := h.opts.Bus.Publish(topic, []byte(m)); err != nil {
		publishFailed(h.opts, topic, err, now)
	}
}

// Run reconciles until ctx is done.
func (h *Heater) Run(ctx context.Context) error {
	return runLoop(ctx, h.opts, h.wake, h.Step)
}

func actuatorFailed(o Options, ch gpio.Channel, err error, now time.Time) {
	o.Log.Errorw("actuator write failed", "channel", ch, "err", err)
	o.Observer.Observe(logic.Event{
		Timestamp: now,
		Type:      logic.EventActuatorError,
		Topic:     string(ch),
		Detail:    err.Error(),
	})
}

func publishFailed(o Options, topic string, err error, now time.Time) {
	o.Log.Errorw("publish failed", "topic", topic, "err", err)
	o.Observer.Observe(logic.Event{
		Timestamp: now,
		Type:      logic.EventPublishError,
		Topic:     topic,
		Detail:    err.Error(),
	})
}

// runLoop calls step until ctx is done, waiting up to o.Idle or until woken
// whenever step reports nothing to do.
func runLoop(ctx context.Context, o Options, wake <-chan struct{}, step func(time.Time) bool) error {
	timer := time.NewTimer(o.Idle)
	defer timer.Stop()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if step(o.Now()) {
			continue
		}
		timer.Reset(o.Idle)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-wake:
		case <-timer.C:
		}
	}
}
