package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/elzekool/mqtt-fireplace-control/internal/logger"
	"github.com/elzekool/mqtt-fireplace-control/internal/logic"
	"github.com/elzekool/mqtt-fireplace-control/internal/mqtt"
)

// ErrUnknownTopic is returned for commands on a topic the router does not handle.
var ErrUnknownTopic = errors.New("unknown command topic")

// CommandSource delivers inbound commands in arrival order.
type CommandSource interface {
	NextCommand(ctx context.Context) (mqtt.Message, error)
}

// Router decodes inbound commands into heater and light requests.
// It never touches the actuators or publishes.
type Router struct {
	source   CommandSource
	heater   *Heater
	light    *Light
	topics   mqtt.Topics
	observer Observer
	log      *logger.Logger
	now      func() time.Time
}

// NewRouter returns a router feeding heater and light. The observer, log
// and clock are taken from opts.
func NewRouter(source CommandSource, heater *Heater, light *Light, opts Options) *Router {
	opts = opts.withDefaults()
	return &Router{
		source:   source,
		heater:   heater,
		light:    light,
		topics:   opts.Topics,
		observer: opts.Observer,
		log:      opts.Log,
		now:      opts.Now,
	}
}

// Run handles commands until ctx is done or the source is closed.
func (r *Router) Run(ctx context.Context) error {
	for {
		msg, err := r.source.NextCommand(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, mqtt.ErrClosed) {
				return err
			}
			r.log.Warnw("receive command failed", "err", err)
			continue
		}
		r.Handle(msg)
	}
}

// Handle applies a single command. Malformed commands are logged and
// dropped; the returned error is informational only.
func (r *Router) Handle(msg mqtt.Message) error {
	payload := string(msg.Payload)
	r.log.Infow("command", "topic", msg.Topic, "payload", strings.TrimSpace(payload))

	changed, err := r.dispatch(msg.Topic, payload)
	now := r.now()
	if err != nil {
		r.log.Warnw("dropping command", "topic", msg.Topic, "payload", payload, "err", err)
		r.observer.Observe(logic.Event{
			Timestamp: now,
			Type:      logic.EventCommandRejected,
			Topic:     msg.Topic,
			To:        payload,
			Detail:    err.Error(),
		})
		return err
	}

	detail := "unchanged"
	if changed {
		detail = "changed"
	}
	r.observer.Observe(logic.Event{
		Timestamp: now,
		Type:      logic.EventCommandAccepted,
		Topic:     msg.Topic,
		To:        strings.TrimSpace(payload),
		Detail:    detail,
	})
	return nil
}

func (r *Router) dispatch(topic, payload string) (bool, error) {
	switch topic {
	case r.topics.HeaterCommand():
		m, err := logic.ParseHeaterMode(payload)
		if err != nil {
			return false, fmt.Errorf("heater command %q: %w", payload, err)
		}
		return r.heater.Request(m), nil

	case r.topics.LightCommand():
		sw, err := logic.ParseLightSwitch(payload)
		if err != nil {
			return false, fmt.Errorf("light command %q: %w", payload, err)
		}
		return r.light.SetSwitch(sw), nil

	case r.topics.LightBrightnessCommand():
		b, err := logic.ParseBrightness(payload)
		if err != nil {
			return false, err
		}
		return r.light.SetBrightness(b), nil
	}
	return false, fmt.Errorf("%s: %w", topic, ErrUnknownTopic)
}
