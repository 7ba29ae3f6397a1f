// Package metrics exposes fireplace engine events as Prometheus collectors.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/elzekool/mqtt-fireplace-control/internal/logic"
)

const namespace = "fireplace"

// Metrics holds the fireplace collectors. It implements the engine observer.
type Metrics struct {
	heaterMode        *prometheus.GaugeVec
	heaterTransitions *prometheus.CounterVec
	heaterStalls      prometheus.Counter
	lightBrightness   prometheus.Gauge
	lightChanges      prometheus.Counter
	commands          *prometheus.CounterVec
	actuatorErrors    *prometheus.CounterVec
	publishErrors     prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		heaterMode: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "heater_mode",
			Help:      "1 for the current heater mode, 0 for every other mode",
		}, []string{"mode"}),
		heaterTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "heater_transitions_total",
			Help:      "Heater mode changes",
		}, []string{"from", "to"}),
		heaterStalls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "heater_stalls_total",
			Help:      "Heater steps with no rule for the current and requested mode",
		}),
		lightBrightness: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "light_brightness",
			Help:      "Current light brightness (0-255)",
		}),
		lightChanges: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "light_changes_total",
			Help:      "Light brightness changes applied to the actuators",
		}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Inbound commands by result",
		}, []string{"result"}),
		actuatorErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "actuator_errors_total",
			Help:      "Failed actuator writes by channel",
		}, []string{"channel"}),
		publishErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_errors_total",
			Help:      "Failed status publications",
		}),
	}

	reg.MustRegister(
		m.heaterMode,
		m.heaterTransitions,
		m.heaterStalls,
		m.lightBrightness,
		m.lightChanges,
		m.commands,
		m.actuatorErrors,
		m.publishErrors,
	)
	m.setHeaterMode(logic.ModeOff)
	return m
}

// Observe records an engine event.
func (m *Metrics) Observe(e logic.Event) {
	switch e.Type {
	case logic.EventHeaterMode:
		m.heaterTransitions.WithLabelValues(e.From, e.To).Inc()
		m.setHeaterMode(logic.HeaterMode(e.To))
	case logic.EventHeaterStall:
		m.heaterStalls.Inc()
	case logic.EventLightBrightness:
		m.lightChanges.Inc()
		if v, err := strconv.Atoi(e.To); err == nil {
			m.lightBrightness.Set(float64(v))
		}
	case logic.EventCommandAccepted:
		m.commands.WithLabelValues("accepted").Inc()
	case logic.EventCommandRejected:
		m.commands.WithLabelValues("rejected").Inc()
	case logic.EventActuatorError:
		m.actuatorErrors.WithLabelValues(e.Topic).Inc()
	case logic.EventPublishError:
		m.publishErrors.Inc()
	}
}

func (m *Metrics) setHeaterMode(current logic.HeaterMode) {
	for _, mode := range logic.AllModes {
		v := 0.0
		if mode == current {
			v = 1
		}
		m.heaterMode.WithLabelValues(string(mode)).Set(v)
	}
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
