package internal

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/elzekool/mqtt-fireplace-control/internal/engine"
	"github.com/elzekool/mqtt-fireplace-control/internal/gpio"
	"github.com/elzekool/mqtt-fireplace-control/internal/logic"
	"github.com/elzekool/mqtt-fireplace-control/internal/metrics"
	"github.com/elzekool/mqtt-fireplace-control/internal/mqtt"
	"github.com/elzekool/mqtt-fireplace-control/internal/status"
)

// command is an inbound message delivered at a given simulated tick.
type command struct {
	tick    int
	topic   string
	payload string
}

// TestIntegrationFullFlow drives router, heater and light with a simulated
// clock and checks what reaches the actuators, the bus and the status JSON.
func TestIntegrationFullFlow(t *testing.T) {
	topics := mqtt.NewTopics(mqtt.DefaultPrefix)
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	poll := 100 * time.Millisecond

	// HIGH at 0s, light ON at 1s, dim at 2s, OFF at 5s, bogus at 6s,
	// light OFF at 7s, light ON at 8s (restores 40).
	script := []command{
		{0, topics.HeaterCommand(), "HIGH"},
		{10, topics.LightCommand(), "ON"},
		{20, topics.LightBrightnessCommand(), "40"},
		{50, topics.HeaterCommand(), "OFF"},
		{60, topics.HeaterCommand(), "TO_HIGH"},
		{70, topics.LightCommand(), "OFF"},
		{80, topics.LightCommand(), "ON"},
	}

	act := gpio.NewFakeActuator()
	bus := mqtt.NewFakeBus()
	tracker := status.NewTracker(start, status.Config{})
	m := metrics.New(prometheus.NewRegistry())

	now := start
	opts := engine.Options{
		Actuator: act,
		Bus:      bus,
		Topics:   topics,
		Observer: engine.Observers{tracker, m},
		Now:      func() time.Time { return now },
	}
	heater := engine.NewHeater(opts)
	light := engine.NewLight(opts)
	router := engine.NewRouter(bus, heater, light, opts)

	heater.PublishState(now)
	light.PublishState(now)

	next := 0
	for tick := 0; tick <= 200; tick++ {
		now = start.Add(time.Duration(tick) * poll)

		for next < len(script) && script[next].tick == tick {
			c := script[next]
			router.Handle(mqtt.Message{Topic: c.topic, Payload: []byte(c.payload)})
			next++
		}

		for heater.Step(now) {
		}
		for light.Step(now) {
		}

		if n := act.UnsafeWrites(); n != 0 {
			t.Fatalf("tick %d: %d writes energized a stage without fan", tick, n)
		}
	}

	wantHeater := []string{"OFF", "TO_HIGH", "HIGH", "TO_OFF", "OFF"}
	gotHeater := bus.PublishedTo(topics.HeaterState())
	if len(gotHeater) != len(wantHeater) {
		t.Fatalf("heater publications: got %v, want %v", gotHeater, wantHeater)
	}
	for i := range wantHeater {
		if gotHeater[i] != wantHeater[i] {
			t.Errorf("heater publication %d: got %s, want %s", i, gotHeater[i], wantHeater[i])
		}
	}

	wantBrightness := []string{"0", "255", "40", "0", "40"}
	gotBrightness := bus.PublishedTo(topics.LightBrightness())
	if len(gotBrightness) != len(wantBrightness) {
		t.Fatalf("brightness publications: got %v, want %v", gotBrightness, wantBrightness)
	}
	for i := range wantBrightness {
		if gotBrightness[i] != wantBrightness[i] {
			t.Errorf("brightness publication %d: got %s, want %s", i, gotBrightness[i], wantBrightness[i])
		}
	}

	if got := act.Level(gpio.ChannelFan); got != 0 {
		t.Errorf("fan: got %d, want 0", got)
	}
	if got := act.Level(gpio.ChannelLight); got != 40 {
		t.Errorf("light: got %d, want 40", got)
	}

	tracker.Update(heater.State(), light.State())
	var parsed status.StatusJSON
	if err := json.Unmarshal(status.FormatJSON(tracker.Snapshot()), &parsed); err != nil {
		t.Fatalf("invalid status JSON: %v", err)
	}
	if parsed.Status.Heater.Mode != "OFF" {
		t.Errorf("status heater: got %s, want OFF", parsed.Status.Heater.Mode)
	}
	if parsed.Status.Light.Brightness != 40 {
		t.Errorf("status brightness: got %d, want 40", parsed.Status.Light.Brightness)
	}
	if parsed.Status.Counts.CommandsAccepted != 6 {
		t.Errorf("accepted commands: got %d, want 6", parsed.Status.Counts.CommandsAccepted)
	}
	if parsed.Status.Counts.CommandsRejected != 1 {
		t.Errorf("rejected commands: got %d, want 1", parsed.Status.Counts.CommandsRejected)
	}
	if parsed.Status.Counts.HeaterTransitions != 4 {
		t.Errorf("heater transitions: got %d, want 4", parsed.Status.Counts.HeaterTransitions)
	}
}

// TestIntegrationGuardPeriods checks the pre-roll and cooldown hold for the
// configured durations when the heater is stepped every poll.
func TestIntegrationGuardPeriods(t *testing.T) {
	topics := mqtt.NewTopics(mqtt.DefaultPrefix)
	start := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	poll := 100 * time.Millisecond

	act := gpio.NewFakeActuator()
	bus := mqtt.NewFakeBus()
	heater := engine.NewHeater(engine.Options{Actuator: act, Bus: bus, Topics: topics})

	entered := map[logic.HeaterMode]time.Time{}
	heater.Request(logic.ModeHigh)
	for tick := 0; tick <= 300; tick++ {
		now := start.Add(time.Duration(tick) * poll)
		if tick == 100 {
			heater.Request(logic.ModeOff)
		}
		before := heater.State().Current
		heater.Step(now)
		if after := heater.State().Current; after != before {
			entered[after] = now
		}
	}

	if d := entered[logic.ModeHigh].Sub(entered[logic.ModeToHigh]); d < 3*time.Second {
		t.Errorf("pre-roll lasted %v, want >= 3s", d)
	}
	if d := entered[logic.ModeOff].Sub(entered[logic.ModeToOff]); d < 10*time.Second {
		t.Errorf("cooldown lasted %v, want >= 10s", d)
	}
}
