package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elzekool/mqtt-fireplace-control/internal/gpio"
	"github.com/elzekool/mqtt-fireplace-control/internal/logic"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, "tcp://localhost:1883", cfg.MQTT.Broker)
	assert.Equal(t, "fireplace-control", cfg.MQTT.ClientID)
	assert.Equal(t, "/fireplace", cfg.MQTT.TopicPrefix)
	assert.Equal(t, 0, cfg.MQTT.QoS)
	assert.False(t, cfg.MQTT.Retain)
	assert.Equal(t, "gpiochip0", cfg.GPIO.Chip)
	assert.Equal(t, gpio.DefaultPins(), cfg.Pins())
	assert.Equal(t, gpio.DefaultPWM(), cfg.PWM())
	assert.Equal(t, logic.DefaultTimings(), cfg.Timings())
	assert.Equal(t, 100*time.Millisecond, cfg.Loop.Idle)
	assert.Equal(t, ":80", cfg.HTTP.Addr)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Journal.Path)
	assert.Equal(t, "/fireplace/heater/state_cmd", cfg.Topics().HeaterCommand())
}

func TestLoadYAMLFile(t *testing.T) {
	path := writeConfig(t, `
mqtt:
  broker: tcp://broker.lan:1883
  client_id: living-room
  topic_prefix: /home/fireplace/
  qos: 1
  retain: true
gpio:
  pins:
    fan: 17
    fire: 27
  pwm:
    channel: 1
    period: 2ms
heater:
  preroll: 5s
  cooldown: 30s
log:
  level: debug
journal:
  path: /var/lib/fireplace/journal.db
`)

	cfg, err := Load([]string{"--config", path})
	require.NoError(t, err)

	assert.Equal(t, "tcp://broker.lan:1883", cfg.MQTT.Broker)
	assert.Equal(t, "living-room", cfg.MQTT.ClientID)
	assert.Equal(t, 1, cfg.MQTT.QoS)
	assert.True(t, cfg.MQTT.Retain)
	assert.Equal(t, "/home/fireplace/status", cfg.Topics().Availability())
	assert.Equal(t, 17, cfg.GPIO.Pins.Fan)
	assert.Equal(t, 27, cfg.GPIO.Pins.Fire)
	assert.Equal(t, gpio.DefaultPinHeaterLow, cfg.GPIO.Pins.HeaterLow)
	assert.Equal(t, 1, cfg.GPIO.PWM.Channel)
	assert.Equal(t, 2*time.Millisecond, cfg.GPIO.PWM.Period)
	assert.Equal(t, logic.Timings{PreRoll: 5 * time.Second, Cooldown: 30 * time.Second}, cfg.Timings())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "/var/lib/fireplace/journal.db", cfg.Journal.Path)
}

func TestEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "mqtt:\n  broker: tcp://file:1883\n")
	t.Setenv("FIREPLACE_MQTT_BROKER", "tcp://env:1883")
	t.Setenv("FIREPLACE_HEATER_COOLDOWN", "20s")
	t.Setenv("FIREPLACE_MQTT_CLIENT_ID", "from-env")

	cfg, err := Load([]string{"--config", path})
	require.NoError(t, err)

	assert.Equal(t, "tcp://env:1883", cfg.MQTT.Broker)
	assert.Equal(t, 20*time.Second, cfg.Heater.Cooldown)
	assert.Equal(t, "from-env", cfg.MQTT.ClientID)
}

func TestFlagsOverrideEnv(t *testing.T) {
	t.Setenv("FIREPLACE_MQTT_BROKER", "tcp://env:1883")
	t.Setenv("FIREPLACE_LOG_LEVEL", "warn")

	cfg, err := Load([]string{"--broker", "tcp://flag:1883", "--http", ":8080", "--journal", "/tmp/j.db"})
	require.NoError(t, err)

	assert.Equal(t, "tcp://flag:1883", cfg.MQTT.Broker)
	assert.Equal(t, ":8080", cfg.HTTP.Addr)
	assert.Equal(t, "/tmp/j.db", cfg.Journal.Path)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load([]string{"--config", filepath.Join(t.TempDir(), "missing.yml")})
	assert.Error(t, err)
}

func TestLoadUnknownFlag(t *testing.T) {
	_, err := Load([]string{"--poll", "100"})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg, err := Load(nil)
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"empty broker", func(c *Config) { c.MQTT.Broker = "" }, "mqtt.broker is required"},
		{"qos 3", func(c *Config) { c.MQTT.QoS = 3 }, "mqtt.qos"},
		{"slash prefix", func(c *Config) { c.MQTT.TopicPrefix = "/" }, "mqtt.topic_prefix"},
		{"duplicate pins", func(c *Config) { c.GPIO.Pins.HeaterHigh = c.GPIO.Pins.Fan }, "share line"},
		{"negative pin", func(c *Config) { c.GPIO.Pins.Fire = -1 }, "gpio.pins.fire"},
		{"zero period", func(c *Config) { c.GPIO.PWM.Period = 0 }, "gpio.pwm.period"},
		{"zero preroll", func(c *Config) { c.Heater.PreRoll = 0 }, "heater.preroll"},
		{"zero cooldown", func(c *Config) { c.Heater.Cooldown = 0 }, "heater.cooldown"},
		{"zero idle", func(c *Config) { c.Loop.Idle = 0 }, "loop.idle"},
		{"bad level", func(c *Config) { c.Log.Level = "verbose" }, "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)

	cfg.Heater.PreRoll = 0
	cfg.Heater.Cooldown = 0

	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "heater.preroll")
	assert.Contains(t, err.Error(), "heater.cooldown")
}
