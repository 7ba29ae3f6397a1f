// Package config loads daemon configuration from defaults, an optional YAML
// file, FIREPLACE_* environment variables and command line flags, in
// increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/elzekool/mqtt-fireplace-control/internal/gpio"
	"github.com/elzekool/mqtt-fireplace-control/internal/logger"
	"github.com/elzekool/mqtt-fireplace-control/internal/logic"
	"github.com/elzekool/mqtt-fireplace-control/internal/mqtt"
)

// EnvPrefix prefixes every environment override, e.g. FIREPLACE_MQTT_BROKER.
const EnvPrefix = "FIREPLACE"

// Config is the complete daemon configuration.
type Config struct {
	MQTT    MQTTConfig    `mapstructure:"mqtt"`
	GPIO    GPIOConfig    `mapstructure:"gpio"`
	Heater  HeaterConfig  `mapstructure:"heater"`
	Loop    LoopConfig    `mapstructure:"loop"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Log     LogConfig     `mapstructure:"log"`
	Journal JournalConfig `mapstructure:"journal"`
}

// MQTTConfig configures the broker connection and topic layout.
type MQTTConfig struct {
	Broker      string `mapstructure:"broker"`
	ClientID    string `mapstructure:"client_id"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	QoS         int    `mapstructure:"qos"`
	Retain      bool   `mapstructure:"retain"`
}

// GPIOConfig selects the GPIO chip, line offsets and PWM output.
type GPIOConfig struct {
	Chip string     `mapstructure:"chip"`
	Pins PinsConfig `mapstructure:"pins"`
	PWM  PWMConfig  `mapstructure:"pwm"`
}

// PinsConfig maps digital channels to line offsets.
type PinsConfig struct {
	Fan        int `mapstructure:"fan"`
	Fire       int `mapstructure:"fire"`
	HeaterLow  int `mapstructure:"heater_low"`
	HeaterHigh int `mapstructure:"heater_high"`
}

// PWMConfig selects the sysfs PWM output for the light.
type PWMConfig struct {
	Chip    string        `mapstructure:"chip"`
	Channel int           `mapstructure:"channel"`
	Period  time.Duration `mapstructure:"period"`
}

// HeaterConfig holds the heater guard periods.
type HeaterConfig struct {
	PreRoll  time.Duration `mapstructure:"preroll"`
	Cooldown time.Duration `mapstructure:"cooldown"`
}

// LoopConfig tunes the reconciliation loops.
type LoopConfig struct {
	Idle time.Duration `mapstructure:"idle"`
}

// HTTPConfig configures the status server.
type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// JournalConfig configures the event journal. An empty path disables it.
type JournalConfig struct {
	Path string `mapstructure:"path"`
}

func setDefaults(v *viper.Viper) {
	pins := gpio.DefaultPins()
	pwm := gpio.DefaultPWM()
	timings := logic.DefaultTimings()

	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.client_id", "fireplace-control")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.topic_prefix", mqtt.DefaultPrefix)
	v.SetDefault("mqtt.qos", 0)
	v.SetDefault("mqtt.retain", false)

	v.SetDefault("gpio.chip", "gpiochip0")
	v.SetDefault("gpio.pins.fan", pins.Fan)
	v.SetDefault("gpio.pins.fire", pins.Fire)
	v.SetDefault("gpio.pins.heater_low", pins.HeaterLow)
	v.SetDefault("gpio.pins.heater_high", pins.HeaterHigh)
	v.SetDefault("gpio.pwm.chip", pwm.Root)
	v.SetDefault("gpio.pwm.channel", pwm.Channel)
	v.SetDefault("gpio.pwm.period", pwm.Period)

	v.SetDefault("heater.preroll", timings.PreRoll)
	v.SetDefault("heater.cooldown", timings.Cooldown)
	v.SetDefault("loop.idle", 100*time.Millisecond)
	v.SetDefault("http.addr", ":80")
	v.SetDefault("log.level", logger.InfoLevel)
	v.SetDefault("journal.path", "")
}

// flagKeys maps command line flags to configuration keys.
var flagKeys = map[string]string{
	"broker":       "mqtt.broker",
	"topic-prefix": "mqtt.topic_prefix",
	"http":         "http.addr",
	"log-level":    "log.level",
	"journal":      "journal.path",
}

// NewFlagSet returns the flags understood by Load.
func NewFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.String("config", "", "path to a YAML config file")
	fs.String("broker", "", "MQTT broker URL")
	fs.String("topic-prefix", "", "MQTT topic prefix")
	fs.String("http", "", "HTTP status server address (empty to disable)")
	fs.String("log-level", "", "log level: debug, info, warn or error")
	fs.String("journal", "", "SQLite event journal path (empty to disable)")
	return fs
}

// Load parses args and returns the validated configuration.
func Load(args []string) (*Config, error) {
	fs := NewFlagSet("fireplace-control")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return LoadFlags(fs)
}

// LoadFlags builds the configuration from already parsed flags.
func LoadFlags(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for name, key := range flagKeys {
		if f := fs.Lookup(name); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every problem with c at once.
func (c *Config) Validate() error {
	var errs []error

	if c.MQTT.Broker == "" {
		errs = append(errs, errors.New("mqtt.broker is required"))
	}
	if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
		errs = append(errs, fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QoS))
	}
	if strings.TrimRight(c.MQTT.TopicPrefix, "/") == "" && c.MQTT.TopicPrefix != "" {
		errs = append(errs, fmt.Errorf("mqtt.topic_prefix %q has no segments", c.MQTT.TopicPrefix))
	}

	seen := make(map[int]string)
	for _, p := range []struct {
		name   string
		offset int
	}{
		{"fan", c.GPIO.Pins.Fan},
		{"fire", c.GPIO.Pins.Fire},
		{"heater_low", c.GPIO.Pins.HeaterLow},
		{"heater_high", c.GPIO.Pins.HeaterHigh},
	} {
		if p.offset < 0 {
			errs = append(errs, fmt.Errorf("gpio.pins.%s must not be negative", p.name))
			continue
		}
		if other, ok := seen[p.offset]; ok {
			errs = append(errs, fmt.Errorf("gpio.pins.%s and gpio.pins.%s share line %d", other, p.name, p.offset))
		}
		seen[p.offset] = p.name
	}
	if c.GPIO.PWM.Period <= 0 {
		errs = append(errs, errors.New("gpio.pwm.period must be positive"))
	}

	if c.Heater.PreRoll <= 0 {
		errs = append(errs, errors.New("heater.preroll must be positive"))
	}
	if c.Heater.Cooldown <= 0 {
		errs = append(errs, errors.New("heater.cooldown must be positive"))
	}
	if c.Loop.Idle <= 0 {
		errs = append(errs, errors.New("loop.idle must be positive"))
	}
	if !logger.ValidLevel(c.Log.Level) {
		errs = append(errs, fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level))
	}

	return errors.Join(errs...)
}

// Pins returns the GPIO line mapping.
func (c *Config) Pins() gpio.Pins {
	return gpio.Pins{
		Fan:        c.GPIO.Pins.Fan,
		Fire:       c.GPIO.Pins.Fire,
		HeaterLow:  c.GPIO.Pins.HeaterLow,
		HeaterHigh: c.GPIO.Pins.HeaterHigh,
	}
}

// PWM returns the light PWM output.
func (c *Config) PWM() gpio.PWMConfig {
	return gpio.PWMConfig{
		Root:    c.GPIO.PWM.Chip,
		Channel: c.GPIO.PWM.Channel,
		Period:  c.GPIO.PWM.Period,
	}
}

// Timings returns the heater guard periods.
func (c *Config) Timings() logic.Timings {
	return logic.Timings{PreRoll: c.Heater.PreRoll, Cooldown: c.Heater.Cooldown}
}

// Topics returns the MQTT topic layout.
func (c *Config) Topics() mqtt.Topics {
	return mqtt.NewTopics(c.MQTT.TopicPrefix)
}
