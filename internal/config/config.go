// Package config loads controller settings from defaults, an optional YAML
// file and STROLLER_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/knadh/koanf/maps"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/sweeney/smart-stroller/internal/gpio"
)

// EnvPrefix is the environment variable prefix. Nested keys are separated by
// a double underscore: STROLLER_GPIO__PINS__LEFT_TOUCH=7.
const EnvPrefix = "STROLLER_"

// Config is the full controller configuration.
type Config struct {
	Period    time.Duration   `koanf:"period"`
	Heartbeat time.Duration   `koanf:"heartbeat"`
	Collector CollectorConfig `koanf:"collector"`
	MQTT      MQTTConfig      `koanf:"mqtt"`
	HTTP      HTTPConfig      `koanf:"http"`
	GPIO      GPIOConfig      `koanf:"gpio"`
}

// CollectorConfig addresses the HTTP telemetry collector.
type CollectorConfig struct {
	URL     string        `koanf:"url"`
	Timeout time.Duration `koanf:"timeout"`
}

// MQTTConfig configures the optional MQTT mirror. An empty broker disables it.
type MQTTConfig struct {
	Broker string `koanf:"broker"`
}

// HTTPConfig configures the status server. An empty address disables it.
type HTTPConfig struct {
	Addr string `koanf:"addr"`
}

// GPIOConfig selects the chip and line offsets.
type GPIOConfig struct {
	Chip string     `koanf:"chip"`
	Pins PinsConfig `koanf:"pins"`
}

// PinsConfig maps each harness line to a chip offset.
type PinsConfig struct {
	LeftTouch  int `koanf:"left_touch"`
	RightTouch int `koanf:"right_touch"`
	LeftTurn   int `koanf:"left_turn"`
	RightTurn  int `koanf:"right_turn"`
	LeftLED    int `koanf:"left_led"`
	RightLED   int `koanf:"right_led"`
	Solenoid   int `koanf:"solenoid"`
}

// Pins converts the offsets for the gpio package.
func (p PinsConfig) Pins() gpio.Pins {
	return gpio.Pins{
		LeftTouch:  p.LeftTouch,
		RightTouch: p.RightTouch,
		LeftTurn:   p.LeftTurn,
		RightTurn:  p.RightTurn,
		LeftLED:    p.LeftLED,
		RightLED:   p.RightLED,
		Solenoid:   p.Solenoid,
	}
}

// Defaults returns the built-in values as koanf keys.
func Defaults() map[string]any {
	d := gpio.DefaultPins
	return map[string]any{
		"period":                "500ms",
		"heartbeat":             "60s",
		"collector.url":         "",
		"collector.timeout":     "5s",
		"mqtt.broker":           "",
		"http.addr":             ":80",
		"gpio.chip":             "gpiochip0",
		"gpio.pins.left_touch":  d.LeftTouch,
		"gpio.pins.right_touch": d.RightTouch,
		"gpio.pins.left_turn":   d.LeftTurn,
		"gpio.pins.right_turn":  d.RightTurn,
		"gpio.pins.left_led":    d.LeftLED,
		"gpio.pins.right_led":   d.RightLED,
		"gpio.pins.solenoid":    d.Solenoid,
	}
}

// Loader reads configuration from its sources.
type Loader struct {
	k         *koanf.Koanf
	envPrefix string
	filePath  string
}

// Option configures a Loader.
type Option func(*Loader)

// WithEnvPrefix overrides the environment variable prefix.
func WithEnvPrefix(prefix string) Option {
	return func(l *Loader) {
		l.envPrefix = prefix
	}
}

// WithConfigFile sets the YAML file to read. An empty path skips the file.
func WithConfigFile(path string) Option {
	return func(l *Loader) {
		l.filePath = path
	}
}

// NewLoader creates a Loader.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{
		k:         koanf.New("."),
		envPrefix: EnvPrefix,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load merges defaults, file, and environment and returns the result.
// It does not validate; call Validate after applying flag overrides.
func (l *Loader) Load() (Config, error) {
	var cfg Config

	if err := l.k.Load(mapProvider(Defaults()), nil); err != nil {
		return cfg, fmt.Errorf("load defaults: %w", err)
	}

	if l.filePath != "" {
		if err := l.k.Load(file.Provider(l.filePath), yaml.Parser()); err != nil {
			return cfg, fmt.Errorf("load file %s: %w", l.filePath, err)
		}
	}

	if err := l.k.Load(env.Provider(l.envPrefix, ".", l.envKey), nil); err != nil {
		return cfg, fmt.Errorf("load env: %w", err)
	}

	if err := l.k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// envKey maps STROLLER_COLLECTOR__URL to collector.url.
func (l *Loader) envKey(s string) string {
	s = strings.TrimPrefix(s, l.envPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "__", ".")
}

// Load is shorthand for NewLoader(WithConfigFile(path)).Load().
func Load(path string) (Config, error) {
	return NewLoader(WithConfigFile(path)).Load()
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if c.Period <= 0 {
		return fmt.Errorf("period must be positive, got %s", c.Period)
	}
	if c.Heartbeat < 0 {
		return fmt.Errorf("heartbeat must not be negative, got %s", c.Heartbeat)
	}
	if c.Collector.Timeout <= 0 {
		return fmt.Errorf("collector timeout must be positive, got %s", c.Collector.Timeout)
	}
	if err := validateCollector(c.Collector.URL); err != nil {
		return err
	}
	if c.GPIO.Chip == "" {
		return errors.New("gpio chip must be set")
	}
	if err := c.GPIO.Pins.Pins().Validate(); err != nil {
		return fmt.Errorf("gpio: %w", err)
	}
	return nil
}

func validateCollector(raw string) error {
	if raw == "" {
		return errors.New("collector url must be set")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("collector url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("collector url %q: scheme must be http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("collector url %q: missing host", raw)
	}
	return nil
}

// mapProvider is a koanf provider backed by a flat key map.
type mapProvider map[string]any

// ReadBytes is not supported; koanf uses Read.
func (m mapProvider) ReadBytes() ([]byte, error) {
	return nil, errors.New("config: map provider does not support ReadBytes")
}

// Read returns the map unflattened on the "." delimiter.
func (m mapProvider) Read() (map[string]any, error) {
	return maps.Unflatten(m, "."), nil
}
