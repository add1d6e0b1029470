package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/smazurov/gridlight/internal/logging"
)

// Options for the CLI - flat structure with toml mapping.
type Options struct {
	Config string `help:"Path to configuration file" short:"c" default:"gridlight.toml"`

	// Signal settings
	SignalTimeout string `help:"HTTP timeout for a single fetch (0s uses the client default)" default:"0s" toml:"signal.timeout" env:"SIGNAL_TIMEOUT"`

	// GPIO settings
	GPIOBackend   string `help:"GPIO backend (auto, cdev, sysfs, log)" default:"auto" toml:"gpio.backend" env:"GPIO_BACKEND"`
	GPIOChip      string `help:"GPIO character device chip" default:"gpiochip0" toml:"gpio.chip" env:"GPIO_CHIP"`
	GPIORedPin    int    `help:"BCM pin of the red LED" default:"17" toml:"gpio.red_pin" env:"GPIO_RED_PIN"`
	GPIOYellowPin int    `help:"BCM pin of the yellow LED" default:"27" toml:"gpio.yellow_pin" env:"GPIO_YELLOW_PIN"`
	GPIOGreenPin  int    `help:"BCM pin of the green LED" default:"22" toml:"gpio.green_pin" env:"GPIO_GREEN_PIN"`

	// Status server settings
	ServerEnabled bool   `help:"Serve the read-only status API" default:"false" toml:"server.enabled" env:"SERVER_ENABLED"`
	Port          string `help:"Status API listen address" short:"p" default:":8095" toml:"server.port" env:"SERVER_PORT"`

	// MQTT settings
	MQTTBroker   string `help:"MQTT broker URL, empty disables publishing" default:"" toml:"mqtt.broker" env:"MQTT_BROKER"`
	MQTTTopic    string `help:"MQTT status topic" default:"gridlight/status" toml:"mqtt.topic" env:"MQTT_TOPIC"`
	MQTTClientID string `help:"MQTT client identifier" default:"gridlight" toml:"mqtt.client_id" env:"MQTT_CLIENT_ID"`

	// Logging settings
	LoggingLevel     string `help:"Global logging level (debug, info, warn, error)" default:"info" toml:"logging.level" env:"LOGGING_LEVEL"`
	LoggingFormat    string `help:"Logging format (text, json)" default:"text" toml:"logging.format" env:"LOGGING_FORMAT"`
	LoggingSignal    string `help:"Signal fetcher logging level" default:"info" toml:"logging.signal" env:"LOGGING_SIGNAL"`
	LoggingGPIO      string `help:"GPIO backend logging level" default:"info" toml:"logging.gpio" env:"LOGGING_GPIO"`
	LoggingIndicator string `help:"Indicator logging level" default:"info" toml:"logging.indicator" env:"LOGGING_INDICATOR"`
	LoggingMonitor   string `help:"Control loop logging level" default:"info" toml:"logging.monitor" env:"LOGGING_MONITOR"`
	LoggingAPI       string `help:"API logging level" default:"info" toml:"logging.api" env:"LOGGING_API"`
	LoggingMQTT      string `help:"MQTT logging level" default:"info" toml:"logging.mqtt" env:"LOGGING_MQTT"`
}

// LoggingConfig builds the logging configuration from the options.
func (o *Options) LoggingConfig() logging.Config {
	return logging.Config{
		Level:  o.LoggingLevel,
		Format: o.LoggingFormat,
		Modules: map[string]string{
			"signal":    o.LoggingSignal,
			"gpio":      o.LoggingGPIO,
			"indicator": o.LoggingIndicator,
			"monitor":   o.LoggingMonitor,
			"api":       o.LoggingAPI,
			"mqtt":      o.LoggingMQTT,
		},
	}
}

// FetchTimeout parses SignalTimeout. Zero means no explicit timeout.
func (o *Options) FetchTimeout() (time.Duration, error) {
	if o.SignalTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(o.SignalTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid signal timeout %q: %w", o.SignalTimeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid signal timeout %q: must not be negative", o.SignalTimeout)
	}
	return d, nil
}

// Validate reports every invalid option at once.
func (o *Options) Validate() error {
	var errs []error

	switch o.GPIOBackend {
	case "auto", "cdev", "sysfs", "log":
	default:
		errs = append(errs, fmt.Errorf("unknown gpio backend %q", o.GPIOBackend))
	}

	pins := map[string]int{"red": o.GPIORedPin, "yellow": o.GPIOYellowPin, "green": o.GPIOGreenPin}
	seen := make(map[int]string, len(pins))
	for _, color := range []string{"red", "yellow", "green"} {
		pin := pins[color]
		if pin < 0 {
			errs = append(errs, fmt.Errorf("%s pin must not be negative, got %d", color, pin))
			continue
		}
		if other, dup := seen[pin]; dup {
			errs = append(errs, fmt.Errorf("%s and %s share pin %d", other, color, pin))
			continue
		}
		seen[pin] = color
	}

	if _, err := o.FetchTimeout(); err != nil {
		errs = append(errs, err)
	}

	if o.MQTTBroker != "" && o.MQTTTopic == "" {
		errs = append(errs, errors.New("mqtt topic is required when a broker is set"))
	}

	return errors.Join(errs...)
}
