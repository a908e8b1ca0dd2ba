// Package config loads the harness configuration from defaults, an optional YAML file and
// BBTEST_ prefixed environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const (
	ModeContainer = "container"
	ModeUnit      = "unit"
	ModeExternal  = "external"

	envPrefix = "BBTEST"
)

// Config is the complete harness configuration.
type Config struct {
	Mode     string `mapstructure:"mode" validate:"oneof=container unit external"`
	Host     string `mapstructure:"host" validate:"required"`
	LogLevel string `mapstructure:"log_level" validate:"oneof=trace debug info warn error"`

	Ports    Ports    `mapstructure:"ports"`
	Timeouts Timeouts `mapstructure:"timeouts"`
	Service  Service  `mapstructure:"service"`
}

// Ports of the service as seen from the harness. Pub is where the harness subscribes, Pull
// is where it pushes. HTTP 0 disables the health probe.
type Ports struct {
	Pub  int `mapstructure:"pub" validate:"min=1,max=65535"`
	Pull int `mapstructure:"pull" validate:"min=1,max=65535,nefield=Pub"`
	HTTP int `mapstructure:"http" validate:"min=0,max=65535"`
}

type Timeouts struct {
	Receive          time.Duration `mapstructure:"receive" validate:"gt=0"`
	HandshakeBackoff time.Duration `mapstructure:"handshake_backoff" validate:"gt=0"`
	Handshake        time.Duration `mapstructure:"handshake" validate:"gt=0"`
	Await            time.Duration `mapstructure:"await" validate:"gt=0"`
	// Startup bounds how long a container may take to open its ports, image pull included.
	Startup time.Duration `mapstructure:"startup" validate:"gt=0"`
}

// Service describes how the service under test is run.
type Service struct {
	Image       string `mapstructure:"image"`
	Unit        string `mapstructure:"unit"`
	UnitConfig  string `mapstructure:"unit_config"`
	MetricsFile string `mapstructure:"metrics_file"`
	StartMarker string `mapstructure:"start_marker"`
	LogLevel    string `mapstructure:"log_level"`

	MetricsRefreshRate string `mapstructure:"metrics_refresh_rate"`

	// ExpectedLogLines must all appear in the log after the last StartMarker.
	ExpectedLogLines []string `mapstructure:"expected_log_lines"`
}

var defaults = map[string]interface{}{
	"mode":                         ModeContainer,
	"host":                         "127.0.0.1",
	"log_level":                    "info",
	"ports.pub":                    5561,
	"ports.pull":                   5562,
	"ports.http":                   8080,
	"timeouts.receive":             time.Second,
	"timeouts.handshake_backoff":   100 * time.Millisecond,
	"timeouts.handshake":           10 * time.Second,
	"timeouts.await":               10 * time.Second,
	"timeouts.startup":             time.Minute,
	"service.image":                "openbank/lake:latest",
	"service.unit":                 "lake-relay.service",
	"service.unit_config":          "/etc/init/lake.conf",
	"service.metrics_file":         "/tmp/reports/blackbox-tests/metrics/metrics.json",
	"service.start_marker":         "Started openbank lake message relay.",
	"service.log_level":            "DEBUG",
	"service.metrics_refresh_rate": "1s",
	"service.expected_log_lines":   []string{"Program starting"},
}

// Load reads the configuration. An empty path skips the YAML file. Environment variables
// take precedence over the file, e.g. BBTEST_PORTS_PUB overrides ports.pub.
func Load(path string) (Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

var validate = validator.New()

// Validate checks field constraints and the settings each mode depends on.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var fieldErrors validator.ValidationErrors
		if !errors.As(err, &fieldErrors) {
			return err
		}
		messages := make([]string, 0, len(fieldErrors))
		for _, e := range fieldErrors {
			messages = append(messages, describe(e))
		}
		return fmt.Errorf("invalid configuration: %s", strings.Join(messages, "; "))
	}
	switch c.Mode {
	case ModeContainer:
		if c.Service.Image == "" {
			return errors.New("invalid configuration: service.image is required in container mode")
		}
	case ModeUnit:
		if c.Service.Unit == "" || c.Service.UnitConfig == "" {
			return errors.New("invalid configuration: service.unit and service.unit_config are required in unit mode")
		}
	}
	return nil
}

func describe(e validator.FieldError) string {
	field := strings.ToLower(strings.TrimPrefix(e.Namespace(), "Config."))
	switch e.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", field, e.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, e.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, e.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, e.Param())
	case "nefield":
		return fmt.Sprintf("%s must differ from %s", field, strings.ToLower(e.Param()))
	default:
		return fmt.Sprintf("%s failed %s validation", field, e.Tag())
	}
}
