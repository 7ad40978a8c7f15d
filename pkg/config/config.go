// package config reads the service settings from environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	PermissionPrompt = "prompt"

	PositionIPAPI  = "ipapi"
	PositionStatic = "static"
)

type Config struct {
	Port     string `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`
	Debug    bool   `mapstructure:"debug"`

	DummyJSONURL string        `mapstructure:"dummyjson_url"`
	NominatimURL string        `mapstructure:"nominatim_url"`
	IPAPIURL     string        `mapstructure:"ipapi_url"`
	CallTimeout  time.Duration `mapstructure:"call_timeout"`

	DefaultLocationLabel string  `mapstructure:"default_location_label"`
	LocationPermission   string  `mapstructure:"location_permission"`
	PositionSource       string  `mapstructure:"position_source"`
	StaticLatitude       float64 `mapstructure:"static_latitude"`
	StaticLongitude      float64 `mapstructure:"static_longitude"`

	LoginExpiresInMins int           `mapstructure:"login_expires_in_mins"`
	ViewerIdleTimeout  time.Duration `mapstructure:"viewer_idle_timeout"`

	DiagnosticsDriver string `mapstructure:"diagnostics_driver"`
	DatabaseURL       string `mapstructure:"database_url"`
}

var defaults = map[string]any{
	"port":                   "8080",
	"log_level":              "info",
	"debug":                  false,
	"dummyjson_url":          "https://dummyjson.com",
	"nominatim_url":          "",
	"ipapi_url":              "http://ip-api.com/json",
	"call_timeout":           "10s",
	"default_location_label": "Bharatpur-Rajasthan",
	"location_permission":    "granted",
	"position_source":        PositionIPAPI,
	"static_latitude":        27.2152,
	"static_longitude":       77.4909,
	"login_expires_in_mins":  30,
	"viewer_idle_timeout":    "30m",
	"diagnostics_driver":     "",
	"database_url":           "",
}

// Load reads every key from its upper-cased environment variable, e.g.
// call_timeout from CALL_TIMEOUT, falling back to the defaults above.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.LocationPermission {
	case "granted", "denied", PermissionPrompt:
	default:
		return fmt.Errorf("invalid LOCATION_PERMISSION %q: expected granted, denied or prompt", c.LocationPermission)
	}

	switch c.PositionSource {
	case PositionIPAPI, PositionStatic:
	default:
		return fmt.Errorf("invalid POSITION_SOURCE %q: expected ipapi or static", c.PositionSource)
	}

	switch c.DiagnosticsDriver {
	case "":
	case "pgx", "sqlite":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DIAGNOSTICS_DRIVER is %s but DATABASE_URL is not set", c.DiagnosticsDriver)
		}
	default:
		return fmt.Errorf("invalid DIAGNOSTICS_DRIVER %q: expected pgx or sqlite", c.DiagnosticsDriver)
	}

	if c.CallTimeout < 0 {
		return fmt.Errorf("invalid CALL_TIMEOUT %s", c.CallTimeout)
	}

	if c.ViewerIdleTimeout < 0 {
		return fmt.Errorf("invalid VIEWER_IDLE_TIMEOUT %s", c.ViewerIdleTimeout)
	}

	return nil
}
