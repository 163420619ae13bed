// Package config loads runtime settings from a TOML file and TWINMESH_
// environment variables.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/hupe1980/twinmesh/logging"
)

// EnvPrefix prefixes every environment override, e.g. TWINMESH_LOG_LEVEL.
const EnvPrefix = "TWINMESH"

// Config holds the settings of one process.
type Config struct {
	Log     LogConfig     `mapstructure:"log"`
	Events  EventsConfig  `mapstructure:"events"`
	Classes ClassesConfig `mapstructure:"classes"`
}

// LogConfig selects the logging backend.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	// Backend is slog or zerolog.
	Backend string `mapstructure:"backend"`
}

// EventsConfig tunes inbound event coalescing.
type EventsConfig struct {
	CoalesceDelay time.Duration `mapstructure:"coalesce_delay"`
}

// ClassesConfig points at class manifests declared on startup.
type ClassesConfig struct {
	Manifests []string `mapstructure:"manifests"`
}

// DefaultConfig returns the built-in settings.
func DefaultConfig() Config {
	return Config{
		Log:    LogConfig{Level: "info", Format: "text", Backend: "slog"},
		Events: EventsConfig{CoalesceDelay: 0},
	}
}

// Load reads path (TOML) and applies environment overrides. An empty path
// falls back to $TWINMESH_CONFIG, then to an optional ./twinmesh.toml.
func Load(path string) (Config, error) {
	def := DefaultConfig()
	v := viper.New()
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.format", def.Log.Format)
	v.SetDefault("log.backend", def.Log.Backend)
	v.SetDefault("events.coalesce_delay", def.Events.CoalesceDelay)
	v.SetDefault("classes.manifests", []string{})

	v.SetConfigType("toml")
	if path == "" {
		path = os.Getenv(EnvPrefix + "_CONFIG")
	}
	explicit := path != ""
	if explicit {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("twinmesh")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks enumerated settings.
func (c Config) Validate() error {
	if _, ok := logging.ParseLevel(c.Log.Level); !ok {
		return fmt.Errorf("config: unknown log level %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("config: unknown log format %q", c.Log.Format)
	}
	switch c.Log.Backend {
	case "slog", "zerolog":
	default:
		return fmt.Errorf("config: unknown log backend %q", c.Log.Backend)
	}
	if c.Events.CoalesceDelay < 0 {
		return fmt.Errorf("config: negative coalesce delay %s", c.Events.CoalesceDelay)
	}
	return nil
}

// Logger builds the configured logger writing to out.
func (c Config) Logger(out io.Writer) logging.Logger {
	level, _ := logging.ParseLevel(c.Log.Level)
	if c.Log.Backend == "zerolog" {
		return logging.NewConsoleZerolog("twinmesh", out, level)
	}
	return logging.NewLogger(&logging.LoggerConfig{Level: level, Format: c.Log.Format, Output: out})
}
