package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/loykin/vigil/internal/display"
	"github.com/loykin/vigil/internal/logger"
	"github.com/loykin/vigil/internal/priority"
	"github.com/loykin/vigil/internal/tlsconf"
)

// AppConfig describes the supervised application.
type AppConfig struct {
	Name    string               `toml:"name" mapstructure:"name"`
	Command string               `toml:"command" mapstructure:"command"`
	WorkDir string               `toml:"workdir" mapstructure:"workdir"`
	Env     []string             `toml:"env" mapstructure:"env"`
	Log     logger.CaptureConfig `toml:"log" mapstructure:"log"`
}

// HealthConfig describes the probe loop.
type HealthConfig struct {
	URL              string        `toml:"url" mapstructure:"url"`
	Interval         time.Duration `toml:"interval" mapstructure:"interval"`
	Timeout          time.Duration `toml:"timeout" mapstructure:"timeout"`
	FailureThreshold int           `toml:"failure_threshold" mapstructure:"failure_threshold"`
	Type             string        `toml:"type" mapstructure:"type"` // http|command
	Command          string        `toml:"command" mapstructure:"command"`
}

// ShutdownConfig describes the termination escalation.
type ShutdownConfig struct {
	Grace time.Duration `toml:"grace" mapstructure:"grace"`
}

// HistoryConfig selects an event sink by DSN; empty disables history export.
type HistoryConfig struct {
	Store string `toml:"store" mapstructure:"store"`
}

// ServerConfig describes the optional admin/status HTTP surface.
type ServerConfig struct {
	Enabled  bool           `toml:"enabled" mapstructure:"enabled"`
	Listen   string         `toml:"listen" mapstructure:"listen"`
	BasePath string         `toml:"base_path" mapstructure:"base_path"`
	TLS      tlsconf.Config `toml:"tls" mapstructure:"tls"`
}

// MetricsConfig controls per-tick resource sampling of the app.
type MetricsConfig struct {
	SampleProcess bool `toml:"sample_process" mapstructure:"sample_process"`
}

// Config is the full supervisor configuration, loadable from a TOML file with
// VIGIL_* environment overrides.
type Config struct {
	Env      []string        `toml:"env" mapstructure:"env"` // global child env overrides (K=V)
	Log      logger.Config   `toml:"log" mapstructure:"log"`
	Display  display.Config  `toml:"display" mapstructure:"display"`
	App      AppConfig       `toml:"app" mapstructure:"app"`
	Health   HealthConfig    `toml:"health" mapstructure:"health"`
	Priority priority.Config `toml:"priority" mapstructure:"priority"`
	Shutdown ShutdownConfig  `toml:"shutdown" mapstructure:"shutdown"`
	History  HistoryConfig   `toml:"history" mapstructure:"history"`
	Server   ServerConfig    `toml:"server" mapstructure:"server"`
	Metrics  MetricsConfig   `toml:"metrics" mapstructure:"metrics"`
}

// Default returns the built-in configuration for the common container layout.
func Default() Config {
	return Config{
		Log:     logger.Config{Level: "info", Format: "color"},
		Display: display.DefaultConfig(),
		App: AppConfig{
			Name: "app",
		},
		Health: HealthConfig{
			URL:              "http://localhost:5000/health",
			Interval:         10 * time.Second,
			Timeout:          3 * time.Second,
			FailureThreshold: 3,
			Type:             "http",
		},
		Priority: priority.DefaultConfig(),
		Shutdown: ShutdownConfig{Grace: 2 * time.Second},
		Server: ServerConfig{
			Listen:   ":9180",
			BasePath: "/admin",
		},
	}
}

// Load reads the TOML file at path (optional; empty path means defaults only)
// and applies VIGIL_* environment overrides, e.g. VIGIL_HEALTH_URL or
// VIGIL_HEALTH_FAILURE_THRESHOLD.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("VIGIL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	// Validation is deferred to the caller so CLI flag overrides can be
	// applied on top of the loaded file first.
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("display.enabled", d.Display.Enabled)
	v.SetDefault("display.number", d.Display.Number)
	v.SetDefault("display.width", d.Display.Width)
	v.SetDefault("display.height", d.Display.Height)
	v.SetDefault("display.depth", d.Display.Depth)
	v.SetDefault("display.startup_grace", d.Display.StartupGrace)
	v.SetDefault("app.name", d.App.Name)
	v.SetDefault("health.url", d.Health.URL)
	v.SetDefault("health.interval", d.Health.Interval)
	v.SetDefault("health.timeout", d.Health.Timeout)
	v.SetDefault("health.failure_threshold", d.Health.FailureThreshold)
	v.SetDefault("health.type", d.Health.Type)
	v.SetDefault("priority.enabled", d.Priority.Enabled)
	v.SetDefault("priority.patterns", d.Priority.Patterns)
	v.SetDefault("priority.niceness", d.Priority.Niceness)
	v.SetDefault("shutdown.grace", d.Shutdown.Grace)
	v.SetDefault("server.listen", d.Server.Listen)
	v.SetDefault("server.base_path", d.Server.BasePath)
}

// Validate enforces the startup-fatal constraints.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.App.Command) == "" {
		return errors.New("app.command is required")
	}
	if c.Health.FailureThreshold < 1 {
		return errors.New("health.failure_threshold must be >= 1")
	}
	if c.Health.Interval <= 0 {
		return errors.New("health.interval must be positive")
	}
	if c.Health.Timeout <= 0 || c.Health.Timeout >= c.Health.Interval {
		return errors.New("health.timeout must be positive and shorter than health.interval")
	}
	switch c.Health.Type {
	case "", "http":
		if strings.TrimSpace(c.Health.URL) == "" {
			return errors.New("health.url is required for http checks")
		}
	case "command":
		if strings.TrimSpace(c.Health.Command) == "" {
			return errors.New("health.command is required for command checks")
		}
	default:
		return fmt.Errorf("unknown health.type %q (expected http or command)", c.Health.Type)
	}
	if c.Display.Enabled && c.Display.Number < 0 {
		return errors.New("display.number must be >= 0")
	}
	if c.Shutdown.Grace < 0 {
		return errors.New("shutdown.grace must not be negative")
	}
	return nil
}
