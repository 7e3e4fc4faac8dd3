package display

import (
	"fmt"
	"time"

	"github.com/loykin/vigil/internal/logger"
	"github.com/loykin/vigil/internal/process"
)

// Config describes the virtual display backend (an Xvfb-style X server).
type Config struct {
	Enabled      bool                 `toml:"enabled" mapstructure:"enabled"`
	Number       int                  `toml:"number" mapstructure:"number"` // display number, e.g. 99 for :99
	Width        int                  `toml:"width" mapstructure:"width"`
	Height       int                  `toml:"height" mapstructure:"height"`
	Depth        int                  `toml:"depth" mapstructure:"depth"`
	StartupGrace time.Duration        `toml:"startup_grace" mapstructure:"startup_grace"`
	Log          logger.CaptureConfig `toml:"log" mapstructure:"log"`
}

func DefaultConfig() Config {
	return Config{
		Enabled:      true,
		Number:       99,
		Width:        1920,
		Height:       1080,
		Depth:        24,
		StartupGrace: time.Second,
	}
}

// Display is the launched virtual display backend.
type Display struct {
	cfg  Config
	proc *process.Process
}

// Name returns the X display identifier, e.g. ":99".
func (c Config) Name() string { return fmt.Sprintf(":%d", c.Number) }

// EnvVar returns the DISPLAY entry dependent processes need.
func (c Config) EnvVar() string { return "DISPLAY=" + c.Name() }

func (c Config) command() string {
	return fmt.Sprintf("Xvfb %s -screen 0 %dx%dx%d -nolisten tcp",
		c.Name(), c.Width, c.Height, c.Depth)
}

// Launch starts the display backend detached and blocks for the configured
// startup grace so it is accepting connections before anything depends on it.
// A spawn failure is returned to the caller; nothing downstream can function
// without the display, so the caller aborts startup.
func Launch(cfg Config, env []string) (*Display, error) {
	p := process.New(process.Spec{
		Name:     "xvfb",
		Command:  cfg.command(),
		Detached: true,
		Log:      cfg.Log,
	})
	if err := p.Start(env); err != nil {
		return nil, fmt.Errorf("launch display backend %s: %w", cfg.Name(), err)
	}
	if cfg.StartupGrace > 0 {
		time.Sleep(cfg.StartupGrace)
	}
	return &Display{cfg: cfg, proc: p}, nil
}

func (d *Display) PID() int     { return d.proc.PID() }
func (d *Display) Alive() bool  { return d.proc.Alive() }
func (d *Display) Name() string { return d.cfg.Name() }

// Stop terminates the display backend, escalating after grace.
func (d *Display) Stop(grace time.Duration) { d.proc.Stop(grace) }
