// Package vigil embeds a fail-fast process supervisor in a container's
// startup sequence: it launches a virtual display backend and a long-running
// application, keeps browser helper processes deprioritized, polls the
// application's health endpoint, and exits non-zero when the application stays
// unhealthy so the orchestrator restarts the instance.
package vigil

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	cfg "github.com/loykin/vigil/internal/config"
	"github.com/loykin/vigil/internal/logger"
	"github.com/loykin/vigil/internal/metrics"
	iapi "github.com/loykin/vigil/internal/server"
	isup "github.com/loykin/vigil/internal/supervisor"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Config = cfg.Config

type ServerConfig = cfg.ServerConfig

type State = isup.State

// ErrUnhealthy is returned by Run when the failure threshold is reached.
var ErrUnhealthy = isup.ErrUnhealthy

// Supervisor is a thin facade over the internal supervisor.
// It provides a stable public API for embedding.
type Supervisor struct{ inner *isup.Supervisor }

// New validates cfg and wires a Supervisor, including its slog logger.
func New(c *Config) (*Supervisor, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	s, err := isup.New(c, logger.New(c.Log))
	if err != nil {
		return nil, err
	}
	return &Supervisor{inner: s}, nil
}

// Start launches the display backend and the application. Spawn failures are
// fatal and must abort startup.
func (s *Supervisor) Start() error { return s.inner.Start() }

// Run blocks driving the supervision loop. It returns ErrUnhealthy after the
// termination escalation when the failure threshold is reached.
func (s *Supervisor) Run(ctx context.Context) error { return s.inner.Run(ctx) }

// Snapshot returns the current supervision state.
func (s *Supervisor) Snapshot() State { return s.inner.Snapshot() }

// WaitApp blocks until the supervised application exits on its own and
// returns its exit error. Used by the degraded launch-and-wait mode.
func (s *Supervisor) WaitApp() error { return s.inner.App().Wait() }

// DefaultConfig returns the built-in configuration.
func DefaultConfig() Config { return cfg.Default() }

// LoadConfig reads a TOML config file with VIGIL_* environment overrides.
func LoadConfig(path string) (*Config, error) { return cfg.Load(path) }

// AdminHandler returns an embeddable http.Handler exposing the read-only
// admin surface under basePath plus /metrics.
func AdminHandler(s *Supervisor, basePath string) http.Handler {
	return iapi.NewRouter(s.inner, basePath).Handler()
}

// NewAdminServer starts the standalone admin HTTP server described by sc.
func NewAdminServer(sc ServerConfig, s *Supervisor) (*http.Server, error) {
	return iapi.NewServer(sc, s.inner)
}

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
func RegisterMetricsDefault() error                 { return metrics.Register(prometheus.DefaultRegisterer) }
