package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/loykin/vigil/internal/config"
	"github.com/loykin/vigil/internal/display"
	"github.com/loykin/vigil/internal/env"
	"github.com/loykin/vigil/internal/health"
	"github.com/loykin/vigil/internal/history"
	"github.com/loykin/vigil/internal/history/factory"
	"github.com/loykin/vigil/internal/metrics"
	"github.com/loykin/vigil/internal/priority"
	"github.com/loykin/vigil/internal/process"
)

// ErrUnhealthy is returned by Run when the consecutive-failure count reaches
// the threshold. It is the designed failure path: the caller exits non-zero so
// the orchestrator restarts the container.
var ErrUnhealthy = errors.New("health check failure threshold reached")

// Supervisor launches the display backend and the application, then drives the
// single-threaded supervision loop: renice helpers, probe health, escalate at
// the threshold. All mutable loop state lives here; the recorded application
// PID is written once at launch and read-only thereafter.
type Supervisor struct {
	cfg      *config.Config
	log      *slog.Logger
	checker  health.Checker
	adjuster *priority.Adjuster
	sink     history.Sink

	app  *process.Process
	disp *display.Display

	mu    sync.Mutex
	state State
}

// State is a point-in-time snapshot of the loop, served by the admin surface.
type State struct {
	App                 process.Status `json:"app"`
	DisplayName         string         `json:"display,omitempty"`
	DisplayPID          int            `json:"display_pid,omitempty"`
	ConsecutiveFailures int            `json:"consecutive_failures"`
	FailureThreshold    int            `json:"failure_threshold"`
	LastProbeAt         time.Time      `json:"last_probe_at,omitempty"`
	LastProbeError      string         `json:"last_probe_error,omitempty"`
	Check               string         `json:"check"`
	HelpersAdjusted     int            `json:"helpers_adjusted_total"`
	AdjusterDisabled    bool           `json:"adjuster_disabled"`
	Terminal            bool           `json:"terminal"`
}

// New wires a Supervisor from config. The history sink and admin surface are
// optional; a bad history DSN is fatal at startup (misconfiguration, not a
// transient probe failure).
func New(cfg *config.Config, log *slog.Logger) (*Supervisor, error) {
	if log == nil {
		log = slog.Default()
	}

	var checker health.Checker
	switch cfg.Health.Type {
	case "command":
		checker = health.CommandChecker{Command: cfg.Health.Command, Timeout: cfg.Health.Timeout}
	default:
		checker = health.NewHTTPChecker(cfg.Health.URL, cfg.Health.Timeout)
	}

	var sink history.Sink
	if cfg.History.Store != "" {
		s, err := factory.NewSinkFromDSN(cfg.History.Store)
		if err != nil {
			return nil, fmt.Errorf("history store: %w", err)
		}
		sink = s
	}

	return &Supervisor{
		cfg:      cfg,
		log:      log,
		checker:  checker,
		adjuster: priority.New(cfg.Priority, log),
		sink:     sink,
		state: State{
			FailureThreshold: cfg.Health.FailureThreshold,
			Check:            checker.Describe(),
		},
	}, nil
}

// Start launches the display backend (when enabled) and the application.
// Either spawn failing is fatal: the error propagates and the supervisor
// aborts startup.
func (s *Supervisor) Start() error {
	e := env.New()
	e.SetPairs(s.cfg.Env)

	if s.cfg.Display.Enabled {
		d, err := display.Launch(s.cfg.Display, e.Merge(nil))
		if err != nil {
			return err
		}
		s.disp = d
		e.Set("DISPLAY", d.Name())
		s.log.Info("display backend started", "display", d.Name(), "pid", d.PID())
	}

	app := process.New(process.Spec{
		Name:    s.cfg.App.Name,
		Command: s.cfg.App.Command,
		WorkDir: s.cfg.App.WorkDir,
		Env:     s.cfg.App.Env,
		Log:     s.cfg.App.Log,
	})
	if err := app.Start(e.Merge(s.cfg.App.Env)); err != nil {
		return fmt.Errorf("launch application: %w", err)
	}
	s.app = app

	st := app.Snapshot()
	s.mu.Lock()
	s.state.App = st
	if s.disp != nil {
		s.state.DisplayName = s.disp.Name()
		s.state.DisplayPID = s.disp.PID()
	}
	s.mu.Unlock()

	s.log.Info("application started", "name", st.Name, "pid", st.PID,
		"started_at", st.StartedAt.Format(time.RFC3339))
	s.emit(history.EventLaunch, 0, "")
	metrics.SetAppUp(true)
	return nil
}

// App returns the supervised application process, nil before Start.
func (s *Supervisor) App() *process.Process { return s.app }

// Snapshot returns a copy of the current loop state.
func (s *Supervisor) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	if s.app != nil {
		st.App = s.app.Snapshot()
	}
	st.AdjusterDisabled = s.adjuster.Disabled()
	return st
}

// Run drives the supervision loop until the failure threshold is reached
// (returns ErrUnhealthy after escalating) or ctx is canceled. The first probe
// happens only after one full interval: the application gets one interval to
// become ready before the first check.
func (s *Supervisor) Run(ctx context.Context) error {
	if s.app == nil {
		return errors.New("supervisor not started")
	}
	defer s.closeSink()

	interval := s.cfg.Health.Interval
	failures := 0

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}

		s.tickMaintenance()

		err := s.checker.Check()
		metrics.IncProbe(err == nil)
		now := time.Now()

		if err == nil {
			if failures > 0 {
				s.log.Info("application recovered", "after_failures", failures)
				s.emit(history.EventRecovered, failures, "")
			}
			failures = 0
			s.observeProbe(now, failures, nil)
			continue
		}

		failures++
		s.observeProbe(now, failures, err)
		s.log.Warn("health probe failed", "check", s.checker.Describe(),
			"failures", failures, "threshold", s.cfg.Health.FailureThreshold, "error", err)
		s.emit(history.EventProbeFail, failures, err.Error())

		if failures == s.cfg.Health.FailureThreshold {
			s.terminal(failures, err)
			return ErrUnhealthy
		}
	}
}

// tickMaintenance runs the per-tick housekeeping: helper deprioritization and
// optional resource sampling. Both are best-effort and independent of the probe.
func (s *Supervisor) tickMaintenance() {
	n := s.adjuster.Sweep()
	if n > 0 {
		metrics.AddHelpersReniced(n)
		s.mu.Lock()
		s.state.HelpersAdjusted += n
		s.mu.Unlock()
		s.log.Debug("helper processes deprioritized", "count", n)
	}
	alive := s.app.Alive()
	metrics.SetAppUp(alive)
	if s.cfg.Metrics.SampleProcess && alive {
		_, _ = metrics.SampleProcess(s.app.PID())
	}
}

func (s *Supervisor) observeProbe(at time.Time, failures int, err error) {
	metrics.SetConsecutiveFailures(failures)
	s.mu.Lock()
	s.state.LastProbeAt = at
	s.state.ConsecutiveFailures = failures
	if err != nil {
		s.state.LastProbeError = err.Error()
	} else {
		s.state.LastProbeError = ""
	}
	s.mu.Unlock()
}

// terminal performs the designed failure path: record the breach, escalate
// graceful-then-forceful termination, and leave the loop to exit non-zero.
func (s *Supervisor) terminal(failures int, cause error) {
	s.log.Error("failure threshold reached, terminating application",
		"failures", failures, "cause", cause)
	s.emit(history.EventThreshold, failures, cause.Error())

	s.mu.Lock()
	s.state.Terminal = true
	s.mu.Unlock()

	metrics.IncEscalation()
	s.emit(history.EventEscalation, failures, "")
	s.app.Stop(s.cfg.Shutdown.Grace)
	metrics.SetAppUp(false)
	s.emit(history.EventExit, failures, "")

	if s.disp != nil {
		s.disp.Stop(s.cfg.Shutdown.Grace)
	}
}

// emit exports one history event. Sink errors are logged at debug and dropped;
// audit export must never influence the loop.
func (s *Supervisor) emit(t history.EventType, failures int, detail string) {
	if s.sink == nil {
		return
	}
	pid := 0
	name := s.cfg.App.Name
	if s.app != nil {
		pid = s.app.PID()
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	e := history.Event{
		Type:       t,
		OccurredAt: time.Now(),
		Name:       name,
		PID:        pid,
		Failures:   failures,
		Detail:     detail,
	}
	if err := s.sink.Send(ctx, e); err != nil {
		s.log.Debug("history sink send failed", "event", string(t), "error", err)
	}
}

func (s *Supervisor) closeSink() {
	if s.sink != nil {
		_ = s.sink.Close()
	}
}
