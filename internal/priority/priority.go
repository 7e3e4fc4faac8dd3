package priority

import (
	"log/slog"
	"strings"
	"sync/atomic"

	gopsproc "github.com/shirou/gopsutil/v4/process"
)

// Config controls the helper-process deprioritizer.
type Config struct {
	Enabled  bool     `toml:"enabled" mapstructure:"enabled"`
	Patterns []string `toml:"patterns" mapstructure:"patterns"` // command-name substrings
	Niceness int      `toml:"niceness" mapstructure:"niceness"` // target nice value (19 = lowest)
}

func DefaultConfig() Config {
	return Config{
		Enabled:  true,
		Patterns: []string{"chrome", "chromedriver"},
		Niceness: 19,
	}
}

// Adjuster lowers the scheduling priority of CPU-heavy helper processes
// (browser and browser driver) so they cannot starve the supervisor or the
// health endpoint. Every sweep rediscovers the matching set from scratch;
// nothing is tracked between sweeps, so repeating a sweep on the same set is
// idempotent. All failures are best-effort: a process that exited between
// discovery and renice, or one we may not touch, is simply skipped.
type Adjuster struct {
	patterns []string
	niceness int
	disabled atomic.Bool
	log      *slog.Logger
}

func New(cfg Config, log *slog.Logger) *Adjuster {
	if log == nil {
		log = slog.Default()
	}
	pats := make([]string, 0, len(cfg.Patterns))
	for _, p := range cfg.Patterns {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			pats = append(pats, p)
		}
	}
	a := &Adjuster{patterns: pats, niceness: cfg.Niceness, log: log}
	if !cfg.Enabled || len(pats) == 0 {
		a.disabled.Store(true)
	}
	return a
}

// Disabled reports whether the adjuster has become a permanent no-op.
func (a *Adjuster) Disabled() bool { return a.disabled.Load() }

// Sweep enumerates the process table, matches helper names, and renices every
// match to the configured niceness. It returns the number of processes
// adjusted. When the host lacks the priority-adjustment capability entirely
// (every attempted renice denied), the adjuster disables itself for the
// remainder of the supervisor's lifetime.
func (a *Adjuster) Sweep() int {
	if a.disabled.Load() {
		return 0
	}
	procs, err := gopsproc.Processes()
	if err != nil {
		return 0
	}
	adjusted := 0
	matched := 0
	denied := 0
	for _, p := range procs {
		name, err := p.Name()
		if err != nil || name == "" {
			continue
		}
		if !a.matches(strings.ToLower(name)) {
			continue
		}
		matched++
		switch err := setNice(int(p.Pid), a.niceness); {
		case err == nil:
			adjusted++
		case isPermissionDenied(err):
			denied++
		default:
			// already exited or otherwise untouchable; skip
		}
	}
	if matched > 0 && denied == matched {
		a.disabled.Store(true)
		a.log.Info("priority adjustment unavailable on this host, disabling",
			"matched", matched)
	}
	return adjusted
}

func (a *Adjuster) matches(name string) bool {
	for _, p := range a.patterns {
		if strings.Contains(name, p) {
			return true
		}
	}
	return false
}
