package vigil

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func requireUnix(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires Unix-like environment")
	}
}

// testConfig returns a config suitable for fast in-process supervision tests:
// no display backend, no helper renicing, tight probe timing.
func testConfig() Config {
	c := DefaultConfig()
	c.Display.Enabled = false
	c.Priority.Enabled = false
	c.App.Command = "sleep 60"
	c.Health.Interval = 50 * time.Millisecond
	c.Health.Timeout = 20 * time.Millisecond
	c.Health.FailureThreshold = 2
	c.Shutdown.Grace = 200 * time.Millisecond
	c.Log.Format = "text"
	return c
}

func TestNewValidates(t *testing.T) {
	c := testConfig()
	c.App.Command = ""
	if _, err := New(&c); err == nil {
		t.Fatalf("expected validation error for empty command")
	}
}

func TestSupervisorFacadeUnhealthyExit(t *testing.T) {
	requireUnix(t)
	c := testConfig()
	c.Health.URL = "http://127.0.0.1:1/health" // nothing listens there
	s, err := New(&c)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Run(ctx); !errors.Is(err, ErrUnhealthy) {
		t.Fatalf("expected ErrUnhealthy, got %v", err)
	}
	st := s.Snapshot()
	if !st.Terminal {
		t.Fatalf("expected terminal state: %+v", st)
	}
	if st.ConsecutiveFailures != c.Health.FailureThreshold {
		t.Fatalf("failures = %d, want %d", st.ConsecutiveFailures, c.Health.FailureThreshold)
	}
}

func TestSupervisorFacadeHealthyUntilCancel(t *testing.T) {
	requireUnix(t)
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer healthy.Close()

	c := testConfig()
	c.Health.URL = healthy.URL
	s, err := New(&c)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	if err := s.Run(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	st := s.Snapshot()
	if st.Terminal || st.ConsecutiveFailures != 0 {
		t.Fatalf("healthy loop should not accumulate failures: %+v", st)
	}
	// stop the app ourselves since the loop never escalated
	s.inner.App().Kill()
}

func TestWaitAppReturnsExit(t *testing.T) {
	requireUnix(t)
	c := testConfig()
	c.App.Command = "sleep 0.1"
	s, err := New(&c)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := s.WaitApp(); err != nil {
		t.Fatalf("clean exit expected, got %v", err)
	}
}

func TestAdminHandlerFacade(t *testing.T) {
	c := testConfig()
	s, err := New(&c)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	h := AdminHandler(s, "/admin")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status endpoint = %d", rec.Code)
	}
}

func TestRegisterMetricsFacade(t *testing.T) {
	if err := RegisterMetrics(prometheus.NewRegistry()); err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := RegisterMetricsDefault(); err != nil {
		t.Fatalf("register default: %v", err)
	}
}
