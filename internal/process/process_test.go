package process

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/loykin/vigil/internal/logger"
)

func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("tests require sh/sleep on Unix-like systems")
	}
}

func TestStartRecordsPIDAndTimestamp(t *testing.T) {
	requireUnix(t)
	p := New(Spec{Name: "p1", Command: "sleep 0.3"})
	if err := p.Start(nil); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer p.Kill()

	st := p.Snapshot()
	if !st.Running || st.PID <= 0 || st.Name != "p1" {
		t.Fatalf("status not set after start: %+v", st)
	}
	if p.PID() != st.PID {
		t.Fatalf("PID mismatch: %d vs %d", p.PID(), st.PID)
	}
	if st.StartedAt.IsZero() {
		t.Fatalf("launch timestamp not recorded")
	}
	if !p.Alive() {
		t.Fatalf("process should be alive right after start")
	}
}

func TestStartCapturesOutputToLogDir(t *testing.T) {
	requireUnix(t)
	dir := t.TempDir()
	logs := filepath.Join(dir, "logs")
	p := New(Spec{
		Name:    "cap",
		Command: "sh -c 'echo out; echo err 1>&2'",
		Log:     logger.CaptureConfig{Dir: logs},
	})
	if err := p.Start(nil); err != nil {
		t.Fatalf("Start: %v", err)
	}
	_ = p.Wait()

	b, err := os.ReadFile(filepath.Join(logs, "cap.stdout.log"))
	if err != nil || !strings.Contains(string(b), "out") {
		t.Fatalf("stdout not captured: %v, content=%q", err, string(b))
	}
	b, err = os.ReadFile(filepath.Join(logs, "cap.stderr.log"))
	if err != nil || !strings.Contains(string(b), "err") {
		t.Fatalf("stderr not captured: %v, content=%q", err, string(b))
	}
}

func TestStartAppliesEnvAndWorkdir(t *testing.T) {
	requireUnix(t)
	dir := t.TempDir()
	work := filepath.Join(dir, "work")
	_ = os.MkdirAll(work, 0o755)
	p := New(Spec{
		Name:    "envwd",
		Command: "sh -c 'echo $FOO > marker; pwd >> marker'",
		WorkDir: work,
	})
	if err := p.Start([]string{"FOO=bar", "PATH=" + os.Getenv("PATH")}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	_ = p.Wait()

	b, err := os.ReadFile(filepath.Join(work, "marker"))
	if err != nil {
		t.Fatalf("marker not written: %v", err)
	}
	if !strings.Contains(string(b), "bar") || !strings.Contains(string(b), work) {
		t.Fatalf("env/workdir not applied: %q", string(b))
	}
}

func TestStartFailsForMissingBinary(t *testing.T) {
	requireUnix(t)
	p := New(Spec{Name: "missing", Command: "/definitely/not/here"})
	if err := p.Start(nil); err == nil {
		t.Fatalf("expected spawn error for missing binary")
	}
}

func TestWaitObservesNaturalExit(t *testing.T) {
	requireUnix(t)
	p := New(Spec{Name: "quick", Command: "sh -c 'exit 0'"})
	if err := p.Start(nil); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := p.Wait(); err != nil {
		t.Fatalf("expected clean exit, got %v", err)
	}
	st := p.Snapshot()
	if st.Running || st.StoppedAt.IsZero() {
		t.Fatalf("exit not recorded: %+v", st)
	}
	if p.Alive() {
		t.Fatalf("exited process reported alive")
	}
}

func TestStopTerminatesGracefully(t *testing.T) {
	requireUnix(t)
	p := New(Spec{Name: "graceful", Command: "sleep 30"})
	if err := p.Start(nil); err != nil {
		t.Fatalf("Start: %v", err)
	}
	start := time.Now()
	p.Stop(2 * time.Second)
	if p.Alive() {
		t.Fatalf("process still alive after Stop")
	}
	// sleep dies on SIGTERM, so the grace period should not be exhausted
	if time.Since(start) > time.Second {
		t.Fatalf("graceful stop took too long: %v", time.Since(start))
	}
}

func TestStopEscalatesToKill(t *testing.T) {
	requireUnix(t)
	// Child ignores TERM, so only the forceful kill ends it.
	p := New(Spec{Name: "stubborn", Command: "sh -c 'trap \"\" TERM; sleep 30'"})
	if err := p.Start(nil); err != nil {
		t.Fatalf("Start: %v", err)
	}
	time.Sleep(100 * time.Millisecond) // let the trap install
	p.Stop(300 * time.Millisecond)
	time.Sleep(100 * time.Millisecond)
	if p.Alive() {
		t.Fatalf("process survived kill escalation")
	}
}

func TestStopOnExitedProcessIsNoop(t *testing.T) {
	requireUnix(t)
	p := New(Spec{Name: "gone", Command: "sh -c 'exit 0'"})
	if err := p.Start(nil); err != nil {
		t.Fatalf("Start: %v", err)
	}
	_ = p.Wait()
	done := make(chan struct{})
	go func() {
		p.Stop(2 * time.Second) // must return immediately, no error, no hang
		p.Kill()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("Stop/Kill on exited process blocked")
	}
}

func TestStopBeforeStartIsNoop(t *testing.T) {
	p := New(Spec{Name: "never"})
	p.Stop(time.Second)
	p.Kill()
	if p.Alive() {
		t.Fatalf("unstarted process reported alive")
	}
}
