package process

import (
	"io"
	"os"
	"sync"
	"time"
)

// Process owns exactly one spawned child. The PID is written once by Start and
// read-only thereafter; the reaper goroutine is the only writer of exit state.
type Process struct {
	spec     Spec
	mu       sync.Mutex
	status   Status
	pid      int
	waitDone chan struct{} // closed by the reaper when Wait returns
	outW     io.WriteCloser
	errW     io.WriteCloser
}

func New(spec Spec) *Process { return &Process{spec: spec} }

func (p *Process) Spec() Spec { return p.spec }

// Start spawns the child detached per Spec, records its PID and launch
// timestamp, and attaches a reaper goroutine that waits for exit. It does not
// wait for the child to become ready.
func (p *Process) Start(mergedEnv []string) error {
	cmd := p.spec.BuildCommand()
	if p.spec.WorkDir != "" {
		cmd.Dir = p.spec.WorkDir
	}
	if len(mergedEnv) > 0 {
		cmd.Env = mergedEnv
	}
	configureSysProcAttr(cmd, p.spec)

	if p.spec.Log.Dir != "" || p.spec.Log.StdoutPath != "" || p.spec.Log.StderrPath != "" {
		if p.spec.Log.Dir != "" {
			_ = os.MkdirAll(p.spec.Log.Dir, 0o750)
		}
		outW, errW, _ := p.spec.Log.Writers(p.spec.Name)
		cmd.Stdout = writerOrNull(outW)
		cmd.Stderr = writerOrNull(errW)
		p.mu.Lock()
		p.outW, p.errW = outW, errW
		p.mu.Unlock()
	} else {
		null, _ := os.OpenFile(os.DevNull, os.O_RDWR, 0)
		cmd.Stdout = null
		cmd.Stderr = null
	}

	if err := cmd.Start(); err != nil {
		p.closeWriters()
		return err
	}

	pid := cmd.Process.Pid
	started := time.Now()
	if ts := launchTimestamp(pid); !ts.IsZero() {
		started = ts
	}

	done := make(chan struct{})
	p.mu.Lock()
	p.pid = pid
	p.waitDone = done
	p.status = Status{Name: p.spec.Name, Running: true, PID: pid, StartedAt: started}
	p.mu.Unlock()

	go func() {
		err := cmd.Wait()
		p.mu.Lock()
		p.status.Running = false
		p.status.StoppedAt = time.Now()
		p.status.ExitErr = err
		p.mu.Unlock()
		p.closeWriters()
		close(done)
	}()
	return nil
}

func writerOrNull(w io.WriteCloser) io.Writer {
	if w != nil {
		return w
	}
	null, _ := os.OpenFile(os.DevNull, os.O_RDWR, 0)
	return null
}

func (p *Process) closeWriters() {
	p.mu.Lock()
	if p.outW != nil {
		_ = p.outW.Close()
		p.outW = nil
	}
	if p.errW != nil {
		_ = p.errW.Close()
		p.errW = nil
	}
	p.mu.Unlock()
}

// PID returns the recorded process identifier, 0 before Start.
func (p *Process) PID() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pid
}

// Snapshot returns a copy of the current status.
func (p *Process) Snapshot() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status
}

// Alive reports whether the child is still running. A reaped exit wins over
// any signal-0 probe so a zombie is never counted as alive.
func (p *Process) Alive() bool {
	p.mu.Lock()
	done := p.waitDone
	running := p.status.Running
	p.mu.Unlock()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
	}
	return running
}

// Wait blocks until the child exits and returns its exit error.
func (p *Process) Wait() error {
	p.mu.Lock()
	done := p.waitDone
	p.mu.Unlock()
	if done != nil {
		<-done
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status.ExitErr
}

// Stop escalates: graceful termination signal to the child's process group,
// wait up to grace, then a forceful kill if it has not exited. Every signal
// error is swallowed; a child that is already gone counts as success. Upon
// return the child has either exited or a kill signal was sent to it.
func (p *Process) Stop(grace time.Duration) {
	p.mu.Lock()
	pid := p.pid
	done := p.waitDone
	p.mu.Unlock()
	if pid == 0 || done == nil {
		return
	}
	select {
	case <-done:
		return
	default:
	}

	signalGroup(pid, false)
	select {
	case <-done:
		return
	case <-time.After(grace):
	}

	signalGroup(pid, true)
	select {
	case <-done:
	case <-time.After(200 * time.Millisecond):
		// best-effort; the kill was delivered or the target was already gone
	}
}

// Kill sends the forceful kill signal immediately.
func (p *Process) Kill() {
	p.mu.Lock()
	pid := p.pid
	done := p.waitDone
	p.mu.Unlock()
	if pid == 0 {
		return
	}
	signalGroup(pid, true)
	if done != nil {
		select {
		case <-done:
		case <-time.After(200 * time.Millisecond):
		}
	}
}
