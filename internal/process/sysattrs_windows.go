//go:build windows

package process

import (
	"os"
	"os/exec"
)

func configureSysProcAttr(_ *exec.Cmd, _ Spec) {}

// signalGroup on Windows has no TERM/KILL distinction; both paths terminate.
func signalGroup(pid int, _ bool) {
	if proc, err := os.FindProcess(pid); err == nil {
		_ = proc.Kill()
	}
}
