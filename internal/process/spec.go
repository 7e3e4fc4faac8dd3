package process

import (
	"os/exec"
	"strings"

	"github.com/loykin/vigil/internal/logger"
)

// Spec describes a process the supervisor launches and owns.
type Spec struct {
	Name     string               `json:"name"`
	Command  string               `json:"command"`  // command line (shell metacharacters allowed)
	WorkDir  string               `json:"work_dir"` // optional working dir
	Env      []string             `json:"env"`      // extra env entries on top of the merged base
	Detached bool                 `json:"detached"` // new session (setsid) instead of a fresh process group
	Log      logger.CaptureConfig `json:"log"`      // stdout/stderr capture
}

// BuildCommand constructs an *exec.Cmd for spec.Command.
// It avoids invoking a shell when not necessary, and it respects an explicit
// shell invocation already present in the command string (e.g. "sh -c 'x'"),
// avoiding double-wrapping with another shell.
func (s *Spec) BuildCommand() *exec.Cmd {
	cmdStr := strings.TrimSpace(s.Command)
	if cmdStr == "" {
		// #nosec G204
		return exec.Command("/bin/true")
	}
	if _, afterC, ok := parseExplicitShell(cmdStr); ok {
		// #nosec G204
		return exec.Command("/bin/sh", "-c", afterC)
	}
	if strings.ContainsAny(cmdStr, "|&;<>*?`$\"'(){}[]~") {
		// #nosec G204
		return exec.Command("/bin/sh", "-c", cmdStr)
	}
	parts := strings.Fields(cmdStr)
	name := parts[0]
	var args []string
	if len(parts) > 1 {
		args = parts[1:]
	}
	// #nosec G204
	return exec.Command(name, args...)
}

// parseExplicitShell detects patterns like "sh -c <ARG>" or "/bin/sh -c <ARG>"
// at the beginning of cmdStr. It returns (shellPath, afterCArg, true) when
// matched, preserving the substring after "-c " to avoid breaking quoting.
func parseExplicitShell(cmdStr string) (string, string, bool) {
	trim := strings.TrimLeft(cmdStr, " \t")
	candidates := []string{"sh -c ", "/bin/sh -c ", "/usr/bin/sh -c "}
	for _, p := range candidates {
		if strings.HasPrefix(trim, p) {
			after := trim[len(p):]
			if n := len(after); n >= 2 {
				if (after[0] == '\'' && after[n-1] == '\'') || (after[0] == '"' && after[n-1] == '"') {
					after = after[1 : n-1]
				}
			}
			return strings.Fields(p)[0], after, true
		}
	}
	return "", "", false
}
