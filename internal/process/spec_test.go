package process

import (
	"strings"
	"testing"
)

func TestBuildCommandPlainArgs(t *testing.T) {
	s := Spec{Command: "sleep 5"}
	cmd := s.BuildCommand()
	if !strings.HasSuffix(cmd.Path, "sleep") && cmd.Args[0] != "sleep" {
		t.Fatalf("expected direct exec of sleep, got %v", cmd.Args)
	}
	if len(cmd.Args) != 2 || cmd.Args[1] != "5" {
		t.Fatalf("args not preserved: %v", cmd.Args)
	}
}

func TestBuildCommandShellMetacharacters(t *testing.T) {
	s := Spec{Command: "echo hi > /tmp/x"}
	cmd := s.BuildCommand()
	if cmd.Args[0] != "/bin/sh" || cmd.Args[1] != "-c" {
		t.Fatalf("expected sh -c wrapping, got %v", cmd.Args)
	}
}

func TestBuildCommandExplicitShellNotDoubleWrapped(t *testing.T) {
	s := Spec{Command: "sh -c 'echo hi; sleep 1'"}
	cmd := s.BuildCommand()
	if cmd.Args[0] != "/bin/sh" || cmd.Args[1] != "-c" {
		t.Fatalf("expected sh -c, got %v", cmd.Args)
	}
	if cmd.Args[2] != "echo hi; sleep 1" {
		t.Fatalf("outer quotes not stripped: %q", cmd.Args[2])
	}
}

func TestBuildCommandEmpty(t *testing.T) {
	s := Spec{Command: "   "}
	cmd := s.BuildCommand()
	if !strings.Contains(cmd.Path, "true") {
		t.Fatalf("empty command should map to /bin/true, got %v", cmd.Path)
	}
}

func TestParseExplicitShell(t *testing.T) {
	cases := []struct {
		in    string
		ok    bool
		after string
	}{
		{"sh -c 'exit 0'", true, "exit 0"},
		{"/bin/sh -c \"echo x\"", true, "echo x"},
		{"bash -c 'exit 0'", false, ""},
		{"sleep 1", false, ""},
	}
	for _, c := range cases {
		_, after, ok := parseExplicitShell(c.in)
		if ok != c.ok {
			t.Fatalf("%q: ok=%v want %v", c.in, ok, c.ok)
		}
		if ok && after != c.after {
			t.Fatalf("%q: after=%q want %q", c.in, after, c.after)
		}
	}
}
