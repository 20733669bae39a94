package execx

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"testing"
)

func requireSh(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestRunTeeExitZeroAndCapture(t *testing.T) {
	requireSh(t)
	var host, sink bytes.Buffer
	res := RunTeeTo(context.Background(), nil, &host, &host, &sink, "sh", "-c", "echo done")
	if res.Code != 0 || res.Err != nil {
		t.Fatalf("code=%d err=%v", res.Code, res.Err)
	}
	if sink.String() != "done\n" {
		t.Fatalf("sink = %q", sink.String())
	}
	if host.String() != "done\n" {
		t.Fatalf("host = %q", host.String())
	}
}

func TestRunTeeExitCodeSurvivesDuplication(t *testing.T) {
	requireSh(t)
	var host, sink bytes.Buffer
	res := RunTeeTo(context.Background(), nil, &host, &host, &sink, "sh", "-c", "echo 'error: bad config' 1>&2; exit 3")
	if res.Code != 3 {
		t.Fatalf("code = %d, want the child's 3", res.Code)
	}
	if !strings.Contains(sink.String(), "error: bad config") {
		t.Fatalf("sink missing stderr line: %q", sink.String())
	}
}

func TestRunTeeStreamOrderPreserved(t *testing.T) {
	requireSh(t)
	var host, sink bytes.Buffer
	res := RunTeeTo(context.Background(), nil, &host, &host, &sink, "sh", "-c", "echo one; echo two; echo three")
	if res.Code != 0 {
		t.Fatalf("code = %d", res.Code)
	}
	if sink.String() != "one\ntwo\nthree\n" {
		t.Fatalf("sink = %q, lines out of order", sink.String())
	}
}

func TestRunTeeMissingBinary(t *testing.T) {
	var sink bytes.Buffer
	res := RunTeeTo(context.Background(), nil, &sink, &sink, &sink, "/does/not/exist-datctl")
	if res.Code == 0 || res.Err == nil {
		t.Fatalf("expected failure, got code=%d err=%v", res.Code, res.Err)
	}
}

func TestRunTeeExplicitEnv(t *testing.T) {
	requireSh(t)
	var host, sink bytes.Buffer
	env := []string{"PATH=/usr/bin:/bin", "DATCTL_MARK=yes"}
	res := RunTeeTo(context.Background(), env, &host, &host, &sink, "sh", "-c", "echo $DATCTL_MARK")
	if res.Code != 0 {
		t.Fatalf("code = %d err=%v", res.Code, res.Err)
	}
	if strings.TrimSpace(sink.String()) != "yes" {
		t.Fatalf("env not passed to child: %q", sink.String())
	}
}

func TestCommandLine(t *testing.T) {
	got := CommandLine("python", "submit.py", "--volume_transfer_dir", "/opt/config")
	if got != "python submit.py --volume_transfer_dir /opt/config" {
		t.Fatalf("command line = %q", got)
	}
}
