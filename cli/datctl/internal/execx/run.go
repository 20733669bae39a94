package execx

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
)

type Result struct {
	Code int
	Err  error
}

// CommandLine renders the invocation the way it is traced and logged.
func CommandLine(name string, args ...string) string {
	return strings.Join(append([]string{name}, args...), " ")
}

// RunTee executes name with an explicit environment, streaming stdout and
// stderr to the invoking terminal while duplicating both into sink. The
// exit code comes straight from the process wait; the duplication can never
// mask it.
func RunTee(ctx context.Context, env []string, sink io.Writer, name string, args ...string) Result {
	return RunTeeTo(ctx, env, os.Stdout, os.Stderr, sink, name, args...)
}

// RunTeeTo is RunTee with explicit host writers.
func RunTeeTo(ctx context.Context, env []string, hostOut, hostErr, sink io.Writer, name string, args ...string) Result {
	if os.Getenv("DATCTL_DEBUG") == "1" {
		fmt.Fprintf(os.Stderr, "+ %s\n", CommandLine(name, args...))
	}
	cmd := exec.CommandContext(ctx, name, args...)
	if env != nil {
		cmd.Env = env
	}
	cmd.Stdin = os.Stdin
	cmd.Stdout = io.MultiWriter(hostOut, sink)
	cmd.Stderr = io.MultiWriter(hostErr, sink)
	err := cmd.Run()
	code := 0
	if err != nil {
		if ee, ok := err.(*exec.ExitError); ok {
			code = ee.ExitCode()
		} else if ctx.Err() == context.DeadlineExceeded {
			code = 124
		} else {
			code = 1
		}
	}
	return Result{Code: code, Err: err}
}
