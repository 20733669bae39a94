// Package launcher runs the dat converter submitter: it prepares the
// partitioned log directory, activates the runtime environment for the
// delegated process, tees the transcript to the terminal and the log file,
// and reports the submitter's exit code as its own.
package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/templiert/EM-recon-pipeline/cli/datctl/internal/config"
	"github.com/templiert/EM-recon-pipeline/cli/datctl/internal/execx"
	"github.com/templiert/EM-recon-pipeline/cli/datctl/internal/paths"
	"github.com/templiert/EM-recon-pipeline/cli/datctl/internal/runenv"
)

// Launcher orchestrates one delegated run. The zero values of the ambient
// fields fall back to the real clock, host streams, and environment; tests
// substitute all of them.
type Launcher struct {
	Config  config.Config
	BaseDir string

	Clock    func() time.Time
	Stdout   io.Writer
	Stderr   io.Writer
	BaseEnv  []string
	Hostname string
}

func (l *Launcher) clock() time.Time {
	if l.Clock != nil {
		return l.Clock()
	}
	return time.Now()
}

func (l *Launcher) stdout() io.Writer {
	if l.Stdout != nil {
		return l.Stdout
	}
	return os.Stdout
}

func (l *Launcher) stderr() io.Writer {
	if l.Stderr != nil {
		return l.Stderr
	}
	return os.Stderr
}

func (l *Launcher) baseEnv() []string {
	if l.BaseEnv != nil {
		return l.BaseEnv
	}
	return os.Environ()
}

func (l *Launcher) hostname() string {
	if l.Hostname != "" {
		return l.Hostname
	}
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return host
}

// Args returns the delegated command's arguments. The throughput flags are
// included only when set; zero means the submitter runs unthrottled.
func (l *Launcher) Args() []string {
	args := []string{l.Config.SubmitterPath(), "--volume_transfer_dir", paths.ConfigDir(l.BaseDir)}
	if l.Config.MaxBatchCount > 0 {
		args = append(args, "--max_batch_count", strconv.Itoa(l.Config.MaxBatchCount))
	}
	if l.Config.DatsPerHour > 0 {
		args = append(args, "--dats_per_hour", strconv.Itoa(l.Config.DatsPerHour))
	}
	return args
}

// Run performs one launch and returns the exit code the launcher process
// must terminate with. Dry mode only prints the command that would run and
// touches nothing on disk. Any failure before the spawn returns code 1 with
// the error; a spawned submitter's exit code is returned as-is regardless
// of what the output duplication machinery did.
func (l *Launcher) Run(ctx context.Context, dry bool) (int, error) {
	args := l.Args()
	if dry {
		fmt.Fprintln(l.stderr(), "+ "+execx.CommandLine(l.Config.Python, args...))
		return 0, nil
	}

	cfgDir := paths.ConfigDir(l.BaseDir)
	if fi, err := os.Stat(cfgDir); err != nil || !fi.IsDir() {
		return 1, fmt.Errorf("volume transfer config dir %s is not usable: %w", cfgDir, statErr(err))
	}
	if _, err := os.Stat(l.Config.SubmitterPath()); err != nil {
		return 1, fmt.Errorf("submitter script: %w", err)
	}

	env, err := runenv.Build(l.baseEnv(), runenv.Activation{
		CondaRoot:  l.Config.CondaRoot,
		EnvName:    l.Config.CondaEnv,
		PythonPath: l.Config.PythonPath(),
	})
	if err != nil {
		return 1, err
	}
	python, err := runenv.LookPath(env, l.Config.Python)
	if err != nil {
		return 1, err
	}

	now := l.clock()
	logDir := paths.LogDir(l.BaseDir, now)
	if err := os.MkdirAll(logDir, 0o775); err != nil {
		return 1, fmt.Errorf("create log dir %s: %w", logDir, err)
	}
	logPath := paths.LogFile(l.BaseDir, now)
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o664)
	if err != nil {
		return 1, fmt.Errorf("open log file %s: %w", logPath, err)
	}
	defer logFile.Close()

	log.WithFields(log.Fields{"log": logPath, "env": l.Config.CondaEnv}).Debug("launching submitter")

	banner := io.MultiWriter(l.stdout(), logFile)
	fmt.Fprintf(banner, "running on host %s at %s\n", l.hostname(), paths.Timestamp(now))
	fmt.Fprintf(banner, "%s\n\n", execx.CommandLine(python, args...))

	res := execx.RunTeeTo(ctx, env, l.stdout(), l.stderr(), logFile, python, args...)

	fmt.Fprintf(io.MultiWriter(l.stdout(), logFile), "\nexit status: %d\n", res.Code)

	var ee *exec.ExitError
	if res.Err != nil && !errors.As(res.Err, &ee) {
		// spawn-level failure, not a submitter verdict
		return res.Code, res.Err
	}
	return res.Code, nil
}

func statErr(err error) error {
	if err != nil {
		return err
	}
	return errors.New("not a directory")
}
