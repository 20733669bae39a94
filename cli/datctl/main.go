// datctl launches the dat converter submitter for the EM-recon pipeline.
// It prepares a month/day partitioned log directory, activates the
// configured runtime environment for the delegated process, tees the
// submitter's combined output to the terminal and a timestamped log file,
// and exits with the submitter's exit code.
package main

import (
	"context"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/templiert/EM-recon-pipeline/cli/datctl/internal/config"
	"github.com/templiert/EM-recon-pipeline/cli/datctl/internal/launcher"
	"github.com/templiert/EM-recon-pipeline/cli/datctl/internal/paths"
)

type exitError struct {
	code int
}

func (e exitError) Error() string {
	return fmt.Sprintf("exit status %d", e.code)
}

func (e exitError) ExitCode() int {
	return e.code
}

func main() {
	if err := run(); err != nil {
		if coder, ok := err.(interface{ ExitCode() int }); ok {
			os.Exit(coder.ExitCode())
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath    string
		baseDir       string
		dryRun        bool
		maxBatchCount int
		datsPerHour   int
	)

	flags := pflag.NewFlagSet("datctl", pflag.ContinueOnError)
	flags.StringVar(&configPath, "config", "", "explicit config file (default: datctl.yaml next to the launcher)")
	flags.StringVar(&baseDir, "base-dir", "", "launcher base dir holding config/ and logs/ (default: the executable's directory)")
	flags.BoolVar(&dryRun, "dry-run", false, "print the submitter command without running it")
	flags.IntVar(&maxBatchCount, "max-batch-count", 0, "limit the number of conversion batches (0 = unlimited)")
	flags.IntVar(&datsPerHour, "dats-per-hour", 0, "throttle dat submissions per hour (0 = unthrottled)")
	if err := flags.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if flags.NArg() > 0 {
		return fmt.Errorf("unexpected argument %q", flags.Arg(0))
	}

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	if level, err := log.ParseLevel(getEnv("DATCTL_LOG_LEVEL", "info")); err == nil {
		log.SetLevel(level)
	} else {
		log.Warnf("invalid log level %s, defaulting to info", os.Getenv("DATCTL_LOG_LEVEL"))
	}

	base, err := paths.BaseDir(baseDir)
	if err != nil {
		return fmt.Errorf("resolve base dir: %w", err)
	}

	cfg, err := config.Load(configPath, base)
	if err != nil {
		return err
	}
	if flags.Changed("max-batch-count") {
		cfg.MaxBatchCount = maxBatchCount
	}
	if flags.Changed("dats-per-hour") {
		cfg.DatsPerHour = datsPerHour
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	l := &launcher.Launcher{Config: cfg, BaseDir: base}
	code, err := l.Run(context.Background(), dryRun)
	if err != nil {
		log.WithError(err).Error("launch failed")
	}
	if code != 0 {
		return exitError{code: code}
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
