package paths

import (
	"os"
	"path/filepath"
	"time"
)

// TimestampLayout is the run timestamp format used in log file names.
const TimestampLayout = "20060102_150405"

// LogSubdir is the directory under the launcher base dir that holds all
// convert_submit logs, partitioned by month and day.
const LogSubdir = "logs/convert_submit"

// Timestamp formats t as YYYYMMDD_HHMMSS.
func Timestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// LogDir returns <base>/logs/convert_submit/<YYYYMM>/<DD> for the run time t.
// All runs on the same calendar day share one directory.
func LogDir(base string, t time.Time) string {
	return filepath.Join(base, filepath.FromSlash(LogSubdir), t.Format("200601"), t.Format("02"))
}

// LogFile returns the per-run log file path under LogDir. The full timestamp
// in the name keeps runs at different seconds from colliding.
func LogFile(base string, t time.Time) string {
	return filepath.Join(LogDir(base, t), "convert_submit."+Timestamp(t)+".log")
}

// ConfigDir returns the volume transfer configuration directory that sits
// alongside the launcher.
func ConfigDir(base string) string {
	return filepath.Join(base, "config")
}

// BaseDir resolves the launcher's base directory. A non-empty override wins;
// otherwise the directory containing the running executable is used so that
// sibling resources (config/, logs/) resolve independently of the caller's
// working directory.
func BaseDir(override string) (string, error) {
	if override != "" {
		return filepath.Abs(override)
	}
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	exe, err = filepath.EvalSymlinks(exe)
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}
