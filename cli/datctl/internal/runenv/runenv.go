// Package runenv builds the execution environment for the delegated
// submitter process. Activation never mutates the launcher's own
// environment; it produces an explicit env slice for the spawn call.
package runenv

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Activation names the runtime environment and module search path the
// delegated process needs.
type Activation struct {
	CondaRoot  string
	EnvName    string
	PythonPath string
}

// Prefix returns the environment's install prefix.
func (a Activation) Prefix() string {
	return filepath.Join(a.CondaRoot, "envs", a.EnvName)
}

// Build returns a copy of base with the activation applied: the env's bin
// directory (and condabin) prepended to PATH, CONDA_DEFAULT_ENV and
// CONDA_PREFIX set, and PYTHONPATH pointing at the module search root.
// Entries other than the managed keys keep their order. Build fails when
// the environment prefix does not exist, so a missing runtime environment
// aborts before anything is spawned.
func Build(base []string, a Activation) ([]string, error) {
	prefix := a.Prefix()
	if fi, err := os.Stat(prefix); err != nil || !fi.IsDir() {
		return nil, fmt.Errorf("runtime environment %q not found at %s", a.EnvName, prefix)
	}

	oldPath := ""
	out := make([]string, 0, len(base)+4)
	for _, kv := range base {
		key, val, ok := strings.Cut(kv, "=")
		if !ok {
			out = append(out, kv)
			continue
		}
		switch key {
		case "PATH":
			oldPath = val
		case "PYTHONPATH", "CONDA_DEFAULT_ENV", "CONDA_PREFIX":
			// replaced below
		default:
			out = append(out, kv)
		}
	}

	parts := []string{filepath.Join(prefix, "bin"), filepath.Join(a.CondaRoot, "condabin")}
	if oldPath != "" {
		parts = append(parts, oldPath)
	}
	out = append(out,
		"PATH="+strings.Join(parts, string(os.PathListSeparator)),
		"CONDA_DEFAULT_ENV="+a.EnvName,
		"CONDA_PREFIX="+prefix,
		"PYTHONPATH="+a.PythonPath,
	)
	return out, nil
}

// LookPath resolves name against the PATH entries of env. The delegated
// interpreter must resolve inside the activated environment, not against
// the launcher's own PATH, so the stdlib lookup cannot be used here. A name
// containing a path separator is only stat-checked.
func LookPath(env []string, name string) (string, error) {
	if strings.ContainsRune(name, os.PathSeparator) {
		if err := checkExecutable(name); err != nil {
			return "", err
		}
		return name, nil
	}
	for _, kv := range env {
		val, ok := strings.CutPrefix(kv, "PATH=")
		if !ok {
			continue
		}
		for _, dir := range filepath.SplitList(val) {
			if dir == "" {
				continue
			}
			candidate := filepath.Join(dir, name)
			if err := checkExecutable(candidate); err == nil {
				return candidate, nil
			}
		}
		break
	}
	return "", fmt.Errorf("%s not found in activated environment PATH", name)
}

func checkExecutable(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return err
	}
	if fi.IsDir() || fi.Mode()&0o111 == 0 {
		return fmt.Errorf("%s is not executable", path)
	}
	return nil
}
