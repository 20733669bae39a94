package runenv

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func mkEnvPrefix(t *testing.T, condaRoot, name string) string {
	t.Helper()
	bin := filepath.Join(condaRoot, "envs", name, "bin")
	if err := os.MkdirAll(bin, 0o755); err != nil {
		t.Fatal(err)
	}
	return bin
}

func lookup(env []string, key string) (string, bool) {
	for _, kv := range env {
		if v, ok := strings.CutPrefix(kv, key+"="); ok {
			return v, true
		}
	}
	return "", false
}

func TestBuildActivatesEnvironment(t *testing.T) {
	root := t.TempDir()
	bin := mkEnvPrefix(t, root, "emrp")

	base := []string{"HOME=/home/op", "PATH=/usr/bin:/bin", "PYTHONPATH=/stale", "TERM=xterm"}
	env, err := Build(base, Activation{CondaRoot: root, EnvName: "emrp", PythonPath: "/srv/pipeline/src/python"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	path, ok := lookup(env, "PATH")
	if !ok {
		t.Fatal("PATH missing")
	}
	if !strings.HasPrefix(path, bin+string(os.PathListSeparator)) {
		t.Fatalf("PATH %q does not start with env bin %q", path, bin)
	}
	if !strings.HasSuffix(path, "/usr/bin:/bin") {
		t.Fatalf("PATH %q lost the base entries", path)
	}
	if v, _ := lookup(env, "PYTHONPATH"); v != "/srv/pipeline/src/python" {
		t.Fatalf("PYTHONPATH = %q", v)
	}
	if v, _ := lookup(env, "CONDA_DEFAULT_ENV"); v != "emrp" {
		t.Fatalf("CONDA_DEFAULT_ENV = %q", v)
	}
	if v, _ := lookup(env, "CONDA_PREFIX"); v != filepath.Join(root, "envs", "emrp") {
		t.Fatalf("CONDA_PREFIX = %q", v)
	}
	// unmanaged entries survive in order
	if env[0] != "HOME=/home/op" || env[1] != "TERM=xterm" {
		t.Fatalf("unmanaged entries reordered: %v", env[:2])
	}
}

func TestBuildFailsWhenEnvMissing(t *testing.T) {
	_, err := Build(nil, Activation{CondaRoot: t.TempDir(), EnvName: "nope"})
	if err == nil {
		t.Fatal("expected error for missing runtime environment")
	}
	if !strings.Contains(err.Error(), "nope") {
		t.Fatalf("error should name the environment: %v", err)
	}
}

func TestLookPathFindsEnvInterpreter(t *testing.T) {
	root := t.TempDir()
	bin := mkEnvPrefix(t, root, "emrp")
	stub := filepath.Join(bin, "python")
	if err := os.WriteFile(stub, []byte("#!/bin/sh\nexit 0\n"), 0o755); err != nil {
		t.Fatal(err)
	}

	env, err := Build([]string{"PATH=/usr/bin"}, Activation{CondaRoot: root, EnvName: "emrp"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	got, err := LookPath(env, "python")
	if err != nil {
		t.Fatalf("LookPath: %v", err)
	}
	if got != stub {
		t.Fatalf("resolved %q, want %q", got, stub)
	}
}

func TestLookPathMissesNonExecutable(t *testing.T) {
	root := t.TempDir()
	bin := mkEnvPrefix(t, root, "emrp")
	if err := os.WriteFile(filepath.Join(bin, "python"), []byte(""), 0o644); err != nil {
		t.Fatal(err)
	}
	env, err := Build(nil, Activation{CondaRoot: root, EnvName: "emrp"})
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if _, err := LookPath(env, "python"); err == nil {
		t.Fatal("expected lookup failure for non-executable file")
	}
}

func TestLookPathAbsolute(t *testing.T) {
	dir := t.TempDir()
	stub := filepath.Join(dir, "submit")
	if err := os.WriteFile(stub, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	got, err := LookPath(nil, stub)
	if err != nil {
		t.Fatalf("LookPath: %v", err)
	}
	if got != stub {
		t.Fatalf("resolved %q", got)
	}
}
