// Package testutil builds disposable launcher installations for tests: a
// base dir with its config/ sibling, a pipeline checkout holding a stub
// submitter, and a runtime environment whose python stub executes the
// submitter as a shell script.
package testutil

import (
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/templiert/EM-recon-pipeline/cli/datctl/internal/config"
)

// Fixture describes one disposable installation.
type Fixture struct {
	Base      string
	RepoRoot  string
	CondaRoot string
	EnvName   string
	Submitter string
}

// RequireSh skips the test when no POSIX shell is available for the stubs.
func RequireSh(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

// NewFixture lays out the installation. submitterBody is the shell body the
// stub submitter runs with the delegated flags in "$@".
func NewFixture(t *testing.T, submitterBody string) *Fixture {
	t.Helper()
	RequireSh(t)

	root := t.TempDir()
	f := &Fixture{
		Base:      filepath.Join(root, "transfer"),
		RepoRoot:  filepath.Join(root, "pipeline"),
		CondaRoot: filepath.Join(root, "miniconda3"),
		EnvName:   "emrp_test",
		Submitter: "src/python/janelia_emrp/dat/convert_and_submit.py",
	}

	mkdir(t, filepath.Join(f.Base, "config"))

	submitter := filepath.Join(f.RepoRoot, filepath.FromSlash(f.Submitter))
	mkdir(t, filepath.Dir(submitter))
	write(t, submitter, "#!/bin/sh\n"+submitterBody+"\n", 0o755)

	// The interpreter stub hands the submitter to sh so test bodies stay
	// plain shell.
	bin := filepath.Join(f.CondaRoot, "envs", f.EnvName, "bin")
	mkdir(t, bin)
	write(t, filepath.Join(bin, "python"), "#!/bin/sh\nscript=\"$1\"; shift; exec sh \"$script\" \"$@\"\n", 0o755)

	return f
}

// Config returns a launcher configuration pointing at the fixture tree.
func (f *Fixture) Config() config.Config {
	cfg := config.Default()
	cfg.RepoRoot = f.RepoRoot
	cfg.CondaRoot = f.CondaRoot
	cfg.CondaEnv = f.EnvName
	cfg.Submitter = f.Submitter
	return cfg
}

// SubmitterPath returns the absolute stub submitter path.
func (f *Fixture) SubmitterPath() string {
	return filepath.Join(f.RepoRoot, filepath.FromSlash(f.Submitter))
}

func mkdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
}

func write(t *testing.T, path, content string, mode os.FileMode) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), mode); err != nil {
		t.Fatal(err)
	}
}
