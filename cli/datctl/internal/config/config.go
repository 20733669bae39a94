package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// FileName is the optional launcher config file looked up next to the
// launcher itself.
const FileName = "datctl.yaml"

// Config carries every authoring-time constant of the launcher so the run
// logic itself stays free of hardcoded paths. Values resolve in three
// layers: compiled defaults, then datctl.yaml, then DATCTL_* environment
// variables.
type Config struct {
	// RepoRoot is the pipeline checkout the submitter lives in. Its
	// src/python subtree becomes the delegated module search path.
	RepoRoot string `yaml:"repo_root" env:"REPO_ROOT"`

	// CondaRoot and CondaEnv name the runtime environment the submitter
	// runs under: <conda_root>/envs/<conda_env>.
	CondaRoot string `yaml:"conda_root" env:"CONDA_ROOT"`
	CondaEnv  string `yaml:"conda_env" env:"CONDA_ENV"`

	// Submitter is the dat converter submitter script, relative to
	// RepoRoot unless absolute.
	Submitter string `yaml:"submitter" env:"SUBMITTER"`

	// Python is the interpreter name resolved against the activated
	// environment's PATH (or an absolute path).
	Python string `yaml:"python" env:"PYTHON"`

	// MaxBatchCount and DatsPerHour are pass-through throughput limits
	// for the submitter. Zero means the flag is omitted entirely.
	MaxBatchCount int `yaml:"max_batch_count" env:"MAX_BATCH_COUNT"`
	DatsPerHour   int `yaml:"dats_per_hour" env:"DATS_PER_HOUR"`
}

// Default returns the compiled-in configuration matching the production
// deployment of the launcher.
func Default() Config {
	return Config{
		RepoRoot:  "/groups/flyem/data/render/git/EM-recon-pipeline",
		CondaRoot: "/groups/flyem/data/render/miniconda3",
		CondaEnv:  "janelia_emrp",
		Submitter: "src/python/janelia_emrp/dat/convert_and_submit.py",
		Python:    "python",
	}
}

// Load resolves the configuration: defaults, then the YAML file, then the
// environment. When explicitPath is empty the file is looked up as
// <baseDir>/datctl.yaml and may be absent; an explicitly named file must
// exist.
func Load(explicitPath, baseDir string) (Config, error) {
	cfg := Default()

	path := explicitPath
	if path == "" {
		path = filepath.Join(baseDir, FileName)
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && explicitPath == "":
		// optional file, keep defaults
	default:
		return cfg, err
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: "DATCTL_"}); err != nil {
		return cfg, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// SubmitterPath returns the absolute submitter script path.
func (c Config) SubmitterPath() string {
	if filepath.IsAbs(c.Submitter) {
		return c.Submitter
	}
	return filepath.Join(c.RepoRoot, c.Submitter)
}

// PythonPath returns the module search root exposed to the submitter.
func (c Config) PythonPath() string {
	return filepath.Join(c.RepoRoot, "src", "python")
}

// EnvPrefix returns the runtime environment prefix directory.
func (c Config) EnvPrefix() string {
	return filepath.Join(c.CondaRoot, "envs", c.CondaEnv)
}

// Validate reports the first unusable field.
func (c Config) Validate() error {
	switch {
	case c.RepoRoot == "":
		return errors.New("repo_root is empty")
	case c.CondaRoot == "":
		return errors.New("conda_root is empty")
	case c.CondaEnv == "":
		return errors.New("conda_env is empty")
	case c.Submitter == "":
		return errors.New("submitter is empty")
	case c.Python == "":
		return errors.New("python is empty")
	case c.MaxBatchCount < 0:
		return fmt.Errorf("max_batch_count %d is negative", c.MaxBatchCount)
	case c.DatsPerHour < 0:
		return fmt.Errorf("dats_per_hour %d is negative", c.DatsPerHour)
	}
	return nil
}
