// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"path/filepath"
	"time"
)

// Defaults applied by EnvironmentConfig.Normalized.
const (
	DefaultProjectDir = "rag-lab"
	DefaultVenvDir    = "venv"
	DefaultMarkerFile = "setup-complete.txt"
)

// EnvironmentConfig describes where the lab environment lives on disk.
// All paths are threaded explicitly; nothing changes the process working
// directory.
type EnvironmentConfig struct {
	// RootDir is the workspace root. It contains the project directory,
	// the completion marker, and the run ledger.
	RootDir string `json:"root_dir" yaml:"root_dir"`

	// ProjectDir is the project directory name under RootDir (default "rag-lab").
	ProjectDir string `json:"project_dir" yaml:"project_dir"`

	// VenvDir is the virtual environment directory name under the project
	// directory (default "venv").
	VenvDir string `json:"venv_dir" yaml:"venv_dir"`

	// MarkerFile is the completion marker filename under RootDir
	// (default "setup-complete.txt").
	MarkerFile string `json:"marker_file" yaml:"marker_file"`

	// PythonBin optionally pins the interpreter used to create the
	// environment. Empty means autodetect (python3, then python).
	PythonBin string `json:"python_bin,omitempty" yaml:"python_bin,omitempty"`
}

// Normalized returns a copy with defaults filled in for empty fields.
func (c EnvironmentConfig) Normalized() EnvironmentConfig {
	if c.RootDir == "" {
		c.RootDir = "."
	}
	if c.ProjectDir == "" {
		c.ProjectDir = DefaultProjectDir
	}
	if c.VenvDir == "" {
		c.VenvDir = DefaultVenvDir
	}
	if c.MarkerFile == "" {
		c.MarkerFile = DefaultMarkerFile
	}
	return c
}

// ProjectPath returns the project directory path.
func (c EnvironmentConfig) ProjectPath() string {
	return filepath.Join(c.RootDir, c.ProjectDir)
}

// VenvPath returns the virtual environment directory path.
func (c EnvironmentConfig) VenvPath() string {
	return filepath.Join(c.RootDir, c.ProjectDir, c.VenvDir)
}

// MarkerPath returns the completion marker file path.
func (c EnvironmentConfig) MarkerPath() string {
	return filepath.Join(c.RootDir, c.MarkerFile)
}

// SetupConfig holds settings for a bootstrap run.
type SetupConfig struct {
	EnvironmentConfig `yaml:",inline"`

	// ManifestPath points at a YAML dependency manifest. Empty means
	// "labenv-manifest.yaml" under RootDir, falling back to the built-in set.
	ManifestPath string `json:"manifest_path,omitempty" yaml:"manifest_path,omitempty"`

	// Recreate forces the virtual environment to be deleted and rebuilt
	// even when a usable one already exists.
	Recreate bool `json:"recreate" yaml:"recreate"`

	// Timeout bounds the whole run. Zero means no limit.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`
}

// LedgerConfig holds settings for the run ledger.
type LedgerConfig struct {
	// MaxRuns is the default number of runs shown by history (default 20).
	MaxRuns int `json:"max_runs" yaml:"max_runs"`
}
