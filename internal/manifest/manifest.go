// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package manifest loads the dependency set from a YAML manifest file.
// Without a manifest the built-in set for the RAG lab is used: the vector
// store, embedding model, text chunking, ranking, and NLP libraries the
// lab exercises depend on.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/labenv/pkg/types"
)

// DefaultFile is the manifest filename looked up under the workspace root
// when no explicit path is given.
const DefaultFile = "labenv-manifest.yaml"

// constraintOps are the pip version operators a constraint may start with,
// longest first so "==" wins over "=".
var constraintOps = []string{"===", "==", "~=", "!=", ">=", "<=", ">", "<"}

// Default returns the built-in dependency set.
func Default() types.Manifest {
	return types.Manifest{
		Dependencies: []types.Dependency{
			{Name: "chromadb"},
			{Name: "sentence-transformers"},
			{Name: "langchain"},
			{Name: "rank-bm25"},
			{Name: "spacy"},
			{Name: "numpy"},
			{Name: "scikit-learn"},
		},
	}
}

// Load returns the dependency set. An explicit path must exist and parse.
// With an empty path, DefaultFile under rootDir is used when present; a
// missing default file is not an error and yields the built-in set.
func Load(path, rootDir string) (types.Manifest, error) {
	explicit := path != ""
	if !explicit {
		path = filepath.Join(rootDir, DefaultFile)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && os.IsNotExist(err) {
			return Default(), nil
		}
		return types.Manifest{}, fmt.Errorf("reading manifest %s: %w", path, err)
	}

	var m types.Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return types.Manifest{}, fmt.Errorf("parsing manifest %s: %w", path, err)
	}
	if err := validate(m); err != nil {
		return types.Manifest{}, fmt.Errorf("manifest %s: %w", path, err)
	}
	return m, nil
}

func validate(m types.Manifest) error {
	if len(m.Dependencies) == 0 {
		return fmt.Errorf("no dependencies declared")
	}
	seen := make(map[string]bool, len(m.Dependencies))
	for i, d := range m.Dependencies {
		if strings.TrimSpace(d.Name) == "" {
			return fmt.Errorf("dependency %d has an empty name", i+1)
		}
		if seen[d.Name] {
			return fmt.Errorf("dependency %s declared twice", d.Name)
		}
		seen[d.Name] = true
		if d.Constraint != "" && !validConstraint(d.Constraint) {
			return fmt.Errorf("dependency %s has invalid constraint %q", d.Name, d.Constraint)
		}
	}
	return nil
}

func validConstraint(c string) bool {
	for _, op := range constraintOps {
		if strings.HasPrefix(c, op) && len(c) > len(op) {
			return true
		}
	}
	return false
}
