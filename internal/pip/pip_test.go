// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pip

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/pdiddy/labenv/pkg/types"
)

// mockExecutor records invocations and serves configured outputs.
type mockExecutor struct {
	outputs   map[string]string // "bin arg1 arg2" -> Output result
	streamed  []string
	streamErr error
	silentOK  map[string]bool
}

func (m *mockExecutor) LookPath(file string) (string, error) { return "/usr/bin/" + file, nil }

func (m *mockExecutor) RunSilent(_ context.Context, name string, args ...string) error {
	if m.silentOK[name+" "+strings.Join(args, " ")] {
		return nil
	}
	return errors.New("command failed")
}

func (m *mockExecutor) Output(_ context.Context, name string, args ...string) ([]byte, error) {
	key := name + " " + strings.Join(args, " ")
	if out, ok := m.outputs[key]; ok {
		return []byte(out), nil
	}
	return nil, errors.New("command failed: " + key)
}

func (m *mockExecutor) RunStreamed(_ context.Context, stdout, stderr io.Writer, name string, args ...string) error {
	m.streamed = append(m.streamed, name+" "+strings.Join(args, " "))
	return m.streamErr
}

const venvPython = "lab/venv/bin/python"

func TestInstallBuildsPipCommand(t *testing.T) {
	exec := &mockExecutor{}
	c := NewClient(venvPython, exec, io.Discard)

	if err := c.Install(context.Background(), []string{"chromadb==0.4.24", "numpy"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := venvPython + " -m pip install chromadb==0.4.24 numpy"
	if len(exec.streamed) != 1 || exec.streamed[0] != want {
		t.Errorf("got invocations %v, want [%q]", exec.streamed, want)
	}
}

func TestInstallNothingToDo(t *testing.T) {
	exec := &mockExecutor{}
	c := NewClient(venvPython, exec, io.Discard)

	if err := c.Install(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(exec.streamed) != 0 {
		t.Errorf("expected no invocations, got %v", exec.streamed)
	}
}

func TestInstallFailureNamesSpecifiers(t *testing.T) {
	exec := &mockExecutor{streamErr: errors.New("network unreachable")}
	c := NewClient(venvPython, exec, io.Discard)

	err := c.Install(context.Background(), []string{"spacy"})
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "spacy") {
		t.Errorf("error should name the specifier, got: %v", err)
	}
}

func TestUpgradeTooling(t *testing.T) {
	exec := &mockExecutor{}
	c := NewClient(venvPython, exec, io.Discard)

	if err := c.UpgradeTooling(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := venvPython + " -m pip install --upgrade pip setuptools wheel"
	if len(exec.streamed) != 1 || exec.streamed[0] != want {
		t.Errorf("got invocations %v, want [%q]", exec.streamed, want)
	}
}

func TestList(t *testing.T) {
	listKey := venvPython + " -m pip list --format=json --disable-pip-version-check"
	exec := &mockExecutor{outputs: map[string]string{
		listKey: `[{"name": "chromadb", "version": "0.4.24"}, {"name": "numpy", "version": "1.26.4"}]`,
	}}
	c := NewClient(venvPython, exec, io.Discard)

	pkgs, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pkgs) != 2 || pkgs[0].Name != "chromadb" || pkgs[1].Version != "1.26.4" {
		t.Errorf("unexpected packages: %+v", pkgs)
	}
}

func TestListBadJSON(t *testing.T) {
	listKey := venvPython + " -m pip list --format=json --disable-pip-version-check"
	exec := &mockExecutor{outputs: map[string]string{listKey: "WARNING: not json"}}
	c := NewClient(venvPython, exec, io.Discard)

	if _, err := c.List(context.Background()); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestAvailable(t *testing.T) {
	exec := &mockExecutor{silentOK: map[string]bool{venvPython + " -m pip --version": true}}
	if !NewClient(venvPython, exec, io.Discard).Available(context.Background()) {
		t.Error("pip should be reported available")
	}
	if NewClient(venvPython, &mockExecutor{}, io.Discard).Available(context.Background()) {
		t.Error("pip should be reported unavailable")
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"chromadb", "chromadb"},
		{"Rank_BM25", "rank-bm25"},
		{"scikit.learn", "scikit-learn"},
		{"sentence--transformers", "sentence-transformers"},
		{"zope.interface_thing", "zope-interface-thing"},
	}
	for _, tt := range tests {
		if got := NormalizeName(tt.in); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUnsatisfied(t *testing.T) {
	installed := []InstalledPackage{
		{Name: "chromadb", Version: "0.4.24"},
		{Name: "rank_bm25", Version: "0.2.2"},
		{Name: "numpy", Version: "1.26.4"},
	}

	tests := []struct {
		name string
		deps []types.Dependency
		want []string
	}{
		{
			name: "all satisfied",
			deps: []types.Dependency{
				{Name: "chromadb", Constraint: "==0.4.24"},
				{Name: "numpy"},
			},
			want: nil,
		},
		{
			name: "name normalization matches underscores",
			deps: []types.Dependency{{Name: "rank-bm25"}},
			want: nil,
		},
		{
			name: "missing package",
			deps: []types.Dependency{{Name: "spacy"}},
			want: []string{"spacy: not installed"},
		},
		{
			name: "exact version mismatch",
			deps: []types.Dependency{{Name: "chromadb", Constraint: "==0.5.0"}},
			want: []string{"chromadb: version 0.4.24 installed, want 0.5.0"},
		},
		{
			name: "range constraint checks presence only",
			deps: []types.Dependency{{Name: "numpy", Constraint: ">=2.0"}},
			want: nil,
		},
		{
			name: "multiple problems reported in order",
			deps: []types.Dependency{
				{Name: "spacy"},
				{Name: "chromadb", Constraint: "==9.9.9"},
			},
			want: []string{
				"spacy: not installed",
				"chromadb: version 0.4.24 installed, want 9.9.9",
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Unsatisfied(tt.deps, installed)
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("problem %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
