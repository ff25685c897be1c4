// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pip wraps pip invocations inside a virtual environment. Every
// call goes through the venv's own interpreter (python -m pip ...), so the
// system pip is never touched.
package pip

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pdiddy/labenv/internal/python"
	"github.com/pdiddy/labenv/pkg/types"
)

// toolingPackages are upgraded before the dependency set installs.
var toolingPackages = []string{"pip", "setuptools", "wheel"}

// Client runs pip through a virtual environment's interpreter.
type Client struct {
	python string // venv interpreter path
	exec   python.Executor
	out    io.Writer
}

// NewClient returns a Client bound to the venv interpreter at pythonBin.
// Install output streams to out.
func NewClient(pythonBin string, exec python.Executor, out io.Writer) *Client {
	return &Client{python: pythonBin, exec: exec, out: out}
}

// Available reports whether pip responds inside the environment.
func (c *Client) Available(ctx context.Context) bool {
	return c.exec.RunSilent(ctx, c.python, "-m", "pip", "--version") == nil
}

// UpgradeTooling upgrades pip, setuptools, and wheel inside the environment.
func (c *Client) UpgradeTooling(ctx context.Context) error {
	args := append([]string{"-m", "pip", "install", "--upgrade"}, toolingPackages...)
	if err := c.exec.RunStreamed(ctx, c.out, c.out, c.python, args...); err != nil {
		return fmt.Errorf("upgrading packaging tooling: %w", err)
	}
	return nil
}

// Install installs the given pip requirement specifiers in order.
func (c *Client) Install(ctx context.Context, specs []string) error {
	if len(specs) == 0 {
		return nil
	}
	args := append([]string{"-m", "pip", "install"}, specs...)
	if err := c.exec.RunStreamed(ctx, c.out, c.out, c.python, args...); err != nil {
		return fmt.Errorf("installing %s: %w", strings.Join(specs, " "), err)
	}
	return nil
}

// InstalledPackage mirrors one entry of `pip list --format=json`.
type InstalledPackage struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// List returns the packages installed in the environment.
func (c *Client) List(ctx context.Context) ([]InstalledPackage, error) {
	out, err := c.exec.Output(ctx, c.python,
		"-m", "pip", "list", "--format=json", "--disable-pip-version-check")
	if err != nil {
		return nil, fmt.Errorf("listing installed packages: %w", err)
	}
	var pkgs []InstalledPackage
	if err := json.Unmarshal(out, &pkgs); err != nil {
		return nil, fmt.Errorf("parsing pip list output: %w", err)
	}
	return pkgs, nil
}

// NormalizeName folds a package name to its canonical form: lowercase with
// runs of "-", "_", and "." collapsed to a single "-". pip treats names
// differing only in these characters as the same package.
func NormalizeName(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	prevSep := false
	for _, r := range strings.ToLower(name) {
		if r == '-' || r == '_' || r == '.' {
			if !prevSep {
				b.WriteByte('-')
			}
			prevSep = true
			continue
		}
		prevSep = false
		b.WriteRune(r)
	}
	return b.String()
}

// Unsatisfied returns one problem description per declared dependency that
// is missing from installed or violates an exact-version ("==") constraint.
// Other constraint forms are checked for presence only; pip already
// enforced them at install time.
func Unsatisfied(deps []types.Dependency, installed []InstalledPackage) []string {
	versions := make(map[string]string, len(installed))
	for _, p := range installed {
		versions[NormalizeName(p.Name)] = p.Version
	}

	var problems []string
	for _, d := range deps {
		version, ok := versions[NormalizeName(d.Name)]
		if !ok {
			problems = append(problems, fmt.Sprintf("%s: not installed", d.Name))
			continue
		}
		want, exact := strings.CutPrefix(d.Constraint, "===")
		if !exact {
			want, exact = strings.CutPrefix(d.Constraint, "==")
		}
		if exact && version != want {
			problems = append(problems,
				fmt.Sprintf("%s: version %s installed, want %s", d.Name, version, want))
		}
	}
	return problems
}
