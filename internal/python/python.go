// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package python detects a system Python interpreter and manages virtual
// environments through it. All blocking invocations take a context so a
// run-level timeout cancels them.
package python

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	binPython3 = "python3"
	binPython  = "python"
)

// Executor abstracts command execution for testing.
type Executor interface {
	LookPath(file string) (string, error)
	RunSilent(ctx context.Context, name string, args ...string) error
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
	RunStreamed(ctx context.Context, stdout, stderr io.Writer, name string, args ...string) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) RunSilent(ctx context.Context, name string, args ...string) error {
	return exec.CommandContext(ctx, name, args...).Run()
}

func (o *osExecutor) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

func (o *osExecutor) RunStreamed(ctx context.Context, stdout, stderr io.Writer, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// DefaultExecutor is the production executor.
var DefaultExecutor Executor = &osExecutor{}

// Interpreter is a usable system Python binary.
type Interpreter struct {
	bin  string
	exec Executor
}

// NewInterpreter returns an Interpreter bound to bin without probing it.
// Detect is the usual entry point; NewInterpreter serves callers that
// already know which binary to use.
func NewInterpreter(bin string, exec Executor) Interpreter {
	return Interpreter{bin: bin, exec: exec}
}

// Bin returns the interpreter binary name or path.
func (i Interpreter) Bin() string { return i.bin }

// Version returns the interpreter version string, e.g. "3.12.1".
func (i Interpreter) Version(ctx context.Context) (string, error) {
	out, err := i.exec.Output(ctx, i.bin, "--version")
	if err != nil {
		return "", fmt.Errorf("querying %s version: %w", i.bin, err)
	}
	// "Python 3.12.1" -> "3.12.1"
	fields := strings.Fields(string(out))
	if len(fields) < 2 {
		return "", fmt.Errorf("unexpected %s version output %q", i.bin, strings.TrimSpace(string(out)))
	}
	return fields[len(fields)-1], nil
}

// CreateVenv builds a virtual environment at dir, streaming progress to out.
func (i Interpreter) CreateVenv(ctx context.Context, dir string, out io.Writer) error {
	if err := i.exec.RunStreamed(ctx, out, out, i.bin, "-m", "venv", dir); err != nil {
		return fmt.Errorf("creating virtual environment at %s: %w", dir, err)
	}
	return nil
}

// Detect finds a working interpreter using the production executor. When
// pin is non-empty only that binary is considered; otherwise python3 is
// preferred with python as fallback.
func Detect(ctx context.Context, pin string) (Interpreter, error) {
	return detect(ctx, pin, DefaultExecutor)
}

func detect(ctx context.Context, pin string, exec Executor) (Interpreter, error) {
	candidates := []string{binPython3, binPython}
	if pin != "" {
		candidates = []string{pin}
	}

	for _, bin := range candidates {
		i := Interpreter{bin: bin, exec: exec}
		if i.available(ctx) {
			return i, nil
		}
	}

	if pin != "" {
		return Interpreter{}, fmt.Errorf("python interpreter %s not found or not runnable", pin)
	}
	return Interpreter{}, fmt.Errorf(
		"no python interpreter available: neither %s nor %s found or runnable",
		binPython3, binPython,
	)
}

// available reports whether the binary exists on PATH and answers --version.
func (i Interpreter) available(ctx context.Context) bool {
	if _, err := i.exec.LookPath(i.bin); err != nil {
		return false
	}
	return i.exec.RunSilent(ctx, i.bin, "--version") == nil
}

// VenvPython returns the interpreter path inside a virtual environment.
func VenvPython(venvDir string) string {
	if runtime.GOOS == "windows" {
		return filepath.Join(venvDir, "Scripts", "python.exe")
	}
	return filepath.Join(venvDir, "bin", "python")
}

// CheckVenv reports why dir is not a healthy virtual environment: the
// layout is missing, or the interpreter inside it does not answer
// --version. A nil error means the venv is usable.
func CheckVenv(ctx context.Context, dir string, exec Executor) error {
	if !VenvExists(dir) {
		return fmt.Errorf("virtual environment missing at %s", dir)
	}
	interp := Interpreter{bin: VenvPython(dir), exec: exec}
	if _, err := interp.Version(ctx); err != nil {
		return fmt.Errorf("virtual environment at %s has a broken interpreter: %w", dir, err)
	}
	return nil
}

// VenvExists reports whether dir holds a usable virtual environment:
// the pyvenv.cfg metadata file plus an interpreter binary.
func VenvExists(dir string) bool {
	if _, err := os.Stat(filepath.Join(dir, "pyvenv.cfg")); err != nil {
		return false
	}
	if _, err := os.Stat(VenvPython(dir)); err != nil {
		return false
	}
	return true
}
