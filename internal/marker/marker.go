// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package marker manages the completion marker file that downstream
// automation polls to detect a finished setup. The marker exists if and
// only if the most recent bootstrap run succeeded end to end.
package marker

import (
	"fmt"
	"os"
	"strings"
)

// Sentinel is the exact content a valid marker carries.
const Sentinel = "SETUP_COMPLETE"

// Write creates the marker at path with the sentinel content. The write
// happens only after every bootstrap step has succeeded.
func Write(path string) error {
	if err := os.WriteFile(path, []byte(Sentinel+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing completion marker %s: %w", path, err)
	}
	return nil
}

// Clear removes the marker at path. A missing marker is not an error, so
// Clear is safe to call at the start of every run.
func Clear(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing completion marker %s: %w", path, err)
	}
	return nil
}

// Exists reports whether a marker file is present at path. It does not
// inspect the content; use Verify for that.
func Exists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Verify checks that the marker at path exists and carries exactly the
// sentinel content (trailing whitespace ignored).
func Verify(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading completion marker %s: %w", path, err)
	}
	if got := strings.TrimSpace(string(data)); got != Sentinel {
		return fmt.Errorf("completion marker %s has content %q, want %q", path, got, Sentinel)
	}
	return nil
}
