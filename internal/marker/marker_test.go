// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package marker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteThenVerify(t *testing.T) {
	path := filepath.Join(t.TempDir(), "setup-complete.txt")

	require.NoError(t, Write(path))
	assert.True(t, Exists(path))
	assert.NoError(t, Verify(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "SETUP_COMPLETE\n", string(data))
}

func TestVerify(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr bool
	}{
		{name: "exact sentinel", content: "SETUP_COMPLETE"},
		{name: "trailing newline accepted", content: "SETUP_COMPLETE\n"},
		{name: "surrounding whitespace accepted", content: "  SETUP_COMPLETE \n"},
		{name: "wrong content", content: "setup complete", wantErr: true},
		{name: "empty file", content: "", wantErr: true},
		{name: "sentinel plus extra text", content: "SETUP_COMPLETE but not really", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "marker")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			err := Verify(path)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestVerifyMissingFile(t *testing.T) {
	err := Verify(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestClear(t *testing.T) {
	path := filepath.Join(t.TempDir(), "marker")

	// Clearing a missing marker is not an error.
	require.NoError(t, Clear(path))

	require.NoError(t, Write(path))
	require.NoError(t, Clear(path))
	assert.False(t, Exists(path))

	// And clearing again still succeeds.
	assert.NoError(t, Clear(path))
}

func TestExistsIgnoresDirectories(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, Exists(dir))
}
