package main

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/provide-io/cargokit/pkg/cargo"
)

func TestPrintVersion(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}

	t.Run("reports the cargo toolchain", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "cargo")
		require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\necho 'cargo 1.80.1 (376290515 2024-07-16)'\n"), 0o755))
		t.Setenv(cargo.EnvCargo, path)

		var out strings.Builder
		printVersion(context.Background(), &out, cargo.NewRunner(nil))
		lines := strings.Split(strings.TrimSpace(out.String()), "\n")
		require.Len(t, lines, 3)
		assert.Equal(t, "cargokit "+version, lines[0])
		assert.True(t, strings.HasPrefix(lines[1], "Built: "))
		assert.Equal(t, "Cargo: cargo 1.80.1 (376290515 2024-07-16)", lines[2])
	})

	t.Run("missing cargo", func(t *testing.T) {
		t.Setenv(cargo.EnvCargo, filepath.Join(t.TempDir(), "no-such-cargo"))

		var out strings.Builder
		printVersion(context.Background(), &out, cargo.NewRunner(nil))
		assert.Contains(t, out.String(), "Cargo: not found\n")
	})
}
