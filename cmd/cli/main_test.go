package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeModel(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "main.hcl")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600), "failed to set up test file")
	return path
}

func TestRun_InvalidModel(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	// A syntax error surfaces as a load error, not a panic.
	path := writeModel(t, `
		parameter "mu" {
		  distribution = normal(0, 1)
	`)
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, &bytes.Buffer{}, []string{path})

	// --- Assert ---
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to load model")
}

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	args := []string{"-h"}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, &bytes.Buffer{}, args)

	// --- Assert ---
	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	args := []string{"--this-is-not-a-valid-flag"}
	out := &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, &bytes.Buffer{}, args)

	// --- Assert ---
	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}

func TestRun_EstimatesModel(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	path := writeModel(t, `
data {
  obs = [0.5, 1.5, 1.0]
}

parameter "mu" {
  distribution = normal(0, 10)
}

observed "obs" {
  distribution = normal(mu, 1)
}
`)
	out, logs := &bytes.Buffer{}, &bytes.Buffer{}

	// --- Act ---
	err := run(context.Background(), out, logs, []string{"-seed", "1", "-log-format", "json", path})

	// --- Assert ---
	require.NoError(t, err)
	require.Contains(t, out.String(), "Estimates")
	require.Contains(t, out.String(), "mu")
	require.Contains(t, logs.String(), `"msg":"Estimation finished."`)
}
