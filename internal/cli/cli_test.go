package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_Help(t *testing.T) {
	testCases := []struct {
		name string
		args []string
	}{
		{name: "help flag", args: []string{"-h"}},
		{name: "no model path", args: nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			out := &bytes.Buffer{}

			cfg, shouldExit, err := Parse(tc.args, out)

			require.NoError(t, err)
			assert.True(t, shouldExit)
			assert.Nil(t, cfg)
			assert.Contains(t, out.String(), "Usage:")
		})
	}
}

func TestParse_Paths(t *testing.T) {
	testCases := []struct {
		name string
		args []string
		want []string
	}{
		{name: "positional", args: []string{"a.hcl"}, want: []string{"a.hcl"}},
		{name: "long flag", args: []string{"-model", "dir"}, want: []string{"dir"}},
		{name: "short flag plus positional", args: []string{"-m", "a.hcl", "b.hcl"}, want: []string{"a.hcl", "b.hcl"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg, shouldExit, err := Parse(tc.args, &bytes.Buffer{})

			require.NoError(t, err)
			assert.False(t, shouldExit)
			assert.Equal(t, tc.want, cfg.ModelPaths)
			assert.Equal(t, "text", cfg.LogFormat)
			assert.Equal(t, "info", cfg.LogLevel)
		})
	}
}

func TestParse_OverridesOnlyExplicitFlags(t *testing.T) {
	// Arrange
	args := []string{"-skip-variance", "-seed", "9", "-log-format", "JSON", "model.hcl"}

	// Act
	cfg, _, err := Parse(args, &bytes.Buffer{})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "json", cfg.LogFormat)
	require.NotNil(t, cfg.SkipVariance)
	assert.True(t, *cfg.SkipVariance)
	require.NotNil(t, cfg.Seed)
	assert.Equal(t, uint64(9), *cfg.Seed)
	assert.Nil(t, cfg.Workers, "unset flags keep the file's value")
	assert.Nil(t, cfg.PredictiveDraws)
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		args    []string
		wantMsg string
	}{
		{name: "unknown flag", args: []string{"-nope"}, wantMsg: "flag provided but not defined"},
		{name: "log format", args: []string{"-log-format", "xml", "m.hcl"}, wantMsg: "invalid log-format"},
		{name: "log level", args: []string{"-log-level", "loud", "m.hcl"}, wantMsg: "invalid log-level"},
		{name: "workers", args: []string{"-workers", "0", "m.hcl"}, wantMsg: "workers must be at least 1"},
		{name: "draws", args: []string{"-predictive-draws", "-3", "m.hcl"}, wantMsg: "must not be negative"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := Parse(tc.args, &bytes.Buffer{})

			var exitErr *ExitError
			require.True(t, errors.As(err, &exitErr))
			assert.Equal(t, 2, exitErr.Code)
			assert.Contains(t, exitErr.Message, tc.wantMsg)
		})
	}
}
