package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_PassesValidate(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoad_MissingFilePathFallsBackToDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().BatchSize, cfg.BatchSize)
}

func TestLoad_EmptyPathUsesDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_YAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("batch_size: 250\ncurrent_phase: 2\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 250, cfg.BatchSize)
	assert.Equal(t, 2, cfg.CurrentPhase)
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("batch_size: 250\n"), 0o600))

	t.Setenv("ENGINE_BATCH_SIZE", "500")
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 500, cfg.BatchSize)
}

func TestLoad_InvalidConfigFailsValidation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("batch_size: 0\n"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate_RejectsNonPositiveRateLimits(t *testing.T) {
	cfg := Default()
	cfg.RateLimitReadTokensPerSecond = 0
	require.Error(t, cfg.Validate())
}

func TestValidate_RejectsBatchSizeOutOfRange(t *testing.T) {
	cfg := Default()
	cfg.BatchSize = 1001
	require.Error(t, cfg.Validate())
}

func TestValidate_RejectsCurrentPhaseBelowOne(t *testing.T) {
	cfg := Default()
	cfg.CurrentPhase = 0
	require.Error(t, cfg.Validate())
}

func TestValidate_RejectsNegativeScanLimit(t *testing.T) {
	cfg := Default()
	negative := -1
	cfg.DefaultScanLimit = &negative
	require.Error(t, cfg.Validate())
}

func TestValidate_AllowsNilScanLimit(t *testing.T) {
	cfg := Default()
	cfg.DefaultScanLimit = nil
	require.NoError(t, cfg.Validate())
}
