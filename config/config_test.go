package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.True(t, cfg.EnforceUIDConformance)
	assert.False(t, cfg.UnrestrictedStorageService)
	assert.NotNil(t, cfg.Validators)
}

func TestLoadAppliesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("enforce_uid_conformance: false\nunrestricted_storage_service: true\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.False(t, cfg.EnforceUIDConformance)
	assert.True(t, cfg.UnrestrictedStorageService)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidateNoValidatorRegistered(t *testing.T) {
	cfg := Default()
	assert.NoError(t, cfg.Validate("UI", "not-a-uid"))
}

func TestValidateRunsRegisteredValidator(t *testing.T) {
	cfg := Default()
	cfg.Validators["UI"] = func(value string) error {
		if value == "" {
			return assert.AnError
		}
		return nil
	}
	assert.NoError(t, cfg.Validate("UI", "1.2.3"))
	assert.Error(t, cfg.Validate("UI", ""))
}
