package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Extraction.Schema = "extended"
	cfg.Extraction.Workers = 4
	cfg.Log.Format = "json"
	require.NoError(t, SaveConfig(cfg, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadConfigPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("extraction:\n  machine_id: MACH_900\n"), 0o600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "MACH_900", cfg.Extraction.MachineID)
	assert.Equal(t, "basic", cfg.Extraction.Schema)
	assert.Equal(t, 500, cfg.Extraction.MaxFieldLength)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadConfigInvalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("extraction: [\n"), 0o600))
	_, err := LoadConfig(bad)
	assert.Error(t, err)

	wrongSchema := filepath.Join(dir, "schema.yaml")
	require.NoError(t, os.WriteFile(wrongSchema, []byte("extraction:\n  schema: wide\n"), 0o600))
	_, err = LoadConfig(wrongSchema)
	assert.Error(t, err)
}

func TestSet(t *testing.T) {
	cfg := Default()

	require.NoError(t, cfg.Set("extraction.schema", "EXTENDED"))
	assert.Equal(t, "extended", cfg.Extraction.Schema)

	require.NoError(t, cfg.Set("extraction.max_field_length", "120"))
	assert.Equal(t, 120, cfg.Extraction.MaxFieldLength)

	require.NoError(t, cfg.Set("Extraction.Extensions", "log, DAT"))
	assert.Equal(t, []string{".log", ".dat"}, cfg.Extraction.Extensions)

	require.NoError(t, cfg.Set("extraction.bom", "true"))
	assert.True(t, cfg.Extraction.BOM)

	require.NoError(t, cfg.Set("log.level", "debug"))
	assert.Equal(t, "debug", cfg.Log.Level)

	assert.Error(t, cfg.Set("extraction.workers", "-1"))
	assert.Error(t, cfg.Set("extraction.schema", "wide"))
	assert.Error(t, cfg.Set("extraction.extensions", " , "))
	assert.Error(t, cfg.Set("provider.key", "x"))
}

func TestParseExtensions(t *testing.T) {
	assert.Equal(t, []string{".txt", ".log"}, ParseExtensions("txt, .LOG,,"))
	assert.Empty(t, ParseExtensions(""))
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Extraction.Extensions = nil
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Extraction.MaxFieldLength = -1
	assert.Error(t, cfg.Validate())
}
