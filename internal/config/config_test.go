package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roomcal.yaml")

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", cfg.Listen)
	assert.Equal(t, "*/15 * * * *", cfg.RefreshCron)
	assert.NotZero(t, cfg.Year)

	info, err := os.Stat(path)
	require.NoError(t, err, "first run leaves an editable file behind")
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roomcal.yaml")
	content := "listen: 0.0.0.0:9090\nyear: 2026\nsource:\n  path: ./sheet.csv\nbasic_auth:\n  username: admin\n  password: hunter2\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9090", cfg.Listen)
	assert.Equal(t, 2026, cfg.Year)
	assert.Equal(t, "./sheet.csv", cfg.Source.Path)
	require.NotNil(t, cfg.BasicAuth)
	assert.Equal(t, "admin", cfg.BasicAuth.Username)
	assert.Equal(t, "*/15 * * * *", cfg.RefreshCron, "missing fields are normalized")
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "roomcal.yaml")

	cfg := DefaultConfig()
	cfg.Year = 2026
	cfg.Source.URL = "https://example.com/sheet.csv"
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestNormalizeFillsZeroValues(t *testing.T) {
	cfg := &Config{Year: 2026}
	cfg.Normalize()

	assert.Equal(t, "127.0.0.1:8080", cfg.Listen)
	assert.Equal(t, 2026, cfg.Year)
	assert.Equal(t, "./var/sheet-cache", cfg.CacheDir)
}

func TestLoadRejectsEmptyPath(t *testing.T) {
	_, err := Load("")
	require.Error(t, err)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roomcal.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: [unclosed"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
}
