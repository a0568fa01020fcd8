package configutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Name    string            `json:"name"`
	Count   int               `json:"count"`
	Enabled *bool             `json:"enabled"`
	Tags    map[string]string `json:"tags"`
}

func TestLocalPath(t *testing.T) {
	require.Equal(t, filepath.Join("dir", "app.local.json5"), LocalPath(filepath.Join("dir", "app.json5")))
	require.Equal(t, "app.local", LocalPath("app"))
}

func TestReadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.json5")

	_, err := ReadConfig[testConfig](path)
	require.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, os.WriteFile(path, []byte(`{name: "base", count: 1, tags: {a: "1"}}`), 0644))
	require.NoError(t, os.WriteFile(LocalPath(path), []byte(`{count: 5, tags: {b: "2"}}`), 0644))

	cfg, err := ReadConfig[testConfig](path)
	require.NoError(t, err)
	require.Equal(t, "base", cfg.Name)
	require.Equal(t, 5, cfg.Count)
	require.Equal(t, map[string]string{"a": "1", "b": "2"}, cfg.Tags)
}

func TestReadWithDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "app.json5")
	enabled := true
	defaults := testConfig{Name: "default", Count: 3, Enabled: &enabled}

	cfg, err := ReadWithDefaults(path, defaults)
	require.NoError(t, err)
	require.Equal(t, defaults, cfg)

	require.NoError(t, os.WriteFile(path, []byte(`{enabled: false, count: 7}`), 0644))
	cfg, err = ReadWithDefaults(path, defaults)
	require.NoError(t, err)
	require.Equal(t, "default", cfg.Name)
	require.Equal(t, 7, cfg.Count)
	require.NotNil(t, cfg.Enabled)
	require.False(t, *cfg.Enabled)
	require.True(t, enabled)
}
