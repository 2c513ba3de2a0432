package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadRequiresAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "key")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.ListenAddr)
	assert.Equal(t, "studio.db", cfg.DatabasePath)
	assert.Equal(t, 1, cfg.MaxConcurrentRenders)
	assert.Equal(t, time.Second, cfg.DraftDebounce)
	assert.Equal(t, 1500*time.Millisecond, cfg.GalleryDebounce)
	assert.Equal(t, "gemini-3-flash-preview", cfg.TextModel)
	assert.Equal(t, "gemini-2.5-flash-image", cfg.ImageModel)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("MAX_CONCURRENT_RENDERS", "0")
	t.Setenv("DRAFT_DEBOUNCE_MS", "250")
	t.Setenv("LOG_LEVEL", "Debug")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.MaxConcurrentRenders, "ceiling is clamped to at least 1")
	assert.Equal(t, 250*time.Millisecond, cfg.DraftDebounce)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestYAMLOverlay(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "key")

	path := filepath.Join(t.TempDir(), "studio.yaml")
	require.NoError(t, os.WriteFile(path, []byte(
		"listen_addr: \":9999\"\ndatabase_path: /tmp/other.db\nmax_concurrent_renders: 2\n",
	), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9999", cfg.ListenAddr)
	assert.Equal(t, "/tmp/other.db", cfg.DatabasePath)
	assert.Equal(t, 2, cfg.MaxConcurrentRenders)
	// Untouched fields keep their env defaults.
	assert.Equal(t, "gemini-3-flash-preview", cfg.TextModel)
}

func TestLoadLocalSkipsAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	cfg, err := LoadLocal("")
	require.NoError(t, err)
	assert.Equal(t, "studio.db", cfg.DatabasePath)
}
