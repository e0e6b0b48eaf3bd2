package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsAndOverrides(t *testing.T) {
	t.Setenv("APP_ADDR", ":9999")
	t.Setenv("RECONCILE_INTERVAL", "2m")
	t.Setenv("VIDEO_MAX_RESULTS", "not-a-number")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("VIDEO_SOURCE", "FEED")

	cfg := Load()
	assert.Equal(t, ":9999", cfg.Addr)
	assert.Equal(t, 2*time.Minute, cfg.ReconcileInterval)
	assert.Equal(t, 50, cfg.VideoMaxResults)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "feed", cfg.VideoSource)
	assert.Equal(t, "HEYGEN_API_KEY", cfg.HeyGenKeyName)
	assert.Equal(t, filepath.Join(cfg.DataDir, "translations.json"), cfg.TranslationsPath())
}

func TestLoadAgentConfigMissingFile(t *testing.T) {
	cfg, err := LoadAgentConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "Jess", cfg.Agent.Name)
	assert.Equal(t, 10, cfg.Search.MaxResults)
	assert.Contains(t, cfg.Catalog, "SKfMmH9Bk4o")
}

func TestLoadAgentConfigMergesCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := `
agent:
  name: Jessie
search:
  max_results: 3
  min_relevance: 0.4
catalog:
  new123:
    title: "A brand new video"
    featured: true
  SKfMmH9Bk4o:
    title: "Renamed"
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	cfg, err := LoadAgentConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "Jessie", cfg.Agent.Name)
	assert.Equal(t, 3, cfg.Search.MaxResults)
	assert.InDelta(t, 0.4, cfg.Search.MinRelevance, 1e-9)
	assert.Equal(t, "A brand new video", cfg.Catalog["new123"].Title)
	assert.Equal(t, "Renamed", cfg.Catalog["SKfMmH9Bk4o"].Title)
	assert.Contains(t, cfg.Catalog, "AOVpTvMW6ro")
}
