package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jess/internal/models"
)

func TestVideoCacheStore(t *testing.T) {
	s := NewVideoCacheStore(testLogger(), filepath.Join(t.TempDir(), "videos_cache.json"))
	s.now = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }

	_, ok := s.Load()
	assert.False(t, ok)

	videos := []models.VideoRecord{{VideoID: "v1", Title: "One", PublishedAt: "20240101", Duration: 61}}
	_, err := s.Save(videos, "https://www.youtube.com/@chan")
	require.NoError(t, err)

	cache, ok := s.Load()
	require.True(t, ok)
	assert.Equal(t, videos, cache.Videos)
	assert.Equal(t, "2024-03-01T00:00:00Z", cache.CachedAt)
	assert.Equal(t, "https://www.youtube.com/@chan", cache.ChannelURL)
}

func TestVideoCacheStoreCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "videos_cache.json")
	writeFile(t, path, "not json")

	_, ok := NewVideoCacheStore(testLogger(), path).Load()
	assert.False(t, ok)
}

func TestTranscriptStoreCorrupt(t *testing.T) {
	for name, content := range map[string]string{
		"null":      "null",
		"truncated": `{"v0": {"video_id": "v0", "transcr`,
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "transcripts.json")
			writeFile(t, path, content)
			s := NewTranscriptStore(testLogger(), path)

			all := s.Load()
			require.NotNil(t, all)
			assert.Empty(t, all)

			require.NoError(t, s.Put(models.Transcript{VideoID: "v1", Transcript: "hello"}))
			assert.Equal(t, "hello", s.Load()["v1"].Transcript)
		})
	}
}

func TestTranscriptStorePut(t *testing.T) {
	s := NewTranscriptStore(testLogger(), filepath.Join(t.TempDir(), "transcripts.json"))
	assert.Empty(t, s.Load())

	require.NoError(t, s.Put(models.Transcript{VideoID: "v1", Transcript: "hello"}))
	require.NoError(t, s.Put(models.Transcript{VideoID: "v2", Transcript: "world"}))

	all := s.Load()
	assert.Len(t, all, 2)
	assert.Equal(t, "world", all["v2"].Transcript)
}
