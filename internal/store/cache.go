package store

import (
	"log/slog"
	"sync"
	"time"

	"jess/internal/models"
)

// VideoCacheStore keeps the last fetched video list.
type VideoCacheStore struct {
	logger *slog.Logger
	path   string
	now    func() time.Time
	mu     sync.Mutex
}

func NewVideoCacheStore(logger *slog.Logger, path string) *VideoCacheStore {
	return &VideoCacheStore{logger: logger, path: path, now: time.Now}
}

// Load returns the cached snapshot; ok is false when there is nothing usable.
func (s *VideoCacheStore) Load() (models.VideoCache, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cache models.VideoCache
	ok, err := readJSON(s.path, &cache)
	if err != nil {
		s.logger.Warn("video cache unreadable", "path", s.path, "error", err)
		return models.VideoCache{}, false
	}
	return cache, ok
}

// Save replaces the snapshot and returns what was written.
func (s *VideoCacheStore) Save(videos []models.VideoRecord, channelURL string) (models.VideoCache, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cache := models.VideoCache{
		Videos:     videos,
		CachedAt:   s.now().Format(time.RFC3339),
		ChannelURL: channelURL,
	}
	return cache, writeJSON(s.path, cache)
}

// TranscriptStore keeps fetched transcripts keyed by video id.
type TranscriptStore struct {
	logger *slog.Logger
	path   string
	mu     sync.Mutex
}

func NewTranscriptStore(logger *slog.Logger, path string) *TranscriptStore {
	return &TranscriptStore{logger: logger, path: path}
}

func (s *TranscriptStore) Load() map[string]models.Transcript {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

// read treats an unreadable or null file as an empty store. Callers hold mu.
func (s *TranscriptStore) read() map[string]models.Transcript {
	var out map[string]models.Transcript
	if _, err := readJSON(s.path, &out); err != nil {
		s.logger.Warn("transcript store unreadable", "path", s.path, "error", err)
		return make(map[string]models.Transcript)
	}
	if out == nil {
		out = make(map[string]models.Transcript)
	}
	return out
}

func (s *TranscriptStore) Save(transcripts map[string]models.Transcript) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSON(s.path, transcripts)
}

// Put adds or replaces a single transcript.
func (s *TranscriptStore) Put(t models.Transcript) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := s.read()
	all[t.VideoID] = t
	return writeJSON(s.path, all)
}
