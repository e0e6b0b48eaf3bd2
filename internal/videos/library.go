package videos

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"jess/internal/models"
)

// Source returns the ordered video list of a channel.
type Source interface {
	Fetch(ctx context.Context, channel string) ([]models.VideoRecord, error)
}

// Cache persists the last fetched list.
type Cache interface {
	Load() (models.VideoCache, bool)
	Save(videos []models.VideoRecord, channelURL string) (models.VideoCache, error)
}

// ErrNoVideos is returned when a fetch succeeds but yields nothing.
var ErrNoVideos = errors.New("no videos returned by source")

// Library serves the channel's video list from the cache, refreshing it from
// the source on demand.
type Library struct {
	logger     *slog.Logger
	source     Source
	cache      Cache
	channel    string
	channelURL string
}

// NewLibrary builds a Library. channel is what the source understands (a URL
// for yt-dlp, a channel id for the API and feed sources); channelURL is
// recorded in the cache.
func NewLibrary(logger *slog.Logger, source Source, cache Cache, channel, channelURL string) *Library {
	return &Library{logger: logger, source: source, cache: cache, channel: channel, channelURL: channelURL}
}

// List returns cached videos newest first, fetching when the cache is empty.
func (l *Library) List(ctx context.Context) (models.VideoCache, error) {
	if cache, ok := l.cache.Load(); ok && len(cache.Videos) > 0 {
		sorted(cache.Videos)
		return cache, nil
	}
	return l.Refresh(ctx)
}

// Refresh replaces the cache with a fresh fetch. An empty fetch leaves the
// cache untouched.
func (l *Library) Refresh(ctx context.Context) (models.VideoCache, error) {
	videos, err := l.source.Fetch(ctx, l.channel)
	if err != nil {
		l.logger.Error("video fetch failed", "channel", l.channel, "error", err)
		return models.VideoCache{}, fmt.Errorf("fetch videos: %w", err)
	}
	if len(videos) == 0 {
		return models.VideoCache{}, ErrNoVideos
	}

	cache, err := l.cache.Save(videos, l.channelURL)
	if err != nil {
		return models.VideoCache{}, fmt.Errorf("save video cache: %w", err)
	}
	l.logger.Info("video list refreshed", "count", len(videos))
	sorted(cache.Videos)
	return cache, nil
}

// Cached returns the current cache without fetching.
func (l *Library) Cached() []models.VideoRecord {
	cache, ok := l.cache.Load()
	if !ok {
		return nil
	}
	sorted(cache.Videos)
	return cache.Videos
}

// Lookup finds a cached video by id.
func (l *Library) Lookup(videoID string) (models.VideoRecord, bool) {
	for _, v := range l.Cached() {
		if v.VideoID == videoID {
			return v, true
		}
	}
	return models.VideoRecord{}, false
}

func sorted(v []models.VideoRecord) {
	models.SortByPublishedDesc(v)
}
