package transcripts

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"jess/internal/models"
)

const sourceVideoMCP = "video_mcp"

// Fetcher retrieves raw transcript text.
type Fetcher interface {
	Fetch(ctx context.Context, videoID string) (string, error)
}

// Store persists transcripts.
type Store interface {
	Load() map[string]models.Transcript
	Save(map[string]models.Transcript) error
	Put(models.Transcript) error
}

// Translations exposes the translation store for translated-video lookups.
type Translations interface {
	Load() models.Translations
}

// Videos exposes the cached video list.
type Videos interface {
	Cached() []models.VideoRecord
}

// Result is what GET /api/transcript returns. Exactly one of the shapes is
// filled: a transcript, a translated video pointer, or an error.
type Result struct {
	VideoID    string  `json:"video_id,omitempty"`
	Title      string  `json:"title,omitempty"`
	Source     string  `json:"source"`
	Language   string  `json:"language"`
	Transcript *string `json:"transcript"`
	FetchedAt  string  `json:"fetched_at,omitempty"`
	WordCount  int     `json:"word_count,omitempty"`
	VideoURL   string  `json:"video_url,omitempty"`
	Message    string  `json:"message,omitempty"`
	Error      string  `json:"error,omitempty"`
}

func resultFromStored(t models.Transcript) Result {
	text := t.Transcript
	return Result{
		VideoID:    t.VideoID,
		Title:      t.Title,
		Source:     t.Source,
		Language:   t.Language,
		Transcript: &text,
		FetchedAt:  t.FetchedAt,
		WordCount:  t.WordCount,
	}
}

// Failure is one video that could not be fetched during FetchAll.
type Failure struct {
	VideoID string `json:"video_id"`
	Error   string `json:"error"`
}

// BulkResult summarizes FetchAll.
type BulkResult struct {
	Fetched       int       `json:"fetched"`
	Failed        int       `json:"failed"`
	AlreadyStored int       `json:"already_stored"`
	TotalStored   int       `json:"total_stored"`
	Failures      []Failure `json:"failures"`
}

// ErrUnreachable aborts FetchAll when the transcript service cannot be reached.
var ErrUnreachable = errors.New("cannot connect to video MCP")

type Service struct {
	logger       *slog.Logger
	fetcher      Fetcher
	store        Store
	translations Translations
	videos       Videos
	limiter      *rate.Limiter
	now          func() time.Time
}

func NewService(logger *slog.Logger, fetcher Fetcher, store Store, translations Translations, videos Videos, rps float64) *Service {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
	return &Service{
		logger:       logger,
		fetcher:      fetcher,
		store:        store,
		translations: translations,
		videos:       videos,
		limiter:      limiter,
		now:          time.Now,
	}
}

// All returns every stored transcript.
func (s *Service) All() map[string]models.Transcript {
	return s.store.Load()
}

// Get returns the stored transcript, a pointer to a completed translation in
// lang, or a freshly fetched transcript which is then stored. The returned
// error is only set for transport failures.
func (s *Service) Get(ctx context.Context, videoID, lang string, refresh bool) (Result, error) {
	if !refresh {
		if t, ok := s.store.Load()[videoID]; ok {
			return resultFromStored(t), nil
		}
	}

	if lang != "" {
		if rec, ok := s.translations.Load()[videoID]; ok {
			if job, ok := rec.Languages[lang]; ok && job.Status == models.StatusCompleted && job.OutputURL != "" {
				return Result{
					Source:   "heygen",
					Language: lang,
					VideoURL: job.OutputURL,
					Message:  "Translated video available - transcript embedded in video",
				}, nil
			}
		}
	}

	text, err := s.fetcher.Fetch(ctx, videoID)
	if err != nil {
		var upstream *UpstreamError
		switch {
		case errors.Is(err, ErrNotFound), errors.Is(err, ErrEmpty), errors.As(err, &upstream):
			return Result{VideoID: videoID, Source: sourceVideoMCP, Language: "en", Error: err.Error()}, nil
		default:
			return Result{}, err
		}
	}

	t := s.build(videoID, s.titleOf(videoID), text)
	if err := s.store.Put(t); err != nil {
		s.logger.Error("failed to store transcript", "video_id", videoID, "error", err)
	}
	return resultFromStored(t), nil
}

// FetchAll fetches every cached video that has no stored transcript yet.
func (s *Service) FetchAll(ctx context.Context) (BulkResult, error) {
	stored := s.store.Load()
	var (
		res     BulkResult
		fetched int
	)
	failures := []Failure{}

	for _, v := range s.videos.Cached() {
		if v.VideoID == "" {
			continue
		}
		if _, ok := stored[v.VideoID]; ok {
			res.AlreadyStored++
			continue
		}
		if err := s.limiter.Wait(ctx); err != nil {
			return BulkResult{}, err
		}

		text, err := s.fetcher.Fetch(ctx, v.VideoID)
		if err != nil {
			if IsConnection(err) {
				return BulkResult{}, ErrUnreachable
			}
			msg := err.Error()
			switch {
			case errors.Is(err, ErrNotFound):
				msg = "Not found"
			case errors.Is(err, ErrEmpty):
				msg = "Empty transcript"
			}
			failures = append(failures, Failure{VideoID: v.VideoID, Error: msg})
			continue
		}
		title := v.Title
		if title == "" {
			title = "Unknown"
		}
		stored[v.VideoID] = s.build(v.VideoID, title, text)
		fetched++
	}

	if fetched > 0 {
		if err := s.store.Save(stored); err != nil {
			return BulkResult{}, err
		}
	}

	res.Fetched = fetched
	res.Failed = len(failures)
	res.TotalStored = len(stored)
	if len(failures) > 5 {
		failures = failures[:5]
	}
	res.Failures = failures
	s.logger.Info("bulk transcript fetch finished", "fetched", res.Fetched, "failed", res.Failed, "skipped", res.AlreadyStored)
	return res, nil
}

func (s *Service) build(videoID, title, text string) models.Transcript {
	return models.Transcript{
		VideoID:    videoID,
		Title:      title,
		Source:     sourceVideoMCP,
		Language:   "en",
		Transcript: text,
		FetchedAt:  s.now().Format(time.RFC3339),
		WordCount:  len(strings.Fields(text)),
	}
}

func (s *Service) titleOf(videoID string) string {
	for _, v := range s.videos.Cached() {
		if v.VideoID == videoID {
			return v.Title
		}
	}
	return "Unknown"
}
