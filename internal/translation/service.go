package translation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"jess/internal/heygen"
	"jess/internal/models"
)

// JobClient talks to the translation provider.
type JobClient interface {
	Submit(ctx context.Context, videoURL, language string) (models.LanguageJob, error)
	Status(ctx context.Context, jobID string) (heygen.StatusResult, error)
}

// Store is the persisted translation state.
type Store interface {
	Load() models.Translations
	Update(fn func(models.Translations) bool) error
	UpsertJob(videoID, language, title, originalURL string, job models.LanguageJob) error
}

// ErrMissingVideoID rejects a request without a video id.
var ErrMissingVideoID = errors.New("video_id is required")

// Request is a user-initiated translation.
type Request struct {
	VideoID  string `json:"video_id"`
	VideoURL string `json:"video_url"`
	Title    string `json:"title"`
	Language string `json:"language"`
}

// Update describes one job that left the processing state during a check.
type Update struct {
	VideoID   string           `json:"video_id"`
	Language  string           `json:"language"`
	JobID     string           `json:"job_id"`
	Status    models.JobStatus `json:"status"`
	OutputURL string           `json:"output_url,omitempty"`
	Error     string           `json:"error,omitempty"`
}

type Service struct {
	logger  *slog.Logger
	client  JobClient
	store   Store
	limiter *rate.Limiter
}

// NewService builds the service. pollRPS bounds status calls per second; zero
// or less disables pacing.
func NewService(logger *slog.Logger, client JobClient, store Store, pollRPS float64) *Service {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if pollRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(pollRPS), 1)
	}
	return &Service{logger: logger, client: client, store: store, limiter: limiter}
}

// Submit sends the video to the provider and records the new processing job.
// Nothing is stored when submission fails.
func (s *Service) Submit(ctx context.Context, req Request) (models.LanguageJob, error) {
	if req.VideoID == "" {
		return models.LanguageJob{}, ErrMissingVideoID
	}
	if req.VideoURL == "" {
		req.VideoURL = models.WatchURL(req.VideoID)
	}

	job, err := s.client.Submit(ctx, req.VideoURL, req.Language)
	if err != nil {
		s.logger.Warn("translation submit failed", "video_id", req.VideoID, "language", req.Language, "kind", heygen.KindOf(err), "error", err)
		return models.LanguageJob{}, err
	}

	if err := s.store.UpsertJob(req.VideoID, req.Language, req.Title, req.VideoURL, job); err != nil {
		return models.LanguageJob{}, fmt.Errorf("failed to record job %s: %w", job.JobID, err)
	}
	return job, nil
}

type pending struct {
	videoID  string
	language string
	jobID    string
}

// Check polls every processing job once and folds terminal results into the
// store with a single write. When nothing changed the store is not written.
// Provider errors leave the job processing for the next check. If ctx ends
// mid-check the results collected so far are still applied and returned
// alongside the context error.
func (s *Service) Check(ctx context.Context) ([]Update, error) {
	runID := uuid.NewString()
	snapshot := s.store.Load()

	var todo []pending
	for _, videoID := range snapshot.VideoIDs() {
		rec := snapshot[videoID]
		for _, lang := range rec.SortedLanguages() {
			job := rec.Languages[lang]
			if job.Status == models.StatusProcessing && job.JobID != "" {
				todo = append(todo, pending{videoID: videoID, language: lang, jobID: job.JobID})
			}
		}
	}

	var (
		updates []Update
		waitErr error
	)
	for _, p := range todo {
		if waitErr = s.limiter.Wait(ctx); waitErr != nil {
			s.logger.Warn("status check interrupted", "run_id", runID, "collected", len(updates), "error", waitErr)
			break
		}

		res, err := s.client.Status(ctx, p.jobID)
		if err != nil {
			s.logger.Warn("status check failed, will retry", "run_id", runID, "job_id", p.jobID, "kind", heygen.KindOf(err), "error", err)
			continue
		}
		if res.Status == models.StatusProcessing {
			continue
		}
		if ferr := res.Failure(); ferr != nil {
			s.logger.Info("translation failed", "run_id", runID, "video_id", p.videoID, "language", p.language, "error", ferr)
		}
		updates = append(updates, Update{
			VideoID:   p.videoID,
			Language:  p.language,
			JobID:     p.jobID,
			Status:    res.Status,
			OutputURL: res.OutputURL,
			Error:     res.Error,
		})
	}

	if len(updates) == 0 {
		if waitErr == nil {
			s.logger.Debug("status check found no changes", "run_id", runID, "checked", len(todo))
		}
		return nil, waitErr
	}

	// Apply to a fresh copy so submissions made while polling are kept.
	var applied []Update
	err := s.store.Update(func(current models.Translations) bool {
		applied = applied[:0]
		for _, u := range updates {
			rec, ok := current[u.VideoID]
			if !ok {
				continue
			}
			job, ok := rec.Languages[u.Language]
			if !ok || job.JobID != u.JobID || job.Status != models.StatusProcessing {
				continue
			}
			job.Status = u.Status
			job.OutputURL = u.OutputURL
			job.Error = u.Error
			rec.Languages[u.Language] = job
			applied = append(applied, u)
		}
		return len(applied) > 0
	})
	if err != nil {
		return nil, fmt.Errorf("failed to save status updates: %w", err)
	}

	s.logger.Info("status check completed", "run_id", runID, "checked", len(todo), "updated", len(applied))
	return applied, waitErr
}
