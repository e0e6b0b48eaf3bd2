package store

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"jess/internal/models"
)

var errMalformedRecord = errors.New("translation record is not an object")

// TranslationStore persists every video's language jobs in one JSON file.
//
// All access from this process goes through the mutex, so read-modify-write
// sequences done with Update cannot interleave. Nothing coordinates separate
// processes sharing the file: the last Save wins.
type TranslationStore struct {
	logger *slog.Logger
	path   string
	now    func() time.Time

	mu sync.Mutex
}

func NewTranslationStore(logger *slog.Logger, path string) *TranslationStore {
	return &TranslationStore{logger: logger, path: path, now: time.Now}
}

// Load returns the persisted translations. Unreadable or corrupt files yield
// an empty mapping. Legacy flat records are migrated and written back.
func (s *TranslationStore) Load() models.Translations {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

// Save overwrites the file with the full mapping.
func (s *TranslationStore) Save(t models.Translations) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return writeJSON(s.path, t)
}

// Update loads the current mapping, lets fn mutate it and saves once when fn
// reports a change.
func (s *TranslationStore) Update(fn func(models.Translations) bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.loadLocked()
	if !fn(t) {
		return nil
	}
	return writeJSON(s.path, t)
}

// UpsertJob sets the job for (videoID, language). title and originalURL are
// only used when the video has no record yet. A replaced job is kept in the
// record's history.
func (s *TranslationStore) UpsertJob(videoID, language, title, originalURL string, job models.LanguageJob) error {
	return s.Update(func(t models.Translations) bool {
		rec, ok := t[videoID]
		if !ok {
			rec = &models.TranslationRecord{
				SchemaVersion: models.SchemaVersion,
				Title:         title,
				OriginalURL:   originalURL,
				Languages:     make(map[string]models.LanguageJob),
			}
			t[videoID] = rec
		}
		if prev, exists := rec.Languages[language]; exists {
			rec.History = append(rec.History, models.ArchivedJob{
				Language:   language,
				Job:        prev,
				ReplacedAt: s.now().Format(time.RFC3339),
			})
		}
		rec.Languages[language] = job
		return true
	})
}

func (s *TranslationStore) loadLocked() models.Translations {
	var raw map[string]json.RawMessage
	ok, err := readJSON(s.path, &raw)
	if err != nil {
		s.logger.Warn("translation store unreadable, starting empty", "path", s.path, "error", err)
		return models.Translations{}
	}
	if !ok {
		return models.Translations{}
	}

	out := make(models.Translations, len(raw))
	migrated := 0
	for videoID, data := range raw {
		rec, legacy, err := decodeRecord(videoID, data)
		if err != nil {
			s.logger.Warn("translation store malformed, starting empty", "path", s.path, "video_id", videoID, "error", err)
			return models.Translations{}
		}
		if legacy {
			migrated++
		}
		out[videoID] = rec
	}

	if migrated > 0 {
		if err := writeJSON(s.path, out); err != nil {
			s.logger.Error("failed to persist migrated translations", "error", err)
		} else {
			s.logger.Info("migrated legacy translation records", "count", migrated)
		}
	}
	return out
}

type legacyRecord struct {
	JobID       string `json:"job_id"`
	Status      string `json:"status"`
	Language    string `json:"language"`
	Title       string `json:"title"`
	OriginalURL string `json:"original_url"`
	SubmittedAt string `json:"submitted_at"`
	OutputURL   string `json:"output_url"`
	Error       string `json:"error"`
}

// decodeRecord parses one entry. Entries without a languages key are the old
// single-language shape and are converted.
func decodeRecord(videoID string, data json.RawMessage) (*models.TranslationRecord, bool, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, false, err
	}
	if fields == nil {
		return nil, false, errMalformedRecord
	}

	if _, ok := fields["languages"]; ok {
		var rec models.TranslationRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, false, err
		}
		if rec.Languages == nil {
			rec.Languages = make(map[string]models.LanguageJob)
		}
		if rec.SchemaVersion == 0 {
			rec.SchemaVersion = models.SchemaVersion
		}
		return &rec, false, nil
	}

	var old legacyRecord
	if err := json.Unmarshal(data, &old); err != nil {
		return nil, false, err
	}
	return migrateLegacy(videoID, old), true, nil
}

func migrateLegacy(videoID string, old legacyRecord) *models.TranslationRecord {
	lang := valueOr(old.Language, "Unknown")
	job := models.LanguageJob{
		JobID:       old.JobID,
		Status:      models.JobStatus(valueOr(old.Status, "unknown")),
		SubmittedAt: old.SubmittedAt,
		OutputURL:   old.OutputURL,
		Error:       old.Error,
	}
	return &models.TranslationRecord{
		SchemaVersion: models.SchemaVersion,
		Title:         valueOr(old.Title, "Untitled"),
		OriginalURL:   valueOr(old.OriginalURL, models.WatchURL(videoID)),
		Languages:     map[string]models.LanguageJob{lang: job},
	}
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
