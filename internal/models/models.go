package models

import (
	"fmt"
	"sort"
)

// JobStatus represents the current state of a translation job.
type JobStatus string

const (
	StatusProcessing JobStatus = "processing"
	StatusCompleted  JobStatus = "completed"
	StatusFailed     JobStatus = "failed"
)

// Terminal reports whether no further transition can happen without a new submission.
func (s JobStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// SchemaVersion is stamped on every translation record written by this code.
// Records without a languages map predate it and are migrated on load.
const SchemaVersion = 2

// VideoRecord is one entry of the channel's video list.
type VideoRecord struct {
	VideoID     string  `json:"video_id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	PublishedAt string  `json:"published_at"`
	Duration    float64 `json:"duration"`
	ViewCount   int64   `json:"view_count"`
}

// DurationLabel formats the duration as m:ss, empty when unknown.
func (v VideoRecord) DurationLabel() string {
	if v.Duration <= 0 {
		return ""
	}
	return FormatClock(v.Duration)
}

// FormatClock renders seconds as m:ss.
func FormatClock(seconds float64) string {
	secs := int(seconds)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// VideoCache is the persisted snapshot of the last video list refresh.
type VideoCache struct {
	Videos     []VideoRecord `json:"videos"`
	CachedAt   string        `json:"cached_at"`
	ChannelURL string        `json:"channel_url"`
}

// LanguageJob is one submission of a video to the translation provider.
type LanguageJob struct {
	JobID       string    `json:"job_id"`
	Status      JobStatus `json:"status"`
	SubmittedAt string    `json:"submitted_at"`
	OutputURL   string    `json:"output_url,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// ArchivedJob keeps a job that was replaced by a resubmission for the same language.
type ArchivedJob struct {
	Language   string      `json:"language"`
	Job        LanguageJob `json:"job"`
	ReplacedAt string      `json:"replaced_at"`
}

// TranslationRecord holds every language job for one video.
type TranslationRecord struct {
	SchemaVersion int                    `json:"schema_version"`
	Title         string                 `json:"title"`
	OriginalURL   string                 `json:"original_url"`
	Languages     map[string]LanguageJob `json:"languages"`
	History       []ArchivedJob          `json:"history,omitempty"`
}

// Translations maps video id to its translation record.
type Translations map[string]*TranslationRecord

// Counts returns how many language jobs are processing and completed.
func (t Translations) Counts() (processing, completed int) {
	for _, rec := range t {
		for _, job := range rec.Languages {
			switch job.Status {
			case StatusProcessing:
				processing++
			case StatusCompleted:
				completed++
			}
		}
	}
	return processing, completed
}

// VideoIDs returns the keys in sorted order.
func (t Translations) VideoIDs() []string {
	ids := make([]string, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SortedLanguages returns the record's language names in sorted order.
func (r *TranslationRecord) SortedLanguages() []string {
	langs := make([]string, 0, len(r.Languages))
	for lang := range r.Languages {
		langs = append(langs, lang)
	}
	sort.Strings(langs)
	return langs
}

// Badge is the overall state shown for a video on the browse page.
type Badge string

const (
	BadgeOriginal   Badge = "original"
	BadgeProcessing Badge = "processing"
	BadgeCompleted  Badge = "completed"
)

// Summary reduces a video's translations to a badge and its completed languages.
func (t Translations) Summary(videoID string) (Badge, []string) {
	rec, ok := t[videoID]
	if !ok {
		return BadgeOriginal, nil
	}
	var completed []string
	processing := false
	for _, lang := range rec.SortedLanguages() {
		switch rec.Languages[lang].Status {
		case StatusCompleted:
			completed = append(completed, lang)
		case StatusProcessing:
			processing = true
		}
	}
	switch {
	case processing:
		return BadgeProcessing, completed
	case len(completed) > 0:
		return BadgeCompleted, completed
	default:
		return BadgeOriginal, completed
	}
}

// LibraryEntry is one translated video inside a language group.
type LibraryEntry struct {
	VideoID     string
	Title       string
	OriginalURL string
	Job         LanguageJob
}

// ByLanguage groups every job by language name, both sorted.
func (t Translations) ByLanguage() map[string][]LibraryEntry {
	groups := make(map[string][]LibraryEntry)
	for _, id := range t.VideoIDs() {
		rec := t[id]
		for lang, job := range rec.Languages {
			groups[lang] = append(groups[lang], LibraryEntry{
				VideoID:     id,
				Title:       rec.Title,
				OriginalURL: rec.OriginalURL,
				Job:         job,
			})
		}
	}
	return groups
}

// Transcript is a cached transcript for one video.
type Transcript struct {
	VideoID    string `json:"video_id"`
	Title      string `json:"title"`
	Source     string `json:"source"`
	Language   string `json:"language"`
	Transcript string `json:"transcript"`
	FetchedAt  string `json:"fetched_at"`
	WordCount  int    `json:"word_count"`
}

// WatchURL returns the public watch page of a video.
func WatchURL(videoID string) string {
	return "https://www.youtube.com/watch?v=" + videoID
}

// ThumbnailURL returns the high quality thumbnail of a video.
func ThumbnailURL(videoID string) string {
	return "https://i.ytimg.com/vi/" + videoID + "/hqdefault.jpg"
}

// SortByPublishedDesc orders videos newest first. published_at is compared as a string.
func SortByPublishedDesc(videos []VideoRecord) {
	sort.SliceStable(videos, func(i, j int) bool {
		return videos[i].PublishedAt > videos[j].PublishedAt
	})
}
