package agent

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"jess/internal/config"
	"jess/internal/models"
)

// Backend is the search and synthesis service the relay forwards to.
type Backend interface {
	Search(ctx context.Context, query string, maxResults int) ([]Segment, error)
	Synthesize(ctx context.Context, query string, segments []Segment) (string, error)
	ListVideos(ctx context.Context) ([]ListedVideo, error)
}

// VideoEmbed points the UI at one video moment.
type VideoEmbed struct {
	VideoID   string `json:"video_id"`
	StartTime int    `json:"start_time"`
	Title     string `json:"title"`
	Timestamp string `json:"timestamp"`
	URL       string `json:"url"`
}

// Response is the answer to one query.
type Response struct {
	Content   string      `json:"content"`
	Success   bool        `json:"success"`
	VideoInfo *VideoEmbed `json:"video_info,omitempty"`
	Examples  []string    `json:"clickable_examples,omitempty"`
}

var helpPatterns = []string{
	"help",
	"what should i watch",
	"recommend",
	"suggestion",
	"popular",
	"most viewed",
	"best video",
	"what do you have",
	"what videos",
	"latest",
	"newest",
	"recent",
	"featured",
	"top video",
	"where to start",
	"what can you show",
	"what topics",
	"what content",
	"list videos",
	"available videos",
	"show videos",
}

var mention = regexp.MustCompile(`(?i)@jess\s*`)

// Relay answers free-text questions about the video library. It holds no
// per-query state.
type Relay struct {
	logger  *slog.Logger
	backend Backend
	cfg     config.AgentConfig
}

func NewRelay(logger *slog.Logger, backend Backend, cfg config.AgentConfig) *Relay {
	return &Relay{logger: logger, backend: backend, cfg: cfg}
}

// Name returns the agent's display name and icon.
func (r *Relay) Name() (string, string) {
	return r.cfg.Agent.Name, r.cfg.Agent.Icon
}

// Query routes q to recommendations or search.
func (r *Relay) Query(ctx context.Context, q string) Response {
	query := cleanQuery(q)
	if isHelpQuery(query) {
		return r.Recommend(ctx, query)
	}
	return r.search(ctx, query)
}

func cleanQuery(q string) string {
	return strings.TrimSpace(mention.ReplaceAllString(q, ""))
}

func isHelpQuery(q string) bool {
	lower := strings.ToLower(q)
	for _, p := range helpPatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

type libraryVideo struct {
	ListedVideo
	config.CatalogEntry
}

// Recommend lists the library ordered by the intent found in query.
func (r *Relay) Recommend(ctx context.Context, query string) Response {
	listed, err := r.backend.ListVideos(ctx)
	if err != nil {
		r.logger.Error("list videos failed", "error", err)
	}
	if len(listed) == 0 {
		return Response{
			Content:  "No videos are currently available in the library.",
			Success:  true,
			Examples: exampleQueries(),
		}
	}

	videos := make([]libraryVideo, len(listed))
	for i, v := range listed {
		entry := r.cfg.Catalog[v.VideoID]
		if entry.Title == "" {
			entry.Title = v.Title
		}
		if entry.Title == "" {
			entry.Title = "Video " + v.VideoID
		}
		videos[i] = libraryVideo{ListedVideo: v, CatalogEntry: entry}
	}

	lower := strings.ToLower(query)
	byViews := func(v []libraryVideo) {
		sort.SliceStable(v, func(i, j int) bool { return v[i].ViewCount > v[j].ViewCount })
	}

	var intro string
	switch {
	case strings.Contains(lower, "popular"), strings.Contains(lower, "most viewed"), strings.Contains(lower, "top"):
		byViews(videos)
		intro = "Here are the most popular videos by view count:"
	case strings.Contains(lower, "latest"), strings.Contains(lower, "newest"), strings.Contains(lower, "recent"):
		sort.SliceStable(videos, func(i, j int) bool { return videos[i].PublishDate > videos[j].PublishDate })
		intro = "Here are the latest videos:"
	case strings.Contains(lower, "featured"):
		var featured []libraryVideo
		for _, v := range videos {
			if v.Featured {
				featured = append(featured, v)
			}
		}
		if len(featured) > 0 {
			videos = featured
		}
		intro = "Here are the featured videos:"
	default:
		var featured, rest []libraryVideo
		for _, v := range videos {
			if v.Featured {
				featured = append(featured, v)
			} else {
				rest = append(rest, v)
			}
		}
		byViews(rest)
		videos = append(featured, rest...)
		intro = "Here's what's available in the video library:"
	}

	var b strings.Builder
	b.WriteString(intro + "\n\n")
	for i, v := range videos {
		if i == 10 {
			break
		}
		fmt.Fprintf(&b, "**%s** (%s)\n", v.CatalogEntry.Title, durationText(v.ListedVideo))
		if v.Description != "" {
			fmt.Fprintf(&b, "  %s\n", v.Description)
		}
		var meta []string
		if v.ViewCount > 0 {
			meta = append(meta, groupThousands(v.ViewCount)+" views")
		}
		if v.PublishDate != "" {
			meta = append(meta, v.PublishDate)
		}
		if len(meta) > 0 {
			fmt.Fprintf(&b, "  📊 %s\n", strings.Join(meta, " | "))
		}
		if len(v.Topics) > 0 {
			topics := v.Topics
			if len(topics) > 4 {
				topics = topics[:4]
			}
			fmt.Fprintf(&b, "  🏷️ Topics: %s\n", strings.Join(topics, ", "))
		}
		b.WriteString("\n")
	}
	b.WriteString("Ask me about any of these topics to search the transcripts for specific insights!")

	top := videos[0]
	return Response{
		Content: b.String(),
		Success: true,
		VideoInfo: &VideoEmbed{
			VideoID:   top.VideoID,
			Title:     top.CatalogEntry.Title,
			Timestamp: "0:00",
			URL:       models.WatchURL(top.VideoID),
		},
		Examples: []string{
			"@jess AI bubble analysis",
			"@jess ASEAN governance insights",
			"@jess China innovation",
			"@jess most popular videos",
		},
	}
}

func (r *Relay) search(ctx context.Context, query string) Response {
	found, err := r.backend.Search(ctx, query, r.cfg.Search.MaxResults)
	if err != nil {
		r.logger.Error("video search failed", "query", query, "error", err)
		return Response{
			Content: fmt.Sprintf("I encountered an error searching the video library: %v", err),
			Success: false,
		}
	}

	segments := make([]Segment, 0, len(found))
	for _, s := range found {
		if s.Relevance < r.cfg.Search.MinRelevance {
			continue
		}
		if entry, ok := r.cfg.Catalog[s.VideoID]; ok && entry.Title != "" {
			if s.Title == "" || strings.HasPrefix(s.Title, "Video ") {
				s.Title = entry.Title
			}
		}
		segments = append(segments, s)
	}

	if len(segments) == 0 {
		return Response{
			Content:  noResultsMessage(query),
			Success:  true,
			Examples: exampleQueries(),
		}
	}

	answer, err := r.backend.Synthesize(ctx, query, segments)
	if err != nil {
		r.logger.Warn("synthesis failed, returning raw segments", "error", err)
		answer = r.formatSegments(segments)
	}

	top := segments[0]
	return Response{
		Content: answer,
		Success: true,
		VideoInfo: &VideoEmbed{
			VideoID:   top.VideoID,
			StartTime: int(top.StartTime),
			Title:     top.Title,
			Timestamp: top.Timestamp,
			URL:       top.URL,
		},
	}
}

// formatSegments lists the top segments as plain markdown, honoring the
// response timestamp and URL settings.
func (r *Relay) formatSegments(segments []Segment) string {
	opts := r.cfg.Response
	var b strings.Builder
	fmt.Fprintf(&b, "Found %d relevant segment(s):\n\n", len(segments))
	for i, s := range segments {
		if i == 5 {
			break
		}
		fmt.Fprintf(&b, "**%s**", s.Title)
		if opts.IncludeTimestamps {
			fmt.Fprintf(&b, " at %s", s.Timestamp)
		}
		fmt.Fprintf(&b, "\n%s\n", s.Text)
		if opts.IncludeURLs {
			fmt.Fprintf(&b, "[Watch here](%s)\n", s.URL)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func noResultsMessage(query string) string {
	return fmt.Sprintf("I searched the video library but couldn't find specific content about '%s'. "+
		"The available videos cover AI markets, ASEAN governance, and China's R&D surge. "+
		"Would you like me to search for related topics?", query)
}

func exampleQueries() []string {
	return []string{
		"@jess What did Andy say about AI?",
		"@jess ASEAN market outlook",
		"@jess China R&D and innovation",
		"@jess list videos",
	}
}

func durationText(v ListedVideo) string {
	if v.DurationFormatted != "" {
		return v.DurationFormatted
	}
	secs := int(v.Duration)
	return fmt.Sprintf("%dm %ds", secs/60, secs%60)
}

func groupThousands(n int64) string {
	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}
