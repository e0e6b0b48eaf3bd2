package agent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"jess/internal/models"
)

// Segment is one transcript excerpt returned by a search.
type Segment struct {
	VideoID   string  `json:"video_id"`
	Title     string  `json:"title"`
	Text      string  `json:"text"`
	FullText  string  `json:"-"`
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"-"`
	Timestamp string  `json:"timestamp"`
	URL       string  `json:"url"`
	Relevance float64 `json:"-"`
}

// ListedVideo is a library entry as reported by the gateway.
type ListedVideo struct {
	VideoID           string  `json:"video_id"`
	Title             string  `json:"title"`
	Duration          float64 `json:"duration"`
	DurationFormatted string  `json:"duration_formatted"`
	URL               string  `json:"url"`
}

// Gateway talks to the search and synthesis service.
type Gateway struct {
	logger  *slog.Logger
	http    *http.Client
	baseURL string
	token   string
	// language is the answer language sent with synthesis requests.
	language string
}

func NewGateway(logger *slog.Logger, baseURL, token string, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Gateway{
		logger:  logger,
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
	}
}

// WithLanguage sets the answer language requested from synthesis.
func (g *Gateway) WithLanguage(lang string) *Gateway {
	g.language = lang
	return g
}

type searchHit struct {
	VideoID   string   `json:"video_id"`
	Title     string   `json:"title"`
	Text      string   `json:"text"`
	FullText  string   `json:"full_text"`
	StartTime *float64 `json:"start_time"`
	Start     *float64 `json:"start"`
	EndTime   *float64 `json:"end_time"`
	End       *float64 `json:"end"`
	Score     *float64 `json:"score"`
	Relevance *float64 `json:"relevance"`
}

func firstOf(vals ...*float64) (float64, bool) {
	for _, v := range vals {
		if v != nil {
			return *v, true
		}
	}
	return 0, false
}

func (h searchHit) segment() Segment {
	start, _ := firstOf(h.StartTime, h.Start)
	end, ok := firstOf(h.EndTime, h.End)
	if !ok {
		end = start
	}
	score, _ := firstOf(h.Score, h.Relevance)

	title := h.Title
	if title == "" {
		title = "Video " + h.VideoID
	}
	full := h.Text
	if full == "" {
		full = h.FullText
	}
	snippet := []rune(h.Text)
	if len(snippet) > 300 {
		snippet = snippet[:300]
	}

	return Segment{
		VideoID:   h.VideoID,
		Title:     title,
		Text:      string(snippet),
		FullText:  full,
		StartTime: start,
		EndTime:   end,
		Timestamp: models.FormatClock(start),
		URL:       fmt.Sprintf("%s&t=%ds", models.WatchURL(h.VideoID), int(start)),
		Relevance: score,
	}
}

// Search returns transcript segments matching query, most relevant first.
func (g *Gateway) Search(ctx context.Context, query string, maxResults int) ([]Segment, error) {
	var resp struct {
		Results []searchHit `json:"results"`
	}
	body := map[string]any{"query": query, "max_results": maxResults}
	if err := g.do(ctx, http.MethodPost, "/video/search", body, &resp); err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	segments := make([]Segment, 0, len(resp.Results))
	for _, hit := range resp.Results {
		segments = append(segments, hit.segment())
	}
	g.logger.Info("search finished", "query", query, "segments", len(segments))
	return segments, nil
}

// Synthesize asks the gateway for a prose answer built from the top segments.
func (g *Gateway) Synthesize(ctx context.Context, query string, segments []Segment) (string, error) {
	type videoResult struct {
		VideoID   string  `json:"video_id"`
		Title     string  `json:"title"`
		Text      string  `json:"text"`
		Timestamp string  `json:"timestamp"`
		URL       string  `json:"url"`
		StartTime float64 `json:"start_time"`
	}
	if len(segments) > 5 {
		segments = segments[:5]
	}
	results := make([]videoResult, len(segments))
	for i, s := range segments {
		text := s.FullText
		if text == "" {
			text = s.Text
		}
		results[i] = videoResult{s.VideoID, s.Title, text, s.Timestamp, s.URL, s.StartTime}
	}

	var resp struct {
		Answer *string `json:"answer"`
		Error  any     `json:"error"`
	}
	body := map[string]any{"query": query, "video_results": results, "tone": "professional"}
	if g.language != "" {
		body["language"] = g.language
	}
	if err := g.do(ctx, http.MethodPost, "/video/synthesize", body, &resp); err != nil {
		return "", fmt.Errorf("synthesis failed: %w", err)
	}
	if resp.Error != nil {
		return "", fmt.Errorf("synthesis failed: %v", resp.Error)
	}
	if resp.Answer == nil {
		return "Unable to synthesize answer.", nil
	}
	return *resp.Answer, nil
}

// ListVideos returns the gateway's video library.
func (g *Gateway) ListVideos(ctx context.Context) ([]ListedVideo, error) {
	var resp struct {
		Videos []ListedVideo `json:"videos"`
	}
	if err := g.do(ctx, http.MethodGet, "/video/list", nil, &resp); err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	return resp.Videos, nil
}

func (g *Gateway) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if g.token != "" {
		req.Header.Set("Authorization", "Bearer "+g.token)
	}

	resp, err := g.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s returned %d", method, path, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
