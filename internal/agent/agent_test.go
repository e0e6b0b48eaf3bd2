package agent

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jess/internal/config"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCleanQuery(t *testing.T) {
	assert.Equal(t, "AI bubble", cleanQuery("@jess AI bubble"))
	assert.Equal(t, "AI bubble", cleanQuery("  @JESS   AI bubble "))
	assert.Equal(t, "plain", cleanQuery("plain"))
}

func TestIsHelpQuery(t *testing.T) {
	for _, q := range []string{"help", "What should I watch?", "show me the LATEST", "list videos"} {
		assert.True(t, isHelpQuery(q), q)
	}
	for _, q := range []string{"AI bubble risks", "ASEAN governance"} {
		assert.False(t, isHelpQuery(q), q)
	}
}

func TestGroupThousands(t *testing.T) {
	assert.Equal(t, "999", groupThousands(999))
	assert.Equal(t, "1,000", groupThousands(1000))
	assert.Equal(t, "15,420", groupThousands(15420))
	assert.Equal(t, "1,234,567", groupThousands(1234567))
}

type fakeBackend struct {
	segments  []Segment
	searchErr error
	answer    string
	synthErr  error
	videos    []ListedVideo
	synthCall []Segment
}

func (f *fakeBackend) Search(context.Context, string, int) ([]Segment, error) {
	return f.segments, f.searchErr
}

func (f *fakeBackend) Synthesize(_ context.Context, _ string, s []Segment) (string, error) {
	f.synthCall = s
	return f.answer, f.synthErr
}

func (f *fakeBackend) ListVideos(context.Context) ([]ListedVideo, error) {
	return f.videos, nil
}

func testConfig() config.AgentConfig {
	cfg := config.DefaultAgentConfig()
	cfg.Catalog = map[string]config.CatalogEntry{
		"a": {Title: "Alpha", ViewCount: 100, PublishDate: "2024-01-01"},
		"b": {Title: "Beta", ViewCount: 5000, PublishDate: "2024-06-01", Featured: true, Topics: []string{"t1", "t2", "t3", "t4", "t5"}},
		"c": {Title: "Gamma", ViewCount: 900, PublishDate: "2024-03-01"},
	}
	return cfg
}

func TestRecommendOrdering(t *testing.T) {
	backend := &fakeBackend{videos: []ListedVideo{{VideoID: "a"}, {VideoID: "b"}, {VideoID: "c"}}}
	relay := NewRelay(testLogger(), backend, testConfig())

	tests := []struct {
		query string
		intro string
		order []string
	}{
		{"most popular videos", "most popular", []string{"Beta", "Gamma", "Alpha"}},
		{"latest", "latest videos", []string{"Beta", "Gamma", "Alpha"}},
		{"what should i watch", "available in the video library", []string{"Beta", "Gamma", "Alpha"}},
		{"featured", "featured videos", []string{"Beta"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			res := relay.Query(context.Background(), "@jess "+tt.query)
			require.True(t, res.Success)
			assert.Contains(t, res.Content, tt.intro)
			last := -1
			for _, title := range tt.order {
				idx := strings.Index(res.Content, "**"+title+"**")
				require.GreaterOrEqual(t, idx, 0, title)
				assert.Greater(t, idx, last, title)
				last = idx
			}
			require.NotNil(t, res.VideoInfo)
			assert.Equal(t, "b", res.VideoInfo.VideoID)
			assert.Equal(t, "0:00", res.VideoInfo.Timestamp)
		})
	}

	res := relay.Query(context.Background(), "popular")
	assert.Contains(t, res.Content, "5,000 views | 2024-06-01")
	assert.Contains(t, res.Content, "Topics: t1, t2, t3, t4\n")
	assert.Contains(t, res.Content, "(0m 0s)")
}

func TestRecommendEmptyLibrary(t *testing.T) {
	relay := NewRelay(testLogger(), &fakeBackend{}, testConfig())
	res := relay.Recommend(context.Background(), "")
	assert.True(t, res.Success)
	assert.Equal(t, "No videos are currently available in the library.", res.Content)
	assert.Len(t, res.Examples, 4)
	assert.Nil(t, res.VideoInfo)
}

func TestSearchSynthesizes(t *testing.T) {
	backend := &fakeBackend{
		segments: []Segment{
			{VideoID: "a", Title: "Video a", Text: "snippet", StartTime: 154, Timestamp: "2:34", URL: "https://www.youtube.com/watch?v=a&t=154s", Relevance: 0.9},
			{VideoID: "c", Title: "Gamma", Relevance: 0.1},
		},
		answer: "synthesized",
	}
	cfg := testConfig()
	cfg.Search.MinRelevance = 0.5
	relay := NewRelay(testLogger(), backend, cfg)

	res := relay.Query(context.Background(), "@jess AI bubble")
	assert.True(t, res.Success)
	assert.Equal(t, "synthesized", res.Content)
	require.Len(t, backend.synthCall, 1)
	assert.Equal(t, "Alpha", backend.synthCall[0].Title)
	assert.Equal(t, &VideoEmbed{VideoID: "a", StartTime: 154, Title: "Alpha", Timestamp: "2:34", URL: "https://www.youtube.com/watch?v=a&t=154s"}, res.VideoInfo)
}

func TestSearchFallsBackToRawSegments(t *testing.T) {
	backend := &fakeBackend{
		segments: []Segment{{VideoID: "x", Title: "X", Text: "said things", Timestamp: "1:00", URL: "u"}},
		synthErr: errors.New("down"),
	}
	res := NewRelay(testLogger(), backend, testConfig()).Query(context.Background(), "bonds")
	assert.True(t, res.Success)
	assert.True(t, strings.HasPrefix(res.Content, "Found 1 relevant segment(s):"))
	assert.Contains(t, res.Content, "**X** at 1:00\nsaid things\n[Watch here](u)")

	cfg := testConfig()
	cfg.Response.IncludeTimestamps = false
	cfg.Response.IncludeURLs = false
	res = NewRelay(testLogger(), backend, cfg).Query(context.Background(), "bonds")
	assert.Equal(t, "Found 1 relevant segment(s):\n\n**X**\nsaid things", res.Content)
}

func TestSearchNoResultsAndError(t *testing.T) {
	relay := NewRelay(testLogger(), &fakeBackend{}, testConfig())
	res := relay.Query(context.Background(), "quantum")
	assert.True(t, res.Success)
	assert.Contains(t, res.Content, "couldn't find specific content about 'quantum'")
	assert.NotEmpty(t, res.Examples)

	relay = NewRelay(testLogger(), &fakeBackend{searchErr: errors.New("boom")}, testConfig())
	res = relay.Query(context.Background(), "quantum")
	assert.False(t, res.Success)
	assert.Contains(t, res.Content, "boom")
}

func TestGateway(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/video/search":
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "AI", body["query"])
			assert.Equal(t, float64(3), body["max_results"])
			_, _ = w.Write([]byte(`{"results":[{"video_id":"v1","text":"hello","start":125.7,"relevance":0.8}]}`))
		case "/video/synthesize":
			var body struct {
				VideoResults []map[string]any `json:"video_results"`
				Tone         string           `json:"tone"`
				Language     string           `json:"language"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Len(t, body.VideoResults, 1)
			assert.Equal(t, "professional", body.Tone)
			assert.Equal(t, "en", body.Language)
			_, _ = w.Write([]byte(`{"answer":"the answer"}`))
		case "/video/list":
			_, _ = w.Write([]byte(`{"videos":[{"video_id":"v1","duration":61}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	g := NewGateway(testLogger(), srv.URL+"/", "tok", time.Second).WithLanguage("en")
	ctx := context.Background()

	segs, err := g.Search(ctx, "AI", 3)
	require.NoError(t, err)
	require.Len(t, segs, 1)
	assert.Equal(t, "Video v1", segs[0].Title)
	assert.Equal(t, "2:05", segs[0].Timestamp)
	assert.Equal(t, "https://www.youtube.com/watch?v=v1&t=125s", segs[0].URL)
	assert.Equal(t, 125.7, segs[0].EndTime)
	assert.Equal(t, 0.8, segs[0].Relevance)

	answer, err := g.Synthesize(ctx, "AI", segs)
	require.NoError(t, err)
	assert.Equal(t, "the answer", answer)

	videos, err := g.ListVideos(ctx)
	require.NoError(t, err)
	assert.Equal(t, []ListedVideo{{VideoID: "v1", Duration: 61}}, videos)
	assert.Equal(t, "1m 1s", durationText(videos[0]))
}

func TestGatewaySynthesisError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":"model unavailable"}`))
	}))
	defer srv.Close()

	_, err := NewGateway(testLogger(), srv.URL, "", time.Second).Synthesize(context.Background(), "q", []Segment{{VideoID: "v"}})
	assert.ErrorContains(t, err, "model unavailable")
}
