package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"jess/internal/agent"
	"jess/internal/config"
)

type stubBackend struct{ queries []string }

func (s *stubBackend) Search(_ context.Context, q string, _ int) ([]agent.Segment, error) {
	s.queries = append(s.queries, q)
	return nil, nil
}

func (s *stubBackend) Synthesize(context.Context, string, []agent.Segment) (string, error) {
	return "", nil
}

func (s *stubBackend) ListVideos(context.Context) ([]agent.ListedVideo, error) {
	return nil, nil
}

func TestRunInteractive(t *testing.T) {
	backend := &stubBackend{}
	relay := agent.NewRelay(slog.New(slog.NewTextHandler(io.Discard, nil)), backend, config.DefaultAgentConfig())

	var out bytes.Buffer
	runInteractive(context.Background(), relay, strings.NewReader("\n?\nbond yields\nquit\nnever read\n"), &out)

	text := out.String()
	assert.Contains(t, text, "🎬 Jess - Video Intelligence Agent")
	assert.Contains(t, text, "No videos are currently available in the library.")
	assert.Contains(t, text, "couldn't find specific content about 'bond yields'")
	assert.Contains(t, text, "Try asking:")
	assert.True(t, strings.HasSuffix(text, "Goodbye!\n"))
	assert.Equal(t, []string{"bond yields"}, backend.queries)
}

func TestPrintResponse(t *testing.T) {
	var out bytes.Buffer
	printResponse(&out, agent.Response{Content: "boom", Success: false})
	assert.Equal(t, "Error: boom\n", out.String())

	out.Reset()
	printResponse(&out, agent.Response{
		Content:   "answer",
		Success:   true,
		VideoInfo: &agent.VideoEmbed{Title: "T", Timestamp: "2:34", URL: "u"},
		Examples:  []string{"a", "b", "c", "d"},
	})
	assert.Contains(t, out.String(), "Watch now: T")
	assert.Contains(t, out.String(), "  c\n")
	assert.NotContains(t, out.String(), "  d\n")
}
