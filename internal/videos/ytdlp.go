package videos

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"jess/internal/models"
)

const ytdlpTimeout = 60 * time.Second

// YtDlpSource lists a channel's uploads by running yt-dlp.
type YtDlpSource struct {
	logger     *slog.Logger
	bin        string
	maxResults int
}

func NewYtDlpSource(logger *slog.Logger, maxResults int) *YtDlpSource {
	return &YtDlpSource{logger: logger, bin: "yt-dlp", maxResults: maxResults}
}

func (s *YtDlpSource) Fetch(ctx context.Context, channelURL string) ([]models.VideoRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, ytdlpTimeout)
	defer cancel()

	args := []string{
		"--flat-playlist",
		"--dump-json",
		strings.TrimRight(channelURL, "/") + "/videos",
		"--playlist-end", strconv.Itoa(s.maxResults),
	}
	cmd := exec.CommandContext(ctx, s.bin, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		if msg := lastLine(stderr.String()); msg != "" {
			return nil, fmt.Errorf("yt-dlp failed: %s", msg)
		}
		return nil, fmt.Errorf("yt-dlp failed: %w", err)
	}
	return parseDumpJSON(s.logger, out), nil
}

// ytdlpEntry is the subset of a --dump-json line we use.
type ytdlpEntry struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	UploadDate  string   `json:"upload_date"`
	Duration    *float64 `json:"duration"`
	ViewCount   *int64   `json:"view_count"`
}

func parseDumpJSON(logger *slog.Logger, out []byte) []models.VideoRecord {
	var videos []models.VideoRecord
	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var e ytdlpEntry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			logger.Debug("skipping unparsable yt-dlp line", "error", err)
			continue
		}
		v := models.VideoRecord{
			VideoID:     e.ID,
			Title:       e.Title,
			Description: e.Description,
			PublishedAt: e.UploadDate,
		}
		if v.Title == "" {
			v.Title = "Untitled"
		}
		if e.Duration != nil {
			v.Duration = *e.Duration
		}
		if e.ViewCount != nil {
			v.ViewCount = *e.ViewCount
		}
		videos = append(videos, v)
	}
	return videos
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
