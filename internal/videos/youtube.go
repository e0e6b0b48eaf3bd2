package videos

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"time"

	"google.golang.org/api/youtube/v3"

	"jess/internal/models"
)

// YouTubeSource lists a channel's uploads through the YouTube Data API.
// The channel argument of Fetch is a channel id (UC...).
type YouTubeSource struct {
	logger     *slog.Logger
	client     *youtube.Service
	maxResults int
}

func NewYouTubeSource(logger *slog.Logger, client *youtube.Service, maxResults int) *YouTubeSource {
	return &YouTubeSource{logger: logger, client: client, maxResults: maxResults}
}

func (y *YouTubeSource) Fetch(ctx context.Context, channelID string) ([]models.VideoRecord, error) {
	if channelID == "" {
		return nil, errors.New("youtube source needs a channel id")
	}

	chResp, err := y.client.Channels.List([]string{"contentDetails"}).Id(channelID).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("list channel: %w", err)
	}
	if len(chResp.Items) == 0 || chResp.Items[0].ContentDetails == nil || chResp.Items[0].ContentDetails.RelatedPlaylists == nil {
		return nil, fmt.Errorf("channel %s not found", channelID)
	}
	uploads := chResp.Items[0].ContentDetails.RelatedPlaylists.Uploads

	var ids []string
	pageToken := ""
	for len(ids) < y.maxResults {
		call := y.client.PlaylistItems.List([]string{"contentDetails"}).
			PlaylistId(uploads).
			MaxResults(int64(min(50, y.maxResults-len(ids)))).
			Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("list uploads: %w", err)
		}
		for _, item := range resp.Items {
			if item.ContentDetails != nil && item.ContentDetails.VideoId != "" {
				ids = append(ids, item.ContentDetails.VideoId)
			}
		}
		if resp.NextPageToken == "" || len(resp.Items) == 0 {
			break
		}
		pageToken = resp.NextPageToken
	}

	videos := make([]models.VideoRecord, 0, len(ids))
	for start := 0; start < len(ids); start += 50 {
		end := min(start+50, len(ids))
		resp, err := y.client.Videos.
			List([]string{"snippet", "contentDetails", "statistics"}).
			Id(strings.Join(ids[start:end], ",")).
			Context(ctx).
			Do()
		if err != nil {
			return nil, fmt.Errorf("list videos: %w", err)
		}
		for _, item := range resp.Items {
			v := models.VideoRecord{VideoID: item.Id}
			if item.Snippet != nil {
				v.Title = item.Snippet.Title
				v.Description = item.Snippet.Description
				v.PublishedAt = compactDate(item.Snippet.PublishedAt)
			}
			if item.ContentDetails != nil {
				secs, err := parseISODuration(item.ContentDetails.Duration)
				if err != nil {
					y.logger.Debug("unparsable duration", "video_id", item.Id, "error", err)
				}
				v.Duration = secs
			}
			if item.Statistics != nil {
				v.ViewCount = int64(item.Statistics.ViewCount)
			}
			videos = append(videos, v)
		}
	}
	return videos, nil
}

// compactDate turns an RFC 3339 timestamp into YYYYMMDD so it sorts with yt-dlp dates.
func compactDate(ts string) string {
	t, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		return ts
	}
	return t.UTC().Format("20060102")
}

var isoDurationRE = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+(?:\.\d+)?)S)?)?$`)

// parseISODuration converts an ISO 8601 duration such as PT1H2M3S to seconds.
func parseISODuration(s string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	m := isoDurationRE.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("invalid duration %q", s)
	}
	var total float64
	for i, mult := range []float64{86400, 3600, 60, 1} {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.ParseFloat(m[i+1], 64)
		if err != nil {
			return 0, err
		}
		total += n * mult
	}
	return total, nil
}
