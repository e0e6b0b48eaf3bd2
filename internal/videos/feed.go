package videos

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/mmcdole/gofeed"
	ext "github.com/mmcdole/gofeed/extensions"

	"jess/internal/models"
)

const youtubeFeedURL = "https://www.youtube.com/feeds/videos.xml"

// FeedSource reads a channel's public Atom feed. The feed carries only the
// latest uploads and no durations.
type FeedSource struct {
	logger  *slog.Logger
	parser  *gofeed.Parser
	feedURL string
}

func NewFeedSource(logger *slog.Logger) *FeedSource {
	return &FeedSource{logger: logger, parser: gofeed.NewParser(), feedURL: youtubeFeedURL}
}

func (f *FeedSource) Fetch(ctx context.Context, channelID string) ([]models.VideoRecord, error) {
	if channelID == "" {
		return nil, errors.New("feed source needs a channel id")
	}
	feedURL := f.feedURL + "?" + url.Values{"channel_id": {channelID}}.Encode()

	feed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse channel feed: %w", err)
	}

	videos := make([]models.VideoRecord, 0, len(feed.Items))
	for _, item := range feed.Items {
		id := extValue(item.Extensions, "yt", "videoId")
		if id == "" {
			id = strings.TrimPrefix(item.GUID, "yt:video:")
		}
		if id == "" {
			continue
		}
		v := models.VideoRecord{
			VideoID:     id,
			Title:       item.Title,
			Description: item.Description,
		}
		if item.PublishedParsed != nil {
			v.PublishedAt = item.PublishedParsed.UTC().Format("20060102")
		}
		if group := extFirst(item.Extensions, "media", "group"); group != nil {
			if v.Description == "" {
				v.Description = childValue(group, "description")
			}
			if community := childFirst(group, "community"); community != nil {
				if stats := childFirst(community, "statistics"); stats != nil {
					if n, err := strconv.ParseInt(stats.Attrs["views"], 10, 64); err == nil {
						v.ViewCount = n
					}
				}
			}
		}
		videos = append(videos, v)
	}
	return videos, nil
}

func extFirst(e ext.Extensions, ns, name string) *ext.Extension {
	if e == nil {
		return nil
	}
	list := e[ns][name]
	if len(list) == 0 {
		return nil
	}
	return &list[0]
}

func extValue(e ext.Extensions, ns, name string) string {
	if x := extFirst(e, ns, name); x != nil {
		return strings.TrimSpace(x.Value)
	}
	return ""
}

func childFirst(x *ext.Extension, name string) *ext.Extension {
	list := x.Children[name]
	if len(list) == 0 {
		return nil
	}
	return &list[0]
}

func childValue(x *ext.Extension, name string) string {
	if c := childFirst(x, name); c != nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}
