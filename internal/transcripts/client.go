package transcripts

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"
)

var (
	ErrNotFound = errors.New("transcript not available")
	ErrEmpty    = errors.New("no transcript content in response")
)

// UpstreamError is an error message returned inside a successful response.
type UpstreamError struct {
	Message string
}

func (e *UpstreamError) Error() string { return e.Message }

// Client fetches transcripts from the video tool endpoint.
type Client struct {
	logger  *slog.Logger
	http    *http.Client
	baseURL string
}

func NewClient(logger *slog.Logger, baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		logger:  logger,
		http:    &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type toolCall struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

type toolResponse struct {
	Error    *string `json:"error"`
	Segments []struct {
		Text string `json:"text"`
	} `json:"segments"`
	Transcript string `json:"transcript"`
	Text       string `json:"text"`
}

// Fetch returns the transcript text of videoID.
func (c *Client) Fetch(ctx context.Context, videoID string) (string, error) {
	payload, err := json.Marshal(toolCall{
		Name:      "video_get_transcript",
		Arguments: map[string]any{"video_id": videoID},
	})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/mcp/tools/call", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("transcript service returned %d", resp.StatusCode)
	}

	var body toolResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode transcript response: %w", err)
	}
	if body.Error != nil {
		msg := *body.Error
		if msg == "" {
			msg = "Unknown error"
		}
		return "", &UpstreamError{Message: msg}
	}

	var text string
	if len(body.Segments) > 0 {
		parts := make([]string, len(body.Segments))
		for i, seg := range body.Segments {
			parts[i] = seg.Text
		}
		text = strings.Join(parts, " ")
	} else if body.Transcript != "" {
		text = body.Transcript
	} else {
		text = body.Text
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmpty
	}
	return text, nil
}

// IsTimeout reports whether err is a request timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// IsConnection reports whether err means the service could not be reached.
func IsConnection(err error) bool {
	if IsTimeout(err) {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}
