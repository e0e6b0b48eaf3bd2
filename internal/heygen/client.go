package heygen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"jess/internal/models"
)

const (
	defaultTimeout  = 30 * time.Second
	bodySnippetSize = 200
	defaultFailure  = "Unknown error"
)

// KeyProvider resolves the API key at call time.
type KeyProvider interface {
	Get(ctx context.Context, name, requester string) string
}

// Options configures a Client.
type Options struct {
	BaseURL   string
	KeyName   string
	Requester string
	Timeout   time.Duration
}

// Client submits video translation jobs and polls their status.
type Client struct {
	logger  *slog.Logger
	keys    KeyProvider
	http    *http.Client
	baseURL string
	keyName string
	reqBy   string
	now     func() time.Time
}

func NewClient(logger *slog.Logger, keys KeyProvider, opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.KeyName == "" {
		opts.KeyName = "HEYGEN_API_KEY"
	}
	return &Client{
		logger:  logger,
		keys:    keys,
		http:    &http.Client{Timeout: opts.Timeout},
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		keyName: opts.KeyName,
		reqBy:   opts.Requester,
		now:     time.Now,
	}
}

// StatusResult is the provider's view of a job.
type StatusResult struct {
	Status    models.JobStatus
	OutputURL string
	Error     string
}

// Failure returns the provider-reported job failure, or nil when the job did not fail.
func (r StatusResult) Failure() error {
	if r.Status != models.StatusFailed {
		return nil
	}
	return &Error{Kind: KindJobFailed, Message: r.Error}
}

// Submit starts a translation of videoURL into language. The returned job is
// processing; storing it is up to the caller.
func (c *Client) Submit(ctx context.Context, videoURL, language string) (models.LanguageJob, error) {
	if !models.IsSupportedLanguage(language) {
		return models.LanguageJob{}, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, language)
	}

	key, err := c.apiKey(ctx)
	if err != nil {
		return models.LanguageJob{}, err
	}

	payload, err := json.Marshal(map[string]string{
		"video_url":       videoURL,
		"output_language": language,
	})
	if err != nil {
		return models.LanguageJob{}, fmt.Errorf("encode submit payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v2/video_translate", bytes.NewReader(payload))
	if err != nil {
		return models.LanguageJob{}, fmt.Errorf("build submit request: %w", err)
	}
	req.Header.Set("X-Api-Key", key)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return models.LanguageJob{}, &Error{Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return models.LanguageJob{}, &Error{Kind: KindTransport, Err: err}
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return models.LanguageJob{}, &Error{
			Kind:       KindUpstreamRejected,
			StatusCode: resp.StatusCode,
			Message:    truncate(string(body), bodySnippetSize),
		}
	}

	var parsed struct {
		Data struct {
			VideoTranslateID string `json:"video_translate_id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil || parsed.Data.VideoTranslateID == "" {
		return models.LanguageJob{}, &Error{
			Kind:       KindUpstreamRejected,
			StatusCode: resp.StatusCode,
			Message:    "response missing video_translate_id",
		}
	}

	c.logger.Info("translation submitted", "job_id", parsed.Data.VideoTranslateID, "language", language)
	return models.LanguageJob{
		JobID:       parsed.Data.VideoTranslateID,
		Status:      models.StatusProcessing,
		SubmittedAt: c.now().Format(time.RFC3339),
	}, nil
}

// Status fetches the provider's current state for jobID. A returned error
// means the state is unknown, not that the job failed.
func (c *Client) Status(ctx context.Context, jobID string) (StatusResult, error) {
	key, err := c.apiKey(ctx)
	if err != nil {
		return StatusResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v2/video_translate/"+url.PathEscape(jobID), nil)
	if err != nil {
		return StatusResult{}, fmt.Errorf("build status request: %w", err)
	}
	req.Header.Set("X-Api-Key", key)

	resp, err := c.http.Do(req)
	if err != nil {
		return StatusResult{}, &Error{Kind: KindTransport, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return StatusResult{}, &Error{Kind: KindUpstreamRejected, StatusCode: resp.StatusCode}
	}

	var parsed struct {
		Data struct {
			Status  string `json:"status"`
			URL     string `json:"url"`
			Message string `json:"message"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return StatusResult{}, &Error{Kind: KindTransport, Err: fmt.Errorf("decode status response: %w", err)}
	}

	switch strings.ToLower(parsed.Data.Status) {
	case "completed", "success":
		if parsed.Data.URL == "" {
			c.logger.Warn("job reported completed without output url", "job_id", jobID)
			return StatusResult{Status: models.StatusProcessing}, nil
		}
		return StatusResult{Status: models.StatusCompleted, OutputURL: parsed.Data.URL}, nil
	case "failed":
		msg := parsed.Data.Message
		if msg == "" {
			msg = defaultFailure
		}
		return StatusResult{Status: models.StatusFailed, Error: msg}, nil
	default:
		return StatusResult{Status: models.StatusProcessing}, nil
	}
}

func (c *Client) apiKey(ctx context.Context) (string, error) {
	key := c.keys.Get(ctx, c.keyName, c.reqBy)
	if key == "" {
		return "", &Error{Kind: KindKeyUnavailable, Message: c.keyName + " not available"}
	}
	return key, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
