package keys

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

const remoteTimeout = 5 * time.Second

// Provider resolves secrets from the auth service, falling back to the environment.
type Provider struct {
	logger  *slog.Logger
	baseURL string
	token   string
	client  *http.Client
	lookup  func(string) string
}

func NewProvider(logger *slog.Logger, baseURL, token string) *Provider {
	return &Provider{
		logger:  logger,
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: remoteTimeout},
		lookup:  os.Getenv,
	}
}

// Get returns the named secret or "" when neither source has it.
func (p *Provider) Get(ctx context.Context, name, requester string) string {
	if p.token != "" {
		key, err := p.fetch(ctx, name, requester)
		if err != nil {
			p.logger.Warn("auth service lookup failed, using environment", "key", name, "error", err)
		} else if key != "" {
			return key
		}
	}
	return p.lookup(name)
}

func (p *Provider) fetch(ctx context.Context, name, requester string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, remoteTimeout)
	defer cancel()

	endpoint := p.baseURL + "/key/" + url.PathEscape(name)
	if requester != "" {
		endpoint += "?" + url.Values{"requester": {requester}}.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("auth service returned %d", resp.StatusCode)
	}

	var body struct {
		Key   string `json:"key"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode auth response: %w", err)
	}
	if body.Key != "" {
		return body.Key, nil
	}
	return body.Value, nil
}
