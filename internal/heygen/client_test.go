package heygen

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jess/internal/models"
)

type staticKeys string

func (k staticKeys) Get(context.Context, string, string) string { return string(k) }

func newTestClient(t *testing.T, key string, handler http.HandlerFunc) (*Client, *int32) {
	t.Helper()
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	c := NewClient(slog.New(slog.NewTextHandler(io.Discard, nil)), staticKeys(key), Options{
		BaseURL:   srv.URL,
		Requester: "jess",
	})
	c.now = func() time.Time { return time.Date(2024, 6, 1, 9, 30, 0, 0, time.UTC) }
	return c, &calls
}

func TestSubmitSuccess(t *testing.T) {
	c, _ := newTestClient(t, "secret", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v2/video_translate", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "https://www.youtube.com/watch?v=abc123", body["video_url"])
		assert.Equal(t, "Spanish", body["output_language"])

		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"data":{"video_translate_id":"job_1"}}`))
	})

	job, err := c.Submit(context.Background(), "https://www.youtube.com/watch?v=abc123", "Spanish")
	require.NoError(t, err)
	assert.Equal(t, models.LanguageJob{
		JobID:       "job_1",
		Status:      models.StatusProcessing,
		SubmittedAt: "2024-06-01T09:30:00Z",
	}, job)
}

func TestSubmitWithoutKeyMakesNoCall(t *testing.T) {
	c, calls := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {})

	_, err := c.Submit(context.Background(), "u", "Spanish")
	require.Error(t, err)
	assert.Equal(t, KindKeyUnavailable, KindOf(err))
	assert.Equal(t, "HEYGEN_API_KEY not available", err.Error())
	assert.Zero(t, atomic.LoadInt32(calls))
}

func TestSubmitUnsupportedLanguage(t *testing.T) {
	c, calls := newTestClient(t, "secret", func(w http.ResponseWriter, r *http.Request) {})

	_, err := c.Submit(context.Background(), "u", "Klingon")
	assert.True(t, errors.Is(err, ErrUnsupportedLanguage))
	assert.Zero(t, atomic.LoadInt32(calls))
}

func TestSubmitRejectedTruncatesBody(t *testing.T) {
	long := strings.Repeat("x", 500)
	c, _ := newTestClient(t, "secret", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(long))
	})

	_, err := c.Submit(context.Background(), "u", "French")
	var perr *Error
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, KindUpstreamRejected, perr.Kind)
	assert.Equal(t, http.StatusUnauthorized, perr.StatusCode)
	assert.Len(t, perr.Message, 200)
	assert.True(t, strings.HasPrefix(err.Error(), "API error 401: xxx"))
}

func TestSubmitMissingJobID(t *testing.T) {
	c, _ := newTestClient(t, "secret", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{}}`))
	})

	_, err := c.Submit(context.Background(), "u", "French")
	assert.Equal(t, KindUpstreamRejected, KindOf(err))
}

func TestSubmitTransportFailure(t *testing.T) {
	c, _ := newTestClient(t, "secret", func(w http.ResponseWriter, r *http.Request) {})
	c.baseURL = "http://127.0.0.1:1"

	_, err := c.Submit(context.Background(), "u", "French")
	assert.Equal(t, KindTransport, KindOf(err))
	assert.NotEmpty(t, err.Error())
}

func TestStatusOutcomes(t *testing.T) {
	tests := []struct {
		name string
		body string
		want StatusResult
	}{
		{"running", `{"data":{"status":"running"}}`, StatusResult{Status: models.StatusProcessing}},
		{"pending", `{"data":{"status":"pending"}}`, StatusResult{Status: models.StatusProcessing}},
		{"completed", `{"data":{"status":"completed","url":"https://x/y"}}`, StatusResult{Status: models.StatusCompleted, OutputURL: "https://x/y"}},
		{"success alias", `{"data":{"status":"success","url":"https://x/z"}}`, StatusResult{Status: models.StatusCompleted, OutputURL: "https://x/z"}},
		{"completed without url", `{"data":{"status":"completed"}}`, StatusResult{Status: models.StatusProcessing}},
		{"failed with message", `{"data":{"status":"failed","message":"no speech"}}`, StatusResult{Status: models.StatusFailed, Error: "no speech"}},
		{"failed default message", `{"data":{"status":"failed"}}`, StatusResult{Status: models.StatusFailed, Error: "Unknown error"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, "secret", func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v2/video_translate/job_1", r.URL.Path)
				_, _ = w.Write([]byte(tt.body))
			})
			got, err := c.Status(context.Background(), "job_1")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatusFailureCarriesKind(t *testing.T) {
	r := StatusResult{Status: models.StatusFailed, Error: "no speech"}
	assert.Equal(t, KindJobFailed, KindOf(r.Failure()))
	assert.NoError(t, StatusResult{Status: models.StatusCompleted}.Failure())
}

func TestStatusErrors(t *testing.T) {
	c, calls := newTestClient(t, "", func(w http.ResponseWriter, r *http.Request) {})
	_, err := c.Status(context.Background(), "job_1")
	assert.Equal(t, KindKeyUnavailable, KindOf(err))
	assert.Zero(t, atomic.LoadInt32(calls))

	c, _ = newTestClient(t, "secret", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	_, err = c.Status(context.Background(), "job_1")
	assert.Equal(t, KindUpstreamRejected, KindOf(err))
	assert.Equal(t, "API error 500", err.Error())
}
