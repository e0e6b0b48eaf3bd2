package translation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jess/internal/heygen"
	"jess/internal/models"
)

type fakeClient struct {
	submitJob   models.LanguageJob
	submitErr   error
	submitCalls int

	statuses    map[string]heygen.StatusResult
	statusErrs  map[string]error
	statusCalls []string
	onStatus    func()
}

func (f *fakeClient) Submit(_ context.Context, _, _ string) (models.LanguageJob, error) {
	f.submitCalls++
	return f.submitJob, f.submitErr
}

func (f *fakeClient) Status(_ context.Context, jobID string) (heygen.StatusResult, error) {
	f.statusCalls = append(f.statusCalls, jobID)
	if f.onStatus != nil {
		f.onStatus()
	}
	if err := f.statusErrs[jobID]; err != nil {
		return heygen.StatusResult{}, err
	}
	if res, ok := f.statuses[jobID]; ok {
		return res, nil
	}
	return heygen.StatusResult{Status: models.StatusProcessing}, nil
}

// memStore mirrors the file store's semantics in memory and counts writes.
type memStore struct {
	data  models.Translations
	saves int
}

func newMemStore() *memStore { return &memStore{data: models.Translations{}} }

func clone(t models.Translations) models.Translations {
	out := make(models.Translations, len(t))
	for id, rec := range t {
		cp := *rec
		cp.Languages = make(map[string]models.LanguageJob, len(rec.Languages))
		for k, v := range rec.Languages {
			cp.Languages[k] = v
		}
		out[id] = &cp
	}
	return out
}

func (m *memStore) Load() models.Translations { return clone(m.data) }

func (m *memStore) Update(fn func(models.Translations) bool) error {
	cur := clone(m.data)
	if fn(cur) {
		m.data = cur
		m.saves++
	}
	return nil
}

func (m *memStore) UpsertJob(videoID, language, title, originalURL string, job models.LanguageJob) error {
	return m.Update(func(t models.Translations) bool {
		rec, ok := t[videoID]
		if !ok {
			rec = &models.TranslationRecord{Title: title, OriginalURL: originalURL, Languages: map[string]models.LanguageJob{}}
			t[videoID] = rec
		}
		rec.Languages[language] = job
		return true
	})
}

func newTestService(c *fakeClient, s *memStore) *Service {
	return NewService(slog.New(slog.NewTextHandler(io.Discard, nil)), c, s, 0)
}

func TestSubmitThenCheckCompletes(t *testing.T) {
	client := &fakeClient{
		submitJob: models.LanguageJob{JobID: "job_1", Status: models.StatusProcessing, SubmittedAt: "now"},
	}
	st := newMemStore()
	svc := newTestService(client, st)

	job, err := svc.Submit(context.Background(), Request{
		VideoID:  "abc123",
		VideoURL: "https://www.youtube.com/watch?v=abc123",
		Title:    "Title",
		Language: "Spanish",
	})
	require.NoError(t, err)
	assert.Equal(t, "job_1", job.JobID)

	rec := st.data["abc123"]
	require.NotNil(t, rec)
	assert.Equal(t, models.LanguageJob{JobID: "job_1", Status: models.StatusProcessing, SubmittedAt: "now"}, rec.Languages["Spanish"])
	st.saves = 0

	client.statuses = map[string]heygen.StatusResult{
		"job_1": {Status: models.StatusCompleted, OutputURL: "https://x/y"},
	}
	updates, err := svc.Check(context.Background())
	require.NoError(t, err)
	require.Len(t, updates, 1)
	assert.Equal(t, Update{VideoID: "abc123", Language: "Spanish", JobID: "job_1", Status: models.StatusCompleted, OutputURL: "https://x/y"}, updates[0])

	got := st.data["abc123"].Languages["Spanish"]
	assert.Equal(t, models.StatusCompleted, got.Status)
	assert.Equal(t, "https://x/y", got.OutputURL)
	assert.Equal(t, 1, st.saves)
}

func TestSubmitFailureStoresNothing(t *testing.T) {
	client := &fakeClient{submitErr: &heygen.Error{Kind: heygen.KindKeyUnavailable, Message: "HEYGEN_API_KEY not available"}}
	st := newMemStore()
	svc := newTestService(client, st)

	_, err := svc.Submit(context.Background(), Request{VideoID: "abc123", Language: "Spanish"})
	require.Error(t, err)
	assert.Equal(t, heygen.KindKeyUnavailable, heygen.KindOf(err))
	assert.Empty(t, st.data)
	assert.Zero(t, st.saves)
}

func TestSubmitRequiresVideoID(t *testing.T) {
	client := &fakeClient{}
	svc := newTestService(client, newMemStore())

	_, err := svc.Submit(context.Background(), Request{Language: "Spanish"})
	require.ErrorIs(t, err, ErrMissingVideoID)
	assert.Zero(t, client.submitCalls)
}

func TestCheckWithoutChangesDoesNotSave(t *testing.T) {
	st := newMemStore()
	st.data = models.Translations{
		"a": {Languages: map[string]models.LanguageJob{
			"Spanish": {JobID: "j1", Status: models.StatusProcessing},
			"French":  {JobID: "j2", Status: models.StatusProcessing},
		}},
	}
	client := &fakeClient{}
	svc := newTestService(client, st)

	updates, err := svc.Check(context.Background())
	require.NoError(t, err)
	assert.Empty(t, updates)
	assert.Zero(t, st.saves)
	assert.ElementsMatch(t, []string{"j1", "j2"}, client.statusCalls)
}

func TestCheckSkipsTerminalAndJoblessEntries(t *testing.T) {
	st := newMemStore()
	st.data = models.Translations{
		"a": {Languages: map[string]models.LanguageJob{
			"Spanish": {JobID: "j1", Status: models.StatusCompleted, OutputURL: "u"},
			"French":  {JobID: "j2", Status: models.StatusFailed, Error: "e"},
			"German":  {JobID: "", Status: models.StatusProcessing},
		}},
	}
	client := &fakeClient{}
	svc := newTestService(client, st)

	_, err := svc.Check(context.Background())
	require.NoError(t, err)
	assert.Empty(t, client.statusCalls)
}

func TestCheckBatchesWritesAndToleratesErrors(t *testing.T) {
	st := newMemStore()
	st.data = models.Translations{
		"a": {Languages: map[string]models.LanguageJob{
			"Spanish": {JobID: "j1", Status: models.StatusProcessing},
			"French":  {JobID: "j2", Status: models.StatusProcessing},
		}},
		"b": {Languages: map[string]models.LanguageJob{
			"Hindi": {JobID: "j3", Status: models.StatusProcessing},
		}},
	}
	client := &fakeClient{
		statuses: map[string]heygen.StatusResult{
			"j1": {Status: models.StatusCompleted, OutputURL: "https://out/1"},
			"j3": {Status: models.StatusFailed, Error: "Unknown error"},
		},
		statusErrs: map[string]error{
			"j2": &heygen.Error{Kind: heygen.KindTransport, Err: errors.New("timeout")},
		},
	}
	svc := newTestService(client, st)

	updates, err := svc.Check(context.Background())
	require.NoError(t, err)
	assert.Len(t, updates, 2)
	assert.Equal(t, 1, st.saves)

	assert.Equal(t, models.StatusCompleted, st.data["a"].Languages["Spanish"].Status)
	assert.Equal(t, models.StatusProcessing, st.data["a"].Languages["French"].Status)
	failed := st.data["b"].Languages["Hindi"]
	assert.Equal(t, models.StatusFailed, failed.Status)
	assert.Equal(t, "Unknown error", failed.Error)
	assert.Empty(t, failed.OutputURL)
}

func TestCheckKeepsResubmissionMadeWhilePolling(t *testing.T) {
	st := newMemStore()
	st.data = models.Translations{
		"a": {Languages: map[string]models.LanguageJob{
			"Spanish": {JobID: "old", Status: models.StatusProcessing},
		}},
	}
	client := &fakeClient{
		statuses: map[string]heygen.StatusResult{"old": {Status: models.StatusFailed, Error: "x"}},
	}
	client.onStatus = func() {
		st.data["a"].Languages["Spanish"] = models.LanguageJob{JobID: "new", Status: models.StatusProcessing}
	}
	svc := newTestService(client, st)

	updates, err := svc.Check(context.Background())
	require.NoError(t, err)
	assert.Empty(t, updates)
	assert.Zero(t, st.saves)
	assert.Equal(t, "new", st.data["a"].Languages["Spanish"].JobID)
	assert.Equal(t, models.StatusProcessing, st.data["a"].Languages["Spanish"].Status)
}

func TestCheckCancelledMidwayKeepsCollectedResults(t *testing.T) {
	st := newMemStore()
	st.data = models.Translations{
		"a": {Languages: map[string]models.LanguageJob{"Spanish": {JobID: "j1", Status: models.StatusProcessing}}},
		"b": {Languages: map[string]models.LanguageJob{"French": {JobID: "j2", Status: models.StatusProcessing}}},
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	client := &fakeClient{
		statuses: map[string]heygen.StatusResult{
			"j1": {Status: models.StatusCompleted, OutputURL: "https://out/1"},
			"j2": {Status: models.StatusCompleted, OutputURL: "https://out/2"},
		},
		onStatus: cancel,
	}
	svc := newTestService(client, st)

	updates, err := svc.Check(ctx)
	require.ErrorIs(t, err, context.Canceled)
	require.Len(t, updates, 1)
	assert.Equal(t, "j1", updates[0].JobID)
	assert.Equal(t, []string{"j1"}, client.statusCalls)

	assert.Equal(t, 1, st.saves)
	assert.Equal(t, models.StatusCompleted, st.data["a"].Languages["Spanish"].Status)
	assert.Equal(t, models.StatusProcessing, st.data["b"].Languages["French"].Status)
}
