package templates

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jess/internal/models"
)

func TestIndexPage(t *testing.T) {
	d := IndexData{
		Videos:    []models.VideoRecord{{VideoID: "v1", Title: "A & B", PublishedAt: "20240105"}},
		Languages: []string{"French", "Spanish"},
		Selected:  "Spanish",
		Error:     "boom",
		Translations: models.Translations{"v1": {Languages: map[string]models.LanguageJob{
			"French": {Status: models.StatusCompleted},
		}}},
	}
	var buf bytes.Buffer
	require.NoError(t, IndexPage(d).Render(context.Background(), &buf))

	html := buf.String()
	assert.Contains(t, html, "<title>Videos</title>")
	assert.Contains(t, html, `<div class="flash error">boom</div>`)
	assert.Contains(t, html, "A &amp; B")
	assert.Contains(t, html, "2024-01-05")
	assert.Contains(t, html, `class="badge completed"`)
	assert.Contains(t, html, "Translated: French")
	assert.Contains(t, html, `<option value="Spanish" selected>`)
	assert.Contains(t, html, "1 videos")
}

func TestLibraryPageEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, LibraryPage(LibraryData{Languages: []string{"Hindi"}}).Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), "No translations yet.")
	assert.Contains(t, buf.String(), `<option value="">All languages</option>`)
}

func TestLibraryVisible(t *testing.T) {
	d := LibraryData{Groups: map[string][]models.LibraryEntry{"Spanish": nil, "French": nil, "Hindi": nil}}
	assert.Equal(t, []string{"French", "Hindi", "Spanish"}, d.visible())
	d.Selected = "Hindi"
	assert.Equal(t, []string{"Hindi"}, d.visible())
}
