package templates

import (
	"sort"
	"strconv"
	"strings"

	"jess/internal/models"
)

// IndexData feeds the browse page.
type IndexData struct {
	Videos       []models.VideoRecord
	Translations models.Translations
	Languages    []string
	Selected     string
	Flash        string
	Error        string
	CachedAt     string
}

func (d IndexData) stats() []string {
	processing, completed := d.Translations.Counts()
	return []string{
		strconv.Itoa(len(d.Videos)) + " videos",
		strconv.Itoa(processing) + " processing",
		strconv.Itoa(completed) + " completed",
	}
}

func (d IndexData) badge(videoID string) string {
	badge, _ := d.Translations.Summary(videoID)
	return string(badge)
}

func (d IndexData) translated(videoID string) string {
	_, done := d.Translations.Summary(videoID)
	return strings.Join(done, ", ")
}

// LibraryData feeds the translated library page.
type LibraryData struct {
	Groups    map[string][]models.LibraryEntry
	Languages []string
	Selected  string
}

// visible returns the sorted language groups that pass the filter.
func (d LibraryData) visible() []string {
	langs := make([]string, 0, len(d.Groups))
	for lang := range d.Groups {
		if d.Selected == "" || lang == d.Selected {
			langs = append(langs, lang)
		}
	}
	sort.Strings(langs)
	return langs
}

func displayDate(d string) string {
	if len(d) != 8 {
		return d
	}
	return d[:4] + "-" + d[4:6] + "-" + d[6:]
}
