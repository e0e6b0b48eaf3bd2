package handlers

import (
	"fmt"
	"net/http"
	"net/url"

	"jess/internal/models"
	"jess/internal/translation"
	"jess/templates"
)

func (a *App) index(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	data := templates.IndexData{
		Translations: a.svc.Translations.Load(),
		Languages:    models.Languages,
		Selected:     models.DefaultLanguage,
		Flash:        q.Get("msg"),
		Error:        q.Get("err"),
	}
	if lang := q.Get("language"); models.IsSupportedLanguage(lang) {
		data.Selected = lang
	}

	cache, err := a.svc.Videos.List(r.Context())
	if err != nil {
		a.logger.Warn("video list unavailable", "error", err)
		if data.Error == "" {
			data.Error = "Could not load videos: " + err.Error()
		}
	}
	data.Videos = cache.Videos
	data.CachedAt = cache.CachedAt

	a.render(w, r, templates.IndexPage(data))
}

func (a *App) library(w http.ResponseWriter, r *http.Request) {
	selected := r.URL.Query().Get("language")
	if !models.IsSupportedLanguage(selected) {
		selected = ""
	}
	a.render(w, r, templates.LibraryPage(templates.LibraryData{
		Groups:    a.svc.Translations.Load().ByLanguage(),
		Languages: models.Languages,
		Selected:  selected,
	}))
}

func (a *App) refreshVideosForm(w http.ResponseWriter, r *http.Request) {
	cache, err := a.svc.Videos.Refresh(r.Context())
	if err != nil {
		redirectWith(w, r, "/", "err", "Failed to fetch videos: "+err.Error())
		return
	}
	redirectWith(w, r, "/", "msg", fmt.Sprintf("Loaded %d videos", len(cache.Videos)))
}

func (a *App) translateForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		redirectWith(w, r, "/", "err", "invalid form")
		return
	}
	req := translation.Request{
		VideoID:  r.PostFormValue("video_id"),
		Title:    r.PostFormValue("title"),
		Language: r.PostFormValue("language"),
	}
	if v, ok := a.svc.Videos.Lookup(req.VideoID); ok && req.Title == "" {
		req.Title = v.Title
	}

	job, err := a.svc.Translator.Submit(r.Context(), req)
	if err != nil {
		redirectWith(w, r, "/", "err", "Translation failed: "+err.Error())
		return
	}
	a.logger.Info("translation submitted", "video_id", req.VideoID, "language", req.Language, "job_id", job.JobID)
	redirectWith(w, r, "/", "msg", fmt.Sprintf("Submitted %q for %s translation", req.Title, req.Language))
}

func (a *App) checkForm(w http.ResponseWriter, r *http.Request) {
	updates, err := a.runCheck(r.Context())
	if err != nil {
		redirectWith(w, r, "/", "err", "Status check failed: "+err.Error())
		return
	}
	if len(updates) == 0 {
		redirectWith(w, r, "/", "msg", "No status changes")
		return
	}
	redirectWith(w, r, "/", "msg", fmt.Sprintf("%d translation(s) updated", len(updates)))
}

func redirectWith(w http.ResponseWriter, r *http.Request, path, key, msg string) {
	http.Redirect(w, r, path+"?"+url.Values{key: {msg}}.Encode(), http.StatusSeeOther)
}
