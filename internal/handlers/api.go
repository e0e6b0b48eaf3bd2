package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"jess/internal/heygen"
	"jess/internal/models"
	"jess/internal/transcripts"
	"jess/internal/translation"
)

func (a *App) listVideos(w http.ResponseWriter, r *http.Request) {
	cache, err := a.svc.Videos.List(r.Context())
	if err != nil {
		a.respondJSON(w, http.StatusOK, map[string]any{
			"videos":    []models.VideoRecord{},
			"cached_at": nil,
			"count":     0,
			"error":     err.Error(),
		})
		return
	}
	a.respondJSON(w, http.StatusOK, map[string]any{
		"videos":    cache.Videos,
		"cached_at": cache.CachedAt,
		"count":     len(cache.Videos),
	})
}

func (a *App) refreshVideos(w http.ResponseWriter, r *http.Request) {
	cache, err := a.svc.Videos.Refresh(r.Context())
	if err != nil {
		a.respondJSON(w, http.StatusOK, map[string]any{"success": false, "error": "Failed to fetch videos"})
		return
	}
	a.respondJSON(w, http.StatusOK, map[string]any{"success": true, "count": len(cache.Videos)})
}

func (a *App) listTranslations(w http.ResponseWriter, r *http.Request) {
	all := a.svc.Translations.Load()
	processing, completed := all.Counts()
	a.respondJSON(w, http.StatusOK, map[string]any{
		"translations": all,
		"stats": map[string]int{
			"processing": processing,
			"completed":  completed,
		},
	})
}

func (a *App) translate(w http.ResponseWriter, r *http.Request) {
	var req translation.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	job, err := a.svc.Translator.Submit(r.Context(), req)
	if err != nil {
		code := submitStatus(err)
		if code == http.StatusInternalServerError {
			a.logger.Error("translation submit failed", "video_id", req.VideoID, "error", err)
		}
		a.respondError(w, code, err.Error())
		return
	}
	a.logger.Info("translation submitted", "video_id", req.VideoID, "language", req.Language, "job_id", job.JobID)
	a.respondJSON(w, http.StatusOK, map[string]any{"success": true, "job_id": job.JobID})
}

// submitStatus maps rejected submissions to 400 and anything else to 500.
func submitStatus(err error) int {
	switch {
	case heygen.KindOf(err) != "",
		errors.Is(err, heygen.ErrUnsupportedLanguage),
		errors.Is(err, translation.ErrMissingVideoID):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (a *App) checkTranslations(w http.ResponseWriter, r *http.Request) {
	updates, err := a.runCheck(r.Context())
	if err != nil {
		a.logger.Error("status check failed", "error", err)
		a.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	a.respondJSON(w, http.StatusOK, map[string]any{"updated": len(updates) > 0, "updates": updates})
}

func (a *App) languages(w http.ResponseWriter, r *http.Request) {
	a.respondJSON(w, http.StatusOK, map[string]any{"languages": models.Languages})
}

func (a *App) listTranscripts(w http.ResponseWriter, r *http.Request) {
	all := a.svc.Transcripts.All()
	a.respondJSON(w, http.StatusOK, map[string]any{"transcripts": all, "count": len(all)})
}

func (a *App) transcript(w http.ResponseWriter, r *http.Request) {
	videoID := chi.URLParam(r, "videoID")
	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))

	res, err := a.svc.Transcripts.Get(r.Context(), videoID, r.URL.Query().Get("lang"), refresh)
	if err != nil {
		a.logger.Error("transcript fetch failed", "video_id", videoID, "error", err)
		switch {
		case transcripts.IsTimeout(err):
			a.respondError(w, http.StatusGatewayTimeout, "Video MCP timeout")
		case transcripts.IsConnection(err):
			a.respondError(w, http.StatusServiceUnavailable, "Cannot connect to Video MCP")
		default:
			a.respondError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}
	a.respondJSON(w, http.StatusOK, res)
}

func (a *App) fetchAllTranscripts(w http.ResponseWriter, r *http.Request) {
	res, err := a.svc.Transcripts.FetchAll(r.Context())
	if err != nil {
		a.logger.Error("bulk transcript fetch failed", "error", err)
		if errors.Is(err, transcripts.ErrUnreachable) {
			a.respondJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "Cannot connect to Video MCP"})
			return
		}
		a.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}
	a.respondJSON(w, http.StatusOK, res)
}

func (a *App) agentQuery(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Query == "" {
		a.respondError(w, http.StatusBadRequest, "query is required")
		return
	}
	a.respondJSON(w, http.StatusOK, a.svc.Agent.Query(r.Context(), body.Query))
}
