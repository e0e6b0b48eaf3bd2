package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/a-h/templ"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"jess/internal/agent"
	"jess/internal/models"
	"jess/internal/transcripts"
	"jess/internal/translation"
)

type Translator interface {
	Submit(ctx context.Context, req translation.Request) (models.LanguageJob, error)
	Check(ctx context.Context) ([]translation.Update, error)
}

type TranslationReader interface {
	Load() models.Translations
}

type VideoLibrary interface {
	List(ctx context.Context) (models.VideoCache, error)
	Refresh(ctx context.Context) (models.VideoCache, error)
	Lookup(videoID string) (models.VideoRecord, bool)
}

type Transcripts interface {
	Get(ctx context.Context, videoID, lang string, refresh bool) (transcripts.Result, error)
	FetchAll(ctx context.Context) (transcripts.BulkResult, error)
	All() map[string]models.Transcript
}

type Agent interface {
	Query(ctx context.Context, q string) agent.Response
}

// Services are the collaborators the HTTP surface dispatches to.
type Services struct {
	Translator   Translator
	Translations TranslationReader
	Videos       VideoLibrary
	Transcripts  Transcripts
	Agent        Agent
}

type App struct {
	logger *slog.Logger
	router *chi.Mux

	svc Services

	// checkMu keeps manual and scheduled status checks from overlapping.
	checkMu sync.Mutex

	mu   sync.RWMutex
	subs map[*websocket.Conn]struct{}

	upgrader websocket.Upgrader
}

func NewApp(logger *slog.Logger, svc Services) *App {
	app := &App{
		logger: logger,
		router: chi.NewRouter(),
		svc:    svc,
		subs:   make(map[*websocket.Conn]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	app.registerRoutes()
	return app
}

func (a *App) Router() http.Handler {
	return a.router
}

func (a *App) registerRoutes() {
	a.router.Use(middleware.RequestID)
	a.router.Use(middleware.RealIP)
	a.router.Use(middleware.Recoverer)
	a.router.Use(middleware.Timeout(5 * time.Minute))
	a.router.Use(a.corsMiddleware)

	a.router.Get("/", a.index)
	a.router.Get("/library", a.library)
	a.router.Post("/videos/refresh", a.refreshVideosForm)
	a.router.Post("/translate", a.translateForm)
	a.router.Post("/translations/check", a.checkForm)
	a.router.Get("/ws/translations", a.translationsWS)
	a.router.Get("/healthz", a.health)

	a.router.Route("/api", func(r chi.Router) {
		r.Get("/videos", a.listVideos)
		r.Post("/videos/refresh", a.refreshVideos)
		r.Get("/translations", a.listTranslations)
		r.Post("/translate", a.translate)
		r.Post("/translations/check", a.checkTranslations)
		r.Get("/languages", a.languages)
		r.Get("/transcripts", a.listTranscripts)
		r.Get("/transcript/{videoID}", a.transcript)
		r.Post("/transcripts/fetch-all", a.fetchAllTranscripts)
		r.Post("/agent/query", a.agentQuery)
	})
}

func (a *App) health(w http.ResponseWriter, r *http.Request) {
	a.respondJSON(w, http.StatusOK, map[string]string{"status": "ok", "timestamp": time.Now().Format(time.RFC3339)})
}

// runCheck reconciles in-flight jobs and pushes any changes to websocket
// subscribers.
func (a *App) runCheck(ctx context.Context) ([]translation.Update, error) {
	a.checkMu.Lock()
	defer a.checkMu.Unlock()

	updates, err := a.svc.Translator.Check(ctx)
	if len(updates) > 0 {
		a.logger.Info("translations updated", "count", len(updates))
		a.broadcast(updates)
	}
	if err != nil {
		return nil, err
	}
	if updates == nil {
		updates = []translation.Update{}
	}
	return updates, nil
}

// StartReconcileLoop checks in-flight jobs every interval until ctx is done.
func (a *App) StartReconcileLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := a.runCheck(ctx); err != nil {
					a.logger.Error("scheduled status check failed", "error", err)
				}
			}
		}
	}()
}

func (a *App) translationsWS(w http.ResponseWriter, r *http.Request) {
	conn, err := a.upgrader.Upgrade(w, r, nil)
	if err != nil {
		a.logger.Warn("websocket upgrade failed", "error", err)
		return
	}

	clientID := uuid.NewString()
	a.mu.Lock()
	a.subs[conn] = struct{}{}
	a.mu.Unlock()
	a.logger.Debug("websocket subscribed", "client_id", clientID)

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	a.mu.Lock()
	delete(a.subs, conn)
	a.mu.Unlock()
	_ = conn.Close()
	a.logger.Debug("websocket closed", "client_id", clientID)
}

func (a *App) broadcast(updates []translation.Update) {
	a.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(a.subs))
	for c := range a.subs {
		conns = append(conns, c)
	}
	a.mu.RUnlock()

	for _, c := range conns {
		if err := c.WriteJSON(map[string]any{"updates": updates}); err != nil {
			a.mu.Lock()
			delete(a.subs, c)
			a.mu.Unlock()
			_ = c.Close()
		}
	}
}

func (a *App) render(w http.ResponseWriter, r *http.Request, component templ.Component) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := component.Render(r.Context(), w); err != nil {
		a.logger.Error("failed to render template", "error", err)
		http.Error(w, "failed to render page", http.StatusInternalServerError)
	}
}

func (a *App) respondJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		a.logger.Error("failed to encode json", "error", err)
	}
}

func (a *App) respondError(w http.ResponseWriter, code int, msg string) {
	a.respondJSON(w, code, map[string]string{"detail": msg})
}

func (a *App) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
