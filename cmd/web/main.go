package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"jess/internal/agent"
	"jess/internal/config"
	"jess/internal/handlers"
	"jess/internal/heygen"
	"jess/internal/keys"
	"jess/internal/store"
	"jess/internal/transcripts"
	"jess/internal/translation"
	"jess/internal/videos"
)

func main() {
	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	keyProvider := keys.NewProvider(logger, cfg.AuthURL, cfg.AuthToken)

	source, channel, err := newVideoSource(ctx, logger, cfg, keyProvider)
	if err != nil {
		logger.Error("video source unavailable", "source", cfg.VideoSource, "error", err)
		os.Exit(1)
	}

	translationStore := store.NewTranslationStore(logger, cfg.TranslationsPath())
	library := videos.NewLibrary(logger, source, store.NewVideoCacheStore(logger, cfg.VideoCachePath()), channel, cfg.ChannelURL)

	jobs := heygen.NewClient(logger, keyProvider, heygen.Options{
		BaseURL:   cfg.HeyGenBaseURL,
		KeyName:   cfg.HeyGenKeyName,
		Requester: cfg.KeyRequester,
		Timeout:   cfg.HTTPTimeout,
	})

	transcriptSvc := transcripts.NewService(
		logger,
		transcripts.NewClient(logger, cfg.VideoMCPURL, cfg.HTTPTimeout),
		store.NewTranscriptStore(logger, cfg.TranscriptsPath()),
		translationStore,
		library,
		cfg.StatusPollRPS,
	)

	agentCfg, err := config.LoadAgentConfig(cfg.AgentConfigPath)
	if err != nil {
		logger.Warn("agent config not loaded, using defaults", "path", cfg.AgentConfigPath, "error", err)
	}
	relay := agent.NewRelay(logger, agent.NewGateway(logger, cfg.OrcaURL, cfg.OrcaToken, 60*time.Second).WithLanguage(agentCfg.Response.Language), agentCfg)

	app := handlers.NewApp(logger, handlers.Services{
		Translator:   translation.NewService(logger, jobs, translationStore, cfg.StatusPollRPS),
		Translations: translationStore,
		Videos:       library,
		Transcripts:  transcriptSvc,
		Agent:        relay,
	})
	app.StartReconcileLoop(ctx, cfg.ReconcileInterval)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           app.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      10 * time.Minute,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		logger.Info("server started", "addr", cfg.Addr, "video_source", cfg.VideoSource, "data_dir", cfg.DataDir)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info("shutdown signal received")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
		_ = srv.Close()
	}
	logger.Info("server stopped")
}

// newVideoSource picks the channel listing backend and the channel argument it expects.
func newVideoSource(ctx context.Context, logger *slog.Logger, cfg config.Config, kp *keys.Provider) (videos.Source, string, error) {
	switch cfg.VideoSource {
	case "ytdlp", "":
		return videos.NewYtDlpSource(logger, cfg.VideoMaxResults), cfg.ChannelURL, nil
	case "youtube":
		if cfg.ChannelID == "" {
			return nil, "", errors.New("CHANNEL_ID is required for the youtube source")
		}
		apiKey := cfg.YouTubeAPIKey
		if apiKey == "" {
			apiKey = kp.Get(ctx, "YOUTUBE_API_KEY", cfg.KeyRequester)
		}
		if apiKey == "" {
			return nil, "", errors.New("YOUTUBE_API_KEY not available")
		}
		svc, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
		if err != nil {
			return nil, "", fmt.Errorf("create youtube client: %w", err)
		}
		return videos.NewYouTubeSource(logger, svc, cfg.VideoMaxResults), cfg.ChannelID, nil
	case "feed":
		if cfg.ChannelID == "" {
			return nil, "", errors.New("CHANNEL_ID is required for the feed source")
		}
		return videos.NewFeedSource(logger), cfg.ChannelID, nil
	default:
		return nil, "", fmt.Errorf("unknown video source %q", cfg.VideoSource)
	}
}
