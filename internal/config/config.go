package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process configuration. It is built once in main and passed
// to each component.
type Config struct {
	Addr    string
	DataDir string

	ChannelURL      string
	ChannelID       string
	VideoSource     string
	VideoMaxResults int
	YouTubeAPIKey   string

	HeyGenBaseURL string
	HeyGenKeyName string
	KeyRequester  string
	AuthURL       string
	AuthToken     string

	VideoMCPURL string
	OrcaURL     string
	OrcaToken   string

	ReconcileInterval time.Duration
	StatusPollRPS     float64
	HTTPTimeout       time.Duration

	AgentConfigPath string
	LogLevel        slog.Level
}

// Load reads an optional .env file, then the environment.
func Load() Config {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("could not read .env file", "error", err)
	}

	return Config{
		Addr:    envOrDefault("APP_ADDR", ":8080"),
		DataDir: envOrDefault("DATA_DIR", "data"),

		ChannelURL:      envOrDefault("CHANNEL_URL", "https://www.youtube.com/@GuinnessGI"),
		ChannelID:       envOrDefault("CHANNEL_ID", ""),
		VideoSource:     strings.ToLower(envOrDefault("VIDEO_SOURCE", "ytdlp")),
		VideoMaxResults: envIntOrDefault("VIDEO_MAX_RESULTS", 50),
		YouTubeAPIKey:   envOrDefault("YOUTUBE_API_KEY", ""),

		HeyGenBaseURL: envOrDefault("HEYGEN_BASE_URL", "https://api.heygen.com"),
		HeyGenKeyName: envOrDefault("HEYGEN_KEY_NAME", "HEYGEN_API_KEY"),
		KeyRequester:  envOrDefault("KEY_REQUESTER", "jess"),
		AuthURL:       envOrDefault("AUTH_MCP_URL", "https://auth-mcp.urbancanary.workers.dev"),
		AuthToken:     envOrDefault("AUTH_MCP_TOKEN", ""),

		VideoMCPURL: envOrDefault("VIDEO_MCP_URL", "https://video-mcp.urbancanary.workers.dev"),
		OrcaURL:     envOrDefault("ORCA_URL", "http://localhost:3000"),
		OrcaToken:   envOrDefault("ORCA_TOKEN", ""),

		ReconcileInterval: envDurationOrDefault("RECONCILE_INTERVAL", 0),
		StatusPollRPS:     envFloatOrDefault("STATUS_POLL_RPS", 5),
		HTTPTimeout:       envDurationOrDefault("HTTP_TIMEOUT", 30*time.Second),

		AgentConfigPath: envOrDefault("AGENT_CONFIG", "config.yaml"),
		LogLevel:        parseLevel(envOrDefault("LOG_LEVEL", "info")),
	}
}

func (c Config) TranslationsPath() string { return filepath.Join(c.DataDir, "translations.json") }
func (c Config) VideoCachePath() string   { return filepath.Join(c.DataDir, "videos_cache.json") }
func (c Config) TranscriptsPath() string  { return filepath.Join(c.DataDir, "transcripts.json") }

func envOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func envIntOrDefault(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func envFloatOrDefault(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func envDurationOrDefault(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func parseLevel(v string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
