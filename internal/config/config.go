package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents runtime configuration derived from environment variables.
type Config struct {
	Server    ServerConfig
	Logging   LoggingConfig
	Inference InferenceConfig
	Database  DatabaseConfig
	News      NewsConfig
	Watcher   WatcherConfig
}

// ServerConfig holds HTTP server runtime parameters.
type ServerConfig struct {
	Port            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// LoggingConfig represents structured logging configuration.
type LoggingConfig struct {
	Level  slog.Level
	Format string
}

// InferenceConfig holds credentials and limits for the AI backends.
type InferenceConfig struct {
	OpenAIAPIKey    string
	OpenAIBaseURL   string // optional, for OpenAI-compatible endpoints (NVIDIA NIM etc.)
	AnthropicAPIKey string
	TaskTimeout     time.Duration
	MaxPromptChars  int
	MaxOutputTokens int
}

// DatabaseConfig holds the Postgres connection string.
type DatabaseConfig struct {
	URL string
}

// NewsConfig holds the MarketAux news API configuration.
type NewsConfig struct {
	APIKey       string
	Country      string
	ArticleLimit int
}

// WatcherConfig controls the background price watcher.
type WatcherConfig struct {
	Enabled          bool
	Symbols          []string
	CheckInterval    time.Duration
	TriggerThreshold float64 // absolute percent move that triggers an analysis
}

const (
	defaultPort            = "8080"
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 60 * time.Second
	defaultShutdownTimeout = 5 * time.Second

	defaultLogFormat = "json"

	defaultTaskTimeout     = 5 * time.Second
	defaultMaxPromptChars  = 12000
	defaultMaxOutputTokens = 500

	defaultNewsCountry      = "in"
	defaultNewsArticleLimit = 10

	defaultWatcherInterval  = 5 * time.Minute
	defaultWatcherThreshold = 2.0
)

// Load reads configuration from environment variables, applying defaults when
// values are not provided or invalid.
func Load() (Config, error) {
	// Cloud Run sets PORT, but allow SERVER_PORT override for local dev
	port := getEnv("PORT", "")
	if port == "" {
		port = getEnv("SERVER_PORT", defaultPort)
	}

	cfg := Config{
		Server: ServerConfig{
			Port:            port,
			ReadTimeout:     defaultReadTimeout,
			WriteTimeout:    defaultWriteTimeout,
			ShutdownTimeout: defaultShutdownTimeout,
		},
		Logging: LoggingConfig{
			Level:  slog.LevelInfo,
			Format: defaultLogFormat,
		},
		Inference: InferenceConfig{
			OpenAIAPIKey:    os.Getenv("OPENAI_API_KEY"),
			OpenAIBaseURL:   os.Getenv("OPENAI_BASE_URL"),
			AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
			TaskTimeout:     defaultTaskTimeout,
			MaxPromptChars:  defaultMaxPromptChars,
			MaxOutputTokens: defaultMaxOutputTokens,
		},
		Database: DatabaseConfig{
			URL: os.Getenv("DATABASE_URL"),
		},
		News: NewsConfig{
			APIKey:       os.Getenv("MARKETAUX_API_KEY"),
			Country:      getEnv("MARKETAUX_COUNTRY", defaultNewsCountry),
			ArticleLimit: defaultNewsArticleLimit,
		},
		Watcher: WatcherConfig{
			CheckInterval:    defaultWatcherInterval,
			TriggerThreshold: defaultWatcherThreshold,
		},
	}

	if v := os.Getenv("SERVER_READ_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_READ_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.ReadTimeout = d
	}

	if v := os.Getenv("SERVER_WRITE_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_WRITE_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.WriteTimeout = d
	}

	if v := os.Getenv("SERVER_SHUTDOWN_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SERVER_SHUTDOWN_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Server.ShutdownTimeout = d
	}

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		level, err := parseLogLevel(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid LOG_LEVEL: %w", err)
		}
		cfg.Logging.Level = level
	}

	if v := os.Getenv("LOG_FORMAT"); v != "" {
		switch v {
		case "json", "text":
			cfg.Logging.Format = v
		default:
			return Config{}, fmt.Errorf("invalid LOG_FORMAT: must be 'json' or 'text'")
		}
	}

	if v := os.Getenv("TASK_TIMEOUT_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid TASK_TIMEOUT_SECONDS: %w", err)
		}
		cfg.Inference.TaskTimeout = d
	}

	if v := os.Getenv("MAX_OUTPUT_TOKENS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid MAX_OUTPUT_TOKENS: must be a positive integer")
		}
		cfg.Inference.MaxOutputTokens = n
	}

	if v := os.Getenv("NEWS_ARTICLE_LIMIT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return Config{}, fmt.Errorf("invalid NEWS_ARTICLE_LIMIT: must be a positive integer")
		}
		cfg.News.ArticleLimit = n
	}

	if v := os.Getenv("WATCH_SYMBOLS"); v != "" {
		for _, s := range strings.Split(v, ",") {
			s = strings.TrimSpace(s)
			if s != "" {
				cfg.Watcher.Symbols = append(cfg.Watcher.Symbols, s)
			}
		}
		cfg.Watcher.Enabled = len(cfg.Watcher.Symbols) > 0
	}

	if v := os.Getenv("WATCH_INTERVAL_SECONDS"); v != "" {
		d, err := parseSeconds(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid WATCH_INTERVAL_SECONDS: %w", err)
		}
		cfg.Watcher.CheckInterval = d
	}

	if v := os.Getenv("WATCH_TRIGGER_PERCENT"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			return Config{}, fmt.Errorf("invalid WATCH_TRIGGER_PERCENT: must be a positive number")
		}
		cfg.Watcher.TriggerThreshold = f
	}

	return cfg, nil
}

func parseSeconds(raw string) (time.Duration, error) {
	seconds, err := strconv.Atoi(raw)
	if err != nil || seconds < 0 {
		return 0, fmt.Errorf("must be a non-negative integer")
	}
	return time.Duration(seconds) * time.Second, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func parseLogLevel(raw string) (slog.Level, error) {
	switch raw {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("must be one of debug, info, warn, error")
	}
}
