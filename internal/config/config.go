package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/jwebster45206/novel-engine/pkg/paginate"
)

type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level
	LogFile     string

	RedisURL   string
	DataDir    string
	SessionTTL time.Duration
	SaveDB     string

	TextLimit       int
	BreakSymbols    []string
	EllipsisVariant bool

	// AllowedOrigins lists browser origins that may open the play websocket.
	// Empty means same host only; "*" allows any origin.
	AllowedOrigins []string
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	// a missing .env is fine
	_ = godotenv.Load()

	cfg := &Config{
		Port:         getEnv("PORT", "8080"),
		Environment:  getEnv("ENVIRONMENT", "development"),
		LogLevel:     parseLogLevel(getEnv("LOG_LEVEL", "info")),
		LogFile:      getEnv("LOG_FILE", ""),
		RedisURL:     getEnv("REDIS_URL", "localhost:6379"),
		DataDir:      getEnv("DATA_DIR", "./data"),
		SaveDB:       getEnv("SAVE_DB", "./saves.db"),
		BreakSymbols: parseBreakSymbols(getEnv("BREAK_SYMBOLS", "")),

		AllowedOrigins: parseList(getEnv("ALLOWED_ORIGINS", "")),
	}

	var err error
	if cfg.SessionTTL, err = time.ParseDuration(getEnv("SESSION_TTL", "24h")); err != nil {
		return nil, fmt.Errorf("invalid SESSION_TTL: %w", err)
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("invalid SESSION_TTL: must be positive")
	}
	if cfg.TextLimit, err = strconv.Atoi(getEnv("TEXT_LIMIT", strconv.Itoa(paginate.DefaultLimit))); err != nil {
		return nil, fmt.Errorf("invalid TEXT_LIMIT: %w", err)
	}
	if cfg.EllipsisVariant, err = strconv.ParseBool(getEnv("ELLIPSIS_VARIANT", "false")); err != nil {
		return nil, fmt.Errorf("invalid ELLIPSIS_VARIANT: %w", err)
	}

	return cfg, nil
}

// PaginateOptions builds the pagination settings. A TEXT_LIMIT of 0 or less
// turns pagination off.
func (c *Config) PaginateOptions() paginate.Options {
	opts := paginate.DefaultOptions()
	opts.Limit = c.TextLimit
	if len(c.BreakSymbols) > 0 {
		opts.BreakSymbols = append([]string(nil), c.BreakSymbols...)
	}
	if c.EllipsisVariant {
		opts = opts.WithEllipsisVariant()
	}
	return opts
}

// parseBreakSymbols splits a comma separated list. "\n" stands for a newline.
func parseBreakSymbols(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	var symbols []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		part = strings.ReplaceAll(part, `\n`, "\n")
		if part != "" {
			symbols = append(symbols, part)
		}
	}
	return symbols
}

func parseList(raw string) []string {
	var items []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			items = append(items, part)
		}
	}
	return items
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
