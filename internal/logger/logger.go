package logger

import (
	"io"
	"log/slog"
	"os"

	"github.com/jwebster45206/novel-engine/internal/config"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Setup configures the global slog logger for a server process. Output goes to
// stdout and, when LOG_FILE is set, to a rotating log file as well.
func Setup(cfg *config.Config) *slog.Logger {
	return install(cfg, output(cfg, os.Stdout))
}

// SetupFileOnly is Setup for programs that own the terminal. Without LOG_FILE
// logs are dropped.
func SetupFileOnly(cfg *config.Config) *slog.Logger {
	return install(cfg, output(cfg, nil))
}

// New builds a logger writing to w without touching the global default.
func New(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.Environment == "production" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

func install(cfg *config.Config, w io.Writer) *slog.Logger {
	logger := New(cfg, w)
	slog.SetDefault(logger)
	return logger
}

func output(cfg *config.Config, console io.Writer) io.Writer {
	if cfg.LogFile == "" {
		if console == nil {
			return io.Discard
		}
		return console
	}

	file := &lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
		Compress:   true,
	}
	if console == nil {
		return file
	}
	return io.MultiWriter(console, file)
}

// WithSessionID adds the session id to logger context
func WithSessionID(logger *slog.Logger, sessionID string) *slog.Logger {
	return logger.With("session_id", sessionID)
}

// WithError adds error to logger context
func WithError(logger *slog.Logger, err error) *slog.Logger {
	return logger.With("error", err.Error())
}
