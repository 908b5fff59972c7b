package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jwebster45206/novel-engine/internal/config"
)

func TestNew_Format(t *testing.T) {
	tests := []struct {
		environment string
		wantJSON    bool
	}{
		{"production", true},
		{"development", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.environment, func(t *testing.T) {
			var buf bytes.Buffer
			log := New(&config.Config{Environment: tt.environment, LogLevel: slog.LevelInfo}, &buf)
			WithSessionID(log, "abc").Info("hello")

			var record map[string]any
			isJSON := json.Unmarshal(buf.Bytes(), &record) == nil
			if isJSON != tt.wantJSON {
				t.Fatalf("Expected JSON=%v, got output %q", tt.wantJSON, buf.String())
			}
			if !strings.Contains(buf.String(), "abc") {
				t.Errorf("Expected session id in output, got %q", buf.String())
			}
		})
	}
}

func TestNew_Level(t *testing.T) {
	var buf bytes.Buffer
	log := New(&config.Config{LogLevel: slog.LevelWarn}, &buf)
	log.Info("quiet")
	if buf.Len() != 0 {
		t.Errorf("Expected info to be filtered, got %q", buf.String())
	}
	WithError(log, errors.New("boom")).Warn("loud")
	if !strings.Contains(buf.String(), "boom") {
		t.Errorf("Expected error attribute, got %q", buf.String())
	}
}

func TestSetupFileOnly_WritesLogFile(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	path := filepath.Join(t.TempDir(), "novel.log")
	log := SetupFileOnly(&config.Config{LogLevel: slog.LevelInfo, LogFile: path})
	log.Info("to the file")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), "to the file") {
		t.Errorf("Expected message in log file, got %q", string(data))
	}
	if slog.Default() != log {
		t.Error("Expected Setup to install the default logger")
	}
}
