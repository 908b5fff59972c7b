package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jwebster45206/novel-engine/pkg/script"
	"github.com/jwebster45206/novel-engine/pkg/storage"
)

// ScriptLibrary reads script documents from a directory. It backs the script
// half of RedisStorage and is used directly by the terminal player.
type ScriptLibrary struct {
	dir    string
	logger *slog.Logger
}

// NewScriptLibrary reads scripts from <dataDir>/scripts.
func NewScriptLibrary(dataDir string, logger *slog.Logger) *ScriptLibrary {
	return &ScriptLibrary{
		dir:    filepath.Join(dataDir, "scripts"),
		logger: logger,
	}
}

// Dir returns the scripts directory.
func (l *ScriptLibrary) Dir() string {
	return l.dir
}

// List maps script names to file names. Files that fail to parse are skipped.
func (l *ScriptLibrary) List(ctx context.Context) (map[string]string, error) {
	scripts := make(map[string]string)

	err := filepath.WalkDir(l.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) && path == l.dir {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != l.dir {
				return fs.SkipDir
			}
			return nil
		}
		if !script.IsScriptFile(path) {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			l.logger.Warn("Failed to read script file", "path", path, "error", err)
			return nil
		}
		s, err := script.Parse(data, path)
		if err != nil {
			l.logger.Warn("Failed to parse script file", "path", path, "error", err)
			return nil
		}

		name := s.Name
		if name == "" {
			name = filepath.Base(path)
		}
		scripts[name] = filepath.Base(path)
		return nil
	})
	if err != nil {
		l.logger.Error("Failed to walk scripts directory", "error", err)
		return nil, fmt.Errorf("failed to list scripts: %w", err)
	}

	return scripts, nil
}

// Get loads one script. The file name is recorded on the returned script.
func (l *ScriptLibrary) Get(ctx context.Context, filename string) (*script.Script, error) {
	if !storage.ValidScriptName(filename) {
		return nil, fmt.Errorf("invalid script file name: %q", filename)
	}
	path := filepath.Join(l.dir, filename)
	l.logger.Debug("Loading script", "filename", filename, "path", path)

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", storage.ErrScriptNotFound, filename)
		}
		return nil, fmt.Errorf("failed to read script file: %w", err)
	}

	s, err := script.Parse(data, filename)
	if err != nil {
		return nil, err
	}
	s.FileName = filename
	return s, nil
}

func (r *RedisStorage) ListScripts(ctx context.Context) (map[string]string, error) {
	return r.scripts.List(ctx)
}

func (r *RedisStorage) GetScript(ctx context.Context, filename string) (*script.Script, error) {
	return r.scripts.Get(ctx, filename)
}
