package storage

import (
	"context"
	"errors"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/jwebster45206/novel-engine/pkg/playback"
	"github.com/jwebster45206/novel-engine/pkg/script"
)

// Storage combines session persistence (Redis) with the script library (filesystem).
type Storage interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// Session operations (Redis-backed)
	SaveSession(ctx context.Context, s *playback.Session) error
	// LoadSession returns (nil, nil) when the session does not exist or has expired.
	LoadSession(ctx context.Context, id uuid.UUID) (*playback.Session, error)
	DeleteSession(ctx context.Context, id uuid.UUID) error

	// Script operations (filesystem-backed)
	ListScripts(ctx context.Context) (map[string]string, error)
	GetScript(ctx context.Context, filename string) (*script.Script, error)
}

// ErrScriptNotFound is wrapped by GetScript when no such script exists.
var ErrScriptNotFound = errors.New("script not found")

// ValidScriptName reports whether name is a bare script file name that cannot
// escape the scripts directory.
func ValidScriptName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return false
	}
	return script.IsScriptFile(name)
}
