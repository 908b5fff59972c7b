package playback

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/novel-engine/pkg/paginate"
	"github.com/jwebster45206/novel-engine/pkg/script"
)

// Session is one reader's progress through one script.
type Session struct {
	ID        uuid.UUID `json:"id"`
	Script    string    `json:"script"` // script file name
	State     Snapshot  `json:"state"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSession starts a session at the beginning of a script.
func NewSession(scriptFile string) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.New(),
		Script:    scriptFile,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Controller rebuilds a controller for the session's saved state.
func (s *Session) Controller(sc *script.Script, opts paginate.Options, logger *slog.Logger) (*Controller, error) {
	c := NewController(sc, opts, logger)
	if err := c.Restore(s.State); err != nil {
		return nil, err
	}
	return c, nil
}

// Capture stores the controller's state on the session.
func (s *Session) Capture(c *Controller) {
	s.State = c.Snapshot()
	s.UpdatedAt = time.Now()
}
