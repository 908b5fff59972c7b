// Package sessions applies navigation inputs to stored reader sessions.
package sessions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/novel-engine/internal/logger"
	"github.com/jwebster45206/novel-engine/internal/services/events"
	"github.com/jwebster45206/novel-engine/pkg/paginate"
	"github.com/jwebster45206/novel-engine/pkg/playback"
	"github.com/jwebster45206/novel-engine/pkg/present"
	"github.com/jwebster45206/novel-engine/pkg/script"
	"github.com/jwebster45206/novel-engine/pkg/storage"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrInvalidScriptName = errors.New("invalid script file name")
	ErrUnknownOp         = errors.New("unknown operation")
)

// Summary describes a session and what is on its screen.
type Summary struct {
	ID        uuid.UUID        `json:"id"`
	Script    string           `json:"script"`
	Title     string           `json:"title"`
	Steps     int              `json:"steps"`
	Index     int              `json:"index"`
	AtEnd     bool             `json:"at_end"`
	View      *playback.View   `json:"view,omitempty"`
	Frame     *present.Frame   `json:"frame,omitempty"`
	Chapters  []script.Chapter `json:"chapters"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// Outcome is the result of one navigation input.
type Outcome struct {
	Transitioned bool            `json:"transitioned"`
	Reason       playback.Reason `json:"reason,omitempty"`
	View         *playback.View  `json:"view,omitempty"`
	Frame        *present.Frame  `json:"frame,omitempty"`
	Index        int             `json:"index"`
	Pending      int             `json:"pending"`
	AtEnd        bool            `json:"at_end"`
}

// Service loads a session, applies one input under the session's lock, saves
// it and publishes the outcome.
type Service struct {
	storage   storage.Storage
	publisher events.Publisher
	opts      paginate.Options
	locks     *keyedMutex
	logger    *slog.Logger
}

// NewService creates a session service. publisher may be nil.
func NewService(store storage.Storage, publisher events.Publisher, opts paginate.Options, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		storage:   store,
		publisher: publisher,
		opts:      opts,
		locks:     newKeyedMutex(),
		logger:    logger,
	}
}

// Create starts a session on a script and reveals its first step.
func (s *Service) Create(ctx context.Context, scriptFile string) (*Summary, error) {
	if !storage.ValidScriptName(scriptFile) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidScriptName, scriptFile)
	}
	sc, err := s.storage.GetScript(ctx, scriptFile)
	if err != nil {
		return nil, err
	}

	sess := playback.NewSession(scriptFile)
	c, err := sess.Controller(sc, s.opts, s.logger)
	if err != nil {
		return nil, err
	}
	c.Advance()
	sess.Capture(c)

	if err := s.storage.SaveSession(ctx, sess); err != nil {
		return nil, err
	}
	s.logger.Info("Session created", "session_id", sess.ID, "script", scriptFile, "steps", sc.Len())

	if s.publisher != nil {
		if err := s.publisher.PublishCreated(ctx, sess.ID, scriptFile); err != nil {
			logger.WithError(logger.WithSessionID(s.logger, sess.ID.String()), err).Warn("Failed to publish session event")
		}
	}
	return s.summarize(sess, sc, c), nil
}

// Get describes a session without changing it.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Summary, error) {
	sess, sc, c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.summarize(sess, sc, c), nil
}

// Delete removes a session.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	unlock := s.locks.Lock(id)
	defer unlock()

	sess, err := s.storage.LoadSession(ctx, id)
	if err != nil {
		return err
	}
	if sess == nil {
		return ErrSessionNotFound
	}
	if err := s.storage.DeleteSession(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Session deleted", "session_id", id)

	if s.publisher != nil {
		if err := s.publisher.PublishDeleted(ctx, id); err != nil {
			logger.WithError(logger.WithSessionID(s.logger, id.String()), err).Warn("Failed to publish session event")
		}
	}
	return nil
}

// Apply runs one navigation input. index is only used by jumps.
func (s *Service) Apply(ctx context.Context, id uuid.UUID, op events.Op, index int) (*Outcome, error) {
	unlock := s.locks.Lock(id)
	defer unlock()

	sess, sc, c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	var r playback.Result
	switch op {
	case events.OpAdvance:
		r = c.Advance()
	case events.OpRewind:
		r = c.Rewind()
	case events.OpJump:
		r = c.JumpToChapter(index)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownOp, op)
	}

	if r.Transitioned() {
		sess.Capture(c)
		if err := s.storage.SaveSession(ctx, sess); err != nil {
			return nil, err
		}
	}

	if s.publisher != nil {
		if err := s.publisher.PublishTransition(ctx, id, op, r, c.Index()); err != nil {
			logger.WithError(logger.WithSessionID(s.logger, id.String()), err).Warn("Failed to publish session event")
		}
	}

	out := &Outcome{
		Transitioned: r.Transitioned(),
		Reason:       r.Reason,
		View:         r.View,
		Index:        c.Index(),
		Pending:      c.Pending(),
		AtEnd:        c.AtEnd(),
	}
	if r.Transitioned() {
		f := present.Resolve(*r.View, sc, logger.WithSessionID(s.logger, id.String()))
		out.Frame = &f
	}
	return out, nil
}

// Chapters lists the chapter menu of the session's script.
func (s *Service) Chapters(ctx context.Context, id uuid.UUID) ([]script.Chapter, error) {
	_, _, c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.ListChapters(), nil
}

// History returns the session's reading log.
func (s *Service) History(ctx context.Context, id uuid.UUID) ([]playback.HistoryEntry, error) {
	_, _, c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.History(), nil
}

func (s *Service) load(ctx context.Context, id uuid.UUID) (*playback.Session, *script.Script, *playback.Controller, error) {
	sess, err := s.storage.LoadSession(ctx, id)
	if err != nil {
		return nil, nil, nil, err
	}
	if sess == nil {
		return nil, nil, nil, ErrSessionNotFound
	}
	sc, err := s.storage.GetScript(ctx, sess.Script)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load script for session %s: %w", id, err)
	}
	c, err := sess.Controller(sc, s.opts, s.logger)
	if err != nil {
		return nil, nil, nil, err
	}
	return sess, sc, c, nil
}

func (s *Service) summarize(sess *playback.Session, sc *script.Script, c *playback.Controller) *Summary {
	sum := &Summary{
		ID:        sess.ID,
		Script:    sess.Script,
		Title:     sc.Name,
		Steps:     sc.Len(),
		Index:     c.Index(),
		AtEnd:     c.AtEnd(),
		Chapters:  c.ListChapters(),
		CreatedAt: sess.CreatedAt,
		UpdatedAt: sess.UpdatedAt,
	}
	if v, ok := c.Current(); ok {
		f := present.Resolve(v, sc, logger.WithSessionID(s.logger, sess.ID.String()))
		sum.View = &v
		sum.Frame = &f
	}
	return sum
}
