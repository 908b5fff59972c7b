package playback

import (
	"log/slog"

	"github.com/jwebster45206/novel-engine/pkg/paginate"
	"github.com/jwebster45206/novel-engine/pkg/script"
)

// Controller drives one reader's cursor through a script. It is not safe for
// concurrent use; callers serialize input the way a UI event loop does.
type Controller struct {
	script *script.Script
	opts   paginate.Options
	cursor Cursor
	logger *slog.Logger
}

// NewController creates a controller positioned before the first step.
func NewController(s *script.Script, opts paginate.Options, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		script: s,
		opts:   opts,
		logger: logger,
	}
}

// Advance reveals the next chunk of the current step, or the next step.
func (c *Controller) Advance() Result {
	if c.script.Len() == 0 {
		return c.log("advance", noOp(ReasonEmptyScript))
	}
	return c.log("advance", c.cursor.advance(c.script, c.opts))
}

// Rewind goes back to the step before the current one. Partial reveal of the
// current step is discarded and the target step starts again at chunk 1.
func (c *Controller) Rewind() Result {
	if c.script.Len() == 0 {
		return c.log("rewind", noOp(ReasonEmptyScript))
	}
	return c.log("rewind", c.cursor.rewind(c.script, c.opts))
}

// JumpToChapter moves to a step that starts a chapter and reveals it. The
// history log is left as it was.
func (c *Controller) JumpToChapter(index int) Result {
	if c.script.Len() == 0 {
		return c.log("jump", noOp(ReasonEmptyScript))
	}
	return c.log("jump", c.cursor.jump(c.script, c.opts, index))
}

// ListChapters returns the chapter menu.
func (c *Controller) ListChapters() []script.Chapter {
	return c.script.Chapters()
}

// History returns a copy of the reading log.
func (c *Controller) History() []HistoryEntry {
	out := make([]HistoryEntry, len(c.cursor.history))
	copy(out, c.cursor.history)
	return out
}

// Current returns the view on screen, if any step has been revealed.
func (c *Controller) Current() (View, bool) {
	if c.cursor.current == nil {
		return View{}, false
	}
	return *c.cursor.current, true
}

// Index returns the position of the next unread step.
func (c *Controller) Index() int {
	return c.cursor.index
}

// Pending returns how many chunks of the current step are still queued.
func (c *Controller) Pending() int {
	return c.cursor.Pending()
}

// AtEnd reports whether advancing would be a no-op.
func (c *Controller) AtEnd() bool {
	return c.cursor.Pending() == 0 && c.cursor.index >= c.script.Len()
}

// Script returns the script being played.
func (c *Controller) Script() *script.Script {
	return c.script
}

// Options returns the pagination options in use.
func (c *Controller) Options() paginate.Options {
	return c.opts
}

func (c *Controller) log(op string, r Result) Result {
	if r.Transitioned() {
		c.logger.Debug("Playback transition",
			"op", op,
			"step", r.View.StepIndex,
			"chunk", r.View.Chunk,
			"chunks", r.View.Chunks,
			"index", c.cursor.index)
	} else {
		c.logger.Debug("Playback no-op",
			"op", op,
			"reason", r.Reason,
			"index", c.cursor.index)
	}
	return r
}
