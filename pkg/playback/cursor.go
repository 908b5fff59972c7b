package playback

import (
	"github.com/jwebster45206/novel-engine/pkg/paginate"
	"github.com/jwebster45206/novel-engine/pkg/script"
)

// HistoryEntry is one line of the reading log.
type HistoryEntry struct {
	StepIndex int    `json:"step_index"`
	Speaker   string `json:"speaker"`
	Text      string `json:"text"`
}

// Cursor tracks reading progress through a script.
//
// index points at the next unread step; index == i+1 after step i has been
// revealed. queue holds the chunks of the current step that have not been
// shown yet and is only non-empty while that step is being revealed.
type Cursor struct {
	index   int
	queue   []string
	history []HistoryEntry
	current *View
}

// Index returns the position of the next unread step.
func (c *Cursor) Index() int {
	return c.index
}

// Pending returns how many chunks of the current step are still queued.
func (c *Cursor) Pending() int {
	return len(c.queue)
}

func (c *Cursor) advance(s *script.Script, opts paginate.Options) Result {
	if len(c.queue) > 0 && c.current != nil {
		v := *c.current
		v.Text = c.queue[0]
		v.Chunk++
		c.queue = c.queue[1:]
		c.current = &v
		return transitioned(v)
	}

	if c.index >= s.Len() {
		return noOp(ReasonEndOfScript)
	}

	if c.index > 0 {
		c.appendHistory(s, c.index-1)
	}
	return c.consume(s, opts)
}

// consume reveals the step at index and moves past it.
func (c *Cursor) consume(s *script.Script, opts paginate.Options) Result {
	step, ok := s.At(c.index)
	if !ok {
		return noOp(ReasonEndOfScript)
	}
	i := c.index
	c.index++
	c.queue = nil

	chunks := []string{step.Text}
	if step.Text != "" && opts.NeedsPagination(step.Text) {
		chunks = paginate.Paginate(step.Text, opts)
	}
	if len(chunks) > 1 {
		c.queue = append([]string(nil), chunks[1:]...)
	}

	v := newView(s, i, step, chunks[0], len(chunks))
	c.current = &v
	return transitioned(v)
}

// appendHistory logs step i unless it is already the last entry.
func (c *Cursor) appendHistory(s *script.Script, i int) {
	if n := len(c.history); n > 0 && c.history[n-1].StepIndex == i {
		return
	}
	step, ok := s.At(i)
	if !ok {
		return
	}
	c.history = append(c.history, HistoryEntry{
		StepIndex: i,
		Speaker:   step.SpeakerName(),
		Text:      step.Text,
	})
}

// rewind re-reveals the step before the current one. Its history entry is
// dropped only when it was logged by reading past it; after a chapter jump the
// target may be a skipped step that never entered the log.
func (c *Cursor) rewind(s *script.Script, opts paginate.Options) Result {
	if c.index <= 1 {
		return noOp(ReasonNothingToRewind)
	}
	target := c.index - 2
	if n := len(c.history); n > 0 && c.history[n-1].StepIndex == target {
		c.history = c.history[:n-1]
	}
	c.index = target
	c.queue = nil
	return c.consume(s, opts)
}

func (c *Cursor) jump(s *script.Script, opts paginate.Options, target int) Result {
	if !s.IsChapterStart(target) {
		return noOp(ReasonInvalidChapter)
	}
	c.queue = nil
	c.index = target
	return c.consume(s, opts)
}
