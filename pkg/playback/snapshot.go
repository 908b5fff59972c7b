package playback

import (
	"errors"
	"fmt"
)

// ErrInvalidSnapshot is returned when a snapshot does not fit the script.
var ErrInvalidSnapshot = errors.New("invalid playback snapshot")

// Snapshot is the serializable state of a Cursor.
type Snapshot struct {
	Index   int            `json:"index"`
	Queue   []string       `json:"queue,omitempty"`
	History []HistoryEntry `json:"history,omitempty"`
	Current *View          `json:"current,omitempty"`
}

// Snapshot captures the controller's cursor.
func (c *Controller) Snapshot() Snapshot {
	snap := Snapshot{
		Index:   c.cursor.index,
		History: c.History(),
	}
	if len(c.cursor.queue) > 0 {
		snap.Queue = append([]string(nil), c.cursor.queue...)
	}
	if c.cursor.current != nil {
		v := *c.cursor.current
		snap.Current = &v
	}
	return snap
}

// Restore replaces the cursor with a snapshot after checking it against the script.
func (c *Controller) Restore(snap Snapshot) error {
	n := c.script.Len()
	if snap.Index < 0 || snap.Index > n {
		return fmt.Errorf("%w: index %d outside 0..%d", ErrInvalidSnapshot, snap.Index, n)
	}
	if snap.Current == nil && (snap.Index > 0 || len(snap.Queue) > 0) {
		return fmt.Errorf("%w: index %d without a current view", ErrInvalidSnapshot, snap.Index)
	}
	if snap.Current != nil && snap.Current.StepIndex != snap.Index-1 {
		return fmt.Errorf("%w: current step %d does not precede index %d", ErrInvalidSnapshot, snap.Current.StepIndex, snap.Index)
	}
	if cur := snap.Current; cur != nil && (cur.Chunk < 1 || cur.Chunk+len(snap.Queue) != cur.Chunks) {
		return fmt.Errorf("%w: chunk %d of %d with %d queued", ErrInvalidSnapshot, cur.Chunk, cur.Chunks, len(snap.Queue))
	}
	for _, h := range snap.History {
		if h.StepIndex < 0 || h.StepIndex >= n {
			return fmt.Errorf("%w: history step %d outside script", ErrInvalidSnapshot, h.StepIndex)
		}
	}

	cur := Cursor{
		index:   snap.Index,
		history: append([]HistoryEntry(nil), snap.History...),
	}
	if len(snap.Queue) > 0 {
		cur.queue = append([]string(nil), snap.Queue...)
	}
	if snap.Current != nil {
		v := *snap.Current
		cur.current = &v
	}
	c.cursor = cur
	return nil
}
