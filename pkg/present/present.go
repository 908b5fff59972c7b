// Package present turns playback views into display frames.
package present

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/jwebster45206/novel-engine/pkg/playback"
	"github.com/jwebster45206/novel-engine/pkg/script"
)

// Frame is everything a display surface needs to draw one view.
type Frame struct {
	StepIndex      int         `json:"step_index"`
	NamePlate      string      `json:"name_plate"` // empty for narration
	NameColor      string      `json:"name_color,omitempty"`
	TextColor      string      `json:"text_color,omitempty"`
	Text           string      `json:"text"`
	Side           script.Side `json:"side,omitempty"`     // slot the portrait goes in
	Portrait       string      `json:"portrait,omitempty"` // sprite path
	BackgroundID   string      `json:"background_id,omitempty"`
	BackgroundPath string      `json:"background_path,omitempty"`
	DimLeft        bool        `json:"dim_left"`
	DimRight       bool        `json:"dim_right"`
	Chapter        string      `json:"chapter,omitempty"`
	Chunk          int         `json:"chunk"`
	Chunks         int         `json:"chunks"`
	Warnings       []string    `json:"warnings,omitempty"`
}

// HasMore reports whether the line continues in another chunk.
func (f Frame) HasMore() bool {
	return f.Chunk < f.Chunks
}

// Presenter is a sink for frames.
type Presenter interface {
	Present(Frame) error
}

// Resolve looks a view up in the script's character and background tables.
// Missing resources never fail: they are logged and listed in Frame.Warnings,
// and the visual they would have supplied is left out.
func Resolve(v playback.View, s *script.Script, logger *slog.Logger) Frame {
	if logger == nil {
		logger = slog.Default()
	}

	f := Frame{
		StepIndex:    v.StepIndex,
		NamePlate:    v.SpeakerName,
		Text:         v.Text,
		BackgroundID: v.Background,
		Chapter:      v.Chapter,
		Chunk:        v.Chunk,
		Chunks:       v.Chunks,
	}
	warn := func(msg string, args ...any) {
		f.Warnings = append(f.Warnings, fmt.Sprintf(msg, args...))
	}

	if v.Background != "" {
		if path, ok := s.BackgroundPath(v.Background); ok {
			f.BackgroundPath = path
		} else if v.BackgroundID != "" {
			// inherited backgrounds were already reported on the step that named them
			warn("unknown background %q", v.Background)
		}
	}

	if v.IsNarration() {
		f.DimLeft, f.DimRight = true, true
		if c, ok := s.Character(script.NarratorID); ok {
			f.NameColor, f.TextColor = c.NameColor, c.TextColor
		}
		return f.log(logger)
	}

	c, ok := s.Character(v.SpeakerID)
	if !ok {
		warn("unknown speaker %q", v.SpeakerID)
		return f.log(logger)
	}
	f.NameColor, f.TextColor = c.NameColor, c.TextColor

	side := s.SideOf(v.SpeakerID)
	if side == script.SideNone {
		return f.log(logger)
	}
	f.Side = side
	if sprite, ok := c.Sprite(v.Emotion); ok {
		f.Portrait = sprite
	} else {
		warn("no %q sprite for %q", v.Emotion, v.SpeakerID)
	}
	switch side.Opposite() {
	case script.SideLeft:
		f.DimLeft = true
	case script.SideRight:
		f.DimRight = true
	}
	return f.log(logger)
}

func (f Frame) log(logger *slog.Logger) Frame {
	for _, w := range f.Warnings {
		logger.Warn("Missing resource", "step", f.StepIndex, "warning", w)
	}
	return f
}

// JSONPresenter writes one JSON object per frame.
type JSONPresenter struct {
	enc *json.Encoder
}

// NewJSONPresenter creates a presenter writing to w.
func NewJSONPresenter(w io.Writer) *JSONPresenter {
	return &JSONPresenter{enc: json.NewEncoder(w)}
}

// Present encodes the frame as a single line.
func (p *JSONPresenter) Present(f Frame) error {
	if err := p.enc.Encode(f); err != nil {
		return fmt.Errorf("failed to encode frame: %w", err)
	}
	return nil
}

var _ Presenter = (*JSONPresenter)(nil)

// Play advances c to the end of its script and presents every frame.
func Play(c *playback.Controller, p Presenter, logger *slog.Logger) (int, error) {
	n := 0
	for {
		r := c.Advance()
		if !r.Transitioned() {
			return n, nil
		}
		if err := p.Present(Resolve(*r.View, c.Script(), logger)); err != nil {
			return n, err
		}
		n++
	}
}
