package playback

import "github.com/jwebster45206/novel-engine/pkg/script"

// View is the presentation-ready state of one transition.
type View struct {
	StepIndex    int    `json:"step_index"`
	SpeakerID    string `json:"speaker_id,omitempty"` // lookup key into the character table
	SpeakerName  string `json:"speaker_name"`         // empty for narration
	Text         string `json:"text"`                 // the chunk to show now
	BackgroundID string `json:"background_id,omitempty"`
	Background   string `json:"background,omitempty"` // background in effect, including inherited ones
	Emotion      string `json:"emotion"`
	Chapter      string `json:"chapter,omitempty"`
	Chunk        int    `json:"chunk"`  // 1-based
	Chunks       int    `json:"chunks"` // total chunks of this step
}

// IsNarration reports whether the view has no name plate.
func (v View) IsNarration() bool {
	return v.SpeakerName == ""
}

// HasMore reports whether further chunks of the same step are queued.
func (v View) HasMore() bool {
	return v.Chunk < v.Chunks
}

func newView(s *script.Script, index int, step script.Step, text string, chunks int) View {
	return View{
		StepIndex:    index,
		SpeakerID:    step.Speaker,
		SpeakerName:  step.SpeakerName(),
		Text:         text,
		BackgroundID: step.BG,
		Background:   s.BackgroundAt(index),
		Emotion:      step.EmotionOrDefault(),
		Chapter:      step.Chapter,
		Chunk:        1,
		Chunks:       chunks,
	}
}

// Reason explains why an operation did not transition.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonEndOfScript     Reason = "end_of_script"
	ReasonNothingToRewind Reason = "nothing_to_rewind"
	ReasonInvalidChapter  Reason = "invalid_chapter"
	ReasonEmptyScript     Reason = "empty_script"
)

// Result is either a transition carrying a View, or a no-op with a Reason.
type Result struct {
	View   *View  `json:"view,omitempty"`
	Reason Reason `json:"reason,omitempty"`
}

// Transitioned reports whether the operation produced a new view.
func (r Result) Transitioned() bool {
	return r.View != nil
}

func transitioned(v View) Result {
	return Result{View: &v}
}

func noOp(reason Reason) Result {
	return Result{Reason: reason}
}
