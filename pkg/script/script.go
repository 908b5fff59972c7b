package script

// NarratorID is the sentinel speaker used for narration lines.
const NarratorID = "Narrator"

// DefaultEmotion is used when a step does not name one.
const DefaultEmotion = "normal"

// Step is one beat of the script: a line of dialogue or narration plus staging.
type Step struct {
	Speaker string `json:"speaker,omitempty" yaml:"speaker,omitempty"` // character id; empty or "Narrator" for narration
	Text    string `json:"text,omitempty" yaml:"text,omitempty"`
	BG      string `json:"bg,omitempty" yaml:"bg,omitempty"`           // background id, only set when the scene changes
	Emotion string `json:"emotion,omitempty" yaml:"emotion,omitempty"` // sprite key; defaults to "normal"
	Chapter string `json:"chapter,omitempty" yaml:"chapter,omitempty"` // chapter title starting at this step
}

// IsNarration reports whether the step has no attributed speaker.
func (s Step) IsNarration() bool {
	return s.Speaker == "" || s.Speaker == NarratorID
}

// SpeakerName is the name shown on the name plate, empty for narration.
func (s Step) SpeakerName() string {
	if s.IsNarration() {
		return ""
	}
	return s.Speaker
}

// EmotionOrDefault returns the step's emotion or DefaultEmotion.
func (s Step) EmotionOrDefault() string {
	if s.Emotion == "" {
		return DefaultEmotion
	}
	return s.Emotion
}

// IsEmpty reports a step with nothing to show. It is still a valid transition.
func (s Step) IsEmpty() bool {
	return s.Text == "" && s.BG == "" && s.Speaker == ""
}

// Chapter is an entry of the chapter menu.
type Chapter struct {
	Title string `json:"title"`
	Index int    `json:"index"` // step index the chapter starts at
}

// Script is a complete, read-only story document.
type Script struct {
	Name        string               `json:"name" yaml:"name"`
	FileName    string               `json:"file_name,omitempty" yaml:"file_name,omitempty"`
	Description string               `json:"description,omitempty" yaml:"description,omitempty"`
	Characters  map[string]Character `json:"characters,omitempty" yaml:"characters,omitempty"`
	Backgrounds map[string]string    `json:"backgrounds,omitempty" yaml:"backgrounds,omitempty"` // background id -> image path
	Steps       []Step               `json:"steps" yaml:"steps"`
}

// Len returns the number of steps.
func (s *Script) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Steps)
}

// At returns a copy of step i.
func (s *Script) At(i int) (Step, bool) {
	if s == nil || i < 0 || i >= len(s.Steps) {
		return Step{}, false
	}
	return s.Steps[i], true
}

// Chapters lists the steps carrying a chapter label, in script order.
func (s *Script) Chapters() []Chapter {
	chapters := make([]Chapter, 0)
	if s == nil {
		return chapters
	}
	for i, step := range s.Steps {
		if step.Chapter != "" {
			chapters = append(chapters, Chapter{Title: step.Chapter, Index: i})
		}
	}
	return chapters
}

// IsChapterStart reports whether step i carries a chapter label.
func (s *Script) IsChapterStart(i int) bool {
	step, ok := s.At(i)
	return ok && step.Chapter != ""
}

// BackgroundAt returns the background in effect at step i: the nearest
// background named at or before i, or "" if none has been set yet.
func (s *Script) BackgroundAt(i int) string {
	if s == nil {
		return ""
	}
	if i >= len(s.Steps) {
		i = len(s.Steps) - 1
	}
	for ; i >= 0; i-- {
		if bg := s.Steps[i].BG; bg != "" {
			return bg
		}
	}
	return ""
}

// BackgroundPath looks up the image path registered for a background id.
func (s *Script) BackgroundPath(id string) (string, bool) {
	if s == nil || id == "" {
		return "", false
	}
	path, ok := s.Backgrounds[id]
	return path, ok && path != ""
}
