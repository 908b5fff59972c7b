package script

// Side is where a character's portrait stands.
type Side string

const (
	SideNone  Side = ""
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Character describes how a speaker is drawn.
type Character struct {
	Side      Side              `json:"side,omitempty" yaml:"side,omitempty"`
	NameColor string            `json:"name_color,omitempty" yaml:"name_color,omitempty"`
	TextColor string            `json:"text_color,omitempty" yaml:"text_color,omitempty"`
	Sprites   map[string]string `json:"sprites,omitempty" yaml:"sprites,omitempty"` // emotion -> image path
}

// Sprite returns the portrait for an emotion, if the character has one.
func (c Character) Sprite(emotion string) (string, bool) {
	if emotion == "" {
		emotion = DefaultEmotion
	}
	path, ok := c.Sprites[emotion]
	return path, ok && path != ""
}

// Character looks up a speaker.
func (s *Script) Character(speaker string) (Character, bool) {
	if s == nil || speaker == "" {
		return Character{}, false
	}
	c, ok := s.Characters[speaker]
	return c, ok
}

// SideOf returns the layout side of a speaker, SideNone if unknown or unplaced.
func (s *Script) SideOf(speaker string) Side {
	c, ok := s.Character(speaker)
	if !ok {
		return SideNone
	}
	switch c.Side {
	case SideLeft, SideRight:
		return c.Side
	default:
		return SideNone
	}
}

// Opposite returns the other portrait slot.
func (side Side) Opposite() Side {
	switch side {
	case SideLeft:
		return SideRight
	case SideRight:
		return SideLeft
	default:
		return SideNone
	}
}
