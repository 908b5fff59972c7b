package main

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/jwebster45206/novel-engine/pkg/present"
	"github.com/jwebster45206/novel-engine/pkg/script"
	"github.com/muesli/reflow/wordwrap"
)

// stage is the console's presenter. It keeps the last frame and the last
// portrait shown in each slot, so the listener stays on screen dimmed.
type stage struct {
	frame *present.Frame
	left  portrait
	right portrait
}

type portrait struct {
	name  string
	path  string
	color string
}

var _ present.Presenter = (*stage)(nil)

func newStage() *stage {
	return &stage{}
}

// Present implements present.Presenter.
func (s *stage) Present(f present.Frame) error {
	s.frame = &f
	p := portrait{name: f.NamePlate, path: f.Portrait, color: f.NameColor}
	switch f.Side {
	case script.SideLeft:
		s.left = p
	case script.SideRight:
		s.right = p
	}
	return nil
}

// Reset clears the stage for a new script.
func (s *stage) Reset() {
	*s = stage{}
}

// Frame returns the frame on screen.
func (s *stage) Frame() (present.Frame, bool) {
	if s.frame == nil {
		return present.Frame{}, false
	}
	return *s.frame, true
}

var (
	backgroundStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Italic(true)

	chapterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)

	portraitStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(1, 2).
			Align(lipgloss.Center)

	dimmedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Faint(true)

	dialogueStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), true, false).
			BorderForeground(lipgloss.Color("240")).
			Padding(1, 2)

	indicatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))
)

// namedColors maps CSS color names used by scripts to ANSI colors.
var namedColors = map[string]string{
	"black":   "0",
	"red":     "1",
	"green":   "2",
	"yellow":  "3",
	"blue":    "4",
	"magenta": "5",
	"cyan":    "6",
	"white":   "15",
	"gray":    "8",
	"grey":    "8",
}

// termColor converts a script color to a terminal color. Unknown names are
// reported as not ok and left to the terminal's default.
func termColor(c string) (lipgloss.Color, bool) {
	c = strings.ToLower(strings.TrimSpace(c))
	switch {
	case c == "":
		return "", false
	case strings.HasPrefix(c, "#"):
		return lipgloss.Color(c), true
	}
	if ansi, ok := namedColors[c]; ok {
		return lipgloss.Color(ansi), true
	}
	if _, err := strconv.Atoi(c); err == nil {
		return lipgloss.Color(c), true
	}
	return "", false
}

// namePlate draws the speaker's name on the character's color.
func namePlate(f present.Frame) string {
	if f.NamePlate == "" {
		return ""
	}
	style := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	if bg, ok := termColor(f.NameColor); ok {
		style = style.Background(bg)
	}
	if fg, ok := termColor(f.TextColor); ok {
		style = style.Foreground(fg)
	}
	return style.Render(f.NamePlate)
}

func (p portrait) render(width int, dim bool) string {
	body := " "
	if p.name != "" {
		body = p.name
		if p.path != "" {
			body += "\n" + path.Base(p.path)
		}
	}
	style := portraitStyle.Width(width)
	if c, ok := termColor(p.color); ok {
		style = style.BorderForeground(c)
	}
	if dim {
		style = style.Inherit(dimmedStyle).BorderForeground(lipgloss.Color("238"))
	}
	return style.Render(body)
}

// indicator shows whether the line continues.
func indicator(f present.Frame, atEnd bool) string {
	switch {
	case f.HasMore():
		return indicatorStyle.Render(fmt.Sprintf("▼ %d/%d", f.Chunk, f.Chunks))
	case atEnd:
		return indicatorStyle.Render("[end]")
	default:
		return indicatorStyle.Render("▶")
	}
}

// render draws the stage for a terminal of the given width.
func (s *stage) render(width int, atEnd bool) string {
	if s.frame == nil {
		return promptStyle.Render("Press Enter to begin.")
	}
	f := *s.frame
	if width < 20 {
		width = 20
	}

	bg := f.BackgroundID
	if bg == "" {
		bg = "no background"
	}
	header := backgroundStyle.Render("▣ " + bg)
	if f.Chapter != "" {
		header += "  " + chapterStyle.Render(f.Chapter)
	}

	slotWidth := width/2 - 4
	portraits := lipgloss.JoinHorizontal(lipgloss.Top,
		s.left.render(slotWidth, f.DimLeft),
		"  ",
		s.right.render(slotWidth, f.DimRight),
	)

	var text strings.Builder
	if plate := namePlate(f); plate != "" {
		text.WriteString(plate + "\n\n")
	}
	text.WriteString(wordwrap.String(f.Text, width-6))
	text.WriteString("\n\n" + indicator(f, atEnd))

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		"",
		portraits,
		"",
		dialogueStyle.Width(width-2).Render(text.String()),
	)
}
