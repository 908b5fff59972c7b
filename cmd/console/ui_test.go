package main

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/jwebster45206/novel-engine/internal/config"
	"github.com/jwebster45206/novel-engine/internal/saves"
	"github.com/jwebster45206/novel-engine/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const demoScript = `{
  "name": "Demo",
  "characters": {
    "ichiyo": {"side": "left", "name_color": "#FF5809", "sprites": {"normal": "assets/char/21.png"}},
    "kei": {"side": "right", "name_color": "#E6CAFF", "text_color": "black", "sprites": {"normal": "assets/char/947.png"}}
  },
  "backgrounds": {"room": "assets/bg/room.jpg", "park": "assets/bg/park.jpg"},
  "steps": [
    {"text": "Morning light.", "bg": "room"},
    {"speaker": "ichiyo", "text": "Good morning."},
    {"speaker": "kei", "text": "Morning.", "chapter": "Chapter 2", "bg": "park"},
    {"speaker": "ichiyo", "text": "Shall we go?"}
  ]
}`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

type testUI struct {
	t     *testing.T
	model ConsoleUI
}

func newTestUI(t *testing.T) *testUI {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "scripts"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scripts", "demo.json"), []byte(demoScript), 0o644))

	store, err := saves.Open(filepath.Join(dir, "saves.db"), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	cfg := &config.Config{DataDir: dir, TextLimit: 80}
	m := NewConsoleUI(cfg, storage.NewScriptLibrary(dir, testLogger()), store, testLogger())
	ui := &testUI{t: t, model: m}
	ui.send(tea.WindowSizeMsg{Width: 100, Height: 40})
	ui.run(m.Init())
	return ui
}

// send feeds a message and runs every command it produces, synchronously.
func (u *testUI) send(msg tea.Msg) {
	u.t.Helper()
	next, cmd := u.model.Update(msg)
	u.model = next.(ConsoleUI)
	u.run(cmd)
}

func (u *testUI) run(cmd tea.Cmd) {
	u.t.Helper()
	if cmd == nil {
		return
	}
	msg := cmd()
	if msg == nil {
		return
	}
	if _, quit := msg.(tea.QuitMsg); quit {
		return
	}
	u.send(msg)
}

func (u *testUI) key(k tea.KeyType) {
	u.send(tea.KeyMsg{Type: k})
}

func (u *testUI) press(r string) {
	u.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(r)})
}

func (u *testUI) frameText() string {
	f, ok := u.model.stage.Frame()
	require.True(u.t, ok)
	return f.Text
}

func startDemo(t *testing.T) *testUI {
	ui := newTestUI(t)
	require.Equal(t, []string{"Demo"}, ui.model.scripts)
	ui.key(tea.KeyEnter)
	require.False(t, ui.model.showScriptModal)
	return ui
}

func TestConsoleUI_OpenScriptShowsFirstLine(t *testing.T) {
	ui := startDemo(t)
	assert.Equal(t, "Morning light.", ui.frameText())
	assert.Equal(t, 1, ui.model.session.State.Index)
	assert.Equal(t, "demo.json", ui.model.session.Script)
	assert.Contains(t, ui.model.View(), "Morning light.")
}

func TestConsoleUI_Navigation(t *testing.T) {
	ui := startDemo(t)

	ui.key(tea.KeyEnter)
	assert.Equal(t, "Good morning.", ui.frameText())
	ui.key(tea.KeySpace)
	assert.Equal(t, "Morning.", ui.frameText())

	f, _ := ui.model.stage.Frame()
	assert.True(t, f.DimLeft)
	assert.False(t, f.DimRight)
	assert.Equal(t, "ichiyo", ui.model.stage.left.name)
	assert.Equal(t, "kei", ui.model.stage.right.name)

	ui.key(tea.KeyBackspace)
	assert.Equal(t, "Good morning.", ui.frameText())
	ui.key(tea.KeyLeft)
	assert.Equal(t, "Morning light.", ui.frameText())
	ui.key(tea.KeyLeft)
	assert.Contains(t, ui.model.status, "Already at the first line.")

	ui.send(tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	assert.Equal(t, "Good morning.", ui.frameText())
}

func TestConsoleUI_EndOfScript(t *testing.T) {
	ui := startDemo(t)
	for i := 0; i < 3; i++ {
		ui.key(tea.KeyEnter)
	}
	assert.Equal(t, "Shall we go?", ui.frameText())
	assert.True(t, ui.model.controller.AtEnd())

	ui.key(tea.KeyEnter)
	assert.Equal(t, "Shall we go?", ui.frameText())
	assert.Contains(t, ui.model.status, "The end.")
}

func TestConsoleUI_ChapterMenu(t *testing.T) {
	ui := startDemo(t)

	ui.press("c")
	require.True(t, ui.model.showChapters)
	require.Len(t, ui.model.chapters, 1)
	assert.Contains(t, ui.model.View(), "Chapter 2")

	ui.key(tea.KeyEnter)
	assert.False(t, ui.model.showChapters)
	assert.Equal(t, "Morning.", ui.frameText())
	assert.Equal(t, 3, ui.model.controller.Index())

	ui.press("c")
	ui.key(tea.KeyEsc)
	assert.False(t, ui.model.showChapters)
	assert.False(t, ui.model.showQuitModal)
}

func TestConsoleUI_History(t *testing.T) {
	ui := startDemo(t)
	ui.key(tea.KeyEnter)
	ui.key(tea.KeyEnter)

	ui.press("h")
	require.True(t, ui.model.showHistory)
	view := ui.model.View()
	assert.Contains(t, view, "Morning light.")
	assert.Contains(t, view, "ichiyo:")
	assert.Contains(t, view, "Good morning.")

	// navigation keys scroll the log instead of advancing
	ui.key(tea.KeyEnter)
	assert.Equal(t, "Morning.", ui.frameText())

	ui.press("h")
	assert.False(t, ui.model.showHistory)
}

func TestConsoleUI_SaveAndLoad(t *testing.T) {
	ui := startDemo(t)
	ui.key(tea.KeyEnter)

	ui.press("s")
	require.Equal(t, slotsSave, ui.model.slotMode)
	ui.press("3")
	assert.Equal(t, slotsClosed, ui.model.slotMode)
	assert.Contains(t, ui.model.status, "Saved to slot 3")

	ui.key(tea.KeyEnter)
	ui.key(tea.KeyEnter)
	assert.Equal(t, "Shall we go?", ui.frameText())

	ui.press("l")
	require.Equal(t, slotsLoad, ui.model.slotMode)
	assert.Contains(t, ui.model.View(), "ichiyo: Good morning.")
	ui.press("3")
	assert.Contains(t, ui.model.status, "Loaded slot 3")
	assert.Equal(t, "Good morning.", ui.frameText())
	assert.Equal(t, 2, ui.model.controller.Index())

	ui.key(tea.KeyEnter)
	assert.Equal(t, "Morning.", ui.frameText())
}

func TestConsoleUI_LoadEmptySlot(t *testing.T) {
	ui := startDemo(t)
	ui.press("l")
	ui.press("7")
	assert.Contains(t, ui.model.status, "Slot 7 is empty")
	assert.Equal(t, "Morning light.", ui.frameText())
}

func TestConsoleUI_CopyLine(t *testing.T) {
	ui := startDemo(t)
	ui.key(tea.KeyEnter)

	var copied string
	ui.model.copyText = func(s string) error {
		copied = s
		return nil
	}
	ui.press("y")
	assert.Equal(t, "ichiyo: Good morning.", copied)
	assert.Contains(t, ui.model.status, "Copied")

	ui.model.copyText = func(string) error { return errors.New("no clipboard") }
	ui.press("y")
	assert.Contains(t, ui.model.status, "Clipboard unavailable")
}

func TestConsoleUI_QuitModal(t *testing.T) {
	ui := startDemo(t)

	ui.key(tea.KeyEsc)
	require.True(t, ui.model.showQuitModal)
	ui.press("n")
	assert.False(t, ui.model.showQuitModal)
	assert.False(t, ui.model.showScriptModal)

	ui.key(tea.KeyCtrlC)
	_, cmd := ui.model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("y")})
	require.NotNil(t, cmd)
	_, quit := cmd().(tea.QuitMsg)
	assert.True(t, quit)
}

func TestConsoleUI_NoScripts(t *testing.T) {
	dir := t.TempDir()
	cfg := &config.Config{DataDir: dir, TextLimit: 80}
	ui := &testUI{t: t, model: NewConsoleUI(cfg, storage.NewScriptLibrary(dir, testLogger()), nil, testLogger())}
	ui.send(tea.WindowSizeMsg{Width: 80, Height: 30})
	ui.run(ui.model.Init())

	assert.Empty(t, ui.model.scripts)
	assert.Contains(t, ui.model.View(), "No Scripts")
	ui.key(tea.KeyEnter)
	assert.True(t, ui.model.showScriptModal)
}

func TestConsoleUI_SavingUnavailable(t *testing.T) {
	ui := startDemo(t)
	ui.model.saves = nil
	ui.press("s")
	assert.Equal(t, slotsClosed, ui.model.slotMode)
	assert.Contains(t, ui.model.status, "unavailable")
}

func TestTermColor(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"#FF5809", "#ff5809", true},
		{"black", "0", true},
		{"White", "15", true},
		{"212", "212", true},
		{"", "", false},
		{"chartreuse", "", false},
	}
	for _, tt := range tests {
		got, ok := termColor(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.want, string(got), tt.in)
	}
}

func TestStage_KeepsListenerPortrait(t *testing.T) {
	ui := startDemo(t)
	ui.key(tea.KeyEnter)
	ui.key(tea.KeyEnter)

	out := ui.model.stage.render(90, false)
	assert.Contains(t, out, "21.png")
	assert.Contains(t, out, "947.png")
	assert.True(t, strings.Contains(out, "park"))

	ui.model.stage.Reset()
	_, ok := ui.model.stage.Frame()
	assert.False(t, ok)
	assert.NotPanics(t, func() { _ = ui.model.stage.render(90, false) })
}
