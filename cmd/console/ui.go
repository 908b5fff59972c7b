package main

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/jwebster45206/novel-engine/internal/config"
	"github.com/jwebster45206/novel-engine/internal/saves"
	"github.com/jwebster45206/novel-engine/pkg/playback"
	"github.com/jwebster45206/novel-engine/pkg/present"
	"github.com/jwebster45206/novel-engine/pkg/script"
	"github.com/muesli/reflow/wordwrap"
)

const (
	AppTitle   = "NOVEL ENGINE"
	ioTimeout  = 5 * time.Second
	helpFooter = "Enter/Space: next • ←/Backspace: back • c: chapters • h: history • s/l: save/load • y: copy • Esc: quit"
)

type scriptSource interface {
	List(ctx context.Context) (map[string]string, error)
	Get(ctx context.Context, filename string) (*script.Script, error)
}

type slotStore interface {
	Save(ctx context.Context, slot int, sess *playback.Session, label string) error
	Load(ctx context.Context, slot int) (*saves.Slot, error)
	List(ctx context.Context) ([]saves.Slot, error)
}

type slotMode int

const (
	slotsClosed slotMode = iota
	slotsSave
	slotsLoad
)

// ConsoleUI is the BubbleTea model that runs the player.
// https://github.com/charmbracelet/bubbletea
type ConsoleUI struct {
	config   *config.Config
	library  scriptSource
	saves    slotStore
	logger   *slog.Logger
	copyText func(string) error

	controller *playback.Controller
	session    *playback.Session
	stage      *stage

	historyViewport viewport.Model
	ready           bool
	width           int
	height          int
	status          string
	err             error

	// Script selection state
	showScriptModal bool
	scripts         []string
	scriptMap       map[string]string
	selectedScript  int
	loadingScripts  bool
	loading         bool

	// Chapter menu state
	showChapters    bool
	chapters        []script.Chapter
	selectedChapter int

	showHistory bool

	// Save slot state
	slotMode     slotMode
	slots        map[int]saves.Slot
	selectedSlot int // 1-based
	loadingSlots bool

	// Quit confirmation state
	showQuitModal bool
}

type scriptsLoadedMsg struct {
	scripts   []string
	scriptMap map[string]string
	err       error
}

type scriptOpenedMsg struct {
	file   string
	script *script.Script
	err    error
}

type slotsLoadedMsg struct {
	slots []saves.Slot
	err   error
}

type slotSavedMsg struct {
	slot int
	err  error
}

type slotLoadedMsg struct {
	slot    int
	session *playback.Session
	script  *script.Script
	err     error
}

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	narratorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")) // teal

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	loadingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")) // yellow

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	screenStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingLeft(2).
			PaddingRight(2)

	modalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 2).
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("255"))

	modalTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true).
			Align(lipgloss.Center)

	modalItemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	modalSelectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)
)

func NewConsoleUI(cfg *config.Config, library scriptSource, store slotStore, logger *slog.Logger) ConsoleUI {
	if logger == nil {
		logger = slog.Default()
	}

	hv := viewport.New(60, 20)
	hv.MouseWheelEnabled = true

	return ConsoleUI{
		config:          cfg,
		library:         library,
		saves:           store,
		logger:          logger,
		copyText:        clipboard.WriteAll,
		stage:           newStage(),
		historyViewport: hv,
		showScriptModal: true,
		loadingScripts:  true,
		selectedSlot:    1,
	}
}

func (m ConsoleUI) Init() tea.Cmd {
	return m.loadScripts()
}

func (m ConsoleUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.historyViewport.Width = max(msg.Width-12, 20)
		m.historyViewport.Height = max(msg.Height-10, 5)
		if m.showHistory {
			m.writeHistory()
		}
		return m, nil

	// Results of background work land here whichever modal is open.
	case slotSavedMsg:
		if msg.err != nil {
			m.logger.Error("Save failed", "slot", msg.slot, "error", msg.err)
			m.status = errorStyle.Render("Save failed: " + msg.err.Error())
		} else {
			m.status = statusStyle.Render(fmt.Sprintf("Saved to slot %d", msg.slot))
		}
		return m, nil

	case slotLoadedMsg:
		if msg.err != nil {
			m.logger.Error("Load failed", "slot", msg.slot, "error", msg.err)
			m.status = errorStyle.Render("Load failed: " + msg.err.Error())
			return m, nil
		}
		m.resume(msg.session, msg.script)
		m.status = statusStyle.Render(fmt.Sprintf("Loaded slot %d", msg.slot))
		return m, nil
	}

	switch {
	case m.showScriptModal:
		return m.updateScriptModal(msg)
	case m.showQuitModal:
		return m.updateQuitModal(msg)
	case m.showChapters:
		return m.updateChapterMenu(msg)
	case m.showHistory:
		return m.updateHistory(msg)
	case m.slotMode != slotsClosed:
		return m.updateSlotMenu(msg)
	}

	switch msg := msg.(type) {
	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			m.apply(m.controller.Advance())
		}

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showQuitModal = true
		case tea.KeyEnter, tea.KeySpace, tea.KeyRight:
			m.apply(m.controller.Advance())
		case tea.KeyBackspace, tea.KeyLeft:
			m.apply(m.controller.Rewind())
		case tea.KeyRunes:
			switch msg.String() {
			case "c":
				m.chapters = m.controller.ListChapters()
				m.selectedChapter = 0
				m.showChapters = true
			case "h":
				m.showHistory = true
				m.writeHistory()
			case "s":
				return m.openSlots(slotsSave)
			case "l":
				return m.openSlots(slotsLoad)
			case "y":
				m.copyLine()
			}
		}
	}

	return m, nil
}

// apply shows the result of a navigation input.
func (m *ConsoleUI) apply(r playback.Result) {
	if !r.Transitioned() {
		m.status = promptStyle.Render(reasonText(r.Reason))
		return
	}
	m.status = ""
	m.present(*r.View)
	m.session.Capture(m.controller)
}

func (m *ConsoleUI) present(v playback.View) {
	frame := present.Resolve(v, m.controller.Script(), m.logger)
	if err := m.stage.Present(frame); err != nil {
		m.logger.Error("Failed to present frame", "step", frame.StepIndex, "error", err)
	}
}

// start begins a freshly opened script at its first step.
func (m *ConsoleUI) start(file string, s *script.Script) {
	m.controller = playback.NewController(s, m.config.PaginateOptions(), m.logger)
	m.session = playback.NewSession(file)
	m.stage.Reset()
	m.apply(m.controller.Advance())
}

// resume replaces the running playback with a saved one.
func (m *ConsoleUI) resume(sess *playback.Session, s *script.Script) {
	c, err := sess.Controller(s, m.config.PaginateOptions(), m.logger)
	if err != nil {
		m.status = errorStyle.Render("Load failed: " + err.Error())
		return
	}
	m.controller = c
	m.session = sess
	m.stage.Reset()
	if v, ok := c.Current(); ok {
		m.present(v)
	}
}

func (m *ConsoleUI) copyLine() {
	f, ok := m.stage.Frame()
	if !ok {
		return
	}
	line := f.Text
	if f.NamePlate != "" {
		line = f.NamePlate + ": " + line
	}
	if err := m.copyText(line); err != nil {
		m.logger.Warn("Clipboard unavailable", "error", err)
		m.status = errorStyle.Render("Clipboard unavailable")
		return
	}
	m.status = statusStyle.Render("Copied to clipboard")
}

func reasonText(r playback.Reason) string {
	switch r {
	case playback.ReasonEndOfScript:
		return "The end."
	case playback.ReasonNothingToRewind:
		return "Already at the first line."
	case playback.ReasonInvalidChapter:
		return "That chapter cannot be opened."
	case playback.ReasonEmptyScript:
		return "This script has no lines."
	default:
		return string(r)
	}
}

func (m ConsoleUI) loadScripts() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
		defer cancel()

		scriptMap, err := m.library.List(ctx)
		if err != nil {
			return scriptsLoadedMsg{err: err}
		}
		names := make([]string, 0, len(scriptMap))
		for name := range scriptMap {
			names = append(names, name)
		}
		sort.Strings(names)
		return scriptsLoadedMsg{scripts: names, scriptMap: scriptMap}
	}
}

func (m ConsoleUI) openScript(file string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
		defer cancel()

		s, err := m.library.Get(ctx, file)
		return scriptOpenedMsg{file: file, script: s, err: err}
	}
}

func (m ConsoleUI) updateScriptModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case scriptsLoadedMsg:
		m.loadingScripts = false
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.scripts = msg.scripts
			m.scriptMap = msg.scriptMap
		}

	case scriptOpenedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.showScriptModal = false
		m.ready = true
		m.start(msg.file, msg.script)

	case tea.KeyMsg:
		if m.loadingScripts || m.loading {
			if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyEsc {
				return m, tea.Quit
			}
			return m, nil
		}

		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			m.showScriptModal = false
			m.showQuitModal = true
		case tea.KeyUp:
			if m.selectedScript > 0 {
				m.selectedScript--
			}
		case tea.KeyDown:
			if m.selectedScript < len(m.scripts)-1 {
				m.selectedScript++
			}
		case tea.KeyEnter:
			if m.err == nil && len(m.scripts) > 0 {
				m.loading = true
				return m, m.openScript(m.scriptMap[m.scripts[m.selectedScript]])
			}
		}
	}

	return m, nil
}

func (m ConsoleUI) updateQuitModal(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc, tea.KeyEnter:
			return m, tea.Quit
		default:
			switch msg.String() {
			case "y", "Y":
				return m, tea.Quit
			case "n", "N":
				m.showQuitModal = false
				// back to script selection if nothing is playing yet
				m.showScriptModal = m.controller == nil
			}
		}
	}
	return m, nil
}

func (m ConsoleUI) updateChapterMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		m.showChapters = false
	case tea.KeyUp:
		if m.selectedChapter > 0 {
			m.selectedChapter--
		}
	case tea.KeyDown:
		if m.selectedChapter < len(m.chapters)-1 {
			m.selectedChapter++
		}
	case tea.KeyEnter:
		m.showChapters = false
		if len(m.chapters) > 0 {
			m.apply(m.controller.JumpToChapter(m.chapters[m.selectedChapter].Index))
		}
	case tea.KeyRunes:
		if key.String() == "c" {
			m.showChapters = false
		}
	}
	return m, nil
}

func (m ConsoleUI) updateHistory(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Type == tea.KeyEsc, key.Type == tea.KeyCtrlC, key.String() == "h":
			m.showHistory = false
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.historyViewport, cmd = m.historyViewport.Update(msg)
	return m, cmd
}

// writeHistory fills the history viewport with the reading log.
func (m *ConsoleUI) writeHistory() {
	width := m.historyViewport.Width - 2
	var content strings.Builder
	entries := m.controller.History()
	if len(entries) == 0 {
		content.WriteString(promptStyle.Render("Nothing read yet."))
	}
	for _, e := range entries {
		if e.Speaker == "" {
			content.WriteString(narratorStyle.Render(wordwrap.String(e.Text, width)))
		} else {
			content.WriteString(speakerStyle.Render(e.Speaker+":") + "\n")
			content.WriteString(wordwrap.String(e.Text, width))
		}
		content.WriteString("\n\n")
	}
	m.historyViewport.SetContent(content.String())
	m.historyViewport.GotoBottom()
}

func (m ConsoleUI) openSlots(mode slotMode) (tea.Model, tea.Cmd) {
	if m.saves == nil {
		m.status = errorStyle.Render("Saving is unavailable")
		return m, nil
	}
	m.slotMode = mode
	m.loadingSlots = true
	return m, m.listSlots()
}

func (m ConsoleUI) listSlots() tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
		defer cancel()

		slots, err := m.saves.List(ctx)
		return slotsLoadedMsg{slots: slots, err: err}
	}
}

func (m ConsoleUI) saveSlot(slot int) tea.Cmd {
	sess := *m.session
	f, _ := m.stage.Frame()
	label := f.Text
	if f.NamePlate != "" {
		label = f.NamePlate + ": " + label
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
		defer cancel()

		return slotSavedMsg{slot: slot, err: m.saves.Save(ctx, slot, &sess, label)}
	}
}

func (m ConsoleUI) loadSlot(slot int) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), ioTimeout)
		defer cancel()

		saved, err := m.saves.Load(ctx, slot)
		if err != nil {
			return slotLoadedMsg{slot: slot, err: err}
		}
		if saved == nil {
			return slotLoadedMsg{slot: slot, err: fmt.Errorf("slot %d is empty", slot)}
		}
		s, err := m.library.Get(ctx, saved.Script)
		if err != nil {
			return slotLoadedMsg{slot: slot, err: err}
		}
		return slotLoadedMsg{slot: slot, session: saved.Session, script: s}
	}
}

func (m ConsoleUI) updateSlotMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case slotsLoadedMsg:
		m.loadingSlots = false
		if msg.err != nil {
			m.logger.Error("Failed to list saves", "error", msg.err)
			m.slotMode = slotsClosed
			m.status = errorStyle.Render("Failed to list saves: " + msg.err.Error())
			return m, nil
		}
		m.slots = make(map[int]saves.Slot, len(msg.slots))
		for _, s := range msg.slots {
			m.slots[s.Number] = s
		}

	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyEsc, tea.KeyCtrlC:
			m.slotMode = slotsClosed
		case tea.KeyUp:
			if m.selectedSlot > 1 {
				m.selectedSlot--
			}
		case tea.KeyDown:
			if m.selectedSlot < saves.MaxSlots {
				m.selectedSlot++
			}
		case tea.KeyEnter:
			return m.chooseSlot(m.selectedSlot)
		case tea.KeyRunes:
			r := msg.Runes
			if len(r) == 1 && r[0] >= '1' && r[0] <= '0'+saves.MaxSlots {
				return m.chooseSlot(int(r[0] - '0'))
			}
		}
	}
	return m, nil
}

func (m ConsoleUI) chooseSlot(slot int) (tea.Model, tea.Cmd) {
	if m.loadingSlots {
		return m, nil
	}
	mode := m.slotMode
	m.slotMode = slotsClosed
	m.selectedSlot = slot
	if mode == slotsSave {
		return m, m.saveSlot(slot)
	}
	if _, ok := m.slots[slot]; !ok {
		m.status = promptStyle.Render(fmt.Sprintf("Slot %d is empty", slot))
		return m, nil
	}
	return m, m.loadSlot(slot)
}

func (m ConsoleUI) renderModal(content string, width int) string {
	modal := modalStyle.Width(width).Render(content)
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, modal, lipgloss.WithWhitespaceChars(" "))
}

func (m ConsoleUI) renderQuitModal() string {
	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Quit?"))
	content.WriteString("\n\n")
	content.WriteString("Are you sure you want to stop reading?")
	content.WriteString("\n\n")
	content.WriteString(promptStyle.Render("Press Y to quit, N to continue, or Ctrl+C to force quit"))
	return m.renderModal(content.String(), 50)
}

func (m ConsoleUI) renderScriptModal() string {
	var content strings.Builder

	switch {
	case m.loadingScripts:
		content.WriteString(modalTitleStyle.Render("Loading Scripts..."))
		content.WriteString("\n\n")
		content.WriteString(loadingStyle.Render("Looking for scripts in " + m.config.DataDir))
	case m.err != nil:
		content.WriteString(modalTitleStyle.Render("Error"))
		content.WriteString("\n\n")
		content.WriteString(errorStyle.Render(fmt.Sprintf("Failed to load scripts: %v", m.err)))
		content.WriteString("\n\n")
		content.WriteString("Press Ctrl+C to exit")
	case m.loading:
		content.WriteString(modalTitleStyle.Render("Opening Script..."))
	case len(m.scripts) == 0:
		content.WriteString(modalTitleStyle.Render("No Scripts"))
		content.WriteString("\n\n")
		content.WriteString("Add .json or .yaml scripts to " + m.config.DataDir + "/scripts")
	default:
		content.WriteString(modalTitleStyle.Render("Select a Script"))
		content.WriteString("\n\n")
		for i, name := range m.scripts {
			if i == m.selectedScript {
				content.WriteString(modalSelectedItemStyle.Render(fmt.Sprintf("▶ %s", name)))
			} else {
				content.WriteString(modalItemStyle.Render(fmt.Sprintf("  %s", name)))
			}
			content.WriteString("\n")
		}
		content.WriteString("\n")
		content.WriteString(promptStyle.Render("Use ↑/↓ to navigate, Enter to select, Ctrl+C to exit"))
	}

	return m.renderModal(content.String(), 60)
}

func (m ConsoleUI) renderChapterMenu() string {
	var content strings.Builder
	content.WriteString(modalTitleStyle.Render("Chapters"))
	content.WriteString("\n\n")
	if len(m.chapters) == 0 {
		content.WriteString(promptStyle.Render("This script has no chapters."))
	}
	for i, ch := range m.chapters {
		if i == m.selectedChapter {
			content.WriteString(modalSelectedItemStyle.Render("▶ " + ch.Title))
		} else {
			content.WriteString(modalItemStyle.Render("  " + ch.Title))
		}
		content.WriteString("\n")
	}
	content.WriteString("\n")
	content.WriteString(promptStyle.Render("Enter to jump, Esc to close"))
	return m.renderModal(content.String(), 50)
}

func (m ConsoleUI) renderHistory() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		modalTitleStyle.Render("History"),
		"",
		m.historyViewport.View(),
		"",
		promptStyle.Render("↑/↓ to scroll, h or Esc to close"),
	)
	return m.renderModal(content, m.historyViewport.Width+4)
}

func (m ConsoleUI) renderSlotMenu() string {
	var content strings.Builder
	title := "Save to Slot"
	if m.slotMode == slotsLoad {
		title = "Load Slot"
	}
	content.WriteString(modalTitleStyle.Render(title))
	content.WriteString("\n\n")

	if m.loadingSlots {
		content.WriteString(loadingStyle.Render("Reading save file..."))
		return m.renderModal(content.String(), 60)
	}

	for n := 1; n <= saves.MaxSlots; n++ {
		line := fmt.Sprintf("%d  (empty)", n)
		if s, ok := m.slots[n]; ok {
			label := s.Label
			if r := []rune(label); len(r) > 32 {
				label = string(r[:32]) + "…"
			}
			line = fmt.Sprintf("%d  %s  %s  %s", n, s.Script, s.SavedAt.Local().Format("01-02 15:04"), label)
		}
		if n == m.selectedSlot {
			content.WriteString(modalSelectedItemStyle.Render("▶ " + line))
		} else {
			content.WriteString(modalItemStyle.Render("  " + line))
		}
		content.WriteString("\n")
	}
	content.WriteString("\n")
	content.WriteString(promptStyle.Render("1-9 or Enter to choose, Esc to cancel"))
	return m.renderModal(content.String(), 70)
}

func (m ConsoleUI) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	switch {
	case m.showScriptModal:
		return m.renderScriptModal()
	case m.showQuitModal:
		return m.renderQuitModal()
	case !m.ready:
		return "\n  Initializing..."
	case m.showChapters:
		return m.renderChapterMenu()
	case m.showHistory:
		return m.renderHistory()
	case m.slotMode != slotsClosed:
		return m.renderSlotMenu()
	}

	width := m.width - 4
	title := titleStyle.Render(AppTitle) + "  " + promptStyle.Render(m.controller.Script().Name)
	return screenStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		m.stage.render(width, m.controller.AtEnd()),
		"",
		m.status,
		promptStyle.Render(wordwrap.String(helpFooter, width)),
	))
}
