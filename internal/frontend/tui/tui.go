// Package tui is the terminal frontend. It renders frames published by the
// game loop and turns key presses into player actions; it never touches the
// session directly.
package tui

import (
	"strconv"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cory-johannsen/dungeon/internal/game/turn"
	"github.com/cory-johannsen/dungeon/internal/gameserver"
)

// logHeight is the number of message lines shown below the arena.
const logHeight = 6

// Controller is the loop side of the frontend.
type Controller interface {
	Submit(a turn.Action) bool
	RequestLoad(slot string) bool
}

type inputMode uint8

const (
	modePlay inputMode = iota
	modeDrop
	modeConfirmQuit
)

// frameMsg carries a published frame into the Update loop.
type frameMsg gameserver.Frame

// framesClosedMsg reports that the frame channel was closed.
type framesClosedMsg struct{}

// Model is the Bubble Tea model for the game screen.
type Model struct {
	ctrl      Controller
	frames    <-chan gameserver.Frame
	quickSlot string

	keys keyMap
	help help.Model
	log  viewport.Model

	frame         gameserver.Frame
	hasFrame      bool
	mode          inputMode
	showInventory bool
	width         int
	height        int
	ready         bool
	quitting      bool
}

// New creates a model reading frames from frames and sending input to ctrl.
// The load key restores quickSlot.
func New(ctrl Controller, frames <-chan gameserver.Frame, quickSlot string) Model {
	return Model{
		ctrl:      ctrl,
		frames:    frames,
		quickSlot: quickSlot,
		keys:      defaultKeyMap(),
		help:      help.New(),
	}
}

// Init waits for the first frame.
func (m Model) Init() tea.Cmd {
	return waitForFrame(m.frames)
}

func waitForFrame(ch <-chan gameserver.Frame) tea.Cmd {
	return func() tea.Msg {
		f, ok := <-ch
		if !ok {
			return framesClosedMsg{}
		}
		return frameMsg(f)
	}
}

// Update handles key presses, window resizes and frames.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		if !m.ready {
			m.log = viewport.New(msg.Width, logHeight)
			m.log.KeyMap = viewportKeyMap()
			m.ready = true
		} else {
			m.log.Width = msg.Width
		}
		m.refreshLog()
		return m, nil

	case frameMsg:
		m.frame = gameserver.Frame(msg)
		m.hasFrame = true
		m.refreshLog()
		return m, waitForFrame(m.frames)

	case framesClosedMsg:
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.ForceQuit) {
		m.quitting = true
		return m, tea.Quit
	}
	if m.frame.Status.Over() {
		switch msg.String() {
		case "q", "enter", "esc":
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	switch m.mode {
	case modeConfirmQuit:
		m.mode = modePlay
		if msg.String() == "y" {
			m.ctrl.Submit(turn.Quit())
		}
		return m, nil
	case modeDrop:
		m.mode = modePlay
		if slot, ok := slotKey(msg); ok {
			m.ctrl.Submit(turn.DropItem(slot))
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.Quit):
		m.mode = modeConfirmQuit
		return m, nil
	case key.Matches(msg, m.keys.ScrollUp), key.Matches(msg, m.keys.ScrollDown):
		var cmd tea.Cmd
		m.log, cmd = m.log.Update(msg)
		return m, cmd
	case key.Matches(msg, m.keys.Inventory):
		m.showInventory = !m.showInventory
		return m, nil
	case key.Matches(msg, m.keys.Drop):
		m.mode = modeDrop
		return m, nil
	case key.Matches(msg, m.keys.Load):
		m.ctrl.RequestLoad(m.quickSlot)
		return m, nil
	}

	if a, ok := m.action(msg); ok {
		m.ctrl.Submit(a)
	}
	return m, nil
}

// action maps a key to the player action it requests.
func (m Model) action(msg tea.KeyMsg) (turn.Action, bool) {
	for _, d := range m.keys.moves() {
		if key.Matches(msg, d.binding) {
			return turn.Move(d.dir), true
		}
	}
	for _, d := range m.keys.attacks() {
		if key.Matches(msg, d.binding) {
			return turn.Attack(d.dir), true
		}
	}
	switch {
	case key.Matches(msg, m.keys.Wait):
		return turn.Wait(), true
	case key.Matches(msg, m.keys.Descend):
		return turn.Descend(), true
	case key.Matches(msg, m.keys.Ascend):
		return turn.Ascend(), true
	case key.Matches(msg, m.keys.Pause):
		return turn.Action{Kind: turn.KindPause}, true
	case key.Matches(msg, m.keys.Save):
		return turn.Action{Kind: turn.KindSave}, true
	case key.Matches(msg, m.keys.Use):
		if slot, ok := slotKey(msg); ok {
			return turn.UseItem(slot), true
		}
	}
	return turn.Action{}, false
}

// slotKey maps "1".."9" to inventory slots 0..8.
func slotKey(msg tea.KeyMsg) (int, bool) {
	n, err := strconv.Atoi(msg.String())
	if err != nil || n < 1 || n > 9 {
		return 0, false
	}
	return n - 1, true
}

func (m *Model) refreshLog() {
	if !m.ready {
		return
	}
	m.log.SetContent(renderMessages(m.frame))
	m.log.GotoBottom()
}

func (m Model) prompt() string {
	switch m.mode {
	case modeDrop:
		return "Drop which item? (1-9)"
	case modeConfirmQuit:
		return "Really quit? (y/n)"
	}
	return ""
}

// View renders arena and HUD side by side above the log, status bar and help.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.hasFrame || !m.ready {
		return "Entering the dungeon..."
	}

	side := renderHUD(m.frame)
	if m.showInventory {
		side = lipgloss.JoinVertical(lipgloss.Left, side, "", renderInventory(m.frame))
	}
	top := lipgloss.JoinHorizontal(lipgloss.Top, renderArena(m.frame), "  ", side)

	parts := []string{top}
	if banner := renderBanner(m.frame); banner != "" {
		parts = append(parts, banner)
	}
	parts = append(parts,
		m.log.View(),
		renderStatusBar(m.frame, m.width, m.prompt()),
		m.help.View(m.keys),
	)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// viewportKeyMap limits log scrolling to page keys; every other key is a
// game command.
func viewportKeyMap() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageDown: key.NewBinding(key.WithDisabled()),
		HalfPageUp:   key.NewBinding(key.WithDisabled()),
		Up:           key.NewBinding(key.WithDisabled()),
		Down:         key.NewBinding(key.WithDisabled()),
		Left:         key.NewBinding(key.WithDisabled()),
		Right:        key.NewBinding(key.WithDisabled()),
	}
}

// Program runs the model as a server.Service.
type Program struct {
	prog   *tea.Program
	hub    *gameserver.FrameHub
	frames chan gameserver.Frame
}

// NewProgram subscribes to hub and builds the Bubble Tea program. Extra
// options are passed to tea.NewProgram after the alternate-screen default.
func NewProgram(ctrl Controller, hub *gameserver.FrameHub, quickSlot string, opts ...tea.ProgramOption) *Program {
	frames := make(chan gameserver.Frame, 4)
	hub.Subscribe(frames)
	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	return &Program{
		prog:   tea.NewProgram(New(ctrl, frames, quickSlot), opts...),
		hub:    hub,
		frames: frames,
	}
}

// Start runs the program until the player leaves.
func (p *Program) Start() error {
	defer p.hub.Unsubscribe(p.frames)
	_, err := p.prog.Run()
	return err
}

// Stop asks the program to exit.
func (p *Program) Stop() { p.prog.Quit() }
