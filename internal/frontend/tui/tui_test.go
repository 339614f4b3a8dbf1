package tui

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/cory-johannsen/dungeon/internal/game/event"
	"github.com/cory-johannsen/dungeon/internal/game/session"
	"github.com/cory-johannsen/dungeon/internal/game/systems"
	"github.com/cory-johannsen/dungeon/internal/game/turn"
	"github.com/cory-johannsen/dungeon/internal/game/world"
	"github.com/cory-johannsen/dungeon/internal/gameserver"
)

type fakeController struct {
	actions []turn.Action
	loads   []string
}

func (f *fakeController) Submit(a turn.Action) bool {
	f.actions = append(f.actions, a)
	return true
}

func (f *fakeController) RequestLoad(slot string) bool {
	f.loads = append(f.loads, slot)
	return true
}

func sampleFrame() gameserver.Frame {
	return gameserver.Frame{
		Turn:       12,
		Arena:      world.Arena{Width: 6, Height: 4, Depth: 2},
		StatusText: "running",
		Entities: []gameserver.EntityView{
			{ID: 2, Name: "Rat", Glyph: "r", X: 2, Y: 1, Hostile: true, HP: 3, MaxHP: 5},
			{ID: 1, Name: "Tess", Glyph: "@", X: 1, Y: 1, Player: true, HP: 40, MaxHP: 100},
		},
		HUD: gameserver.HUD{
			Name: "Tess", HP: 40, MaxHP: 100, Level: 2, Depth: 2, Gold: 15,
			Satiety: 2, Hungry: true, Items: []string{"Bread", "Healing Potion"},
		},
		Messages: []session.Message{
			{Text: "The rat bites you.", Level: event.LogWarning},
		},
	}
}

func newModel(ctrl Controller) Model {
	m := New(ctrl, make(chan gameserver.Frame), "quick")
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	next, _ = next.(Model).Update(frameMsg(sampleFrame()))
	return next.(Model)
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "ctrl+c":
			msg = tea.KeyMsg{Type: tea.KeyCtrlC}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(Model)
	}
	return m
}

func TestKeysMapToActions(t *testing.T) {
	tests := []struct {
		key  string
		want turn.Action
	}{
		{"h", turn.Move(world.West)},
		{"l", turn.Move(world.East)},
		{"k", turn.Move(world.North)},
		{"up", turn.Move(world.North)},
		{"y", turn.Move(world.NorthWest)},
		{"n", turn.Move(world.SouthEast)},
		{"J", turn.Attack(world.South)},
		{"U", turn.Attack(world.NorthEast)},
		{".", turn.Wait()},
		{">", turn.Descend()},
		{"<", turn.Ascend()},
		{"2", turn.UseItem(1)},
		{"p", turn.Action{Kind: turn.KindPause}},
		{"S", turn.Action{Kind: turn.KindSave}},
	}
	for _, tt := range tests {
		ctrl := &fakeController{}
		press(newModel(ctrl), tt.key)
		if len(ctrl.actions) != 1 || ctrl.actions[0] != tt.want {
			t.Errorf("key %q: got %v, want [%v]", tt.key, ctrl.actions, tt.want)
		}
	}
}

func TestDropPromptsForSlot(t *testing.T) {
	ctrl := &fakeController{}
	m := press(newModel(ctrl), "d")
	if !strings.Contains(ansi.Strip(m.View()), "Drop which item?") {
		t.Error("drop prompt not shown")
	}
	m = press(m, "3")
	if len(ctrl.actions) != 1 || ctrl.actions[0] != turn.DropItem(2) {
		t.Errorf("got %v, want drop 2", ctrl.actions)
	}
	if m.mode != modePlay {
		t.Error("drop mode not left")
	}

	ctrl = &fakeController{}
	press(newModel(ctrl), "d", "x")
	if len(ctrl.actions) != 0 {
		t.Errorf("non-digit should cancel the drop, got %v", ctrl.actions)
	}
}

func TestQuitNeedsConfirmation(t *testing.T) {
	ctrl := &fakeController{}
	press(newModel(ctrl), "q", "n")
	if len(ctrl.actions) != 0 {
		t.Fatalf("declined quit sent %v", ctrl.actions)
	}
	press(newModel(ctrl), "q", "y")
	if len(ctrl.actions) != 1 || ctrl.actions[0] != turn.Quit() {
		t.Errorf("got %v, want quit", ctrl.actions)
	}
}

func TestLoadRequestsQuickSlot(t *testing.T) {
	ctrl := &fakeController{}
	press(newModel(ctrl), "O")
	if len(ctrl.loads) != 1 || ctrl.loads[0] != "quick" {
		t.Errorf("got loads %v", ctrl.loads)
	}
}

func TestForceQuit(t *testing.T) {
	m := newModel(&fakeController{})
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if cmd == nil {
		t.Fatal("ctrl+c returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("ctrl+c did not quit")
	}
	if next.(Model).View() != "" {
		t.Error("view should be empty after quitting")
	}
}

func TestGameOverOnlyLeaves(t *testing.T) {
	ctrl := &fakeController{}
	m := newModel(ctrl)
	f := sampleFrame()
	f.Status = systems.Status{Kind: systems.GameOver, Reason: systems.DefeatedBy("Rat")}
	next, _ := m.Update(frameMsg(f))
	m = next.(Model)

	view := ansi.Strip(m.View())
	if !strings.Contains(view, "Game over: Tess defeated by Rat on depth 2.") {
		t.Errorf("missing game over banner in:\n%s", view)
	}
	m = press(m, "h")
	if len(ctrl.actions) != 0 {
		t.Errorf("input accepted after game over: %v", ctrl.actions)
	}
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Error("enter should leave a finished game")
	}
}

func TestRenderArena(t *testing.T) {
	rows := strings.Split(ansi.Strip(renderArena(sampleFrame())), "\n")
	want := []string{
		"######",
		"#@r..#",
		"#....#",
		"######",
	}
	if len(rows) != len(want) {
		t.Fatalf("got %d rows, want %d", len(rows), len(want))
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Errorf("row %d = %q, want %q", i, rows[i], want[i])
		}
	}
}

func TestRenderArena_PlayerDrawnOnTop(t *testing.T) {
	f := sampleFrame()
	f.Entities[0].X = 1
	rows := strings.Split(ansi.Strip(renderArena(f)), "\n")
	if rows[1] != "#@...#" {
		t.Errorf("row 1 = %q", rows[1])
	}
}

func TestRenderArena_Stairs(t *testing.T) {
	f := sampleFrame()
	f.Arena.StairsUp = world.Position{X: 1, Y: 2, Depth: 2}
	f.Arena.StairsDown = world.Position{X: 4, Y: 2, Depth: 2}
	rows := strings.Split(ansi.Strip(renderArena(f)), "\n")
	if rows[2] != "#<..>#" {
		t.Errorf("row 2 = %q", rows[2])
	}
}

func TestRenderHUD(t *testing.T) {
	hud := ansi.Strip(renderHUD(sampleFrame()))
	for _, want := range []string{"Tess", "HP      40/100", "Gold    15", "Satiety 2 (hungry)", "r Rat 3/5"} {
		if !strings.Contains(hud, want) {
			t.Errorf("HUD missing %q:\n%s", want, hud)
		}
	}
}

func TestInventoryToggle(t *testing.T) {
	m := press(newModel(&fakeController{}), "i")
	view := ansi.Strip(m.View())
	if !strings.Contains(view, "2. Healing Potion") {
		t.Errorf("inventory not shown:\n%s", view)
	}
	m = press(m, "i")
	if strings.Contains(ansi.Strip(m.View()), "2. Healing Potion") {
		t.Error("inventory still shown after toggling off")
	}
}

func TestViewShowsMessagesAndStatus(t *testing.T) {
	view := ansi.Strip(newModel(&fakeController{}).View())
	for _, want := range []string{"The rat bites you.", "Depth 2 | running", "T:12"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestViewBeforeFirstFrame(t *testing.T) {
	m := New(&fakeController{}, make(chan gameserver.Frame), "quick")
	if got := m.View(); got != "Entering the dungeon..." {
		t.Errorf("got %q", got)
	}
}

func TestWaitForFrame(t *testing.T) {
	ch := make(chan gameserver.Frame, 1)
	ch <- gameserver.Frame{Turn: 9}
	if msg, ok := waitForFrame(ch)().(frameMsg); !ok || msg.Turn != 9 {
		t.Errorf("got %v", msg)
	}
	close(ch)
	if _, ok := waitForFrame(ch)().(framesClosedMsg); !ok {
		t.Error("closed channel not reported")
	}
}
