package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/cory-johannsen/dungeon/internal/game/systems"
	"github.com/cory-johannsen/dungeon/internal/game/world"
	"github.com/cory-johannsen/dungeon/internal/gameserver"
)

// renderArena draws the level: a wall border, floor, the stairs, and every
// entity glyph.
// When two entities share a tile the later one in the frame wins, except
// that the player is always drawn on top.
func renderArena(f gameserver.Frame) string {
	w, h := f.Arena.Width, f.Arena.Height
	if w <= 0 || h <= 0 {
		return ""
	}
	cells := make([][]string, h)
	for y := range cells {
		cells[y] = make([]string, w)
		for x := range cells[y] {
			if x == 0 || y == 0 || x == w-1 || y == h-1 {
				cells[y][x] = styleWall.Render("#")
			} else {
				cells[y][x] = styleFloor.Render(".")
			}
		}
	}
	for glyph, pos := range map[string]world.Position{"<": f.Arena.StairsUp, ">": f.Arena.StairsDown} {
		if f.Arena.InBounds(pos) {
			cells[pos.Y][pos.X] = styleStairs.Render(glyph)
		}
	}
	var player *gameserver.EntityView
	for i := range f.Entities {
		e := f.Entities[i]
		if e.Player {
			player = &f.Entities[i]
			continue
		}
		if inside(e, w, h) {
			cells[e.Y][e.X] = entityStyle(e).Render(e.Glyph)
		}
	}
	if player != nil && inside(*player, w, h) {
		cells[player.Y][player.X] = entityStyle(*player).Render(player.Glyph)
	}

	rows := make([]string, h)
	for y, row := range cells {
		rows[y] = strings.Join(row, "")
	}
	return strings.Join(rows, "\n")
}

func inside(e gameserver.EntityView, w, h int) bool {
	return e.X >= 0 && e.Y >= 0 && e.X < w && e.Y < h
}

// renderHUD lists the player's vitals, effects and nearby enemies.
func renderHUD(f gameserver.Frame) string {
	h := f.HUD
	lines := []string{
		stylePlayer.Render(h.Name),
		fmt.Sprintf("HP      %d/%d", h.HP, h.MaxHP),
		fmt.Sprintf("Level   %d (%d xp)", h.Level, h.XP),
		fmt.Sprintf("Depth   %d", h.Depth),
		fmt.Sprintf("Gold    %d", h.Gold),
		fmt.Sprintf("Energy  %d", h.Energy),
		satietyLine(h),
	}
	if len(h.Effects) > 0 {
		lines = append(lines, "", "Effects:")
		for _, fx := range h.Effects {
			lines = append(lines, "  "+fx)
		}
	}
	var foes []string
	for _, e := range f.Entities {
		if e.Hostile {
			foe := fmt.Sprintf("  %s %s %d/%d", e.Glyph, e.Name, e.HP, e.MaxHP)
			if e.Boss {
				foe += " [" + e.Phase + "]"
			}
			foes = append(foes, entityStyle(e).Render(foe))
		}
	}
	if len(foes) > 0 {
		lines = append(lines, "", "Enemies:")
		lines = append(lines, foes...)
	}
	return strings.Join(lines, "\n")
}

func satietyLine(h gameserver.HUD) string {
	line := fmt.Sprintf("Satiety %d", h.Satiety)
	switch {
	case h.Starving:
		return styleError.Render(line + " (starving)")
	case h.Hungry:
		return styleHungry.Render(line + " (hungry)")
	}
	return line
}

// renderInventory lists carried items with the number key that uses them.
func renderInventory(f gameserver.Frame) string {
	lines := []string{"Inventory"}
	if len(f.HUD.Items) == 0 {
		lines = append(lines, "  (empty)")
	}
	for i, it := range f.HUD.Items {
		lines = append(lines, fmt.Sprintf("  %d. %s", i+1, it))
	}
	return stylePanel.Render(strings.Join(lines, "\n"))
}

// renderMessages styles each log line by its level.
func renderMessages(f gameserver.Frame) string {
	lines := make([]string, len(f.Messages))
	for i, m := range f.Messages {
		lines[i] = messageStyle(m.Level).Render(m.Text)
	}
	return strings.Join(lines, "\n")
}

// renderBanner describes a paused or finished game, or returns "".
func renderBanner(f gameserver.Frame) string {
	switch f.Status.Kind {
	case systems.Victory:
		return styleBanner.Render(fmt.Sprintf("Victory! %s conquered the dungeon on turn %d.", f.HUD.Name, f.Turn))
	case systems.GameOver:
		return styleBanner.Render(fmt.Sprintf("Game over: %s %s on depth %d.", f.HUD.Name, f.Status.Reason, f.HUD.Depth))
	case systems.Paused:
		return styleBanner.Render("Paused. Press p to resume.")
	}
	return ""
}

// renderStatusBar produces a full-width inverted status line.
func renderStatusBar(f gameserver.Frame, width int, prompt string) string {
	left := fmt.Sprintf(" Depth %d | %s", f.HUD.Depth, f.StatusText)
	if prompt != "" {
		left += " | " + prompt
	}
	right := fmt.Sprintf("T:%d ", f.Turn)
	gap := max(width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	return styleStatusBar.Width(width).Render(left + strings.Repeat(" ", gap) + right)
}
