package tui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/cory-johannsen/dungeon/internal/game/world"
)

// keyMap holds every binding the game screen reacts to. It implements
// help.KeyMap.
type keyMap struct {
	North, South, East, West         key.Binding
	NorthEast, NorthWest             key.Binding
	SouthEast, SouthWest             key.Binding
	AttackNorth, AttackSouth         key.Binding
	AttackEast, AttackWest           key.Binding
	AttackNorthEast, AttackNorthWest key.Binding
	AttackSouthEast, AttackSouthWest key.Binding

	Wait, Descend, Ascend key.Binding
	Use, Drop, Inventory  key.Binding
	Pause, Save, Load     key.Binding
	Help, Quit, ForceQuit key.Binding
	ScrollUp, ScrollDown  key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		North:     key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("hjkl/←↓↑→", "move")),
		South:     key.NewBinding(key.WithKeys("j", "down")),
		East:      key.NewBinding(key.WithKeys("l", "right")),
		West:      key.NewBinding(key.WithKeys("h", "left")),
		NorthEast: key.NewBinding(key.WithKeys("u")),
		NorthWest: key.NewBinding(key.WithKeys("y")),
		SouthEast: key.NewBinding(key.WithKeys("n")),
		SouthWest: key.NewBinding(key.WithKeys("b")),

		AttackNorth:     key.NewBinding(key.WithKeys("K"), key.WithHelp("HJKL", "attack")),
		AttackSouth:     key.NewBinding(key.WithKeys("J")),
		AttackEast:      key.NewBinding(key.WithKeys("L")),
		AttackWest:      key.NewBinding(key.WithKeys("H")),
		AttackNorthEast: key.NewBinding(key.WithKeys("U")),
		AttackNorthWest: key.NewBinding(key.WithKeys("Y")),
		AttackSouthEast: key.NewBinding(key.WithKeys("N")),
		AttackSouthWest: key.NewBinding(key.WithKeys("B")),

		Wait:      key.NewBinding(key.WithKeys(".", "s"), key.WithHelp(".", "wait")),
		Descend:   key.NewBinding(key.WithKeys(">"), key.WithHelp(">", "descend")),
		Ascend:    key.NewBinding(key.WithKeys("<"), key.WithHelp("<", "ascend")),
		Use:       key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "use item")),
		Drop:      key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "drop item")),
		Inventory: key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "inventory")),
		Pause:     key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pause")),
		Save:      key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "quick save")),
		Load:      key.NewBinding(key.WithKeys("O"), key.WithHelp("O", "quick load")),
		Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		ForceQuit: key.NewBinding(key.WithKeys("ctrl+c")),

		ScrollUp:   key.NewBinding(key.WithKeys("pgup"), key.WithHelp("pgup/pgdn", "scroll log")),
		ScrollDown: key.NewBinding(key.WithKeys("pgdown")),
	}
}

// moves pairs movement bindings with their direction.
func (k keyMap) moves() []directed {
	return []directed{
		{k.North, world.North}, {k.South, world.South},
		{k.East, world.East}, {k.West, world.West},
		{k.NorthEast, world.NorthEast}, {k.NorthWest, world.NorthWest},
		{k.SouthEast, world.SouthEast}, {k.SouthWest, world.SouthWest},
	}
}

func (k keyMap) attacks() []directed {
	return []directed{
		{k.AttackNorth, world.North}, {k.AttackSouth, world.South},
		{k.AttackEast, world.East}, {k.AttackWest, world.West},
		{k.AttackNorthEast, world.NorthEast}, {k.AttackNorthWest, world.NorthWest},
		{k.AttackSouthEast, world.SouthEast}, {k.AttackSouthWest, world.SouthWest},
	}
}

type directed struct {
	binding key.Binding
	dir     world.Direction
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.North, k.AttackNorth, k.Wait, k.Descend, k.Use, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.North, k.AttackNorth, k.Wait, k.Descend, k.Ascend},
		{k.Use, k.Drop, k.Inventory},
		{k.Pause, k.Save, k.Load},
		{k.ScrollUp, k.Help, k.Quit},
	}
}
