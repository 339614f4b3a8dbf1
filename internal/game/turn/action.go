package turn

import (
	"fmt"

	"github.com/cory-johannsen/dungeon/internal/game/energy"
	"github.com/cory-johannsen/dungeon/internal/game/world"
)

// ActionKind enumerates player inputs.
type ActionKind uint8

const (
	KindMove ActionKind = iota
	KindAttack
	KindUseItem
	KindDropItem
	KindDescend
	KindAscend
	KindWait
	KindQuit
	KindOpenInventory
	KindCloseMenu
	KindPause
	KindSave
)

var kindNames = [...]string{
	KindMove:          "move",
	KindAttack:        "attack",
	KindUseItem:       "use_item",
	KindDropItem:      "drop_item",
	KindDescend:       "descend",
	KindAscend:        "ascend",
	KindWait:          "wait",
	KindQuit:          "quit",
	KindOpenInventory: "open_inventory",
	KindCloseMenu:     "close_menu",
	KindPause:         "pause",
	KindSave:          "save",
}

func (k ActionKind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("action(%d)", uint8(k))
}

// Action is one discrete player input. Dir is meaningful for Move and
// Attack, Slot for UseItem and DropItem.
type Action struct {
	Kind ActionKind      `json:"kind"`
	Dir  world.Direction `json:"dir,omitempty"`
	Slot int             `json:"slot,omitempty"`
}

func Move(d world.Direction) Action   { return Action{Kind: KindMove, Dir: d} }
func Attack(d world.Direction) Action { return Action{Kind: KindAttack, Dir: d} }
func UseItem(slot int) Action         { return Action{Kind: KindUseItem, Slot: slot} }
func DropItem(slot int) Action        { return Action{Kind: KindDropItem, Slot: slot} }
func Descend() Action                 { return Action{Kind: KindDescend} }
func Ascend() Action                  { return Action{Kind: KindAscend} }
func Wait() Action                    { return Action{Kind: KindWait} }
func Quit() Action                    { return Action{Kind: KindQuit} }

// Cost is the energy the action consumes when completed.
//
// Postcondition: FullAction for world-changing actions, WaitAction for Wait,
// FreeAction for quit and menu actions.
func (a Action) Cost() uint32 {
	switch a.Kind {
	case KindMove, KindAttack, KindUseItem, KindDropItem, KindDescend, KindAscend:
		return energy.FullAction
	case KindWait:
		return energy.WaitAction
	}
	return energy.FreeAction
}

// IsMenu reports whether the action only changes UI state.
func (a Action) IsMenu() bool {
	switch a.Kind {
	case KindOpenInventory, KindCloseMenu, KindPause, KindSave:
		return true
	}
	return false
}

func (a Action) String() string {
	switch a.Kind {
	case KindMove, KindAttack:
		return a.Kind.String() + " " + a.Dir.String()
	case KindUseItem, KindDropItem:
		return fmt.Sprintf("%s %d", a.Kind, a.Slot)
	}
	return a.Kind.String()
}
