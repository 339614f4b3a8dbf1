// Package gameserver drives a session at a fixed tick rate and publishes a
// read-only Frame after every tick to the terminal frontend and spectators.
package gameserver

import (
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/dungeon/internal/game/session"
	"github.com/cory-johannsen/dungeon/internal/game/systems"
	"github.com/cory-johannsen/dungeon/internal/game/world"
)

// DefaultFrameMessages is the number of log lines carried by a frame.
const DefaultFrameMessages = 8

// EntityView is the renderable state of one positioned entity.
type EntityView struct {
	ID      world.EntityID `json:"id"`
	Name    string         `json:"name"`
	Glyph   string         `json:"glyph"`
	X       int            `json:"x"`
	Y       int            `json:"y"`
	Player  bool           `json:"player,omitempty"`
	Hostile bool           `json:"hostile,omitempty"`
	Boss    bool           `json:"boss,omitempty"`
	Phase   string         `json:"phase,omitempty"`
	HP      uint32         `json:"hp"`
	MaxHP   uint32         `json:"max_hp"`
}

// HUD is the player panel.
type HUD struct {
	Name     string   `json:"name"`
	HP       uint32   `json:"hp"`
	MaxHP    uint32   `json:"max_hp"`
	Level    uint32   `json:"level"`
	XP       uint32   `json:"xp"`
	Depth    int      `json:"depth"`
	Gold     uint32   `json:"gold"`
	Energy   uint32   `json:"energy"`
	Satiety  uint8    `json:"satiety"`
	Hungry   bool     `json:"hungry,omitempty"`
	Starving bool     `json:"starving,omitempty"`
	Effects  []string `json:"effects,omitempty"`
	Items    []string `json:"items,omitempty"`
}

// Frame is an immutable snapshot of everything a frontend draws. Frames
// share no memory with the session.
type Frame struct {
	Seq          uint64            `json:"seq"`
	SessionID    uuid.UUID         `json:"session_id"`
	Turn         uint32            `json:"turn"`
	Elapsed      time.Duration     `json:"elapsed"`
	Arena        world.Arena       `json:"arena"`
	Status       systems.Status    `json:"status"`
	StatusText   string            `json:"status_text"`
	TurnState    string            `json:"turn_state"`
	Entities     []EntityView      `json:"entities"`
	HUD          HUD               `json:"hud"`
	Messages     []session.Message `json:"messages"`
	Achievements float64           `json:"achievements"`
}

// BuildFrame captures s. messages <= 0 means DefaultFrameMessages.
//
// Precondition: called from the goroutine that owns s.
func BuildFrame(s *session.Session, messages int) Frame {
	if messages <= 0 {
		messages = DefaultFrameMessages
	}
	w := s.World()
	status := s.Status()
	f := Frame{
		SessionID:    s.ID,
		Turn:         s.Clock.Turn,
		Elapsed:      s.Clock.Elapsed,
		Arena:        w.Arena,
		Status:       status,
		StatusText:   status.String(),
		TurnState:    s.TurnState().String(),
		Messages:     s.Messages.Last(messages),
		Achievements: s.Achievements().UnlockPercentage(),
	}
	for _, e := range w.Entities() {
		if e.Position == nil || e.Position.Depth != w.Arena.Depth {
			continue
		}
		f.Entities = append(f.Entities, entityView(e))
		if e.Player {
			f.HUD = hud(e, w.Arena.Depth)
		}
	}
	return f
}

func entityView(e *world.Entity) EntityView {
	v := EntityView{
		ID:      e.ID,
		Name:    e.Actor.Name,
		Glyph:   string(e.Actor.Glyph),
		X:       e.Position.X,
		Y:       e.Position.Y,
		Player:  e.Player,
		Hostile: e.Actor.Faction == world.FactionMonster,
	}
	if e.Stats != nil {
		v.HP, v.MaxHP = e.Stats.HP, e.Stats.MaxHP
	}
	if e.Boss != nil {
		v.Boss = true
		v.Phase = e.Boss.Phase.String()
	}
	return v
}

func hud(e *world.Entity, depth int) HUD {
	h := HUD{Name: e.Actor.Name, Depth: depth}
	if e.Stats != nil {
		h.HP, h.MaxHP = e.Stats.HP, e.Stats.MaxHP
		h.Level, h.XP = e.Stats.Level, e.Stats.Experience
	}
	if e.Energy != nil {
		h.Energy = e.Energy.Current
	}
	if e.Hunger != nil {
		h.Satiety = e.Hunger.Satiety
		h.Hungry = e.Hunger.IsHungry()
		h.Starving = e.Hunger.IsStarving()
	}
	if e.Effects != nil {
		for _, fx := range e.Effects.All() {
			h.Effects = append(h.Effects, fx.String())
		}
	}
	if e.Inventory != nil {
		h.Gold = e.Inventory.Gold
		for _, it := range e.Inventory.Items {
			h.Items = append(h.Items, it.Name)
		}
	}
	return h
}
