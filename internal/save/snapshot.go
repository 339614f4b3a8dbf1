// Package save defines the persisted form of a game session and the slot
// stores that hold it.
package save

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/dungeon/internal/game/achievement"
	"github.com/cory-johannsen/dungeon/internal/game/boss"
	"github.com/cory-johannsen/dungeon/internal/game/effect"
	"github.com/cory-johannsen/dungeon/internal/game/energy"
	"github.com/cory-johannsen/dungeon/internal/game/systems"
	"github.com/cory-johannsen/dungeon/internal/game/turn"
	"github.com/cory-johannsen/dungeon/internal/game/world"
)

// Version is the snapshot format written by this build.
const Version = 1

var (
	// ErrSlotNotFound is returned when loading a slot that holds no save.
	ErrSlotNotFound = errors.New("save slot not found")
	// ErrSlotsFull is returned when saving a new slot into a full store.
	ErrSlotsFull = errors.New("no free save slots")
	// ErrVersion is returned when decoding a snapshot from another format version.
	ErrVersion = errors.New("unsupported save version")
	// ErrInvalidSlot is returned for slot names that are empty or contain
	// characters other than letters, digits, '-' and '_'.
	ErrInvalidSlot = errors.New("invalid save slot name")
)

// EntitySnapshot is the persisted form of one entity. A nil pointer field
// means the component is absent. Effects is nil when the entity has no
// effect component and non-nil (possibly empty) otherwise.
type EntitySnapshot struct {
	ID        world.EntityID        `json:"id"`
	Actor     world.Actor           `json:"actor"`
	Player    bool                  `json:"player"`
	Position  *world.Position       `json:"position"`
	Stats     *world.Stats          `json:"stats"`
	Energy    *energy.Pool          `json:"energy"`
	Effects   []effect.StatusEffect `json:"effects"`
	Hunger    *world.Hunger         `json:"hunger"`
	Inventory *world.Inventory      `json:"inventory"`
	AI        *world.AI             `json:"ai"`
	Boss      *boss.Encounter       `json:"boss"`
}

// Snapshot is everything needed to resume a session exactly.
type Snapshot struct {
	Version           int               `json:"version"`
	SessionID         uuid.UUID         `json:"session_id"`
	SavedAt           time.Time         `json:"saved_at"`
	TurnState         turn.State        `json:"turn_state"`
	PlayerActionTaken bool              `json:"player_action_taken"`
	TurnCount         uint32            `json:"turn_count"`
	ElapsedTime       time.Duration     `json:"elapsed_time"`
	RNGSeed           int64             `json:"rng_seed"`
	RNGPosition       uint64            `json:"rng_position"`
	Arena             world.Arena       `json:"arena"`
	NextEntityID      world.EntityID    `json:"next_entity_id"`
	Status            systems.Status    `json:"status"`
	Entities          []EntitySnapshot  `json:"entities"`
	Achievements      achievement.State `json:"achievements"`
	Messages          []string          `json:"messages,omitempty"`
}

// Metadata summarises a stored snapshot for slot listings.
type Metadata struct {
	Slot      string    `json:"slot"`
	SessionID uuid.UUID `json:"session_id"`
	SavedAt   time.Time `json:"saved_at"`
	Depth     int       `json:"depth"`
	TurnCount uint32    `json:"turn_count"`
	Player    string    `json:"player"`
	PlayerHP  uint32    `json:"player_hp"`
}

// Metadata summarises s for slot.
func (s *Snapshot) Metadata(slot string) Metadata {
	m := Metadata{
		Slot:      slot,
		SessionID: s.SessionID,
		SavedAt:   s.SavedAt,
		Depth:     s.Arena.Depth,
		TurnCount: s.TurnCount,
	}
	for _, e := range s.Entities {
		if e.Player {
			m.Player = e.Actor.Name
			if e.Stats != nil {
				m.PlayerHP = e.Stats.HP
			}
			break
		}
	}
	return m
}

// Encode serialises s as JSON.
func Encode(s *Snapshot) ([]byte, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("save.Encode: %w", err)
	}
	return data, nil
}

// Decode parses a snapshot written by Encode.
//
// Postcondition: returns ErrVersion when the snapshot's Version differs from Version.
func Decode(data []byte) (*Snapshot, error) {
	var s Snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("save.Decode: %w", err)
	}
	if s.Version != Version {
		return nil, fmt.Errorf("save.Decode: version %d: %w", s.Version, ErrVersion)
	}
	return &s, nil
}

// ValidSlot checks slot against the naming rule of ErrInvalidSlot.
func ValidSlot(slot string) error {
	if slot == "" || len(slot) > 64 {
		return fmt.Errorf("%q: %w", slot, ErrInvalidSlot)
	}
	for _, r := range slot {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
		default:
			return fmt.Errorf("%q: %w", slot, ErrInvalidSlot)
		}
	}
	return nil
}

// Capture copies every entity in w, in id order.
func Capture(w *world.World) []EntitySnapshot {
	entities := w.Entities()
	out := make([]EntitySnapshot, 0, len(entities))
	for _, e := range entities {
		s := EntitySnapshot{
			ID:        e.ID,
			Actor:     e.Actor,
			Player:    e.Player,
			Position:  clone(e.Position),
			Stats:     clone(e.Stats),
			Energy:    clone(e.Energy),
			Hunger:    clone(e.Hunger),
			AI:        clone(e.AI),
			Inventory: cloneInventory(e.Inventory),
			Boss:      cloneEncounter(e.Boss),
		}
		if e.Effects != nil {
			s.Effects = e.Effects.All()
		}
		out = append(out, s)
	}
	return out
}

// Entity rebuilds a live entity from s. The result shares no memory with s.
func (s EntitySnapshot) Entity() *world.Entity {
	e := &world.Entity{
		ID:        s.ID,
		Actor:     s.Actor,
		Player:    s.Player,
		Position:  clone(s.Position),
		Stats:     clone(s.Stats),
		Energy:    clone(s.Energy),
		Hunger:    clone(s.Hunger),
		AI:        clone(s.AI),
		Inventory: cloneInventory(s.Inventory),
		Boss:      cloneEncounter(s.Boss),
	}
	if s.Effects != nil {
		e.Effects = effect.CollectionOf(s.Effects...)
	}
	return e
}

// RestoreWorld replaces the contents of w with snaps on arena.
//
// Postcondition: w.NextID() is at least next.
func RestoreWorld(w *world.World, arena world.Arena, next world.EntityID, snaps []EntitySnapshot) error {
	w.Clear()
	w.Arena = arena
	for _, s := range snaps {
		if err := w.Insert(s.Entity()); err != nil {
			return fmt.Errorf("save.RestoreWorld: %w", err)
		}
	}
	w.ReserveIDs(next)
	return nil
}

func clone[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneInventory(inv *world.Inventory) *world.Inventory {
	if inv == nil {
		return nil
	}
	c := *inv
	c.Items = slices.Clone(inv.Items)
	return &c
}

func cloneEncounter(enc *boss.Encounter) *boss.Encounter {
	if enc == nil {
		return nil
	}
	c := *enc
	c.Skills = slices.Clone(enc.Skills)
	c.Cooldowns = maps.Clone(enc.Cooldowns)
	if c.Cooldowns == nil {
		c.Cooldowns = make(map[boss.SkillKind]uint32)
	}
	c.Immunities = slices.Clone(enc.Immunities)
	c.Resistances = maps.Clone(enc.Resistances)
	return &c
}
