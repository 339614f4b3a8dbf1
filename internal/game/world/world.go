// Package world is the entity store for one game session. Components are
// optional pointer fields on Entity; a nil field means the entity lacks that
// component.
package world

import (
	"errors"
	"fmt"
	"slices"

	"github.com/cory-johannsen/dungeon/internal/game/boss"
	"github.com/cory-johannsen/dungeon/internal/game/energy"
)

// ErrNoSuchEntity is returned when an id does not name a live entity.
var ErrNoSuchEntity = errors.New("no such entity")

// ErrMissingComponent is returned when a required component is absent.
var ErrMissingComponent = errors.New("missing component")

// Entity is one simulated thing.
type Entity struct {
	ID        EntityID
	Actor     Actor
	Player    bool
	Position  *Position
	Stats     *Stats
	Energy    *energy.Pool
	Effects   *Effects
	Hunger    *Hunger
	Inventory *Inventory
	AI        *AI
	Boss      *boss.Encounter
}

// Arena is the walkable rectangle of the current level. The border tiles
// are walls. A level is entered on StairsUp and left downward from
// StairsDown; a zero stairs position is a wall and cannot be used.
type Arena struct {
	Width      int      `json:"width"`
	Height     int      `json:"height"`
	Depth      int      `json:"depth"`
	StairsUp   Position `json:"stairs_up"`
	StairsDown Position `json:"stairs_down"`
}

// Centre returns the middle tile of the arena at its depth.
func (a Arena) Centre() Position {
	return Position{X: a.Width / 2, Y: a.Height / 2, Depth: a.Depth}
}

// InBounds reports whether p is a floor tile of the arena.
func (a Arena) InBounds(p Position) bool {
	return p.Depth == a.Depth && p.X > 0 && p.Y > 0 && p.X < a.Width-1 && p.Y < a.Height-1
}

// World owns every entity. It is not safe for concurrent use.
//
// Invariant: order lists exactly the keys of entities, ascending by id.
type World struct {
	Arena    Arena
	entities map[EntityID]*Entity
	order    []EntityID
	nextID   EntityID
}

// New creates an empty world for arena.
func New(arena Arena) *World {
	return &World{
		Arena:    arena,
		entities: make(map[EntityID]*Entity),
		nextID:   1,
	}
}

// Spawn inserts e and assigns it a fresh id.
//
// Postcondition: Get(returned id) returns e.
func (w *World) Spawn(e *Entity) EntityID {
	e.ID = w.nextID
	w.nextID++
	w.entities[e.ID] = e
	w.order = append(w.order, e.ID)
	return e.ID
}

// Insert places e with its existing id; used when restoring a save.
func (w *World) Insert(e *Entity) error {
	if e.ID == NoEntity {
		return fmt.Errorf("world.Insert: entity id must be non-zero")
	}
	if _, ok := w.entities[e.ID]; ok {
		return fmt.Errorf("world.Insert: entity %d already present", e.ID)
	}
	w.entities[e.ID] = e
	i, _ := slices.BinarySearch(w.order, e.ID)
	w.order = slices.Insert(w.order, i, e.ID)
	if e.ID >= w.nextID {
		w.nextID = e.ID + 1
	}
	return nil
}

// NextID is the id the next Spawn will assign.
func (w *World) NextID() EntityID { return w.nextID }

// ReserveIDs makes Spawn assign ids >= next; lower values are ignored.
func (w *World) ReserveIDs(next EntityID) {
	if next > w.nextID {
		w.nextID = next
	}
}

// Despawn removes id. Despawning an unknown id is a no-op that reports false.
func (w *World) Despawn(id EntityID) bool {
	if _, ok := w.entities[id]; !ok {
		return false
	}
	delete(w.entities, id)
	if i, found := slices.BinarySearch(w.order, id); found {
		w.order = slices.Delete(w.order, i, i+1)
	}
	return true
}

// Get returns the entity for id.
func (w *World) Get(id EntityID) (*Entity, bool) {
	e, ok := w.entities[id]
	return e, ok
}

// MustGet returns the entity for id or ErrNoSuchEntity.
func (w *World) MustGet(id EntityID) (*Entity, error) {
	e, ok := w.entities[id]
	if !ok {
		return nil, fmt.Errorf("entity %d: %w", id, ErrNoSuchEntity)
	}
	return e, nil
}

// Len returns the number of live entities.
func (w *World) Len() int { return len(w.entities) }

// Entities returns live entities in ascending id order. The slice is a new
// allocation; the entities are shared.
func (w *World) Entities() []*Entity {
	out := make([]*Entity, 0, len(w.order))
	for _, id := range w.order {
		out = append(out, w.entities[id])
	}
	return out
}

// Player returns the player entity, if any.
func (w *World) Player() (*Entity, bool) {
	for _, id := range w.order {
		if e := w.entities[id]; e.Player {
			return e, true
		}
	}
	return nil, false
}

// EntityAt returns the combat-capable entity standing on p.
func (w *World) EntityAt(p Position) (*Entity, bool) {
	for _, id := range w.order {
		e := w.entities[id]
		if e.Position != nil && *e.Position == p && (e.Stats != nil || e.Boss != nil) {
			return e, true
		}
	}
	return nil, false
}

// Walkable reports whether p is in bounds and not occupied.
func (w *World) Walkable(p Position) bool {
	if !w.Arena.InBounds(p) {
		return false
	}
	_, occupied := w.EntityAt(p)
	return !occupied
}

// Clear removes every entity and resets id allocation.
func (w *World) Clear() {
	w.entities = make(map[EntityID]*Entity)
	w.order = nil
	w.nextID = 1
}
