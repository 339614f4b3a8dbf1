package monster

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/cory-johannsen/dungeon/internal/game/dice"
	"github.com/cory-johannsen/dungeon/internal/game/effect"
	"github.com/cory-johannsen/dungeon/internal/game/energy"
	"github.com/cory-johannsen/dungeon/internal/game/world"
)

// ErrUnknownTemplate is returned when a template id is not registered.
var ErrUnknownTemplate = errors.New("unknown monster template")

// placementAttempts bounds the random search for a free tile per monster.
const placementAttempts = 64

// Registry holds validated templates keyed by id.
type Registry struct {
	templates map[string]*Template
}

// NewRegistry indexes templates by id.
//
// Precondition: every template has passed Validate.
// Postcondition: Returns an error if two templates share an id.
func NewRegistry(templates []*Template) (*Registry, error) {
	r := &Registry{templates: make(map[string]*Template, len(templates))}
	for _, t := range templates {
		if _, dup := r.templates[t.ID]; dup {
			return nil, fmt.Errorf("monster: duplicate template id %q", t.ID)
		}
		r.templates[t.ID] = t
	}
	return r, nil
}

// LoadRegistry loads templates from dir (built-ins when empty) and indexes them.
func LoadRegistry(dir string) (*Registry, error) {
	templates, err := LoadTemplates(dir)
	if err != nil {
		return nil, err
	}
	return NewRegistry(templates)
}

// Get returns the template for id.
func (r *Registry) Get(id string) (*Template, bool) {
	t, ok := r.templates[id]
	return t, ok
}

// ForDepth returns the templates that populate depth, sorted by id.
func (r *Registry) ForDepth(depth int) []*Template {
	var out []*Template
	for _, t := range r.templates {
		if t.SpawnsAt(depth) {
			out = append(out, t)
		}
	}
	slices.SortFunc(out, func(a, b *Template) int { return strings.Compare(a.ID, b.ID) })
	return out
}

// NewEntity builds an unspawned entity from t standing at pos.
//
// Postcondition: the entity has Stats at full health, a full energy pool,
// an empty effect collection and an AI component.
func (t *Template) NewEntity(pos world.Position) *world.Entity {
	glyph, _ := utf8.DecodeRuneInString(t.Glyph)
	pool := energy.NewPool(t.Energy, t.Energy)
	p := pos
	return &world.Entity{
		Actor: world.Actor{
			Name:     t.Name,
			Glyph:    glyph,
			Faction:  world.FactionMonster,
			Template: t.ID,
		},
		Position: &p,
		Stats: &world.Stats{
			HP:         t.MaxHP,
			MaxHP:      t.MaxHP,
			Attack:     t.Attack,
			Defense:    t.Defense,
			Accuracy:   t.Accuracy,
			Evasion:    t.Evasion,
			CritBonus:  t.CritBonus,
			Range:      t.Range,
			Level:      1,
			Experience: t.Experience,
		},
		Energy:  &pool,
		Effects: effect.NewCollection(),
		AI:      &world.AI{Kind: t.aiKind},
	}
}

// Spawn places a new entity from template id at pos.
func (r *Registry) Spawn(w *world.World, id string, pos world.Position) (*world.Entity, error) {
	t, ok := r.Get(id)
	if !ok {
		return nil, fmt.Errorf("monster.Spawn %q: %w", id, ErrUnknownTemplate)
	}
	e := t.NewEntity(pos)
	w.Spawn(e)
	return e, nil
}

// Populate spawns up to n monsters eligible for the arena's depth on random
// free tiles.
//
// Postcondition: returns the ids spawned; fewer than n when no template is
// eligible or free tiles could not be found.
func (r *Registry) Populate(w *world.World, n int, src dice.Source) []world.EntityID {
	eligible := r.ForDepth(w.Arena.Depth)
	if len(eligible) == 0 || w.Arena.Width < 3 || w.Arena.Height < 3 {
		return nil
	}
	var ids []world.EntityID
	for range n {
		t := eligible[src.Intn(len(eligible))]
		pos, ok := FreeTile(w, src)
		if !ok {
			break
		}
		e := t.NewEntity(pos)
		ids = append(ids, w.Spawn(e))
	}
	return ids
}

// FreeTile picks a random walkable tile of the arena.
func FreeTile(w *world.World, src dice.Source) (world.Position, bool) {
	a := w.Arena
	for range placementAttempts {
		p := world.Position{
			X:     1 + src.Intn(a.Width-2),
			Y:     1 + src.Intn(a.Height-2),
			Depth: a.Depth,
		}
		if w.Walkable(p) {
			return p, true
		}
	}
	return world.Position{}, false
}
