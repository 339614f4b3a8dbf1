package ai

import (
	"github.com/cory-johannsen/dungeon/internal/game/effect"
	"github.com/cory-johannsen/dungeon/internal/game/world"
)

// BuildWorldState constructs a WorldState snapshot for monster e.
//
// Precondition: e must have a Position.
// Postcondition: ws.Self.ID == e.ID; ws.Player is nil when the world has no
// positioned player.
func BuildWorldState(w *world.World, e *world.Entity) *WorldState {
	ws := &WorldState{
		Self: SelfState{
			ID:       e.ID,
			Name:     e.Name(),
			HP:       int(e.HP()),
			MaxHP:    int(e.MaxHP()),
			Reach:    int(e.AttackDistance()),
			Position: *e.Position,
			Held:     e.Effects != nil && (e.Effects.Has(effect.Rooted) || e.Effects.Has(effect.Paralysis)),
		},
		Distance: -1,
	}
	p, ok := w.Player()
	if !ok || p.Position == nil || !p.IsAlive() {
		return ws
	}
	ws.Player = &TargetState{
		ID:       p.ID,
		HP:       int(p.HP()),
		MaxHP:    int(p.MaxHP()),
		Position: *p.Position,
	}
	ws.Distance = e.Position.Distance(*p.Position)
	if !ws.Self.Held {
		ws.CanAdvance = open(w, *e.Position, *p.Position)
		ws.CanRetreat = open(w, *e.Position, Away(*e.Position, *p.Position))
	}
	return ws
}

// Away returns a point that lies directly away from threat as seen from p,
// so that stepping toward it moves p away from threat.
func Away(p, threat world.Position) world.Position {
	return world.Position{X: 2*p.X - threat.X, Y: 2*p.Y - threat.Y, Depth: p.Depth}
}

func open(w *world.World, from, target world.Position) bool {
	d, ok := world.Toward(from, target)
	return ok && w.Walkable(from.Add(d))
}
