package ai

import "github.com/cory-johannsen/dungeon/internal/game/world"

// SightRadius is how far, in tiles, a monster notices the player.
const SightRadius = 10

// SelfState captures the planning monster's own state.
type SelfState struct {
	ID       world.EntityID
	Name     string
	HP       int
	MaxHP    int
	Reach    int
	Position world.Position
	// Held is set while rooted or paralysed.
	Held bool
}

// HPPercent returns current HP as a percentage of MaxHP; 0 if MaxHP == 0.
func (s SelfState) HPPercent() float64 {
	if s.MaxHP <= 0 {
		return 0
	}
	return float64(s.HP) / float64(s.MaxHP) * 100
}

// TargetState captures the player at planning time.
type TargetState struct {
	ID       world.EntityID
	HP       int
	MaxHP    int
	Position world.Position
}

// WorldState is the snapshot passed to the HTN planner for one monster.
//
// Invariant: Distance is -1 exactly when Player is nil.
type WorldState struct {
	Self   SelfState
	Player *TargetState
	// Distance is the Chebyshev distance to the player.
	Distance int
	// CanAdvance and CanRetreat report whether the step toward or away from
	// the player is open.
	CanAdvance bool
	CanRetreat bool
}

// Predicate evaluates a built-in precondition. known is false for names
// that are not built in.
//
// Built-ins: sees_player, in_range, adjacent, wounded, held, can_advance,
// can_retreat, should_retreat.
func (ws *WorldState) Predicate(name string) (value, known bool) {
	seen := ws.Player != nil && ws.Distance <= SightRadius
	switch name {
	case "sees_player":
		return seen, true
	case "in_range":
		return seen && ws.Distance <= ws.Self.Reach, true
	case "adjacent":
		return seen && ws.Distance == 1, true
	case "wounded":
		return ws.Self.HPPercent() < 50, true
	case "held":
		return ws.Self.Held, true
	case "can_advance":
		return seen && ws.CanAdvance, true
	case "can_retreat":
		return seen && ws.CanRetreat, true
	case "should_retreat":
		return seen && ws.Self.Reach > 1 && ws.Distance <= 1 && ws.CanRetreat, true
	}
	return false, false
}
