// Package systems holds the game-logic passes that run between turns:
// player action resolution, combat, status effects, hunger, level
// transitions and boss behaviour. Every system reports a Result instead of
// panicking.
package systems

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/game/boss"
	"github.com/cory-johannsen/dungeon/internal/game/dice"
	"github.com/cory-johannsen/dungeon/internal/game/effect"
	"github.com/cory-johannsen/dungeon/internal/game/event"
	"github.com/cory-johannsen/dungeon/internal/game/monster"
	"github.com/cory-johannsen/dungeon/internal/game/turn"
	"github.com/cory-johannsen/dungeon/internal/game/world"
)

// BossHooks lets content scripts observe and steer boss behaviour.
// Implementations must not panic; a hook that fails behaves as absent.
type BossHooks interface {
	// ChooseSkill may override skill selection. ok == false defers to the
	// built-in policy.
	ChooseSkill(b *boss.Encounter, distance int) (kind boss.SkillKind, ok bool)
	OnPhaseChange(b *boss.Encounter, from, to boss.Phase)
	OnSkillUsed(b *boss.Encounter, s boss.Skill)
}

// Context is the shared state every system reads and mutates. It is owned
// by one session and is not safe for concurrent use.
type Context struct {
	World    *world.World
	Bus      *event.Bus
	Src      dice.Source
	Status   *Status
	Logger   *zap.Logger
	Bosses   *boss.Registry
	Monsters *monster.Registry
	// Hooks is optional.
	Hooks BossHooks
	// MaxDepth is the deepest level; descending past it wins the game.
	MaxDepth int
	// MonstersPerLevel is how many ordinary monsters populate a new level.
	MonstersPerLevel int

	// Pending holds player actions not yet consumed by a system.
	Pending []turn.Action
	// Completed collects the actions that were applied this tick, in order.
	Completed []turn.Action
	// Waited is set when the player spent this turn waiting.
	Waited bool
}

// Player returns the player entity.
func (c *Context) Player() (*world.Entity, bool) { return c.World.Player() }

// take removes and returns the pending actions whose kind is in kinds,
// preserving order.
func (c *Context) take(kinds ...turn.ActionKind) []turn.Action {
	var got, rest []turn.Action
	for _, a := range c.Pending {
		matched := false
		for _, k := range kinds {
			if a.Kind == k {
				matched = true
				break
			}
		}
		if matched {
			got = append(got, a)
		} else {
			rest = append(rest, a)
		}
	}
	c.Pending = rest
	return got
}

func (c *Context) complete(a turn.Action) {
	c.Completed = append(c.Completed, a)
	if a.Kind == turn.KindWait {
		c.Waited = true
	}
}

func (c *Context) fail(e *world.Entity, a turn.Action, reason string) {
	c.Bus.Publish(event.ActionFailed{Entity: e.ID, Action: a.String(), Reason: reason})
	c.Bus.Publish(event.Info("You cannot %s: %s.", a, reason))
}

// paralysed reports whether the player is paralysed. The action is then
// refused and the turn is spent as a wait.
func (c *Context) paralysed(p *world.Entity, a turn.Action) bool {
	if !Paralysed(p) {
		return false
	}
	c.Bus.Publish(event.ActionFailed{Entity: p.ID, Action: a.String(), Reason: "you are paralyzed"})
	c.Bus.Publish(event.Info("You are paralyzed and cannot %s.", a))
	c.complete(turn.Wait())
	return true
}

// Paralysed reports whether e is paralysed and unable to act.
func Paralysed(e *world.Entity) bool {
	return e.Effects != nil && e.Effects.Has(effect.Paralysis)
}

// ResetTick clears the per-tick action bookkeeping.
func (c *Context) ResetTick(actions []turn.Action) {
	c.Pending = append([]turn.Action(nil), actions...)
	c.Completed = nil
	c.Waited = false
}

// System is one game-logic pass.
type System interface {
	Name() string
	Run(ctx *Context) Result
}

// Pipeline runs systems in order.
type Pipeline []System

// Run executes each system until one returns a non-Continue result, which
// is returned. A nil return from every system yields Continue.
//
// Postcondition: systems after the first non-Continue result do not run.
func (p Pipeline) Run(ctx *Context) Result {
	for _, s := range p {
		res := s.Run(ctx)
		if !res.IsContinue() {
			ctx.Logger.Debug("pipeline halted", zap.String("system", s.Name()), zap.Stringer("result", res))
			return res
		}
	}
	return Continue()
}
