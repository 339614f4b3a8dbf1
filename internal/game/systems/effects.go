package systems

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/game/effect"
	"github.com/cory-johannsen/dungeon/internal/game/event"
	"github.com/cory-johannsen/dungeon/internal/game/world"
)

// EffectSystem advances every active status effect by one turn.
type EffectSystem struct{}

func (EffectSystem) Name() string { return "effects" }

// Run applies each entity's effects in insertion order: damage, then
// decrement, then a StatusRemoved or StatusEffectTicked event. Entities
// without effects or health are skipped. An entity whose health reaches
// zero is despawned.
//
// Postcondition: returns Stop only when the player died; never Error.
func (EffectSystem) Run(ctx *Context) Result {
	playerDied := false
	for _, e := range ctx.World.Entities() {
		if e.Effects == nil || e.Effects.Len() == 0 || (e.Stats == nil && e.Boss == nil) {
			continue
		}
		for _, tick := range e.Effects.Advance() {
			if tick.Damage > 0 && e.IsAlive() {
				ctx.damage(e, tick.Damage)
			}
			if tick.Expired {
				ctx.Bus.Publish(event.StatusRemoved{Entity: e.ID, Status: tick.Effect.Type, Expired: true})
				continue
			}
			ctx.Bus.Publish(event.StatusEffectTicked{
				Entity:         e.ID,
				Status:         tick.Effect.Type,
				Damage:         tick.Damage,
				RemainingTurns: tick.Effect.RemainingTurns,
			})
		}
		if !e.IsAlive() {
			ctx.Logger.Debug("entity succumbed to effects", zap.Uint32("entity", uint32(e.ID)))
			if e.Player {
				playerDied = true
			}
			ctx.Kill(e, nil, GameOverReason{Kind: Died})
		}
	}
	if playerDied {
		return Stop()
	}
	return Continue()
}

// ApplyStatus adds se to target, honouring boss immunities and scaling the
// duration down by the target's resistance. It reports whether the effect
// was applied.
//
// Postcondition: on true, target.Effects.Has(se.Type).
func (c *Context) ApplyStatus(target *world.Entity, se effect.StatusEffect) bool {
	if target.Effects == nil {
		target.Effects = effect.NewCollection()
	}
	resist := effect.BaseResistance(se.Type)
	if b := target.Boss; b != nil {
		if b.IsImmune(se.Type) {
			c.Bus.Publish(event.Info("%s is immune to %s.", target.Name(), se.Type))
			return false
		}
		resist = max(resist, b.Resistance(se.Type))
	}
	turns := uint32(float64(se.RemainingTurns) * (1 - resist))
	if turns == 0 {
		c.Bus.Publish(event.Info("%s resists %s.", target.Name(), se.Type))
		return false
	}
	se.RemainingTurns = turns

	old := target.Effects.Intensity(se.Type)
	had := target.Effects.Has(se.Type)
	target.Effects.Add(se)
	if had && !se.Type.Stackable() {
		c.Bus.Publish(event.StatusStacked{
			Entity:       target.ID,
			Status:       se.Type,
			OldIntensity: old,
			NewIntensity: target.Effects.Intensity(se.Type),
		})
	} else {
		c.Bus.Publish(event.StatusApplied{
			Entity:    target.ID,
			Status:    se.Type,
			Duration:  se.RemainingTurns,
			Intensity: se.Intensity,
		})
	}
	c.Bus.Publish(event.Info("%s is afflicted with %s.", target.Name(), se.Type))
	return true
}
