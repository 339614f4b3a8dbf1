package systems

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/game/boss"
	"github.com/cory-johannsen/dungeon/internal/game/combat"
	"github.com/cory-johannsen/dungeon/internal/game/effect"
	"github.com/cory-johannsen/dungeon/internal/game/event"
	"github.com/cory-johannsen/dungeon/internal/game/world"
)

// BossSystem drives boss entities. TakeTurn is called once per boss action
// by the AI controller; Run ticks cooldowns once per turn.
type BossSystem struct{}

func (BossSystem) Name() string { return "boss" }

// Run advances every boss's cooldowns by one turn.
func (BossSystem) Run(ctx *Context) Result {
	for _, e := range ctx.World.Entities() {
		if e.Boss != nil {
			e.Boss.TickCooldowns()
		}
	}
	return Continue()
}

// TakeTurn lets boss e act against the player: a script override or the
// built-in policy chooses a skill; with none available the boss attacks
// when in reach or steps toward the player. A paralysed boss loses its turn.
//
// Precondition: e.Boss and e.Position are non-nil.
func (BossSystem) TakeTurn(ctx *Context, e *world.Entity) error {
	if e.Boss == nil || e.Position == nil {
		return fmt.Errorf("systems.BossSystem: entity %d: %w", e.ID, world.ErrMissingComponent)
	}
	p, ok := ctx.Player()
	if !ok || p.Position == nil || ctx.Status.Over() || Paralysed(e) {
		return nil
	}
	enc := e.Boss
	distance := e.Position.Distance(*p.Position)

	skill, chosen := scriptedSkill(ctx, enc, distance)
	if !chosen {
		skill, chosen = enc.ChooseSkill(float64(distance), enc.HealthFraction(), ctx.Src)
	}
	if chosen {
		enc.UseSkill(skill)
		ctx.Bus.Publish(event.BossSkillUsed{Entity: e.ID, Boss: enc.Type, Skill: skill.Kind})
		ctx.Logger.Debug("boss skill", zap.Stringer("boss", enc.Type), zap.Stringer("skill", skill.Kind), zap.Int("distance", distance))
		executeSkill(ctx, e, p, skill, distance)
		if ctx.Hooks != nil {
			ctx.Hooks.OnSkillUsed(enc, skill)
		}
		return nil
	}

	if distance <= int(e.AttackDistance()) {
		ctx.Attack(e, p)
		return nil
	}
	StepToward(ctx, e, *p.Position)
	return nil
}

func scriptedSkill(ctx *Context, enc *boss.Encounter, distance int) (boss.Skill, bool) {
	if ctx.Hooks == nil {
		return boss.Skill{}, false
	}
	kind, ok := ctx.Hooks.ChooseSkill(enc, distance)
	if !ok || !enc.Available(kind) {
		return boss.Skill{}, false
	}
	for _, s := range enc.Skills {
		if s.Kind == kind {
			return s, true
		}
	}
	return boss.Skill{}, false
}

// executeSkill applies the effect of skill used by boss entity e against
// player p.
func executeSkill(ctx *Context, e, p *world.Entity, s boss.Skill, distance int) {
	enc := e.Boss
	name := e.Name()
	switch s.Kind {
	case boss.AreaAttack:
		if distance > int(s.Radius) {
			ctx.Bus.Publish(event.Info("%s's shockwave falls short.", name))
			return
		}
		ctx.Bus.Publish(event.Warn("%s unleashes an area attack!", name))
		skillHit(ctx, e, p, float64(enc.AttackPower())*s.Multiplier)
	case boss.ShadowBolt:
		ctx.Bus.Publish(event.Warn("%s hurls a shadow bolt!", name))
		skillHit(ctx, e, p, float64(enc.AttackPower())*s.Multiplier)
	case boss.VenomSpit:
		ctx.Bus.Publish(event.Warn("%s spits venom!", name))
		if skillHit(ctx, e, p, float64(s.Amount)) {
			ctx.ApplyStatus(p, effect.New(s.Status, s.Duration, uint8(max(s.Amount/3, 1))))
		}
	case boss.VoidRift:
		ctx.Bus.Publish(event.Warn("%s tears open a void rift!", name))
		if directHit(ctx, e, p, s.Amount) {
			ctx.ApplyStatus(p, effect.New(s.Status, s.Duration, effect.DefaultIntensity))
		}
	case boss.ApplyStatus:
		ctx.ApplyStatus(p, effect.New(s.Status, s.Duration, effect.DefaultIntensity))
	case boss.SelfHeal:
		from := enc.Phase
		amount := uint32(float64(enc.MaxHP) * s.Percent)
		enc.Heal(amount)
		ctx.phaseChanged(e, from)
		ctx.Bus.Publish(event.Info("%s heals %d health.", name, amount))
	case boss.MechanicalRepair:
		from := enc.Phase
		enc.Heal(s.Amount)
		ctx.phaseChanged(e, from)
		ctx.Bus.Publish(event.Info("%s repairs itself for %d.", name, s.Amount))
	case boss.Shield:
		enc.AddShield(s.Amount)
		ctx.Bus.Publish(event.Info("%s raises a shield of %d.", name, s.Amount))
	case boss.Berserk:
		ctx.Bus.Publish(event.Warn("%s goes berserk!", name))
	case boss.Teleport:
		teleport(ctx, e, *p.Position)
	case boss.SummonMinions:
		summon(ctx, e, s)
	}
}

// skillHit deals raw damage mitigated by p's defense. It reports whether p
// survived.
func skillHit(ctx *Context, e, p *world.Entity, raw float64) bool {
	return directHit(ctx, e, p, combat.Mitigate(raw, p.Defense()))
}

// directHit deals amount unmitigated. It reports whether p survived.
func directHit(ctx *Context, e, p *world.Entity, amount uint32) bool {
	lost := ctx.damage(p, amount)
	ctx.Bus.Publish(event.DamageDealt{Attacker: e.ID, Victim: p.ID, Damage: lost})
	ctx.Bus.Publish(event.Info("%s deals %d damage to %s!", e.Name(), lost, p.Name()))
	if p.IsAlive() {
		return true
	}
	ctx.Kill(p, e, DefeatedBy(e.Name()))
	return false
}

func teleport(ctx *Context, e *world.Entity, target world.Position) {
	for _, d := range shuffledDirections(ctx) {
		to := target.Add(d)
		if ctx.World.Walkable(to) {
			from := *e.Position
			*e.Position = to
			ctx.Bus.Publish(event.EntityMoved{Entity: e.ID, From: from, To: to})
			ctx.Bus.Publish(event.Warn("%s vanishes and reappears beside you!", e.Name()))
			return
		}
	}
	ctx.Bus.Publish(event.Info("%s flickers but stays put.", e.Name()))
}

func summon(ctx *Context, e *world.Entity, s boss.Skill) {
	if ctx.Monsters == nil {
		return
	}
	spawned := 0
	for _, d := range shuffledDirections(ctx) {
		if uint32(spawned) >= s.Count {
			break
		}
		at := e.Position.Add(d)
		if !ctx.World.Walkable(at) {
			continue
		}
		if _, err := ctx.Monsters.Spawn(ctx.World, s.Minion, at); err != nil {
			ctx.Logger.Warn("summon failed", zap.String("minion", s.Minion), zap.Error(err))
			return
		}
		spawned++
	}
	ctx.Bus.Publish(event.Warn("%s summons %d minions!", e.Name(), spawned))
}

// shuffledDirections returns the eight directions in a seeded random order.
func shuffledDirections(ctx *Context) []world.Direction {
	dirs := []world.Direction{
		world.North, world.South, world.East, world.West,
		world.NorthEast, world.NorthWest, world.SouthEast, world.SouthWest,
	}
	for i := len(dirs) - 1; i > 0; i-- {
		j := ctx.Src.Intn(i + 1)
		dirs[i], dirs[j] = dirs[j], dirs[i]
	}
	return dirs
}

// StepToward moves e one tile toward target and reports whether it moved.
// Rooted or paralysed entities and blocked steps stay put.
func StepToward(ctx *Context, e *world.Entity, target world.Position) bool {
	if e.Effects != nil && (e.Effects.Has(effect.Rooted) || e.Effects.Has(effect.Paralysis)) {
		return false
	}
	d, ok := world.Toward(*e.Position, target)
	if !ok {
		return false
	}
	to := e.Position.Add(d)
	if !ctx.World.Walkable(to) {
		return false
	}
	from := *e.Position
	*e.Position = to
	ctx.Bus.Publish(event.EntityMoved{Entity: e.ID, From: from, To: to})
	return true
}
