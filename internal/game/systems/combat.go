package systems

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/game/boss"
	"github.com/cory-johannsen/dungeon/internal/game/combat"
	"github.com/cory-johannsen/dungeon/internal/game/dice"
	"github.com/cory-johannsen/dungeon/internal/game/event"
	"github.com/cory-johannsen/dungeon/internal/game/monster"
	"github.com/cory-johannsen/dungeon/internal/game/world"
)

// bossPotionPower is the healing of each consumable a boss drops.
const bossPotionPower = 30

// damage applies amount to e and reports a boss phase change.
func (c *Context) damage(e *world.Entity, amount uint32) uint32 {
	var from boss.Phase
	if e.Boss != nil {
		from = e.Boss.Phase
	}
	lost := e.TakeDamage(amount)
	if e.Boss != nil {
		c.phaseChanged(e, from)
	}
	return lost
}

func (c *Context) phaseChanged(e *world.Entity, from boss.Phase) {
	to := e.Boss.Phase
	if to == from {
		return
	}
	c.Bus.Publish(event.BossPhaseChanged{Entity: e.ID, Boss: e.Boss.Type, From: from, To: to})
	c.Bus.Publish(event.Warn("%s enters %s!", e.Name(), to))
	if c.Hooks != nil {
		c.Hooks.OnPhaseChange(e.Boss, from, to)
	}
}

// Attack resolves an engagement between attacker and defender at their
// current distance, publishing combat events and handling deaths.
//
// Precondition: both entities have positions.
// Postcondition: every defeated participant has been despawned.
func (c *Context) Attack(attacker, defender *world.Entity) []combat.AttackResult {
	distance := attacker.Position.Distance(*defender.Position)
	phases := map[world.EntityID]boss.Phase{}
	for _, e := range []*world.Entity{attacker, defender} {
		if e.Boss != nil {
			phases[e.ID] = e.Boss.Phase
		}
	}

	c.Bus.Publish(event.CombatStarted{Attacker: attacker.ID, Defender: defender.ID})
	results := combat.Engage(attacker, defender, distance, c.Src)
	for i, r := range results {
		att, def := attacker, defender
		if i == 1 {
			att, def = defender, attacker
		}
		c.Bus.Publish(event.Info("%s", r))
		if r.Landed() {
			if r.HPLost > 0 {
				c.Bus.Publish(event.DamageDealt{Attacker: att.ID, Victim: def.ID, Damage: r.HPLost, Critical: r.Outcome == combat.CriticalHit})
			}
			if r.HPLost < r.Damage {
				c.Bus.Publish(event.CombatBlocked{Attacker: att.ID, Defender: def.ID, Blocked: r.Damage - r.HPLost})
			}
			if def.Boss != nil {
				c.phaseChanged(def, phases[def.ID])
			}
			if def.IsAlive() {
				c.onHit(att, def)
			}
		}
		if r.Defeated {
			if r.Experience > 0 && att.Stats != nil {
				att.Stats.Experience += r.Experience
			}
			c.Kill(def, att, DefeatedBy(att.Name()))
		}
	}
	return results
}

// onHit applies the attacker's on-hit status from its monster template.
func (c *Context) onHit(att, def *world.Entity) {
	if c.Monsters == nil || att.Actor.Template == "" {
		return
	}
	tmpl, ok := c.Monsters.Get(att.Actor.Template)
	if !ok || tmpl.OnHit == nil {
		return
	}
	if dice.Chance(c.Src, tmpl.OnHit.Chance) {
		c.ApplyStatus(def, tmpl.OnHit.Effect())
	}
}

// Kill despawns victim, pays out loot and experience to killer, and settles
// the game status. killer may be nil for deaths not caused by an entity;
// reason is used when the victim is the player.
func (c *Context) Kill(victim, killer *world.Entity, reason GameOverReason) {
	var killerID world.EntityID
	if killer != nil {
		killerID = killer.ID
	}
	c.Bus.Publish(event.EntityDied{Entity: victim.ID, Name: victim.Name(), Killer: killerID, Player: victim.Player})
	c.Logger.Debug("entity died",
		zap.Uint32("entity", uint32(victim.ID)),
		zap.String("name", victim.Name()),
		zap.Uint32("killer", uint32(killerID)),
	)

	switch {
	case victim.Player:
		c.Status.End(reason)
		c.Bus.Publish(event.GameOver{Reason: reason.String()})
		c.Bus.Publish(event.Warn("You have %s.", reason))
	case victim.Boss != nil:
		c.bossDefeated(victim, killer)
	default:
		c.dropLoot(victim, killer)
	}
	c.World.Despawn(victim.ID)
}

func (c *Context) bossDefeated(victim, killer *world.Entity) {
	enc := victim.Boss
	var loot boss.Loot
	if c.Bosses != nil {
		if def, ok := c.Bosses.Get(enc.Type); ok {
			loot = def.GenerateLoot(c.Src)
		}
	}
	c.Bus.Publish(event.BossDefeated{Entity: victim.ID, Boss: enc.Type, Loot: loot})
	c.Bus.Publish(event.Info("%s has been defeated!", enc.Name))

	if killer != nil && killer.Inventory != nil {
		killer.Inventory.AddGold(loot.Gold)
		var items []world.Item
		for range loot.Consumables {
			items = append(items, world.Item{Name: "Greater Healing Potion", Kind: world.ItemPotion, Power: bossPotionPower})
		}
		for i := range loot.Equipment {
			items = append(items, world.Item{Name: fmt.Sprintf("%s relic #%d", enc.Name, i+1), Kind: world.ItemEquipment})
		}
		if loot.UniqueItem {
			items = append(items, world.Item{Name: enc.Name + "'s Trophy", Kind: world.ItemTrophy})
		}
		for _, it := range items {
			it.ID = uuid.New().String()
			c.give(killer, it)
		}
	}

	if c.isFinalBoss(enc.Type) {
		c.Status.Win()
		c.Bus.Publish(event.Victory{})
		c.Bus.Publish(event.Info("The abyss falls silent. You are victorious!"))
	}
}

func (c *Context) isFinalBoss(t boss.Type) bool {
	if c.Bosses == nil {
		return false
	}
	all := c.Bosses.All()
	return len(all) > 0 && all[len(all)-1].Type() == t
}

func (c *Context) dropLoot(victim, killer *world.Entity) {
	if c.Monsters == nil || killer == nil || killer.Inventory == nil {
		return
	}
	tmpl, ok := c.Monsters.Get(victim.Actor.Template)
	if !ok {
		return
	}
	loot := monster.GenerateLoot(tmpl.Loot, c.Src)
	if loot.Gold > 0 {
		killer.Inventory.AddGold(loot.Gold)
		c.Bus.Publish(event.Info("You find %d gold.", loot.Gold))
	}
	for _, it := range loot.Items {
		c.give(killer, it)
	}
}

func (c *Context) give(e *world.Entity, it world.Item) {
	if !e.Inventory.Add(it) {
		c.Bus.Publish(event.Info("Your pack is full; %s is left behind.", it.Name))
		return
	}
	c.Bus.Publish(event.ItemPickedUp{Entity: e.ID, Item: it.Name})
	c.Bus.Publish(event.Info("You pick up %s.", it.Name))
}
