package systems

import (
	"github.com/cory-johannsen/dungeon/internal/game/achievement"
	"github.com/cory-johannsen/dungeon/internal/game/event"
	"github.com/cory-johannsen/dungeon/internal/game/world"
)

// AchievementBridge feeds game events into an achievement manager and
// republishes unlocks as AchievementUnlocked and LogMessage events.
type AchievementBridge struct {
	mgr      *achievement.Manager
	world    *world.World
	bus      *event.Bus
	lastGold uint32
}

// NewAchievementBridge subscribes a bridge for mgr to bus.
//
// Postcondition: every subsequently published event reaches the bridge.
func NewAchievementBridge(mgr *achievement.Manager, w *world.World, bus *event.Bus) *AchievementBridge {
	b := &AchievementBridge{mgr: mgr, world: w, bus: bus}
	b.SyncGold()
	bus.SubscribeAll(b)
	return b
}

func (b *AchievementBridge) Name() string               { return "achievements" }
func (b *AchievementBridge) Priority() event.Priority   { return event.Low }
func (b *AchievementBridge) RunInPhases() []event.Phase { return []event.Phase{event.Any} }

// Manager returns the underlying manager.
func (b *AchievementBridge) Manager() *achievement.Manager { return b.mgr }

// SyncGold records the player's current gold as already counted, e.g. after
// a restore.
func (b *AchievementBridge) SyncGold() {
	b.lastGold = 0
	if p, ok := b.world.Player(); ok && p.Inventory != nil {
		b.lastGold = p.Inventory.Gold
	}
}

func (b *AchievementBridge) Handle(e event.Event) {
	var ids []achievement.ID
	switch ev := e.(type) {
	case event.EntityDied:
		if !ev.Player && b.killedByPlayer(ev.Killer) {
			ids = append(ids, b.mgr.OnKill()...)
		}
	case event.BossDefeated:
		ids = append(ids, b.mgr.OnBossDefeat()...)
		if ev.Loot.UniqueItem {
			ids = append(ids, b.mgr.OnRareItem()...)
		}
	case event.LevelChanged:
		ids = append(ids, b.mgr.OnLevelChange(ev.NewDepth)...)
	case event.ItemPickedUp:
		ids = append(ids, b.mgr.OnItemPickup()...)
	case event.TurnEnded:
		ids = append(ids, b.mgr.OnTurnEnd(ev.Turn)...)
		ids = append(ids, b.collectGold()...)
	default:
		return
	}
	for _, id := range ids {
		def, _ := b.mgr.Definition(id)
		b.bus.Publish(event.AchievementUnlocked{ID: string(id), Name: def.Name})
		b.bus.Publish(event.Info("Achievement unlocked: %s!", def.Name))
	}
}

func (b *AchievementBridge) killedByPlayer(id world.EntityID) bool {
	p, ok := b.world.Player()
	return ok && id != world.NoEntity && p.ID == id
}

func (b *AchievementBridge) collectGold() []achievement.ID {
	p, ok := b.world.Player()
	if !ok || p.Inventory == nil || p.Inventory.Gold <= b.lastGold {
		return nil
	}
	delta := p.Inventory.Gold - b.lastGold
	b.lastGold = p.Inventory.Gold
	return b.mgr.OnGoldCollected(delta)
}
