package boss

import "github.com/cory-johannsen/dungeon/internal/game/dice"

// Loot is what a defeated boss drops.
type Loot struct {
	Gold        uint32 `json:"gold"`
	Equipment   uint32 `json:"equipment"`
	UniqueItem  bool   `json:"unique_item"`
	Consumables uint32 `json:"consumables"`
}

// GenerateLoot rolls the definition's loot table. Every boss drops a unique item.
func (d *Definition) GenerateLoot(src dice.Source) Loot {
	roll := func(e dice.Expression) uint32 {
		return uint32(max(dice.Roll(e, src).Total(), 0))
	}
	return Loot{
		Gold:        roll(d.loot.gold),
		Equipment:   roll(d.loot.equipment),
		UniqueItem:  true,
		Consumables: roll(d.loot.consumables),
	}
}
