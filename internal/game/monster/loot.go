package monster

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/cory-johannsen/dungeon/internal/game/dice"
	"github.com/cory-johannsen/dungeon/internal/game/world"
)

// ItemDrop defines a single item entry in a loot table with a drop chance.
type ItemDrop struct {
	Name   string  `yaml:"name"`
	Kind   string  `yaml:"kind"` // food or potion
	Power  uint32  `yaml:"power"`
	Chance float64 `yaml:"chance"`

	kind world.ItemKind
}

// LootTable defines the possible loot drops for a monster template.
type LootTable struct {
	// Gold is a dice expression; empty means no gold.
	Gold  string     `yaml:"gold"`
	Items []ItemDrop `yaml:"items"`

	gold dice.Expression
}

// Validate checks that the loot table satisfies its invariants.
//
// Precondition: lt must not be nil.
// Postcondition: Returns nil iff the gold expression parses and every item
// has a name, a consumable kind and a chance in (0, 1]; an empty loot table
// is valid.
func (lt *LootTable) Validate() error {
	if lt.Gold != "" {
		expr, err := dice.Parse(lt.Gold)
		if err != nil {
			return fmt.Errorf("loot table: gold: %w", err)
		}
		lt.gold = expr
	}
	for i := range lt.Items {
		item := &lt.Items[i]
		if item.Name == "" {
			return fmt.Errorf("loot table: item[%d] must have a non-empty name", i)
		}
		switch item.Kind {
		case "food":
			item.kind = world.ItemFood
		case "potion":
			item.kind = world.ItemPotion
		default:
			return fmt.Errorf("loot table: item[%d] kind must be food or potion, got %q", i, item.Kind)
		}
		if item.Chance <= 0 || item.Chance > 1.0 {
			return fmt.Errorf("loot table: item[%d] chance must be in (0, 1.0], got %f", i, item.Chance)
		}
	}
	return nil
}

// LootResult holds the generated loot from a single kill.
type LootResult struct {
	Gold  uint32
	Items []world.Item
}

// GenerateLoot rolls loot from lt using src. Each dropped item gets a fresh
// instance id.
//
// Precondition: lt must have passed Validate().
// Postcondition: Gold is within the gold expression's range; each item is
// present with its configured chance.
func GenerateLoot(lt *LootTable, src dice.Source) LootResult {
	var result LootResult
	if lt == nil {
		return result
	}
	if lt.Gold != "" {
		result.Gold = uint32(max(dice.Roll(lt.gold, src).Total(), 0))
	}
	for _, item := range lt.Items {
		if dice.Chance(src, item.Chance) {
			result.Items = append(result.Items, world.Item{
				ID:    uuid.New().String(),
				Name:  item.Name,
				Kind:  item.kind,
				Power: item.Power,
			})
		}
	}
	return result
}
