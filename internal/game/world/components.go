package world

import "github.com/cory-johannsen/dungeon/internal/game/effect"

// EntityID identifies an entity for the lifetime of a session. IDs are
// never reused after despawn.
type EntityID uint32

// NoEntity is the zero EntityID; it never names a live entity.
const NoEntity EntityID = 0

// Position is a tile coordinate on a dungeon level.
type Position struct {
	X     int `json:"x"`
	Y     int `json:"y"`
	Depth int `json:"depth"`
}

// Add returns p shifted by d.
func (p Position) Add(d Direction) Position {
	dx, dy := d.Delta()
	return Position{X: p.X + dx, Y: p.Y + dy, Depth: p.Depth}
}

// Distance is the Chebyshev distance between two positions on one level.
func (p Position) Distance(o Position) int {
	return max(abs(p.X-o.X), abs(p.Y-o.Y))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Direction is one of the eight compass directions.
type Direction uint8

const (
	North Direction = iota
	South
	East
	West
	NorthEast
	NorthWest
	SouthEast
	SouthWest
)

// Delta returns the x/y step for d. Y grows southwards.
func (d Direction) Delta() (int, int) {
	switch d {
	case North:
		return 0, -1
	case South:
		return 0, 1
	case East:
		return 1, 0
	case West:
		return -1, 0
	case NorthEast:
		return 1, -1
	case NorthWest:
		return -1, -1
	case SouthEast:
		return 1, 1
	case SouthWest:
		return -1, 1
	}
	return 0, 0
}

func (d Direction) String() string {
	return [...]string{"north", "south", "east", "west", "northeast", "northwest", "southeast", "southwest"}[d]
}

// Toward returns the direction that steps from p closest to target.
func Toward(p, target Position) (Direction, bool) {
	dx, dy := sign(target.X-p.X), sign(target.Y-p.Y)
	for d := North; d <= SouthWest; d++ {
		if x, y := d.Delta(); x == dx && y == dy {
			return d, true
		}
	}
	return 0, false
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}

// Faction groups entities that do not attack each other.
type Faction uint8

const (
	FactionPlayer Faction = iota
	FactionMonster
)

// Actor carries display and allegiance data.
type Actor struct {
	Name    string  `json:"name"`
	Glyph   rune    `json:"glyph"`
	Faction Faction `json:"faction"`
	// Template is the monster template id the entity was spawned from.
	Template string `json:"template,omitempty"`
}

// Hostile reports whether a and o belong to different factions.
func (a Actor) Hostile(o Actor) bool { return a.Faction != o.Faction }

// Stats are the combat attributes of a living entity.
type Stats struct {
	HP         uint32  `json:"hp"`
	MaxHP      uint32  `json:"max_hp"`
	Attack     uint32  `json:"attack"`
	Defense    uint32  `json:"defense"`
	Accuracy   uint32  `json:"accuracy"`
	Evasion    uint32  `json:"evasion"`
	CritBonus  float64 `json:"crit_bonus"`
	Range      uint32  `json:"range"`
	Level      uint32  `json:"level"`
	Experience uint32  `json:"experience"`
}

// Damage subtracts amount from HP, saturating at zero, and returns the HP
// actually lost.
func (s *Stats) Damage(amount uint32) uint32 {
	if amount >= s.HP {
		lost := s.HP
		s.HP = 0
		return lost
	}
	s.HP -= amount
	return amount
}

// Heal adds amount to HP, clamped to MaxHP.
func (s *Stats) Heal(amount uint32) {
	s.HP = uint32(min(uint64(s.HP)+uint64(amount), uint64(s.MaxHP)))
}

// Alive reports whether HP > 0.
func (s *Stats) Alive() bool { return s.HP > 0 }

const (
	// MaxSatiety is the fullest a stomach can be.
	MaxSatiety uint8 = 10
	// DefaultSatiety is half full.
	DefaultSatiety uint8 = 5
	// HungryThreshold is the satiety at or below which the player is warned.
	HungryThreshold uint8 = 2
)

// Hunger tracks the player's food state.
type Hunger struct {
	Satiety uint8 `json:"satiety"`
	// Progress accumulates hunger ticks: 2 per standard action, 1 per wait.
	Progress       uint32 `json:"progress"`
	LastHungerTurn uint32 `json:"last_hunger_turn"`
}

// NewHunger returns a Hunger with satiety clamped to MaxSatiety.
func NewHunger(satiety uint8) Hunger {
	return Hunger{Satiety: min(satiety, MaxSatiety)}
}

// IsStarving reports whether satiety has reached zero.
func (h Hunger) IsStarving() bool { return h.Satiety == 0 }

// IsHungry reports whether satiety is at or below HungryThreshold.
func (h Hunger) IsHungry() bool { return h.Satiety <= HungryThreshold }

// Feed restores n points of satiety, clamped to MaxSatiety.
func (h *Hunger) Feed(n uint8) {
	h.Satiety = uint8(min(uint16(h.Satiety)+uint16(n), uint16(MaxSatiety)))
}

// AIKind selects the behaviour of a non-player actor.
type AIKind uint8

const (
	AIMelee AIKind = iota
	AIRanged
	AIBoss
)

// AI marks an entity as computer controlled.
type AI struct {
	Kind   AIKind   `json:"kind"`
	Target EntityID `json:"target"`
}

// Effects is the component wrapper so a nil pointer means "no effects".
type Effects = effect.Collection

// ItemKind classifies carried items. Only consumables have a use effect.
type ItemKind uint8

const (
	ItemFood ItemKind = iota
	ItemPotion
	ItemEquipment
	ItemTrophy
)

func (k ItemKind) String() string {
	switch k {
	case ItemFood:
		return "food"
	case ItemPotion:
		return "potion"
	case ItemEquipment:
		return "equipment"
	case ItemTrophy:
		return "trophy"
	}
	return "item"
}

// Item is one carried object. Power is the satiety restored by food or the
// health restored by a potion.
type Item struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Kind  ItemKind `json:"kind"`
	Power uint32   `json:"power,omitempty"`
}

// Consumable reports whether using the item removes it.
func (i Item) Consumable() bool { return i.Kind == ItemFood || i.Kind == ItemPotion }

// DefaultCapacity is the number of inventory slots a new player has.
const DefaultCapacity = 26

// Inventory holds an entity's items and gold.
//
// Invariant: len(Items) <= Capacity.
type Inventory struct {
	Items    []Item `json:"items"`
	Gold     uint32 `json:"gold"`
	Capacity int    `json:"capacity"`
}

// NewInventory returns an empty inventory with DefaultCapacity slots.
func NewInventory() *Inventory { return &Inventory{Capacity: DefaultCapacity} }

// Add appends it and reports whether there was room.
func (inv *Inventory) Add(it Item) bool {
	if len(inv.Items) >= inv.Capacity {
		return false
	}
	inv.Items = append(inv.Items, it)
	return true
}

// Take removes and returns the item in slot.
func (inv *Inventory) Take(slot int) (Item, bool) {
	if slot < 0 || slot >= len(inv.Items) {
		return Item{}, false
	}
	it := inv.Items[slot]
	inv.Items = append(inv.Items[:slot], inv.Items[slot+1:]...)
	return it, true
}

// AddGold adds n gold, saturating.
func (inv *Inventory) AddGold(n uint32) {
	inv.Gold = uint32(min(uint64(inv.Gold)+uint64(n), uint64(^uint32(0))))
}
