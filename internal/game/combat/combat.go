// Package combat resolves attacks between two combatants: hit chance from
// accuracy and evasion, critical hits, damage variation, ranged distance
// penalty, and defense mitigation.
package combat

import "fmt"

const (
	BaseHitChance        = 0.8
	MinHitChance         = 0.05
	MaxHitChance         = 0.95
	BaseCritChance       = 0.1
	CritMultiplier       = 1.5
	DefenseCap           = 0.8
	RangedPenaltyPerTile = 0.15
	MinRangedFactor      = 0.1
	MinDamage            = 1
)

// Combatant is the capability set combat needs from a participant.
type Combatant interface {
	Name() string
	HP() uint32
	MaxHP() uint32
	AttackPower() uint32
	Defense() uint32
	Accuracy() uint32
	Evasion() uint32
	CritBonus() float64
	// AttackDistance is the reach in tiles; values above 1 are ranged.
	AttackDistance() uint32
	IsAlive() bool
	// TakeDamage applies amount and returns the health actually lost.
	TakeDamage(amount uint32) uint32
	Heal(amount uint32)
}

// Rewarding is implemented by combatants that grant experience on defeat.
type Rewarding interface {
	ExperienceValue() uint32
}

// Outcome classifies one attack.
type Outcome int

const (
	Miss Outcome = iota
	Hit
	CriticalHit
	OutOfRange
)

// String returns a human-readable outcome label.
func (o Outcome) String() string {
	switch o {
	case Miss:
		return "miss"
	case Hit:
		return "hit"
	case CriticalHit:
		return "critical hit"
	case OutOfRange:
		return "out of range"
	default:
		return "unknown"
	}
}

// AttackResult holds the outcome of a single attack.
type AttackResult struct {
	Attacker string
	Defender string
	Outcome  Outcome
	Distance int
	// HitChance is the probability used for the hit roll.
	HitChance float64
	// Damage is the mitigated damage dealt before any shield.
	Damage uint32
	// HPLost is the health the defender actually lost.
	HPLost     uint32
	Defeated   bool
	Experience uint32
	// Ranged is set when the attacker's reach exceeds one tile.
	Ranged bool
}

// Landed reports whether the attack connected.
func (r AttackResult) Landed() bool { return r.Outcome == Hit || r.Outcome == CriticalHit }

// String renders the result as a message log line.
func (r AttackResult) String() string {
	switch r.Outcome {
	case OutOfRange:
		return fmt.Sprintf("%s is out of range of %s!", r.Defender, r.Attacker)
	case Miss:
		return fmt.Sprintf("%s misses %s!", r.Attacker, r.Defender)
	}
	msg := fmt.Sprintf("%s hits %s for %d damage", r.Attacker, r.Defender, r.Damage)
	if r.Outcome == CriticalHit {
		msg = fmt.Sprintf("Critical hit! %s deals %d damage to %s", r.Attacker, r.Damage, r.Defender)
	}
	if r.Ranged {
		msg += fmt.Sprintf(" from %d tiles", r.Distance)
	}
	msg += "!"
	if r.Defeated {
		msg += fmt.Sprintf(" %s defeated %s!", r.Attacker, r.Defender)
	}
	return msg
}
