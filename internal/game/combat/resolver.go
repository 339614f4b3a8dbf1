package combat

import (
	"github.com/cory-johannsen/dungeon/internal/game/dice"
)

// HitChance is clamp(0.8 + (accuracy-evasion)/20, 0.05, 0.95).
func HitChance(attacker, defender Combatant) float64 {
	diff := float64(attacker.Accuracy()) - float64(defender.Evasion())
	return min(max(BaseHitChance+diff/20, MinHitChance), MaxHitChance)
}

// CritChance is 0.1 plus the attacker's crit bonus.
func CritChance(attacker Combatant) float64 {
	return BaseCritChance + attacker.CritBonus()
}

// Damage computes mitigated damage for one landed attack.
//
// Precondition: distance <= attacker.AttackDistance().
// Postcondition: Returns >= MinDamage.
func Damage(attacker, defender Combatant, distance int, critical bool, src dice.Source) uint32 {
	raw := float64(attacker.AttackPower()) * dice.Float(src, 0.8, 1.2)
	if critical {
		raw *= CritMultiplier
	}
	if reach := attacker.AttackDistance(); reach > 1 {
		closer := float64(int(reach) - distance)
		raw *= max(1-closer*RangedPenaltyPerTile, MinRangedFactor)
	}
	return Mitigate(raw, defender.Defense())
}

// Mitigate reduces raw damage by the defense factor min(def/(def+5), 0.8).
//
// Postcondition: Returns >= MinDamage.
func Mitigate(raw float64, defense uint32) uint32 {
	def := float64(defense)
	factor := min(def/(def+5), DefenseCap)
	return uint32(max(raw*(1-factor), MinDamage))
}

// ResolveAttack rolls one attack from attacker against defender and applies
// its damage. The crit roll happens once and drives both damage and outcome.
//
// Precondition: both combatants are alive; src must be non-nil.
// Postcondition: defender has lost result.HPLost health.
func ResolveAttack(attacker, defender Combatant, distance int, src dice.Source) AttackResult {
	res := AttackResult{
		Attacker:  attacker.Name(),
		Defender:  defender.Name(),
		Distance:  distance,
		HitChance: HitChance(attacker, defender),
		Ranged:    attacker.AttackDistance() > 1,
	}
	if !dice.Chance(src, res.HitChance) {
		res.Outcome = Miss
		return res
	}
	critical := dice.Chance(src, CritChance(attacker))
	res.Outcome = Hit
	if critical {
		res.Outcome = CriticalHit
	}
	res.Damage = Damage(attacker, defender, distance, critical, src)
	res.HPLost = defender.TakeDamage(res.Damage)
	if !defender.IsAlive() {
		res.Defeated = true
		if r, ok := defender.(Rewarding); ok {
			res.Experience = r.ExperienceValue()
		}
	}
	return res
}

// Engage resolves an attack and, if the defender survives with the attacker
// inside its reach, a counterattack.
//
// Postcondition: returns one OutOfRange result when distance exceeds the
// attacker's reach; otherwise one or two attack results in resolution order.
func Engage(attacker, defender Combatant, distance int, src dice.Source) []AttackResult {
	if distance > int(attacker.AttackDistance()) {
		return []AttackResult{{
			Attacker: attacker.Name(),
			Defender: defender.Name(),
			Outcome:  OutOfRange,
			Distance: distance,
		}}
	}
	results := []AttackResult{ResolveAttack(attacker, defender, distance, src)}
	if defender.IsAlive() && attacker.IsAlive() && distance <= int(defender.AttackDistance()) {
		results = append(results, ResolveAttack(defender, attacker, distance, src))
	}
	return results
}
