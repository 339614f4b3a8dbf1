// Package dice provides the randomness abstraction shared by combat, boss AI
// and loot generation, plus a small dice-expression language used by content
// files ("1d100+99").
package dice

import "fmt"

// RollResult holds the audit trail for one expression evaluation.
//
// Postcondition: Total() == sum(Dice) + Modifier.
type RollResult struct {
	Expression string
	Dice       []int
	Modifier   int
}

// Total returns the sum of all die results plus the modifier.
func (r RollResult) Total() int {
	total := r.Modifier
	for _, d := range r.Dice {
		total += d
	}
	return total
}

// String returns "1d100+99 → [42] +99 = 141".
func (r RollResult) String() string {
	return fmt.Sprintf("%s → %v %+d = %d", r.Expression, r.Dice, r.Modifier, r.Total())
}

// Chance reports true with probability p using src. p is clamped to [0, 1].
// Resolution is 1/10000.
func Chance(src Source, p float64) bool {
	switch {
	case p <= 0:
		return false
	case p >= 1:
		return true
	}
	return src.Intn(10000) < int(p*10000)
}

// Float returns a value in [lo, hi) with 1/10000 resolution.
//
// Precondition: hi >= lo.
func Float(src Source, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + (hi-lo)*float64(src.Intn(10000))/10000
}

// Range returns an int in the half-open interval [lo, hi).
//
// Precondition: hi > lo.
func Range(src Source, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + src.Intn(hi-lo)
}
