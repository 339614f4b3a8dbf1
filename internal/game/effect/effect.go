// Package effect models timed status effects and the per-entity collection
// that enforces stacking, refresh and conflict rules.
package effect

import "fmt"

// Type identifies a kind of status effect.
type Type uint8

const (
	Burning Type = iota
	Poison
	Paralysis
	Bleeding
	Invisibility
	Levitation
	Slow
	Haste
	MindVision
	AntiMagic
	Barkskin
	Combo
	Fury
	Ooze
	Frost
	Light
	Darkness
	Rooted
	numTypes
)

const (
	// MinIntensity and MaxIntensity bound StatusEffect.Intensity.
	MinIntensity uint8 = 1
	MaxIntensity uint8 = 10
	// DefaultIntensity is used by content that does not specify one.
	DefaultIntensity uint8 = 3
)

var typeNames = [numTypes]string{
	Burning:      "burning",
	Poison:       "poison",
	Paralysis:    "paralysis",
	Bleeding:     "bleeding",
	Invisibility: "invisibility",
	Levitation:   "levitation",
	Slow:         "slow",
	Haste:        "haste",
	MindVision:   "mind_vision",
	AntiMagic:    "anti_magic",
	Barkskin:     "barkskin",
	Combo:        "combo",
	Fury:         "fury",
	Ooze:         "ooze",
	Frost:        "frost",
	Light:        "light",
	Darkness:     "darkness",
	Rooted:       "rooted",
}

var typeDescriptions = [numTypes]string{
	Burning:      "on fire",
	Poison:       "poisoned",
	Paralysis:    "paralyzed and unable to act",
	Bleeding:     "bleeding",
	Invisibility: "invisible",
	Levitation:   "levitating",
	Slow:         "slowed",
	Haste:        "hasted",
	MindVision:   "sensing minds",
	AntiMagic:    "resisting magic",
	Barkskin:     "protected by barkskin",
	Combo:        "ready to combo",
	Fury:         "in a fury",
	Ooze:         "covered in ooze",
	Frost:        "frozen stiff",
	Light:        "glowing",
	Darkness:     "blinded by darkness",
	Rooted:       "rooted in place",
}

// AllTypes returns every effect type in declaration order.
func AllTypes() []Type {
	out := make([]Type, 0, numTypes)
	for t := Type(0); t < numTypes; t++ {
		out = append(out, t)
	}
	return out
}

// String returns the canonical snake_case name used by content and saves.
func (t Type) String() string {
	if t >= numTypes {
		return fmt.Sprintf("effect(%d)", uint8(t))
	}
	return typeNames[t]
}

// Description returns a short human readable phrase for message logs.
func (t Type) Description() string {
	if t >= numTypes {
		return t.String()
	}
	return typeDescriptions[t]
}

// ParseType is the inverse of String.
func ParseType(s string) (Type, error) {
	for t := Type(0); t < numTypes; t++ {
		if typeNames[t] == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("effect: unknown type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	if t >= numTypes {
		return nil, fmt.Errorf("effect: invalid type %d", uint8(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler; yaml.v3 and
// encoding/json both honour it.
func (t *Type) UnmarshalText(b []byte) error {
	parsed, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Stackable reports whether several instances of t may coexist on one entity.
// Only the damage-over-time effects stack.
func (t Type) Stackable() bool {
	switch t {
	case Burning, Poison, Bleeding:
		return true
	}
	return false
}

// ConflictsWith reports whether t and other are mutually exclusive.
// The relation is symmetric.
func (t Type) ConflictsWith(other Type) bool {
	switch {
	case t == Burning && other == Frost, t == Frost && other == Burning:
		return true
	case t == Haste && other == Slow, t == Slow && other == Haste:
		return true
	case t == Invisibility && other == Light, t == Light && other == Invisibility:
		return true
	}
	return false
}

// BaseResistance is the innate resistance every combatant has to t,
// in [0, 1].
func BaseResistance(t Type) float64 {
	switch t {
	case Paralysis:
		return 0.2
	case Frost:
		return 0.1
	case Burning:
		return 0.15
	}
	return 0
}

// StatusEffect is a single timed effect instance.
type StatusEffect struct {
	Type           Type   `json:"type" yaml:"type"`
	RemainingTurns uint32 `json:"remaining_turns" yaml:"remaining_turns"`
	Intensity      uint8  `json:"intensity" yaml:"intensity"`
}

// New builds a StatusEffect with intensity clamped to [MinIntensity, MaxIntensity].
func New(t Type, turns uint32, intensity uint8) StatusEffect {
	return StatusEffect{Type: t, RemainingTurns: turns, Intensity: clampIntensity(intensity)}
}

func clampIntensity(i uint8) uint8 {
	if i < MinIntensity {
		return MinIntensity
	}
	if i > MaxIntensity {
		return MaxIntensity
	}
	return i
}

// DamagePerTurn is the damage this effect deals on each resolution tick.
func (e StatusEffect) DamagePerTurn() uint32 {
	i := uint32(e.Intensity)
	switch e.Type {
	case Burning:
		return i * 2
	case Poison:
		return i * 3
	case Bleeding:
		return i * 4
	}
	return 0
}

// Update consumes one turn of duration.
//
// Postcondition: Returns true while RemainingTurns > 0.
func (e *StatusEffect) Update() bool {
	if e.RemainingTurns > 0 {
		e.RemainingTurns--
	}
	return e.RemainingTurns > 0
}

// Expired reports whether the effect has no turns left.
func (e StatusEffect) Expired() bool {
	return e.RemainingTurns == 0
}

func (e StatusEffect) String() string {
	return fmt.Sprintf("%s(%d×%d)", e.Type, e.Intensity, e.RemainingTurns)
}
