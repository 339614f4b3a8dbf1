// Package boss implements boss encounters: health-derived combat phases,
// cooldown-gated skill selection driven by an injected seeded source, shields,
// immunities, resistances and loot.
package boss

import (
	"errors"
	"fmt"
)

// ErrUnknownType is returned when a boss type name or depth has no definition.
var ErrUnknownType = errors.New("unknown boss type")

// Type identifies one of the fixed bosses.
type Type uint8

const (
	GiantOgre Type = iota
	ShadowMage
	VenomLord
	MechanicalGuardian
	AbyssalLord
	numTypes
)

var typeNames = [numTypes]string{
	GiantOgre:          "giant_ogre",
	ShadowMage:         "shadow_mage",
	VenomLord:          "venom_lord",
	MechanicalGuardian: "mechanical_guardian",
	AbyssalLord:        "abyssal_lord",
}

// AllTypes returns every boss type ordered by depth.
func AllTypes() []Type {
	return []Type{GiantOgre, ShadowMage, VenomLord, MechanicalGuardian, AbyssalLord}
}

func (t Type) String() string {
	if t >= numTypes {
		return fmt.Sprintf("boss(%d)", uint8(t))
	}
	return typeNames[t]
}

// ParseType is the inverse of String.
func ParseType(s string) (Type, error) {
	for t := Type(0); t < numTypes; t++ {
		if typeNames[t] == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("boss type %q: %w", s, ErrUnknownType)
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(b []byte) error {
	v, err := ParseType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Phase is the combat-intensity tier of an encounter.
type Phase uint8

const (
	Phase1 Phase = iota
	Phase2
	Enraged
)

func (p Phase) String() string {
	switch p {
	case Phase1:
		return "phase1"
	case Phase2:
		return "phase2"
	case Enraged:
		return "enraged"
	}
	return fmt.Sprintf("phase(%d)", uint8(p))
}

// PhaseFor maps a remaining-health fraction to a phase.
//
// Postcondition: fraction <= 0.25 → Enraged; <= 0.5 → Phase2; else Phase1.
func PhaseFor(fraction float64) Phase {
	switch {
	case fraction <= 0.25:
		return Enraged
	case fraction <= 0.5:
		return Phase2
	}
	return Phase1
}

// attackMultiplier, accuracy, evasion and crit bonus rise with each phase.
func (p Phase) attackMultiplier() float64 {
	return [...]float64{1.0, 1.3, 1.6}[p]
}

func (p Phase) accuracy() uint32 {
	return [...]uint32{20, 25, 30}[p]
}

func (p Phase) evasion() uint32 {
	return [...]uint32{8, 12, 16}[p]
}

func (p Phase) critBonus() float64 {
	return [...]float64{0.15, 0.25, 0.35}[p]
}
