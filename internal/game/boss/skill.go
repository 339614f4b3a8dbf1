package boss

import (
	"fmt"

	"github.com/cory-johannsen/dungeon/internal/game/effect"
)

// SkillKind is the behaviour family of a boss skill. A boss carries at most
// one skill of each kind, so the kind doubles as the cooldown key.
type SkillKind uint8

const (
	AreaAttack SkillKind = iota
	SummonMinions
	SelfHeal
	Shield
	ApplyStatus
	Teleport
	Berserk
	ShadowBolt
	VenomSpit
	MechanicalRepair
	VoidRift
	numSkillKinds
)

var skillNames = [numSkillKinds]string{
	AreaAttack:       "area_attack",
	SummonMinions:    "summon_minions",
	SelfHeal:         "self_heal",
	Shield:           "shield",
	ApplyStatus:      "apply_status",
	Teleport:         "teleport",
	Berserk:          "berserk",
	ShadowBolt:       "shadow_bolt",
	VenomSpit:        "venom_spit",
	MechanicalRepair: "mechanical_repair",
	VoidRift:         "void_rift",
}

var skillCooldowns = [numSkillKinds]uint32{
	AreaAttack:       4,
	SummonMinions:    6,
	SelfHeal:         8,
	Shield:           5,
	ApplyStatus:      3,
	Teleport:         7,
	Berserk:          10,
	ShadowBolt:       2,
	VenomSpit:        3,
	MechanicalRepair: 6,
	VoidRift:         8,
}

func (k SkillKind) String() string {
	if k >= numSkillKinds {
		return fmt.Sprintf("skill(%d)", uint8(k))
	}
	return skillNames[k]
}

// ParseSkillKind is the inverse of String.
func ParseSkillKind(s string) (SkillKind, error) {
	for k := SkillKind(0); k < numSkillKinds; k++ {
		if skillNames[k] == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("boss: unknown skill kind %q", s)
}

// MarshalText implements encoding.TextMarshaler so cooldown maps serialise by name.
func (k SkillKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *SkillKind) UnmarshalText(b []byte) error {
	v, err := ParseSkillKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Cooldown is the number of turns the skill is unavailable after use.
func (k SkillKind) Cooldown() uint32 {
	if k >= numSkillKinds {
		return 0
	}
	return skillCooldowns[k]
}

// Skill is one ability of a boss. Only the fields relevant to Kind are set.
type Skill struct {
	Kind SkillKind `json:"kind"`
	// AreaAttack, ShadowBolt
	Radius     uint32  `json:"radius,omitempty"`
	Multiplier float64 `json:"multiplier,omitempty"`
	// SummonMinions: Count copies of the Minion monster template.
	Count  uint32 `json:"count,omitempty"`
	Minion string `json:"minion,omitempty"`
	// SelfHeal: fraction of max hp restored.
	Percent float64 `json:"percent,omitempty"`
	// Shield absorb, MechanicalRepair heal, VoidRift damage, VenomSpit per-turn damage.
	Amount uint32 `json:"amount,omitempty"`
	// ApplyStatus, VenomSpit, VoidRift
	Status   effect.Type `json:"status,omitempty"`
	Duration uint32      `json:"duration,omitempty"`
	// Berserk
	AttackBoost float64 `json:"attack_boost,omitempty"`
	SpeedBoost  float64 `json:"speed_boost,omitempty"`
}

// Cooldown is Kind.Cooldown().
func (s Skill) Cooldown() uint32 { return s.Kind.Cooldown() }

func (s Skill) String() string { return s.Kind.String() }
