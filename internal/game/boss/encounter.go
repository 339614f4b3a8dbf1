package boss

import (
	"maps"
	"slices"

	"github.com/cory-johannsen/dungeon/internal/game/dice"
	"github.com/cory-johannsen/dungeon/internal/game/effect"
)

// Area-attack preference when the player is close.
const areaAttackChance = 0.6

// BerserkTurns is how long a Berserk boost lasts.
const BerserkTurns = 5

// Encounter is the live state of one boss. It is the single owner of the
// boss's health; the entity carrying it has no separate Stats.
//
// Invariant: Phase == PhaseFor(HealthFraction()) after every mutation of HP.
type Encounter struct {
	Type           Type                    `json:"type"`
	Name           string                  `json:"name"`
	HP             uint32                  `json:"hp"`
	MaxHP          uint32                  `json:"max_hp"`
	Attack         uint32                  `json:"attack"`
	Defense        uint32                  `json:"defense"`
	Experience     uint32                  `json:"experience"`
	AttackDistance uint32                  `json:"attack_distance"`
	Phase          Phase                   `json:"phase"`
	Skills         []Skill                 `json:"skills"`
	Cooldowns      map[SkillKind]uint32    `json:"cooldowns"`
	Shield         uint32                  `json:"shield"`
	Immunities     []effect.Type           `json:"immunities"`
	Resistances    map[effect.Type]float64 `json:"resistances"`
	BerserkBoost   float64                 `json:"berserk_boost,omitempty"`
	BerserkLeft    uint32                  `json:"berserk_left,omitempty"`
}

// NewEncounter builds a full-health encounter from a validated definition.
func NewEncounter(d *Definition) *Encounter {
	return &Encounter{
		Type:           d.typ,
		Name:           d.Name,
		HP:             d.HP,
		MaxHP:          d.HP,
		Attack:         d.Attack,
		Defense:        d.Defense,
		Experience:     d.Experience,
		AttackDistance: d.AttackDistance,
		Phase:          Phase1,
		Skills:         slices.Clone(d.skills),
		Cooldowns:      make(map[SkillKind]uint32),
		Immunities:     slices.Clone(d.immunities),
		Resistances:    maps.Clone(d.resist),
	}
}

// HealthFraction is HP/MaxHP; zero when MaxHP is zero.
func (e *Encounter) HealthFraction() float64 {
	if e.MaxHP == 0 {
		return 0
	}
	return float64(e.HP) / float64(e.MaxHP)
}

// UpdatePhase recomputes the phase from health and reports whether it changed.
func (e *Encounter) UpdatePhase() (Phase, bool) {
	p := PhaseFor(e.HealthFraction())
	if p == e.Phase {
		return p, false
	}
	e.Phase = p
	return p, true
}

// TakeDamage applies amount, letting the shield absorb first.
//
// Postcondition: returns the health actually lost; Phase is recomputed.
func (e *Encounter) TakeDamage(amount uint32) uint32 {
	if e.Shield >= amount {
		e.Shield -= amount
		return 0
	}
	overflow := amount - e.Shield
	e.Shield = 0
	lost := min(overflow, e.HP)
	e.HP -= lost
	e.UpdatePhase()
	return lost
}

// Heal restores amount, clamped to MaxHP, and recomputes the phase.
func (e *Encounter) Heal(amount uint32) {
	e.HP = uint32(min(uint64(e.HP)+uint64(amount), uint64(e.MaxHP)))
	e.UpdatePhase()
}

// AddShield stacks amount onto the current shield.
func (e *Encounter) AddShield(amount uint32) { e.Shield += amount }

// IsAlive reports HP > 0.
func (e *Encounter) IsAlive() bool { return e.HP > 0 }

// Available reports whether the skill kind is off cooldown.
func (e *Encounter) Available(k SkillKind) bool { return e.Cooldowns[k] == 0 }

// AvailableSkills returns the skills usable this turn, in definition order.
func (e *Encounter) AvailableSkills() []Skill {
	out := make([]Skill, 0, len(e.Skills))
	for _, s := range e.Skills {
		if e.Available(s.Kind) {
			out = append(out, s)
		}
	}
	return out
}

// ChooseSkill picks the skill to use this turn.
//
// Precondition: src is the session's seeded source.
// Postcondition: the returned skill, if any, is available. Selection does
// not start its cooldown; call UseSkill for that.
func (e *Encounter) ChooseSkill(distance, hpFraction float64, src dice.Source) (Skill, bool) {
	avail := e.AvailableSkills()
	if len(avail) == 0 {
		return Skill{}, false
	}
	find := func(k SkillKind) (Skill, bool) {
		i := slices.IndexFunc(avail, func(s Skill) bool { return s.Kind == k })
		if i < 0 {
			return Skill{}, false
		}
		return avail[i], true
	}

	if hpFraction < 0.3 {
		if s, ok := find(SelfHeal); ok {
			return s, true
		}
		if s, ok := find(Shield); ok {
			return s, true
		}
	}
	if distance > 5.0 {
		if s, ok := find(ShadowBolt); ok {
			return s, true
		}
	}
	if distance <= 3.0 {
		if s, ok := find(AreaAttack); ok && dice.Chance(src, areaAttackChance) {
			return s, true
		}
	}
	return avail[src.Intn(len(avail))], true
}

// UseSkill starts the skill's cooldown and applies any self-buff it carries.
func (e *Encounter) UseSkill(s Skill) {
	if cd := s.Cooldown(); cd > 0 {
		e.Cooldowns[s.Kind] = cd
	}
	if s.Kind == Berserk {
		e.BerserkBoost = s.AttackBoost
		e.BerserkLeft = BerserkTurns
	}
}

// TickCooldowns advances every cooldown one turn, dropping those that reach
// zero, and wears down an active berserk.
func (e *Encounter) TickCooldowns() {
	for k, v := range e.Cooldowns {
		if v <= 1 {
			delete(e.Cooldowns, k)
			continue
		}
		e.Cooldowns[k] = v - 1
	}
	if e.BerserkLeft > 0 {
		e.BerserkLeft--
		if e.BerserkLeft == 0 {
			e.BerserkBoost = 0
		}
	}
}

// IsImmune reports whether t can never be applied to this boss.
func (e *Encounter) IsImmune(t effect.Type) bool {
	return slices.Contains(e.Immunities, t)
}

// Resistance returns the 0..1 resistance to t.
func (e *Encounter) Resistance(t effect.Type) float64 {
	return e.Resistances[t]
}

// AttackPower is base attack scaled by phase and any berserk boost.
func (e *Encounter) AttackPower() uint32 {
	mult := e.Phase.attackMultiplier()
	if e.BerserkLeft > 0 && e.BerserkBoost > 0 {
		mult *= e.BerserkBoost
	}
	return uint32(float64(e.Attack) * mult)
}

// Accuracy rises with phase.
func (e *Encounter) Accuracy() uint32 { return e.Phase.accuracy() }

// Evasion rises with phase.
func (e *Encounter) Evasion() uint32 { return e.Phase.evasion() }

// CritBonus rises with phase.
func (e *Encounter) CritBonus() float64 { return e.Phase.critBonus() }
