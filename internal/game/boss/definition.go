package boss

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/dungeon/internal/game/dice"
	"github.com/cory-johannsen/dungeon/internal/game/effect"
)

//go:embed bosses.yaml
var builtinYAML []byte

// SkillDef is the YAML form of a Skill.
type SkillDef struct {
	Kind        string  `yaml:"kind"`
	Radius      uint32  `yaml:"radius"`
	Multiplier  float64 `yaml:"multiplier"`
	Count       uint32  `yaml:"count"`
	Percent     float64 `yaml:"percent"`
	Amount      uint32  `yaml:"amount"`
	Status      string  `yaml:"status"`
	Duration    uint32  `yaml:"duration"`
	AttackBoost float64 `yaml:"attack_boost"`
	SpeedBoost  float64 `yaml:"speed_boost"`
	Minion      string  `yaml:"minion"`
}

// LootDef holds dice expressions for each loot component.
type LootDef struct {
	Gold        string `yaml:"gold"`
	Equipment   string `yaml:"equipment"`
	Consumables string `yaml:"consumables"`
}

// Definition is the static description of one boss, loaded from YAML.
type Definition struct {
	ID             string             `yaml:"id"`
	Name           string             `yaml:"name"`
	Depth          int                `yaml:"depth"`
	Glyph          string             `yaml:"glyph"`
	Color          string             `yaml:"color"`
	HP             uint32             `yaml:"hp"`
	Attack         uint32             `yaml:"attack"`
	Defense        uint32             `yaml:"defense"`
	Experience     uint32             `yaml:"experience"`
	AttackDistance uint32             `yaml:"attack_distance"`
	Skills         []SkillDef         `yaml:"skills"`
	Immunities     []string           `yaml:"immunities"`
	Resistances    map[string]float64 `yaml:"resistances"`
	Loot           LootDef            `yaml:"loot"`
	// Script names a Lua file under the configured script directory.
	Script string `yaml:"script"`

	typ        Type
	skills     []Skill
	immunities []effect.Type
	resist     map[effect.Type]float64
	loot       lootTable
}

type lootTable struct {
	gold, equipment, consumables dice.Expression
}

// Type returns the parsed boss type. Valid only after Validate succeeds.
func (d *Definition) Type() Type { return d.typ }

// Validate parses the string fields into their typed forms and checks ranges.
//
// Postcondition: nil error means NewEncounter(d) is well defined.
func (d *Definition) Validate() error {
	var errs []error
	t, err := ParseType(d.ID)
	if err != nil {
		errs = append(errs, err)
	}
	d.typ = t
	if d.HP == 0 {
		errs = append(errs, fmt.Errorf("%s: hp must be > 0", d.ID))
	}
	if d.Name == "" {
		errs = append(errs, fmt.Errorf("%s: name must not be empty", d.ID))
	}

	d.skills = d.skills[:0]
	seen := make(map[SkillKind]bool)
	for _, sd := range d.Skills {
		s, err := sd.toSkill()
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", d.ID, err))
			continue
		}
		if seen[s.Kind] {
			errs = append(errs, fmt.Errorf("%s: duplicate skill %s", d.ID, s.Kind))
			continue
		}
		seen[s.Kind] = true
		d.skills = append(d.skills, s)
	}

	d.immunities = d.immunities[:0]
	for _, name := range d.Immunities {
		et, err := effect.ParseType(name)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: immunity: %w", d.ID, err))
			continue
		}
		d.immunities = append(d.immunities, et)
	}

	d.resist = make(map[effect.Type]float64, len(d.Resistances))
	for name, v := range d.Resistances {
		et, err := effect.ParseType(name)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: resistance: %w", d.ID, err))
			continue
		}
		if v < 0 || v > 1 {
			errs = append(errs, fmt.Errorf("%s: resistance %s=%v out of [0,1]", d.ID, name, v))
			continue
		}
		d.resist[et] = v
	}

	for _, f := range []struct {
		name string
		raw  string
		dst  *dice.Expression
	}{
		{"gold", d.Loot.Gold, &d.loot.gold},
		{"equipment", d.Loot.Equipment, &d.loot.equipment},
		{"consumables", d.Loot.Consumables, &d.loot.consumables},
	} {
		raw := f.raw
		if raw == "" {
			raw = "0"
		}
		expr, err := dice.Parse(raw)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: loot %s: %w", d.ID, f.name, err))
			continue
		}
		*f.dst = expr
	}
	return errors.Join(errs...)
}

func (sd SkillDef) toSkill() (Skill, error) {
	k, err := ParseSkillKind(sd.Kind)
	if err != nil {
		return Skill{}, err
	}
	s := Skill{
		Kind:        k,
		Radius:      sd.Radius,
		Multiplier:  sd.Multiplier,
		Count:       sd.Count,
		Percent:     sd.Percent,
		Amount:      sd.Amount,
		Duration:    sd.Duration,
		AttackBoost: sd.AttackBoost,
		SpeedBoost:  sd.SpeedBoost,
		Minion:      sd.Minion,
	}
	switch k {
	case VenomSpit:
		s.Status = effect.Poison
	case VoidRift:
		s.Status = effect.Rooted
	}
	if sd.Status != "" {
		st, err := effect.ParseType(sd.Status)
		if err != nil {
			return Skill{}, fmt.Errorf("skill %s: %w", k, err)
		}
		s.Status = st
	}
	if k == ApplyStatus && sd.Status == "" {
		return Skill{}, fmt.Errorf("skill %s: status is required", k)
	}
	if k == SummonMinions && (sd.Minion == "" || sd.Count == 0) {
		return Skill{}, fmt.Errorf("skill %s: minion and count are required", k)
	}
	return s, nil
}

// Registry holds validated Definitions keyed by type.
type Registry struct {
	defs map[Type]*Definition
}

type definitionFile struct {
	Bosses []*Definition `yaml:"bosses"`
}

// ParseDefinitions decodes and validates a boss roster document.
//
// Postcondition: every returned definition has passed Validate.
func ParseDefinitions(data []byte) (*Registry, error) {
	var file definitionFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("parsing boss definitions: %w", err)
	}
	reg := &Registry{defs: make(map[Type]*Definition, len(file.Bosses))}
	for _, d := range file.Bosses {
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("validating boss definitions: %w", err)
		}
		if _, dup := reg.defs[d.typ]; dup {
			return nil, fmt.Errorf("validating boss definitions: duplicate boss %s", d.ID)
		}
		reg.defs[d.typ] = d
	}
	return reg, nil
}

// LoadDefinitions reads a roster from path. An empty path yields the
// built-in roster.
func LoadDefinitions(path string) (*Registry, error) {
	if path == "" {
		return DefaultRegistry(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading boss definitions %q: %w", path, err)
	}
	return ParseDefinitions(data)
}

// DefaultRegistry returns the built-in roster.
func DefaultRegistry() *Registry {
	reg, err := ParseDefinitions(builtinYAML)
	if err != nil {
		panic(fmt.Sprintf("boss: built-in definitions invalid: %v", err))
	}
	return reg
}

// Get returns the definition for t.
func (r *Registry) Get(t Type) (*Definition, bool) {
	d, ok := r.defs[t]
	return d, ok
}

// ForDepth returns the boss guarding depth, or ErrUnknownType when the depth
// has no boss.
func (r *Registry) ForDepth(depth int) (*Definition, error) {
	for _, d := range r.defs {
		if d.Depth == depth {
			return d, nil
		}
	}
	return nil, fmt.Errorf("depth %d: %w", depth, ErrUnknownType)
}

// Spawn builds a fresh Encounter for t.
func (r *Registry) Spawn(t Type) (*Encounter, error) {
	d, ok := r.defs[t]
	if !ok {
		return nil, fmt.Errorf("spawn %s: %w", t, ErrUnknownType)
	}
	return NewEncounter(d), nil
}

// All returns every definition ordered by depth.
func (r *Registry) All() []*Definition {
	out := make([]*Definition, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Depth < out[j].Depth })
	return out
}
