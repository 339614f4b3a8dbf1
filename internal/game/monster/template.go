// Package monster provides ordinary monster templates loaded from YAML and
// spawns them into a world.
package monster

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/dungeon/internal/game/effect"
	"github.com/cory-johannsen/dungeon/internal/game/world"
)

//go:embed content/*.yaml
var builtin embed.FS

// OnHit is a status effect a monster may inflict when its attack lands.
type OnHit struct {
	Status    string  `yaml:"status"`
	Duration  uint32  `yaml:"duration"`
	Intensity uint8   `yaml:"intensity"`
	Chance    float64 `yaml:"chance"`

	effect effect.StatusEffect
}

// Effect returns the parsed effect. Valid only after Template.Validate succeeds.
func (o *OnHit) Effect() effect.StatusEffect { return o.effect }

// Template defines a reusable monster archetype loaded from YAML.
type Template struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Glyph       string  `yaml:"glyph"`
	MinDepth    int     `yaml:"min_depth"`
	MaxDepth    int     `yaml:"max_depth"` // 0 = no upper bound
	MaxHP       uint32  `yaml:"max_hp"`
	Attack      uint32  `yaml:"attack"`
	Defense     uint32  `yaml:"defense"`
	Accuracy    uint32  `yaml:"accuracy"`
	Evasion     uint32  `yaml:"evasion"`
	CritBonus   float64 `yaml:"crit_bonus"`
	Range       uint32  `yaml:"range"`
	Experience  uint32  `yaml:"experience"`
	Energy      uint32  `yaml:"energy"`
	AI          string  `yaml:"ai"` // melee or ranged; empty = melee
	// Summoned templates only appear through boss skills, never when a
	// level is populated.
	Summoned bool       `yaml:"summoned"`
	OnHit    *OnHit     `yaml:"on_hit"`
	Loot     *LootTable `yaml:"loot"`

	aiKind world.AIKind
}

// Validate checks that the template satisfies basic invariants and fills
// defaults for Range and Energy.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty, MaxHP >= 1, the
// depth band is well formed, AI names a known behaviour, and any OnHit and
// Loot blocks are valid; returns an error on the first violation otherwise.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("monster template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("monster template %q: name must not be empty", t.ID)
	}
	if t.MaxHP < 1 {
		return fmt.Errorf("monster template %q: max_hp must be >= 1", t.ID)
	}
	if t.MinDepth < 0 || (t.MaxDepth != 0 && t.MaxDepth < t.MinDepth) {
		return fmt.Errorf("monster template %q: depth band [%d,%d] is invalid", t.ID, t.MinDepth, t.MaxDepth)
	}
	switch t.AI {
	case "", "melee":
		t.aiKind = world.AIMelee
	case "ranged":
		t.aiKind = world.AIRanged
	default:
		return fmt.Errorf("monster template %q: unknown ai %q", t.ID, t.AI)
	}
	if t.Range == 0 {
		t.Range = 1
	}
	if t.Energy == 0 {
		t.Energy = 100
	}
	if t.OnHit != nil {
		et, err := effect.ParseType(t.OnHit.Status)
		if err != nil {
			return fmt.Errorf("monster template %q: on_hit: %w", t.ID, err)
		}
		if t.OnHit.Chance <= 0 || t.OnHit.Chance > 1 {
			return fmt.Errorf("monster template %q: on_hit chance must be in (0, 1], got %v", t.ID, t.OnHit.Chance)
		}
		intensity := t.OnHit.Intensity
		if intensity == 0 {
			intensity = effect.DefaultIntensity
		}
		t.OnHit.effect = effect.New(et, t.OnHit.Duration, intensity)
	}
	if t.Loot != nil {
		if err := t.Loot.Validate(); err != nil {
			return fmt.Errorf("monster template %q: %w", t.ID, err)
		}
	}
	return nil
}

// AIKind returns the parsed behaviour. Valid only after Validate succeeds.
func (t *Template) AIKind() world.AIKind { return t.aiKind }

// SpawnsAt reports whether the template populates levels at depth.
func (t *Template) SpawnsAt(depth int) bool {
	if t.Summoned || depth < t.MinDepth {
		return false
	}
	return t.MaxDepth == 0 || depth <= t.MaxDepth
}

// LoadTemplateFromBytes parses a single monster template from raw YAML bytes.
//
// Precondition: data must be valid YAML for a single Template.
// Postcondition: Returns a validated *Template, or an error.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var tmpl Template
	if err := yaml.Unmarshal(data, &tmpl); err != nil {
		return nil, fmt.Errorf("parsing template YAML: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// LoadTemplates reads all *.yaml files in dir. An empty dir yields the
// built-in templates.
//
// Precondition: dir, when set, must be a readable directory.
// Postcondition: Returns all templates or an error on the first parse or
// validate failure; on error, the partial result is discarded.
func LoadTemplates(dir string) ([]*Template, error) {
	if dir == "" {
		return loadFS(builtin, "content")
	}
	return loadFS(os.DirFS(dir), ".")
}

func loadFS(fsys fs.FS, dir string) ([]*Template, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("reading monster dir %q: %w", dir, err)
	}

	var templates []*Template
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		p := path.Join(dir, entry.Name())
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}

		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", p, err)
		}
		templates = append(templates, tmpl)
	}
	return templates, nil
}
