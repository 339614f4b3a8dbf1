// Package achievement tracks player progress counters and unlocks
// achievements whose criteria are met.
package achievement

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed achievements.yaml
var builtinYAML []byte

// ID names one achievement.
type ID string

const (
	FirstBlood     ID = "first_blood"
	SlayerI        ID = "slayer_1"
	SlayerII       ID = "slayer_2"
	SlayerIII      ID = "slayer_3"
	BossSlayer     ID = "boss_slayer"
	DeepDiver      ID = "deep_diver"
	Spelunker      ID = "spelunker"
	MasterExplorer ID = "master_explorer"
	Hoarder        ID = "hoarder"
	Collector      ID = "collector"
	TreasureHunter ID = "treasure_hunter"
	Survivor       ID = "survivor"
	Veteran        ID = "veteran"
	Legend         ID = "legend"
	Lucky          ID = "lucky"
	Wealthy        ID = "wealthy"
)

// Criteria is the progress counter an achievement is measured against.
type Criteria string

const (
	Kills     Criteria = "kills"
	Depth     Criteria = "depth"
	Items     Criteria = "items"
	Turns     Criteria = "turns"
	Bosses    Criteria = "bosses"
	Gold      Criteria = "gold"
	RareItems Criteria = "rare_items"
)

// Definition is one achievement loaded from YAML.
type Definition struct {
	ID          ID       `yaml:"id"`
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Criteria    Criteria `yaml:"criteria"`
	Threshold   uint32   `yaml:"threshold"`
}

// Validate checks the definition.
//
// Postcondition: nil error means Met is well defined.
func (d Definition) Validate() error {
	var errs []error
	if d.ID == "" {
		errs = append(errs, fmt.Errorf("achievement: id must not be empty"))
	}
	if d.Name == "" {
		errs = append(errs, fmt.Errorf("achievement %q: name must not be empty", d.ID))
	}
	switch d.Criteria {
	case Kills, Depth, Items, Turns, Bosses, Gold, RareItems:
	default:
		errs = append(errs, fmt.Errorf("achievement %q: unknown criteria %q", d.ID, d.Criteria))
	}
	if d.Threshold == 0 {
		errs = append(errs, fmt.Errorf("achievement %q: threshold must be > 0", d.ID))
	}
	return errors.Join(errs...)
}

// Met reports whether p satisfies the definition.
func (d Definition) Met(p Progress) bool {
	return p.counter(d.Criteria) >= d.Threshold
}

type definitionFile struct {
	Achievements []Definition `yaml:"achievements"`
}

// ParseDefinitions decodes and validates an achievement document.
//
// Postcondition: ids are unique and every definition is valid.
func ParseDefinitions(data []byte) ([]Definition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var f definitionFile
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("achievement: decoding definitions: %w", err)
	}
	var errs []error
	seen := make(map[ID]bool, len(f.Achievements))
	for _, d := range f.Achievements {
		if err := d.Validate(); err != nil {
			errs = append(errs, err)
			continue
		}
		if seen[d.ID] {
			errs = append(errs, fmt.Errorf("achievement %q: duplicate id", d.ID))
		}
		seen[d.ID] = true
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return f.Achievements, nil
}

// LoadDefinitions reads definitions from path, or the built-in set when
// path is empty.
func LoadDefinitions(path string) ([]Definition, error) {
	if path == "" {
		return ParseDefinitions(builtinYAML)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("achievement: reading %q: %w", path, err)
	}
	return ParseDefinitions(data)
}

// Builtin returns the built-in definitions. It panics if the embedded file
// is invalid.
func Builtin() []Definition {
	defs, err := ParseDefinitions(builtinYAML)
	if err != nil {
		panic(fmt.Sprintf("achievement: built-in definitions invalid: %v", err))
	}
	return defs
}
