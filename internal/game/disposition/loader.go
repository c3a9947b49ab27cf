package disposition

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlTable is the on-disk layout of a disposition table.
type yamlTable struct {
	FactionsHostile [][]string `yaml:"factions_hostile"`
	Races           []yamlRace `yaml:"races"`
	LegacyHostile   [][]string `yaml:"legacy_hostile"`
}

type yamlRace struct {
	Actor       string `yaml:"actor"`
	Target      string `yaml:"target"`
	Disposition string `yaml:"disposition"`
}

// LoadTableFromBytes parses a disposition table and returns a populated Resolver.
//
// Precondition: data must be YAML in the disposition table schema.
// Postcondition: every pair has exactly two non-empty names and every
// disposition name is known, or an error is returned.
func LoadTableFromBytes(data []byte) (*Resolver, error) {
	var t yamlTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing disposition YAML: %w", err)
	}

	r := NewResolver()
	for i, p := range t.FactionsHostile {
		if err := checkPair(p); err != nil {
			return nil, fmt.Errorf("factions_hostile[%d]: %w", i, err)
		}
		r.SetFactionsHostile(p[0], p[1])
	}
	for i, e := range t.Races {
		if e.Actor == "" || e.Target == "" {
			return nil, fmt.Errorf("races[%d]: actor and target must not be empty", i)
		}
		d, err := Parse(e.Disposition)
		if err != nil {
			return nil, fmt.Errorf("races[%d]: %w", i, err)
		}
		r.SetRaceDisposition(e.Actor, e.Target, d)
	}
	for i, p := range t.LegacyHostile {
		if err := checkPair(p); err != nil {
			return nil, fmt.Errorf("legacy_hostile[%d]: %w", i, err)
		}
		r.SetLegacyHostile(p[0], p[1])
	}
	return r, nil
}

// LoadTable reads a disposition table from path.
func LoadTable(path string) (*Resolver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading disposition table %s: %w", path, err)
	}
	r, err := LoadTableFromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return r, nil
}

func checkPair(p []string) error {
	if len(p) != 2 || p[0] == "" || p[1] == "" {
		return fmt.Errorf("expected two non-empty names, got %v", p)
	}
	return nil
}
