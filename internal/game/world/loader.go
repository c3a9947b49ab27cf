package world

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Motifman/llm-rpg-sub007/internal/game/geom"
)

// yamlMapFile is the top-level YAML structure for map files.
type yamlMapFile struct {
	Map yamlMap `yaml:"map"`
}

// yamlMap is the YAML representation of a grid.
type yamlMap struct {
	ID     string      `yaml:"id"`
	Name   string      `yaml:"name"`
	Levels [][]string  `yaml:"levels"`
	Spawns []yamlSpawn `yaml:"spawns"`
}

// yamlSpawn is the YAML representation of a spawn point.
type yamlSpawn struct {
	Template string `yaml:"template"`
	At       []int  `yaml:"at"`
	Count    int    `yaml:"count"`
}

// LoadGridFromFile reads and validates a single map YAML file.
//
// Precondition: path must point to a valid YAML map file.
// Postcondition: Returns a validated Grid or a non-nil error.
func LoadGridFromFile(path string) (*Grid, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading map file %s: %w", path, err)
	}
	return LoadGridFromBytes(data)
}

// LoadGridFromBytes parses and validates a grid from YAML bytes.
//
// Postcondition: Returns a validated Grid or a non-nil error.
func LoadGridFromBytes(data []byte) (*Grid, error) {
	var file yamlMapFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing map YAML: %w", err)
	}
	g, err := convertYAMLMap(file.Map)
	if err != nil {
		return nil, fmt.Errorf("validating map: %w", err)
	}
	return g, nil
}

// convertYAMLMap converts the parsed YAML structures into domain types.
func convertYAMLMap(ym yamlMap) (*Grid, error) {
	g, err := NewGrid(ym.ID, ym.Levels)
	if err != nil {
		return nil, err
	}
	g.Name = ym.Name
	for i, ys := range ym.Spawns {
		if len(ys.At) != 3 {
			return nil, fmt.Errorf("map %q: spawn %d: at must be [x, y, z], got %v", ym.ID, i, ys.At)
		}
		count := ys.Count
		if count == 0 {
			count = 1
		}
		g.Spawns = append(g.Spawns, Spawn{Template: ys.Template, At: geom.C(ys.At[0], ys.At[1], ys.At[2]), Count: count})
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}
