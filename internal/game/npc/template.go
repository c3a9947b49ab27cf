// Package npc provides actor template definitions and the live actor arena.
package npc

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Motifman/llm-rpg-sub007/internal/game/behavior"
	"github.com/Motifman/llm-rpg-sub007/internal/game/disposition"
	"github.com/Motifman/llm-rpg-sub007/internal/game/geom"
	"github.com/Motifman/llm-rpg-sub007/internal/game/nav"
)

// Kind classifies what an instance is.
type Kind string

const (
	// KindNPC is an autonomous actor driven by the behavior engine.
	KindNPC Kind = "npc"
	// KindPlayer is an actor controlled from outside the engine.
	KindPlayer Kind = "player"
	// KindObject is a non-actor entity; perception ignores it.
	KindObject Kind = "object"
)

// DefaultMaxFailures is used when a template leaves max_failures unset.
const DefaultMaxFailures = 5

// GrowthSpec carries progression overrides applied at spot time.
type GrowthSpec struct {
	FleeThreshold *float64 `yaml:"flee_threshold"`
	AllowChase    *bool    `yaml:"allow_chase"`
}

// Template defines a reusable actor archetype loaded from YAML.
type Template struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Kind        Kind   `yaml:"kind"` // empty = npc
	Race        string `yaml:"race"`
	Faction     string `yaml:"faction"`
	MaxHP       int    `yaml:"max_hp"`
	MaxMana     int    `yaml:"max_mana"`

	VisionRange       float64                  `yaml:"vision_range"`
	FieldOfView       float64                  `yaml:"field_of_view"`
	Facing            string                   `yaml:"facing"` // empty = north
	SearchDuration    int                      `yaml:"search_duration"`
	FleeThreshold     float64                  `yaml:"flee_threshold"`
	PhaseThresholds   []float64                `yaml:"phase_thresholds"`
	TerritoryRadius   float64                  `yaml:"territory_radius"`
	MaxFailures       int                      `yaml:"max_failures"`
	WanderProbability float64                  `yaml:"wander_probability"`
	Movement          []string                 `yaml:"movement"`
	Patrol            [][]int                  `yaml:"patrol"`
	Pack              behavior.PackAffiliation `yaml:"pack"`
	Skills            []behavior.Skill         `yaml:"skills"`
	TargetPolicy      string                   `yaml:"target_policy"`
	SkillPolicy       string                   `yaml:"skill_policy"`
	Growth            *GrowthSpec              `yaml:"growth"`
}

// EffectiveKind returns Kind, defaulting to npc.
func (t *Template) EffectiveKind() Kind {
	if t.Kind == "" {
		return KindNPC
	}
	return t.Kind
}

// Descriptor returns the identity used for disposition lookups.
func (t *Template) Descriptor() disposition.Descriptor {
	return disposition.Descriptor{Race: t.Race, Faction: t.Faction}
}

// PatrolRoute converts the [x, y, z] triples to coordinates.
//
// Postcondition: returns an error naming the first malformed entry.
func (t *Template) PatrolRoute() ([]geom.Coordinate, error) {
	route := make([]geom.Coordinate, 0, len(t.Patrol))
	for i, p := range t.Patrol {
		if len(p) != 3 {
			return nil, fmt.Errorf("npc template %q: patrol[%d] must be [x, y, z], got %v", t.ID, i, p)
		}
		route = append(route, geom.C(p[0], p[1], p[2]))
	}
	return route, nil
}

// BehaviorConfig builds the behavior component configuration for an instance
// spawned at home.
//
// Postcondition: the returned config has not been validated; NewComponent does that.
func (t *Template) BehaviorConfig(home geom.Coordinate) (behavior.Config, error) {
	route, err := t.PatrolRoute()
	if err != nil {
		return behavior.Config{}, err
	}
	movement, err := nav.ParseCapability(t.Movement)
	if err != nil {
		return behavior.Config{}, fmt.Errorf("npc template %q: %w", t.ID, err)
	}
	facing := geom.North
	if t.Facing != "" {
		if facing, err = geom.ParseDirection(t.Facing); err != nil {
			return behavior.Config{}, fmt.Errorf("npc template %q: %w", t.ID, err)
		}
	}
	maxFailures := t.MaxFailures
	if maxFailures == 0 {
		maxFailures = DefaultMaxFailures
	}
	return behavior.Config{
		Descriptor:        t.Descriptor(),
		VisionRange:       t.VisionRange,
		FieldOfView:       t.FieldOfView,
		Facing:            facing,
		Home:              home,
		PatrolRoute:       route,
		SearchDuration:    t.SearchDuration,
		FleeThreshold:     t.FleeThreshold,
		HPFraction:        1,
		PhaseThresholds:   t.PhaseThresholds,
		TerritoryRadius:   t.TerritoryRadius,
		Pack:              t.Pack,
		Skills:            t.Skills,
		MaxFailures:       maxFailures,
		WanderProbability: t.WanderProbability,
		Movement:          movement,
	}, nil
}

// Validate checks that the template satisfies basic invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty, Kind is known,
// actors have MaxHP >= 1, MaxMana >= 0, and npc templates produce a valid
// behavior configuration; returns an error on the first violation otherwise.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("npc template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("npc template %q: name must not be empty", t.ID)
	}
	kind := t.EffectiveKind()
	switch kind {
	case KindNPC, KindPlayer, KindObject:
	default:
		return fmt.Errorf("npc template %q: unknown kind %q", t.ID, t.Kind)
	}
	if kind == KindObject {
		return nil
	}
	if t.MaxHP < 1 {
		return fmt.Errorf("npc template %q: max_hp must be >= 1", t.ID)
	}
	if t.MaxMana < 0 {
		return fmt.Errorf("npc template %q: max_mana must be >= 0", t.ID)
	}
	if kind != KindNPC {
		return nil
	}
	cfg, err := t.BehaviorConfig(geom.Coordinate{})
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("npc template %q: %w", t.ID, err)
	}
	return nil
}

// LoadTemplateFromBytes parses a single template from raw YAML bytes.
//
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

// LoadTemplates reads all *.yaml files in dir and returns the parsed templates
// in file name order.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all templates or an error on the first parse or validate
// failure; on error, the partial result is discarded.
func LoadTemplates(dir string) ([]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading npc dir %q: %w", dir, err)
	}

	var templates []*Template
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}

		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		templates = append(templates, tmpl)
	}
	return templates, nil
}
