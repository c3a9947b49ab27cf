// Package nav defines the movement contract consumed by the behavior engine
// and provides an A* implementation over a tile map.
package nav

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Motifman/llm-rpg-sub007/internal/game/geom"
)

var (
	// ErrPathNotFound means no route exists under the given capability. The
	// behavior engine treats it as a recoverable movement failure.
	ErrPathNotFound = errors.New("nav: path not found")
	// ErrInvalidRequest means the request itself is malformed (coordinates
	// off the map, negative budget). It indicates a setup bug and is propagated.
	ErrInvalidRequest = errors.New("nav: invalid path request")
)

// Capability is a bitmask of the movement modes an actor has.
type Capability uint8

const (
	Walk Capability = 1 << iota
	Swim
	Fly
)

// Has reports whether c includes every mode in other.
func (c Capability) Has(other Capability) bool {
	return c&other == other
}

// Any reports whether c shares at least one mode with other.
func (c Capability) Any(other Capability) bool {
	return c&other != 0
}

// String renders the modes joined by "|".
func (c Capability) String() string {
	var parts []string
	if c.Has(Walk) {
		parts = append(parts, "walk")
	}
	if c.Has(Swim) {
		parts = append(parts, "swim")
	}
	if c.Has(Fly) {
		parts = append(parts, "fly")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, "|")
}

// ParseCapability folds mode names ("walk", "swim", "fly") into a Capability.
//
// Postcondition: an empty list yields Walk.
func ParseCapability(modes []string) (Capability, error) {
	if len(modes) == 0 {
		return Walk, nil
	}
	var c Capability
	for _, m := range modes {
		switch strings.ToLower(m) {
		case "walk":
			c |= Walk
		case "swim":
			c |= Swim
		case "fly":
			c |= Fly
		default:
			return 0, fmt.Errorf("nav: unknown movement mode %q", m)
		}
	}
	return c, nil
}

// Passability answers whether an actor with the given capability may stand on a tile.
type Passability interface {
	IsPassable(c geom.Coordinate, capability Capability) bool
}

// Options tunes a single path request.
type Options struct {
	// AllowDiagonal enables the four diagonal neighbours.
	AllowDiagonal bool
	// MaxNodes bounds node expansions; 0 uses DefaultMaxNodes.
	MaxNodes int
}

// DefaultMaxNodes is the expansion budget used when Options.MaxNodes is 0.
const DefaultMaxNodes = 4096

// PathFinder plans routes between tiles.
//
// Postcondition of FindPath: on success the path starts at start and ends at
// goal; a path of length 1 means start == goal.
type PathFinder interface {
	FindPath(start, goal geom.Coordinate, capability Capability, opts Options) ([]geom.Coordinate, error)
}
