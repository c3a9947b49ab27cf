package nav

import (
	"container/heap"
	"fmt"

	"github.com/Motifman/llm-rpg-sub007/internal/game/geom"
)

// Map is the tile model A* searches over.
type Map interface {
	Passability
	InBounds(c geom.Coordinate) bool
	// CanMoveVertically reports whether a direct move between two stacked
	// tiles (same x,y, adjacent z) is allowed for capability.
	CanMoveVertically(from, to geom.Coordinate, capability Capability) bool
}

const (
	straightCost = 10
	diagonalCost = 14
)

// Finder is an A* PathFinder bound to one Map.
//
// Invariant: m is non-nil.
type Finder struct {
	m Map
}

// NewFinder returns a Finder over m.
//
// Precondition: m must not be nil.
func NewFinder(m Map) *Finder {
	if m == nil {
		panic("nav.NewFinder: map must not be nil")
	}
	return &Finder{m: m}
}

type node struct {
	at    geom.Coordinate
	g, f  int
	seq   int
	index int
}

type openSet []*node

func (o openSet) Len() int { return len(o) }
func (o openSet) Less(i, j int) bool {
	if o[i].f != o[j].f {
		return o[i].f < o[j].f
	}
	return o[i].seq < o[j].seq
}
func (o openSet) Swap(i, j int) {
	o[i], o[j] = o[j], o[i]
	o[i].index = i
	o[j].index = j
}
func (o *openSet) Push(x any) {
	n := x.(*node)
	n.index = len(*o)
	*o = append(*o, n)
}
func (o *openSet) Pop() any {
	old := *o
	n := old[len(old)-1]
	*o = old[:len(old)-1]
	return n
}

// FindPath returns the cheapest route from start to goal, inclusive of both.
//
// Precondition: start and goal lie on the map; opts.MaxNodes >= 0.
// Postcondition: returns ErrInvalidRequest for off-map coordinates or a negative
// budget; ErrPathNotFound when the goal is impassable, unreachable, or the
// expansion budget runs out. Ties are broken by discovery order so results are
// deterministic.
func (f *Finder) FindPath(start, goal geom.Coordinate, capability Capability, opts Options) ([]geom.Coordinate, error) {
	if opts.MaxNodes < 0 {
		return nil, fmt.Errorf("%w: max nodes %d", ErrInvalidRequest, opts.MaxNodes)
	}
	if !f.m.InBounds(start) || !f.m.InBounds(goal) {
		return nil, fmt.Errorf("%w: %v -> %v outside map", ErrInvalidRequest, start, goal)
	}
	if start == goal {
		return []geom.Coordinate{start}, nil
	}
	if !f.m.IsPassable(goal, capability) {
		return nil, fmt.Errorf("%w: goal %v impassable for %v", ErrPathNotFound, goal, capability)
	}
	budget := opts.MaxNodes
	if budget == 0 {
		budget = DefaultMaxNodes
	}

	open := &openSet{}
	gScore := map[geom.Coordinate]int{start: 0}
	parent := make(map[geom.Coordinate]geom.Coordinate)
	closed := make(map[geom.Coordinate]bool)
	seq := 0
	heap.Push(open, &node{at: start, g: 0, f: heuristic(start, goal, opts.AllowDiagonal)})

	expanded := 0
	for open.Len() > 0 {
		cur := heap.Pop(open).(*node)
		if closed[cur.at] {
			continue
		}
		if cur.at == goal {
			return reconstruct(parent, start, goal), nil
		}
		closed[cur.at] = true
		expanded++
		if expanded > budget {
			break
		}
		for _, step := range f.neighbours(cur.at, capability, opts.AllowDiagonal) {
			if closed[step.at] {
				continue
			}
			ng := cur.g + step.cost
			if prev, ok := gScore[step.at]; ok && ng >= prev {
				continue
			}
			gScore[step.at] = ng
			parent[step.at] = cur.at
			seq++
			heap.Push(open, &node{at: step.at, g: ng, f: ng + heuristic(step.at, goal, opts.AllowDiagonal), seq: seq})
		}
	}
	return nil, fmt.Errorf("%w: %v -> %v", ErrPathNotFound, start, goal)
}

type move struct {
	at   geom.Coordinate
	cost int
}

func (f *Finder) neighbours(at geom.Coordinate, capability Capability, diagonal bool) []move {
	var out []move
	for _, d := range geom.CompassDirections {
		dx, dy := d.Vector()
		isDiagonal := dx != 0 && dy != 0
		if isDiagonal && !diagonal {
			continue
		}
		next := at.Add(dx, dy, 0)
		if !f.m.InBounds(next) || !f.m.IsPassable(next, capability) {
			continue
		}
		if isDiagonal {
			// No cutting corners around walls.
			if !f.m.IsPassable(at.Add(dx, 0, 0), capability) || !f.m.IsPassable(at.Add(0, dy, 0), capability) {
				continue
			}
			out = append(out, move{at: next, cost: diagonalCost})
			continue
		}
		out = append(out, move{at: next, cost: straightCost})
	}
	for _, dz := range []int{-1, 1} {
		next := at.Add(0, 0, dz)
		if f.m.InBounds(next) && f.m.CanMoveVertically(at, next, capability) {
			out = append(out, move{at: next, cost: straightCost})
		}
	}
	return out
}

func heuristic(a, b geom.Coordinate, diagonal bool) int {
	dx, dy, dz := absInt(a.X-b.X), absInt(a.Y-b.Y), absInt(a.Z-b.Z)
	if !diagonal {
		return straightCost * (dx + dy + dz)
	}
	lo, hi := dx, dy
	if lo > hi {
		lo, hi = hi, lo
	}
	return diagonalCost*lo + straightCost*(hi-lo) + straightCost*dz
}

func reconstruct(parent map[geom.Coordinate]geom.Coordinate, start, goal geom.Coordinate) []geom.Coordinate {
	path := []geom.Coordinate{goal}
	for at := goal; at != start; {
		at = parent[at]
		path = append(path, at)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
