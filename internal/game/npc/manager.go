package npc

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Motifman/llm-rpg-sub007/internal/game/geom"
)

// Manager is the arena of live instances, indexed by ID and kept in
// insertion order so every iteration is deterministic.
// All methods are safe for concurrent use.
type Manager struct {
	mu        sync.RWMutex
	instances map[string]*Instance
	order     []string
	counter   atomic.Uint64
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{instances: make(map[string]*Instance)}
}

// Spawn creates a new Instance from tmpl at pos.
//
// Precondition: tmpl must be non-nil.
// Postcondition: Returns a new Instance with ID "<template>-<n>", registered last.
func (m *Manager) Spawn(tmpl *Template, pos geom.Coordinate) (*Instance, error) {
	if tmpl == nil {
		return nil, fmt.Errorf("npc.Manager.Spawn: tmpl must not be nil")
	}
	id := fmt.Sprintf("%s-%d", tmpl.ID, m.counter.Add(1))
	inst, err := NewInstance(id, tmpl, pos)
	if err != nil {
		return nil, err
	}
	if err := m.Add(inst); err != nil {
		return nil, err
	}
	return inst, nil
}

// Add registers an externally constructed instance, typically a player.
//
// Postcondition: Returns an error if the ID is empty or already present.
func (m *Manager) Add(inst *Instance) error {
	if inst == nil || inst.ID == "" {
		return fmt.Errorf("npc.Manager.Add: instance must have an id")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.instances[inst.ID]; exists {
		return fmt.Errorf("npc.Manager.Add: instance %q already exists", inst.ID)
	}
	m.instances[inst.ID] = inst
	m.order = append(m.order, inst.ID)
	return nil
}

// Remove deletes an instance by ID.
//
// Postcondition: Returns an error if the instance is not found.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.instances[id]; !ok {
		return fmt.Errorf("npc instance %q not found", id)
	}
	delete(m.instances, id)
	for i, oid := range m.order {
		if oid == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return nil
}

// Get returns the instance with the given ID.
//
// Postcondition: Returns (inst, true) if found, or (nil, false) otherwise.
func (m *Manager) Get(id string) (*Instance, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inst, ok := m.instances[id]
	return inst, ok
}

// All returns every instance in insertion order.
//
// Postcondition: Returns a non-nil slice (may be empty).
func (m *Manager) All() []*Instance {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*Instance, 0, len(m.order))
	for _, id := range m.order {
		out = append(out, m.instances[id])
	}
	return out
}

// InRange returns the instances whose Euclidean distance from center is at
// most radius, in insertion order.
func (m *Manager) InRange(center geom.Coordinate, radius float64) []*Instance {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*Instance
	for _, id := range m.order {
		inst := m.instances[id]
		if geom.Euclidean(center, inst.Position) <= radius {
			out = append(out, inst)
		}
	}
	return out
}

// Occupied reports whether an actor other than exceptID stands on pos.
func (m *Manager) Occupied(pos geom.Coordinate, exceptID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range m.order {
		inst := m.instances[id]
		if id != exceptID && inst.IsActor() && inst.Position == pos {
			return true
		}
	}
	return false
}

// Move relocates an instance to pos.
//
// Precondition: id must identify an existing instance.
// Postcondition: instance.Position equals pos.
func (m *Manager) Move(id string, pos geom.Coordinate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	inst, ok := m.instances[id]
	if !ok {
		return fmt.Errorf("npc.Manager.Move: instance %q not found", id)
	}
	inst.Position = pos
	return nil
}

// PackLeader returns the first autonomous instance leading packID.
func (m *Manager) PackLeader(packID string) (*Instance, bool) {
	if packID == "" {
		return nil, false
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, id := range m.order {
		inst := m.instances[id]
		if inst.Behavior == nil {
			continue
		}
		if p := inst.Behavior.Pack(); p.ID == packID && p.Leader {
			return inst, true
		}
	}
	return nil, false
}
