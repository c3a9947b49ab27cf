package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/Motifman/llm-rpg-sub007/internal/game/dice"
)

// globalSetID is the reserved key for shared scripts loaded via LoadGlobal.
// CallHook falls back to this VM when no set VM is found.
const globalSetID = "__global__"

// ActorInfo is a snapshot of an actor passed to Lua callbacks.
type ActorInfo struct {
	ID         string
	Name       string
	X, Y, Z    int
	HPFraction float64
	Race       string
	Faction    string
}

type scriptSet struct {
	mu    sync.Mutex
	L     *lua.LState
	limit int
}

// Manager owns one sandboxed LState per script set and exposes hook dispatch.
//
// Manager is safe for concurrent CallHook. Each set's LState is
// single-threaded, so calls into the same set are serialized while different
// sets run concurrently.
type Manager struct {
	mu     sync.RWMutex
	sets   map[string]*scriptSet
	rng    dice.Source
	logger *zap.Logger

	// Injected after construction. nil = engine.actor.* returns nil.
	GetActor func(id string) *ActorInfo
}

// NewManager creates a Manager.
//
// Precondition: rng and logger must be non-nil.
// Postcondition: Returns a non-nil Manager with no script sets.
func NewManager(rng dice.Source, logger *zap.Logger) *Manager {
	if rng == nil {
		panic("scripting.NewManager: rng must not be nil")
	}
	if logger == nil {
		panic("scripting.NewManager: logger must not be nil")
	}
	return &Manager{
		sets:   make(map[string]*scriptSet),
		rng:    rng,
		logger: logger,
	}
}

// LoadSet creates a sandboxed VM for setID, registers the engine.* modules,
// then executes every *.lua file in scriptDir in lexicographic order.
//
// Precondition: setID must be non-empty; scriptDir must be a readable directory.
// Postcondition: the set is registered, replacing any previous VM; returns
// error on Lua load failure.
func (m *Manager) LoadSet(setID, scriptDir string, instLimit int) error {
	entries, err := os.ReadDir(scriptDir)
	if err != nil {
		return fmt.Errorf("scripting: reading script dir %q for %q: %w", scriptDir, setID, err)
	}
	var files []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			files = append(files, filepath.Join(scriptDir, e.Name()))
		}
	}
	sort.Strings(files)
	return m.load(setID, instLimit, func(L *lua.LState) error {
		for _, path := range files {
			if err := L.DoFile(path); err != nil {
				return fmt.Errorf("scripting: loading %q for %q: %w", path, setID, err)
			}
		}
		return nil
	})
}

// LoadString is LoadSet for a single in-memory chunk.
func (m *Manager) LoadString(setID, src string, instLimit int) error {
	return m.load(setID, instLimit, func(L *lua.LState) error {
		if err := L.DoString(src); err != nil {
			return fmt.Errorf("scripting: loading source for %q: %w", setID, err)
		}
		return nil
	})
}

// LoadGlobal creates the fallback VM consulted when a set has no VM of its own.
func (m *Manager) LoadGlobal(scriptDir string, instLimit int) error {
	return m.LoadSet(globalSetID, scriptDir, instLimit)
}

func (m *Manager) load(setID string, instLimit int, run func(L *lua.LState) error) error {
	L := NewSandboxedState(instLimit)
	m.RegisterModules(L)

	cancel := resetBudget(L, instLimit)
	err := run(L)
	cancel()
	if err != nil {
		L.Close()
		return err
	}

	m.mu.Lock()
	if old, ok := m.sets[setID]; ok {
		old.mu.Lock()
		old.L.Close()
		old.mu.Unlock()
	}
	m.sets[setID] = &scriptSet{L: L, limit: instLimit}
	m.mu.Unlock()
	return nil
}

// HasSet reports whether setID has its own VM.
func (m *Manager) HasSet(setID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.sets[setID]
	return ok
}

// CallHook calls the named Lua global function in setID's VM. If the set has
// no VM, the global VM is tried as a fallback. Returns (LNil, nil) if the
// hook is not defined or no VM exists. Lua runtime errors, including an
// exhausted instruction budget, are logged at Warn level and never propagated.
//
// Precondition: args must be valid lua.LValue instances.
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(setID, hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.RLock()
	set, ok := m.sets[setID]
	if !ok {
		set = m.sets[globalSetID]
	}
	m.mu.RUnlock()

	if set == nil {
		m.logger.Info("scripting: no VM for script set",
			zap.String("set", setID),
			zap.String("hook", hook),
		)
		return lua.LNil, nil
	}

	set.mu.Lock()
	defer set.mu.Unlock()

	L := set.L
	fn := L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	cancel := resetBudget(L, set.limit)
	defer cancel()
	if err := L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, args...); err != nil {
		m.logger.Warn("scripting: Lua runtime error",
			zap.String("set", setID),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}

	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}

// Close releases every VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, set := range m.sets {
		set.mu.Lock()
		set.L.Close()
		set.mu.Unlock()
		delete(m.sets, id)
	}
}
