package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/Motifman/llm-rpg-sub007/internal/game/dice"
	"github.com/Motifman/llm-rpg-sub007/internal/game/geom"
)

// RegisterModules registers all engine.* Lua tables into L:
//
//	engine.log.debug|info|warn|error(msg)
//	engine.dice.roll(n) -> 1..n
//	engine.dice.chance(p) -> bool
//	engine.actor.get(id) -> {id,name,x,y,z,hp,race,faction} or nil
//	engine.geom.distance(x1,y1,z1,x2,y2,z2) -> number
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState) {
	engine := L.NewTable()
	L.SetField(engine, "log", m.logModule(L))
	L.SetField(engine, "dice", m.diceModule(L))
	L.SetField(engine, "actor", m.actorModule(L))
	L.SetField(engine, "geom", geomModule(L))
	L.SetGlobal("engine", engine)
}

func (m *Manager) logModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	levels := map[string]func(string, ...zap.Field){
		"debug": m.logger.Debug,
		"info":  m.logger.Info,
		"warn":  m.logger.Warn,
		"error": m.logger.Error,
	}
	for name, logFn := range levels {
		logFn := logFn
		L.SetField(mod, name, L.NewFunction(func(L *lua.LState) int {
			logFn("lua", zap.String("msg", L.CheckString(1)))
			return 0
		}))
	}
	return mod
}

func (m *Manager) diceModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	L.SetField(mod, "roll", L.NewFunction(func(L *lua.LState) int {
		n := L.CheckInt(1)
		if n <= 0 {
			L.ArgError(1, "sides must be > 0")
			return 0
		}
		L.Push(lua.LNumber(m.rng.Intn(n) + 1))
		return 1
	}))
	L.SetField(mod, "chance", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LBool(dice.Chance(m.rng, float64(L.CheckNumber(1)))))
		return 1
	}))
	return mod
}

func (m *Manager) actorModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	L.SetField(mod, "get", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		if m.GetActor == nil {
			L.Push(lua.LNil)
			return 1
		}
		info := m.GetActor(id)
		if info == nil {
			L.Push(lua.LNil)
			return 1
		}
		t := L.NewTable()
		L.SetField(t, "id", lua.LString(info.ID))
		L.SetField(t, "name", lua.LString(info.Name))
		L.SetField(t, "x", lua.LNumber(info.X))
		L.SetField(t, "y", lua.LNumber(info.Y))
		L.SetField(t, "z", lua.LNumber(info.Z))
		L.SetField(t, "hp", lua.LNumber(info.HPFraction))
		L.SetField(t, "race", lua.LString(info.Race))
		L.SetField(t, "faction", lua.LString(info.Faction))
		L.Push(t)
		return 1
	}))
	return mod
}

func geomModule(L *lua.LState) *lua.LTable {
	mod := L.NewTable()
	L.SetField(mod, "distance", L.NewFunction(func(L *lua.LState) int {
		a := geom.C(L.CheckInt(1), L.CheckInt(2), L.CheckInt(3))
		b := geom.C(L.CheckInt(4), L.CheckInt(5), L.CheckInt(6))
		L.Push(lua.LNumber(geom.Euclidean(a, b)))
		return 1
	}))
	return mod
}
