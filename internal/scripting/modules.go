package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers the engine.* Lua tables into L:
//
//	engine.log.debug/info/warn(msg)
//	engine.dice.roll(expr)   -> total, or raises on a bad expression
//	engine.player()          -> {name, hp, max_hp, x, y, statuses} or nil
//	engine.say(msg)          -> appends msg to the message log
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: engine global is defined in L.
func (m *Manager) RegisterModules(L *lua.LState, scope string) {
	engine := L.NewTable()

	logger := m.logger.With(zap.String("scope", scope))
	logTbl := L.NewTable()
	for name, fn := range map[string]func(string, ...zap.Field){
		"debug": logger.Debug,
		"info":  logger.Info,
		"warn":  logger.Warn,
	} {
		L.SetField(logTbl, name, L.NewFunction(func(L *lua.LState) int {
			fn(L.CheckString(1))
			return 0
		}))
	}
	L.SetField(engine, "log", logTbl)

	diceTbl := L.NewTable()
	L.SetField(diceTbl, "roll", L.NewFunction(func(L *lua.LState) int {
		res, err := m.roller.RollExpr(L.CheckString(1))
		if err != nil {
			L.RaiseError("engine.dice.roll: %s", err.Error())
			return 0
		}
		L.Push(lua.LNumber(res.Total()))
		return 1
	}))
	L.SetField(engine, "dice", diceTbl)

	L.SetField(engine, "player", L.NewFunction(func(L *lua.LState) int {
		if m.PlayerInfo == nil {
			L.Push(lua.LNil)
			return 1
		}
		info := m.PlayerInfo()
		if info == nil {
			L.Push(lua.LNil)
			return 1
		}
		t := L.NewTable()
		t.RawSetString("name", lua.LString(info.Name))
		t.RawSetString("hp", lua.LNumber(info.HP))
		t.RawSetString("max_hp", lua.LNumber(info.MaxHP))
		t.RawSetString("x", lua.LNumber(info.X))
		t.RawSetString("y", lua.LNumber(info.Y))
		statuses := L.NewTable()
		for _, s := range info.Statuses {
			statuses.Append(lua.LString(s))
		}
		t.RawSetString("statuses", statuses)
		L.Push(t)
		return 1
	}))

	L.SetField(engine, "say", L.NewFunction(func(L *lua.LState) int {
		if m.Say != nil {
			m.Say(L.CheckString(1))
		}
		return 0
	}))

	L.SetGlobal("engine", engine)
}
