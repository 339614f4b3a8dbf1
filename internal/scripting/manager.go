package scripting

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/game/dice"
)

// GlobalScope is the scope CallHook falls back to when the requested scope
// has no VM.
const GlobalScope = "global"

// CombatantInfo is a snapshot of a combatant passed to Lua callbacks.
type CombatantInfo struct {
	Name     string
	HP       int
	MaxHP    int
	X, Y     int
	Statuses []string
}

// Manager owns one sandboxed LState per scope (a boss type, "ai", or
// GlobalScope) and exposes hook dispatch.
//
// CallHook is safe for concurrent use; calls are serialized because an
// LState is single-threaded.
type Manager struct {
	mu        sync.Mutex
	states    map[string]*lua.LState
	instLimit int
	roller    *dice.Roller
	logger    *zap.Logger

	// Injected after construction. nil = no-op in engine.* modules.
	PlayerInfo func() *CombatantInfo
	Say        func(msg string)
}

// NewManager creates a Manager whose hook calls run under instLimit opcodes.
//
// Precondition: roller and logger must be non-nil.
func NewManager(roller *dice.Roller, logger *zap.Logger, instLimit int) *Manager {
	return &Manager{
		states:    make(map[string]*lua.LState),
		instLimit: instLimit,
		roller:    roller,
		logger:    logger.Named("scripting"),
	}
}

// LoadScope creates a sandboxed VM for scope, registers the engine module,
// and executes path. A directory path runs every *.lua file in it in
// lexicographic order.
//
// Precondition: scope must be non-empty.
// Postcondition: a previous VM for scope is closed and replaced; on error
// the previous VM is kept.
func (m *Manager) LoadScope(scope, path string) error {
	files, err := luaFiles(path)
	if err != nil {
		return fmt.Errorf("scripting: scope %q: %w", scope, err)
	}

	L := NewSandboxedState()
	m.RegisterModules(L, scope)
	for _, f := range files {
		release := Limit(L, m.instLimit)
		err := L.DoFile(f)
		release()
		if err != nil {
			L.Close()
			return fmt.Errorf("scripting: loading %q for %q: %w", f, scope, err)
		}
	}

	m.mu.Lock()
	if old, ok := m.states[scope]; ok {
		old.Close()
	}
	m.states[scope] = L
	m.mu.Unlock()
	m.logger.Debug("scope loaded", zap.String("scope", scope), zap.Int("files", len(files)))
	return nil
}

func luaFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".lua" {
			out = append(out, filepath.Join(path, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

// HasScope reports whether a VM is loaded for scope.
func (m *Manager) HasScope(scope string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.states[scope]
	return ok
}

// CallHook calls the named Lua global function in scope's VM, falling back
// to the GlobalScope VM. Returns (LNil, nil) if the hook is not defined or
// no VM exists. Lua runtime errors, including an exhausted instruction
// budget, are logged at Warn level and never propagated.
//
// Postcondition: Returns the first return value of the hook, or LNil.
func (m *Manager) CallHook(scope, hook string, args ...lua.LValue) (lua.LValue, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	L, ok := m.states[scope]
	if !ok {
		L = m.states[GlobalScope]
	}
	if L == nil {
		m.logger.Debug("no VM for scope", zap.String("scope", scope), zap.String("hook", hook))
		return lua.LNil, nil
	}

	fn := L.GetGlobal(hook)
	if fn == lua.LNil {
		return lua.LNil, nil
	}

	release := Limit(L, m.instLimit)
	defer release()
	if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...); err != nil {
		m.logger.Warn("Lua runtime error",
			zap.String("scope", scope),
			zap.String("hook", hook),
			zap.Error(err),
		)
		return lua.LNil, nil
	}
	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}

// NewTable builds a table in scope's VM, for hook arguments. It returns nil
// when the scope has no VM.
func (m *Manager) NewTable(scope string, fields map[string]lua.LValue) *lua.LTable {
	m.mu.Lock()
	defer m.mu.Unlock()
	L, ok := m.states[scope]
	if !ok {
		L = m.states[GlobalScope]
	}
	if L == nil {
		return nil
	}
	t := L.NewTable()
	for k, v := range fields {
		t.RawSetString(k, v)
	}
	return t
}

// Close releases every VM.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, L := range m.states {
		L.Close()
		delete(m.states, k)
	}
}
