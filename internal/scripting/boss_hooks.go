package scripting

import (
	"fmt"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/game/boss"
)

// Hook names a boss script may define.
const (
	HookChooseSkill   = "choose_skill"
	HookOnPhaseChange = "on_phase_change"
	HookOnSkillUsed   = "on_skill_used"
)

// BossHooks dispatches boss behaviour hooks to the script loaded for each
// boss type. Bosses without a script behave as if every hook were absent.
type BossHooks struct {
	mgr    *Manager
	logger *zap.Logger
}

// NewBossHooks wraps mgr.
func NewBossHooks(mgr *Manager) *BossHooks {
	return &BossHooks{mgr: mgr, logger: mgr.logger}
}

// LoadBossScripts loads, for every definition in reg naming a script, the
// file dir/<script> into the scope of that boss type.
//
// Postcondition: returns the first load error; bosses loaded before it keep
// their VMs.
func LoadBossScripts(mgr *Manager, reg *boss.Registry, dir string) error {
	for _, d := range reg.All() {
		if d.Script == "" {
			continue
		}
		if err := mgr.LoadScope(d.Type().String(), filepath.Join(dir, d.Script)); err != nil {
			return fmt.Errorf("scripting.LoadBossScripts: %s: %w", d.ID, err)
		}
	}
	return nil
}

func (h *BossHooks) table(b *boss.Encounter) lua.LValue {
	scope := b.Type.String()
	t := h.mgr.NewTable(scope, map[string]lua.LValue{
		"name":   lua.LString(b.Name),
		"type":   lua.LString(scope),
		"hp":     lua.LNumber(b.HP),
		"max_hp": lua.LNumber(b.MaxHP),
		"phase":  lua.LString(b.Phase.String()),
		"shield": lua.LNumber(b.Shield),
	})
	skills := h.mgr.NewTable(scope, nil)
	if t == nil || skills == nil {
		return lua.LNil
	}
	for _, s := range b.AvailableSkills() {
		skills.Append(lua.LString(s.Kind.String()))
	}
	t.RawSetString("skills", skills)
	return t
}

// ChooseSkill calls choose_skill(boss, distance). A script returning a
// skill name overrides the built-in choice; nil or an unknown name defers.
func (h *BossHooks) ChooseSkill(b *boss.Encounter, distance int) (boss.SkillKind, bool) {
	scope := b.Type.String()
	if !h.mgr.HasScope(scope) {
		return 0, false
	}
	ret, _ := h.mgr.CallHook(scope, HookChooseSkill, h.table(b), lua.LNumber(distance))
	name, ok := ret.(lua.LString)
	if !ok {
		return 0, false
	}
	kind, err := boss.ParseSkillKind(string(name))
	if err != nil {
		h.logger.Warn("script chose unknown skill", zap.String("boss", scope), zap.String("skill", string(name)))
		return 0, false
	}
	return kind, true
}

// OnPhaseChange calls on_phase_change(boss, from, to).
func (h *BossHooks) OnPhaseChange(b *boss.Encounter, from, to boss.Phase) {
	scope := b.Type.String()
	if !h.mgr.HasScope(scope) {
		return
	}
	h.mgr.CallHook(scope, HookOnPhaseChange, h.table(b), lua.LString(from.String()), lua.LString(to.String()))
}

// OnSkillUsed calls on_skill_used(boss, skill).
func (h *BossHooks) OnSkillUsed(b *boss.Encounter, s boss.Skill) {
	scope := b.Type.String()
	if !h.mgr.HasScope(scope) {
		return
	}
	h.mgr.CallHook(scope, HookOnSkillUsed, h.table(b), lua.LString(s.Kind.String()))
}
