package ai_test

import (
	"errors"
	"testing"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/dungeon/internal/game/ai"
	"github.com/cory-johannsen/dungeon/internal/game/effect"
	"github.com/cory-johannsen/dungeon/internal/game/event"
	"github.com/cory-johannsen/dungeon/internal/game/systems"
	"github.com/cory-johannsen/dungeon/internal/game/world"
)

type fixedSrc struct{ val int }

func (f fixedSrc) Intn(n int) int { return f.val % n }

// mockScriptCaller returns returnVal for every hook and records hook names.
type mockScriptCaller struct {
	returnVal lua.LValue
	err       error
	hooks     []string
	args      [][]lua.LValue
}

func (m *mockScriptCaller) CallHook(scope, hook string, args ...lua.LValue) (lua.LValue, error) {
	m.hooks = append(m.hooks, scope+"."+hook)
	m.args = append(m.args, args)
	if m.err != nil {
		return lua.LNil, m.err
	}
	if m.returnVal == nil {
		return lua.LNil, nil
	}
	return m.returnVal, nil
}

func builtinDomain(t testing.TB, id string) *ai.Domain {
	t.Helper()
	domains, err := ai.LoadDomains("")
	if err != nil {
		t.Fatalf("LoadDomains: %v", err)
	}
	for _, d := range domains {
		if d.ID == id {
			return d
		}
	}
	t.Fatalf("domain %q not found", id)
	return nil
}

func state(distance, reach int) *ai.WorldState {
	return &ai.WorldState{
		Self:       ai.SelfState{ID: 2, Name: "rat", HP: 10, MaxHP: 10, Reach: reach},
		Player:     &ai.TargetState{ID: 1, HP: 20, MaxHP: 20},
		Distance:   distance,
		CanAdvance: true,
		CanRetreat: true,
	}
}

func firstAction(t *testing.T, p *ai.Planner, ws *ai.WorldState) ai.Action {
	t.Helper()
	plan, err := p.Plan(ws)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	if len(plan) == 0 {
		t.Fatal("expected at least one planned action")
	}
	return plan[0].Action
}

func TestLoadDomains_Builtin(t *testing.T) {
	domains, err := ai.LoadDomains("")
	if err != nil {
		t.Fatalf("LoadDomains: %v", err)
	}
	if len(domains) != 2 {
		t.Fatalf("expected 2 domains, got %d", len(domains))
	}
	ids := map[string]bool{}
	for _, d := range domains {
		ids[d.ID] = true
	}
	if !ids[ai.MeleeDomain] || !ids[ai.RangedDomain] {
		t.Fatalf("expected melee and ranged, got %v", ids)
	}
}

func TestLoadDomains_MissingDir(t *testing.T) {
	if _, err := ai.LoadDomains(t.TempDir() + "/nope"); err == nil {
		t.Fatal("expected error for missing directory")
	}
}

func TestParseDomain_Errors(t *testing.T) {
	cases := map[string]string{
		"no domain key": `tasks: []`,
		"no root task": `
domain:
  id: x
  tasks: [{id: other}]
  methods: [{task: other, id: m, subtasks: [op]}]
  operators: [{id: op, action: wait}]`,
		"unknown action": `
domain:
  id: x
  tasks: [{id: behave}]
  methods: [{task: behave, id: m, subtasks: [op]}]
  operators: [{id: op, action: dance}]`,
		"dangling subtask": `
domain:
  id: x
  tasks: [{id: behave}]
  methods: [{task: behave, id: m, subtasks: [ghost]}]
  operators: [{id: op, action: wait}]`,
		"duplicate method": `
domain:
  id: x
  tasks: [{id: behave}]
  methods:
    - {task: behave, id: m, subtasks: [op]}
    - {task: behave, id: m, subtasks: [op]}
  operators: [{id: op, action: wait}]`,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := ai.ParseDomain([]byte(src)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestPlanner_MeleeBuiltins(t *testing.T) {
	p := ai.NewPlanner(builtinDomain(t, ai.MeleeDomain), nil)

	if got := firstAction(t, p, state(1, 1)); got != ai.ActionAttack {
		t.Fatalf("adjacent: expected attack, got %q", got)
	}
	if got := firstAction(t, p, state(5, 1)); got != ai.ActionApproach {
		t.Fatalf("distance 5: expected approach, got %q", got)
	}
	blocked := state(5, 1)
	blocked.CanAdvance = false
	if got := firstAction(t, p, blocked); got != ai.ActionWait {
		t.Fatalf("blocked: expected wait, got %q", got)
	}
	if got := firstAction(t, p, state(ai.SightRadius+1, 1)); got != ai.ActionWait {
		t.Fatalf("out of sight: expected wait, got %q", got)
	}
	if got := firstAction(t, p, &ai.WorldState{Distance: -1}); got != ai.ActionWait {
		t.Fatalf("no player: expected wait, got %q", got)
	}
}

func TestPlanner_ScriptedPreconditionCallsAIScope(t *testing.T) {
	caller := &mockScriptCaller{returnVal: lua.LTrue}
	p := ai.NewPlanner(builtinDomain(t, ai.MeleeDomain), caller)

	ws := state(2, 1)
	ws.Self.HP = 1
	if got := firstAction(t, p, ws); got != ai.ActionRetreat {
		t.Fatalf("expected retreat, got %q", got)
	}
	if len(caller.hooks) != 1 || caller.hooks[0] != "ai.wants_to_flee" {
		t.Fatalf("expected one call to ai.wants_to_flee, got %v", caller.hooks)
	}
	args := caller.args[0]
	if len(args) != 3 || args[0] != lua.LNumber(1) || args[1] != lua.LNumber(10) || args[2] != lua.LNumber(2) {
		t.Fatalf("unexpected args %v", args)
	}
}

func TestPlanner_ScriptErrorIsFalse(t *testing.T) {
	caller := &mockScriptCaller{returnVal: lua.LTrue, err: errors.New("vm gone")}
	p := ai.NewPlanner(builtinDomain(t, ai.MeleeDomain), caller)
	if got := firstAction(t, p, state(1, 1)); got != ai.ActionAttack {
		t.Fatalf("expected attack, got %q", got)
	}
}

func TestPlanner_RangedKitesAndShoots(t *testing.T) {
	p := ai.NewPlanner(builtinDomain(t, ai.RangedDomain), nil)

	if got := firstAction(t, p, state(1, 4)); got != ai.ActionRetreat {
		t.Fatalf("adjacent: expected retreat, got %q", got)
	}
	cornered := state(1, 4)
	cornered.CanRetreat = false
	if got := firstAction(t, p, cornered); got != ai.ActionAttack {
		t.Fatalf("cornered: expected attack, got %q", got)
	}
	if got := firstAction(t, p, state(3, 4)); got != ai.ActionAttack {
		t.Fatalf("distance 3: expected attack, got %q", got)
	}
	if got := firstAction(t, p, state(7, 4)); got != ai.ActionApproach {
		t.Fatalf("distance 7: expected approach, got %q", got)
	}
}

func TestPlanner_NilState(t *testing.T) {
	p := ai.NewPlanner(builtinDomain(t, ai.MeleeDomain), nil)
	if _, err := p.Plan(nil); err == nil {
		t.Fatal("expected error for nil state")
	}
}

func TestNewPlanner_NilDomainPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	ai.NewPlanner(nil, nil)
}

func TestRegistry_DuplicateDomain(t *testing.T) {
	d := builtinDomain(t, ai.MeleeDomain)
	if _, err := ai.NewRegistryFrom([]*ai.Domain{d, d}, nil); err == nil {
		t.Fatal("expected duplicate domain error")
	}
	r, err := ai.NewRegistryFrom([]*ai.Domain{d}, nil)
	if err != nil {
		t.Fatalf("NewRegistryFrom: %v", err)
	}
	if _, ok := r.PlannerFor(ai.MeleeDomain); !ok {
		t.Fatal("expected melee planner")
	}
	if _, ok := r.PlannerFor(ai.RangedDomain); ok {
		t.Fatal("ranged planner should be absent")
	}
}

func TestProperty_BuiltinDomainsAlwaysPlanOneAction(t *testing.T) {
	melee := builtinDomain(t, ai.MeleeDomain)
	ranged := builtinDomain(t, ai.RangedDomain)
	rapid.Check(t, func(rt *rapid.T) {
		d := melee
		if rapid.Bool().Draw(rt, "ranged") {
			d = ranged
		}
		ws := state(rapid.IntRange(0, 30).Draw(rt, "distance"), rapid.IntRange(1, 5).Draw(rt, "reach"))
		ws.Self.HP = rapid.IntRange(0, 10).Draw(rt, "hp")
		ws.CanAdvance = rapid.Bool().Draw(rt, "advance")
		ws.CanRetreat = rapid.Bool().Draw(rt, "retreat")
		plan, err := ai.NewPlanner(d, &mockScriptCaller{returnVal: lua.LFalse}).Plan(ws)
		if err != nil {
			rt.Fatalf("Plan: %v", err)
		}
		if len(plan) != 1 {
			rt.Fatalf("expected exactly one action, got %v", plan)
		}
	})
}

// Controller and world-state tests share a small arena.

func newContext(t *testing.T) *systems.Context {
	t.Helper()
	logger := zaptest.NewLogger(t)
	return &systems.Context{
		World:  world.New(world.Arena{Width: 20, Height: 20, Depth: 1}),
		Bus:    event.NewBus(logger, event.DefaultHistorySize),
		Src:    fixedSrc{},
		Status: &systems.Status{},
		Logger: logger,
	}
}

func spawn(ctx *systems.Context, x, y int, player bool, kind world.AIKind, reach uint32) *world.Entity {
	pos := world.Position{X: x, Y: y, Depth: 1}
	e := &world.Entity{Position: &pos, Effects: effect.NewCollection()}
	if player {
		e.Actor = world.Actor{Name: "You", Faction: world.FactionPlayer}
		e.Player = true
		e.Stats = &world.Stats{HP: 100, MaxHP: 100, Attack: 10, Range: 1}
	} else {
		e.Actor = world.Actor{Name: "goblin", Faction: world.FactionMonster}
		e.Stats = &world.Stats{HP: 100, MaxHP: 100, Attack: 10, Range: reach}
		e.AI = &world.AI{Kind: kind}
	}
	ctx.World.Spawn(e)
	return e
}

func newController(t *testing.T, ctx *systems.Context) *ai.Controller {
	t.Helper()
	domains, err := ai.LoadDomains("")
	if err != nil {
		t.Fatalf("LoadDomains: %v", err)
	}
	r, err := ai.NewRegistryFrom(domains, nil)
	if err != nil {
		t.Fatalf("NewRegistryFrom: %v", err)
	}
	return ai.NewController(ctx, r)
}

func decisions(ctx *systems.Context) (made []string, targetChanges int) {
	for _, e := range ctx.Bus.Drain() {
		switch ev := e.(type) {
		case event.AIDecisionMade:
			made = append(made, ev.Decision)
		case event.AITargetChanged:
			targetChanges++
		}
	}
	return made, targetChanges
}

func TestBuildWorldState(t *testing.T) {
	ctx := newContext(t)
	m := spawn(ctx, 5, 5, false, world.AIMelee, 1)

	ws := ai.BuildWorldState(ctx.World, m)
	if ws.Player != nil || ws.Distance != -1 {
		t.Fatalf("expected no player, got %+v distance %d", ws.Player, ws.Distance)
	}

	p := spawn(ctx, 8, 5, true, 0, 0)
	ws = ai.BuildWorldState(ctx.World, m)
	if ws.Player == nil || ws.Player.ID != p.ID || ws.Distance != 3 {
		t.Fatalf("unexpected state %+v", ws)
	}
	if !ws.CanAdvance || !ws.CanRetreat {
		t.Fatal("expected open steps in both directions")
	}

	m.Effects.Add(effect.New(effect.Rooted, 3, 1))
	ws = ai.BuildWorldState(ctx.World, m)
	if !ws.Self.Held || ws.CanAdvance {
		t.Fatalf("rooted monster: held=%v advance=%v", ws.Self.Held, ws.CanAdvance)
	}
}

func TestController_MeleeApproachesThenAttacks(t *testing.T) {
	ctx := newContext(t)
	p := spawn(ctx, 8, 5, true, 0, 0)
	m := spawn(ctx, 5, 5, false, world.AIMelee, 1)
	c := newController(t, ctx)

	for i := 0; i < 2; i++ {
		if err := c.TakeTurn(ctx.World, m); err != nil {
			t.Fatalf("TakeTurn: %v", err)
		}
	}
	if m.Position.X != 7 {
		t.Fatalf("expected monster at x=7, got %d", m.Position.X)
	}
	if err := c.TakeTurn(ctx.World, m); err != nil {
		t.Fatalf("TakeTurn: %v", err)
	}
	if p.HP() >= 100 {
		t.Fatalf("expected player damaged, hp=%d", p.HP())
	}
	made, changes := decisions(ctx)
	want := []string{"approach", "approach", "attack"}
	if len(made) != len(want) {
		t.Fatalf("expected %v, got %v", want, made)
	}
	for i := range want {
		if made[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, made)
		}
	}
	if changes != 1 {
		t.Fatalf("expected one target change, got %d", changes)
	}
	if m.AI.Target != p.ID {
		t.Fatalf("expected target %d, got %d", p.ID, m.AI.Target)
	}
}

func TestController_RangedBacksAway(t *testing.T) {
	ctx := newContext(t)
	spawn(ctx, 4, 5, true, 0, 0)
	m := spawn(ctx, 5, 5, false, world.AIRanged, 4)
	c := newController(t, ctx)

	if err := c.TakeTurn(ctx.World, m); err != nil {
		t.Fatalf("TakeTurn: %v", err)
	}
	if *m.Position != (world.Position{X: 6, Y: 5, Depth: 1}) {
		t.Fatalf("expected retreat to (6,5), got %+v", *m.Position)
	}
}

func TestController_NoopWhenGameOver(t *testing.T) {
	ctx := newContext(t)
	spawn(ctx, 8, 5, true, 0, 0)
	m := spawn(ctx, 5, 5, false, world.AIMelee, 1)
	ctx.Status.End(systems.GameOverReason{Kind: systems.Quit})
	if err := newController(t, ctx).TakeTurn(ctx.World, m); err != nil {
		t.Fatalf("TakeTurn: %v", err)
	}
	if m.Position.X != 5 {
		t.Fatal("monster should not act after game over")
	}
}

func TestController_ParalysedLosesTurn(t *testing.T) {
	ctx := newContext(t)
	p := spawn(ctx, 6, 5, true, 0, 0)
	m := spawn(ctx, 5, 5, false, world.AIMelee, 1)
	m.Effects.Add(effect.New(effect.Paralysis, 2, 1))
	if err := newController(t, ctx).TakeTurn(ctx.World, m); err != nil {
		t.Fatalf("TakeTurn: %v", err)
	}
	if p.HP() != 100 {
		t.Fatalf("paralysed monster attacked, hp=%d", p.HP())
	}
	if made, _ := decisions(ctx); len(made) != 0 {
		t.Fatalf("expected no decision, got %v", made)
	}
}

func TestController_MissingComponent(t *testing.T) {
	ctx := newContext(t)
	e := &world.Entity{Actor: world.Actor{Name: "statue"}}
	ctx.World.Spawn(e)
	err := newController(t, ctx).TakeTurn(ctx.World, e)
	if !errors.Is(err, world.ErrMissingComponent) {
		t.Fatalf("expected ErrMissingComponent, got %v", err)
	}
}
