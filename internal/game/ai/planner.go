package ai

import (
	"errors"

	lua "github.com/yuin/gopher-lua"
)

// ScriptScope is the scripting scope that holds custom AI preconditions.
const ScriptScope = "ai"

// ScriptCaller is the interface required by the Planner to evaluate Lua preconditions.
type ScriptCaller interface {
	// CallHook calls a named Lua function in the given scope's VM.
	// Returns (LNil, nil) if the function is not defined.
	CallHook(scope, hook string, args ...lua.LValue) (lua.LValue, error)
}

// PlannedAction is one primitive action produced by the planner.
type PlannedAction struct {
	Operator string
	Action   Action
}

// Planner evaluates an HTN domain for a single monster and produces an
// ordered action plan for its turn.
//
// Invariant: domain is not nil.
type Planner struct {
	domain *Domain
	caller ScriptCaller
}

// NewPlanner constructs a Planner. A nil caller makes every precondition
// that is not built in evaluate to false.
//
// Precondition: domain must not be nil.
func NewPlanner(domain *Domain, caller ScriptCaller) *Planner {
	if domain == nil {
		panic("ai.NewPlanner: domain must not be nil")
	}
	return &Planner{domain: domain, caller: caller}
}

// Domain returns the planner's domain.
func (p *Planner) Domain() *Domain { return p.domain }

// Plan evaluates the HTN domain against state and returns an ordered plan.
//
// Precondition: state must not be nil.
// Postcondition: returns non-nil slice (may be empty); Lua failures are
// treated as precondition-false.
func (p *Planner) Plan(state *WorldState) ([]PlannedAction, error) {
	if state == nil {
		return nil, errors.New("ai.Planner.Plan: state must not be nil")
	}

	taskQueue := []string{RootTask}
	var result []PlannedAction

	const maxDepth = 32
	steps := 0

	for len(taskQueue) > 0 && steps < maxDepth {
		steps++
		current := taskQueue[0]
		taskQueue = taskQueue[1:]

		if op, ok := p.domain.OperatorByID(current); ok {
			result = append(result, PlannedAction{Operator: op.ID, Action: op.Action})
			continue
		}

		method := p.findApplicableMethod(current, state)
		if method == nil {
			continue
		}
		taskQueue = append(append([]string(nil), method.Subtasks...), taskQueue...)
	}

	if result == nil {
		result = []PlannedAction{}
	}
	return result, nil
}

// findApplicableMethod returns the first Method for taskID whose precondition passes,
// or nil if none applies.
func (p *Planner) findApplicableMethod(taskID string, state *WorldState) *Method {
	for _, m := range p.domain.MethodsForTask(taskID) {
		if m.Precondition == "" || p.holds(m.Precondition, state) {
			return m
		}
	}
	return nil
}

// holds evaluates a built-in predicate, or calls the Lua function of the
// same name in ScriptScope with (hp, max_hp, distance).
func (p *Planner) holds(name string, state *WorldState) bool {
	if v, known := state.Predicate(name); known {
		return v
	}
	if p.caller == nil {
		return false
	}
	val, err := p.caller.CallHook(ScriptScope, name,
		lua.LNumber(state.Self.HP), lua.LNumber(state.Self.MaxHP), lua.LNumber(state.Distance))
	return err == nil && val == lua.LTrue
}
