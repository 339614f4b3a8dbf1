package ai

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/game/event"
	"github.com/cory-johannsen/dungeon/internal/game/systems"
	"github.com/cory-johannsen/dungeon/internal/game/world"
)

// Domain IDs the controller selects by world.AIKind.
const (
	MeleeDomain  = "melee"
	RangedDomain = "ranged"
)

// Controller drives every computer-controlled entity for the turn
// scheduler: bosses through the boss system, ordinary monsters through
// their HTN planner. It implements turn.AIController.
type Controller struct {
	ctx      *systems.Context
	planners *Registry
	logger   *zap.Logger
}

// NewController builds a Controller acting on ctx.
//
// Precondition: ctx and planners must not be nil.
func NewController(ctx *systems.Context, planners *Registry) *Controller {
	return &Controller{ctx: ctx, planners: planners, logger: ctx.Logger.Named("ai")}
}

func domainFor(kind world.AIKind) string {
	if kind == world.AIRanged {
		return RangedDomain
	}
	return MeleeDomain
}

// TakeTurn plans and performs one action for e.
//
// Postcondition: returns nil without acting once the game is over or while
// e is paralysed.
func (c *Controller) TakeTurn(w *world.World, e *world.Entity) error {
	if c.ctx.Status.Over() {
		return nil
	}
	if e.Boss != nil {
		return systems.BossSystem{}.TakeTurn(c.ctx, e)
	}
	if e.Position == nil || e.AI == nil {
		return fmt.Errorf("ai.Controller: entity %d: %w", e.ID, world.ErrMissingComponent)
	}
	if systems.Paralysed(e) {
		c.logger.Debug("paralysed, turn lost", zap.Uint32("entity", uint32(e.ID)))
		return nil
	}
	domainID := domainFor(e.AI.Kind)
	planner, ok := c.planners.PlannerFor(domainID)
	if !ok {
		return fmt.Errorf("ai.Controller: no planner for domain %q", domainID)
	}

	ws := BuildWorldState(w, e)
	c.track(e, ws)
	plan, err := planner.Plan(ws)
	if err != nil {
		return err
	}
	action := ActionWait
	operator := ""
	if len(plan) > 0 {
		action, operator = plan[0].Action, plan[0].Operator
	}
	c.ctx.Bus.Publish(event.AIDecisionMade{Entity: e.ID, Decision: string(action)})
	c.logger.Debug("decision",
		zap.Uint32("entity", uint32(e.ID)),
		zap.String("domain", domainID),
		zap.String("operator", operator),
		zap.Int("distance", ws.Distance),
	)
	c.perform(w, e, ws, action)
	return nil
}

// track records the entity's current target, publishing a change.
func (c *Controller) track(e *world.Entity, ws *WorldState) {
	target := world.NoEntity
	if ws.Player != nil && ws.Distance <= SightRadius {
		target = ws.Player.ID
	}
	if target == e.AI.Target {
		return
	}
	c.ctx.Bus.Publish(event.AITargetChanged{Entity: e.ID, Old: e.AI.Target, New: target})
	e.AI.Target = target
}

func (c *Controller) perform(w *world.World, e *world.Entity, ws *WorldState, action Action) {
	if ws.Player == nil {
		return
	}
	switch action {
	case ActionAttack:
		if p, ok := w.Get(ws.Player.ID); ok {
			c.ctx.Attack(e, p)
		}
	case ActionApproach:
		systems.StepToward(c.ctx, e, ws.Player.Position)
	case ActionRetreat:
		systems.StepToward(c.ctx, e, Away(*e.Position, ws.Player.Position))
	}
}
