package systems

import (
	"fmt"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/game/boss"
	"github.com/cory-johannsen/dungeon/internal/game/effect"
	"github.com/cory-johannsen/dungeon/internal/game/energy"
	"github.com/cory-johannsen/dungeon/internal/game/event"
	"github.com/cory-johannsen/dungeon/internal/game/monster"
	"github.com/cory-johannsen/dungeon/internal/game/turn"
	"github.com/cory-johannsen/dungeon/internal/game/world"
)

// MovementSystem resolves Move, Wait and Quit. A move into a hostile is
// turned into an attack for CombatSystem.
type MovementSystem struct{}

func (MovementSystem) Name() string { return "movement" }

func (MovementSystem) Run(ctx *Context) Result {
	actions := ctx.take(turn.KindMove, turn.KindWait, turn.KindQuit)
	if len(actions) == 0 {
		return Continue()
	}
	p, ok := ctx.Player()
	if !ok {
		return Error(fmt.Errorf("systems.MovementSystem: %w", turn.ErrNoPlayer))
	}
	for _, a := range actions {
		switch a.Kind {
		case turn.KindQuit:
			ctx.complete(a)
			ctx.Status.End(GameOverReason{Kind: Quit})
			ctx.Bus.Publish(event.GameOver{Reason: ctx.Status.Reason.String()})
			return Stop()
		case turn.KindWait:
			ctx.complete(a)
		case turn.KindMove:
			if p.Position == nil {
				return Error(fmt.Errorf("systems.MovementSystem: player position: %w", world.ErrMissingComponent))
			}
			if ctx.paralysed(p, a) {
				continue
			}
			if p.Effects != nil && p.Effects.Has(effect.Rooted) {
				ctx.fail(p, a, "you are held in place")
				continue
			}
			to := p.Position.Add(a.Dir)
			if occupant, ok := ctx.World.EntityAt(to); ok && p.Actor.Hostile(occupant.Actor) {
				ctx.Pending = append(ctx.Pending, turn.Attack(a.Dir))
				continue
			}
			if !ctx.World.Walkable(to) {
				ctx.fail(p, a, "the way is blocked")
				continue
			}
			from := *p.Position
			*p.Position = to
			ctx.complete(a)
			ctx.Bus.Publish(event.EntityMoved{Entity: p.ID, From: from, To: to})
		}
	}
	return Continue()
}

// CombatSystem resolves player attacks against the adjacent tile.
type CombatSystem struct{}

func (CombatSystem) Name() string { return "combat" }

func (CombatSystem) Run(ctx *Context) Result {
	actions := ctx.take(turn.KindAttack)
	if len(actions) == 0 {
		return Continue()
	}
	p, ok := ctx.Player()
	if !ok || p.Position == nil {
		return Error(fmt.Errorf("systems.CombatSystem: %w", turn.ErrNoPlayer))
	}
	for _, a := range actions {
		if ctx.paralysed(p, a) {
			continue
		}
		target, ok := ctx.World.EntityAt(p.Position.Add(a.Dir))
		if !ok || !target.IsAlive() || !p.Actor.Hostile(target.Actor) {
			ctx.fail(p, a, "there is nothing to attack")
			continue
		}
		ctx.complete(a)
		ctx.Attack(p, target)
		if ctx.Status.Over() {
			return Stop()
		}
	}
	return Continue()
}

// InventorySystem resolves UseItem and DropItem.
type InventorySystem struct{}

func (InventorySystem) Name() string { return "inventory" }

func (InventorySystem) Run(ctx *Context) Result {
	actions := ctx.take(turn.KindUseItem, turn.KindDropItem)
	if len(actions) == 0 {
		return Continue()
	}
	p, ok := ctx.Player()
	if !ok {
		return Error(fmt.Errorf("systems.InventorySystem: %w", turn.ErrNoPlayer))
	}
	for _, a := range actions {
		if ctx.paralysed(p, a) {
			continue
		}
		if p.Inventory == nil {
			ctx.fail(p, a, "you carry nothing")
			continue
		}
		if a.Slot < 0 || a.Slot >= len(p.Inventory.Items) {
			ctx.fail(p, a, "that slot is empty")
			continue
		}
		it := p.Inventory.Items[a.Slot]
		switch a.Kind {
		case turn.KindDropItem:
			p.Inventory.Take(a.Slot)
			ctx.complete(a)
			ctx.Bus.Publish(event.ItemDropped{Entity: p.ID, Item: it.Name})
			ctx.Bus.Publish(event.Info("You drop %s.", it.Name))
		case turn.KindUseItem:
			if !it.Consumable() {
				ctx.fail(p, a, it.Name+" cannot be used")
				continue
			}
			p.Inventory.Take(a.Slot)
			ctx.complete(a)
			desc := use(p, it)
			ctx.Bus.Publish(event.ItemUsed{Entity: p.ID, Item: it.Name, Effect: desc})
			ctx.Bus.Publish(event.Info("You use %s: %s.", it.Name, desc))
		}
	}
	return Continue()
}

func use(e *world.Entity, it world.Item) string {
	switch it.Kind {
	case world.ItemFood:
		if e.Hunger != nil {
			e.Hunger.Feed(uint8(min(it.Power, uint32(world.MaxSatiety))))
		}
		return "you feel less hungry"
	case world.ItemPotion:
		e.Heal(it.Power)
		return fmt.Sprintf("you recover %d health", it.Power)
	}
	return "nothing happens"
}

// LevelSystem resolves Descend and Ascend by regenerating the arena at the
// new depth. The player must stand on the matching stairs.
type LevelSystem struct{}

func (LevelSystem) Name() string { return "level" }

func (LevelSystem) Run(ctx *Context) Result {
	actions := ctx.take(turn.KindDescend, turn.KindAscend)
	if len(actions) == 0 {
		return Continue()
	}
	p, ok := ctx.Player()
	if !ok || p.Position == nil {
		return Error(fmt.Errorf("systems.LevelSystem: %w", turn.ErrNoPlayer))
	}
	for _, a := range actions {
		if ctx.paralysed(p, a) {
			continue
		}
		arena := ctx.World.Arena
		depth := arena.Depth
		switch a.Kind {
		case turn.KindDescend:
			if *p.Position != arena.StairsDown {
				ctx.fail(p, a, "there are no stairs down here")
				continue
			}
			depth++
		case turn.KindAscend:
			if depth <= 1 {
				ctx.fail(p, a, "there is no way up")
				continue
			}
			if *p.Position != arena.StairsUp {
				ctx.fail(p, a, "there are no stairs up here")
				continue
			}
			depth--
		}
		ctx.complete(a)
		if ctx.MaxDepth > 0 && depth > ctx.MaxDepth {
			ctx.Status.Win()
			ctx.Bus.Publish(event.Victory{})
			ctx.Bus.Publish(event.Info("You escape the dungeon's depths!"))
			return Stop()
		}
		if err := EnterLevel(ctx, depth); err != nil {
			return Error(err)
		}
	}
	return Continue()
}

// EnterLevel clears every non-player entity, moves the player onto the up
// stairs at the centre of the arena at depth, places the down stairs on a
// free tile, and populates the level: a boss on a boss depth, ordinary
// monsters otherwise.
//
// Precondition: the world has a player with a position.
// Postcondition: World.Arena.Depth == depth and the player stands on
// World.Arena.StairsUp. StairsDown is zero when no free tile was found.
func EnterLevel(ctx *Context, depth int) error {
	p, ok := ctx.Player()
	if !ok || p.Position == nil {
		return fmt.Errorf("systems.EnterLevel: %w", turn.ErrNoPlayer)
	}
	old := ctx.World.Arena.Depth
	for _, e := range ctx.World.Entities() {
		if !e.Player {
			ctx.World.Despawn(e.ID)
		}
	}
	arena := &ctx.World.Arena
	arena.Depth = depth
	arena.StairsUp = arena.Centre()
	*p.Position = arena.StairsUp
	arena.StairsDown = world.Position{}
	if down, ok := monster.FreeTile(ctx.World, ctx.Src); ok {
		arena.StairsDown = down
	}

	if ctx.Bosses != nil {
		if def, err := ctx.Bosses.ForDepth(depth); err == nil {
			if _, err := SpawnBoss(ctx, def); err != nil {
				return fmt.Errorf("systems.EnterLevel: %w", err)
			}
		}
	}
	if ctx.Monsters != nil {
		ctx.Monsters.Populate(ctx.World, ctx.MonstersPerLevel, ctx.Src)
	}
	if old != depth {
		ctx.Bus.Publish(event.LevelChanged{OldDepth: old, NewDepth: depth})
		ctx.Bus.Publish(event.Info("You reach depth %d.", depth))
	}
	ctx.Logger.Info("level entered",
		zap.Int("depth", depth),
		zap.Int("entities", ctx.World.Len()),
		zap.Int("stairs_x", arena.StairsDown.X),
		zap.Int("stairs_y", arena.StairsDown.Y),
	)
	return nil
}

// SpawnBoss places the boss described by def in the arena corner farthest
// from the centre.
func SpawnBoss(ctx *Context, def *boss.Definition) (*world.Entity, error) {
	enc := boss.NewEncounter(def)
	a := ctx.World.Arena
	pos := world.Position{X: a.Width - 2, Y: a.Height - 2, Depth: a.Depth}
	if !ctx.World.Walkable(pos) {
		free, ok := monster.FreeTile(ctx.World, ctx.Src)
		if !ok {
			return nil, fmt.Errorf("no free tile for %s", def.Name)
		}
		pos = free
	}
	glyph, _ := utf8.DecodeRuneInString(def.Glyph)
	pool := energy.Full()
	e := &world.Entity{
		Actor:    world.Actor{Name: def.Name, Glyph: glyph, Faction: world.FactionMonster},
		Position: &pos,
		Energy:   &pool,
		Effects:  effect.NewCollection(),
		AI:       &world.AI{Kind: world.AIBoss},
		Boss:     enc,
	}
	ctx.World.Spawn(e)
	ctx.Bus.Publish(event.Warn("%s awaits you!", def.Name))
	return e, nil
}
