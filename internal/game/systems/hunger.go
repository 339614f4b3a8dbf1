package systems

import "github.com/cory-johannsen/dungeon/internal/game/event"

const (
	// DefaultHungerInterval is the number of standard turns per point of
	// satiety lost. Waiting counts half a turn.
	DefaultHungerInterval = 10
	// StarvationDamage is dealt each turn while starving.
	StarvationDamage = 1

	standardProgress = 2
	waitProgress     = 1
)

// HungerSystem drains the player's satiety and applies starvation damage.
type HungerSystem struct {
	// Interval overrides DefaultHungerInterval when positive.
	Interval uint32
}

func (HungerSystem) Name() string { return "hunger" }

func (h HungerSystem) threshold() uint32 {
	if h.Interval > 0 {
		return h.Interval * standardProgress
	}
	return DefaultHungerInterval * standardProgress
}

// Run advances hunger for one player turn.
//
// Postcondition: returns Stop with status GameOver{Starved} when starvation
// damage kills the player; Continue otherwise.
func (h HungerSystem) Run(ctx *Context) Result {
	p, ok := ctx.Player()
	if !ok || p.Hunger == nil || p.Stats == nil {
		return Continue()
	}
	hunger := p.Hunger

	step := uint32(standardProgress)
	if ctx.Waited {
		step = waitProgress
	}
	hunger.Progress += step
	for hunger.Progress >= h.threshold() {
		hunger.Progress -= h.threshold()
		if hunger.Satiety == 0 {
			continue
		}
		hunger.Satiety--
		switch {
		case hunger.IsStarving():
			ctx.Bus.Publish(event.PlayerStarving{})
			ctx.Bus.Publish(event.Warn("You are starving!"))
		case hunger.IsHungry():
			ctx.Bus.Publish(event.PlayerHungry{Satiety: hunger.Satiety})
			ctx.Bus.Publish(event.Info("You are hungry."))
		}
	}

	if !hunger.IsStarving() {
		return Continue()
	}
	lost := p.Stats.Damage(StarvationDamage)
	ctx.Bus.Publish(event.StarvationDamage{Damage: lost})
	if p.Stats.Alive() {
		return Continue()
	}
	ctx.Kill(p, nil, GameOverReason{Kind: Starved})
	return Stop()
}
