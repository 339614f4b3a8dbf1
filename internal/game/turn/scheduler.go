// Package turn implements the energy-driven turn scheduler that alternates
// between the player and AI-controlled entities.
package turn

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/game/energy"
	"github.com/cory-johannsen/dungeon/internal/game/world"
)

// ErrNoPlayer is returned when the world has no player entity.
var ErrNoPlayer = errors.New("no player entity")

// State is the scheduler's position in the turn cycle.
type State uint8

const (
	PlayerTurn State = iota
	ProcessingPlayerAction
	AITurn
	ProcessingAIActions
)

func (s State) String() string {
	switch s {
	case PlayerTurn:
		return "player_turn"
	case ProcessingPlayerAction:
		return "processing_player_action"
	case AITurn:
		return "ai_turn"
	case ProcessingAIActions:
		return "processing_ai_actions"
	}
	return fmt.Sprintf("state(%d)", uint8(s))
}

// AIController takes one action for an AI entity. The scheduler charges
// the energy; the controller only decides and applies the action.
type AIController interface {
	TakeTurn(w *world.World, e *world.Entity) error
}

// AIControllerFunc adapts a function to AIController.
type AIControllerFunc func(w *world.World, e *world.Entity) error

func (f AIControllerFunc) TakeTurn(w *world.World, e *world.Entity) error { return f(w, e) }

// maxAIPasses bounds one AITurn. Every pass spends at least FullAction on
// each acting entity, so it is only reachable with absurd pool sizes.
const maxAIPasses = 1024

// PlayerResult reports what ProcessPlayerTurn consumed.
type PlayerResult struct {
	// Spent is the total energy charged.
	Spent uint32
	// Waited is set when the charged action was a Wait.
	Waited bool
	// QuitRequested is set when a Quit action was seen.
	QuitRequested bool
	// Skipped is set when the player lacked the energy to act and the turn
	// passed to the AI as a forced wait.
	Skipped bool
	// Unconsumed holds the actions left uncharged, in order, because the
	// turn ended before them.
	Unconsumed []Action
}

// AIResult reports what ProcessAITurn did.
type AIResult struct {
	Passes  int
	Actions int
}

// Scheduler is the turn state machine. It has no terminal state; game over
// is decided by the caller.
type Scheduler struct {
	state       State
	actionTaken bool
	controller  AIController
	logger      *zap.Logger
}

// NewScheduler creates a scheduler in PlayerTurn. A nil controller makes AI
// entities spend energy without acting.
func NewScheduler(logger *zap.Logger, controller AIController) *Scheduler {
	return &Scheduler{state: PlayerTurn, controller: controller, logger: logger.Named("turn")}
}

// State returns the current state.
func (s *Scheduler) State() State { return s.state }

// PlayerActionTaken reports whether an energy-costing player action has been
// charged since the last transition to AITurn.
func (s *Scheduler) PlayerActionTaken() bool { return s.actionTaken }

// SetState restores scheduler state from a save.
func (s *Scheduler) SetState(st State, actionTaken bool) {
	s.state = st
	s.actionTaken = actionTaken
}

// IsPlayerTurn reports whether player input is being accepted.
func (s *Scheduler) IsPlayerTurn() bool { return s.state == PlayerTurn }

// IsAITurn reports whether the AI pass is due.
func (s *Scheduler) IsAITurn() bool { return s.state == AITurn }

// ProcessPlayerTurn charges the player for completed actions in FIFO order.
// The first action that costs energy ends the player's turn; the actions
// after it are returned unconsumed. A player whose pool cannot cover an
// action is not charged and forfeits the turn instead.
//
// Precondition: the state is PlayerTurn; otherwise this is a no-op.
// Postcondition: on success the state is PlayerTurn or AITurn, and the
// player's energy never drops by more than one action's cost.
func (s *Scheduler) ProcessPlayerTurn(w *world.World, completed []Action) (PlayerResult, error) {
	var res PlayerResult
	if s.state != PlayerTurn || len(completed) == 0 {
		return res, nil
	}
	s.state = ProcessingPlayerAction
	defer func() {
		if s.state == ProcessingPlayerAction {
			s.state = PlayerTurn
		}
	}()

	for i, a := range completed {
		if a.Kind == KindQuit {
			res.QuitRequested = true
			continue
		}
		cost := a.Cost()
		if cost == 0 {
			continue
		}
		player, ok := w.Player()
		if !ok {
			return res, fmt.Errorf("turn.ProcessPlayerTurn: %w", ErrNoPlayer)
		}
		if player.Energy == nil {
			return res, fmt.Errorf("turn.ProcessPlayerTurn: player energy: %w", world.ErrMissingComponent)
		}
		s.actionTaken = true
		if !player.Energy.CanAct() {
			res.Skipped = true
			res.Unconsumed = append(res.Unconsumed, completed[i:]...)
			s.logger.Debug("player too tired to act; turn skipped",
				zap.Stringer("action", a),
				zap.Uint32("energy", player.Energy.Current),
			)
			break
		}
		player.Energy.Spend(cost)
		res.Spent = cost
		res.Waited = a.Kind == KindWait
		res.Unconsumed = append(res.Unconsumed, completed[i+1:]...)
		s.logger.Debug("player action charged",
			zap.Stringer("action", a),
			zap.Uint32("cost", cost),
			zap.Uint32("energy", player.Energy.Current),
		)
		break
	}

	if s.actionTaken {
		s.state = AITurn
		s.actionTaken = false
	}
	return res, nil
}

// ProcessAITurn lets every AI entity with enough energy act once per pass,
// repeating until none can, then refills every entity's energy and returns
// to PlayerTurn.
//
// Precondition: the state is AITurn; otherwise this is a no-op.
// Postcondition: on success the state is PlayerTurn and every pool is full.
func (s *Scheduler) ProcessAITurn(w *world.World) (AIResult, error) {
	var res AIResult
	if s.state != AITurn {
		return res, nil
	}
	s.state = ProcessingAIActions

	for res.Passes < maxAIPasses {
		ready := readyAI(w)
		if len(ready) == 0 {
			break
		}
		res.Passes++
		for _, id := range ready {
			e, ok := w.Get(id)
			if !ok || e.Energy == nil || !e.Energy.CanAct() {
				continue
			}
			if s.controller != nil {
				if err := s.controller.TakeTurn(w, e); err != nil {
					s.state = AITurn
					return res, fmt.Errorf("turn.ProcessAITurn: entity %d: %w", id, err)
				}
			}
			e.Energy.Spend(energy.FullAction)
			res.Actions++
		}
	}

	for _, e := range w.Entities() {
		if e.Energy != nil {
			e.Energy.Refill()
		}
	}
	s.state = PlayerTurn
	s.logger.Debug("ai turn complete", zap.Int("passes", res.Passes), zap.Int("actions", res.Actions))
	return res, nil
}

func readyAI(w *world.World) []world.EntityID {
	var ids []world.EntityID
	for _, e := range w.Entities() {
		if e.AI != nil && e.Energy != nil && e.Energy.CanAct() && e.IsAlive() {
			ids = append(ids, e.ID)
		}
	}
	return ids
}
