package gameserver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/game/event"
	"github.com/cory-johannsen/dungeon/internal/game/session"
	"github.com/cory-johannsen/dungeon/internal/game/systems"
	"github.com/cory-johannsen/dungeon/internal/game/turn"
	"github.com/cory-johannsen/dungeon/internal/save"
	"github.com/cory-johannsen/dungeon/internal/scripting"
)

// DefaultInboxSize bounds the number of queued requests between ticks.
const DefaultInboxSize = 64

// LoopConfig tunes a Loop. Zero values fall back to the session defaults.
type LoopConfig struct {
	TickRate time.Duration
	// AutosaveInterval is the number of completed turns between autosaves;
	// 0 disables autosave.
	AutosaveInterval uint32
	AutosaveSlot     string
	QuickSlot        string
	FrameMessages    int
}

type requestKind uint8

const (
	requestAction requestKind = iota
	requestLoad
	requestReload
)

type request struct {
	kind   requestKind
	action turn.Action
	slot   string
	change scripting.Change
}

// Loop is the only goroutine that touches its session. Frontends talk to it
// through Submit and the Request methods and observe it through the hub.
type Loop struct {
	sess   *session.Session
	store  save.Store
	hub    *FrameHub
	cfg    LoopConfig
	logger *zap.Logger
	inbox  chan request

	mu      sync.Mutex
	cancel  context.CancelFunc
	stopped bool
}

// NewLoop creates a Loop.
//
// Precondition: sess, hub and logger must be non-nil; sess must have a game
// in progress. store may be nil, which disables saving and loading.
func NewLoop(sess *session.Session, store save.Store, hub *FrameHub, cfg LoopConfig, logger *zap.Logger) *Loop {
	if cfg.TickRate <= 0 {
		cfg.TickRate = session.DefaultTickRate
	}
	return &Loop{
		sess:   sess,
		store:  store,
		hub:    hub,
		cfg:    cfg,
		logger: logger,
		inbox:  make(chan request, DefaultInboxSize),
	}
}

// Hub returns the hub frames are published to.
func (l *Loop) Hub() *FrameHub { return l.hub }

// Submit queues a player action for the next tick. It reports false when the
// inbox is full and the action was dropped.
func (l *Loop) Submit(a turn.Action) bool {
	return l.enqueue(request{kind: requestAction, action: a})
}

// RequestLoad queues replacing the current game with the one in slot.
func (l *Loop) RequestLoad(slot string) bool {
	return l.enqueue(request{kind: requestLoad, slot: slot})
}

// RequestReload queues a script reload. It is the sink of a
// scripting.Watcher, so reloads run on the loop goroutine.
func (l *Loop) RequestReload(c scripting.Change) {
	l.enqueue(request{kind: requestReload, change: c})
}

func (l *Loop) enqueue(r request) bool {
	select {
	case l.inbox <- r:
		return true
	default:
		l.logger.Warn("inbox full, dropping request", zap.Uint8("kind", uint8(r.kind)))
		return false
	}
}

// Run ticks the session every TickRate until the game ends or ctx is
// cancelled.
//
// Postcondition: returns nil on game over, victory, quit or cancellation,
// and the system error when a tick fails.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Info("game loop started",
		zap.String("session", l.sess.ID.String()),
		zap.Duration("tick_rate", l.cfg.TickRate),
	)
	l.publish()

	ticker := time.NewTicker(l.cfg.TickRate)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("game loop cancelled", zap.Uint32("turn", l.sess.Clock.Turn))
			return nil
		case <-ticker.C:
			res := l.Step(ctx, l.collect(ctx))
			switch res.Outcome {
			case systems.OutcomeStop:
				l.logger.Info("game loop finished",
					zap.Stringer("status", l.sess.Status()),
					zap.Uint32("turn", l.sess.Clock.Turn),
				)
				return nil
			case systems.OutcomeError:
				return fmt.Errorf("gameserver.Loop: %w", res.Err)
			}
		}
	}
}

// collect drains the inbox. Load and reload requests are served at once;
// actions are returned in arrival order.
func (l *Loop) collect(ctx context.Context) []turn.Action {
	var actions []turn.Action
	for {
		select {
		case r := <-l.inbox:
			switch r.kind {
			case requestAction:
				actions = append(actions, r.action)
			case requestLoad:
				l.load(ctx, r.slot)
			case requestReload:
				if err := l.sess.ReloadScript(r.change); err != nil {
					l.logger.Warn("script reload failed", zap.String("scope", r.change.Scope), zap.Error(err))
					l.sess.Bus().Publish(event.Warn("Script %s failed to reload.", r.change.Scope))
				}
			}
		default:
			return actions
		}
	}
}

// Step runs one tick with actions and publishes the resulting frame. A Save
// action writes the quick slot instead of reaching the session.
//
// Precondition: called from the loop goroutine, or instead of Run.
func (l *Loop) Step(ctx context.Context, actions []turn.Action) systems.Result {
	pass := actions[:0:0]
	for _, a := range actions {
		if a.Kind == turn.KindSave {
			l.save(ctx, l.cfg.QuickSlot)
			continue
		}
		pass = append(pass, a)
	}

	before := l.sess.Clock.Turn
	res := l.sess.Tick(pass)
	if res.IsContinue() && l.sess.Clock.Turn != before {
		l.autosave(ctx)
	}
	l.publish()
	return res
}

func (l *Loop) autosave(ctx context.Context) {
	n := l.cfg.AutosaveInterval
	if n == 0 || l.sess.Clock.Turn%n != 0 || l.sess.Status().Over() {
		return
	}
	l.save(ctx, l.cfg.AutosaveSlot)
}

func (l *Loop) save(ctx context.Context, slot string) {
	bus := l.sess.Bus()
	if l.store == nil {
		bus.Publish(event.Warn("Saving is disabled."))
		return
	}
	if err := l.store.Save(ctx, slot, l.sess.Snapshot()); err != nil {
		l.logger.Warn("save failed", zap.String("slot", slot), zap.Error(err))
		if errors.Is(err, save.ErrSlotsFull) {
			bus.Publish(event.Warn("No free save slots for %s.", slot))
		} else {
			bus.Publish(event.Warn("Could not save to %s.", slot))
		}
		return
	}
	l.logger.Info("game saved", zap.String("slot", slot), zap.Uint32("turn", l.sess.Clock.Turn))
	bus.Publish(event.GameSaved{Slot: slot})
	bus.Publish(event.Info("Game saved to %s.", slot))
}

func (l *Loop) load(ctx context.Context, slot string) {
	if l.store == nil {
		l.sess.Bus().Publish(event.Warn("Loading is disabled."))
		return
	}
	snap, err := l.store.Load(ctx, slot)
	if err == nil {
		err = l.sess.Restore(snap)
	}
	bus := l.sess.Bus()
	if err != nil {
		l.logger.Warn("load failed", zap.String("slot", slot), zap.Error(err))
		if errors.Is(err, save.ErrSlotNotFound) {
			bus.Publish(event.Warn("There is no save in %s.", slot))
		} else {
			bus.Publish(event.Warn("Could not load %s.", slot))
		}
		return
	}
	l.logger.Info("game loaded", zap.String("slot", slot), zap.Uint32("turn", l.sess.Clock.Turn))
	bus.Publish(event.GameLoaded{Slot: slot})
	bus.Publish(event.Info("Game loaded from %s.", slot))
	l.publish()
}

func (l *Loop) publish() {
	l.hub.Publish(BuildFrame(l.sess, l.cfg.FrameMessages))
}

// Start runs the loop as a server.Service.
func (l *Loop) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	l.mu.Lock()
	l.cancel = cancel
	if l.stopped {
		cancel()
	}
	l.mu.Unlock()
	defer cancel()
	return l.Run(ctx)
}

// Stop cancels a running Start. Calling Stop is idempotent.
func (l *Loop) Stop() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stopped = true
	if l.cancel != nil {
		l.cancel()
	}
}
