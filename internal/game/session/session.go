// Package session owns one running game: the world, the event bus, the
// turn scheduler and every system, advanced one tick at a time by the outer
// loop.
package session

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/game/achievement"
	"github.com/cory-johannsen/dungeon/internal/game/ai"
	"github.com/cory-johannsen/dungeon/internal/game/boss"
	"github.com/cory-johannsen/dungeon/internal/game/dice"
	"github.com/cory-johannsen/dungeon/internal/game/effect"
	"github.com/cory-johannsen/dungeon/internal/game/energy"
	"github.com/cory-johannsen/dungeon/internal/game/event"
	"github.com/cory-johannsen/dungeon/internal/game/monster"
	"github.com/cory-johannsen/dungeon/internal/game/systems"
	"github.com/cory-johannsen/dungeon/internal/game/turn"
	"github.com/cory-johannsen/dungeon/internal/game/world"
	"github.com/cory-johannsen/dungeon/internal/save"
	"github.com/cory-johannsen/dungeon/internal/scripting"
)

// Defaults applied by New to zero Options fields.
const (
	DefaultArenaWidth       = 40
	DefaultArenaHeight      = 20
	DefaultMaxDepth         = 25
	DefaultMonstersPerLevel = 6
	DefaultInstructionLimit = 100_000
	DefaultPlayerName       = "Adventurer"
	// MaxPendingActions bounds the queue of player actions awaiting a turn.
	MaxPendingActions = 32
)

// Options configures a Session. Zero values select the defaults above and
// the built-in content; a negative MonstersPerLevel spawns none.
type Options struct {
	Seed             int64
	HistorySize      int
	ArenaWidth       int
	ArenaHeight      int
	StartDepth       int
	MaxDepth         int
	MonstersPerLevel int
	HungerInterval   uint32
	TickRate         time.Duration
	MessageLimit     int
	PlayerName       string

	Bosses       *boss.Registry
	Monsters     *monster.Registry
	Achievements []achievement.Definition
	Domains      []*ai.Domain

	// ScriptDir holds bosses/ and ai/ Lua scripts. Empty disables scripting.
	ScriptDir        string
	InstructionLimit int
}

func (o *Options) applyDefaults() {
	if o.Seed == 0 {
		o.Seed = dice.DefaultSeed
	}
	if o.HistorySize == 0 {
		o.HistorySize = event.DefaultHistorySize
	}
	if o.ArenaWidth <= 0 {
		o.ArenaWidth = DefaultArenaWidth
	}
	if o.ArenaHeight <= 0 {
		o.ArenaHeight = DefaultArenaHeight
	}
	if o.StartDepth <= 0 {
		o.StartDepth = 1
	}
	if o.MaxDepth <= 0 {
		o.MaxDepth = DefaultMaxDepth
	}
	switch {
	case o.MonstersPerLevel == 0:
		o.MonstersPerLevel = DefaultMonstersPerLevel
	case o.MonstersPerLevel < 0:
		o.MonstersPerLevel = 0
	}
	if o.PlayerName == "" {
		o.PlayerName = DefaultPlayerName
	}
	if o.InstructionLimit <= 0 {
		o.InstructionLimit = DefaultInstructionLimit
	}
	if o.Bosses == nil {
		o.Bosses = boss.DefaultRegistry()
	}
	if o.Achievements == nil {
		o.Achievements = achievement.Builtin()
	}
}

// rng forwards to the session's current seeded source, so collaborators
// built once keep drawing from the stream a Restore installs.
type rng struct{ src *dice.SeededSource }

func (r *rng) Intn(n int) int { return r.src.Intn(n) }

// Session is one game in progress. It is not safe for concurrent use; the
// game loop goroutine is its only caller.
type Session struct {
	ID       uuid.UUID
	Clock    *Clock
	Messages *MessageLog

	opts         Options
	logger       *zap.Logger
	rng          *rng
	bus          *event.Bus
	ctx          *systems.Context
	scheduler    *turn.Scheduler
	achievements *systems.AchievementBridge
	scripts      *scripting.Manager
	resolution   systems.Pipeline
	aftermath    systems.Pipeline
	pending      []turn.Action
	events       []event.Event
	now          func() time.Time
}

// New builds a session with an empty world. Call NewGame or Restore before
// the first Tick.
//
// Precondition: logger must be non-nil.
// Postcondition: returns an error when monster, AI or script content fails
// to load.
func New(opts Options, logger *zap.Logger) (*Session, error) {
	opts.applyDefaults()
	logger = logger.Named("session")

	s := &Session{
		ID:     uuid.New(),
		Clock:  NewClock(opts.TickRate),
		opts:   opts,
		logger: logger,
		rng:    &rng{src: dice.NewSeededSource(opts.Seed)},
		bus:    event.NewBus(logger, opts.HistorySize),
		now:    time.Now,
	}
	s.bus.RegisterMiddleware(event.NewLoggingMiddleware(logger))
	s.Messages = NewMessageLog(opts.MessageLimit, s.Clock)
	s.bus.SubscribeAll(s.Messages)

	monsters := opts.Monsters
	if monsters == nil {
		var err error
		if monsters, err = monster.LoadRegistry(""); err != nil {
			return nil, fmt.Errorf("session.New: %w", err)
		}
	}

	s.ctx = &systems.Context{
		World:            world.New(world.Arena{Width: opts.ArenaWidth, Height: opts.ArenaHeight, Depth: opts.StartDepth}),
		Bus:              s.bus,
		Src:              s.rng,
		Status:           &systems.Status{},
		Logger:           logger,
		Bosses:           opts.Bosses,
		Monsters:         monsters,
		MaxDepth:         opts.MaxDepth,
		MonstersPerLevel: opts.MonstersPerLevel,
	}

	var caller ai.ScriptCaller
	if opts.ScriptDir != "" {
		mgr, err := s.loadScripts(opts.ScriptDir)
		if err != nil {
			return nil, fmt.Errorf("session.New: %w", err)
		}
		s.scripts = mgr
		s.ctx.Hooks = scripting.NewBossHooks(mgr)
		caller = mgr
	}

	domains := opts.Domains
	if domains == nil {
		var err error
		if domains, err = ai.LoadDomains(""); err != nil {
			return nil, fmt.Errorf("session.New: %w", err)
		}
	}
	planners, err := ai.NewRegistryFrom(domains, caller)
	if err != nil {
		return nil, fmt.Errorf("session.New: %w", err)
	}
	s.scheduler = turn.NewScheduler(logger, ai.NewController(s.ctx, planners))

	s.achievements = systems.NewAchievementBridge(achievement.NewManager(opts.Achievements), s.ctx.World, s.bus)

	s.resolution = systems.Pipeline{
		systems.MovementSystem{},
		systems.CombatSystem{},
		systems.InventorySystem{},
		systems.LevelSystem{},
	}
	s.aftermath = systems.Pipeline{
		systems.EffectSystem{},
		systems.HungerSystem{Interval: opts.HungerInterval},
	}
	return s, nil
}

func (s *Session) loadScripts(dir string) (*scripting.Manager, error) {
	mgr := scripting.NewManager(dice.NewLoggedRoller(s.rng, s.logger), s.logger, s.opts.InstructionLimit)
	mgr.Say = func(msg string) { s.bus.Publish(event.Info("%s", msg)) }
	mgr.PlayerInfo = s.playerInfo
	if err := scripting.LoadBossScripts(mgr, s.opts.Bosses, filepath.Join(dir, "bosses")); err != nil {
		mgr.Close()
		return nil, err
	}
	if err := mgr.LoadScope(ai.ScriptScope, filepath.Join(dir, ai.ScriptScope)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		mgr.Close()
		return nil, err
	}
	return mgr, nil
}

func (s *Session) playerInfo() *scripting.CombatantInfo {
	p, ok := s.ctx.Player()
	if !ok || p.Stats == nil || p.Position == nil {
		return nil
	}
	info := &scripting.CombatantInfo{
		Name:  p.Actor.Name,
		HP:    int(p.Stats.HP),
		MaxHP: int(p.Stats.MaxHP),
		X:     p.Position.X,
		Y:     p.Position.Y,
	}
	if p.Effects != nil {
		for _, se := range p.Effects.All() {
			info.Statuses = append(info.Statuses, se.Type.String())
		}
	}
	return info
}

// ErrScriptingDisabled is returned by ReloadScript on a session built
// without a script directory.
var ErrScriptingDisabled = errors.New("scripting is disabled")

// ReloadScript replaces the VM of c.Scope with the script at c.Path. On
// error the previous VM stays loaded.
func (s *Session) ReloadScript(c scripting.Change) error {
	if s.scripts == nil {
		return ErrScriptingDisabled
	}
	if err := s.scripts.LoadScope(c.Scope, c.Path); err != nil {
		return fmt.Errorf("session.ReloadScript: %w", err)
	}
	s.logger.Info("script reloaded", zap.String("scope", c.Scope), zap.String("path", c.Path))
	return nil
}

// Close releases script VMs.
func (s *Session) Close() {
	if s.scripts != nil {
		s.scripts.Close()
	}
}

// NewPlayer builds the starting player entity at pos.
func NewPlayer(name string, pos world.Position) *world.Entity {
	pool := energy.Full()
	hunger := world.NewHunger(world.DefaultSatiety)
	inv := world.NewInventory()
	inv.Add(world.Item{ID: "bread", Name: "Bread", Kind: world.ItemFood, Power: 3})
	inv.Add(world.Item{ID: "bread", Name: "Bread", Kind: world.ItemFood, Power: 3})
	inv.Add(world.Item{ID: "healing_potion", Name: "Healing Potion", Kind: world.ItemPotion, Power: 20})
	p := pos
	return &world.Entity{
		Actor:    world.Actor{Name: name, Glyph: '@', Faction: world.FactionPlayer},
		Player:   true,
		Position: &p,
		Stats: &world.Stats{
			HP:        100,
			MaxHP:     100,
			Attack:    12,
			Defense:   5,
			Accuracy:  10,
			Evasion:   8,
			CritBonus: 0.05,
			Range:     1,
			Level:     1,
		},
		Energy:    &pool,
		Effects:   effect.NewCollection(),
		Hunger:    &hunger,
		Inventory: inv,
	}
}

// NewGame discards any current state and starts a fresh run at StartDepth.
//
// Postcondition: the scheduler is in PlayerTurn and the status is Running.
func (s *Session) NewGame() error {
	s.ID = uuid.New()
	s.rng.src = dice.NewSeededSource(s.opts.Seed)
	s.bus.Clear()
	s.Clock.Turn, s.Clock.Elapsed = 0, 0
	s.Messages.Reset(nil)
	*s.ctx.Status = systems.Status{}
	s.scheduler.SetState(turn.PlayerTurn, false)
	s.pending = nil
	s.achievements.Manager().Reset()

	w := s.ctx.World
	w.Clear()
	w.Arena.Depth = s.opts.StartDepth
	w.Spawn(NewPlayer(s.opts.PlayerName, w.Arena.Centre()))
	s.achievements.SyncGold()
	if err := systems.EnterLevel(s.ctx, s.opts.StartDepth); err != nil {
		return fmt.Errorf("session.NewGame: %w", err)
	}
	s.bus.Publish(event.Info("Welcome to the dungeon, %s.", s.opts.PlayerName))
	s.events = s.bus.Drain()
	s.logger.Info("new game", zap.Stringer("session", s.ID), zap.Int64("seed", s.opts.Seed))
	return nil
}

// Tick advances the session by one loop iteration.
//
// Pause toggles are honoured first; while paused, or when the game is over,
// no game logic runs and new actions are dropped. Otherwise the actions
// join the pending queue, which is consumed in FIFO order until one action
// costs energy; the aftermath systems and the AI turn then follow, and the
// rest of the queue waits for the next player turn.
//
// Postcondition: returns Stop once the game has ended, Error on a corrupt
// state, Continue otherwise.
func (s *Session) Tick(actions []turn.Action) systems.Result {
	if s.ctx.Status.Over() {
		return systems.Stop()
	}
	play := make([]turn.Action, 0, len(actions))
	for _, a := range actions {
		switch {
		case a.Kind == turn.KindPause:
			s.togglePause()
		case a.IsMenu():
		default:
			play = append(play, a)
		}
	}
	if s.ctx.Status.Kind != systems.Running {
		s.endTick()
		return systems.Continue()
	}
	s.enqueue(play)

	var res systems.Result
	if s.scheduler.IsPlayerTurn() {
		res = s.playerPhase()
	} else {
		res = s.aiPhase()
	}
	s.endTick()
	return res
}

// Pending returns the player actions still waiting for a turn, oldest first.
func (s *Session) Pending() []turn.Action { return append([]turn.Action(nil), s.pending...) }

func (s *Session) enqueue(actions []turn.Action) {
	if room := MaxPendingActions - len(s.pending); len(actions) > room {
		s.logger.Warn("pending actions full, dropping input", zap.Int("dropped", len(actions)-room))
		actions = actions[:room]
	}
	s.pending = append(s.pending, actions...)
}

// requeue puts actions back at the head of the pending queue.
func (s *Session) requeue(actions []turn.Action) {
	if len(actions) == 0 {
		return
	}
	s.pending = append(append([]turn.Action(nil), actions...), s.pending...)
}

func (s *Session) togglePause() {
	before := s.ctx.Status.Kind
	s.ctx.Status.TogglePause()
	switch {
	case before == systems.Running && s.ctx.Status.Kind == systems.Paused:
		s.bus.Publish(event.GamePaused{})
	case before == systems.Paused && s.ctx.Status.Kind == systems.Running:
		s.bus.Publish(event.GameResumed{})
	}
}

// playerPhase resolves pending actions one at a time. Actions that fail
// cost nothing and the next one is tried; the first action that costs
// energy ends the player's turn.
func (s *Session) playerPhase() systems.Result {
	if len(s.pending) == 0 {
		return systems.Continue()
	}
	p, ok := s.ctx.Player()
	if !ok {
		return systems.Error(fmt.Errorf("session.Tick: %w", turn.ErrNoPlayer))
	}
	for len(s.pending) > 0 && s.scheduler.IsPlayerTurn() {
		a := s.pending[0]
		s.pending = s.pending[1:]

		if a.Cost() > 0 && p.Energy != nil && !p.Energy.CanAct() {
			pr, err := s.scheduler.ProcessPlayerTurn(s.ctx.World, []turn.Action{a})
			if err != nil {
				return systems.Error(err)
			}
			s.requeue(pr.Unconsumed)
			s.bus.Publish(event.Info("You are too exhausted to act."))
			break
		}

		s.bus.SetCurrentPhase(event.Input)
		s.bus.Publish(event.ActionIntended{Entity: p.ID, Action: a.String(), Priority: a.Cost()})
		s.ctx.ResetTick([]turn.Action{a})
		s.bus.SetCurrentPhase(event.Resolution)
		res := s.resolution.Run(s.ctx)
		if res.Outcome == systems.OutcomeError {
			return res
		}
		pr, err := s.scheduler.ProcessPlayerTurn(s.ctx.World, s.ctx.Completed)
		if err != nil {
			return systems.Error(err)
		}
		s.requeue(pr.Unconsumed)
		if !res.IsContinue() || s.ctx.Status.Over() {
			return systems.Stop()
		}
	}
	if s.scheduler.IsAITurn() {
		return s.aiPhase()
	}
	return systems.Continue()
}

func (s *Session) aiPhase() systems.Result {
	s.bus.SetCurrentPhase(event.Aftermath)
	if res := s.aftermath.Run(s.ctx); !res.IsContinue() {
		return res
	}
	s.bus.Publish(event.AITurnStarted{})
	if _, err := s.scheduler.ProcessAITurn(s.ctx.World); err != nil {
		return systems.Error(err)
	}
	if s.ctx.Status.Over() {
		return systems.Stop()
	}
	systems.BossSystem{}.Run(s.ctx)
	s.bus.Publish(event.TurnEnded{Turn: s.Clock.EndTurn()})
	s.bus.Publish(event.PlayerTurnStarted{})
	return systems.Continue()
}

func (s *Session) endTick() {
	s.Clock.Tick()
	s.bus.NextFrame()
	s.events = s.bus.Drain()
	s.bus.SetCurrentPhase(event.Input)
}

// Events returns the events drained at the end of the last tick, in phase
// order.
func (s *Session) Events() []event.Event { return s.events }

// World returns the live world. Callers must not mutate it outside Tick.
func (s *Session) World() *world.World { return s.ctx.World }

// Status returns the current game status.
func (s *Session) Status() systems.Status { return *s.ctx.Status }

// TurnState returns the scheduler state.
func (s *Session) TurnState() turn.State { return s.scheduler.State() }

// Bus returns the session bus, for frontends that subscribe to events.
func (s *Session) Bus() *event.Bus { return s.bus }

// Achievements returns the achievement tracker.
func (s *Session) Achievements() *achievement.Manager { return s.achievements.Manager() }

// Snapshot captures everything needed to resume this session.
func (s *Session) Snapshot() *save.Snapshot {
	w := s.ctx.World
	return &save.Snapshot{
		Version:           save.Version,
		SessionID:         s.ID,
		SavedAt:           s.now().UTC(),
		TurnState:         s.scheduler.State(),
		PlayerActionTaken: s.scheduler.PlayerActionTaken(),
		TurnCount:         s.Clock.Turn,
		ElapsedTime:       s.Clock.Elapsed,
		RNGSeed:           s.rng.src.Seed(),
		RNGPosition:       s.rng.src.Position(),
		Arena:             w.Arena,
		NextEntityID:      w.NextID(),
		Status:            *s.ctx.Status,
		Entities:          save.Capture(w),
		Achievements:      s.achievements.Manager().State(),
		Messages:          s.Messages.Texts(),
	}
}

// Restore replaces the session state with snap.
//
// Precondition: snap was produced by Snapshot or decoded by save.Decode.
// Postcondition: on error the session must be discarded or reset with NewGame.
func (s *Session) Restore(snap *save.Snapshot) error {
	if snap.Version != save.Version {
		return fmt.Errorf("session.Restore: version %d: %w", snap.Version, save.ErrVersion)
	}
	s.bus.Clear()
	if err := save.RestoreWorld(s.ctx.World, snap.Arena, snap.NextEntityID, snap.Entities); err != nil {
		return fmt.Errorf("session.Restore: %w", err)
	}
	if _, ok := s.ctx.Player(); !ok {
		return fmt.Errorf("session.Restore: %w", turn.ErrNoPlayer)
	}
	s.ID = snap.SessionID
	s.rng.src = dice.RestoreSeeded(snap.RNGSeed, snap.RNGPosition)
	s.scheduler.SetState(snap.TurnState, snap.PlayerActionTaken)
	s.Clock.Turn = snap.TurnCount
	s.Clock.Elapsed = snap.ElapsedTime
	*s.ctx.Status = snap.Status
	s.pending = nil
	s.achievements.Manager().Restore(snap.Achievements)
	s.achievements.SyncGold()
	s.Messages.Reset(snap.Messages)
	s.events = nil
	s.logger.Info("session restored",
		zap.Stringer("session", s.ID),
		zap.Uint32("turn", s.Clock.Turn),
		zap.Int("depth", snap.Arena.Depth),
	)
	return nil
}
