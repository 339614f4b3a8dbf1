package gameserver_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/dungeon/internal/game/session"
	"github.com/cory-johannsen/dungeon/internal/game/systems"
	"github.com/cory-johannsen/dungeon/internal/game/turn"
	"github.com/cory-johannsen/dungeon/internal/game/world"
	"github.com/cory-johannsen/dungeon/internal/gameserver"
	"github.com/cory-johannsen/dungeon/internal/save"
	"github.com/cory-johannsen/dungeon/internal/scripting"
)

func newSession(t *testing.T, monsters int) *session.Session {
	t.Helper()
	s, err := session.New(session.Options{MonstersPerLevel: monsters}, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(s.Close)
	require.NoError(t, s.NewGame())
	return s
}

func newLoop(t *testing.T, s *session.Session, store save.Store, cfg gameserver.LoopConfig) *gameserver.Loop {
	t.Helper()
	if cfg.TickRate == 0 {
		cfg.TickRate = time.Millisecond
	}
	if cfg.QuickSlot == "" {
		cfg.QuickSlot = "quick"
	}
	return gameserver.NewLoop(s, store, gameserver.NewFrameHub(), cfg, zaptest.NewLogger(t))
}

func latest(t *testing.T, l *gameserver.Loop) gameserver.Frame {
	t.Helper()
	f, ok := l.Hub().Latest()
	require.True(t, ok, "no frame published")
	return f
}

func messages(f gameserver.Frame) []string {
	out := make([]string, len(f.Messages))
	for i, m := range f.Messages {
		out[i] = m.Text
	}
	return out
}

func TestBuildFrame(t *testing.T) {
	s := newSession(t, 2)
	f := gameserver.BuildFrame(s, 0)

	assert.Equal(t, s.ID, f.SessionID)
	assert.Len(t, f.Entities, 3)
	assert.Equal(t, "Adventurer", f.HUD.Name)
	assert.Equal(t, uint32(100), f.HUD.HP)
	assert.Equal(t, 1, f.HUD.Depth)
	assert.Equal(t, []string{"Bread", "Bread", "Healing Potion"}, f.HUD.Items)
	assert.Equal(t, "running", f.StatusText)
	assert.Contains(t, messages(f), "Welcome to the dungeon, Adventurer.")

	var players int
	for _, e := range f.Entities {
		if e.Player {
			players++
			assert.Equal(t, "@", e.Glyph)
			assert.False(t, e.Hostile)
		} else {
			assert.True(t, e.Hostile)
		}
	}
	assert.Equal(t, 1, players)
}

func TestLoop_StepPublishesFrame(t *testing.T) {
	s := newSession(t, -1)
	l := newLoop(t, s, nil, gameserver.LoopConfig{})

	res := l.Step(context.Background(), []turn.Action{turn.Move(world.East)})
	require.True(t, res.IsContinue(), res.String())

	f := latest(t, l)
	assert.Equal(t, uint64(1), f.Seq)
	assert.Equal(t, uint32(1), f.Turn)
}

func TestLoop_SaveActionWritesQuickSlot(t *testing.T) {
	s := newSession(t, -1)
	store := save.NewMemoryStore(2)
	l := newLoop(t, s, store, gameserver.LoopConfig{})

	l.Step(context.Background(), []turn.Action{{Kind: turn.KindSave}})

	snap, err := store.Load(context.Background(), "quick")
	require.NoError(t, err)
	assert.Equal(t, s.ID, snap.SessionID)
	assert.Contains(t, messages(latest(t, l)), "Game saved to quick.")
}

func TestLoop_SaveWithoutStore(t *testing.T) {
	s := newSession(t, -1)
	l := newLoop(t, s, nil, gameserver.LoopConfig{})

	l.Step(context.Background(), []turn.Action{{Kind: turn.KindSave}})
	assert.Contains(t, messages(latest(t, l)), "Saving is disabled.")
}

func TestLoop_SaveIntoFullStore(t *testing.T) {
	s := newSession(t, -1)
	store := save.NewMemoryStore(1)
	require.NoError(t, store.Save(context.Background(), "other", s.Snapshot()))
	l := newLoop(t, s, store, gameserver.LoopConfig{})

	l.Step(context.Background(), []turn.Action{{Kind: turn.KindSave}})
	assert.Contains(t, messages(latest(t, l)), "No free save slots for quick.")
}

func TestLoop_Autosave(t *testing.T) {
	s := newSession(t, -1)
	store := save.NewMemoryStore(2)
	l := newLoop(t, s, store, gameserver.LoopConfig{AutosaveInterval: 2, AutosaveSlot: "auto"})
	ctx := context.Background()

	l.Step(ctx, []turn.Action{turn.Wait()})
	_, err := store.Load(ctx, "auto")
	assert.ErrorIs(t, err, save.ErrSlotNotFound)

	l.Step(ctx, []turn.Action{turn.Wait()})
	snap, err := store.Load(ctx, "auto")
	require.NoError(t, err)
	assert.Equal(t, uint32(2), snap.TurnCount)

	// Idle ticks do not complete turns and never autosave again.
	require.NoError(t, store.Delete(ctx, "auto"))
	l.Step(ctx, nil)
	_, err = store.Load(ctx, "auto")
	assert.ErrorIs(t, err, save.ErrSlotNotFound)
}

func TestLoop_RunEndsOnQuit(t *testing.T) {
	s := newSession(t, -1)
	l := newLoop(t, s, nil, gameserver.LoopConfig{})
	require.True(t, l.Submit(turn.Quit()))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, l.Run(ctx))
	assert.Equal(t, systems.GameOver, s.Status().Kind)
	assert.Equal(t, "game_over (quit)", latest(t, l).StatusText)
}

func TestLoop_RunCancelled(t *testing.T) {
	s := newSession(t, -1)
	l := newLoop(t, s, nil, gameserver.LoopConfig{})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.NoError(t, l.Run(ctx))
	assert.False(t, s.Status().Over())
}

func TestLoop_LoadRestoresSlot(t *testing.T) {
	s := newSession(t, -1)
	store := save.NewMemoryStore(2)
	l := newLoop(t, s, store, gameserver.LoopConfig{})
	ctx := context.Background()

	l.Step(ctx, []turn.Action{{Kind: turn.KindSave}})
	l.Step(ctx, []turn.Action{turn.Move(world.East)})
	p, _ := s.World().Player()
	require.Equal(t, 21, p.Position.X)

	require.True(t, l.RequestLoad("quick"))
	require.True(t, l.Submit(turn.Quit()))
	runCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	require.NoError(t, l.Run(runCtx))

	p, ok := s.World().Player()
	require.True(t, ok)
	assert.Equal(t, 20, p.Position.X)
	assert.Contains(t, s.Messages.Texts(), "Game loaded from quick.")
}

func TestLoop_LoadMissingSlot(t *testing.T) {
	s := newSession(t, -1)
	l := newLoop(t, s, save.NewMemoryStore(2), gameserver.LoopConfig{})
	require.True(t, l.RequestLoad("missing"))
	require.True(t, l.Submit(turn.Quit()))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, l.Run(ctx))
	assert.Contains(t, s.Messages.Texts(), "There is no save in missing.")
}

func TestLoop_StopBeforeStart(t *testing.T) {
	s := newSession(t, -1)
	l := newLoop(t, s, nil, gameserver.LoopConfig{TickRate: time.Hour})
	l.Stop()

	done := make(chan error, 1)
	go func() { done <- l.Start() }()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Start did not return after Stop")
	}
}

func TestLoop_ReloadWithoutScripts(t *testing.T) {
	s := newSession(t, -1)
	l := newLoop(t, s, nil, gameserver.LoopConfig{})
	l.RequestReload(scripting.Change{Scope: "ai", Path: t.TempDir()})
	require.True(t, l.Submit(turn.Quit()))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, l.Run(ctx))
	assert.Contains(t, s.Messages.Texts(), "Script ai failed to reload.")
}
