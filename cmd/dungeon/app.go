package main

import (
	"context"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/config"
	"github.com/cory-johannsen/dungeon/internal/frontend/spectate"
	"github.com/cory-johannsen/dungeon/internal/frontend/tui"
	"github.com/cory-johannsen/dungeon/internal/game/session"
	"github.com/cory-johannsen/dungeon/internal/game/systems"
	"github.com/cory-johannsen/dungeon/internal/game/turn"
	"github.com/cory-johannsen/dungeon/internal/gameserver"
	"github.com/cory-johannsen/dungeon/internal/save"
	"github.com/cory-johannsen/dungeon/internal/scripting"
	"github.com/cory-johannsen/dungeon/internal/server"
)

// app holds the wired components of one game.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	opts    session.Options
	session *session.Session
	store   save.Store
	hub     *gameserver.FrameHub
	loop    *gameserver.Loop
}

// resume replaces the fresh game with the snapshot in slot.
func (a *app) resume(ctx context.Context, slot string) error {
	snap, err := a.store.Load(ctx, slot)
	if err != nil {
		return fmt.Errorf("loading slot %s: %w", slot, err)
	}
	if err := a.session.Restore(snap); err != nil {
		return fmt.Errorf("restoring slot %s: %w", slot, err)
	}
	a.logger.Info("resumed game",
		zap.String("slot", slot),
		zap.Uint32("turn", a.session.Clock.Turn),
	)
	return nil
}

// simulate advances the game by waiting for up to turns turns without a
// terminal, then prints the outcome to w.
//
// Postcondition: returns the tick error if a system failed.
func (a *app) simulate(ctx context.Context, turns int, w io.Writer) error {
	for range turns {
		res := a.loop.Step(ctx, []turn.Action{turn.Wait()})
		if res.Outcome == systems.OutcomeError {
			return res.Err
		}
		if !res.IsContinue() {
			break
		}
	}
	_, err := fmt.Fprintf(w, "turn %d: %s\n", a.session.Clock.Turn, a.session.Status())
	return err
}

// play runs the loop, the terminal frontend and the optional spectator feed
// and script watcher until the player leaves or a signal arrives.
func (a *app) play(ctx context.Context) error {
	lc := server.NewLifecycle(a.logger)
	lc.Add("game-loop", lingering(a.loop))
	lc.Add("tui", tui.NewProgram(a.loop, a.hub, a.cfg.Storage.QuickSlot))

	if a.cfg.Spectator.Enabled {
		lc.Add("spectator", spectate.NewServer(a.cfg.Spectator, a.hub, a.logger))
	}
	if a.cfg.Content.HotReload {
		w, err := scripting.NewWatcher(a.cfg.Content.ScriptDir, a.opts.Bosses, a.loop.RequestReload, a.logger)
		if err != nil {
			return fmt.Errorf("watching scripts: %w", err)
		}
		lc.Add("script-watcher", w)
	}
	return lc.Run(ctx)
}

// lingering keeps the loop service running after the game ends, so the
// frontend can show the final screen until the player leaves.
func lingering(l *gameserver.Loop) server.Service {
	done := make(chan struct{})
	var once sync.Once
	return &server.FuncService{
		StartFn: func() error {
			if err := l.Start(); err != nil {
				return err
			}
			<-done
			return nil
		},
		StopFn: func() {
			l.Stop()
			once.Do(func() { close(done) })
		},
	}
}
