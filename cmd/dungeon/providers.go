package main

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/config"
	"github.com/cory-johannsen/dungeon/internal/game/achievement"
	"github.com/cory-johannsen/dungeon/internal/game/ai"
	"github.com/cory-johannsen/dungeon/internal/game/boss"
	"github.com/cory-johannsen/dungeon/internal/game/dice"
	"github.com/cory-johannsen/dungeon/internal/game/monster"
	"github.com/cory-johannsen/dungeon/internal/game/session"
	"github.com/cory-johannsen/dungeon/internal/gameserver"
	"github.com/cory-johannsen/dungeon/internal/observability"
	"github.com/cory-johannsen/dungeon/internal/save"
	"github.com/cory-johannsen/dungeon/internal/storage/postgres"
)

func provideLogger(cfg config.Config) (*zap.Logger, func(), error) {
	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("initializing logger: %w", err)
	}
	return logger, func() { _ = logger.Sync() }, nil
}

// provideSessionOptions loads content files named by cfg. Empty paths select
// the built-in content.
func provideSessionOptions(cfg config.Config, logger *zap.Logger) (session.Options, error) {
	start := time.Now()
	bosses, err := boss.LoadDefinitions(cfg.Content.BossFile)
	if err != nil {
		return session.Options{}, fmt.Errorf("loading bosses: %w", err)
	}
	achievements, err := achievement.LoadDefinitions(cfg.Content.AchievementFile)
	if err != nil {
		return session.Options{}, fmt.Errorf("loading achievements: %w", err)
	}
	monsters, err := monster.LoadRegistry(cfg.Content.MonsterDir)
	if err != nil {
		return session.Options{}, fmt.Errorf("loading monsters: %w", err)
	}
	domains, err := ai.LoadDomains(cfg.Content.DomainDir)
	if err != nil {
		return session.Options{}, fmt.Errorf("loading ai domains: %w", err)
	}
	logger.Info("content loaded",
		zap.Int("bosses", len(bosses.All())),
		zap.Int("achievements", len(achievements)),
		zap.Int("domains", len(domains)),
		zap.Duration("elapsed", time.Since(start)),
	)

	g := cfg.Game
	seed := g.Seed
	if seed < 0 {
		seed = int64(dice.NewCryptoSource().Intn(math.MaxInt32)) + 1
		logger.Info("random seed drawn", zap.Int64("seed", seed))
	}
	return session.Options{
		Seed:             seed,
		HistorySize:      g.HistorySize,
		ArenaWidth:       g.ArenaWidth,
		ArenaHeight:      g.ArenaHeight,
		StartDepth:       g.StartDepth,
		MaxDepth:         g.MaxDepth,
		MonstersPerLevel: g.MonstersPerLevel,
		HungerInterval:   g.HungerInterval,
		TickRate:         g.TickRate,
		MessageLimit:     g.MessageLimit,
		PlayerName:       g.PlayerName,
		Bosses:           bosses,
		Monsters:         monsters,
		Achievements:     achievements,
		Domains:          domains,
		ScriptDir:        cfg.Content.ScriptDir,
		InstructionLimit: cfg.Content.InstructionLimit,
	}, nil
}

// provideSession builds a session with a fresh game on its start depth.
func provideSession(opts session.Options, logger *zap.Logger) (*session.Session, func(), error) {
	sess, err := session.New(opts, logger)
	if err != nil {
		return nil, nil, err
	}
	if err := sess.NewGame(); err != nil {
		sess.Close()
		return nil, nil, fmt.Errorf("starting game: %w", err)
	}
	return sess, sess.Close, nil
}

// provideStore opens the save backend selected by cfg.Storage.Backend.
//
// Postcondition: the cleanup closes any database pool that was opened.
func provideStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (save.Store, func(), error) {
	s := cfg.Storage
	switch s.Backend {
	case config.BackendFile:
		files, err := save.NewFileStore(s.Dir, s.Slots)
		if err != nil {
			return nil, nil, fmt.Errorf("opening save directory: %w", err)
		}
		logger.Info("saving to files", zap.String("dir", s.Dir), zap.Int("slots", s.Slots))
		return files, func() {}, nil
	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.Database, logger)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to database: %w", err)
		}
		return postgres.NewSaveRepository(pool.DB(), s.Slots), pool.Close, nil
	default:
		logger.Info("saving to memory", zap.Int("slots", s.Slots))
		return save.NewMemoryStore(s.Slots), func() {}, nil
	}
}

func provideLoopConfig(cfg config.Config) gameserver.LoopConfig {
	return gameserver.LoopConfig{
		TickRate:         cfg.Game.TickRate,
		AutosaveInterval: cfg.Storage.AutosaveInterval,
		AutosaveSlot:     cfg.Storage.AutosaveSlot,
		QuickSlot:        cfg.Storage.QuickSlot,
		FrameMessages:    gameserver.DefaultFrameMessages,
	}
}
