// Package main runs the dungeon in a terminal, or headless for a fixed
// number of turns.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/dungeon/internal/config"
)

// defaultLogFile receives log output in terminal mode when the config names
// no file.
const defaultLogFile = "dungeon.log"

func main() {
	start := time.Now()

	configPath := flag.String("config", "configs/dev.yaml", "path to configuration file")
	headless := flag.Int("headless", 0, "simulate N idle turns without a terminal and exit")
	loadSlot := flag.String("load", "", "resume from this save slot")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("loading config: %v", err)
	}
	if *headless == 0 && cfg.Logging.File == "" {
		cfg.Logging.File = defaultLogFile
	}

	if err := run(context.Background(), cfg, *headless, *loadSlot, start); err != nil {
		log.Fatalf("dungeon: %v", err)
	}
}

func run(ctx context.Context, cfg config.Config, headless int, loadSlot string, start time.Time) error {
	a, cleanup, err := initializeApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer cleanup()

	a.logger.Info("dungeon ready",
		zap.String("session", a.session.ID.String()),
		zap.Int64("seed", cfg.Game.Seed),
		zap.String("storage", cfg.Storage.Backend),
		zap.Duration("startup", time.Since(start)),
	)

	if loadSlot != "" {
		if err := a.resume(ctx, loadSlot); err != nil {
			return err
		}
	}
	if headless > 0 {
		return a.simulate(ctx, headless, os.Stdout)
	}
	return a.play(ctx)
}
