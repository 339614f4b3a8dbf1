//go:build wireinject

package main

import (
	"context"

	"github.com/google/wire"

	"github.com/cory-johannsen/dungeon/internal/config"
	"github.com/cory-johannsen/dungeon/internal/gameserver"
)

func initializeApp(ctx context.Context, cfg config.Config) (*app, func(), error) {
	wire.Build(
		provideLogger,
		provideSessionOptions,
		provideSession,
		provideStore,
		gameserver.NewFrameHub,
		provideLoopConfig,
		gameserver.NewLoop,
		wire.Struct(new(app), "*"),
	)
	return nil, nil, nil
}
