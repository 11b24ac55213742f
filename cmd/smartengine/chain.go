package main

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/otelwasm/smartengine/chainconfig"
	"github.com/otelwasm/smartengine/engine"
)

// loadedChain is an initialized chain together with the engine that owns it.
type loadedChain struct {
	cfg    *chainconfig.Config
	engine *engine.Engine
	chain  *engine.ChainInstance
}

func loadChain(ctx context.Context, path string, logger *zap.Logger) (*loadedChain, error) {
	cfg, err := chainconfig.Load(path)
	if err != nil {
		return nil, err
	}

	e, err := engine.NewEngine(append(cfg.EngineOptions(), engine.WithLogger(logger))...)
	if err != nil {
		return nil, err
	}
	builder, err := cfg.ChainBuilder()
	if err != nil {
		_ = e.Close(ctx)
		return nil, err
	}
	chain, err := builder.Initialize(ctx, e)
	if err != nil {
		_ = e.Close(ctx)
		return nil, fmt.Errorf("initializing chain from %s: %w", path, err)
	}
	return &loadedChain{cfg: cfg, engine: e, chain: chain}, nil
}

func (l *loadedChain) Close(ctx context.Context) error {
	return multierr.Append(l.chain.Close(ctx), l.engine.Close(ctx))
}
