package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"llamachat/internal/chat"
	"llamachat/internal/config"
	"llamachat/internal/coordinator"
	"llamachat/internal/engine"
	"llamachat/internal/modelstore"
)

// app is the wired object graph shared by serve and chat.
type app struct {
	store   *modelstore.Store
	engine  coordinator.Engine
	coord   *coordinator.Coordinator
	session *chat.Session
}

// newEngine builds the engine named by cfg.Engine. The llama engine fails
// with coordinator.ErrEngineUnavailable in builds without the llama tag.
func newEngine(cfg config.Config, store *modelstore.Store) (coordinator.Engine, error) {
	switch cfg.Engine {
	case config.EngineSimulated:
		return engine.NewSimulated(engine.WithResolver(store)), nil
	case config.EngineLlama:
		return engine.NewLlama(store, cfg.CtxSize, cfg.Threads)
	default:
		return nil, fmt.Errorf("%w: unknown engine %q", coordinator.ErrEngineUnavailable, cfg.Engine)
	}
}

func buildApp(cfg config.Config, log zerolog.Logger, publisher coordinator.EventPublisher) (*app, error) {
	store, err := modelstore.New(cfg.ModelsDir, cfg.AssetsDir)
	if err != nil {
		return nil, fmt.Errorf("model store: %w", err)
	}
	eng, err := newEngine(cfg, store)
	if err != nil {
		return nil, explainUnavailable(err, cfg)
	}
	clog := log.With().Str("component", "coordinator").Logger()
	coord, err := coordinator.New(eng, coordinator.Config{
		ModelName:        cfg.ModelName,
		AutoLoad:         cfg.ShouldAutoLoad(),
		DefaultMaxTokens: cfg.MaxTokens,
		Logger:           &clog,
		Publisher:        publisher,
	})
	if err != nil {
		closeEngine(eng)
		return nil, err
	}
	session := chat.NewSession(coord, log.With().Str("component", "chat").Logger())
	session.Start("")
	return &app{store: store, engine: eng, coord: coord, session: session}, nil
}

// Close releases the engine when it holds native resources.
func (a *app) Close() error { return closeEngine(a.engine) }

func closeEngine(eng coordinator.Engine) error {
	if c, ok := eng.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// explainUnavailable adds a hint to engine construction failures.
func explainUnavailable(err error, cfg config.Config) error {
	if errors.Is(err, coordinator.ErrEngineUnavailable) && cfg.Engine == config.EngineLlama && !engine.LlamaBuilt {
		return fmt.Errorf("%w (rebuild with -tags=llama or pass --engine=simulated)", err)
	}
	return err
}
