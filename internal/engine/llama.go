//go:build llama

package engine

import (
	"context"
	"errors"
	"strings"

	llama "github.com/go-skynet/go-llama.cpp"

	"llamachat/internal/coordinator"
)

// LlamaBuilt reports whether this binary was compiled with llama support.
const LlamaBuilt = true

// llamaEngine runs go-llama.cpp in-process. All native calls happen on a
// single worker goroutine.
type llamaEngine struct {
	store   Resolver
	ctxSize int
	threads int

	jobs  chan func()
	model *llama.LLama // owned by the worker goroutine
}

// NewLlama starts the worker goroutine and returns the engine. Call Close to
// free the model and stop the worker.
func NewLlama(store Resolver, ctxSize, threads int) (coordinator.Engine, error) {
	if store == nil {
		return nil, errors.New("llama engine: nil model resolver")
	}
	e := &llamaEngine{
		store:   store,
		ctxSize: max(ctxSize, 128),
		threads: max(threads, 1),
		jobs:    make(chan func()),
	}
	go e.worker()
	return e, nil
}

func (e *llamaEngine) worker() {
	for job := range e.jobs {
		job()
	}
}

// run executes fn on the worker and waits for it.
func (e *llamaEngine) run(fn func() error) error {
	done := make(chan error, 1)
	e.jobs <- func() { done <- fn() }
	return <-done
}

func (e *llamaEngine) Load(ctx context.Context, model string) error {
	path, err := e.store.Resolve(model)
	if err != nil {
		return err
	}
	return e.run(func() error {
		// Load first so a failure keeps the current model.
		m, err := llama.New(path, llama.SetContext(e.ctxSize))
		if err != nil {
			return err
		}
		if e.model != nil {
			e.model.Free()
		}
		e.model = m
		return nil
	})
}

func (e *llamaEngine) Unload(ctx context.Context) error {
	return e.run(func() error {
		if e.model == nil {
			return ErrNoModelLoaded
		}
		e.model.Free()
		e.model = nil
		return nil
	})
}

func (e *llamaEngine) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New("empty prompt")
	}
	var out string
	err := e.run(func() error {
		if e.model == nil {
			return ErrNoModelLoaded
		}
		text, err := e.model.Predict(prompt,
			llama.SetTokens(max(1, maxTokens)),
			llama.SetThreads(e.threads),
		)
		out = text
		return err
	})
	return out, err
}

// Close frees the model and stops the worker.
func (e *llamaEngine) Close() error {
	err := e.run(func() error {
		if e.model != nil {
			e.model.Free()
			e.model = nil
		}
		return nil
	})
	close(e.jobs)
	return err
}
