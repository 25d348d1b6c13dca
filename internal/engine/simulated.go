package engine

import (
	"context"
	"errors"
	"sync"
	"time"
)

// SimulatedSuffix is appended to the prompt by the simulated engine.
const SimulatedSuffix = " [simulated model response]"

// ErrNoModelLoaded is returned by engines asked to generate with no model
// loaded. The llama engine also returns it from Unload.
var ErrNoModelLoaded = errors.New("no model loaded")

// Simulated is an engine without weights. Load records the model name,
// Generate echoes the prompt followed by SimulatedSuffix, and Unload with
// nothing loaded is a no-op.
type Simulated struct {
	mu     sync.Mutex
	loaded string
	delay  time.Duration // applied to every call
	// Optional resolver; when set, Load fails for names it cannot resolve.
	resolver Resolver

	loadErr, unloadErr, genErr error
}

// SimulatedOption configures a Simulated engine.
type SimulatedOption func(*Simulated)

// WithDelay makes every call take at least d.
func WithDelay(d time.Duration) SimulatedOption { return func(s *Simulated) { s.delay = d } }

// WithResolver validates model names on Load through r.
func WithResolver(r Resolver) SimulatedOption { return func(s *Simulated) { s.resolver = r } }

// WithFailures makes Load, Unload and Generate fail with the given errors.
// A nil error leaves that call working.
func WithFailures(load, unload, generate error) SimulatedOption {
	return func(s *Simulated) {
		s.loadErr, s.unloadErr, s.genErr = load, unload, generate
	}
}

// SetFailures replaces the injected failures of a running engine.
func (s *Simulated) SetFailures(load, unload, generate error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loadErr, s.unloadErr, s.genErr = load, unload, generate
}

// NewSimulated returns an engine with nothing loaded.
func NewSimulated(opts ...SimulatedOption) *Simulated {
	s := &Simulated{}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Simulated) wait(ctx context.Context) error {
	if s.delay <= 0 {
		return nil
	}
	t := time.NewTimer(s.delay)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Simulated) Load(ctx context.Context, model string) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	if s.resolver != nil {
		if _, err := s.resolver.Resolve(model); err != nil {
			return err
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loadErr != nil {
		return s.loadErr
	}
	s.loaded = model
	return nil
}

func (s *Simulated) Unload(ctx context.Context) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unloadErr != nil {
		return s.unloadErr
	}
	s.loaded = ""
	return nil
}

func (s *Simulated) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if err := s.wait(ctx); err != nil {
		return "", err
	}
	s.mu.Lock()
	loaded, genErr := s.loaded, s.genErr
	s.mu.Unlock()
	if loaded == "" {
		return "", ErrNoModelLoaded
	}
	if genErr != nil {
		return "", genErr
	}
	return prompt + SimulatedSuffix, nil
}

// Loaded returns the loaded model name, or "".
func (s *Simulated) Loaded() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}
