package coordinator

import (
	"context"
	"sync"
	"testing"
	"time"
)

// fakeEngine is an in-memory engine. A non-nil gate blocks the matching call
// until the gate is closed.
type fakeEngine struct {
	mu sync.Mutex

	loadErr   error
	unloadErr error
	genErr    error
	reply     string
	panicOn   Op

	loadGate   chan struct{}
	unloadGate chan struct{}
	genGate    chan struct{}

	loaded        string
	loads         int
	unloads       int
	generates     int
	lastPrompt    string
	lastMaxTokens int
}

func (f *fakeEngine) Load(ctx context.Context, model string) error {
	f.mu.Lock()
	gate := f.loadGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	if f.panicOn == OpLoad {
		panic("boom")
	}
	if f.loadErr != nil {
		return f.loadErr
	}
	f.loaded = model
	return nil
}

func (f *fakeEngine) Unload(ctx context.Context) error {
	f.mu.Lock()
	gate := f.unloadGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unloads++
	if f.unloadErr != nil {
		return f.unloadErr
	}
	f.loaded = ""
	return nil
}

func (f *fakeEngine) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	f.mu.Lock()
	gate := f.genGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generates++
	f.lastPrompt = prompt
	f.lastMaxTokens = maxTokens
	if f.panicOn == OpGenerate {
		panic("boom")
	}
	if f.genErr != nil {
		return "", f.genErr
	}
	return f.reply, nil
}

func (f *fakeEngine) set(fn func(f *fakeEngine)) {
	f.mu.Lock()
	fn(f)
	f.mu.Unlock()
}

func (f *fakeEngine) counts() (loads, unloads, generates int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loads, f.unloads, f.generates
}

func newTestCoordinator(t *testing.T, eng Engine, cfg Config) *Coordinator {
	t.Helper()
	c, err := New(eng, cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(2 * time.Millisecond)
	}
}

// testCtx returns a context with a short timeout, canceled on test cleanup.
func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return c
}
