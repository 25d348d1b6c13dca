package coordinator

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Coordinator serializes access to one Engine and exposes its lifecycle state.
// Create one per chat session.
type Coordinator struct {
	mu     sync.RWMutex
	engine Engine

	loaded  bool   // engine holds a model
	model   string // model held by the engine when loaded
	loading string // model being loaded while load.pending

	load     slot
	unload   slot
	generate slot
	seq      uint64

	// loads lets a second LoadModel of the same model share the in-flight
	// call. Keys are unique per attempt so a settled call is never rejoined.
	loads   singleflight.Group
	loadKey string
	attempt uint64

	defaultModel     string
	defaultMaxTokens int

	log *zerolog.Logger
	// outbox queues committed events in transition order; guarded by mu.
	outbox []Event
	// pubMu serializes draining the outbox. It is never acquired while mu is
	// held, so publishers may read coordinator state.
	pubMu     sync.Mutex
	publisher EventPublisher
	subs      broadcaster
}

// New constructs a Coordinator around engine. A nil engine yields
// ErrEngineUnavailable and no coordinator. With cfg.AutoLoad the default model
// starts loading before New returns.
func New(engine Engine, cfg Config) (*Coordinator, error) {
	if engine == nil {
		return nil, fmt.Errorf("%w: no engine provided", ErrEngineUnavailable)
	}
	cfg = cfg.withDefaults()
	c := &Coordinator{
		engine:           engine,
		defaultModel:     cfg.ModelName,
		defaultMaxTokens: cfg.DefaultMaxTokens,
		log:              cfg.Logger,
		publisher:        cfg.Publisher,
	}
	if c.log == nil {
		nop := zerolog.Nop()
		c.log = &nop
	}
	if cfg.AutoLoad {
		c.autoLoad()
	}
	return c, nil
}

// SetEventPublisher installs a custom event publisher (e.g., metrics or a test
// recorder). Nil restores the no-op publisher.
func (c *Coordinator) SetEventPublisher(p EventPublisher) {
	c.pubMu.Lock()
	defer c.pubMu.Unlock()
	if p == nil {
		p = noopPublisher{}
	}
	c.publisher = p
}

// Subscribe returns a channel that receives the latest Snapshot after every
// transition, and a func that ends the subscription and closes the channel.
func (c *Coordinator) Subscribe() (<-chan Snapshot, func()) {
	return c.subs.subscribe()
}

// autoLoad issues the single background load requested by Config.AutoLoad.
// The pending state is set synchronously; the result is only recorded.
func (c *Coordinator) autoLoad() {
	if _, err := c.startLoad(c.defaultModel); err != nil {
		c.log.Warn().Err(err).Str("model", c.defaultModel).Msg("auto-load not started")
	}
}

// DefaultModel returns the model loaded when LoadModel gets an empty name.
func (c *Coordinator) DefaultModel() string { return c.defaultModel }

// State returns the current lifecycle state.
func (c *Coordinator) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stateLocked()
}

func (c *Coordinator) stateLocked() State {
	switch {
	case c.load.pending:
		return StateLoading
	case c.unload.pending:
		return StateUnloading
	case c.loaded:
		return StateReady
	case c.load.err != nil && IsEngineFailure(c.load.err):
		return StateError
	default:
		return StateUnloaded
	}
}

// IsReady reports whether a model is loaded and no load or unload is pending.
func (c *Coordinator) IsReady() bool { return c.State() == StateReady }

// IsLoading reports whether a load is pending.
func (c *Coordinator) IsLoading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.load.pending
}

// IsGenerating reports whether a generation is pending.
func (c *Coordinator) IsGenerating() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generate.pending
}

// IsUnloading reports whether an unload is pending.
func (c *Coordinator) IsUnloading() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.unload.pending
}

// Err returns the most recently settled failure among load, unload and
// generate, or nil when none of them currently holds a failure.
func (c *Coordinator) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.aggregateErrLocked()
}

// Outcome returns the slot for op.
func (c *Coordinator) Outcome(op Op) Outcome {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.slotFor(op).outcome()
}

// Model returns the loaded model name, or "" when nothing is loaded.
func (c *Coordinator) Model() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.loaded {
		return ""
	}
	return c.model
}

// Snapshot returns a read-only view of the coordinator state.
func (c *Coordinator) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshotLocked()
}

func (c *Coordinator) snapshotLocked() Snapshot {
	st := c.stateLocked()
	s := Snapshot{
		State:      st,
		Ready:      st == StateReady,
		Loading:    c.load.pending,
		Generating: c.generate.pending,
		Unloading:  c.unload.pending,
		Err:        c.aggregateErrLocked(),
		Load:       c.load.outcome(),
		Unload:     c.unload.outcome(),
		Generate:   c.generate.outcome(),
	}
	if c.loaded {
		s.Model = c.model
	}
	return s
}

// commitLocked captures the post-transition snapshot into e, queues it,
// releases c.mu and publishes. e has been delivered when commitLocked returns.
func (c *Coordinator) commitLocked(e Event) {
	e.Snapshot = c.snapshotLocked()
	c.outbox = append(c.outbox, e)
	c.mu.Unlock()
	c.flush()
}

// flush delivers queued events in order. Whoever holds pubMu drains events
// queued by others too, so a waiting committer may find the queue empty.
func (c *Coordinator) flush() {
	c.pubMu.Lock()
	defer c.pubMu.Unlock()
	for {
		c.mu.Lock()
		if len(c.outbox) == 0 {
			c.outbox = nil
			c.mu.Unlock()
			return
		}
		e := c.outbox[0]
		c.outbox = c.outbox[1:]
		c.mu.Unlock()

		c.publisher.Publish(e)
		c.subs.Publish(e)
	}
}

// rejectLocked records a rejected call in op's slot and publishes it. The
// returned error is handed back to the caller.
func (c *Coordinator) rejectLocked(op Op, err *OpError) error {
	c.failLocked(c.slotFor(op), err, false)
	c.log.Debug().Str("op", string(op)).Str("model", err.Model).Err(err).Msg("rejected")
	c.commitLocked(Event{Name: EventRejected, Op: op, ModelID: err.Model, Err: err})
	return err
}

// callEngine runs fn and turns a panic into an error.
func callEngine(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("engine panic: %v", r)
		}
	}()
	return fn()
}
