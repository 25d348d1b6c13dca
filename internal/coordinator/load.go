package coordinator

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"
)

// LoadModel loads name into the engine, or the default model when name is
// empty. A concurrent LoadModel of the same model joins the in-flight call and
// returns its result; any other pending operation rejects the call with
// ErrConcurrentOperation. Loading while ready reloads the engine.
//
// ctx bounds only the wait: if it ends first, ctx.Err() is returned and the
// load keeps running.
func (c *Coordinator) LoadModel(ctx context.Context, name string) error {
	ch, err := c.startLoad(name)
	if err != nil {
		return err
	}
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// startLoad marks the load pending (or joins the pending one) and returns the
// channel that receives its settlement.
func (c *Coordinator) startLoad(name string) (<-chan singleflight.Result, error) {
	if name == "" {
		name = c.defaultModel
	}
	c.mu.Lock()
	switch {
	case c.load.pending && c.loading == name:
		// The key is live: the load func clears load.pending under c.mu
		// before it returns.
		ch := c.loads.DoChan(c.loadKey, c.loadFunc(name))
		c.mu.Unlock()
		c.log.Debug().Str("model", name).Msg("joined in-flight load")
		return ch, nil
	case c.load.pending:
		return nil, c.rejectLocked(OpLoad, rejection(OpLoad, ErrConcurrentOperation, name, "load of "+c.loading+" in progress"))
	case c.unload.pending:
		return nil, c.rejectLocked(OpLoad, rejection(OpLoad, ErrConcurrentOperation, name, "unload in progress"))
	case c.generate.pending:
		return nil, c.rejectLocked(OpLoad, rejection(OpLoad, ErrConcurrentOperation, name, "generation in progress"))
	}

	c.attempt++
	c.loadKey = fmt.Sprintf("%s#%d", name, c.attempt)
	c.loading = name
	c.load.pending = true
	ch := c.loads.DoChan(c.loadKey, c.loadFunc(name))
	c.log.Debug().Str("model", name).Msg("load start")
	c.commitLocked(Event{Name: EventLoadStart, Op: OpLoad, ModelID: name})
	return ch, nil
}

func (c *Coordinator) loadFunc(name string) func() (any, error) {
	return func() (any, error) {
		start := time.Now()
		err := callEngine(func() error { return c.engine.Load(context.Background(), name) })
		dur := time.Since(start)

		c.mu.Lock()
		c.loading = ""
		if err != nil {
			oe := engineError(OpLoad, name, err)
			c.failLocked(&c.load, oe, true)
			c.log.Error().Str("op", string(OpLoad)).Str("model", name).Dur("dur", dur).Err(err).Msg("load failed")
			c.commitLocked(Event{Name: EventLoadFailed, Op: OpLoad, ModelID: name, Duration: dur, Err: oe})
			return nil, oe
		}
		c.loaded = true
		c.model = name
		c.succeedLocked(&c.load)
		c.log.Info().Str("model", name).Dur("dur", dur).Msg("model ready")
		c.commitLocked(Event{Name: EventLoadReady, Op: OpLoad, ModelID: name, Duration: dur})
		return nil, nil
	}
}
