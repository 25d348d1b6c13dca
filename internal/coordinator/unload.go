package coordinator

import (
	"context"
	"time"
)

// UnloadModel releases the loaded model. It is rejected with ErrNotReady
// unless the coordinator is ready, and with ErrConcurrentOperation while a
// generation is pending. If the engine fails, the model is assumed to still be
// loaded and the coordinator stays ready; callers retry.
func (c *Coordinator) UnloadModel(ctx context.Context) error {
	c.mu.Lock()
	if st := c.stateLocked(); st != StateReady {
		return c.rejectLocked(OpUnload, rejection(OpUnload, ErrNotReady, "", "state is "+string(st)))
	}
	if c.generate.pending {
		return c.rejectLocked(OpUnload, rejection(OpUnload, ErrConcurrentOperation, c.model, "generation in progress"))
	}
	model := c.model
	c.unload.pending = true
	c.log.Debug().Str("model", model).Msg("unload start")
	c.commitLocked(Event{Name: EventUnloadStart, Op: OpUnload, ModelID: model})

	done := make(chan error, 1)
	go func() {
		start := time.Now()
		err := callEngine(func() error { return c.engine.Unload(context.Background()) })
		dur := time.Since(start)

		c.mu.Lock()
		if err != nil {
			oe := engineError(OpUnload, model, err)
			c.failLocked(&c.unload, oe, true)
			c.log.Error().Str("op", string(OpUnload)).Str("model", model).Dur("dur", dur).Err(err).Msg("unload failed")
			c.commitLocked(Event{Name: EventUnloadFailed, Op: OpUnload, ModelID: model, Duration: dur, Err: oe})
			done <- oe
			return
		}
		c.loaded = false
		c.model = ""
		c.succeedLocked(&c.unload)
		c.log.Info().Str("model", model).Dur("dur", dur).Msg("model unloaded")
		c.commitLocked(Event{Name: EventUnloadDone, Op: OpUnload, ModelID: model, Duration: dur})
		done <- nil
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
