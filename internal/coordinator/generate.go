package coordinator

import (
	"context"
	"fmt"
	"time"
)

// GenerateText runs one generation and returns the engine's text verbatim.
//
// Rejections, in order: ErrNotReady unless ready (the coordinator never loads
// on the caller's behalf), ErrInvalidArgument for an empty prompt or negative
// MaxTokens, ErrConcurrentOperation while another generation is pending.
// Generations are not queued. A failed generation leaves the model loaded.
func (c *Coordinator) GenerateText(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	c.mu.Lock()
	if st := c.stateLocked(); st != StateReady {
		return "", c.rejectLocked(OpGenerate, rejection(OpGenerate, ErrNotReady, "", "state is "+string(st)))
	}
	model := c.model
	if prompt == "" {
		return "", c.rejectLocked(OpGenerate, rejection(OpGenerate, ErrInvalidArgument, model, "prompt is empty"))
	}
	maxTokens := opts.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.defaultMaxTokens
	}
	if maxTokens < 0 {
		return "", c.rejectLocked(OpGenerate, rejection(OpGenerate, ErrInvalidArgument, model, fmt.Sprintf("max tokens must be positive, got %d", maxTokens)))
	}
	if c.generate.pending {
		return "", c.rejectLocked(OpGenerate, rejection(OpGenerate, ErrConcurrentOperation, model, "generation in progress"))
	}
	c.generate.pending = true
	c.log.Debug().Str("model", model).Int("max_tokens", maxTokens).Msg("generate start")
	c.commitLocked(Event{Name: EventGenerateStart, Op: OpGenerate, ModelID: model})

	type result struct {
		text string
		err  error
	}
	done := make(chan result, 1)
	go func() {
		var text string
		start := time.Now()
		err := callEngine(func() error {
			var gerr error
			text, gerr = c.engine.Generate(context.Background(), prompt, maxTokens)
			return gerr
		})
		dur := time.Since(start)

		c.mu.Lock()
		if err != nil {
			oe := engineError(OpGenerate, model, err)
			c.failLocked(&c.generate, oe, true)
			c.log.Error().Str("op", string(OpGenerate)).Str("model", model).Dur("dur", dur).Err(err).Msg("generate failed")
			c.commitLocked(Event{Name: EventGenerateFailed, Op: OpGenerate, ModelID: model, Duration: dur, Err: oe})
			done <- result{err: oe}
			return
		}
		c.succeedLocked(&c.generate)
		c.log.Debug().Str("model", model).Dur("dur", dur).Int("chars", len(text)).Msg("generate done")
		c.commitLocked(Event{Name: EventGenerateDone, Op: OpGenerate, ModelID: model, Duration: dur})
		done <- result{text: text}
	}()

	select {
	case r := <-done:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}
