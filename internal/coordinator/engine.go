package coordinator

import "context"

// Engine is the native inference capability driven by the Coordinator.
// Implementations need not be safe for concurrent use: the coordinator never
// has more than one call in flight.
type Engine interface {
	// Load resolves model and loads its weights, replacing any loaded model.
	// On failure a previously loaded model stays loaded.
	Load(ctx context.Context, model string) error
	// Unload releases the loaded model. The coordinator only calls it while a
	// model is loaded.
	Unload(ctx context.Context) error
	// Generate produces text for prompt using at most maxTokens new tokens.
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}
