// Package engine provides coordinator.Engine implementations.
//
// Build tags and runtimes:
//
//   - In-process llama (standard):
//     Uses go-llama.cpp. Enabled with `-tags=llama`.
//     Files: llama.go, llama_cgo.go (linker rpath hints).
//     A no-CGO stub exists when the tag is not set: llama_stub.go. Its
//     constructor reports coordinator.ErrEngineUnavailable.
//
//   - Simulated:
//     Always available. Loads nothing and echoes the prompt, like the
//     placeholder native library. Used for demos, UI work and tests.
package engine

// Resolver maps a model name to a weight file path. modelstore.Store
// implements it.
type Resolver interface {
	Resolve(name string) (string, error)
}
