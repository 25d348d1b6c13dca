//go:build !llama

package engine

// This file provides a no-CGO stub for the llama engine. It is compiled when
// the 'llama' build tag is NOT set, keeping default builds and CI CGO-free.
// The real engine lives in llama.go (tagged 'llama').

import (
	"fmt"

	"llamachat/internal/coordinator"
)

// LlamaBuilt reports whether this binary was compiled with llama support.
const LlamaBuilt = false

// NewLlama fails fast: the native runtime is not part of this build.
func NewLlama(store Resolver, ctxSize, threads int) (coordinator.Engine, error) {
	return nil, fmt.Errorf("%w: llama support not built (missing 'llama' build tag)", coordinator.ErrEngineUnavailable)
}
