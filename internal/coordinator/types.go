package coordinator

import "time"

// State is the lifecycle state of the engine as seen by the coordinator.
type State string

const (
	StateUnloaded  State = "unloaded"
	StateLoading   State = "loading"
	StateReady     State = "ready"
	StateUnloading State = "unloading"
	// StateError is reported while no model is loaded and the last load failed
	// in the engine.
	StateError State = "error"
)

// Op names one of the three guarded operations.
type Op string

const (
	OpLoad     Op = "load"
	OpUnload   Op = "unload"
	OpGenerate Op = "generate"
)

// Status is the state of one outcome slot.
type Status string

const (
	StatusIdle      Status = "idle"
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Outcome is a read-only view of one operation's slot.
type Outcome struct {
	Status    Status
	Err       error
	SettledAt time.Time
}

// Snapshot is a read-only projection of the coordinator state.
type Snapshot struct {
	State      State
	Model      string
	Ready      bool
	Loading    bool
	Generating bool
	Unloading  bool
	Err        error
	Load       Outcome
	Unload     Outcome
	Generate   Outcome
}

// GenerateOptions tunes a single generation. A zero MaxTokens selects the
// configured default.
type GenerateOptions struct {
	MaxTokens int
}
