package coordinator

import "time"

// Event names published by the coordinator.
const (
	EventLoadStart      = "load_start"
	EventLoadReady      = "load_ready"
	EventLoadFailed     = "load_failed"
	EventUnloadStart    = "unload_start"
	EventUnloadDone     = "unload_done"
	EventUnloadFailed   = "unload_failed"
	EventGenerateStart  = "generate_start"
	EventGenerateDone   = "generate_done"
	EventGenerateFailed = "generate_failed"
	EventRejected       = "rejected"
)

// Event represents a coordinator lifecycle transition.
type Event struct {
	Name    string
	Op      Op
	ModelID string
	// Duration of the engine call for settle events; zero otherwise.
	Duration time.Duration
	Err      error
	// Snapshot is the coordinator state right after the transition.
	Snapshot Snapshot
}

// EventPublisher receives events from the coordinator, one at a time and in
// transition order. Implementations should be lightweight, must not panic, and
// must not call LoadModel, UnloadModel or GenerateText. Getters such as State
// and Snapshot are safe to call from Publish.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}

// MultiPublisher fans an event out to several publishers in order.
type MultiPublisher []EventPublisher

func (mp MultiPublisher) Publish(e Event) {
	for _, p := range mp {
		if p != nil {
			p.Publish(e)
		}
	}
}
