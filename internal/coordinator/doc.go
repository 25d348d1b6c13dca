// Package coordinator owns the lifecycle of a single local inference engine:
// load, ready, generate, unload. It is structured into small files by concern:
//
//   - coordinator.go: Coordinator type, constructor, getters and Snapshot.
//   - config.go: Config and package defaults.
//   - types.go: State, Op, Status, Outcome, Snapshot, GenerateOptions.
//   - engine.go: the Engine capability the coordinator drives.
//   - errors.go: error kinds (ErrNotReady, ErrConcurrentOperation, ...) and OpError.
//   - outcome.go: per-operation outcome slots and most-recent-failure aggregation.
//   - load.go, unload.go, generate.go: the three guarded operations.
//   - events.go, broadcast.go: EventPublisher seam and snapshot subscriptions.
//
// Exclusivity: at most one of load, unload and generate is pending at any
// instant. Overlapping calls are rejected with ErrConcurrentOperation, except a
// second load of the model that is already loading, which joins the in-flight
// call and receives the same result.
//
// Engine calls are never canceled. A caller's context only bounds how long that
// caller waits; the engine call keeps running and its settlement is recorded in
// the operation's outcome slot. There are no timeouts: an engine call that never
// returns leaves the operation pending.
package coordinator
