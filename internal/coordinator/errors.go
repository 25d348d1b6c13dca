package coordinator

import (
	"errors"
	"fmt"
)

// Error kinds. Every error returned by the coordinator matches exactly one of
// these with errors.Is.
var (
	// ErrEngineUnavailable means the native engine is missing. It is only
	// returned by New and is not retryable.
	ErrEngineUnavailable = errors.New("inference engine unavailable")
	// ErrNotReady means the operation requires a loaded model.
	ErrNotReady = errors.New("model not loaded")
	// ErrConcurrentOperation means another operation is pending.
	ErrConcurrentOperation = errors.New("another operation is in progress")
	// ErrInvalidArgument means the prompt or options are malformed.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrEngineFailure wraps an error returned by the engine itself.
	ErrEngineFailure = errors.New("engine failure")
)

// OpError describes a failed or rejected operation.
type OpError struct {
	Op    Op
	Kind  error
	Model string
	// Err is the underlying cause (the engine error for ErrEngineFailure).
	Err error
}

func (e *OpError) Error() string {
	msg := fmt.Sprintf("%s: %v", e.Op, e.Kind)
	if e.Model != "" {
		msg += " (" + e.Model + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Is reports whether target is the error kind of e.
func (e *OpError) Is(target error) bool { return target == e.Kind }

func (e *OpError) Unwrap() error { return e.Err }

// IsNotReady reports whether err indicates the model was not loaded.
func IsNotReady(err error) bool { return errors.Is(err, ErrNotReady) }

// IsConcurrentOperation reports whether err indicates an overlapping call.
func IsConcurrentOperation(err error) bool { return errors.Is(err, ErrConcurrentOperation) }

// IsInvalidArgument reports whether err indicates a malformed request.
func IsInvalidArgument(err error) bool { return errors.Is(err, ErrInvalidArgument) }

// IsEngineFailure reports whether err wraps an engine error.
func IsEngineFailure(err error) bool { return errors.Is(err, ErrEngineFailure) }

// IsEngineUnavailable reports whether err indicates a missing native engine.
func IsEngineUnavailable(err error) bool { return errors.Is(err, ErrEngineUnavailable) }

func rejection(op Op, kind error, model, detail string) *OpError {
	e := &OpError{Op: op, Kind: kind, Model: model}
	if detail != "" {
		e.Err = errors.New(detail)
	}
	return e
}

// engineError wraps cause as ErrEngineFailure unless it already carries a
// coordinator kind.
func engineError(op Op, model string, cause error) *OpError {
	var oe *OpError
	if errors.As(cause, &oe) {
		return oe
	}
	return &OpError{Op: op, Kind: ErrEngineFailure, Model: model, Err: cause}
}
