package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"net/http"

	"llamachat/internal/chat"
	"llamachat/internal/coordinator"
	"llamachat/internal/modelstore"
	"llamachat/pkg/types"
)

// HTTPError allows services to provide an HTTP status code for an error.
type HTTPError interface {
	error
	StatusCode() int
}

// statusForError maps service errors to HTTP status codes.
func statusForError(err error) int {
	var he HTTPError
	switch {
	case errors.As(err, &he):
		return he.StatusCode()
	case coordinator.IsNotReady(err):
		return http.StatusConflict
	case coordinator.IsConcurrentOperation(err), errors.Is(err, chat.ErrBusy):
		return http.StatusTooManyRequests
	case coordinator.IsInvalidArgument(err), errors.Is(err, modelstore.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, fs.ErrNotExist):
		return http.StatusNotFound
	case coordinator.IsEngineUnavailable(err):
		return http.StatusServiceUnavailable
	case coordinator.IsEngineFailure(err):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

// backpressureReason labels 429 responses for the backpressure counter.
func backpressureReason(err error) string {
	if errors.Is(err, chat.ErrBusy) {
		return "chat_busy"
	}
	return "concurrent_operation"
}

// writeServiceError maps err and writes it as a JSON error payload.
func writeServiceError(w http.ResponseWriter, err error) int {
	status := statusForError(err)
	if status == http.StatusTooManyRequests {
		IncrementBackpressure(backpressureReason(err))
	}
	writeJSONError(w, status, err.Error())
	return status
}

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: msg, Code: status})
}
