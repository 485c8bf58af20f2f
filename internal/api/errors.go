package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nerrad567/vesync-core/internal/cloud"
	"github.com/nerrad567/vesync-core/internal/device"
	"github.com/nerrad567/vesync-core/internal/fleet"
)

// Error represents a structured error response.
type Error struct {
	Status  int    `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Common error codes.
const (
	ErrCodeBadRequest  = "bad_request"
	ErrCodeNotFound    = "not_found"
	ErrCodeConflict    = "conflict"
	ErrCodeValidation  = "validation_error"
	ErrCodeRateLimited = "rate_limited"
	ErrCodeOffline     = "device_offline"
	ErrCodeUpstream    = "upstream_error"
	ErrCodeNotReady    = "not_ready"
	ErrCodeInternal    = "internal_error"
)

// writeJSON writes a JSON response with the given status code and payload.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		//nolint:errcheck // Best-effort write to response; connection may be closed
		json.NewEncoder(w).Encode(v)
	}
}

// writeError writes a structured error response.
func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, Error{
		Status:  status,
		Code:    code,
		Message: message,
	})
}

// writeBadRequest writes a 400 error response.
func writeBadRequest(w http.ResponseWriter, message string) {
	writeError(w, http.StatusBadRequest, ErrCodeBadRequest, message)
}

// writeInternalError writes a 500 error response.
func writeInternalError(w http.ResponseWriter, message string) {
	writeError(w, http.StatusInternalServerError, ErrCodeInternal, message)
}

// writeDomainError maps a domain error onto an HTTP response.
//
// One special case: an unconfirmed command (the vendor acknowledged
// receipt but not the outcome) is a 202, telling the caller the command
// went out and the device must be polled before its state is trusted.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, fleet.ErrDeviceNotFound):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, err.Error())
	case errors.Is(err, device.ErrInvalidArgument):
		writeError(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
	case errors.Is(err, device.ErrFeatureNotSupported):
		writeError(w, http.StatusConflict, ErrCodeConflict, err.Error())
	case errors.Is(err, cloud.ErrPendingConfirm):
		writeJSON(w, http.StatusAccepted, map[string]any{
			"status":  "unconfirmed",
			"message": "command sent but not confirmed; poll the device before trusting its state",
		})
	case errors.Is(err, cloud.ErrRateLimited):
		writeError(w, http.StatusTooManyRequests, ErrCodeRateLimited, err.Error())
	case errors.Is(err, cloud.ErrDeviceOffline):
		writeError(w, http.StatusServiceUnavailable, ErrCodeOffline, err.Error())
	case errors.Is(err, fleet.ErrNotLoggedIn):
		writeError(w, http.StatusServiceUnavailable, ErrCodeNotReady, err.Error())
	case errors.Is(err, cloud.ErrTransport):
		writeError(w, http.StatusBadGateway, ErrCodeUpstream, err.Error())
	default:
		writeInternalError(w, err.Error())
	}
}
