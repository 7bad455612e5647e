// Package httputil provides HTTP handler utilities for consistent JSON
// responses and the machine-readable denial contract: every denial
// carries a stable error code plus human-readable guidance.
package httputil

import (
	"encoding/json"
	"net/http"
)

// Denial codes surfaced to clients. These are part of the API contract;
// never rename an existing code.
const (
	CodeAuthRequired        = "AUTH_REQUIRED"
	CodeAuthInvalid         = "AUTH_INVALID"
	CodeRateLimited         = "RATE_LIMITED"
	CodeFeatureDenied       = "FEATURE_DENIED"
	CodeInsufficientCredits = "INSUFFICIENT_CREDITS"
)

// ErrorResponse is the standardized denial/error body.
type ErrorResponse struct {
	Code    string      `json:"code"`
	Error   string      `json:"error"`
	Upgrade string      `json:"upgrade,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a successful response (200 OK) with JSON data
func WriteSuccess(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusOK, data)
}

// WriteCreated writes a successful creation response (201 Created)
func WriteCreated(w http.ResponseWriter, data interface{}) error {
	return WriteJSON(w, http.StatusCreated, data)
}

// WriteDenial writes a typed denial with a machine code, a human message,
// optional upgrade guidance and structured details.
func WriteDenial(w http.ResponseWriter, status int, code, message, upgrade string, details interface{}) {
	WriteJSON(w, status, ErrorResponse{
		Code:    code,
		Error:   message,
		Upgrade: upgrade,
		Details: details,
	})
}

// WriteErrorMessage writes a plain JSON error without a denial code
func WriteErrorMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, map[string]string{"error": message})
}

// WriteBadRequest writes a bad request error (400)
func WriteBadRequest(w http.ResponseWriter, message string) {
	WriteErrorMessage(w, http.StatusBadRequest, message)
}

// WriteNotFound writes a not found error (404)
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteErrorMessage(w, http.StatusNotFound, message)
}

// WriteInternalError writes an internal server error (500). The concrete
// error stays in the logs; clients get a generic message.
func WriteInternalError(w http.ResponseWriter) {
	WriteErrorMessage(w, http.StatusInternalServerError, "internal error")
}

// WriteServiceUnavailable writes a service unavailable error (503)
func WriteServiceUnavailable(w http.ResponseWriter, message string) {
	WriteErrorMessage(w, http.StatusServiceUnavailable, message)
}
