// Package httputil provides HTTP handler utilities for the portal's JSON
// response envelope, request parsing and content negotiation.
package httputil

import (
	"encoding/json"
	"net/http"
	"strings"
)

// Envelope is the standard response shape: {"success": bool, "message": ...}
// with optional extra payload fields merged at the top level.
type Envelope struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message,omitempty"`
	Extra   map[string]interface{} `json:"-"`
}

// MarshalJSON flattens Extra into the top-level object
func (e Envelope) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(e.Extra)+2)
	out["success"] = e.Success
	if e.Message != "" {
		out["message"] = e.Message
	}
	for k, v := range e.Extra {
		out[k] = v
	}
	return json.Marshal(out)
}

// WriteJSON writes a JSON response with the given status code
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a 200 success envelope with a message and extra fields
func WriteSuccess(w http.ResponseWriter, message string, extra map[string]interface{}) error {
	return WriteJSON(w, http.StatusOK, Envelope{Success: true, Message: message, Extra: extra})
}

// WriteFailure writes a failure envelope with the given status
func WriteFailure(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Envelope{Success: false, Message: message})
}

// WriteValidationError writes a 400 failure envelope
func WriteValidationError(w http.ResponseWriter, message string) {
	WriteFailure(w, http.StatusBadRequest, message)
}

// WriteUnauthorized writes a 401 failure envelope
func WriteUnauthorized(w http.ResponseWriter, message string) {
	WriteFailure(w, http.StatusUnauthorized, message)
}

// WriteForbidden writes a 403 failure envelope
func WriteForbidden(w http.ResponseWriter, message string) {
	WriteFailure(w, http.StatusForbidden, message)
}

// WriteNotFound writes a 404 failure envelope
func WriteNotFound(w http.ResponseWriter, message string) {
	WriteFailure(w, http.StatusNotFound, message)
}

// WriteInternalError writes a 500 failure envelope with a generic message.
// The underlying error must be logged by the caller, never surfaced here.
func WriteInternalError(w http.ResponseWriter, message string) {
	if message == "" {
		message = "internal server error"
	}
	WriteFailure(w, http.StatusInternalServerError, message)
}

// WantsJSON reports whether the caller declared a machine-readable
// preference: an Accept header mentioning JSON, or the XMLHttpRequest
// marker header. Browser navigations get redirects instead.
func WantsJSON(r *http.Request) bool {
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		return true
	}
	return r.Header.Get("X-Requested-With") == "XMLHttpRequest"
}
