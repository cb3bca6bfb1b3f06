package httpx

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the error half of the API envelope. Details is optional and
// carries structured context (e.g. bannedUntil, per-field validation
// messages).
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// Envelope is the response shape every endpoint uses:
// {"success": bool, "error": {...}} on failure, success payloads inline.
type Envelope struct {
	Success bool       `json:"success"`
	Error   *ErrorBody `json:"error,omitempty"`
}

// Error codes shared across handlers.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"
	CodeBanned       = "BANNED"
	CodeNotFound     = "NOT_FOUND"
	CodeInternal     = "INTERNAL_SERVER_ERROR"
)

// WriteJSON writes a JSON response with the given status code. Token and
// account responses must not be cached, so every response opts out.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type successEnvelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
}

// WriteSuccess writes the standard success envelope around data.
func WriteSuccess(w http.ResponseWriter, status int, data any) {
	WriteJSON(w, status, successEnvelope{Success: true, Data: data})
}

// WriteError writes the standard failure envelope.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, Envelope{Success: false, Error: &ErrorBody{Code: code, Message: message}})
}

// WriteErrorDetails is WriteError with a structured details payload.
func WriteErrorDetails(w http.ResponseWriter, status int, code, message string, details any) {
	WriteJSON(w, status, Envelope{
		Success: false,
		Error:   &ErrorBody{Code: code, Message: message, Details: details},
	})
}

// WriteValidationError reports per-field validation failures under details.
func WriteValidationError(w http.ResponseWriter, fields map[string]string) {
	WriteErrorDetails(w, http.StatusBadRequest, CodeValidation,
		"There was an error in data validation", fields)
}

// NoCache sets the Cache-Control and Pragma headers to prevent caching.
func NoCache(w http.ResponseWriter) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
}
