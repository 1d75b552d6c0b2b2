package api

import (
	"encoding/json"
	"net/http"
)

// Error codes returned in ErrorEnvelope.
const (
	CodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	CodeNotFound            = "NOT_FOUND"
)

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// WriteError writes a JSON error envelope. Messages are shown to callers as-is, so they must
// never carry upstream detail.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(ErrorEnvelope{
		Error: APIError{Code: code, Message: message},
	})
}
