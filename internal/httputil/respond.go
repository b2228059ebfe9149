// Package httputil provides shared HTTP response and body-reading helpers.
package httputil

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the wire shape of every error the API returns.
type ErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteErrorResponse writes the uniform error envelope.
func WriteErrorResponse(w http.ResponseWriter, status int, code, message string, details map[string]interface{}) {
	WriteJSON(w, status, ErrorResponse{Error: message, Code: code, Details: details})
}
