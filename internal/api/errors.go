package api

import (
	"encoding/json"
	"net/http"
)

// ErrorEnvelope is the body of every failed response. Booking is set when an action was
// rolled back, so the dashboard can restore the row it patched.
type ErrorEnvelope struct {
	Error   APIError `json:"error"`
	Booking any      `json:"booking,omitempty"`
}

type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, ErrorEnvelope{Error: APIError{Code: code, Message: message}})
}

// WriteRollback answers a failed booking action with the restored record.
func WriteRollback(w http.ResponseWriter, code, message string, booking any) {
	WriteJSON(w, http.StatusBadGateway, ErrorEnvelope{
		Error:   APIError{Code: code, Message: message},
		Booking: booking,
	})
}

// WriteUpstreamError reports a backend failure as 502, keeping the backend's own message when
// it sent one.
func WriteUpstreamError(w http.ResponseWriter, message, fallback string) {
	if message == "" {
		message = fallback
	}
	WriteError(w, http.StatusBadGateway, "BACKEND_ERROR", message)
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
