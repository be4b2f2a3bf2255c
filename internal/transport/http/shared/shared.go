// Package shared centralizes JSON and error envelopes so every handler
// speaks the same dialect.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "stemma/pkg/domain-errors"
)

// WriteJSON writes v as the JSON response body.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// ErrorBody is the JSON error envelope.
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteError translates a domain error into its HTTP response. Non-domain
// errors collapse to a plain 500 without leaking internals.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := ErrorBody{Error: string(code), Message: "internal error"}
	var de *dErrors.Error
	if errors.As(err, &de) {
		body.Message = de.Message
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), body)
}
