// Package shared holds the JSON response helpers used by every handler.
package shared

import (
	"encoding/json"
	"errors"
	"net/http"

	domainerrors "agapay/pkg/domain-errors"
)

// ErrorResponse is the wire shape for every error the API returns.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// WriteJSON writes v with the given status. Encoding failures are silent: the
// status line is already on the wire.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// WriteError maps a domain error to its HTTP status and writes the error
// body. Unknown errors come out as 500 with a generic message.
func WriteError(w http.ResponseWriter, err error) {
	code := domainerrors.CodeOf(err)
	message := "internal server error"
	var de *domainerrors.Error
	if errors.As(err, &de) {
		message = de.Message
	}
	WriteJSON(w, domainerrors.ToHTTPStatus(code), ErrorResponse{
		Error:   string(code),
		Message: message,
	})
}
