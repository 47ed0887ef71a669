// Package httputil centralizes the JSON envelope the transport layer speaks:
// plain values on success, {"error","error_description"} on failure, with
// domain error codes mapped to HTTP status codes in one place.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "credentry/pkg/domain-errors"
)

type errorBody struct {
	Error       string `json:"error"`
	Description string `json:"error_description,omitempty"`
}

// WriteJSON writes a success payload.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError translates a domain error into the JSON error envelope. Uncoded
// errors surface as internal without detail.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeInternal
	description := ""
	var de *dErrors.Error
	if errors.As(err, &de) {
		code = de.Code
		description = de.Message
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), errorBody{
		Error:       string(code),
		Description: description,
	})
}

// DecodeJSON parses a request body into dst, rejecting unknown fields.
func DecodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid request body")
	}
	return nil
}
