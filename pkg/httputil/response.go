// Package httputil provides the JSON helpers shared by the control API
// handlers.
package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// MaxBodySize is the largest request body the control API accepts (10 MB).
const MaxBodySize = 10 * 1024 * 1024

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// WriteJSON writes data as JSON with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// WriteError writes an ErrorResponse with a machine-readable code and a
// human-readable message.
func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, ErrorResponse{Error: code, Message: message})
}

// WriteErrorWithDetails writes an ErrorResponse carrying extra detail, such
// as a list of validation issues.
func WriteErrorWithDetails(w http.ResponseWriter, status int, code, message string, details any) {
	WriteJSON(w, status, ErrorResponse{Error: code, Message: message, Details: details})
}

// WriteNoContent writes a 204 No Content response.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// LimitBody caps r.Body at MaxBodySize. Call it before reading the body.
func LimitBody(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
}

// DecodeJSON decodes the request body into v. An empty body is accepted
// only when allowEmpty is set.
func DecodeJSON(r *http.Request, v any, allowEmpty bool) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if allowEmpty && errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// WriteDecodeError maps a body decoding failure to 413 or 400.
func WriteDecodeError(w http.ResponseWriter, err error) {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		WriteError(w, http.StatusRequestEntityTooLarge, "body_too_large", "request body too large")
		return
	}
	WriteError(w, http.StatusBadRequest, "invalid_json", "invalid JSON in request body: "+err.Error())
}
