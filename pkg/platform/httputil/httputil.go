// Package httputil centralizes JSON response writing and request decoding for
// the thin HTTP layer.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "vetra/pkg/domain-errors"
)

// WriteJSON writes v as a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// WriteError maps a coded domain error to an HTTP response. Internal errors
// omit the description so infrastructure detail never leaks to callers; any
// non-coded error is treated as internal.
func WriteError(w http.ResponseWriter, err error) {
	var dErr *dErrors.Error
	if !errors.As(err, &dErr) {
		dErr = dErrors.New(dErrors.CodeInternal, err.Error())
	}

	body := errorBody{Error: string(dErr.Code)}
	status := http.StatusInternalServerError

	switch dErr.Code {
	case dErrors.CodeBadRequest:
		status = http.StatusBadRequest
		body.ErrorDescription = dErr.Description
	case dErrors.CodeNotFound:
		status = http.StatusNotFound
		body.ErrorDescription = dErr.Description
	case dErrors.CodeConflict, dErrors.CodeInvalidTransition:
		status = http.StatusConflict
		body.ErrorDescription = dErr.Description
	}

	WriteJSON(w, status, body)
}

// Decode parses the request body into T, reporting a coded bad-request error
// on malformed input.
func Decode[T any](r *http.Request) (T, error) {
	var v T
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		return v, dErrors.Newf(dErrors.CodeBadRequest, "invalid request body: %v", err)
	}
	return v, nil
}
