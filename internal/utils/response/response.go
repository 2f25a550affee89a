// Package response provides helpers for writing consistent JSON HTTP
// responses.
//
// Success responses may return any JSON shape (a student, a list, a
// summary). Error responses always look like:
//
//	{ "status": "error", "error": "Add: id \"S1\": duplicate id" }
package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aanand-mishra/student-registry/internal/storage"
	"github.com/go-playground/validator/v10"
)

// Response is the standard envelope returned for error cases.
type Response struct {
	Status string `json:"status"` // always StatusError
	Error  string `json:"error"`  // human-readable error detail
}

const StatusError = "error"

// WriteJSON writes data as JSON with the given HTTP status code.
//
// Order matters: Header() → WriteHeader() → body. Once WriteHeader is
// called, headers are locked.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// GeneralError wraps any Go error into the standard Response shape.
func GeneralError(err error) Response {
	return Response{
		Status: StatusError,
		Error:  err.Error(),
	}
}

// ValidationError converts the validator's per-field errors into a single
// human-readable Response.
//
// Example output:
//
//	{ "status": "error", "error": "field Name is required, field Age must be at least 1" }
func ValidationError(errs validator.ValidationErrors) Response {
	var errMessages []string

	for _, e := range errs {
		switch e.ActualTag() {
		case "required":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is required", e.Field()))
		case "min":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must be at least %s", e.Field(), e.Param()))
		case "max":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must be at most %s", e.Field(), e.Param()))
		case "nocr":
			errMessages = append(errMessages,
				fmt.Sprintf("field %s must not contain a carriage return", e.Field()))
		default:
			errMessages = append(errMessages,
				fmt.Sprintf("field %s is invalid", e.Field()))
		}
	}

	return Response{
		Status: StatusError,
		Error:  strings.Join(errMessages, ", "),
	}
}

// StatusFor maps a storage error kind to an HTTP status code.
//
//	ErrNotFound                                   → 404
//	ErrDuplicateID                                → 409
//	ErrMissingField, ErrInvalidAge, ErrMalformed  → 400
//	anything else                                 → 500
func StatusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrDuplicateID):
		return http.StatusConflict
	case storage.IsValidation(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// WriteError writes err with the status StatusFor picks.
func WriteError(w http.ResponseWriter, err error) error {
	return WriteJSON(w, StatusFor(err), GeneralError(err))
}
