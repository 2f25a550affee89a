package storage

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Match them with errors.Is.
var (
	ErrDuplicateID    = errors.New("duplicate id")
	ErrNotFound       = errors.New("student not found")
	ErrMissingField   = errors.New("missing field")
	ErrInvalidAge     = errors.New("invalid age")
	ErrMalformedInput = errors.New("malformed input")
)

// Error carries the context a caller needs to build a user-facing
// message: the failing operation, the offending id and, for imports, the
// line of the input that was rejected.
type Error struct {
	Op   string // e.g. "Add", "Import"
	ID   string // offending student id, if any
	Line int    // 1-based input line, imports only
	Kind error  // one of the Err* kinds above
	Err  error  // detail, optional
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Op)
	if e.Line > 0 {
		fmt.Fprintf(&b, ": line %d", e.Line)
	}
	if e.ID != "" {
		fmt.Fprintf(&b, ": id %q", e.ID)
	}
	fmt.Fprintf(&b, ": %v", e.Kind)
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is reports whether the error is of the given kind.
func (e *Error) Is(target error) bool {
	return e.Kind == target
}

// NewError builds an *Error without detail.
func NewError(op, id string, kind error) *Error {
	return &Error{Op: op, ID: id, Kind: kind}
}

// IsValidation reports whether err is a client-side input problem rather
// than a store failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrMissingField) ||
		errors.Is(err, ErrInvalidAge) ||
		errors.Is(err, ErrMalformedInput)
}
