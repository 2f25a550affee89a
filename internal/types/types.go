// Package types holds the shared data structures used across the
// application. Keeping them in one place prevents import cycles:
// handlers, storage and the CSV codec all import types without
// depending on each other.
package types

// Student is one student's record.
//
// ID is the primary key. It is chosen by the caller (not generated) and
// never changes once the record exists; Update replaces the other three
// fields wholesale.
//
// The validate:"..." tags are checked by go-playground/validator both at
// the HTTP boundary and again inside the storage layer, because the
// storage layer cannot trust its callers. "nocr" is registered by
// storage.NewValidator: CSV readers fold a quoted CRLF into LF, so a
// carriage return could not survive an export/import round trip.
type Student struct {
	ID    string `json:"id"    validate:"required,nocr"`
	Name  string `json:"name"  validate:"required,nocr"`
	Age   int    `json:"age"   validate:"min=1,max=100"`
	Grade string `json:"grade" validate:"required,nocr"`
}

// StudentFields is the mutable part of a Student, used as the request body
// of an update where the ID comes from the URL.
type StudentFields struct {
	Name  string `json:"name"  validate:"required,nocr"`
	Age   int    `json:"age"   validate:"min=1,max=100"`
	Grade string `json:"grade" validate:"required,nocr"`
}

// ImportSummary reports what a CSV import did to the store.
type ImportSummary struct {
	BatchID string `json:"batch_id"`
	Added   int    `json:"added"`
	Updated int    `json:"updated"`
	Failed  int    `json:"failed"`

	// Failures holds one message per skipped row. Only populated when the
	// import runs with the skip-invalid policy.
	Failures []string `json:"failures,omitempty"`
}
