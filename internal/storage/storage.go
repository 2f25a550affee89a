// Package storage defines the Storage interface: the contract any student
// store must satisfy to work with this application.
//
// Handlers and the CSV codec depend only on this interface. The in-memory
// store (package memory) is the default; package sqlite provides the same
// contract on top of an SQLite database.
package storage

import "github.com/aanand-mishra/student-registry/internal/types"

// Storage is the student store contract.
//
// Every method is all-or-nothing: on error the store is left exactly as
// it was before the call.
type Storage interface {
	// Add inserts a new record at the end of the insertion order.
	// Fails with ErrDuplicateID, ErrMissingField or ErrInvalidAge.
	Add(student types.Student) error

	// Get returns the record with the given id, or ErrNotFound.
	Get(id string) (types.Student, error)

	// Search is the user-facing lookup. Same contract as Get.
	Search(id string) (types.Student, error)

	// List returns every record in insertion order. An empty store yields
	// an empty (non-nil) slice.
	List() ([]types.Student, error)

	// Count returns the number of records.
	Count() (int, error)

	// Update replaces name, age and grade of an existing record. The
	// record keeps its position in the insertion order.
	Update(student types.Student) error

	// Delete removes the record with the given id, or fails with
	// ErrNotFound.
	Delete(id string) error

	// UpsertMany applies a batch of records in order: existing ids are
	// overwritten in place, new ids are appended. Every record is
	// validated before anything is written.
	UpsertMany(students []types.Student) (added, updated int, err error)
}
