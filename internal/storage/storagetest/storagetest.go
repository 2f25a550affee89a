// Package storagetest holds the behaviour every storage.Storage must show,
// so each backend runs the same checks from its own tests:
//
//	func TestContract(t *testing.T) {
//		storagetest.Run(t, func(t *testing.T) storage.Storage { return memory.New() })
//	}
package storagetest

import (
	"testing"

	"github.com/aanand-mishra/student-registry/internal/storage"
	"github.com/aanand-mishra/student-registry/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, empty store.
type Factory func(t *testing.T) storage.Storage

var (
	alice = types.Student{ID: "S1", Name: "Alice", Age: 20, Grade: "A"}
	bob   = types.Student{ID: "S2", Name: "Bob", Age: 21, Grade: "B"}
	carol = types.Student{ID: "S3", Name: "Carol", Age: 22, Grade: "C"}
)

// Run executes the contract against stores built by newStore.
func Run(t *testing.T, newStore Factory) {
	t.Run("AddThenGet", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Add(alice))

		got, err := s.Get("S1")
		require.NoError(t, err)
		assert.Equal(t, alice, got)

		got, err = s.Search("S1")
		require.NoError(t, err)
		assert.Equal(t, alice, got)
	})

	t.Run("AddThenList", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Add(alice))

		list, err := s.List()
		require.NoError(t, err)
		assert.Equal(t, []types.Student{alice}, list)
	})

	t.Run("EmptyList", func(t *testing.T) {
		s := newStore(t)

		list, err := s.List()
		require.NoError(t, err)
		assert.NotNil(t, list)
		assert.Empty(t, list)

		n, err := s.Count()
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("DuplicateIDLeavesStoreUnchanged", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Add(alice))

		err := s.Add(types.Student{ID: "S1", Name: "Bob", Age: 21, Grade: "B"})
		assert.ErrorIs(t, err, storage.ErrDuplicateID)

		got, err := s.Get("S1")
		require.NoError(t, err)
		assert.Equal(t, alice, got)

		n, err := s.Count()
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("AddRejectsInvalidRecords", func(t *testing.T) {
		s := newStore(t)

		cases := []struct {
			name    string
			student types.Student
			kind    error
		}{
			{"empty id", types.Student{Name: "A", Age: 20, Grade: "A"}, storage.ErrMissingField},
			{"empty name", types.Student{ID: "S1", Age: 20, Grade: "A"}, storage.ErrMissingField},
			{"empty grade", types.Student{ID: "S1", Name: "A", Age: 20}, storage.ErrMissingField},
			{"age zero", types.Student{ID: "S1", Name: "A", Age: 0, Grade: "A"}, storage.ErrInvalidAge},
			{"age too high", types.Student{ID: "S1", Name: "A", Age: 101, Grade: "A"}, storage.ErrInvalidAge},
			{"negative age", types.Student{ID: "S1", Name: "A", Age: -3, Grade: "A"}, storage.ErrInvalidAge},
		}
		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				assert.ErrorIs(t, s.Add(tc.student), tc.kind)
			})
		}

		n, err := s.Count()
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("RejectsCarriageReturn", func(t *testing.T) {
		s := newStore(t)

		err := s.Add(types.Student{ID: "S1", Name: "Line1\r\nLine2", Age: 20, Grade: "A"})
		assert.ErrorIs(t, err, storage.ErrMalformedInput)
		err = s.Add(types.Student{ID: "S\r1", Name: "Alice", Age: 20, Grade: "A"})
		assert.ErrorIs(t, err, storage.ErrMalformedInput)

		require.NoError(t, s.Add(alice))
		err = s.Update(types.Student{ID: "S1", Name: "Alice", Age: 20, Grade: "A\r"})
		assert.ErrorIs(t, err, storage.ErrMalformedInput)

		list, err := s.List()
		require.NoError(t, err)
		assert.Equal(t, []types.Student{alice}, list)
	})

	t.Run("AgeBoundsAccepted", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Add(types.Student{ID: "young", Name: "Y", Age: 1, Grade: "K"}))
		require.NoError(t, s.Add(types.Student{ID: "old", Name: "O", Age: 100, Grade: "K"}))
	})

	t.Run("GetMissing", func(t *testing.T) {
		s := newStore(t)

		_, err := s.Get("nope")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		_, err = s.Search("nope")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("ListKeepsInsertionOrder", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Add(carol))
		require.NoError(t, s.Add(alice))
		require.NoError(t, s.Add(bob))

		list, err := s.List()
		require.NoError(t, err)
		assert.Equal(t, []types.Student{carol, alice, bob}, list)
	})

	t.Run("UpdateKeepsPosition", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Add(alice))
		require.NoError(t, s.Add(bob))
		require.NoError(t, s.Add(carol))

		changed := types.Student{ID: "S2", Name: "Robert", Age: 30, Grade: "A+"}
		require.NoError(t, s.Update(changed))

		list, err := s.List()
		require.NoError(t, err)
		assert.Equal(t, []types.Student{alice, changed, carol}, list)
	})

	t.Run("UpdateMissing", func(t *testing.T) {
		s := newStore(t)

		err := s.Update(types.Student{ID: "S9", Name: "X", Age: 20, Grade: "A"})
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("UpdateRejectsInvalidFields", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Add(alice))

		err := s.Update(types.Student{ID: "S1", Name: "", Age: 20, Grade: "A"})
		assert.ErrorIs(t, err, storage.ErrMissingField)

		err = s.Update(types.Student{ID: "S1", Name: "Alice", Age: 200, Grade: "A"})
		assert.ErrorIs(t, err, storage.ErrInvalidAge)

		got, err := s.Get("S1")
		require.NoError(t, err)
		assert.Equal(t, alice, got)
	})

	t.Run("DeleteThenGet", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Add(alice))
		require.NoError(t, s.Add(bob))
		require.NoError(t, s.Delete("S1"))

		_, err := s.Get("S1")
		assert.ErrorIs(t, err, storage.ErrNotFound)

		list, err := s.List()
		require.NoError(t, err)
		assert.Equal(t, []types.Student{bob}, list)
	})

	t.Run("DeleteMissing", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Add(alice))

		assert.ErrorIs(t, s.Delete("S9"), storage.ErrNotFound)

		n, err := s.Count()
		require.NoError(t, err)
		assert.Equal(t, 1, n)
	})

	t.Run("ReAddAfterDeleteAppends", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Add(alice))
		require.NoError(t, s.Add(bob))
		require.NoError(t, s.Delete("S1"))
		require.NoError(t, s.Add(alice))

		list, err := s.List()
		require.NoError(t, err)
		assert.Equal(t, []types.Student{bob, alice}, list)
	})

	t.Run("CountTracksAddsMinusDeletes", func(t *testing.T) {
		s := newStore(t)
		adds, deletes := 0, 0
		for _, st := range []types.Student{alice, bob, carol, alice} {
			if s.Add(st) == nil {
				adds++
			}
		}
		for _, id := range []string{"S2", "S2", "S9"} {
			if s.Delete(id) == nil {
				deletes++
			}
		}

		list, err := s.List()
		require.NoError(t, err)
		assert.Len(t, list, adds-deletes)

		n, err := s.Count()
		require.NoError(t, err)
		assert.Equal(t, adds-deletes, n)
	})

	t.Run("UpsertMany", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Add(alice))
		require.NoError(t, s.Add(bob))

		newAlice := types.Student{ID: "S1", Name: "Alicia", Age: 23, Grade: "B"}
		added, updated, err := s.UpsertMany([]types.Student{carol, newAlice})
		require.NoError(t, err)
		assert.Equal(t, 1, added)
		assert.Equal(t, 1, updated)

		list, err := s.List()
		require.NoError(t, err)
		assert.Equal(t, []types.Student{newAlice, bob, carol}, list)
	})

	t.Run("UpsertManyIsAllOrNothing", func(t *testing.T) {
		s := newStore(t)
		require.NoError(t, s.Add(alice))

		bad := types.Student{ID: "S4", Name: "Dan", Age: 0, Grade: "D"}
		_, _, err := s.UpsertMany([]types.Student{bob, bad})
		assert.ErrorIs(t, err, storage.ErrInvalidAge)

		list, err := s.List()
		require.NoError(t, err)
		assert.Equal(t, []types.Student{alice}, list)
	})
}
