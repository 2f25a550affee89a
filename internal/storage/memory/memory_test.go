package memory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/aanand-mishra/student-registry/internal/storage"
	"github.com/aanand-mishra/student-registry/internal/storage/storagetest"
	"github.com/aanand-mishra/student-registry/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContract(t *testing.T) {
	storagetest.Run(t, func(t *testing.T) storage.Storage { return New() })
}

func TestListReturnsCopy(t *testing.T) {
	m := New()
	require.NoError(t, m.Add(types.Student{ID: "S1", Name: "Alice", Age: 20, Grade: "A"}))

	list, err := m.List()
	require.NoError(t, err)
	list[0].Name = "Mallory"

	got, err := m.Get("S1")
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)
}

// The map and the order slice must agree after any mix of operations.
func TestStructuresStayInLockstep(t *testing.T) {
	m := New()
	for i := 0; i < 10; i++ {
		require.NoError(t, m.Add(types.Student{ID: fmt.Sprintf("S%d", i), Name: "N", Age: 20, Grade: "A"}))
	}
	for _, id := range []string{"S0", "S5", "S9", "S5"} {
		_ = m.Delete(id)
	}
	_, _, err := m.UpsertMany([]types.Student{
		{ID: "S5", Name: "Back", Age: 30, Grade: "B"},
		{ID: "S1", Name: "Moved?", Age: 31, Grade: "B"},
	})
	require.NoError(t, err)

	assert.Len(t, m.order, len(m.records))
	seen := make(map[string]bool)
	for _, id := range m.order {
		assert.False(t, seen[id], "id %s appears twice", id)
		seen[id] = true
		_, ok := m.records[id]
		assert.True(t, ok, "id %s missing from map", id)
	}
	assert.Equal(t, []string{"S1", "S2", "S3", "S4", "S6", "S7", "S8", "S5"}, m.order)
}

func TestSessionsAreIndependent(t *testing.T) {
	a, b := New(), New()
	require.NoError(t, a.Add(types.Student{ID: "S1", Name: "Alice", Age: 20, Grade: "A"}))

	_, err := b.Get("S1")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestConcurrentAdds(t *testing.T) {
	m := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = m.Add(types.Student{ID: fmt.Sprintf("S%d", i%25), Name: "N", Age: 20, Grade: "A"})
		}(i)
	}
	wg.Wait()

	n, err := m.Count()
	require.NoError(t, err)
	assert.Equal(t, 25, n)
	assert.Len(t, m.order, 25)
}
