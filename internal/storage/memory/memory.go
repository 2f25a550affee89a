// Package memory provides the in-memory implementation of storage.Storage.
//
// A Go map has no iteration order, so the store keeps two structures in
// lockstep:
//
//	records map[id]Student   lookup by primary key
//	order   []id             insertion order, drives List and Export
//
// Every mutation updates both under one lock, so no caller can observe an
// id that is present in one structure but not the other.
package memory

import (
	"slices"
	"sync"

	"github.com/aanand-mishra/student-registry/internal/storage"
	"github.com/aanand-mishra/student-registry/internal/types"
)

// Memory is one session's student store. Create one per session with New;
// instances share nothing.
type Memory struct {
	mu      sync.RWMutex
	records map[string]types.Student
	order   []string
}

// New returns an empty store.
func New() *Memory {
	return &Memory{
		records: make(map[string]types.Student),
	}
}

func (m *Memory) Add(student types.Student) error {
	if err := storage.Validate("Add", student); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[student.ID]; ok {
		return storage.NewError("Add", student.ID, storage.ErrDuplicateID)
	}

	m.records[student.ID] = student
	m.order = append(m.order, student.ID)
	return nil
}

func (m *Memory) Get(id string) (types.Student, error) {
	return m.get("Get", id)
}

func (m *Memory) Search(id string) (types.Student, error) {
	return m.get("Search", id)
}

func (m *Memory) get(op, id string) (types.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	student, ok := m.records[id]
	if !ok {
		return types.Student{}, storage.NewError(op, id, storage.ErrNotFound)
	}
	return student, nil
}

// List builds a fresh slice on every call; callers may keep or modify it.
func (m *Memory) List() ([]types.Student, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	students := make([]types.Student, 0, len(m.order))
	for _, id := range m.order {
		students = append(students, m.records[id])
	}
	return students, nil
}

func (m *Memory) Count() (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.order), nil
}

func (m *Memory) Update(student types.Student) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// NotFound wins over validation errors: there is nothing to update.
	if _, ok := m.records[student.ID]; !ok {
		return storage.NewError("Update", student.ID, storage.ErrNotFound)
	}
	if err := storage.Validate("Update", student); err != nil {
		return err
	}

	m.records[student.ID] = student
	return nil
}

func (m *Memory) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.records[id]; !ok {
		return storage.NewError("Delete", id, storage.ErrNotFound)
	}

	delete(m.records, id)
	if i := slices.Index(m.order, id); i >= 0 {
		m.order = slices.Delete(m.order, i, i+1)
	}
	return nil
}

func (m *Memory) UpsertMany(students []types.Student) (added, updated int, err error) {
	for _, s := range students {
		if err := storage.Validate("Upsert", s); err != nil {
			return 0, 0, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, s := range students {
		if _, ok := m.records[s.ID]; ok {
			updated++
		} else {
			m.order = append(m.order, s.ID)
			added++
		}
		m.records[s.ID] = s
	}
	return added, updated, nil
}
