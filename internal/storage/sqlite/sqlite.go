// Package sqlite provides an SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// The default data source is ":memory:", a private database that lives as
// long as the process. The pool is capped at one connection because every
// new connection to ":memory:" would open a fresh, empty database.
//
// Insertion order comes from the seq column: an AUTOINCREMENT key that is
// assigned once on insert and never rewritten by UPDATE.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/aanand-mishra/student-registry/internal/config"
	"github.com/aanand-mishra/student-registry/internal/storage"
	"github.com/aanand-mishra/student-registry/internal/types"

	// Importing the driver registers "sqlite3" with database/sql; the
	// package is also used directly to inspect constraint errors.
	"github.com/mattn/go-sqlite3"
)

// SQLite is the database-backed storage.Storage.
type SQLite struct {
	Db *sql.DB
}

// New opens the database at cfg.Storage.Path and creates the students
// table if it does not already exist.
func New(cfg *config.Config) (*SQLite, error) {
	return Open(cfg.Storage.Path)
}

// Open is New without a config, handy for tests and the CLI.
func Open(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}
	db.SetMaxOpenConns(1)

	// Schema:
	//   seq   insertion order, never updated
	//   id    caller-chosen primary key
	//   age   the CHECK mirrors the validator rule
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS students (
			seq   INTEGER PRIMARY KEY AUTOINCREMENT,
			id    TEXT    NOT NULL UNIQUE,
			name  TEXT    NOT NULL,
			age   INTEGER NOT NULL CHECK (age BETWEEN 1 AND 100),
			grade TEXT    NOT NULL
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: create table: %w", err)
	}

	return &SQLite{Db: db}, nil
}

// Close releases the database. For ":memory:" this discards all records.
func (s *SQLite) Close() error {
	return s.Db.Close()
}

func (s *SQLite) Add(student types.Student) error {
	if err := storage.Validate("Add", student); err != nil {
		return err
	}

	_, err := s.Db.Exec(
		"INSERT INTO students (id, name, age, grade) VALUES (?, ?, ?, ?)",
		student.ID, student.Name, student.Age, student.Grade,
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return storage.NewError("Add", student.ID, storage.ErrDuplicateID)
		}
		return fmt.Errorf("Add: exec: %w", err)
	}
	return nil
}

func (s *SQLite) Get(id string) (types.Student, error) {
	return s.get("Get", id)
}

func (s *SQLite) Search(id string) (types.Student, error) {
	return s.get("Search", id)
}

func (s *SQLite) get(op, id string) (types.Student, error) {
	var student types.Student

	err := s.Db.QueryRow(
		"SELECT id, name, age, grade FROM students WHERE id = ? LIMIT 1", id,
	).Scan(&student.ID, &student.Name, &student.Age, &student.Grade)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Student{}, storage.NewError(op, id, storage.ErrNotFound)
		}
		return types.Student{}, fmt.Errorf("%s: scan: %w", op, err)
	}

	return student, nil
}

func (s *SQLite) List() ([]types.Student, error) {
	rows, err := s.Db.Query("SELECT id, name, age, grade FROM students ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("List: query: %w", err)
	}
	defer rows.Close()

	students := make([]types.Student, 0)
	for rows.Next() {
		var student types.Student
		if err := rows.Scan(&student.ID, &student.Name, &student.Age, &student.Grade); err != nil {
			return nil, fmt.Errorf("List: scan row: %w", err)
		}
		students = append(students, student)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("List: rows iteration: %w", err)
	}

	return students, nil
}

func (s *SQLite) Count() (int, error) {
	var n int
	if err := s.Db.QueryRow("SELECT COUNT(*) FROM students").Scan(&n); err != nil {
		return 0, fmt.Errorf("Count: scan: %w", err)
	}
	return n, nil
}

func (s *SQLite) Update(student types.Student) error {
	if _, err := s.get("Update", student.ID); err != nil {
		return err
	}
	if err := storage.Validate("Update", student); err != nil {
		return err
	}

	_, err := s.Db.Exec(
		"UPDATE students SET name = ?, age = ?, grade = ? WHERE id = ?",
		student.Name, student.Age, student.Grade, student.ID,
	)
	if err != nil {
		return fmt.Errorf("Update: exec: %w", err)
	}
	return nil
}

func (s *SQLite) Delete(id string) error {
	result, err := s.Db.Exec("DELETE FROM students WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("Delete: exec: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("Delete: rows affected: %w", err)
	}
	if n == 0 {
		return storage.NewError("Delete", id, storage.ErrNotFound)
	}
	return nil
}

// UpsertMany runs the whole batch in one transaction.
func (s *SQLite) UpsertMany(students []types.Student) (added, updated int, err error) {
	for _, st := range students {
		if err := storage.Validate("Upsert", st); err != nil {
			return 0, 0, err
		}
	}

	tx, err := s.Db.Begin()
	if err != nil {
		return 0, 0, fmt.Errorf("UpsertMany: begin: %w", err)
	}
	defer tx.Rollback() // no-op after Commit

	for _, st := range students {
		result, err := tx.Exec(
			"UPDATE students SET name = ?, age = ?, grade = ? WHERE id = ?",
			st.Name, st.Age, st.Grade, st.ID,
		)
		if err != nil {
			return 0, 0, fmt.Errorf("UpsertMany: update: %w", err)
		}
		n, err := result.RowsAffected()
		if err != nil {
			return 0, 0, fmt.Errorf("UpsertMany: rows affected: %w", err)
		}
		if n > 0 {
			updated++
			continue
		}

		_, err = tx.Exec(
			"INSERT INTO students (id, name, age, grade) VALUES (?, ?, ?, ?)",
			st.ID, st.Name, st.Age, st.Grade,
		)
		if err != nil {
			return 0, 0, fmt.Errorf("UpsertMany: insert: %w", err)
		}
		added++
	}

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("UpsertMany: commit: %w", err)
	}
	return added, updated, nil
}
