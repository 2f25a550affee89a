// Package csvio converts the student store to and from comma-separated
// text.
//
// FILE FORMAT:
//
//	ID,name,age,grade
//	S1,Alice,20,A
//	S2,"Smith, Bob",21,B
//
// The header is case-sensitive. Columns are matched by name, so their
// order may vary and extra columns are ignored. Quoting follows RFC 4180
// (encoding/csv).
package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aanand-mishra/student-registry/internal/storage"
	"github.com/aanand-mishra/student-registry/internal/types"
	"github.com/google/uuid"
)

// Header is the column row written by Export and required by Import.
var Header = []string{"ID", "name", "age", "grade"}

const bom = "\uFEFF"

// Options tunes Import.
type Options struct {
	// SkipInvalid makes Import skip rows that fail validation, counting
	// them in ImportSummary.Failed. By default the first bad row aborts the
	// import and the store is left untouched.
	SkipInvalid bool
}

// Export renders every record in insertion order. An empty store yields
// the header line alone. The output has no trailing newline.
func Export(store storage.Storage) (string, error) {
	students, err := store.List()
	if err != nil {
		return "", fmt.Errorf("Export: list: %w", err)
	}

	var b strings.Builder
	if err := Write(&b, students); err != nil {
		return "", err
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}

// Write encodes the header and one row per student to w.
func Write(w io.Writer, students []types.Student) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("Export: write header: %w", err)
	}
	for _, s := range students {
		row := []string{s.ID, s.Name, strconv.Itoa(s.Age), s.Grade}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("Export: write row %q: %w", s.ID, err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("Export: flush: %w", err)
	}
	return nil
}

// Import parses r and upserts its rows into store: known ids are
// overwritten in place, new ids are appended in file order.
//
// The whole input is parsed and validated before the store is touched,
// so a failed import changes nothing. With opts.SkipInvalid, rows that
// fail validation are left out and reported instead; a broken header or
// unparseable CSV still fails the import.
func Import(store storage.Storage, r io.Reader, opts Options) (types.ImportSummary, error) {
	summary := types.ImportSummary{BatchID: uuid.NewString()}

	students, rowErrs, err := Parse(r, opts)
	if err != nil {
		return summary, err
	}

	for _, e := range rowErrs {
		summary.Failed++
		summary.Failures = append(summary.Failures, e.Error())
	}

	added, updated, err := store.UpsertMany(students)
	if err != nil {
		return summary, err
	}
	summary.Added = added
	summary.Updated = updated

	return summary, nil
}

// Parse decodes r into records. In the default policy the first bad row
// is returned as err. With opts.SkipInvalid bad rows are collected in
// rowErrs and parsing continues.
func Parse(r io.Reader, opts Options) (students []types.Student, rowErrs []error, err error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, &storage.Error{
			Op: "Import", Kind: storage.ErrMalformedInput, Err: errors.New("input is empty"),
		}
	}
	if err != nil {
		return nil, nil, malformed(err)
	}

	cols, err := columns(header)
	if err != nil {
		return nil, nil, err
	}

	students = make([]types.Student, 0)
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			// A wrong field count is confined to its row; any other
			// parse error leaves the reader unsynchronised.
			if !errors.Is(err, csv.ErrFieldCount) || !opts.SkipInvalid {
				return nil, nil, malformed(err)
			}
			rowErrs = append(rowErrs, malformed(err))
			continue
		}

		line, _ := cr.FieldPos(0)
		student, err := decodeRow(record, cols, line)
		if err != nil {
			if !opts.SkipInvalid {
				return nil, nil, err
			}
			rowErrs = append(rowErrs, err)
			continue
		}
		students = append(students, student)
	}

	return students, rowErrs, nil
}

// columnIndex maps each required column to its position in the file.
type columnIndex struct {
	id, name, age, grade int
}

func columns(header []string) (columnIndex, error) {
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], bom)
	}

	pos := make(map[string]int, len(header))
	for i, h := range header {
		if _, seen := pos[h]; !seen {
			pos[h] = i
		}
	}

	for _, want := range Header {
		if _, ok := pos[want]; !ok {
			return columnIndex{}, &storage.Error{
				Op:   "Import",
				Line: 1,
				Kind: storage.ErrMalformedInput,
				Err:  fmt.Errorf("header is missing column %q", want),
			}
		}
	}

	return columnIndex{
		id:    pos["ID"],
		name:  pos["name"],
		age:   pos["age"],
		grade: pos["grade"],
	}, nil
}

func decodeRow(record []string, cols columnIndex, line int) (types.Student, error) {
	id := record[cols.id]

	raw := strings.TrimSpace(record[cols.age])
	age, err := strconv.Atoi(raw)
	if err != nil {
		return types.Student{}, &storage.Error{
			Op:   "Import",
			Line: line,
			ID:   id,
			Kind: storage.ErrInvalidAge,
			Err:  fmt.Errorf("%q is not a number", raw),
		}
	}

	student := types.Student{
		ID:    id,
		Name:  record[cols.name],
		Age:   age,
		Grade: record[cols.grade],
	}

	if err := storage.Validate("Import", student); err != nil {
		var se *storage.Error
		if errors.As(err, &se) {
			se.Line = line
		}
		return types.Student{}, err
	}

	return student, nil
}

func malformed(err error) error {
	e := &storage.Error{Op: "Import", Kind: storage.ErrMalformedInput, Err: err}

	var pe *csv.ParseError
	if errors.As(err, &pe) {
		e.Line = pe.Line
		e.Err = pe.Err
	}
	return e
}
