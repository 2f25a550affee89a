// Package student contains the HTTP handlers for the Student resource.
//
// Each route maps to exactly one store operation. Handlers are factories:
// they receive their dependencies once at startup and return the
// http.HandlerFunc the router calls on every request.
//
//	r.Post("/api/students", student.New(store))
package student

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/aanand-mishra/student-registry/internal/csvio"
	"github.com/aanand-mishra/student-registry/internal/storage"
	"github.com/aanand-mishra/student-registry/internal/types"
	"github.com/aanand-mishra/student-registry/internal/utils/response"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
)

var validate = storage.NewValidator()

// pathID returns the student id captured by the trailing wildcard of
// /api/students/*, so ids containing "/" stay addressable. chi matches on
// the escaped path whenever one exists, in which case the capture is still
// percent-encoded.
func pathID(r *http.Request) string {
	id := chi.URLParam(r, "*")
	if r.URL.RawPath == "" {
		return id
	}
	if unescaped, err := url.PathUnescape(id); err == nil {
		return unescaped
	}
	return id
}

// decode reads a JSON body into v and checks its validate tags. It writes
// the 400 response itself and reports whether the handler may continue.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		response.WriteJSON(w, http.StatusBadRequest,
			response.GeneralError(errors.New("request body is empty")))
		return false
	}
	if err != nil {
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		return false
	}

	if err := validate.Struct(v); err != nil {
		var validateErrs validator.ValidationErrors
		if errors.As(err, &validateErrs) {
			response.WriteJSON(w, http.StatusBadRequest,
				response.ValidationError(validateErrs))
			return false
		}
		response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
		return false
	}
	return true
}

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /api/students
//
// Request body:
//
//	{ "id": "S1", "name": "Alice", "age": 20, "grade": "A" }
//
// 201 Created with the stored record; 400 on bad input, 409 on a
// duplicate id.
// ─────────────────────────────────────────────────────────────────────────────
func New(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("creating a student")

		var student types.Student
		if !decode(w, r, &student) {
			return
		}

		if err := store.Add(student); err != nil {
			slog.Error("error creating student",
				slog.String("id", student.ID),
				slog.String("error", err.Error()))
			response.WriteError(w, err)
			return
		}

		slog.Info("student created", slog.String("id", student.ID))
		response.WriteJSON(w, http.StatusCreated, student)
	}
}

// GetByID handles GET /api/students/{id}. The id may contain "/".
func GetByID(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := pathID(r)
		slog.Info("getting a student", slog.String("id", id))

		student, err := store.Get(id)
		if err != nil {
			slog.Error("error getting student",
				slog.String("id", id),
				slog.String("error", err.Error()))
			response.WriteError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, student)
	}
}

// Search handles GET /api/students/search?id=...
func Search(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.URL.Query().Get("id"))
		slog.Info("searching for a student", slog.String("id", id))

		if id == "" {
			response.WriteError(w,
				storage.NewError("Search", "", storage.ErrMissingField))
			return
		}

		student, err := store.Search(id)
		if err != nil {
			response.WriteError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, student)
	}
}

// GetList handles GET /api/students
//
// Returns the records in insertion order; [] (not null) when empty.
func GetList(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting all students")

		students, err := store.List()
		if err != nil {
			slog.Error("error getting students", slog.String("error", err.Error()))
			response.WriteError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, students)
	}
}

// Count handles GET /api/students/count
func Count(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		n, err := store.Count()
		if err != nil {
			response.WriteError(w, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, map[string]int{"count": n})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PUT /api/students/{id}
// Replaces name, age and grade. The id in the URL is the record's key and
// cannot be changed.
//
//	{ "name": "Alice B", "age": 21, "grade": "A+" }
//
// ─────────────────────────────────────────────────────────────────────────────
func Update(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := pathID(r)
		slog.Info("updating a student", slog.String("id", id))

		// A missing record is reported before any problem with the body.
		if _, err := store.Get(id); err != nil {
			response.WriteError(w, err)
			return
		}

		var fields types.StudentFields
		if !decode(w, r, &fields) {
			return
		}

		student := types.Student{
			ID:    id,
			Name:  fields.Name,
			Age:   fields.Age,
			Grade: fields.Grade,
		}
		if err := store.Update(student); err != nil {
			slog.Error("error updating student",
				slog.String("id", id),
				slog.String("error", err.Error()))
			response.WriteError(w, err)
			return
		}

		slog.Info("student updated", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, student)
	}
}

// Delete handles DELETE /api/students/{id}
func Delete(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := pathID(r)
		slog.Info("deleting a student", slog.String("id", id))

		if err := store.Delete(id); err != nil {
			slog.Error("error deleting student",
				slog.String("id", id),
				slog.String("error", err.Error()))
			response.WriteError(w, err)
			return
		}

		slog.Info("student deleted", slog.String("id", id))
		response.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}

// Export handles GET /api/students/export
//
// Streams the whole store as students.csv. An empty store yields a file
// holding only the header.
func Export(store storage.Storage) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("exporting students")

		blob, err := csvio.Export(store)
		if err != nil {
			slog.Error("error exporting students", slog.String("error", err.Error()))
			response.WriteError(w, err)
			return
		}

		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="students.csv"`)
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, blob)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Import handles POST /api/students/import
//
// The CSV is either the raw request body or the "file" field of a
// multipart form. Success returns the ImportSummary:
//
//	{ "batch_id": "…", "added": 2, "updated": 1, "failed": 0 }
//
// With the default abort policy a bad row fails the request with 400 and
// nothing is imported.
// ─────────────────────────────────────────────────────────────────────────────
func Import(store storage.Storage, opts csvio.Options, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

		var src io.Reader = r.Body
		if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			file, _, err := r.FormFile("file")
			if err != nil {
				response.WriteJSON(w, http.StatusBadRequest, response.GeneralError(err))
				return
			}
			defer file.Close()
			src = file
		}

		summary, err := csvio.Import(store, src, opts)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				response.WriteJSON(w, http.StatusRequestEntityTooLarge, response.GeneralError(err))
				return
			}
			slog.Error("error importing students",
				slog.String("batch_id", summary.BatchID),
				slog.String("error", err.Error()))
			response.WriteError(w, err)
			return
		}

		slog.Info("students imported",
			slog.String("batch_id", summary.BatchID),
			slog.Int("added", summary.Added),
			slog.Int("updated", summary.Updated),
			slog.Int("failed", summary.Failed))
		response.WriteJSON(w, http.StatusOK, summary)
	}
}
