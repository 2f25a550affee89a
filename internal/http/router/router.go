// Package router wires the student handlers to their routes.
//
// Route table:
//
//	POST   /api/students          → add a student
//	GET    /api/students          → list students in insertion order
//	GET    /api/students/count    → number of students
//	GET    /api/students/search   → look up ?id=
//	GET    /api/students/export   → download students.csv
//	POST   /api/students/import   → upload a CSV (upsert)
//	GET    /api/students/{id}     → get one student
//	PUT    /api/students/{id}     → replace name, age, grade
//	DELETE /api/students/{id}     → delete a student
package router

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aanand-mishra/student-registry/internal/config"
	"github.com/aanand-mishra/student-registry/internal/csvio"
	"github.com/aanand-mishra/student-registry/internal/http/handlers/student"
	"github.com/aanand-mishra/student-registry/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// New builds the HTTP handler for one store.
func New(store storage.Storage, cfg config.Import) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(logRequests)
	r.Use(middleware.Recoverer)

	r.Route("/api/students", func(r chi.Router) {
		r.Post("/", student.New(store))
		r.Get("/", student.GetList(store))
		r.Get("/count", student.Count(store))
		r.Get("/search", student.Search(store))
		r.Get("/export", student.Export(store))
		r.Post("/import", student.Import(store,
			csvio.Options{SkipInvalid: cfg.SkipInvalid}, cfg.MaxBytes))

		// Catch-all so ids containing "/" resolve; the static routes above
		// take precedence.
		r.Get("/*", student.GetByID(store))
		r.Put("/*", student.Update(store))
		r.Delete("/*", student.Delete(store))
	})

	return r
}

func logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		slog.Debug("request served",
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Duration("duration", time.Since(start)))
	})
}
