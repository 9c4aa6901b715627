// Package server exposes the HTTP surface: account registration and login,
// the admin approval workflow, document uploads feeding the ingestion
// pipeline, catalog search, and the chat endpoint backed by the retrieval
// query engine.
package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"campusmind/internal/embedding"
	"campusmind/internal/extract"
	"campusmind/internal/index"
	"campusmind/internal/ingest"
	"campusmind/internal/llm"
	"campusmind/internal/query"
	"campusmind/internal/storage/files"
	"campusmind/internal/storage/sqlite"
)

// Server wires the HTTP handlers to the application components.
type Server struct {
	catalog  *sqlite.Store
	files    *files.Store
	ingestor *ingest.Ingestor
	engine   *query.Engine
	log      *slog.Logger
	router   chi.Router
}

// New assembles the router. All collaborators are required except log.
func New(catalog *sqlite.Store, fileStore *files.Store, ingestor *ingest.Ingestor, engine *query.Engine, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		catalog:  catalog,
		files:    fileStore,
		ingestor: ingestor,
		engine:   engine,
		log:      log,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Post("/login", s.handleLogin)
	r.Post("/register_student", s.handleRegisterStudent)
	r.Post("/register_staff", s.handleRegisterStaff)

	r.Get("/admin/analytics", s.handleAnalytics)
	r.Get("/admin/pending_staff", s.handlePendingStaff)
	r.Post("/admin/approve_user", s.handleApproveUser)
	r.Post("/admin/upload_pyq", s.handleUploadPYQ)
	r.Post("/admin/upload_doc", s.handleUploadDoc)

	r.Get("/student/search_pyqs", s.handleSearchPYQs)
	r.Post("/chat", s.handleChat)

	r.Handle("/documents/*", http.StripPrefix("/documents/",
		http.FileServer(http.Dir(fileStore.Root()))))

	s.router = r
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.router }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// httpError mirrors the {"detail": ...} error shape of the API.
func httpError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// ingestStatus maps pipeline failures to HTTP status codes: caller errors to
// 400, lock contention to 503, upstream service failures to 502.
func ingestStatus(err error) int {
	switch {
	case errors.Is(err, extract.ErrUnsupportedFormat),
		errors.Is(err, extract.ErrEmptyDocument):
		return http.StatusBadRequest
	case errors.Is(err, index.ErrLockTimeout):
		return http.StatusServiceUnavailable
	case errors.Is(err, embedding.ErrService),
		errors.Is(err, llm.ErrGeneration):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
