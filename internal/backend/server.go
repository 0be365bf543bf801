// Package backend is a reference implementation of the remote catalog API,
// used for local development (cmd/shelfd) and integration tests.
package backend

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mmcdole/shelf/internal/domain"
)

// record is the wire shape of a book. A null _id on save means create.
type record struct {
	ID      *string `json:"_id"`
	Title   string  `json:"title"`
	ISBN    string  `json:"isbn"`
	Author  string  `json:"author"`
	Price   float64 `json:"price"`
	Picture string  `json:"picture"`
}

func toRecord(b domain.Book) record {
	id := b.ID
	return record{
		ID:      &id,
		Title:   b.Title,
		ISBN:    b.ISBN,
		Author:  b.Author,
		Price:   b.Price,
		Picture: b.PictureURL,
	}
}

func (r record) book() domain.Book {
	b := domain.Book{
		Title:      r.Title,
		ISBN:       r.ISBN,
		Author:     r.Author,
		Price:      r.Price,
		PictureURL: r.Picture,
	}
	if r.ID != nil {
		b.ID = *r.ID
	}
	return b
}

// Server serves the catalog API from a MemoryStore.
type Server struct {
	store  *MemoryStore
	logger *slog.Logger
}

// NewServer creates a Server.
func NewServer(store *MemoryStore, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{store: store, logger: logger}
}

// Router returns the HTTP routes
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.loggingMiddleware)

	r.Get("/api/health", s.health)
	r.Route("/api/books", func(r chi.Router) {
		r.Get("/", s.list)
		r.Post("/", s.save)
		r.Get("/{id}", s.get)
		r.Delete("/{id}", s.delete)
	})
	return r
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		s.logger.Debug("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
}

func (s *Server) list(w http.ResponseWriter, _ *http.Request) {
	books := s.store.List()
	out := make([]record, 0, len(books))
	for _, b := range books {
		out = append(out, toRecord(b))
	}
	writeJSON(w, out, http.StatusOK)
}

// get answers with an array, empty when the book does not exist
func (s *Server) get(w http.ResponseWriter, r *http.Request) {
	out := []record{}
	if b, ok := s.store.Get(chi.URLParam(r, "id")); ok {
		out = append(out, toRecord(b))
	}
	writeJSON(w, out, http.StatusOK)
}

func (s *Server) save(w http.ResponseWriter, r *http.Request) {
	var in record
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := domain.Validate(in.book()); err != nil {
		writeError(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	saved := s.store.Upsert(in.book())
	s.logger.Info("saved book", "id", saved.ID)
	writeJSON(w, toRecord(saved), http.StatusOK)
}

// delete is idempotent so replayed deletes succeed
func (s *Server) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.store.Delete(id)
	s.logger.Info("deleted book", "id", id)
	writeJSON(w, map[string]string{"_id": id}, http.StatusOK)
}

func writeJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
	}
}

func writeError(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, map[string]string{"error": message}, statusCode)
}
