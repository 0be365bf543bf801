package backend

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/mmcdole/shelf/internal/domain"
)

// MemoryStore is the reference server's book table.
type MemoryStore struct {
	mu    sync.RWMutex
	books map[string]domain.Book
}

// NewMemoryStore creates a store seeded with books.
func NewMemoryStore(seed ...domain.Book) *MemoryStore {
	s := &MemoryStore{books: make(map[string]domain.Book)}
	for _, b := range seed {
		if b.ID == "" {
			b.ID = uuid.NewString()
		}
		s.books[b.ID] = b
	}
	return s
}

// List returns all books ordered by ID
func (s *MemoryStore) List() []domain.Book {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Book, 0, len(s.books))
	for _, b := range s.books {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get returns a book by ID
func (s *MemoryStore) Get(id string) (domain.Book, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.books[id]
	return b, ok
}

// Upsert replaces the book by ID, assigning a new ID when it has none.
func (s *MemoryStore) Upsert(b domain.Book) domain.Book {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	s.mu.Lock()
	s.books[b.ID] = b
	s.mu.Unlock()
	return b
}

// Delete removes a book. Deleting a missing ID is a no-op.
func (s *MemoryStore) Delete(id string) {
	s.mu.Lock()
	delete(s.books, id)
	s.mu.Unlock()
}
