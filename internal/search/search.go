package search

import (
	"log/slog"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mmcdole/shelf/internal/domain"
)

// Result is a book that matched a query
type Result struct {
	Book  domain.Book
	Field string // "title" or "author", whichever matched best
	Score int    // Levenshtein distance of the best match (lower = better)
}

// Service handles fuzzy search over cached books
type Service struct {
	logger *slog.Logger
}

// NewService creates a new search service
func NewService(logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{logger: logger}
}

// Filter returns the books whose title or author fuzzily contains query,
// case and diacritics insensitive. Results are ordered by score, then title.
func (s *Service) Filter(query string, books []domain.Book) []Result {
	query = strings.TrimSpace(query)
	if query == "" || len(books) == 0 {
		return nil
	}

	titles := make([]string, len(books))
	authors := make([]string, len(books))
	for i, b := range books {
		titles[i] = b.Title
		authors[i] = b.Author
	}

	best := make(map[int]Result)
	collect := func(field string, ranks fuzzy.Ranks) {
		for _, r := range ranks {
			prev, seen := best[r.OriginalIndex]
			if seen && prev.Score <= r.Distance {
				continue
			}
			best[r.OriginalIndex] = Result{Book: books[r.OriginalIndex], Field: field, Score: r.Distance}
		}
	}
	collect("title", fuzzy.RankFindNormalizedFold(query, titles))
	collect("author", fuzzy.RankFindNormalizedFold(query, authors))

	results := make([]Result, 0, len(best))
	for _, r := range best {
		results = append(results, r)
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score < results[j].Score
		}
		if results[i].Book.Title != results[j].Book.Title {
			return results[i].Book.Title < results[j].Book.Title
		}
		return results[i].Book.ID < results[j].Book.ID
	})

	s.logger.Debug("filtered books", "query", query, "results", len(results), "total", len(books))
	return results
}

// Books extracts the books from results, preserving order
func Books(results []Result) []domain.Book {
	out := make([]domain.Book, len(results))
	for i, r := range results {
		out[i] = r.Book
	}
	return out
}
