package tui

import (
	"strings"

	"github.com/mmcdole/shelf/internal/domain"
	"github.com/sahilm/fuzzy"
)

// bookSource implements fuzzy.Source over "title author" strings
type bookSource []string

func (s bookSource) String(i int) string { return s[i] }
func (s bookSource) Len() int            { return len(s) }

// filterBooks returns the indexes of books matching query, best first.
// An empty query yields nil, meaning no filter.
func filterBooks(query string, books []domain.Book) []int {
	if query == "" {
		return nil
	}

	src := make(bookSource, len(books))
	for i, b := range books {
		src[i] = strings.ToLower(b.Title + " " + b.Author)
	}

	matches := fuzzy.FindFrom(strings.ToLower(query), src)
	idx := make([]int, len(matches))
	for i, match := range matches {
		idx[i] = match.Index
	}
	return idx
}
