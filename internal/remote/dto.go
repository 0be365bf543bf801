package remote

import "github.com/mmcdole/shelf/internal/domain"

// bookDTO is the wire shape used by the remote catalog API.
// A nil ID on a save request asks the server to create the book.
type bookDTO struct {
	ID      *string `json:"_id"`
	Title   string  `json:"title"`
	ISBN    string  `json:"isbn"`
	Author  string  `json:"author"`
	Price   float64 `json:"price"`
	Picture string  `json:"picture"`
}

// toDTO converts a domain book to its wire form
func toDTO(b domain.Book) bookDTO {
	dto := bookDTO{
		Title:   b.Title,
		ISBN:    b.ISBN,
		Author:  b.Author,
		Price:   b.Price,
		Picture: b.PictureURL,
	}
	if b.ID != "" {
		id := b.ID
		dto.ID = &id
	}
	return dto
}

// mapBook converts a wire book to a domain book
func mapBook(d bookDTO) domain.Book {
	b := domain.Book{
		Title:      d.Title,
		ISBN:       d.ISBN,
		Author:     d.Author,
		Price:      d.Price,
		PictureURL: d.Picture,
	}
	if d.ID != nil {
		b.ID = *d.ID
	}
	return b
}

// mapBooks converts wire books, dropping entries without an ID
func mapBooks(dtos []bookDTO) []domain.Book {
	books := make([]domain.Book, 0, len(dtos))
	for _, d := range dtos {
		if d.ID == nil || *d.ID == "" {
			continue
		}
		books = append(books, mapBook(d))
	}
	return books
}
