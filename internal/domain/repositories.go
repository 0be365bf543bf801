package domain

import "context"

// RemoteStore provides network access to the authoritative catalog.
// Any non-nil error means the remote did not confirm the operation.
type RemoteStore interface {
	// List returns every book held remotely
	List(ctx context.Context) ([]Book, error)

	// Get returns one book, or ErrNotFound
	Get(ctx context.Context, id string) (Book, error)

	// CreateOrUpdate replaces the book by ID; an empty ID creates it.
	// Returns the stored book (with its remote ID).
	CreateOrUpdate(ctx context.Context, book Book) (Book, error)

	// Delete removes the book by ID
	Delete(ctx context.Context, id string) error
}
