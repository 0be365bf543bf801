package domain

// ReadCache is the durable local mirror of the remote catalog.
// It is the source of truth for display while offline.
type ReadCache interface {
	GetAll() []Book
	Get(id string) (Book, bool)
	Put(book Book) error
	Delete(id string) error
	Clear() error
	BulkPut(books []Book) error

	// Replace swaps the whole contents (Clear + BulkPut) in one step.
	// Readers never observe the intermediate empty state.
	Replace(books []Book) error
}

// PendingLog is the durable, id-keyed queue of work owed to the remote store.
type PendingLog interface {
	GetAll() []PendingMutation
	Get(id string) (PendingMutation, bool)
	Put(m PendingMutation) error // upsert by ID
	Delete(id string) error
}
