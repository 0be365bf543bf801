package domain

import "fmt"

// LifecycleState tags a pending mutation with the remote operation it still owes.
type LifecycleState string

const (
	StateCreated LifecycleState = "CREATED" // No remote counterpart yet
	StateUpdated LifecycleState = "UPDATED" // Remote counterpart exists, local copy is newer
	StateDeleted LifecycleState = "DELETED" // Remote counterpart must be removed
)

// Valid reports whether s is one of the known lifecycle states.
func (s LifecycleState) Valid() bool {
	switch s {
	case StateCreated, StateUpdated, StateDeleted:
		return true
	}
	return false
}

// Book is a catalog record. Identity is ID; last write wins.
type Book struct {
	ID         string  `json:"id"`
	Title      string  `json:"title" validate:"notblank"`
	ISBN       string  `json:"isbn" validate:"notblank"`
	Author     string  `json:"author" validate:"notblank"`
	Price      float64 `json:"price" validate:"gt=0"`
	PictureURL string  `json:"pictureUrl" validate:"httpurl"`
}

// IsNew returns true if the book has never been assigned an id
func (b Book) IsNew() bool {
	return b.ID == ""
}

// FormattedPrice returns the price with two decimals
func (b Book) FormattedPrice() string {
	return fmt.Sprintf("%.2f", b.Price)
}

// PendingMutation is a not-yet-synced write. The log holds at most one per ID.
type PendingMutation struct {
	ID      string         `json:"id"`
	Payload Book           `json:"payload"`
	State   LifecycleState `json:"state"`
}

// DrainResult summarizes one pass over the pending mutation log.
type DrainResult struct {
	Synced int // entries confirmed by the remote store and removed
	Failed int // entries left queued for the next drain
}

// Any returns true if at least one entry was synced.
func (r DrainResult) Any() bool {
	return r.Synced > 0
}
