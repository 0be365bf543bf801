package tui

import (
	"github.com/mmcdole/shelf/internal/catalog"
	"github.com/mmcdole/shelf/internal/domain"
)

// Message types for the TUI

// ErrMsg represents a failed operation
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// NotificationMsg carries a coordinator notification
type NotificationMsg catalog.Notification

// SavedMsg signals that a book was saved
type SavedMsg struct {
	Book domain.Book
}

// DeletedMsg signals that a book was deleted
type DeletedMsg struct {
	ID string
}

// RefreshedMsg signals that the cache was reloaded from the server
type RefreshedMsg struct{}

// DrainedMsg signals that a pending-queue drain finished
type DrainedMsg struct {
	Result domain.DrainResult
}

// tickMsg refreshes the connectivity badge and clears stale toasts
type tickMsg struct{}
