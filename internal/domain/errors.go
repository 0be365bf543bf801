package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for domain operations
var (
	// ErrNotFound indicates the requested book is absent from the consulted source
	ErrNotFound = errors.New("book not found")

	// ErrServerOffline indicates the remote store is unreachable
	ErrServerOffline = errors.New("remote store is unreachable")
)

// ValidationError reports bad user input. No mutation happens when it is returned.
type ValidationError struct {
	Field   string // Book field that failed, e.g. "Title"
	Rule    string // Violated rule: "notblank", "httpurl", "gt"
	Message string // User-facing message
}

func (e *ValidationError) Error() string {
	return e.Message
}

// RemoteError reports a failed direct call to the remote store.
type RemoteError struct {
	Op  string // "list", "get", "save", "delete"
	ID  string
	Err error
}

func (e *RemoteError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("remote %s %s: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("remote %s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// LocalStorageError reports a durable-store failure. The in-memory state
// already reflects the write; only persistence failed.
type LocalStorageError struct {
	Op  string
	Err error
}

func (e *LocalStorageError) Error() string {
	return fmt.Sprintf("local storage %s: %v", e.Op, e.Err)
}

func (e *LocalStorageError) Unwrap() error {
	return e.Err
}
