package domain

// Connectivity reports whether the remote store is reachable.
// Online is queried synchronously; Subscribe delivers transitions only.
type Connectivity interface {
	Online() bool

	// Subscribe returns a channel receiving the new state on every
	// online/offline transition, and a func that ends the subscription.
	Subscribe() (<-chan bool, func())
}
