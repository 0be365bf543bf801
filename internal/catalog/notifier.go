package catalog

import "sync"

// NotificationKind classifies a user-facing message.
type NotificationKind int

const (
	KindInfo NotificationKind = iota
	KindSuccess
	KindWarning
	KindError
)

func (k NotificationKind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindWarning:
		return "warning"
	case KindError:
		return "error"
	default:
		return "info"
	}
}

// Notification is a message for whoever is presenting the catalog.
type Notification struct {
	Kind    NotificationKind
	Message string
}

// User-facing messages
const (
	MsgBackOnline       = "You are back online"
	MsgWorkingOffline   = "You are working offline"
	MsgUpdatesAvailable = "New updates available. Please refresh."
	MsgSaved            = "Operation successful!"
	MsgNotFound         = "The book does not exist"
)

const notificationBuffer = 16

// notifier fans notifications out to subscribers. A full subscriber
// channel drops the message.
type notifier struct {
	mu     sync.Mutex
	subs   map[int]chan Notification
	nextID int
}

func (n *notifier) subscribe() (<-chan Notification, func()) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.subs == nil {
		n.subs = make(map[int]chan Notification)
	}
	id := n.nextID
	n.nextID++
	ch := make(chan Notification, notificationBuffer)
	n.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs, id)
			n.mu.Unlock()
		})
	}
}

func (n *notifier) publish(kind NotificationKind, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	note := Notification{Kind: kind, Message: msg}
	for _, ch := range n.subs {
		select {
		case ch <- note:
		default:
		}
	}
}
