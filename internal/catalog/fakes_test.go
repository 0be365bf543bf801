package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/mmcdole/shelf/internal/connectivity"
	"github.com/mmcdole/shelf/internal/domain"
	"github.com/mmcdole/shelf/internal/store"
)

var errUnavailable = errors.New("service unavailable")

// fakeRemote is an in-memory domain.RemoteStore with failure injection.
type fakeRemote struct {
	mu    sync.Mutex
	books map[string]domain.Book
	fail  map[string]bool // op name -> fail
	next  int

	saves    []domain.Book // every CreateOrUpdate payload, in call order
	deletes  []string
	lists    int
	delay    time.Duration
	inFlight atomic.Int32
	maxSeen  atomic.Int32

	// statusOnly answers saves like a server that returns no body
	statusOnly bool
	// afterList runs once List has taken its snapshot
	afterList func()
}

func newFakeRemote(seed ...domain.Book) *fakeRemote {
	r := &fakeRemote{books: make(map[string]domain.Book), fail: make(map[string]bool)}
	for _, b := range seed {
		r.books[b.ID] = b
	}
	return r
}

func (r *fakeRemote) setFail(op string, fail bool) {
	r.mu.Lock()
	r.fail[op] = fail
	r.mu.Unlock()
}

func (r *fakeRemote) enter() func() {
	n := r.inFlight.Add(1)
	for {
		seen := r.maxSeen.Load()
		if n <= seen || r.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	return func() { r.inFlight.Add(-1) }
}

func (r *fakeRemote) List(context.Context) ([]domain.Book, error) {
	r.mu.Lock()
	r.lists++
	if r.fail["list"] {
		r.mu.Unlock()
		return nil, errUnavailable
	}
	out := make([]domain.Book, 0, len(r.books))
	for _, b := range r.books {
		out = append(out, b)
	}
	hook := r.afterList
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if hook != nil {
		hook()
	}
	return out, nil
}

func (r *fakeRemote) Get(_ context.Context, id string) (domain.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail["get"] {
		return domain.Book{}, errUnavailable
	}
	b, ok := r.books[id]
	if !ok {
		return domain.Book{}, domain.ErrNotFound
	}
	return b, nil
}

func (r *fakeRemote) CreateOrUpdate(_ context.Context, b domain.Book) (domain.Book, error) {
	defer r.enter()()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.saves = append(r.saves, b)
	if r.fail["save"] {
		return domain.Book{}, errUnavailable
	}
	sent := b
	if b.ID == "" {
		r.next++
		b.ID = fmt.Sprintf("remote-%d", r.next)
	}
	r.books[b.ID] = b
	if r.statusOnly {
		return sent, nil
	}
	return b, nil
}

func (r *fakeRemote) Delete(_ context.Context, id string) error {
	defer r.enter()()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.deletes = append(r.deletes, id)
	if r.fail["delete"] {
		return errUnavailable
	}
	delete(r.books, id)
	return nil
}

func (r *fakeRemote) saveCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saves)
}

func (r *fakeRemote) deleteCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.deletes)
}

func (r *fakeRemote) lastSave() domain.Book {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves[len(r.saves)-1]
}

func (r *fakeRemote) has(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.books[id]
	return ok
}

// watchedConn signals once the coordinator has subscribed.
type watchedConn struct {
	*connectivity.Manual
	subscribed chan struct{}
	once       sync.Once
}

func newWatchedConn(online bool) *watchedConn {
	return &watchedConn{Manual: connectivity.NewManual(online), subscribed: make(chan struct{})}
}

func (w *watchedConn) Subscribe() (<-chan bool, func()) {
	ch, cancel := w.Manual.Subscribe()
	w.once.Do(func() { close(w.subscribed) })
	return ch, cancel
}

type harness struct {
	remote *fakeRemote
	conn   *watchedConn
	db     *store.DB
	coord  *Coordinator
	notes  <-chan Notification
}

func newHarness(online bool, opts ...Option) *harness {
	return newHarnessWithRemote(newFakeRemote(), online, opts...)
}

func newHarnessWithRemote(remote *fakeRemote, online bool, opts ...Option) *harness {
	db, err := store.Open("", "", nil)
	if err != nil {
		panic(err)
	}
	conn := newWatchedConn(online)
	c := New(remote, db.ReadCache(), db.PendingLog(), conn, nil, opts...)
	notes, _ := c.Notifications()
	return &harness{remote: remote, conn: conn, db: db, coord: c, notes: notes}
}

func (h *harness) pending(id string) (domain.PendingMutation, bool) {
	return h.db.PendingLog().Get(id)
}

func (h *harness) cached(id string) (domain.Book, bool) {
	return h.db.ReadCache().Get(id)
}

// waitFor reads notifications until one with msg arrives.
func (h *harness) waitFor(msg string, timeout time.Duration) bool {
	deadline := time.After(timeout)
	for {
		select {
		case n := <-h.notes:
			if n.Message == msg {
				return true
			}
		case <-deadline:
			return false
		}
	}
}

func book(id, title string) domain.Book {
	return domain.Book{
		ID:         id,
		Title:      title,
		ISBN:       "978-" + title,
		Author:     "Author of " + title,
		Price:      10,
		PictureURL: "https://covers.example.com/" + id + ".jpg",
	}
}

// clearNotes discards buffered notifications.
func (h *harness) clearNotes() {
	for {
		select {
		case <-h.notes:
		default:
			return
		}
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

func (k *keyedMutex) refs(id string) int {
	k.mu.Lock()
	defer k.mu.Unlock()
	if l, ok := k.locks[id]; ok {
		return l.refs
	}
	return 0
}
