// Package catalog coordinates the book catalog between the remote store,
// the local read cache and the pending mutation log.
package catalog

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/mmcdole/shelf/internal/domain"
	"github.com/mmcdole/shelf/internal/search"
	"golang.org/x/sync/errgroup"
)

const defaultDrainConcurrency = 4

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithDrainConcurrency bounds how many remote calls a drain runs at once.
func WithDrainConcurrency(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.drainConcurrency = n
		}
	}
}

// WithSearch sets the search service used by Search.
func WithSearch(s *search.Service) Option {
	return func(c *Coordinator) {
		if s != nil {
			c.search = s
		}
	}
}

// Coordinator is the single entry point for catalog reads and writes.
// Online writes go straight to the remote store; offline writes are
// recorded in the pending log and replayed by DrainPendingMutations.
type Coordinator struct {
	remote  domain.RemoteStore
	cache   domain.ReadCache
	pending domain.PendingLog
	conn    domain.Connectivity
	search  *search.Service
	logger  *slog.Logger

	drainConcurrency int

	locks   keyedMutex
	drainMu sync.Mutex
	// refresh holds cacheMu for writing; cache writers hold it for reading
	cacheMu sync.RWMutex
	notes   notifier
	wg      sync.WaitGroup
}

// New creates a Coordinator.
func New(
	remote domain.RemoteStore,
	cache domain.ReadCache,
	pending domain.PendingLog,
	conn domain.Connectivity,
	logger *slog.Logger,
	opts ...Option,
) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Coordinator{
		remote:           remote,
		cache:            cache,
		pending:          pending,
		conn:             conn,
		logger:           logger,
		drainConcurrency: defaultDrainConcurrency,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.search == nil {
		c.search = search.NewService(logger)
	}
	return c
}

// Initialize starts a background drain and refresh when the remote is
// reachable. The cached view is available immediately either way.
func (c *Coordinator) Initialize(ctx context.Context) {
	c.logger.Info("catalog initialized",
		"cached", len(c.cache.GetAll()),
		"pending", len(c.pending.GetAll()),
		"online", c.conn.Online())

	if c.conn.Online() {
		c.syncInBackground(ctx)
	}
}

// Run reacts to connectivity transitions until ctx is cancelled.
func (c *Coordinator) Run(ctx context.Context) {
	ch, cancel := c.conn.Subscribe()
	c.watch(ctx, ch, cancel)
}

// Start subscribes to connectivity before returning and reacts to
// transitions in the background until ctx is cancelled.
func (c *Coordinator) Start(ctx context.Context) {
	ch, cancel := c.conn.Subscribe()
	go c.watch(ctx, ch, cancel)
}

func (c *Coordinator) watch(ctx context.Context, ch <-chan bool, cancel func()) {
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case online, ok := <-ch:
			if !ok {
				return
			}
			if online {
				c.logger.Info("connectivity restored")
				c.notes.publish(KindInfo, MsgBackOnline)
				c.syncInBackground(ctx)
			} else {
				c.logger.Info("connectivity lost")
				c.notes.publish(KindWarning, MsgWorkingOffline)
			}
		}
	}
}

// Online reports the current connectivity state.
func (c *Coordinator) Online() bool {
	return c.conn.Online()
}

// LoadOne returns a single book. Online it asks the remote store, except
// for books that exist only locally; offline it reads the cache.
func (c *Coordinator) LoadOne(ctx context.Context, id string) (domain.Book, error) {
	if c.conn.Online() && !c.localOnly(id) {
		b, err := c.remote.Get(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			c.notes.publish(KindWarning, MsgNotFound)
			return domain.Book{}, domain.ErrNotFound
		}
		if err != nil {
			c.logger.Error("failed to load book", "id", id, "error", err)
			return domain.Book{}, &domain.RemoteError{Op: "get", ID: id, Err: err}
		}
		return b, nil
	}

	b, ok := c.cache.Get(id)
	if !ok {
		c.notes.publish(KindWarning, MsgNotFound)
		return domain.Book{}, domain.ErrNotFound
	}
	return b, nil
}

func (c *Coordinator) localOnly(id string) bool {
	m, ok := c.pending.Get(id)
	return ok && m.State == domain.StateCreated
}

// Save validates and stores a book, returning it as stored. A book
// without an id is a create.
func (c *Coordinator) Save(ctx context.Context, b domain.Book) (domain.Book, error) {
	if err := domain.Validate(b); err != nil {
		c.notes.publish(KindError, err.Error())
		return domain.Book{}, err
	}

	if !b.IsNew() {
		unlock := c.locks.Lock(b.ID)
		defer unlock()
	}

	var (
		saved   domain.Book
		unkeyed bool
		err     error
	)
	c.cacheMu.RLock()
	if c.conn.Online() {
		saved, unkeyed, err = c.saveRemote(ctx, b)
	} else {
		saved = c.saveLocal(b)
	}
	c.cacheMu.RUnlock()
	if err != nil {
		c.notes.publish(KindError, err.Error())
		return domain.Book{}, err
	}
	if unkeyed {
		if err := c.RefreshFromRemote(ctx); err != nil {
			c.logger.Warn("refresh after save failed", "error", err)
		}
	}

	c.notes.publish(KindSuccess, MsgSaved)
	return saved, nil
}

// saveRemote sends b to the remote store. It reports unkeyed when the
// remote acknowledged a create without returning the assigned id; the
// book is then left for a refresh to pick up. Caller holds the id lock.
func (c *Coordinator) saveRemote(ctx context.Context, b domain.Book) (saved domain.Book, unkeyed bool, err error) {
	send := b
	localID := ""
	if c.localOnly(b.ID) {
		// The remote has never seen this id; it is still a create
		localID = b.ID
		send.ID = ""
	}

	saved, err = c.remote.CreateOrUpdate(ctx, send)
	if err != nil {
		c.logger.Error("failed to save book", "id", b.ID, "error", err)
		return domain.Book{}, false, &domain.RemoteError{Op: "save", ID: b.ID, Err: err}
	}
	if saved.ID == "" {
		saved.ID = send.ID
	}

	if !b.IsNew() {
		c.deletePending(b.ID)
	}
	if localID != "" && localID != saved.ID {
		c.deleteCached(localID)
	}
	if saved.ID == "" {
		c.logger.Info("saved book without assigned id", "title", saved.Title)
		return saved, true, nil
	}
	c.putCached(saved)
	c.logger.Info("saved book", "id", saved.ID)
	return saved, false, nil
}

// saveLocal records b in the pending log and the cache. Caller holds the
// id lock when b has an id.
func (c *Coordinator) saveLocal(b domain.Book) domain.Book {
	state := domain.StateCreated
	if b.IsNew() {
		b.ID = newLocalID()
	} else if prior, ok := c.pending.Get(b.ID); !ok || prior.State != domain.StateCreated {
		state = domain.StateUpdated
	}

	c.putPending(domain.PendingMutation{ID: b.ID, Payload: b, State: state})
	c.putCached(b)
	c.logger.Info("queued book", "id", b.ID, "state", state)
	return b
}

// Delete removes a book. The cache entry is removed even when the remote
// call fails.
func (c *Coordinator) Delete(ctx context.Context, id string) error {
	unlock := c.locks.Lock(id)
	defer unlock()
	c.cacheMu.RLock()
	defer c.cacheMu.RUnlock()

	prior, hasPrior := c.pending.Get(id)
	cached, inCache := c.cache.Get(id)

	// Never synced: cancel locally
	if hasPrior && prior.State == domain.StateCreated {
		c.deletePending(id)
		c.deleteCached(id)
		c.logger.Info("cancelled local create", "id", id)
		c.notes.publish(KindSuccess, MsgSaved)
		return nil
	}

	if c.conn.Online() {
		err := c.remote.Delete(ctx, id)
		c.deleteCached(id)
		if err != nil {
			c.logger.Error("failed to delete book", "id", id, "error", err)
			if hasPrior {
				// An owed update would resurrect the book; owe the delete instead
				c.putPending(domain.PendingMutation{ID: id, Payload: prior.Payload, State: domain.StateDeleted})
			}
			rerr := &domain.RemoteError{Op: "delete", ID: id, Err: err}
			c.notes.publish(KindError, rerr.Error())
			return rerr
		}
		if hasPrior {
			c.deletePending(id)
		}
		c.logger.Info("deleted book", "id", id)
		c.notes.publish(KindSuccess, MsgSaved)
		return nil
	}

	if !hasPrior && !inCache {
		c.notes.publish(KindWarning, MsgNotFound)
		return domain.ErrNotFound
	}

	payload := cached
	if hasPrior {
		payload = prior.Payload
	}
	c.putPending(domain.PendingMutation{ID: id, Payload: payload, State: domain.StateDeleted})
	c.deleteCached(id)
	c.logger.Info("queued delete", "id", id)
	c.notes.publish(KindSuccess, MsgSaved)
	return nil
}

// ListAll returns the cached catalog ordered by id.
func (c *Coordinator) ListAll() []domain.Book {
	return c.cache.GetAll()
}

// Pending returns the mutations not yet confirmed by the remote store.
func (c *Coordinator) Pending() []domain.PendingMutation {
	return c.pending.GetAll()
}

// Search fuzzy-matches the cached catalog by title and author.
func (c *Coordinator) Search(query string) []search.Result {
	return c.search.Filter(query, c.cache.GetAll())
}

// Notifications subscribes to user-facing messages. Call the returned
// func to unsubscribe.
func (c *Coordinator) Notifications() (<-chan Notification, func()) {
	return c.notes.subscribe()
}

// RefreshFromRemote replaces the cache with the remote catalog. Writes
// that race with it land either before the list or after the replace.
func (c *Coordinator) RefreshFromRemote(ctx context.Context) error {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()

	books, err := c.remote.List(ctx)
	if err != nil {
		c.logger.Error("failed to refresh catalog", "error", err)
		return &domain.RemoteError{Op: "list", Err: err}
	}
	if err := c.cache.Replace(books); err != nil {
		c.logger.Error("failed to persist catalog", "error", err)
	}
	c.logger.Debug("refreshed catalog", "count", len(books))
	return nil
}

type drainOutcome int

const (
	drainSkipped drainOutcome = iota
	drainSynced
	// synced, but the remote did not return the assigned id
	drainSyncedUnkeyed
	drainFailed
)

// DrainPendingMutations replays the pending log against the remote store.
// Entries are removed only on their own success; failures stay queued.
func (c *Coordinator) DrainPendingMutations(ctx context.Context) domain.DrainResult {
	c.drainMu.Lock()
	defer c.drainMu.Unlock()

	entries := c.pending.GetAll()
	if len(entries) == 0 {
		return domain.DrainResult{}
	}
	c.logger.Debug("draining pending mutations", "count", len(entries))

	var synced, failed, unkeyed atomic.Int64
	var g errgroup.Group
	g.SetLimit(c.drainConcurrency)
	for _, e := range entries {
		id := e.ID
		g.Go(func() error {
			switch c.drainOne(ctx, id) {
			case drainSynced:
				synced.Add(1)
			case drainSyncedUnkeyed:
				synced.Add(1)
				unkeyed.Add(1)
			case drainFailed:
				failed.Add(1)
			}
			return nil
		})
	}
	_ = g.Wait()

	result := domain.DrainResult{Synced: int(synced.Load()), Failed: int(failed.Load())}
	c.logger.Info("drained pending mutations", "synced", result.Synced, "failed", result.Failed)
	if unkeyed.Load() > 0 {
		if err := c.RefreshFromRemote(ctx); err != nil {
			c.logger.Warn("refresh after drain failed", "error", err)
		}
	}
	if result.Any() {
		c.notes.publish(KindInfo, MsgUpdatesAvailable)
	}
	return result
}

func (c *Coordinator) drainOne(ctx context.Context, id string) drainOutcome {
	unlock := c.locks.Lock(id)
	defer unlock()
	c.cacheMu.RLock()
	defer c.cacheMu.RUnlock()

	// Re-read: a write may have replaced or cancelled the entry
	m, ok := c.pending.Get(id)
	if !ok {
		return drainSkipped
	}

	switch m.State {
	case domain.StateCreated, domain.StateUpdated:
		send := m.Payload
		if m.State == domain.StateCreated {
			send.ID = ""
		}
		saved, err := c.remote.CreateOrUpdate(ctx, send)
		if err != nil {
			c.logger.Warn("failed to sync book", "id", id, "state", m.State, "error", err)
			return drainFailed
		}
		if saved.ID == "" {
			saved.ID = send.ID
		}
		c.deletePending(id)
		if saved.ID != id {
			c.deleteCached(id)
		}
		if saved.ID == "" {
			return drainSyncedUnkeyed
		}
		c.putCached(saved)

	case domain.StateDeleted:
		if err := c.remote.Delete(ctx, id); err != nil {
			c.logger.Warn("failed to sync delete", "id", id, "error", err)
			return drainFailed
		}
		c.deletePending(id)
		c.deleteCached(id)

	default:
		c.logger.Warn("unknown pending state", "id", id, "state", m.State)
		return drainFailed
	}
	return drainSynced
}

// Wait blocks until background syncs have finished.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// syncInBackground drains then refreshes without blocking the caller.
func (c *Coordinator) syncInBackground(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.DrainPendingMutations(ctx)
		if err := c.RefreshFromRemote(ctx); err != nil {
			c.logger.Warn("background refresh failed", "error", err)
		}
	}()
}

func (c *Coordinator) putCached(b domain.Book) {
	if b.ID == "" {
		c.logger.Warn("refusing to cache book without id", "title", b.Title)
		return
	}
	if err := c.cache.Put(b); err != nil {
		c.logger.Error("failed to cache book", "id", b.ID, "error", err)
	}
}

func (c *Coordinator) deleteCached(id string) {
	if err := c.cache.Delete(id); err != nil {
		c.logger.Error("failed to uncache book", "id", id, "error", err)
	}
}

func (c *Coordinator) putPending(m domain.PendingMutation) {
	if err := c.pending.Put(m); err != nil {
		c.logger.Error("failed to queue mutation", "id", m.ID, "error", err)
	}
}

func (c *Coordinator) deletePending(id string) {
	if err := c.pending.Delete(id); err != nil {
		c.logger.Error("failed to dequeue mutation", "id", id, "error", err)
	}
}

// newLocalID returns a time-based id for a book created offline.
func newLocalID() string {
	id, err := uuid.NewUUID()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
