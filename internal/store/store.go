package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mmcdole/shelf/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketCache   = []byte("cache")
	bucketPending = []byte("pending")
)

const dbFileName = "shelf.db"

// DB owns the bbolt file backing the read cache and the pending log.
// Each bucket is an independent table; neither writes to the other.
type DB struct {
	db      *bolt.DB
	cache   *ReadCache
	pending *PendingLog
}

// Open opens (or creates) the local database. An empty baseDir gives a
// memory-only database that does not survive restart.
func Open(baseDir, serverURL string, logger *slog.Logger) (*DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if baseDir == "" {
		return newDB(nil, logger)
	}

	dir := baseDir
	if serverURL != "" {
		dir = filepath.Join(baseDir, hashServerURL(serverURL))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, dbFileName)
	bdb, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = bdb.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketCache, bucketPending} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		bdb.Close()
		return nil, err
	}

	d, err := newDB(bdb, logger)
	if err != nil {
		bdb.Close()
		return nil, err
	}
	logger.Debug("opened local store", "path", dbPath,
		"cached", len(d.cache.GetAll()), "pending", len(d.pending.GetAll()))
	return d, nil
}

func newDB(bdb *bolt.DB, logger *slog.Logger) (*DB, error) {
	cache, err := newTable(bdb, bucketCache, func(b domain.Book) string { return b.ID }, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load cache: %w", err)
	}
	pending, err := newTable(bdb, bucketPending, func(m domain.PendingMutation) string { return m.ID }, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending log: %w", err)
	}
	return &DB{
		db:      bdb,
		cache:   &ReadCache{t: cache},
		pending: &PendingLog{t: pending},
	}, nil
}

func hashServerURL(serverURL string) string {
	normalized := strings.TrimRight(strings.ToLower(serverURL), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

// ReadCache returns the "cache" table.
func (d *DB) ReadCache() *ReadCache {
	return d.cache
}

// PendingLog returns the "pending" table.
func (d *DB) PendingLog() *PendingLog {
	return d.pending
}

// Persistent reports whether writes reach disk.
func (d *DB) Persistent() bool {
	return d.db != nil
}

func (d *DB) Close() error {
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// ReadCache implements domain.ReadCache on the "cache" bucket.
type ReadCache struct {
	t *table[domain.Book]
}

func (c *ReadCache) GetAll() []domain.Book             { return c.t.all() }
func (c *ReadCache) Get(id string) (domain.Book, bool) { return c.t.get(id) }
func (c *ReadCache) Put(b domain.Book) error           { return c.t.put(b) }
func (c *ReadCache) Delete(id string) error            { return c.t.delete(id) }
func (c *ReadCache) Clear() error                      { return c.t.replace(nil) }
func (c *ReadCache) BulkPut(books []domain.Book) error { return c.t.putAll(books) }
func (c *ReadCache) Replace(books []domain.Book) error { return c.t.replace(books) }

// PendingLog implements domain.PendingLog on the "pending" bucket.
type PendingLog struct {
	t *table[domain.PendingMutation]
}

func (p *PendingLog) GetAll() []domain.PendingMutation             { return p.t.all() }
func (p *PendingLog) Get(id string) (domain.PendingMutation, bool) { return p.t.get(id) }
func (p *PendingLog) Put(m domain.PendingMutation) error           { return p.t.put(m) }
func (p *PendingLog) Delete(id string) error                       { return p.t.delete(id) }
