package store

import (
	"encoding/json"
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/mmcdole/shelf/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// table is one bucket plus a full in-memory mirror. Reads are served from
// memory; writes update memory first and then bbolt, so a disk failure
// leaves the process running on the in-memory state.
type table[T any] struct {
	db     *bolt.DB // nil in memory-only mode
	bucket []byte
	keyOf  func(T) string
	logger *slog.Logger

	mu    sync.RWMutex
	items map[string]T
}

func newTable[T any](db *bolt.DB, bucket []byte, keyOf func(T) string, logger *slog.Logger) (*table[T], error) {
	t := &table[T]{
		db:     db,
		bucket: bucket,
		keyOf:  keyOf,
		logger: logger,
		items:  make(map[string]T),
	}
	if db == nil {
		return t, nil
	}

	err := db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			var item T
			if err := json.Unmarshal(v, &item); err != nil {
				// Skip corrupt rows; the next write for this key replaces them
				logger.Warn("skipping unreadable row", "bucket", string(bucket), "key", string(k), "error", err)
				return nil
			}
			t.items[string(k)] = item
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (t *table[T]) get(key string) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	item, ok := t.items[key]
	return item, ok
}

// all returns every item ordered by key, matching bbolt's cursor order.
func (t *table[T]) all() []T {
	t.mu.RLock()
	defer t.mu.RUnlock()

	keys := make([]string, 0, len(t.items))
	for k := range t.items {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]T, 0, len(keys))
	for _, k := range keys {
		out = append(out, t.items[k])
	}
	return out
}

func (t *table[T]) put(item T) error {
	key := t.keyOf(item)
	data, err := json.Marshal(item)
	if err != nil {
		return &domain.LocalStorageError{Op: "put", Err: err}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.items[key] = item
	return t.update("put", func(b *bolt.Bucket) error {
		return b.Put([]byte(key), data)
	})
}

func (t *table[T]) putAll(items []T) error {
	encoded, err := t.encode(items)
	if err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, item := range items {
		t.items[t.keyOf(item)] = item
	}
	return t.update("bulk put", func(b *bolt.Bucket) error {
		for k, v := range encoded {
			if err := b.Put([]byte(k), v); err != nil {
				return err
			}
		}
		return nil
	})
}

func (t *table[T]) delete(key string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.items, key)
	return t.update("delete", func(b *bolt.Bucket) error {
		return b.Delete([]byte(key))
	})
}

// replace drops every item and stores items instead, in one bbolt
// transaction and one swap of the mirror under the write lock.
func (t *table[T]) replace(items []T) error {
	encoded, err := t.encode(items)
	if err != nil {
		return err
	}

	next := make(map[string]T, len(items))
	for _, item := range items {
		next[t.keyOf(item)] = item
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.items = next
	if t.db == nil {
		return nil
	}
	err = t.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(t.bucket); err != nil && !errors.Is(err, bolt.ErrBucketNotFound) {
			return err
		}
		b, err := tx.CreateBucket(t.bucket)
		if err != nil {
			return err
		}
		for k, v := range encoded {
			if err := b.Put([]byte(k), v); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return &domain.LocalStorageError{Op: "replace " + string(t.bucket), Err: err}
	}
	return nil
}

func (t *table[T]) encode(items []T) (map[string][]byte, error) {
	encoded := make(map[string][]byte, len(items))
	for _, item := range items {
		data, err := json.Marshal(item)
		if err != nil {
			return nil, &domain.LocalStorageError{Op: "encode " + string(t.bucket), Err: err}
		}
		encoded[t.keyOf(item)] = data
	}
	return encoded, nil
}

// update runs fn against the bucket. Caller holds t.mu.
func (t *table[T]) update(op string, fn func(b *bolt.Bucket) error) error {
	if t.db == nil {
		return nil // Memory-only mode
	}
	err := t.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(t.bucket)
		if err != nil {
			return err
		}
		return fn(b)
	})
	if err != nil {
		return &domain.LocalStorageError{Op: op + " " + string(t.bucket), Err: err}
	}
	return nil
}
