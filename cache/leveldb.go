package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/jonwraymond/restops/observe"
)

// leveldbPrefix namespaces entry records inside the database.
const leveldbPrefix = "e:"

// LevelDBCache keeps entries in a LevelDB database instead of one file per
// key. Values carry the same expiry header as FileCache.
type LevelDBCache struct {
	db *leveldb.DB
	options
}

// NewLevelDBCache opens (or creates) a LevelDB database at path.
func NewLevelDBCache(path string, opts ...Option) (*LevelDBCache, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("cache: open leveldb: %w", err)
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &LevelDBCache{db: db, options: o}, nil
}

// Close releases the database.
func (c *LevelDBCache) Close() error {
	return c.db.Close()
}

func dbKey(key string) []byte {
	return []byte(leveldbPrefix + key)
}

// Get returns the stored value for key. Expired and corrupt records are
// deleted and reported as a miss.
func (c *LevelDBCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if ValidateKey(key) != nil {
		return nil, false
	}
	data, err := c.db.Get(dbKey(key), nil)
	if err != nil {
		if !errors.Is(err, leveldb.ErrNotFound) {
			c.logger.Warn(ctx, "cache read failed",
				observe.Field{Key: "key", Value: key},
				observe.Field{Key: "error", Value: err.Error()})
		}
		return nil, false
	}
	value, expiresAt, err := decodeEntry(data)
	if err != nil || expired(expiresAt, c.clock.Now()) {
		_ = c.db.Delete(dbKey(key), nil)
		return nil, false
	}
	return value, true
}

// Set stores value under key. ttl < 0 removes the entry.
func (c *LevelDBCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if ttl < 0 {
		if err := c.db.Delete(dbKey(key), nil); err != nil {
			return fmt.Errorf("cache: delete: %w", err)
		}
		return nil
	}
	data := encodeEntry(value, c.policy.ExpiresAt(c.clock.Now(), ttl))
	if err := c.db.Put(dbKey(key), data, nil); err != nil {
		return fmt.Errorf("cache: put: %w", err)
	}
	return nil
}

// Delete removes key. Returns ErrNotFound if absent.
func (c *LevelDBCache) Delete(_ context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	ok, err := c.db.Has(dbKey(key), nil)
	if err != nil {
		return fmt.Errorf("cache: has: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	if err := c.db.Delete(dbKey(key), nil); err != nil {
		return fmt.Errorf("cache: delete: %w", err)
	}
	return nil
}

// Clear removes every entry in one batch. Failures are logged, never returned.
func (c *LevelDBCache) Clear(ctx context.Context) error {
	it := c.db.NewIterator(util.BytesPrefix([]byte(leveldbPrefix)), nil)
	batch := new(leveldb.Batch)
	for it.Next() {
		batch.Delete(append([]byte(nil), it.Key()...))
	}
	it.Release()
	if err := it.Error(); err != nil {
		c.logger.Warn(ctx, "cache clear: iterate failed", observe.Field{Key: "error", Value: err.Error()})
	}
	if err := c.db.Write(batch, nil); err != nil {
		c.logger.Warn(ctx, "cache clear: write failed", observe.Field{Key: "error", Value: err.Error()})
	}
	return nil
}

// GetMultiple applies Get per key, preserving key order.
func (c *LevelDBCache) GetMultiple(ctx context.Context, keys []string, def []byte) []Item {
	return getMultiple(ctx, c, keys, def)
}

// SetMultiple applies Set per item and stops at the first failure.
func (c *LevelDBCache) SetMultiple(ctx context.Context, items []Item, ttl time.Duration) error {
	return setMultiple(ctx, c, items, ttl)
}

// DeleteMultiple applies Delete per key and stops at the first failure.
func (c *LevelDBCache) DeleteMultiple(ctx context.Context, keys []string) error {
	return deleteMultiple(ctx, c, keys)
}

// Has reports whether a record exists for key, ignoring expiry.
func (c *LevelDBCache) Has(_ context.Context, key string) bool {
	if ValidateKey(key) != nil {
		return false
	}
	ok, err := c.db.Has(dbKey(key), nil)
	return err == nil && ok
}

// Ensure LevelDBCache implements Cache
var _ Cache = (*LevelDBCache)(nil)
