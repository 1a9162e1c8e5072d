package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// Sentinel errors for cache operations.
var (
	ErrNilCache   = errors.New("cache: cache is nil")
	ErrInvalidKey = errors.New("cache: key is invalid")
	ErrKeyTooLong = errors.New("cache: key exceeds max length")
	ErrNotFound   = fmt.Errorf("cache: key not found: %w", fs.ErrNotExist)
	ErrCorrupt    = errors.New("cache: entry is corrupt")
)

// Cache is a synchronous expiring key-value store.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Context: methods should honor cancellation/deadlines where applicable.
//   - Errors: Get and Has never error; absence and expiry are reported as a miss.
//     Mutations report storage failures as a non-nil error.
//   - Expiry: Get treats an expired entry as absent and removes it. Has only
//     reports existence and does not look at expiry.
type Cache interface {
	// Get retrieves the raw stored bytes. Returns (nil, false) on miss or expiry.
	Get(ctx context.Context, key string) ([]byte, bool)

	// Set stores value under key. ttl > 0 is used as given, ttl == 0 falls
	// back to the cache policy default, ttl < 0 removes the entry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a stored value. Returns ErrNotFound if absent.
	Delete(ctx context.Context, key string) error

	// Clear removes every entry. Individual removal failures are not reported.
	Clear(ctx context.Context) error

	// GetMultiple applies Get per key, preserving key order. Missing
	// entries carry def as their value.
	GetMultiple(ctx context.Context, keys []string, def []byte) []Item

	// SetMultiple applies Set per item and stops at the first failure.
	SetMultiple(ctx context.Context, items []Item, ttl time.Duration) error

	// DeleteMultiple applies Delete per key and stops at the first failure.
	DeleteMultiple(ctx context.Context, keys []string) error

	// Has reports whether an entry exists for key, expired or not.
	Has(ctx context.Context, key string) bool
}

// Item is a key/value pair used by the bulk operations.
type Item struct {
	Key   string
	Value []byte
	// Found is set by GetMultiple when Value came from the cache rather
	// than the default.
	Found bool
}

// GetOrDefault returns the cached value for key, or def on miss.
func GetOrDefault(ctx context.Context, c Cache, key string, def []byte) []byte {
	if c == nil {
		return def
	}
	if v, ok := c.Get(ctx, key); ok {
		return v
	}
	return def
}

// ValidateKey checks if a key is valid for caching.
//
// Keys name files and database records, so path separators and the
// relative directory names are rejected along with blank keys.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	// Reject keys with newlines or carriage returns
	if strings.ContainsAny(key, "\n\r\x00") {
		return ErrInvalidKey
	}
	if strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return ErrInvalidKey
	}
	return nil
}

// getMultiple, setMultiple and deleteMultiple implement the bulk operations
// on top of the single-key ones for every backend.

func getMultiple(ctx context.Context, c Cache, keys []string, def []byte) []Item {
	items := make([]Item, 0, len(keys))
	for _, key := range keys {
		v, ok := c.Get(ctx, key)
		if !ok {
			v = def
		}
		items = append(items, Item{Key: key, Value: v, Found: ok})
	}
	return items
}

func setMultiple(ctx context.Context, c Cache, items []Item, ttl time.Duration) error {
	for _, it := range items {
		if err := c.Set(ctx, it.Key, it.Value, ttl); err != nil {
			return fmt.Errorf("cache: set %q: %w", it.Key, err)
		}
	}
	return nil
}

func deleteMultiple(ctx context.Context, c Cache, keys []string) error {
	for _, key := range keys {
		if err := c.Delete(ctx, key); err != nil {
			return fmt.Errorf("cache: delete %q: %w", key, err)
		}
	}
	return nil
}
