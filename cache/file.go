package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/jonwraymond/restops/observe"
)

// FileExt is the suffix of every entry file.
const FileExt = ".cache"

// MaxFileKeyLength caps FileCache keys below MaxKeyLength so that both the
// entry name and the temp name used while writing fit in a 255-byte file name.
const MaxFileKeyLength = 200

// Option configures a cache backend.
type Option func(*options)

type options struct {
	policy Policy
	clock  Clock
	logger observe.Logger
}

func defaultOptions() options {
	return options{
		policy: DefaultPolicy(),
		clock:  SystemClock,
		logger: observe.NopLogger(),
	}
}

// WithPolicy sets the TTL policy.
func WithPolicy(p Policy) Option {
	return func(o *options) { o.policy = p }
}

// WithClock sets the clock used for expiry decisions.
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.clock = c
		}
	}
}

// WithLogger sets the logger used for best-effort failures.
func WithLogger(l observe.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// FileCache stores one file per key under a single directory.
//
// Each file holds an expiry header followed by the raw value. Writes go
// through a temporary file and a rename, so readers never observe a
// partially written entry; concurrent writers to one key race with last
// writer wins.
type FileCache struct {
	dir string
	options
}

// NewFileCache creates a file cache rooted at dir, creating the directory
// (and parents) if it does not exist.
func NewFileCache(dir string, opts ...Option) (*FileCache, error) {
	if dir == "" {
		return nil, errors.New("cache: directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: create directory: %w", err)
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &FileCache{dir: dir, options: o}, nil
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string {
	return c.dir
}

// Path returns the file path backing key.
func (c *FileCache) Path(key string) string {
	return filepath.Join(c.dir, key+FileExt)
}

// Get returns the stored value for key. Expired and unreadable entries are
// removed and reported as a miss.
func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool) {
	if validateFileKey(key) != nil {
		return nil, false
	}
	path := c.Path(key)
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.logger.Warn(ctx, "cache read failed",
				observe.Field{Key: "key", Value: key},
				observe.Field{Key: "error", Value: err.Error()})
		}
		return nil, false
	}

	value, expiresAt, err := decodeEntry(data)
	if err != nil || expired(expiresAt, c.clock.Now()) {
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			c.logger.Warn(ctx, "cache evict failed",
				observe.Field{Key: "key", Value: key},
				observe.Field{Key: "error", Value: rmErr.Error()})
		}
		return nil, false
	}
	return value, true
}

// Set writes value under key.
func (c *FileCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if err := validateFileKey(key); err != nil {
		return err
	}
	if ttl < 0 {
		err := os.Remove(c.Path(key))
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("cache: remove: %w", err)
		}
		return nil
	}

	data := encodeEntry(value, c.policy.ExpiresAt(c.clock.Now(), ttl))

	tmp, err := os.CreateTemp(c.dir, "."+key+".*.tmp")
	if err != nil {
		return fmt.Errorf("cache: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("cache: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("cache: write: %w", err)
	}
	if err := os.Rename(tmpName, c.Path(key)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("cache: rename: %w", err)
	}
	return nil
}

// Delete removes the file for key. It returns ErrNotFound if there is none.
func (c *FileCache) Delete(_ context.Context, key string) error {
	if err := validateFileKey(key); err != nil {
		return err
	}
	if err := os.Remove(c.Path(key)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ErrNotFound
		}
		return fmt.Errorf("cache: remove: %w", err)
	}
	return nil
}

// Clear removes every entry file in the cache directory. It always returns
// nil; files that cannot be removed are logged.
func (c *FileCache) Clear(ctx context.Context) error {
	files, err := c.entryFiles()
	if err != nil {
		c.logger.Warn(ctx, "cache clear: list failed", observe.Field{Key: "error", Value: err.Error()})
		return nil
	}
	for _, f := range files {
		if err := os.Remove(f); err != nil {
			c.logger.Warn(ctx, "cache clear: remove failed",
				observe.Field{Key: "file", Value: f},
				observe.Field{Key: "error", Value: err.Error()})
		}
	}
	return nil
}

// GetMultiple applies Get per key, preserving key order.
func (c *FileCache) GetMultiple(ctx context.Context, keys []string, def []byte) []Item {
	return getMultiple(ctx, c, keys, def)
}

// SetMultiple applies Set per item and stops at the first failure.
func (c *FileCache) SetMultiple(ctx context.Context, items []Item, ttl time.Duration) error {
	return setMultiple(ctx, c, items, ttl)
}

// DeleteMultiple applies Delete per key and stops at the first failure.
func (c *FileCache) DeleteMultiple(ctx context.Context, keys []string) error {
	return deleteMultiple(ctx, c, keys)
}

// Has reports whether a file exists for key. It does not check expiry, so a
// stale entry that has not been read yet still reports true.
func (c *FileCache) Has(_ context.Context, key string) bool {
	if validateFileKey(key) != nil {
		return false
	}
	_, err := os.Stat(c.Path(key))
	return err == nil
}

// EntryInfo describes one stored entry.
type EntryInfo struct {
	Key       string
	Size      int64
	ModTime   time.Time
	ExpiresAt time.Time
	Expired   bool
}

// Entries lists the entries currently on disk, including expired ones,
// without evicting anything.
func (c *FileCache) Entries(_ context.Context) ([]EntryInfo, error) {
	files, err := c.entryFiles()
	if err != nil {
		return nil, fmt.Errorf("cache: list: %w", err)
	}
	now := c.clock.Now()
	out := make([]EntryInfo, 0, len(files))
	for _, f := range files {
		st, err := os.Stat(f)
		if err != nil {
			continue
		}
		data, err := os.ReadFile(f)
		if err != nil {
			continue
		}
		value, expiresAt, err := decodeEntry(data)
		if err != nil {
			continue
		}
		name := filepath.Base(f)
		out = append(out, EntryInfo{
			Key:       name[:len(name)-len(FileExt)],
			Size:      int64(len(value)),
			ModTime:   st.ModTime(),
			ExpiresAt: expiresAt,
			Expired:   expired(expiresAt, now),
		})
	}
	return out, nil
}

func validateFileKey(key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if len(key) > MaxFileKeyLength {
		return ErrKeyTooLong
	}
	return nil
}

// entryFiles returns the paths of the entry files in the cache directory.
// Temp files from in-flight writes are skipped.
func (c *FileCache) entryFiles() ([]string, error) {
	des, err := os.ReadDir(c.dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, de := range des {
		name := de.Name()
		if !de.Type().IsRegular() || !strings.HasSuffix(name, FileExt) || name == FileExt {
			continue
		}
		files = append(files, filepath.Join(c.dir, name))
	}
	return files, nil
}

// Ensure FileCache implements Cache
var _ Cache = (*FileCache)(nil)
