package cache

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Keyer derives cache keys from request parameter values.
//
// Contract:
//   - Determinism: same values in the same order must produce the same key.
//   - Order: values are hashed in the order given; callers that want
//     order-insensitive keys must sort first.
//   - Output: keys are fixed-length lowercase hex and pass ValidateKey.
//   - Concurrency: implementations must be safe for concurrent use.
type Keyer interface {
	Fingerprint(values []string) string
}

// KeySeparator joins parameter values before hashing.
const KeySeparator = "."

// DefaultKeyer hashes the joined values with MD5 (32 hex chars).
type DefaultKeyer struct{}

// NewDefaultKeyer creates a new default keyer.
func NewDefaultKeyer() *DefaultKeyer {
	return &DefaultKeyer{}
}

// Fingerprint returns the MD5 hex digest of values joined by ".".
func (k *DefaultKeyer) Fingerprint(values []string) string {
	sum := md5.Sum([]byte(strings.Join(values, KeySeparator)))
	return hex.EncodeToString(sum[:])
}

// XXHashKeyer hashes the joined values with xxhash64 (16 hex chars). It is
// faster than DefaultKeyer but produces different keys, so switching an
// existing cache directory between the two leaves old entries unreachable.
type XXHashKeyer struct{}

// NewXXHashKeyer creates a new xxhash keyer.
func NewXXHashKeyer() *XXHashKeyer {
	return &XXHashKeyer{}
}

// Fingerprint returns the xxhash64 hex digest of values joined by ".".
func (k *XXHashKeyer) Fingerprint(values []string) string {
	d := xxhash.New()
	for i, v := range values {
		if i > 0 {
			_, _ = d.WriteString(KeySeparator)
		}
		_, _ = d.WriteString(v)
	}
	s := strconv.FormatUint(d.Sum64(), 16)
	if len(s) < 16 {
		s = strings.Repeat("0", 16-len(s)) + s
	}
	return s
}

// Ensure keyers implement Keyer
var (
	_ Keyer = (*DefaultKeyer)(nil)
	_ Keyer = (*XXHashKeyer)(nil)
)
