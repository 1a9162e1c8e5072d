package cache

import (
	"bytes"
	"encoding/binary"
	"time"
)

// entryMagic prefixes every stored entry. The trailing byte is the format
// version.
var entryMagic = []byte{'R', 'S', 'T', 'C', 0, 0, 0, 1}

const entryHeaderLen = 16

// encodeEntry prepends the expiry header to value. A zero expiresAt is
// stored as 0 and means the entry never expires.
func encodeEntry(value []byte, expiresAt time.Time) []byte {
	buf := make([]byte, entryHeaderLen+len(value))
	copy(buf, entryMagic)
	var ns int64
	if !expiresAt.IsZero() {
		ns = expiresAt.UnixNano()
	}
	binary.BigEndian.PutUint64(buf[len(entryMagic):entryHeaderLen], uint64(ns))
	copy(buf[entryHeaderLen:], value)
	return buf
}

// decodeEntry splits a stored entry into its payload and expiry instant.
func decodeEntry(data []byte) ([]byte, time.Time, error) {
	if len(data) < entryHeaderLen || !bytes.Equal(data[:len(entryMagic)], entryMagic) {
		return nil, time.Time{}, ErrCorrupt
	}
	ns := int64(binary.BigEndian.Uint64(data[len(entryMagic):entryHeaderLen]))
	var expiresAt time.Time
	if ns != 0 {
		expiresAt = time.Unix(0, ns)
	}
	return data[entryHeaderLen:], expiresAt, nil
}

// expired reports whether an entry with the given expiry is stale at now.
func expired(expiresAt, now time.Time) bool {
	return !expiresAt.IsZero() && expiresAt.Before(now)
}
