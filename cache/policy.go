package cache

import "time"

// Policy configures expiry behavior shared by every cache backend.
type Policy struct {
	// DefaultTTL is the TTL to use when Set is called with ttl == 0.
	// If zero, such entries never expire.
	DefaultTTL time.Duration

	// MaxTTL is the maximum allowed TTL. Larger TTLs are clamped to this.
	// If zero, no maximum is enforced.
	MaxTTL time.Duration
}

// DefaultPolicy returns the default caching policy.
// DefaultTTL: 1 hour, MaxTTL: none
func DefaultPolicy() Policy {
	return Policy{
		DefaultTTL: time.Hour,
	}
}

// NoExpiryPolicy returns a policy whose entries only expire when Set is
// given an explicit TTL.
func NoExpiryPolicy() Policy {
	return Policy{}
}

// EffectiveTTL returns the TTL to use, applying defaults and clamping.
// A zero result means the entry does not expire.
func (p Policy) EffectiveTTL(override time.Duration) time.Duration {
	ttl := override
	if ttl <= 0 {
		ttl = p.DefaultTTL
	}

	// Clamp to MaxTTL if set
	if p.MaxTTL > 0 && (ttl <= 0 || ttl > p.MaxTTL) {
		ttl = p.MaxTTL
	}

	return ttl
}

// ExpiresAt returns the absolute expiry instant for an entry stored at now
// with the given override TTL. The zero time means no expiry.
func (p Policy) ExpiresAt(now time.Time, override time.Duration) time.Time {
	ttl := p.EffectiveTTL(override)
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}
