package revocation

import (
	"context"
	"sync"
	"time"
)

// InMemoryTRL is a mutex-guarded revocation list for tests and single-node
// deployments. Expired entries are dropped lazily on lookup.
type InMemoryTRL struct {
	mu      sync.RWMutex
	revoked map[string]time.Time
	clock   Clock
}

// InMemoryTRLOption configures an InMemoryTRL instance.
type InMemoryTRLOption func(*InMemoryTRL)

// WithClock sets the clock function for expiry tests.
func WithClock(clock Clock) InMemoryTRLOption {
	return func(trl *InMemoryTRL) {
		if clock != nil {
			trl.clock = clock
		}
	}
}

// NewInMemoryTRL constructs an in-memory token revocation list.
func NewInMemoryTRL(opts ...InMemoryTRLOption) *InMemoryTRL {
	trl := &InMemoryTRL{
		revoked: make(map[string]time.Time),
		clock:   time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(trl)
		}
	}
	return trl
}

// RevokeToken records the JTI until its TTL elapses.
func (t *InMemoryTRL) RevokeToken(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.revoked[jti] = t.clock().Add(ttl)
	return nil
}

// IsRevoked reports whether the JTI is on the list and not yet expired.
func (t *InMemoryTRL) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}

	now := t.clock()

	t.mu.RLock()
	expiresAt, ok := t.revoked[jti]
	t.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if now.After(expiresAt) {
		t.deleteIfExpired(jti, now)
		return false, nil
	}
	return true, nil
}

// deleteIfExpired lazily drops an entry observed as expired at now. The
// expiry is re-read under the write lock: a concurrent RevokeToken may have
// refreshed the entry since the observation, and a fresh revocation must
// never be discarded.
func (t *InMemoryTRL) deleteIfExpired(jti string, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if expiresAt, ok := t.revoked[jti]; ok && now.After(expiresAt) {
		delete(t.revoked, jti)
	}
}
