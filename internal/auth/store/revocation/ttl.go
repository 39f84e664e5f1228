// Package revocation tracks revoked access token JTIs until they would have
// expired anyway. The auth middleware consults the list on every request, so
// logout takes effect immediately instead of waiting out the token TTL.
package revocation

import (
	"context"
	"fmt"
	"time"
)

// TokenRevocationList records revoked JTIs with a TTL bounded by the token
// lifetime.
type TokenRevocationList interface {
	RevokeToken(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Clock abstracts time.Now for expiry tests.
type Clock func() time.Time

func validateTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("ttl must be positive, got %v", ttl)
	}
	return nil
}
