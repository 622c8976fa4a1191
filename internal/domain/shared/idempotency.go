package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers the outcome of billing requests keyed by the
// caller-supplied idempotency key, so a retried request returns the invoice
// number that was already committed instead of billing twice.
type IdempotencyStore interface {
	// Remember stores the result for a key with a TTL.
	// Returns false if the key was already present.
	Remember(ctx context.Context, key, result string, ttl time.Duration) (bool, error)

	// Lookup returns the stored result for a key, or "" if the key is unknown.
	Lookup(ctx context.Context, key string) (string, error)

	// Close closes the store and releases resources
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL is the time-to-live for remembered keys.
	// After this duration the same key is accepted again.
	// Default: 24 hours
	TTL time.Duration

	// Enabled determines whether idempotency checking is enabled
	// Default: true
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
