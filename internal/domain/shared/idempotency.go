package shared

import (
	"context"
	"time"
)

// RetryKey identifies one fast-op attempt across client retries. It mirrors
// the ledger's (source_type, source_id) uniqueness key, qualified by the
// owning service so keys from different services cannot collide.
type RetryKey struct {
	Service    string
	SourceType string
	SourceID   string
}

// String renders the key in the canonical service:type:id form used by
// store backends
func (k RetryKey) String() string {
	return k.Service + ":" + k.SourceType + ":" + k.SourceID
}

// IdempotencyStore remembers which retry keys have already committed, so a
// retry can be answered from the stored ledger result without re-entering
// the transactional path. A miss proves nothing: the durable guarantee is
// the database constraint on (source_type, source_id), and callers must
// still run the in-transaction duplicate lookup.
type IdempotencyStore interface {
	// MarkProcessed records that the operation behind key has committed.
	// Returns true when the key was newly recorded, false when a prior
	// attempt already recorded it within the TTL.
	MarkProcessed(ctx context.Context, key RetryKey, ttl time.Duration) (bool, error)

	// IsProcessed reports whether key was recorded and has not expired
	IsProcessed(ctx context.Context, key RetryKey) (bool, error)

	// Close releases the store's resources
	Close() error
}

// IdempotencyConfig holds configuration for the fast-path retry guard
type IdempotencyConfig struct {
	// TTL bounds how long a committed key answers retries from the store;
	// beyond it retries fall through to the ledger lookup
	TTL time.Duration

	// Enabled turns the fast path off entirely when false
	Enabled bool
}

// DefaultIdempotencyConfig returns the default retry-guard configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
