package usecase

import "time"

const (
	// BalanceCacheTTL bounds how long a balance snapshot lives in the cache.
	// Snapshots are only ever used as fold starting points, so a stale entry
	// costs extra reads, never wrong balances.
	BalanceCacheTTL = 10 * time.Minute

	// IdempotencyKeyTTL is how long idempotency keys are cached at the HTTP layer.
	IdempotencyKeyTTL = 24 * time.Hour

	// DefaultCategory is assigned to expenses recorded without a category.
	DefaultCategory = "General"
)
