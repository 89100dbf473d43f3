package usecase

import (
	"context"
	"time"

	"github.com/avel/splitledger/internal/domain"
)

// EventRepository is the append-only ledger store. Append is the sole
// mutation entry point; events are immutable once appended.
type EventRepository interface {
	// Append assigns the next gap-free per-group sequence number and
	// persists the event. A retry carrying an idempotency key already used
	// for an identical payload returns the originally appended event with
	// replayed=true; the same key with a different payload fails with
	// domain.ErrIdempotencyConflict. An empty key disables idempotency
	// tracking for the append.
	Append(ctx context.Context, groupID string, event *domain.LedgerEvent, idempotencyKey string) (appended *domain.LedgerEvent, replayed bool, err error)
	// ReadAll returns a group's events oldest first.
	ReadAll(ctx context.Context, groupID string) ([]*domain.LedgerEvent, error)
	// ReadSince returns events appended strictly after seq, oldest first.
	ReadSince(ctx context.Context, groupID string, seq int64) ([]*domain.LedgerEvent, error)
}

// GroupRepository defines data access for groups and their memberships.
type GroupRepository interface {
	Create(ctx context.Context, group *domain.Group) error
	GetByID(ctx context.Context, id string) (*domain.Group, error)
	AddMember(ctx context.Context, groupID, memberID string) error
}

// MemberRepository defines data access for member identities.
type MemberRepository interface {
	Create(ctx context.Context, member *domain.Member) error
	GetByID(ctx context.Context, id string) (*domain.Member, error)
	GetByIDs(ctx context.Context, ids []string) ([]*domain.Member, error)
	UpdateDisplayName(ctx context.Context, id, displayName string) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations for derived balance snapshots.
type Cache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles HTTP-level idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}
