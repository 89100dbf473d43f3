package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/avel/splitledger/internal/domain"
)

// MemberRepository implements usecase.MemberRepository in memory.
type MemberRepository struct {
	mu      sync.RWMutex
	members map[string]*domain.Member
}

// NewMemberRepository creates an empty in-memory member store.
func NewMemberRepository() *MemberRepository {
	return &MemberRepository{members: make(map[string]*domain.Member)}
}

// Create stores a new member.
func (r *MemberRepository) Create(ctx context.Context, member *domain.Member) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *member
	r.members[member.ID] = &stored

	return nil
}

// GetByID returns a copy of the member.
func (r *MemberRepository) GetByID(ctx context.Context, id string) (*domain.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.members[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrMemberNotFound, id)
	}

	out := *m

	return &out, nil
}

// GetByIDs returns members in the order of the given ids.
func (r *MemberRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Member, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Member, 0, len(ids))
	for _, id := range ids {
		m, ok := r.members[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrMemberNotFound, id)
		}

		c := *m
		out = append(out, &c)
	}

	return out, nil
}

// UpdateDisplayName changes a member's display name.
func (r *MemberRepository) UpdateDisplayName(ctx context.Context, id, displayName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.members[id]
	if !ok {
		return fmt.Errorf("%w: %s", domain.ErrMemberNotFound, id)
	}

	m.DisplayName = displayName

	return nil
}
