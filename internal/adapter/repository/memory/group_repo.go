package memory

import (
	"context"
	"sync"

	"github.com/avel/splitledger/internal/domain"
)

// GroupRepository implements usecase.GroupRepository in memory.
type GroupRepository struct {
	mu     sync.RWMutex
	groups map[string]*domain.Group
}

// NewGroupRepository creates an empty in-memory group store.
func NewGroupRepository() *GroupRepository {
	return &GroupRepository{groups: make(map[string]*domain.Group)}
}

// Create stores a new group.
func (r *GroupRepository) Create(ctx context.Context, group *domain.Group) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *group
	stored.MemberIDs = append([]string(nil), group.MemberIDs...)
	r.groups[group.ID] = &stored

	return nil
}

// GetByID returns a copy of the group.
func (r *GroupRepository) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.groups[id]
	if !ok {
		return nil, domain.ErrGroupNotFound
	}

	out := *g
	out.MemberIDs = append([]string(nil), g.MemberIDs...)

	return &out, nil
}

// AddMember appends a member in join order.
func (r *GroupRepository) AddMember(ctx context.Context, groupID, memberID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	g, ok := r.groups[groupID]
	if !ok {
		return domain.ErrGroupNotFound
	}

	return g.AddMember(memberID)
}
