package usecase

import (
	"context"
	"time"

	"github.com/avel/splitledger/internal/domain"
)

// GroupUseCase handles group lifecycle and membership.
type GroupUseCase struct {
	groups  GroupRepository
	members MemberRepository
	idGen   IDGenerator
}

// NewGroupUseCase creates a new GroupUseCase.
func NewGroupUseCase(groups GroupRepository, members MemberRepository, idGen IDGenerator) *GroupUseCase {
	return &GroupUseCase{
		groups:  groups,
		members: members,
		idGen:   idGen,
	}
}

// CreateGroupInput represents input for creating a group.
type CreateGroupInput struct {
	Name        string
	Description string
	Currency    string
	OwnerID     string
}

// CreateGroup creates a group with the owner as its first member.
func (uc *GroupUseCase) CreateGroup(ctx context.Context, input CreateGroupInput) (*domain.Group, error) {
	if err := domain.ValidateGroupName(input.Name); err != nil {
		return nil, err
	}

	if err := domain.ValidateCurrency(input.Currency); err != nil {
		return nil, err
	}

	if _, err := uc.members.GetByID(ctx, input.OwnerID); err != nil {
		return nil, err
	}

	group := &domain.Group{
		ID:          uc.idGen.Generate(),
		Name:        input.Name,
		Description: input.Description,
		Currency:    input.Currency,
		OwnerID:     input.OwnerID,
		MemberIDs:   []string{input.OwnerID},
		CreatedAt:   time.Now().UTC(),
	}

	if err := uc.groups.Create(ctx, group); err != nil {
		return nil, err
	}

	return group, nil
}

// GetGroup retrieves a group by ID.
func (uc *GroupUseCase) GetGroup(ctx context.Context, id string) (*domain.Group, error) {
	return uc.groups.GetByID(ctx, id)
}

// AddMember adds a member to a group after an accepted invite. Membership
// only grows; adding an existing member fails.
func (uc *GroupUseCase) AddMember(ctx context.Context, groupID, memberID string) (*domain.Group, error) {
	group, err := uc.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if _, err := uc.members.GetByID(ctx, memberID); err != nil {
		return nil, err
	}

	if err := group.AddMember(memberID); err != nil {
		return nil, err
	}

	if err := uc.groups.AddMember(ctx, groupID, memberID); err != nil {
		return nil, err
	}

	return group, nil
}

// ListMembers returns the group's members in join order.
func (uc *GroupUseCase) ListMembers(ctx context.Context, groupID string) ([]*domain.Member, error) {
	group, err := uc.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	return uc.members.GetByIDs(ctx, group.MemberIDs)
}
