package usecase

import (
	"context"
	"time"

	"github.com/avel/splitledger/internal/domain"
)

// MemberUseCase handles member identities.
type MemberUseCase struct {
	members MemberRepository
	idGen   IDGenerator
}

// NewMemberUseCase creates a new MemberUseCase.
func NewMemberUseCase(members MemberRepository, idGen IDGenerator) *MemberUseCase {
	return &MemberUseCase{
		members: members,
		idGen:   idGen,
	}
}

// CreateMemberInput represents input for creating a member.
type CreateMemberInput struct {
	DisplayName   string
	WalletAddress *string
}

// CreateMember creates a new member identity.
func (uc *MemberUseCase) CreateMember(ctx context.Context, input CreateMemberInput) (*domain.Member, error) {
	if err := domain.ValidateDisplayName(input.DisplayName); err != nil {
		return nil, err
	}

	member := &domain.Member{
		ID:            uc.idGen.Generate(),
		DisplayName:   input.DisplayName,
		WalletAddress: input.WalletAddress,
		CreatedAt:     time.Now().UTC(),
	}

	if err := uc.members.Create(ctx, member); err != nil {
		return nil, err
	}

	return member, nil
}

// GetMember retrieves a member by ID.
func (uc *MemberUseCase) GetMember(ctx context.Context, id string) (*domain.Member, error) {
	return uc.members.GetByID(ctx, id)
}

// UpdateDisplayName changes a member's display name, the only mutable
// identity field.
func (uc *MemberUseCase) UpdateDisplayName(ctx context.Context, id, displayName string) (*domain.Member, error) {
	if err := domain.ValidateDisplayName(displayName); err != nil {
		return nil, err
	}

	if err := uc.members.UpdateDisplayName(ctx, id, displayName); err != nil {
		return nil, err
	}

	return uc.members.GetByID(ctx, id)
}
