package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avel/splitledger/internal/domain"
)

// MemberRepository persists member identities.
type MemberRepository struct {
	pool *pgxpool.Pool
}

// NewMemberRepository creates a new member repository.
func NewMemberRepository(pool *pgxpool.Pool) *MemberRepository {
	return &MemberRepository{pool: pool}
}

// Create inserts a new member.
func (r *MemberRepository) Create(ctx context.Context, member *domain.Member) error {
	query := `
		INSERT INTO members (id, display_name, wallet_address, created_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.pool.Exec(ctx, query,
		member.ID,
		member.DisplayName,
		member.WalletAddress,
		member.CreatedAt,
	)

	return err
}

// GetByID retrieves a member by ID.
func (r *MemberRepository) GetByID(ctx context.Context, id string) (*domain.Member, error) {
	query := `
		SELECT id, display_name, wallet_address, created_at
		FROM members
		WHERE id = $1
	`

	var member domain.Member
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&member.ID,
		&member.DisplayName,
		&member.WalletAddress,
		&member.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrMemberNotFound, id)
	}

	return &member, err
}

// GetByIDs retrieves members preserving the requested order.
func (r *MemberRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.Member, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, display_name, wallet_address, created_at
		FROM members
		WHERE id = ANY($1)
	`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[string]*domain.Member, len(ids))

	for rows.Next() {
		var member domain.Member
		if err := rows.Scan(&member.ID, &member.DisplayName, &member.WalletAddress, &member.CreatedAt); err != nil {
			return nil, err
		}
		byID[member.ID] = &member
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	members := make([]*domain.Member, 0, len(ids))
	for _, id := range ids {
		if m, ok := byID[id]; ok {
			members = append(members, m)
		}
	}

	return members, nil
}

// UpdateDisplayName changes a member's display name.
func (r *MemberRepository) UpdateDisplayName(ctx context.Context, id, displayName string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE members SET display_name = $2 WHERE id = $1`,
		id, displayName,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: %s", domain.ErrMemberNotFound, id)
	}

	return nil
}
