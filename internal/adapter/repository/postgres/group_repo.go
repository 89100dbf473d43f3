package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avel/splitledger/internal/domain"
)

// GroupRepository persists groups and their memberships.
type GroupRepository struct {
	pool *pgxpool.Pool
}

// NewGroupRepository creates a new group repository.
func NewGroupRepository(pool *pgxpool.Pool) *GroupRepository {
	return &GroupRepository{pool: pool}
}

// Create inserts a group together with its initial membership rows.
func (r *GroupRepository) Create(ctx context.Context, group *domain.Group) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin create group tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	query := `
		INSERT INTO groups (id, name, description, currency, owner_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = tx.Exec(ctx, query,
		group.ID,
		group.Name,
		group.Description,
		group.Currency,
		group.OwnerID,
		group.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert group: %w", err)
	}

	for pos, memberID := range group.MemberIDs {
		if err := insertMembership(ctx, tx, group.ID, memberID, pos); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// GetByID retrieves a group with its member ids in join order.
func (r *GroupRepository) GetByID(ctx context.Context, id string) (*domain.Group, error) {
	query := `
		SELECT id, name, description, currency, owner_id, created_at
		FROM groups
		WHERE id = $1
	`

	var group domain.Group
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&group.ID,
		&group.Name,
		&group.Description,
		&group.Currency,
		&group.OwnerID,
		&group.CreatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", domain.ErrGroupNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT member_id FROM group_members WHERE group_id = $1 ORDER BY position`,
		id,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var memberID string
		if err := rows.Scan(&memberID); err != nil {
			return nil, err
		}
		group.MemberIDs = append(group.MemberIDs, memberID)
	}

	return &group, rows.Err()
}

// AddMember appends a member to the group roster.
func (r *GroupRepository) AddMember(ctx context.Context, groupID, memberID string) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin add member tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var pos int
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(position), -1) + 1 FROM group_members WHERE group_id = $1`,
		groupID,
	).Scan(&pos)
	if err != nil {
		return fmt.Errorf("next position: %w", err)
	}

	if err := insertMembership(ctx, tx, groupID, memberID, pos); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func insertMembership(ctx context.Context, tx pgx.Tx, groupID, memberID string, pos int) error {
	query := `
		INSERT INTO group_members (group_id, member_id, position)
		VALUES ($1, $2, $3)
	`

	if _, err := tx.Exec(ctx, query, groupID, memberID, pos); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation {
			return fmt.Errorf("%w: %s", domain.ErrMemberAlreadyInGroup, memberID)
		}
		return fmt.Errorf("insert membership: %w", err)
	}

	return nil
}
