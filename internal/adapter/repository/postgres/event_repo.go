package postgres

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/avel/splitledger/internal/domain"
)

// EventRepository persists the append-only ledger event log.
type EventRepository struct {
	pool    *pgxpool.Pool
	retrier *Retrier
}

// NewEventRepository creates a new event repository.
func NewEventRepository(pool *pgxpool.Pool, retrier *Retrier) *EventRepository {
	return &EventRepository{pool: pool, retrier: retrier}
}

// Append inserts the event at the next per-group sequence number. The
// append runs in a transaction holding a per-group advisory lock, so
// sequence numbers stay gap-free even under concurrent writers.
func (r *EventRepository) Append(ctx context.Context, groupID string, event *domain.LedgerEvent, idempotencyKey string) (*domain.LedgerEvent, bool, error) {
	payload, err := event.Payload()
	if err != nil {
		return nil, false, err
	}

	fingerprint, err := event.Fingerprint()
	if err != nil {
		return nil, false, err
	}

	var (
		appended *domain.LedgerEvent
		replayed bool
	)

	op := func() error {
		appended, replayed, err = r.appendTx(ctx, groupID, event, payload, fingerprint, idempotencyKey)
		return err
	}

	if r.retrier != nil {
		err = r.retrier.Retry(ctx, op)
	} else {
		err = op()
	}

	if err != nil {
		return nil, false, err
	}

	return appended, replayed, nil
}

func (r *EventRepository) appendTx(ctx context.Context, groupID string, event *domain.LedgerEvent, payload, fingerprint []byte, idempotencyKey string) (*domain.LedgerEvent, bool, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, false, fmt.Errorf("begin append tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Serializes appends per group for the duration of the transaction.
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, groupLockID(groupID)); err != nil {
		return nil, false, fmt.Errorf("acquire group lock: %w", err)
	}

	if idempotencyKey != "" {
		stored, found, err := r.lookupKey(ctx, tx, groupID, idempotencyKey)
		if err != nil {
			return nil, false, err
		}
		if found {
			replay := domain.LedgerEvent{
				GroupID:    groupID,
				Kind:       stored.kind,
				Seq:        stored.seq,
				RecordedAt: stored.recordedAt,
			}
			if err := replay.DecodePayload(stored.payload); err != nil {
				return nil, false, err
			}

			// A retry matches on the caller-supplied fields only; the stored
			// event carries its own id and timestamps.
			storedFingerprint, err := replay.Fingerprint()
			if err != nil {
				return nil, false, err
			}
			if !bytes.Equal(storedFingerprint, fingerprint) {
				return nil, false, fmt.Errorf("%w: key %q", domain.ErrIdempotencyConflict, idempotencyKey)
			}

			return &replay, true, nil
		}
	}

	var seq int64
	err = tx.QueryRow(ctx,
		`SELECT COALESCE(MAX(seq), 0) + 1 FROM ledger_events WHERE group_id = $1`,
		groupID,
	).Scan(&seq)
	if err != nil {
		return nil, false, fmt.Errorf("next sequence: %w", err)
	}

	query := `
		INSERT INTO ledger_events (group_id, seq, kind, payload, idempotency_key, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	var key any
	if idempotencyKey != "" {
		key = idempotencyKey
	}

	if _, err := tx.Exec(ctx, query, groupID, seq, event.Kind, payload, key, event.RecordedAt); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgErrUniqueViolation {
			return nil, false, fmt.Errorf("%w: key %q", domain.ErrIdempotencyConflict, idempotencyKey)
		}
		return nil, false, fmt.Errorf("insert event: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, false, fmt.Errorf("commit append: %w", err)
	}

	appended := *event
	appended.Seq = seq

	return &appended, false, nil
}

// ReadAll retrieves a group's events ordered by sequence number.
func (r *EventRepository) ReadAll(ctx context.Context, groupID string) ([]*domain.LedgerEvent, error) {
	return r.read(ctx, groupID, 0)
}

// ReadSince retrieves events appended strictly after seq.
func (r *EventRepository) ReadSince(ctx context.Context, groupID string, seq int64) ([]*domain.LedgerEvent, error) {
	return r.read(ctx, groupID, seq)
}

func (r *EventRepository) read(ctx context.Context, groupID string, after int64) ([]*domain.LedgerEvent, error) {
	query := `
		SELECT seq, kind, payload, recorded_at
		FROM ledger_events
		WHERE group_id = $1 AND seq > $2
		ORDER BY seq
	`

	rows, err := r.pool.Query(ctx, query, groupID, after)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := make([]*domain.LedgerEvent, 0)

	for rows.Next() {
		event := &domain.LedgerEvent{GroupID: groupID}

		var payload []byte
		if err := rows.Scan(&event.Seq, &event.Kind, &payload, &event.RecordedAt); err != nil {
			return nil, err
		}

		if err := event.DecodePayload(payload); err != nil {
			return nil, fmt.Errorf("decode event %d: %w", event.Seq, err)
		}

		events = append(events, event)
	}

	return events, rows.Err()
}

type storedEvent struct {
	seq        int64
	kind       domain.EventKind
	payload    []byte
	recordedAt time.Time
}

func (r *EventRepository) lookupKey(ctx context.Context, tx pgx.Tx, groupID, key string) (storedEvent, bool, error) {
	query := `
		SELECT seq, kind, payload, recorded_at
		FROM ledger_events
		WHERE group_id = $1 AND idempotency_key = $2
	`

	var stored storedEvent
	err := tx.QueryRow(ctx, query, groupID, key).Scan(&stored.seq, &stored.kind, &stored.payload, &stored.recordedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return storedEvent{}, false, nil
	}
	if err != nil {
		return storedEvent{}, false, err
	}

	return stored, true, nil
}

// groupLockID derives a stable advisory-lock key from the group id.
func groupLockID(groupID string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(groupID))
	return int64(h.Sum64())
}
