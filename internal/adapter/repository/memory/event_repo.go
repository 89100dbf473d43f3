// Package memory provides in-process repository implementations backed by
// maps and slices. They honor the same contracts as the postgres adapters
// and serve tests and the standalone (no database) run mode.
package memory

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/avel/splitledger/internal/domain"
)

type groupLog struct {
	mu     sync.RWMutex
	events []*domain.LedgerEvent
	// idempotency key -> (assigned seq, canonical fingerprint)
	keys map[string]idemRecord
}

type idemRecord struct {
	seq         int64
	fingerprint []byte
}

// EventRepository implements usecase.EventRepository in memory.
type EventRepository struct {
	mu   sync.Mutex
	logs map[string]*groupLog
}

// NewEventRepository creates an empty in-memory event store.
func NewEventRepository() *EventRepository {
	return &EventRepository{logs: make(map[string]*groupLog)}
}

func (r *EventRepository) log(groupID string) *groupLog {
	r.mu.Lock()
	defer r.mu.Unlock()

	l, ok := r.logs[groupID]
	if !ok {
		l = &groupLog{keys: make(map[string]idemRecord)}
		r.logs[groupID] = l
	}

	return l
}

// Append assigns the next per-group sequence number and stores the event.
// Idempotent retries return the originally appended event.
func (r *EventRepository) Append(ctx context.Context, groupID string, event *domain.LedgerEvent, idempotencyKey string) (*domain.LedgerEvent, bool, error) {
	fingerprint, err := event.Fingerprint()
	if err != nil {
		return nil, false, err
	}

	l := r.log(groupID)

	l.mu.Lock()
	defer l.mu.Unlock()

	if idempotencyKey != "" {
		if rec, ok := l.keys[idempotencyKey]; ok {
			if !bytes.Equal(rec.fingerprint, fingerprint) {
				return nil, false, fmt.Errorf("%w: key %q", domain.ErrIdempotencyConflict, idempotencyKey)
			}

			return l.events[rec.seq-1], true, nil
		}
	}

	stored := *event
	stored.GroupID = groupID
	stored.Seq = int64(len(l.events)) + 1
	l.events = append(l.events, &stored)

	if idempotencyKey != "" {
		l.keys[idempotencyKey] = idemRecord{seq: stored.Seq, fingerprint: fingerprint}
	}

	return &stored, false, nil
}

// ReadAll returns a group's events oldest first.
func (r *EventRepository) ReadAll(ctx context.Context, groupID string) ([]*domain.LedgerEvent, error) {
	return r.ReadSince(ctx, groupID, 0)
}

// ReadSince returns events appended strictly after seq.
func (r *EventRepository) ReadSince(ctx context.Context, groupID string, seq int64) ([]*domain.LedgerEvent, error) {
	l := r.log(groupID)

	l.mu.RLock()
	defer l.mu.RUnlock()

	if seq < 0 {
		seq = 0
	}

	if seq >= int64(len(l.events)) {
		return nil, nil
	}

	out := make([]*domain.LedgerEvent, len(l.events)-int(seq))
	copy(out, l.events[seq:])

	return out, nil
}
