package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventKind discriminates the ledger event sum type.
type EventKind string

const (
	EventExpense             EventKind = "expense"
	EventSettlement          EventKind = "settlement"
	EventSettlementConfirmed EventKind = "settlement_confirmed"
	EventSettlementFailed    EventKind = "settlement_failed"
)

// StatusChange records a settlement transition. Status transitions are
// themselves appended events so the log stays strictly append-only;
// the materialized Settlement status is a fold over the log.
type StatusChange struct {
	SettlementID string    `json:"settlement_id"`
	Reason       string    `json:"reason,omitempty"`
	At           time.Time `json:"at"`
}

// LedgerEvent is one immutable entry in a group's append-only event log.
// Seq is the per-group, gap-free sequence number assigned on append and is
// the sole ordering key. Exactly one payload field is set, matching Kind.
type LedgerEvent struct {
	Seq          int64         `json:"seq"`
	GroupID      string        `json:"group_id"`
	Kind         EventKind     `json:"kind"`
	Expense      *Expense      `json:"expense,omitempty"`
	Settlement   *Settlement   `json:"settlement,omitempty"`
	StatusChange *StatusChange `json:"status_change,omitempty"`
	RecordedAt   time.Time     `json:"recorded_at"`
}

// NewExpenseEvent wraps an expense for appending.
func NewExpenseEvent(expense *Expense) *LedgerEvent {
	return &LedgerEvent{
		GroupID:    expense.GroupID,
		Kind:       EventExpense,
		Expense:    expense,
		RecordedAt: expense.CreatedAt,
	}
}

// NewSettlementEvent wraps a settlement for appending.
func NewSettlementEvent(settlement *Settlement) *LedgerEvent {
	return &LedgerEvent{
		GroupID:    settlement.GroupID,
		Kind:       EventSettlement,
		Settlement: settlement,
		RecordedAt: settlement.CreatedAt,
	}
}

// NewStatusEvent wraps a settlement transition for appending.
func NewStatusEvent(groupID string, kind EventKind, change *StatusChange) *LedgerEvent {
	return &LedgerEvent{
		GroupID:      groupID,
		Kind:         kind,
		StatusChange: change,
		RecordedAt:   change.At,
	}
}

// Payload returns the canonical JSON encoding of the event's payload. Used
// both for storage and for idempotency-key payload comparison.
func (e *LedgerEvent) Payload() ([]byte, error) {
	switch e.Kind {
	case EventExpense:
		return json.Marshal(e.Expense)
	case EventSettlement:
		return json.Marshal(e.Settlement)
	case EventSettlementConfirmed, EventSettlementFailed:
		return json.Marshal(e.StatusChange)
	default:
		return nil, fmt.Errorf("unknown event kind %q", e.Kind)
	}
}

type expenseFingerprint struct {
	GroupID      string        `json:"group_id"`
	Title        string        `json:"title"`
	Category     string        `json:"category"`
	Amount       Money         `json:"amount"`
	PayerID      string        `json:"payer_id"`
	SplitType    SplitType     `json:"split_type"`
	Participants []Participant `json:"participants"`
}

type settlementFingerprint struct {
	GroupID string           `json:"group_id"`
	PayerID string           `json:"payer_id"`
	PayeeID string           `json:"payee_id"`
	Amount  Money            `json:"amount"`
	Method  SettlementMethod `json:"method"`
}

// Fingerprint returns the canonical JSON encoding of the caller-supplied
// payload fields, excluding server-assigned identity and timestamps. Two
// appends under one idempotency key are a retry exactly when their
// fingerprints match; anything else is a key conflict.
func (e *LedgerEvent) Fingerprint() ([]byte, error) {
	switch e.Kind {
	case EventExpense:
		x := e.Expense
		return json.Marshal(expenseFingerprint{
			GroupID:      x.GroupID,
			Title:        x.Title,
			Category:     x.Category,
			Amount:       x.Amount,
			PayerID:      x.PayerID,
			SplitType:    x.SplitType,
			Participants: x.Participants,
		})
	case EventSettlement:
		s := e.Settlement
		return json.Marshal(settlementFingerprint{
			GroupID: s.GroupID,
			PayerID: s.PayerID,
			PayeeID: s.PayeeID,
			Amount:  s.Amount,
			Method:  s.Method,
		})
	case EventSettlementConfirmed, EventSettlementFailed:
		return json.Marshal(struct {
			SettlementID string `json:"settlement_id"`
			Reason       string `json:"reason,omitempty"`
		}{e.StatusChange.SettlementID, e.StatusChange.Reason})
	default:
		return nil, fmt.Errorf("unknown event kind %q", e.Kind)
	}
}

// DecodePayload fills the payload field matching Kind from stored JSON.
func (e *LedgerEvent) DecodePayload(data []byte) error {
	switch e.Kind {
	case EventExpense:
		e.Expense = &Expense{}
		return json.Unmarshal(data, e.Expense)
	case EventSettlement:
		e.Settlement = &Settlement{}
		return json.Unmarshal(data, e.Settlement)
	case EventSettlementConfirmed, EventSettlementFailed:
		e.StatusChange = &StatusChange{}
		return json.Unmarshal(data, e.StatusChange)
	default:
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}
}
