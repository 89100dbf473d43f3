package domain

import (
	"fmt"
	"time"
)

// SettlementMethod is the payment rail a settlement goes through.
type SettlementMethod string

const (
	MethodWallet SettlementMethod = "wallet"
	MethodBank   SettlementMethod = "bank"
	MethodCash   SettlementMethod = "cash"
	MethodOther  SettlementMethod = "other"
)

// SettlementStatus is the lifecycle state of a settlement.
// Pending -> {Confirmed, Failed}; both are terminal.
type SettlementStatus string

const (
	SettlementPending   SettlementStatus = "pending"
	SettlementConfirmed SettlementStatus = "confirmed"
	SettlementFailed    SettlementStatus = "failed"
)

// Settlement represents a payment from one member to another intended to
// reduce balances. Wallet settlements wait for an external confirmation
// callback; cash, bank and other rails are recorded already complete.
type Settlement struct {
	ID            string           `json:"id"`
	GroupID       string           `json:"group_id"`
	PayerID       string           `json:"payer_id"`
	PayeeID       string           `json:"payee_id"`
	Amount        Money            `json:"amount"`
	Method        SettlementMethod `json:"method"`
	Status        SettlementStatus `json:"status"`
	FailureReason string           `json:"failure_reason,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	ConfirmedAt   *time.Time       `json:"confirmed_at,omitempty"`
}

// InitialStatus returns the status a freshly recorded settlement starts in
// for the given rail.
func InitialStatus(method SettlementMethod) SettlementStatus {
	if method == MethodWallet {
		return SettlementPending
	}

	return SettlementConfirmed
}

// ValidMethod reports whether the method is one of the supported rails.
func ValidMethod(method SettlementMethod) bool {
	switch method {
	case MethodWallet, MethodBank, MethodCash, MethodOther:
		return true
	default:
		return false
	}
}

// Validate validates a settlement request against its group.
func (s *Settlement) Validate(group *Group) error {
	if s.PayerID == s.PayeeID {
		return ErrSameMember
	}

	if !s.Amount.IsPositive() {
		return ErrInvalidAmount
	}

	if s.Amount.Currency != group.Currency {
		return fmt.Errorf("%w: settlement is %s, group is %s", ErrCurrencyMismatch, s.Amount.Currency, group.Currency)
	}

	if !group.HasMember(s.PayerID) {
		return fmt.Errorf("%w: payer %s", ErrMemberNotInGroup, s.PayerID)
	}

	if !group.HasMember(s.PayeeID) {
		return fmt.Errorf("%w: payee %s", ErrMemberNotInGroup, s.PayeeID)
	}

	if !ValidMethod(s.Method) {
		return fmt.Errorf("%w: %q", ErrInvalidMethod, s.Method)
	}

	return nil
}

// Confirm transitions Pending -> Confirmed. Confirming an already-confirmed
// settlement is an idempotent no-op; a failed settlement cannot be revived.
// Returns true when the transition actually happened.
func (s *Settlement) Confirm(at time.Time) (bool, error) {
	switch s.Status {
	case SettlementConfirmed:
		return false, nil
	case SettlementFailed:
		return false, ErrInvalidTransition
	}

	s.Status = SettlementConfirmed
	s.ConfirmedAt = &at

	return true, nil
}

// Fail transitions Pending -> Failed. Failed is terminal.
func (s *Settlement) Fail(reason string) (bool, error) {
	switch s.Status {
	case SettlementFailed:
		return false, nil
	case SettlementConfirmed:
		return false, ErrInvalidTransition
	}

	s.Status = SettlementFailed
	s.FailureReason = reason

	return true, nil
}
