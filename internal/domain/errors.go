package domain

import "errors"

var (
	// Group errors
	ErrGroupNotFound        = errors.New("group not found")
	ErrMemberNotFound       = errors.New("member not found")
	ErrMemberNotInGroup     = errors.New("member does not belong to group")
	ErrMemberAlreadyInGroup = errors.New("member already belongs to group")

	// Expense errors
	ErrInvalidAmount   = errors.New("amount must be positive")
	ErrInvalidSplit    = errors.New("split shares do not reconcile")
	ErrAmountPrecision = errors.New("amount has sub-minor-unit precision")

	// Settlement errors
	ErrSettlementNotFound = errors.New("settlement not found")
	ErrSameMember         = errors.New("cannot settle with yourself")
	ErrInvalidMethod      = errors.New("unknown settlement method")
	ErrInvalidTransition  = errors.New("settlement is already in a terminal state")

	// Money errors
	ErrCurrencyMismatch = errors.New("cannot combine amounts in different currencies")

	// Ledger store errors
	ErrIdempotencyConflict = errors.New("idempotency key reused with a different payload")
	ErrEventNotFound       = errors.New("ledger event not found")
)
