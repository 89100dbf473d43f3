package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// SplitType defines how an expense amount is divided among participants.
type SplitType string

const (
	SplitEqual      SplitType = "equal"
	SplitExact      SplitType = "exact"
	SplitPercentage SplitType = "percentage"
)

// Participant is one member's declared share of an expense. Amount is set
// for exact splits, Percent for percentage splits; equal splits carry
// neither.
type Participant struct {
	MemberID string           `json:"member_id"`
	Amount   *Money           `json:"amount,omitempty"`
	Percent  *decimal.Decimal `json:"percent,omitempty"`
}

// Expense represents one shared cost paid by a single member.
type Expense struct {
	ID           string        `json:"id"`
	GroupID      string        `json:"group_id"`
	Title        string        `json:"title"`
	Category     string        `json:"category"`
	Amount       Money         `json:"amount"`
	PayerID      string        `json:"payer_id"`
	SplitType    SplitType     `json:"split_type"`
	Participants []Participant `json:"participants"`
	CreatedAt    time.Time     `json:"created_at"`
}

// Share is a participant's computed owed amount.
type Share struct {
	MemberID string
	Amount   Money
}

// Validate checks the expense against its group: positive amount, currency
// match, payer and all participants in the group, and a split that
// reconciles exactly to the amount. No silent correction: declared exact
// amounts or percentages that do not sum are rejected.
func (e *Expense) Validate(group *Group) error {
	if err := ValidateTitle(e.Title); err != nil {
		return err
	}

	if !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}

	if e.Amount.Currency != group.Currency {
		return fmt.Errorf("%w: expense is %s, group is %s", ErrCurrencyMismatch, e.Amount.Currency, group.Currency)
	}

	if !group.HasMember(e.PayerID) {
		return fmt.Errorf("%w: payer %s", ErrMemberNotInGroup, e.PayerID)
	}

	if len(e.Participants) == 0 {
		return fmt.Errorf("%w: expense has no participants", ErrInvalidSplit)
	}

	seen := make(map[string]bool, len(e.Participants))
	for _, p := range e.Participants {
		if !group.HasMember(p.MemberID) {
			return fmt.Errorf("%w: participant %s", ErrMemberNotInGroup, p.MemberID)
		}

		if seen[p.MemberID] {
			return fmt.Errorf("%w: duplicate participant %s", ErrInvalidSplit, p.MemberID)
		}
		seen[p.MemberID] = true
	}

	_, err := e.Shares()

	return err
}

// Shares computes the owed amount per participant, in participant order.
// The shares always sum exactly to the expense amount.
func (e *Expense) Shares() ([]Share, error) {
	switch e.SplitType {
	case SplitEqual:
		return e.equalShares()
	case SplitExact:
		return e.exactShares()
	case SplitPercentage:
		return e.percentageShares()
	default:
		return nil, fmt.Errorf("%w: unknown split type %q", ErrInvalidSplit, e.SplitType)
	}
}

func (e *Expense) equalShares() ([]Share, error) {
	amounts, err := e.Amount.DivideEvenly(len(e.Participants))
	if err != nil {
		return nil, err
	}

	shares := make([]Share, len(e.Participants))
	for i, p := range e.Participants {
		shares[i] = Share{MemberID: p.MemberID, Amount: amounts[i]}
	}

	return shares, nil
}

func (e *Expense) exactShares() ([]Share, error) {
	shares := make([]Share, len(e.Participants))

	var total int64
	for i, p := range e.Participants {
		if p.Amount == nil {
			return nil, fmt.Errorf("%w: exact split requires an amount for %s", ErrInvalidSplit, p.MemberID)
		}

		if p.Amount.IsNegative() {
			return nil, fmt.Errorf("%w: negative share for %s", ErrInvalidSplit, p.MemberID)
		}

		if p.Amount.Currency != e.Amount.Currency {
			return nil, ErrCurrencyMismatch
		}

		shares[i] = Share{MemberID: p.MemberID, Amount: *p.Amount}
		total += p.Amount.Units
	}

	if total != e.Amount.Units {
		declared := Money{Units: total, Currency: e.Amount.Currency}

		return nil, fmt.Errorf("%w: declared shares sum to %s, expense is %s", ErrInvalidSplit, declared, e.Amount)
	}

	return shares, nil
}

func (e *Expense) percentageShares() ([]Share, error) {
	percents := make([]decimal.Decimal, len(e.Participants))
	for i, p := range e.Participants {
		if p.Percent == nil {
			return nil, fmt.Errorf("%w: percentage split requires a percentage for %s", ErrInvalidSplit, p.MemberID)
		}

		percents[i] = *p.Percent
	}

	amounts, err := e.Amount.PercentShares(percents)
	if err != nil {
		return nil, err
	}

	shares := make([]Share, len(e.Participants))
	for i, p := range e.Participants {
		shares[i] = Share{MemberID: p.MemberID, Amount: amounts[i]}
	}

	return shares, nil
}
