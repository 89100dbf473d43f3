package dto

import (
	"github.com/shopspring/decimal"

	"github.com/avel/splitledger/internal/domain"
	"github.com/avel/splitledger/internal/usecase"
)

// CreateMemberRequest represents a request to create a member.
type CreateMemberRequest struct {
	DisplayName   string  `json:"display_name"`
	WalletAddress *string `json:"wallet_address,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateMemberRequest) ToUseCaseInput() usecase.CreateMemberInput {
	return usecase.CreateMemberInput{
		DisplayName:   r.DisplayName,
		WalletAddress: r.WalletAddress,
	}
}

// UpdateMemberRequest represents a display-name change.
type UpdateMemberRequest struct {
	DisplayName string `json:"display_name"`
}

// CreateGroupRequest represents a request to create a group.
type CreateGroupRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Currency    string `json:"currency"`
	OwnerID     string `json:"owner_id"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateGroupRequest) ToUseCaseInput() usecase.CreateGroupInput {
	return usecase.CreateGroupInput{
		Name:        r.Name,
		Description: r.Description,
		Currency:    r.Currency,
		OwnerID:     r.OwnerID,
	}
}

// AddMemberRequest represents a request to add a member to a group.
type AddMemberRequest struct {
	MemberID string `json:"member_id"`
}

// ParticipantItem is one participant's declared share in a request.
// Amount is used by exact splits, Percent by percentage splits.
type ParticipantItem struct {
	MemberID string           `json:"member_id"`
	Amount   *decimal.Decimal `json:"amount,omitempty"`
	Percent  *decimal.Decimal `json:"percent,omitempty"`
}

// RecordExpenseRequest represents a request to record a shared expense.
type RecordExpenseRequest struct {
	Title        string            `json:"title"`
	Category     string            `json:"category,omitempty"`
	Amount       decimal.Decimal   `json:"amount"`
	Currency     string            `json:"currency"`
	PayerID      string            `json:"payer_id"`
	SplitType    string            `json:"split_type"`
	Participants []ParticipantItem `json:"participants"`
}

// ToUseCaseInput converts to use case input. Decimal amounts are converted
// to minor units here; sub-minor precision fails the conversion.
func (r *RecordExpenseRequest) ToUseCaseInput() (usecase.ExpenseInput, error) {
	amount, err := domain.NewMoneyFromDecimal(r.Amount, r.Currency)
	if err != nil {
		return usecase.ExpenseInput{}, err
	}

	participants := make([]domain.Participant, len(r.Participants))
	for i, p := range r.Participants {
		participant := domain.Participant{MemberID: p.MemberID, Percent: p.Percent}

		if p.Amount != nil {
			share, err := domain.NewMoneyFromDecimal(*p.Amount, r.Currency)
			if err != nil {
				return usecase.ExpenseInput{}, err
			}
			participant.Amount = &share
		}

		participants[i] = participant
	}

	return usecase.ExpenseInput{
		Title:        r.Title,
		Category:     r.Category,
		Amount:       amount,
		PayerID:      r.PayerID,
		SplitType:    domain.SplitType(r.SplitType),
		Participants: participants,
	}, nil
}

// RecordSettlementRequest represents a request to record a settlement.
type RecordSettlementRequest struct {
	PayerID  string          `json:"payer_id"`
	PayeeID  string          `json:"payee_id"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Method   string          `json:"method"`
}

// ToUseCaseInput converts to use case input.
func (r *RecordSettlementRequest) ToUseCaseInput() (usecase.SettlementInput, error) {
	amount, err := domain.NewMoneyFromDecimal(r.Amount, r.Currency)
	if err != nil {
		return usecase.SettlementInput{}, err
	}

	return usecase.SettlementInput{
		PayerID: r.PayerID,
		PayeeID: r.PayeeID,
		Amount:  amount,
		Method:  domain.SettlementMethod(r.Method),
	}, nil
}

// FailSettlementRequest carries the reason a settlement failed.
type FailSettlementRequest struct {
	Reason string `json:"reason,omitempty"`
}
