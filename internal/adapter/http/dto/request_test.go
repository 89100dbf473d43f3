package dto_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avel/splitledger/internal/adapter/http/dto"
	"github.com/avel/splitledger/internal/domain"
)

func TestRecordExpenseRequestToUseCaseInput(t *testing.T) {
	share := decimal.RequireFromString("22.75")
	req := dto.RecordExpenseRequest{
		Title:     "Dinner",
		Amount:    decimal.RequireFromString("45.50"),
		Currency:  "USD",
		PayerID:   "alice",
		SplitType: "exact",
		Participants: []dto.ParticipantItem{
			{MemberID: "alice", Amount: &share},
			{MemberID: "bob", Amount: &share},
		},
	}

	input, err := req.ToUseCaseInput()
	require.NoError(t, err)

	assert.Equal(t, int64(4550), input.Amount.Units)
	assert.Equal(t, "USD", input.Amount.Currency)
	assert.Equal(t, domain.SplitExact, input.SplitType)

	require.Len(t, input.Participants, 2)
	require.NotNil(t, input.Participants[0].Amount)
	assert.Equal(t, int64(2275), input.Participants[0].Amount.Units)
}

func TestRecordExpenseRequestRejectsSubMinorPrecision(t *testing.T) {
	req := dto.RecordExpenseRequest{
		Title:     "Dinner",
		Amount:    decimal.RequireFromString("10.005"),
		Currency:  "USD",
		PayerID:   "alice",
		SplitType: "equal",
		Participants: []dto.ParticipantItem{
			{MemberID: "alice"},
		},
	}

	_, err := req.ToUseCaseInput()
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAmountPrecision), "got %v", err)
}

func TestRecordExpenseRequestZeroDecimalCurrency(t *testing.T) {
	req := dto.RecordExpenseRequest{
		Title:     "Ramen",
		Amount:    decimal.RequireFromString("1200"),
		Currency:  "JPY",
		PayerID:   "alice",
		SplitType: "equal",
		Participants: []dto.ParticipantItem{
			{MemberID: "alice"},
		},
	}

	input, err := req.ToUseCaseInput()
	require.NoError(t, err)
	assert.Equal(t, int64(1200), input.Amount.Units)
}

func TestRecordSettlementRequestToUseCaseInput(t *testing.T) {
	req := dto.RecordSettlementRequest{
		PayerID:  "bob",
		PayeeID:  "alice",
		Amount:   decimal.RequireFromString("30.00"),
		Currency: "USD",
		Method:   "wallet",
	}

	input, err := req.ToUseCaseInput()
	require.NoError(t, err)

	assert.Equal(t, int64(3000), input.Amount.Units)
	assert.Equal(t, domain.MethodWallet, input.Method)
}
