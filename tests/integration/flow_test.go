package integration

import (
	"context"
	"testing"

	"github.com/avel/splitledger/internal/adapter/repository/postgres"
	"github.com/avel/splitledger/internal/domain"
	"github.com/avel/splitledger/internal/usecase"
	"github.com/avel/splitledger/tests/testutil"
)

func TestFullSettlementFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	eventRepo := postgres.NewEventRepository(testDB.Pool, nil)
	groupRepo := postgres.NewGroupRepository(testDB.Pool)
	idGen := postgres.NewULIDGenerator()

	ledgerUC := usecase.NewLedgerUseCase(eventRepo, groupRepo, nil, idGen, nil)

	alice := testDB.CreateTestMember(ctx, "Alice")
	bob := testDB.CreateTestMember(ctx, "Bob")
	carol := testDB.CreateTestMember(ctx, "Carol")
	group := testDB.CreateTestGroup(ctx, "Ski Trip", "USD", alice, bob, carol)

	// Alice fronts 90.00, split equally.
	_, err := ledgerUC.RecordExpense(ctx, group.ID, usecase.ExpenseInput{
		Title:     "Dinner",
		Amount:    domain.NewMoney(9000, "USD"),
		PayerID:   alice.ID,
		SplitType: domain.SplitEqual,
		Participants: []domain.Participant{
			{MemberID: alice.ID},
			{MemberID: bob.ID},
			{MemberID: carol.ID},
		},
	}, "")
	if err != nil {
		t.Fatalf("RecordExpense: %v", err)
	}

	sheet, err := ledgerUC.GetBalances(ctx, group.ID)
	if err != nil {
		t.Fatalf("GetBalances: %v", err)
	}

	if sheet.Net[alice.ID].Units != 6000 {
		t.Fatalf("expected alice +6000, got %d", sheet.Net[alice.ID].Units)
	}

	plan, err := ledgerUC.GetSettlementPlan(ctx, group.ID)
	if err != nil {
		t.Fatalf("GetSettlementPlan: %v", err)
	}

	if len(plan) != 2 {
		t.Fatalf("expected 2 planned transfers, got %d", len(plan))
	}

	// Execute the plan: each debtor settles in full, wallet rail.
	for _, tr := range plan {
		settlement, err := ledgerUC.RecordSettlement(ctx, group.ID, usecase.SettlementInput{
			PayerID: tr.PayerID,
			PayeeID: tr.PayeeID,
			Amount:  tr.Amount,
			Method:  domain.MethodWallet,
		}, "")
		if err != nil {
			t.Fatalf("RecordSettlement: %v", err)
		}

		if settlement.Status != domain.SettlementPending {
			t.Fatalf("wallet settlement should start pending, got %s", settlement.Status)
		}

		if _, err := ledgerUC.ConfirmSettlement(ctx, group.ID, settlement.ID); err != nil {
			t.Fatalf("ConfirmSettlement: %v", err)
		}
	}

	sheet, err = ledgerUC.GetBalances(ctx, group.ID)
	if err != nil {
		t.Fatalf("GetBalances after settling: %v", err)
	}

	for memberID, net := range sheet.Net {
		if !net.IsZero() {
			t.Errorf("expected %s settled to zero, got %d", memberID, net.Units)
		}
	}

	result, err := ledgerUC.CheckConsistency(ctx, group.ID)
	if err != nil {
		t.Fatalf("CheckConsistency: %v", err)
	}

	if !result.Consistent {
		t.Errorf("expected consistent ledger, total %d", result.Total.Units)
	}
}

func TestFailedSettlementLeavesDebt(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()
	testDB.TruncateAll(ctx)

	eventRepo := postgres.NewEventRepository(testDB.Pool, nil)
	groupRepo := postgres.NewGroupRepository(testDB.Pool)
	idGen := postgres.NewULIDGenerator()

	ledgerUC := usecase.NewLedgerUseCase(eventRepo, groupRepo, nil, idGen, nil)

	alice := testDB.CreateTestMember(ctx, "Alice")
	bob := testDB.CreateTestMember(ctx, "Bob")
	group := testDB.CreateTestGroup(ctx, "Road Trip", "EUR", alice, bob)

	_, err := ledgerUC.RecordExpense(ctx, group.ID, usecase.ExpenseInput{
		Title:     "Fuel",
		Amount:    domain.NewMoney(4000, "EUR"),
		PayerID:   alice.ID,
		SplitType: domain.SplitEqual,
		Participants: []domain.Participant{
			{MemberID: alice.ID},
			{MemberID: bob.ID},
		},
	}, "")
	if err != nil {
		t.Fatalf("RecordExpense: %v", err)
	}

	settlement, err := ledgerUC.RecordSettlement(ctx, group.ID, usecase.SettlementInput{
		PayerID: bob.ID,
		PayeeID: alice.ID,
		Amount:  domain.NewMoney(2000, "EUR"),
		Method:  domain.MethodWallet,
	}, "")
	if err != nil {
		t.Fatalf("RecordSettlement: %v", err)
	}

	if _, err := ledgerUC.FailSettlement(ctx, group.ID, settlement.ID, "card declined"); err != nil {
		t.Fatalf("FailSettlement: %v", err)
	}

	sheet, err := ledgerUC.GetBalances(ctx, group.ID)
	if err != nil {
		t.Fatalf("GetBalances: %v", err)
	}

	if sheet.Net[bob.ID].Units != -2000 {
		t.Errorf("failed settlement must not move money, bob net = %d", sheet.Net[bob.ID].Units)
	}

	got, err := ledgerUC.GetSettlement(ctx, group.ID, settlement.ID)
	if err != nil {
		t.Fatalf("GetSettlement: %v", err)
	}

	if got.Status != domain.SettlementFailed || got.FailureReason != "card declined" {
		t.Errorf("expected failed settlement with reason, got %s %q", got.Status, got.FailureReason)
	}
}
