package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/avel/splitledger/internal/adapter/repository/memory"
	"github.com/avel/splitledger/internal/domain"
	"github.com/avel/splitledger/internal/usecase"
	"github.com/avel/splitledger/internal/usecase/mocks"
)

// seqIDGenerator hands out deterministic ids for tests.
type seqIDGenerator struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("id-%03d", g.n)
}

type ledgerFixture struct {
	uc      *usecase.LedgerUseCase
	events  *memory.EventRepository
	groups  *memory.GroupRepository
	groupID string
}

// newLedgerFixture wires the use case against in-memory repositories and a
// three-member USD group with alice as owner.
func newLedgerFixture(t *testing.T) *ledgerFixture {
	t.Helper()

	events := memory.NewEventRepository()
	groups := memory.NewGroupRepository()

	group := &domain.Group{
		ID:        "grp-1",
		Name:      "Ski Trip",
		Currency:  "USD",
		OwnerID:   "alice",
		MemberIDs: []string{"alice", "bob", "carol"},
		CreatedAt: time.Now().UTC(),
	}
	if err := groups.Create(context.Background(), group); err != nil {
		t.Fatalf("create group: %v", err)
	}

	return &ledgerFixture{
		uc:      usecase.NewLedgerUseCase(events, groups, nil, &seqIDGenerator{}, nil),
		events:  events,
		groups:  groups,
		groupID: group.ID,
	}
}

func equalExpense(title string, units int64, payer string) usecase.ExpenseInput {
	return usecase.ExpenseInput{
		Title:     title,
		Amount:    domain.NewMoney(units, "USD"),
		PayerID:   payer,
		SplitType: domain.SplitEqual,
		Participants: []domain.Participant{
			{MemberID: "alice"},
			{MemberID: "bob"},
			{MemberID: "carol"},
		},
	}
}

func TestLedgerUseCase_RecordExpense(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	expense, err := f.uc.RecordExpense(ctx, f.groupID, equalExpense("Dinner", 9000, "alice"), "")
	if err != nil {
		t.Fatalf("RecordExpense: %v", err)
	}

	if expense.ID == "" || expense.GroupID != f.groupID {
		t.Errorf("unexpected expense: %+v", expense)
	}

	if expense.Category != usecase.DefaultCategory {
		t.Errorf("empty category should default, got %q", expense.Category)
	}
}

func TestLedgerUseCase_RecordExpense_IdempotentRetry(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	input := equalExpense("Dinner", 9000, "alice")

	first, err := f.uc.RecordExpense(ctx, f.groupID, input, "retry-key")
	if err != nil {
		t.Fatalf("first RecordExpense: %v", err)
	}

	second, err := f.uc.RecordExpense(ctx, f.groupID, input, "retry-key")
	if err != nil {
		t.Fatalf("retried RecordExpense: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("retry created a new expense: %q vs %q", second.ID, first.ID)
	}

	events, _ := f.events.ReadAll(ctx, f.groupID)
	if len(events) != 1 {
		t.Errorf("retry should not append a second event, log has %d", len(events))
	}
}

func TestLedgerUseCase_RecordExpense_Errors(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	tests := []struct {
		name    string
		groupID string
		input   usecase.ExpenseInput
		wantErr error
	}{
		{
			name:    "unknown group",
			groupID: "nope",
			input:   equalExpense("Dinner", 9000, "alice"),
			wantErr: domain.ErrGroupNotFound,
		},
		{
			name:    "payer outside group",
			groupID: f.groupID,
			input:   equalExpense("Dinner", 9000, "mallory"),
			wantErr: domain.ErrMemberNotInGroup,
		},
		{
			name:    "currency mismatch",
			groupID: f.groupID,
			input: usecase.ExpenseInput{
				Title:        "Dinner",
				Amount:       domain.NewMoney(9000, "EUR"),
				PayerID:      "alice",
				SplitType:    domain.SplitEqual,
				Participants: []domain.Participant{{MemberID: "alice"}, {MemberID: "bob"}},
			},
			wantErr: domain.ErrCurrencyMismatch,
		},
		{
			name:    "exact shares off by one",
			groupID: f.groupID,
			input: usecase.ExpenseInput{
				Title:     "Dinner",
				Amount:    domain.NewMoney(1000, "USD"),
				PayerID:   "alice",
				SplitType: domain.SplitExact,
				Participants: []domain.Participant{
					{MemberID: "alice", Amount: moneyPtr(500)},
					{MemberID: "bob", Amount: moneyPtr(501)},
				},
			},
			wantErr: domain.ErrInvalidSplit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.uc.RecordExpense(ctx, tt.groupID, tt.input, "")
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("got %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func moneyPtr(units int64) *domain.Money {
	m := domain.NewMoney(units, "USD")
	return &m
}

func TestLedgerUseCase_GetBalances_EqualSplit(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	if _, err := f.uc.RecordExpense(ctx, f.groupID, equalExpense("Dinner", 9000, "alice"), ""); err != nil {
		t.Fatalf("RecordExpense: %v", err)
	}

	sheet, err := f.uc.GetBalances(ctx, f.groupID)
	if err != nil {
		t.Fatalf("GetBalances: %v", err)
	}

	want := map[string]int64{"alice": 6000, "bob": -3000, "carol": -3000}
	for member, units := range want {
		if got := sheet.NetBalance(member).Units; got != units {
			t.Errorf("net[%s] = %d, want %d", member, got, units)
		}
	}
}

func TestLedgerUseCase_SettlementLifecycle(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	if _, err := f.uc.RecordExpense(ctx, f.groupID, equalExpense("Dinner", 9000, "alice"), ""); err != nil {
		t.Fatalf("RecordExpense: %v", err)
	}

	settlement, err := f.uc.RecordSettlement(ctx, f.groupID, usecase.SettlementInput{
		PayerID: "bob",
		PayeeID: "alice",
		Amount:  domain.NewMoney(3000, "USD"),
		Method:  domain.MethodWallet,
	}, "")
	if err != nil {
		t.Fatalf("RecordSettlement: %v", err)
	}

	if settlement.Status != domain.SettlementPending {
		t.Fatalf("wallet settlement should start pending, got %s", settlement.Status)
	}

	// Pending settlements must not move balances.
	sheet, err := f.uc.GetBalances(ctx, f.groupID)
	if err != nil {
		t.Fatalf("GetBalances: %v", err)
	}
	if sheet.NetBalance("bob").Units != -3000 {
		t.Errorf("pending settlement moved bob's balance: %d", sheet.NetBalance("bob").Units)
	}

	confirmed, err := f.uc.ConfirmSettlement(ctx, f.groupID, settlement.ID)
	if err != nil {
		t.Fatalf("ConfirmSettlement: %v", err)
	}
	if confirmed.Status != domain.SettlementConfirmed || confirmed.ConfirmedAt == nil {
		t.Errorf("unexpected confirmed settlement: %+v", confirmed)
	}

	sheet, err = f.uc.GetBalances(ctx, f.groupID)
	if err != nil {
		t.Fatalf("GetBalances after confirm: %v", err)
	}
	if sheet.NetBalance("bob").Units != 0 {
		t.Errorf("confirmed settlement should zero bob, got %d", sheet.NetBalance("bob").Units)
	}
	if sheet.NetBalance("alice").Units != 3000 {
		t.Errorf("alice should still be owed by carol, got %d", sheet.NetBalance("alice").Units)
	}

	// Confirming again is a no-op and must not append another event.
	before, _ := f.events.ReadAll(ctx, f.groupID)
	if _, err := f.uc.ConfirmSettlement(ctx, f.groupID, settlement.ID); err != nil {
		t.Fatalf("repeated ConfirmSettlement: %v", err)
	}
	after, _ := f.events.ReadAll(ctx, f.groupID)
	if len(after) != len(before) {
		t.Error("repeated confirm appended an event")
	}

	// A confirmed settlement can no longer fail.
	if _, err := f.uc.FailSettlement(ctx, f.groupID, settlement.ID, "wallet timeout"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestLedgerUseCase_FailSettlement(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	settlement, err := f.uc.RecordSettlement(ctx, f.groupID, usecase.SettlementInput{
		PayerID: "bob",
		PayeeID: "alice",
		Amount:  domain.NewMoney(1000, "USD"),
		Method:  domain.MethodWallet,
	}, "")
	if err != nil {
		t.Fatalf("RecordSettlement: %v", err)
	}

	failed, err := f.uc.FailSettlement(ctx, f.groupID, settlement.ID, "wallet timeout")
	if err != nil {
		t.Fatalf("FailSettlement: %v", err)
	}

	if failed.Status != domain.SettlementFailed || failed.FailureReason != "wallet timeout" {
		t.Errorf("unexpected failed settlement: %+v", failed)
	}

	sheet, _ := f.uc.GetBalances(ctx, f.groupID)
	if sheet.NetBalance("bob").Units != 0 {
		t.Errorf("failed settlement moved money: %d", sheet.NetBalance("bob").Units)
	}

	if _, err := f.uc.ConfirmSettlement(ctx, f.groupID, settlement.ID); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition confirming failed settlement, got %v", err)
	}
}

func TestLedgerUseCase_RecordSettlement_CashConfirmsImmediately(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	settlement, err := f.uc.RecordSettlement(ctx, f.groupID, usecase.SettlementInput{
		PayerID: "carol",
		PayeeID: "alice",
		Amount:  domain.NewMoney(500, "USD"),
		Method:  domain.MethodCash,
	}, "")
	if err != nil {
		t.Fatalf("RecordSettlement: %v", err)
	}

	if settlement.Status != domain.SettlementConfirmed || settlement.ConfirmedAt == nil {
		t.Errorf("cash settlement should confirm on record: %+v", settlement)
	}
}

func TestLedgerUseCase_GetSettlementPlan(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	if _, err := f.uc.RecordExpense(ctx, f.groupID, equalExpense("Dinner", 9000, "alice"), ""); err != nil {
		t.Fatalf("RecordExpense: %v", err)
	}

	plan, err := f.uc.GetSettlementPlan(ctx, f.groupID)
	if err != nil {
		t.Fatalf("GetSettlementPlan: %v", err)
	}

	if len(plan) != 2 {
		t.Fatalf("expected 2 planned transfers, got %d", len(plan))
	}

	for _, tr := range plan {
		if tr.PayeeID != "alice" || tr.Amount.Units != 3000 {
			t.Errorf("unexpected transfer: %+v", tr)
		}
	}
}

func TestLedgerUseCase_ListExpensesAndSettlements(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	if _, err := f.uc.RecordExpense(ctx, f.groupID, equalExpense("Dinner", 9000, "alice"), ""); err != nil {
		t.Fatalf("RecordExpense: %v", err)
	}
	if _, err := f.uc.RecordExpense(ctx, f.groupID, equalExpense("Taxi", 2100, "bob"), ""); err != nil {
		t.Fatalf("RecordExpense: %v", err)
	}

	settlement, err := f.uc.RecordSettlement(ctx, f.groupID, usecase.SettlementInput{
		PayerID: "carol",
		PayeeID: "alice",
		Amount:  domain.NewMoney(1000, "USD"),
		Method:  domain.MethodWallet,
	}, "")
	if err != nil {
		t.Fatalf("RecordSettlement: %v", err)
	}
	if _, err := f.uc.ConfirmSettlement(ctx, f.groupID, settlement.ID); err != nil {
		t.Fatalf("ConfirmSettlement: %v", err)
	}

	expenses, err := f.uc.ListExpenses(ctx, f.groupID)
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(expenses) != 2 || expenses[0].Title != "Dinner" || expenses[1].Title != "Taxi" {
		t.Errorf("expenses out of order: %+v", expenses)
	}

	settlements, err := f.uc.ListSettlements(ctx, f.groupID)
	if err != nil {
		t.Fatalf("ListSettlements: %v", err)
	}
	if len(settlements) != 1 || settlements[0].Status != domain.SettlementConfirmed {
		t.Errorf("settlement status not folded from log: %+v", settlements)
	}

	got, err := f.uc.GetSettlement(ctx, f.groupID, settlement.ID)
	if err != nil {
		t.Fatalf("GetSettlement: %v", err)
	}
	if got.Status != domain.SettlementConfirmed {
		t.Errorf("GetSettlement status = %s", got.Status)
	}

	if _, err := f.uc.GetSettlement(ctx, f.groupID, "missing"); !errors.Is(err, domain.ErrSettlementNotFound) {
		t.Errorf("expected ErrSettlementNotFound, got %v", err)
	}
}

func TestLedgerUseCase_CheckConsistency(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	if _, err := f.uc.RecordExpense(ctx, f.groupID, equalExpense("Dinner", 9001, "alice"), ""); err != nil {
		t.Fatalf("RecordExpense: %v", err)
	}

	result, err := f.uc.CheckConsistency(ctx, f.groupID)
	if err != nil {
		t.Fatalf("CheckConsistency: %v", err)
	}

	if !result.Consistent || result.Total.Units != 0 {
		t.Errorf("ledger should be zero-sum: %+v", result)
	}
}

func TestLedgerUseCase_GetBalances_AppliesCachedSnapshot(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	group := &domain.Group{
		ID:        "grp-1",
		Name:      "Ski Trip",
		Currency:  "USD",
		OwnerID:   "alice",
		MemberIDs: []string{"alice", "bob", "carol"},
	}

	expense := &domain.Expense{
		ID:        "exp-1",
		GroupID:   group.ID,
		Title:     "Dinner",
		Amount:    domain.NewMoney(9000, "USD"),
		PayerID:   "alice",
		SplitType: domain.SplitEqual,
		Participants: []domain.Participant{
			{MemberID: "alice"}, {MemberID: "bob"}, {MemberID: "carol"},
		},
	}
	first := domain.NewExpenseEvent(expense)
	first.Seq = 1

	snapshot, err := domain.ComputeBalances("USD", []*domain.LedgerEvent{first})
	if err != nil {
		t.Fatalf("ComputeBalances: %v", err)
	}
	raw, _ := json.Marshal(snapshot)

	tailExpense := &domain.Expense{
		ID:        "exp-2",
		GroupID:   group.ID,
		Title:     "Taxi",
		Amount:    domain.NewMoney(3000, "USD"),
		PayerID:   "bob",
		SplitType: domain.SplitEqual,
		Participants: []domain.Participant{
			{MemberID: "alice"}, {MemberID: "bob"}, {MemberID: "carol"},
		},
	}
	tail := domain.NewExpenseEvent(tailExpense)
	tail.Seq = 2

	events := mocks.NewMockEventRepository(ctrl)
	groups := mocks.NewMockGroupRepository(ctrl)
	cache := mocks.NewMockCache(ctrl)

	groups.EXPECT().GetByID(gomock.Any(), group.ID).Return(group, nil)
	cache.EXPECT().Get(gomock.Any(), "balances:grp-1").Return(string(raw), nil)
	// Only the tail after the snapshot is read, never the full log.
	events.EXPECT().ReadSince(gomock.Any(), group.ID, int64(1)).Return([]*domain.LedgerEvent{tail}, nil)
	cache.EXPECT().Set(gomock.Any(), "balances:grp-1", gomock.Any(), usecase.BalanceCacheTTL).Return(nil)

	uc := usecase.NewLedgerUseCase(events, groups, cache, &seqIDGenerator{}, nil)

	sheet, err := uc.GetBalances(ctx, group.ID)
	if err != nil {
		t.Fatalf("GetBalances: %v", err)
	}

	if sheet.AsOfSeq != 2 {
		t.Errorf("AsOfSeq = %d, want 2", sheet.AsOfSeq)
	}
	if got := sheet.NetBalance("alice").Units; got != 5000 {
		t.Errorf("net[alice] = %d, want 5000", got)
	}
	if got := sheet.NetBalance("bob").Units; got != -1000 {
		t.Errorf("net[bob] = %d, want -1000", got)
	}
}

func TestLedgerUseCase_GetBalances_CacheErrorFallsBackToFullFold(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	group := &domain.Group{ID: "grp-1", Currency: "USD", MemberIDs: []string{"alice", "bob"}}

	events := mocks.NewMockEventRepository(ctrl)
	groups := mocks.NewMockGroupRepository(ctrl)
	cache := mocks.NewMockCache(ctrl)

	groups.EXPECT().GetByID(gomock.Any(), group.ID).Return(group, nil)
	cache.EXPECT().Get(gomock.Any(), "balances:grp-1").Return("", errors.New("redis down"))
	events.EXPECT().ReadAll(gomock.Any(), group.ID).Return(nil, nil)
	cache.EXPECT().Set(gomock.Any(), "balances:grp-1", gomock.Any(), usecase.BalanceCacheTTL).Return(errors.New("redis down"))

	uc := usecase.NewLedgerUseCase(events, groups, cache, &seqIDGenerator{}, nil)

	sheet, err := uc.GetBalances(ctx, group.ID)
	if err != nil {
		t.Fatalf("a cache outage must not fail reads: %v", err)
	}

	if sheet.AsOfSeq != 0 || len(sheet.Net) != 0 {
		t.Errorf("unexpected sheet: %+v", sheet)
	}
}

func TestLedgerUseCase_GetBalances_UnusableSnapshotEvicted(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	group := &domain.Group{ID: "grp-1", Currency: "USD", MemberIDs: []string{"alice", "bob"}}

	snapshot := &domain.BalanceSheet{Currency: "USD", AsOfSeq: 1}
	raw, _ := json.Marshal(snapshot)

	// A tail the snapshot cannot absorb forces the full-fold fallback.
	badTail := &domain.LedgerEvent{GroupID: group.ID, Kind: domain.EventKind("bogus"), Seq: 2}

	expense := &domain.Expense{
		ID:        "exp-1",
		GroupID:   group.ID,
		Title:     "Dinner",
		Amount:    domain.NewMoney(4000, "USD"),
		PayerID:   "alice",
		SplitType: domain.SplitEqual,
		Participants: []domain.Participant{
			{MemberID: "alice"}, {MemberID: "bob"},
		},
	}
	good := domain.NewExpenseEvent(expense)
	good.Seq = 1

	events := mocks.NewMockEventRepository(ctrl)
	groups := mocks.NewMockGroupRepository(ctrl)
	cache := mocks.NewMockCache(ctrl)

	groups.EXPECT().GetByID(gomock.Any(), group.ID).Return(group, nil)
	cache.EXPECT().Get(gomock.Any(), "balances:grp-1").Return(string(raw), nil)
	events.EXPECT().ReadSince(gomock.Any(), group.ID, int64(1)).Return([]*domain.LedgerEvent{badTail}, nil)
	// The snapshot is evicted so the next read does not retry it.
	cache.EXPECT().Delete(gomock.Any(), "balances:grp-1").Return(nil)
	events.EXPECT().ReadAll(gomock.Any(), group.ID).Return([]*domain.LedgerEvent{good}, nil)
	cache.EXPECT().Set(gomock.Any(), "balances:grp-1", gomock.Any(), usecase.BalanceCacheTTL).Return(nil)

	uc := usecase.NewLedgerUseCase(events, groups, cache, &seqIDGenerator{}, nil)

	sheet, err := uc.GetBalances(ctx, group.ID)
	if err != nil {
		t.Fatalf("GetBalances: %v", err)
	}

	if got := sheet.NetBalance("alice").Units; got != 2000 {
		t.Errorf("net[alice] = %d, want 2000", got)
	}
}

func TestLedgerUseCase_RecordExpense_AppendError(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)

	group := &domain.Group{ID: "grp-1", Currency: "USD", MemberIDs: []string{"alice", "bob", "carol"}}

	events := mocks.NewMockEventRepository(ctrl)
	groups := mocks.NewMockGroupRepository(ctrl)

	groups.EXPECT().GetByID(gomock.Any(), group.ID).Return(group, nil)
	events.EXPECT().Append(gomock.Any(), group.ID, gomock.Any(), "key").
		Return(nil, false, domain.ErrIdempotencyConflict)

	uc := usecase.NewLedgerUseCase(events, groups, nil, &seqIDGenerator{}, nil)

	_, err := uc.RecordExpense(ctx, group.ID, equalExpense("Dinner", 9000, "alice"), "key")
	if !errors.Is(err, domain.ErrIdempotencyConflict) {
		t.Errorf("expected ErrIdempotencyConflict, got %v", err)
	}
}

func TestLedgerUseCase_ConcurrentExpensesStayConsistent(t *testing.T) {
	ctx := context.Background()
	f := newLedgerFixture(t)

	const n = 20

	var wg sync.WaitGroup
	wg.Add(n)

	for i := range n {
		go func() {
			defer wg.Done()

			title := fmt.Sprintf("Expense %d", i)
			if _, err := f.uc.RecordExpense(ctx, f.groupID, equalExpense(title, 3000, "alice"), ""); err != nil {
				t.Errorf("RecordExpense: %v", err)
			}
		}()
	}

	wg.Wait()

	result, err := f.uc.CheckConsistency(ctx, f.groupID)
	if err != nil {
		t.Fatalf("CheckConsistency: %v", err)
	}

	if !result.Consistent || result.AsOfSeq != n {
		t.Errorf("unexpected result after concurrent appends: %+v", result)
	}
}
