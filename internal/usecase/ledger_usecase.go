package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/avel/splitledger/internal/domain"
	"github.com/avel/splitledger/internal/infrastructure/metrics"
)

// LedgerUseCase is the ledger service: it owns all writes to a group's
// event log, derives balances from it and produces settlement plans.
type LedgerUseCase struct {
	events  EventRepository
	groups  GroupRepository
	cache   Cache
	idGen   IDGenerator
	metrics *metrics.Metrics
	locks   *groupLocks
}

// NewLedgerUseCase creates a new LedgerUseCase. cache and metrics may be
// nil; without a cache every balance read folds the full event log.
func NewLedgerUseCase(events EventRepository, groups GroupRepository, cache Cache, idGen IDGenerator, m *metrics.Metrics) *LedgerUseCase {
	return &LedgerUseCase{
		events:  events,
		groups:  groups,
		cache:   cache,
		idGen:   idGen,
		metrics: m,
		locks:   newGroupLocks(),
	}
}

// ExpenseInput represents input for recording an expense.
type ExpenseInput struct {
	Title        string
	Category     string
	Amount       domain.Money
	PayerID      string
	SplitType    domain.SplitType
	Participants []domain.Participant
}

// SettlementInput represents input for recording a settlement.
type SettlementInput struct {
	PayerID string
	PayeeID string
	Amount  domain.Money
	Method  domain.SettlementMethod
}

// RecordExpense validates and appends a shared expense. A retry with the
// same idempotency key returns the originally created expense without
// appending a second event.
func (uc *LedgerUseCase) RecordExpense(ctx context.Context, groupID string, input ExpenseInput, idempotencyKey string) (*domain.Expense, error) {
	group, err := uc.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	category := input.Category
	if category == "" {
		category = DefaultCategory
	}

	expense := &domain.Expense{
		ID:           uc.idGen.Generate(),
		GroupID:      groupID,
		Title:        input.Title,
		Category:     category,
		Amount:       input.Amount,
		PayerID:      input.PayerID,
		SplitType:    input.SplitType,
		Participants: input.Participants,
		CreatedAt:    time.Now().UTC(),
	}

	if err := expense.Validate(group); err != nil {
		return nil, err
	}

	unlock := uc.locks.Acquire(groupID)
	defer unlock()

	start := time.Now()

	appended, _, err := uc.events.Append(ctx, groupID, domain.NewExpenseEvent(expense), idempotencyKey)
	if err != nil {
		uc.countConflict(err)
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.ExpensesRecorded.Inc()
		uc.metrics.EventsAppended.WithLabelValues(string(domain.EventExpense)).Inc()
		uc.metrics.ExpenseAmount.Observe(float64(expense.Amount.Units))
		uc.metrics.AppendDuration.Observe(time.Since(start).Seconds())
	}

	// On replay the stored event carries the original expense, id included.
	return appended.Expense, nil
}

// RecordSettlement validates and appends a settlement. Wallet settlements
// start pending and wait for an external confirmation callback; cash, bank
// and other rails are recorded already confirmed.
func (uc *LedgerUseCase) RecordSettlement(ctx context.Context, groupID string, input SettlementInput, idempotencyKey string) (*domain.Settlement, error) {
	group, err := uc.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	settlement := &domain.Settlement{
		ID:        uc.idGen.Generate(),
		GroupID:   groupID,
		PayerID:   input.PayerID,
		PayeeID:   input.PayeeID,
		Amount:    input.Amount,
		Method:    input.Method,
		Status:    domain.InitialStatus(input.Method),
		CreatedAt: now,
	}

	if settlement.Status == domain.SettlementConfirmed {
		settlement.ConfirmedAt = &now
	}

	if err := settlement.Validate(group); err != nil {
		return nil, err
	}

	unlock := uc.locks.Acquire(groupID)
	defer unlock()

	appended, _, err := uc.events.Append(ctx, groupID, domain.NewSettlementEvent(settlement), idempotencyKey)
	if err != nil {
		uc.countConflict(err)
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.SettlementsRecorded.Inc()
		uc.metrics.EventsAppended.WithLabelValues(string(domain.EventSettlement)).Inc()
	}

	return appended.Settlement, nil
}

// ConfirmSettlement transitions a pending settlement to confirmed by
// appending a confirmation event. Confirming an already-confirmed
// settlement succeeds without appending anything.
func (uc *LedgerUseCase) ConfirmSettlement(ctx context.Context, groupID, settlementID string) (*domain.Settlement, error) {
	if _, err := uc.groups.GetByID(ctx, groupID); err != nil {
		return nil, err
	}

	unlock := uc.locks.Acquire(groupID)
	defer unlock()

	settlement, err := uc.materializeSettlement(ctx, groupID, settlementID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	changed, err := settlement.Confirm(now)
	if err != nil {
		return nil, err
	}

	if !changed {
		return settlement, nil
	}

	change := &domain.StatusChange{SettlementID: settlementID, At: now}
	if _, _, err := uc.events.Append(ctx, groupID, domain.NewStatusEvent(groupID, domain.EventSettlementConfirmed, change), ""); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.SettlementsConfirmed.Inc()
		uc.metrics.EventsAppended.WithLabelValues(string(domain.EventSettlementConfirmed)).Inc()
	}

	return settlement, nil
}

// FailSettlement transitions a pending settlement to failed. Failed is
// terminal: the settlement never moves money.
func (uc *LedgerUseCase) FailSettlement(ctx context.Context, groupID, settlementID, reason string) (*domain.Settlement, error) {
	if _, err := uc.groups.GetByID(ctx, groupID); err != nil {
		return nil, err
	}

	unlock := uc.locks.Acquire(groupID)
	defer unlock()

	settlement, err := uc.materializeSettlement(ctx, groupID, settlementID)
	if err != nil {
		return nil, err
	}

	changed, err := settlement.Fail(reason)
	if err != nil {
		return nil, err
	}

	if !changed {
		return settlement, nil
	}

	change := &domain.StatusChange{SettlementID: settlementID, Reason: reason, At: time.Now().UTC()}
	if _, _, err := uc.events.Append(ctx, groupID, domain.NewStatusEvent(groupID, domain.EventSettlementFailed, change), ""); err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.SettlementsFailed.Inc()
		uc.metrics.EventsAppended.WithLabelValues(string(domain.EventSettlementFailed)).Inc()
	}

	return settlement, nil
}

// GetBalances derives the group's net and pairwise balances. A cached
// snapshot, when present, seeds the fold; only events appended after the
// snapshot are read and applied.
func (uc *LedgerUseCase) GetBalances(ctx context.Context, groupID string) (*domain.BalanceSheet, error) {
	group, err := uc.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if snapshot := uc.cachedSheet(ctx, groupID); snapshot != nil {
		if uc.metrics != nil {
			uc.metrics.BalanceCacheHits.Inc()
		}

		tail, err := uc.events.ReadSince(ctx, groupID, snapshot.AsOfSeq)
		if err != nil {
			return nil, err
		}

		sheet, err := snapshot.Apply(tail)
		if err == nil {
			uc.storeSheet(ctx, groupID, sheet)
			return sheet, nil
		}

		// Corrupt or incompatible snapshot: drop it so the next read does
		// not retry it, then fall through to a full fold.
		uc.dropSheet(ctx, groupID)
	} else if uc.cache != nil && uc.metrics != nil {
		uc.metrics.BalanceCacheMisses.Inc()
	}

	events, err := uc.events.ReadAll(ctx, groupID)
	if err != nil {
		return nil, err
	}

	sheet, err := domain.ComputeBalances(group.Currency, events)
	if err != nil {
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.BalanceComputations.Inc()
	}

	uc.storeSheet(ctx, groupID, sheet)

	return sheet, nil
}

// GetSettlementPlan computes the suggested payments that settle the group.
func (uc *LedgerUseCase) GetSettlementPlan(ctx context.Context, groupID string) ([]domain.PlannedTransfer, error) {
	sheet, err := uc.GetBalances(ctx, groupID)
	if err != nil {
		return nil, err
	}

	plan := domain.PlanSettlements(sheet.Net)

	if uc.metrics != nil {
		uc.metrics.PlansComputed.Inc()
		uc.metrics.PlanTransferCount.Observe(float64(len(plan)))
	}

	return plan, nil
}

// ListExpenses returns the group's expenses in ledger order, oldest first.
func (uc *LedgerUseCase) ListExpenses(ctx context.Context, groupID string) ([]*domain.Expense, error) {
	if _, err := uc.groups.GetByID(ctx, groupID); err != nil {
		return nil, err
	}

	events, err := uc.events.ReadAll(ctx, groupID)
	if err != nil {
		return nil, err
	}

	expenses := make([]*domain.Expense, 0)
	for _, ev := range events {
		if ev.Kind == domain.EventExpense {
			expenses = append(expenses, ev.Expense)
		}
	}

	return expenses, nil
}

// ListSettlements returns the group's settlements, oldest first, with their
// current status folded from the log.
func (uc *LedgerUseCase) ListSettlements(ctx context.Context, groupID string) ([]*domain.Settlement, error) {
	if _, err := uc.groups.GetByID(ctx, groupID); err != nil {
		return nil, err
	}

	events, err := uc.events.ReadAll(ctx, groupID)
	if err != nil {
		return nil, err
	}

	return materializeSettlements(events), nil
}

// GetSettlement returns one settlement with its current status.
func (uc *LedgerUseCase) GetSettlement(ctx context.Context, groupID, settlementID string) (*domain.Settlement, error) {
	if _, err := uc.groups.GetByID(ctx, groupID); err != nil {
		return nil, err
	}

	return uc.materializeSettlement(ctx, groupID, settlementID)
}

// ConsistencyResult reports whether a group's ledger is internally
// consistent: net balances over a shared pool must always sum to zero.
type ConsistencyResult struct {
	GroupID    string       `json:"group_id"`
	Consistent bool         `json:"consistent"`
	AsOfSeq    int64        `json:"as_of_seq"`
	Total      domain.Money `json:"total"`
	CheckedAt  time.Time    `json:"checked_at"`
}

// CheckConsistency verifies the zero-sum invariant over current balances.
func (uc *LedgerUseCase) CheckConsistency(ctx context.Context, groupID string) (*ConsistencyResult, error) {
	sheet, err := uc.GetBalances(ctx, groupID)
	if err != nil {
		return nil, err
	}

	total := domain.Money{Currency: sheet.Currency}
	for _, m := range sheet.Net {
		total.Units += m.Units
	}

	return &ConsistencyResult{
		GroupID:    groupID,
		Consistent: total.IsZero(),
		AsOfSeq:    sheet.AsOfSeq,
		Total:      total,
		CheckedAt:  time.Now().UTC(),
	}, nil
}

func (uc *LedgerUseCase) materializeSettlement(ctx context.Context, groupID, settlementID string) (*domain.Settlement, error) {
	events, err := uc.events.ReadAll(ctx, groupID)
	if err != nil {
		return nil, err
	}

	for _, s := range materializeSettlements(events) {
		if s.ID == settlementID {
			return s, nil
		}
	}

	return nil, fmt.Errorf("%w: %s", domain.ErrSettlementNotFound, settlementID)
}

// materializeSettlements folds settlement status events into current
// settlement states, preserving record order.
func materializeSettlements(events []*domain.LedgerEvent) []*domain.Settlement {
	var out []*domain.Settlement

	byID := make(map[string]*domain.Settlement)

	for _, ev := range events {
		switch ev.Kind {
		case domain.EventSettlement:
			s := *ev.Settlement
			byID[s.ID] = &s
			out = append(out, &s)
		case domain.EventSettlementConfirmed:
			if s, ok := byID[ev.StatusChange.SettlementID]; ok {
				s.Status = domain.SettlementConfirmed
				at := ev.StatusChange.At
				s.ConfirmedAt = &at
			}
		case domain.EventSettlementFailed:
			if s, ok := byID[ev.StatusChange.SettlementID]; ok {
				s.Status = domain.SettlementFailed
				s.FailureReason = ev.StatusChange.Reason
			}
		}
	}

	return out
}

func (uc *LedgerUseCase) countConflict(err error) {
	if uc.metrics != nil && errors.Is(err, domain.ErrIdempotencyConflict) {
		uc.metrics.AppendConflicts.Inc()
	}
}

func balanceCacheKey(groupID string) string {
	return "balances:" + groupID
}

// cachedSheet returns the cached snapshot, or nil on miss or any cache
// error. The cache is an optimization only; it never gates correctness.
func (uc *LedgerUseCase) cachedSheet(ctx context.Context, groupID string) *domain.BalanceSheet {
	if uc.cache == nil {
		return nil
	}

	raw, err := uc.cache.Get(ctx, balanceCacheKey(groupID))
	if err != nil || raw == "" {
		return nil
	}

	var sheet domain.BalanceSheet
	if err := json.Unmarshal([]byte(raw), &sheet); err != nil {
		return nil
	}

	return &sheet
}

func (uc *LedgerUseCase) storeSheet(ctx context.Context, groupID string, sheet *domain.BalanceSheet) {
	if uc.cache == nil {
		return
	}

	raw, err := json.Marshal(sheet)
	if err != nil {
		return
	}

	// Best effort: a failed write just means the next read folds more events.
	_ = uc.cache.Set(ctx, balanceCacheKey(groupID), string(raw), BalanceCacheTTL)
}

// dropSheet evicts a snapshot the fold could not extend.
func (uc *LedgerUseCase) dropSheet(ctx context.Context, groupID string) {
	if uc.cache == nil {
		return
	}

	_ = uc.cache.Delete(ctx, balanceCacheKey(groupID))
}
