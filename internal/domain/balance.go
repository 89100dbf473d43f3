package domain

import (
	"fmt"
	"sort"
)

// PairBalance is the net signed amount between two specific members.
// Pairs are stored with From < To; a positive amount means To owes From.
type PairBalance struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount Money  `json:"amount"`
}

// OpenSettlement is a pending settlement carried inside a snapshot so the
// fold can be resumed incrementally: a later confirm event applies the
// original amount.
type OpenSettlement struct {
	PayerID string `json:"payer_id"`
	PayeeID string `json:"payee_id"`
	Units   int64  `json:"units"`
}

// BalanceSheet is the derived balance state of a group as of a sequence
// number. It is a pure function of the event log, never stored as truth.
type BalanceSheet struct {
	Currency string                    `json:"currency"`
	AsOfSeq  int64                     `json:"as_of_seq"`
	Net      map[string]Money          `json:"net"`
	Pairwise []PairBalance             `json:"pairwise"`
	Open     map[string]OpenSettlement `json:"open,omitempty"`
}

// NetBalance returns a member's net balance, zero if the member never
// appeared in an event.
func (b *BalanceSheet) NetBalance(memberID string) Money {
	if m, ok := b.Net[memberID]; ok {
		return m
	}

	return Money{Currency: b.Currency}
}

// ComputeBalances folds an event log, oldest first, into net and pairwise
// balances. Only confirmed settlements move money: a settlement recorded
// pending contributes nothing until its confirm event appears. The fold is
// deterministic: events are processed strictly in sequence-number order.
func ComputeBalances(currency string, events []*LedgerEvent) (*BalanceSheet, error) {
	f := newBalanceFold(currency)

	if err := f.apply(events); err != nil {
		return nil, err
	}

	return f.sheet(), nil
}

// Apply extends a snapshot with events appended after AsOfSeq and returns
// the updated sheet. The receiver is not modified.
func (b *BalanceSheet) Apply(events []*LedgerEvent) (*BalanceSheet, error) {
	f := foldFromSheet(b)

	if err := f.apply(events); err != nil {
		return nil, err
	}

	return f.sheet(), nil
}

type pairKey struct {
	from, to string
}

type balanceFold struct {
	currency string
	asOfSeq  int64
	net      map[string]int64
	pair     map[pairKey]int64
	open     map[string]OpenSettlement
}

func newBalanceFold(currency string) *balanceFold {
	return &balanceFold{
		currency: currency,
		net:      make(map[string]int64),
		pair:     make(map[pairKey]int64),
		open:     make(map[string]OpenSettlement),
	}
}

func foldFromSheet(b *BalanceSheet) *balanceFold {
	f := newBalanceFold(b.Currency)
	f.asOfSeq = b.AsOfSeq

	for id, m := range b.Net {
		f.net[id] = m.Units
	}

	for _, p := range b.Pairwise {
		f.pair[pairKey{from: p.From, to: p.To}] = p.Amount.Units
	}

	for id, s := range b.Open {
		f.open[id] = s
	}

	return f
}

func (f *balanceFold) apply(events []*LedgerEvent) error {
	for _, ev := range events {
		if err := f.applyOne(ev); err != nil {
			return fmt.Errorf("event %d: %w", ev.Seq, err)
		}

		f.asOfSeq = ev.Seq
	}

	return nil
}

func (f *balanceFold) applyOne(ev *LedgerEvent) error {
	switch ev.Kind {
	case EventExpense:
		return f.applyExpense(ev.Expense)
	case EventSettlement:
		return f.applySettlement(ev.Settlement)
	case EventSettlementConfirmed:
		f.confirmSettlement(ev.StatusChange.SettlementID)
		return nil
	case EventSettlementFailed:
		// A failed settlement never moved money; just close it out.
		delete(f.open, ev.StatusChange.SettlementID)
		return nil
	default:
		return fmt.Errorf("unknown event kind %q", ev.Kind)
	}
}

func (f *balanceFold) applyExpense(e *Expense) error {
	shares, err := e.Shares()
	if err != nil {
		return err
	}

	// The payer fronted the whole amount; each participant owes their share.
	f.net[e.PayerID] += e.Amount.Units

	for _, s := range shares {
		f.net[s.MemberID] -= s.Amount.Units

		if s.MemberID != e.PayerID {
			f.addPair(e.PayerID, s.MemberID, s.Amount.Units)
		}
	}

	return nil
}

func (f *balanceFold) applySettlement(s *Settlement) error {
	switch s.Status {
	case SettlementConfirmed:
		f.transfer(s.PayerID, s.PayeeID, s.Amount.Units)
	case SettlementPending:
		f.open[s.ID] = OpenSettlement{PayerID: s.PayerID, PayeeID: s.PayeeID, Units: s.Amount.Units}
	case SettlementFailed:
		// Recorded directly failed: no money moved.
	default:
		return fmt.Errorf("unknown settlement status %q", s.Status)
	}

	return nil
}

// confirmSettlement applies the original amount of a pending settlement.
// A confirm for a settlement that is not open is skipped: either the
// settlement was recorded already confirmed, or two writers raced the same
// confirmation and a duplicate event landed in the log. Skipping keeps the
// transfer applied exactly once.
func (f *balanceFold) confirmSettlement(id string) {
	s, ok := f.open[id]
	if !ok {
		return
	}

	delete(f.open, id)
	f.transfer(s.PayerID, s.PayeeID, s.Units)
}

// transfer applies a confirmed payment: the payer handed over money, so
// their net moves up toward zero and the payee's moves down.
func (f *balanceFold) transfer(payerID, payeeID string, units int64) {
	f.net[payerID] += units
	f.net[payeeID] -= units
	f.addPair(payerID, payeeID, units)
}

// addPair records that owed is owed units by owing, normalizing the key so
// the lexicographically smaller member id is always From.
func (f *balanceFold) addPair(owed, owing string, units int64) {
	if owed < owing {
		f.pair[pairKey{from: owed, to: owing}] += units
	} else {
		f.pair[pairKey{from: owing, to: owed}] -= units
	}
}

func (f *balanceFold) sheet() *BalanceSheet {
	net := make(map[string]Money, len(f.net))
	for id, units := range f.net {
		net[id] = Money{Units: units, Currency: f.currency}
	}

	pairwise := make([]PairBalance, 0, len(f.pair))
	for k, units := range f.pair {
		if units == 0 {
			continue
		}

		pairwise = append(pairwise, PairBalance{
			From:   k.from,
			To:     k.to,
			Amount: Money{Units: units, Currency: f.currency},
		})
	}

	sort.Slice(pairwise, func(i, j int) bool {
		if pairwise[i].From != pairwise[j].From {
			return pairwise[i].From < pairwise[j].From
		}

		return pairwise[i].To < pairwise[j].To
	})

	var open map[string]OpenSettlement
	if len(f.open) > 0 {
		open = make(map[string]OpenSettlement, len(f.open))
		for id, s := range f.open {
			open[id] = s
		}
	}

	return &BalanceSheet{
		Currency: f.currency,
		AsOfSeq:  f.asOfSeq,
		Net:      net,
		Pairwise: pairwise,
		Open:     open,
	}
}
