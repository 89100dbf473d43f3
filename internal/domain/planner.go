package domain

import "sort"

// PlannedTransfer is one suggested payment in a settlement plan.
type PlannedTransfer struct {
	PayerID string `json:"payer_id"`
	PayeeID string `json:"payee_id"`
	Amount  Money  `json:"amount"`
}

// PlanSettlements computes a settlement plan from net balances: an ordered
// list of payments that drives every member's net balance to exactly zero.
//
// The algorithm is greedy debt simplification: repeatedly match the largest
// creditor with the largest debtor and settle the smaller of the two
// amounts. Ties are broken by member id ascending so plans are
// deterministic. The greedy pairing emits at most max(creditors, debtors)
// transactions, which is minimal for the common case; the strict
// graph-theoretic minimum is a harder matching problem and is intentionally
// not attempted here.
//
// Termination is guaranteed because balances are integer minor units and
// always sum to zero: every iteration zeroes at least one side.
func PlanSettlements(net map[string]Money) []PlannedTransfer {
	type entry struct {
		memberID string
		units    int64
	}

	var creditors, debtors []entry

	currency := ""
	for id, m := range net {
		currency = m.Currency

		switch {
		case m.Units > 0:
			creditors = append(creditors, entry{memberID: id, units: m.Units})
		case m.Units < 0:
			debtors = append(debtors, entry{memberID: id, units: -m.Units})
		}
	}

	byOwed := func(s []entry) func(i, j int) bool {
		return func(i, j int) bool {
			if s[i].units != s[j].units {
				return s[i].units > s[j].units
			}

			return s[i].memberID < s[j].memberID
		}
	}

	sort.Slice(creditors, byOwed(creditors))
	sort.Slice(debtors, byOwed(debtors))

	var plan []PlannedTransfer

	for len(creditors) > 0 && len(debtors) > 0 {
		c := &creditors[0]
		d := &debtors[0]

		settled := min(c.units, d.units)

		plan = append(plan, PlannedTransfer{
			PayerID: d.memberID,
			PayeeID: c.memberID,
			Amount:  Money{Units: settled, Currency: currency},
		})

		c.units -= settled
		d.units -= settled

		if c.units == 0 {
			creditors = creditors[1:]
		}

		if d.units == 0 {
			debtors = debtors[1:]
		}

		sort.Slice(creditors, byOwed(creditors))
		sort.Slice(debtors, byOwed(debtors))
	}

	return plan
}

// ApplyPlan returns the net balances after executing every transfer in the
// plan. Used to verify that a plan settles a group completely.
func ApplyPlan(net map[string]Money, plan []PlannedTransfer) map[string]Money {
	out := make(map[string]Money, len(net))
	for id, m := range net {
		out[id] = m
	}

	for _, t := range plan {
		payer := out[t.PayerID]
		payer.Units += t.Amount.Units
		payer.Currency = t.Amount.Currency
		out[t.PayerID] = payer

		payee := out[t.PayeeID]
		payee.Units -= t.Amount.Units
		payee.Currency = t.Amount.Currency
		out[t.PayeeID] = payee
	}

	return out
}
