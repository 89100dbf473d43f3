package domain

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money is a fixed-point amount in a currency's minor units (cents for USD,
// whole yen for JPY). All arithmetic is exact int64 math; decimals appear
// only at the API boundary.
type Money struct {
	Units    int64  `json:"units"`
	Currency string `json:"currency"`
}

// NewMoney creates a Money from minor units.
func NewMoney(units int64, currency string) Money {
	return Money{Units: units, Currency: currency}
}

// NewMoneyFromDecimal converts a decimal amount in major units to Money.
// Amounts with more precision than the currency's minor unit are rejected,
// never rounded.
func NewMoneyFromDecimal(amount decimal.Decimal, currency string) (Money, error) {
	exp, err := CurrencyExponent(currency)
	if err != nil {
		return Money{}, err
	}

	scaled := amount.Shift(exp)
	if !scaled.IsInteger() {
		return Money{}, fmt.Errorf("%w: %s has more than %d decimal places for %s",
			ErrAmountPrecision, amount, exp, currency)
	}

	return Money{Units: scaled.IntPart(), Currency: currency}, nil
}

// Decimal returns the amount in major units. Money only enters the system
// through validated constructors, so an unknown currency here is an
// invariant breach, not an input error.
func (m Money) Decimal() decimal.Decimal {
	exp, err := CurrencyExponent(m.Currency)
	if err != nil {
		panic(fmt.Sprintf("money: unknown currency %q", m.Currency))
	}

	return decimal.New(m.Units, 0).Shift(-exp)
}

// Add returns m + other.
func (m Money) Add(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}

	return Money{Units: m.Units + other.Units, Currency: m.Currency}, nil
}

// Sub returns m - other.
func (m Money) Sub(other Money) (Money, error) {
	if m.Currency != other.Currency {
		return Money{}, fmt.Errorf("%w: %s vs %s", ErrCurrencyMismatch, m.Currency, other.Currency)
	}

	return Money{Units: m.Units - other.Units, Currency: m.Currency}, nil
}

// Neg returns -m.
func (m Money) Neg() Money {
	return Money{Units: -m.Units, Currency: m.Currency}
}

// Abs returns the absolute value of m.
func (m Money) Abs() Money {
	if m.Units < 0 {
		return m.Neg()
	}

	return m
}

// Cmp compares amounts: -1 if m < other, 0 if equal, +1 if m > other.
func (m Money) Cmp(other Money) int {
	switch {
	case m.Units < other.Units:
		return -1
	case m.Units > other.Units:
		return 1
	default:
		return 0
	}
}

// IsZero reports whether the amount is zero.
func (m Money) IsZero() bool { return m.Units == 0 }

// IsPositive reports whether the amount is strictly positive.
func (m Money) IsPositive() bool { return m.Units > 0 }

// IsNegative reports whether the amount is strictly negative.
func (m Money) IsNegative() bool { return m.Units < 0 }

// DivideEvenly splits the amount into n shares differing by at most one
// minor unit, remainder distributed to the earliest shares. The shares
// always sum exactly to the amount.
func (m Money) DivideEvenly(n int) ([]Money, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: cannot divide among %d participants", ErrInvalidSplit, n)
	}

	base := m.Units / int64(n)
	remainder := m.Units % int64(n)

	shares := make([]Money, n)
	for i := range shares {
		units := base
		if int64(i) < remainder {
			units++
		}
		shares[i] = Money{Units: units, Currency: m.Currency}
	}

	return shares, nil
}

// PercentShares splits the amount by percentages that must sum to exactly
// 100. Each raw share is rounded half-to-even to minor units; any residual
// from rounding is reconciled against the earliest shares so the result
// sums exactly to the amount.
func (m Money) PercentShares(percents []decimal.Decimal) ([]Money, error) {
	if len(percents) == 0 {
		return nil, fmt.Errorf("%w: no percentages given", ErrInvalidSplit)
	}

	hundred := decimal.New(100, 0)

	total := decimal.Zero
	for _, p := range percents {
		if p.IsNegative() {
			return nil, fmt.Errorf("%w: negative percentage %s", ErrInvalidSplit, p)
		}
		total = total.Add(p)
	}

	if !total.Equal(hundred) {
		return nil, fmt.Errorf("%w: percentages sum to %s, want 100", ErrInvalidSplit, total)
	}

	amount := decimal.New(m.Units, 0)

	shares := make([]Money, len(percents))

	var allocated int64
	for i, p := range percents {
		units := amount.Mul(p).Div(hundred).RoundBank(0).IntPart()
		shares[i] = Money{Units: units, Currency: m.Currency}
		allocated += units
	}

	// Banker's rounding can leave the total off by a few minor units;
	// reconcile one unit at a time starting from the first share.
	residual := m.Units - allocated
	for i := 0; residual != 0; i = (i + 1) % len(shares) {
		if residual > 0 {
			shares[i].Units++
			residual--
		} else {
			shares[i].Units--
			residual++
		}
	}

	return shares, nil
}

// String renders the amount in major units with its currency code.
func (m Money) String() string {
	return m.Decimal().String() + " " + m.Currency
}

type moneyJSON struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
}

// MarshalJSON encodes the amount as a decimal string in major units.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(moneyJSON{Amount: m.Decimal(), Currency: m.Currency})
}

// UnmarshalJSON decodes a decimal amount, rejecting sub-minor-unit
// precision.
func (m *Money) UnmarshalJSON(data []byte) error {
	var raw moneyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	decoded, err := NewMoneyFromDecimal(raw.Amount, raw.Currency)
	if err != nil {
		return err
	}

	*m = decoded

	return nil
}
