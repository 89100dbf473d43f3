package domain

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestMoney_DivideEvenly(t *testing.T) {
	tests := []struct {
		name       string
		totalUnits int64
		n          int
		wantUnits  []int64
	}{
		{
			name:       "10.00 over 3 gives remainder to first share",
			totalUnits: 1000,
			n:          3,
			wantUnits:  []int64{334, 333, 333},
		},
		{
			name:       "90.00 over 3 splits evenly",
			totalUnits: 9000,
			n:          3,
			wantUnits:  []int64{3000, 3000, 3000},
		},
		{
			name:       "0.05 over 4 gives one extra to first share",
			totalUnits: 5,
			n:          4,
			wantUnits:  []int64{2, 1, 1, 1},
		},
		{
			name:       "single participant takes everything",
			totalUnits: 999,
			n:          1,
			wantUnits:  []int64{999},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total := NewMoney(tt.totalUnits, "USD")

			shares, err := total.DivideEvenly(tt.n)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var sum int64
			for i, s := range shares {
				if s.Units != tt.wantUnits[i] {
					t.Errorf("share %d: got %d units, want %d", i, s.Units, tt.wantUnits[i])
				}

				sum += s.Units
			}

			if sum != tt.totalUnits {
				t.Errorf("shares sum to %d, want %d", sum, tt.totalUnits)
			}

			// No two shares may differ by more than one minor unit.
			for i := range shares {
				for j := range shares {
					diff := shares[i].Units - shares[j].Units
					if diff < -1 || diff > 1 {
						t.Errorf("shares %d and %d differ by more than one minor unit", i, j)
					}
				}
			}
		})
	}
}

func TestMoney_DivideEvenly_InvalidCount(t *testing.T) {
	if _, err := NewMoney(100, "USD").DivideEvenly(0); !errors.Is(err, ErrInvalidSplit) {
		t.Errorf("expected ErrInvalidSplit, got %v", err)
	}
}

func TestMoney_PercentShares(t *testing.T) {
	pct := func(s string) decimal.Decimal { return decimal.RequireFromString(s) }

	t.Run("shares sum exactly to total", func(t *testing.T) {
		total := NewMoney(1000, "USD")

		shares, err := total.PercentShares([]decimal.Decimal{pct("33.33"), pct("33.33"), pct("33.34")})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var sum int64
		for _, s := range shares {
			sum += s.Units
		}

		if sum != 1000 {
			t.Errorf("shares sum to %d, want 1000", sum)
		}
	})

	t.Run("rejects sum below 100", func(t *testing.T) {
		_, err := NewMoney(1000, "USD").PercentShares([]decimal.Decimal{pct("50"), pct("49.99")})
		if !errors.Is(err, ErrInvalidSplit) {
			t.Errorf("expected ErrInvalidSplit, got %v", err)
		}
	})

	t.Run("rejects sum above 100", func(t *testing.T) {
		_, err := NewMoney(1000, "USD").PercentShares([]decimal.Decimal{pct("50"), pct("50.01")})
		if !errors.Is(err, ErrInvalidSplit) {
			t.Errorf("expected ErrInvalidSplit, got %v", err)
		}
	})

	t.Run("rejects negative percentage", func(t *testing.T) {
		_, err := NewMoney(1000, "USD").PercentShares([]decimal.Decimal{pct("-10"), pct("110")})
		if !errors.Is(err, ErrInvalidSplit) {
			t.Errorf("expected ErrInvalidSplit, got %v", err)
		}
	})
}

func TestNewMoneyFromDecimal(t *testing.T) {
	tests := []struct {
		name        string
		amount      string
		currency    string
		wantUnits   int64
		expectError error
	}{
		{name: "two decimal places", amount: "30.00", currency: "USD", wantUnits: 3000},
		{name: "whole number", amount: "90", currency: "USD", wantUnits: 9000},
		{name: "zero-exponent currency", amount: "500", currency: "JPY", wantUnits: 500},
		{name: "sub-cent precision rejected", amount: "10.005", currency: "USD", expectError: ErrAmountPrecision},
		{name: "yen with decimals rejected", amount: "10.5", currency: "JPY", expectError: ErrAmountPrecision},
		{name: "unknown currency rejected", amount: "10.00", currency: "XXX", expectError: ErrInvalidCurrency},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := NewMoneyFromDecimal(decimal.RequireFromString(tt.amount), tt.currency)

			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Errorf("expected %v, got %v", tt.expectError, err)
				}

				return
			}

			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if m.Units != tt.wantUnits {
				t.Errorf("got %d units, want %d", m.Units, tt.wantUnits)
			}
		})
	}
}

func TestMoney_AddSub(t *testing.T) {
	a := NewMoney(150, "USD")
	b := NewMoney(50, "USD")

	sum, err := a.Add(b)
	if err != nil || sum.Units != 200 {
		t.Errorf("Add: got (%v, %v), want 200 units", sum.Units, err)
	}

	diff, err := a.Sub(b)
	if err != nil || diff.Units != 100 {
		t.Errorf("Sub: got (%v, %v), want 100 units", diff.Units, err)
	}

	if _, err := a.Add(NewMoney(1, "EUR")); !errors.Is(err, ErrCurrencyMismatch) {
		t.Errorf("expected ErrCurrencyMismatch, got %v", err)
	}
}

func TestMoney_JSONRoundTrip(t *testing.T) {
	m := NewMoney(3350, "USD")

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	if string(data) != `{"amount":"33.5","currency":"USD"}` {
		t.Errorf("unexpected encoding: %s", data)
	}

	var decoded Money
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if decoded != m {
		t.Errorf("round trip: got %+v, want %+v", decoded, m)
	}
}

func TestMoney_DecimalUnknownCurrencyPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for unknown currency")
		}
	}()

	NewMoney(100, "XXX").Decimal()
}

func TestMoney_DecimalZeroExponentCurrency(t *testing.T) {
	if got := NewMoney(1200, "JPY").Decimal().String(); got != "1200" {
		t.Errorf("JPY decimal = %s, want 1200", got)
	}
}
