package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Validation errors
var (
	ErrInvalidGroupName   = errors.New("invalid group name")
	ErrInvalidDisplayName = errors.New("invalid display name")
	ErrInvalidCurrency    = errors.New("invalid currency code")
	ErrInvalidTitle       = errors.New("invalid expense title")
)

// Validation constants
const (
	MaxNameLength  = 255
	MaxTitleLength = 255
)

// Minor-unit exponents for supported ISO 4217 currency codes.
var currencyExponents = map[string]int32{
	"USD": 2, "EUR": 2, "GBP": 2, "JPY": 0,
	"CNY": 2, "AUD": 2, "CAD": 2, "CHF": 2,
	"SEK": 2, "NZD": 2, "KRW": 0, "SGD": 2,
	"NOK": 2, "MXN": 2, "INR": 2, "BRL": 2,
	"ZAR": 2, "TRY": 2, "HKD": 2,
}

// CurrencyExponent returns the number of minor-unit decimal places for a
// currency code, or ErrInvalidCurrency for unsupported codes.
func CurrencyExponent(currency string) (int32, error) {
	exp, ok := currencyExponents[currency]
	if !ok {
		return 0, fmt.Errorf("%w: %s is not a supported ISO 4217 currency code", ErrInvalidCurrency, currency)
	}

	return exp, nil
}

// ValidateCurrency validates a currency code.
func ValidateCurrency(currency string) error {
	_, err := CurrencyExponent(currency)
	return err
}

// ValidateGroupName validates a group name.
func ValidateGroupName(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidGroupName)
	}

	if len(name) > MaxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidGroupName, MaxNameLength)
	}

	return nil
}

// ValidateDisplayName validates a member display name.
func ValidateDisplayName(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidDisplayName)
	}

	if len(name) > MaxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidDisplayName, MaxNameLength)
	}

	return nil
}

// ValidateTitle validates an expense title.
func ValidateTitle(title string) error {
	title = strings.TrimSpace(title)

	if title == "" {
		return fmt.Errorf("%w: title cannot be empty", ErrInvalidTitle)
	}

	if len(title) > MaxTitleLength {
		return fmt.Errorf("%w: title exceeds %d characters", ErrInvalidTitle, MaxTitleLength)
	}

	return nil
}
