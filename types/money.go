// Package types provides value types shared across splitledger.
package types

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Money is an amount in the smallest currency unit. Arithmetic is
// integer-only.
//
//	RUB(150000) = ₽1500.00
//	USD(4900)   = $49.00
type Money struct {
	Amount   int64  `json:"amount"`   // minor units (kopecks, cents, ...)
	Currency string `json:"currency"` // ISO 4217, lowercase
}

// DefaultCurrency is used when a group does not name one.
const DefaultCurrency = "rub"

// New creates Money in the given currency. The code is normalised to lowercase.
func New(amount int64, currency string) Money {
	return Money{Amount: amount, Currency: strings.ToLower(currency)}
}

// RUB creates a Money value in Russian roubles (kopecks).
func RUB(kopecks int64) Money { return New(kopecks, "rub") }

// USD creates a Money value in US dollars (cents).
func USD(cents int64) Money { return New(cents, "usd") }

// EUR creates a Money value in euros (cents).
func EUR(cents int64) Money { return New(cents, "eur") }

// Zero returns a zero Money value in the specified currency.
func Zero(currency string) Money { return New(0, currency) }

// Add adds two Money values. Panics if currencies don't match.
func (m Money) Add(other Money) Money {
	m.assertSameCurrency(other)
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}
}

// Subtract subtracts another Money value. Panics if currencies don't match.
func (m Money) Subtract(other Money) Money {
	m.assertSameCurrency(other)
	return Money{Amount: m.Amount - other.Amount, Currency: m.Currency}
}

// Negate returns the negative of the Money value.
func (m Money) Negate() Money {
	return Money{Amount: -m.Amount, Currency: m.Currency}
}

// Abs returns the absolute value.
func (m Money) Abs() Money {
	if m.Amount < 0 {
		return m.Negate()
	}
	return m
}

// IsZero returns true if the amount is zero.
func (m Money) IsZero() bool { return m.Amount == 0 }

// IsPositive returns true if the amount is greater than zero.
func (m Money) IsPositive() bool { return m.Amount > 0 }

// IsNegative returns true if the amount is less than zero.
func (m Money) IsNegative() bool { return m.Amount < 0 }

// Equal returns true if both amount and currency match.
func (m Money) Equal(other Money) bool {
	return m.Amount == other.Amount && m.Currency == other.Currency
}

// FormatMajor renders the amount in major units without a symbol:
// "49.00" for USD(4900), "100" for a zero-decimal currency.
func (m Money) FormatMajor() string {
	decimals := m.Decimals()
	if decimals == 0 {
		return fmt.Sprintf("%d", m.Amount)
	}

	divisor := int64(1)
	for range decimals {
		divisor *= 10
	}

	abs := m.Amount
	sign := ""
	if abs < 0 {
		abs = -abs
		sign = "-"
	}
	return fmt.Sprintf("%s%d.%0*d", sign, abs/divisor, decimals, abs%divisor)
}

// Decimals returns the number of minor-unit digits of the currency.
func (m Money) Decimals() int {
	return lookupCurrency(m.Currency).decimals
}

// Symbol returns the currency symbol, or the upper-case code followed by a
// space for currencies without one.
func (m Money) Symbol() string {
	return lookupCurrency(m.Currency).symbol
}

// String renders the amount with its currency symbol, e.g. "₽1500.00".
func (m Money) String() string {
	return m.Symbol() + m.FormatMajor()
}

// MarshalJSON implements json.Marshaler.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
		Display  string `json:"display"`
	}{
		Amount:   m.Amount,
		Currency: m.Currency,
		Display:  m.String(),
	})
}

// Sum adds values in the given currency. Panics on a currency mismatch.
func Sum(currency string, values ...Money) Money {
	total := Zero(currency)
	for _, v := range values {
		total = total.Add(v)
	}
	return total
}

func (m Money) assertSameCurrency(other Money) {
	if m.Currency != other.Currency {
		panic(fmt.Sprintf("money: currency mismatch: %s != %s", m.Currency, other.Currency))
	}
}

type currencyInfo struct {
	symbol   string
	decimals int
}

var currencies = map[string]currencyInfo{
	"rub": {"₽", 2},
	"usd": {"$", 2},
	"eur": {"€", 2},
	"gbp": {"£", 2},
	"kzt": {"₸", 2},
	"try": {"₺", 2},
	"jpy": {"¥", 0},
	"krw": {"₩", 0},
	"vnd": {"₫", 0},
}

func lookupCurrency(code string) currencyInfo {
	if info, ok := currencies[strings.ToLower(code)]; ok {
		return info
	}
	return currencyInfo{symbol: strings.ToUpper(code) + " ", decimals: 2}
}
