package types

import (
	"encoding/json"
	"testing"
)

func TestMoneyConstructors(t *testing.T) {
	tests := []struct {
		name     string
		money    Money
		amount   int64
		currency string
		display  string
	}{
		{"RUB", RUB(150000), 150000, "rub", "₽1500.00"},
		{"USD", USD(4900), 4900, "usd", "$49.00"},
		{"EUR", EUR(19900), 19900, "eur", "€199.00"},
		{"New upper-case code", New(300, "KZT"), 300, "kzt", "₸3.00"},
		{"Zero-decimal", New(100, "jpy"), 100, "jpy", "¥100"},
		{"Unknown currency", New(1234, "xyz"), 1234, "xyz", "XYZ 12.34"},
		{"Zero", Zero("RUB"), 0, "rub", "₽0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.money.Amount != tt.amount {
				t.Errorf("Amount: got %d, want %d", tt.money.Amount, tt.amount)
			}
			if tt.money.Currency != tt.currency {
				t.Errorf("Currency: got %s, want %s", tt.money.Currency, tt.currency)
			}
			if tt.money.String() != tt.display {
				t.Errorf("Display: got %s, want %s", tt.money.String(), tt.display)
			}
		})
	}
}

func TestMoneyArithmetic(t *testing.T) {
	tests := []struct {
		name     string
		op       func() Money
		expected Money
	}{
		{"Add", func() Money { return RUB(100).Add(RUB(200)) }, RUB(300)},
		{"Subtract", func() Money { return RUB(100).Subtract(RUB(300)) }, RUB(-200)},
		{"Negate", func() Money { return RUB(100).Negate() }, RUB(-100)},
		{"Abs negative", func() Money { return RUB(-100).Abs() }, RUB(100)},
		{"Sum", func() Money { return Sum("rub", RUB(1), RUB(2), RUB(3)) }, RUB(6)},
		{"Sum empty", func() Money { return Sum("usd") }, USD(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.op(); !got.Equal(tt.expected) {
				t.Errorf("got %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestMoneyCurrencyMismatch(t *testing.T) {
	defer func() {
		if r := recover(); r == nil {
			t.Error("expected panic for currency mismatch")
		}
	}()

	_ = RUB(100).Add(USD(100))
}

func TestMoneyFormatMajorNegative(t *testing.T) {
	tests := []struct {
		money Money
		want  string
	}{
		{RUB(-5), "-0.05"},
		{RUB(-12345), "-123.45"},
		{New(-7, "jpy"), "-7"},
	}

	for _, tt := range tests {
		if got := tt.money.FormatMajor(); got != tt.want {
			t.Errorf("FormatMajor(%d %s) = %q, want %q", tt.money.Amount, tt.money.Currency, got, tt.want)
		}
	}
}

func TestMoneyPredicates(t *testing.T) {
	if !RUB(0).IsZero() || RUB(1).IsZero() {
		t.Error("IsZero mismatch")
	}
	if !RUB(1).IsPositive() || RUB(-1).IsPositive() {
		t.Error("IsPositive mismatch")
	}
	if !RUB(-1).IsNegative() || RUB(0).IsNegative() {
		t.Error("IsNegative mismatch")
	}
}

func TestMoneyMarshalJSON(t *testing.T) {
	data, err := json.Marshal(RUB(4250))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["amount"] != float64(4250) {
		t.Errorf("amount: got %v", out["amount"])
	}
	if out["currency"] != "rub" {
		t.Errorf("currency: got %v", out["currency"])
	}
	if out["display"] != "₽42.50" {
		t.Errorf("display: got %v", out["display"])
	}
}

func TestMoneyCurrencyInfo(t *testing.T) {
	tests := []struct {
		money    Money
		decimals int
		symbol   string
	}{
		{RUB(1), 2, "₽"},
		{New(1, "JPY"), 0, "¥"},
		{New(1, "xyz"), 2, "XYZ "},
	}

	for _, tt := range tests {
		t.Run(tt.money.Currency, func(t *testing.T) {
			if got := tt.money.Decimals(); got != tt.decimals {
				t.Errorf("Decimals: got %d, want %d", got, tt.decimals)
			}
			if got := tt.money.Symbol(); got != tt.symbol {
				t.Errorf("Symbol: got %q, want %q", got, tt.symbol)
			}
		})
	}
}
