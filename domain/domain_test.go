package domain

import (
	"testing"
	"time"

	apperrors "sales-assistant/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestParseProductCode(t *testing.T) {
	p, err := ParseProductCode(" кн ")
	require.NoError(t, err)
	assert.Equal(t, ProductKN, p)

	p, err = ParseProductCode("вклад")
	require.NoError(t, err)
	assert.Equal(t, ProductDeposit, p)
	assert.True(t, p.Valid())

	p, err = ParseProductCode("Плейбук")
	require.NoError(t, err)
	assert.False(t, p.Valid())
	assert.True(t, p.ValidForDocuments())

	_, err = ParseProductCode("ипотека")
	require.Error(t, err)
	field, ok := apperrors.FieldOf(err)
	assert.True(t, ok)
	assert.Equal(t, "product_code", field)
}

func TestParseCurrencyAliases(t *testing.T) {
	for in, want := range map[string]Currency{"руб": CurrencyRUB, "USD": CurrencyUSD, "евро": CurrencyEUR, "юаней": CurrencyCNY} {
		got, ok := ParseCurrency(in)
		assert.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}
	_, ok := ParseCurrency("GBP")
	assert.False(t, ok)
}

func TestAmountRange(t *testing.T) {
	tests := []struct {
		name   string
		r      AmountRange
		amount float64
		want   bool
	}{
		{name: "undeclared", r: AmountRange{}, amount: 5, want: true},
		{name: "below_min", r: AmountRange{Min: ptr(10.0)}, amount: 5, want: false},
		{name: "at_min", r: AmountRange{Min: ptr(10.0)}, amount: 10, want: true},
		{name: "exclusive_max", r: AmountRange{Min: ptr(0.0), Max: ptr(100.0)}, amount: 100, want: false},
		{name: "inclusive_max", r: AmountRange{Max: ptr(100.0), MaxInclusive: true}, amount: 100, want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.r.Contains(tt.amount))
		})
	}
}

func TestValidityWindow(t *testing.T) {
	from := NewDate(2025, 1, 1)
	to := NewDate(2025, 1, 31)
	w := ValidityWindow{From: &from, To: &to}

	assert.True(t, w.Contains(NewDate(2025, 1, 31)))
	assert.False(t, w.Contains(NewDate(2025, 2, 1)))
	assert.True(t, ValidityWindow{}.OpenEnded())
}

func TestActivityEventValidate(t *testing.T) {
	ok := ActivityEvent{EmployeeID: 1, Product: ProductKN, Count: 0, Date: NewDate(2025, 3, 1)}
	assert.NoError(t, ok.Validate())

	neg := ok
	neg.Count = -1
	field, _ := apperrors.FieldOf(neg.Validate())
	assert.Equal(t, "count", field)

	bad := ok
	bad.Product = "XX"
	field, _ = apperrors.FieldOf(bad.Validate())
	assert.Equal(t, "product_code", field)
}

func TestProductFactValidate(t *testing.T) {
	f := ProductFact{Product: ProductDeposit, FactKey: "rate_percent", NumericValue: ptr(16.5)}
	assert.NoError(t, f.Validate())

	from := NewDate(2025, 2, 1)
	to := NewDate(2025, 1, 1)
	f.Validity = ValidityWindow{From: &from, To: &to}
	field, _ := apperrors.FieldOf(f.Validate())
	assert.Equal(t, "validity", field)
}

func TestDates(t *testing.T) {
	msk, err := time.LoadLocation("Europe/Moscow")
	require.NoError(t, err)

	// 22:30 UTC on Mar 1 is already Mar 2 in Moscow.
	ts := time.Date(2025, 3, 1, 22, 30, 0, 0, time.UTC)
	assert.Equal(t, NewDate(2025, 3, 2), BusinessDate(ts, msk))
	assert.Equal(t, 29, DaysIn(2024, time.February))
	assert.Equal(t, 31, DaysIn(2025, time.December))

	d, err := ParseDate("2025-04-10")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2025, 4, 10), d)
}
