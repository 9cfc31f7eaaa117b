package validation

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequiredField(t *testing.T) {
	empty := ""
	filled := "x"
	var nilPtr *string

	tests := []struct {
		name  string
		value any
		want  bool
	}{
		{"nil", nil, false},
		{"empty string", "", false},
		{"whitespace", "   \t", false},
		{"text", "TXN001", true},
		{"padded text", "  a  ", true},
		{"zero int", 0, true},
		{"zero float", 0.0, true},
		{"negative float", -1.5, true},
		{"bool", false, true},
		{"decimal zero", decimal.Zero, true},
		{"nil pointer", nilPtr, false},
		{"pointer to empty", &empty, false},
		{"pointer to text", &filled, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RequiredField(tt.value))
		})
	}
}

func TestDateFieldAt(t *testing.T) {
	now := time.Date(2026, time.March, 15, 10, 30, 0, 0, time.Local)

	tests := []struct {
		value string
		want  bool
	}{
		{"25/12/2025", true},
		{"5/1/2025", true},
		{"05/01/2025", true},
		{"2025-12-25", true},
		{"2025-1-5", true},
		{"25-12-2025", true},
		{"5-1-2025", true},
		{"25122025", true},
		{" 25/12/2025 ", true},
		{"29/02/2024", true},
		{"15/03/2026", true},  // today
		{"16/03/2026", false}, // tomorrow
		{"2026-03-16", false},
		{"30/02/2025", false},
		{"29/02/2025", false},
		{"31/04/2025", false},
		{"25/13/2025", false},
		{"0/12/2025", false},
		{"32/01/2025", false},
		{"01/01/0050", false},
		{"0050-01-01", false},
		{"01010099", false},
		{"01/01/1900", true},
		{"12/25/25", false},
		{"2025/12/25", false},
		{"25.12.2025", false},
		{"1225202", false},
		{"", false},
		{"not a date", false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, DateFieldAt(tt.value, now))
		})
	}
}

func TestDateFieldTodayAndTomorrow(t *testing.T) {
	now := time.Now()
	today := now.Format("02/01/2006")
	tomorrow := now.AddDate(0, 0, 1).Format("02/01/2006")

	assert.True(t, DateField(today))
	assert.False(t, DateField(tomorrow))
}

func TestParseDateDistinguishesFailures(t *testing.T) {
	now := time.Date(2026, time.March, 15, 23, 59, 59, 0, time.UTC)

	got, err := ParseDate("2026-3-15", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC), got)

	_, err = ParseDate("30/02/2025", now)
	assert.ErrorIs(t, err, ErrInvalidDate)

	_, err = ParseDate("01/04/2026", now)
	assert.ErrorIs(t, err, ErrFutureDate)
}

func TestAmountField(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"99.99", true},
		{"100", true},
		{"0.01", true},
		{" 42.5 ", true},
		{"0", false},
		{"0.00", false},
		{"-50.00", false},
		{"100abc", false},
		{"1e5", false},
		{".5", false},
		{"5.", false},
		{"1,000", false},
		{"", false},
		{"abc", false},
		{"1" + strings.Repeat("0", 400), false},
		{"1" + strings.Repeat("0", 300), true},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			assert.Equal(t, tt.want, AmountField(tt.value))
		})
	}
}

func TestNumericField(t *testing.T) {
	assert.True(t, NumericField("0"))
	assert.True(t, NumericField("-50.00"))
	assert.True(t, NumericField("12.345"))
	assert.False(t, NumericField("100abc"))
	assert.False(t, NumericField(""))
	assert.False(t, NumericField("--1"))
	assert.False(t, NumericField("1"+strings.Repeat("0", 400)))
	assert.False(t, NumericField("-1"+strings.Repeat("0", 400)))
}

func TestRangeField(t *testing.T) {
	assert.True(t, RangeField("0", 0, 100))
	assert.True(t, RangeField("100", 0, 100))
	assert.True(t, RangeField("2.75", 0, 100))
	assert.False(t, RangeField("100.01", 0, 100))
	assert.False(t, RangeField("-0.5", 0, 100))
	assert.False(t, RangeField("50%", 0, 100))
	assert.False(t, RangeField("", 0, 100))
	assert.False(t, RangeField("1"+strings.Repeat("0", 400), 0, 100))
}

func TestParseNumber(t *testing.T) {
	d, err := ParseNumber(" 250.50 ")
	require.NoError(t, err)
	assert.True(t, d.Equal(decimal.RequireFromString("250.5")))

	_, err = ParseNumber("250.50 GBP")
	assert.Error(t, err)
}
