package utils

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestFormatCurrency(t *testing.T) {
	tests := []struct {
		name     string
		amount   decimal.Decimal
		expected string
	}{
		{"zero", decimal.Zero, "0.00"},
		{"small", decimal.NewFromInt(950), "950.00"},
		{"thousands", decimal.NewFromInt(99000), "99,000.00"},
		{"hundreds of thousands", decimal.NewFromInt(300000), "300,000.00"},
		{"millions with cents", decimal.RequireFromString("1234567.5"), "1,234,567.50"},
		{"negative", decimal.NewFromInt(-45000), "-45,000.00"},
		{"rounds to two places", decimal.RequireFromString("10.005"), "10.01"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatCurrency(tt.amount))
		})
	}
}

func TestMonthlyInstallment(t *testing.T) {
	tests := []struct {
		name      string
		principal decimal.Decimal
		tenure    int
		expected  decimal.Decimal
	}{
		{
			name:      "even division",
			principal: decimal.NewFromInt(120000),
			tenure:    12,
			expected:  decimal.NewFromInt(10000),
		},
		{
			name:      "rounds to two decimals",
			principal: decimal.NewFromInt(100),
			tenure:    3,
			expected:  decimal.RequireFromString("33.33"),
		},
		{
			name:      "single installment",
			principal: decimal.NewFromInt(50000),
			tenure:    1,
			expected:  decimal.NewFromInt(50000),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := MonthlyInstallment(tt.principal, tt.tenure)
			assert.True(t, result.Equal(tt.expected),
				"Expected %v, but got %v", tt.expected, result)
		})
	}
}

func TestInstallmentDueDate(t *testing.T) {
	baseDate := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name              string
		start             time.Time
		installmentNumber int
		expected          time.Time
	}{
		{
			name:              "first installment",
			start:             baseDate,
			installmentNumber: 1,
			expected:          time.Date(2025, 2, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:              "crosses year boundary",
			start:             baseDate,
			installmentNumber: 12,
			expected:          time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name:              "month-end rollover",
			start:             time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC),
			installmentNumber: 1,
			expected:          time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, InstallmentDueDate(tt.start, tt.installmentNumber))
		})
	}
}
