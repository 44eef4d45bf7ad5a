package utils

import (
	"time"

	"github.com/shopspring/decimal"
)

// FormatCurrency renders a monetary amount with two decimal places and
// thousands separators, e.g. 99000 -> "99,000.00".
func FormatCurrency(amount decimal.Decimal) string {
	fixed := amount.StringFixed(2)

	neg := false
	if fixed[0] == '-' {
		neg = true
		fixed = fixed[1:]
	}

	intPart := fixed[:len(fixed)-3]
	fracPart := fixed[len(fixed)-3:] // includes the dot

	var out []byte
	for i, c := range []byte(intPart) {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, c)
	}
	out = append(out, fracPart...)

	if neg {
		return "-" + string(out)
	}
	return string(out)
}

// MonthlyInstallment calculates the equal monthly installment amount.
// Formula: principal / tenure, rounded to 2 decimal places per installment.
func MonthlyInstallment(principal decimal.Decimal, tenureMonths int) decimal.Decimal {
	return principal.Div(decimal.NewFromInt(int64(tenureMonths))).Round(2)
}

// InstallmentDueDate calculates the due date for a specific installment.
// Installment 1 is due one calendar month after the start date; time.AddDate
// normalization handles month-end rollover consistently.
func InstallmentDueDate(start time.Time, installmentNumber int) time.Time {
	return start.AddDate(0, installmentNumber, 0)
}

