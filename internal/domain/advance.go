package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	AdvanceStatusPending  = "pending"
	AdvanceStatusApproved = "approved"
	AdvanceStatusRejected = "rejected"
	AdvanceStatusSettled  = "settled"
)

// OpenAdvanceStatuses are the advance statuses that still count as open liability.
var OpenAdvanceStatuses = []string{
	AdvanceStatusPending,
	AdvanceStatusApproved,
}

// SalaryAdvance is a short-term advance recovered through payroll deductions.
type SalaryAdvance struct {
	AdvanceID      uuid.UUID       `json:"advance_id" db:"advance_id"`
	EmployeeID     int64           `json:"employee_id" db:"employee_id"`
	AdvanceAmount  decimal.Decimal `json:"advance_amount" db:"advance_amount"`
	DeductedAmount decimal.Decimal `json:"deducted_amount" db:"deducted_amount"`
	Status         string          `json:"status" db:"status"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}

// Outstanding returns the unrecovered part of the advance. The difference is
// taken as-is; a negative value from bad data is not clamped here.
func (a *SalaryAdvance) Outstanding() decimal.Decimal {
	return a.AdvanceAmount.Sub(a.DeductedAmount)
}

type AdvanceApplicationRequest struct {
	EmployeeID int64           `json:"employee_id" validate:"required,gt=0"`
	Amount     decimal.Decimal `json:"amount" validate:"required"`
}

type AdvanceApplicationResult struct {
	Decision *Decision      `json:"decision"`
	Advance  *SalaryAdvance `json:"advance,omitempty"`
}
