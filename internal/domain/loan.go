package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	LoanStatusPending   = "pending"
	LoanStatusApproved  = "approved"
	LoanStatusDisbursed = "disbursed"
	LoanStatusActive    = "active"
	LoanStatusPaid      = "paid"
	LoanStatusRejected  = "rejected"
	LoanStatusDefaulted = "defaulted"
)

// OpenLoanStatuses are the statuses whose remaining balance counts as an open
// liability. Pending rows are included so two in-flight applications cannot
// jointly pass the borrowing check.
var OpenLoanStatuses = []string{
	LoanStatusPending,
	LoanStatusApproved,
	LoanStatusDisbursed,
	LoanStatusActive,
}

// Loan represents a salary-backed loan application and its outstanding balance.
type Loan struct {
	LoanID           uuid.UUID       `json:"loan_id" db:"loan_id"`
	EmployeeID       int64           `json:"employee_id" db:"employee_id"`
	LoanTypeID       int64           `json:"loan_type_id" db:"loan_type_id"`
	Principal        decimal.Decimal `json:"principal" db:"principal"`
	RemainingBalance decimal.Decimal `json:"remaining_balance" db:"remaining_balance"`
	TenureMonths     int             `json:"tenure_months" db:"tenure_months"`
	Status           string          `json:"status" db:"status"`
	ApprovedBy       *int64          `json:"approved_by" db:"approved_by"`
	CreatedAt        time.Time       `json:"created_at" db:"created_at"`
}

// Decision is the outcome of a borrowing limit evaluation. A denied decision
// is a normal business outcome, not an error.
type Decision struct {
	Allowed            bool            `json:"allowed"`
	MaxLimit           decimal.Decimal `json:"max_limit"`
	CurrentOutstanding decimal.Decimal `json:"current_outstanding"`
	AvailableAmount    decimal.Decimal `json:"available_amount"`
	GrossSalary        decimal.Decimal `json:"gross_salary"`
	Message            string          `json:"message,omitempty"`
}

// DTOs for requests and responses

type LoanApplicationRequest struct {
	EmployeeID   int64           `json:"employee_id" validate:"required,gt=0"`
	LoanTypeID   int64           `json:"loan_type_id" validate:"required,gt=0"`
	Amount       decimal.Decimal `json:"amount" validate:"required"`
	TenureMonths int             `json:"tenure_months" validate:"required,gt=0"`
}

type LoanApplicationResult struct {
	Decision *Decision               `json:"decision"`
	Loan     *Loan                   `json:"loan,omitempty"`
	Schedule []*RepaymentInstallment `json:"schedule,omitempty"`
}

type LoanDetail struct {
	Loan     *Loan                   `json:"loan"`
	Schedule []*RepaymentInstallment `json:"schedule"`
}
