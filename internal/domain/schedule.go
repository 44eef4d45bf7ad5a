package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	InstallmentStatusPending = "pending"
	InstallmentStatusPaid    = "paid"
	InstallmentStatusOverdue = "overdue"
	InstallmentStatusPartial = "partial"
)

// RepaymentInstallment is one entry of a loan's repayment schedule. The full
// schedule is generated in one batch when an application is accepted and is
// never regenerated for the same loan.
type RepaymentInstallment struct {
	ID                uuid.UUID       `json:"id" db:"id"`
	LoanID            uuid.UUID       `json:"loan_id" db:"loan_id"`
	InstallmentNumber int             `json:"installment_number" db:"installment_number"`
	DueDate           time.Time       `json:"due_date" db:"due_date"`
	AmountDue         decimal.Decimal `json:"amount_due" db:"amount_due"`
	PrincipalAmount   decimal.Decimal `json:"principal_amount" db:"principal_amount"`
	InterestAmount    decimal.Decimal `json:"interest_amount" db:"interest_amount"`
	Status            string          `json:"status" db:"status"`
	CreatedAt         time.Time       `json:"created_at" db:"created_at"`
}
