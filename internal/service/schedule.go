package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/kliksalary/lending-engine/internal/domain"
	customError "github.com/kliksalary/lending-engine/pkg/errors"
	"github.com/kliksalary/lending-engine/pkg/utils"
)

// GenerateSchedule produces the full repayment schedule for a loan: equal
// zero-interest installments, one per calendar month after start. It is a pure
// function of its inputs and is called exactly once per accepted loan.
//
// Each installment is rounded to 2 decimal places independently, so the summed
// principal can drift from the approved principal by a fraction of a unit; the
// drift is not reconciled on the final installment.
func GenerateSchedule(loanID uuid.UUID, principal decimal.Decimal, tenureMonths int, start time.Time) ([]*domain.RepaymentInstallment, error) {
	if !principal.IsPositive() {
		return nil, customError.WrapValidation("principal must be greater than zero", customError.ErrInvalidAmount)
	}
	if tenureMonths <= 0 {
		return nil, customError.WrapValidation("tenure months must be greater than zero", customError.ErrInvalidTenure)
	}

	monthly := utils.MonthlyInstallment(principal, tenureMonths)
	now := time.Now()

	installments := make([]*domain.RepaymentInstallment, 0, tenureMonths)
	for i := 1; i <= tenureMonths; i++ {
		installments = append(installments, &domain.RepaymentInstallment{
			ID:                uuid.New(),
			LoanID:            loanID,
			InstallmentNumber: i,
			DueDate:           utils.InstallmentDueDate(start, i),
			AmountDue:         monthly,
			PrincipalAmount:   monthly,
			InterestAmount:    decimal.Zero,
			Status:            domain.InstallmentStatusPending,
			CreatedAt:         now,
		})
	}

	return installments, nil
}
