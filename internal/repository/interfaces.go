package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/kliksalary/lending-engine/internal/domain"
)

// EmployeeRepository defines the interface for employee and compensation reads
type EmployeeRepository interface {
	// Exists reports whether the employee id refers to a known employee
	Exists(ctx context.Context, employeeID int64) (bool, error)

	// GetActiveSalaryComponents retrieves all active salary components for an employee
	GetActiveSalaryComponents(ctx context.Context, employeeID int64) ([]*domain.SalaryComponent, error)
}

// LoanRepository defines the interface for loan data operations
type LoanRepository interface {
	// Create inserts a new loan application row
	Create(ctx context.Context, loan *domain.Loan) error

	// GetByID retrieves a loan by its loan ID
	GetByID(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error)

	// ListOpenByEmployee retrieves all loans with an open status for an employee
	ListOpenByEmployee(ctx context.Context, employeeID int64) ([]*domain.Loan, error)

	// UpdateStatus transitions a loan's status, recording the approver when set
	UpdateStatus(ctx context.Context, loanID uuid.UUID, status string, approvedBy *int64) error

	// CreateSchedule persists all repayment installments for a loan in one transaction
	CreateSchedule(ctx context.Context, installments []*domain.RepaymentInstallment) error

	// GetScheduleByLoanID retrieves the ordered repayment schedule for a loan
	GetScheduleByLoanID(ctx context.Context, loanID uuid.UUID) ([]*domain.RepaymentInstallment, error)

	// MarkOverdueInstallments flips pending installments past due to overdue,
	// returning the number of rows updated
	MarkOverdueInstallments(ctx context.Context, asOf time.Time) (int64, error)

	// WithEmployeeLock runs fn while holding a per-employee advisory lock,
	// serializing concurrent underwriting for the same employee
	WithEmployeeLock(ctx context.Context, employeeID int64, fn func(ctx context.Context) error) error
}

// AdvanceRepository defines the interface for salary advance data operations
type AdvanceRepository interface {
	// Create inserts a new salary advance row
	Create(ctx context.Context, advance *domain.SalaryAdvance) error

	// GetByID retrieves an advance by its advance ID
	GetByID(ctx context.Context, advanceID uuid.UUID) (*domain.SalaryAdvance, error)

	// ListOpenByEmployee retrieves all advances with an open status for an employee
	ListOpenByEmployee(ctx context.Context, employeeID int64) ([]*domain.SalaryAdvance, error)
}
