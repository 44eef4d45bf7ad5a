package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/kliksalary/lending-engine/internal/domain"
)

type MockEmployeeRepository struct {
	mock.Mock
}

func (m *MockEmployeeRepository) Exists(ctx context.Context, employeeID int64) (bool, error) {
	args := m.Called(ctx, employeeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockEmployeeRepository) GetActiveSalaryComponents(ctx context.Context, employeeID int64) ([]*domain.SalaryComponent, error) {
	args := m.Called(ctx, employeeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.SalaryComponent), args.Error(1)
}

type MockLoanRepository struct {
	mock.Mock
}

func (m *MockLoanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	args := m.Called(ctx, loan)
	return args.Error(0)
}

func (m *MockLoanRepository) GetByID(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) ListOpenByEmployee(ctx context.Context, employeeID int64) ([]*domain.Loan, error) {
	args := m.Called(ctx, employeeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Loan), args.Error(1)
}

func (m *MockLoanRepository) UpdateStatus(ctx context.Context, loanID uuid.UUID, status string, approvedBy *int64) error {
	args := m.Called(ctx, loanID, status, approvedBy)
	return args.Error(0)
}

func (m *MockLoanRepository) CreateSchedule(ctx context.Context, installments []*domain.RepaymentInstallment) error {
	args := m.Called(ctx, installments)
	return args.Error(0)
}

func (m *MockLoanRepository) GetScheduleByLoanID(ctx context.Context, loanID uuid.UUID) ([]*domain.RepaymentInstallment, error) {
	args := m.Called(ctx, loanID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.RepaymentInstallment), args.Error(1)
}

func (m *MockLoanRepository) MarkOverdueInstallments(ctx context.Context, asOf time.Time) (int64, error) {
	args := m.Called(ctx, asOf)
	return args.Get(0).(int64), args.Error(1)
}

// WithEmployeeLock runs fn directly; lock semantics are covered by the
// postgres advisory lock in the real repository.
func (m *MockLoanRepository) WithEmployeeLock(ctx context.Context, employeeID int64, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, employeeID)
	if args.Error(0) != nil {
		return args.Error(0)
	}
	return fn(ctx)
}

type MockAdvanceRepository struct {
	mock.Mock
}

func (m *MockAdvanceRepository) Create(ctx context.Context, advance *domain.SalaryAdvance) error {
	args := m.Called(ctx, advance)
	return args.Error(0)
}

func (m *MockAdvanceRepository) GetByID(ctx context.Context, advanceID uuid.UUID) (*domain.SalaryAdvance, error) {
	args := m.Called(ctx, advanceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SalaryAdvance), args.Error(1)
}

func (m *MockAdvanceRepository) ListOpenByEmployee(ctx context.Context, employeeID int64) ([]*domain.SalaryAdvance, error) {
	args := m.Called(ctx, employeeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.SalaryAdvance), args.Error(1)
}
