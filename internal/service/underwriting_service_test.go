package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/kliksalary/lending-engine/internal/config"
	"github.com/kliksalary/lending-engine/internal/domain"
	customError "github.com/kliksalary/lending-engine/pkg/errors"
	"github.com/kliksalary/lending-engine/tests/mocks"
)

func testConfig() *config.Config {
	return &config.Config{
		Business: config.BusinessConfig{
			MaxExposureRatio: "0.33",
			MaxTenureMonths:  24,
			Serialize:        true,
			LoanCacheTTL:     "5m",
		},
	}
}

func newTestService() (*UnderwritingService, *mocks.MockEmployeeRepository, *mocks.MockLoanRepository, *mocks.MockAdvanceRepository) {
	employeeRepo := &mocks.MockEmployeeRepository{}
	loanRepo := &mocks.MockLoanRepository{}
	advanceRepo := &mocks.MockAdvanceRepository{}

	svc := NewUnderwritingService(employeeRepo, loanRepo, advanceRepo, nil, testConfig())
	return svc, employeeRepo, loanRepo, advanceRepo
}

func earning(amount int64) *domain.SalaryComponent {
	return &domain.SalaryComponent{
		ComponentType: domain.ComponentTypeEarning,
		Amount:        decimal.NewFromInt(amount),
		IsActive:      true,
	}
}

func allowance(amount int64) *domain.SalaryComponent {
	return &domain.SalaryComponent{
		ComponentType: domain.ComponentTypeAllowance,
		Amount:        decimal.NewFromInt(amount),
		IsActive:      true,
	}
}

func TestGrossSalary_SumsActiveEarningsAndAllowances(t *testing.T) {
	svc, employeeRepo, _, _ := newTestService()

	employeeRepo.On("GetActiveSalaryComponents", mock.Anything, int64(7)).Return([]*domain.SalaryComponent{
		earning(250000),
		allowance(50000),
		{ComponentType: domain.ComponentTypeDeduction, Amount: decimal.NewFromInt(20000), IsActive: true},
	}, nil)

	gross, err := svc.GrossSalary(context.Background(), 7)

	require.NoError(t, err)
	assert.True(t, gross.Equal(decimal.NewFromInt(300000)), "got %s", gross)
}

func TestGrossSalary_NoComponentsReturnsZero(t *testing.T) {
	svc, employeeRepo, _, _ := newTestService()

	employeeRepo.On("GetActiveSalaryComponents", mock.Anything, int64(7)).Return([]*domain.SalaryComponent{}, nil)

	gross, err := svc.GrossSalary(context.Background(), 7)

	require.NoError(t, err)
	assert.True(t, gross.IsZero())
}

func TestGrossSalary_Idempotent(t *testing.T) {
	svc, employeeRepo, _, _ := newTestService()

	employeeRepo.On("GetActiveSalaryComponents", mock.Anything, int64(7)).Return([]*domain.SalaryComponent{
		earning(300000),
	}, nil).Twice()

	first, err := svc.GrossSalary(context.Background(), 7)
	require.NoError(t, err)
	second, err := svc.GrossSalary(context.Background(), 7)
	require.NoError(t, err)

	assert.True(t, first.Equal(second))
	employeeRepo.AssertExpectations(t)
}

func TestOutstandingAdvances_PendingCountsSettledDoesNot(t *testing.T) {
	svc, _, _, advanceRepo := newTestService()

	// Settled advances never come back from the open-status query; the
	// pending advance contributes its unrecovered amount in full.
	advanceRepo.On("ListOpenByEmployee", mock.Anything, int64(7)).Return([]*domain.SalaryAdvance{
		{
			AdvanceAmount:  decimal.NewFromInt(50000),
			DeductedAmount: decimal.Zero,
			Status:         domain.AdvanceStatusPending,
		},
	}, nil)

	outstanding, err := svc.OutstandingAdvances(context.Background(), 7)

	require.NoError(t, err)
	assert.True(t, outstanding.Equal(decimal.NewFromInt(50000)))
}

func TestOutstandingAdvances_PartiallyDeducted(t *testing.T) {
	svc, _, _, advanceRepo := newTestService()

	advanceRepo.On("ListOpenByEmployee", mock.Anything, int64(7)).Return([]*domain.SalaryAdvance{
		{
			AdvanceAmount:  decimal.NewFromInt(60000),
			DeductedAmount: decimal.NewFromInt(15000),
			Status:         domain.AdvanceStatusApproved,
		},
	}, nil)

	outstanding, err := svc.OutstandingAdvances(context.Background(), 7)

	require.NoError(t, err)
	assert.True(t, outstanding.Equal(decimal.NewFromInt(45000)))
}

func TestEvaluate_DeniesWhenRequestExceedsLimit(t *testing.T) {
	svc, employeeRepo, loanRepo, advanceRepo := newTestService()

	// Gross 300,000 -> limit 99,000; request 100,000 with nothing outstanding.
	employeeRepo.On("GetActiveSalaryComponents", mock.Anything, int64(7)).Return([]*domain.SalaryComponent{
		earning(300000),
	}, nil)
	loanRepo.On("ListOpenByEmployee", mock.Anything, int64(7)).Return([]*domain.Loan{}, nil)
	advanceRepo.On("ListOpenByEmployee", mock.Anything, int64(7)).Return([]*domain.SalaryAdvance{}, nil)

	decision, err := svc.Evaluate(context.Background(), 7, decimal.NewFromInt(100000))

	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.True(t, decision.MaxLimit.Equal(decimal.NewFromInt(99000)), "limit %s", decision.MaxLimit)
	assert.True(t, decision.AvailableAmount.Equal(decimal.NewFromInt(99000)))
	assert.True(t, decision.GrossSalary.Equal(decimal.NewFromInt(300000)))
	assert.Contains(t, decision.Message, "99,000.00")
	assert.Contains(t, decision.Message, "300,000.00")
}

func TestEvaluate_AllowsWithinLimit(t *testing.T) {
	svc, employeeRepo, loanRepo, advanceRepo := newTestService()

	// Gross 600,000 -> limit 198,000; outstanding 150,000 + request 40,000 = 190,000.
	employeeRepo.On("GetActiveSalaryComponents", mock.Anything, int64(7)).Return([]*domain.SalaryComponent{
		earning(600000),
	}, nil)
	loanRepo.On("ListOpenByEmployee", mock.Anything, int64(7)).Return([]*domain.Loan{
		{RemainingBalance: decimal.NewFromInt(100000), Status: domain.LoanStatusActive},
	}, nil)
	advanceRepo.On("ListOpenByEmployee", mock.Anything, int64(7)).Return([]*domain.SalaryAdvance{
		{AdvanceAmount: decimal.NewFromInt(50000), DeductedAmount: decimal.Zero, Status: domain.AdvanceStatusPending},
	}, nil)

	decision, err := svc.Evaluate(context.Background(), 7, decimal.NewFromInt(40000))

	require.NoError(t, err)
	assert.True(t, decision.Allowed)
	assert.True(t, decision.MaxLimit.Equal(decimal.NewFromInt(198000)))
	assert.True(t, decision.CurrentOutstanding.Equal(decimal.NewFromInt(150000)))
	assert.True(t, decision.AvailableAmount.Equal(decimal.NewFromInt(48000)))
	assert.Empty(t, decision.Message)
}

func TestEvaluate_ZeroGrossDeniesAnyPositiveRequest(t *testing.T) {
	svc, employeeRepo, loanRepo, advanceRepo := newTestService()

	employeeRepo.On("GetActiveSalaryComponents", mock.Anything, int64(7)).Return([]*domain.SalaryComponent{}, nil)
	loanRepo.On("ListOpenByEmployee", mock.Anything, int64(7)).Return([]*domain.Loan{}, nil)
	advanceRepo.On("ListOpenByEmployee", mock.Anything, int64(7)).Return([]*domain.SalaryAdvance{}, nil)

	decision, err := svc.Evaluate(context.Background(), 7, decimal.NewFromInt(1))

	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.True(t, decision.MaxLimit.IsZero())
	assert.True(t, decision.AvailableAmount.IsZero())
}

func TestEvaluate_AvailableNeverNegative(t *testing.T) {
	svc, employeeRepo, loanRepo, advanceRepo := newTestService()

	employeeRepo.On("GetActiveSalaryComponents", mock.Anything, int64(7)).Return([]*domain.SalaryComponent{
		earning(100000),
	}, nil)
	loanRepo.On("ListOpenByEmployee", mock.Anything, int64(7)).Return([]*domain.Loan{
		{RemainingBalance: decimal.NewFromInt(90000), Status: domain.LoanStatusActive},
	}, nil)
	advanceRepo.On("ListOpenByEmployee", mock.Anything, int64(7)).Return([]*domain.SalaryAdvance{}, nil)

	decision, err := svc.Evaluate(context.Background(), 7, decimal.NewFromInt(1000))

	require.NoError(t, err)
	assert.False(t, decision.Allowed)
	assert.True(t, decision.AvailableAmount.IsZero())
}

func TestApplyForLoan_Success(t *testing.T) {
	svc, employeeRepo, loanRepo, advanceRepo := newTestService()

	employeeRepo.On("Exists", mock.Anything, int64(7)).Return(true, nil)
	loanRepo.On("WithEmployeeLock", mock.Anything, int64(7)).Return(nil)
	employeeRepo.On("GetActiveSalaryComponents", mock.Anything, int64(7)).Return([]*domain.SalaryComponent{
		earning(600000),
	}, nil)
	loanRepo.On("ListOpenByEmployee", mock.Anything, int64(7)).Return([]*domain.Loan{}, nil)
	advanceRepo.On("ListOpenByEmployee", mock.Anything, int64(7)).Return([]*domain.SalaryAdvance{}, nil)

	loanRepo.On("Create", mock.Anything, mock.MatchedBy(func(loan *domain.Loan) bool {
		return loan.Status == domain.LoanStatusPending &&
			loan.RemainingBalance.Equal(loan.Principal) &&
			loan.ApprovedBy == nil
	})).Return(nil)
	loanRepo.On("CreateSchedule", mock.Anything, mock.MatchedBy(func(installments []*domain.RepaymentInstallment) bool {
		return len(installments) == 12
	})).Return(nil)

	result, err := svc.ApplyForLoan(context.Background(), &domain.LoanApplicationRequest{
		EmployeeID:   7,
		LoanTypeID:   1,
		Amount:       decimal.NewFromInt(120000),
		TenureMonths: 12,
	})

	require.NoError(t, err)
	assert.True(t, result.Decision.Allowed)
	require.NotNil(t, result.Loan)
	assert.Equal(t, domain.LoanStatusPending, result.Loan.Status)
	assert.Len(t, result.Schedule, 12)
	assert.True(t, result.Schedule[0].AmountDue.Equal(decimal.NewFromInt(10000)))

	loanRepo.AssertExpectations(t)
}

func TestApplyForLoan_DeniedDoesNotPersist(t *testing.T) {
	svc, employeeRepo, loanRepo, advanceRepo := newTestService()

	employeeRepo.On("Exists", mock.Anything, int64(7)).Return(true, nil)
	loanRepo.On("WithEmployeeLock", mock.Anything, int64(7)).Return(nil)
	employeeRepo.On("GetActiveSalaryComponents", mock.Anything, int64(7)).Return([]*domain.SalaryComponent{
		earning(300000),
	}, nil)
	loanRepo.On("ListOpenByEmployee", mock.Anything, int64(7)).Return([]*domain.Loan{}, nil)
	advanceRepo.On("ListOpenByEmployee", mock.Anything, int64(7)).Return([]*domain.SalaryAdvance{}, nil)

	result, err := svc.ApplyForLoan(context.Background(), &domain.LoanApplicationRequest{
		EmployeeID:   7,
		LoanTypeID:   1,
		Amount:       decimal.NewFromInt(100000),
		TenureMonths: 12,
	})

	require.NoError(t, err)
	assert.False(t, result.Decision.Allowed)
	assert.Nil(t, result.Loan)
	assert.Nil(t, result.Schedule)
	assert.NotEmpty(t, result.Decision.Message)

	loanRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	loanRepo.AssertNotCalled(t, "CreateSchedule", mock.Anything, mock.Anything)
}

func TestApplyForLoan_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		request *domain.LoanApplicationRequest
	}{
		{
			name: "zero amount",
			request: &domain.LoanApplicationRequest{
				EmployeeID: 7, LoanTypeID: 1, Amount: decimal.Zero, TenureMonths: 12,
			},
		},
		{
			name: "negative amount",
			request: &domain.LoanApplicationRequest{
				EmployeeID: 7, LoanTypeID: 1, Amount: decimal.NewFromInt(-5000), TenureMonths: 12,
			},
		},
		{
			name: "zero tenure",
			request: &domain.LoanApplicationRequest{
				EmployeeID: 7, LoanTypeID: 1, Amount: decimal.NewFromInt(5000), TenureMonths: 0,
			},
		},
		{
			name: "tenure above cap",
			request: &domain.LoanApplicationRequest{
				EmployeeID: 7, LoanTypeID: 1, Amount: decimal.NewFromInt(5000), TenureMonths: 25,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _, _ := newTestService()

			result, err := svc.ApplyForLoan(context.Background(), tt.request)

			assert.Nil(t, result)
			assert.True(t, customError.IsValidation(err), "got %v", err)
		})
	}
}

func TestApplyForLoan_UnknownEmployee(t *testing.T) {
	svc, employeeRepo, _, _ := newTestService()

	employeeRepo.On("Exists", mock.Anything, int64(404)).Return(false, nil)

	result, err := svc.ApplyForLoan(context.Background(), &domain.LoanApplicationRequest{
		EmployeeID:   404,
		LoanTypeID:   1,
		Amount:       decimal.NewFromInt(5000),
		TenureMonths: 6,
	})

	assert.Nil(t, result)
	assert.True(t, customError.IsValidation(err))
}

func TestApplyForLoan_LegacyPathSkipsLock(t *testing.T) {
	svc, employeeRepo, loanRepo, advanceRepo := newTestService()
	svc.config.Business.Serialize = false

	employeeRepo.On("Exists", mock.Anything, int64(7)).Return(true, nil)
	employeeRepo.On("GetActiveSalaryComponents", mock.Anything, int64(7)).Return([]*domain.SalaryComponent{
		earning(300000),
	}, nil)
	loanRepo.On("ListOpenByEmployee", mock.Anything, int64(7)).Return([]*domain.Loan{}, nil)
	advanceRepo.On("ListOpenByEmployee", mock.Anything, int64(7)).Return([]*domain.SalaryAdvance{}, nil)

	result, err := svc.ApplyForLoan(context.Background(), &domain.LoanApplicationRequest{
		EmployeeID:   7,
		LoanTypeID:   1,
		Amount:       decimal.NewFromInt(100000),
		TenureMonths: 12,
	})

	require.NoError(t, err)
	assert.False(t, result.Decision.Allowed)
	loanRepo.AssertNotCalled(t, "WithEmployeeLock", mock.Anything, mock.Anything)
}

func TestApplyForAdvance_Success(t *testing.T) {
	svc, employeeRepo, loanRepo, advanceRepo := newTestService()

	employeeRepo.On("Exists", mock.Anything, int64(7)).Return(true, nil)
	loanRepo.On("WithEmployeeLock", mock.Anything, int64(7)).Return(nil)
	employeeRepo.On("GetActiveSalaryComponents", mock.Anything, int64(7)).Return([]*domain.SalaryComponent{
		earning(600000),
	}, nil)
	loanRepo.On("ListOpenByEmployee", mock.Anything, int64(7)).Return([]*domain.Loan{}, nil)
	advanceRepo.On("ListOpenByEmployee", mock.Anything, int64(7)).Return([]*domain.SalaryAdvance{}, nil)

	advanceRepo.On("Create", mock.Anything, mock.MatchedBy(func(advance *domain.SalaryAdvance) bool {
		return advance.Status == domain.AdvanceStatusPending && advance.DeductedAmount.IsZero()
	})).Return(nil)

	result, err := svc.ApplyForAdvance(context.Background(), &domain.AdvanceApplicationRequest{
		EmployeeID: 7,
		Amount:     decimal.NewFromInt(50000),
	})

	require.NoError(t, err)
	assert.True(t, result.Decision.Allowed)
	require.NotNil(t, result.Advance)
	assert.Equal(t, domain.AdvanceStatusPending, result.Advance.Status)

	advanceRepo.AssertExpectations(t)
}

func TestApplyForAdvance_Denied(t *testing.T) {
	svc, employeeRepo, loanRepo, advanceRepo := newTestService()

	employeeRepo.On("Exists", mock.Anything, int64(7)).Return(true, nil)
	loanRepo.On("WithEmployeeLock", mock.Anything, int64(7)).Return(nil)
	employeeRepo.On("GetActiveSalaryComponents", mock.Anything, int64(7)).Return([]*domain.SalaryComponent{
		earning(100000),
	}, nil)
	loanRepo.On("ListOpenByEmployee", mock.Anything, int64(7)).Return([]*domain.Loan{}, nil)
	advanceRepo.On("ListOpenByEmployee", mock.Anything, int64(7)).Return([]*domain.SalaryAdvance{}, nil)

	result, err := svc.ApplyForAdvance(context.Background(), &domain.AdvanceApplicationRequest{
		EmployeeID: 7,
		Amount:     decimal.NewFromInt(50000),
	})

	require.NoError(t, err)
	assert.False(t, result.Decision.Allowed)
	assert.Nil(t, result.Advance)
	advanceRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestApproveLoan_RequiresManager(t *testing.T) {
	svc, _, _, _ := newTestService()

	principal := domain.Principal{UserID: 1, Role: domain.RoleEmployee, EmployeeID: 9}

	loan, err := svc.ApproveLoan(context.Background(), principal, uuid.New())

	assert.Nil(t, loan)
	assert.True(t, customError.IsForbidden(err))
}

func TestApproveLoan_RejectsSelfApproval(t *testing.T) {
	svc, _, loanRepo, _ := newTestService()

	loanID := uuid.New()
	loanRepo.On("GetByID", mock.Anything, loanID).Return(&domain.Loan{
		LoanID:     loanID,
		EmployeeID: 9,
		Status:     domain.LoanStatusPending,
	}, nil)

	principal := domain.Principal{UserID: 1, Role: domain.RoleManager, EmployeeID: 9}

	loan, err := svc.ApproveLoan(context.Background(), principal, loanID)

	assert.Nil(t, loan)
	assert.True(t, customError.IsForbidden(err))
}

func TestApproveLoan_Success(t *testing.T) {
	svc, _, loanRepo, _ := newTestService()

	loanID := uuid.New()
	loanRepo.On("GetByID", mock.Anything, loanID).Return(&domain.Loan{
		LoanID:     loanID,
		EmployeeID: 9,
		Status:     domain.LoanStatusPending,
	}, nil)
	loanRepo.On("UpdateStatus", mock.Anything, loanID, domain.LoanStatusApproved, mock.MatchedBy(func(approvedBy *int64) bool {
		return approvedBy != nil && *approvedBy == 42
	})).Return(nil)

	principal := domain.Principal{UserID: 42, Role: domain.RoleHR, EmployeeID: 3}

	loan, err := svc.ApproveLoan(context.Background(), principal, loanID)

	require.NoError(t, err)
	assert.Equal(t, domain.LoanStatusApproved, loan.Status)
	require.NotNil(t, loan.ApprovedBy)
	assert.Equal(t, int64(42), *loan.ApprovedBy)
	loanRepo.AssertExpectations(t)
}

func TestApproveLoan_NotPending(t *testing.T) {
	svc, _, loanRepo, _ := newTestService()

	loanID := uuid.New()
	loanRepo.On("GetByID", mock.Anything, loanID).Return(&domain.Loan{
		LoanID:     loanID,
		EmployeeID: 9,
		Status:     domain.LoanStatusApproved,
	}, nil)

	principal := domain.Principal{UserID: 42, Role: domain.RoleManager, EmployeeID: 3}

	loan, err := svc.ApproveLoan(context.Background(), principal, loanID)

	assert.Nil(t, loan)
	var be *customError.BusinessError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, customError.ErrCodeLoanNotPending, be.Code)
}

func TestGetLoanWithSchedule_NotFound(t *testing.T) {
	svc, _, loanRepo, _ := newTestService()

	loanID := uuid.New()
	loanRepo.On("GetByID", mock.Anything, loanID).Return(nil, sql.ErrNoRows)

	detail, err := svc.GetLoanWithSchedule(context.Background(), loanID)

	assert.Nil(t, detail)
	assert.True(t, customError.IsNotFound(err))
}

func TestGetLoanWithSchedule_Success(t *testing.T) {
	svc, _, loanRepo, _ := newTestService()

	loanID := uuid.New()
	loanRepo.On("GetByID", mock.Anything, loanID).Return(&domain.Loan{
		LoanID: loanID,
		Status: domain.LoanStatusPending,
	}, nil)
	loanRepo.On("GetScheduleByLoanID", mock.Anything, loanID).Return([]*domain.RepaymentInstallment{
		{LoanID: loanID, InstallmentNumber: 1},
		{LoanID: loanID, InstallmentNumber: 2},
	}, nil)

	detail, err := svc.GetLoanWithSchedule(context.Background(), loanID)

	require.NoError(t, err)
	assert.Equal(t, loanID, detail.Loan.LoanID)
	assert.Len(t, detail.Schedule, 2)
}

func TestGetAdvance_Success(t *testing.T) {
	svc, _, _, advanceRepo := newTestService()

	advanceID := uuid.New()
	advanceRepo.On("GetByID", mock.Anything, advanceID).Return(&domain.SalaryAdvance{
		AdvanceID:  advanceID,
		EmployeeID: 7,
		Status:     domain.AdvanceStatusPending,
	}, nil)

	advance, err := svc.GetAdvance(context.Background(), advanceID)

	require.NoError(t, err)
	assert.Equal(t, advanceID, advance.AdvanceID)
}

func TestGetAdvance_NotFound(t *testing.T) {
	svc, _, _, advanceRepo := newTestService()

	advanceID := uuid.New()
	advanceRepo.On("GetByID", mock.Anything, advanceID).Return(nil, sql.ErrNoRows)

	advance, err := svc.GetAdvance(context.Background(), advanceID)

	assert.Nil(t, advance)
	assert.True(t, customError.IsNotFound(err))
	var be *customError.BusinessError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, customError.ErrCodeAdvanceNotFound, be.Code)
}

func TestLimitBreakdown_UnknownEmployee(t *testing.T) {
	svc, employeeRepo, _, _ := newTestService()

	employeeRepo.On("Exists", mock.Anything, int64(404)).Return(false, nil)

	decision, err := svc.LimitBreakdown(context.Background(), 404)

	assert.Nil(t, decision)
	assert.True(t, customError.IsValidation(err))
}

func TestLimitBreakdown_ReportsAvailable(t *testing.T) {
	svc, employeeRepo, loanRepo, advanceRepo := newTestService()

	employeeRepo.On("Exists", mock.Anything, int64(7)).Return(true, nil)
	employeeRepo.On("GetActiveSalaryComponents", mock.Anything, int64(7)).Return([]*domain.SalaryComponent{
		{ComponentType: domain.ComponentTypeEarning, Amount: decimal.NewFromInt(300000), IsActive: true},
	}, nil)
	loanRepo.On("ListOpenByEmployee", mock.Anything, int64(7)).Return([]*domain.Loan{}, nil)
	advanceRepo.On("ListOpenByEmployee", mock.Anything, int64(7)).Return([]*domain.SalaryAdvance{
		{AdvanceAmount: decimal.NewFromInt(20000), DeductedAmount: decimal.NewFromInt(5000), Status: domain.AdvanceStatusApproved},
	}, nil)

	decision, err := svc.LimitBreakdown(context.Background(), 7)

	require.NoError(t, err)
	assert.True(t, decision.MaxLimit.Equal(decimal.NewFromInt(99000)))
	assert.True(t, decision.CurrentOutstanding.Equal(decimal.NewFromInt(15000)))
	assert.True(t, decision.AvailableAmount.Equal(decimal.NewFromInt(84000)))
}
