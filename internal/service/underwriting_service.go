package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/kliksalary/lending-engine/internal/config"
	"github.com/kliksalary/lending-engine/internal/domain"
	"github.com/kliksalary/lending-engine/internal/repository"
	customError "github.com/kliksalary/lending-engine/pkg/errors"
	"github.com/kliksalary/lending-engine/pkg/utils"
)

// UnderwritingService holds the loan and salary-advance underwriting core:
// salary aggregation, open-liability aggregation, the borrowing limit check,
// and schedule materialization for accepted applications.
type UnderwritingService struct {
	EmployeeRepo repository.EmployeeRepository
	LoanRepo     repository.LoanRepository
	AdvanceRepo  repository.AdvanceRepository
	redis        *redis.Client
	config       *config.Config
}

func NewUnderwritingService(
	employeeRepo repository.EmployeeRepository,
	loanRepo repository.LoanRepository,
	advanceRepo repository.AdvanceRepository,
	redisClient *redis.Client,
	cfg *config.Config,
) *UnderwritingService {
	return &UnderwritingService{
		EmployeeRepo: employeeRepo,
		LoanRepo:     loanRepo,
		AdvanceRepo:  advanceRepo,
		redis:        redisClient,
		config:       cfg,
	}
}

// GrossSalary recomputes the employee's gross monthly salary from the current
// set of active earning/allowance components. No caching: components can be
// toggled independently of loan requests.
func (s *UnderwritingService) GrossSalary(ctx context.Context, employeeID int64) (decimal.Decimal, error) {
	components, err := s.EmployeeRepo.GetActiveSalaryComponents(ctx, employeeID)
	if err != nil {
		return decimal.Zero, customError.WrapDatabaseError(fmt.Errorf("gross salary for employee %d: %w", employeeID, err))
	}

	gross := decimal.Zero
	for _, component := range components {
		if component.CountsTowardGross() {
			gross = gross.Add(component.Amount)
		}
	}

	return gross, nil
}

// OutstandingLoans sums remaining balances over the employee's open loans.
// Pending applications count: that is what stops two in-flight requests from
// jointly passing the ceiling check.
func (s *UnderwritingService) OutstandingLoans(ctx context.Context, employeeID int64) (decimal.Decimal, error) {
	loans, err := s.LoanRepo.ListOpenByEmployee(ctx, employeeID)
	if err != nil {
		return decimal.Zero, customError.WrapDatabaseError(fmt.Errorf("outstanding loans for employee %d: %w", employeeID, err))
	}

	total := decimal.Zero
	for _, loan := range loans {
		total = total.Add(loan.RemainingBalance)
	}

	return total, nil
}

// OutstandingAdvances sums unrecovered amounts over the employee's open
// salary advances.
func (s *UnderwritingService) OutstandingAdvances(ctx context.Context, employeeID int64) (decimal.Decimal, error) {
	advances, err := s.AdvanceRepo.ListOpenByEmployee(ctx, employeeID)
	if err != nil {
		return decimal.Zero, customError.WrapDatabaseError(fmt.Errorf("outstanding advances for employee %d: %w", employeeID, err))
	}

	total := decimal.Zero
	for _, advance := range advances {
		total = total.Add(advance.Outstanding())
	}

	return total, nil
}

// Evaluate applies the borrowing ceiling policy to a requested amount.
// Precondition: requested > 0 is the caller's responsibility; this method
// only compares against the ceiling.
func (s *UnderwritingService) Evaluate(ctx context.Context, employeeID int64, requested decimal.Decimal) (*domain.Decision, error) {
	gross, err := s.GrossSalary(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	maxLimit := gross.Mul(s.config.GetMaxExposureRatio())

	outstandingLoans, err := s.OutstandingLoans(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	outstandingAdvances, err := s.OutstandingAdvances(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	outstanding := outstandingLoans.Add(outstandingAdvances)

	available := maxLimit.Sub(outstanding)
	if available.IsNegative() {
		available = decimal.Zero
	}

	decision := &domain.Decision{
		MaxLimit:           maxLimit,
		CurrentOutstanding: outstanding,
		AvailableAmount:    available,
		GrossSalary:        gross,
	}

	if outstanding.Add(requested).GreaterThan(maxLimit) {
		decision.Allowed = false
		decision.Message = fmt.Sprintf(
			"Requested amount exceeds the borrowing limit. Gross salary: %s, maximum limit: %s, current outstanding: %s, available: %s",
			utils.FormatCurrency(gross),
			utils.FormatCurrency(maxLimit),
			utils.FormatCurrency(outstanding),
			utils.FormatCurrency(available),
		)
		return decision, nil
	}

	decision.Allowed = true
	return decision, nil
}

// ApplyForLoan runs the full loan application flow: validation, limit
// evaluation, and on acceptance a pending loan row plus its repayment
// schedule. Evaluation and insert run under a per-employee lock when
// UNDERWRITING_SERIALIZE is on; with the flag off the legacy best-effort
// read-then-write behavior is preserved.
func (s *UnderwritingService) ApplyForLoan(ctx context.Context, request *domain.LoanApplicationRequest) (*domain.LoanApplicationResult, error) {
	if !request.Amount.IsPositive() {
		return nil, customError.WrapValidation("amount must be greater than zero", customError.ErrInvalidAmount)
	}
	if request.TenureMonths <= 0 {
		return nil, customError.WrapValidation("tenure months must be greater than zero", customError.ErrInvalidTenure)
	}
	if request.TenureMonths > s.config.Business.MaxTenureMonths {
		return nil, customError.WrapValidation(
			fmt.Sprintf("tenure months must not exceed %d", s.config.Business.MaxTenureMonths),
			customError.ErrInvalidTenure,
		)
	}

	if err := s.requireEmployee(ctx, request.EmployeeID); err != nil {
		return nil, err
	}

	var result *domain.LoanApplicationResult
	err := s.serialized(ctx, request.EmployeeID, func(ctx context.Context) error {
		var innerErr error
		result, innerErr = s.applyForLoan(ctx, request)
		return innerErr
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (s *UnderwritingService) applyForLoan(ctx context.Context, request *domain.LoanApplicationRequest) (*domain.LoanApplicationResult, error) {
	decision, err := s.Evaluate(ctx, request.EmployeeID, request.Amount)
	if err != nil {
		return nil, err
	}

	if !decision.Allowed {
		return &domain.LoanApplicationResult{Decision: decision}, nil
	}

	loan := &domain.Loan{
		LoanID:           uuid.New(),
		EmployeeID:       request.EmployeeID,
		LoanTypeID:       request.LoanTypeID,
		Principal:        request.Amount,
		RemainingBalance: request.Amount,
		TenureMonths:     request.TenureMonths,
		Status:           domain.LoanStatusPending, // forced regardless of caller input
		CreatedAt:        time.Now(),
	}

	schedule, err := GenerateSchedule(loan.LoanID, loan.Principal, loan.TenureMonths, loan.CreatedAt)
	if err != nil {
		return nil, err
	}

	if err = s.LoanRepo.Create(ctx, loan); err != nil {
		return nil, customError.WrapDatabaseError(fmt.Errorf("create loan for employee %d: %w", loan.EmployeeID, err))
	}

	if err = s.LoanRepo.CreateSchedule(ctx, schedule); err != nil {
		return nil, customError.WrapDatabaseError(fmt.Errorf("persist schedule for loan %s: %w", loan.LoanID, err))
	}

	return &domain.LoanApplicationResult{
		Decision: decision,
		Loan:     loan,
		Schedule: schedule,
	}, nil
}

// ApplyForAdvance runs the salary advance application flow. Advances share
// the borrowing ceiling with loans but carry no repayment schedule; recovery
// happens through payroll deductions.
func (s *UnderwritingService) ApplyForAdvance(ctx context.Context, request *domain.AdvanceApplicationRequest) (*domain.AdvanceApplicationResult, error) {
	if !request.Amount.IsPositive() {
		return nil, customError.WrapValidation("amount must be greater than zero", customError.ErrInvalidAmount)
	}

	if err := s.requireEmployee(ctx, request.EmployeeID); err != nil {
		return nil, err
	}

	var result *domain.AdvanceApplicationResult
	err := s.serialized(ctx, request.EmployeeID, func(ctx context.Context) error {
		decision, innerErr := s.Evaluate(ctx, request.EmployeeID, request.Amount)
		if innerErr != nil {
			return innerErr
		}

		if !decision.Allowed {
			result = &domain.AdvanceApplicationResult{Decision: decision}
			return nil
		}

		advance := &domain.SalaryAdvance{
			AdvanceID:      uuid.New(),
			EmployeeID:     request.EmployeeID,
			AdvanceAmount:  request.Amount,
			DeductedAmount: decimal.Zero,
			Status:         domain.AdvanceStatusPending,
			CreatedAt:      time.Now(),
		}

		if innerErr = s.AdvanceRepo.Create(ctx, advance); innerErr != nil {
			return customError.WrapDatabaseError(fmt.Errorf("create advance for employee %d: %w", advance.EmployeeID, innerErr))
		}

		result = &domain.AdvanceApplicationResult{
			Decision: decision,
			Advance:  advance,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

// ApproveLoan transitions a pending loan to approved. Requires a manager or
// higher; applicants cannot approve their own loan. The schedule already
// exists from acceptance time and is not regenerated.
func (s *UnderwritingService) ApproveLoan(ctx context.Context, principal domain.Principal, loanID uuid.UUID) (*domain.Loan, error) {
	if !principal.Role.AtLeast(domain.RoleManager) {
		return nil, customError.WrapForbidden(customError.ErrForbidden)
	}

	loan, err := s.LoanRepo.GetByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapLoanNotFound(loanID.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}

	if loan.EmployeeID == principal.EmployeeID {
		return nil, customError.WrapForbidden(customError.ErrSelfApproval)
	}

	if loan.Status != domain.LoanStatusPending {
		return nil, customError.WrapLoanNotPending(loanID.String())
	}

	approver := principal.UserID
	if err = s.LoanRepo.UpdateStatus(ctx, loanID, domain.LoanStatusApproved, &approver); err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	loan.Status = domain.LoanStatusApproved
	loan.ApprovedBy = &approver

	s.invalidateLoanCache(ctx, loanID)

	return loan, nil
}

// GetLoanWithSchedule is the display read: loan joined with its ordered
// schedule. Results are cached briefly in redis; underwriting aggregates
// never go through this path and are never cached.
func (s *UnderwritingService) GetLoanWithSchedule(ctx context.Context, loanID uuid.UUID) (*domain.LoanDetail, error) {
	if detail := s.cachedLoanDetail(ctx, loanID); detail != nil {
		return detail, nil
	}

	loan, err := s.LoanRepo.GetByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapLoanNotFound(loanID.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}

	schedule, err := s.LoanRepo.GetScheduleByLoanID(ctx, loanID)
	if err != nil {
		return nil, customError.WrapDatabaseError(err)
	}

	detail := &domain.LoanDetail{Loan: loan, Schedule: schedule}
	s.cacheLoanDetail(ctx, loanID, detail)

	return detail, nil
}

// GetAdvance returns a salary advance by id.
func (s *UnderwritingService) GetAdvance(ctx context.Context, advanceID uuid.UUID) (*domain.SalaryAdvance, error) {
	advance, err := s.AdvanceRepo.GetByID(ctx, advanceID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, customError.WrapAdvanceNotFound(advanceID.String())
		}
		return nil, customError.WrapDatabaseError(err)
	}

	return advance, nil
}

// LimitBreakdown exposes the employee's borrowing headroom: the Decision for
// a zero request. Unlike the raw evaluator it verifies the employee exists,
// keeping this surface consistent with the application paths.
func (s *UnderwritingService) LimitBreakdown(ctx context.Context, employeeID int64) (*domain.Decision, error) {
	if err := s.requireEmployee(ctx, employeeID); err != nil {
		return nil, err
	}

	return s.Evaluate(ctx, employeeID, decimal.Zero)
}

func (s *UnderwritingService) requireEmployee(ctx context.Context, employeeID int64) error {
	exists, err := s.EmployeeRepo.Exists(ctx, employeeID)
	if err != nil {
		return customError.WrapDatabaseError(fmt.Errorf("employee lookup %d: %w", employeeID, err))
	}
	if !exists {
		return customError.WrapEmployeeNotFound(employeeID)
	}
	return nil
}

func (s *UnderwritingService) serialized(ctx context.Context, employeeID int64, fn func(ctx context.Context) error) error {
	if s.config != nil && !s.config.Business.Serialize {
		return fn(ctx)
	}
	return s.LoanRepo.WithEmployeeLock(ctx, employeeID, fn)
}

func (s *UnderwritingService) loanCacheKey(loanID uuid.UUID) string {
	return "loan:" + loanID.String()
}

func (s *UnderwritingService) cachedLoanDetail(ctx context.Context, loanID uuid.UUID) *domain.LoanDetail {
	if s.redis == nil {
		return nil
	}

	payload, err := s.redis.Get(ctx, s.loanCacheKey(loanID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("loan cache read: %v", customError.WrapCacheError(err))
		}
		return nil
	}

	var detail domain.LoanDetail
	if err := json.Unmarshal(payload, &detail); err != nil {
		return nil
	}

	return &detail
}

func (s *UnderwritingService) cacheLoanDetail(ctx context.Context, loanID uuid.UUID, detail *domain.LoanDetail) {
	if s.redis == nil {
		return
	}

	payload, err := json.Marshal(detail)
	if err != nil {
		return
	}

	ttl := 5 * time.Minute
	if s.config != nil {
		ttl = s.config.GetLoanCacheTTL()
	}

	if err := s.redis.Set(ctx, s.loanCacheKey(loanID), payload, ttl).Err(); err != nil {
		log.Printf("loan cache write: %v", customError.WrapCacheError(err))
	}
}

func (s *UnderwritingService) invalidateLoanCache(ctx context.Context, loanID uuid.UUID) {
	if s.redis == nil {
		return
	}

	if err := s.redis.Del(ctx, s.loanCacheKey(loanID)).Err(); err != nil {
		log.Printf("loan cache invalidation: %v", customError.WrapCacheError(err))
	}
}
