package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kliksalary/lending-engine/internal/domain"
)

type loanRepository struct {
	db *sqlx.DB
}

func NewLoanRepository(db *sqlx.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) Create(ctx context.Context, loan *domain.Loan) error {
	query := `
		INSERT INTO loans (loan_id, employee_id, loan_type_id, principal, remaining_balance, tenure_months, status, approved_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := querier(ctx, r.db).ExecContext(ctx, query,
		loan.LoanID,
		loan.EmployeeID,
		loan.LoanTypeID,
		loan.Principal,
		loan.RemainingBalance,
		loan.TenureMonths,
		loan.Status,
		loan.ApprovedBy,
		loan.CreatedAt,
	)

	return err
}

func (r *loanRepository) GetByID(ctx context.Context, loanID uuid.UUID) (*domain.Loan, error) {
	query := `
		SELECT loan_id, employee_id, loan_type_id, principal, remaining_balance, tenure_months, status, approved_by, created_at
		FROM loans
		WHERE loan_id = $1
	`

	var loan domain.Loan
	err := sqlx.GetContext(ctx, querier(ctx, r.db), &loan, query, loanID)
	if err != nil {
		return nil, err
	}

	return &loan, nil
}

func (r *loanRepository) ListOpenByEmployee(ctx context.Context, employeeID int64) ([]*domain.Loan, error) {
	query := `
		SELECT loan_id, employee_id, loan_type_id, principal, remaining_balance, tenure_months, status, approved_by, created_at
		FROM loans
		WHERE employee_id = $1 AND status IN ('pending', 'approved', 'disbursed', 'active')
		ORDER BY created_at
	`

	var loans []*domain.Loan
	err := sqlx.SelectContext(ctx, querier(ctx, r.db), &loans, query, employeeID)
	if err != nil {
		return nil, err
	}

	return loans, nil
}

func (r *loanRepository) UpdateStatus(ctx context.Context, loanID uuid.UUID, status string, approvedBy *int64) error {
	query := `
		UPDATE loans
		SET status = $2, approved_by = COALESCE($3, approved_by)
		WHERE loan_id = $1
	`

	_, err := querier(ctx, r.db).ExecContext(ctx, query, loanID, status, approvedBy)
	return err
}

func (r *loanRepository) CreateSchedule(ctx context.Context, installments []*domain.RepaymentInstallment) error {
	// Inside WithEmployeeLock the bound transaction already provides
	// atomicity; opening a second one would demand another pool connection.
	if q, ok := boundQuerier(ctx); ok {
		return insertInstallments(ctx, q, installments)
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err = insertInstallments(ctx, tx, installments); err != nil {
		return err
	}

	return tx.Commit()
}

func insertInstallments(ctx context.Context, q sqlx.ExtContext, installments []*domain.RepaymentInstallment) error {
	query := `
		INSERT INTO repayment_installments (id, loan_id, installment_number, due_date, amount_due, principal_amount, interest_amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	for _, installment := range installments {
		_, err := q.ExecContext(ctx, query,
			installment.ID,
			installment.LoanID,
			installment.InstallmentNumber,
			installment.DueDate,
			installment.AmountDue,
			installment.PrincipalAmount,
			installment.InterestAmount,
			installment.Status,
			installment.CreatedAt,
		)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *loanRepository) GetScheduleByLoanID(ctx context.Context, loanID uuid.UUID) ([]*domain.RepaymentInstallment, error) {
	query := `
		SELECT id, loan_id, installment_number, due_date, amount_due, principal_amount, interest_amount, status, created_at
		FROM repayment_installments
		WHERE loan_id = $1
		ORDER BY installment_number
	`

	var installments []*domain.RepaymentInstallment
	err := sqlx.SelectContext(ctx, querier(ctx, r.db), &installments, query, loanID)
	if err != nil {
		return nil, err
	}

	return installments, nil
}

func (r *loanRepository) MarkOverdueInstallments(ctx context.Context, asOf time.Time) (int64, error) {
	query := `
		UPDATE repayment_installments
		SET status = 'overdue'
		WHERE status = 'pending' AND due_date < $1
	`

	result, err := querier(ctx, r.db).ExecContext(ctx, query, asOf)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// WithEmployeeLock serializes underwriting per employee with a transaction-scoped
// postgres advisory lock. The transaction is bound to the context handed to fn,
// so every repository call inside fn runs on the lock's connection: one pool
// connection per in-flight application, and the evaluate-then-insert sequence
// is atomic. Holding the lock while borrowing a second pool connection would
// wedge the pool once it is saturated.
func (r *loanRepository) WithEmployeeLock(ctx context.Context, employeeID int64, fn func(ctx context.Context) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, employeeID); err != nil {
		return err
	}

	if err = fn(bindQuerier(ctx, tx)); err != nil {
		return err
	}

	return tx.Commit()
}
