package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/kliksalary/lending-engine/internal/domain"
)

type advanceRepository struct {
	db *sqlx.DB
}

func NewAdvanceRepository(db *sqlx.DB) AdvanceRepository {
	return &advanceRepository{db: db}
}

func (r *advanceRepository) Create(ctx context.Context, advance *domain.SalaryAdvance) error {
	query := `
		INSERT INTO salary_advances (advance_id, employee_id, advance_amount, deducted_amount, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := querier(ctx, r.db).ExecContext(ctx, query,
		advance.AdvanceID,
		advance.EmployeeID,
		advance.AdvanceAmount,
		advance.DeductedAmount,
		advance.Status,
		advance.CreatedAt,
	)

	return err
}

func (r *advanceRepository) GetByID(ctx context.Context, advanceID uuid.UUID) (*domain.SalaryAdvance, error) {
	query := `
		SELECT advance_id, employee_id, advance_amount, deducted_amount, status, created_at
		FROM salary_advances
		WHERE advance_id = $1
	`

	var advance domain.SalaryAdvance
	err := sqlx.GetContext(ctx, querier(ctx, r.db), &advance, query, advanceID)
	if err != nil {
		return nil, err
	}

	return &advance, nil
}

func (r *advanceRepository) ListOpenByEmployee(ctx context.Context, employeeID int64) ([]*domain.SalaryAdvance, error) {
	query := `
		SELECT advance_id, employee_id, advance_amount, deducted_amount, status, created_at
		FROM salary_advances
		WHERE employee_id = $1 AND status IN ('pending', 'approved')
		ORDER BY created_at
	`

	var advances []*domain.SalaryAdvance
	err := sqlx.SelectContext(ctx, querier(ctx, r.db), &advances, query, employeeID)
	if err != nil {
		return nil, err
	}

	return advances, nil
}
