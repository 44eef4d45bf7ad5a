package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/kliksalary/lending-engine/internal/domain"
)

type employeeRepository struct {
	db *sqlx.DB
}

func NewEmployeeRepository(db *sqlx.DB) EmployeeRepository {
	return &employeeRepository{db: db}
}

func (r *employeeRepository) Exists(ctx context.Context, employeeID int64) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM employees WHERE employee_id = $1)`

	var exists bool
	err := sqlx.GetContext(ctx, querier(ctx, r.db), &exists, query, employeeID)
	if err != nil {
		return false, err
	}

	return exists, nil
}

func (r *employeeRepository) GetActiveSalaryComponents(ctx context.Context, employeeID int64) ([]*domain.SalaryComponent, error) {
	query := `
		SELECT component_id, employee_id, component_type, amount, is_active
		FROM salary_components
		WHERE employee_id = $1 AND is_active = true
		ORDER BY component_id
	`

	var components []*domain.SalaryComponent
	err := sqlx.SelectContext(ctx, querier(ctx, r.db), &components, query, employeeID)
	if err != nil {
		return nil, err
	}

	return components, nil
}
