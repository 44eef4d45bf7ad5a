package domain

import (
	"github.com/shopspring/decimal"
)

const (
	ComponentTypeEarning   = "earning"
	ComponentTypeAllowance = "allowance"
	ComponentTypeDeduction = "deduction"
)

// SalaryComponent is one row of an employee's compensation breakdown.
// Only active earning/allowance rows count toward gross salary.
type SalaryComponent struct {
	ComponentID   int64           `json:"component_id" db:"component_id"`
	EmployeeID    int64           `json:"employee_id" db:"employee_id"`
	ComponentType string          `json:"component_type" db:"component_type"`
	Amount        decimal.Decimal `json:"amount" db:"amount"`
	IsActive      bool            `json:"is_active" db:"is_active"`
}

// CountsTowardGross reports whether the component contributes to gross salary.
func (c *SalaryComponent) CountsTowardGross() bool {
	if !c.IsActive {
		return false
	}
	return c.ComponentType == ComponentTypeEarning || c.ComponentType == ComponentTypeAllowance
}
