package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRoleOrdering(t *testing.T) {
	assert.True(t, RoleAdmin.AtLeast(RoleHR))
	assert.True(t, RoleHR.AtLeast(RoleManager))
	assert.True(t, RoleManager.AtLeast(RoleEmployee))
	assert.True(t, RoleManager.AtLeast(RoleManager))

	assert.False(t, RoleEmployee.AtLeast(RoleManager))
	assert.False(t, RoleManager.AtLeast(RoleHR))
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Role
		ok       bool
	}{
		{"employee", "employee", RoleEmployee, true},
		{"manager", "manager", RoleManager, true},
		{"hr", "hr", RoleHR, true},
		{"admin", "admin", RoleAdmin, true},
		{"unknown falls back to employee", "superuser", RoleEmployee, false},
		{"empty", "", RoleEmployee, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			role, ok := ParseRole(tt.input)
			assert.Equal(t, tt.expected, role)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestSalaryComponentCountsTowardGross(t *testing.T) {
	assert.True(t, (&SalaryComponent{ComponentType: ComponentTypeEarning, IsActive: true}).CountsTowardGross())
	assert.True(t, (&SalaryComponent{ComponentType: ComponentTypeAllowance, IsActive: true}).CountsTowardGross())
	assert.False(t, (&SalaryComponent{ComponentType: ComponentTypeDeduction, IsActive: true}).CountsTowardGross())
	assert.False(t, (&SalaryComponent{ComponentType: ComponentTypeEarning, IsActive: false}).CountsTowardGross())
}
