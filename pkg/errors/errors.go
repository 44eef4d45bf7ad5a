package errors

import (
	"errors"
	"fmt"
)

// Domain errors
var (
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrLoanNotFound     = errors.New("loan not found")
	ErrAdvanceNotFound  = errors.New("salary advance not found")
	ErrInvalidAmount    = errors.New("amount must be greater than zero")
	ErrInvalidTenure    = errors.New("tenure months must be greater than zero")
	ErrLoanNotPending   = errors.New("loan is not pending approval")
	ErrForbidden        = errors.New("insufficient role for this operation")
	ErrSelfApproval     = errors.New("applicants cannot approve their own loan")
)

// BusinessError represents a business logic error
type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

// NewBusinessError creates a new business error
func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Error codes
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeEmployeeNotFound = "EMPLOYEE_NOT_FOUND"
	ErrCodeLoanNotFound     = "LOAN_NOT_FOUND"
	ErrCodeAdvanceNotFound  = "ADVANCE_NOT_FOUND"
	ErrCodeLoanNotPending   = "LOAN_NOT_PENDING"
	ErrCodeForbidden        = "FORBIDDEN"
	ErrCodeDatabaseError    = "DATABASE_ERROR"
	ErrCodeCacheError       = "CACHE_ERROR"
)

// Wrap common errors with business context
func WrapValidation(message string, err error) *BusinessError {
	return NewBusinessError(ErrCodeValidation, message, err)
}

func WrapEmployeeNotFound(employeeID int64) *BusinessError {
	return NewBusinessError(
		ErrCodeEmployeeNotFound,
		fmt.Sprintf("Employee with ID %d not found", employeeID),
		ErrEmployeeNotFound,
	)
}

func WrapLoanNotFound(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanNotFound,
		fmt.Sprintf("Loan with ID %s not found", loanID),
		ErrLoanNotFound,
	)
}

func WrapAdvanceNotFound(advanceID string) *BusinessError {
	return NewBusinessError(
		ErrCodeAdvanceNotFound,
		fmt.Sprintf("Salary advance with ID %s not found", advanceID),
		ErrAdvanceNotFound,
	)
}

func WrapLoanNotPending(loanID string) *BusinessError {
	return NewBusinessError(
		ErrCodeLoanNotPending,
		fmt.Sprintf("Loan with ID %s is not pending approval", loanID),
		ErrLoanNotPending,
	)
}

func WrapForbidden(err error) *BusinessError {
	return NewBusinessError(ErrCodeForbidden, "operation not permitted", err)
}

func WrapDatabaseError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeDatabaseError,
		"database operation failed",
		err,
	)
}

func WrapCacheError(err error) *BusinessError {
	return NewBusinessError(
		ErrCodeCacheError,
		"cache operation failed",
		err,
	)
}

// IsValidation reports whether err is a validation business error.
func IsValidation(err error) bool {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code == ErrCodeValidation || be.Code == ErrCodeEmployeeNotFound
	}
	return false
}

// IsNotFound reports whether err indicates a missing record. An unknown
// employee id is classified as a validation error instead: applications
// reject it up front with a 400.
func IsNotFound(err error) bool {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code == ErrCodeLoanNotFound || be.Code == ErrCodeAdvanceNotFound
	}
	return false
}

// IsConflict reports whether err is a state conflict (e.g. approving a loan
// that is no longer pending).
func IsConflict(err error) bool {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code == ErrCodeLoanNotPending
	}
	return false
}

// IsForbidden reports whether err is an authorization failure.
func IsForbidden(err error) bool {
	var be *BusinessError
	if errors.As(err, &be) {
		return be.Code == ErrCodeForbidden
	}
	return false
}
