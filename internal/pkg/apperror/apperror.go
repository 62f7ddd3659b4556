package apperror

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Domain errors wrap one of these so callers can branch with errors.Is.
var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("not found")
	ErrBatchLocked     = errors.New("payroll batch is locked")
	ErrValidation      = errors.New("validation failed")
	ErrStateTransition = errors.New("invalid status transition")
)

// NotFound builds a not-found error for the named resource, e.g. NotFound("employee").
func NotFound(resource string) error {
	return fmt.Errorf("%s %w", resource, ErrNotFound)
}

type InvalidInputError struct {
	Field  string
	Reason string
}

func InvalidInput(field, reason string) error {
	return &InvalidInputError{Field: field, Reason: reason}
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s %s", e.Field, e.Reason)
}

func (e *InvalidInputError) Unwrap() error {
	return ErrInvalidInput
}

// BatchLockedError is returned when a locked batch is mutated without a valid recalculation permission.
type BatchLockedError struct {
	BatchID string
	Status  string
}

func (e *BatchLockedError) Error() string {
	return fmt.Sprintf("payroll batch %s is %s, recalculation permission required", e.BatchID, e.Status)
}

func (e *BatchLockedError) Unwrap() error {
	return ErrBatchLocked
}

type StateTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *StateTransitionError) Error() string {
	return fmt.Sprintf("%s cannot transition from %s to %s", e.Entity, e.From, e.To)
}

func (e *StateTransitionError) Unwrap() error {
	return ErrStateTransition
}

// MissingEmployeesError reports employees without a calculated payroll record in a batch.
type MissingEmployeesError struct {
	BatchID     string
	EmployeeIDs []string
}

func (e *MissingEmployeesError) Error() string {
	return fmt.Sprintf("payroll batch %s is incomplete, missing employees: %s", e.BatchID, strings.Join(e.EmployeeIDs, ", "))
}

func (e *MissingEmployeesError) Unwrap() error {
	return ErrValidation
}
