package batch

import (
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
)

type Filter struct {
	Month        *string
	DepartmentID *string
	Status       *Status
	PayBase      *payroll.PayBase
}

type CreateBatchRequest struct {
	DepartmentID string          `json:"department_id"`
	DivisionID   *string         `json:"division_id,omitempty"`
	Month        string          `json:"month"`
	PayBase      payroll.PayBase `json:"pay_base"`
}

func (r *CreateBatchRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.DepartmentID) {
		errs = append(errs, validator.ValidationError{Field: "department_id", Message: "department_id is required"})
	}
	if !validator.IsValidMonth(r.Month) {
		errs = append(errs, validator.ValidationError{Field: "month", Message: "month must be in YYYY-MM format"})
	}
	if r.PayBase == "" {
		r.PayBase = payroll.PayBaseGross
	}
	if !r.PayBase.IsValid() {
		errs = append(errs, validator.ValidationError{Field: "pay_base", Message: "pay_base must be gross or second"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (r *CreateBatchRequest) Key() Key {
	return Key{DepartmentID: r.DepartmentID, DivisionID: r.DivisionID, Month: r.Month, PayBase: r.PayBase}
}

type ChangeStatusRequest struct {
	ID     string `json:"-"`
	Status Status `json:"status"`
	Reason string `json:"reason"`
}

func (r *ChangeStatusRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{Field: "id", Message: "batch id is required"})
	}
	if !r.Status.IsValid() {
		errs = append(errs, validator.ValidationError{Field: "status", Message: "status must be pending, approved, freeze or complete"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type PermissionRequest struct {
	ID          string `json:"-"`
	Reason      string `json:"reason"`
	ExpiryHours int    `json:"expiry_hours,omitempty"`
}

func (r *PermissionRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{Field: "id", Message: "batch id is required"})
	}
	if validator.IsEmpty(r.Reason) {
		errs = append(errs, validator.ValidationError{Field: "reason", Message: "reason is required"})
	}
	if r.ExpiryHours < 0 {
		errs = append(errs, validator.ValidationError{Field: "expiry_hours", Message: "must be non-negative"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type RecalculateRequest struct {
	ID     string `json:"-"`
	Reason string `json:"reason"`
}

type RollbackRequest struct {
	ID        string `json:"-"`
	HistoryID string `json:"history_id"`
	Reason    string `json:"reason"`
}

func (r *RollbackRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{Field: "id", Message: "batch id is required"})
	}
	if validator.IsEmpty(r.HistoryID) {
		errs = append(errs, validator.ValidationError{Field: "history_id", Message: "history_id is required"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// ValidationReport is the coverage check run before approval.
type ValidationReport struct {
	BatchID            string   `json:"batch_id"`
	ExpectedEmployees  int      `json:"expected_employees"`
	CalculatedCount    int      `json:"calculated_count"`
	MissingEmployeeIDs []string `json:"missing_employee_ids"`
	IsComplete         bool     `json:"is_complete"`
}

type RecalculationResult struct {
	Batch        Batch                   `json:"batch"`
	HistoryID    string                  `json:"history_id"`
	SuccessCount int                     `json:"success_count"`
	FailureCount int                     `json:"failure_count"`
	Errors       []payroll.EmployeeError `json:"errors"`
}
