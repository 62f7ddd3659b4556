package payroll

import (
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
)

type CalculatePayrollRequest struct {
	EmployeeID string  `json:"employee_id"`
	Month      string  `json:"month"`
	PayBase    PayBase `json:"pay_base"`
}

func (r *CalculatePayrollRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.EmployeeID) {
		errs = append(errs, validator.ValidationError{Field: "employee_id", Message: "employee_id is required"})
	}
	errs = append(errs, validateMonthAndBase(r.Month, &r.PayBase)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type BulkCalculateRequest struct {
	EmployeeIDs []string `json:"employee_ids"`
	Month       string   `json:"month"`
	PayBase     PayBase  `json:"pay_base"`
}

func (r *BulkCalculateRequest) Validate() error {
	var errs validator.ValidationErrors

	if len(r.EmployeeIDs) == 0 {
		errs = append(errs, validator.ValidationError{Field: "employee_ids", Message: "at least one employee is required"})
	}
	for _, id := range r.EmployeeIDs {
		if validator.IsEmpty(id) {
			errs = append(errs, validator.ValidationError{Field: "employee_ids", Message: "employee ids must not be empty"})
			break
		}
	}
	errs = append(errs, validateMonthAndBase(r.Month, &r.PayBase)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type CalculateDepartmentRequest struct {
	DepartmentID string  `json:"department_id"`
	DivisionID   *string `json:"division_id,omitempty"`
	Month        string  `json:"month"`
	PayBase      PayBase `json:"pay_base"`
}

func (r *CalculateDepartmentRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.DepartmentID) {
		errs = append(errs, validator.ValidationError{Field: "department_id", Message: "department_id is required"})
	}
	errs = append(errs, validateMonthAndBase(r.Month, &r.PayBase)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type CalculateAllRequest struct {
	Month   string  `json:"month"`
	PayBase PayBase `json:"pay_base"`
}

func (r *CalculateAllRequest) Validate() error {
	if errs := validateMonthAndBase(r.Month, &r.PayBase); len(errs) > 0 {
		return errs
	}
	return nil
}

// validateMonthAndBase defaults an empty pay base to gross.
func validateMonthAndBase(month string, payBase *PayBase) validator.ValidationErrors {
	var errs validator.ValidationErrors
	if !validator.IsValidMonth(month) {
		errs = append(errs, validator.ValidationError{Field: "month", Message: "month must be in YYYY-MM format"})
	}
	if *payBase == "" {
		*payBase = PayBaseGross
	}
	if !payBase.IsValid() {
		errs = append(errs, validator.ValidationError{Field: "pay_base", Message: "pay_base must be gross or second"})
	}
	return errs
}

type EmployeeError struct {
	EmployeeID string `json:"employee_id"`
	Message    string `json:"message"`
}

type BulkCalculateResult struct {
	Month        string          `json:"month"`
	PayBase      PayBase         `json:"pay_base"`
	Total        int             `json:"total"`
	SuccessCount int             `json:"success_count"`
	FailureCount int             `json:"failure_count"`
	RecordIDs    []string        `json:"record_ids"`
	Errors       []EmployeeError `json:"errors"`
}

type RecordFilter struct {
	Month        *string
	PayBase      *PayBase
	DepartmentID *string
	DivisionID   *string
	EmployeeID   *string
	Status       *RecordStatus
	BatchID      *string
}

type UpdateRecordStatusRequest struct {
	ID     string       `json:"-"`
	Status RecordStatus `json:"status"`
}

func (r *UpdateRecordStatusRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs = append(errs, validator.ValidationError{Field: "id", Message: "record id is required"})
	}
	if !r.Status.IsValid() || r.Status == RecordStatusDraft {
		errs = append(errs, validator.ValidationError{Field: "status", Message: "status must be calculated, approved, processed or cancelled"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
