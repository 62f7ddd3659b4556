package settings

import (
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type UpdateSettingsRequest struct {
	PaidLeaves             *decimal.Decimal `json:"paid_leaves,omitempty"`
	OTPayPerHour           *decimal.Decimal `json:"ot_pay_per_hour,omitempty"`
	MinOTHours             *decimal.Decimal `json:"min_ot_hours,omitempty"`
	AttendancePolicy       *ThresholdPolicy `json:"attendance_policy,omitempty"`
	PermissionPolicy       *ThresholdPolicy `json:"permission_policy,omitempty"`
	EnableAbsentDeduction  *bool            `json:"enable_absent_deduction,omitempty"`
	LOPDaysPerAbsent       *decimal.Decimal `json:"lop_days_per_absent,omitempty"`
	IncludeMissing         *bool            `json:"include_missing,omitempty"`
	EnableLoanDeduction    *bool            `json:"enable_loan_deduction,omitempty"`
	EnableAdvanceDeduction *bool            `json:"enable_advance_deduction,omitempty"`
}

func (r *UpdateSettingsRequest) Validate() error {
	var errs validator.ValidationErrors

	for field, v := range map[string]*decimal.Decimal{
		"paid_leaves":         r.PaidLeaves,
		"ot_pay_per_hour":     r.OTPayPerHour,
		"min_ot_hours":        r.MinOTHours,
		"lop_days_per_absent": r.LOPDaysPerAbsent,
	} {
		if validator.IsNegative(v) {
			errs = append(errs, validator.ValidationError{Field: field, Message: "must be non-negative"})
		}
	}
	errs = append(errs, validatePolicy("attendance_policy", r.AttendancePolicy)...)
	errs = append(errs, validatePolicy("permission_policy", r.PermissionPolicy)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func validatePolicy(field string, p *ThresholdPolicy) validator.ValidationErrors {
	if p == nil {
		return nil
	}
	var errs validator.ValidationErrors
	if p.CountThreshold != nil && *p.CountThreshold <= 0 {
		errs = append(errs, validator.ValidationError{Field: field + ".count_threshold", Message: "must be greater than zero"})
	}
	if p.DeductionType != nil {
		switch *p.DeductionType {
		case DeductionTypeHalfDay, DeductionTypeFullDay:
		case DeductionTypeCustomAmount:
			if p.DeductionAmount == nil {
				errs = append(errs, validator.ValidationError{Field: field + ".deduction_amount", Message: "is required for custom_amount"})
			}
		default:
			errs = append(errs, validator.ValidationError{Field: field + ".deduction_type", Message: fmt.Sprintf("unknown deduction type %q", *p.DeductionType)})
		}
	}
	if p.CalculationMode != nil && *p.CalculationMode != CalculationModeProportional && *p.CalculationMode != CalculationModeFloor {
		errs = append(errs, validator.ValidationError{Field: field + ".calculation_mode", Message: "must be proportional or floor"})
	}
	if validator.IsNegative(p.DeductionAmount) {
		errs = append(errs, validator.ValidationError{Field: field + ".deduction_amount", Message: "must be non-negative"})
	}
	if p.MinimumDuration != nil && *p.MinimumDuration < 0 {
		errs = append(errs, validator.ValidationError{Field: field + ".minimum_duration", Message: "must be non-negative"})
	}
	return errs
}

// Apply copies the request onto s. Every field is replaced, so nil clears an override.
func (r *UpdateSettingsRequest) Apply(s Settings) Settings {
	s.PaidLeaves = r.PaidLeaves
	s.OTPayPerHour = r.OTPayPerHour
	s.MinOTHours = r.MinOTHours
	s.AttendancePolicy = r.AttendancePolicy
	s.PermissionPolicy = r.PermissionPolicy
	s.EnableAbsentDeduction = r.EnableAbsentDeduction
	s.LOPDaysPerAbsent = r.LOPDaysPerAbsent
	s.IncludeMissing = r.IncludeMissing
	s.EnableLoanDeduction = r.EnableLoanDeduction
	s.EnableAdvanceDeduction = r.EnableAdvanceDeduction
	return s
}
