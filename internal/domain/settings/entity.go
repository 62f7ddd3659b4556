package settings

import (
	"time"

	"github.com/shopspring/decimal"
)

type DeductionType string

const (
	DeductionTypeHalfDay      DeductionType = "half_day"
	DeductionTypeFullDay      DeductionType = "full_day"
	DeductionTypeCustomAmount DeductionType = "custom_amount"
)

type CalculationMode string

const (
	CalculationModeProportional CalculationMode = "proportional"
	CalculationModeFloor        CalculationMode = "floor"
)

// ThresholdPolicy turns a count of events (lates+early outs, or permissions) into deducted days.
type ThresholdPolicy struct {
	CountThreshold  *int             `json:"count_threshold,omitempty"`
	DeductionType   *DeductionType   `json:"deduction_type,omitempty"`
	DeductionAmount *decimal.Decimal `json:"deduction_amount,omitempty"`
	MinimumDuration *int             `json:"minimum_duration,omitempty"`
	CalculationMode *CalculationMode `json:"calculation_mode,omitempty"`
}

// IsConfigured reports whether the policy has enough to produce a deduction.
func (p *ThresholdPolicy) IsConfigured() bool {
	if p == nil || p.CountThreshold == nil || *p.CountThreshold <= 0 || p.DeductionType == nil || p.CalculationMode == nil {
		return false
	}
	if *p.DeductionType == DeductionTypeCustomAmount && p.DeductionAmount == nil {
		return false
	}
	return true
}

// Settings holds payroll policy at one scope: global (DepartmentID nil), a department,
// or a department narrowed to a division. Nil fields inherit from the next scope up.
type Settings struct {
	ID                     string           `json:"id"`
	DepartmentID           *string          `json:"department_id,omitempty"`
	DivisionID             *string          `json:"division_id,omitempty"`
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
	UpdatedBy              *string          `json:"updated_by,omitempty"`
	CreatedAt              time.Time        `json:"created_at"`
	UpdatedAt              time.Time        `json:"updated_at"`
}

// Effective is the fully resolved policy for one department/division.
type Effective struct {
	PaidLeaves             decimal.Decimal  `json:"paid_leaves"`
	OTPayPerHour           decimal.Decimal  `json:"ot_pay_per_hour"`
	MinOTHours             decimal.Decimal  `json:"min_ot_hours"`
	AttendancePolicy       *ThresholdPolicy `json:"attendance_policy,omitempty"`
	PermissionPolicy       *ThresholdPolicy `json:"permission_policy,omitempty"`
	EnableAbsentDeduction  bool             `json:"enable_absent_deduction"`
	LOPDaysPerAbsent       decimal.Decimal  `json:"lop_days_per_absent"`
	IncludeMissing         bool             `json:"include_missing"`
	EnableLoanDeduction    bool             `json:"enable_loan_deduction"`
	EnableAdvanceDeduction bool             `json:"enable_advance_deduction"`
}
