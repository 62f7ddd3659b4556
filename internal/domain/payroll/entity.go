package payroll

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/rule"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/settings"
	"github.com/shopspring/decimal"
)

// PayBase selects which salary field a payroll run is computed from.
type PayBase string

const (
	PayBaseGross  PayBase = "gross"
	PayBaseSecond PayBase = "second"
)

func (b PayBase) IsValid() bool {
	return b == PayBaseGross || b == PayBaseSecond
}

// FieldName is the employee field backing this pay base, used in error messages.
func (b PayBase) FieldName() string {
	if b == PayBaseSecond {
		return "second_salary"
	}
	return "gross_salary"
}

// RecordStatus enum
type RecordStatus string

const (
	RecordStatusDraft      RecordStatus = "draft"
	RecordStatusCalculated RecordStatus = "calculated"
	RecordStatusApproved   RecordStatus = "approved"
	RecordStatusProcessed  RecordStatus = "processed"
	RecordStatusCancelled  RecordStatus = "cancelled"
)

// LineSource tells where an allowance/deduction amount came from.
type LineSource string

const (
	LineSourceGlobal     LineSource = "global"
	LineSourceDepartment LineSource = "department"
	LineSourceDivision   LineSource = "division"
	LineSourceEmployee   LineSource = "employee"
)

// LineItem is one evaluated allowance or other-deduction entry.
type LineItem struct {
	MasterID       *string             `json:"master_id,omitempty"`
	Name           string              `json:"name"`
	Amount         decimal.Decimal     `json:"amount"`
	Type           rule.Type           `json:"type,omitempty"`
	PercentageBase rule.PercentageBase `json:"percentage_base,omitempty"`
	Source         LineSource          `json:"source"`
	IsOverride     bool                `json:"is_override"`
}

// AttendanceBreakdown is the attendance summary as used by the calculation,
// including the paid-leave top-up added to payable shifts.
type AttendanceBreakdown struct {
	attendance.Summary
	PaidLeaveEntitlement   decimal.Decimal `json:"paid_leave_entitlement"`
	RemainingPaidLeaves    decimal.Decimal `json:"remaining_paid_leaves"`
	EffectivePayableShifts decimal.Decimal `json:"effective_payable_shifts"`
}

// Earnings of a record. GrossSalary is basic pay + OT + allowances + arrears;
// the incentive is paid on top of net salary.
type Earnings struct {
	PayBaseAmount   decimal.Decimal `json:"pay_base_amount"`
	PerDayRate      decimal.Decimal `json:"per_day_rate"`
	TotalPaidDays   decimal.Decimal `json:"total_paid_days"`
	ExtraDays       decimal.Decimal `json:"extra_days"`
	BasicPay        decimal.Decimal `json:"basic_pay"`
	Incentive       decimal.Decimal `json:"incentive"`
	PayableAmount   decimal.Decimal `json:"payable_amount"`
	OTHours         decimal.Decimal `json:"ot_hours"`
	EligibleOTHours decimal.Decimal `json:"eligible_ot_hours"`
	OTRatePerHour   decimal.Decimal `json:"ot_rate_per_hour"`
	OTPay           decimal.Decimal `json:"ot_pay"`
	Allowances      []LineItem      `json:"allowances"`
	TotalAllowances decimal.Decimal `json:"total_allowances"`
	ArrearsAmount   decimal.Decimal `json:"arrears_amount"`
	GrossSalary     decimal.Decimal `json:"gross_salary"`
}

// ThresholdDeduction reports how an event-count policy was applied. Counts are kept
// even when the policy is inert.
type ThresholdDeduction struct {
	Applied         bool                     `json:"applied"`
	EventCount      int                      `json:"event_count"`
	Threshold       int                      `json:"threshold"`
	DeductionType   settings.DeductionType   `json:"deduction_type,omitempty"`
	CalculationMode settings.CalculationMode `json:"calculation_mode,omitempty"`
	Multiplier      int                      `json:"multiplier"`
	Remainder       int                      `json:"remainder"`
	UnitDays        decimal.Decimal          `json:"unit_days"`
	Days            decimal.Decimal          `json:"days"`
	Amount          decimal.Decimal          `json:"amount"`
}

type LeaveDeduction struct {
	TotalLeaves          decimal.Decimal `json:"total_leaves"`
	PaidLeaveEntitlement decimal.Decimal `json:"paid_leave_entitlement"`
	UnpaidLeaves         decimal.Decimal `json:"unpaid_leaves"`
	Amount               decimal.Decimal `json:"amount"`
}

type AbsentDeduction struct {
	Enabled          bool            `json:"enabled"`
	AbsentDays       decimal.Decimal `json:"absent_days"`
	LOPDaysPerAbsent decimal.Decimal `json:"lop_days_per_absent"`
	ExtraLOPDays     decimal.Decimal `json:"extra_lop_days"`
	Amount           decimal.Decimal `json:"amount"`
}

type Deductions struct {
	AttendanceDeduction  ThresholdDeduction `json:"attendance_deduction"`
	PermissionDeduction  ThresholdDeduction `json:"permission_deduction"`
	LeaveDeduction       LeaveDeduction     `json:"leave_deduction"`
	AbsentDeduction      AbsentDeduction    `json:"absent_deduction"`
	OtherDeductions      []LineItem         `json:"other_deductions"`
	TotalOtherDeductions decimal.Decimal    `json:"total_other_deductions"`
	TotalDeductions      decimal.Decimal    `json:"total_deductions"`
}

type EMIDeduction struct {
	LoanID           string          `json:"loan_id"`
	LoanNumber       string          `json:"loan_number,omitempty"`
	EMIAmount        decimal.Decimal `json:"emi_amount"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
}

type AdvanceDeduction struct {
	LoanID         string          `json:"loan_id"`
	LoanNumber     string          `json:"loan_number,omitempty"`
	AdvanceBalance decimal.Decimal `json:"advance_balance"`
	DeductedShare  decimal.Decimal `json:"deducted_share"`
	CarriedForward decimal.Decimal `json:"carried_forward"`
}

type LoanAdvance struct {
	PayableBeforeEMI     decimal.Decimal    `json:"payable_before_emi"`
	TotalEMI             decimal.Decimal    `json:"total_emi"`
	EMIBreakdown         []EMIDeduction     `json:"emi_breakdown"`
	PayableBeforeAdvance decimal.Decimal    `json:"payable_before_advance"`
	TotalAdvanceBalance  decimal.Decimal    `json:"total_advance_balance"`
	AdvanceDeduction     decimal.Decimal    `json:"advance_deduction"`
	AdvanceBreakdown     []AdvanceDeduction `json:"advance_breakdown"`
}

// CalculationMetadata snapshots the inputs a record was computed with.
type CalculationMetadata struct {
	Settings       settings.Effective `json:"settings"`
	PermissionUsed bool               `json:"permission_used"`
	CalculatedBy   *string            `json:"calculated_by,omitempty"`
	CalculatedAt   time.Time          `json:"calculated_at"`
}

// PayrollRecord - one employee, one month, one pay base
type PayrollRecord struct {
	ID                  string              `json:"id"`
	EmployeeID          string              `json:"employee_id"`
	EmployeeCode        string              `json:"employee_code"`
	EmployeeName        string              `json:"employee_name"`
	DepartmentID        string              `json:"department_id"`
	DivisionID          *string             `json:"division_id,omitempty"`
	Month               string              `json:"month"`
	PayBase             PayBase             `json:"pay_base"`
	BatchID             *string             `json:"batch_id,omitempty"`
	Attendance          AttendanceBreakdown `json:"attendance"`
	Earnings            Earnings            `json:"earnings"`
	Deductions          Deductions          `json:"deductions"`
	LoanAdvance         LoanAdvance         `json:"loan_advance"`
	ArrearsAmount       decimal.Decimal     `json:"arrears_amount"`
	SettledArrearIDs    []string            `json:"settled_arrear_ids"`
	ExactNetSalary      decimal.Decimal     `json:"exact_net_salary"`
	NetSalary           decimal.Decimal     `json:"net_salary"`
	RoundOff            decimal.Decimal     `json:"round_off"`
	Status              RecordStatus        `json:"status"`
	CalculationMetadata CalculationMetadata `json:"calculation_metadata"`
	CreatedAt           time.Time           `json:"created_at"`
	UpdatedAt           time.Time           `json:"updated_at"`
}

// Figures are the parts of a record that roll up into batch totals.
type Figures struct {
	GrossSalary      decimal.Decimal `json:"gross_salary"`
	TotalDeductions  decimal.Decimal `json:"total_deductions"`
	TotalEMI         decimal.Decimal `json:"total_emi"`
	AdvanceDeduction decimal.Decimal `json:"advance_deduction"`
	Incentive        decimal.Decimal `json:"incentive"`
	ArrearsAmount    decimal.Decimal `json:"arrears_amount"`
	NetSalary        decimal.Decimal `json:"net_salary"`
}

func (r PayrollRecord) Figures() Figures {
	return Figures{
		GrossSalary:      r.Earnings.GrossSalary,
		TotalDeductions:  r.Deductions.TotalDeductions,
		TotalEMI:         r.LoanAdvance.TotalEMI,
		AdvanceDeduction: r.LoanAdvance.AdvanceDeduction,
		Incentive:        r.Earnings.Incentive,
		ArrearsAmount:    r.ArrearsAmount,
		NetSalary:        r.NetSalary,
	}
}

type ArrearStatus string

const (
	ArrearStatusPending ArrearStatus = "pending"
	ArrearStatusSettled ArrearStatus = "settled"
)

// Arrear is a back-pay amount owed to an employee, settled by the next payroll run.
type Arrear struct {
	ID              string
	EmployeeID      string
	Amount          decimal.Decimal
	Reason          string
	ForMonth        string
	Status          ArrearStatus
	SettledRecordID *string
	SettledMonth    *string
	SettledAt       *time.Time
	CreatedAt       time.Time
}

type TransactionCategory string

const (
	TransactionCategoryEarning    TransactionCategory = "earning"
	TransactionCategoryDeduction  TransactionCategory = "deduction"
	TransactionCategoryAdjustment TransactionCategory = "adjustment"
)

// Transaction is one audit log line emitted per calculated record. Amount is signed:
// deductions are negative.
type Transaction struct {
	ID              string
	EmployeeID      string
	PayrollRecordID string
	Month           string
	PayBase         PayBase
	TransactionType string
	Category        TransactionCategory
	Amount          decimal.Decimal
	Details         map[string]any
	CreatedBy       *string
	CreatedAt       time.Time
}
