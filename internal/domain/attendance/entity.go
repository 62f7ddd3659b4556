package attendance

import (
	"github.com/shopspring/decimal"
)

type Source string

const (
	SourcePayRegister       Source = "pay_register"
	SourceMonthlyAttendance Source = "monthly_attendance"
)

// Summary is the per employee, per month attendance view the payroll calculation consumes.
// Both upstream shapes are mapped into it; the calculation never branches on the source.
type Summary struct {
	EmployeeID         string          `json:"employee_id"`
	Month              string          `json:"month"`
	Source             Source          `json:"source"`
	TotalDaysInMonth   decimal.Decimal `json:"total_days_in_month"`
	TotalPresentDays   decimal.Decimal `json:"total_present_days"`
	TotalPaidLeaveDays decimal.Decimal `json:"total_paid_leave_days"`
	TotalLeaveDays     decimal.Decimal `json:"total_leave_days"`
	TotalODDays        decimal.Decimal `json:"total_od_days"`
	TotalWeeklyOffs    decimal.Decimal `json:"total_weekly_offs"`
	TotalHolidays      decimal.Decimal `json:"total_holidays"`
	TotalAbsentDays    decimal.Decimal `json:"total_absent_days"`
	TotalPayableShifts decimal.Decimal `json:"total_payable_shifts"`
	TotalOTHours       decimal.Decimal `json:"total_ot_hours"`
	LateCount          int             `json:"late_count"`
	EarlyOutCount      int             `json:"early_out_count"`
	PermissionCount    int             `json:"permission_count"`
}

// PayRegisterSummary is the totals row of a finalized pay register.
type PayRegisterSummary struct {
	EmployeeID      string
	Month           string
	TotalDays       decimal.Decimal
	PresentDays     decimal.Decimal
	PaidLeaveDays   decimal.Decimal
	UnpaidLeaveDays decimal.Decimal
	ODDays          decimal.Decimal
	WeeklyOffs      decimal.Decimal
	Holidays        decimal.Decimal
	AbsentDays      decimal.Decimal
	PayableShifts   decimal.Decimal
	OTHours         decimal.Decimal
	LateCount       int
	EarlyOutCount   int
	PermissionCount int
}

// MonthlyAttendanceSummary is the raw monthly rollup of clock-in data. It has no payable
// shift total; half days count as half a present day.
type MonthlyAttendanceSummary struct {
	EmployeeID      string
	Month           string
	DaysInMonth     int
	PresentDays     decimal.Decimal
	HalfDays        decimal.Decimal
	PaidLeaveDays   decimal.Decimal
	UnpaidLeaveDays decimal.Decimal
	ODDays          decimal.Decimal
	WeeklyOffs      decimal.Decimal
	Holidays        decimal.Decimal
	AbsentDays      decimal.Decimal
	OTMinutes       int
	LateInCount     int
	EarlyOutCount   int
	PermissionCount int
}
