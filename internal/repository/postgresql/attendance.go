package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

// GetPayRegisterSummary reads the totals of a finalized pay register only; drafts are not payable yet.
func (a *attendanceRepository) GetPayRegisterSummary(ctx context.Context, employeeID string, month string) (attendance.PayRegisterSummary, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT employee_id, month, total_days, present_days, paid_leave_days, unpaid_leave_days,
			   od_days, weekly_offs, holidays, absent_days, payable_shifts, ot_hours,
			   late_count, early_out_count, permission_count
		FROM pay_register_summaries
		WHERE employee_id = $1 AND month = $2 AND is_finalized = TRUE
	`

	var s attendance.PayRegisterSummary
	err := q.QueryRow(ctx, query, employeeID, month).Scan(
		&s.EmployeeID, &s.Month, &s.TotalDays, &s.PresentDays, &s.PaidLeaveDays, &s.UnpaidLeaveDays,
		&s.ODDays, &s.WeeklyOffs, &s.Holidays, &s.AbsentDays, &s.PayableShifts, &s.OTHours,
		&s.LateCount, &s.EarlyOutCount, &s.PermissionCount,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return attendance.PayRegisterSummary{}, attendance.ErrAttendanceSummaryNotFound
		}
		return attendance.PayRegisterSummary{}, fmt.Errorf("failed to get pay register summary: %w", err)
	}

	return s, nil
}

func (a *attendanceRepository) GetMonthlySummary(ctx context.Context, employeeID string, month string) (attendance.MonthlyAttendanceSummary, error) {
	q := GetQuerier(ctx, a.db)

	query := `
		SELECT employee_id, month, days_in_month, present_days, half_days, paid_leave_days,
			   unpaid_leave_days, od_days, weekly_offs, holidays, absent_days, ot_minutes,
			   late_in_count, early_out_count, permission_count
		FROM monthly_attendance_summaries
		WHERE employee_id = $1 AND month = $2
	`

	var s attendance.MonthlyAttendanceSummary
	err := q.QueryRow(ctx, query, employeeID, month).Scan(
		&s.EmployeeID, &s.Month, &s.DaysInMonth, &s.PresentDays, &s.HalfDays, &s.PaidLeaveDays,
		&s.UnpaidLeaveDays, &s.ODDays, &s.WeeklyOffs, &s.Holidays, &s.AbsentDays, &s.OTMinutes,
		&s.LateInCount, &s.EarlyOutCount, &s.PermissionCount,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return attendance.MonthlyAttendanceSummary{}, attendance.ErrAttendanceSummaryNotFound
		}
		return attendance.MonthlyAttendanceSummary{}, fmt.Errorf("failed to get monthly attendance summary: %w", err)
	}

	return s, nil
}
