package attendance

import "context"

// AttendanceRepository reads monthly attendance rollups owned by the attendance subsystem.
// Both methods return ErrAttendanceSummaryNotFound when the month has no data.
type AttendanceRepository interface {
	// GetPayRegisterSummary returns the finalized pay register totals for the month
	GetPayRegisterSummary(ctx context.Context, employeeID string, month string) (PayRegisterSummary, error)

	// GetMonthlySummary returns the raw monthly attendance rollup
	GetMonthlySummary(ctx context.Context, employeeID string, month string) (MonthlyAttendanceSummary, error)
}
