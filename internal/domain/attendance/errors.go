package attendance

import "github.com/cmlabs-hris/hris-payroll-go/internal/pkg/apperror"

var (
	ErrAttendanceSummaryNotFound = apperror.NotFound("attendance summary")
)
