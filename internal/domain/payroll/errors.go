package payroll

import "github.com/cmlabs-hris/hris-payroll-go/internal/pkg/apperror"

var (
	ErrPayrollRecordNotFound = apperror.NotFound("payroll record")
	ErrArrearNotFound        = apperror.NotFound("arrear")
)
