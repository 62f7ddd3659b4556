package employee

import "github.com/cmlabs-hris/hris-payroll-go/internal/pkg/apperror"

var (
	ErrEmployeeNotFound = apperror.NotFound("employee")
)
