package loan

import "github.com/cmlabs-hris/hris-payroll-go/internal/pkg/apperror"

var (
	ErrLoanNotFound = apperror.NotFound("loan")
)
