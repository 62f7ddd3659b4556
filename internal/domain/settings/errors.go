package settings

import "github.com/cmlabs-hris/hris-payroll-go/internal/pkg/apperror"

var (
	ErrSettingsNotFound = apperror.NotFound("payroll settings")
)
