package rule

import (
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/apperror"
)

var (
	ErrDefinitionNotFound   = apperror.NotFound("allowance/deduction definition")
	ErrDefinitionNameExists = fmt.Errorf("an allowance/deduction definition with this name already exists: %w", apperror.ErrValidation)
)
