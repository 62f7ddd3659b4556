package batch

import (
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/apperror"
)

var (
	ErrBatchNotFound               = apperror.NotFound("payroll batch")
	ErrHistoryEntryNotFound        = apperror.NotFound("recalculation history entry")
	ErrBatchAlreadyExists          = fmt.Errorf("payroll batch already exists for this department and month: %w", apperror.ErrValidation)
	ErrPermissionRequestNotAllowed = fmt.Errorf("recalculation permission can only be requested for an approved batch: %w", apperror.ErrStateTransition)
	ErrPermissionGrantNotAllowed   = fmt.Errorf("recalculation permission can only be granted for an approved or frozen batch: %w", apperror.ErrStateTransition)
	ErrRollbackNotAllowed          = fmt.Errorf("a completed batch cannot be rolled back: %w", apperror.ErrStateTransition)
)
