package response

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/batch"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/rule"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/apperror"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	var invalidInput *apperror.InvalidInputError
	if errors.As(err, &invalidInput) {
		BadRequest(w, err.Error(), map[string]string{invalidInput.Field: invalidInput.Reason})
		return
	}

	var locked *apperror.BatchLockedError
	if errors.As(err, &locked) {
		Locked(w, err.Error(), map[string]string{"batch_id": locked.BatchID, "status": locked.Status})
		return
	}

	var missing *apperror.MissingEmployeesError
	if errors.As(err, &missing) {
		writeError(w, http.StatusUnprocessableEntity, CodeValidation, err.Error(), map[string]string{
			"batch_id":             missing.BatchID,
			"missing_employee_ids": strings.Join(missing.EmployeeIDs, ","),
		})
		return
	}

	var transition *apperror.StateTransitionError
	if errors.As(err, &transition) {
		writeError(w, http.StatusConflict, CodeConflict, err.Error(), map[string]string{"from": transition.From, "to": transition.To})
		return
	}

	switch {
	// Auth errors
	case errors.Is(err, user.ErrInvalidToken):
		Unauthorized(w, err.Error())
	case errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, err.Error())

	// Uniqueness
	case errors.Is(err, batch.ErrBatchAlreadyExists):
		Conflict(w, "Payroll batch already exists for this department and month")
	case errors.Is(err, rule.ErrDefinitionNameExists):
		Conflict(w, "Allowance/deduction definition name already exists")

	// Error kinds
	case errors.Is(err, apperror.ErrNotFound):
		NotFound(w, err.Error())
	case errors.Is(err, apperror.ErrInvalidInput):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, apperror.ErrBatchLocked):
		Locked(w, err.Error(), nil)
	case errors.Is(err, apperror.ErrStateTransition):
		Conflict(w, err.Error())
	case errors.Is(err, apperror.ErrValidation):
		ValidationError(w, map[string]string{"error": err.Error()})

	// Default
	default:
		slog.Error("unhandled error", "error", err)
		InternalServerError(w, "An unexpected error occurred")
	}
}
