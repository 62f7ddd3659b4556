package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/batch"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/user"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/apperror"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandleError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
		wantDetail map[string]string
	}{
		{
			name:       "validation errors",
			err:        validator.ValidationErrors{{Field: "month", Message: "month must be in YYYY-MM format"}},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   CodeValidation,
			wantDetail: map[string]string{"month": "month must be in YYYY-MM format"},
		},
		{
			name:       "invalid input",
			err:        &apperror.InvalidInputError{Field: "per_day_rate", Reason: "must be positive"},
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeBadRequest,
			wantDetail: map[string]string{"per_day_rate": "must be positive"},
		},
		{
			name:       "locked batch",
			err:        fmt.Errorf("calculate: %w", &apperror.BatchLockedError{BatchID: "b-1", Status: "approved"}),
			wantStatus: http.StatusLocked,
			wantCode:   CodeBatchLocked,
			wantDetail: map[string]string{"batch_id": "b-1", "status": "approved"},
		},
		{
			name:       "missing employees",
			err:        &apperror.MissingEmployeesError{BatchID: "b-1", EmployeeIDs: []string{"e-1", "e-2"}},
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   CodeValidation,
			wantDetail: map[string]string{"batch_id": "b-1", "missing_employee_ids": "e-1,e-2"},
		},
		{
			name:       "state transition",
			err:        &apperror.StateTransitionError{Entity: "payroll batch", From: "pending", To: "complete"},
			wantStatus: http.StatusConflict,
			wantCode:   CodeConflict,
			wantDetail: map[string]string{"from": "pending", "to": "complete"},
		},
		{name: "duplicate batch", err: batch.ErrBatchAlreadyExists, wantStatus: http.StatusConflict, wantCode: CodeConflict},
		{name: "not found", err: batch.ErrBatchNotFound, wantStatus: http.StatusNotFound, wantCode: CodeNotFound},
		{name: "rollback not allowed", err: batch.ErrRollbackNotAllowed, wantStatus: http.StatusConflict, wantCode: CodeConflict},
		{name: "invalid token", err: user.ErrInvalidToken, wantStatus: http.StatusUnauthorized, wantCode: CodeUnauthorized},
		{name: "forbidden", err: user.ErrInsufficientPermissions, wantStatus: http.StatusForbidden, wantCode: CodeForbidden},
		{name: "unknown", err: errors.New("connection reset"), wantStatus: http.StatusInternalServerError, wantCode: CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			HandleError(rec, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.wantCode, body.Error.Code)
			if tt.wantDetail != nil {
				assert.Equal(t, tt.wantDetail, body.Error.Details)
			}
		})
	}
}

func TestHandleError_UnknownDoesNotLeakMessage(t *testing.T) {
	rec := httptest.NewRecorder()
	HandleError(rec, errors.New("pq: password authentication failed"))

	assert.NotContains(t, rec.Body.String(), "password")
}

func TestSuccessWithMeta(t *testing.T) {
	rec := httptest.NewRecorder()
	SuccessWithMeta(rec, []string{"a"}, &Meta{TotalItems: 1})

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, map[string]any{"total_items": float64(1)}, body["meta"])
}
