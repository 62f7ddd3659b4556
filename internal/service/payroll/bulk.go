package payroll

import (
	"context"
	"log/slog"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
)

// Bulk runs process one employee at a time. Batch totals are updated incrementally per
// record, which is not safe under concurrent writers to the same batch.

func (s *PayrollServiceImpl) BulkCalculate(ctx context.Context, req payroll.BulkCalculateRequest) (payroll.BulkCalculateResult, error) {
	if err := req.Validate(); err != nil {
		return payroll.BulkCalculateResult{}, err
	}
	return s.calculateMany(ctx, dedupe(req.EmployeeIDs), req.Month, req.PayBase), nil
}

func (s *PayrollServiceImpl) CalculateDepartment(ctx context.Context, req payroll.CalculateDepartmentRequest) (payroll.BulkCalculateResult, error) {
	if err := req.Validate(); err != nil {
		return payroll.BulkCalculateResult{}, err
	}
	emps, err := s.employeeRepo.ListActiveByDepartment(ctx, req.DepartmentID, req.DivisionID)
	if err != nil {
		return payroll.BulkCalculateResult{}, err
	}
	return s.calculateMany(ctx, employeeIDs(emps), req.Month, req.PayBase), nil
}

func (s *PayrollServiceImpl) CalculateAll(ctx context.Context, req payroll.CalculateAllRequest) (payroll.BulkCalculateResult, error) {
	if err := req.Validate(); err != nil {
		return payroll.BulkCalculateResult{}, err
	}
	emps, err := s.employeeRepo.ListActive(ctx)
	if err != nil {
		return payroll.BulkCalculateResult{}, err
	}
	return s.calculateMany(ctx, employeeIDs(emps), req.Month, req.PayBase), nil
}

func (s *PayrollServiceImpl) calculateMany(ctx context.Context, ids []string, month string, payBase payroll.PayBase) payroll.BulkCalculateResult {
	result := payroll.BulkCalculateResult{
		Month:     month,
		PayBase:   payBase,
		Total:     len(ids),
		RecordIDs: []string{},
		Errors:    []payroll.EmployeeError{},
	}

	for _, id := range ids {
		record, err := s.calculate(ctx, id, month, payBase, lockCheck)
		if err != nil {
			slog.Warn("payroll calculation failed", "employee_id", id, "month", month, "pay_base", payBase, "error", err)
			result.FailureCount++
			result.Errors = append(result.Errors, payroll.EmployeeError{EmployeeID: id, Message: err.Error()})
			continue
		}
		result.SuccessCount++
		result.RecordIDs = append(result.RecordIDs, record.ID)
	}

	slog.Info("bulk payroll calculation finished",
		"month", month,
		"pay_base", payBase,
		"total", result.Total,
		"success", result.SuccessCount,
		"failed", result.FailureCount,
	)
	return result
}

func employeeIDs(emps []employee.Employee) []string {
	ids := make([]string, 0, len(emps))
	for _, e := range emps {
		ids = append(ids, e.ID)
	}
	return ids
}

func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
