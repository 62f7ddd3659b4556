package payroll

import "context"

type PayrollService interface {
	CalculateEmployee(ctx context.Context, req CalculatePayrollRequest) (PayrollRecord, error)
	BulkCalculate(ctx context.Context, req BulkCalculateRequest) (BulkCalculateResult, error)
	CalculateDepartment(ctx context.Context, req CalculateDepartmentRequest) (BulkCalculateResult, error)
	CalculateAll(ctx context.Context, req CalculateAllRequest) (BulkCalculateResult, error)

	// RecalculateMember re-runs the calculation for a member of batchID without the lock
	// check. The caller must hold the batch's recalculation permission.
	RecalculateMember(ctx context.Context, batchID string, employeeID string) (PayrollRecord, error)

	GetRecord(ctx context.Context, id string) (PayrollRecord, error)
	ListRecords(ctx context.Context, filter RecordFilter) ([]PayrollRecord, error)
	UpdateRecordStatus(ctx context.Context, req UpdateRecordStatusRequest) (PayrollRecord, error)
}
