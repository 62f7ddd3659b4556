package payroll

import "context"

// PayrollRepository persists payroll records. Records are unique on (employee, month, pay base).
type PayrollRepository interface {
	GetByID(ctx context.Context, id string) (PayrollRecord, error)
	GetByEmployeeMonth(ctx context.Context, employeeID string, month string, payBase PayBase) (PayrollRecord, error)
	GetByIDs(ctx context.Context, ids []string) ([]PayrollRecord, error)
	List(ctx context.Context, filter RecordFilter) ([]PayrollRecord, error)

	// Upsert inserts or replaces the record for (employee, month, pay base), last write wins.
	Upsert(ctx context.Context, record PayrollRecord) (PayrollRecord, error)
	UpdateStatus(ctx context.Context, id string, status RecordStatus) error
}

// ArrearsRepository is the back-pay ledger the calculation settles against.
type ArrearsRepository interface {
	ListPending(ctx context.Context, employeeID string) ([]Arrear, error)
	MarkSettled(ctx context.Context, ids []string, payrollRecordID string, month string) error
}

// TransactionLogRepository is the write-only audit sink.
type TransactionLogRepository interface {
	CreateMany(ctx context.Context, txns []Transaction) error
}
