package loan

import "context"

type LoanRepository interface {
	GetByID(ctx context.Context, id string) (Loan, error)
	// ListRecoverable returns active loans of requestType with a positive remaining balance.
	ListRecoverable(ctx context.Context, employeeID string, requestType RequestType) ([]Loan, error)
	Save(ctx context.Context, l Loan) error
}
