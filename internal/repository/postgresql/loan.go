package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/loan"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type loanRepository struct {
	db *database.DB
}

func NewLoanRepository(db *database.DB) loan.LoanRepository {
	return &loanRepository{db: db}
}

const loanColumns = `
	id, employee_id, loan_number, request_type, status, config, repayment, transactions,
	created_at, updated_at
`

func scanLoan(row pgx.Row) (loan.Loan, error) {
	var l loan.Loan
	err := row.Scan(
		&l.ID, &l.EmployeeID, &l.LoanNumber, &l.RequestType, &l.Status, &l.Config, &l.Repayment,
		&l.Transactions, &l.CreatedAt, &l.UpdatedAt,
	)
	return l, err
}

func (r *loanRepository) GetByID(ctx context.Context, id string) (loan.Loan, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + loanColumns + ` FROM loans WHERE id = $1`

	l, err := scanLoan(q.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return loan.Loan{}, loan.ErrLoanNotFound
		}
		return loan.Loan{}, fmt.Errorf("failed to get loan: %w", err)
	}

	return l, nil
}

func (r *loanRepository) ListRecoverable(ctx context.Context, employeeID string, requestType loan.RequestType) ([]loan.Loan, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + loanColumns + `
		FROM loans
		WHERE employee_id = $1 AND request_type = $2 AND status = $3
		  AND (repayment->>'remaining_balance')::numeric > 0
		ORDER BY created_at, id`

	rows, err := q.Query(ctx, query, employeeID, requestType, loan.StatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to list recoverable loans: %w", err)
	}
	defer rows.Close()

	loans := []loan.Loan{}
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan loan: %w", err)
		}
		loans = append(loans, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate loans: %w", err)
	}

	return loans, nil
}

// Save writes the lifecycle fields back; identity and config are owned by the loan module.
func (r *loanRepository) Save(ctx context.Context, l loan.Loan) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE loans
		SET status = $2, repayment = $3, transactions = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING id
	`

	var updatedID string
	err := q.QueryRow(ctx, query, l.ID, l.Status, l.Repayment, l.Transactions).Scan(&updatedID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return loan.ErrLoanNotFound
		}
		return fmt.Errorf("failed to save loan: %w", err)
	}

	return nil
}
