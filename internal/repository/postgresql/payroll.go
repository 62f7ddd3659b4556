package postgresql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

type payrollRepository struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.PayrollRepository {
	return &payrollRepository{db: db}
}

const payrollRecordColumns = `
	id, employee_id, employee_code, employee_name, department_id, division_id,
	month, pay_base, batch_id, attendance, earnings, deductions, loan_advance,
	arrears_amount, settled_arrear_ids, exact_net_salary, net_salary, round_off,
	status, calculation_metadata, created_at, updated_at
`

func scanPayrollRecord(row pgx.Row) (payroll.PayrollRecord, error) {
	var r payroll.PayrollRecord
	err := row.Scan(
		&r.ID, &r.EmployeeID, &r.EmployeeCode, &r.EmployeeName, &r.DepartmentID, &r.DivisionID,
		&r.Month, &r.PayBase, &r.BatchID, &r.Attendance, &r.Earnings, &r.Deductions, &r.LoanAdvance,
		&r.ArrearsAmount, &r.SettledArrearIDs, &r.ExactNetSalary, &r.NetSalary, &r.RoundOff,
		&r.Status, &r.CalculationMetadata, &r.CreatedAt, &r.UpdatedAt,
	)
	if r.SettledArrearIDs == nil {
		r.SettledArrearIDs = []string{}
	}
	return r, err
}

func (r *payrollRepository) GetByID(ctx context.Context, id string) (payroll.PayrollRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + payrollRecordColumns + ` FROM payroll_records WHERE id = $1`

	rec, err := scanPayrollRecord(q.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.PayrollRecord{}, payroll.ErrPayrollRecordNotFound
		}
		return payroll.PayrollRecord{}, fmt.Errorf("failed to get payroll record: %w", err)
	}

	return rec, nil
}

func (r *payrollRepository) GetByEmployeeMonth(ctx context.Context, employeeID string, month string, payBase payroll.PayBase) (payroll.PayrollRecord, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + payrollRecordColumns + `
		FROM payroll_records
		WHERE employee_id = $1 AND month = $2 AND pay_base = $3`

	rec, err := scanPayrollRecord(q.QueryRow(ctx, query, employeeID, month, payBase))
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.PayrollRecord{}, payroll.ErrPayrollRecordNotFound
		}
		return payroll.PayrollRecord{}, fmt.Errorf("failed to get payroll record by employee month: %w", err)
	}

	return rec, nil
}

func (r *payrollRepository) GetByIDs(ctx context.Context, ids []string) ([]payroll.PayrollRecord, error) {
	if len(ids) == 0 {
		return []payroll.PayrollRecord{}, nil
	}
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + payrollRecordColumns + `
		FROM payroll_records
		WHERE id = ANY($1)
		ORDER BY employee_code`

	return r.queryRecords(ctx, q, query, ids)
}

func (r *payrollRepository) List(ctx context.Context, filter payroll.RecordFilter) ([]payroll.PayrollRecord, error) {
	q := GetQuerier(ctx, r.db)

	whereParts := []string{"1=1"}
	args := []interface{}{}
	argIdx := 1

	if filter.Month != nil {
		whereParts = append(whereParts, fmt.Sprintf("month = $%d", argIdx))
		args = append(args, *filter.Month)
		argIdx++
	}
	if filter.PayBase != nil {
		whereParts = append(whereParts, fmt.Sprintf("pay_base = $%d", argIdx))
		args = append(args, *filter.PayBase)
		argIdx++
	}
	if filter.DepartmentID != nil {
		whereParts = append(whereParts, fmt.Sprintf("department_id = $%d", argIdx))
		args = append(args, *filter.DepartmentID)
		argIdx++
	}
	if filter.DivisionID != nil {
		whereParts = append(whereParts, fmt.Sprintf("division_id = $%d", argIdx))
		args = append(args, *filter.DivisionID)
		argIdx++
	}
	if filter.EmployeeID != nil {
		whereParts = append(whereParts, fmt.Sprintf("employee_id = $%d", argIdx))
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.Status != nil {
		whereParts = append(whereParts, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *filter.Status)
		argIdx++
	}
	if filter.BatchID != nil {
		whereParts = append(whereParts, fmt.Sprintf("batch_id = $%d", argIdx))
		args = append(args, *filter.BatchID)
	}

	query := fmt.Sprintf(`SELECT %s FROM payroll_records WHERE %s ORDER BY employee_code`,
		payrollRecordColumns, strings.Join(whereParts, " AND "))

	return r.queryRecords(ctx, q, query, args...)
}

func (r *payrollRepository) queryRecords(ctx context.Context, q database.Querier, query string, args ...interface{}) ([]payroll.PayrollRecord, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll records: %w", err)
	}
	defer rows.Close()

	records := []payroll.PayrollRecord{}
	for rows.Next() {
		rec, err := scanPayrollRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payroll record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payroll records: %w", err)
	}

	return records, nil
}

// Upsert keeps the stored id and created_at when (employee, month, pay base) already exists.
func (r *payrollRepository) Upsert(ctx context.Context, rec payroll.PayrollRecord) (payroll.PayrollRecord, error) {
	q := GetQuerier(ctx, r.db)

	if rec.ID == "" {
		rec.ID = uuid.Must(uuid.NewV7()).String()
	}
	if rec.SettledArrearIDs == nil {
		rec.SettledArrearIDs = []string{}
	}

	query := `
		INSERT INTO payroll_records (
			id, employee_id, employee_code, employee_name, department_id, division_id,
			month, pay_base, batch_id, attendance, earnings, deductions, loan_advance,
			arrears_amount, settled_arrear_ids, exact_net_salary, net_salary, round_off,
			status, calculation_metadata, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, NOW(), NOW())
		ON CONFLICT ON CONSTRAINT uk_payroll_record_employee_month DO UPDATE SET
			employee_code = EXCLUDED.employee_code,
			employee_name = EXCLUDED.employee_name,
			department_id = EXCLUDED.department_id,
			division_id = EXCLUDED.division_id,
			batch_id = EXCLUDED.batch_id,
			attendance = EXCLUDED.attendance,
			earnings = EXCLUDED.earnings,
			deductions = EXCLUDED.deductions,
			loan_advance = EXCLUDED.loan_advance,
			arrears_amount = EXCLUDED.arrears_amount,
			settled_arrear_ids = EXCLUDED.settled_arrear_ids,
			exact_net_salary = EXCLUDED.exact_net_salary,
			net_salary = EXCLUDED.net_salary,
			round_off = EXCLUDED.round_off,
			status = EXCLUDED.status,
			calculation_metadata = EXCLUDED.calculation_metadata,
			updated_at = NOW()
		RETURNING id, created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		rec.ID, rec.EmployeeID, rec.EmployeeCode, rec.EmployeeName, rec.DepartmentID, rec.DivisionID,
		rec.Month, rec.PayBase, rec.BatchID, rec.Attendance, rec.Earnings, rec.Deductions, rec.LoanAdvance,
		rec.ArrearsAmount, rec.SettledArrearIDs, rec.ExactNetSalary, rec.NetSalary, rec.RoundOff,
		rec.Status, rec.CalculationMetadata,
	).Scan(&rec.ID, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return payroll.PayrollRecord{}, fmt.Errorf("failed to upsert payroll record: %w", err)
	}

	return rec, nil
}

func (r *payrollRepository) UpdateStatus(ctx context.Context, id string, status payroll.RecordStatus) error {
	q := GetQuerier(ctx, r.db)

	query := `UPDATE payroll_records SET status = $2, updated_at = NOW() WHERE id = $1 RETURNING id`

	var updatedID string
	err := q.QueryRow(ctx, query, id, status).Scan(&updatedID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return payroll.ErrPayrollRecordNotFound
		}
		return fmt.Errorf("failed to update payroll record status: %w", err)
	}

	return nil
}

// ========== ARREARS ==========

type arrearsRepository struct {
	db *database.DB
}

func NewArrearsRepository(db *database.DB) payroll.ArrearsRepository {
	return &arrearsRepository{db: db}
}

func (r *arrearsRepository) ListPending(ctx context.Context, employeeID string) ([]payroll.Arrear, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, employee_id, amount, reason, for_month, status,
			   settled_record_id, settled_month, settled_at, created_at
		FROM payroll_arrears
		WHERE employee_id = $1 AND status = $2
		ORDER BY created_at, id
	`

	rows, err := q.Query(ctx, query, employeeID, payroll.ArrearStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending arrears: %w", err)
	}
	defer rows.Close()

	arrears := []payroll.Arrear{}
	for rows.Next() {
		var a payroll.Arrear
		if err := rows.Scan(
			&a.ID, &a.EmployeeID, &a.Amount, &a.Reason, &a.ForMonth, &a.Status,
			&a.SettledRecordID, &a.SettledMonth, &a.SettledAt, &a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan arrear: %w", err)
		}
		arrears = append(arrears, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate arrears: %w", err)
	}

	return arrears, nil
}

func (r *arrearsRepository) MarkSettled(ctx context.Context, ids []string, payrollRecordID string, month string) error {
	if len(ids) == 0 {
		return nil
	}
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_arrears
		SET status = $2, settled_record_id = $3, settled_month = $4, settled_at = NOW()
		WHERE id = ANY($1)
	`

	tag, err := q.Exec(ctx, query, ids, payroll.ArrearStatusSettled, payrollRecordID, month)
	if err != nil {
		return fmt.Errorf("failed to settle arrears: %w", err)
	}
	if tag.RowsAffected() != int64(len(ids)) {
		return payroll.ErrArrearNotFound
	}

	return nil
}

// ========== TRANSACTION LOG ==========

type transactionLogRepository struct {
	db *database.DB
}

func NewTransactionLogRepository(db *database.DB) payroll.TransactionLogRepository {
	return &transactionLogRepository{db: db}
}

func (r *transactionLogRepository) CreateMany(ctx context.Context, txns []payroll.Transaction) error {
	if len(txns) == 0 {
		return nil
	}
	q := GetQuerier(ctx, r.db)

	batch := &pgx.Batch{}
	for _, t := range txns {
		createdAt := t.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		batch.Queue(`
			INSERT INTO payroll_transactions (
				id, employee_id, payroll_record_id, month, pay_base,
				transaction_type, category, amount, details, created_by, created_at
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, t.ID, t.EmployeeID, t.PayrollRecordID, t.Month, t.PayBase,
			t.TransactionType, t.Category, t.Amount, t.Details, t.CreatedBy, createdAt)
	}

	results := q.SendBatch(ctx, batch)
	defer results.Close()
	for range txns {
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("failed to insert payroll transaction: %w", err)
		}
	}

	return nil
}
