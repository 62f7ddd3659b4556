package postgresql

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/batch"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type batchRepository struct {
	db *database.DB
}

func NewBatchRepository(db *database.DB) batch.BatchRepository {
	return &batchRepository{db: db}
}

const batchColumns = `
	id, department_id, division_id, month, pay_base, status, employee_payrolls,
	totals, status_history, recalculation_permission, recalculation_history,
	created_by, created_at, updated_at
`

func scanBatch(row pgx.Row) (batch.Batch, error) {
	var b batch.Batch
	err := row.Scan(
		&b.ID, &b.DepartmentID, &b.DivisionID, &b.Month, &b.PayBase, &b.Status, &b.EmployeePayrolls,
		&b.Totals, &b.StatusHistory, &b.RecalculationPermission, &b.RecalculationHistory,
		&b.CreatedBy, &b.CreatedAt, &b.UpdatedAt,
	)
	if b.EmployeePayrolls == nil {
		b.EmployeePayrolls = []string{}
	}
	if b.RecalculationHistory == nil {
		b.RecalculationHistory = []batch.HistoryEntry{}
	}
	return b, err
}

func (r *batchRepository) GetByID(ctx context.Context, id string) (batch.Batch, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + batchColumns + ` FROM payroll_batches WHERE id = $1`

	b, err := scanBatch(q.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return batch.Batch{}, batch.ErrBatchNotFound
		}
		return batch.Batch{}, fmt.Errorf("failed to get payroll batch: %w", err)
	}

	return b, nil
}

func (r *batchRepository) GetByKey(ctx context.Context, key batch.Key) (batch.Batch, error) {
	q := GetQuerier(ctx, r.db)

	// division_id IS NOT DISTINCT FROM keeps a NULL division distinct from any named one
	query := `SELECT ` + batchColumns + `
		FROM payroll_batches
		WHERE department_id = $1 AND division_id IS NOT DISTINCT FROM $2 AND month = $3 AND pay_base = $4`

	b, err := scanBatch(q.QueryRow(ctx, query, key.DepartmentID, key.DivisionID, key.Month, key.PayBase))
	if err != nil {
		if err == pgx.ErrNoRows {
			return batch.Batch{}, batch.ErrBatchNotFound
		}
		return batch.Batch{}, fmt.Errorf("failed to get payroll batch by key: %w", err)
	}

	return b, nil
}

func (r *batchRepository) List(ctx context.Context, filter batch.Filter) ([]batch.Batch, error) {
	q := GetQuerier(ctx, r.db)

	whereParts := []string{"1=1"}
	args := []interface{}{}
	argIdx := 1

	if filter.Month != nil {
		whereParts = append(whereParts, fmt.Sprintf("month = $%d", argIdx))
		args = append(args, *filter.Month)
		argIdx++
	}
	if filter.DepartmentID != nil {
		whereParts = append(whereParts, fmt.Sprintf("department_id = $%d", argIdx))
		args = append(args, *filter.DepartmentID)
		argIdx++
	}
	if filter.Status != nil {
		whereParts = append(whereParts, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, *filter.Status)
		argIdx++
	}
	if filter.PayBase != nil {
		whereParts = append(whereParts, fmt.Sprintf("pay_base = $%d", argIdx))
		args = append(args, *filter.PayBase)
	}

	query := fmt.Sprintf(`SELECT %s FROM payroll_batches WHERE %s ORDER BY created_at`,
		batchColumns, strings.Join(whereParts, " AND "))

	return r.queryBatches(ctx, q, query, args...)
}

func (r *batchRepository) ListExpiredPermissions(ctx context.Context, now time.Time) ([]batch.Batch, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + batchColumns + `
		FROM payroll_batches
		WHERE (recalculation_permission->>'granted')::boolean = TRUE
		  AND (recalculation_permission->>'expires_at')::timestamptz < $1
		ORDER BY created_at`

	return r.queryBatches(ctx, q, query, now)
}

func (r *batchRepository) queryBatches(ctx context.Context, q database.Querier, query string, args ...interface{}) ([]batch.Batch, error) {
	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list payroll batches: %w", err)
	}
	defer rows.Close()

	batches := []batch.Batch{}
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payroll batch: %w", err)
		}
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate payroll batches: %w", err)
	}

	return batches, nil
}

func (r *batchRepository) Create(ctx context.Context, b batch.Batch) (batch.Batch, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_batches (
			id, department_id, division_id, month, pay_base, status, employee_payrolls,
			totals, status_history, recalculation_permission, recalculation_history,
			created_by, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		b.ID, b.DepartmentID, b.DivisionID, b.Month, b.PayBase, b.Status, b.EmployeePayrolls,
		b.Totals, b.StatusHistory, b.RecalculationPermission, b.RecalculationHistory,
		b.CreatedBy, b.CreatedAt, b.UpdatedAt,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "uk_payroll_batch_key") {
			return batch.Batch{}, batch.ErrBatchAlreadyExists
		}
		return batch.Batch{}, fmt.Errorf("failed to create payroll batch: %w", err)
	}

	return b, nil
}

func (r *batchRepository) Save(ctx context.Context, b batch.Batch) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_batches
		SET status = $2,
			employee_payrolls = $3,
			totals = $4,
			status_history = $5,
			recalculation_permission = $6,
			recalculation_history = $7,
			updated_at = NOW()
		WHERE id = $1
		RETURNING id
	`

	var updatedID string
	err := q.QueryRow(ctx, query,
		b.ID, b.Status, b.EmployeePayrolls, b.Totals, b.StatusHistory,
		b.RecalculationPermission, b.RecalculationHistory,
	).Scan(&updatedID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return batch.ErrBatchNotFound
		}
		return fmt.Errorf("failed to save payroll batch: %w", err)
	}

	return nil
}
