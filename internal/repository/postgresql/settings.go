package postgresql

import (
	"context"
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/settings"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type settingsRepository struct {
	db *database.DB
}

func NewSettingsRepository(db *database.DB) settings.SettingsRepository {
	return &settingsRepository{db: db}
}

const settingsColumns = `
	id, department_id, division_id, paid_leaves, ot_pay_per_hour, min_ot_hours,
	attendance_policy, permission_policy, enable_absent_deduction, lop_days_per_absent,
	include_missing, enable_loan_deduction, enable_advance_deduction, updated_by,
	created_at, updated_at
`

func scanSettings(row pgx.Row) (settings.Settings, error) {
	var s settings.Settings
	err := row.Scan(
		&s.ID, &s.DepartmentID, &s.DivisionID, &s.PaidLeaves, &s.OTPayPerHour, &s.MinOTHours,
		&s.AttendancePolicy, &s.PermissionPolicy, &s.EnableAbsentDeduction, &s.LOPDaysPerAbsent,
		&s.IncludeMissing, &s.EnableLoanDeduction, &s.EnableAdvanceDeduction, &s.UpdatedBy,
		&s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

func (r *settingsRepository) GetGlobal(ctx context.Context) (settings.Settings, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + settingsColumns + `
		FROM payroll_settings
		WHERE department_id IS NULL AND division_id IS NULL`

	s, err := scanSettings(q.QueryRow(ctx, query))
	if err != nil {
		if err == pgx.ErrNoRows {
			return settings.Settings{}, settings.ErrSettingsNotFound
		}
		return settings.Settings{}, fmt.Errorf("failed to get global payroll settings: %w", err)
	}

	return s, nil
}

func (r *settingsRepository) GetDepartment(ctx context.Context, departmentID string, divisionID *string) (settings.Settings, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + settingsColumns + `
		FROM payroll_settings
		WHERE department_id = $1 AND division_id IS NOT DISTINCT FROM $2`

	s, err := scanSettings(q.QueryRow(ctx, query, departmentID, divisionID))
	if err != nil {
		if err == pgx.ErrNoRows {
			return settings.Settings{}, settings.ErrSettingsNotFound
		}
		return settings.Settings{}, fmt.Errorf("failed to get department payroll settings: %w", err)
	}

	return s, nil
}

// Upsert replaces the row of the settings' scope, keeping its id and created_at.
func (r *settingsRepository) Upsert(ctx context.Context, s settings.Settings) (settings.Settings, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_settings (
			id, department_id, division_id, paid_leaves, ot_pay_per_hour, min_ot_hours,
			attendance_policy, permission_policy, enable_absent_deduction, lop_days_per_absent,
			include_missing, enable_loan_deduction, enable_advance_deduction, updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT ((COALESCE(department_id, '')), (COALESCE(division_id, ''))) DO UPDATE SET
			paid_leaves = EXCLUDED.paid_leaves,
			ot_pay_per_hour = EXCLUDED.ot_pay_per_hour,
			min_ot_hours = EXCLUDED.min_ot_hours,
			attendance_policy = EXCLUDED.attendance_policy,
			permission_policy = EXCLUDED.permission_policy,
			enable_absent_deduction = EXCLUDED.enable_absent_deduction,
			lop_days_per_absent = EXCLUDED.lop_days_per_absent,
			include_missing = EXCLUDED.include_missing,
			enable_loan_deduction = EXCLUDED.enable_loan_deduction,
			enable_advance_deduction = EXCLUDED.enable_advance_deduction,
			updated_by = EXCLUDED.updated_by,
			updated_at = NOW()
		RETURNING ` + settingsColumns

	saved, err := scanSettings(q.QueryRow(ctx, query,
		s.ID, s.DepartmentID, s.DivisionID, s.PaidLeaves, s.OTPayPerHour, s.MinOTHours,
		s.AttendancePolicy, s.PermissionPolicy, s.EnableAbsentDeduction, s.LOPDaysPerAbsent,
		s.IncludeMissing, s.EnableLoanDeduction, s.EnableAdvanceDeduction, s.UpdatedBy,
	))
	if err != nil {
		return settings.Settings{}, fmt.Errorf("failed to upsert payroll settings: %w", err)
	}

	return saved, nil
}
