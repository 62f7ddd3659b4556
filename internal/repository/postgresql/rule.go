package postgresql

import (
	"context"
	"fmt"
	"strings"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/rule"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type ruleRepository struct {
	db *database.DB
}

func NewRuleRepository(db *database.DB) rule.RuleRepository {
	return &ruleRepository{db: db}
}

const ruleColumns = `
	id, name, category, description, is_active, global_rule, department_rules, created_at, updated_at
`

func scanDefinition(row pgx.Row) (rule.Definition, error) {
	var d rule.Definition
	err := row.Scan(
		&d.ID, &d.Name, &d.Category, &d.Description, &d.IsActive, &d.GlobalRule, &d.DepartmentRules,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if d.DepartmentRules == nil {
		d.DepartmentRules = []rule.DepartmentRule{}
	}
	return d, err
}

func (r *ruleRepository) GetByID(ctx context.Context, id string) (rule.Definition, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + ruleColumns + ` FROM payroll_rule_definitions WHERE id = $1`

	d, err := scanDefinition(q.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return rule.Definition{}, rule.ErrDefinitionNotFound
		}
		return rule.Definition{}, fmt.Errorf("failed to get rule definition: %w", err)
	}

	return d, nil
}

func (r *ruleRepository) List(ctx context.Context, category *rule.Category, activeOnly bool) ([]rule.Definition, error) {
	q := GetQuerier(ctx, r.db)

	whereParts := []string{"1=1"}
	args := []interface{}{}

	if category != nil {
		args = append(args, *category)
		whereParts = append(whereParts, fmt.Sprintf("category = $%d", len(args)))
	}
	if activeOnly {
		whereParts = append(whereParts, "is_active = TRUE")
	}

	query := fmt.Sprintf(`SELECT %s FROM payroll_rule_definitions WHERE %s ORDER BY created_at, name`,
		ruleColumns, strings.Join(whereParts, " AND "))

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list rule definitions: %w", err)
	}
	defer rows.Close()

	defs := []rule.Definition{}
	for rows.Next() {
		d, err := scanDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rule definition: %w", err)
		}
		defs = append(defs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rule definitions: %w", err)
	}

	return defs, nil
}

func (r *ruleRepository) Create(ctx context.Context, def rule.Definition) (rule.Definition, error) {
	q := GetQuerier(ctx, r.db)

	if def.DepartmentRules == nil {
		def.DepartmentRules = []rule.DepartmentRule{}
	}

	query := `
		INSERT INTO payroll_rule_definitions (id, name, category, description, is_active, global_rule, department_rules)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		def.ID, def.Name, def.Category, def.Description, def.IsActive, def.GlobalRule, def.DepartmentRules,
	).Scan(&def.CreatedAt, &def.UpdatedAt)
	if err != nil {
		if strings.Contains(err.Error(), "uk_payroll_rule_definition_name") {
			return rule.Definition{}, rule.ErrDefinitionNameExists
		}
		return rule.Definition{}, fmt.Errorf("failed to create rule definition: %w", err)
	}

	return def, nil
}

func (r *ruleRepository) Update(ctx context.Context, def rule.Definition) (rule.Definition, error) {
	q := GetQuerier(ctx, r.db)

	if def.DepartmentRules == nil {
		def.DepartmentRules = []rule.DepartmentRule{}
	}

	query := `
		UPDATE payroll_rule_definitions
		SET name = $2, category = $3, description = $4, is_active = $5,
			global_rule = $6, department_rules = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		def.ID, def.Name, def.Category, def.Description, def.IsActive, def.GlobalRule, def.DepartmentRules,
	).Scan(&def.CreatedAt, &def.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return rule.Definition{}, rule.ErrDefinitionNotFound
		}
		if strings.Contains(err.Error(), "uk_payroll_rule_definition_name") {
			return rule.Definition{}, rule.ErrDefinitionNameExists
		}
		return rule.Definition{}, fmt.Errorf("failed to update rule definition: %w", err)
	}

	return def, nil
}
