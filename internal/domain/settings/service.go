package settings

import (
	"context"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/rule"
)

// SettingsService manages allowance/deduction masters and payroll policy. Every write
// invalidates the cached resolutions it affects.
type SettingsService interface {
	CreateRule(ctx context.Context, req rule.SaveDefinitionRequest) (rule.Definition, error)
	UpdateRule(ctx context.Context, id string, req rule.SaveDefinitionRequest) (rule.Definition, error)
	GetRule(ctx context.Context, id string) (rule.Definition, error)
	ListRules(ctx context.Context, query rule.ListDefinitionsQuery) ([]rule.Definition, error)

	GetGlobalSettings(ctx context.Context) (Settings, error)
	UpsertGlobalSettings(ctx context.Context, req UpdateSettingsRequest) (Settings, error)
	GetDepartmentSettings(ctx context.Context, departmentID string, divisionID *string) (Settings, error)
	UpsertDepartmentSettings(ctx context.Context, departmentID string, divisionID *string, req UpdateSettingsRequest) (Settings, error)
	GetEffectiveSettings(ctx context.Context, departmentID string, divisionID *string) (Effective, error)
}
