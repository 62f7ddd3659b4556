package settings

import "context"

type SettingsRepository interface {
	// GetGlobal returns ErrSettingsNotFound when no global row exists.
	GetGlobal(ctx context.Context) (Settings, error)
	// GetDepartment returns the row for exactly (departmentID, divisionID); a nil divisionID
	// selects the department-wide row.
	GetDepartment(ctx context.Context, departmentID string, divisionID *string) (Settings, error)
	Upsert(ctx context.Context, s Settings) (Settings, error)
}
