package employee

import "context"

type EmployeeRepository interface {
	GetByID(ctx context.Context, id string) (Employee, error)
	ListActive(ctx context.Context) ([]Employee, error)
	// ListActiveByDepartment with a nil divisionID returns every active employee of the department.
	ListActiveByDepartment(ctx context.Context, departmentID string, divisionID *string) ([]Employee, error)
}
