package user

type Permission string

const (
	// Payroll records
	PermissionPayrollView      Permission = "payroll.view"
	PermissionPayrollCalculate Permission = "payroll.calculate"
	PermissionPayrollApprove   Permission = "payroll.approve"

	// Batches
	PermissionBatchManage          Permission = "batch.manage"
	PermissionRecalculationRequest Permission = "batch.recalculation_request"
	PermissionRecalculationGrant   Permission = "batch.recalculation_grant"

	// Rules and settings
	PermissionSettingsView   Permission = "settings.view"
	PermissionSettingsManage Permission = "settings.manage"
)

// RolePermissions maps roles to their permissions
var RolePermissions = map[Role][]Permission{
	RoleOwner: {
		// Owner has all permissions
		PermissionPayrollView,
		PermissionPayrollCalculate,
		PermissionPayrollApprove,
		PermissionBatchManage,
		PermissionRecalculationRequest,
		PermissionRecalculationGrant,
		PermissionSettingsView,
		PermissionSettingsManage,
	},
	RoleManager: {
		// Manager runs payroll but cannot grant recalculation of a locked batch
		PermissionPayrollView,
		PermissionPayrollCalculate,
		PermissionPayrollApprove,
		PermissionBatchManage,
		PermissionRecalculationRequest,
		PermissionSettingsView,
	},
	RoleEmployee: {},
}

// HasPermission checks if a role has a specific permission
func HasPermission(role Role, permission Permission) bool {
	permissions, exists := RolePermissions[role]
	if !exists {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}

	return false
}
