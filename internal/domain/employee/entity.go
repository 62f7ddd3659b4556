package employee

import (
	"strings"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/rule"
	"github.com/shopspring/decimal"
)

// Employee is the payroll read model of an employee. The HR module owns the record.
type Employee struct {
	ID               string
	EmployeeCode     string
	FullName         string
	DepartmentID     string
	DivisionID       *string
	DesignationID    *string
	EmploymentStatus EmploymentStatus
	GrossSalary      decimal.Decimal
	SecondSalary     *decimal.Decimal
	PaidLeaves       *decimal.Decimal
	Allowances       []ComponentOverride
	Deductions       []ComponentOverride
}

type EmploymentStatus string

const (
	EmploymentStatusActive     EmploymentStatus = "active"
	EmploymentStatusResigned   EmploymentStatus = "resigned"
	EmploymentStatusTerminated EmploymentStatus = "terminated"
)

// ComponentOverride is an employee-specific amount for an allowance/deduction master.
// MasterID is preferred for matching; Name is the fallback.
type ComponentOverride struct {
	MasterID *string         `json:"master_id,omitempty"`
	Name     string          `json:"name"`
	Amount   decimal.Decimal `json:"amount"`
	Category rule.Category   `json:"category"`
}

// NameKey is the case-insensitive, trimmed name used when no master id matches.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Overrides returns the employee's overrides for category, drawing from both lists
// since the category on each entry is authoritative.
func (e Employee) Overrides(category rule.Category) []ComponentOverride {
	var out []ComponentOverride
	for _, list := range [][]ComponentOverride{e.Allowances, e.Deductions} {
		for _, o := range list {
			if o.Category == category {
				out = append(out, o)
			}
		}
	}
	return out
}
