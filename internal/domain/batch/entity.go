package batch

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusFreeze   Status = "freeze"
	StatusComplete Status = "complete"
)

type HistoryKind string

const (
	HistoryKindRecalculation HistoryKind = "recalculation"
	HistoryKindRollback      HistoryKind = "rollback"
)

// Key identifies the single batch of a department (and optional division) for a month and pay base.
type Key struct {
	DepartmentID string
	DivisionID   *string
	Month        string
	PayBase      payroll.PayBase
}

type Totals struct {
	TotalEmployees   int             `json:"total_employees"`
	TotalGrossSalary decimal.Decimal `json:"total_gross_salary"`
	TotalDeductions  decimal.Decimal `json:"total_deductions"`
	TotalEMI         decimal.Decimal `json:"total_emi"`
	TotalAdvance     decimal.Decimal `json:"total_advance"`
	TotalIncentive   decimal.Decimal `json:"total_incentive"`
	TotalArrears     decimal.Decimal `json:"total_arrears"`
	TotalNetSalary   decimal.Decimal `json:"total_net_salary"`
}

type StatusChange struct {
	Status    Status    `json:"status"`
	ChangedBy string    `json:"changed_by"`
	ChangedAt time.Time `json:"changed_at"`
	Reason    string    `json:"reason,omitempty"`
}

type RecalculationPermission struct {
	RequestedBy   *string    `json:"requested_by,omitempty"`
	RequestedAt   *time.Time `json:"requested_at,omitempty"`
	RequestReason string     `json:"request_reason,omitempty"`
	Granted       bool       `json:"granted"`
	GrantedBy     *string    `json:"granted_by,omitempty"`
	GrantedAt     *time.Time `json:"granted_at,omitempty"`
	GrantReason   string     `json:"grant_reason,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// EmployeeSnapshot is the restorable part of one member record.
type EmployeeSnapshot struct {
	EmployeeID     string              `json:"employee_id"`
	RecordID       string              `json:"record_id"`
	Earnings       payroll.Earnings    `json:"earnings"`
	Deductions     payroll.Deductions  `json:"deductions"`
	LoanAdvance    payroll.LoanAdvance `json:"loan_advance"`
	ArrearsAmount  decimal.Decimal     `json:"arrears_amount"`
	ExactNetSalary decimal.Decimal     `json:"exact_net_salary"`
	NetSalary      decimal.Decimal     `json:"net_salary"`
	RoundOff       decimal.Decimal     `json:"round_off"`
}

type HistoryEntry struct {
	ID             string                  `json:"id"`
	Kind           HistoryKind             `json:"kind"`
	Reason         string                  `json:"reason,omitempty"`
	PerformedBy    string                  `json:"performed_by"`
	PerformedAt    time.Time               `json:"performed_at"`
	PreviousTotals Totals                  `json:"previous_totals"`
	Snapshots      []EmployeeSnapshot      `json:"snapshots"`
	ResultTotals   Totals                  `json:"result_totals"`
	RolledBackFrom *string                 `json:"rolled_back_from,omitempty"`
	Errors         []payroll.EmployeeError `json:"errors,omitempty"`
}

// Batch - payroll records of one department(+division) for one month
type Batch struct {
	ID                      string                   `json:"id"`
	DepartmentID            string                   `json:"department_id"`
	DivisionID              *string                  `json:"division_id,omitempty"`
	Month                   string                   `json:"month"`
	PayBase                 payroll.PayBase          `json:"pay_base"`
	Status                  Status                   `json:"status"`
	EmployeePayrolls        []string                 `json:"employee_payrolls"`
	Totals                  Totals                   `json:"totals"`
	StatusHistory           []StatusChange           `json:"status_history"`
	RecalculationPermission *RecalculationPermission `json:"recalculation_permission,omitempty"`
	RecalculationHistory    []HistoryEntry           `json:"recalculation_history"`
	CreatedBy               string                   `json:"created_by"`
	CreatedAt               time.Time                `json:"created_at"`
	UpdatedAt               time.Time                `json:"updated_at"`
}

func (b *Batch) Key() Key {
	return Key{DepartmentID: b.DepartmentID, DivisionID: b.DivisionID, Month: b.Month, PayBase: b.PayBase}
}
