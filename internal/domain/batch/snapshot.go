package batch

import (
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
)

func SnapshotOf(r payroll.PayrollRecord) EmployeeSnapshot {
	return EmployeeSnapshot{
		EmployeeID:     r.EmployeeID,
		RecordID:       r.ID,
		Earnings:       r.Earnings,
		Deductions:     r.Deductions,
		LoanAdvance:    r.LoanAdvance,
		ArrearsAmount:  r.ArrearsAmount,
		ExactNetSalary: r.ExactNetSalary,
		NetSalary:      r.NetSalary,
		RoundOff:       r.RoundOff,
	}
}

// RestoreInto writes the snapshotted figures back onto r, leaving identity and status alone.
func (s EmployeeSnapshot) RestoreInto(r *payroll.PayrollRecord) {
	r.Earnings = s.Earnings
	r.Deductions = s.Deductions
	r.LoanAdvance = s.LoanAdvance
	r.ArrearsAmount = s.ArrearsAmount
	r.ExactNetSalary = s.ExactNetSalary
	r.NetSalary = s.NetSalary
	r.RoundOff = s.RoundOff
}
