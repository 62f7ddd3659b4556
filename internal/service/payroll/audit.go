package payroll

import (
	"context"
	"log/slog"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// auditTransactions emits one entry per non-zero earning and deduction line, then a
// closing net_salary entry. Deductions carry negative amounts.
func auditTransactions(r payroll.PayrollRecord, createdBy *string) []payroll.Transaction {
	var txns []payroll.Transaction
	add := func(txType string, category payroll.TransactionCategory, amount decimal.Decimal, details map[string]any) {
		if amount.IsZero() && txType != "net_salary" {
			return
		}
		txns = append(txns, payroll.Transaction{
			ID:              uuid.Must(uuid.NewV7()).String(),
			EmployeeID:      r.EmployeeID,
			PayrollRecordID: r.ID,
			Month:           r.Month,
			PayBase:         r.PayBase,
			TransactionType: txType,
			Category:        category,
			Amount:          amount,
			Details:         details,
			CreatedBy:       createdBy,
			CreatedAt:       r.UpdatedAt,
		})
	}

	e := r.Earnings
	add("basic_pay", payroll.TransactionCategoryEarning, e.BasicPay, map[string]any{
		"per_day_rate":    e.PerDayRate.String(),
		"total_paid_days": e.TotalPaidDays.String(),
	})
	add("incentive", payroll.TransactionCategoryEarning, e.Incentive, map[string]any{"extra_days": e.ExtraDays.String()})
	add("ot_pay", payroll.TransactionCategoryEarning, e.OTPay, map[string]any{
		"eligible_ot_hours": e.EligibleOTHours.String(),
		"rate_per_hour":     e.OTRatePerHour.String(),
	})
	for _, a := range e.Allowances {
		add("allowance", payroll.TransactionCategoryEarning, a.Amount, lineDetails(a))
	}
	add("arrears", payroll.TransactionCategoryAdjustment, r.ArrearsAmount, map[string]any{"arrear_ids": r.SettledArrearIDs})

	d := r.Deductions
	add("attendance_deduction", payroll.TransactionCategoryDeduction, d.AttendanceDeduction.Amount.Neg(), map[string]any{
		"event_count": d.AttendanceDeduction.EventCount,
		"days":        d.AttendanceDeduction.Days.String(),
	})
	add("permission_deduction", payroll.TransactionCategoryDeduction, d.PermissionDeduction.Amount.Neg(), map[string]any{
		"event_count": d.PermissionDeduction.EventCount,
		"days":        d.PermissionDeduction.Days.String(),
	})
	add("leave_deduction", payroll.TransactionCategoryDeduction, d.LeaveDeduction.Amount.Neg(), map[string]any{
		"unpaid_leaves": d.LeaveDeduction.UnpaidLeaves.String(),
	})
	add("absent_deduction", payroll.TransactionCategoryDeduction, d.AbsentDeduction.Amount.Neg(), map[string]any{
		"extra_lop_days": d.AbsentDeduction.ExtraLOPDays.String(),
	})
	for _, o := range d.OtherDeductions {
		add("other_deduction", payroll.TransactionCategoryDeduction, o.Amount.Neg(), lineDetails(o))
	}

	for _, emi := range r.LoanAdvance.EMIBreakdown {
		add("emi", payroll.TransactionCategoryDeduction, emi.EMIAmount.Neg(), map[string]any{"loan_id": emi.LoanID})
	}
	for _, adv := range r.LoanAdvance.AdvanceBreakdown {
		add("advance_recovery", payroll.TransactionCategoryDeduction, adv.DeductedShare.Neg(), map[string]any{
			"loan_id":         adv.LoanID,
			"carried_forward": adv.CarriedForward.String(),
		})
	}

	add("round_off", payroll.TransactionCategoryAdjustment, r.RoundOff.Neg(), nil)
	add("net_salary", payroll.TransactionCategoryEarning, r.NetSalary, map[string]any{
		"exact_net_salary": r.ExactNetSalary.String(),
	})
	return txns
}

func lineDetails(it payroll.LineItem) map[string]any {
	details := map[string]any{
		"name":        it.Name,
		"source":      it.Source,
		"is_override": it.IsOverride,
	}
	if it.MasterID != nil {
		details["master_id"] = *it.MasterID
	}
	return details
}

// writeAuditLog is fire and forget: a failing sink never fails the calculation.
func (s *PayrollServiceImpl) writeAuditLog(ctx context.Context, r payroll.PayrollRecord, createdBy *string) {
	if err := s.txnLogRepo.CreateMany(ctx, auditTransactions(r, createdBy)); err != nil {
		slog.Error("failed to write payroll transaction log", "record_id", r.ID, "employee_id", r.EmployeeID, "month", r.Month, "error", err)
	}
}
