package payroll

import (
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/loan"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/rule"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/settings"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/utils"
	"github.com/shopspring/decimal"
)

// ComputeInput is everything one payroll record is derived from.
type ComputeInput struct {
	Employee       employee.Employee
	Month          string
	PayBase        payroll.PayBase
	Attendance     attendance.Summary
	Settings       settings.Effective
	AllowanceRules []rule.Resolved
	DeductionRules []rule.Resolved
	Loans          []loan.Loan
	Arrears        []payroll.Arrear
}

// PayBaseAmount returns the salary field selected by payBase.
func PayBaseAmount(e employee.Employee, payBase payroll.PayBase) decimal.Decimal {
	if payBase == payroll.PayBaseSecond {
		return utils.DecimalOr(e.SecondSalary, decimal.Zero)
	}
	return e.GrossSalary
}

// ComputeRecord runs the calculators in order and assembles the record figures.
// Identity, batch and timestamps are left to the caller.
func ComputeRecord(in ComputeInput) (payroll.PayrollRecord, error) {
	emp := in.Employee
	att := in.Attendance
	eff := in.Settings
	payBaseAmount := PayBaseAmount(emp, in.PayBase)

	entitlement := utils.DecimalOr(emp.PaidLeaves, eff.PaidLeaves)
	remainingPaidLeaves := utils.NonNegative(entitlement.Sub(att.TotalLeaveDays))
	payableShifts := att.TotalPayableShifts.Add(remainingPaidLeaves)

	basic, err := CalculateBasicPay(BasicPayInput{
		PayBaseField:       in.PayBase.FieldName(),
		PayBaseAmount:      payBaseAmount,
		TotalDaysInMonth:   att.TotalDaysInMonth,
		TotalPayableShifts: payableShifts,
	})
	if err != nil {
		return payroll.PayrollRecord{}, err
	}

	ot := CalculateOTPay(att.TotalOTHours, eff.OTPayPerHour, eff.MinOTHours)

	ec := EvaluationContext{
		BasicPay:      basic.BasicPay,
		MonthDays:     att.TotalDaysInMonth,
		PresentDays:   att.TotalPresentDays,
		PaidLeaveDays: att.TotalPaidLeaveDays,
		ODDays:        att.TotalODDays,
	}
	evaluated := EvaluateAllowances(in.AllowanceRules, ec, ot.OTPay)
	allowances := MergeWithOverrides(evaluated.Items, emp.Overrides(rule.CategoryAllowance), eff.IncludeMissing)
	totalAllowances := SumLineItems(allowances)
	gross := utils.Round2(basic.BasicPay.Add(ot.OTPay).Add(totalAllowances))
	ec.GrossSalary = gross

	deductions := payroll.Deductions{
		AttendanceDeduction: CalculateThresholdDeduction(eff.AttendancePolicy, att.LateCount+att.EarlyOutCount, basic.PerDayRate),
		PermissionDeduction: CalculateThresholdDeduction(eff.PermissionPolicy, att.PermissionCount, basic.PerDayRate),
		LeaveDeduction:      CalculateLeaveDeduction(att.TotalLeaveDays, entitlement, att.TotalDaysInMonth, payBaseAmount),
		AbsentDeduction:     CalculateAbsentDeduction(eff.EnableAbsentDeduction, att.TotalAbsentDays, eff.LOPDaysPerAbsent, basic.PerDayRate),
		OtherDeductions:     MergeWithOverrides(EvaluateDeductions(in.DeductionRules, ec), emp.Overrides(rule.CategoryDeduction), eff.IncludeMissing),
	}
	deductions.TotalOtherDeductions = SumLineItems(deductions.OtherDeductions)
	deductions.TotalDeductions = utils.Round2(deductions.AttendanceDeduction.Amount.
		Add(deductions.PermissionDeduction.Amount).
		Add(deductions.LeaveDeduction.Amount).
		Add(deductions.AbsentDeduction.Amount).
		Add(deductions.TotalOtherDeductions))

	loanAdvance := CalculateLoanAdvance(in.Loans, gross.Sub(deductions.TotalDeductions), eff.EnableLoanDeduction, eff.EnableAdvanceDeduction)

	netBeforeIncentive := utils.NonNegative(loanAdvance.PayableBeforeAdvance.Sub(loanAdvance.AdvanceDeduction))
	exactNet := utils.Round2(netBeforeIncentive.Add(basic.Incentive))

	arrearsAmount := decimal.Zero
	settledIDs := []string{}
	for _, a := range in.Arrears {
		arrearsAmount = arrearsAmount.Add(a.Amount)
		settledIDs = append(settledIDs, a.ID)
	}
	arrearsAmount = utils.Round2(arrearsAmount)
	gross = utils.Round2(gross.Add(arrearsAmount))
	exactNet = utils.Round2(exactNet.Add(arrearsAmount))

	net := exactNet.Ceil()

	return payroll.PayrollRecord{
		EmployeeID:   emp.ID,
		EmployeeCode: emp.EmployeeCode,
		EmployeeName: emp.FullName,
		DepartmentID: emp.DepartmentID,
		DivisionID:   emp.DivisionID,
		Month:        in.Month,
		PayBase:      in.PayBase,
		Attendance: payroll.AttendanceBreakdown{
			Summary:                att,
			PaidLeaveEntitlement:   entitlement,
			RemainingPaidLeaves:    remainingPaidLeaves,
			EffectivePayableShifts: payableShifts,
		},
		Earnings: payroll.Earnings{
			PayBaseAmount:   payBaseAmount,
			PerDayRate:      basic.PerDayRate,
			TotalPaidDays:   basic.TotalPaidDays,
			ExtraDays:       basic.ExtraDays,
			BasicPay:        basic.BasicPay,
			Incentive:       basic.Incentive,
			PayableAmount:   basic.PayableAmount,
			OTHours:         ot.OTHours,
			EligibleOTHours: ot.EligibleOTHours,
			OTRatePerHour:   ot.RatePerHour,
			OTPay:           ot.OTPay,
			Allowances:      allowances,
			TotalAllowances: totalAllowances,
			ArrearsAmount:   arrearsAmount,
			GrossSalary:     gross,
		},
		Deductions:       deductions,
		LoanAdvance:      loanAdvance,
		ArrearsAmount:    arrearsAmount,
		SettledArrearIDs: settledIDs,
		ExactNetSalary:   exactNet,
		NetSalary:        net,
		RoundOff:         exactNet.Sub(net),
		Status:           payroll.RecordStatusCalculated,
		CalculationMetadata: payroll.CalculationMetadata{
			Settings: eff,
		},
	}, nil
}
