package payroll

import (
	"errors"
	"testing"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/loan"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/rule"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/settings"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/apperror"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func dp(v string) *decimal.Decimal {
	x := decimal.RequireFromString(v)
	return &x
}

func strPtr(s string) *string { return &s }

func assertDec(t *testing.T, want string, got decimal.Decimal, msgAndArgs ...interface{}) {
	t.Helper()
	assert.Truef(t, d(want).Equal(got), "want %s, got %s %v", want, got.String(), msgAndArgs)
}

// ========== BASIC PAY ==========

func TestCalculateBasicPay_ExtraShiftsBecomeIncentive(t *testing.T) {
	res, err := CalculateBasicPay(BasicPayInput{
		PayBaseAmount:      d("60000"),
		TotalDaysInMonth:   d("30"),
		TotalPayableShifts: d("34"),
	})
	require.NoError(t, err)

	assertDec(t, "2000", res.PerDayRate)
	assertDec(t, "30", res.TotalPaidDays)
	assertDec(t, "4", res.ExtraDays)
	assertDec(t, "60000", res.BasicPay)
	assertDec(t, "8000", res.Incentive)
	assertDec(t, "68000", res.PayableAmount)
}

func TestCalculateBasicPay_CapInvariant(t *testing.T) {
	cases := []struct {
		salary, days, shifts, extra string
	}{
		{"60000", "30", "34", "0"},
		{"45123.45", "31", "12.5", "0"},
		{"31000", "30", "30", "0"},
		{"28000", "28", "0", "0"},
		{"50000", "30", "29.5", "1.5"},
		{"99999.99", "31", "40", "2"},
	}
	tolerance := d("0.01")

	for _, tc := range cases {
		res, err := CalculateBasicPay(BasicPayInput{
			PayBaseAmount:      d(tc.salary),
			TotalDaysInMonth:   d(tc.days),
			TotalPayableShifts: d(tc.shifts),
			ExtraDays:          d(tc.extra),
		})
		require.NoError(t, err)

		assert.True(t, res.TotalPaidDays.LessThanOrEqual(d(tc.days)), "paid days capped for %+v", tc)
		assert.False(t, res.ExtraDays.IsNegative(), "extra days non-negative for %+v", tc)
		diff := res.BasicPay.Add(res.Incentive).Sub(res.PayableAmount).Abs()
		assert.True(t, diff.LessThanOrEqual(tolerance), "basic + incentive == payable for %+v", tc)

		again, err := CalculateBasicPay(BasicPayInput{
			PayBaseAmount:      d(tc.salary),
			TotalDaysInMonth:   d(tc.days),
			TotalPayableShifts: d(tc.shifts),
			ExtraDays:          d(tc.extra),
		})
		require.NoError(t, err)
		assert.Equal(t, res, again)
	}
}

func TestCalculateBasicPay_InvalidInput(t *testing.T) {
	_, err := CalculateBasicPay(BasicPayInput{PayBaseField: "second_salary", PayBaseAmount: decimal.Zero, TotalDaysInMonth: d("30")})
	require.Error(t, err)
	var invalid *apperror.InvalidInputError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "second_salary", invalid.Field)

	_, err = CalculateBasicPay(BasicPayInput{PayBaseAmount: d("1000"), TotalDaysInMonth: decimal.Zero})
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "total_days_in_month", invalid.Field)
	assert.True(t, errors.Is(err, apperror.ErrInvalidInput))
}

// ========== OT PAY ==========

func TestCalculateOTPay(t *testing.T) {
	below := CalculateOTPay(d("1.5"), d("150"), d("2"))
	assertDec(t, "0", below.EligibleOTHours)
	assertDec(t, "0", below.OTPay)
	assertDec(t, "1.5", below.OTHours)

	atMin := CalculateOTPay(d("2"), d("150"), d("2"))
	assertDec(t, "300", atMin.OTPay)

	noSettings := CalculateOTPay(d("10"), decimal.Zero, decimal.Zero)
	assertDec(t, "10", noSettings.EligibleOTHours)
	assertDec(t, "0", noSettings.OTPay)
}

// ========== ALLOWANCES ==========

func TestEvaluateRule(t *testing.T) {
	ec := EvaluationContext{
		BasicPay:      d("60000"),
		GrossSalary:   d("80000"),
		MonthDays:     d("30"),
		PresentDays:   d("20"),
		PaidLeaveDays: d("2"),
		ODDays:        d("3"),
	}

	fixed := rule.Rule{Type: rule.TypeFixed, Amount: dp("3000")}
	assertDec(t, "3000", EvaluateRule(fixed, ec))

	fixed.BasedOnPresentDays = true
	assertDec(t, "2500", EvaluateRule(fixed, ec), "prorated by 25 attended days of 30")

	ofBasic := rule.Rule{Type: rule.TypePercentage, Percentage: dp("10"), PercentageBase: rule.PercentageBaseBasic}
	assertDec(t, "6000", EvaluateRule(ofBasic, ec))

	ofGross := rule.Rule{Type: rule.TypePercentage, Percentage: dp("10"), PercentageBase: rule.PercentageBaseGross}
	assertDec(t, "8000", EvaluateRule(ofGross, ec))

	ofGross.MaxAmount = dp("5000")
	assertDec(t, "5000", EvaluateRule(ofGross, ec))

	small := rule.Rule{Type: rule.TypeFixed, Amount: dp("100"), MinAmount: dp("250")}
	assertDec(t, "250", EvaluateRule(small, ec))

	third := rule.Rule{Type: rule.TypeFixed, Amount: dp("1000"), BasedOnPresentDays: true}
	ec.PresentDays, ec.PaidLeaveDays, ec.ODDays = d("10"), decimal.Zero, decimal.Zero
	assertDec(t, "333.33", EvaluateRule(third, ec))
}

func TestEvaluateAllowances_TwoPass(t *testing.T) {
	resolved := []rule.Resolved{
		{DefinitionID: "gross-pct", Name: "Performance", Scope: rule.ScopeGlobal, Rule: rule.Rule{Type: rule.TypePercentage, Percentage: dp("10"), PercentageBase: rule.PercentageBaseGross}},
		{DefinitionID: "fixed", Name: "Transport", Scope: rule.ScopeDepartment, Rule: rule.Rule{Type: rule.TypeFixed, Amount: dp("1000")}},
		{DefinitionID: "basic-pct", Name: "HRA", Scope: rule.ScopeDivision, Rule: rule.Rule{Type: rule.TypePercentage, Percentage: dp("10"), PercentageBase: rule.PercentageBaseBasic}},
	}
	ec := EvaluationContext{BasicPay: d("10000"), MonthDays: d("30")}

	res := EvaluateAllowances(resolved, ec, d("500"))

	require.Len(t, res.Items, 3)
	assert.Equal(t, "Performance", res.Items[0].Name, "input order kept")
	assertDec(t, "1250", res.Items[0].Amount, "10% of basic + OT + pass one allowances")
	assertDec(t, "1000", res.Items[1].Amount)
	assertDec(t, "1000", res.Items[2].Amount)
	assertDec(t, "3250", res.Total)
	assertDec(t, "13750", res.GrossSalary)

	assert.Equal(t, payroll.LineSourceGlobal, res.Items[0].Source)
	assert.Equal(t, payroll.LineSourceDepartment, res.Items[1].Source)
	assert.Equal(t, payroll.LineSourceDivision, res.Items[2].Source)
}

// ========== MERGE ==========

func TestMergeWithOverrides(t *testing.T) {
	hra := payroll.LineItem{MasterID: strPtr("m-hra"), Name: "HRA", Amount: d("1000"), Source: payroll.LineSourceGlobal}
	transport := payroll.LineItem{MasterID: strPtr("m-tr"), Name: "Transport", Amount: d("400"), Source: payroll.LineSourceDepartment}

	t.Run("override replaces matched amount", func(t *testing.T) {
		out := MergeWithOverrides([]payroll.LineItem{hra}, []employee.ComponentOverride{{Name: "HRA", Amount: d("1500")}}, true)
		require.Len(t, out, 1)
		assert.Equal(t, "HRA", out[0].Name)
		assertDec(t, "1500", out[0].Amount)
		assert.True(t, out[0].IsOverride)
		assert.Equal(t, payroll.LineSourceEmployee, out[0].Source)
	})

	t.Run("unmatched override appended when including missing", func(t *testing.T) {
		out := MergeWithOverrides([]payroll.LineItem{hra}, []employee.ComponentOverride{{Name: "Meal", Amount: d("200")}}, true)
		require.Len(t, out, 2)
		assert.Equal(t, "HRA", out[0].Name)
		assertDec(t, "1000", out[0].Amount)
		assert.Equal(t, "Meal", out[1].Name)
	})

	t.Run("base entries without override dropped", func(t *testing.T) {
		out := MergeWithOverrides([]payroll.LineItem{hra, transport}, []employee.ComponentOverride{{Name: "Meal", Amount: d("200")}, {Name: " transport ", Amount: d("450")}}, false)
		require.Len(t, out, 2)
		assert.Equal(t, "Transport", out[0].Name)
		assertDec(t, "450", out[0].Amount)
		assert.Equal(t, "Meal", out[1].Name)
	})

	t.Run("master id wins over name", func(t *testing.T) {
		out := MergeWithOverrides([]payroll.LineItem{hra, transport}, []employee.ComponentOverride{{MasterID: strPtr("m-tr"), Name: "HRA", Amount: d("999")}}, true)
		require.Len(t, out, 2)
		assertDec(t, "1000", out[0].Amount)
		assertDec(t, "999", out[1].Amount)
	})

	t.Run("duplicate overrides collapse to first", func(t *testing.T) {
		out := MergeWithOverrides([]payroll.LineItem{hra}, []employee.ComponentOverride{
			{Name: "hra", Amount: d("1500")},
			{Name: "HRA", Amount: d("1700")},
			{Name: "Meal", Amount: d("10")},
			{Name: "MEAL", Amount: d("20")},
		}, true)
		require.Len(t, out, 2)
		assertDec(t, "1500", out[0].Amount)
		assertDec(t, "10", out[1].Amount)
	})
}

// ========== DEDUCTIONS ==========

func policy(threshold int, typ settings.DeductionType, mode settings.CalculationMode) *settings.ThresholdPolicy {
	return &settings.ThresholdPolicy{CountThreshold: &threshold, DeductionType: &typ, CalculationMode: &mode}
}

func TestThresholdDeductionDays_FloorVsProportional(t *testing.T) {
	m, r, days := ThresholdDeductionDays(4, 3, d("0.5"), settings.CalculationModeFloor)
	assert.Equal(t, 1, m)
	assert.Equal(t, 1, r)
	assertDec(t, "0.5", days)

	_, _, days = ThresholdDeductionDays(4, 3, d("0.5"), settings.CalculationModeProportional)
	assertDec(t, "0.667", days.Round(3))

	_, _, days = ThresholdDeductionDays(2, 3, d("1"), settings.CalculationModeFloor)
	assertDec(t, "0", days, "below threshold floors to nothing")

	_, _, days = ThresholdDeductionDays(6, 3, d("1"), settings.CalculationModeProportional)
	assertDec(t, "2", days)
}

func TestCalculateThresholdDeduction(t *testing.T) {
	got := CalculateThresholdDeduction(policy(3, settings.DeductionTypeHalfDay, settings.CalculationModeFloor), 4, d("2000"))
	assert.True(t, got.Applied)
	assertDec(t, "1000", got.Amount)

	got = CalculateThresholdDeduction(policy(3, settings.DeductionTypeHalfDay, settings.CalculationModeProportional), 4, d("2000"))
	assertDec(t, "1333.33", got.Amount)

	custom := policy(2, settings.DeductionTypeCustomAmount, settings.CalculationModeFloor)
	custom.DeductionAmount = dp("500")
	got = CalculateThresholdDeduction(custom, 5, d("2000"))
	assertDec(t, "0.25", got.UnitDays)
	assert.Equal(t, 2, got.Multiplier)
	assertDec(t, "1000", got.Amount)

	inert := CalculateThresholdDeduction(nil, 7, d("2000"))
	assert.False(t, inert.Applied)
	assert.Equal(t, 7, inert.EventCount)
	assertDec(t, "0", inert.Amount)
}

func TestCalculateLeaveDeduction(t *testing.T) {
	got := CalculateLeaveDeduction(d("5"), d("2"), d("30"), d("60000"))
	assertDec(t, "3", got.UnpaidLeaves)
	assertDec(t, "6000", got.Amount)

	none := CalculateLeaveDeduction(d("1"), d("2"), d("30"), d("60000"))
	assertDec(t, "0", none.UnpaidLeaves)
	assertDec(t, "0", none.Amount)
}

func TestCalculateAbsentDeduction(t *testing.T) {
	got := CalculateAbsentDeduction(true, d("2"), d("1.5"), d("2000"))
	assertDec(t, "1", got.ExtraLOPDays)
	assertDec(t, "2000", got.Amount)

	oneToOne := CalculateAbsentDeduction(true, d("2"), d("1"), d("2000"))
	assertDec(t, "0", oneToOne.Amount)

	disabled := CalculateAbsentDeduction(false, d("2"), d("3"), d("2000"))
	assertDec(t, "0", disabled.Amount)
	assertDec(t, "2", disabled.AbsentDays)
}

// ========== LOANS & ADVANCES ==========

func activeLoan(id string, typ loan.RequestType, emi, balance string) loan.Loan {
	return loan.Loan{
		ID:          id,
		RequestType: typ,
		Status:      loan.StatusActive,
		Config:      loan.Config{EMIAmount: d(emi)},
		Repayment:   loan.Repayment{RemainingBalance: d(balance)},
	}
}

func TestCalculateLoanAdvance_EMI(t *testing.T) {
	loans := []loan.Loan{
		activeLoan("l1", loan.RequestTypeLoan, "1000", "5000"),
		activeLoan("l2", loan.RequestTypeLoan, "750", "300"),
		{ID: "l3", RequestType: loan.RequestTypeLoan, Status: loan.StatusCompleted, Config: loan.Config{EMIAmount: d("900")}},
	}

	got := CalculateLoanAdvance(loans, d("20000"), true, true)
	assertDec(t, "1300", got.TotalEMI, "final installment capped at the balance")
	assertDec(t, "18700", got.PayableBeforeAdvance)
	require.Len(t, got.EMIBreakdown, 2)

	off := CalculateLoanAdvance(loans, d("20000"), false, true)
	assertDec(t, "0", off.TotalEMI)
}

func TestCalculateLoanAdvance_AdvanceConservation(t *testing.T) {
	cases := []struct {
		name     string
		balances []string
		payable  string
	}{
		{"exceeds capacity", []string{"3000", "1000"}, "2000"},
		{"uneven thirds", []string{"1000", "1000", "1000"}, "1000"},
		{"odd cents", []string{"123.45", "678.90", "10.01"}, "500.55"},
		{"covered", []string{"300", "200"}, "2000"},
		{"exact", []string{"300", "200"}, "500"},
		{"no capacity", []string{"300"}, "0"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var loans []loan.Loan
			total := decimal.Zero
			for i, b := range tc.balances {
				loans = append(loans, activeLoan(string(rune('a'+i)), loan.RequestTypeSalaryAdvance, "0", b))
				total = total.Add(d(b))
			}
			p := d(tc.payable)

			got := CalculateLoanAdvance(loans, p, true, true)

			shares, carried := decimal.Zero, decimal.Zero
			for _, a := range got.AdvanceBreakdown {
				shares = shares.Add(a.DeductedShare)
				carried = carried.Add(a.CarriedForward)
			}
			assertDec(t, total.String(), got.TotalAdvanceBalance)
			if total.GreaterThan(p) {
				assertDec(t, p.String(), shares)
				assertDec(t, total.Sub(p).String(), carried)
			} else {
				assertDec(t, total.String(), shares)
				assertDec(t, "0", carried)
			}
			assertDec(t, shares.String(), got.AdvanceDeduction)
		})
	}
}

func TestCalculateLoanAdvance_ProportionalShares(t *testing.T) {
	loans := []loan.Loan{
		activeLoan("a", loan.RequestTypeSalaryAdvance, "0", "3000"),
		activeLoan("b", loan.RequestTypeSalaryAdvance, "0", "1000"),
	}
	got := CalculateLoanAdvance(loans, d("2000"), true, true)

	require.Len(t, got.AdvanceBreakdown, 2)
	assertDec(t, "1500", got.AdvanceBreakdown[0].DeductedShare)
	assertDec(t, "1500", got.AdvanceBreakdown[0].CarriedForward)
	assertDec(t, "500", got.AdvanceBreakdown[1].DeductedShare)
	assertDec(t, "500", got.AdvanceBreakdown[1].CarriedForward)

	t.Run("remainder never exceeds a balance", func(t *testing.T) {
		balances := []string{"3.86", "2.11", "3.88", "2.50", "0.29"}
		var loans []loan.Loan
		for i, b := range balances {
			loans = append(loans, activeLoan(string(rune('a'+i)), loan.RequestTypeSalaryAdvance, "0", b))
		}
		got := CalculateLoanAdvance(loans, d("12.61"), true, true)

		require.Len(t, got.AdvanceBreakdown, 5)
		shares := decimal.Zero
		for _, a := range got.AdvanceBreakdown {
			assert.False(t, a.DeductedShare.GreaterThan(a.AdvanceBalance), "share %s over balance %s", a.DeductedShare, a.AdvanceBalance)
			assert.False(t, a.CarriedForward.IsNegative(), "carried %s for %s", a.CarriedForward, a.LoanID)
			shares = shares.Add(a.DeductedShare)
		}
		assertDec(t, "12.61", shares)
		assertDec(t, "12.61", got.AdvanceDeduction)
		assertDec(t, "0.29", got.AdvanceBreakdown[4].DeductedShare)
		assertDec(t, "0", got.AdvanceBreakdown[4].CarriedForward)
	})
}

// ========== RECORD ==========

func baseInput() ComputeInput {
	return ComputeInput{
		Employee:   employee.Employee{ID: "e1", EmployeeCode: "E001", FullName: "Ayu", DepartmentID: "ops", GrossSalary: d("60000")},
		Month:      "2024-06",
		PayBase:    payroll.PayBaseGross,
		Attendance: attendanceSummary("30", "34"),
		Settings:   settings.Resolve(nil, nil, nil),
	}
}

func TestComputeRecord_EndToEnd(t *testing.T) {
	r, err := ComputeRecord(baseInput())
	require.NoError(t, err)

	assertDec(t, "2000", r.Earnings.PerDayRate)
	assertDec(t, "30", r.Earnings.TotalPaidDays)
	assertDec(t, "4", r.Earnings.ExtraDays)
	assertDec(t, "60000", r.Earnings.BasicPay)
	assertDec(t, "8000", r.Earnings.Incentive)
	assertDec(t, "60000", r.Earnings.GrossSalary)
	assertDec(t, "0", r.Deductions.TotalDeductions)
	assertDec(t, "68000", r.NetSalary)
	assertDec(t, "0", r.RoundOff)
	assert.Equal(t, payroll.RecordStatusCalculated, r.Status)
}

func TestComputeRecord_RoundOffSign(t *testing.T) {
	for _, salary := range []string{"31000", "45123.45", "29999.99", "12345.67", "60000"} {
		in := baseInput()
		in.Employee.GrossSalary = d(salary)
		in.Attendance = attendanceSummary("31", "27.5")

		r, err := ComputeRecord(in)
		require.NoError(t, err)

		assert.True(t, r.NetSalary.Equal(r.ExactNetSalary.Ceil()), "net is the ceiling for %s", salary)
		assert.False(t, r.RoundOff.IsPositive(), "round off <= 0 for %s", salary)
		assert.True(t, r.RoundOff.GreaterThan(d("-1")), "round off > -1 for %s", salary)
		assertDec(t, r.ExactNetSalary.String(), r.NetSalary.Add(r.RoundOff))
	}
}

func TestComputeRecord_PaidLeaveTopUpAndDeductions(t *testing.T) {
	in := baseInput()
	in.Employee.PaidLeaves = dp("2")
	in.Attendance = attendanceSummary("30", "25")
	in.Attendance.TotalLeaveDays = d("1")
	in.Attendance.LateCount = 3
	in.Attendance.EarlyOutCount = 1
	in.Settings.AttendancePolicy = policy(3, settings.DeductionTypeHalfDay, settings.CalculationModeFloor)
	in.AllowanceRules = []rule.Resolved{{DefinitionID: "hra", Name: "HRA", Rule: rule.Rule{Type: rule.TypeFixed, Amount: dp("1000")}}}
	in.DeductionRules = []rule.Resolved{{DefinitionID: "canteen", Name: "Canteen", Rule: rule.Rule{Type: rule.TypeFixed, Amount: dp("300")}}}
	in.Employee.Allowances = []employee.ComponentOverride{{Name: "hra", Amount: d("1500"), Category: rule.CategoryAllowance}}

	r, err := ComputeRecord(in)
	require.NoError(t, err)

	assertDec(t, "1", r.Attendance.RemainingPaidLeaves)
	assertDec(t, "26", r.Attendance.EffectivePayableShifts)
	assertDec(t, "52000", r.Earnings.BasicPay)
	assertDec(t, "1500", r.Earnings.TotalAllowances)
	assertDec(t, "53500", r.Earnings.GrossSalary)
	assertDec(t, "1000", r.Deductions.AttendanceDeduction.Amount)
	assertDec(t, "300", r.Deductions.TotalOtherDeductions)
	assertDec(t, "1300", r.Deductions.TotalDeductions)
	assertDec(t, "52200", r.NetSalary)
}

func TestComputeRecord_ArrearsAndAdvance(t *testing.T) {
	in := baseInput()
	in.Attendance = attendanceSummary("30", "30")
	in.Loans = []loan.Loan{activeLoan("adv", loan.RequestTypeSalaryAdvance, "0", "70000")}
	in.Arrears = []payroll.Arrear{{ID: "ar1", Amount: d("250.50")}}

	r, err := ComputeRecord(in)
	require.NoError(t, err)

	assertDec(t, "60000", r.LoanAdvance.AdvanceDeduction, "advance takes the whole payable amount")
	assertDec(t, "10000", r.LoanAdvance.AdvanceBreakdown[0].CarriedForward)
	assertDec(t, "250.5", r.ArrearsAmount)
	assertDec(t, "60250.5", r.Earnings.GrossSalary)
	assertDec(t, "251", r.NetSalary)
	assertDec(t, "-0.5", r.RoundOff)
	assert.Equal(t, []string{"ar1"}, r.SettledArrearIDs)
}

func TestComputeRecord_SecondSalaryRequired(t *testing.T) {
	in := baseInput()
	in.PayBase = payroll.PayBaseSecond

	_, err := ComputeRecord(in)
	var invalid *apperror.InvalidInputError
	require.True(t, errors.As(err, &invalid))
	assert.Equal(t, "second_salary", invalid.Field)

	in.Employee.SecondSalary = dp("30000")
	r, err := ComputeRecord(in)
	require.NoError(t, err)
	assertDec(t, "34000", r.NetSalary)
}

func attendanceSummary(days, payable string) attendance.Summary {
	return attendance.Summary{
		EmployeeID:         "e1",
		Month:              "2024-06",
		Source:             attendance.SourcePayRegister,
		TotalDaysInMonth:   d(days),
		TotalPresentDays:   d(payable),
		TotalPaidLeaveDays: decimal.Zero,
		TotalLeaveDays:     decimal.Zero,
		TotalODDays:        decimal.Zero,
		TotalWeeklyOffs:    decimal.Zero,
		TotalHolidays:      decimal.Zero,
		TotalAbsentDays:    decimal.Zero,
		TotalPayableShifts: d(payable),
		TotalOTHours:       decimal.Zero,
	}
}
