package payroll

import (
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/settings"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/utils"
	"github.com/shopspring/decimal"
)

var (
	halfDay = decimal.RequireFromString("0.5")
	fullDay = decimal.NewFromInt(1)
)

// UnitDays is the day-equivalent of one threshold tier.
// custom_amount converts the configured amount using perDayRate.
func UnitDays(deductionType settings.DeductionType, customAmount *decimal.Decimal, perDayRate decimal.Decimal) decimal.Decimal {
	switch deductionType {
	case settings.DeductionTypeHalfDay:
		return halfDay
	case settings.DeductionTypeFullDay:
		return fullDay
	case settings.DeductionTypeCustomAmount:
		return utils.SafeDiv(utils.DecimalOr(customAmount, decimal.Zero), perDayRate)
	}
	return decimal.Zero
}

// ThresholdDeductionDays converts eventCount into deducted days: one unit per full
// threshold multiple, plus a partial unit for the remainder in proportional mode.
func ThresholdDeductionDays(eventCount, threshold int, unitDays decimal.Decimal, mode settings.CalculationMode) (multiplier, remainder int, days decimal.Decimal) {
	if threshold <= 0 || eventCount <= 0 {
		return 0, 0, decimal.Zero
	}
	multiplier = eventCount / threshold
	remainder = eventCount % threshold
	days = decimal.NewFromInt(int64(multiplier)).Mul(unitDays)
	if mode == settings.CalculationModeProportional && remainder > 0 {
		fraction := decimal.NewFromInt(int64(remainder)).Div(decimal.NewFromInt(int64(threshold)))
		days = days.Add(fraction.Mul(unitDays))
	}
	return multiplier, remainder, days
}

// CalculateThresholdDeduction applies policy to eventCount. An unconfigured policy
// deducts nothing but still reports the count.
func CalculateThresholdDeduction(policy *settings.ThresholdPolicy, eventCount int, perDayRate decimal.Decimal) payroll.ThresholdDeduction {
	out := payroll.ThresholdDeduction{
		EventCount: eventCount,
		UnitDays:   decimal.Zero,
		Days:       decimal.Zero,
		Amount:     decimal.Zero,
	}
	if !policy.IsConfigured() {
		return out
	}

	out.Threshold = *policy.CountThreshold
	out.DeductionType = *policy.DeductionType
	out.CalculationMode = *policy.CalculationMode
	out.UnitDays = UnitDays(out.DeductionType, policy.DeductionAmount, perDayRate)

	out.Multiplier, out.Remainder, out.Days = ThresholdDeductionDays(eventCount, out.Threshold, out.UnitDays, out.CalculationMode)
	out.Amount = utils.Round2(out.Days.Mul(perDayRate))
	out.Applied = out.Amount.IsPositive()
	return out
}

// CalculateLeaveDeduction deducts leave beyond the entitlement, prorated on payBaseAmount.
func CalculateLeaveDeduction(totalLeaves, entitlement, totalDaysInMonth, payBaseAmount decimal.Decimal) payroll.LeaveDeduction {
	unpaid := utils.NonNegative(totalLeaves.Sub(entitlement))
	return payroll.LeaveDeduction{
		TotalLeaves:          totalLeaves,
		PaidLeaveEntitlement: entitlement,
		UnpaidLeaves:         unpaid,
		Amount:               utils.Round2(utils.SafeDiv(unpaid, totalDaysInMonth).Mul(payBaseAmount)),
	}
}

// CalculateAbsentDeduction charges the LOP days beyond one per absent day.
func CalculateAbsentDeduction(enabled bool, absentDays, lopDaysPerAbsent, perDayRate decimal.Decimal) payroll.AbsentDeduction {
	out := payroll.AbsentDeduction{
		Enabled:          enabled,
		AbsentDays:       absentDays,
		LOPDaysPerAbsent: lopDaysPerAbsent,
		ExtraLOPDays:     decimal.Zero,
		Amount:           decimal.Zero,
	}
	if !enabled {
		return out
	}
	out.ExtraLOPDays = absentDays.Mul(utils.NonNegative(lopDaysPerAbsent.Sub(fullDay)))
	out.Amount = utils.Round2(out.ExtraLOPDays.Mul(perDayRate))
	return out
}
