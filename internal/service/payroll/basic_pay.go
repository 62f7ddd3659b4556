package payroll

import (
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/apperror"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/utils"
	"github.com/shopspring/decimal"
)

type BasicPayInput struct {
	PayBaseField       string
	PayBaseAmount      decimal.Decimal
	TotalDaysInMonth   decimal.Decimal
	TotalPayableShifts decimal.Decimal
	ExtraDays          decimal.Decimal
}

type BasicPayResult struct {
	PerDayRate    decimal.Decimal
	TotalPaidDays decimal.Decimal
	ExtraDays     decimal.Decimal
	BasicPay      decimal.Decimal
	Incentive     decimal.Decimal
	PayableAmount decimal.Decimal
}

// CalculateBasicPay caps paid days at the month length; anything above the cap
// is paid as incentive at the same per-day rate.
func CalculateBasicPay(in BasicPayInput) (BasicPayResult, error) {
	field := in.PayBaseField
	if field == "" {
		field = "gross_salary"
	}
	if !in.PayBaseAmount.IsPositive() {
		return BasicPayResult{}, apperror.InvalidInput(field, "must be greater than zero")
	}
	if in.TotalDaysInMonth.LessThan(decimal.NewFromInt(1)) {
		return BasicPayResult{}, apperror.InvalidInput("total_days_in_month", "must be at least 1")
	}

	perDayRate := utils.Round2(in.PayBaseAmount.Div(in.TotalDaysInMonth))

	rawPaidDays := utils.NonNegative(in.TotalPayableShifts)
	extraDays := utils.NonNegative(in.ExtraDays)
	paidDays := rawPaidDays
	if rawPaidDays.GreaterThan(in.TotalDaysInMonth) {
		extraDays = extraDays.Add(rawPaidDays.Sub(in.TotalDaysInMonth))
		paidDays = in.TotalDaysInMonth
	}

	basicPay := utils.Round2(paidDays.Mul(perDayRate))
	incentive := utils.Round2(extraDays.Mul(perDayRate))

	return BasicPayResult{
		PerDayRate:    perDayRate,
		TotalPaidDays: paidDays,
		ExtraDays:     extraDays,
		BasicPay:      basicPay,
		Incentive:     incentive,
		PayableAmount: utils.Round2(basicPay.Add(incentive)),
	}, nil
}
