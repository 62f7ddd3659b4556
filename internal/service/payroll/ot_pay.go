package payroll

import (
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/utils"
	"github.com/shopspring/decimal"
)

type OTPayResult struct {
	OTHours         decimal.Decimal
	EligibleOTHours decimal.Decimal
	RatePerHour     decimal.Decimal
	OTPay           decimal.Decimal
}

// CalculateOTPay pays nothing below minOTHours and every hour once the minimum is reached.
func CalculateOTPay(otHours, ratePerHour, minOTHours decimal.Decimal) OTPayResult {
	otHours = utils.NonNegative(otHours)
	eligible := otHours
	if otHours.LessThan(minOTHours) {
		eligible = decimal.Zero
	}
	return OTPayResult{
		OTHours:         otHours,
		EligibleOTHours: eligible,
		RatePerHour:     ratePerHour,
		OTPay:           utils.Round2(eligible.Mul(ratePerHour)),
	}
}
