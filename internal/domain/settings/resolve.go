package settings

import (
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/utils"
	"github.com/shopspring/decimal"
)

var defaultLOPDaysPerAbsent = decimal.NewFromInt(1)

// Resolve merges scopes field by field: division+department, then department, then global,
// then built-in defaults. Any argument may be nil.
func Resolve(global, department, division *Settings) Effective {
	scopes := []*Settings{division, department, global}

	return Effective{
		PaidLeaves:             utils.DecimalOr(pick(scopes, func(s *Settings) *decimal.Decimal { return s.PaidLeaves }), decimal.Zero),
		OTPayPerHour:           utils.DecimalOr(pick(scopes, func(s *Settings) *decimal.Decimal { return s.OTPayPerHour }), decimal.Zero),
		MinOTHours:             utils.DecimalOr(pick(scopes, func(s *Settings) *decimal.Decimal { return s.MinOTHours }), decimal.Zero),
		AttendancePolicy:       pick(scopes, func(s *Settings) *ThresholdPolicy { return s.AttendancePolicy }),
		PermissionPolicy:       pick(scopes, func(s *Settings) *ThresholdPolicy { return s.PermissionPolicy }),
		EnableAbsentDeduction:  boolOr(pick(scopes, func(s *Settings) *bool { return s.EnableAbsentDeduction }), false),
		LOPDaysPerAbsent:       utils.DecimalOr(pick(scopes, func(s *Settings) *decimal.Decimal { return s.LOPDaysPerAbsent }), defaultLOPDaysPerAbsent),
		IncludeMissing:         boolOr(pick(scopes, func(s *Settings) *bool { return s.IncludeMissing }), true),
		EnableLoanDeduction:    boolOr(pick(scopes, func(s *Settings) *bool { return s.EnableLoanDeduction }), true),
		EnableAdvanceDeduction: boolOr(pick(scopes, func(s *Settings) *bool { return s.EnableAdvanceDeduction }), true),
	}
}

func pick[T any](scopes []*Settings, field func(*Settings) *T) *T {
	for _, s := range scopes {
		if s == nil {
			continue
		}
		if v := field(s); v != nil {
			return v
		}
	}
	return nil
}

func boolOr(b *bool, fallback bool) bool {
	if b == nil {
		return fallback
	}
	return *b
}
