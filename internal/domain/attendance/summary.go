package attendance

import "github.com/shopspring/decimal"

var (
	half          = decimal.RequireFromString("0.5")
	minutesInHour = decimal.NewFromInt(60)
)

func FromPayRegister(p PayRegisterSummary) Summary {
	return Summary{
		EmployeeID:         p.EmployeeID,
		Month:              p.Month,
		Source:             SourcePayRegister,
		TotalDaysInMonth:   p.TotalDays,
		TotalPresentDays:   p.PresentDays,
		TotalPaidLeaveDays: p.PaidLeaveDays,
		TotalLeaveDays:     p.PaidLeaveDays.Add(p.UnpaidLeaveDays),
		TotalODDays:        p.ODDays,
		TotalWeeklyOffs:    p.WeeklyOffs,
		TotalHolidays:      p.Holidays,
		TotalAbsentDays:    p.AbsentDays,
		TotalPayableShifts: p.PayableShifts,
		TotalOTHours:       p.OTHours,
		LateCount:          p.LateCount,
		EarlyOutCount:      p.EarlyOutCount,
		PermissionCount:    p.PermissionCount,
	}
}

// FromMonthlyAttendance derives payable shifts as present + paid leave + OD + weekly offs + holidays.
func FromMonthlyAttendance(m MonthlyAttendanceSummary) Summary {
	present := m.PresentDays.Add(m.HalfDays.Mul(half))
	payable := present.Add(m.PaidLeaveDays).Add(m.ODDays).Add(m.WeeklyOffs).Add(m.Holidays)

	return Summary{
		EmployeeID:         m.EmployeeID,
		Month:              m.Month,
		Source:             SourceMonthlyAttendance,
		TotalDaysInMonth:   decimal.NewFromInt(int64(m.DaysInMonth)),
		TotalPresentDays:   present,
		TotalPaidLeaveDays: m.PaidLeaveDays,
		TotalLeaveDays:     m.PaidLeaveDays.Add(m.UnpaidLeaveDays),
		TotalODDays:        m.ODDays,
		TotalWeeklyOffs:    m.WeeklyOffs,
		TotalHolidays:      m.Holidays,
		TotalAbsentDays:    m.AbsentDays.Add(m.HalfDays.Mul(half)),
		TotalPayableShifts: payable,
		TotalOTHours:       decimal.NewFromInt(int64(m.OTMinutes)).Div(minutesInHour).Round(2),
		LateCount:          m.LateInCount,
		EarlyOutCount:      m.EarlyOutCount,
		PermissionCount:    m.PermissionCount,
	}
}
