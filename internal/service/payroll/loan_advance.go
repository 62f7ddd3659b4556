package payroll

import (
	"sort"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/loan"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/utils"
	"github.com/shopspring/decimal"
)

// CalculateLoanAdvance deducts EMIs from payableBeforeEMI, then recovers salary advances
// from what is left. When advances exceed the remaining capacity the capacity is split
// across them in proportion to their balances and the rest is carried forward.
func CalculateLoanAdvance(loans []loan.Loan, payableBeforeEMI decimal.Decimal, deductEMI, deductAdvance bool) payroll.LoanAdvance {
	out := payroll.LoanAdvance{
		PayableBeforeEMI:    utils.Round2(payableBeforeEMI),
		TotalEMI:            decimal.Zero,
		EMIBreakdown:        []payroll.EMIDeduction{},
		TotalAdvanceBalance: decimal.Zero,
		AdvanceDeduction:    decimal.Zero,
		AdvanceBreakdown:    []payroll.AdvanceDeduction{},
	}

	var advances []loan.Loan
	for _, l := range loans {
		if !l.IsRecoverable() {
			continue
		}
		switch l.RequestType {
		case loan.RequestTypeLoan:
			if !deductEMI {
				continue
			}
			emi := l.Config.EMIAmount
			if emi.GreaterThan(l.Repayment.RemainingBalance) {
				emi = l.Repayment.RemainingBalance
			}
			out.EMIBreakdown = append(out.EMIBreakdown, payroll.EMIDeduction{
				LoanID:           l.ID,
				LoanNumber:       l.LoanNumber,
				EMIAmount:        utils.Round2(emi),
				RemainingBalance: l.Repayment.RemainingBalance,
			})
			out.TotalEMI = out.TotalEMI.Add(utils.Round2(emi))
		case loan.RequestTypeSalaryAdvance:
			if deductAdvance {
				advances = append(advances, l)
			}
		}
	}
	out.TotalEMI = utils.Round2(out.TotalEMI)
	out.PayableBeforeAdvance = utils.Round2(out.PayableBeforeEMI.Sub(out.TotalEMI))

	for _, a := range advances {
		out.TotalAdvanceBalance = out.TotalAdvanceBalance.Add(a.Repayment.RemainingBalance)
	}
	out.TotalAdvanceBalance = utils.Round2(out.TotalAdvanceBalance)
	if len(advances) == 0 {
		return out
	}

	capacity := utils.NonNegative(out.PayableBeforeAdvance)
	if out.TotalAdvanceBalance.LessThanOrEqual(capacity) {
		for _, a := range advances {
			out.AdvanceBreakdown = append(out.AdvanceBreakdown, payroll.AdvanceDeduction{
				LoanID:         a.ID,
				LoanNumber:     a.LoanNumber,
				AdvanceBalance: a.Repayment.RemainingBalance,
				DeductedShare:  a.Repayment.RemainingBalance,
				CarriedForward: decimal.Zero,
			})
		}
		out.AdvanceDeduction = out.TotalAdvanceBalance
		return out
	}

	shares := proportionalShares(advances, out.TotalAdvanceBalance, capacity)
	allocated := decimal.Zero
	for i, a := range advances {
		allocated = allocated.Add(shares[i])
		out.AdvanceBreakdown = append(out.AdvanceBreakdown, payroll.AdvanceDeduction{
			LoanID:         a.ID,
			LoanNumber:     a.LoanNumber,
			AdvanceBalance: a.Repayment.RemainingBalance,
			DeductedShare:  shares[i],
			CarriedForward: utils.Round2(a.Repayment.RemainingBalance.Sub(shares[i])),
		})
	}
	out.AdvanceDeduction = utils.Round2(allocated)
	return out
}

// proportionalShares splits capacity across advances by balance using largest-remainder
// allocation in cents. No share exceeds its advance's balance.
func proportionalShares(advances []loan.Loan, total, capacity decimal.Decimal) []decimal.Decimal {
	cent := decimal.New(1, -2)
	shares := make([]decimal.Decimal, len(advances))
	remainders := make([]decimal.Decimal, len(advances))
	allocated := decimal.Zero
	for i, a := range advances {
		exact := a.Repayment.RemainingBalance.Mul(capacity).Div(total)
		shares[i] = exact.RoundFloor(2)
		remainders[i] = exact.Sub(shares[i])
		allocated = allocated.Add(shares[i])
	}

	order := make([]int, len(advances))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(x, y int) bool {
		return remainders[order[x]].GreaterThan(remainders[order[y]])
	})

	left := capacity.Sub(allocated)
	for left.GreaterThanOrEqual(cent) {
		progressed := false
		for _, i := range order {
			if left.LessThan(cent) {
				break
			}
			next := shares[i].Add(cent)
			if next.GreaterThan(advances[i].Repayment.RemainingBalance) {
				continue
			}
			shares[i] = next
			left = left.Sub(cent)
			progressed = true
		}
		if !progressed {
			break
		}
	}
	return shares
}
