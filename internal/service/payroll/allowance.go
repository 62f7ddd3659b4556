package payroll

import (
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/rule"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/utils"
	"github.com/shopspring/decimal"
)

// EvaluationContext carries the figures a rule may be evaluated against.
type EvaluationContext struct {
	BasicPay      decimal.Decimal
	GrossSalary   decimal.Decimal
	MonthDays     decimal.Decimal
	PresentDays   decimal.Decimal
	PaidLeaveDays decimal.Decimal
	ODDays        decimal.Decimal
}

// EvaluateRule computes the amount of one rule, clamped to its min/max and rounded.
func EvaluateRule(r rule.Rule, ec EvaluationContext) decimal.Decimal {
	var amount decimal.Decimal

	switch r.Type {
	case rule.TypeFixed:
		amount = utils.DecimalOr(r.Amount, decimal.Zero)
		if r.BasedOnPresentDays {
			attended := ec.PresentDays.Add(ec.PaidLeaveDays).Add(ec.ODDays)
			amount = utils.SafeDiv(amount, ec.MonthDays).Mul(attended)
		}
	case rule.TypePercentage:
		base := ec.BasicPay
		if r.PercentageBase == rule.PercentageBaseGross {
			base = ec.GrossSalary
		}
		amount = utils.Percent(base, utils.DecimalOr(r.Percentage, decimal.Zero))
	default:
		return decimal.Zero
	}

	if r.MinAmount != nil && amount.LessThan(*r.MinAmount) {
		amount = *r.MinAmount
	}
	if r.MaxAmount != nil && amount.GreaterThan(*r.MaxAmount) {
		amount = *r.MaxAmount
	}
	return utils.Round2(amount)
}

// AllowanceResult is the outcome of the two-pass allowance evaluation.
type AllowanceResult struct {
	Items       []payroll.LineItem
	Total       decimal.Decimal
	GrossSalary decimal.Decimal
}

// EvaluateAllowances runs fixed and basic-percentage rules first, derives gross as
// basic + OT + those allowances, then runs gross-percentage rules against it.
// GrossSalary in the result includes every allowance. Items keep the input order.
func EvaluateAllowances(resolved []rule.Resolved, ec EvaluationContext, otPay decimal.Decimal) AllowanceResult {
	items := make([]payroll.LineItem, len(resolved))
	done := make([]bool, len(resolved))

	passOne := decimal.Zero
	for i, r := range resolved {
		if isGrossBased(r.Rule) {
			continue
		}
		items[i] = lineItem(r, EvaluateRule(r.Rule, ec))
		done[i] = true
		passOne = passOne.Add(items[i].Amount)
	}

	ec.GrossSalary = utils.Round2(ec.BasicPay.Add(otPay).Add(passOne))

	for i, r := range resolved {
		if done[i] {
			continue
		}
		items[i] = lineItem(r, EvaluateRule(r.Rule, ec))
	}

	total := SumLineItems(items)
	return AllowanceResult{
		Items:       items,
		Total:       total,
		GrossSalary: utils.Round2(ec.BasicPay.Add(otPay).Add(total)),
	}
}

// EvaluateDeductions evaluates deduction masters in one pass; gross is already known.
func EvaluateDeductions(resolved []rule.Resolved, ec EvaluationContext) []payroll.LineItem {
	items := make([]payroll.LineItem, 0, len(resolved))
	for _, r := range resolved {
		items = append(items, lineItem(r, EvaluateRule(r.Rule, ec)))
	}
	return items
}

func SumLineItems(items []payroll.LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Amount)
	}
	return utils.Round2(total)
}

func isGrossBased(r rule.Rule) bool {
	return r.Type == rule.TypePercentage && r.PercentageBase == rule.PercentageBaseGross
}

func lineItem(r rule.Resolved, amount decimal.Decimal) payroll.LineItem {
	id := r.DefinitionID
	return payroll.LineItem{
		MasterID:       &id,
		Name:           r.Name,
		Amount:         amount,
		Type:           r.Rule.Type,
		PercentageBase: r.Rule.PercentageBase,
		Source:         sourceOf(r.Scope),
	}
}

func sourceOf(s rule.Scope) payroll.LineSource {
	switch s {
	case rule.ScopeDivision:
		return payroll.LineSourceDivision
	case rule.ScopeDepartment:
		return payroll.LineSourceDepartment
	}
	return payroll.LineSourceGlobal
}
