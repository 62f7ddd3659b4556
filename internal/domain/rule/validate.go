package rule

import (
	"fmt"

	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
)

// Validate checks the definition and every rule it carries.
func (d *Definition) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(d.Name) {
		errs = append(errs, validator.ValidationError{Field: "name", Message: "name is required"})
	}
	if !d.Category.IsValid() {
		errs = append(errs, validator.ValidationError{Field: "category", Message: "must be allowance or deduction"})
	}
	if d.GlobalRule == nil && len(d.DepartmentRules) == 0 {
		errs = append(errs, validator.ValidationError{Field: "global_rule", Message: "at least a global rule or one department rule is required"})
	}
	if d.GlobalRule != nil {
		errs = append(errs, d.GlobalRule.validate("global_rule")...)
	}

	seen := make(map[string]int, len(d.DepartmentRules))
	for i, dr := range d.DepartmentRules {
		field := fmt.Sprintf("department_rules[%d]", i)
		if validator.IsEmpty(dr.DepartmentID) {
			errs = append(errs, validator.ValidationError{Field: field + ".department_id", Message: "department_id is required"})
		}
		key := dr.DepartmentID + "|"
		if dr.DivisionID != nil {
			key += *dr.DivisionID
		}
		if prev, dup := seen[key]; dup {
			errs = append(errs, validator.ValidationError{
				Field:   field,
				Message: fmt.Sprintf("duplicates the division/department pair of department_rules[%d]", prev),
			})
		} else {
			seen[key] = i
		}
		errs = append(errs, dr.Rule.validate(field)...)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

func (r *Rule) validate(field string) validator.ValidationErrors {
	var errs validator.ValidationErrors

	switch r.Type {
	case TypeFixed:
		if r.Amount == nil {
			errs = append(errs, validator.ValidationError{Field: field + ".amount", Message: "amount is required for fixed rules"})
		}
		if r.Percentage != nil {
			errs = append(errs, validator.ValidationError{Field: field + ".percentage", Message: "percentage must be empty for fixed rules"})
		}
		if r.PercentageBase != "" {
			errs = append(errs, validator.ValidationError{Field: field + ".percentage_base", Message: "percentage_base must be empty for fixed rules"})
		}
	case TypePercentage:
		if r.Percentage == nil {
			errs = append(errs, validator.ValidationError{Field: field + ".percentage", Message: "percentage is required for percentage rules"})
		}
		if r.Amount != nil {
			errs = append(errs, validator.ValidationError{Field: field + ".amount", Message: "amount must be empty for percentage rules"})
		}
		if r.PercentageBase != PercentageBaseBasic && r.PercentageBase != PercentageBaseGross {
			errs = append(errs, validator.ValidationError{Field: field + ".percentage_base", Message: "must be basic or gross"})
		}
		if r.BasedOnPresentDays {
			errs = append(errs, validator.ValidationError{Field: field + ".based_on_present_days", Message: "proration applies to fixed rules only"})
		}
	default:
		errs = append(errs, validator.ValidationError{Field: field + ".type", Message: "must be fixed or percentage"})
	}

	if validator.IsNegative(r.Amount) {
		errs = append(errs, validator.ValidationError{Field: field + ".amount", Message: "must be non-negative"})
	}
	if validator.IsNegative(r.Percentage) {
		errs = append(errs, validator.ValidationError{Field: field + ".percentage", Message: "must be non-negative"})
	}
	if validator.IsNegative(r.MinAmount) {
		errs = append(errs, validator.ValidationError{Field: field + ".min_amount", Message: "must be non-negative"})
	}
	if validator.IsNegative(r.MaxAmount) {
		errs = append(errs, validator.ValidationError{Field: field + ".max_amount", Message: "must be non-negative"})
	}
	if r.MinAmount != nil && r.MaxAmount != nil && r.MinAmount.GreaterThan(*r.MaxAmount) {
		errs = append(errs, validator.ValidationError{Field: field + ".min_amount", Message: "min_amount must not exceed max_amount"})
	}

	return errs
}
