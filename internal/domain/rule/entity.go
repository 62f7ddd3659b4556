package rule

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryAllowance Category = "allowance"
	CategoryDeduction Category = "deduction"
)

func (c Category) IsValid() bool {
	return c == CategoryAllowance || c == CategoryDeduction
}

type Type string

const (
	TypeFixed      Type = "fixed"
	TypePercentage Type = "percentage"
)

type PercentageBase string

const (
	PercentageBaseBasic PercentageBase = "basic"
	PercentageBaseGross PercentageBase = "gross"
)

// Scope records which level of a definition produced a resolved rule.
type Scope string

const (
	ScopeDivision   Scope = "division"
	ScopeDepartment Scope = "department"
	ScopeGlobal     Scope = "global"
)

// Rule is one evaluable allowance/deduction formula.
type Rule struct {
	Type               Type             `json:"type"`
	Amount             *decimal.Decimal `json:"amount,omitempty"`
	Percentage         *decimal.Decimal `json:"percentage,omitempty"`
	PercentageBase     PercentageBase   `json:"percentage_base,omitempty"`
	BasedOnPresentDays bool             `json:"based_on_present_days"`
	MinAmount          *decimal.Decimal `json:"min_amount,omitempty"`
	MaxAmount          *decimal.Decimal `json:"max_amount,omitempty"`
}

// DepartmentRule overrides the global rule for a department, optionally narrowed to one division.
type DepartmentRule struct {
	DepartmentID string  `json:"department_id"`
	DivisionID   *string `json:"division_id,omitempty"`
	Rule
}

// Definition is an allowance/deduction master.
type Definition struct {
	ID              string           `json:"id"`
	Name            string           `json:"name"`
	Category        Category         `json:"category"`
	Description     *string          `json:"description,omitempty"`
	IsActive        bool             `json:"is_active"`
	GlobalRule      *Rule            `json:"global_rule,omitempty"`
	DepartmentRules []DepartmentRule `json:"department_rules"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// Resolved is a definition collapsed to the single rule applying to one department/division.
type Resolved struct {
	DefinitionID string   `json:"definition_id"`
	Name         string   `json:"name"`
	Category     Category `json:"category"`
	Scope        Scope    `json:"scope"`
	Rule         Rule     `json:"rule"`
}
