package rule

import (
	"errors"
	"testing"

	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/apperror"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amount(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func strPtr(s string) *string { return &s }

func hraDefinition() Definition {
	return Definition{
		ID:         "hra",
		Name:       "HRA",
		Category:   CategoryAllowance,
		IsActive:   true,
		GlobalRule: &Rule{Type: TypeFixed, Amount: amount(1000)},
		DepartmentRules: []DepartmentRule{
			{DepartmentID: "ops", Rule: Rule{Type: TypeFixed, Amount: amount(1500)}},
			{DepartmentID: "ops", DivisionID: strPtr("north"), Rule: Rule{Type: TypeFixed, Amount: amount(2000)}},
		},
	}
}

func TestResolve_Priority(t *testing.T) {
	def := hraDefinition()

	got := Resolve(&def, "ops", strPtr("north"))
	require.NotNil(t, got)
	assert.Equal(t, ScopeDivision, got.Scope)
	assert.True(t, decimal.NewFromInt(2000).Equal(*got.Rule.Amount))

	got = Resolve(&def, "ops", strPtr("south"))
	require.NotNil(t, got)
	assert.Equal(t, ScopeDepartment, got.Scope)
	assert.True(t, decimal.NewFromInt(1500).Equal(*got.Rule.Amount))

	got = Resolve(&def, "ops", nil)
	require.NotNil(t, got)
	assert.Equal(t, ScopeDepartment, got.Scope)

	got = Resolve(&def, "finance", strPtr("north"))
	require.NotNil(t, got)
	assert.Equal(t, ScopeGlobal, got.Scope)
	assert.True(t, decimal.NewFromInt(1000).Equal(*got.Rule.Amount))
}

func TestResolve_DivisionRuleIgnoresOtherDepartments(t *testing.T) {
	def := hraDefinition()
	def.DepartmentRules = []DepartmentRule{
		{DepartmentID: "ops", DivisionID: strPtr("north"), Rule: Rule{Type: TypeFixed, Amount: amount(2000)}},
	}

	got := Resolve(&def, "finance", strPtr("north"))
	require.NotNil(t, got)
	assert.Equal(t, ScopeGlobal, got.Scope)
}

func TestResolve_NilCases(t *testing.T) {
	assert.Nil(t, Resolve(nil, "ops", nil))

	inactive := hraDefinition()
	inactive.IsActive = false
	assert.Nil(t, Resolve(&inactive, "ops", nil))

	noGlobal := hraDefinition()
	noGlobal.GlobalRule = nil
	assert.Nil(t, Resolve(&noGlobal, "finance", nil))
}

func TestResolveAll_SkipsUnresolved(t *testing.T) {
	withGlobal := hraDefinition()
	onlyOps := Definition{
		ID: "transport", Name: "Transport", Category: CategoryAllowance, IsActive: true,
		DepartmentRules: []DepartmentRule{{DepartmentID: "ops", Rule: Rule{Type: TypeFixed, Amount: amount(300)}}},
	}

	got := ResolveAll([]Definition{withGlobal, onlyOps}, "finance", nil)
	require.Len(t, got, 1)
	assert.Equal(t, "hra", got[0].DefinitionID)

	got = ResolveAll([]Definition{withGlobal, onlyOps}, "ops", nil)
	assert.Len(t, got, 2)
}

func TestDefinitionValidate_Valid(t *testing.T) {
	def := hraDefinition()
	def.DepartmentRules = append(def.DepartmentRules, DepartmentRule{
		DepartmentID: "finance",
		Rule:         Rule{Type: TypePercentage, Percentage: amount(10), PercentageBase: PercentageBaseBasic, MinAmount: amount(100), MaxAmount: amount(500)},
	})
	assert.NoError(t, def.Validate())
}

func TestDefinitionValidate_Invariants(t *testing.T) {
	cases := []struct {
		name  string
		rule  Rule
		field string
	}{
		{"fixed without amount", Rule{Type: TypeFixed}, "global_rule.amount"},
		{"fixed with percentage", Rule{Type: TypeFixed, Amount: amount(1), Percentage: amount(5)}, "global_rule.percentage"},
		{"percentage without base", Rule{Type: TypePercentage, Percentage: amount(5)}, "global_rule.percentage_base"},
		{"percentage with amount", Rule{Type: TypePercentage, Percentage: amount(5), PercentageBase: PercentageBaseGross, Amount: amount(1)}, "global_rule.amount"},
		{"min above max", Rule{Type: TypeFixed, Amount: amount(1), MinAmount: amount(10), MaxAmount: amount(5)}, "global_rule.min_amount"},
		{"unknown type", Rule{Type: "tiered"}, "global_rule.type"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			def := Definition{Name: "X", Category: CategoryDeduction, IsActive: true, GlobalRule: &tc.rule}
			err := def.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, apperror.ErrValidation))

			var verrs validator.ValidationErrors
			require.True(t, errors.As(err, &verrs))
			assert.Contains(t, verrs.ToMap(), tc.field)
		})
	}
}

func TestDefinitionValidate_DuplicateDepartmentPair(t *testing.T) {
	def := hraDefinition()
	def.DepartmentRules = append(def.DepartmentRules, DepartmentRule{
		DepartmentID: "ops", DivisionID: strPtr("north"), Rule: Rule{Type: TypeFixed, Amount: amount(10)},
	})

	err := def.Validate()
	require.Error(t, err)
	var verrs validator.ValidationErrors
	require.True(t, errors.As(err, &verrs))
	assert.Contains(t, verrs.ToMap(), "department_rules[2]")
}

func TestSaveDefinitionRequest_DefaultsActive(t *testing.T) {
	req := SaveDefinitionRequest{Name: "HRA", Category: CategoryAllowance, GlobalRule: &Rule{Type: TypeFixed, Amount: amount(1000)}}

	def, err := req.ToDefinition("id-1")
	require.NoError(t, err)
	assert.True(t, def.IsActive)
	assert.Equal(t, "id-1", def.ID)
	assert.NotNil(t, def.DepartmentRules)
}
