package rule

import "github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"

type SaveDefinitionRequest struct {
	Name            string           `json:"name"`
	Category        Category         `json:"category"`
	Description     *string          `json:"description,omitempty"`
	IsActive        *bool            `json:"is_active,omitempty"`
	GlobalRule      *Rule            `json:"global_rule,omitempty"`
	DepartmentRules []DepartmentRule `json:"department_rules"`
}

// ToDefinition builds the definition and validates it.
func (r *SaveDefinitionRequest) ToDefinition(id string) (Definition, error) {
	active := true
	if r.IsActive != nil {
		active = *r.IsActive
	}
	def := Definition{
		ID:              id,
		Name:            r.Name,
		Category:        r.Category,
		Description:     r.Description,
		IsActive:        active,
		GlobalRule:      r.GlobalRule,
		DepartmentRules: r.DepartmentRules,
	}
	if def.DepartmentRules == nil {
		def.DepartmentRules = []DepartmentRule{}
	}
	if err := def.Validate(); err != nil {
		return Definition{}, err
	}
	return def, nil
}

type ListDefinitionsQuery struct {
	Category   *Category
	ActiveOnly bool
}

func (q *ListDefinitionsQuery) Validate() error {
	if q.Category != nil && !q.Category.IsValid() {
		return validator.ValidationErrors{{Field: "category", Message: "must be allowance or deduction"}}
	}
	return nil
}
