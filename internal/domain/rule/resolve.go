package rule

// Resolve picks the rule of def that applies to departmentID/divisionID:
// a division+department override, then a department-only override, then the global rule.
// It returns nil when def is nil, inactive, or has nothing applicable.
func Resolve(def *Definition, departmentID string, divisionID *string) *Resolved {
	if def == nil || !def.IsActive {
		return nil
	}

	if divisionID != nil && *divisionID != "" {
		for _, dr := range def.DepartmentRules {
			if dr.DepartmentID == departmentID && dr.DivisionID != nil && *dr.DivisionID == *divisionID {
				return def.resolved(dr.Rule, ScopeDivision)
			}
		}
	}

	for _, dr := range def.DepartmentRules {
		if dr.DepartmentID == departmentID && (dr.DivisionID == nil || *dr.DivisionID == "") {
			return def.resolved(dr.Rule, ScopeDepartment)
		}
	}

	if def.GlobalRule != nil {
		return def.resolved(*def.GlobalRule, ScopeGlobal)
	}
	return nil
}

// ResolveAll resolves every definition, skipping those with no applicable rule.
func ResolveAll(defs []Definition, departmentID string, divisionID *string) []Resolved {
	out := make([]Resolved, 0, len(defs))
	for i := range defs {
		if r := Resolve(&defs[i], departmentID, divisionID); r != nil {
			out = append(out, *r)
		}
	}
	return out
}

func (d *Definition) resolved(r Rule, scope Scope) *Resolved {
	return &Resolved{
		DefinitionID: d.ID,
		Name:         d.Name,
		Category:     d.Category,
		Scope:        scope,
		Rule:         r,
	}
}
