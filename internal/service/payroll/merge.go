package payroll

import (
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/rule"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/utils"
)

// MergeWithOverrides applies employee overrides to the resolved base list.
//
// Overrides match a base entry by master id first, then by case-insensitive trimmed
// name. A matched override replaces the entry's amount. Overrides matching nothing are
// appended. With includeMissing false, base entries without an override are dropped.
// When several overrides resolve to the same identity only the first is used.
func MergeWithOverrides(base []payroll.LineItem, overrides []employee.ComponentOverride, includeMissing bool) []payroll.LineItem {
	byMaster := make(map[string]int, len(base))
	byName := make(map[string]int, len(base))
	for i, b := range base {
		if b.MasterID != nil && *b.MasterID != "" {
			if _, ok := byMaster[*b.MasterID]; !ok {
				byMaster[*b.MasterID] = i
			}
		}
		if key := employee.NameKey(b.Name); key != "" {
			if _, ok := byName[key]; !ok {
				byName[key] = i
			}
		}
	}

	matched := make(map[int]employee.ComponentOverride, len(overrides))
	var extra []employee.ComponentOverride
	seenExtra := make(map[string]bool)

	for _, o := range overrides {
		idx, ok := -1, false
		if o.MasterID != nil && *o.MasterID != "" {
			idx, ok = byMaster[*o.MasterID]
		}
		if !ok {
			idx, ok = byName[employee.NameKey(o.Name)]
		}
		if ok {
			if _, dup := matched[idx]; !dup {
				matched[idx] = o
			}
			continue
		}

		key := "name:" + employee.NameKey(o.Name)
		if o.MasterID != nil && *o.MasterID != "" {
			key = "master:" + *o.MasterID
		}
		if seenExtra[key] {
			continue
		}
		seenExtra[key] = true
		extra = append(extra, o)
	}

	out := make([]payroll.LineItem, 0, len(base)+len(extra))
	for i, b := range base {
		o, ok := matched[i]
		if !ok {
			if includeMissing {
				out = append(out, b)
			}
			continue
		}
		b.Amount = utils.Round2(o.Amount)
		b.Source = payroll.LineSourceEmployee
		b.IsOverride = true
		out = append(out, b)
	}
	for _, o := range extra {
		out = append(out, payroll.LineItem{
			MasterID:   o.MasterID,
			Name:       o.Name,
			Amount:     utils.Round2(o.Amount),
			Type:       rule.TypeFixed,
			Source:     payroll.LineSourceEmployee,
			IsOverride: true,
		})
	}
	return out
}
