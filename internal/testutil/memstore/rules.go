package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/rule"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/settings"
)

var (
	_ rule.RuleRepository         = (*Rules)(nil)
	_ settings.SettingsRepository = (*Settings)(nil)
)

type Rules struct {
	mu    sync.RWMutex
	rows  map[string]rule.Definition
	order []string
	// Lists counts List calls, so tests can observe cache hits.
	Lists int
}

func NewRules(defs ...rule.Definition) *Rules {
	s := &Rules{rows: make(map[string]rule.Definition)}
	for _, d := range defs {
		s.rows[d.ID] = clone(d)
		s.order = append(s.order, d.ID)
	}
	return s
}

func (s *Rules) GetByID(_ context.Context, id string) (rule.Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.rows[id]
	if !ok {
		return rule.Definition{}, rule.ErrDefinitionNotFound
	}
	return clone(d), nil
}

// List returns definitions in insertion order.
func (s *Rules) List(_ context.Context, category *rule.Category, activeOnly bool) ([]rule.Definition, error) {
	s.mu.Lock()
	s.Lists++
	s.mu.Unlock()

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []rule.Definition{}
	for _, id := range s.order {
		d := s.rows[id]
		if category != nil && d.Category != *category {
			continue
		}
		if activeOnly && !d.IsActive {
			continue
		}
		out = append(out, clone(d))
	}
	return out, nil
}

func (s *Rules) Create(_ context.Context, def rule.Definition) (rule.Definition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[def.ID] = clone(def)
	s.order = append(s.order, def.ID)
	return clone(def), nil
}

func (s *Rules) Update(_ context.Context, def rule.Definition) (rule.Definition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[def.ID]; !ok {
		return rule.Definition{}, rule.ErrDefinitionNotFound
	}
	s.rows[def.ID] = clone(def)
	return clone(def), nil
}

type Settings struct {
	mu   sync.RWMutex
	rows map[string]settings.Settings
}

func NewSettings(rows ...settings.Settings) *Settings {
	s := &Settings{rows: make(map[string]settings.Settings)}
	for _, r := range rows {
		s.rows[settingsScope(r.DepartmentID, r.DivisionID)] = clone(r)
	}
	return s
}

func settingsScope(departmentID, divisionID *string) string {
	return divisionOf(departmentID) + "|" + divisionOf(divisionID)
}

func (s *Settings) GetGlobal(_ context.Context) (settings.Settings, error) {
	return s.get(settingsScope(nil, nil))
}

func (s *Settings) GetDepartment(_ context.Context, departmentID string, divisionID *string) (settings.Settings, error) {
	return s.get(settingsScope(&departmentID, divisionID))
}

func (s *Settings) get(key string) (settings.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rows[key]
	if !ok {
		return settings.Settings{}, settings.ErrSettingsNotFound
	}
	return clone(r), nil
}

func (s *Settings) Upsert(_ context.Context, r settings.Settings) (settings.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows[settingsScope(r.DepartmentID, r.DivisionID)] = clone(r)
	return clone(r), nil
}

// Scopes lists stored scopes as "department|division", for assertions.
func (s *Settings) Scopes() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.rows))
	for k := range s.rows {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
