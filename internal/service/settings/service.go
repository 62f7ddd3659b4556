package settings

import (
	"context"
	"errors"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/rule"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/settings"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/google/uuid"
)

type SettingsServiceImpl struct {
	ruleRepo     rule.RuleRepository
	settingsRepo settings.SettingsRepository
	resolver     *RuleResolver
	now          func() time.Time
}

func NewSettingsService(
	ruleRepo rule.RuleRepository,
	settingsRepo settings.SettingsRepository,
	resolver *RuleResolver,
) settings.SettingsService {
	return &SettingsServiceImpl{
		ruleRepo:     ruleRepo,
		settingsRepo: settingsRepo,
		resolver:     resolver,
		now:          time.Now,
	}
}

// ========== RULES ==========

func (s *SettingsServiceImpl) CreateRule(ctx context.Context, req rule.SaveDefinitionRequest) (rule.Definition, error) {
	def, err := req.ToDefinition(uuid.Must(uuid.NewV7()).String())
	if err != nil {
		return rule.Definition{}, err
	}
	now := s.now()
	def.CreatedAt = now
	def.UpdatedAt = now

	created, err := s.ruleRepo.Create(ctx, def)
	if err != nil {
		return rule.Definition{}, err
	}
	s.resolver.InvalidateRules(ctx)
	return created, nil
}

func (s *SettingsServiceImpl) UpdateRule(ctx context.Context, id string, req rule.SaveDefinitionRequest) (rule.Definition, error) {
	existing, err := s.ruleRepo.GetByID(ctx, id)
	if err != nil {
		return rule.Definition{}, err
	}

	def, err := req.ToDefinition(id)
	if err != nil {
		return rule.Definition{}, err
	}
	def.CreatedAt = existing.CreatedAt
	def.UpdatedAt = s.now()

	updated, err := s.ruleRepo.Update(ctx, def)
	if err != nil {
		return rule.Definition{}, err
	}
	s.resolver.InvalidateRules(ctx)
	return updated, nil
}

func (s *SettingsServiceImpl) GetRule(ctx context.Context, id string) (rule.Definition, error) {
	if !validator.IsValidUUID(id) {
		return rule.Definition{}, rule.ErrDefinitionNotFound
	}
	return s.ruleRepo.GetByID(ctx, id)
}

func (s *SettingsServiceImpl) ListRules(ctx context.Context, query rule.ListDefinitionsQuery) ([]rule.Definition, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	return s.ruleRepo.List(ctx, query.Category, query.ActiveOnly)
}

// ========== SETTINGS ==========

func (s *SettingsServiceImpl) GetGlobalSettings(ctx context.Context) (settings.Settings, error) {
	return s.settingsRepo.GetGlobal(ctx)
}

func (s *SettingsServiceImpl) UpsertGlobalSettings(ctx context.Context, req settings.UpdateSettingsRequest) (settings.Settings, error) {
	if err := req.Validate(); err != nil {
		return settings.Settings{}, err
	}

	current, err := s.settingsRepo.GetGlobal(ctx)
	if err != nil && !errors.Is(err, settings.ErrSettingsNotFound) {
		return settings.Settings{}, err
	}
	return s.save(ctx, current, req)
}

func (s *SettingsServiceImpl) GetDepartmentSettings(ctx context.Context, departmentID string, divisionID *string) (settings.Settings, error) {
	return s.settingsRepo.GetDepartment(ctx, departmentID, divisionID)
}

func (s *SettingsServiceImpl) UpsertDepartmentSettings(ctx context.Context, departmentID string, divisionID *string, req settings.UpdateSettingsRequest) (settings.Settings, error) {
	if validator.IsEmpty(departmentID) {
		return settings.Settings{}, validator.ValidationErrors{{Field: "department_id", Message: "department_id is required"}}
	}
	if err := req.Validate(); err != nil {
		return settings.Settings{}, err
	}

	current, err := s.settingsRepo.GetDepartment(ctx, departmentID, divisionID)
	if err != nil && !errors.Is(err, settings.ErrSettingsNotFound) {
		return settings.Settings{}, err
	}
	current.DepartmentID = &departmentID
	current.DivisionID = divisionID
	return s.save(ctx, current, req)
}

func (s *SettingsServiceImpl) GetEffectiveSettings(ctx context.Context, departmentID string, divisionID *string) (settings.Effective, error) {
	return s.resolver.ResolveSettings(ctx, departmentID, divisionID)
}

func (s *SettingsServiceImpl) save(ctx context.Context, current settings.Settings, req settings.UpdateSettingsRequest) (settings.Settings, error) {
	now := s.now()
	if current.ID == "" {
		current.ID = uuid.Must(uuid.NewV7()).String()
		current.CreatedAt = now
	}
	current = req.Apply(current)
	current.UpdatedAt = now
	if actor := jwt.ActorFromContext(ctx); actor != nil {
		current.UpdatedBy = actor
	}

	saved, err := s.settingsRepo.Upsert(ctx, current)
	if err != nil {
		return settings.Settings{}, err
	}
	s.resolver.InvalidateSettings(ctx)
	return saved, nil
}
