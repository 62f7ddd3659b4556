package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/rule"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/settings"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/cache"
)

const (
	rulesCachePrefix    = "rules:"
	settingsCachePrefix = "settings:"

	MinCacheTTL = 5 * time.Minute
	MaxCacheTTL = 10 * time.Minute
)

// RuleResolver loads active allowance/deduction masters and effective settings for a
// department/division through a read-through cache.
type RuleResolver struct {
	ruleRepo     rule.RuleRepository
	settingsRepo settings.SettingsRepository
	cache        cache.Cache
	ttl          time.Duration
}

func NewRuleResolver(ruleRepo rule.RuleRepository, settingsRepo settings.SettingsRepository, c cache.Cache, ttl time.Duration) *RuleResolver {
	if c == nil {
		c = cache.NewNopCache()
	}
	return &RuleResolver{
		ruleRepo:     ruleRepo,
		settingsRepo: settingsRepo,
		cache:        c,
		ttl:          ClampTTL(ttl),
	}
}

// ClampTTL keeps the cache TTL within [MinCacheTTL, MaxCacheTTL].
func ClampTTL(ttl time.Duration) time.Duration {
	if ttl < MinCacheTTL {
		return MinCacheTTL
	}
	if ttl > MaxCacheTTL {
		return MaxCacheTTL
	}
	return ttl
}

func scopeKey(departmentID string, divisionID *string) string {
	div := "-"
	if divisionID != nil && *divisionID != "" {
		div = *divisionID
	}
	return departmentID + ":" + div
}

func rulesKey(category rule.Category, departmentID string, divisionID *string) string {
	return rulesCachePrefix + string(category) + ":" + scopeKey(departmentID, divisionID)
}

func settingsKey(departmentID string, divisionID *string) string {
	return settingsCachePrefix + scopeKey(departmentID, divisionID)
}

// ResolveRules returns the rule of every active definition of category that applies
// to the department/division, in definition order.
func (r *RuleResolver) ResolveRules(ctx context.Context, category rule.Category, departmentID string, divisionID *string) ([]rule.Resolved, error) {
	key := rulesKey(category, departmentID, divisionID)

	var cached []rule.Resolved
	if ok, err := r.cache.Get(ctx, key, &cached); err != nil {
		slog.Warn("rule cache read failed", "key", key, "error", err)
	} else if ok {
		return cached, nil
	}

	defs, err := r.ruleRepo.List(ctx, &category, true)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s definitions: %w", category, err)
	}
	resolved := rule.ResolveAll(defs, departmentID, divisionID)

	if err := r.cache.Set(ctx, key, resolved, r.ttl); err != nil {
		slog.Warn("rule cache write failed", "key", key, "error", err)
	}
	return resolved, nil
}

// ResolveSettings merges division, department and global settings field by field.
func (r *RuleResolver) ResolveSettings(ctx context.Context, departmentID string, divisionID *string) (settings.Effective, error) {
	key := settingsKey(departmentID, divisionID)

	var cached settings.Effective
	if ok, err := r.cache.Get(ctx, key, &cached); err != nil {
		slog.Warn("settings cache read failed", "key", key, "error", err)
	} else if ok {
		return cached, nil
	}

	global, err := optional(r.settingsRepo.GetGlobal(ctx))
	if err != nil {
		return settings.Effective{}, err
	}
	department, err := optional(r.settingsRepo.GetDepartment(ctx, departmentID, nil))
	if err != nil {
		return settings.Effective{}, err
	}
	var division *settings.Settings
	if divisionID != nil && *divisionID != "" {
		division, err = optional(r.settingsRepo.GetDepartment(ctx, departmentID, divisionID))
		if err != nil {
			return settings.Effective{}, err
		}
	}

	effective := settings.Resolve(global, department, division)
	if err := r.cache.Set(ctx, key, effective, r.ttl); err != nil {
		slog.Warn("settings cache write failed", "key", key, "error", err)
	}
	return effective, nil
}

// InvalidateRules drops every cached rule resolution.
func (r *RuleResolver) InvalidateRules(ctx context.Context) {
	if err := r.cache.Invalidate(ctx, rulesCachePrefix); err != nil {
		slog.Error("failed to invalidate rule cache", "error", err)
	}
}

// InvalidateSettings drops every cached settings resolution. A department write affects
// all of its divisions and a global write affects everything, so the whole prefix goes.
func (r *RuleResolver) InvalidateSettings(ctx context.Context) {
	if err := r.cache.Invalidate(ctx, settingsCachePrefix); err != nil {
		slog.Error("failed to invalidate settings cache", "error", err)
	}
}

func optional(s settings.Settings, err error) (*settings.Settings, error) {
	if err != nil {
		if errors.Is(err, settings.ErrSettingsNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}
