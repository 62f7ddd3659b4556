package cache

import (
	"context"
	"time"
)

// Cache is a read-through store for resolved payroll rules and settings.
// Values are JSON encoded; Get reports whether the key was present.
type Cache interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Invalidate(ctx context.Context, prefix string) error
}

type nopCache struct{}

// NewNopCache returns a cache that never stores anything. Used when Redis is not configured.
func NewNopCache() Cache {
	return nopCache{}
}

func (nopCache) Get(context.Context, string, any) (bool, error) { return false, nil }
func (nopCache) Set(context.Context, string, any, time.Duration) error { return nil }
func (nopCache) Invalidate(context.Context, string) error { return nil }
