package batch

import (
	"context"
	"time"
)

type BatchRepository interface {
	GetByID(ctx context.Context, id string) (Batch, error)
	// GetByKey returns ErrBatchNotFound when the department/month has no batch yet.
	GetByKey(ctx context.Context, key Key) (Batch, error)
	List(ctx context.Context, filter Filter) ([]Batch, error)
	// ListExpiredPermissions returns batches holding a granted permission that expired before now.
	ListExpiredPermissions(ctx context.Context, now time.Time) ([]Batch, error)
	Create(ctx context.Context, b Batch) (Batch, error)
	// Save replaces the whole batch document.
	Save(ctx context.Context, b Batch) error
}
