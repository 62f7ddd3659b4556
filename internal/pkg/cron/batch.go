package cron

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/batch"
)

// BatchJobs contains payroll batch housekeeping jobs
type BatchJobs struct {
	batchService  batch.BatchService
	sweepInterval time.Duration
}

func NewBatchJobs(batchService batch.BatchService, sweepInterval time.Duration) *BatchJobs {
	return &BatchJobs{
		batchService:  batchService,
		sweepInterval: sweepInterval,
	}
}

func (j *BatchJobs) RegisterJobs(scheduler *Scheduler) {
	scheduler.AddJob("revoke_expired_recalculation_permissions", j.sweepInterval, j.RevokeExpiredPermissions)
}

// RevokeExpiredPermissions clears granted recalculation permissions past their expiry.
// Expired permissions are already rejected on use; this keeps the stored state honest.
func (j *BatchJobs) RevokeExpiredPermissions(ctx context.Context) error {
	revoked, err := j.batchService.SweepExpiredPermissions(ctx)
	if err != nil {
		return fmt.Errorf("failed to sweep expired recalculation permissions: %w", err)
	}

	if revoked > 0 {
		slog.Info("Cron: Revoked expired recalculation permissions", "count", revoked)
	}
	return nil
}
