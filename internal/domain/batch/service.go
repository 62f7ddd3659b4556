package batch

import "context"

type BatchService interface {
	CreateBatch(ctx context.Context, req CreateBatchRequest) (Batch, error)
	GetBatch(ctx context.Context, id string) (Batch, error)
	ListBatches(ctx context.Context, filter Filter) ([]Batch, error)
	ValidateBatch(ctx context.Context, id string) (ValidationReport, error)
	ChangeStatus(ctx context.Context, req ChangeStatusRequest) (Batch, error)

	RequestRecalculationPermission(ctx context.Context, req PermissionRequest) (Batch, error)
	GrantRecalculationPermission(ctx context.Context, req PermissionRequest) (Batch, error)
	RevokeRecalculationPermission(ctx context.Context, id string) (Batch, error)

	RecalculateBatch(ctx context.Context, req RecalculateRequest) (RecalculationResult, error)
	RollbackBatch(ctx context.Context, req RollbackRequest) (Batch, error)

	// SweepExpiredPermissions revokes permissions past their expiry and returns how many were revoked.
	SweepExpiredPermissions(ctx context.Context) (int, error)
}
