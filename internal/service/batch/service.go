package batch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/batch"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/apperror"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	"github.com/google/uuid"
)

type BatchServiceImpl struct {
	tx             database.Transactor
	batchRepo      batch.BatchRepository
	payrollRepo    payroll.PayrollRepository
	employeeRepo   employee.EmployeeRepository
	payrollService payroll.PayrollService
	expiryHours    int
	now            func() time.Time
}

func NewBatchService(
	tx database.Transactor,
	batchRepo batch.BatchRepository,
	payrollRepo payroll.PayrollRepository,
	employeeRepo employee.EmployeeRepository,
	payrollService payroll.PayrollService,
	expiryHours int,
) batch.BatchService {
	if expiryHours <= 0 {
		expiryHours = batch.DefaultRecalculationExpiryHours
	}
	return &BatchServiceImpl{
		tx:             tx,
		batchRepo:      batchRepo,
		payrollRepo:    payrollRepo,
		employeeRepo:   employeeRepo,
		payrollService: payrollService,
		expiryHours:    expiryHours,
		now:            time.Now,
	}
}

// ========== BATCHES ==========

func (s *BatchServiceImpl) CreateBatch(ctx context.Context, req batch.CreateBatchRequest) (batch.Batch, error) {
	if err := req.Validate(); err != nil {
		return batch.Batch{}, err
	}

	_, err := s.batchRepo.GetByKey(ctx, req.Key())
	if err == nil {
		return batch.Batch{}, batch.ErrBatchAlreadyExists
	}
	if !errors.Is(err, batch.ErrBatchNotFound) {
		return batch.Batch{}, err
	}

	return s.batchRepo.Create(ctx, batch.NewBatch(req.Key(), jwt.ActorOrSystem(ctx), s.now()))
}

func (s *BatchServiceImpl) GetBatch(ctx context.Context, id string) (batch.Batch, error) {
	if !validator.IsValidUUID(id) {
		return batch.Batch{}, batch.ErrBatchNotFound
	}
	return s.batchRepo.GetByID(ctx, id)
}

func (s *BatchServiceImpl) ListBatches(ctx context.Context, filter batch.Filter) ([]batch.Batch, error) {
	if filter.Month != nil && !validator.IsValidMonth(*filter.Month) {
		return nil, validator.ValidationErrors{{Field: "month", Message: "month must be in YYYY-MM format"}}
	}
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, validator.ValidationErrors{{Field: "status", Message: "unknown batch status"}}
	}
	return s.batchRepo.List(ctx, filter)
}

// ValidateBatch compares the department's active employees with the batch's members
// that hold a calculated, approved or processed record.
func (s *BatchServiceImpl) ValidateBatch(ctx context.Context, id string) (batch.ValidationReport, error) {
	b, err := s.GetBatch(ctx, id)
	if err != nil {
		return batch.ValidationReport{}, err
	}
	return s.coverage(ctx, b)
}

func (s *BatchServiceImpl) coverage(ctx context.Context, b batch.Batch) (batch.ValidationReport, error) {
	emps, err := s.employeeRepo.ListActiveByDepartment(ctx, b.DepartmentID, b.DivisionID)
	if err != nil {
		return batch.ValidationReport{}, err
	}
	records, err := s.payrollRepo.GetByIDs(ctx, b.EmployeePayrolls)
	if err != nil {
		return batch.ValidationReport{}, err
	}

	calculated := make(map[string]bool, len(records))
	for _, r := range records {
		switch r.Status {
		case payroll.RecordStatusCalculated, payroll.RecordStatusApproved, payroll.RecordStatusProcessed:
			calculated[r.EmployeeID] = true
		}
	}

	report := batch.ValidationReport{
		BatchID:            b.ID,
		ExpectedEmployees:  len(emps),
		MissingEmployeeIDs: []string{},
	}
	for _, e := range emps {
		if calculated[e.ID] {
			report.CalculatedCount++
			continue
		}
		report.MissingEmployeeIDs = append(report.MissingEmployeeIDs, e.ID)
	}
	report.IsComplete = len(report.MissingEmployeeIDs) == 0
	return report, nil
}

// ChangeStatus applies a batch transition and moves member records along with it:
// approved approves calculated records, pending sends approved records back to
// calculated, complete processes every member.
func (s *BatchServiceImpl) ChangeStatus(ctx context.Context, req batch.ChangeStatusRequest) (batch.Batch, error) {
	if err := req.Validate(); err != nil {
		return batch.Batch{}, err
	}
	b, err := s.GetBatch(ctx, req.ID)
	if err != nil {
		return batch.Batch{}, err
	}
	if !b.CanTransitionTo(req.Status) {
		return batch.Batch{}, &apperror.StateTransitionError{Entity: "payroll batch", From: string(b.Status), To: string(req.Status)}
	}

	if b.Status == batch.StatusPending && req.Status == batch.StatusApproved {
		report, err := s.coverage(ctx, b)
		if err != nil {
			return batch.Batch{}, err
		}
		if !report.IsComplete {
			return batch.Batch{}, &apperror.MissingEmployeesError{BatchID: b.ID, EmployeeIDs: report.MissingEmployeeIDs}
		}
	}

	now := s.now()
	if err := b.TransitionTo(req.Status, jwt.ActorOrSystem(ctx), req.Reason, now); err != nil {
		return batch.Batch{}, err
	}
	if req.Status == batch.StatusPending || req.Status == batch.StatusComplete {
		b.RevokeRecalculationPermission()
	}
	if err := s.batchRepo.Save(ctx, b); err != nil {
		return batch.Batch{}, err
	}

	s.syncMemberStatuses(ctx, b)

	slog.Info("payroll batch status changed", "batch_id", b.ID, "status", b.Status, "reason", req.Reason)
	return b, nil
}

func (s *BatchServiceImpl) syncMemberStatuses(ctx context.Context, b batch.Batch) {
	var steps map[payroll.RecordStatus][]payroll.RecordStatus
	switch b.Status {
	case batch.StatusApproved:
		steps = map[payroll.RecordStatus][]payroll.RecordStatus{
			payroll.RecordStatusCalculated: {payroll.RecordStatusApproved},
		}
	case batch.StatusPending:
		steps = map[payroll.RecordStatus][]payroll.RecordStatus{
			payroll.RecordStatusApproved: {payroll.RecordStatusCalculated},
		}
	case batch.StatusComplete:
		steps = map[payroll.RecordStatus][]payroll.RecordStatus{
			payroll.RecordStatusCalculated: {payroll.RecordStatusApproved, payroll.RecordStatusProcessed},
			payroll.RecordStatusApproved:   {payroll.RecordStatusProcessed},
		}
	default:
		return
	}

	records, err := s.payrollRepo.GetByIDs(ctx, b.EmployeePayrolls)
	if err != nil {
		slog.Error("failed to load batch members for status sync", "batch_id", b.ID, "error", err)
		return
	}
	for _, r := range records {
		for _, next := range steps[r.Status] {
			_, err := s.payrollService.UpdateRecordStatus(ctx, payroll.UpdateRecordStatusRequest{ID: r.ID, Status: next})
			if err != nil {
				slog.Error("failed to sync payroll record status", "batch_id", b.ID, "record_id", r.ID, "status", next, "error", err)
				break
			}
		}
	}
}

// ========== RECALCULATION PERMISSION ==========

func (s *BatchServiceImpl) RequestRecalculationPermission(ctx context.Context, req batch.PermissionRequest) (batch.Batch, error) {
	if err := req.Validate(); err != nil {
		return batch.Batch{}, err
	}
	b, err := s.GetBatch(ctx, req.ID)
	if err != nil {
		return batch.Batch{}, err
	}

	if err := b.RequestRecalculationPermission(jwt.ActorOrSystem(ctx), req.Reason, s.now()); err != nil {
		return batch.Batch{}, err
	}
	if err := s.batchRepo.Save(ctx, b); err != nil {
		return batch.Batch{}, err
	}
	return b, nil
}

func (s *BatchServiceImpl) GrantRecalculationPermission(ctx context.Context, req batch.PermissionRequest) (batch.Batch, error) {
	if err := req.Validate(); err != nil {
		return batch.Batch{}, err
	}
	b, err := s.GetBatch(ctx, req.ID)
	if err != nil {
		return batch.Batch{}, err
	}

	expiry := req.ExpiryHours
	if expiry == 0 {
		expiry = s.expiryHours
	}
	if err := b.GrantRecalculationPermission(jwt.ActorOrSystem(ctx), req.Reason, expiry, s.now()); err != nil {
		return batch.Batch{}, err
	}
	if err := s.batchRepo.Save(ctx, b); err != nil {
		return batch.Batch{}, err
	}

	slog.Info("recalculation permission granted", "batch_id", b.ID, "expires_at", b.RecalculationPermission.ExpiresAt)
	return b, nil
}

func (s *BatchServiceImpl) RevokeRecalculationPermission(ctx context.Context, id string) (batch.Batch, error) {
	b, err := s.GetBatch(ctx, id)
	if err != nil {
		return batch.Batch{}, err
	}
	b.RevokeRecalculationPermission()
	b.UpdatedAt = s.now()
	if err := s.batchRepo.Save(ctx, b); err != nil {
		return batch.Batch{}, err
	}
	return b, nil
}

// SweepExpiredPermissions clears granted permissions whose window has closed.
func (s *BatchServiceImpl) SweepExpiredPermissions(ctx context.Context) (int, error) {
	now := s.now()
	expired, err := s.batchRepo.ListExpiredPermissions(ctx, now)
	if err != nil {
		return 0, err
	}

	revoked := 0
	for _, b := range expired {
		b.RevokeRecalculationPermission()
		b.UpdatedAt = now
		if err := s.batchRepo.Save(ctx, b); err != nil {
			slog.Error("failed to revoke expired recalculation permission", "batch_id", b.ID, "error", err)
			continue
		}
		revoked++
	}
	return revoked, nil
}

// ========== RECALCULATION & ROLLBACK ==========

// RecalculateBatch snapshots the batch, re-runs the calculation for every member and
// records the outcome in the batch history. A locked batch needs a valid permission,
// which is consumed once all members have been processed. Without one, processed
// members are reported as failures and left untouched.
func (s *BatchServiceImpl) RecalculateBatch(ctx context.Context, req batch.RecalculateRequest) (batch.RecalculationResult, error) {
	b, err := s.GetBatch(ctx, req.ID)
	if err != nil {
		return batch.RecalculationResult{}, err
	}
	usesPermission, err := b.CheckMutable(s.now())
	if err != nil {
		return batch.RecalculationResult{}, err
	}

	records, err := s.payrollRepo.GetByIDs(ctx, b.EmployeePayrolls)
	if err != nil {
		return batch.RecalculationResult{}, err
	}

	entry := batch.HistoryEntry{
		ID:             uuid.Must(uuid.NewV7()).String(),
		Kind:           batch.HistoryKindRecalculation,
		Reason:         req.Reason,
		PerformedBy:    jwt.ActorOrSystem(ctx),
		PerformedAt:    s.now(),
		PreviousTotals: b.Totals,
		Snapshots:      snapshots(records),
		Errors:         []payroll.EmployeeError{},
	}

	result := batch.RecalculationResult{HistoryID: entry.ID, Errors: []payroll.EmployeeError{}}
	for _, r := range records {
		// Processed records only reopen under a granted permission.
		if r.Status == payroll.RecordStatusProcessed && !usesPermission {
			err := r.Status.ValidateTransition(payroll.RecordStatusCalculated)
			result.FailureCount++
			result.Errors = append(result.Errors, payroll.EmployeeError{EmployeeID: r.EmployeeID, Message: err.Error()})
			continue
		}
		if _, err := s.payrollService.RecalculateMember(ctx, b.ID, r.EmployeeID); err != nil {
			slog.Warn("batch member recalculation failed", "batch_id", b.ID, "employee_id", r.EmployeeID, "error", err)
			result.FailureCount++
			result.Errors = append(result.Errors, payroll.EmployeeError{EmployeeID: r.EmployeeID, Message: err.Error()})
			continue
		}
		result.SuccessCount++
	}
	entry.Errors = result.Errors

	// Member calculations updated the totals, so work on the stored batch.
	b, err = s.batchRepo.GetByID(ctx, b.ID)
	if err != nil {
		return batch.RecalculationResult{}, err
	}
	entry.ResultTotals = b.Totals
	b.RecalculationHistory = append(b.RecalculationHistory, entry)
	if usesPermission {
		b.RevokeRecalculationPermission()
	}
	b.UpdatedAt = s.now()
	if err := s.batchRepo.Save(ctx, b); err != nil {
		return batch.RecalculationResult{}, err
	}

	slog.Info("payroll batch recalculated",
		"batch_id", b.ID,
		"history_id", entry.ID,
		"success", result.SuccessCount,
		"failed", result.FailureCount,
	)
	result.Batch = b
	return result, nil
}

// RollbackBatch restores member records to a history entry's snapshots. The current
// state is snapshotted first into a rollback entry, so a rollback can be rolled back.
// Snapshots of records that are no longer members are skipped.
func (s *BatchServiceImpl) RollbackBatch(ctx context.Context, req batch.RollbackRequest) (batch.Batch, error) {
	if err := req.Validate(); err != nil {
		return batch.Batch{}, err
	}
	b, err := s.GetBatch(ctx, req.ID)
	if err != nil {
		return batch.Batch{}, err
	}
	if b.Status == batch.StatusComplete {
		return batch.Batch{}, batch.ErrRollbackNotAllowed
	}
	now := s.now()
	usesPermission, err := b.CheckMutable(now)
	if err != nil {
		return batch.Batch{}, err
	}
	target, err := b.FindHistory(req.HistoryID)
	if err != nil {
		return batch.Batch{}, err
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		records, err := s.payrollRepo.GetByIDs(ctx, b.EmployeePayrolls)
		if err != nil {
			return err
		}

		entry := batch.HistoryEntry{
			ID:             uuid.Must(uuid.NewV7()).String(),
			Kind:           batch.HistoryKindRollback,
			Reason:         req.Reason,
			PerformedBy:    jwt.ActorOrSystem(ctx),
			PerformedAt:    now,
			PreviousTotals: b.Totals,
			Snapshots:      snapshots(records),
			RolledBackFrom: &target.ID,
			Errors:         []payroll.EmployeeError{},
		}

		byID := make(map[string]int, len(records))
		for i, r := range records {
			byID[r.ID] = i
		}
		for _, snap := range target.Snapshots {
			i, ok := byID[snap.RecordID]
			if !ok {
				entry.Errors = append(entry.Errors, payroll.EmployeeError{EmployeeID: snap.EmployeeID, Message: "record is no longer a batch member"})
				continue
			}
			snap.RestoreInto(&records[i])
			records[i].UpdatedAt = now
			if _, err := s.payrollRepo.Upsert(ctx, records[i]); err != nil {
				return err
			}
		}

		b.Totals = batch.TotalsOf(records)
		entry.ResultTotals = b.Totals
		b.RecalculationHistory = append(b.RecalculationHistory, entry)
		if usesPermission {
			b.RevokeRecalculationPermission()
		}
		b.UpdatedAt = now
		return s.batchRepo.Save(ctx, b)
	})
	if err != nil {
		return batch.Batch{}, err
	}

	slog.Info("payroll batch rolled back", "batch_id", b.ID, "history_id", req.HistoryID)
	return b, nil
}

func snapshots(records []payroll.PayrollRecord) []batch.EmployeeSnapshot {
	out := make([]batch.EmployeeSnapshot, 0, len(records))
	for _, r := range records {
		out = append(out, batch.SnapshotOf(r))
	}
	return out
}
