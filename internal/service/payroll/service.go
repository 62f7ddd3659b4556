package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/batch"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/loan"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/rule"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/settings"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/apperror"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
)

// PolicyResolver supplies the rules and settings that apply to a department/division.
type PolicyResolver interface {
	ResolveRules(ctx context.Context, category rule.Category, departmentID string, divisionID *string) ([]rule.Resolved, error)
	ResolveSettings(ctx context.Context, departmentID string, divisionID *string) (settings.Effective, error)
}

type PayrollServiceImpl struct {
	tx             database.Transactor
	payrollRepo    payroll.PayrollRepository
	batchRepo      batch.BatchRepository
	employeeRepo   employee.EmployeeRepository
	attendanceRepo attendance.AttendanceRepository
	loanRepo       loan.LoanRepository
	arrearsRepo    payroll.ArrearsRepository
	txnLogRepo     payroll.TransactionLogRepository
	resolver       PolicyResolver
	now            func() time.Time
}

func NewPayrollService(
	tx database.Transactor,
	payrollRepo payroll.PayrollRepository,
	batchRepo batch.BatchRepository,
	employeeRepo employee.EmployeeRepository,
	attendanceRepo attendance.AttendanceRepository,
	loanRepo loan.LoanRepository,
	arrearsRepo payroll.ArrearsRepository,
	txnLogRepo payroll.TransactionLogRepository,
	resolver PolicyResolver,
) payroll.PayrollService {
	return &PayrollServiceImpl{
		tx:             tx,
		payrollRepo:    payrollRepo,
		batchRepo:      batchRepo,
		employeeRepo:   employeeRepo,
		attendanceRepo: attendanceRepo,
		loanRepo:       loanRepo,
		arrearsRepo:    arrearsRepo,
		txnLogRepo:     txnLogRepo,
		resolver:       resolver,
		now:            time.Now,
	}
}

// lockMode decides how a calculation treats the batch lock.
type lockMode int

const (
	// lockCheck fails on a locked batch unless a valid permission exists, and
	// consumes that permission.
	lockCheck lockMode = iota
	// lockHeldByCaller skips the check; the batch service owns the permission.
	lockHeldByCaller
)

// ========== CALCULATION ==========

func (s *PayrollServiceImpl) CalculateEmployee(ctx context.Context, req payroll.CalculatePayrollRequest) (payroll.PayrollRecord, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayrollRecord{}, err
	}
	return s.calculate(ctx, req.EmployeeID, req.Month, req.PayBase, lockCheck)
}

func (s *PayrollServiceImpl) RecalculateMember(ctx context.Context, batchID string, employeeID string) (payroll.PayrollRecord, error) {
	b, err := s.batchRepo.GetByID(ctx, batchID)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}
	return s.calculate(ctx, employeeID, b.Month, b.PayBase, lockHeldByCaller)
}

func (s *PayrollServiceImpl) calculate(ctx context.Context, employeeID, month string, payBase payroll.PayBase, mode lockMode) (payroll.PayrollRecord, error) {
	now := s.now()

	emp, err := s.employeeRepo.GetByID(ctx, employeeID)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}
	if !PayBaseAmount(emp, payBase).IsPositive() {
		return payroll.PayrollRecord{}, apperror.InvalidInput(payBase.FieldName(), "must be greater than zero")
	}

	summary, err := s.loadAttendance(ctx, emp.ID, month)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}

	eff, err := s.resolver.ResolveSettings(ctx, emp.DepartmentID, emp.DivisionID)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}

	key := batch.Key{DepartmentID: emp.DepartmentID, DivisionID: emp.DivisionID, Month: month, PayBase: payBase}
	b, batchExists, err := s.loadBatch(ctx, key)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}
	usesPermission := false
	if batchExists && mode == lockCheck {
		if usesPermission, err = b.CheckMutable(now); err != nil {
			return payroll.PayrollRecord{}, err
		}
	}

	prev, hasPrev, err := s.findRecord(ctx, emp.ID, month, payBase)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}
	if hasPrev && prev.Status == payroll.RecordStatusProcessed && mode == lockCheck && !usesPermission {
		return payroll.PayrollRecord{}, prev.Status.ValidateTransition(payroll.RecordStatusCalculated)
	}

	allowanceRules, err := s.resolver.ResolveRules(ctx, rule.CategoryAllowance, emp.DepartmentID, emp.DivisionID)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}
	deductionRules, err := s.resolver.ResolveRules(ctx, rule.CategoryDeduction, emp.DepartmentID, emp.DivisionID)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}
	loans, err := s.loadLoans(ctx, emp.ID)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}

	record, err := ComputeRecord(ComputeInput{
		Employee:       emp,
		Month:          month,
		PayBase:        payBase,
		Attendance:     summary,
		Settings:       eff,
		AllowanceRules: allowanceRules,
		DeductionRules: deductionRules,
		Loans:          loans,
		Arrears:        s.pendingArrears(ctx, emp.ID),
	})
	if err != nil {
		return payroll.PayrollRecord{}, err
	}

	actor := jwt.ActorFromContext(ctx)
	record.BatchID = &b.ID
	record.CalculationMetadata.PermissionUsed = usesPermission || mode == lockHeldByCaller
	record.CalculationMetadata.CalculatedBy = actor
	record.CalculationMetadata.CalculatedAt = now
	record.UpdatedAt = now
	record.CreatedAt = now
	if hasPrev {
		record.ID = prev.ID
		record.CreatedAt = prev.CreatedAt
	}

	saved, err := s.payrollRepo.Upsert(ctx, record)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}

	var prevFigures *payroll.Figures
	if hasPrev && prev.Status != payroll.RecordStatusCancelled {
		if prev.BatchID != nil && *prev.BatchID != b.ID {
			s.detachFromBatch(ctx, *prev.BatchID, prev)
		} else {
			f := prev.Figures()
			prevFigures = &f
		}
	}
	b.ApplyRecord(saved.ID, prevFigures, saved.Figures())
	if usesPermission {
		b.RevokeRecalculationPermission()
	}
	b.UpdatedAt = now
	batchID, err := s.persistBatch(ctx, b, batchExists, saved, prevFigures)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}
	saved.BatchID = &batchID

	if len(saved.SettledArrearIDs) > 0 {
		if err := s.arrearsRepo.MarkSettled(ctx, saved.SettledArrearIDs, saved.ID, month); err != nil {
			slog.Error("failed to settle arrears", "employee_id", emp.ID, "month", month, "record_id", saved.ID, "error", err)
		}
	}
	s.writeAuditLog(ctx, saved, actor)

	slog.Info("payroll calculated",
		"employee_id", emp.ID,
		"month", month,
		"pay_base", payBase,
		"record_id", saved.ID,
		"batch_id", batchID,
		"net_salary", saved.NetSalary.String(),
		"permission_used", usesPermission,
	)
	return saved, nil
}

// loadAttendance prefers the pay register and falls back to the monthly rollup.
func (s *PayrollServiceImpl) loadAttendance(ctx context.Context, employeeID, month string) (attendance.Summary, error) {
	pr, err := s.attendanceRepo.GetPayRegisterSummary(ctx, employeeID, month)
	if err == nil {
		return attendance.FromPayRegister(pr), nil
	}
	if !errors.Is(err, attendance.ErrAttendanceSummaryNotFound) {
		return attendance.Summary{}, err
	}

	m, err := s.attendanceRepo.GetMonthlySummary(ctx, employeeID, month)
	if err != nil {
		return attendance.Summary{}, err
	}
	return attendance.FromMonthlyAttendance(m), nil
}

// loadBatch returns the batch for key, or a new unsaved one.
func (s *PayrollServiceImpl) loadBatch(ctx context.Context, key batch.Key) (batch.Batch, bool, error) {
	b, err := s.batchRepo.GetByKey(ctx, key)
	if err == nil {
		return b, true, nil
	}
	if !errors.Is(err, batch.ErrBatchNotFound) {
		return batch.Batch{}, false, err
	}
	return batch.NewBatch(key, jwt.ActorOrSystem(ctx), s.now()), false, nil
}

// persistBatch saves b and returns the id of the batch holding the record. If another
// request created the batch first, the record is applied to that one instead.
func (s *PayrollServiceImpl) persistBatch(ctx context.Context, b batch.Batch, exists bool, saved payroll.PayrollRecord, prevFigures *payroll.Figures) (string, error) {
	if exists {
		return b.ID, s.batchRepo.Save(ctx, b)
	}

	_, err := s.batchRepo.Create(ctx, b)
	if err == nil {
		return b.ID, nil
	}
	if !errors.Is(err, batch.ErrBatchAlreadyExists) {
		return "", err
	}

	existing, err := s.batchRepo.GetByKey(ctx, b.Key())
	if err != nil {
		return "", err
	}
	existing.ApplyRecord(saved.ID, prevFigures, saved.Figures())
	existing.UpdatedAt = s.now()
	if err := s.batchRepo.Save(ctx, existing); err != nil {
		return "", err
	}
	saved.BatchID = &existing.ID
	if _, err := s.payrollRepo.Upsert(ctx, saved); err != nil {
		return "", fmt.Errorf("failed to relink payroll record to batch: %w", err)
	}
	return existing.ID, nil
}

// detachFromBatch removes a record from the batch it belonged to before the employee
// moved department. Failures are logged.
func (s *PayrollServiceImpl) detachFromBatch(ctx context.Context, batchID string, prev payroll.PayrollRecord) {
	old, err := s.batchRepo.GetByID(ctx, batchID)
	if err != nil {
		slog.Warn("failed to load previous batch", "batch_id", batchID, "record_id", prev.ID, "error", err)
		return
	}
	old.RemoveRecord(prev.ID, prev.Figures())
	old.UpdatedAt = s.now()
	if err := s.batchRepo.Save(ctx, old); err != nil {
		slog.Warn("failed to detach record from previous batch", "batch_id", batchID, "record_id", prev.ID, "error", err)
	}
}

func (s *PayrollServiceImpl) findRecord(ctx context.Context, employeeID, month string, payBase payroll.PayBase) (payroll.PayrollRecord, bool, error) {
	r, err := s.payrollRepo.GetByEmployeeMonth(ctx, employeeID, month, payBase)
	if err != nil {
		if errors.Is(err, payroll.ErrPayrollRecordNotFound) {
			return payroll.PayrollRecord{}, false, nil
		}
		return payroll.PayrollRecord{}, false, err
	}
	return r, true, nil
}

func (s *PayrollServiceImpl) loadLoans(ctx context.Context, employeeID string) ([]loan.Loan, error) {
	loans, err := s.loanRepo.ListRecoverable(ctx, employeeID, loan.RequestTypeLoan)
	if err != nil {
		return nil, err
	}
	advances, err := s.loanRepo.ListRecoverable(ctx, employeeID, loan.RequestTypeSalaryAdvance)
	if err != nil {
		return nil, err
	}
	return append(loans, advances...), nil
}

// pendingArrears is best effort: a failing arrears ledger leaves the payroll unaffected.
func (s *PayrollServiceImpl) pendingArrears(ctx context.Context, employeeID string) []payroll.Arrear {
	arrears, err := s.arrearsRepo.ListPending(ctx, employeeID)
	if err != nil {
		slog.Warn("failed to load pending arrears", "employee_id", employeeID, "error", err)
		return nil
	}
	return arrears
}

// ========== RECORDS ==========

func (s *PayrollServiceImpl) GetRecord(ctx context.Context, id string) (payroll.PayrollRecord, error) {
	if !validator.IsValidUUID(id) {
		return payroll.PayrollRecord{}, payroll.ErrPayrollRecordNotFound
	}
	return s.payrollRepo.GetByID(ctx, id)
}

func (s *PayrollServiceImpl) ListRecords(ctx context.Context, filter payroll.RecordFilter) ([]payroll.PayrollRecord, error) {
	if filter.Month != nil && !validator.IsValidMonth(*filter.Month) {
		return nil, validator.ValidationErrors{{Field: "month", Message: "month must be in YYYY-MM format"}}
	}
	if filter.PayBase != nil && !filter.PayBase.IsValid() {
		return nil, validator.ValidationErrors{{Field: "pay_base", Message: "pay_base must be gross or second"}}
	}
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, validator.ValidationErrors{{Field: "status", Message: "unknown record status"}}
	}
	return s.payrollRepo.List(ctx, filter)
}
