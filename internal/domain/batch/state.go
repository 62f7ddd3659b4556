package batch

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/apperror"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const DefaultRecalculationExpiryHours = 24

var transitions = map[Status][]Status{
	StatusPending:  {StatusApproved},
	StatusApproved: {StatusPending, StatusFreeze},
	StatusFreeze:   {StatusApproved, StatusComplete},
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusFreeze, StatusComplete:
		return true
	}
	return false
}

// IsLocked reports whether member records may only change under a recalculation permission.
func (s Status) IsLocked() bool {
	return s == StatusApproved || s == StatusFreeze || s == StatusComplete
}

// NewBatch creates a pending batch with its first history entry.
func NewBatch(key Key, createdBy string, now time.Time) Batch {
	return Batch{
		ID:                   uuid.Must(uuid.NewV7()).String(),
		DepartmentID:         key.DepartmentID,
		DivisionID:           key.DivisionID,
		Month:                key.Month,
		PayBase:              key.PayBase,
		Status:               StatusPending,
		EmployeePayrolls:     []string{},
		Totals:               ZeroTotals(),
		StatusHistory:        []StatusChange{{Status: StatusPending, ChangedBy: createdBy, ChangedAt: now, Reason: "batch created"}},
		RecalculationHistory: []HistoryEntry{},
		CreatedBy:            createdBy,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
}

func (b *Batch) IsLocked() bool {
	return b.Status.IsLocked()
}

func (b *Batch) CanTransitionTo(next Status) bool {
	for _, s := range transitions[b.Status] {
		if s == next {
			return true
		}
	}
	return false
}

// TransitionTo moves the batch to next and appends a status history entry.
// Coverage validation for approval is the caller's job.
func (b *Batch) TransitionTo(next Status, changedBy, reason string, now time.Time) error {
	if !b.CanTransitionTo(next) {
		return &apperror.StateTransitionError{Entity: "payroll batch", From: string(b.Status), To: string(next)}
	}
	b.Status = next
	b.StatusHistory = append(b.StatusHistory, StatusChange{
		Status:    next,
		ChangedBy: changedBy,
		ChangedAt: now,
		Reason:    reason,
	})
	b.UpdatedAt = now
	return nil
}

func (b *Batch) RequestRecalculationPermission(requestedBy, reason string, now time.Time) error {
	if b.Status != StatusApproved {
		return ErrPermissionRequestNotAllowed
	}
	b.RecalculationPermission = &RecalculationPermission{
		RequestedBy:   &requestedBy,
		RequestedAt:   &now,
		RequestReason: reason,
		Granted:       false,
	}
	b.UpdatedAt = now
	return nil
}

// GrantRecalculationPermission opens a time-boxed window; expiryHours <= 0 uses the default.
func (b *Batch) GrantRecalculationPermission(grantedBy, reason string, expiryHours int, now time.Time) error {
	if b.Status != StatusApproved && b.Status != StatusFreeze {
		return ErrPermissionGrantNotAllowed
	}
	if expiryHours <= 0 {
		expiryHours = DefaultRecalculationExpiryHours
	}
	expiresAt := now.Add(time.Duration(expiryHours) * time.Hour)

	perm := b.RecalculationPermission
	if perm == nil {
		perm = &RecalculationPermission{}
	}
	perm.Granted = true
	perm.GrantedBy = &grantedBy
	perm.GrantedAt = &now
	perm.GrantReason = reason
	perm.ExpiresAt = &expiresAt
	b.RecalculationPermission = perm
	b.UpdatedAt = now
	return nil
}

func (b *Batch) HasValidRecalculationPermission(now time.Time) bool {
	p := b.RecalculationPermission
	if p == nil || !p.Granted {
		return false
	}
	return p.ExpiresAt == nil || !now.After(*p.ExpiresAt)
}

// RevokeRecalculationPermission consumes the permission.
func (b *Batch) RevokeRecalculationPermission() {
	b.RecalculationPermission = nil
}

// CheckMutable returns whether a permission is being relied on, or a *BatchLockedError.
func (b *Batch) CheckMutable(now time.Time) (usesPermission bool, err error) {
	if !b.IsLocked() {
		return false, nil
	}
	if b.Status != StatusComplete && b.HasValidRecalculationPermission(now) {
		return true, nil
	}
	return false, &apperror.BatchLockedError{BatchID: b.ID, Status: string(b.Status)}
}

func (b *Batch) HasMember(recordID string) bool {
	for _, id := range b.EmployeePayrolls {
		if id == recordID {
			return true
		}
	}
	return false
}

// ApplyRecord adds a record to the batch, or replaces its previous contribution when it
// is already a member, so totals always equal the sum of current member records.
func (b *Batch) ApplyRecord(recordID string, previous *payroll.Figures, next payroll.Figures) {
	if b.HasMember(recordID) {
		if previous != nil {
			b.Totals = b.Totals.sub(*previous)
		}
	} else {
		b.EmployeePayrolls = append(b.EmployeePayrolls, recordID)
		b.Totals.TotalEmployees++
	}
	b.Totals = b.Totals.add(next)
}

// RemoveRecord drops a member and its contribution.
func (b *Batch) RemoveRecord(recordID string, figures payroll.Figures) {
	for i, id := range b.EmployeePayrolls {
		if id == recordID {
			b.EmployeePayrolls = append(b.EmployeePayrolls[:i], b.EmployeePayrolls[i+1:]...)
			b.Totals = b.Totals.sub(figures)
			b.Totals.TotalEmployees--
			return
		}
	}
}

func (b *Batch) FindHistory(id string) (HistoryEntry, error) {
	for _, h := range b.RecalculationHistory {
		if h.ID == id {
			return h, nil
		}
	}
	return HistoryEntry{}, ErrHistoryEntryNotFound
}

func ZeroTotals() Totals {
	return Totals{
		TotalGrossSalary: decimal.Zero,
		TotalDeductions:  decimal.Zero,
		TotalEMI:         decimal.Zero,
		TotalAdvance:     decimal.Zero,
		TotalIncentive:   decimal.Zero,
		TotalArrears:     decimal.Zero,
		TotalNetSalary:   decimal.Zero,
	}
}

// TotalsOf recomputes totals from a set of records.
func TotalsOf(records []payroll.PayrollRecord) Totals {
	t := ZeroTotals()
	for _, r := range records {
		t = t.add(r.Figures())
		t.TotalEmployees++
	}
	return t
}

func (t Totals) add(f payroll.Figures) Totals {
	t.TotalGrossSalary = utils.Round2(t.TotalGrossSalary.Add(f.GrossSalary))
	t.TotalDeductions = utils.Round2(t.TotalDeductions.Add(f.TotalDeductions))
	t.TotalEMI = utils.Round2(t.TotalEMI.Add(f.TotalEMI))
	t.TotalAdvance = utils.Round2(t.TotalAdvance.Add(f.AdvanceDeduction))
	t.TotalIncentive = utils.Round2(t.TotalIncentive.Add(f.Incentive))
	t.TotalArrears = utils.Round2(t.TotalArrears.Add(f.ArrearsAmount))
	t.TotalNetSalary = utils.Round2(t.TotalNetSalary.Add(f.NetSalary))
	return t
}

func (t Totals) sub(f payroll.Figures) Totals {
	t.TotalGrossSalary = utils.Round2(t.TotalGrossSalary.Sub(f.GrossSalary))
	t.TotalDeductions = utils.Round2(t.TotalDeductions.Sub(f.TotalDeductions))
	t.TotalEMI = utils.Round2(t.TotalEMI.Sub(f.TotalEMI))
	t.TotalAdvance = utils.Round2(t.TotalAdvance.Sub(f.AdvanceDeduction))
	t.TotalIncentive = utils.Round2(t.TotalIncentive.Sub(f.Incentive))
	t.TotalArrears = utils.Round2(t.TotalArrears.Sub(f.ArrearsAmount))
	t.TotalNetSalary = utils.Round2(t.TotalNetSalary.Sub(f.NetSalary))
	return t
}
