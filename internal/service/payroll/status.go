package payroll

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/batch"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
)

// UpdateRecordStatus moves a record through its state machine. Cancelling a record, or
// restoring a cancelled one, changes batch membership and needs the batch to be mutable.
// Entering processed posts the record's EMI and advance deductions to the loans.
func (s *PayrollServiceImpl) UpdateRecordStatus(ctx context.Context, req payroll.UpdateRecordStatusRequest) (payroll.PayrollRecord, error) {
	if err := req.Validate(); err != nil {
		return payroll.PayrollRecord{}, err
	}

	record, err := s.GetRecord(ctx, req.ID)
	if err != nil {
		return payroll.PayrollRecord{}, err
	}
	if err := record.Status.ValidateTransition(req.Status); err != nil {
		return payroll.PayrollRecord{}, err
	}

	leaving := record.Status == payroll.RecordStatusCancelled
	entering := req.Status == payroll.RecordStatusCancelled
	if (leaving || entering) && record.BatchID != nil {
		if err := s.updateMembership(ctx, *record.BatchID, record, entering); err != nil {
			return payroll.PayrollRecord{}, err
		}
	}

	if err := s.payrollRepo.UpdateStatus(ctx, record.ID, req.Status); err != nil {
		return payroll.PayrollRecord{}, err
	}
	record.Status = req.Status

	if req.Status == payroll.RecordStatusProcessed {
		s.postLoanDeductions(ctx, record)
	}
	return s.payrollRepo.GetByID(ctx, record.ID)
}

func (s *PayrollServiceImpl) updateMembership(ctx context.Context, batchID string, record payroll.PayrollRecord, remove bool) error {
	now := s.now()
	b, err := s.batchRepo.GetByID(ctx, batchID)
	if err != nil {
		if errors.Is(err, batch.ErrBatchNotFound) {
			return nil
		}
		return err
	}
	usesPermission, err := b.CheckMutable(now)
	if err != nil {
		return err
	}

	if remove {
		b.RemoveRecord(record.ID, record.Figures())
	} else {
		b.ApplyRecord(record.ID, nil, record.Figures())
	}
	if usesPermission {
		b.RevokeRecalculationPermission()
	}
	b.UpdatedAt = now
	return s.batchRepo.Save(ctx, b)
}

// postLoanDeductions applies EMI payments and advance recoveries in one transaction.
// Failures are logged: the record stays processed.
func (s *PayrollServiceImpl) postLoanDeductions(ctx context.Context, record payroll.PayrollRecord) {
	la := record.LoanAdvance
	if len(la.EMIBreakdown) == 0 && len(la.AdvanceBreakdown) == 0 {
		return
	}
	now := s.now()

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		for _, emi := range la.EMIBreakdown {
			l, err := s.loanRepo.GetByID(ctx, emi.LoanID)
			if err != nil {
				return err
			}
			l.ApplyEMIPayment(emi.EMIAmount, record.ID, record.Month, now)
			if err := s.loanRepo.Save(ctx, l); err != nil {
				return err
			}
		}
		for _, adv := range la.AdvanceBreakdown {
			l, err := s.loanRepo.GetByID(ctx, adv.LoanID)
			if err != nil {
				return err
			}
			l.ApplyAdvanceRecovery(adv.DeductedShare, adv.CarriedForward, record.ID, record.Month, now)
			if err := s.loanRepo.Save(ctx, l); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		slog.Error("failed to post loan deductions", "record_id", record.ID, "employee_id", record.EmployeeID, "month", record.Month, "error", err)
	}
}
