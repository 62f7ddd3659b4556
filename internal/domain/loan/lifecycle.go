package loan

import (
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/apperror"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/utils"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var transitions = map[Status][]Status{
	StatusDraft:       {StatusPending, StatusCancelled},
	StatusPending:     {StatusHODApproved, StatusHODRejected, StatusCancelled},
	StatusHODApproved: {StatusHRApproved, StatusHRRejected, StatusCancelled},
	StatusHODRejected: {StatusRejected},
	StatusHRApproved:  {StatusApproved, StatusCancelled},
	StatusHRRejected:  {StatusRejected},
	StatusApproved:    {StatusDisbursed, StatusCancelled},
	StatusDisbursed:   {StatusActive},
	StatusActive:      {StatusCompleted},
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusRejected || s == StatusCancelled
}

func (l *Loan) CanTransitionTo(next Status) bool {
	for _, s := range transitions[l.Status] {
		if s == next {
			return true
		}
	}
	return false
}

func (l *Loan) TransitionTo(next Status) error {
	if !l.CanTransitionTo(next) {
		return &apperror.StateTransitionError{Entity: "loan", From: string(l.Status), To: string(next)}
	}
	l.Status = next
	return nil
}

// RepayableAmount is the configured total amount, or the principal when none is set.
func (l *Loan) RepayableAmount() decimal.Decimal {
	return utils.DecimalOr(l.Config.TotalAmount, l.Config.Principal)
}

// RecalculateBalance enforces remainingBalance = repayable - totalPaid. Called before every save.
func (l *Loan) RecalculateBalance() {
	l.Repayment.RemainingBalance = utils.NonNegative(utils.Round2(l.RepayableAmount().Sub(l.Repayment.TotalPaid)))
}

// IsRecoverable reports whether payroll should deduct from this loan.
func (l *Loan) IsRecoverable() bool {
	return l.Status == StatusActive && l.Repayment.RemainingBalance.IsPositive()
}

// ApplyEMIPayment records one payroll EMI installment.
func (l *Loan) ApplyEMIPayment(amount decimal.Decimal, payrollRecordID, month string, now time.Time) {
	l.Repayment.TotalPaid = utils.Round2(l.Repayment.TotalPaid.Add(amount))
	l.Repayment.InstallmentsPaid++
	next := now
	if l.Repayment.NextPaymentDate != nil {
		next = *l.Repayment.NextPaymentDate
	}
	next = utils.AddMonthsClamped(next, 1)
	l.Repayment.NextPaymentDate = &next

	l.RecalculateBalance()
	l.appendTransaction(TransactionTypeEMIPayment, amount, payrollRecordID, month, now)
	l.completeIfSettled()
}

// ApplyAdvanceRecovery records a salary advance deduction and carries the rest forward.
func (l *Loan) ApplyAdvanceRecovery(deducted, carriedForward decimal.Decimal, payrollRecordID, month string, now time.Time) {
	l.Repayment.TotalPaid = utils.Round2(l.Repayment.TotalPaid.Add(deducted))
	l.RecalculateBalance()
	l.Repayment.RemainingBalance = utils.NonNegative(utils.Round2(carriedForward))

	l.appendTransaction(TransactionTypeAdvanceRecovery, deducted, payrollRecordID, month, now)
	l.completeIfSettled()
}

func (l *Loan) appendTransaction(typ TransactionType, amount decimal.Decimal, payrollRecordID, month string, now time.Time) {
	recordID := payrollRecordID
	l.Transactions = append(l.Transactions, Transaction{
		ID:              uuid.Must(uuid.NewV7()).String(),
		Type:            typ,
		Amount:          utils.Round2(amount),
		BalanceAfter:    l.Repayment.RemainingBalance,
		PayrollRecordID: &recordID,
		Month:           month,
		CreatedAt:       now,
	})
	l.UpdatedAt = now
}

func (l *Loan) completeIfSettled() {
	if l.Status == StatusActive && l.Repayment.RemainingBalance.IsZero() {
		l.Status = StatusCompleted
	}
}
