package loan

import (
	"time"

	"github.com/shopspring/decimal"
)

type RequestType string

const (
	RequestTypeLoan          RequestType = "loan"
	RequestTypeSalaryAdvance RequestType = "salary_advance"
)

type Status string

const (
	StatusDraft       Status = "draft"
	StatusPending     Status = "pending"
	StatusHODApproved Status = "hod_approved"
	StatusHODRejected Status = "hod_rejected"
	StatusHRApproved  Status = "hr_approved"
	StatusHRRejected  Status = "hr_rejected"
	StatusApproved    Status = "approved"
	StatusRejected    Status = "rejected"
	StatusDisbursed   Status = "disbursed"
	StatusActive      Status = "active"
	StatusCompleted   Status = "completed"
	StatusCancelled   Status = "cancelled"
)

type TransactionType string

const (
	TransactionTypeDisbursement    TransactionType = "disbursement"
	TransactionTypeEMIPayment      TransactionType = "emi_payment"
	TransactionTypeAdvanceRecovery TransactionType = "advance_recovery"
)

type Config struct {
	Principal   decimal.Decimal  `json:"principal"`
	TotalAmount *decimal.Decimal `json:"total_amount,omitempty"`
	EMIAmount   decimal.Decimal  `json:"emi_amount"`
	Tenure      int              `json:"tenure"`
}

type Repayment struct {
	TotalPaid        decimal.Decimal `json:"total_paid"`
	RemainingBalance decimal.Decimal `json:"remaining_balance"`
	InstallmentsPaid int             `json:"installments_paid"`
	NextPaymentDate  *time.Time      `json:"next_payment_date,omitempty"`
}

type Transaction struct {
	ID              string          `json:"id"`
	Type            TransactionType `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	BalanceAfter    decimal.Decimal `json:"balance_after"`
	PayrollRecordID *string         `json:"payroll_record_id,omitempty"`
	Month           string          `json:"month,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
}

type Loan struct {
	ID           string
	EmployeeID   string
	LoanNumber   string
	RequestType  RequestType
	Status       Status
	Config       Config
	Repayment    Repayment
	Transactions []Transaction
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
