package memstore

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/google/uuid"
)

var (
	_ payroll.PayrollRepository        = (*Records)(nil)
	_ payroll.ArrearsRepository        = (*Arrears)(nil)
	_ payroll.TransactionLogRepository = (*TransactionLog)(nil)
)

type Records struct {
	mu   sync.RWMutex
	rows map[string]payroll.PayrollRecord
}

func NewRecords() *Records {
	return &Records{rows: make(map[string]payroll.PayrollRecord)}
}

func (s *Records) GetByID(_ context.Context, id string) (payroll.PayrollRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rows[id]
	if !ok {
		return payroll.PayrollRecord{}, payroll.ErrPayrollRecordNotFound
	}
	return clone(r), nil
}

func (s *Records) GetByEmployeeMonth(_ context.Context, employeeID string, month string, payBase payroll.PayBase) (payroll.PayrollRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.rows {
		if r.EmployeeID == employeeID && r.Month == month && r.PayBase == payBase {
			return clone(r), nil
		}
	}
	return payroll.PayrollRecord{}, payroll.ErrPayrollRecordNotFound
}

func (s *Records) GetByIDs(_ context.Context, ids []string) ([]payroll.PayrollRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]payroll.PayrollRecord, 0, len(ids))
	for _, id := range ids {
		if r, ok := s.rows[id]; ok {
			out = append(out, clone(r))
		}
	}
	return out, nil
}

func (s *Records) List(_ context.Context, f payroll.RecordFilter) ([]payroll.PayrollRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []payroll.PayrollRecord{}
	for _, r := range s.rows {
		if f.Month != nil && r.Month != *f.Month {
			continue
		}
		if f.PayBase != nil && r.PayBase != *f.PayBase {
			continue
		}
		if f.DepartmentID != nil && r.DepartmentID != *f.DepartmentID {
			continue
		}
		if f.DivisionID != nil && (r.DivisionID == nil || *r.DivisionID != *f.DivisionID) {
			continue
		}
		if f.EmployeeID != nil && r.EmployeeID != *f.EmployeeID {
			continue
		}
		if f.Status != nil && r.Status != *f.Status {
			continue
		}
		if f.BatchID != nil && (r.BatchID == nil || *r.BatchID != *f.BatchID) {
			continue
		}
		out = append(out, clone(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeCode < out[j].EmployeeCode })
	return out, nil
}

// Upsert keeps the existing id and created_at for (employee, month, pay base).
func (s *Records) Upsert(_ context.Context, record payroll.PayrollRecord) (payroll.PayrollRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, r := range s.rows {
		if r.EmployeeID == record.EmployeeID && r.Month == record.Month && r.PayBase == record.PayBase {
			record.ID = id
			record.CreatedAt = r.CreatedAt
			break
		}
	}
	if record.ID == "" {
		record.ID = uuid.Must(uuid.NewV7()).String()
	}
	s.rows[record.ID] = clone(record)
	return clone(record), nil
}

func (s *Records) UpdateStatus(_ context.Context, id string, status payroll.RecordStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.rows[id]
	if !ok {
		return payroll.ErrPayrollRecordNotFound
	}
	r.Status = status
	r.UpdatedAt = time.Now()
	s.rows[id] = r
	return nil
}

type Arrears struct {
	mu   sync.RWMutex
	rows map[string]payroll.Arrear
	// FailSettle makes MarkSettled fail, for exercising the non-fatal path.
	FailSettle bool
}

func NewArrears(arrears ...payroll.Arrear) *Arrears {
	s := &Arrears{rows: make(map[string]payroll.Arrear)}
	for _, a := range arrears {
		if a.Status == "" {
			a.Status = payroll.ArrearStatusPending
		}
		s.rows[a.ID] = a
	}
	return s
}

func (s *Arrears) Get(id string) payroll.Arrear {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rows[id]
}

func (s *Arrears) ListPending(_ context.Context, employeeID string) ([]payroll.Arrear, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []payroll.Arrear{}
	for _, a := range s.rows {
		if a.EmployeeID == employeeID && a.Status == payroll.ArrearStatusPending {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Arrears) MarkSettled(_ context.Context, ids []string, payrollRecordID string, month string) error {
	if s.FailSettle {
		return errors.New("arrears store unavailable")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for _, id := range ids {
		a, ok := s.rows[id]
		if !ok {
			return payroll.ErrArrearNotFound
		}
		recordID, m := payrollRecordID, month
		a.Status = payroll.ArrearStatusSettled
		a.SettledRecordID = &recordID
		a.SettledMonth = &m
		a.SettledAt = &now
		s.rows[id] = a
	}
	return nil
}

type TransactionLog struct {
	mu   sync.Mutex
	rows []payroll.Transaction
	// Fail makes CreateMany fail, for exercising the non-fatal path.
	Fail bool
}

func NewTransactionLog() *TransactionLog {
	return &TransactionLog{}
}

func (s *TransactionLog) CreateMany(_ context.Context, txns []payroll.Transaction) error {
	if s.Fail {
		return errors.New("transaction log unavailable")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, txns...)
	return nil
}

func (s *TransactionLog) All() []payroll.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]payroll.Transaction(nil), s.rows...)
}
