package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/loan"
)

var (
	_ employee.EmployeeRepository     = (*Employees)(nil)
	_ attendance.AttendanceRepository = (*Attendance)(nil)
	_ loan.LoanRepository             = (*Loans)(nil)
)

type Employees struct {
	mu   sync.RWMutex
	rows map[string]employee.Employee
}

func NewEmployees(emps ...employee.Employee) *Employees {
	s := &Employees{rows: make(map[string]employee.Employee)}
	for _, e := range emps {
		s.Put(e)
	}
	return s
}

func (s *Employees) Put(e employee.Employee) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e.EmploymentStatus == "" {
		e.EmploymentStatus = employee.EmploymentStatusActive
	}
	s.rows[e.ID] = clone(e)
}

func (s *Employees) GetByID(_ context.Context, id string) (employee.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.rows[id]
	if !ok {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return clone(e), nil
}

func (s *Employees) ListActive(_ context.Context) ([]employee.Employee, error) {
	return s.list(func(employee.Employee) bool { return true }), nil
}

func (s *Employees) ListActiveByDepartment(_ context.Context, departmentID string, divisionID *string) ([]employee.Employee, error) {
	return s.list(func(e employee.Employee) bool {
		if e.DepartmentID != departmentID {
			return false
		}
		if divisionID == nil {
			return true
		}
		return e.DivisionID != nil && *e.DivisionID == *divisionID
	}), nil
}

func (s *Employees) list(match func(employee.Employee) bool) []employee.Employee {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []employee.Employee{}
	for _, e := range s.rows {
		if e.EmploymentStatus == employee.EmploymentStatusActive && match(e) {
			out = append(out, clone(e))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeCode < out[j].EmployeeCode })
	return out
}

type Attendance struct {
	mu          sync.RWMutex
	payRegister map[string]attendance.PayRegisterSummary
	monthly     map[string]attendance.MonthlyAttendanceSummary
}

func NewAttendance() *Attendance {
	return &Attendance{
		payRegister: make(map[string]attendance.PayRegisterSummary),
		monthly:     make(map[string]attendance.MonthlyAttendanceSummary),
	}
}

func (s *Attendance) PutPayRegister(p attendance.PayRegisterSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payRegister[p.EmployeeID+"|"+p.Month] = p
}

func (s *Attendance) PutMonthly(m attendance.MonthlyAttendanceSummary) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.monthly[m.EmployeeID+"|"+m.Month] = m
}

func (s *Attendance) GetPayRegisterSummary(_ context.Context, employeeID string, month string) (attendance.PayRegisterSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.payRegister[employeeID+"|"+month]
	if !ok {
		return attendance.PayRegisterSummary{}, attendance.ErrAttendanceSummaryNotFound
	}
	return p, nil
}

func (s *Attendance) GetMonthlySummary(_ context.Context, employeeID string, month string) (attendance.MonthlyAttendanceSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.monthly[employeeID+"|"+month]
	if !ok {
		return attendance.MonthlyAttendanceSummary{}, attendance.ErrAttendanceSummaryNotFound
	}
	return m, nil
}

type Loans struct {
	mu    sync.RWMutex
	rows  map[string]loan.Loan
	Saves int
}

func NewLoans(loans ...loan.Loan) *Loans {
	s := &Loans{rows: make(map[string]loan.Loan)}
	for _, l := range loans {
		s.rows[l.ID] = clone(l)
	}
	return s
}

func (s *Loans) GetByID(_ context.Context, id string) (loan.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.rows[id]
	if !ok {
		return loan.Loan{}, loan.ErrLoanNotFound
	}
	return clone(l), nil
}

func (s *Loans) ListRecoverable(_ context.Context, employeeID string, requestType loan.RequestType) ([]loan.Loan, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []loan.Loan{}
	for _, l := range s.rows {
		if l.EmployeeID == employeeID && l.RequestType == requestType && l.IsRecoverable() {
			out = append(out, clone(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Loans) Save(_ context.Context, l loan.Loan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[l.ID]; !ok {
		return loan.ErrLoanNotFound
	}
	s.rows[l.ID] = clone(l)
	s.Saves++
	return nil
}
