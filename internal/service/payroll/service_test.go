package payroll

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/batch"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/loan"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/payroll"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/rule"
	"github.com/cmlabs-hris/hris-payroll-go/internal/domain/settings"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/apperror"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/cache"
	"github.com/cmlabs-hris/hris-payroll-go/internal/pkg/validator"
	settingsservice "github.com/cmlabs-hris/hris-payroll-go/internal/service/settings"
	"github.com/cmlabs-hris/hris-payroll-go/internal/testutil/memstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMonth = "2024-06"

type testEnv struct {
	svc        *PayrollServiceImpl
	employees  *memstore.Employees
	attendance *memstore.Attendance
	loans      *memstore.Loans
	arrears    *memstore.Arrears
	records    *memstore.Records
	batches    *memstore.Batches
	txnLog     *memstore.TransactionLog
	now        time.Time
}

type envOption func(*envConfig)

type envConfig struct {
	rules    []rule.Definition
	settings []settings.Settings
	loans    []loan.Loan
	arrears  []payroll.Arrear
}

func withRules(defs ...rule.Definition) envOption {
	return func(c *envConfig) { c.rules = append(c.rules, defs...) }
}

func withSettings(rows ...settings.Settings) envOption {
	return func(c *envConfig) { c.settings = append(c.settings, rows...) }
}

func withLoans(loans ...loan.Loan) envOption {
	return func(c *envConfig) { c.loans = append(c.loans, loans...) }
}

func withArrears(arrears ...payroll.Arrear) envOption {
	return func(c *envConfig) { c.arrears = append(c.arrears, arrears...) }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	var cfg envConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	env := &testEnv{
		employees:  memstore.NewEmployees(testEmployee("emp-1", "E001", "dept-ops")),
		attendance: memstore.NewAttendance(),
		loans:      memstore.NewLoans(cfg.loans...),
		arrears:    memstore.NewArrears(cfg.arrears...),
		records:    memstore.NewRecords(),
		batches:    memstore.NewBatches(),
		txnLog:     memstore.NewTransactionLog(),
		now:        time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC),
	}
	env.attendance.PutPayRegister(payRegister("emp-1", "34"))

	resolver := settingsservice.NewRuleResolver(
		memstore.NewRules(cfg.rules...),
		memstore.NewSettings(cfg.settings...),
		cache.NewNopCache(),
		settingsservice.MinCacheTTL,
	)

	svc := NewPayrollService(
		memstore.Transactor{},
		env.records,
		env.batches,
		env.employees,
		env.attendance,
		env.loans,
		env.arrears,
		env.txnLog,
		resolver,
	).(*PayrollServiceImpl)
	svc.now = func() time.Time { return env.now }
	env.svc = svc
	return env
}

func testEmployee(id, code, departmentID string) employee.Employee {
	return employee.Employee{
		ID:           id,
		EmployeeCode: code,
		FullName:     "Employee " + code,
		DepartmentID: departmentID,
		GrossSalary:  d("60000"),
	}
}

func payRegister(employeeID, payableShifts string) attendance.PayRegisterSummary {
	return attendance.PayRegisterSummary{
		EmployeeID:    employeeID,
		Month:         testMonth,
		TotalDays:     d("30"),
		PresentDays:   d("26"),
		WeeklyOffs:    d("4"),
		PayableShifts: d(payableShifts),
	}
}

func (e *testEnv) calculate(t *testing.T, employeeID string) (payroll.PayrollRecord, error) {
	t.Helper()
	return e.svc.CalculateEmployee(context.Background(), payroll.CalculatePayrollRequest{EmployeeID: employeeID, Month: testMonth})
}

func (e *testEnv) batchOf(t *testing.T, r payroll.PayrollRecord) batch.Batch {
	t.Helper()
	require.NotNil(t, r.BatchID)
	b, err := e.batches.GetByID(context.Background(), *r.BatchID)
	require.NoError(t, err)
	return b
}

func (e *testEnv) saveBatch(t *testing.T, b batch.Batch) {
	t.Helper()
	require.NoError(t, e.batches.Save(context.Background(), b))
}

// ========== CALCULATE EMPLOYEE ==========

func TestCalculateEmployee_CreatesRecordAndBatch(t *testing.T) {
	env := newTestEnv(t)

	rec, err := env.calculate(t, "emp-1")
	require.NoError(t, err)

	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, payroll.RecordStatusCalculated, rec.Status)
	assert.Equal(t, payroll.PayBaseGross, rec.PayBase)
	assertDec(t, "68000", rec.NetSalary)
	assertDec(t, "8000", rec.Earnings.Incentive)
	assert.True(t, env.now.Equal(rec.CalculationMetadata.CalculatedAt))
	assert.Nil(t, rec.CalculationMetadata.CalculatedBy)
	assert.False(t, rec.CalculationMetadata.PermissionUsed)

	b := env.batchOf(t, rec)
	assert.Equal(t, batch.StatusPending, b.Status)
	assert.Equal(t, "dept-ops", b.DepartmentID)
	assert.Equal(t, []string{rec.ID}, b.EmployeePayrolls)
	assert.Equal(t, 1, b.Totals.TotalEmployees)
	assertDec(t, "68000", b.Totals.TotalNetSalary)
	assertDec(t, "8000", b.Totals.TotalIncentive)
	assertDec(t, "60000", b.Totals.TotalGrossSalary)

	txns := env.txnLog.All()
	require.NotEmpty(t, txns)
	last := txns[len(txns)-1]
	assert.Equal(t, "net_salary", last.TransactionType)
	assertDec(t, "68000", last.Amount)
	for _, tx := range txns {
		assert.Equal(t, rec.ID, tx.PayrollRecordID)
		assert.NotEqual(t, "round_off", tx.TransactionType, "zero round off is not logged")
	}
}

func TestCalculateEmployee_RecalculationReplacesFigures(t *testing.T) {
	env := newTestEnv(t)

	first, err := env.calculate(t, "emp-1")
	require.NoError(t, err)

	env.attendance.PutPayRegister(payRegister("emp-1", "30"))
	second, err := env.calculate(t, "emp-1")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assertDec(t, "60000", second.NetSalary)

	b := env.batchOf(t, second)
	assert.Equal(t, 1, b.Totals.TotalEmployees)
	assert.Len(t, b.EmployeePayrolls, 1)
	assertDec(t, "60000", b.Totals.TotalNetSalary)
	assertDec(t, "0", b.Totals.TotalIncentive)

	all, err := env.records.List(context.Background(), payroll.RecordFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestCalculateEmployee_MonthlyAttendanceFallback(t *testing.T) {
	env := newTestEnv(t)
	env.employees.Put(testEmployee("emp-2", "E002", "dept-ops"))
	env.attendance.PutMonthly(attendance.MonthlyAttendanceSummary{
		EmployeeID:  "emp-2",
		Month:       testMonth,
		DaysInMonth: 30,
		PresentDays: d("25"),
		HalfDays:    d("2"),
		WeeklyOffs:  d("4"),
	})

	rec, err := env.calculate(t, "emp-2")
	require.NoError(t, err)

	assert.Equal(t, attendance.SourceMonthlyAttendance, rec.Attendance.Source)
	assertDec(t, "30", rec.Attendance.TotalPayableShifts)
	assertDec(t, "60000", rec.NetSalary)
}

func TestCalculateEmployee_Errors(t *testing.T) {
	t.Run("unknown employee", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.calculate(t, "nobody")
		assert.True(t, errors.Is(err, apperror.ErrNotFound))
	})

	t.Run("no attendance", func(t *testing.T) {
		env := newTestEnv(t)
		env.employees.Put(testEmployee("emp-2", "E002", "dept-ops"))
		_, err := env.calculate(t, "emp-2")
		assert.True(t, errors.Is(err, attendance.ErrAttendanceSummaryNotFound))

		batches, err := env.batches.List(context.Background(), batch.Filter{})
		require.NoError(t, err)
		assert.Empty(t, batches, "a failed calculation leaves no batch behind")
	})

	t.Run("missing second salary", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.svc.CalculateEmployee(context.Background(), payroll.CalculatePayrollRequest{
			EmployeeID: "emp-1",
			Month:      testMonth,
			PayBase:    payroll.PayBaseSecond,
		})
		var invalid *apperror.InvalidInputError
		require.True(t, errors.As(err, &invalid))
		assert.Equal(t, "second_salary", invalid.Field)
	})

	t.Run("bad request", func(t *testing.T) {
		env := newTestEnv(t)
		_, err := env.svc.CalculateEmployee(context.Background(), payroll.CalculatePayrollRequest{Month: "2024-13"})
		var verrs validator.ValidationErrors
		require.True(t, errors.As(err, &verrs))
		assert.Contains(t, verrs.ToMap(), "employee_id")
		assert.Contains(t, verrs.ToMap(), "month")
	})
}

func TestCalculateEmployee_DepartmentPolicies(t *testing.T) {
	ops := "dept-ops"
	otRate := d("100")
	transport := d("2000")
	env := newTestEnv(t,
		withSettings(settings.Settings{ID: "s-ops", DepartmentID: &ops, OTPayPerHour: &otRate}),
		withRules(rule.Definition{
			ID:       "transport",
			Name:     "Transport",
			Category: rule.CategoryAllowance,
			IsActive: true,
			DepartmentRules: []rule.DepartmentRule{
				{DepartmentID: ops, Rule: rule.Rule{Type: rule.TypeFixed, Amount: &transport}},
			},
		}),
	)
	pr := payRegister("emp-1", "34")
	pr.OTHours = d("5")
	env.attendance.PutPayRegister(pr)

	rec, err := env.calculate(t, "emp-1")
	require.NoError(t, err)

	assertDec(t, "500", rec.Earnings.OTPay)
	require.Len(t, rec.Earnings.Allowances, 1)
	assert.Equal(t, payroll.LineSourceDepartment, rec.Earnings.Allowances[0].Source)
	assertDec(t, "62500", rec.Earnings.GrossSalary)
	assertDec(t, "70500", rec.NetSalary)
	assertDec(t, "100", rec.CalculationMetadata.Settings.OTPayPerHour)
}

// ========== BATCH LOCK ==========

func TestCalculateEmployee_LockedBatchNeedsPermission(t *testing.T) {
	env := newTestEnv(t)

	rec, err := env.calculate(t, "emp-1")
	require.NoError(t, err)
	b := env.batchOf(t, rec)
	require.NoError(t, b.TransitionTo(batch.StatusApproved, "owner", "", env.now))
	env.saveBatch(t, b)

	_, err = env.calculate(t, "emp-1")
	var locked *apperror.BatchLockedError
	require.True(t, errors.As(err, &locked))
	assert.Equal(t, b.ID, locked.BatchID)

	require.NoError(t, b.GrantRecalculationPermission("owner", "fix attendance", 0, env.now))
	env.saveBatch(t, b)

	env.attendance.PutPayRegister(payRegister("emp-1", "30"))
	rec, err = env.calculate(t, "emp-1")
	require.NoError(t, err)
	assert.True(t, rec.CalculationMetadata.PermissionUsed)

	b = env.batchOf(t, rec)
	assert.Nil(t, b.RecalculationPermission, "permission is consumed")
	assert.Equal(t, batch.StatusApproved, b.Status)
	assertDec(t, "60000", b.Totals.TotalNetSalary)

	_, err = env.calculate(t, "emp-1")
	assert.True(t, errors.Is(err, apperror.ErrBatchLocked))
}

func TestCalculateEmployee_ExpiredPermission(t *testing.T) {
	env := newTestEnv(t)

	rec, err := env.calculate(t, "emp-1")
	require.NoError(t, err)
	b := env.batchOf(t, rec)
	require.NoError(t, b.TransitionTo(batch.StatusApproved, "owner", "", env.now))
	require.NoError(t, b.GrantRecalculationPermission("owner", "fix", 1, env.now))
	env.saveBatch(t, b)

	env.now = env.now.Add(2 * time.Hour)
	_, err = env.calculate(t, "emp-1")
	assert.True(t, errors.Is(err, apperror.ErrBatchLocked))
}

func TestCalculateEmployee_ProcessedRecordIsFinal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rec, err := env.calculate(t, "emp-1")
	require.NoError(t, err)
	for _, status := range []payroll.RecordStatus{payroll.RecordStatusApproved, payroll.RecordStatusProcessed} {
		_, err = env.svc.UpdateRecordStatus(ctx, payroll.UpdateRecordStatusRequest{ID: rec.ID, Status: status})
		require.NoError(t, err)
	}

	_, err = env.calculate(t, "emp-1")
	assert.True(t, errors.Is(err, apperror.ErrStateTransition))
}

// ========== ARREARS & AUDIT ==========

func TestCalculateEmployee_SettlesArrears(t *testing.T) {
	env := newTestEnv(t, withArrears(payroll.Arrear{ID: "ar-1", EmployeeID: "emp-1", Amount: d("500"), ForMonth: "2024-05"}))

	rec, err := env.calculate(t, "emp-1")
	require.NoError(t, err)

	assertDec(t, "500", rec.ArrearsAmount)
	assertDec(t, "68500", rec.NetSalary)
	assert.Equal(t, []string{"ar-1"}, rec.SettledArrearIDs)

	settled := env.arrears.Get("ar-1")
	assert.Equal(t, payroll.ArrearStatusSettled, settled.Status)
	require.NotNil(t, settled.SettledRecordID)
	assert.Equal(t, rec.ID, *settled.SettledRecordID)

	b := env.batchOf(t, rec)
	assertDec(t, "500", b.Totals.TotalArrears)
}

func TestCalculateEmployee_SideEffectFailuresAreNonFatal(t *testing.T) {
	env := newTestEnv(t, withArrears(payroll.Arrear{ID: "ar-1", EmployeeID: "emp-1", Amount: d("500")}))
	env.arrears.FailSettle = true
	env.txnLog.Fail = true

	rec, err := env.calculate(t, "emp-1")
	require.NoError(t, err)

	assertDec(t, "68500", rec.NetSalary)
	assert.Equal(t, payroll.ArrearStatusPending, env.arrears.Get("ar-1").Status)
	assert.Empty(t, env.txnLog.All())
}

// ========== BULK ==========

func TestBulkCalculate_CollectsPerEmployeeErrors(t *testing.T) {
	env := newTestEnv(t)
	env.employees.Put(testEmployee("emp-2", "E002", "dept-ops"))

	res, err := env.svc.BulkCalculate(context.Background(), payroll.BulkCalculateRequest{
		EmployeeIDs: []string{"emp-1", "emp-2", "emp-1"},
		Month:       testMonth,
	})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 1, res.SuccessCount)
	assert.Equal(t, 1, res.FailureCount)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "emp-2", res.Errors[0].EmployeeID)
	assert.Len(t, res.RecordIDs, 1)
}

func TestCalculateDepartment(t *testing.T) {
	env := newTestEnv(t)
	env.employees.Put(testEmployee("emp-2", "E002", "dept-ops"))
	env.employees.Put(testEmployee("emp-3", "E003", "dept-sales"))
	env.attendance.PutPayRegister(payRegister("emp-2", "30"))
	env.attendance.PutPayRegister(payRegister("emp-3", "30"))

	res, err := env.svc.CalculateDepartment(context.Background(), payroll.CalculateDepartmentRequest{DepartmentID: "dept-ops", Month: testMonth})
	require.NoError(t, err)
	assert.Equal(t, 2, res.SuccessCount)

	b, err := env.batches.GetByKey(context.Background(), batch.Key{DepartmentID: "dept-ops", Month: testMonth, PayBase: payroll.PayBaseGross})
	require.NoError(t, err)
	assert.Equal(t, 2, b.Totals.TotalEmployees)
	assertDec(t, "128000", b.Totals.TotalNetSalary)

	_, err = env.batches.GetByKey(context.Background(), batch.Key{DepartmentID: "dept-sales", Month: testMonth, PayBase: payroll.PayBaseGross})
	assert.True(t, errors.Is(err, batch.ErrBatchNotFound))
}

func TestCalculateAll(t *testing.T) {
	env := newTestEnv(t)
	env.employees.Put(testEmployee("emp-3", "E003", "dept-sales"))
	env.attendance.PutPayRegister(payRegister("emp-3", "30"))

	res, err := env.svc.CalculateAll(context.Background(), payroll.CalculateAllRequest{Month: testMonth})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Total)
	assert.Equal(t, 2, res.SuccessCount)

	batches, err := env.batches.List(context.Background(), batch.Filter{})
	require.NoError(t, err)
	assert.Len(t, batches, 2)
}

// ========== RECORD STATUS ==========

func TestUpdateRecordStatus_ProcessedPostsLoanDeductions(t *testing.T) {
	env := newTestEnv(t, withLoans(
		loan.Loan{
			ID:          "loan-1",
			EmployeeID:  "emp-1",
			RequestType: loan.RequestTypeLoan,
			Status:      loan.StatusActive,
			Config:      loan.Config{Principal: d("5000"), EMIAmount: d("1000"), Tenure: 5},
			Repayment:   loan.Repayment{TotalPaid: d("0"), RemainingBalance: d("5000")},
		},
		loan.Loan{
			ID:          "adv-1",
			EmployeeID:  "emp-1",
			RequestType: loan.RequestTypeSalaryAdvance,
			Status:      loan.StatusActive,
			Config:      loan.Config{Principal: d("3000")},
			Repayment:   loan.Repayment{TotalPaid: d("0"), RemainingBalance: d("3000")},
		},
	))
	ctx := context.Background()

	rec, err := env.calculate(t, "emp-1")
	require.NoError(t, err)
	assertDec(t, "1000", rec.LoanAdvance.TotalEMI)
	assertDec(t, "3000", rec.LoanAdvance.AdvanceDeduction)
	assertDec(t, "64000", rec.NetSalary)

	_, err = env.svc.UpdateRecordStatus(ctx, payroll.UpdateRecordStatusRequest{ID: rec.ID, Status: payroll.RecordStatusApproved})
	require.NoError(t, err)
	assert.Zero(t, env.loans.Saves, "loans are only posted on processing")

	updated, err := env.svc.UpdateRecordStatus(ctx, payroll.UpdateRecordStatusRequest{ID: rec.ID, Status: payroll.RecordStatusProcessed})
	require.NoError(t, err)
	assert.Equal(t, payroll.RecordStatusProcessed, updated.Status)

	l, err := env.loans.GetByID(ctx, "loan-1")
	require.NoError(t, err)
	assertDec(t, "1000", l.Repayment.TotalPaid)
	assertDec(t, "4000", l.Repayment.RemainingBalance)
	assert.Equal(t, 1, l.Repayment.InstallmentsPaid)
	require.Len(t, l.Transactions, 1)
	assert.Equal(t, rec.ID, *l.Transactions[0].PayrollRecordID)

	adv, err := env.loans.GetByID(ctx, "adv-1")
	require.NoError(t, err)
	assert.Equal(t, loan.StatusCompleted, adv.Status)
	assertDec(t, "0", adv.Repayment.RemainingBalance)
}

func TestUpdateRecordStatus_CancelChangesMembership(t *testing.T) {
	env := newTestEnv(t)
	env.employees.Put(testEmployee("emp-2", "E002", "dept-ops"))
	env.attendance.PutPayRegister(payRegister("emp-2", "30"))
	ctx := context.Background()

	r1, err := env.calculate(t, "emp-1")
	require.NoError(t, err)
	r2, err := env.calculate(t, "emp-2")
	require.NoError(t, err)

	_, err = env.svc.UpdateRecordStatus(ctx, payroll.UpdateRecordStatusRequest{ID: r2.ID, Status: payroll.RecordStatusCancelled})
	require.NoError(t, err)

	b := env.batchOf(t, r1)
	assert.Equal(t, []string{r1.ID}, b.EmployeePayrolls)
	assertDec(t, "68000", b.Totals.TotalNetSalary)

	_, err = env.svc.UpdateRecordStatus(ctx, payroll.UpdateRecordStatusRequest{ID: r2.ID, Status: payroll.RecordStatusCalculated})
	require.NoError(t, err)

	b = env.batchOf(t, r1)
	assert.Equal(t, 2, b.Totals.TotalEmployees)
	assertDec(t, "128000", b.Totals.TotalNetSalary)
}

func TestUpdateRecordStatus_CancelInLockedBatch(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rec, err := env.calculate(t, "emp-1")
	require.NoError(t, err)
	b := env.batchOf(t, rec)
	require.NoError(t, b.TransitionTo(batch.StatusApproved, "owner", "", env.now))
	env.saveBatch(t, b)

	_, err = env.svc.UpdateRecordStatus(ctx, payroll.UpdateRecordStatusRequest{ID: rec.ID, Status: payroll.RecordStatusCancelled})
	assert.True(t, errors.Is(err, apperror.ErrBatchLocked))

	stored, err := env.records.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, payroll.RecordStatusCalculated, stored.Status)
}

func TestUpdateRecordStatus_InvalidTransition(t *testing.T) {
	env := newTestEnv(t)

	rec, err := env.calculate(t, "emp-1")
	require.NoError(t, err)

	_, err = env.svc.UpdateRecordStatus(context.Background(), payroll.UpdateRecordStatusRequest{ID: rec.ID, Status: payroll.RecordStatusProcessed})
	var transition *apperror.StateTransitionError
	require.True(t, errors.As(err, &transition))
	assert.Equal(t, "calculated", transition.From)
}

// ========== QUERIES ==========

func TestGetRecord(t *testing.T) {
	env := newTestEnv(t)

	rec, err := env.calculate(t, "emp-1")
	require.NoError(t, err)

	got, err := env.svc.GetRecord(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)

	_, err = env.svc.GetRecord(context.Background(), "not-a-uuid")
	assert.True(t, errors.Is(err, apperror.ErrNotFound))
}

func TestListRecords_ValidatesFilter(t *testing.T) {
	env := newTestEnv(t)

	bad := "June"
	_, err := env.svc.ListRecords(context.Background(), payroll.RecordFilter{Month: &bad})
	assert.True(t, errors.Is(err, apperror.ErrValidation))

	_, err = env.calculate(t, "emp-1")
	require.NoError(t, err)

	month := testMonth
	got, err := env.svc.ListRecords(context.Background(), payroll.RecordFilter{Month: &month})
	require.NoError(t, err)
	assert.Len(t, got, 1)
}
