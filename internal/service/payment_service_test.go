package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javedansari81/sunrise-school-management-sub000/internal/models"
	"github.com/javedansari81/sunrise-school-management-sub000/internal/repository"
	appErrors "github.com/javedansari81/sunrise-school-management-sub000/pkg/errors"
)

type mockFeeRecordReader struct {
	records map[string]models.FeeRecord
}

func (m *mockFeeRecordReader) FindByStudentAndSession(ctx context.Context, studentID, sessionID string) (*models.FeeRecord, error) {
	if r, ok := m.records[studentID+"/"+sessionID]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockFeeRecordReader) FindByID(ctx context.Context, id string) (*models.FeeRecord, error) {
	for _, r := range m.records {
		if r.ID == id {
			return &r, nil
		}
	}
	return nil, sql.ErrNoRows
}

type mockMonthlyFeeReader struct {
	schedules map[string][]models.MonthlyFee
}

func (m *mockMonthlyFeeReader) ListByRecord(ctx context.Context, feeRecordID string) ([]models.MonthlyFee, error) {
	return m.schedules[feeRecordID], nil
}

type mockLedger struct {
	applied      []models.PaymentAllocation
	appliedTxn   *models.PaymentTransaction
	applyErr     error
	transactions map[string]models.PaymentTransaction
	allocations  map[string][]models.AllocationLine
}

func (m *mockLedger) Apply(ctx context.Context, txn *models.PaymentTransaction, allocations []models.PaymentAllocation) error {
	if m.applyErr != nil {
		return m.applyErr
	}
	txn.ID = "txn-1"
	m.appliedTxn = txn
	m.applied = allocations
	return nil
}

func (m *mockLedger) FindTransaction(ctx context.Context, id string) (*models.PaymentTransaction, error) {
	if txn, ok := m.transactions[id]; ok {
		return &txn, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockLedger) ListAllocations(ctx context.Context, transactionID string) ([]models.AllocationLine, error) {
	return m.allocations[transactionID], nil
}

type mockPaymentStudents struct {
	students map[string]models.Student
}

func (m *mockPaymentStudents) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

type mockInvalidator struct {
	patterns []string
}

func (m *mockInvalidator) DeleteByPattern(ctx context.Context, pattern string) error {
	m.patterns = append(m.patterns, pattern)
	return nil
}

type mockPaymentMetrics struct {
	amounts []int64
}

func (m *mockPaymentMetrics) RecordPayment(amount int64) {
	m.amounts = append(m.amounts, amount)
}

func paymentFixture() (*mockFeeRecordReader, *mockMonthlyFeeReader, *mockLedger, *mockInvalidator, *mockPaymentMetrics) {
	due := func(month int) time.Time {
		return time.Date(2025, time.Month(month), 10, 0, 0, 0, 0, time.UTC)
	}
	records := &mockFeeRecordReader{records: map[string]models.FeeRecord{
		"student-1/session-2025": {
			ID:            "rec-1",
			StudentID:     "student-1",
			SessionID:     "session-2025",
			TotalAmount:   3000,
			PaidAmount:    1000,
			BalanceAmount: 2000,
		},
	}}
	monthly := &mockMonthlyFeeReader{schedules: map[string][]models.MonthlyFee{
		"rec-1": {
			{ID: "mf-apr", Month: 4, Year: 2025, MonthlyAmount: 1000, PaidAmount: 1000, BalanceAmount: 0, DueDate: due(4)},
			{ID: "mf-may", Month: 5, Year: 2025, MonthlyAmount: 1000, PaidAmount: 0, BalanceAmount: 1000, DueDate: due(5)},
			{ID: "mf-jun", Month: 6, Year: 2025, MonthlyAmount: 1000, PaidAmount: 0, BalanceAmount: 1000, DueDate: due(6)},
		},
	}}
	return records, monthly, &mockLedger{}, &mockInvalidator{}, &mockPaymentMetrics{}
}

func TestRecordPaymentAllocatesOldestFirst(t *testing.T) {
	records, monthly, ledger, invalidator, metrics := paymentFixture()
	svc := NewPaymentService(records, monthly, ledger, &mockPaymentStudents{}, invalidator, metrics, nil, nil)

	result, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
		StudentID: "student-1",
		SessionID: "session-2025",
		Amount:    1500,
		Method:    models.MethodCash,
	})
	require.NoError(t, err)

	// May settles fully, June gets the remainder.
	require.Len(t, ledger.applied, 2)
	assert.Equal(t, "mf-may", ledger.applied[0].MonthlyFeeID)
	assert.Equal(t, int64(1000), ledger.applied[0].AllocatedAmount)
	assert.Equal(t, "mf-jun", ledger.applied[1].MonthlyFeeID)
	assert.Equal(t, int64(500), ledger.applied[1].AllocatedAmount)

	assert.Equal(t, "txn-1", result.TransactionID)
	assert.Equal(t, int64(1500), result.AllocatedTotal)
	assert.Equal(t, int64(0), result.RemainingUnallocated)
	require.Len(t, result.Breakdown, 2)
	assert.Equal(t, int64(0), result.Breakdown[0].BalanceAfter)
	assert.Equal(t, int64(500), result.Breakdown[1].BalanceAfter)

	assert.Equal(t, []int64{1500}, metrics.amounts)
	require.Len(t, invalidator.patterns, 1)
	assert.Equal(t, "fee_summary:student-1:*", invalidator.patterns[0])
}

func TestRecordPaymentReportsUnallocatedRemainder(t *testing.T) {
	records, monthly, ledger, invalidator, metrics := paymentFixture()
	svc := NewPaymentService(records, monthly, ledger, &mockPaymentStudents{}, invalidator, metrics, nil, nil)

	result, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
		StudentID: "student-1",
		SessionID: "session-2025",
		Amount:    2500,
		Method:    models.MethodUPI,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(2000), result.AllocatedTotal)
	assert.Equal(t, int64(500), result.RemainingUnallocated)
	assert.Equal(t, []int64{2000}, metrics.amounts)
}

func TestRecordPaymentExplicitMonths(t *testing.T) {
	records, monthly, ledger, invalidator, metrics := paymentFixture()
	svc := NewPaymentService(records, monthly, ledger, &mockPaymentStudents{}, invalidator, metrics, nil, nil)

	result, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
		StudentID: "student-1",
		SessionID: "session-2025",
		Amount:    800,
		Method:    models.MethodOnline,
		Months:    []models.MonthKey{{Month: 6, Year: 2025}},
	})
	require.NoError(t, err)

	require.Len(t, ledger.applied, 1)
	assert.Equal(t, "mf-jun", ledger.applied[0].MonthlyFeeID)
	assert.Equal(t, int64(800), ledger.applied[0].AllocatedAmount)
	assert.Equal(t, int64(0), result.RemainingUnallocated)
}

func TestRecordPaymentRejectsSettledMonth(t *testing.T) {
	records, monthly, ledger, invalidator, metrics := paymentFixture()
	svc := NewPaymentService(records, monthly, ledger, &mockPaymentStudents{}, invalidator, metrics, nil, nil)

	_, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
		StudentID: "student-1",
		SessionID: "session-2025",
		Amount:    500,
		Method:    models.MethodCash,
		Months:    []models.MonthKey{{Month: 4, Year: 2025}, {Month: 5, Year: 2025}},
	})
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrDuplicatePayment.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "April 2025")
	// Nothing was written.
	assert.Nil(t, ledger.applied)
	assert.Empty(t, metrics.amounts)
	assert.Empty(t, invalidator.patterns)
}

func TestRecordPaymentRejectsUnknownMonth(t *testing.T) {
	records, monthly, ledger, invalidator, metrics := paymentFixture()
	svc := NewPaymentService(records, monthly, ledger, &mockPaymentStudents{}, invalidator, metrics, nil, nil)

	_, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
		StudentID: "student-1",
		SessionID: "session-2025",
		Amount:    500,
		Method:    models.MethodCash,
		Months:    []models.MonthKey{{Month: 12, Year: 2030}},
	})
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "December 2030")
}

func TestRecordPaymentRejectsDuplicateMonthInRequest(t *testing.T) {
	records, monthly, ledger, invalidator, metrics := paymentFixture()
	svc := NewPaymentService(records, monthly, ledger, &mockPaymentStudents{}, invalidator, metrics, nil, nil)

	_, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
		StudentID: "student-1",
		SessionID: "session-2025",
		Amount:    500,
		Method:    models.MethodCash,
		Months:    []models.MonthKey{{Month: 5, Year: 2025}, {Month: 5, Year: 2025}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRecordPaymentNoOutstandingMonths(t *testing.T) {
	records, monthly, ledger, invalidator, metrics := paymentFixture()
	monthly.schedules["rec-1"] = []models.MonthlyFee{
		{ID: "mf-apr", Month: 4, Year: 2025, MonthlyAmount: 1000, PaidAmount: 1000, BalanceAmount: 0},
	}
	svc := NewPaymentService(records, monthly, ledger, &mockPaymentStudents{}, invalidator, metrics, nil, nil)

	_, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
		StudentID: "student-1",
		SessionID: "session-2025",
		Amount:    500,
		Method:    models.MethodCash,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestRecordPaymentMissingFeeRecord(t *testing.T) {
	records, monthly, ledger, invalidator, metrics := paymentFixture()
	svc := NewPaymentService(records, monthly, ledger, &mockPaymentStudents{}, invalidator, metrics, nil, nil)

	_, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
		StudentID: "student-2",
		SessionID: "session-2025",
		Amount:    500,
		Method:    models.MethodCash,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestRecordPaymentValidation(t *testing.T) {
	records, monthly, ledger, invalidator, metrics := paymentFixture()
	svc := NewPaymentService(records, monthly, ledger, &mockPaymentStudents{}, invalidator, metrics, nil, nil)

	cases := []RecordPaymentRequest{
		{SessionID: "session-2025", Amount: 500, Method: models.MethodCash},
		{StudentID: "student-1", SessionID: "session-2025", Amount: 0, Method: models.MethodCash},
		{StudentID: "student-1", SessionID: "session-2025", Amount: -100, Method: models.MethodCash},
		{StudentID: "student-1", SessionID: "session-2025", Amount: 500, Method: "BARTER"},
	}
	for _, req := range cases {
		_, err := svc.RecordPayment(context.Background(), req)
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}
}

func TestRecordPaymentConcurrencyConflict(t *testing.T) {
	records, monthly, ledger, invalidator, metrics := paymentFixture()
	ledger.applyErr = repository.ErrStaleBalance
	svc := NewPaymentService(records, monthly, ledger, &mockPaymentStudents{}, invalidator, metrics, nil, nil)

	_, err := svc.RecordPayment(context.Background(), RecordPaymentRequest{
		StudentID: "student-1",
		SessionID: "session-2025",
		Amount:    500,
		Method:    models.MethodCash,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConcurrencyConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, metrics.amounts)
	assert.Empty(t, invalidator.patterns)
}

func TestReceipt(t *testing.T) {
	records, monthly, ledger, invalidator, metrics := paymentFixture()
	ref := "CHQ-42"
	ledger.transactions = map[string]models.PaymentTransaction{
		"txn-1": {ID: "txn-1", FeeRecordID: "rec-1", Amount: 1500, Method: models.MethodCheque, Reference: &ref},
	}
	ledger.allocations = map[string][]models.AllocationLine{
		"txn-1": {{MonthlyFeeID: "mf-may", Month: 5, Year: 2025, AllocatedAmount: 1000}},
	}
	students := &mockPaymentStudents{students: map[string]models.Student{
		"student-1": {ID: "student-1", FullName: "Asha Verma", AdmissionNo: "ADM-7"},
	}}
	svc := NewPaymentService(records, monthly, ledger, students, invalidator, metrics, nil, nil)

	detail, err := svc.Receipt(context.Background(), "txn-1")
	require.NoError(t, err)
	assert.Equal(t, "Asha Verma", detail.StudentName)
	assert.Equal(t, "ADM-7", detail.AdmissionNo)
	assert.Equal(t, "session-2025", detail.SessionID)
	require.Len(t, detail.Lines, 1)

	_, err = svc.Receipt(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
