package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javedansari81/sunrise-school-management-sub000/internal/models"
	appErrors "github.com/javedansari81/sunrise-school-management-sub000/pkg/errors"
)

type mockSummaryStudents struct {
	students map[string]models.Student
	active   []models.Student
}

func (m *mockSummaryStudents) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSummaryStudents) ListActive(ctx context.Context, sessionID, classID string) ([]models.Student, error) {
	return m.active, nil
}

type mockSummaryRecords struct {
	records map[string]models.FeeRecord
}

func (m *mockSummaryRecords) FindByStudentAndSession(ctx context.Context, studentID, sessionID string) (*models.FeeRecord, error) {
	if r, ok := m.records[studentID]; ok {
		return &r, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSummaryRecords) ListBySession(ctx context.Context, sessionID string) (map[string]models.FeeRecord, error) {
	return m.records, nil
}

type mockSummaryMonthly struct {
	schedules map[string][]models.MonthlyFee
	listCalls int
}

func (m *mockSummaryMonthly) ListByRecord(ctx context.Context, feeRecordID string) ([]models.MonthlyFee, error) {
	m.listCalls++
	return m.schedules[feeRecordID], nil
}

func (m *mockSummaryMonthly) ListByRecords(ctx context.Context, feeRecordIDs []string) (map[string][]models.MonthlyFee, error) {
	result := make(map[string][]models.MonthlyFee)
	for _, id := range feeRecordIDs {
		result[id] = m.schedules[id]
	}
	return result, nil
}

type mockSummaryCache struct {
	entries map[string][]byte
	sets    []string
}

func (m *mockSummaryCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *mockSummaryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if m.entries == nil {
		m.entries = make(map[string][]byte)
	}
	m.entries[key] = raw
	m.sets = append(m.sets, key)
	return nil
}

func summaryFixture() (*mockSummaryStudents, *mockSummaryRecords, *mockSummaryMonthly) {
	due := func(month, year int) time.Time {
		return time.Date(year, time.Month(month), 10, 0, 0, 0, 0, time.UTC)
	}
	students := &mockSummaryStudents{students: map[string]models.Student{
		"student-1": {ID: "student-1", FullName: "Asha Verma", AdmissionNo: "ADM-7", ClassID: "class-5", Active: true},
	}}
	records := &mockSummaryRecords{records: map[string]models.FeeRecord{
		"student-1": {
			ID:            "rec-1",
			StudentID:     "student-1",
			SessionID:     "session-2025",
			TotalAmount:   4000,
			PaidAmount:    1500,
			BalanceAmount: 2500,
		},
	}}
	monthly := &mockSummaryMonthly{schedules: map[string][]models.MonthlyFee{
		"rec-1": {
			{Month: 4, Year: 2025, MonthlyAmount: 1000, PaidAmount: 1000, BalanceAmount: 0, DueDate: due(4, 2025)},
			{Month: 5, Year: 2025, MonthlyAmount: 1000, PaidAmount: 500, BalanceAmount: 500, DueDate: due(5, 2025)},
			{Month: 6, Year: 2025, MonthlyAmount: 1000, PaidAmount: 0, BalanceAmount: 1000, DueDate: due(6, 2025)},
			{Month: 7, Year: 2025, MonthlyAmount: 1000, PaidAmount: 0, BalanceAmount: 1000, DueDate: due(7, 2025)},
		},
	}}
	return students, records, monthly
}

func TestSummarizeDerivesStatusCounts(t *testing.T) {
	students, records, monthly := summaryFixture()
	svc := NewFeeSummaryService(students, records, monthly, nil, time.Minute, nil)
	svc.now = func() time.Time { return time.Date(2025, time.June, 20, 12, 0, 0, 0, time.UTC) }

	summary, err := svc.Summarize(context.Background(), "student-1", "session-2025")
	require.NoError(t, err)

	assert.Equal(t, "Asha Verma", summary.StudentName)
	assert.Equal(t, int64(4000), summary.TotalAnnualFee)
	assert.Equal(t, int64(1500), summary.TotalPaid)
	assert.Equal(t, int64(2500), summary.TotalBalance)

	// As of 20 June: April paid, May partially paid but past due (overdue),
	// June unpaid past due (overdue), July still pending.
	assert.Equal(t, 1, summary.MonthsPaid)
	assert.Equal(t, 0, summary.MonthsPartial)
	assert.Equal(t, 2, summary.MonthsOverdue)
	assert.Equal(t, 1, summary.MonthsPending)
	assert.InDelta(t, 37.5, summary.CollectionPercentage, 0.001)
	require.Len(t, summary.Months, 4)
	assert.Equal(t, models.StatusPaid, summary.Months[0].StatusLabel)
	assert.Equal(t, models.StatusOverdue, summary.Months[1].StatusLabel)
	assert.Equal(t, models.StatusPending, summary.Months[3].StatusLabel)
}

func TestSummarizeUsesCache(t *testing.T) {
	students, records, monthly := summaryFixture()
	cache := &mockSummaryCache{}
	svc := NewFeeSummaryService(students, records, monthly, cache, time.Minute, nil)
	svc.now = func() time.Time { return time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC) }

	first, err := svc.Summarize(context.Background(), "student-1", "session-2025")
	require.NoError(t, err)
	require.Len(t, cache.sets, 1)
	assert.Equal(t, "fee_summary:student-1:session-2025", cache.sets[0])
	assert.Equal(t, 1, monthly.listCalls)

	second, err := svc.Summarize(context.Background(), "student-1", "session-2025")
	require.NoError(t, err)
	assert.Equal(t, 1, monthly.listCalls, "second read should be served from cache")
	assert.Equal(t, first.TotalBalance, second.TotalBalance)
}

func TestSummarizeNotFound(t *testing.T) {
	students, records, monthly := summaryFixture()
	svc := NewFeeSummaryService(students, records, monthly, nil, time.Minute, nil)

	_, err := svc.Summarize(context.Background(), "ghost", "session-2025")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Equal(t, "student not found", appErr.Message)

	delete(records.records, "student-1")
	_, err = svc.Summarize(context.Background(), "student-1", "session-2025")
	require.Error(t, err)
	appErr = appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "tracking not enabled")
}

func TestListSummariesSkipsUntrackedStudents(t *testing.T) {
	students, records, monthly := summaryFixture()
	students.active = []models.Student{
		{ID: "student-1", FullName: "Asha Verma", Active: true},
		{ID: "student-2", FullName: "Rohan Gupta", Active: true}, // no fee record
	}
	svc := NewFeeSummaryService(students, records, monthly, nil, time.Minute, nil)
	svc.now = func() time.Time { return time.Date(2025, time.April, 1, 0, 0, 0, 0, time.UTC) }

	summaries, pagination, err := svc.List(context.Background(), models.SummaryFilter{SessionID: "session-2025"})
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "student-1", summaries[0].StudentID)
	assert.Empty(t, summaries[0].Months, "bulk listing omits the month breakdown")
	assert.Equal(t, 1, pagination.TotalCount)
	assert.Equal(t, 1, pagination.Page)
}

func TestListSummariesPagination(t *testing.T) {
	students, records, monthly := summaryFixture()
	students.active = nil
	records.records = make(map[string]models.FeeRecord)
	for i := 0; i < 25; i++ {
		studentID := fmt.Sprintf("student-%02d", i)
		students.active = append(students.active, models.Student{ID: studentID, Active: true})
		records.records[studentID] = models.FeeRecord{ID: "rec-" + studentID, StudentID: studentID, SessionID: "session-2025", TotalAmount: 1000, BalanceAmount: 1000}
	}
	svc := NewFeeSummaryService(students, records, monthly, nil, time.Minute, nil)

	summaries, pagination, err := svc.List(context.Background(), models.SummaryFilter{SessionID: "session-2025", Page: 2, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, summaries, 10)
	assert.Equal(t, 25, pagination.TotalCount)
	assert.Equal(t, 2, pagination.Page)

	summaries, _, err = svc.List(context.Background(), models.SummaryFilter{SessionID: "session-2025", Page: 3, PageSize: 10})
	require.NoError(t, err)
	assert.Len(t, summaries, 5)
}

func TestListSummariesRequiresSession(t *testing.T) {
	students, records, monthly := summaryFixture()
	svc := NewFeeSummaryService(students, records, monthly, nil, time.Minute, nil)

	_, _, err := svc.List(context.Background(), models.SummaryFilter{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
