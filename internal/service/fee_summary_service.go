package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/javedansari81/sunrise-school-management-sub000/internal/models"
	appErrors "github.com/javedansari81/sunrise-school-management-sub000/pkg/errors"
)

type summaryStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ListActive(ctx context.Context, sessionID, classID string) ([]models.Student, error)
}

type summaryFeeRecordReader interface {
	FindByStudentAndSession(ctx context.Context, studentID, sessionID string) (*models.FeeRecord, error)
	ListBySession(ctx context.Context, sessionID string) (map[string]models.FeeRecord, error)
}

type summaryMonthlyFeeReader interface {
	ListByRecord(ctx context.Context, feeRecordID string) ([]models.MonthlyFee, error)
	ListByRecords(ctx context.Context, feeRecordIDs []string) (map[string][]models.MonthlyFee, error)
}

type summaryCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// FeeSummaryService composes the per-student fee read model. Month states
// are always derived from the primitive amounts and due dates at read
// time; Redis only shortens the path to an identical answer.
type FeeSummaryService struct {
	students summaryStudentReader
	records  summaryFeeRecordReader
	monthly  summaryMonthlyFeeReader
	cache    summaryCache
	cacheTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

// NewFeeSummaryService constructs FeeSummaryService. The cache is optional.
func NewFeeSummaryService(students summaryStudentReader, records summaryFeeRecordReader, monthly summaryMonthlyFeeReader, cache summaryCache, cacheTTL time.Duration, logger *zap.Logger) *FeeSummaryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &FeeSummaryService{
		students: students,
		records:  records,
		monthly:  monthly,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   logger,
		now:      time.Now,
	}
}

// Summarize returns the aggregate fee position of one student with the
// full per-month breakdown.
func (s *FeeSummaryService) Summarize(ctx context.Context, studentID, sessionID string) (*models.FeeSummary, error) {
	key := summaryCacheKey(studentID, sessionID)
	if s.cache != nil {
		var cached models.FeeSummary
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	record, err := s.records.FindByStudentAndSession(ctx, studentID, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fee tracking not enabled for student in session")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee record")
	}

	schedule, err := s.monthly.ListByRecord(ctx, record.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load monthly fees")
	}

	summary := buildSummary(student, record, schedule, s.now(), true)

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, summary, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache fee summary", zap.Error(err))
		}
	}
	return summary, nil
}

// List returns summaries for every active, non-deleted student of a
// session, without the per-month detail.
func (s *FeeSummaryService) List(ctx context.Context, filter models.SummaryFilter) ([]models.FeeSummary, *models.Pagination, error) {
	if filter.SessionID == "" {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, "sessionId is required")
	}

	students, err := s.students.ListActive(ctx, filter.SessionID, filter.ClassID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}

	records, err := s.records.ListBySession(ctx, filter.SessionID)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list fee records")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}

	tracked := make([]models.Student, 0, len(students))
	recordIDs := make([]string, 0, len(students))
	for _, student := range students {
		if record, ok := records[student.ID]; ok {
			tracked = append(tracked, student)
			recordIDs = append(recordIDs, record.ID)
		}
	}

	total := len(tracked)
	start := (page - 1) * size
	if start > total {
		start = total
	}
	end := start + size
	if end > total {
		end = total
	}
	pageStudents := tracked[start:end]
	pageRecordIDs := recordIDs[start:end]

	schedules, err := s.monthly.ListByRecords(ctx, pageRecordIDs)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load monthly fees")
	}

	now := s.now()
	summaries := make([]models.FeeSummary, 0, len(pageStudents))
	for _, student := range pageStudents {
		record := records[student.ID]
		summaries = append(summaries, *buildSummary(&student, &record, schedules[record.ID], now, false))
	}

	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return summaries, pagination, nil
}

func buildSummary(student *models.Student, record *models.FeeRecord, schedule []models.MonthlyFee, now time.Time, includeMonths bool) *models.FeeSummary {
	summary := &models.FeeSummary{
		StudentID:      student.ID,
		StudentName:    student.FullName,
		AdmissionNo:    student.AdmissionNo,
		SessionID:      record.SessionID,
		FeeRecordID:    record.ID,
		TotalAnnualFee: record.TotalAmount,
		TotalPaid:      record.PaidAmount,
		TotalBalance:   record.BalanceAmount,
		ComputedAt:     now.UTC(),
	}

	for _, month := range schedule {
		status := month.Status(now)
		switch status {
		case models.StatusPaid:
			summary.MonthsPaid++
		case models.StatusPartial:
			summary.MonthsPartial++
		case models.StatusOverdue:
			summary.MonthsOverdue++
		default:
			summary.MonthsPending++
		}
		if includeMonths {
			summary.Months = append(summary.Months, models.MonthlyFeeStatus{MonthlyFee: month, StatusLabel: status})
		}
	}

	if record.TotalAmount > 0 {
		pct := float64(record.PaidAmount) * 100 / float64(record.TotalAmount)
		summary.CollectionPercentage = math.Round(pct*100) / 100
	}
	return summary
}

func summaryCacheKey(studentID, sessionID string) string {
	return fmt.Sprintf("fee_summary:%s:%s", studentID, sessionID)
}
