package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/javedansari81/sunrise-school-management-sub000/internal/models"
	"github.com/javedansari81/sunrise-school-management-sub000/pkg/config"
	appErrors "github.com/javedansari81/sunrise-school-management-sub000/pkg/errors"
)

type trackingStudentReader interface {
	ListByIDs(ctx context.Context, ids []string) (map[string]models.Student, error)
}

type structureResolver interface {
	Resolve(ctx context.Context, classID, sessionID string) (*models.FeeStructure, error)
}

type trackingFeeRecordRepository interface {
	EnableTracking(ctx context.Context, record *models.FeeRecord, months []models.MonthlyFee) (created int, recordCreated bool, err error)
}

type summaryInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

type scheduleMetrics interface {
	RecordMonthlyFeesGenerated(count int)
}

// EnableTrackingRequest is the batch payload for enabling monthly tracking.
// StartMonth/StartYear default to the session start for a full year; a
// mid-session enrollment passes the enrollment month so no months are
// generated before it.
type EnableTrackingRequest struct {
	StudentIDs []string `json:"student_ids" validate:"required,min=1,dive,required"`
	SessionID  string   `json:"session_id" validate:"required"`
	StartMonth int      `json:"start_month" validate:"omitempty,min=1,max=12"`
	StartYear  int      `json:"start_year" validate:"omitempty,min=2000,max=2100"`
}

// FeeTrackingService enables monthly fee tracking for batches of students.
type FeeTrackingService struct {
	students   trackingStudentReader
	structures structureResolver
	records    trackingFeeRecordRepository
	cache      summaryInvalidator
	metrics    scheduleMetrics
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        config.FeesConfig
	now        func() time.Time
}

// NewFeeTrackingService constructs FeeTrackingService.
func NewFeeTrackingService(students trackingStudentReader, structures structureResolver, records trackingFeeRecordRepository, cache summaryInvalidator, metrics scheduleMetrics, validate *validator.Validate, logger *zap.Logger, cfg config.FeesConfig) *FeeTrackingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DueDay == 0 {
		cfg.DueDay = 10
	}
	if cfg.SessionStartMonth == 0 {
		cfg.SessionStartMonth = 4
	}
	if cfg.SessionMonths == 0 {
		cfg.SessionMonths = 12
	}
	return &FeeTrackingService{
		students:   students,
		structures: structures,
		records:    records,
		cache:      cache,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		cfg:        cfg,
		now:        time.Now,
	}
}

// EnableTracking processes every student in the batch independently: one
// student's failure (usually a missing fee structure) is reported in that
// student's result and never rolls back the others. Re-running for an
// already enabled student succeeds with zero months created.
func (s *FeeTrackingService) EnableTracking(ctx context.Context, req EnableTrackingRequest) ([]models.EnablementResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enable tracking payload")
	}

	startMonth := req.StartMonth
	if startMonth == 0 {
		startMonth = s.cfg.SessionStartMonth
	}
	startYear := req.StartYear
	if startYear == 0 {
		startYear = s.now().Year()
	}
	count := s.cfg.SessionMonths - academicOrdinal(startMonth, s.cfg.SessionStartMonth) + 1

	students, err := s.students.ListByIDs(ctx, req.StudentIDs)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}

	results := make([]models.EnablementResult, 0, len(req.StudentIDs))
	for _, studentID := range req.StudentIDs {
		results = append(results, s.enableOne(ctx, students, studentID, req.SessionID, startMonth, startYear, count))
	}
	return results, nil
}

func (s *FeeTrackingService) enableOne(ctx context.Context, students map[string]models.Student, studentID, sessionID string, startMonth, startYear, count int) models.EnablementResult {
	result := models.EnablementResult{StudentID: studentID}

	student, ok := students[studentID]
	if !ok {
		result.Message = "student not found"
		return result
	}
	if !student.Eligible() {
		result.Message = "student is inactive or deleted"
		return result
	}

	structure, err := s.structures.Resolve(ctx, student.ClassID, sessionID)
	if err != nil {
		result.Message = err.Error()
		return result
	}

	months := BuildMonthlySchedule(ScheduleParams{
		AnnualFee:         structure.TotalAnnualFee,
		StartMonth:        startMonth,
		StartYear:         startYear,
		Count:             count,
		DueDay:            s.cfg.DueDay,
		SessionStartMonth: s.cfg.SessionStartMonth,
	})

	record := &models.FeeRecord{
		StudentID:      studentID,
		SessionID:      sessionID,
		FeeStructureID: structure.ID,
		TotalAmount:    ScheduleTotal(structure.TotalAnnualFee, count),
	}

	created, recordCreated, err := s.records.EnableTracking(ctx, record, months)
	if err != nil {
		s.logger.Error("failed to enable fee tracking",
			zap.String("student_id", studentID),
			zap.String("session_id", sessionID),
			zap.Error(err))
		result.Message = "failed to enable fee tracking"
		return result
	}

	if s.metrics != nil && created > 0 {
		s.metrics.RecordMonthlyFeesGenerated(created)
	}
	s.invalidateSummary(ctx, studentID)

	result.FeeRecordID = record.ID
	result.RecordCreated = recordCreated
	result.MonthsCreated = created
	result.Success = true
	if created == 0 {
		result.Message = "tracking already enabled"
	}
	return result
}

func (s *FeeTrackingService) invalidateSummary(ctx context.Context, studentID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, fmt.Sprintf("fee_summary:%s:*", studentID)); err != nil {
		s.logger.Warn("failed to invalidate fee summary cache", zap.String("student_id", studentID), zap.Error(err))
	}
}
