package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/javedansari81/sunrise-school-management-sub000/internal/models"
	"github.com/javedansari81/sunrise-school-management-sub000/internal/repository"
	appErrors "github.com/javedansari81/sunrise-school-management-sub000/pkg/errors"
)

type paymentFeeRecordReader interface {
	FindByStudentAndSession(ctx context.Context, studentID, sessionID string) (*models.FeeRecord, error)
	FindByID(ctx context.Context, id string) (*models.FeeRecord, error)
}

type paymentMonthlyFeeReader interface {
	ListByRecord(ctx context.Context, feeRecordID string) ([]models.MonthlyFee, error)
}

type paymentLedger interface {
	Apply(ctx context.Context, txn *models.PaymentTransaction, allocations []models.PaymentAllocation) error
	FindTransaction(ctx context.Context, id string) (*models.PaymentTransaction, error)
	ListAllocations(ctx context.Context, transactionID string) ([]models.AllocationLine, error)
}

type paymentStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type paymentMetrics interface {
	RecordPayment(amount int64)
}

// RecordPaymentRequest is the payload for submitting a payment. Months, if
// supplied, is the explicit ordered list of target months; otherwise the
// payment fills outstanding months in ascending calendar order.
type RecordPaymentRequest struct {
	StudentID string               `json:"student_id" validate:"required"`
	SessionID string               `json:"session_id" validate:"required"`
	Amount    int64                `json:"amount" validate:"required,gt=0"`
	Method    models.PaymentMethod `json:"method" validate:"required,oneof=CASH CHEQUE ONLINE UPI CARD"`
	Months    []models.MonthKey    `json:"months" validate:"omitempty,dive"`
	Reference *string              `json:"reference"`
	Remarks   string               `json:"remarks"`
}

// PaymentService accepts payments and splits them across monthly fees.
type PaymentService struct {
	records   paymentFeeRecordReader
	monthly   paymentMonthlyFeeReader
	ledger    paymentLedger
	students  paymentStudentReader
	cache     summaryInvalidator
	metrics   paymentMetrics
	validator *validator.Validate
	logger    *zap.Logger
}

// NewPaymentService constructs PaymentService.
func NewPaymentService(records paymentFeeRecordReader, monthly paymentMonthlyFeeReader, ledger paymentLedger, students paymentStudentReader, cache summaryInvalidator, metrics paymentMetrics, validate *validator.Validate, logger *zap.Logger) *PaymentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentService{
		records:   records,
		monthly:   monthly,
		ledger:    ledger,
		students:  students,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
	}
}

// RecordPayment validates, allocates and persists a payment as one atomic
// unit. Explicit months must all carry an open balance: naming a settled
// month rejects the whole request before any mutation, identifying the
// offending months. Whatever cannot be placed on any target month is
// returned as RemainingUnallocated, never silently dropped.
func (s *PaymentService) RecordPayment(ctx context.Context, req RecordPaymentRequest) (*models.PaymentResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid payment payload")
	}

	record, err := s.records.FindByStudentAndSession(ctx, req.StudentID, req.SessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "fee record not found; enable tracking first")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee record")
	}

	schedule, err := s.monthly.ListByRecord(ctx, record.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load monthly fees")
	}

	targets, err := selectTargets(schedule, req.Months)
	if err != nil {
		return nil, err
	}

	remaining := req.Amount
	allocations := make([]models.PaymentAllocation, 0, len(targets))
	breakdown := make([]models.AllocationLine, 0, len(targets))
	for _, month := range targets {
		if remaining == 0 {
			break
		}
		amount := month.BalanceAmount
		if remaining < amount {
			amount = remaining
		}
		allocations = append(allocations, models.PaymentAllocation{
			MonthlyFeeID:    month.ID,
			AllocatedAmount: amount,
		})
		breakdown = append(breakdown, models.AllocationLine{
			MonthlyFeeID:    month.ID,
			Month:           month.Month,
			Year:            month.Year,
			AllocatedAmount: amount,
			BalanceAfter:    month.BalanceAmount - amount,
		})
		remaining -= amount
	}

	if len(allocations) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "no outstanding months to allocate the payment against")
	}

	txn := &models.PaymentTransaction{
		FeeRecordID: record.ID,
		Amount:      req.Amount,
		Method:      req.Method,
		Reference:   req.Reference,
		Remarks:     req.Remarks,
	}
	if err := s.ledger.Apply(ctx, txn, allocations); err != nil {
		if errors.Is(err, repository.ErrStaleBalance) {
			return nil, appErrors.Clone(appErrors.ErrConcurrencyConflict, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record payment")
	}

	allocatedTotal := req.Amount - remaining
	if s.metrics != nil {
		s.metrics.RecordPayment(allocatedTotal)
	}
	s.invalidateSummary(ctx, req.StudentID)

	if remaining > 0 {
		s.logger.Info("payment partially unallocated",
			zap.String("transaction_id", txn.ID),
			zap.Int64("remaining", remaining))
	}

	return &models.PaymentResult{
		TransactionID:        txn.ID,
		AllocatedTotal:       allocatedTotal,
		RemainingUnallocated: remaining,
		Breakdown:            breakdown,
	}, nil
}

// Receipt returns the transaction, its allocation lines and student context
// for receipt rendering.
func (s *PaymentService) Receipt(ctx context.Context, transactionID string) (*models.ReceiptDetail, error) {
	txn, err := s.ledger.FindTransaction(ctx, transactionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "payment transaction not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load transaction")
	}

	lines, err := s.ledger.ListAllocations(ctx, transactionID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load allocations")
	}

	detail := &models.ReceiptDetail{Transaction: *txn, Lines: lines}

	record, err := s.records.FindByID(ctx, txn.FeeRecordID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load fee record")
	}
	detail.SessionID = record.SessionID

	student, err := s.students.FindByID(ctx, record.StudentID)
	if err == nil {
		detail.StudentName = student.FullName
		detail.AdmissionNo = student.AdmissionNo
	}

	return detail, nil
}

// selectTargets picks the months a payment may settle, in order. With
// explicit months the caller's order wins and every named month must have
// an open balance; otherwise all outstanding months qualify in ascending
// calendar order. The schedule is expected in calendar order already.
func selectTargets(schedule []models.MonthlyFee, explicit []models.MonthKey) ([]models.MonthlyFee, error) {
	if len(explicit) == 0 {
		outstanding := make([]models.MonthlyFee, 0, len(schedule))
		for _, m := range schedule {
			if m.BalanceAmount > 0 {
				outstanding = append(outstanding, m)
			}
		}
		return outstanding, nil
	}

	byKey := make(map[models.MonthKey]models.MonthlyFee, len(schedule))
	for _, m := range schedule {
		byKey[models.MonthKey{Month: m.Month, Year: m.Year}] = m
	}

	var unknown, settled []string
	targets := make([]models.MonthlyFee, 0, len(explicit))
	seen := make(map[models.MonthKey]bool, len(explicit))
	for _, key := range explicit {
		if seen[key] {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("month %s listed twice", models.MonthLabel(key.Month, key.Year)))
		}
		seen[key] = true
		month, ok := byKey[key]
		if !ok {
			unknown = append(unknown, models.MonthLabel(key.Month, key.Year))
			continue
		}
		if month.BalanceAmount <= 0 {
			settled = append(settled, month.Label())
			continue
		}
		targets = append(targets, month)
	}

	if len(unknown) > 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("months not in fee schedule: %s", strings.Join(unknown, ", ")))
	}
	if len(settled) > 0 {
		return nil, appErrors.Clone(appErrors.ErrDuplicatePayment, fmt.Sprintf("months already fully paid: %s", strings.Join(settled, ", ")))
	}
	return targets, nil
}

func (s *PaymentService) invalidateSummary(ctx context.Context, studentID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, fmt.Sprintf("fee_summary:%s:*", studentID)); err != nil {
		s.logger.Warn("failed to invalidate fee summary cache", zap.String("student_id", studentID), zap.Error(err))
	}
}
