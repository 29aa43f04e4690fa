package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/javedansari81/sunrise-school-management-sub000/internal/models"
)

const feeRecordColumns = `id, student_id, session_id, fee_structure_id, total_amount, paid_amount, balance_amount, tracking_enabled, created_at, updated_at`

// FeeRecordRepository handles persistence of per-student fee records.
type FeeRecordRepository struct {
	db *sqlx.DB
}

// NewFeeRecordRepository constructs the repository.
func NewFeeRecordRepository(db *sqlx.DB) *FeeRecordRepository {
	return &FeeRecordRepository{db: db}
}

// FindByID returns a fee record by identifier.
func (r *FeeRecordRepository) FindByID(ctx context.Context, id string) (*models.FeeRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM fee_records WHERE id = $1`, feeRecordColumns)
	var record models.FeeRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByStudentAndSession returns the fee record for a student in a session.
func (r *FeeRecordRepository) FindByStudentAndSession(ctx context.Context, studentID, sessionID string) (*models.FeeRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM fee_records WHERE student_id = $1 AND session_id = $2`, feeRecordColumns)
	var record models.FeeRecord
	if err := r.db.GetContext(ctx, &record, query, studentID, sessionID); err != nil {
		return nil, err
	}
	return &record, nil
}

// ListBySession returns fee records for a session keyed by student id.
func (r *FeeRecordRepository) ListBySession(ctx context.Context, sessionID string) (map[string]models.FeeRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM fee_records WHERE session_id = $1`, feeRecordColumns)
	var records []models.FeeRecord
	if err := r.db.SelectContext(ctx, &records, query, sessionID); err != nil {
		return nil, fmt.Errorf("list fee records: %w", err)
	}
	result := make(map[string]models.FeeRecord, len(records))
	for _, rec := range records {
		result[rec.StudentID] = rec
	}
	return result, nil
}

// EnableTracking creates or re-enables the fee record and inserts the
// monthly schedule in one transaction. Months that already exist are
// skipped via the uniqueness constraint on (fee_record_id, month, year),
// which makes the operation idempotent and safe under concurrent callers.
// The returned count covers only rows actually inserted.
func (r *FeeRecordRepository) EnableTracking(ctx context.Context, record *models.FeeRecord, months []models.MonthlyFee) (created int, recordCreated bool, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("begin enable tracking: %w", err)
	}

	now := time.Now().UTC()

	var existing models.FeeRecord
	findQuery := fmt.Sprintf(`SELECT %s FROM fee_records WHERE student_id = $1 AND session_id = $2 FOR UPDATE`, feeRecordColumns)
	switch err = tx.GetContext(ctx, &existing, findQuery, record.StudentID, record.SessionID); err {
	case nil:
		// Re-enabling keeps the snapshotted totals untouched.
		record.ID = existing.ID
		record.FeeStructureID = existing.FeeStructureID
		record.TotalAmount = existing.TotalAmount
		record.PaidAmount = existing.PaidAmount
		record.BalanceAmount = existing.BalanceAmount
		record.TrackingEnabled = true
		if _, err = tx.ExecContext(ctx, `UPDATE fee_records SET tracking_enabled = TRUE, updated_at = $2 WHERE id = $1`, existing.ID, now); err != nil {
			tx.Rollback() //nolint:errcheck
			return 0, false, fmt.Errorf("re-enable fee record: %w", err)
		}
	case sql.ErrNoRows:
		if record.ID == "" {
			record.ID = uuid.NewString()
		}
		record.TrackingEnabled = true
		record.BalanceAmount = record.TotalAmount - record.PaidAmount
		record.CreatedAt = now
		record.UpdatedAt = now
		const insertQuery = `INSERT INTO fee_records (id, student_id, session_id, fee_structure_id, total_amount, paid_amount, balance_amount, tracking_enabled, created_at, updated_at)
        VALUES (:id, :student_id, :session_id, :fee_structure_id, :total_amount, :paid_amount, :balance_amount, :tracking_enabled, :created_at, :updated_at)`
		if _, err = tx.NamedExecContext(ctx, insertQuery, record); err != nil {
			tx.Rollback() //nolint:errcheck
			return 0, false, fmt.Errorf("create fee record: %w", err)
		}
		recordCreated = true
	default:
		tx.Rollback() //nolint:errcheck
		return 0, false, fmt.Errorf("find fee record: %w", err)
	}

	const monthQuery = `INSERT INTO monthly_fees (id, fee_record_id, month, year, academic_month, monthly_amount, paid_amount, balance_amount, due_date, created_at, updated_at)
        VALUES (:id, :fee_record_id, :month, :year, :academic_month, :monthly_amount, :paid_amount, :balance_amount, :due_date, :created_at, :updated_at)
        ON CONFLICT (fee_record_id, month, year) DO NOTHING`
	for i := range months {
		months[i].ID = uuid.NewString()
		months[i].FeeRecordID = record.ID
		months[i].PaidAmount = 0
		months[i].BalanceAmount = months[i].MonthlyAmount
		months[i].CreatedAt = now
		months[i].UpdatedAt = now
		res, execErr := tx.NamedExecContext(ctx, monthQuery, months[i])
		if execErr != nil {
			tx.Rollback() //nolint:errcheck
			return 0, false, fmt.Errorf("insert monthly fee %d/%d: %w", months[i].Month, months[i].Year, execErr)
		}
		affected, _ := res.RowsAffected()
		created += int(affected)
	}

	if err = tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("commit enable tracking: %w", err)
	}
	return created, recordCreated, nil
}
