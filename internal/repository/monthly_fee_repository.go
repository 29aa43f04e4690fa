package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/javedansari81/sunrise-school-management-sub000/internal/models"
)

const monthlyFeeColumns = `id, fee_record_id, month, year, academic_month, monthly_amount, paid_amount, balance_amount, due_date, created_at, updated_at`

// MonthlyFeeRepository reads the per-month fee schedule.
type MonthlyFeeRepository struct {
	db *sqlx.DB
}

// NewMonthlyFeeRepository constructs the repository.
func NewMonthlyFeeRepository(db *sqlx.DB) *MonthlyFeeRepository {
	return &MonthlyFeeRepository{db: db}
}

// ListByRecord returns the full schedule of a fee record in calendar order.
func (r *MonthlyFeeRepository) ListByRecord(ctx context.Context, feeRecordID string) ([]models.MonthlyFee, error) {
	query := fmt.Sprintf(`SELECT %s FROM monthly_fees WHERE fee_record_id = $1 ORDER BY year ASC, month ASC`, monthlyFeeColumns)
	var months []models.MonthlyFee
	if err := r.db.SelectContext(ctx, &months, query, feeRecordID); err != nil {
		return nil, fmt.Errorf("list monthly fees: %w", err)
	}
	return months, nil
}

// ListOutstanding returns months with a positive balance in calendar order.
func (r *MonthlyFeeRepository) ListOutstanding(ctx context.Context, feeRecordID string) ([]models.MonthlyFee, error) {
	query := fmt.Sprintf(`SELECT %s FROM monthly_fees WHERE fee_record_id = $1 AND balance_amount > 0 ORDER BY year ASC, month ASC`, monthlyFeeColumns)
	var months []models.MonthlyFee
	if err := r.db.SelectContext(ctx, &months, query, feeRecordID); err != nil {
		return nil, fmt.Errorf("list outstanding monthly fees: %w", err)
	}
	return months, nil
}

// ListByRecords returns schedules for many records keyed by record id,
// each in calendar order.
func (r *MonthlyFeeRepository) ListByRecords(ctx context.Context, feeRecordIDs []string) (map[string][]models.MonthlyFee, error) {
	result := make(map[string][]models.MonthlyFee, len(feeRecordIDs))
	if len(feeRecordIDs) == 0 {
		return result, nil
	}
	query, args, err := sqlx.In(fmt.Sprintf(`SELECT %s FROM monthly_fees WHERE fee_record_id IN (?) ORDER BY year ASC, month ASC`, monthlyFeeColumns), feeRecordIDs)
	if err != nil {
		return nil, fmt.Errorf("build monthly fees query: %w", err)
	}
	query = r.db.Rebind(query)
	var months []models.MonthlyFee
	if err := r.db.SelectContext(ctx, &months, query, args...); err != nil {
		return nil, fmt.Errorf("list monthly fees by records: %w", err)
	}
	for _, m := range months {
		result[m.FeeRecordID] = append(result[m.FeeRecordID], m)
	}
	return result, nil
}

// CountByRecord returns the number of scheduled months for a record.
func (r *MonthlyFeeRepository) CountByRecord(ctx context.Context, feeRecordID string) (int, error) {
	const query = `SELECT COUNT(*) FROM monthly_fees WHERE fee_record_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, feeRecordID); err != nil {
		return 0, fmt.Errorf("count monthly fees: %w", err)
	}
	return count, nil
}
