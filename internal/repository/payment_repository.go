package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/javedansari81/sunrise-school-management-sub000/internal/models"
)

// ErrStaleBalance reports that a guarded balance update matched no row,
// meaning a concurrent payment consumed the balance first. The whole
// transaction is rolled back and the caller may retry.
var ErrStaleBalance = errors.New("balance changed concurrently")

// PaymentRepository persists the payment ledger.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository constructs the repository.
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Apply writes a payment transaction, its allocations and the matching
// balance updates as one atomic unit. Every monthly fee update is guarded
// by its current balance: if any guard fails (a concurrent payment got
// there first) the whole transaction rolls back with ErrStaleBalance and
// no partial payment is left behind.
func (r *PaymentRepository) Apply(ctx context.Context, txn *models.PaymentTransaction, allocations []models.PaymentAllocation) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin payment: %w", err)
	}

	now := time.Now().UTC()
	if txn.ID == "" {
		txn.ID = uuid.NewString()
	}
	if txn.PaidAt.IsZero() {
		txn.PaidAt = now
	}
	txn.CreatedAt = now

	const txnQuery = `INSERT INTO payment_transactions (id, fee_record_id, amount, method, reference, remarks, paid_at, created_at)
        VALUES (:id, :fee_record_id, :amount, :method, :reference, :remarks, :paid_at, :created_at)`
	if _, err = tx.NamedExecContext(ctx, txnQuery, txn); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("insert payment transaction: %w", err)
	}

	const allocQuery = `INSERT INTO payment_allocations (id, transaction_id, monthly_fee_id, allocated_amount, created_at)
        VALUES (:id, :transaction_id, :monthly_fee_id, :allocated_amount, :created_at)`
	const monthQuery = `UPDATE monthly_fees
        SET paid_amount = paid_amount + $2, balance_amount = balance_amount - $2, updated_at = $3
        WHERE id = $1 AND balance_amount >= $2`

	var allocatedTotal int64
	for i := range allocations {
		allocations[i].ID = uuid.NewString()
		allocations[i].TransactionID = txn.ID
		allocations[i].CreatedAt = now
		if _, err = tx.NamedExecContext(ctx, allocQuery, allocations[i]); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("insert payment allocation: %w", err)
		}
		res, execErr := tx.ExecContext(ctx, monthQuery, allocations[i].MonthlyFeeID, allocations[i].AllocatedAmount, now)
		if execErr != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("apply allocation to monthly fee: %w", execErr)
		}
		affected, _ := res.RowsAffected()
		if affected == 0 {
			tx.Rollback() //nolint:errcheck
			return ErrStaleBalance
		}
		allocatedTotal += allocations[i].AllocatedAmount
	}

	if allocatedTotal > 0 {
		const recordQuery = `UPDATE fee_records
            SET paid_amount = paid_amount + $2, balance_amount = balance_amount - $2, updated_at = $3
            WHERE id = $1 AND balance_amount >= $2`
		res, execErr := tx.ExecContext(ctx, recordQuery, txn.FeeRecordID, allocatedTotal, now)
		if execErr != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("apply payment to fee record: %w", execErr)
		}
		affected, _ := res.RowsAffected()
		if affected == 0 {
			tx.Rollback() //nolint:errcheck
			return ErrStaleBalance
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit payment: %w", err)
	}
	return nil
}

// FindTransaction returns a payment transaction by identifier.
func (r *PaymentRepository) FindTransaction(ctx context.Context, id string) (*models.PaymentTransaction, error) {
	const query = `SELECT id, fee_record_id, amount, method, reference, remarks, paid_at, created_at FROM payment_transactions WHERE id = $1`
	var txn models.PaymentTransaction
	if err := r.db.GetContext(ctx, &txn, query, id); err != nil {
		return nil, err
	}
	return &txn, nil
}

// ListAllocations returns the allocation lines of a transaction together
// with the month they settled, in calendar order.
func (r *PaymentRepository) ListAllocations(ctx context.Context, transactionID string) ([]models.AllocationLine, error) {
	const query = `SELECT a.monthly_fee_id, m.month, m.year, a.allocated_amount, m.balance_amount AS balance_after
        FROM payment_allocations a
        JOIN monthly_fees m ON m.id = a.monthly_fee_id
        WHERE a.transaction_id = $1
        ORDER BY m.year ASC, m.month ASC`
	var lines []models.AllocationLine
	if err := r.db.SelectContext(ctx, &lines, query, transactionID); err != nil {
		return nil, fmt.Errorf("list payment allocations: %w", err)
	}
	return lines, nil
}

// ListBySession returns the collection ledger of a session for reporting,
// excluding soft-deleted and inactive students.
func (r *PaymentRepository) ListBySession(ctx context.Context, sessionID, classID string) ([]models.CollectionEntry, error) {
	query := `SELECT t.id AS transaction_id, s.full_name AS student_name, s.admission_no, s.class_id, t.amount, t.method, t.reference, t.paid_at
        FROM payment_transactions t
        JOIN fee_records r ON r.id = t.fee_record_id
        JOIN students s ON s.id = r.student_id
        WHERE r.session_id = $1 AND s.active = TRUE AND s.deleted_at IS NULL`
	args := []interface{}{sessionID}
	if classID != "" {
		query += " AND s.class_id = $2"
		args = append(args, classID)
	}
	query += " ORDER BY t.paid_at ASC"
	var entries []models.CollectionEntry
	if err := r.db.SelectContext(ctx, &entries, query, args...); err != nil {
		return nil, fmt.Errorf("list session payments: %w", err)
	}
	return entries, nil
}
