package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func monthlyFeeRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "fee_record_id", "month", "year", "academic_month", "monthly_amount", "paid_amount", "balance_amount", "due_date", "created_at", "updated_at"}).
		AddRow("mf-apr", "rec-1", 4, 2025, 1, int64(1000), int64(1000), int64(0), now, now, now).
		AddRow("mf-may", "rec-1", 5, 2025, 2, int64(1000), int64(0), int64(1000), now, now, now)
}

func TestMonthlyFeeRepositoryListByRecord(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMonthlyFeeRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("FROM monthly_fees WHERE fee_record_id = $1 ORDER BY year ASC, month ASC")).
		WithArgs("rec-1").
		WillReturnRows(monthlyFeeRows())

	months, err := repo.ListByRecord(context.Background(), "rec-1")
	require.NoError(t, err)
	require.Len(t, months, 2)
	assert.Equal(t, 4, months[0].Month)
	assert.Equal(t, int64(1000), months[1].BalanceAmount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMonthlyFeeRepositoryListOutstanding(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMonthlyFeeRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "fee_record_id", "month", "year", "academic_month", "monthly_amount", "paid_amount", "balance_amount", "due_date", "created_at", "updated_at"}).
		AddRow("mf-may", "rec-1", 5, 2025, 2, int64(1000), int64(0), int64(1000), now, now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM monthly_fees WHERE fee_record_id = $1 AND balance_amount > 0")).
		WithArgs("rec-1").
		WillReturnRows(rows)

	months, err := repo.ListOutstanding(context.Background(), "rec-1")
	require.NoError(t, err)
	require.Len(t, months, 1)
	assert.Equal(t, "mf-may", months[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMonthlyFeeRepositoryListByRecords(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMonthlyFeeRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("FROM monthly_fees WHERE fee_record_id IN")).
		WithArgs("rec-1").
		WillReturnRows(monthlyFeeRows())

	grouped, err := repo.ListByRecords(context.Background(), []string{"rec-1"})
	require.NoError(t, err)
	require.Len(t, grouped["rec-1"], 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMonthlyFeeRepositoryListByRecordsEmptyInput(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewMonthlyFeeRepository(db)
	grouped, err := repo.ListByRecords(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, grouped)
}
