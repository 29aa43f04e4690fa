package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javedansari81/sunrise-school-management-sub000/internal/models"
)

func feeStructureRow() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "class_id", "session_id", "tuition_fee", "development_fee", "activity_fee", "transport_fee", "library_fee", "exam_fee", "other_fee", "total_annual_fee", "active", "created_at", "updated_at"}).
		AddRow("fs-1", "class-5", "session-2025", int64(80000), int64(10000), int64(10000), int64(0), int64(5000), int64(10000), int64(5000), int64(120000), true, now, now)
}

func TestFeeStructureRepositoryFindActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewFeeStructureRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("FROM fee_structures WHERE class_id = $1 AND session_id = $2 AND active = TRUE LIMIT 1")).
		WithArgs("class-5", "session-2025").
		WillReturnRows(feeStructureRow())

	structure, err := repo.FindActive(context.Background(), "class-5", "session-2025")
	require.NoError(t, err)
	assert.Equal(t, "fs-1", structure.ID)
	assert.Equal(t, int64(120000), structure.TotalAnnualFee)
	assert.Equal(t, structure.TotalAnnualFee, structure.ComponentSum())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFeeStructureRepositoryFindActiveNoRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewFeeStructureRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("FROM fee_structures WHERE class_id = $1 AND session_id = $2 AND active = TRUE LIMIT 1")).
		WithArgs("class-9", "session-2025").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repo.FindActive(context.Background(), "class-9", "session-2025")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFeeStructureRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewFeeStructureRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("FROM fee_structures WHERE class_id = $1 AND session_id = $2 AND active = $3")).
		WithArgs("class-5", "session-2025", true).
		WillReturnRows(feeStructureRow())

	active := true
	structures, err := repo.List(context.Background(), models.FeeStructureFilter{
		ClassID:   "class-5",
		SessionID: "session-2025",
		Active:    &active,
	})
	require.NoError(t, err)
	require.Len(t, structures, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}
